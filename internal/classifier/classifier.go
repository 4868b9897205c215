// Package classifier defines the pluggable pairwise match classifier
// contract and ships a deterministic logistic-regression default. The
// matcher only depends on the interface; alternatives plug in through the
// factory.
package classifier

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/hk-bmi/ontoemma/internal/features"
)

// Classifier scores how likely a feature vector is to describe two entities
// denoting the same concept.
type Classifier interface {
	// Train fits the classifier on feature vectors and their binary labels
	// (0 or 1, parallel slices).
	Train(vectors []features.FeatureVector, labels []float64) error

	// ScoreAccuracy returns the fraction of examples classified correctly
	// at the 0.5 decision boundary.
	ScoreAccuracy(vectors []features.FeatureVector, labels []float64) (float64, error)

	// PredictEntityPair returns the per-class probabilities
	// [p(no match), p(match)] for one pair.
	PredictEntityPair(fv features.FeatureVector) ([2]float64, error)

	// Save persists the trained model to path.
	Save(fs afero.Fs, path string) error

	// Load restores a model previously written by Save.
	Load(fs afero.Fs, path string) error
}

// New constructs a classifier by name. "logistic" is the default and
// currently the only built-in.
func New(name string) (Classifier, error) {
	switch name {
	case "", "logistic":
		return NewLogistic(), nil
	default:
		return nil, fmt.Errorf("unknown classifier %q", name)
	}
}
