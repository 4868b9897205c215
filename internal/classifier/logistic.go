package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"

	"github.com/hk-bmi/ontoemma/internal/features"
)

const (
	learningRate = 0.5
	epochs       = 500
)

// Logistic is a batch-gradient-descent logistic regression over the fixed
// feature ordering of features.FeatureNames. Training is fully
// deterministic: zero initialization, fixed iteration order, fixed epoch
// count.
type Logistic struct {
	weights []float64
	bias    float64
}

// NewLogistic returns an untrained logistic classifier.
func NewLogistic() *Logistic {
	return &Logistic{weights: make([]float64, len(features.FeatureNames))}
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func (c *Logistic) decision(x []float64) float64 {
	z := c.bias
	for i, w := range c.weights {
		z += w * x[i]
	}
	return sigmoid(z)
}

// Train fits weights by full-batch gradient descent.
func (c *Logistic) Train(vectors []features.FeatureVector, labels []float64) error {
	if len(vectors) == 0 {
		return fmt.Errorf("empty training set")
	}
	if len(vectors) != len(labels) {
		return fmt.Errorf("feature/label size mismatch: %d vs %d", len(vectors), len(labels))
	}

	xs := make([][]float64, len(vectors))
	for i, fv := range vectors {
		xs[i] = fv.Vector()
	}

	n := float64(len(xs))
	c.weights = make([]float64, len(features.FeatureNames))
	c.bias = 0

	for epoch := 0; epoch < epochs; epoch++ {
		gradW := make([]float64, len(c.weights))
		gradB := 0.0
		for i, x := range xs {
			delta := c.decision(x) - labels[i]
			for j, xj := range x {
				gradW[j] += delta * xj
			}
			gradB += delta
		}
		for j := range c.weights {
			c.weights[j] -= learningRate * gradW[j] / n
		}
		c.bias -= learningRate * gradB / n
	}
	return nil
}

// ScoreAccuracy classifies at the 0.5 boundary and returns the fraction of
// correct predictions.
func (c *Logistic) ScoreAccuracy(vectors []features.FeatureVector, labels []float64) (float64, error) {
	if len(vectors) == 0 {
		return 0, fmt.Errorf("empty evaluation set")
	}
	if len(vectors) != len(labels) {
		return 0, fmt.Errorf("feature/label size mismatch: %d vs %d", len(vectors), len(labels))
	}
	correct := 0
	for i, fv := range vectors {
		p := c.decision(fv.Vector())
		if (p >= 0.5) == (labels[i] > 0) {
			correct++
		}
	}
	return float64(correct) / float64(len(vectors)), nil
}

// PredictEntityPair returns [p(no match), p(match)].
func (c *Logistic) PredictEntityPair(fv features.FeatureVector) ([2]float64, error) {
	if len(c.weights) != len(features.FeatureNames) {
		return [2]float64{}, fmt.Errorf("classifier not trained or loaded")
	}
	p := c.decision(fv.Vector())
	return [2]float64{1 - p, p}, nil
}

// logisticModel is the JSON persistence shape. Feature names are stored so
// a model trained against a different feature ordering is rejected on load.
type logisticModel struct {
	FeatureNames []string  `json:"feature_names"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
}

// Save writes the model as JSON.
func (c *Logistic) Save(fs afero.Fs, path string) error {
	data, err := json.MarshalIndent(logisticModel{
		FeatureNames: features.FeatureNames,
		Weights:      c.weights,
		Bias:         c.bias,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create model directory %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write model %s: %w", path, err)
	}
	return nil
}

// Load restores a model written by Save.
func (c *Logistic) Load(fs afero.Fs, path string) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("read model %s: %w", path, err)
	}
	var m logisticModel
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parse model %s: %w", path, err)
	}
	if !slices.Equal(m.FeatureNames, features.FeatureNames) {
		return fmt.Errorf("model %s was trained on a different feature set", path)
	}
	c.weights = m.Weights
	c.bias = m.Bias
	return nil
}
