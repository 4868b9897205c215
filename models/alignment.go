package models

import (
	"sort"
	"strconv"
	"strings"
)

// AlignmentPair is a single scored cross-KB match.
type AlignmentPair struct {
	SourceID string
	TargetID string
	Score    float64
}

// Alignment is the produced set of matches. Insertion order carries no
// meaning; serialization sorts by score descending.
type Alignment []AlignmentPair

// SortedByScore returns a copy sorted by score descending, with (source,
// target) id order breaking ties so output is stable.
func (a Alignment) SortedByScore() Alignment {
	out := make(Alignment, len(a))
	copy(out, a)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].SourceID != out[j].SourceID {
			return out[i].SourceID < out[j].SourceID
		}
		return out[i].TargetID < out[j].TargetID
	})
	return out
}

// PairSet returns the (source, target) pairs as a set, dropping scores.
func (a Alignment) PairSet() map[[2]string]struct{} {
	set := make(map[[2]string]struct{}, len(a))
	for _, p := range a {
		set[[2]string{p.SourceID, p.TargetID}] = struct{}{}
	}
	return set
}

// GoldMapping is one row of a gold alignment file. Measure is kept raw
// because OAEI RDF files carry non-numeric measures (for example the "="
// relation marker); TSV loaders guarantee it is a float string.
type GoldMapping struct {
	SourceID string
	TargetID string
	Measure  string
}

// Score float-parses the measure.
func (m GoldMapping) Score() (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(m.Measure), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Positive reports whether the mapping counts as a gold-true pair: the
// measure must be present, float-parseable, and greater than zero.
// Non-numeric measures are treated as non-positive.
func (m GoldMapping) Positive() bool {
	f, ok := m.Score()
	return ok && f > 0
}

// GoldPositivePairs extracts the set of positive (source, target) pairs
// from a gold alignment.
func GoldPositivePairs(mappings []GoldMapping) map[[2]string]struct{} {
	set := make(map[[2]string]struct{})
	for _, m := range mappings {
		if m.Positive() {
			set[[2]string{m.SourceID, m.TargetID}] = struct{}{}
		}
	}
	return set
}

// EvaluationReport holds precision/recall/F1 for an alignment measured
// against a gold standard. Metrics are pointers because each can be
// undefined: precision has no value without predictions, recall none
// without gold positives, F1 none unless both exist and sum above zero.
type EvaluationReport struct {
	GoldPositives      int
	PredictedPositives int
	TruePositives      int
	Precision          *float64
	Recall             *float64
	F1                 *float64
}
