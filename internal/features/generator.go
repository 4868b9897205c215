package features

import (
	"fmt"
	"slices"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/kljensen/snowball/english"

	"github.com/hk-bmi/ontoemma/internal/stringutil"
	"github.com/hk-bmi/ontoemma/models"
)

// FeatureNames lists every feature in vectorization order. Classifiers rely
// on this ordering; append only.
var FeatureNames = []string{
	"has_same_canonical_name",
	"has_same_stemmed_name",
	"has_same_lemmatized_name",
	"has_same_char_tokens",
	"has_alias_in_common",
	"name_token_jaccard",
	"inverse_name_edit_distance",
	"stemmed_token_jaccard",
	"inverse_stemmed_edit_distance",
	"lemmatized_token_jaccard",
	"inverse_lemmatized_edit_distance",
	"char_token_jaccard",
	"inverse_char_token_edit_distance",
	"max_alias_token_jaccard",
	"inverse_min_alias_edit_distance",
	"percent_parents_in_common",
	"percent_children_in_common",
}

// FeatureVector maps feature names to values. Boolean features are encoded
// as 0.0/1.0.
type FeatureVector map[string]float64

// Vector flattens the feature map into FeatureNames order.
func (fv FeatureVector) Vector() []float64 {
	out := make([]float64, len(FeatureNames))
	for i, name := range FeatureNames {
		out[i] = fv[name]
	}
	return out
}

// Options tunes signature construction.
type Options struct {
	NGramSize        int
	AliasSampleBound int
	AliasSampleSeed  int64
}

// Generator computes feature vectors for entity pairs drawn from one
// (source KB, target KB) pair. After construction it is read-only and safe
// to share.
type Generator struct {
	lemmatizer *golem.Lemmatizer
	ngramSize  int
	aliasBound int
	aliasSeed  int64

	sourceSigs map[string]*TokenSignature
	targetSigs map[string]*TokenSignature
}

// NewGenerator builds a Generator over the KB pair, eagerly computing a
// TokenSignature for every entity in both KBs.
func NewGenerator(source, target *models.KnowledgeBase, opts Options) (*Generator, error) {
	lemmatizer, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("initialize lemmatizer: %w", err)
	}

	g := &Generator{
		lemmatizer: lemmatizer,
		ngramSize:  opts.NGramSize,
		aliasBound: opts.AliasSampleBound,
		aliasSeed:  opts.AliasSampleSeed,
		sourceSigs: make(map[string]*TokenSignature, len(source.Entities)),
		targetSigs: make(map[string]*TokenSignature, len(target.Entities)),
	}
	for _, ent := range source.Entities {
		g.sourceSigs[ent.ResearchEntityID] = g.computeSignature(ent, source)
	}
	for _, ent := range target.Entities {
		g.targetSigs[ent.ResearchEntityID] = g.computeSignature(ent, target)
	}
	return g, nil
}

func (g *Generator) stem(token string) string {
	return english.Stem(token, false)
}

// Features computes the feature vector for a (source id, target id) pair.
// Both ids must belong to the KBs the generator was built on; querying an
// unknown id is a caller contract violation and returns an error.
func (g *Generator) Features(sourceID, targetID string) (FeatureVector, error) {
	s, ok := g.sourceSigs[sourceID]
	if !ok {
		return nil, fmt.Errorf("no cached signature for source entity %q", sourceID)
	}
	t, ok := g.targetSigs[targetID]
	if !ok {
		return nil, fmt.Errorf("no cached signature for target entity %q", targetID)
	}

	fv := make(FeatureVector, len(FeatureNames))

	sameName := slices.Equal(s.NameTokens, t.NameTokens)
	sameStemmed := slices.Equal(s.StemmedTokens, t.StemmedTokens)
	sameLemmatized := slices.Equal(s.LemmatizedTokens, t.LemmatizedTokens)
	sameChar := slices.Equal(s.CharTokens, t.CharTokens)

	fv["has_same_canonical_name"] = boolFeature(sameName)
	fv["has_same_stemmed_name"] = boolFeature(sameStemmed)
	fv["has_same_lemmatized_name"] = boolFeature(sameLemmatized)
	fv["has_same_char_tokens"] = boolFeature(sameChar)

	aliasInCommon := hasAliasInCommon(s.AliasTokens, t.AliasTokens)
	fv["has_alias_in_common"] = boolFeature(aliasInCommon)

	// The denominators below are only used on the unequal branches, where
	// at least one sequence is non-empty.
	maxChanges := float64(len(s.NameTokens) + len(t.NameTokens))
	maxCharChanges := float64(len(s.CharTokens) + len(t.CharTokens))

	fv["name_token_jaccard"], fv["inverse_name_edit_distance"] =
		tokenSimilarity(sameName, s.NameTokens, t.NameTokens, maxChanges)
	fv["stemmed_token_jaccard"], fv["inverse_stemmed_edit_distance"] =
		tokenSimilarity(sameStemmed, s.StemmedTokens, t.StemmedTokens, maxChanges)
	fv["lemmatized_token_jaccard"], fv["inverse_lemmatized_edit_distance"] =
		tokenSimilarity(sameLemmatized, s.LemmatizedTokens, t.LemmatizedTokens, maxChanges)
	fv["char_token_jaccard"], fv["inverse_char_token_edit_distance"] =
		tokenSimilarity(sameChar, s.CharTokens, t.CharTokens, maxCharChanges)

	fv["max_alias_token_jaccard"], fv["inverse_min_alias_edit_distance"] =
		bestAliasMatch(aliasInCommon, s.AliasTokens, t.AliasTokens)

	fv["percent_parents_in_common"] = percentInCommon(s.ParentNames, t.ParentNames)
	fv["percent_children_in_common"] = percentInCommon(s.ChildNames, t.ChildNames)

	return fv, nil
}

// tokenSimilarity returns the Jaccard similarity and inverse normalized
// edit distance for one textual representation. Equal sequences
// short-circuit to (1.0, 1.0): exact matches always score maximally and the
// empty-vs-empty case never reaches the division.
func tokenSimilarity(equal bool, a, b []string, maxChanges float64) (jaccard, inverseEditDistance float64) {
	if equal {
		return 1.0, 1.0
	}
	jaccard = stringutil.Jaccard(stringutil.ToSet(a), stringutil.ToSet(b))
	inverseEditDistance = 1.0 - float64(stringutil.TokenEditDistance(a, b))/maxChanges
	return jaccard, inverseEditDistance
}

// hasAliasInCommon reports whether any alias token tuple appears on both
// sides.
func hasAliasInCommon(a, b [][]string) bool {
	keys := make(map[string]struct{}, len(a))
	for _, tokens := range a {
		keys[stringutil.TupleKey(tokens)] = struct{}{}
	}
	for _, tokens := range b {
		if _, ok := keys[stringutil.TupleKey(tokens)]; ok {
			return true
		}
	}
	return false
}

// bestAliasMatch scans all alias token pair combinations for the maximum
// Jaccard similarity and minimum normalized edit distance. When an exact
// alias overlap was already found the scan is skipped and both accumulators
// stay at their baselines.
func bestAliasMatch(aliasInCommon bool, sAliases, tAliases [][]string) (maxJaccard, inverseMinEditDistance float64) {
	maxAliasJaccard := 0.0
	minAliasEditDistance := 1.0

	if !aliasInCommon {
		for _, sTokens := range sAliases {
			if len(sTokens) == 0 {
				continue
			}
			sSet := stringutil.ToSet(sTokens)
			for _, tTokens := range tAliases {
				if len(tTokens) == 0 {
					continue
				}
				if j := stringutil.Jaccard(sSet, stringutil.ToSet(tTokens)); j > maxAliasJaccard {
					maxAliasJaccard = j
				}
				dist := float64(stringutil.TokenEditDistance(sTokens, tTokens)) /
					float64(len(sTokens)+len(tTokens))
				if dist < minAliasEditDistance {
					minAliasEditDistance = dist
				}
			}
		}
	}
	return maxAliasJaccard, 1.0 - minAliasEditDistance
}

// percentInCommon computes |A∩B| / avg(|A|,|B|) when both sides relate to
// at least one entity, else 0.0. Trained models depend on the averaged
// denominator; do not change it to a union size.
func percentInCommon(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	intersection := 0
	for name := range a {
		if _, ok := b[name]; ok {
			intersection++
		}
	}
	return float64(intersection) / (float64(len(a)+len(b)) / 2.0)
}

func boolFeature(v bool) float64 {
	if v {
		return 1.0
	}
	return 0.0
}
