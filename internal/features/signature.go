// Package features computes the fixed-size similarity feature vector for a
// (source entity, target entity) pair. A Generator is bound to one KB pair:
// it precomputes a token signature per entity up front so that the many
// pairwise queries made during training and alignment only combine cached
// signatures.
package features

import (
	"hash/fnv"
	"math/rand"
	"sort"

	"github.com/hk-bmi/ontoemma/internal/stringutil"
	"github.com/hk-bmi/ontoemma/models"
)

// TokenSignature caches every token-derived view of a single entity. A
// signature is valid only for the KB pair the Generator was built on:
// stemmed and lemmatized forms are session-scoped cache entries, not
// entity-global facts.
type TokenSignature struct {
	NameTokens       []string
	StemmedTokens    []string
	LemmatizedTokens []string
	CharTokens       []string
	AliasTokens      [][]string
	ParentNames      map[string]struct{}
	ChildNames       map[string]struct{}
}

func (g *Generator) computeSignature(ent *models.Entity, kb *models.KnowledgeBase) *TokenSignature {
	nameTokens := stringutil.Tokenize(ent.CanonicalName)

	stemmed := make([]string, len(nameTokens))
	lemmatized := make([]string, len(nameTokens))
	for i, tok := range nameTokens {
		stemmed[i] = g.stem(tok)
		lemmatized[i] = g.lemmatizer.Lemma(tok)
	}

	aliases := sampleAliases(ent.Aliases, g.aliasBound, g.aliasSeed, ent.ResearchEntityID)
	aliasTokens := make([][]string, 0, len(aliases))
	for _, a := range aliases {
		aliasTokens = append(aliasTokens, stringutil.Tokenize(a))
	}

	return &TokenSignature{
		NameTokens:       nameTokens,
		StemmedTokens:    stemmed,
		LemmatizedTokens: lemmatized,
		CharTokens:       stringutil.CharNGrams(ent.CanonicalName, g.ngramSize),
		AliasTokens:      aliasTokens,
		ParentNames:      relatedEntityNames(ent, kb, models.RelationParent),
		ChildNames:       relatedEntityNames(ent, kb, models.RelationChild),
	}
}

// relatedEntityNames resolves the entity's relations of the given kind to
// the normalized name-token tuples of their object endpoints. Relations
// whose id or endpoint cannot be resolved in the KB are skipped.
func relatedEntityNames(ent *models.Entity, kb *models.KnowledgeBase, kind models.RelationKind) map[string]struct{} {
	names := make(map[string]struct{})
	for _, relID := range ent.RelationIDs {
		rel, ok := kb.RelationByID(relID)
		if !ok || rel.Kind() != kind {
			continue
		}
		related, ok := kb.EntityByID(rel.EntityIDs[1])
		if !ok {
			continue
		}
		names[stringutil.TupleKey(stringutil.Tokenize(related.CanonicalName))] = struct{}{}
	}
	return names
}

// sampleAliases keeps alias lists within the bound untouched and
// deterministically subsamples oversized ones. The draw is seeded from the
// configured seed plus the entity id, so a given entity always yields the
// same sample regardless of iteration order. Sampled aliases keep their
// original relative order.
func sampleAliases(aliases []string, bound int, seed int64, entityID string) []string {
	if bound <= 0 || len(aliases) <= bound {
		return aliases
	}
	h := fnv.New64a()
	h.Write([]byte(entityID))
	rng := rand.New(rand.NewSource(seed ^ int64(h.Sum64())))

	picked := rng.Perm(len(aliases))[:bound]
	sort.Ints(picked)
	out := make([]string, 0, bound)
	for _, i := range picked {
		out = append(out, aliases[i])
	}
	return out
}
