package stringutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Myocardial Infarction", "myocardial infarction"},
		{"strips punctuation", "heart-attack (acute)", "heart attack acute"},
		{"collapses whitespace", "  left \t ventricle  ", "left ventricle"},
		{"keeps digits", "Type 2 Diabetes", "type 2 diabetes"},
		{"empty", "", ""},
		{"only punctuation", "--- !!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"myocardial", "infarction"}, Tokenize("Myocardial Infarction"))
	// stopwords are removed
	assert.Equal(t, []string{"disease", "heart"}, Tokenize("disease of the heart"))
	assert.Nil(t, Tokenize(""))
	assert.Nil(t, Tokenize("of the and"))
}

func TestCharNGrams(t *testing.T) {
	assert.Equal(t, []string{"heart"}, CharNGrams("heart", 5))
	assert.Equal(t, []string{"hear", "eart"}, CharNGrams("heart", 4))
	// degenerate case: shorter than n yields the whole string as one gram
	assert.Equal(t, []string{"rib"}, CharNGrams("rib", 5))
	assert.Nil(t, CharNGrams("", 5))
}

func TestJaccard(t *testing.T) {
	a := ToSet([]string{"heart", "attack"})
	b := ToSet([]string{"heart", "failure"})

	assert.InDelta(t, 1.0/3.0, Jaccard(a, b), 1e-9)
	// symmetry
	assert.Equal(t, Jaccard(a, b), Jaccard(b, a))
	// both empty is defined as 1.0
	assert.Equal(t, 1.0, Jaccard(nil, nil))
	assert.Equal(t, 0.0, Jaccard(a, nil))
	assert.Equal(t, 1.0, Jaccard(a, a))
}

func TestTokenEditDistance(t *testing.T) {
	tests := []struct {
		a, b []string
		want int
	}{
		{nil, nil, 0},
		{[]string{"heart"}, nil, 1},
		{nil, []string{"heart", "attack"}, 2},
		{[]string{"heart", "attack"}, []string{"heart", "attack"}, 0},
		{[]string{"heart", "attack"}, []string{"heart", "failure"}, 1},
		{[]string{"acute", "heart", "attack"}, []string{"heart", "failure"}, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TokenEditDistance(tt.a, tt.b), "distance(%v, %v)", tt.a, tt.b)
	}
}

func TestTupleKey(t *testing.T) {
	require.Equal(t, "left ventricle", TupleKey([]string{"left", "ventricle"}))
	require.Equal(t, "", TupleKey(nil))
}
