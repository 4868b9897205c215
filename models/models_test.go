package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnowledgeBaseLookup(t *testing.T) {
	kb := &KnowledgeBase{
		Name: "test",
		Entities: []*Entity{
			{ResearchEntityID: "test:1", CanonicalName: "heart"},
			{ResearchEntityID: "test:2", CanonicalName: "left ventricle"},
		},
		Relations: []*Relation{
			{RelationID: "r1", RelationType: "is_a", EntityIDs: [2]string{"test:2", "test:1"}},
		},
	}
	kb.BuildIndex()

	ent, ok := kb.EntityByID("test:2")
	require.True(t, ok)
	assert.Equal(t, "left ventricle", ent.CanonicalName)

	_, ok = kb.EntityByID("test:404")
	assert.False(t, ok)

	rel, ok := kb.RelationByID("r1")
	require.True(t, ok)
	assert.Equal(t, RelationParent, rel.Kind())
}

func TestKnowledgeBaseValidate(t *testing.T) {
	kb := &KnowledgeBase{
		Name: "test",
		Entities: []*Entity{
			{ResearchEntityID: "test:1", CanonicalName: "heart"},
			{ResearchEntityID: "test:1", CanonicalName: "heart again"},
		},
	}
	kb.BuildIndex()
	assert.ErrorContains(t, kb.Validate(), "duplicate entity id")

	missing := &KnowledgeBase{Entities: []*Entity{{ResearchEntityID: "test:2"}}}
	missing.BuildIndex()
	assert.Error(t, missing.Validate())
}

func TestClassifyRelationLabel(t *testing.T) {
	tests := []struct {
		label string
		want  RelationKind
	}{
		{"PAR", RelationParent},
		{"is_a", RelationParent},
		{"subClassOf", RelationParent},
		{"CHD", RelationChild},
		{"has_part", RelationChild},
		{"SY", RelationSynonym},
		{"SIB", RelationSibling},
		{"mystery_edge", RelationOther},
		{"", RelationOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyRelationLabel(tt.label), "label %q", tt.label)
	}
}

func TestAlignmentSortedByScore(t *testing.T) {
	a := Alignment{
		{SourceID: "s2", TargetID: "t2", Score: 0.5},
		{SourceID: "s1", TargetID: "t1", Score: 0.9},
		{SourceID: "s3", TargetID: "t3", Score: 0.5},
	}
	sorted := a.SortedByScore()
	assert.Equal(t, "s1", sorted[0].SourceID)
	// ties break on id order
	assert.Equal(t, "s2", sorted[1].SourceID)
	assert.Equal(t, "s3", sorted[2].SourceID)
	// input untouched
	assert.Equal(t, "s2", a[0].SourceID)
}

func TestGoldMappingPositive(t *testing.T) {
	assert.True(t, GoldMapping{Measure: "1.0"}.Positive())
	assert.True(t, GoldMapping{Measure: "0.5"}.Positive())
	assert.False(t, GoldMapping{Measure: "0"}.Positive())
	assert.False(t, GoldMapping{Measure: "-1"}.Positive())
	// non-numeric OAEI measures ("=") do not count as positive
	assert.False(t, GoldMapping{Measure: "="}.Positive())
	assert.False(t, GoldMapping{Measure: ""}.Positive())
}

func TestGoldPositivePairs(t *testing.T) {
	pairs := GoldPositivePairs([]GoldMapping{
		{SourceID: "a", TargetID: "b", Measure: "1.0"},
		{SourceID: "c", TargetID: "d", Measure: "0"},
		{SourceID: "e", TargetID: "f", Measure: "="},
	})
	require.Len(t, pairs, 1)
	_, ok := pairs[[2]string{"a", "b"}]
	assert.True(t, ok)
}
