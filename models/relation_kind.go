package models

// RelationKind classifies the loose relation-type labels found in source
// vocabularies into the closed set the matcher traverses.
type RelationKind string

const (
	RelationSynonym RelationKind = "synonym"
	RelationParent  RelationKind = "parent"
	RelationChild   RelationKind = "child"
	RelationSibling RelationKind = "sibling"
	RelationOther   RelationKind = "other"
)

// RelationLabelTableVersion identifies the raw-label mapping below. Bump it
// whenever a label is added or reclassified; trained models depend on the
// traversal this table produces.
const RelationLabelTableVersion = 1

// relationLabelTable maps raw relation-type labels, as they appear in UMLS,
// OBO, and OWL sources, onto RelationKind values.
var relationLabelTable = map[string]RelationKind{
	// UMLS synonymy
	"RL": RelationSynonym,
	"RQ": RelationSynonym,
	"RU": RelationSynonym,
	"SY": RelationSynonym,
	// parents
	"RB":         RelationParent,
	"PAR":        RelationParent,
	"Is a":       RelationParent,
	"Part of":    RelationParent,
	"subClassOf": RelationParent,
	"is_a":       RelationParent,
	"part_of":    RelationParent,
	// children
	"RN":       RelationChild,
	"CHD":      RelationChild,
	"Has part": RelationChild,
	"subClass": RelationChild,
	"has_part": RelationChild,
	// siblings
	"SIB": RelationSibling,
	"RO":  RelationSibling,
}

// ClassifyRelationLabel maps a raw relation-type label onto its
// RelationKind. Unknown labels classify as RelationOther and are ignored by
// relational features.
func ClassifyRelationLabel(label string) RelationKind {
	if kind, ok := relationLabelTable[label]; ok {
		return kind
	}
	return RelationOther
}

// Kind returns the classified kind of the relation's raw type label.
func (r *Relation) Kind() RelationKind {
	return ClassifyRelationLabel(r.RelationType)
}
