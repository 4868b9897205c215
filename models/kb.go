package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Entity is a single concept in a knowledge base: a canonical name, its
// aliases, an optional definition, and the ids of the relations it
// participates in. Entities are immutable once their KB is loaded.
type Entity struct {
	ResearchEntityID string   `json:"research_entity_id" validate:"required"`
	CanonicalName    string   `json:"canonical_name" validate:"required"`
	Aliases          []string `json:"aliases,omitempty"`
	Definition       string   `json:"definition,omitempty"`
	RelationIDs      []string `json:"relation_ids,omitempty"`
}

// Relation is a typed edge between two entity ids. EntityIDs[0] is the
// subject and EntityIDs[1] the object; relation traversal always resolves
// the object side.
type Relation struct {
	RelationID   string    `json:"relation_id" validate:"required"`
	RelationType string    `json:"relation_type" validate:"required"`
	EntityIDs    [2]string `json:"entity_ids"`
	Symmetric    bool      `json:"symmetric,omitempty"`
}

// KnowledgeBase owns an ordered sequence of entities and the relations
// declared between them. The matching pipeline never mutates a loaded KB.
type KnowledgeBase struct {
	Name      string      `json:"name"`
	Entities  []*Entity   `json:"entities"`
	Relations []*Relation `json:"relations,omitempty"`

	entityByID   map[string]*Entity
	relationByID map[string]*Relation
}

// BuildIndex (re)builds the id lookup maps. It must be called after the
// entity and relation slices are populated; loaders do this before handing
// the KB out.
func (kb *KnowledgeBase) BuildIndex() {
	kb.entityByID = make(map[string]*Entity, len(kb.Entities))
	for _, ent := range kb.Entities {
		kb.entityByID[ent.ResearchEntityID] = ent
	}
	kb.relationByID = make(map[string]*Relation, len(kb.Relations))
	for _, rel := range kb.Relations {
		kb.relationByID[rel.RelationID] = rel
	}
}

// EntityByID looks up an entity by its research entity id. Absence is not
// an error: callers skip missing entities.
func (kb *KnowledgeBase) EntityByID(id string) (*Entity, bool) {
	ent, ok := kb.entityByID[id]
	return ent, ok
}

// RelationByID looks up a relation by id.
func (kb *KnowledgeBase) RelationByID(id string) (*Relation, bool) {
	rel, ok := kb.relationByID[id]
	return rel, ok
}

// AddEntity appends an entity and indexes it. Used by the format importers
// while building a KB incrementally.
func (kb *KnowledgeBase) AddEntity(ent *Entity) {
	if kb.entityByID == nil {
		kb.entityByID = make(map[string]*Entity)
	}
	kb.Entities = append(kb.Entities, ent)
	kb.entityByID[ent.ResearchEntityID] = ent
}

// AddRelation appends a relation, indexes it, and records its id on the
// subject entity if that entity is already present.
func (kb *KnowledgeBase) AddRelation(rel *Relation) {
	if kb.relationByID == nil {
		kb.relationByID = make(map[string]*Relation)
	}
	kb.Relations = append(kb.Relations, rel)
	kb.relationByID[rel.RelationID] = rel
	if subject, ok := kb.EntityByID(rel.EntityIDs[0]); ok {
		subject.RelationIDs = append(subject.RelationIDs, rel.RelationID)
	}
}

// global validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate checks structural invariants of a loaded KB: entity and relation
// fields present, no duplicate entity ids.
func (kb *KnowledgeBase) Validate() error {
	seen := make(map[string]struct{}, len(kb.Entities))
	for _, ent := range kb.Entities {
		if err := validate.Struct(ent); err != nil {
			return fmt.Errorf("invalid entity %q: %w", ent.ResearchEntityID, err)
		}
		if _, dup := seen[ent.ResearchEntityID]; dup {
			return fmt.Errorf("duplicate entity id %q", ent.ResearchEntityID)
		}
		seen[ent.ResearchEntityID] = struct{}{}
	}
	for _, rel := range kb.Relations {
		if err := validate.Struct(rel); err != nil {
			return fmt.Errorf("invalid relation %q: %w", rel.RelationID, err)
		}
	}
	return nil
}
