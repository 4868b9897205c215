package store

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/hk-bmi/ontoemma/models"
)

// importOWL parses an OWL/RDF-XML ontology into a KnowledgeBase. Each
// owl:Class with an rdf:about id becomes an entity; rdfs:label is the
// canonical name, oboInOwl hasExactSynonym elements become aliases,
// IAO_0000115 the definition, and rdfs:subClassOf rdf:resource references
// become parent relations. subClassOf restrictions without a direct
// resource reference are skipped.
func (s *Store) importOWL(name, path string) (*models.KnowledgeBase, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open OWL file %s: %w", path, err)
	}
	defer f.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("parse OWL file %s: %w", path, err)
	}

	kb := &models.KnowledgeBase{Name: name}
	kb.BuildIndex()

	type owlEdge struct {
		subject string
		object  string
	}
	var edges []owlEdge

	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		if el.Tag == "Class" {
			if about := el.SelectAttrValue("rdf:about", ""); about != "" {
				ent := &models.Entity{ResearchEntityID: about, CanonicalName: about}
				for _, child := range el.ChildElements() {
					switch child.Tag {
					case "label":
						if text := child.Text(); text != "" {
							ent.CanonicalName = text
						}
					case "hasExactSynonym", "hasRelatedSynonym":
						if text := child.Text(); text != "" {
							ent.Aliases = append(ent.Aliases, text)
						}
					case "IAO_0000115":
						ent.Definition = child.Text()
					case "subClassOf":
						if parent := child.SelectAttrValue("rdf:resource", ""); parent != "" {
							edges = append(edges, owlEdge{about, parent})
						}
					}
				}
				kb.AddEntity(ent)
			}
		}
		for _, child := range el.ChildElements() {
			walk(child)
		}
	}
	if root := doc.Root(); root != nil {
		walk(root)
	}

	for i, e := range edges {
		kb.AddRelation(&models.Relation{
			RelationID:   fmt.Sprintf("%s:rel:%d", name, i),
			RelationType: "subClassOf",
			EntityIDs:    [2]string{e.subject, e.object},
		})
	}
	return kb, nil
}
