package store

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/hk-bmi/ontoemma/models"
)

// importOBO parses an OBO-format ontology into a KnowledgeBase. Only
// [Term] stanzas contribute; obsolete terms are skipped. Recognized tags:
// id, name, synonym, def, is_a, and relationship (typed edges such as
// part_of).
func (s *Store) importOBO(name, path string) (*models.KnowledgeBase, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open OBO file %s: %w", path, err)
	}
	defer f.Close()

	kb := &models.KnowledgeBase{Name: name}
	kb.BuildIndex()

	type oboEdge struct {
		subject  string
		object   string
		relation string
	}
	var edges []oboEdge

	var term *models.Entity
	obsolete := false
	inTerm := false

	flush := func() {
		if inTerm && term != nil && !obsolete && term.ResearchEntityID != "" {
			if term.CanonicalName == "" {
				term.CanonicalName = term.ResearchEntityID
			}
			kb.AddEntity(term)
		}
		term = nil
		obsolete = false
		inTerm = false
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "[Term]":
			flush()
			inTerm = true
			term = &models.Entity{}
		case strings.HasPrefix(line, "["):
			// some other stanza type ([Typedef], [Instance])
			flush()
		case !inTerm || line == "":
			continue
		default:
			tag, value, ok := strings.Cut(line, ": ")
			if !ok {
				continue
			}
			switch tag {
			case "id":
				term.ResearchEntityID = value
			case "name":
				term.CanonicalName = value
			case "def":
				term.Definition = quotedValue(value)
			case "synonym":
				if syn := quotedValue(value); syn != "" {
					term.Aliases = append(term.Aliases, syn)
				}
			case "is_a":
				edges = append(edges, oboEdge{term.ResearchEntityID, oboTarget(value), "is_a"})
			case "relationship":
				rel, rest, ok := strings.Cut(value, " ")
				if ok {
					edges = append(edges, oboEdge{term.ResearchEntityID, oboTarget(rest), rel})
				}
			case "is_obsolete":
				obsolete = strings.HasPrefix(value, "true")
			}
		}
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read OBO file %s: %w", path, err)
	}

	for i, e := range edges {
		if e.subject == "" || e.object == "" {
			continue
		}
		kb.AddRelation(&models.Relation{
			RelationID:   fmt.Sprintf("%s:rel:%d", name, i),
			RelationType: e.relation,
			EntityIDs:    [2]string{e.subject, e.object},
		})
	}
	return kb, nil
}

// quotedValue extracts the quoted payload of an OBO def/synonym line, e.g.
// `"heart attack" EXACT []` -> `heart attack`.
func quotedValue(value string) string {
	start := strings.Index(value, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(value[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return value[start+1 : start+1+end]
}

// oboTarget strips the trailing "! name" comment from an id reference.
func oboTarget(value string) string {
	id, _, _ := strings.Cut(value, "!")
	return strings.TrimSpace(id)
}
