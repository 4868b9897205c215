package store

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/hk-bmi/ontoemma/models"
)

// LoadGoldAlignment reads a gold alignment, dispatching on extension:
// .tsv for the tab-separated format and .rdf for OAEI alignment XML.
func (s *Store) LoadGoldAlignment(path string) ([]models.GoldMapping, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv":
		return s.loadGoldTSV(path)
	case ".rdf":
		return s.loadGoldRDF(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// loadGoldTSV parses rows of `source_id \t target_id \t label \t (ignored)`.
// Labels must float-parse; a malformed row is a fatal format error.
func (s *Store) loadGoldTSV(path string) ([]models.GoldMapping, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gold alignment %s: %w", path, err)
	}
	defer f.Close()

	var mappings []models.GoldMapping
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			return nil, fmt.Errorf("parse gold alignment %s line %d: expected 4 tab-separated columns, got %d", path, lineNo, len(fields))
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64); err != nil {
			return nil, fmt.Errorf("parse gold alignment %s line %d: label %q is not a number", path, lineNo, fields[2])
		}
		mappings = append(mappings, models.GoldMapping{
			SourceID: fields[0],
			TargetID: fields[1],
			Measure:  fields[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read gold alignment %s: %w", path, err)
	}
	return mappings, nil
}

// loadGoldRDF parses an OAEI alignment file. Entity references are taken
// as raw resource strings and measures as raw text; non-numeric measures
// ("=" relation markers and the like) survive the load and are filtered
// when positivity is evaluated.
func (s *Store) loadGoldRDF(path string) ([]models.GoldMapping, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gold alignment %s: %w", path, err)
	}
	defer f.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("parse gold alignment %s: %w", path, err)
	}

	// The Alignment element is usually wrapped in rdf:RDF, but a file whose
	// root is the Alignment itself is accepted too.
	alignment := doc.Root()
	if alignment != nil && alignment.Tag != "Alignment" {
		alignment = findChild(alignment, "Alignment")
	}
	if alignment == nil {
		return nil, fmt.Errorf("parse gold alignment %s: no Alignment element", path)
	}

	var mappings []models.GoldMapping
	for _, m := range alignment.ChildElements() {
		if m.Tag != "map" {
			continue
		}
		cell := findChild(m, "Cell")
		if cell == nil {
			continue
		}
		entity1 := findChild(cell, "entity1")
		entity2 := findChild(cell, "entity2")
		if entity1 == nil || entity2 == nil {
			return nil, fmt.Errorf("parse gold alignment %s: map cell missing entity reference", path)
		}
		measure := ""
		if el := findChild(cell, "measure"); el != nil {
			measure = el.Text()
		}
		mappings = append(mappings, models.GoldMapping{
			SourceID: entity1.SelectAttrValue("rdf:resource", ""),
			TargetID: entity2.SelectAttrValue("rdf:resource", ""),
			Measure:  measure,
		})
	}
	return mappings, nil
}

func findChild(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

// WriteAlignment serializes the alignment, dispatching on the output
// extension (.tsv or .rdf). If the output directory does not exist and
// cannot be created the file falls back to the current working directory
// with a warning. The path actually written is returned.
func (s *Store) WriteAlignment(path string, alignment models.Alignment, sourceKBPath, targetKBPath string) (string, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if _, err := s.fs.Stat(dir); err != nil {
			if mkErr := s.fs.MkdirAll(dir, 0o755); mkErr != nil {
				slog.Warn("output directory cannot be created, writing alignment to the current directory",
					"dir", dir, "error", mkErr)
				cwd, _ := os.Getwd()
				path = filepath.Join(cwd, filepath.Base(path))
			}
		}
	}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv":
		err = s.writeAlignmentTSV(path, alignment)
	case ".rdf":
		err = s.writeAlignmentRDF(path, alignment, sourceKBPath, targetKBPath)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// writeAlignmentTSV writes one `source \t target \t score \t OntoEmma`
// line per pair, descending by score.
func (s *Store) writeAlignmentTSV(path string, alignment models.Alignment) error {
	f, err := s.fs.Create(path)
	if err != nil {
		return fmt.Errorf("create alignment file %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, pair := range alignment.SortedByScore() {
		fmt.Fprintf(w, "%s\t%s\t%s\tOntoEmma\n",
			pair.SourceID, pair.TargetID, strconv.FormatFloat(pair.Score, 'g', -1, 64))
	}
	return w.Flush()
}

// writeAlignmentRDF writes the OAEI alignment XML structure, one map per
// pair sorted descending by score, measures formatted to two decimals.
func (s *Store) writeAlignmentRDF(path string, alignment models.Alignment, sourceKBPath, targetKBPath string) error {
	f, err := s.fs.Create(path)
	if err != nil {
		return fmt.Errorf("create alignment file %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprint(w, "<?xml version='1.0' encoding='utf-8'?>\n")
	fmt.Fprint(w, "<rdf:RDF xmlns='http://knowledgeweb.semanticweb.org/heterogeneity/alignment'\n")
	fmt.Fprint(w, "\t xmlns:rdf='http://www.w3.org/1999/02/22-rdf-syntax-ns#' \n")
	fmt.Fprint(w, "\t xmlns:xsd='http://www.w3.org/2001/XMLSchema#' \n")
	fmt.Fprint(w, "\t alignmentSource='OntoEmma'>\n\n")
	fmt.Fprint(w, "<Alignment>\n")
	fmt.Fprint(w, "\t<xml>yes</xml>\n")
	fmt.Fprint(w, "\t<level>0</level>\n")
	fmt.Fprint(w, "\t<type>??</type>\n")
	fmt.Fprintf(w, "\t<onto1>%s</onto1>\n", sourceKBPath)
	fmt.Fprintf(w, "\t<onto2>%s</onto2>\n", targetKBPath)
	fmt.Fprintf(w, "\t<uri1>%s</uri1>\n", sourceKBPath)
	fmt.Fprintf(w, "\t<uri2>%s</uri2>\n", targetKBPath)

	for _, pair := range alignment.SortedByScore() {
		fmt.Fprint(w, "\t<map>\n")
		fmt.Fprint(w, "\t\t<Cell>\n")
		fmt.Fprintf(w, "\t\t\t<entity1 rdf:resource=\"%s\"/>\n", pair.SourceID)
		fmt.Fprintf(w, "\t\t\t<entity2 rdf:resource=\"%s\"/>\n", pair.TargetID)
		fmt.Fprintf(w, "\t\t\t<measure rdf:datatype=\"http://www.w3.org/2001/XMLSchema#float\">%.2f</measure>\n", pair.Score)
		fmt.Fprint(w, "\t\t\t<relation>=</relation>\n")
		fmt.Fprint(w, "\t\t</Cell>\n")
		fmt.Fprint(w, "\t</map>\n\n")
	}

	fmt.Fprint(w, "</Alignment>\n")
	fmt.Fprint(w, "</rdf:RDF>")
	return w.Flush()
}

// WriteMissedPairs writes evaluation diagnostics for gold pairs the
// alignment missed: tab-separated source id, target id, and comma-joined
// aliases from each KB. Entities that cannot be resolved leave their alias
// field empty; a missing entity never aborts the evaluation pass.
func (s *Store) WriteMissedPairs(path string, missed [][2]string, sourceKB, targetKB *models.KnowledgeBase) error {
	f, err := s.fs.Create(path)
	if err != nil {
		return fmt.Errorf("create missed-pairs file %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, pair := range missed {
		sourceAliases := ""
		if ent, ok := sourceKB.EntityByID(pair[0]); ok {
			sourceAliases = strings.Join(ent.Aliases, ",")
		}
		targetAliases := ""
		if ent, ok := targetKB.EntityByID(pair[1]); ok {
			targetAliases = strings.Join(ent.Aliases, ",")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", pair[0], pair[1], sourceAliases, targetAliases)
	}
	return w.Flush()
}
