package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hk-bmi/ontoemma/models"
)

func TestLoadGoldTSV(t *testing.T) {
	s, fs := newTestStore()
	const tsv = "mesh:1\tgo:1\t1.0\tprovenance\nmesh:2\tgo:2\t0\tprovenance\n"
	require.NoError(t, afero.WriteFile(fs, "gold.tsv", []byte(tsv), 0o644))

	gold, err := s.LoadGoldAlignment("gold.tsv")
	require.NoError(t, err)
	require.Len(t, gold, 2)
	assert.Equal(t, "mesh:1", gold[0].SourceID)
	assert.Equal(t, "go:1", gold[0].TargetID)
	assert.True(t, gold[0].Positive())
	assert.False(t, gold[1].Positive())
}

func TestLoadGoldTSVMalformed(t *testing.T) {
	s, fs := newTestStore()

	require.NoError(t, afero.WriteFile(fs, "bad_label.tsv", []byte("a\tb\tnot-a-number\tx\n"), 0o644))
	_, err := s.LoadGoldAlignment("bad_label.tsv")
	assert.ErrorContains(t, err, "not a number")

	require.NoError(t, afero.WriteFile(fs, "short.tsv", []byte("a\tb\n"), 0o644))
	_, err = s.LoadGoldAlignment("short.tsv")
	assert.ErrorContains(t, err, "expected 4 tab-separated columns")

	_, err = s.LoadGoldAlignment("gold.xlsx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadGoldRDF(t *testing.T) {
	s, fs := newTestStore()
	const rdf = `<?xml version='1.0' encoding='utf-8'?>
<rdf:RDF xmlns='http://knowledgeweb.semanticweb.org/heterogeneity/alignment'
	 xmlns:rdf='http://www.w3.org/1999/02/22-rdf-syntax-ns#'>
<Alignment>
	<xml>yes</xml>
	<map>
		<Cell>
			<entity1 rdf:resource="http://example.org/a"/>
			<entity2 rdf:resource="http://example.org/b"/>
			<measure rdf:datatype="http://www.w3.org/2001/XMLSchema#float">0.95</measure>
		</Cell>
	</map>
	<map>
		<Cell>
			<entity1 rdf:resource="http://example.org/c"/>
			<entity2 rdf:resource="http://example.org/d"/>
			<measure>=</measure>
		</Cell>
	</map>
</Alignment>
</rdf:RDF>`
	require.NoError(t, afero.WriteFile(fs, "gold.rdf", []byte(rdf), 0o644))

	gold, err := s.LoadGoldAlignment("gold.rdf")
	require.NoError(t, err)
	require.Len(t, gold, 2)
	assert.Equal(t, "http://example.org/a", gold[0].SourceID)
	assert.True(t, gold[0].Positive())
	// raw "=" measure survives the load but is not positive
	assert.Equal(t, "=", gold[1].Measure)
	assert.False(t, gold[1].Positive())
}

func TestLoadGoldRDFRootAlignment(t *testing.T) {
	s, fs := newTestStore()
	const rdf = `<?xml version='1.0' encoding='utf-8'?>
<Alignment xmlns='http://knowledgeweb.semanticweb.org/heterogeneity/alignment'
	 xmlns:rdf='http://www.w3.org/1999/02/22-rdf-syntax-ns#'>
	<map>
		<Cell>
			<entity1 rdf:resource="http://example.org/a"/>
			<entity2 rdf:resource="http://example.org/b"/>
			<measure>1.0</measure>
		</Cell>
	</map>
</Alignment>`
	require.NoError(t, afero.WriteFile(fs, "bare.rdf", []byte(rdf), 0o644))

	gold, err := s.LoadGoldAlignment("bare.rdf")
	require.NoError(t, err)
	require.Len(t, gold, 1)
	assert.Equal(t, "http://example.org/a", gold[0].SourceID)
	assert.Equal(t, "http://example.org/b", gold[0].TargetID)
	assert.True(t, gold[0].Positive())
}

func TestWriteAlignmentTSVRoundTrip(t *testing.T) {
	s, _ := newTestStore()
	alignment := models.Alignment{
		{SourceID: "mesh:2", TargetID: "go:2", Score: 0.75},
		{SourceID: "mesh:1", TargetID: "go:1", Score: 0.95},
	}

	written, err := s.WriteAlignment("out.tsv", alignment, "s.json", "t.json")
	require.NoError(t, err)
	assert.Equal(t, "out.tsv", written)

	// the produced alignment re-reads as a gold TSV with identical triples
	gold, err := s.LoadGoldAlignment("out.tsv")
	require.NoError(t, err)
	require.Len(t, gold, 2)
	// serialization sorts by score descending
	assert.Equal(t, "mesh:1", gold[0].SourceID)
	score, ok := gold[0].Score()
	require.True(t, ok)
	assert.Equal(t, 0.95, score)
	score, ok = gold[1].Score()
	require.True(t, ok)
	assert.Equal(t, 0.75, score)
}

func TestWriteAlignmentRDF(t *testing.T) {
	s, fs := newTestStore()
	alignment := models.Alignment{{SourceID: "A", TargetID: "B", Score: 0.87}}

	written, err := s.WriteAlignment("out.rdf", alignment, "s.owl", "t.owl")
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, written)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(data))

	root := doc.Root()
	alignmentEl := findChild(root, "Alignment")
	require.NotNil(t, alignmentEl)

	assert.Equal(t, "s.owl", findChild(alignmentEl, "onto1").Text())
	assert.Equal(t, "t.owl", findChild(alignmentEl, "onto2").Text())

	var maps []*etree.Element
	for _, child := range alignmentEl.ChildElements() {
		if child.Tag == "map" {
			maps = append(maps, child)
		}
	}
	require.Len(t, maps, 1)

	cell := findChild(maps[0], "Cell")
	require.NotNil(t, cell)
	assert.Equal(t, "A", findChild(cell, "entity1").SelectAttrValue("rdf:resource", ""))
	assert.Equal(t, "B", findChild(cell, "entity2").SelectAttrValue("rdf:resource", ""))
	assert.Equal(t, "0.87", findChild(cell, "measure").Text())
}

// mkdirFailFs wraps a filesystem and refuses to create directories,
// simulating an unwritable output location.
type mkdirFailFs struct {
	afero.Fs
}

func (f *mkdirFailFs) MkdirAll(path string, perm os.FileMode) error {
	return fmt.Errorf("mkdir %s: permission denied", path)
}

func TestWriteAlignmentFallsBackToCWD(t *testing.T) {
	fs := &mkdirFailFs{afero.NewMemMapFs()}
	s := NewStore(fs)
	alignment := models.Alignment{{SourceID: "a", TargetID: "b", Score: 0.9}}

	written, err := s.WriteAlignment("/blocked/out.tsv", alignment, "s.json", "t.json")
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "out.tsv"), written)

	data, err := afero.ReadFile(fs, written)
	require.NoError(t, err)
	assert.Contains(t, string(data), "a\tb\t0.9\tOntoEmma")
}

func TestWriteAlignmentUnknownExtension(t *testing.T) {
	s, _ := newTestStore()
	_, err := s.WriteAlignment("out.csv", models.Alignment{}, "s", "t")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWriteMissedPairs(t *testing.T) {
	s, fs := newTestStore()
	sourceKB := &models.KnowledgeBase{Name: "s", Entities: []*models.Entity{
		{ResearchEntityID: "s:1", CanonicalName: "heart attack", Aliases: []string{"MI", "cardiac infarction"}},
	}}
	sourceKB.BuildIndex()
	targetKB := &models.KnowledgeBase{Name: "t"}
	targetKB.BuildIndex()

	missed := [][2]string{
		{"s:1", "t:1"},
		{"s:404", "t:404"},
	}
	require.NoError(t, s.WriteMissedPairs("missed.tsv", missed, sourceKB, targetKB))

	data, err := afero.ReadFile(fs, "missed.tsv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "s:1\tt:1\tMI,cardiac infarction\t", lines[0])
	// unresolvable entities get empty alias fields, not an error
	assert.Equal(t, "s:404\tt:404\t\t", lines[1])
}
