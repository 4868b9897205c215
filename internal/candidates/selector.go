// Package candidates implements the blocking step: an inverted index over
// normalized name tokens, alias tokens, and character n-grams that turns
// the O(n×m) pairwise comparison problem into a short ranked candidate list
// per source entity.
package candidates

import (
	"fmt"
	"math"
	"sort"

	"github.com/spf13/afero"

	"github.com/hk-bmi/ontoemma/internal/stringutil"
	"github.com/hk-bmi/ontoemma/models"
)

// Options tunes index construction.
type Options struct {
	// NGramSize is the character n-gram width used for index keys.
	NGramSize int
}

// Selector retrieves ranked target-entity candidates for source entities of
// a fixed KB pair. It is read-only after construction.
type Selector struct {
	ngramSize int

	targetIndex map[string][]string // index key -> target entity ids
	idf         map[string]float64
	sourceKeys  map[string][]string // source entity id -> its index keys
}

// NewSelector builds the blocking index over the KB pair.
func NewSelector(source, target *models.KnowledgeBase, opts Options) *Selector {
	s := &Selector{
		ngramSize:   opts.NGramSize,
		targetIndex: make(map[string][]string),
		idf:         make(map[string]float64),
		sourceKeys:  make(map[string][]string, len(source.Entities)),
	}

	for _, ent := range target.Entities {
		for _, key := range s.indexKeys(ent) {
			s.targetIndex[key] = append(s.targetIndex[key], ent.ResearchEntityID)
		}
	}
	// Rare keys are worth more: idf = ln(N / df). Keys present on every
	// target entity contribute nothing.
	n := float64(len(target.Entities))
	for key, ids := range s.targetIndex {
		s.idf[key] = math.Log(n / float64(len(ids)))
	}

	for _, ent := range source.Entities {
		s.sourceKeys[ent.ResearchEntityID] = s.indexKeys(ent)
	}
	return s
}

// indexKeys computes the deduplicated index key set of an entity: word
// tokens of the canonical name and every alias, plus character n-grams of
// the canonical name.
func (s *Selector) indexKeys(ent *models.Entity) []string {
	seen := make(map[string]struct{})
	keys := make([]string, 0, 8)
	add := func(key string) {
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	for _, tok := range stringutil.Tokenize(ent.CanonicalName) {
		add(tok)
	}
	for _, alias := range ent.Aliases {
		for _, tok := range stringutil.Tokenize(alias) {
			add(tok)
		}
	}
	for _, gram := range stringutil.CharNGrams(ent.CanonicalName, s.ngramSize) {
		add(gram)
	}
	return keys
}

// SelectCandidates returns target entity ids ranked by summed IDF of shared
// index keys, descending, ties broken by target id. The full ranked list is
// returned; callers truncate to their top-K budget.
func (s *Selector) SelectCandidates(sourceID string) []string {
	scores := make(map[string]float64)
	for _, key := range s.sourceKeys[sourceID] {
		weight := s.idf[key]
		if weight <= 0 {
			continue
		}
		for _, targetID := range s.targetIndex[key] {
			scores[targetID] += weight
		}
	}

	ranked := make([]string, 0, len(scores))
	for id := range scores {
		ranked = append(ranked, id)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	return ranked
}

// recallKs are the candidate-list depths reported by Eval.
var recallKs = []int{1, 5, 10, 50, 100}

// CoverageReport summarizes how much of a gold alignment survives the
// blocking step.
type CoverageReport struct {
	GoldPositives int
	Found         int
	Recall        float64
	RecallAtK     map[int]float64
	Missed        [][2]string
}

// Eval measures what fraction of gold-positive pairs appear among the
// returned candidates. When outputPath or missedPath is non-empty the
// coverage summary and the missed pairs are written there through fs.
func (s *Selector) Eval(fs afero.Fs, gold []models.GoldMapping, outputPath, missedPath string) (*CoverageReport, error) {
	report := &CoverageReport{RecallAtK: make(map[int]float64)}
	hitsAtK := make(map[int]int, len(recallKs))

	positives := make([]models.GoldMapping, 0, len(gold))
	for _, m := range gold {
		if m.Positive() {
			positives = append(positives, m)
		}
	}
	report.GoldPositives = len(positives)

	for _, m := range positives {
		rank := -1
		for i, id := range s.SelectCandidates(m.SourceID) {
			if id == m.TargetID {
				rank = i
				break
			}
		}
		if rank < 0 {
			report.Missed = append(report.Missed, [2]string{m.SourceID, m.TargetID})
			continue
		}
		report.Found++
		for _, k := range recallKs {
			if rank < k {
				hitsAtK[k]++
			}
		}
	}

	if report.GoldPositives > 0 {
		report.Recall = float64(report.Found) / float64(report.GoldPositives)
		for _, k := range recallKs {
			report.RecallAtK[k] = float64(hitsAtK[k]) / float64(report.GoldPositives)
		}
	}

	if outputPath != "" {
		if err := s.writeCoverage(fs, report, outputPath); err != nil {
			return nil, err
		}
	}
	if missedPath != "" {
		if err := s.writeMissed(fs, report, missedPath); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func (s *Selector) writeCoverage(fs afero.Fs, report *CoverageReport, path string) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create coverage report %s: %w", path, err)
	}
	defer f.Close()

	fmt.Fprintf(f, "gold_positives\t%d\n", report.GoldPositives)
	fmt.Fprintf(f, "found_in_candidates\t%d\n", report.Found)
	fmt.Fprintf(f, "recall\t%.4f\n", report.Recall)
	for _, k := range recallKs {
		fmt.Fprintf(f, "recall@%d\t%.4f\n", k, report.RecallAtK[k])
	}
	return nil
}

func (s *Selector) writeMissed(fs afero.Fs, report *CoverageReport, path string) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create missed-pairs file %s: %w", path, err)
	}
	defer f.Close()

	for _, pair := range report.Missed {
		fmt.Fprintf(f, "%s\t%s\n", pair[0], pair[1])
	}
	return nil
}
