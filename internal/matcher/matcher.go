// Package matcher drives the entity-matching pipeline: training-pair
// feature extraction, candidate-limited alignment prediction, and
// evaluation against gold alignments. The three operations are independent;
// the only state shared inside one call is the per-side KB cache used
// during training.
package matcher

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/hk-bmi/ontoemma/internal/candidates"
	"github.com/hk-bmi/ontoemma/internal/classifier"
	"github.com/hk-bmi/ontoemma/internal/features"
	"github.com/hk-bmi/ontoemma/models"
	"github.com/hk-bmi/ontoemma/store"
	"github.com/hk-bmi/ontoemma/types"
)

// Matcher trains a pairwise classifier over KB pairs and aligns two KBs
// with it.
type Matcher struct {
	cfg    types.AppConfig
	fs     afero.Fs
	store  *store.Store
	out    io.Writer
	logger *slog.Logger
	runID  string
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithOutput redirects user-facing progress and summary lines.
func WithOutput(w io.Writer) Option {
	return func(m *Matcher) { m.out = w }
}

// WithLogger replaces the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Matcher) { m.logger = l }
}

// New creates a Matcher over the given configuration and filesystem.
func New(cfg types.AppConfig, fs afero.Fs, opts ...Option) *Matcher {
	m := &Matcher{
		cfg:    cfg,
		fs:     fs,
		store:  store.NewStore(fs),
		out:    os.Stdout,
		logger: slog.Default(),
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("run_id", m.runID)
	return m
}

func (m *Matcher) featureOptions() features.Options {
	return features.Options{
		NGramSize:        m.cfg.Matcher.NGramSize,
		AliasSampleBound: m.cfg.Matcher.AliasSampleBound,
		AliasSampleSeed:  m.cfg.Matcher.AliasSampleSeed,
	}
}

// kbPairs enumerates the ordered KB-name combinations of the training
// roster.
func (m *Matcher) kbPairs() [][2]string {
	roster := m.cfg.KB.TrainingKBs
	var pairs [][2]string
	for i := 0; i < len(roster); i++ {
		for j := i + 1; j < len(roster); j++ {
			pairs = append(pairs, [2]string{roster[i], roster[j]})
		}
	}
	return pairs
}

func (m *Matcher) kbPath(name string) string {
	return filepath.Join(m.cfg.KB.Dir, fmt.Sprintf("kb-%s.json", name))
}

// Train extracts features for every training and dev example grouped by KB
// pair, fits the classifier, reports accuracy on both sets, and persists
// the model to modelPath. KB pairs with too few training examples are
// dropped from both sets: their feature-computation cost is not worth the
// overfitting risk.
func (m *Matcher) Train(modelPath, trainingPath, devPath string) error {
	trainingData, err := m.store.LoadGoldAlignment(trainingPath)
	if err != nil {
		return err
	}
	devData, err := m.store.LoadGoldAlignment(devPath)
	if err != nil {
		return err
	}
	if len(trainingData) == 0 {
		return fmt.Errorf("training set %s is empty", trainingPath)
	}

	fmt.Fprintf(m.out, "Training data size: %d\n", len(trainingData))
	fmt.Fprintf(m.out, "Development data size: %d\n", len(devData))

	loader := func(name string) (*models.KnowledgeBase, error) {
		return m.store.LoadKB(m.kbPath(name))
	}
	sourceCache := newKBCache(1, loader)
	targetCache := newKBCache(1, loader)

	var (
		trainVectors []features.FeatureVector
		trainLabels  []float64
		devVectors   []features.FeatureVector
		devLabels    []float64
	)

	for _, pair := range m.kbPairs() {
		sourceName, targetName := pair[0], pair[1]
		trainMatches := pairMatches(trainingData, sourceName, targetName)
		if len(trainMatches) <= m.cfg.Matcher.MinTrainingSetSize {
			continue
		}
		devMatches := pairMatches(devData, sourceName, targetName)

		fmt.Fprintf(m.out, "\tCalculating features for pairs between %s and %s\n", sourceName, targetName)
		m.logger.Info("extracting features",
			"source_kb", sourceName, "target_kb", targetName,
			"training_pairs", len(trainMatches), "dev_pairs", len(devMatches))

		sourceKB, err := sourceCache.Get(sourceName)
		if err != nil {
			return err
		}
		targetKB, err := targetCache.Get(targetName)
		if err != nil {
			return err
		}

		gen, err := features.NewGenerator(sourceKB, targetKB, m.featureOptions())
		if err != nil {
			return err
		}

		for _, mapping := range trainMatches {
			fv, err := gen.Features(mapping.SourceID, mapping.TargetID)
			if err != nil {
				return fmt.Errorf("training pair (%s, %s): %w", mapping.SourceID, mapping.TargetID, err)
			}
			trainVectors = append(trainVectors, fv)
			label, _ := mapping.Score()
			trainLabels = append(trainLabels, label)
		}
		for _, mapping := range devMatches {
			fv, err := gen.Features(mapping.SourceID, mapping.TargetID)
			if err != nil {
				return fmt.Errorf("dev pair (%s, %s): %w", mapping.SourceID, mapping.TargetID, err)
			}
			devVectors = append(devVectors, fv)
			label, _ := mapping.Score()
			devLabels = append(devLabels, label)
		}
	}

	fmt.Fprintln(m.out, "Training...")
	model, err := classifier.New(m.cfg.Matcher.Classifier)
	if err != nil {
		return err
	}
	if err := model.Train(trainVectors, trainLabels); err != nil {
		return err
	}

	trainAccuracy, err := model.ScoreAccuracy(trainVectors, trainLabels)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Accuracy on training data set: %.2f\n", trainAccuracy)

	if len(devVectors) > 0 {
		devAccuracy, err := model.ScoreAccuracy(devVectors, devLabels)
		if err != nil {
			return err
		}
		fmt.Fprintf(m.out, "Accuracy on development data set: %.2f\n", devAccuracy)
	}

	return model.Save(m.fs, modelPath)
}

// pairMatches filters gold mappings whose entity ids belong to the named
// KB pair, preserving file order.
func pairMatches(data []models.GoldMapping, sourceName, targetName string) []models.GoldMapping {
	var out []models.GoldMapping
	for _, mapping := range data {
		if strings.HasPrefix(mapping.SourceID, sourceName) && strings.HasPrefix(mapping.TargetID, targetName) {
			out = append(out, mapping)
		}
	}
	return out
}

// Align loads both KBs and the trained classifier, scores the top-K
// candidates of every source entity, and keeps pairs at or above the score
// threshold. If goldPath names an existing file the alignment is evaluated
// against it; if outputPath is non-empty the alignment is serialized there.
func (m *Matcher) Align(modelPath, sourceKBPath, targetKBPath, goldPath, outputPath string) (models.Alignment, *models.EvaluationReport, error) {
	fmt.Fprintln(m.out, "Loading KBs...")
	sourceKB, err := m.store.LoadKB(sourceKBPath)
	if err != nil {
		return nil, nil, err
	}
	targetKB, err := m.store.LoadKB(targetKBPath)
	if err != nil {
		return nil, nil, err
	}
	fmt.Fprintf(m.out, "\tSource entities: %d\n", len(sourceKB.Entities))
	fmt.Fprintf(m.out, "\tTarget entities: %d\n", len(targetKB.Entities))

	fmt.Fprintln(m.out, "Loading model...")
	model, err := classifier.New(m.cfg.Matcher.Classifier)
	if err != nil {
		return nil, nil, err
	}
	if err := model.Load(m.fs, modelPath); err != nil {
		return nil, nil, err
	}

	fmt.Fprintln(m.out, "Building candidate indices...")
	selector := candidates.NewSelector(sourceKB, targetKB, candidates.Options{NGramSize: m.cfg.Matcher.NGramSize})
	gen, err := features.NewGenerator(sourceKB, targetKB, m.featureOptions())
	if err != nil {
		return nil, nil, err
	}

	fmt.Fprintln(m.out, "Making predictions...")
	var alignment models.Alignment
	topK := m.cfg.Matcher.KeepTopKCandidates
	for i, ent := range sourceKB.Entities {
		if i%10 == 1 {
			fmt.Fprintf(m.out, "\rpredicted alignments for %d out of %d source entities.", i, len(sourceKB.Entities))
		}
		sourceID := ent.ResearchEntityID
		ranked := selector.SelectCandidates(sourceID)
		if len(ranked) > topK {
			ranked = ranked[:topK]
		}
		for _, targetID := range ranked {
			fv, err := gen.Features(sourceID, targetID)
			if err != nil {
				return nil, nil, err
			}
			probs, err := model.PredictEntityPair(fv)
			if err != nil {
				return nil, nil, err
			}
			if probs[1] >= m.cfg.Matcher.ScoreThreshold {
				alignment = append(alignment, models.AlignmentPair{
					SourceID: sourceID, TargetID: targetID, Score: probs[1],
				})
			}
		}
	}
	fmt.Fprintf(m.out, "\nAlignment size: %d\n", len(alignment))

	var report *models.EvaluationReport
	if goldPath != "" {
		if _, err := m.fs.Stat(goldPath); err == nil {
			fmt.Fprintln(m.out, "Evaluating against gold standard...")
			report, err = m.EvaluateAlignment(goldPath, alignment, sourceKB, targetKB)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	if outputPath != "" {
		fmt.Fprintln(m.out, "Writing results to file...")
		written, err := m.store.WriteAlignment(outputPath, alignment, sourceKBPath, targetKBPath)
		if err != nil {
			return nil, nil, err
		}
		m.logger.Info("alignment written", "path", written, "pairs", len(alignment))
	}
	return alignment, report, nil
}

// EvaluateAlignment measures the alignment against the gold file. Gold
// positives are the pairs with a positive numeric label; predicted
// positives are the alignment pairs (already thresholded upstream). Missed
// gold pairs are written to the configured diagnostics file with each
// side's aliases; entities that cannot be resolved leave the field empty.
func (m *Matcher) EvaluateAlignment(goldPath string, alignment models.Alignment, sourceKB, targetKB *models.KnowledgeBase) (*models.EvaluationReport, error) {
	gold, err := m.store.LoadGoldAlignment(goldPath)
	if err != nil {
		return nil, err
	}
	goldPositives := models.GoldPositivePairs(gold)
	fmt.Fprintf(m.out, "Positive alignments in gold standard: %d\n", len(goldPositives))

	predicted := alignment.PairSet()
	fmt.Fprintf(m.out, "Positive alignments detected: %d\n", len(predicted))

	truePositives := 0
	for pair := range predicted {
		if _, ok := goldPositives[pair]; ok {
			truePositives++
		}
	}

	var missed [][2]string
	for pair := range goldPositives {
		if _, ok := predicted[pair]; !ok {
			missed = append(missed, pair)
		}
	}
	sortPairs(missed)
	if m.cfg.Matcher.MissedFile != "" {
		if err := m.store.WriteMissedPairs(m.cfg.Matcher.MissedFile, missed, sourceKB, targetKB); err != nil {
			return nil, err
		}
	}

	report := &models.EvaluationReport{
		GoldPositives:      len(goldPositives),
		PredictedPositives: len(predicted),
		TruePositives:      truePositives,
	}
	if len(predicted) > 0 {
		precision := float64(truePositives) / float64(len(predicted))
		report.Precision = &precision
	}
	if len(goldPositives) > 0 {
		recall := float64(truePositives) / float64(len(goldPositives))
		report.Recall = &recall
	}
	if report.Precision != nil && report.Recall != nil && *report.Precision+*report.Recall > 0 {
		f1 := 2 * *report.Precision * *report.Recall / (*report.Precision + *report.Recall)
		report.F1 = &f1
	}

	if report.Precision != nil {
		fmt.Fprintf(m.out, "Precision: %.2f\n", *report.Precision)
	}
	if report.Recall != nil {
		fmt.Fprintf(m.out, "Recall: %.2f\n", *report.Recall)
	}
	if report.F1 != nil {
		fmt.Fprintf(m.out, "F1-score: %.2f\n", *report.F1)
	}
	return report, nil
}

// EvalCandidateSelection measures blocking coverage: how many gold-positive
// pairs survive candidate selection for the KB pair.
func (m *Matcher) EvalCandidateSelection(sourceKBPath, targetKBPath, goldPath, outputPath, missedPath string) (*candidates.CoverageReport, error) {
	fmt.Fprintln(m.out, "Loading KBs...")
	sourceKB, err := m.store.LoadKB(sourceKBPath)
	if err != nil {
		return nil, err
	}
	targetKB, err := m.store.LoadKB(targetKBPath)
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(m.out, "Loading gold alignment...")
	gold, err := m.store.LoadGoldAlignment(goldPath)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(m.out, "\tNumber of gold alignments: %d\n", len(gold))

	fmt.Fprintln(m.out, "Starting candidate selection...")
	selector := candidates.NewSelector(sourceKB, targetKB, candidates.Options{NGramSize: m.cfg.Matcher.NGramSize})

	fmt.Fprintln(m.out, "Evaluating candidate selection...")
	report, err := selector.Eval(m.fs, gold, outputPath, missedPath)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(m.out, "Candidate recall: %.4f (%d of %d gold pairs)\n", report.Recall, report.Found, report.GoldPositives)
	return report, nil
}

func sortPairs(pairs [][2]string) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
}
