/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package types

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose bool          `mapstructure:"verbose"`
	Config  string        `mapstructure:"config"`
	KB      KBConfig      `mapstructure:"kb" validate:"required"`
	Matcher MatcherConfig `mapstructure:"matcher" validate:"required"`
}

// KBConfig locates the serialized knowledge bases used during training.
type KBConfig struct {
	// Dir holds the native kb-<name>.json files for the training roster.
	Dir string `mapstructure:"dir"`
	// TrainingKBs is the roster of KB names whose pairwise combinations
	// are considered during training.
	TrainingKBs []string `mapstructure:"trainingKbs"`
}

// MatcherConfig holds the tunables of the matching pipeline.
type MatcherConfig struct {
	// ScoreThreshold is the minimum match probability kept in an alignment.
	ScoreThreshold float64 `mapstructure:"scoreThreshold" validate:"min=0,max=1"`
	// KeepTopKCandidates bounds how many ranked candidates are scored per
	// source entity.
	KeepTopKCandidates int `mapstructure:"keepTopKCandidates" validate:"min=1"`
	// MinTrainingSetSize is the per-KB-pair example count below which the
	// pair is dropped from training and dev sets.
	MinTrainingSetSize int `mapstructure:"minTrainingSetSize" validate:"min=0"`
	// NGramSize is the character n-gram width for signatures and blocking.
	NGramSize int `mapstructure:"ngramSize" validate:"min=1"`
	// AliasSampleBound caps alias lists per entity; oversized lists are
	// deterministically subsampled. Zero disables sampling.
	AliasSampleBound int   `mapstructure:"aliasSampleBound" validate:"min=0"`
	AliasSampleSeed  int64 `mapstructure:"aliasSampleSeed"`
	// MissedFile receives evaluation diagnostics for gold pairs the
	// alignment missed.
	MissedFile string `mapstructure:"missedFile"`
	// Classifier selects the pairwise classifier implementation.
	Classifier string `mapstructure:"classifier" validate:"omitempty,oneof=logistic"`
}

// DefaultMatcherConfig returns the tuned defaults of the matching pipeline.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		ScoreThreshold:     0.90,
		KeepTopKCandidates: 3,
		MinTrainingSetSize: 10,
		NGramSize:          5,
		AliasSampleBound:   16,
		AliasSampleSeed:    29,
		MissedFile:         "ontoemma_missed.tsv",
		Classifier:         "logistic",
	}
}
