/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	trainModelPath    string
	trainTrainingPath string
	trainDevPath      string
)

// trainCmd fits the entity-matching model from labeled alignment data.
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train an entity-matching model from labeled alignments",
	Long: `Extracts match features for every labeled training and development
example, fits the configured classifier, and writes the model to disk.
Training examples are grouped by knowledge-base pair; pairs with too few
examples are dropped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := GetMatcher()
		if err := m.Train(trainModelPath, trainTrainingPath, trainDevPath); err != nil {
			return fmt.Errorf("training failed: %w", err)
		}

		done := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))
		fmt.Println(done.Render(fmt.Sprintf("✔ Model saved to %s", trainModelPath)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().StringVarP(&trainModelPath, "model", "m", "", "path to write the trained model")
	trainCmd.Flags().StringVarP(&trainTrainingPath, "training-data", "t", "", "labeled training alignment (.tsv or .rdf)")
	trainCmd.Flags().StringVarP(&trainDevPath, "dev-data", "d", "", "labeled development alignment (.tsv or .rdf)")
	_ = trainCmd.MarkFlagRequired("model")
	_ = trainCmd.MarkFlagRequired("training-data")
	_ = trainCmd.MarkFlagRequired("dev-data")
}
