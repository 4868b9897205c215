/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hk-bmi/ontoemma/models"
)

var (
	alignModelPath  string
	alignSourcePath string
	alignTargetPath string
	alignGoldPath   string
	alignOutputPath string
)

// alignCmd aligns a source KB against a target KB with a trained model.
var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Align two knowledge bases with a trained model",
	Long: `Loads the source and target knowledge bases, scores the top candidate
entities for every source entity with the trained model, and keeps pairs at
or above the configured score threshold. If a gold alignment is given the
result is evaluated against it; if an output file is given the alignment is
written there (.tsv or .rdf).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := GetMatcher()
		alignment, report, err := m.Align(alignModelPath, alignSourcePath, alignTargetPath, alignGoldPath, alignOutputPath)
		if err != nil {
			return fmt.Errorf("alignment failed: %w", err)
		}

		fmt.Println(renderAlignSummary(len(alignment), report))
		return nil
	},
}

// renderAlignSummary formats the alignment size and, when available, the
// evaluation metrics.
func renderAlignSummary(pairs int, report *models.EvaluationReport) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205"))
	label := lipgloss.NewStyle().Faint(true)

	var b strings.Builder
	b.WriteString(title.Render(fmt.Sprintf("✔ Alignment complete: %d pairs", pairs)))
	if report == nil {
		return b.String()
	}

	metric := func(name string, value *float64) string {
		if value == nil {
			return fmt.Sprintf("%s n/a", label.Render(name+":"))
		}
		return fmt.Sprintf("%s %.2f", label.Render(name+":"), *value)
	}
	b.WriteString("\n")
	b.WriteString(metric("Precision", report.Precision))
	b.WriteString("  ")
	b.WriteString(metric("Recall", report.Recall))
	b.WriteString("  ")
	b.WriteString(metric("F1", report.F1))
	return b.String()
}

func init() {
	rootCmd.AddCommand(alignCmd)

	alignCmd.Flags().StringVarP(&alignModelPath, "model", "m", "", "path to the trained model")
	alignCmd.Flags().StringVarP(&alignSourcePath, "source", "s", "", "source KB (.json, .obo, .owl, .rdf, or URL)")
	alignCmd.Flags().StringVarP(&alignTargetPath, "target", "t", "", "target KB (.json, .obo, .owl, .rdf, or URL)")
	alignCmd.Flags().StringVarP(&alignGoldPath, "gold", "g", "", "gold alignment to evaluate against (optional)")
	alignCmd.Flags().StringVarP(&alignOutputPath, "output", "o", "", "output alignment file, .tsv or .rdf (optional)")
	_ = alignCmd.MarkFlagRequired("model")
	_ = alignCmd.MarkFlagRequired("source")
	_ = alignCmd.MarkFlagRequired("target")
}
