package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hk-bmi/ontoemma/models"
)

func evalReport(precision, recall, f1 *float64) *models.EvaluationReport {
	return &models.EvaluationReport{Precision: precision, Recall: recall, F1: f1}
}

func TestRootCmdHelp(t *testing.T) {
	viper.Reset()

	b := bytes.NewBufferString("")
	rootCmd.SetOut(b)
	rootCmd.SetErr(b)
	rootCmd.SetArgs([]string{"--help"})

	err := rootCmd.Execute()
	assert.NoError(t, err)

	output := b.String()
	assert.Contains(t, output, "OntoEmma")
	assert.Contains(t, output, "Usage:")
	assert.Contains(t, output, "train")
	assert.Contains(t, output, "align")
	assert.Contains(t, output, "eval-cs")
}

func TestSubcommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["train"])
	assert.True(t, names["align"])
	assert.True(t, names["eval-cs"])
}

func TestRenderAlignSummary(t *testing.T) {
	out := renderAlignSummary(3, nil)
	assert.Contains(t, out, "3 pairs")

	precision := 1.0
	recall := 0.5
	f1 := 2.0 / 3.0
	report := evalReport(&precision, &recall, &f1)
	out = renderAlignSummary(1, report)
	assert.Contains(t, out, "1.00")
	assert.Contains(t, out, "0.50")
	assert.Contains(t, out, "0.67")

	out = renderAlignSummary(0, evalReport(nil, &recall, nil))
	assert.Contains(t, out, "n/a")
	require.Contains(t, out, "0.50")
}
