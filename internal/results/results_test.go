package results

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeReport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "evaluation_result.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const sampleReport = `{
	"rows": [
		{
			"inputs.query": "list storage accounts in my subscription",
			"inputs.expected_tool_calls": ["azmcp-storage-account-list"],
			"outputs.mcp.actual_tool_calls": ["azmcp-storage-account-list"],
			"outputs.mcp.tool_call_accuracy": "Pass",
			"outputs.mcp.score": 1.0,
			"outputs.mcp.reason": "Passed successfully"
		},
		{
			"inputs.query": "show keyvault secrets",
			"inputs.expected_tool_calls": ["azmcp-keyvault-secret-list"],
			"outputs.mcp.actual_tool_calls": [],
			"outputs.mcp.tool_call_accuracy": "Fail",
			"outputs.mcp.score": 0.0,
			"outputs.mcp.reason": "No tool calls were made"
		}
	],
	"metrics": {
		"mcp.score": 0.8,
		"mcp.score_threshold": 0.8
	},
	"studio_url": "https://ai.azure.com/build/eval/123"
}`

func TestLoad(t *testing.T) {
	report, err := Load(writeReport(t, sampleReport))
	require.NoError(t, err)

	assert.Len(t, report.Rows, 2)
	assert.Equal(t, "https://ai.azure.com/build/eval/123", report.StudioURL)

	score, ok := report.OverallScore()
	require.True(t, ok)
	assert.True(t, score.Equal(decimal.RequireFromString("0.8")))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeReport(t, "{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid results JSON")
}

func TestLoadToleratesNaN(t *testing.T) {
	report, err := Load(writeReport(t, `{"rows": [{"outputs.mcp.score": NaN}], "metrics": {"mcp.score": 0.5}}`))
	require.NoError(t, err)

	require.Len(t, report.Rows, 1)
	assert.Nil(t, report.Rows[0]["outputs.mcp.score"])
}

func TestSanitizeNaNLeavesStringsAlone(t *testing.T) {
	data := sanitizeNaN([]byte(`{"reason": "score was NaN", "v": NaN}`))
	assert.Equal(t, `{"reason": "score was NaN", "v": null}`, string(data))
}

func TestPassedAtExactThreshold(t *testing.T) {
	report, err := Load(writeReport(t, sampleReport))
	require.NoError(t, err)

	// 0.8 against a 0.8 threshold passes
	assert.True(t, report.Passed(decimal.RequireFromString("0.8")))
}

func TestPassedBelowThreshold(t *testing.T) {
	report := &Report{Metrics: map[string]any{"mcp.score": 0.79}}
	assert.False(t, report.Passed(decimal.RequireFromString("0.8")))
}

func TestThresholdFallsBackToDefault(t *testing.T) {
	report := &Report{Metrics: map[string]any{"mcp.score": 0.9}}
	def := decimal.RequireFromString("0.85")
	assert.True(t, report.Threshold(def).Equal(def))
	assert.True(t, report.Passed(def))
}

func TestPassedWithoutScore(t *testing.T) {
	report := &Report{}
	assert.False(t, report.Passed(decimal.RequireFromString("0.8")))
}

func TestRender(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	report, err := Load(writeReport(t, sampleReport))
	require.NoError(t, err)

	var buf bytes.Buffer
	Render(&buf, report, decimal.RequireFromString("0.8"))
	out := buf.String()

	assert.Contains(t, out, "EVALUATION RESULTS")
	assert.Contains(t, out, "OVERALL METRICS")
	assert.Contains(t, out, "list storage accounts in my subscription")
	assert.Contains(t, out, "No tool calls were made")
	assert.Contains(t, out, "Overall Score:    0.8000")
	assert.Contains(t, out, "Status:           PASS")
}

func TestRenderEmptyReport(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	Render(&buf, &Report{}, decimal.RequireFromString("0.8"))
	out := buf.String()

	assert.Contains(t, out, "No evaluation rows found")
	assert.Contains(t, out, "No metrics data available")
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil is N/A", nil, "N/A"},
		{"empty string is N/A", "", "N/A"},
		{"float rounds to three places", 0.33333, "0.333"},
		{"list is comma joined", []any{"a", "b"}, "a, b"},
		{"plain string", "ok", "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatCell(tt.value))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly-10", truncate("exactly-10", 10))
	assert.Equal(t, "this is...", truncate("this is far too long", 10))
}

func TestTruncateMultibyte(t *testing.T) {
	query := "ストレージアカウントを一覧表示してください"

	got := truncate(query, 10)
	assert.True(t, utf8.ValidString(got), "truncation must not split runes")
	assert.Equal(t, "ストレージアカ...", got)
	assert.Equal(t, 10, len([]rune(got)))

	assert.Equal(t, "スト", truncate(query, 2))
}
