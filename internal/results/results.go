// Package results reads the evaluation results artifact and renders a
// summary. The artifact is produced by the external evaluation script and is
// never modified here.
package results

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

// Report is the evaluation output: one row per query plus aggregate metrics.
// Row keys are flattened, e.g. "inputs.query" and "outputs.mcp.score".
type Report struct {
	Rows      []map[string]any `json:"rows"`
	Metrics   map[string]any   `json:"metrics"`
	StudioURL string           `json:"studio_url"`
}

// Load parses the artifact at path.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}

	var report Report
	if err := json.Unmarshal(sanitizeNaN(data), &report); err != nil {
		return nil, fmt.Errorf("invalid results JSON in %s: %w", path, err)
	}
	return &report, nil
}

// sanitizeNaN replaces bare NaN/Infinity tokens with null. The evaluation
// harness serializes with Python's json module, which emits these for missing
// scores even though they are not valid JSON.
func sanitizeNaN(data []byte) []byte {
	tokens := []string{"-Infinity", "Infinity", "NaN"}

	out := make([]byte, 0, len(data))
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c == '"' && (i == 0 || data[i-1] != '\\') {
			inString = !inString
		}
		if !inString {
			replaced := false
			for _, token := range tokens {
				if len(data)-i >= len(token) && string(data[i:i+len(token)]) == token {
					out = append(out, "null"...)
					i += len(token) - 1
					replaced = true
					break
				}
			}
			if replaced {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// OverallScore returns the aggregate score, if the artifact carries one.
func (r *Report) OverallScore() (decimal.Decimal, bool) {
	return r.metricDecimal("mcp.score")
}

// Threshold returns the artifact's own threshold, falling back to def.
func (r *Report) Threshold(def decimal.Decimal) decimal.Decimal {
	if t, ok := r.metricDecimal("mcp.score_threshold"); ok {
		return t
	}
	return def
}

// Passed reports whether the overall score meets the threshold. A report with
// no score does not pass.
func (r *Report) Passed(defaultThreshold decimal.Decimal) bool {
	score, ok := r.OverallScore()
	if !ok {
		return false
	}
	return score.GreaterThanOrEqual(r.Threshold(defaultThreshold))
}

func (r *Report) metricDecimal(key string) (decimal.Decimal, bool) {
	v, ok := r.Metrics[key]
	if !ok {
		return decimal.Zero, false
	}
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// Columns displayed per row, in order.
var columns = []struct {
	header string
	key    string
	width  int
}{
	{"Query", "inputs.query", 40},
	{"Expected", "inputs.expected_tool_calls", 25},
	{"Actual", "outputs.mcp.actual_tool_calls", 25},
	{"Status", "outputs.mcp.tool_call_accuracy", 8},
	{"Score", "outputs.mcp.score", 8},
	{"Reason", "outputs.mcp.reason", 35},
}

// Render writes the per-query table and the overall metrics summary.
func Render(w io.Writer, report *Report, defaultThreshold decimal.Decimal) {
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "EVALUATION RESULTS")
	fmt.Fprintln(w, rule)

	if len(report.Rows) == 0 {
		fmt.Fprintln(w, "No evaluation rows found")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		headers := make([]string, len(columns))
		for i, col := range columns {
			headers[i] = col.header
		}
		fmt.Fprintln(tw, strings.Join(headers, "\t"))

		for _, row := range report.Rows {
			cells := make([]string, len(columns))
			for i, col := range columns {
				cells[i] = truncate(formatCell(row[col.key]), col.width)
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		tw.Flush()
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "OVERALL METRICS")
	fmt.Fprintln(w, rule)

	score, ok := report.OverallScore()
	if !ok {
		fmt.Fprintln(w, "No metrics data available")
		fmt.Fprintln(w, rule)
		return
	}

	threshold := report.Threshold(defaultThreshold)
	fmt.Fprintf(w, "Overall Score:    %s\n", score.StringFixed(4))
	fmt.Fprintf(w, "Score Threshold:  %s\n", threshold.StringFixed(4))
	if score.GreaterThanOrEqual(threshold) {
		fmt.Fprintf(w, "Status:           %s\n", color.GreenString("PASS"))
	} else {
		fmt.Fprintf(w, "Status:           %s\n", color.RedString("FAIL"))
	}
	fmt.Fprintln(w, rule)
}

// formatCell renders an arbitrary JSON value for table display.
func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return "N/A"
	case float64:
		return fmt.Sprintf("%.3f", v)
	case string:
		if v == "" {
			return "N/A"
		}
		return v
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = formatCell(item)
		}
		return strings.Join(items, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// truncate shortens to width runes; queries are free-form text, so slicing
// must not split a multi-byte rune.
func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
