package pipeline

import (
	"fmt"
	"strings"
)

// TestType selects which evaluation suite the generator prepares.
type TestType string

const (
	TestTypeLive TestType = "live"
	TestTypeUnit TestType = "unit"
	TestTypeAll  TestType = "all"
)

// ParseTestType parses a test type selector, case-insensitively.
func ParseTestType(s string) (TestType, error) {
	switch TestType(strings.ToLower(s)) {
	case TestTypeLive:
		return TestTypeLive, nil
	case TestTypeUnit:
		return TestTypeUnit, nil
	case TestTypeAll:
		return TestTypeAll, nil
	default:
		return "", fmt.Errorf("invalid test type %q (expected live, unit, or all)", s)
	}
}

// AreaFilter joins area names into the comma-separated, lower-cased filter
// the generator expects. Empty input yields no filter.
func AreaFilter(areas []string) string {
	if len(areas) == 0 {
		return ""
	}
	return strings.ToLower(strings.Join(areas, ","))
}

// StepStatus is the outcome of one pipeline step.
type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepSkipped StepStatus = "skipped"
	StepFailed  StepStatus = "failed"
)

// StepSummary records one step for the run summary.
type StepSummary struct {
	Name     string     `json:"name"`
	Status   StepStatus `json:"status"`
	Detail   string     `json:"detail,omitempty"`
	ExitCode int        `json:"exit_code"`
}

// Summary is the JSON record of a whole orchestrator run. It is printed to
// stdout and, when configured, delivered to the results webhook.
type Summary struct {
	TestType    string        `json:"test_type"`
	Areas       []string      `json:"areas,omitempty"`
	WorkDir     string        `json:"work_dir,omitempty"`
	Gated       bool          `json:"gated,omitempty"` // true when the CI gate skipped the run
	Steps       []StepSummary `json:"steps,omitempty"`
	ResultsFile string        `json:"results_file,omitempty"`
	ExitCode    int           `json:"exit_code"`
	DurationMs  int64         `json:"duration_ms"`
}

// ExitCodeError carries an external process's exit code up to the process
// boundary, where it becomes the orchestrator's own exit code verbatim.
type ExitCodeError struct {
	Code int
	Step string
	Err  error
}

func (e *ExitCodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v (exit code %d)", e.Err, e.Code)
	}
	return fmt.Sprintf("%s exited with code %d", e.Step, e.Code)
}

func (e *ExitCodeError) Unwrap() error { return e.Err }
