package runner

import (
	"time"

	"github.com/google/uuid"
)

// Special input values that trigger non-command actions
const (
	ResetSessionInput = "RESET_SESSION"
)

// TestSuite defines a complete playthrough test
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name    string     `json:"name" yaml:"name"`
	Project string     `json:"project,omitempty" yaml:"project,omitempty"` // Used for regular tests
	Strict  *bool      `json:"strict,omitempty" yaml:"strict,omitempty"`   // Optional: override the server default
	Steps   []TestStep `json:"steps,omitempty" yaml:"steps,omitempty"`     // Used for regular tests
	Cases   []string   `json:"cases,omitempty" yaml:"cases,omitempty"`     // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single player command and its expected outcomes
// Use input: "RESET_SESSION" to start over with a fresh session
type TestStep struct {
	Name         string       `json:"name,omitempty" yaml:"name,omitempty"`
	Input        string       `json:"input" yaml:"input"`
	Expectations Expectations `json:"expect" yaml:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// Session properties
	Node      *string         `json:"node,omitempty" yaml:"node,omitempty"`           // Current scene id
	Inventory []string        `json:"inventory,omitempty" yaml:"inventory,omitempty"` // Full inventory contents (order independent)
	Flags     map[string]bool `json:"flags,omitempty" yaml:"flags,omitempty"`         // Flags that must hold these values
	IsEnded   *bool           `json:"is_ended,omitempty" yaml:"is_ended,omitempty"`   // Final scene reached
	Handled   *bool           `json:"handled,omitempty" yaml:"handled,omitempty"`     // Input was understood

	// ErrorKind expects the command to fail with this error kind
	ErrorKind string `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`

	// Response Analysis
	ResponseContains    []string `json:"response_contains,omitempty" yaml:"response_contains,omitempty"`
	ResponseNotContains []string `json:"response_not_contains,omitempty" yaml:"response_not_contains,omitempty"`
	ResponseRegex       string   `json:"response_regex,omitempty" yaml:"response_regex,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName     string
	StepName     string
	Success      bool
	Error        error
	Duration     time.Duration
	ResponseText string
	IsReset      bool // True if this was a RESET_SESSION step (should not count toward pass/fail metrics)
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Session  uuid.UUID // ID of the last session used for this test
}
