package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/pkg/api"
	"gopkg.in/yaml.v3"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner plays test suites against a running scene-engine API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	ProjectOverride   string // If set, overrides the project for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON or YAML file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	// YAML is a superset of JSON, so one decoder reads both.
	var suite TestSuite
	if err := yaml.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	return suite, nil
}

// IsCaseFile reports whether path has a test case extension
func IsCaseFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	return loadWithExpansion(filename, casesDir, map[string]bool{})
}

func loadWithExpansion(filename, casesDir string, visiting map[string]bool) ([]TestJob, error) {
	if visiting[filename] {
		return nil, fmt.Errorf("sequence cycle through %s", filename)
	}
	visiting[filename] = true
	defer delete(visiting, filename)

	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)
		subJobs, err := loadWithExpansion(casePath, casesDir, visiting)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}
		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	projectFile := suite.Project
	if r.ProjectOverride != "" {
		projectFile = r.ProjectOverride
	}

	sessionID, err := r.startSession(ctx, projectFile, suite.Strict)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.Session = sessionID

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)

		var stepResult TestResult
		if step.Input == ResetSessionInput {
			stepResult, sessionID = r.resetStep(ctx, step, projectFile, suite.Strict, sessionID)
			result.Session = sessionID
		} else {
			stepResult = r.executeStep(ctx, sessionID, step)
		}
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

func (r *Runner) startSession(ctx context.Context, projectFile string, strict *bool) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	created, err := CreateSession(ctx, r.Client, r.BaseURL, projectFile, strict)
	if err != nil {
		return uuid.Nil, err
	}
	return created.ID, nil
}

// resetStep replaces the session with a fresh one for the same project
func (r *Runner) resetStep(ctx context.Context, step TestStep, projectFile string, strict *bool, current uuid.UUID) (TestResult, uuid.UUID) {
	start := time.Now()
	result := TestResult{StepName: step.Name, IsReset: true, ResponseText: "[SESSION RESET]"}

	sessionID, err := r.startSession(ctx, projectFile, strict)
	if err != nil {
		result.Error = fmt.Errorf("failed to reset session: %w", err)
		result.Duration = time.Since(start)
		return result, current
	}

	post, err := r.getSession(ctx, sessionID)
	if err != nil {
		result.Error = fmt.Errorf("failed to get reset session for expectations: %w", err)
	} else if err := checkExpectations(step.Expectations, post, nil, nil); err != nil {
		result.Error = fmt.Errorf("reset expectation failed: %w", err)
	}

	result.Success = result.Error == nil
	result.Duration = time.Since(start)
	return result, sessionID
}

// executeStep sends the step's input and checks expectations
func (r *Runner) executeStep(ctx context.Context, sessionID uuid.UUID, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}

	stepCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	resp, cmdErr := SendCommand(stepCtx, r.Client, r.BaseURL, sessionID, step.Input)
	var statusErr *StatusError
	if cmdErr != nil && !errors.As(cmdErr, &statusErr) {
		result.Error = fmt.Errorf("failed to send command: %w", cmdErr)
		result.Duration = time.Since(start)
		return result
	}
	if resp != nil {
		result.ResponseText = responseText(resp)
	}

	// Failed commands still save their partial state, so read it back.
	post, err := r.getSession(stepCtx, sessionID)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	if err := checkExpectations(step.Expectations, post, resp, statusErr); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

func (r *Runner) getSession(ctx context.Context, sessionID uuid.UUID) (*api.SessionResponse, error) {
	return GetSession(ctx, r.Client, r.BaseURL, sessionID)
}

func responseText(resp *api.CommandResponse) string {
	texts := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		texts = append(texts, m.Text)
	}
	return strings.Join(texts, "\n")
}

// checkExpectations validates the expectations against the saved session and
// the command outcome. resp is nil when the command failed, and both resp and
// statusErr are nil for reset steps.
func checkExpectations(exp Expectations, post *api.SessionResponse, resp *api.CommandResponse, statusErr *StatusError) error {
	if exp.ErrorKind != "" {
		if statusErr == nil {
			return fmt.Errorf("expected error %s, but the command succeeded", exp.ErrorKind)
		}
		if statusErr.Response.Kind != exp.ErrorKind {
			return fmt.Errorf("expected error %s, got %s (%d)", exp.ErrorKind, statusErr.Response.Kind, statusErr.Status)
		}
	} else if statusErr != nil {
		return fmt.Errorf("unexpected error: %w", statusErr)
	}

	if exp.Node != nil && post.CurrentNodeID != *exp.Node {
		return fmt.Errorf("expected node %s, got %s", *exp.Node, post.CurrentNodeID)
	}

	// Full inventory check (order independent)
	if exp.Inventory != nil {
		expected := make(map[string]bool)
		for _, item := range exp.Inventory {
			expected[item] = true
		}
		actual := make(map[string]bool)
		for _, item := range post.Inventory {
			actual[item] = true
		}
		for item := range expected {
			if !actual[item] {
				return fmt.Errorf("expected inventory to contain '%s', but it's missing. Actual inventory: %v", item, post.Inventory)
			}
		}
		for item := range actual {
			if !expected[item] {
				return fmt.Errorf("inventory contains unexpected item '%s'. Expected inventory: %v, Actual: %v", item, exp.Inventory, post.Inventory)
			}
		}
	}

	for flag, want := range exp.Flags {
		if post.Flags[flag] != want {
			return fmt.Errorf("expected flag %s to be %t, got %t", flag, want, post.Flags[flag])
		}
	}

	if exp.IsEnded != nil && post.Ended != *exp.IsEnded {
		return fmt.Errorf("expected is_ended to be %t, got %t", *exp.IsEnded, post.Ended)
	}

	var text string
	if resp != nil {
		text = responseText(resp)
		if exp.Handled != nil && resp.Handled != *exp.Handled {
			return fmt.Errorf("expected handled to be %t, got %t", *exp.Handled, resp.Handled)
		}
	}

	lowerResponse := strings.ToLower(text)
	for _, expectedText := range exp.ResponseContains {
		if !strings.Contains(lowerResponse, strings.ToLower(expectedText)) {
			return fmt.Errorf("expected response to contain '%s', but it didn't: %q", expectedText, text)
		}
	}
	for _, unexpectedText := range exp.ResponseNotContains {
		if strings.Contains(lowerResponse, strings.ToLower(unexpectedText)) {
			return fmt.Errorf("expected response to NOT contain '%s', but it did", unexpectedText)
		}
	}

	if exp.ResponseRegex != "" {
		matched, err := regexp.MatchString(exp.ResponseRegex, text)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		if !matched {
			return fmt.Errorf("response didn't match regex pattern: %s", exp.ResponseRegex)
		}
	}

	return nil
}
