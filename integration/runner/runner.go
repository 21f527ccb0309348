package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/garlic-tiger/internal/console"
	"github.com/jwebster45206/garlic-tiger/internal/handlers"
	"github.com/jwebster45206/garlic-tiger/pkg/quiz"
	"github.com/jwebster45206/garlic-tiger/pkg/state"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// DefaultMaxMoves caps walk_until_encounter when a step sets no limit
const DefaultMaxMoves = 200

// walkPattern circles one cell so a walk from the centre never hits an edge
var walkPattern = []string{"right", "down", "left", "up"}

// Runner executes integration tests against a running garlic-tiger API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	Pack              *quiz.Pack // Must match the pack the server loaded

	api *console.Client
}

// NewRunner creates a new test runner
func NewRunner(baseURL string, pack *quiz.Pack) *Runner {
	baseURL = strings.TrimSuffix(baseURL, "/")
	client := &http.Client{Timeout: 60 * time.Second}
	return &Runner{
		BaseURL:           baseURL,
		Client:            client,
		Timeout:           30 * time.Second,
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
		Pack:              pack,
		api:               console.NewClient(baseURL, client),
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
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

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite creates a fresh session, subscribes to its events and executes every step
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	created, err := r.api.CreateSession(ctx)
	if err != nil {
		result.Error = fmt.Errorf("failed to create session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	sessionID := created.Session.ID
	result.Session = sessionID

	// The stream outlives any per-request timeout, so it gets its own client
	streamCtx, cancelStream := context.WithCancel(ctx)
	defer cancelStream()
	eventsCh, err := WatchEvents(streamCtx, &http.Client{}, r.BaseURL, sessionID)
	if err != nil {
		result.Error = fmt.Errorf("failed to watch events: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}

	last := created
	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult, resp := r.runStep(ctx, sessionID, last, step, eventsCh)
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)
		if resp != nil {
			last = resp
		}

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

// runStep executes a step with timeout and returns the last session response it saw
func (r *Runner) runStep(ctx context.Context, sessionID uuid.UUID, last *handlers.SessionResponse, step TestStep, eventsCh <-chan string) (TestResult, *handlers.SessionResponse) {
	start := time.Now()
	result := TestResult{StepName: step.Name}

	stepCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	drainEvents(eventsCh, QuietWindow)

	repeat := max(step.Repeat, 1)
	var (
		resp   *handlers.SessionResponse
		reqErr error
	)
	for range repeat {
		resp, reqErr = r.executeAction(stepCtx, sessionID, last, step)
		if reqErr != nil {
			break
		}
		if resp != nil {
			last = resp
		}
	}

	if err := r.checkExpectations(step.Expectations, resp, reqErr); err != nil {
		result.Error = err
	} else if len(step.Expectations.Events) > 0 {
		got := collectEvents(stepCtx, eventsCh, len(step.Expectations.Events))
		if !slices.Equal(got, step.Expectations.Events) {
			result.Error = fmt.Errorf("expected events %v, got %v", step.Expectations.Events, got)
		}
	}

	result.Success = result.Error == nil
	result.Duration = time.Since(start)
	return result, resp
}

func (r *Runner) executeAction(ctx context.Context, sessionID uuid.UUID, last *handlers.SessionResponse, step TestStep) (*handlers.SessionResponse, error) {
	switch step.Action {
	case ActionStart:
		return r.api.Start(ctx, sessionID)
	case ActionContinue:
		return r.api.Continue(ctx, sessionID)
	case ActionMove:
		return r.api.Move(ctx, sessionID, step.Direction)
	case ActionWalkUntilEncounter:
		return r.walkUntilEncounter(ctx, sessionID, step.MaxMoves)
	case ActionAnswer:
		choice, err := r.resolveChoice(step.Choice, last)
		if err != nil {
			return nil, err
		}
		return r.api.Answer(ctx, sessionID, choice)
	case ActionSubscribe:
		return nil, r.api.Subscribe(ctx, step.Email)
	default:
		return nil, fmt.Errorf("unknown action %q", step.Action)
	}
}

// walkUntilEncounter circles the tiger until an NPC appears or the session
// leaves the walking phase.
func (r *Runner) walkUntilEncounter(ctx context.Context, sessionID uuid.UUID, maxMoves int) (*handlers.SessionResponse, error) {
	if maxMoves <= 0 {
		maxMoves = DefaultMaxMoves
	}
	var resp *handlers.SessionResponse
	for i := range maxMoves {
		var err error
		resp, err = r.api.Move(ctx, sessionID, walkPattern[i%len(walkPattern)])
		if err != nil {
			return nil, err
		}
		if resp.Encounter || resp.Session.Phase != state.PhaseWalking {
			return resp, nil
		}
	}
	return resp, fmt.Errorf("no encounter after %d moves", maxMoves)
}

// resolveChoice turns $correct / $wrong into a choice id for the quiz at the
// session's current index.
func (r *Runner) resolveChoice(choice string, last *handlers.SessionResponse) (string, error) {
	if choice != ChoiceCorrect && choice != ChoiceWrong {
		return choice, nil
	}
	if r.Pack == nil {
		return "", fmt.Errorf("choice %s needs a quiz pack", choice)
	}
	if last == nil || last.Session == nil {
		return "", fmt.Errorf("choice %s needs a session", choice)
	}
	q, err := r.Pack.At(last.Session.Progress.CurrentQuizIndex)
	if err != nil {
		return "", err
	}
	if choice == ChoiceCorrect {
		return q.Correct, nil
	}
	for _, c := range q.Choices {
		if !q.IsCorrect(c.ID) {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("quiz %d has no wrong choice", last.Session.Progress.CurrentQuizIndex)
}

// checkExpectations validates the last response (or request error) against expectations
func (r *Runner) checkExpectations(exp Expectations, resp *handlers.SessionResponse, reqErr error) error {
	var errs []string

	if exp.Status != nil {
		status := http.StatusOK
		var apiErr *console.APIError
		switch {
		case errors.As(reqErr, &apiErr):
			status = apiErr.Status
		case reqErr != nil:
			return reqErr
		}
		if status != *exp.Status {
			errs = append(errs, fmt.Sprintf("status: expected %d, got %d (%v)", *exp.Status, status, reqErr))
		}
		if exp.ErrorContains != "" && (reqErr == nil || !strings.Contains(reqErr.Error(), exp.ErrorContains)) {
			errs = append(errs, fmt.Sprintf("error: expected to contain %q, got %v", exp.ErrorContains, reqErr))
		}
		if reqErr != nil {
			return joinExpectationErrors(errs)
		}
	} else if reqErr != nil {
		return reqErr
	}

	if resp == nil || resp.Session == nil {
		if hasSessionExpectations(exp) {
			errs = append(errs, "expected a session response, got none")
		}
		return joinExpectationErrors(errs)
	}

	gs := resp.Session
	if exp.Phase != nil && string(gs.Phase) != *exp.Phase {
		errs = append(errs, fmt.Sprintf("phase: expected %q, got %q", *exp.Phase, gs.Phase))
	}
	if exp.Garlics != nil && gs.Progress.GarlicsCollected != *exp.Garlics {
		errs = append(errs, fmt.Sprintf("garlics: expected %d, got %d", *exp.Garlics, gs.Progress.GarlicsCollected))
	}
	if exp.Stage != nil && gs.Progress.TransformationStage != *exp.Stage {
		errs = append(errs, fmt.Sprintf("stage: expected %d, got %d", *exp.Stage, gs.Progress.TransformationStage))
	}
	if exp.QuizIndex != nil && gs.Progress.CurrentQuizIndex != *exp.QuizIndex {
		errs = append(errs, fmt.Sprintf("quiz_index: expected %d, got %d", *exp.QuizIndex, gs.Progress.CurrentQuizIndex))
	}
	if exp.GameCompleted != nil && gs.Progress.GameCompleted != *exp.GameCompleted {
		errs = append(errs, fmt.Sprintf("game_completed: expected %t, got %t", *exp.GameCompleted, gs.Progress.GameCompleted))
	}
	if exp.Encounter != nil && resp.Encounter != *exp.Encounter {
		errs = append(errs, fmt.Sprintf("encounter: expected %t, got %t", *exp.Encounter, resp.Encounter))
	}
	if exp.Correct != nil && (resp.Correct == nil || *resp.Correct != *exp.Correct) {
		errs = append(errs, fmt.Sprintf("correct: expected %t, got %v", *exp.Correct, resp.Correct))
	}
	if exp.TransformationTitle != nil {
		got := ""
		if resp.Transformation != nil {
			got = resp.Transformation.Title
		}
		if got != *exp.TransformationTitle {
			errs = append(errs, fmt.Sprintf("transformation_title: expected %q, got %q", *exp.TransformationTitle, got))
		}
	}
	for _, want := range exp.ShareContains {
		if !strings.Contains(resp.ShareText, want) {
			errs = append(errs, fmt.Sprintf("share_text: expected to contain %q, got %q", want, resp.ShareText))
		}
	}
	if exp.EncouragementContains != "" && !strings.Contains(resp.Encouragement, exp.EncouragementContains) {
		errs = append(errs, fmt.Sprintf("encouragement: expected to contain %q, got %q", exp.EncouragementContains, resp.Encouragement))
	}

	return joinExpectationErrors(errs)
}

func hasSessionExpectations(exp Expectations) bool {
	return exp.Phase != nil || exp.Garlics != nil || exp.Stage != nil || exp.QuizIndex != nil ||
		exp.GameCompleted != nil || exp.Encounter != nil || exp.Correct != nil ||
		exp.TransformationTitle != nil || len(exp.ShareContains) > 0 || exp.EncouragementContains != ""
}

func joinExpectationErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("expectation failures: %s", strings.Join(errs, "; "))
}
