package runner

import (
	"time"

	"github.com/google/uuid"
)

// Step actions, one per session endpoint plus a random-walk helper.
const (
	ActionStart              = "start"
	ActionContinue           = "continue"
	ActionMove               = "move"
	ActionWalkUntilEncounter = "walk_until_encounter"
	ActionAnswer             = "answer"
	ActionSubscribe          = "subscribe"
)

// Choice placeholders resolved against the quiz pack the runner was given.
const (
	ChoiceCorrect = "$correct"
	ChoiceWrong   = "$wrong"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name  string     `json:"name"`
	Steps []TestStep `json:"steps,omitempty"` // Used for regular tests
	Cases []string   `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single action against the session and its expected outcomes
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Action       string       `json:"action"`
	Direction    string       `json:"direction,omitempty"` // move
	Choice       string       `json:"choice,omitempty"`    // answer; choice id or $correct / $wrong
	Email        string       `json:"email,omitempty"`     // subscribe
	MaxMoves     int          `json:"max_moves,omitempty"` // walk_until_encounter cap
	Repeat       int          `json:"repeat,omitempty"`    // run the action this many times
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// Status is the HTTP status the last request must return; any 2xx when nil
	Status        *int   `json:"status,omitempty"`
	ErrorContains string `json:"error_contains,omitempty"`

	// Session properties - aligned with pkg/state/gamestate.go
	Phase         *string `json:"phase,omitempty"`
	Garlics       *int    `json:"garlics,omitempty"`
	Stage         *int    `json:"stage,omitempty"`
	QuizIndex     *int    `json:"quiz_index,omitempty"`
	GameCompleted *bool   `json:"game_completed,omitempty"`

	// Response fields
	Encounter             *bool    `json:"encounter,omitempty"`
	Correct               *bool    `json:"correct,omitempty"`
	TransformationTitle   *string  `json:"transformation_title,omitempty"`
	ShareContains         []string `json:"share_contains,omitempty"`
	EncouragementContains string   `json:"encouragement_contains,omitempty"`

	// Events lists the event types the step must publish, in order
	Events []string `json:"events,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName string
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
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
	Session  uuid.UUID // ID of the session used for this test
}
