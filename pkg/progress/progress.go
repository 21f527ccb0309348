// Package progress tracks a player's quest progress: garlics collected, the
// quiz index, the transformation stage and steps walked since the last
// encounter.
package progress

import "errors"

const (
	// TotalGarlics is the number of correct answers needed to finish the quest.
	TotalGarlics = 5

	// DefaultEncounterThreshold is the nominal number of tile steps between encounters.
	DefaultEncounterThreshold = 12
)

// ErrQuestComplete is returned by RecordCorrectAnswer once all garlics are collected.
// Callers are expected to check IsQuestComplete first, so receiving it is a logic error.
var ErrQuestComplete = errors.New("quest already complete")

// State is the progress record for one game session.
type State struct {
	GarlicsCollected    int  `json:"garlics_collected"`
	CurrentQuizIndex    int  `json:"current_quiz_index"`
	TransformationStage int  `json:"transformation_stage"`
	TilesWalked         int  `json:"tiles_walked"`
	GameStarted         bool `json:"game_started"`
	GameCompleted       bool `json:"game_completed"`
}

// Machine owns a State and is the only thing that mutates it.
// It is not safe for concurrent use; a session is driven by one caller at a time.
type Machine struct {
	state State
}

// NewMachine returns a machine holding a zero State.
func NewMachine() *Machine {
	return &Machine{}
}

// Restore wraps an existing State, e.g. one loaded from storage.
func Restore(s State) *Machine {
	return &Machine{state: s}
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	return m.state
}

// Reset returns every field to its default.
func (m *Machine) Reset() {
	m.state = State{}
}

// StartGame marks the session as started. The flag never goes back to false
// except through Reset.
func (m *Machine) StartGame() {
	m.state.GameStarted = true
}

// CompleteGame marks the session as won. It has no effect until the quest is complete.
func (m *Machine) CompleteGame() {
	if m.IsQuestComplete() {
		m.state.GameCompleted = true
	}
}

// RecordCorrectAnswer collects a garlic. The garlic count, transformation stage
// and quiz index move together.
func (m *Machine) RecordCorrectAnswer() error {
	if m.IsQuestComplete() {
		return ErrQuestComplete
	}
	m.state.GarlicsCollected++
	m.state.TransformationStage++
	m.state.CurrentQuizIndex++
	return nil
}

func (m *Machine) IsQuestComplete() bool {
	return m.state.GarlicsCollected >= TotalGarlics
}

// RecordTileStep counts one completed grid-cell move.
func (m *Machine) RecordTileStep() {
	m.state.TilesWalked++
}

func (m *Machine) ResetEncounterCounter() {
	m.state.TilesWalked = 0
}

func (m *Machine) Garlics() int             { return m.state.GarlicsCollected }
func (m *Machine) TransformationStage() int { return m.state.TransformationStage }
func (m *Machine) CurrentQuizIndex() int    { return m.state.CurrentQuizIndex }
func (m *Machine) TilesWalked() int         { return m.state.TilesWalked }
func (m *Machine) GameStarted() bool        { return m.state.GameStarted }
func (m *Machine) GameCompleted() bool      { return m.state.GameCompleted }
