package state

import (
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/garlic-tiger/pkg/overworld"
	"github.com/jwebster45206/garlic-tiger/pkg/progress"
)

// GameState is one player's session: the quest phase, progress counters and
// where the tiger stands on the map.
type GameState struct {
	ID        uuid.UUID          `json:"id"`         // Unique ID per session
	Phase     Phase              `json:"phase"`      // Current quest phase
	Progress  progress.State     `json:"progress"`   // Garlics, quiz index, stage, steps walked
	Position  overworld.Position `json:"position"`   // Tiger's cell on the overworld grid
	CreatedAt time.Time          `json:"created_at"` // Session creation time
	UpdatedAt time.Time          `json:"updated_at"` // Last save time
}

// NewGameState returns a session on the title screen with zeroed progress.
func NewGameState(start overworld.Position) *GameState {
	return &GameState{
		ID:        uuid.New(),
		Phase:     PhaseTitle,
		Position:  start,
		CreatedAt: time.Now(),
	}
}

// Update runs fn against a progress machine restored from the session and
// stores the resulting state, even when fn returns an error.
func (gs *GameState) Update(fn func(m *progress.Machine) error) error {
	m := progress.Restore(gs.Progress)
	err := fn(m)
	gs.Progress = m.Snapshot()
	return err
}

// Transition moves the session to the given phase and applies the phase's
// entry effects:
//   - intro resets all progress and marks the game started
//   - walking resets the encounter counter
//   - victory marks the game completed
//
// Walking is only reachable while the quest is incomplete. Victory is only
// reachable from walking or transform once the quest is complete.
func (gs *GameState) Transition(to Phase) error {
	from := gs.Phase
	if !from.CanTransition(to) {
		return transitionError(from, to)
	}

	m := progress.Restore(gs.Progress)
	switch to {
	case PhaseWalking:
		if m.IsQuestComplete() {
			return transitionError(from, to)
		}
	case PhaseVictory:
		if from != PhaseEncounter && !m.IsQuestComplete() {
			return transitionError(from, to)
		}
	}

	switch to {
	case PhaseIntro:
		m.Reset()
		m.StartGame()
	case PhaseWalking:
		m.ResetEncounterCounter()
	case PhaseVictory:
		m.CompleteGame()
	}

	gs.Progress = m.Snapshot()
	gs.Phase = to
	return nil
}

func (gs *GameState) IsQuestComplete() bool {
	return progress.Restore(gs.Progress).IsQuestComplete()
}
