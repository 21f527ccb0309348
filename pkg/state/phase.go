package state

import (
	"errors"
	"fmt"
)

// Phase is where the player is in the quest.
type Phase string

const (
	PhaseTitle     Phase = "title"
	PhaseIntro     Phase = "intro"
	PhaseWalking   Phase = "walking"
	PhaseEncounter Phase = "encounter"
	PhaseTransform Phase = "transform"
	PhaseGameOver  Phase = "game_over"
	PhaseVictory   Phase = "victory"
	PhaseCapture   Phase = "capture"
)

// ErrInvalidTransition is returned when a phase change is not allowed from the current phase.
var ErrInvalidTransition = errors.New("invalid phase transition")

// transitions lists the phases reachable from each phase.
var transitions = map[Phase][]Phase{
	PhaseTitle:     {PhaseIntro},
	PhaseIntro:     {PhaseWalking},
	PhaseWalking:   {PhaseEncounter, PhaseVictory},
	PhaseEncounter: {PhaseTransform, PhaseGameOver, PhaseVictory},
	PhaseTransform: {PhaseWalking, PhaseVictory},
	PhaseGameOver:  {PhaseIntro},
	PhaseVictory:   {PhaseCapture, PhaseIntro},
	PhaseCapture:   {PhaseIntro},
}

func (p Phase) IsValid() bool {
	_, ok := transitions[p]
	return ok
}

// CanTransition reports whether to is directly reachable from p.
func (p Phase) CanTransition(to Phase) bool {
	for _, next := range transitions[p] {
		if next == to {
			return true
		}
	}
	return false
}

func transitionError(from, to Phase) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
