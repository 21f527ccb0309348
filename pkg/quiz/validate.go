package quiz

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MinChoices = 2
	MaxChoices = 3
)

// Validate checks a pack for content problems and returns every problem found,
// joined into one error. minQuizzes is the number of quizzes a full quest needs.
func (p *Pack) Validate(minQuizzes int) error {
	if p == nil {
		return errors.New("quiz pack is nil")
	}

	var errs []error
	if len(p.Quizzes) < minQuizzes {
		errs = append(errs, fmt.Errorf("pack has %d quizzes, need at least %d", len(p.Quizzes), minQuizzes))
	}
	for i := range p.Quizzes {
		for _, err := range p.Quizzes[i].problems() {
			errs = append(errs, fmt.Errorf("quiz %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (q *Quiz) problems() []error {
	var errs []error
	if strings.TrimSpace(q.NPC) == "" {
		errs = append(errs, errors.New("npc is required"))
	}
	if strings.TrimSpace(q.Dialogue) == "" {
		errs = append(errs, errors.New("dialogue is required"))
	}
	if n := len(q.Choices); n < MinChoices || n > MaxChoices {
		errs = append(errs, fmt.Errorf("has %d choices, want %d-%d", n, MinChoices, MaxChoices))
	}

	seen := make(map[string]bool, len(q.Choices))
	for j, c := range q.Choices {
		id := strings.ToLower(strings.TrimSpace(c.ID))
		if id == "" {
			errs = append(errs, fmt.Errorf("choice %d has no id", j))
			continue
		}
		if seen[id] {
			errs = append(errs, fmt.Errorf("duplicate choice id %q", c.ID))
		}
		seen[id] = true
		if strings.TrimSpace(c.Text) == "" {
			errs = append(errs, fmt.Errorf("choice %q has no text", c.ID))
		}
	}

	if q.Correct == "" {
		errs = append(errs, errors.New("correct is required"))
	} else if !q.HasChoice(q.Correct) {
		errs = append(errs, fmt.Errorf("correct answer %q is not one of the choices", q.Correct))
	}
	if strings.TrimSpace(q.WrongFeedback) == "" {
		errs = append(errs, errors.New("wrong_feedback is required"))
	}
	if strings.TrimSpace(q.Transformation.Title) == "" {
		errs = append(errs, errors.New("transformation title is required"))
	}
	return errs
}
