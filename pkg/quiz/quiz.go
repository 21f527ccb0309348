// Package quiz holds the static quiz content shown during encounters.
package quiz

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrNoQuiz is returned when no quiz exists at the requested index.
var ErrNoQuiz = errors.New("no quiz at index")

type Choice struct {
	ID   string `json:"id" yaml:"id"`     // e.g. "a", "b", "c"
	Text string `json:"text" yaml:"text"` // text shown on the choice button
}

// Transformation is shown after a correct answer.
type Transformation struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Quiz is one NPC encounter.
type Quiz struct {
	NPC            string         `json:"npc" yaml:"npc"`                               // NPC identifier, e.g. "ajumma"
	NPCName        string         `json:"npc_name,omitempty" yaml:"npc_name,omitempty"` // display name; derived from NPC if empty
	Dialogue       string         `json:"dialogue" yaml:"dialogue"`                     // question prompt
	Choices        []Choice       `json:"choices" yaml:"choices"`                       // ordered choices
	Correct        string         `json:"correct" yaml:"correct"`                       // ID of the correct choice
	WrongFeedback  string         `json:"wrong_feedback" yaml:"wrong_feedback"`         // shown on game over
	Transformation Transformation `json:"transformation" yaml:"transformation"`         // shown after a correct answer
}

// DisplayName returns NPCName, falling back to a title-cased NPC id
// ("street_vendor" becomes "Street Vendor").
func (q *Quiz) DisplayName() string {
	if q.NPCName != "" {
		return q.NPCName
	}
	words := strings.ReplaceAll(strings.ReplaceAll(q.NPC, "_", " "), "-", " ")
	return cases.Title(language.English).String(words)
}

// IsCorrect reports whether choiceID answers the quiz. Comparison ignores case
// and surrounding space.
func (q *Quiz) IsCorrect(choiceID string) bool {
	return strings.EqualFold(strings.TrimSpace(choiceID), q.Correct)
}

// HasChoice reports whether choiceID names one of the quiz's choices.
func (q *Quiz) HasChoice(choiceID string) bool {
	id := strings.TrimSpace(choiceID)
	for _, c := range q.Choices {
		if strings.EqualFold(c.ID, id) {
			return true
		}
	}
	return false
}

// PublicQuiz is the view of a quiz sent to players: the correct answer and
// feedback stay on the server.
type PublicQuiz struct {
	Index    int      `json:"index"`
	NPC      string   `json:"npc"`
	NPCName  string   `json:"npc_name"`
	Dialogue string   `json:"dialogue"`
	Choices  []Choice `json:"choices"`
}

func (q *Quiz) Public(index int) PublicQuiz {
	choices := make([]Choice, len(q.Choices))
	copy(choices, q.Choices)
	return PublicQuiz{
		Index:    index,
		NPC:      q.NPC,
		NPCName:  q.DisplayName(),
		Dialogue: q.Dialogue,
		Choices:  choices,
	}
}
