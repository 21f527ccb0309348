package quiz

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuiz() Quiz {
	return Quiz{
		NPC:      "street_vendor",
		Dialogue: "What is kimchi made from?",
		Choices: []Choice{
			{ID: "a", Text: "Cabbage"},
			{ID: "b", Text: "Chocolate"},
		},
		Correct:       "a",
		WrongFeedback: "Chocolate kimchi does not exist.",
		Transformation: Transformation{
			Title:       "Stage 1",
			Description: "You feel different.",
		},
	}
}

func TestQuiz_DisplayName(t *testing.T) {
	q := validQuiz()
	assert.Equal(t, "Street Vendor", q.DisplayName())

	q.NPC = "night-guard"
	assert.Equal(t, "Night Guard", q.DisplayName())

	q.NPCName = "Mr. Kim"
	assert.Equal(t, "Mr. Kim", q.DisplayName())
}

func TestQuiz_IsCorrect(t *testing.T) {
	q := validQuiz()
	assert.True(t, q.IsCorrect("a"))
	assert.True(t, q.IsCorrect(" A "))
	assert.False(t, q.IsCorrect("b"))
	assert.False(t, q.IsCorrect(""))
}

func TestQuiz_PublicHidesAnswer(t *testing.T) {
	q := validQuiz()
	pub := q.Public(3)

	assert.Equal(t, 3, pub.Index)
	assert.Equal(t, "Street Vendor", pub.NPCName)
	assert.Equal(t, q.Choices, pub.Choices)

	pub.Choices[0].Text = "changed"
	assert.Equal(t, "Cabbage", q.Choices[0].Text, "public view must not alias quiz choices")
}

func TestPack_At(t *testing.T) {
	p := &Pack{Quizzes: []Quiz{validQuiz()}}

	q, err := p.At(0)
	require.NoError(t, err)
	assert.Equal(t, "street_vendor", q.NPC)

	_, err = p.At(1)
	assert.True(t, errors.Is(err, ErrNoQuiz))
	_, err = p.At(-1)
	assert.ErrorIs(t, err, ErrNoQuiz)

	var nilPack *Pack
	assert.Equal(t, 0, nilPack.Len())
	_, err = nilPack.At(0)
	assert.ErrorIs(t, err, ErrNoQuiz)
}

func TestPack_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(q *Quiz)
		wantErr string
	}{
		{"valid", func(q *Quiz) {}, ""},
		{"missing npc", func(q *Quiz) { q.NPC = "" }, "npc is required"},
		{"missing dialogue", func(q *Quiz) { q.Dialogue = " " }, "dialogue is required"},
		{"too few choices", func(q *Quiz) { q.Choices = q.Choices[:1] }, "has 1 choices"},
		{"too many choices", func(q *Quiz) {
			q.Choices = append(q.Choices, Choice{ID: "c", Text: "x"}, Choice{ID: "d", Text: "y"})
		}, "has 4 choices"},
		{"duplicate ids", func(q *Quiz) { q.Choices[1].ID = "A" }, "duplicate choice id"},
		{"empty choice text", func(q *Quiz) { q.Choices[1].Text = "" }, `choice "b" has no text`},
		{"correct not a choice", func(q *Quiz) { q.Correct = "z" }, "not one of the choices"},
		{"missing correct", func(q *Quiz) { q.Correct = "" }, "correct is required"},
		{"missing feedback", func(q *Quiz) { q.WrongFeedback = "" }, "wrong_feedback is required"},
		{"missing transformation", func(q *Quiz) { q.Transformation.Title = "" }, "transformation title is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuiz()
			tt.mutate(&q)
			p := &Pack{Quizzes: []Quiz{q}}

			err := p.Validate(1)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPack_ValidateCount(t *testing.T) {
	p := &Pack{Quizzes: []Quiz{validQuiz(), validQuiz()}}
	err := p.Validate(5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pack has 2 quizzes, need at least 5")
}

func TestParse_Formats(t *testing.T) {
	jsonPack := `{"quizzes":[{"npc":"ajumma","dialogue":"Hi?","choices":[{"id":"a","text":"x"},{"id":"b","text":"y"}],"correct":"b","wrong_feedback":"no","transformation":{"title":"t","description":"d"}}]}`
	p, err := Parse([]byte(jsonPack), FormatJSON)
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())
	assert.Equal(t, "b", p.Quizzes[0].Correct)

	yamlPack := `
quizzes:
  - npc: ajumma
    dialogue: Hi?
    choices:
      - {id: a, text: x}
      - {id: b, text: y}
    correct: b
    wrong_feedback: "no"
    transformation:
      title: t
      description: d
`
	p, err = Parse([]byte(yamlPack), FormatYAML)
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())
	assert.Equal(t, "no", p.Quizzes[0].WrongFeedback)

	_, err = Parse([]byte(`{"quizzes":[],"extra":true}`), FormatJSON)
	assert.Error(t, err, "unknown fields must be rejected")

	_, err = Parse([]byte(`{}`), Format("toml"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.yaml")
	require.NoError(t, os.WriteFile(path, []byte("quizzes: []\n"), 0o644))

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tiny", p.Name)

	_, err = LoadFile(filepath.Join(dir, "pack.txt"))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestShippedPackIsValid(t *testing.T) {
	p, err := LoadFile(filepath.Join("..", "..", "data", "quizzes.json"))
	require.NoError(t, err)
	assert.NoError(t, p.Validate(5))
}
