package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/garlic-tiger/internal/handlers"
	"github.com/jwebster45206/garlic-tiger/internal/services"
	"github.com/jwebster45206/garlic-tiger/pkg/overworld"
	"github.com/jwebster45206/garlic-tiger/pkg/progress"
	"github.com/jwebster45206/garlic-tiger/pkg/quiz"
	"github.com/jwebster45206/garlic-tiger/pkg/share"
	"github.com/jwebster45206/garlic-tiger/pkg/state"
	"github.com/jwebster45206/garlic-tiger/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGrid = overworld.Grid{Cols: 3, Rows: 3}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func testPack() *quiz.Pack {
	p := &quiz.Pack{Name: "test"}
	for i := 0; i < progress.TotalGarlics; i++ {
		p.Quizzes = append(p.Quizzes, quiz.Quiz{
			NPC:      "grandma",
			Dialogue: fmt.Sprintf("Question %d?", i+1),
			Choices: []quiz.Choice{
				{ID: "a", Text: "Right"},
				{ID: "b", Text: "Wrong"},
			},
			Correct:       "a",
			WrongFeedback: "Aigoo...",
			Transformation: quiz.Transformation{
				Title:       fmt.Sprintf("Stage %d", i+1),
				Description: "Something changed.",
			},
		})
	}
	return p
}

type testAPI struct {
	store      *storage.MockStorage
	subscriber *services.MockSubscriber
	client     *Client
}

// newTestAPI serves the real handlers with an encounter on every step.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := storage.NewMockStorage()
	store.SetQuizPack(testPack())
	sub := services.NewMockSubscriber()
	logger := testLogger()

	sessions := handlers.NewSessionHandler(store, nil, handlers.SessionOptions{
		Grid:               testGrid,
		EncounterThreshold: 4,
		Random:             progress.RandomFunc(func() float64 { return 0 }),
	}, logger)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, nil, logger))
	mux.Handle("/v1/sessions", sessions)
	mux.Handle("/v1/sessions/", sessions)
	mux.Handle("/api/subscribe", handlers.NewSubscribeHandler(sub, "", logger))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testAPI{
		store:      store,
		subscriber: sub,
		client:     NewClient(srv.URL, srv.Client()),
	}
}

type harness struct {
	t      *testing.T
	m      Model
	copied []string
}

func newHarness(t *testing.T, api *testAPI, opts ...Option) *harness {
	t.Helper()
	h := &harness{t: t}
	opts = append([]Option{
		WithGrid(testGrid),
		WithClipboard(func(s string) error {
			h.copied = append(h.copied, s)
			return nil
		}),
	}, opts...)
	h.m = NewModel(api.client, opts...)
	h.send(h.m.Init()())
	require.Equal(t, sceneTitle, h.m.scene)
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

// sendAPI sends msg, which must start an API call, and feeds back the result.
func (h *harness) sendAPI(msg tea.Msg) {
	h.t.Helper()
	cmd := h.send(msg)
	require.NotNil(h.t, cmd)
	h.send(cmd())
	require.NoError(h.t, h.m.err)
}

// fireTimeline delivers every pending scene step at once.
func (h *harness) fireTimeline() tea.Cmd {
	h.t.Helper()
	tl := h.m.timeline
	require.NotEmpty(h.t, tl.Pending())
	fired := append([]bool(nil), tl.fired...)
	var cmd tea.Cmd
	for i, s := range tl.steps {
		if fired[i] {
			continue
		}
		cmd = h.send(timelineMsg{gen: tl.gen, idx: i, msg: s.Msg})
	}
	return cmd
}

func (h *harness) finishDialogue() {
	h.t.Helper()
	for i := 0; !h.m.linesDone; i++ {
		require.Less(h.t, i, 50, "dialogue never finished")
		h.send(enter())
	}
}

func enter() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEnter} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// toWalking plays from the title through the intro onto the map.
func (h *harness) toWalking() {
	h.t.Helper()
	h.sendAPI(enter())
	require.Equal(h.t, sceneIntro, h.m.scene)
	h.finishDialogue()
	assert.Equal(h.t, "The Journey Begins...", h.m.banner)

	cmd := h.fireTimeline()
	require.NotNil(h.t, cmd)
	h.send(cmd())
	require.Equal(h.t, sceneWalking, h.m.scene)
}

func (h *harness) encounter() {
	h.t.Helper()
	h.sendAPI(tea.KeyMsg{Type: tea.KeyUp})
	require.NotNil(h.t, h.m.quiz)
	assert.Equal(h.t, "!", h.m.banner)
	h.fireTimeline()
	require.Equal(h.t, sceneQuiz, h.m.scene)
}

func TestModel_FullRun(t *testing.T) {
	api := newTestAPI(t)
	h := newHarness(t, api)
	h.toWalking()

	for i := 0; i < progress.TotalGarlics; i++ {
		h.encounter()
		assert.Contains(t, h.m.View(), fmt.Sprintf("Question %d?", i+1))

		h.sendAPI(runes("1"))
		assert.Equal(t, "CORRECT! +1 garlic", h.m.banner)
		assert.Equal(t, i+1, h.m.session.Progress.GarlicsCollected)

		h.fireTimeline()
		require.Equal(t, sceneTransform, h.m.scene)
		assert.False(t, h.m.canContinue)
		assert.Nil(t, h.send(runes("x")))

		h.fireTimeline()
		assert.True(t, h.m.revealed)
		assert.Contains(t, h.m.View(), fmt.Sprintf("Stage %d", i+1))

		h.sendAPI(enter())
	}

	require.Equal(t, sceneVictory, h.m.scene)
	assert.True(t, h.m.session.Progress.GameCompleted)
	h.finishDialogue()
	assert.False(t, h.m.canContinue)
	h.fireTimeline()
	assert.Contains(t, h.m.View(), "Tap to enter the fortress...")

	h.sendAPI(enter())
	require.Equal(t, sceneCapture, h.m.scene)
	assert.Equal(t, state.PhaseCapture, h.m.session.Phase)

	for _, r := range "tiger@example.com" {
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	cmd := h.send(enter())
	require.NotNil(t, cmd)
	assert.Equal(t, "Sending...", h.m.captureMsg)
	h.send(cmd())
	assert.Equal(t, "Scroll sent!", h.m.captureMsg)
	require.Len(t, api.subscriber.Calls, 1)
	assert.Equal(t, "tiger@example.com", api.subscriber.Calls[0].Email)
	assert.Equal(t, handlers.DefaultSubscribeSource, api.subscriber.Calls[0].Source)

	h.fireTimeline()
	require.Equal(t, sceneFinal, h.m.scene)
	assert.Contains(t, h.m.View(), "CONGRATULATIONS!")

	h.send(runes("s"))
	assert.Equal(t, []string{share.ClipboardText(progress.TotalGarlics, true)}, h.copied)
	assert.Equal(t, "Copied to clipboard!", h.m.notice)

	// Play again starts a fresh run on the same session.
	h.sendAPI(runes("r"))
	assert.Equal(t, sceneIntro, h.m.scene)
	assert.Equal(t, progress.State{GameStarted: true}, h.m.session.Progress)
}

func TestModel_EnterSkipsTransformReveal(t *testing.T) {
	api := newTestAPI(t)
	h := newHarness(t, api)
	h.toWalking()
	h.encounter()
	h.sendAPI(runes("1"))
	h.fireTimeline()
	require.Equal(t, sceneTransform, h.m.scene)
	require.Len(t, h.m.timeline.Pending(), 2)
	stale := timelineMsg{gen: h.m.timeline.gen, idx: 0, msg: revealMsg{}}

	h.send(enter())
	assert.True(t, h.m.revealed)
	assert.True(t, h.m.canContinue)
	assert.Empty(t, h.m.timeline.Pending())
	assert.Equal(t, sceneTransform, h.m.scene, "skipping does not leave the scene")

	// Steps scheduled before the skip are dropped when they arrive.
	assert.Nil(t, h.send(stale))

	h.sendAPI(enter())
	assert.Equal(t, sceneWalking, h.m.scene)
}

func TestModel_WrongAnswer(t *testing.T) {
	api := newTestAPI(t)
	h := newHarness(t, api, WithClipboard(nil))
	h.toWalking()
	h.encounter()

	h.sendAPI(runes("b"))
	assert.Equal(t, "WRONG!", h.m.banner)
	assert.Nil(t, h.send(runes("a")), "answers are locked after the first")

	h.fireTimeline()
	require.Equal(t, sceneGameOver, h.m.scene)
	view := h.m.View()
	assert.Contains(t, view, "GAME OVER")
	assert.Contains(t, view, "Aigoo...")
	assert.Contains(t, view, "You collected 0/5 garlics")
	assert.Contains(t, view, share.Encouragement(0))

	// Without a clipboard the share text is shown instead.
	h.send(runes("s"))
	assert.Equal(t, share.Text(0, false), h.m.notice)

	h.sendAPI(runes("r"))
	assert.Equal(t, sceneIntro, h.m.scene)
}

func TestModel_CaptureValidation(t *testing.T) {
	api := newTestAPI(t)
	h := newHarness(t, api)

	h.m.scene = sceneCapture
	h.m.email.Focus()
	for _, r := range "not-an-email" {
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	assert.Nil(t, h.send(enter()))
	assert.Equal(t, "Enter valid email!", h.m.captureMsg)
	assert.True(t, h.m.captureError)
	assert.Zero(t, api.subscriber.CallCount())

	api.subscriber.SubscribeFunc = func(ctx context.Context, email, source string) error {
		return services.ErrUpstream
	}
	h.m.email.SetValue("tiger@example.com")
	cmd := h.send(enter())
	require.NotNil(t, cmd)
	h.send(cmd())
	assert.Equal(t, "Error! Try again.", h.m.captureMsg)
	assert.Equal(t, sceneCapture, h.m.scene)

	// Esc skips the sign-up.
	h.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, sceneFinal, h.m.scene)
}

func TestModel_StaleStepsAreDropped(t *testing.T) {
	api := newTestAPI(t)
	h := newHarness(t, api)
	h.toWalking()

	h.sendAPI(tea.KeyMsg{Type: tea.KeyUp})
	stale := timelineMsg{gen: h.m.timeline.gen, msg: showQuizMsg{}}
	h.m.timeline.Cancel()

	h.send(stale)
	assert.Equal(t, sceneWalking, h.m.scene)
}

func TestModel_ExpiredSession(t *testing.T) {
	api := newTestAPI(t)
	h := newHarness(t, api)
	h.toWalking()

	require.NoError(t, api.store.DeleteGameState(context.Background(), h.m.session.ID))
	h.send(h.send(tea.KeyMsg{Type: tea.KeyLeft})())

	assert.Equal(t, sceneTitle, h.m.scene)
	assert.Nil(t, h.m.session)
	assert.Contains(t, h.m.notice, "Session expired")

	// Enter creates a new session and starts it.
	cmd := h.send(enter())
	require.NotNil(t, cmd)
	cmd = h.send(cmd())
	require.NotNil(t, cmd)
	h.send(cmd())
	assert.Equal(t, sceneIntro, h.m.scene)
	assert.NotNil(t, h.m.session)
}

func TestModel_APIErrorIsShown(t *testing.T) {
	api := newTestAPI(t)
	h := newHarness(t, api)

	h.send(sessionMsg{action: "start", err: errors.New("connection refused")})
	assert.Equal(t, sceneTitle, h.m.scene)
	assert.Contains(t, h.m.View(), "connection refused")
}

func TestModel_QuitModal(t *testing.T) {
	api := newTestAPI(t)
	h := newHarness(t, api)

	h.send(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.True(t, h.m.showQuitModal)
	assert.Contains(t, h.m.View(), "Quit Game?")

	h.send(runes("n"))
	assert.False(t, h.m.showQuitModal)

	h.send(tea.KeyMsg{Type: tea.KeyCtrlC})
	cmd := h.send(runes("y"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_OverworldMovement(t *testing.T) {
	api := newTestAPI(t)
	h := newHarness(t, api)
	h.toWalking()

	assert.Equal(t, testGrid.Start(), h.m.session.Position)
	assert.Nil(t, h.send(runes("x")), "unmapped keys do nothing")
	assert.Contains(t, h.m.View(), "Explore Korea!")
}

func TestModel_ShareRunNeedsAllGarlicsForVictory(t *testing.T) {
	tests := []struct {
		name    string
		garlics int
		victory bool
		want    string
	}{
		{name: "full victory", garlics: progress.TotalGarlics, victory: true, want: share.Text(progress.TotalGarlics, true)},
		{name: "pack ran out early", garlics: 1, victory: true, want: share.Text(1, false)},
		{name: "game over", garlics: 3, victory: false, want: share.Text(3, false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel(nil, WithClipboard(nil))
			m.session = &state.GameState{Progress: progress.State{GarlicsCollected: tt.garlics}}
			require.NotNil(t, m.shareRun(tt.victory))
			assert.Equal(t, tt.want, m.notice)
		})
	}
}
