// Package console is the terminal front-end for the quest. It renders each
// scene locally and drives a server-side session through the API.
package console

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/garlic-tiger/internal/handlers"
	"github.com/jwebster45206/garlic-tiger/pkg/overworld"
	"github.com/jwebster45206/garlic-tiger/pkg/progress"
	"github.com/jwebster45206/garlic-tiger/pkg/quiz"
	"github.com/jwebster45206/garlic-tiger/pkg/share"
	"github.com/jwebster45206/garlic-tiger/pkg/state"
)

type scene int

const (
	sceneLoading scene = iota
	sceneTitle
	sceneIntro
	sceneWalking
	sceneQuiz
	sceneTransform
	sceneGameOver
	sceneVictory
	sceneCapture
	sceneFinal
)

// Messages returned by API commands.
type sessionMsg struct {
	action string
	resp   *handlers.SessionResponse
	err    error
}

type subscribeMsg struct {
	err error
}

// Messages delivered by timeline steps.
type (
	journeyBegunMsg  struct{}
	showQuizMsg      struct{}
	showTransformMsg struct{}
	showGameOverMsg  struct{}
	revealMsg        struct{}
	allowContinueMsg struct{}
	victoryPromptMsg struct{}
	captureDoneMsg   struct{}
)

type clearNoticeMsg struct {
	gen uint64
}

// Model is the Bubble Tea model for one player.
type Model struct {
	client    *Client
	ctx       context.Context
	clipboard func(string) error // nil when no clipboard is reachable
	grid      overworld.Grid

	session *state.GameState
	scene   scene
	busy    bool // An API call is in flight
	width   int
	height  int

	// Cutscene dialogue
	lines      []Line
	lineIdx    int
	typewriter Typewriter
	linesDone  bool

	timeline Timeline // Scene steps; restarted on every scene change

	quiz           *quiz.PublicQuiz
	transformation *quiz.Transformation
	banner         string // Short flash text such as WRONG!
	revealed       bool   // Transformation description is visible
	canContinue    bool
	wrongFeedback  string
	encouragement  string

	email        textinput.Model
	captureMsg   string
	captureError bool
	sending      bool

	notice        string
	noticeGen     uint64
	err           error
	showQuitModal bool
}

type Option func(*Model)

// WithContext sets the context passed to API calls, such as an SSH session's.
func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.ctx = ctx }
}

// WithClipboard replaces the system clipboard. Passing nil disables copying;
// the share text is shown on screen instead.
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) { m.clipboard = fn }
}

// WithGrid sets the map size drawn by the overworld scene.
func WithGrid(g overworld.Grid) Option {
	return func(m *Model) { m.grid = g }
}

func NewModel(client *Client, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "your@email.com"
	ti.CharLimit = 254
	ti.Width = 30
	ti.Prompt = promptStyle.Render("> ")

	m := Model{
		client:    client,
		ctx:       context.Background(),
		clipboard: clipboard.WriteAll,
		grid:      overworld.DefaultGrid(),
		scene:     sceneLoading,
		email:     ti,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return m.call("create", func(ctx context.Context) (*handlers.SessionResponse, error) {
		return m.client.CreateSession(ctx)
	})
}

// call runs an API request as a command and reports it as a sessionMsg.
func (m Model) call(action string, fn func(ctx context.Context) (*handlers.SessionResponse, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		resp, err := fn(ctx)
		return sessionMsg{action: action, resp: resp, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case timelineMsg:
		inner, ok := m.timeline.Accept(msg)
		if !ok {
			return m, nil
		}
		return m.Update(inner)

	case clearNoticeMsg:
		if msg.gen == m.noticeGen {
			m.notice = ""
		}
		return m, nil

	case typewriterTickMsg:
		cmd := m.typewriter.Update(msg)
		return m, cmd

	case sessionMsg:
		return m.handleSession(msg)

	case subscribeMsg:
		m.sending = false
		if msg.err != nil {
			m.captureMsg = "Error! Try again."
			m.captureError = true
			return m, nil
		}
		m.captureMsg = "Scroll sent!"
		m.captureError = false
		m.email.Blur()
		cmd := m.timeline.Start(Step{After: captureDoneDelay, Msg: captureDoneMsg{}})
		return m, cmd

	case journeyBegunMsg:
		cmd := m.continueSession()
		return m, cmd

	case showQuizMsg:
		m.banner = ""
		m.scene = sceneQuiz
		return m, nil

	case showTransformMsg:
		m.banner = ""
		m.scene = sceneTransform
		m.revealed = false
		m.canContinue = false
		cmd := m.timeline.Start(
			Step{After: revealDelay, Msg: revealMsg{}},
			Step{After: transformHoldDelay, Msg: allowContinueMsg{}},
		)
		return m, cmd

	case revealMsg:
		m.revealed = true
		return m, nil

	case allowContinueMsg:
		m.revealed = true
		m.canContinue = true
		return m, nil

	case showGameOverMsg:
		m.banner = ""
		m.scene = sceneGameOver
		return m, nil

	case victoryPromptMsg:
		m.canContinue = true
		return m, nil

	case captureDoneMsg:
		m.scene = sceneFinal
		m.captureMsg = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.scene == sceneCapture {
		var cmd tea.Cmd
		m.email, cmd = m.email.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleSession(msg sessionMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		var apiErr *APIError
		if errors.As(msg.err, &apiErr) && apiErr.Status == http.StatusNotFound {
			// Sessions expire on the server; a new run needs a new one.
			m.session = nil
			m.scene = sceneTitle
			m.timeline.Cancel()
			cmd := m.flash("Session expired. Press Enter to start again.")
			return m, cmd
		}
		m.err = msg.err
		return m, nil
	}
	m.err = nil
	m.session = msg.resp.Session

	switch msg.action {
	case "create":
		m.scene = sceneTitle
		return m, nil

	case "create-start":
		cmd := m.startSession()
		return m, cmd

	case "start":
		m.resetRun()
		m.scene = sceneIntro
		cmd := m.playLines(introScript)
		return m, cmd

	case "continue":
		return m.enterPhase()

	case "move":
		if msg.resp.Encounter && msg.resp.Quiz != nil {
			m.quiz = msg.resp.Quiz
			m.banner = "!"
			cmd := m.timeline.Start(Step{After: encounterDelay, Msg: showQuizMsg{}})
			return m, cmd
		}
		if m.session.Phase == state.PhaseVictory {
			return m.enterPhase()
		}
		return m, nil

	case "answer":
		if msg.resp.Correct != nil && *msg.resp.Correct {
			m.transformation = msg.resp.Transformation
			m.banner = "CORRECT! +1 garlic"
			cmd := m.timeline.Start(Step{After: correctDelay, Msg: showTransformMsg{}})
			return m, cmd
		}
		m.wrongFeedback = msg.resp.WrongFeedback
		if m.wrongFeedback == "" {
			m.wrongFeedback = defaultWrongFeedback
		}
		m.encouragement = msg.resp.Encouragement
		m.banner = "WRONG!"
		cmd := m.timeline.Start(Step{After: wrongDelay, Msg: showGameOverMsg{}})
		return m, cmd
	}
	return m, nil
}

// enterPhase switches to the scene for the session's current phase.
func (m Model) enterPhase() (tea.Model, tea.Cmd) {
	m.timeline.Cancel()
	m.banner = ""
	m.canContinue = false
	switch m.session.Phase {
	case state.PhaseWalking:
		m.scene = sceneWalking
		m.quiz = nil
		m.transformation = nil
	case state.PhaseVictory:
		m.scene = sceneVictory
		cmd := m.playLines(victoryScript)
		return m, cmd
	case state.PhaseCapture:
		m.scene = sceneCapture
		m.captureMsg = ""
		m.email.Reset()
		cmd := m.email.Focus()
		return m, cmd
	case state.PhaseGameOver:
		m.scene = sceneGameOver
	}
	return m, nil
}

func (m *Model) resetRun() {
	m.timeline.Cancel()
	m.quiz = nil
	m.transformation = nil
	m.banner = ""
	m.revealed = false
	m.canContinue = false
	m.wrongFeedback = ""
	m.encouragement = ""
	m.captureMsg = ""
	m.sending = false
	m.email.Reset()
	m.email.Blur()
}

func (m *Model) playLines(lines []Line) tea.Cmd {
	m.lines = lines
	m.lineIdx = 0
	m.linesDone = false
	return m.typewriter.Reset(lines[0].Text)
}

// advanceDialogue skips the current line's typing, or moves to the next
// line, or finishes the script.
func (m *Model) advanceDialogue() tea.Cmd {
	if !m.typewriter.Done() {
		m.typewriter.Skip()
		return nil
	}
	if m.lineIdx+1 < len(m.lines) {
		m.lineIdx++
		return m.typewriter.Reset(m.lines[m.lineIdx].Text)
	}
	if m.linesDone {
		return nil
	}
	m.linesDone = true
	switch m.scene {
	case sceneIntro:
		m.banner = "The Journey Begins..."
		return m.timeline.Start(Step{After: journeyDelay, Msg: journeyBegunMsg{}})
	case sceneVictory:
		return m.timeline.Start(Step{After: victoryPromptDelay, Msg: victoryPromptMsg{}})
	}
	return nil
}

func (m *Model) startSession() tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	if m.session == nil {
		client := m.client
		return m.call("create-start", func(ctx context.Context) (*handlers.SessionResponse, error) {
			return client.CreateSession(ctx)
		})
	}
	client, id := m.client, m.session.ID
	return m.call("start", func(ctx context.Context) (*handlers.SessionResponse, error) {
		return client.Start(ctx, id)
	})
}

func (m *Model) continueSession() tea.Cmd {
	if m.busy || m.session == nil {
		return nil
	}
	m.busy = true
	client, id := m.client, m.session.ID
	return m.call("continue", func(ctx context.Context) (*handlers.SessionResponse, error) {
		return client.Continue(ctx, id)
	})
}

func (m *Model) move(dir overworld.Direction) tea.Cmd {
	if m.busy || m.session == nil || m.banner != "" {
		return nil
	}
	m.busy = true
	client, id := m.client, m.session.ID
	return m.call("move", func(ctx context.Context) (*handlers.SessionResponse, error) {
		return client.Move(ctx, id, string(dir))
	})
}

func (m *Model) answer(choice string) tea.Cmd {
	if m.busy || m.session == nil || m.banner != "" {
		return nil
	}
	m.busy = true
	client, id := m.client, m.session.ID
	return m.call("answer", func(ctx context.Context) (*handlers.SessionResponse, error) {
		return client.Answer(ctx, id, choice)
	})
}

func (m *Model) submitEmail() tea.Cmd {
	if m.sending {
		return nil
	}
	email := strings.TrimSpace(m.email.Value())
	if !handlers.IsPlausibleEmail(email) {
		m.captureMsg = "Enter valid email!"
		m.captureError = true
		return nil
	}
	m.sending = true
	m.captureMsg = "Sending..."
	m.captureError = false
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		return subscribeMsg{err: client.Subscribe(ctx, email)}
	}
}

// shareRun copies the share text, or shows it when no clipboard is reachable.
func (m *Model) shareRun(victory bool) tea.Cmd {
	garlics := 0
	if m.session != nil {
		garlics = m.session.Progress.GarlicsCollected
	}
	// Only a full set of garlics shares as a victory.
	victory = victory && garlics >= progress.TotalGarlics
	text := share.ClipboardText(garlics, victory)
	if m.clipboard != nil {
		if err := m.clipboard(text); err == nil {
			return m.flash("Copied to clipboard!")
		}
	}
	return m.flash(share.Text(garlics, victory))
}

// flash shows a notice that clears itself unless replaced first.
func (m *Model) flash(text string) tea.Cmd {
	m.notice = text
	m.noticeGen++
	gen := m.noticeGen
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return clearNoticeMsg{gen: gen}
	})
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.showQuitModal = true
		return m, nil
	}
	key := msg.String()
	confirm := key == "enter" || key == " "

	switch m.scene {
	case sceneTitle:
		if confirm {
			cmd := m.startSession()
			return m, cmd
		}
		if key == "q" {
			m.showQuitModal = true
		}

	case sceneIntro, sceneVictory:
		if m.scene == sceneVictory && m.canContinue && confirm {
			cmd := m.continueSession()
			return m, cmd
		}
		if confirm {
			cmd := m.advanceDialogue()
			return m, cmd
		}

	case sceneWalking:
		if key == "q" {
			m.showQuitModal = true
			return m, nil
		}
		if dir, err := overworld.ParseDirection(key); err == nil {
			cmd := m.move(dir)
			return m, cmd
		}

	case sceneQuiz:
		if m.quiz == nil {
			return m, nil
		}
		if n, err := strconv.Atoi(key); err == nil {
			if n >= 1 && n <= len(m.quiz.Choices) {
				cmd := m.answer(m.quiz.Choices[n-1].ID)
				return m, cmd
			}
			return m, nil
		}
		for _, c := range m.quiz.Choices {
			if strings.EqualFold(c.ID, key) {
				cmd := m.answer(c.ID)
				return m, cmd
			}
		}

	case sceneTransform:
		if !confirm {
			break
		}
		if m.canContinue {
			cmd := m.continueSession()
			return m, cmd
		}
		// Skip the reveal.
		steps := m.timeline.Flush()
		var next tea.Model = m
		var cmds []tea.Cmd
		for _, step := range steps {
			var cmd tea.Cmd
			next, cmd = next.(Model).Update(step)
			cmds = append(cmds, cmd)
		}
		return next, tea.Batch(cmds...)

	case sceneGameOver:
		switch key {
		case "enter", "r":
			cmd := m.startSession()
			return m, cmd
		case "s":
			cmd := m.shareRun(false)
			return m, cmd
		case "q":
			m.showQuitModal = true
		}

	case sceneCapture:
		switch msg.Type {
		case tea.KeyEnter:
			cmd := m.submitEmail()
			return m, cmd
		case tea.KeyEsc:
			// Skip the sign-up.
			m.timeline.Cancel()
			m.email.Blur()
			m.scene = sceneFinal
			return m, nil
		}
		if m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.email, cmd = m.email.Update(msg)
		return m, cmd

	case sceneFinal:
		switch key {
		case "s":
			cmd := m.shareRun(true)
			return m, cmd
		case "enter", "r":
			cmd := m.startSession()
			return m, cmd
		case "q":
			m.showQuitModal = true
		}
	}
	return m, nil
}

func (m Model) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, tea.Quit
		case tea.KeyEsc:
			m.showQuitModal = false
			return m, nil
		}
		switch msg.String() {
		case "y", "Y":
			return m, tea.Quit
		case "n", "N":
			m.showQuitModal = false
		}

	default:
		// Keep timers and API results flowing behind the modal.
		m.showQuitModal = false
		next, cmd := m.Update(msg)
		nm := next.(Model)
		nm.showQuitModal = true
		return nm, cmd
	}

	return m, nil
}
