package console

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Step is one delayed message in a Timeline, fired After the timeline starts.
type Step struct {
	After time.Duration
	Msg   tea.Msg
}

// timelineMsg wraps a step's message with the generation that scheduled it.
type timelineMsg struct {
	gen uint64
	idx int
	msg tea.Msg
}

// Timeline schedules delayed messages for a scene. Starting or cancelling a
// timeline bumps its generation; steps from an older generation are dropped
// when they arrive, so leaving a scene early never fires its leftovers.
type Timeline struct {
	gen   uint64
	steps []Step
	fired []bool
}

// Start cancels anything pending and schedules steps.
func (t *Timeline) Start(steps ...Step) tea.Cmd {
	t.gen++
	t.steps = steps
	t.fired = make([]bool, len(steps))
	gen := t.gen
	cmds := make([]tea.Cmd, 0, len(steps))
	for i, s := range steps {
		msg := timelineMsg{gen: gen, idx: i, msg: s.Msg}
		cmds = append(cmds, tea.Tick(s.After, func(time.Time) tea.Msg {
			return msg
		}))
	}
	if len(cmds) == 1 {
		return cmds[0]
	}
	return tea.Batch(cmds...)
}

// Cancel drops every pending step.
func (t *Timeline) Cancel() {
	t.gen++
	t.steps = nil
	t.fired = nil
}

// Accept unwraps a step message. It returns false for stale or repeated steps.
func (t *Timeline) Accept(m timelineMsg) (tea.Msg, bool) {
	if m.gen != t.gen || m.idx < 0 || m.idx >= len(t.steps) || t.fired[m.idx] {
		return nil, false
	}
	t.fired[m.idx] = true
	return m.msg, true
}

// Pending returns the steps that have not fired yet, in schedule order.
func (t *Timeline) Pending() []Step {
	var out []Step
	for i, s := range t.steps {
		if !t.fired[i] {
			out = append(out, s)
		}
	}
	return out
}

// Flush cancels the timeline and returns the messages of its unfired steps so
// the caller can apply them at once.
func (t *Timeline) Flush() []tea.Msg {
	pending := t.Pending()
	t.Cancel()
	msgs := make([]tea.Msg, 0, len(pending))
	for _, s := range pending {
		msgs = append(msgs, s.Msg)
	}
	return msgs
}
