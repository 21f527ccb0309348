package console

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const TypewriterSpeed = 30 * time.Millisecond

type typewriterTickMsg struct {
	gen uint64
}

// Typewriter reveals a line one rune at a time.
type Typewriter struct {
	text  []rune
	shown int
	gen   uint64
}

// Reset loads a new line and returns the command that starts revealing it.
func (tw *Typewriter) Reset(text string) tea.Cmd {
	tw.text = []rune(text)
	tw.shown = 0
	tw.gen++
	return tw.tick()
}

func (tw *Typewriter) tick() tea.Cmd {
	gen := tw.gen
	return tea.Tick(TypewriterSpeed, func(time.Time) tea.Msg {
		return typewriterTickMsg{gen: gen}
	})
}

// Update advances one rune for a current tick and schedules the next.
func (tw *Typewriter) Update(msg typewriterTickMsg) tea.Cmd {
	if msg.gen != tw.gen || tw.Done() {
		return nil
	}
	tw.shown++
	if tw.Done() {
		return nil
	}
	return tw.tick()
}

// Skip reveals the whole line at once.
func (tw *Typewriter) Skip() {
	tw.shown = len(tw.text)
	tw.gen++
}

func (tw *Typewriter) Done() bool {
	return tw.shown >= len(tw.text)
}

func (tw *Typewriter) View() string {
	return string(tw.text[:tw.shown])
}
