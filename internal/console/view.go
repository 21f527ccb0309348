package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/garlic-tiger/pkg/overworld"
	"github.com/jwebster45206/garlic-tiger/pkg/progress"
	"github.com/muesli/reflow/wordwrap"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	textStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	garlicStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")). // cream
			Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	groundStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // yellow
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))
)

// tigerColors darken the tiger as it transforms.
var tigerColors = []lipgloss.Color{"214", "223", "180", "137", "94", "255"}

const textWidth = 56

func (m Model) View() string {
	var body string
	switch {
	case m.showQuitModal:
		body = m.renderQuitModal()
	case m.scene == sceneLoading:
		body = promptStyle.Render("Connecting...")
	case m.scene == sceneTitle:
		body = m.renderTitle()
	case m.scene == sceneIntro, m.scene == sceneVictory:
		body = m.renderDialogue()
	case m.scene == sceneWalking:
		body = m.renderOverworld()
	case m.scene == sceneQuiz:
		body = m.renderQuiz()
	case m.scene == sceneTransform:
		body = m.renderTransform()
	case m.scene == sceneGameOver:
		body = m.renderGameOver()
	case m.scene == sceneCapture:
		body = m.renderCapture()
	case m.scene == sceneFinal:
		body = m.renderFinal()
	}

	var footer []string
	if m.notice != "" {
		footer = append(footer, successStyle.Render(wordwrap.String(m.notice, textWidth)))
	}
	if m.err != nil {
		footer = append(footer, errorStyle.Render(wordwrap.String("Error: "+m.err.Error(), textWidth)))
	}
	if len(footer) > 0 {
		body = lipgloss.JoinVertical(lipgloss.Center, body, "", strings.Join(footer, "\n"))
	}

	if m.width == 0 || m.height == 0 {
		return body
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body, lipgloss.WithWhitespaceChars(" "))
}

func (m Model) garlicCounter() string {
	garlics := 0
	if m.session != nil {
		garlics = m.session.Progress.GarlicsCollected
	}
	return garlicStyle.Render(fmt.Sprintf("Garlic %d/%d", garlics, progress.TotalGarlics))
}

func (m Model) stage() int {
	if m.session == nil {
		return 0
	}
	return m.session.Progress.TransformationStage
}

func tiger(stage int) string {
	if stage < 0 {
		stage = 0
	}
	if stage >= len(tigerColors) {
		stage = len(tigerColors) - 1
	}
	return lipgloss.NewStyle().Foreground(tigerColors[stage]).Bold(true).Render("@")
}

func (m Model) renderTitle() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("GARLIC TIGER") + "\n\n")
	b.WriteString(textStyle.Render("Eat 5 garlics") + "\n")
	b.WriteString(textStyle.Render("to become Korean!") + "\n\n")
	b.WriteString(bannerStyle.Render("PRESS START") + "\n")
	b.WriteString(promptStyle.Render("Enter to begin, q to quit") + "\n\n")
	b.WriteString(promptStyle.Render("2024 LOCALNOMAD"))
	return lipgloss.NewStyle().Align(lipgloss.Center).Render(b.String())
}

func (m Model) renderDialogue() string {
	header := titleStyle.Render("K-DIGITAL FORTRESS")
	if m.scene == sceneVictory {
		header = titleStyle.Render("VICTORY!")
	}

	if m.banner != "" {
		return lipgloss.JoinVertical(lipgloss.Center, header, "", bannerStyle.Render(m.banner))
	}

	var b strings.Builder
	if m.lineIdx < len(m.lines) {
		line := m.lines[m.lineIdx]
		b.WriteString(speakerStyle.Render(line.Speaker+":") + "\n")
		b.WriteString(textStyle.Render(wordwrap.String(m.typewriter.View(), textWidth-6)))
	}
	box := boxStyle.Width(textWidth).Render(b.String())

	hint := "Enter to continue"
	if m.scene == sceneVictory && m.canContinue {
		hint = "Tap to enter the fortress..."
	}
	return lipgloss.JoinVertical(lipgloss.Center, header, m.garlicCounter(), "", box, promptStyle.Render(hint))
}

func (m Model) renderOverworld() string {
	pos := overworld.Position{X: -1, Y: -1}
	if m.session != nil {
		pos = m.session.Position
	}

	var b strings.Builder
	for y := 0; y < m.grid.Rows; y++ {
		for x := 0; x < m.grid.Cols; x++ {
			if x == pos.X && y == pos.Y {
				b.WriteString(tiger(m.stage()))
			} else {
				b.WriteString(groundStyle.Render("·"))
			}
			if x < m.grid.Cols-1 {
				b.WriteString(" ")
			}
		}
		if y < m.grid.Rows-1 {
			b.WriteString("\n")
		}
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("Explore Korea!"), "   ", m.garlicCounter())
	status := promptStyle.Render(fmt.Sprintf("Tiger: %s   move: arrows / wasd / hjkl", stageCaption(m.stage())))
	if m.banner != "" {
		status = bannerStyle.Render(m.banner + " Someone approaches...")
	}
	return lipgloss.JoinVertical(lipgloss.Center, header, "", b.String(), "", status)
}

func (m Model) renderQuiz() string {
	if m.quiz == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(speakerStyle.Render(m.quiz.NPCName+":") + "\n")
	b.WriteString(textStyle.Render(wordwrap.String(m.quiz.Dialogue, textWidth-6)) + "\n\n")
	for i, c := range m.quiz.Choices {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, wordwrap.String(c.Text, textWidth-9)))
	}
	box := boxStyle.Width(textWidth).Render(strings.TrimRight(b.String(), "\n"))

	status := promptStyle.Render(fmt.Sprintf("Press 1-%d to answer", len(m.quiz.Choices)))
	switch m.banner {
	case "":
	case "WRONG!":
		status = errorStyle.Render(m.banner)
	default:
		status = successStyle.Render(m.banner)
	}
	return lipgloss.JoinVertical(lipgloss.Center, m.garlicCounter(), "", box, status)
}

func (m Model) renderTransform() string {
	if m.transformation == nil {
		return ""
	}
	parts := []string{
		titleStyle.Render("TRANSFORMATION!"),
		"",
		tiger(m.stage()),
		"",
		bannerStyle.Render(m.transformation.Title),
	}
	if m.revealed {
		parts = append(parts, textStyle.Render(wordwrap.String(m.transformation.Description, textWidth)))
	}
	if m.canContinue {
		parts = append(parts, "", promptStyle.Render("Enter to continue"))
	}
	return lipgloss.JoinVertical(lipgloss.Center, parts...)
}

func (m Model) renderGameOver() string {
	garlics := 0
	if m.session != nil {
		garlics = m.session.Progress.GarlicsCollected
	}
	parts := []string{
		errorStyle.Render("GAME OVER"),
		"",
		textStyle.Render(wordwrap.String(m.wrongFeedback, textWidth)),
		"",
		garlicStyle.Render(fmt.Sprintf("You collected %d/%d garlics", garlics, progress.TotalGarlics)),
	}
	if stage := m.stage(); stage > 0 {
		parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top, tiger(stage), " ", promptStyle.Render(stageCaption(stage))))
	}
	if m.encouragement != "" {
		parts = append(parts, "", successStyle.Render(wordwrap.String(m.encouragement, textWidth)))
	}
	parts = append(parts, "", promptStyle.Render("r: TRY AGAIN   s: SHARE   q: quit"))
	return lipgloss.JoinVertical(lipgloss.Center, parts...)
}

func (m Model) renderCapture() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("SACRED SCROLL") + "\n")
	b.WriteString(promptStyle.Render("K-Digital Guide") + "\n\n")
	b.WriteString(textStyle.Render("Receive your scroll?") + "\n\n")
	b.WriteString(m.email.View() + "\n\n")
	if m.captureMsg != "" {
		style := successStyle
		if m.captureError {
			style = errorStyle
		}
		b.WriteString(style.Render(m.captureMsg) + "\n\n")
	}
	b.WriteString(promptStyle.Render("Enter: GET FREE ACCESS   Esc: SKIP") + "\n")
	b.WriteString(promptStyle.Render("No spam, ever. Unsubscribe anytime."))
	return boxStyle.Width(textWidth).Align(lipgloss.Center).Render(b.String())
}

func (m Model) renderFinal() string {
	return lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("CONGRATULATIONS!"),
		textStyle.Render("You are now Korean!"),
		"",
		tiger(progress.TotalGarlics),
		"",
		m.garlicCounter(),
		"",
		promptStyle.Render("s: SHARE VICTORY   r: PLAY AGAIN   q: quit"),
	)
}

func (m Model) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Your progress will be lost.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))
	return modalStyle.Width(44).Render(content.String())
}
