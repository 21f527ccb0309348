// Package share builds the text players share after a run.
package share

import (
	"fmt"

	"github.com/jwebster45206/garlic-tiger/pkg/progress"
)

const (
	GameURL = "https://localnomad.club"
	Title   = "Garlic Tiger | LocalNomad"
)

// Text is the share message for a run that ended with garlics collected.
func Text(garlics int, victory bool) string {
	if victory {
		return fmt.Sprintf("🐯➡️🧑 I became Korean in Garlic Tiger! Collected all %d garlics! Can you do it? 🧄", progress.TotalGarlics)
	}
	return fmt.Sprintf("🐯 I collected %d/%d garlics on my journey to become Korean! Can you beat me? 🧄", garlics, progress.TotalGarlics)
}

// ClipboardText is Text with the game link appended.
func ClipboardText(garlics int, victory bool) string {
	return fmt.Sprintf("%s\n\nPlay now: %s", Text(garlics, victory), GameURL)
}

// Encouragement is shown on the game-over screen. It is empty once the quest is complete.
func Encouragement(garlics int) string {
	switch {
	case garlics <= 0:
		return "The journey of 1000 miles begins with a single step!"
	case garlics < 3:
		return "Good start! You're learning Korean culture!"
	case garlics < progress.TotalGarlics:
		return "So close! Almost became Korean!"
	default:
		return ""
	}
}
