package console

import "time"

// Line is one line of cutscene dialogue.
type Line struct {
	Speaker string
	Text    string
}

var introScript = []Line{
	{Speaker: "Guard", Text: "Halt! This is the K-Digital Fortress."},
	{Speaker: "Guard", Text: "Outsiders cannot enter. Only Koreans may pass!"},
	{Speaker: "Tiger", Text: "But I want to become Korean..."},
	{Speaker: "Guard", Text: "Then you must eat garlic. Bring us 5 garlics from the land of Korea."},
	{Speaker: "Guard", Text: "Only then will you transform and be worthy to enter..."},
}

var victoryScript = []Line{
	{Speaker: "Guard", Text: "Ohh... I sense the spirit of Korea within you!"},
	{Speaker: "Guard", Text: "Welcome, new Korean. You may enter the fortress."},
}

// stageCaptions describe the tiger at each transformation stage.
var stageCaptions = []string{"Tiger", "No fur...", "So long...", "Seuree...", "Dark hair...", "Korean!"}

func stageCaption(stage int) string {
	if stage < 0 {
		stage = 0
	}
	if stage >= len(stageCaptions) {
		stage = len(stageCaptions) - 1
	}
	return stageCaptions[stage]
}

const defaultWrongFeedback = "You chose poorly..."

// Scene timings.
const (
	journeyDelay       = 1500 * time.Millisecond
	encounterDelay     = 600 * time.Millisecond
	correctDelay       = 1300 * time.Millisecond
	wrongDelay         = 1500 * time.Millisecond
	revealDelay        = 2000 * time.Millisecond
	transformHoldDelay = 3000 * time.Millisecond
	victoryPromptDelay = 1500 * time.Millisecond
	captureDoneDelay   = 1500 * time.Millisecond
	noticeDuration     = 2000 * time.Millisecond
)
