package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/garlic-tiger/pkg/progress"
	"github.com/jwebster45206/garlic-tiger/pkg/quiz"
	"github.com/spf13/cobra"
)

var validFilenameRegex = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var minQuizzes int

	cmd := &cobra.Command{
		Use:   "validate <pack> [pack...]",
		Short: "Validate quiz pack files",
		Long: `Checks quiz packs (.json, .yaml or .yml) before they are deployed.

Each pack must parse strictly, every quiz must have an NPC, dialogue, 2-3
uniquely named choices, a correct answer among them, wrong-answer feedback and
a transformation title, and the pack must hold enough quizzes to finish the quest.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				if err := validateFile(out, path, minQuizzes); err != nil {
					fmt.Fprintf(out, "FAIL %s\n%v\n", path, indent(err.Error()))
					failed++
					continue
				}
				fmt.Fprintf(out, "ok   %s\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d packs failed validation", failed, len(args))
			}
			return nil
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.Flags().IntVar(&minQuizzes, "min-quizzes", progress.TotalGarlics, "minimum number of quizzes a pack must contain")
	return cmd
}

func validateFile(out io.Writer, path string, minQuizzes int) error {
	baseName := filepath.Base(path)
	name := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	if !isValidPackFilename(name) {
		return fmt.Errorf("pack filename '%s' must be lowercase snake_case (e.g., my_pack.json, not my-pack.json or MyPack.json)", baseName)
	}

	p, err := quiz.LoadFile(path)
	if err != nil {
		return err
	}
	if err := p.Validate(minQuizzes); err != nil {
		return err
	}
	fmt.Fprintf(out, "     %s: %d quizzes\n", p.Name, p.Len())
	return nil
}

func isValidPackFilename(name string) bool {
	// Allow 'x.' prefix for experimental packs
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
