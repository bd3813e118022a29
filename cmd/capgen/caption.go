package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jmallet/capgen/internal/workflow"
)

func captionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caption <image|pattern>...",
		Short: "Generate captions for one or more images",
		Long: `Generate captions for images. Arguments may be paths or glob
patterns (e.g. "photos/**/*.png"). Each image goes through the full
workflow: type validation, guest quota check, generation, and for
logged-in users a refresh of the recent-caption list.`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			paths, err := expandPatterns(args)
			if err != nil {
				exitOnError(err)
			}
			if len(paths) == 0 {
				exitOnError(errors.New("no files match the given patterns"))
			}

			runCaptions(paths)
		},
	}
	return cmd
}

// runCaptions pushes each file through the generation workflow.
func runCaptions(paths []string) {
	history := workflow.NewRecentHistory(client, openCache())
	orch := workflow.NewOrchestrator(client, &workflow.GuestQuotaGuard{}, history)

	failures := 0
	anySuccess := false

	for _, path := range paths {
		draft, err := workflow.Validate(path)
		if err != nil {
			color.Yellow("%s: %v", path, err)
			failures++
			continue
		}

		outcome, err := orch.Generate(context.Background(), current, draft)
		if err != nil {
			// ErrBusy cannot happen here, submissions are sequential.
			exitOnError(err)
		}

		printOutcome(path, outcome)
		switch outcome.Kind {
		case workflow.OutcomeSuccess:
			anySuccess = true
		case workflow.OutcomeQuotaExceeded:
			// Terminal for this session; stop burning attempts.
			failures += len(paths) - indexOf(paths, path)
			history.Wait()
			os.Exit(1)
		default:
			failures++
		}
	}

	// Let the fire-and-forget refreshes land before reading the list.
	history.Wait()

	if anySuccess && current.Authenticated() {
		items := history.Items()
		if len(items) > 0 {
			fmt.Println()
			color.New(color.Bold).Println("Recent captions:")
			for i, item := range items {
				fmt.Printf("  %d. %s\n", i+1, truncateStr(item.CaptionText, 70))
			}
		}
	}

	if failures > 0 {
		os.Exit(1)
	}
}

// printOutcome renders one classified outcome. Warnings and generic
// errors share the same visual slot, with errors prefixed so they read
// as failures; quota exhaustion is a hard stop with a login hint.
func printOutcome(path string, outcome workflow.Outcome) {
	switch outcome.Kind {
	case workflow.OutcomeSuccess:
		color.Green("%s: %q", path, outcome.Caption)
	case workflow.OutcomeWarning:
		color.Yellow("%s: ⚠ %s", path, outcome.Message)
	case workflow.OutcomeQuotaExceeded:
		color.Red("%s: Guest limit reached.", path)
		color.Red("%s", outcome.Message)
		fmt.Println("Run 'capgen login' and try again.")
	default:
		color.Yellow("%s: Warning: %s", path, outcome.Message)
	}
}

// expandPatterns resolves glob patterns to file paths; non-pattern
// arguments pass through untouched so missing files still get a
// per-file rejection.
func expandPatterns(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			paths = append(paths, arg)
			continue
		}

		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

func indexOf(paths []string, path string) int {
	for i, p := range paths {
		if p == path {
			return i
		}
	}
	return len(paths)
}
