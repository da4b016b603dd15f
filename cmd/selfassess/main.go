// cmd/selfassess/main.go
//
// Entry point for the selfassess CLI. Running `selfassess` in a directory
// opens (or creates) .selfassess/ there and starts the full screen wizard.
//
// Subcommands:
//   prompt   same questionnaire as line-by-line prompts
//   status   progress and the active step list
//   reset    discard saved answers
//   policy   switch the progress policy in config.yaml

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kingrea/selfassess/internal/answers"
	"github.com/kingrea/selfassess/internal/config"
	"github.com/kingrea/selfassess/internal/prompt"
	"github.com/kingrea/selfassess/internal/session"
	"github.com/kingrea/selfassess/internal/tui"
)

func main() {
	// A missing .env is normal; anything in it only feeds the env overrides.
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var projectDir string

	root := &cobra.Command{
		Use:           "selfassess",
		Short:         "Prepare a UK self assessment return step by step",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := session.Open(projectDir)
			if err != nil {
				return err
			}
			defer s.Close()
			app, err := tui.NewApp(s.Controller, s.Logbook)
			if err != nil {
				return err
			}
			// Use alternate screen buffer (like vim does)
			p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithOutput(out))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run tui: %w", err)
			}
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&projectDir, "project", "C", ".", "directory holding .selfassess/")

	root.AddCommand(
		&cobra.Command{
			Use:   "prompt",
			Short: "Answer the questionnaire with line-by-line prompts",
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := session.Open(projectDir)
				if err != nil {
					return err
				}
				defer s.Close()
				runner, err := prompt.NewRunner(s.Controller, prompt.NewSurveyDriver())
				if err != nil {
					return err
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
				defer stop()
				err = runner.Run(ctx)
				if errors.Is(err, prompt.ErrAborted) || errors.Is(err, context.Canceled) {
					fmt.Fprintln(cmd.OutOrStdout(), "Stopped. Your answers are saved.")
					return nil
				}
				return err
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show progress and the active steps",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := session.Open(projectDir)
				if err != nil {
					return err
				}
				defer s.Close()
				return printStatus(cmd.OutOrStdout(), s)
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Discard saved answers and start over",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := session.Open(projectDir)
				if err != nil {
					return err
				}
				defer s.Close()
				s.Controller.Restart()
				fmt.Fprintf(cmd.OutOrStdout(), "Answers cleared. New session %s\n", s.Store.SessionID())
				return nil
			},
		},
		&cobra.Command{
			Use:       "policy <fixed|active>",
			Short:     "Choose how the completion percentage is calculated",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{config.PolicyFixed, config.PolicyActive},
			RunE: func(cmd *cobra.Command, args []string) error {
				policy, err := answers.ParseProgressPolicy(args[0])
				if err != nil {
					return err
				}
				if err := config.InitDir(projectDir); err != nil {
					return err
				}
				cfg, err := config.NewConfig(projectDir)
				if err != nil {
					return err
				}
				if err := cfg.SetProgressPolicy(string(policy)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Progress policy set to %s\n", policy)
				return nil
			},
		},
	)
	return root
}

func printStatus(out io.Writer, s *session.Session) error {
	ctrl := s.Controller
	snap := ctrl.Snapshot()
	policy := ctrl.Policy()
	if _, err := fmt.Fprintf(out, "Session %s\nProgress %d%% (%s)\n\n", s.Store.SessionID(), ctrl.Progress(), policy.Progress); err != nil {
		return err
	}
	for i, def := range ctrl.Steps() {
		mark := " "
		if snap.Completed[def.ID] {
			mark = "✓"
		}
		pointer := " "
		if i == ctrl.Position() {
			pointer = "▸"
		}
		if _, err := fmt.Fprintf(out, "%s %s %2d. %s\n", pointer, mark, i+1, def.Title); err != nil {
			return err
		}
	}
	return nil
}
