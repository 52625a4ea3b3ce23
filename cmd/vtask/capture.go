package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/voicetask/internal/capture"
	"github.com/fyrsmithlabs/voicetask/internal/task"
	"github.com/fyrsmithlabs/voicetask/internal/tui"
)

func newCaptureCmd(opts *globalOptions) *cobra.Command {
	var (
		stdin       bool
		maxDuration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture a task by voice or keyboard",
		Long: `Open the interactive capture screen, or with --stdin treat each line of
standard input as a recognized speech segment. A blank line or EOF ends the
capture and the transcript is submitted as a voice task.

Examples:
  vtask capture
  some-dictation-tool | vtask capture --stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.output); err != nil {
				return err
			}
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			if !stdin {
				return tui.Run(cmd.Context(), tui.NewModel(c, tui.Options{MaxDuration: maxDuration}))
			}

			transcript, err := captureLines(cmd.Context(), cmd, maxDuration)
			if err != nil {
				return err
			}
			resp, err := c.Submit(cmd.Context(), transcript, task.SourceVoice)
			if err != nil {
				return err
			}
			return writeResponse(cmd.OutOrStdout(), opts.output, resp)
		},
	}
	cmd.Flags().BoolVar(&stdin, "stdin", false, "read speech segments from standard input")
	cmd.Flags().DurationVar(&maxDuration, "max-duration", capture.DefaultMaxDuration, "stop listening after this long")
	return cmd
}

// captureLines runs one listening session over stdin and returns the
// finalized transcript.
func captureLines(ctx context.Context, cmd *cobra.Command, maxDuration time.Duration) (string, error) {
	ended := make(chan capture.Transition, 1)
	session := capture.NewSession(capture.NewDevice(capture.NewLineRecognizer(cmd.InOrStdin())), capture.Options{
		MaxDuration: maxDuration,
		OnStateChange: func(t capture.Transition) {
			if t.State == capture.StateIdle {
				select {
				case ended <- t:
				default:
				}
			}
		},
	})
	defer session.Close()

	if err := session.Start(ctx); err != nil {
		return "", err
	}

	var t capture.Transition
	select {
	case t = <-ended:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if t.Error != "" && t.Error != capture.CodeNoSpeech {
		return "", fmt.Errorf("capture failed: %s", t.Error)
	}
	if t.Transcript == "" {
		return "", fmt.Errorf("capture ended without speech")
	}
	return t.Transcript, nil
}
