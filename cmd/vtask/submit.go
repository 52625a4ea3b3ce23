package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/voicetask/internal/client"
	"github.com/fyrsmithlabs/voicetask/internal/config"
	"github.com/fyrsmithlabs/voicetask/internal/sanitize"
	"github.com/fyrsmithlabs/voicetask/internal/task"
)

func newSubmitCmd(opts *globalOptions) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "submit [text...]",
		Short: "Submit a task description to voicetaskd",
		Long: `Validate a task description locally and send it to the server's
process-input endpoint. The created task is printed.

Examples:
  vtask submit "Call John tomorrow at 2pm"
  vtask submit --server http://tasks.internal:9090 -o json "Pay rent by Friday"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.output); err != nil {
				return err
			}
			src := task.Source(source)
			if !src.Valid() {
				return fmt.Errorf("unknown source %q (want voice or typed)", source)
			}
			text, err := inputText(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			c, err := opts.newClient()
			if err != nil {
				return err
			}
			resp, err := c.Submit(cmd.Context(), text, src)
			if err != nil {
				return err
			}
			return writeResponse(cmd.OutOrStdout(), opts.output, resp)
		},
	}
	cmd.Flags().StringVar(&source, "source", string(task.SourceTyped), "input source: voice or typed")
	return cmd
}

// newClient builds a client using the configured validation bounds and
// throttle window. A missing or unreadable config falls back to defaults.
func (o *globalOptions) newClient() (*client.Client, error) {
	if o.token == "" {
		return nil, errors.New("a bearer token is required (--token or $VOICETASK_TOKEN)")
	}
	cfg, err := o.loadConfig()
	if err != nil {
		if o.configPath != "" {
			return nil, err
		}
		cfg = config.Default()
	}
	return client.New(o.server, config.Secret(o.token),
		client.WithRules(sanitize.InputRules{
			MinLength: cfg.Validation.MinLength,
			MaxLength: cfg.Validation.MaxLength,
		}),
		client.WithWindow(cfg.Throttle.Window),
	)
}
