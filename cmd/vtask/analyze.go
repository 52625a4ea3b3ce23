package main

import (
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/voicetask/internal/app"
	"github.com/fyrsmithlabs/voicetask/internal/config"
	"github.com/fyrsmithlabs/voicetask/internal/logging"
	"github.com/fyrsmithlabs/voicetask/internal/service"
	"github.com/fyrsmithlabs/voicetask/internal/task"
)

func newAnalyzeCmd(opts *globalOptions) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "analyze [text...]",
		Short: "Analyze a task description locally",
		Long: `Run the extraction engine locally and print the task it would create.
Nothing is sent to a server or stored.

Examples:
  vtask analyze "Urgent: email the report to Dr. Patel by Friday"
  echo "buy milk tomorrow" | vtask analyze -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.output); err != nil {
				return err
			}
			text, err := inputText(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			cfg.Store.Driver = config.StoreMemory

			pipeline, err := app.Build(cmd.Context(), cfg, logging.NewNop(), nil)
			if err != nil {
				return err
			}
			defer pipeline.Close()

			v := pipeline.Processor.Rules().Validate(text)
			if !v.Valid {
				return &service.ValidationError{Errors: v.Errors, Warnings: v.Warnings}
			}

			res := pipeline.Processor.Analyze(cmd.Context(), text)
			resp := &service.Response{
				Task:     task.Assemble(text, res, task.AssembleOptions{Title: title}),
				Analysis: res,
				Warnings: v.Warnings,
			}
			return writeResponse(cmd.OutOrStdout(), opts.output, resp)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "use this title instead of deriving one")
	return cmd
}
