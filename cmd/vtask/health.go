package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/voicetask/internal/client"
	"github.com/fyrsmithlabs/voicetask/internal/config"
)

func newHealthCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check voicetaskd health",
		Long: `Check the health status of the voicetaskd HTTP server.

Examples:
  vtask health
  vtask health --server http://localhost:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.output); err != nil {
				return err
			}
			c, err := client.New(opts.server, config.Secret(opts.token))
			if err != nil {
				return err
			}
			health, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			if opts.output != formatText {
				return writeStructured(cmd.OutOrStdout(), opts.output, health)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Server Status: %s\n", health.Status)
			if health.Version != "" {
				fmt.Fprintf(w, "Version:       %s\n", health.Version)
			}
			if tel := health.Telemetry; tel != nil {
				fmt.Fprintf(w, "Telemetry:     healthy=%t degraded=%t\n", tel.Healthy, tel.Degraded)
				for _, reason := range tel.Reasons {
					fmt.Fprintf(w, "  - %s\n", reason)
				}
			}
			return nil
		},
	}
}
