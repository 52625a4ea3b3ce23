// Package main implements vtask, the command-line front end for voicetask.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/voicetask/internal/config"
)

// version is set via ldflags during build.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	server     string
	token      string
	configPath string
	output     string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "vtask",
		Short: "Turn free-form task descriptions into structured tasks",
		Long: `vtask analyzes, submits and captures task descriptions.

Typed or dictated text such as "remind me to call John tomorrow at 2pm"
becomes a task with a title, priority, category, due date and contact.`,
		Version:       version,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.server, "server", "http://localhost:9090", "voicetaskd server URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("VOICETASK_TOKEN"), "bearer token (default $VOICETASK_TOKEN)")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/voicetask/config.yaml)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", formatText, "output format: text, json or yaml")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newSubmitCmd(opts),
		newCaptureCmd(opts),
		newHealthCmd(opts),
		newMCPCmd(opts),
	)
	return root
}

func (o *globalOptions) loadConfig() (*config.Config, error) {
	return config.LoadWithFile(o.configPath)
}
