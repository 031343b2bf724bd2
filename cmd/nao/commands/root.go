// Package commands implements the nao CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nao",
		Short: "Scripted conversations on a NAO robot",
		Long: `nao drives a NAO robot through scripted conversations.

Intents come from a Dialogflow CX agent, a dialogue service or the
console. Each intent is routed through the active script to speech,
motion, LED and audio actions on the robot's NAOqi bridge.

Configuration is read from nao.yaml (or --config), .env and NAO_*
environment variables.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./nao.yaml if present)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(
		NewRunCmd(),
		NewLEDsCmd(),
		NewRoutesCmd(),
		NewSessionsCmd(),
		NewStatusCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}
