package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-nao/internal/log"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the robot bridge status",
		Long:  `Query the NAOqi bridge for its state, the current posture and the battery level.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			robot, err := newRobot(cfg, log.With("command", "status"))
			if err != nil {
				return err
			}
			defer robot.Close()

			st, err := robot.Status(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Bridge:  %s (%s)\n", robot, st.State)
			fmt.Fprintf(out, "Posture: %s\n", st.Posture)
			fmt.Fprintf(out, "Battery: %d%%\n", st.Battery)
			return nil
		},
	}
}
