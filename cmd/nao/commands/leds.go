package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-nao/internal/log"
	"github.com/teslashibe/go-nao/pkg/action"
	"github.com/teslashibe/go-nao/pkg/intent"
	"github.com/teslashibe/go-nao/pkg/router"
)

// NewLEDsCmd creates the leds command.
func NewLEDsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leds",
		Short: "Run the eye LED demonstration",
		Long: `Run the eye LED demonstration on the robot.

The robot stands, switches its face LEDs on, steps forward, fades the
right eye to red and the left eye to blue, announcing each step, then
rests and resets the LEDs. No dialogue backend is needed.`,
		Args: cobra.NoArgs,
		RunE: runLEDs,
	}
}

func runLEDs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := log.With("command", "leds")

	robot, err := newRobot(cfg, logger)
	if err != nil {
		return err
	}
	defer robot.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return playOpening(ctx, router.LEDs(), action.PortsFor(robot), cmd.OutOrStdout(), logger)
}

// playOpening executes a script's opening sequence and prints one line per
// action. It stops at the first fatal failure.
func playOpening(ctx context.Context, script *router.Script, ports action.Ports, w io.Writer, logger *slog.Logger) error {
	actions := script.Router().Resolve(script.Opening, intent.Event{})
	exec := action.NewExecutor(ports, action.WithLogger(logger))

	outcomes, err := exec.ExecuteAll(ctx, actions)
	for i, out := range outcomes {
		fmt.Fprintf(w, "%-6s %s\n", out.Status, actions[i])
	}
	if err != nil {
		return fmt.Errorf("%s: %w", script.Name, err)
	}
	return nil
}
