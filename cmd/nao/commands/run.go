package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-nao/internal/log"
	"github.com/teslashibe/go-nao/pkg/action"
	"github.com/teslashibe/go-nao/pkg/intent"
	"github.com/teslashibe/go-nao/pkg/session"
)

var (
	runBackend    string
	runScript     string
	runScriptFile string
	runDashboard  string
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a conversation session",
		Long: `Run one conversation session on the robot.

The session starts in scene 0, executes the script's opening sequence and
then takes turns until the end intent is recognized, the dialogue backend
goes away or the process is interrupted. The robot is put to rest on the
way out.

Examples:
  nao run
  nao run --script tired
  nao run --backend console
  nao run --script-file scripts/museum.yaml --dashboard :8080`,
		RunE: runSession,
	}

	cmd.Flags().StringVarP(&runBackend, "backend", "b", "", "dialogue backend: dialogflow, service, console")
	cmd.Flags().StringVarP(&runScript, "script", "s", "", "built-in script name")
	cmd.Flags().StringVar(&runScriptFile, "script-file", "", "YAML script file")
	cmd.Flags().StringVar(&runDashboard, "dashboard", "", "dashboard listen address, e.g. :8080")

	return cmd
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runBackend != "" {
		cfg.Dialogue.Backend = runBackend
	}
	if runScript != "" {
		cfg.Script.Name = runScript
		cfg.Script.Path = ""
	}
	if runScriptFile != "" {
		cfg.Script.Path = runScriptFile
	}
	if runDashboard != "" {
		cfg.Telemetry.Addr = runDashboard
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.With("command", "run")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	script, err := loadScript(cfg.Script.Name, cfg.Script.Path)
	if err != nil {
		return err
	}
	rt, err := newRouter(cfg, script)
	if err != nil {
		return err
	}

	robot, err := newRobot(cfg, logger)
	if err != nil {
		return err
	}
	if st, err := robot.Status(ctx); err != nil {
		log.Warn("robot status unavailable", "error", err)
	} else {
		log.Info("robot ready", "posture", st.Posture, "battery", st.Battery)
	}

	backend, err := newBackend(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
	if err != nil {
		robot.Close()
		return fmt.Errorf("dialogue backend: %w", err)
	}

	src, _ := backend.(intent.TranscriptSource)
	obs := newObservability(cfg, script, src, logger)
	defer obs.Close()
	obs.start(ctx)

	sess, err := session.New(backend, action.PortsFor(robot),
		session.WithLogger(logger),
		session.WithClosers(robot),
	)
	if err != nil {
		backend.Close()
		robot.Close()
		return err
	}

	log.Info("starting session",
		"session_id", sess.ID(),
		"script", script.Name,
		"backend", cfg.Dialogue.Backend,
		"robot", robot.String())

	loop := session.NewLoop(sess, rt, action.NewExecutor(sess.Ports(), action.WithLogger(logger)),
		session.WithLoopLogger(logger),
		session.WithObserver(obs.recorder),
		session.WithOpening(script.Opening...),
	)

	err = loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info("session interrupted")
		return nil
	}
	return err
}
