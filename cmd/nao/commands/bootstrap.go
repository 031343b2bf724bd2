package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/teslashibe/go-nao/internal/config"
	"github.com/teslashibe/go-nao/internal/log"
	"github.com/teslashibe/go-nao/pkg/archive"
	"github.com/teslashibe/go-nao/pkg/dialogue"
	"github.com/teslashibe/go-nao/pkg/intent"
	"github.com/teslashibe/go-nao/pkg/naoqi"
	"github.com/teslashibe/go-nao/pkg/router"
	"github.com/teslashibe/go-nao/pkg/sound"
	"github.com/teslashibe/go-nao/pkg/telemetry"
	"github.com/teslashibe/go-nao/pkg/web"
)

// listenPrompt is shown when the Dialogflow backend reads typed utterances.
const listenPrompt = "you> "

// loadConfig reads the configuration, applies flag overrides and
// initializes logging. It does not validate.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	log.Init(cfg.Log.Level, cfg.Log.Format)
	log.Debug("config loaded",
		"file", configPath,
		"robot", cfg.Robot.BaseURL(),
		"backend", cfg.Dialogue.Backend)
	return cfg, nil
}

func newRobot(cfg *config.Config, logger *slog.Logger) (*naoqi.Client, error) {
	return naoqi.New(
		naoqi.WithBaseURL(cfg.Robot.BaseURL()),
		naoqi.WithTimeout(cfg.Robot.Timeout),
		naoqi.WithLogger(logger),
	)
}

// newBackend builds the configured dialogue backend. Typed input is read
// from in and prompts are written to out.
func newBackend(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, logger *slog.Logger) (intent.Backend, error) {
	d := cfg.Dialogue
	switch d.Backend {
	case config.BackendDialogflow:
		key, err := os.ReadFile(d.Keyfile)
		if err != nil {
			return nil, &config.Error{Field: "dialogue.keyfile", Message: err.Error()}
		}
		return dialogue.NewDialogflow(ctx,
			dialogue.WithAgent(d.ProjectID, d.Location, d.AgentID),
			dialogue.WithLanguage(d.Language),
			dialogue.WithSampleRate(d.SampleRate),
			dialogue.WithCredentialsJSON(key),
			dialogue.WithListener(dialogue.NewTextListener(in, out, listenPrompt)),
			dialogue.WithLogger(logger),
		)
	case config.BackendService:
		return dialogue.DialService(ctx,
			dialogue.WithServiceURL(d.ServiceURL),
			dialogue.WithLanguage(d.Language),
			dialogue.WithSampleRate(d.SampleRate),
			dialogue.WithLogger(logger),
		)
	case config.BackendConsole:
		return dialogue.NewConsole(in, out, dialogue.WithLogger(logger)), nil
	default:
		return nil, &config.Error{Field: "dialogue.backend", Message: fmt.Sprintf("unknown backend %q", d.Backend)}
	}
}

// loadScript returns the script file at path, or the built-in script name.
func loadScript(name, path string) (*router.Script, error) {
	if path != "" {
		return router.LoadScript(path)
	}
	return router.Builtin(name)
}

// loadChime decodes the configured chime WAV, or synthesizes one, and
// resamples it to rate when rate is positive.
func loadChime(path string, rate int) (router.Clip, error) {
	clip := sound.Chime(sound.DefaultChimeRate)
	if path != "" {
		var err error
		if clip, err = sound.Load(path); err != nil {
			return router.Clip{}, err
		}
	}
	clip = clip.Resampled(rate)
	return router.Clip{PCM: clip.PCM, SampleRate: clip.SampleRate}, nil
}

func newRouter(cfg *config.Config, script *router.Script) (*router.Router, error) {
	chime, err := loadChime(cfg.Script.Chime, cfg.Robot.AudioRate)
	if err != nil {
		return nil, err
	}
	return script.Router(
		router.WithFallbackReply(cfg.Script.FallbackReply),
		router.WithClip(router.ChimeClip, chime),
	), nil
}

// observability bundles the session recorder with its optional sinks.
type observability struct {
	registry *prometheus.Registry
	recorder *telemetry.Recorder
	server   *web.Server
	nats     *telemetry.NATSSink
}

// newObservability wires metrics, the session archive, the dashboard and
// NATS publishing. Sinks that cannot be opened are logged and skipped.
func newObservability(cfg *config.Config, script *router.Script, src intent.TranscriptSource, logger *slog.Logger) *observability {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	o := &observability{
		registry: reg,
		recorder: telemetry.NewRecorder(telemetry.NewMetrics(reg),
			telemetry.WithLogger(logger),
			telemetry.WithTranscriptSource(src),
		),
	}

	if path := cfg.Telemetry.Archive; path != "" {
		store, err := archive.NewJSONStore(path)
		if err != nil {
			logger.Warn("session archive disabled", "error", err)
		} else {
			o.recorder.AddSink(archive.NewRecorder(store, logger))
		}
	}

	if url := cfg.Telemetry.NATSURL; url != "" {
		sink, err := telemetry.NewNATSSink(url, cfg.Telemetry.NATSSubject, logger)
		if err != nil {
			logger.Warn("event publishing disabled", "error", err)
		} else {
			o.nats = sink
			o.recorder.AddSink(sink)
		}
	}

	if addr := cfg.Telemetry.Addr; addr != "" {
		o.server = web.NewServer(addr, o.recorder,
			web.WithGatherer(reg),
			web.WithScript(script),
			web.WithLogger(logger),
		)
		o.recorder.AddSink(o.server)
	}
	return o
}

// start serves the dashboard until ctx is done.
func (o *observability) start(ctx context.Context) {
	if o.server == nil {
		return
	}
	go func() {
		if err := o.server.Start(ctx); err != nil {
			log.Error("dashboard stopped", "error", err)
		}
	}()
}

func (o *observability) Close() error {
	if o.nats != nil {
		o.nats.Close()
	}
	if o.server != nil {
		return o.server.Shutdown()
	}
	return nil
}
