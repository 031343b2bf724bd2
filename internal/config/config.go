// Package config loads go-nao configuration from defaults, an optional YAML
// file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default robot configuration.
const (
	DefaultRobotIP      = "10.0.0.181"
	DefaultRobotPort    = 8000
	DefaultRobotTimeout = 30 * time.Second
)

// Default dialogue configuration.
const (
	DefaultBackend    = BackendDialogflow
	DefaultLocation   = "europe-west4"
	DefaultKeyfile    = "conf/google/google-key.json"
	DefaultLanguage   = "en"
	DefaultSampleRate = 16000
)

// Dialogue backend names.
const (
	BackendDialogflow = "dialogflow"
	BackendService    = "service"
	BackendConsole    = "console"
)

// EnvPrefix is prepended to every environment variable derived from a key,
// e.g. robot.ip -> NAO_ROBOT_IP.
const EnvPrefix = "NAO"

// Config is the complete go-nao configuration.
type Config struct {
	Robot     RobotConfig     `mapstructure:"robot"`
	Dialogue  DialogueConfig  `mapstructure:"dialogue"`
	Script    ScriptConfig    `mapstructure:"script"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

// RobotConfig locates the NAOqi bridge.
type RobotConfig struct {
	IP      string        `mapstructure:"ip"`
	Port    int           `mapstructure:"port"`
	Timeout time.Duration `mapstructure:"timeout"`
	// AudioRate resamples clips before playback. Zero keeps the file rate.
	AudioRate int `mapstructure:"audio_rate"`
}

// BaseURL returns the bridge HTTP base URL.
func (r RobotConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", r.IP, r.Port)
}

// DialogueConfig selects and configures the dialogue backend.
type DialogueConfig struct {
	Backend    string `mapstructure:"backend"`
	ProjectID  string `mapstructure:"project_id"`
	AgentID    string `mapstructure:"agent_id"`
	Location   string `mapstructure:"location"`
	Keyfile    string `mapstructure:"keyfile"`
	Language   string `mapstructure:"language"`
	SampleRate int    `mapstructure:"sample_rate"`
	ServiceURL string `mapstructure:"service_url"`
}

// ScriptConfig selects the interaction script.
type ScriptConfig struct {
	// Name is a built-in script name. Ignored when Path is set.
	Name          string `mapstructure:"name"`
	Path          string `mapstructure:"path"`
	FallbackReply string `mapstructure:"fallback_reply"`
	// Chime is a WAV file registered as the "chime" clip.
	Chime string `mapstructure:"chime"`
}

// TelemetryConfig enables the dashboard and event publishing.
// Empty values disable the corresponding sink.
type TelemetryConfig struct {
	Addr        string `mapstructure:"addr"`
	NATSURL     string `mapstructure:"nats_url"`
	NATSSubject string `mapstructure:"nats_subject"`
	// Archive is the JSON file finished sessions are recorded in.
	Archive string `mapstructure:"archive"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration. Sources in increasing priority: defaults, the
// YAML file at path (or ./nao.yaml when path is empty and the file exists),
// and the environment, including variables from ./.env.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("nao")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read nao.yaml: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("robot.ip", DefaultRobotIP)
	v.SetDefault("robot.port", DefaultRobotPort)
	v.SetDefault("robot.timeout", DefaultRobotTimeout)
	v.SetDefault("robot.audio_rate", 0)

	v.SetDefault("dialogue.backend", DefaultBackend)
	v.SetDefault("dialogue.project_id", "")
	v.SetDefault("dialogue.agent_id", "")
	v.SetDefault("dialogue.location", DefaultLocation)
	v.SetDefault("dialogue.keyfile", DefaultKeyfile)
	v.SetDefault("dialogue.language", DefaultLanguage)
	v.SetDefault("dialogue.sample_rate", DefaultSampleRate)
	v.SetDefault("dialogue.service_url", "")

	v.SetDefault("script.name", "performance")
	v.SetDefault("script.path", "")
	v.SetDefault("script.fallback_reply", "Sorry, I didn't catch that.")
	v.SetDefault("script.chime", "")

	v.SetDefault("telemetry.addr", "")
	v.SetDefault("telemetry.nats_url", "")
	v.SetDefault("telemetry.nats_subject", "nao.events")
	v.SetDefault("telemetry.archive", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")
}

// bindEnv maps conventional variable names that lack the NAO_ prefix.
func bindEnv(v *viper.Viper) {
	v.BindEnv("robot.ip", "NAO_ROBOT_IP", "ROBOT_IP")
	v.BindEnv("dialogue.keyfile", "NAO_DIALOGUE_KEYFILE", "GOOGLE_APPLICATION_CREDENTIALS")
	v.BindEnv("dialogue.agent_id", "NAO_DIALOGUE_AGENT_ID", "DIALOGFLOW_AGENT_ID")
	v.BindEnv("telemetry.nats_url", "NAO_TELEMETRY_NATS_URL", "NATS_URL")
	v.BindEnv("log.level", "NAO_LOG_LEVEL", "LOG_LEVEL")
}

// Validate checks the configuration for the selected backend.
func (c *Config) Validate() error {
	if c.Robot.IP == "" {
		return &Error{Field: "robot.ip", Message: "is required"}
	}
	if c.Robot.Port <= 0 || c.Robot.Port > 65535 {
		return &Error{Field: "robot.port", Message: fmt.Sprintf("%d is not a valid port", c.Robot.Port)}
	}
	if c.Robot.Timeout <= 0 {
		return &Error{Field: "robot.timeout", Message: "must be positive"}
	}
	if c.Robot.AudioRate < 0 {
		return &Error{Field: "robot.audio_rate", Message: "must not be negative"}
	}

	switch c.Dialogue.Backend {
	case BackendDialogflow:
		if c.Dialogue.AgentID == "" {
			return &Error{Field: "dialogue.agent_id", Message: "is required for the dialogflow backend"}
		}
		if c.Dialogue.Keyfile == "" {
			return &Error{Field: "dialogue.keyfile", Message: "is required for the dialogflow backend"}
		}
		if c.Dialogue.Location == "" {
			return &Error{Field: "dialogue.location", Message: "is required for the dialogflow backend"}
		}
	case BackendService:
		if c.Dialogue.ServiceURL == "" {
			return &Error{Field: "dialogue.service_url", Message: "is required for the service backend"}
		}
	case BackendConsole:
	default:
		return &Error{Field: "dialogue.backend", Message: fmt.Sprintf("unknown backend %q", c.Dialogue.Backend)}
	}
	if c.Dialogue.SampleRate <= 0 {
		return &Error{Field: "dialogue.sample_rate", Message: "must be positive"}
	}

	if c.Script.Name == "" && c.Script.Path == "" {
		return &Error{Field: "script.name", Message: "a script name or path is required"}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &Error{Field: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)}
	}
	return nil
}
