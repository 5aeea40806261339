package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the voice companion daemon
type Config struct {
	// Observability HTTP server (health, readiness, metrics, event stream)
	Port string `envconfig:"PORT" default:"8090"`

	// Generation engine (llama.cpp-style completion server)
	EngineURL            string `envconfig:"ENGINE_URL" default:"http://127.0.0.1:8080/completion"`
	EngineConnectTimeout int    `envconfig:"ENGINE_CONNECT_TIMEOUT" default:"10"` // seconds, dial/headers only; the stream itself has no deadline
	PromptPrefix         string `envconfig:"PROMPT_PREFIX" default:"### User: "`
	PromptSuffix         string `envconfig:"PROMPT_SUFFIX" default:"### Response: "`

	// Stop markers trimmed from the generated stream. Comma separated.
	StopMarkers string `envconfig:"STOP_MARKERS" default:"### User,###User,### Response,###Response,### System,###System,###"`
	// Trailing window scanned for stop markers, in characters. Grown
	// automatically to the longest marker if a marker is longer.
	StopWindow int `envconfig:"STOP_WINDOW" default:"20"`

	// Synthesis service
	SynthURL     string `envconfig:"SYNTH_URL" default:"http://127.0.0.1:8848/api/v1/synthesise"`
	SynthTimeout int    `envconfig:"SYNTH_TIMEOUT" default:"30"` // seconds per sentence

	// Deepgram transcription API
	DeepgramAPIKey   string `envconfig:"DEEPGRAM_API_KEY" required:"true"`
	DeepgramModel    string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`
	DeepgramLanguage string `envconfig:"DEEPGRAM_LANGUAGE" default:"en"`

	// Recording
	RecordDir         string `envconfig:"RECORD_DIR" default:"/tmp"`
	RecordDevice      string `envconfig:"RECORD_DEVICE" default:""`          // ALSA device, e.g. hw:1,0; discovered from RecordCardPattern if empty
	RecordCardPattern string `envconfig:"RECORD_CARD_PATTERN" default:"es8388"`
	RecordMinBytes    int64  `envconfig:"RECORD_MIN_BYTES" default:"1000"`   // below this the capture is treated as empty
	RecordMaxRetries  int    `envconfig:"RECORD_MAX_RETRIES" default:"3"`    // attempts when the device is busy
	RecordRetryDelay  int    `envconfig:"RECORD_RETRY_DELAY" default:"1000"` // milliseconds between busy retries
	RecordStopTimeout int    `envconfig:"RECORD_STOP_TIMEOUT" default:"3"`   // seconds to wait for graceful stop
	RecordKillTimeout int    `envconfig:"RECORD_KILL_TIMEOUT" default:"2"`   // seconds to wait after kill

	// Playback
	PlayerCommand string `envconfig:"PLAYER_COMMAND" default:"ffplay"`

	// Push-to-talk button (sysfs GPIO)
	ButtonGPIOPin  int `envconfig:"BUTTON_GPIO_PIN" default:"3"`
	ButtonPollMs   int `envconfig:"BUTTON_POLL_MS" default:"100"`
	ButtonDebounce int `envconfig:"BUTTON_DEBOUNCE_MS" default:"300"`

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // seconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads configuration from environment variables.
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.DeepgramAPIKey == "" {
		return nil, fmt.Errorf("DEEPGRAM_API_KEY is required")
	}
	if len(cfg.StopMarkerList()) == 0 {
		return nil, fmt.Errorf("STOP_MARKERS must name at least one marker")
	}

	return &cfg, nil
}

// StopMarkerList splits StopMarkers into individual marker strings,
// dropping empty entries.
func (c *Config) StopMarkerList() []string {
	var markers []string
	for _, m := range strings.Split(c.StopMarkers, ",") {
		if m != "" {
			markers = append(markers, m)
		}
	}
	return markers
}

// RetryDelay returns the busy-retry delay as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RecordRetryDelay) * time.Millisecond
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
