package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	// DataDir holds chunk storage, job workspaces, and persisted transcripts.
	DataDir string `env:"DATA_DIR" envDefault:"./data"`

	// FFmpegPath overrides PATH lookup for the transcoder binary.
	FFmpegPath string `env:"FFMPEG_PATH"`

	SpeechURL     string        `env:"SPEECH_URL,required"`
	SpeechModel   string        `env:"SPEECH_MODEL"`
	SpeechTimeout time.Duration `env:"SPEECH_TIMEOUT" envDefault:"2m"`
	Language      string        `env:"LANGUAGE" envDefault:"pt-BR"`

	SegmentSeconds int           `env:"SEGMENT_SECONDS" envDefault:"30"`
	SegmentWorkers int           `env:"SEGMENT_WORKERS" envDefault:"4"`
	JobTimeout     time.Duration `env:"JOB_TIMEOUT" envDefault:"30m"`

	AuthToken string `env:"AUTH_TOKEN"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile   string
	HTTPAddr  string
	LogLevel  string
	DataDir   string
	SpeechURL string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.DataDir != "" {
		cfg.DataDir = overrides.DataDir
	}
	if overrides.SpeechURL != "" {
		cfg.SpeechURL = overrides.SpeechURL
	}

	return cfg, nil
}
