package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SPEECH_URL", "http://localhost:9000/v1/audio/transcriptions")

	cfg, err := Load(Overrides{EnvFile: "/nonexistent/.env"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.Language != "pt-BR" {
		t.Errorf("Language = %q, want pt-BR", cfg.Language)
	}
	if cfg.SegmentSeconds != 30 {
		t.Errorf("SegmentSeconds = %d, want 30", cfg.SegmentSeconds)
	}
	if cfg.JobTimeout != 30*time.Minute {
		t.Errorf("JobTimeout = %v, want 30m", cfg.JobTimeout)
	}
}

func TestLoad_MissingSpeechURL(t *testing.T) {
	t.Setenv("SPEECH_URL", "placeholder") // register cleanup, then unset
	os.Unsetenv("SPEECH_URL")
	if _, err := Load(Overrides{EnvFile: "/nonexistent/.env"}); err == nil {
		t.Error("expected error when SPEECH_URL is unset")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SPEECH_URL", "http://env-url")
	t.Setenv("HTTP_ADDR", ":9999")

	cfg, err := Load(Overrides{
		EnvFile:   "/nonexistent/.env",
		HTTPAddr:  ":7777",
		DataDir:   "/var/lib/scribe",
		SpeechURL: "http://flag-url",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":7777" {
		t.Errorf("CLI override lost: HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.DataDir != "/var/lib/scribe" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.SpeechURL != "http://flag-url" {
		t.Errorf("SpeechURL = %q, want flag value", cfg.SpeechURL)
	}
}
