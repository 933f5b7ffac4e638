package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/scribe-engine/internal/api"
	"github.com/snarg/scribe-engine/internal/chunkstore"
	"github.com/snarg/scribe-engine/internal/config"
	"github.com/snarg/scribe-engine/internal/jobs"
	"github.com/snarg/scribe-engine/internal/media"
	"github.com/snarg/scribe-engine/internal/transcribe"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env", "", "path to .env file")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "http listen address")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (trace|debug|info|warn|error)")
	flag.StringVar(&overrides.DataDir, "data-dir", "", "data directory for chunks and transcripts")
	flag.StringVar(&overrides.SpeechURL, "speech-url", "", "speech engine endpoint URL")
	flag.Parse()

	// Config
	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("scribe-engine starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("failed to create data dir")
	}

	// Chunk store
	store, err := chunkstore.New(filepath.Join(cfg.DataDir, "chunks"), log.With().Str("component", "chunkstore").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open chunk store")
	}

	// Pipeline
	extractor := media.NewExtractor(cfg.FFmpegPath, log.With().Str("component", "extractor").Logger())
	if !extractor.Available() {
		log.Warn().Msg("ffmpeg not found; container uploads will fail until it is installed")
	}
	speech := transcribe.NewSpeechClient(cfg.SpeechURL, cfg.SpeechModel, cfg.SpeechTimeout)
	coordinator := transcribe.NewCoordinator(speech, cfg.SegmentWorkers, log.With().Str("component", "transcribe").Logger())
	ledger := jobs.NewLedger(log.With().Str("component", "ledger").Logger())
	orchestrator := jobs.NewOrchestrator(ledger, extractor, coordinator, jobs.Options{
		DataDir:        cfg.DataDir,
		SegmentSeconds: cfg.SegmentSeconds,
		Language:       cfg.Language,
		JobTimeout:     cfg.JobTimeout,
	}, log.With().Str("component", "orchestrator").Logger())

	// HTTP Server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, store, ledger, orchestrator, extractor, version, startTime, httpLog)

	// Start HTTP server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("scribe-engine stopped")
}
