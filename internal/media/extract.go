package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Extractor shells out to ffmpeg to pull a normalized audio stream out of
// a video container: mono, 16 kHz, 16-bit linear PCM in a WAV wrapper.
type Extractor struct {
	ffmpegPath string
	log        zerolog.Logger
}

// NewExtractor creates an extractor. path may be empty, in which case
// ffmpeg is looked up in PATH at extraction time; its absence surfaces as
// an extraction error on the job, not at startup.
func NewExtractor(path string, log zerolog.Logger) *Extractor {
	return &Extractor{ffmpegPath: path, log: log}
}

// Available reports whether the transcoder binary can be resolved.
func (e *Extractor) Available() bool {
	_, err := e.resolve()
	return err == nil
}

func (e *Extractor) resolve() (string, error) {
	if e.ffmpegPath != "" {
		if _, err := os.Stat(e.ffmpegPath); err != nil {
			return "", fmt.Errorf("ffmpeg not found at %s", e.ffmpegPath)
		}
		return e.ffmpegPath, nil
	}
	p, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found in PATH")
	}
	return p, nil
}

// Extract writes the container bytes to a temp file inside workDir, runs
// ffmpeg, and returns the normalized WAV bytes. Both temp files are
// removed on every exit path. The tool's stderr is carried verbatim in
// the returned error so job diagnostics show what ffmpeg saw.
func (e *Extractor) Extract(ctx context.Context, container []byte, workDir string) ([]byte, error) {
	ffmpeg, err := e.resolve()
	if err != nil {
		return nil, err
	}

	if workDir == "" {
		workDir = os.TempDir()
	}
	in, err := os.CreateTemp(workDir, "extract-*.src")
	if err != nil {
		return nil, fmt.Errorf("create temp input: %w", err)
	}
	defer os.Remove(in.Name())

	if _, err := in.Write(container); err != nil {
		in.Close()
		return nil, fmt.Errorf("write temp input: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("write temp input: %w", err)
	}

	outPath := filepath.Join(workDir, filepath.Base(in.Name())+".wav")
	defer os.Remove(outPath)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, ffmpeg,
		"-y",
		"-i", in.Name(),
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		outPath,
	)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, stderr.String())
	}

	audio, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read extracted audio: %w", err)
	}
	e.log.Debug().Int("in_bytes", len(container)).Int("out_bytes", len(audio)).Msg("audio extracted")
	return audio, nil
}
