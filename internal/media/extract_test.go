package media

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestExtract_MissingBinary(t *testing.T) {
	e := NewExtractor("/nonexistent/ffmpeg", zerolog.Nop())

	if e.Available() {
		t.Error("Available() should be false for a bogus path")
	}

	_, err := e.Extract(context.Background(), []byte("fake container"), t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing ffmpeg binary")
	}
	if !strings.Contains(err.Error(), "ffmpeg") {
		t.Errorf("error %q should name the missing tool", err)
	}
}

func TestExtract_FailureLeavesNoTempFiles(t *testing.T) {
	// Point at a real binary that is not ffmpeg so the command exits
	// non-zero, then verify the workspace is left empty.
	falseBin, err := exec.LookPath("false")
	if err != nil {
		t.Skip("no `false` binary on this system")
	}
	dir := t.TempDir()
	e := NewExtractor(falseBin, zerolog.Nop())

	if _, err := e.Extract(context.Background(), []byte("not a video"), dir); err == nil {
		t.Skip("unexpected extraction success")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, ent := range entries {
		t.Errorf("temp file left behind after failure: %s", filepath.Join(dir, ent.Name()))
	}
}
