package media

import (
	"path/filepath"
	"strings"
)

// Kind is the coarse media type inferred from a file name.
type Kind int

const (
	// RawAudio payloads go straight to segmentation.
	RawAudio Kind = iota
	// Container payloads need audio extraction first.
	Container
)

func (k Kind) String() string {
	if k == Container {
		return "container"
	}
	return "raw_audio"
}

var containerExts = map[string]bool{
	".mp4": true,
	".mkv": true,
	".avi": true,
	".mov": true,
}

// Classify decides from the declared file name whether the payload is a
// video container or raw audio. Unknown extensions fall through to
// RawAudio: the bytes are treated as audio on a best-effort basis.
func Classify(fileName string) Kind {
	ext := strings.ToLower(filepath.Ext(fileName))
	if containerExts[ext] {
		return Container
	}
	return RawAudio
}
