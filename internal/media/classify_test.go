package media

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		want Kind
	}{
		{"clip.mp4", Container},
		{"clip.MP4", Container},
		{"movie.MkV", Container},
		{"cam.avi", Container},
		{"take1.mov", Container},
		{"voice.wav", RawAudio},
		{"voice.WAV", RawAudio},
		{"song.mp3", RawAudio},
		{"notes.txt", RawAudio}, // unknown extensions default to raw audio
		{"noextension", RawAudio},
		{"", RawAudio},
	}
	for _, c := range cases {
		if got := Classify(c.name); got != c.want {
			t.Errorf("Classify(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}
