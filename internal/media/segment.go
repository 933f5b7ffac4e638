package media

// Segment is one bounded-duration window of normalized audio, wrapped as a
// standalone WAV stream so it can be submitted as a single transcription
// request.
type Segment struct {
	Index    int
	Duration float64 // seconds
	WAV      []byte
}

// Split cuts a WAV stream into consecutive, non-overlapping windows of at
// most maxSeconds; the final window may be shorter. Audio shorter than the
// bound yields exactly one segment. Empty audio yields zero segments.
func Split(wav []byte, maxSeconds int) ([]Segment, error) {
	if len(wav) == 0 {
		return nil, nil
	}
	f, pcm, err := DecodeWAV(wav)
	if err != nil {
		return nil, err
	}
	if len(pcm) == 0 {
		return nil, nil
	}

	window := maxSeconds * f.BytesPerSecond()
	// Align window to whole sample frames.
	if ba := f.BlockAlign(); ba > 0 {
		window -= window % ba
	}
	if window <= 0 {
		window = len(pcm)
	}

	var segments []Segment
	for start := 0; start < len(pcm); start += window {
		end := start + window
		if end > len(pcm) {
			end = len(pcm)
		}
		slice := pcm[start:end]
		segments = append(segments, Segment{
			Index:    len(segments),
			Duration: f.Duration(len(slice)),
			WAV:      EncodeWAV(f, slice),
		})
	}
	return segments, nil
}
