package media

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Format describes PCM audio parameters from a WAV fmt chunk.
type Format struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// BlockAlign is the byte size of one sample frame across all channels.
func (f Format) BlockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// BytesPerSecond is the PCM data rate.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.BlockAlign()
}

// Duration returns the play time in seconds for a PCM byte count.
func (f Format) Duration(pcmLen int) float64 {
	bps := f.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return float64(pcmLen) / float64(bps)
}

var errNotWAV = errors.New("not a RIFF/WAVE stream")

// DecodeWAV parses a WAV byte stream and returns its format and raw PCM
// payload. Only uncompressed PCM is supported, which is all the extractor
// ever produces. Chunks other than fmt/data are skipped.
func DecodeWAV(b []byte) (Format, []byte, error) {
	var f Format
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return f, nil, errNotWAV
	}

	var pcm []byte
	haveFmt := false
	off := 12
	for off+8 <= len(b) {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(b) {
			// Tolerate a truncated final chunk, as ffmpeg sometimes
			// writes a data size of -1 when streaming to a pipe.
			size = len(b) - body
			if size < 0 {
				break
			}
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return f, nil, fmt.Errorf("fmt chunk too small: %d bytes", size)
			}
			audioFormat := binary.LittleEndian.Uint16(b[body : body+2])
			if audioFormat != 1 {
				return f, nil, fmt.Errorf("unsupported WAV encoding %d (want PCM)", audioFormat)
			}
			f.Channels = int(binary.LittleEndian.Uint16(b[body+2 : body+4]))
			f.SampleRate = int(binary.LittleEndian.Uint32(b[body+4 : body+8]))
			f.BitsPerSample = int(binary.LittleEndian.Uint16(b[body+14 : body+16]))
			haveFmt = true
		case "data":
			pcm = b[body : body+size]
		}
		// Chunks are word-aligned.
		if size%2 == 1 {
			size++
		}
		off = body + size
	}

	if !haveFmt {
		return f, nil, errors.New("missing fmt chunk")
	}
	if f.Channels == 0 || f.SampleRate == 0 || f.BitsPerSample == 0 {
		return f, nil, fmt.Errorf("invalid WAV format: %+v", f)
	}
	return f, pcm, nil
}

// EncodeWAV wraps raw PCM in a canonical 44-byte WAV header.
func EncodeWAV(f Format, pcm []byte) []byte {
	out := make([]byte, 44+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(f.BytesPerSecond()))
	binary.LittleEndian.PutUint16(out[32:34], uint16(f.BlockAlign()))
	binary.LittleEndian.PutUint16(out[34:36], uint16(f.BitsPerSample))
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[44:], pcm)
	return out
}
