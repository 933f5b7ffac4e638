package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// SpeechClient calls a whisper-style /v1/audio/transcriptions endpoint.
type SpeechClient struct {
	url     string
	model   string
	timeout time.Duration
	client  *http.Client
}

type speechResponse struct {
	Text string `json:"text"`
}

// NewSpeechClient creates a speech engine HTTP client.
func NewSpeechClient(url, model string, timeout time.Duration) *SpeechClient {
	return &SpeechClient{
		url:     url,
		model:   model,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

func (sc *SpeechClient) Name() string { return "speech" }

// Transcribe sends one audio segment to the engine as multipart/form-data
// and classifies the result. An empty text body is the engine's "no speech
// found" signal and maps to Unrecognized; transport and server failures
// map to EngineUnavailable. The two are never conflated.
func (sc *SpeechClient) Transcribe(ctx context.Context, wav []byte, language string) Outcome {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", "segment.wav")
	if err != nil {
		return Outcome{Class: EngineUnavailable, Err: fmt.Errorf("create form file: %w", err)}
	}
	if _, err := part.Write(wav); err != nil {
		return Outcome{Class: EngineUnavailable, Err: fmt.Errorf("copy audio data: %w", err)}
	}
	if sc.model != "" {
		w.WriteField("model", sc.model)
	}
	if language != "" {
		w.WriteField("language", language)
	}
	w.WriteField("response_format", "json")
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sc.url, &buf)
	if err != nil {
		return Outcome{Class: EngineUnavailable, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := sc.client.Do(req)
	if err != nil {
		return Outcome{Class: EngineUnavailable, Err: fmt.Errorf("speech request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{Class: EngineUnavailable, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return Outcome{
			Class: EngineUnavailable,
			Err:   fmt.Errorf("speech API error (status %d): %s", resp.StatusCode, string(body)),
		}
	}

	var result speechResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return Outcome{Class: EngineUnavailable, Err: fmt.Errorf("decode response: %w", err)}
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return Outcome{Class: Unrecognized}
	}
	return Outcome{Class: Recognized, Text: text}
}
