package api

import (
	"net/http"
	"time"

	"github.com/snarg/scribe-engine/internal/jobs"
	"github.com/snarg/scribe-engine/internal/media"
)

type HealthResponse struct {
	Status        string             `json:"status"`
	Version       string             `json:"version"`
	UptimeSeconds int64              `json:"uptime_seconds"`
	Checks        map[string]string  `json:"checks"`
	Jobs          map[jobs.State]int `json:"jobs"`
}

type HealthHandler struct {
	extractor *media.Extractor
	speechURL string
	ledger    *jobs.Ledger
	version   string
	startTime time.Time
}

func NewHealthHandler(extractor *media.Extractor, speechURL string, ledger *jobs.Ledger, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		extractor: extractor,
		speechURL: speechURL,
		ledger:    ledger,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"

	// Missing ffmpeg degrades the service: container jobs fail, raw audio
	// still flows.
	if h.extractor.Available() {
		checks["ffmpeg"] = "ok"
	} else {
		checks["ffmpeg"] = "missing"
		status = "degraded"
	}

	if h.speechURL != "" {
		checks["speech_engine"] = "configured"
	} else {
		checks["speech_engine"] = "not_configured"
		status = "degraded"
	}

	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
		Jobs:          h.ledger.Counts(),
	})
}
