package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/snarg/scribe-engine/internal/chunkstore"
	"github.com/snarg/scribe-engine/internal/jobs"
	"github.com/snarg/scribe-engine/internal/metrics"
)

// JobsHandler exposes pipeline start, status, and transcript download.
type JobsHandler struct {
	store        *chunkstore.Store
	ledger       *jobs.Ledger
	orchestrator *jobs.Orchestrator
	log          zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store *chunkstore.Store, ledger *jobs.Ledger, orchestrator *jobs.Orchestrator, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store:        store,
		ledger:       ledger,
		orchestrator: orchestrator,
		log:          log.With().Str("handler", "jobs").Logger(),
	}
}

// Routes registers the job endpoints.
func (h *JobsHandler) Routes(r chi.Router) {
	r.Post("/process", h.Process)
	r.Get("/status/{fileName}", h.Status)
	r.Get("/download/{fileName}", h.Download)
}

type processRequest struct {
	FileName    string `json:"fileName"`
	TotalChunks int    `json:"totalChunks"`
}

type processResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

// Process handles POST /process: reassembles a fully-uploaded file,
// registers the job, and hands it to the orchestrator. The response is a
// 202-style accept; the pipeline runs off the request path.
func (h *JobsHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.FileName == "" {
		WriteError(w, http.StatusBadRequest, "fileName is required")
		return
	}
	if req.TotalChunks < 1 {
		WriteError(w, http.StatusBadRequest, "totalChunks must be >= 1")
		return
	}

	id := chunkstore.FileID(req.FileName)
	payload, err := h.store.Reassemble(id, req.TotalChunks)
	if err != nil {
		switch {
		case errors.Is(err, chunkstore.ErrNotFound):
			WriteError(w, http.StatusNotFound, "no uploaded chunks for this file")
		case errors.Is(err, chunkstore.ErrIncomplete):
			WriteError(w, http.StatusConflict, err.Error())
		default:
			h.log.Error().Err(err).Str("file", req.FileName).Msg("reassembly failed")
			WriteError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	metrics.ReassembliesTotal.Inc()

	job, err := h.ledger.Create(id, req.FileName)
	if err != nil {
		if errors.Is(err, jobs.ErrAlreadyRunning) {
			WriteError(w, http.StatusConflict, "a job for this file is already running")
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.orchestrator.Launch(job, payload)

	WriteJSON(w, http.StatusAccepted, processResponse{
		Message: "processing started",
		JobID:   job.ID,
	})
}

// Status handles GET /status/{fileName}.
func (h *JobsHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := chunkstore.FileID(chi.URLParam(r, "fileName"))
	st, err := h.ledger.Status(id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "unknown job")
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

// Download handles GET /download/{fileName}: serves the finished
// transcript as a text attachment, 404 for unknown or still-running jobs,
// and the stored pipeline error for failed ones.
func (h *JobsHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := chunkstore.FileID(chi.URLParam(r, "fileName"))
	transcript, fileName, err := h.ledger.Download(id)
	if err != nil {
		switch {
		case errors.Is(err, jobs.ErrNotFound):
			WriteError(w, http.StatusNotFound, "unknown job")
		case errors.Is(err, jobs.ErrNotReady):
			WriteError(w, http.StatusNotFound, "transcript not ready")
		case errors.Is(err, jobs.ErrJobFailed):
			WriteError(w, http.StatusInternalServerError, err.Error())
		default:
			WriteError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+"_transcript.txt"))
	w.WriteHeader(http.StatusOK)
	w.Write(transcript)
}
