package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/snarg/scribe-engine/internal/chunkstore"
	"github.com/snarg/scribe-engine/internal/metrics"
)

// UploadHandler accepts chunked file uploads from browsers and CLI clients.
type UploadHandler struct {
	store *chunkstore.Store
	log   zerolog.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(store *chunkstore.Store, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		store: store,
		log:   log.With().Str("handler", "upload").Logger(),
	}
}

// Routes registers the upload endpoint.
func (h *UploadHandler) Routes(r chi.Router) {
	r.Post("/upload-chunk", h.UploadChunk)
}

type uploadChunkResponse struct {
	Message  string `json:"message"`
	Complete bool   `json:"complete"`
}

// UploadChunk handles POST /upload-chunk.
// Multipart fields: file (chunk bytes), chunkIndex, totalChunks, fileName.
// Chunks may arrive out of order and may be retried; the response reports
// whether the chunk set is now complete and ready for /process.
func (h *UploadHandler) UploadChunk(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	fileName := r.FormValue("fileName")
	if fileName == "" {
		WriteError(w, http.StatusBadRequest, "fileName is required")
		return
	}
	index, err := strconv.Atoi(r.FormValue("chunkIndex"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "chunkIndex must be an integer")
		return
	}
	total, err := strconv.Atoi(r.FormValue("totalChunks"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "totalChunks must be an integer")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "failed to read chunk body")
		return
	}

	complete, err := h.store.Put(chunkstore.FileID(fileName), index, total, data)
	if err != nil {
		// Range errors are the caller's fault; write failures are ours
		// and worth a retry of the same request.
		status := http.StatusBadRequest
		if index >= 0 && index < total && total >= 1 {
			status = http.StatusInternalServerError
			h.log.Error().Err(err).Str("file", fileName).Int("index", index).Msg("chunk write failed")
		}
		WriteError(w, status, err.Error())
		return
	}
	metrics.ChunksReceivedTotal.Inc()

	msg := "chunk received"
	if complete {
		msg = "all chunks received"
	}
	WriteJSON(w, http.StatusOK, uploadChunkResponse{Message: msg, Complete: complete})
}
