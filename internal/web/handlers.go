package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prepdeck/prepdeck/internal/core"
	"github.com/prepdeck/prepdeck/internal/version"
)

// handleCreateVersion ingests an uploaded delimited-text file as a new
// version of the dataset. The file is parsed and profiled before the
// response is written, so a 201 means the profile is ready.
func (s *Server) handleCreateVersion(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")
	if dataset == "" {
		s.respondError(w, r, core.ErrNoFile)
		return
	}

	maxSize := s.cfg.Ingest.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.respondError(w, r, core.ErrFileTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.ErrNoFile)
		return
	}
	defer file.Close()

	result, err := s.service.Ingest(r.Context(), core.IngestParams{
		Dataset:  dataset,
		Filename: header.Filename,
		ParentID: r.FormValue("parent_id"),
		File:     file,
		Size:     header.Size,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleProfile returns the stored profile for a ready version.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	prof, err := s.service.Profile(r.Context(), chi.URLParam(r, "versionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

// handlePreview returns the sampled rows captured when the version was
// profiled.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	preview, err := s.service.Preview(r.Context(), chi.URLParam(r, "versionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// handleDiff compares two versions identified by the base and compare
// query parameters. Repeated requests for the same pair are served from
// the memoized result.
func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	baseID := r.URL.Query().Get("base")
	compareID := r.URL.Query().Get("compare")
	if baseID == "" || compareID == "" {
		respondErrorJSON(w, core.UserMessage{
			Message: "Both base and compare version IDs are required",
			Action:  "Pass base and compare query parameters",
			Code:    "VER001",
		}, http.StatusBadRequest)
		return
	}

	result, err := s.service.Diff(r.Context(), baseID, compareID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleListVersions returns all versions of a dataset, newest first.
func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.service.ListVersions(r.Context(), chi.URLParam(r, "dataset"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if versions == nil {
		versions = []version.Version{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

// handleHistory returns the event log for a dataset.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondErrorJSON(w, core.UserMessage{
				Message: "The limit parameter must be a non-negative integer",
				Action:  "Fix the limit query parameter",
				Code:    "ERR000",
			}, http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	events, err := s.service.History(r.Context(), chi.URLParam(r, "dataset"), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if events == nil {
		events = []version.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// handleHealthz reports process and database health.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":   "ok",
		"ingest":   s.service.Limiter().Status(),
		"database": "ok",
	}
	code := http.StatusOK
	if err := s.service.Healthy(r.Context()); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}
