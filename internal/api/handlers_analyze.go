package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docreview/internal/engine"
	"github.com/dgallion1/docreview/internal/parser"
	"github.com/dgallion1/docreview/internal/pipeline"
	"github.com/dgallion1/docreview/internal/rubric"
	"github.com/dgallion1/docreview/internal/storage"
)

type upload struct {
	filename     string
	documentType string
	data         []byte
}

// readUpload parses the multipart form shared by the analyze endpoints.
// On failure it has already written the error response.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, bool) {
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	documentType := strings.TrimSpace(r.FormValue("document_type"))
	if documentType == "" {
		jsonError(w, "document_type is required", http.StatusBadRequest)
		return nil, false
	}
	if _, err := s.orchestrator.Rubrics().Rubric(r.Context(), documentType); err != nil {
		if errors.Is(err, rubric.ErrUnknownDocumentType) {
			jsonError(w, err.Error(), http.StatusBadRequest)
		} else {
			jsonError(w, "rubric lookup failed: "+err.Error(), http.StatusInternalServerError)
		}
		return nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return nil, false
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return nil, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return nil, false
	}
	return &upload{filename: filename, documentType: documentType, data: data}, true
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	job := pipeline.NewJob(up.filename, up.documentType, up.data)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":        job.ID,
		"document_type": job.DocumentType,
		"status":        pipeline.StatusQueued,
		"poll_url":      fmt.Sprintf("/api/analyze/%s/status", job.ID),
	})
}

func (s *Server) handleAnalyzeSync(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	report, err := s.orchestrator.AnalyzeSync(r.Context(), up.filename, up.documentType, up.data)
	if err != nil {
		s.log.Warn("sync analysis failed", "filename", up.filename, "error", err)
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAnalyzeStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleAnalyzeReport(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		// Evicted jobs can still be served from the results database.
		if s.db != nil {
			report, err := s.db.LoadAnalysis(r.Context(), jobID)
			if err == nil {
				writeJSON(w, http.StatusOK, report)
				return
			}
			if !errors.Is(err, storage.ErrNotFound) {
				jsonError(w, "load analysis: "+err.Error(), http.StatusInternalServerError)
				return
			}
		}
		if s.archive != nil {
			report, err := s.archivedReport(r, jobID)
			if err != nil {
				jsonError(w, "load archived report: "+err.Error(), http.StatusBadGateway)
				return
			}
			if report != nil {
				writeJSON(w, http.StatusOK, report)
				return
			}
		}
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	snap := job.Snapshot()
	switch snap.Status {
	case pipeline.StatusCompleted:
		writeJSON(w, http.StatusOK, job.Report())
	case pipeline.StatusFailed:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "analysis failed",
			"phase":  snap.Phase,
			"errors": snap.Progress.Errors,
		})
	default:
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "analysis not finished",
			"status": snap.Status,
		})
	}
}

// archivedReport searches the archive under the requested document type,
// or under every known type when none is given. It returns nil, nil when
// the job was never archived.
func (s *Server) archivedReport(r *http.Request, jobID string) (*engine.Report, error) {
	types, err := s.documentTypes(r)
	if err != nil {
		return nil, err
	}
	for _, dt := range types {
		ar, err := s.archive.LoadReport(r.Context(), dt, jobID)
		if err != nil {
			return nil, err
		}
		if ar != nil {
			return ar.Report, nil
		}
	}
	return nil, nil
}

// documentTypes returns the document_type query parameter, or all known
// rubric types when it is absent.
func (s *Server) documentTypes(r *http.Request) ([]string, error) {
	if dt := r.URL.Query().Get("document_type"); dt != "" {
		return []string{dt}, nil
	}
	return s.orchestrator.Rubrics().DocumentTypes(r.Context())
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
