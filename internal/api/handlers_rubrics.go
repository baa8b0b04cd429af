package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docreview/internal/rubric"
)

func (s *Server) handleListRubrics(w http.ResponseWriter, r *http.Request) {
	types, err := s.orchestrator.Rubrics().DocumentTypes(r.Context())
	if err != nil {
		jsonError(w, "list rubrics: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document_types": types})
}

func (s *Server) handleGetRubric(w http.ResponseWriter, r *http.Request) {
	rb, err := s.orchestrator.Rubrics().Rubric(r.Context(), chi.URLParam(r, "documentType"))
	if errors.Is(err, rubric.ErrUnknownDocumentType) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "load rubric: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rb)
}

// archivedAnalysis is one entry of the archive listing.
type archivedAnalysis struct {
	JobID        string `json:"job_id"`
	DocumentType string `json:"document_type"`
}

// handleListAnalyses lists stored analyses, newest first. Without a
// results database it lists the archived job IDs instead.
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), 50)
	if limit > 200 {
		limit = 200
	}
	if s.db == nil {
		if s.archive == nil {
			jsonError(w, "no results database configured", http.StatusServiceUnavailable)
			return
		}
		s.listArchivedAnalyses(w, r, limit)
		return
	}
	rows, err := s.db.ListAnalyses(r.Context(), q.Get("document_type"), limit, queryInt(q.Get("offset"), 0))
	if err != nil {
		jsonError(w, "list analyses: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": rows})
}

func (s *Server) listArchivedAnalyses(w http.ResponseWriter, r *http.Request, limit int) {
	types, err := s.documentTypes(r)
	if err != nil {
		jsonError(w, "list rubrics: "+err.Error(), http.StatusInternalServerError)
		return
	}
	rows := []archivedAnalysis{}
	for _, dt := range types {
		if len(rows) >= limit {
			break
		}
		ids, err := s.archive.ListReports(r.Context(), dt, limit-len(rows))
		if err != nil {
			jsonError(w, "list archived reports: "+err.Error(), http.StatusBadGateway)
			return
		}
		for _, id := range ids {
			rows = append(rows, archivedAnalysis{JobID: id, DocumentType: dt})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": rows})
}

func queryInt(v string, fallback int) int {
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return n
	}
	return fallback
}
