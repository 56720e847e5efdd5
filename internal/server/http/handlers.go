package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/openscholar/paper-gateway/internal/domain"
)

var validate = validator.New()

// parseSearchFilter builds a SearchFilter from query parameters and runs the
// declarative validation on it.
func parseSearchFilter(r *http.Request) (domain.SearchFilter, error) {
	q := r.URL.Query()
	filter := domain.SearchFilter{
		Query:            q.Get("query"),
		Provider:         q.Get("provider"),
		Subjects:         q.Get("subjects"),
		Author:           q.Get("author"),
		Title:            q.Get("title"),
		Publisher:        q.Get("publisher"),
		Institution:      q.Get("institution"),
		Concepts:         q.Get("concepts"),
		DatePublishedGTE: q.Get("date_published_gte"),
	}

	for param, target := range map[string]*int{
		"max_results": &filter.MaxResults,
		"page":        &filter.Page,
		"start_index": &filter.StartIndex,
	} {
		if raw := q.Get(param); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				return filter, errors.New(param + " must be an integer")
			}
			*target = parsed
		}
	}

	if err := validate.Struct(filter); err != nil {
		return filter, err
	}
	return filter, nil
}

// listProviders handles GET /api/v1/providers.
func (s *Server) listProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := s.dispatcher.ListProviders(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, providers)
}

// search handles GET /api/v1/search. Without a provider the search fans out
// to every source; with one it routes to the matching adapter.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSearchFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if filter.Provider == "" {
		writeJSON(w, http.StatusOK, s.dispatcher.SearchAll(r.Context(), filter))
		return
	}

	result, err := s.dispatcher.Search(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// getPaperMetadata handles GET /api/v1/papers/{paperID}. A preprint whose
// download link is missing still has useful metadata, so that case returns
// the partial record rather than an error.
func (s *Server) getPaperMetadata(w http.ResponseWriter, r *http.Request) {
	paperID := chi.URLParam(r, "paperID")
	if paperID == "" {
		writeError(w, http.StatusBadRequest, "paper id is required")
		return
	}

	paper, err := s.dispatcher.GetPaperMetadata(r.Context(), paperID)
	if err != nil {
		var missing *domain.MissingDownloadLinkError
		if errors.As(err, &missing) && missing.Metadata != nil {
			writeJSON(w, http.StatusOK, missing.Metadata)
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paper)
}

// getPaperContent handles GET /api/v1/papers/{paperID}/content. The response
// is always a tagged envelope; failures are reported in its status field.
func (s *Server) getPaperContent(w http.ResponseWriter, r *http.Request) {
	paperID := chi.URLParam(r, "paperID")
	if paperID == "" {
		writeError(w, http.StatusBadRequest, "paper id is required")
		return
	}
	writeJSON(w, http.StatusOK, s.dispatcher.GetPaperContent(r.Context(), paperID))
}

// getContentByURL handles POST /api/v1/content, converting a PDF at a
// caller-supplied URL without a metadata lookup.
func (s *Server) getContentByURL(w http.ResponseWriter, r *http.Request) {
	var req contentByURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.dispatcher.GetContentByURL(r.Context(), req.PDFURL, req.Filename))
}
