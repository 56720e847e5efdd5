package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openscholar/paper-gateway/internal/dispatch"
	"github.com/openscholar/paper-gateway/internal/domain"
	"github.com/openscholar/paper-gateway/internal/observability"
	"github.com/openscholar/paper-gateway/internal/papersources"
	"github.com/openscholar/paper-gateway/internal/pdf"
	"github.com/openscholar/paper-gateway/internal/pdfmd"
	"github.com/openscholar/paper-gateway/internal/providers"
)

// Shared across the package because promauto registers globally.
var testMetrics = observability.NewMetrics("test_httpserver")

type fakeSource struct {
	id        string
	result    *domain.SearchResult
	paper     *domain.Paper
	searchErr error
	getErr    error
}

func (f *fakeSource) Search(_ context.Context, _ domain.SearchFilter) (*domain.SearchResult, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.result, nil
}

func (f *fakeSource) GetByID(_ context.Context, _ string) (*domain.Paper, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.paper, nil
}

func (f *fakeSource) SourceID() string { return f.id }
func (f *fakeSource) Name() string     { return f.id }

const providerListBody = `{
	"data": [
		{
			"id": "psyarxiv",
			"attributes": {"description": "Psychology preprints"},
			"relationships": {
				"taxonomies": {"links": {"related": {"href": "https://api.osf.io/v2/providers/preprints/psyarxiv/taxonomies/"}}},
				"preprints": {"links": {"related": {"href": "https://api.osf.io/v2/providers/preprints/psyarxiv/preprints/"}}}
			}
		}
	]
}`

func newTestServer(t *testing.T, sources ...papersources.Source) (*Server, *httptest.Server) {
	t.Helper()

	osfAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(providerListBody))
	}))
	t.Cleanup(osfAPI.Close)

	registry := providers.New(osfAPI.URL, papersources.NewHTTPClient(papersources.HTTPClientConfig{}))
	dispatcher := dispatch.New(
		registry,
		pdf.NewDownloader(pdf.Config{AllowPrivateNetworks: true}, nil),
		pdfmd.New(t.TempDir()),
		zerolog.Nop(),
		testMetrics,
		sources...,
	)

	srv := NewServer(Config{Address: "127.0.0.1:0"}, dispatcher, zerolog.Nop())
	return srv, osfAPI
}

func doRequest(t *testing.T, srv *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestCorrelationIDEchoed(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, "corr-123", rec.Header().Get("X-Correlation-ID"))
}

func TestCorrelationIDGenerated(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", nil)

	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestListProviders(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/providers", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var list domain.ProviderList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, len(list.Providers), list.TotalCount)

	ids := make([]string, 0, len(list.Providers))
	for _, p := range list.Providers {
		ids = append(ids, p.ID)
	}
	assert.Contains(t, ids, "psyarxiv")
	assert.Contains(t, ids, "arxiv")
	assert.Contains(t, ids, "openalex")
}

func TestSearchWithProviderRoutes(t *testing.T) {
	arxivSrc := &fakeSource{
		id: "arxiv",
		result: &domain.SearchResult{
			Data: []domain.Paper{{ID: "2407.06405v1", Title: "Attention Survey"}},
			Meta: domain.SearchMeta{TotalResults: 1},
		},
	}
	osfSrc := &fakeSource{id: "osf", result: &domain.SearchResult{}}
	srv, _ := newTestServer(t, arxivSrc, osfSrc)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/search?provider=arxiv&query=attention", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var result domain.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Data, 1)
	assert.Equal(t, "2407.06405v1", result.Data[0].ID)
}

func TestSearchWithoutProviderFansOut(t *testing.T) {
	srv, _ := newTestServer(t,
		&fakeSource{id: "arxiv", result: &domain.SearchResult{Data: []domain.Paper{{ID: "a1"}}}},
		&fakeSource{id: "openalex", searchErr: domain.NewUpstreamError("openalex", 500, "boom", nil)},
		&fakeSource{id: "osf", result: &domain.SearchResult{}},
	)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/search?query=attention", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var result domain.FanOutResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, []string{"arxiv", "openalex", "osf"}, result.ProvidersSearched)
	require.Len(t, result.Results, 3)

	byID := map[string]domain.SourceResult{}
	for _, sr := range result.Results {
		byID[sr.Source] = sr
	}
	assert.Empty(t, byID["arxiv"].Error)
	assert.NotEmpty(t, byID["openalex"].Error)
}

func TestSearchRejectsBadIntegerParam(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSource{id: "osf", result: &domain.SearchResult{}})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/search?max_results=lots", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "max_results")
}

func TestSearchRejectsOutOfRangeMaxResults(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSource{id: "osf", result: &domain.SearchResult{}})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/search?max_results=5000", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchRejectsBadDate(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSource{id: "osf", result: &domain.SearchResult{}})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/search?date_published_gte=March+2023", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchInvalidProviderReturnsValidIDs(t *testing.T) {
	osfSrc := &fakeSource{
		id:        "osf",
		searchErr: domain.NewInvalidProviderError("nope", []string{"arxiv", "openalex", "osf", "psyarxiv"}),
	}
	srv, _ := newTestServer(t, osfSrc)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/search?provider=nope", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "nope")
	assert.Contains(t, body.ValidProviders, "psyarxiv")
}

func TestGetPaperMetadata(t *testing.T) {
	osfSrc := &fakeSource{id: "osf", paper: &domain.Paper{ID: "2stpg", Title: "A Preprint"}}
	srv, _ := newTestServer(t, osfSrc)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/papers/2stpg", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var paper domain.Paper
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paper))
	assert.Equal(t, "A Preprint", paper.Title)
}

func TestGetPaperMetadataNotFound(t *testing.T) {
	osfSrc := &fakeSource{id: "osf", getErr: domain.NewNotFoundError("preprint", "2stpg")}
	srv, _ := newTestServer(t, osfSrc)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/papers/2stpg", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPaperMetadataUpstreamFailure(t *testing.T) {
	osfSrc := &fakeSource{id: "osf", getErr: domain.NewUpstreamError("osf", 503, "unavailable", nil)}
	srv, _ := newTestServer(t, osfSrc)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/papers/2stpg", nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGetPaperMetadataMissingDownloadLinkReturnsPartial(t *testing.T) {
	partial := &domain.Paper{ID: "2stpg", Title: "No File Yet"}
	osfSrc := &fakeSource{id: "osf", getErr: &domain.MissingDownloadLinkError{Metadata: partial}}
	srv, _ := newTestServer(t, osfSrc)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/papers/2stpg", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var paper domain.Paper
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paper))
	assert.Equal(t, "No File Yet", paper.Title)
}

func TestGetPaperContentReportsErrorInEnvelope(t *testing.T) {
	// Paper with no download or PDF URL: the handler still answers 200 and
	// the envelope carries the failure.
	osfSrc := &fakeSource{id: "osf", paper: &domain.Paper{ID: "2stpg", Title: "A Preprint"}}
	srv, _ := newTestServer(t, osfSrc)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/papers/2stpg/content", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var result domain.ContentResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, domain.StatusError, result.Status)
	require.NotNil(t, result.Metadata)
	assert.Equal(t, "A Preprint", result.Metadata.Title)
}

func TestGetContentByURLRejectsMissingURL(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/content", []byte(`{"filename":"x.pdf"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetContentByURLRejectsInvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/content", []byte(`{not json`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "invalid JSON")
}

func TestGetContentByURLDownloadFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer upstream.Close()

	srv, _ := newTestServer(t)

	payload := []byte(`{"pdf_url": "` + upstream.URL + `/paper.pdf"}`)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/content", payload)

	require.Equal(t, http.StatusOK, rec.Code)
	var result domain.ContentResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, domain.StatusError, result.Status)
	assert.Contains(t, result.Message, "download")
}

func TestMetricsEndpointExposed(t *testing.T) {
	osfAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(providerListBody))
	}))
	defer osfAPI.Close()

	registry := providers.New(osfAPI.URL, papersources.NewHTTPClient(papersources.HTTPClientConfig{}))
	dispatcher := dispatch.New(registry, pdf.NewDownloader(pdf.Config{}, nil), pdfmd.New(t.TempDir()), zerolog.Nop(), testMetrics)
	srv := NewServer(Config{Address: "127.0.0.1:0", MetricsEnabled: true, MetricsPath: "/metrics"}, dispatcher, zerolog.Nop())

	rec := doRequest(t, srv, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
