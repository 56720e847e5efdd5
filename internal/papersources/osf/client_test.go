package osf

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openscholar/paper-gateway/internal/domain"
)

type stubRegistry struct {
	known map[string]bool
	ids   []string
}

func (s *stubRegistry) Validate(_ context.Context, id string) (bool, []string, error) {
	if s.known[id] {
		return true, nil, nil
	}
	return false, s.ids, nil
}

func newTestRegistry() *stubRegistry {
	return &stubRegistry{
		known: map[string]bool{"psyarxiv": true, "socarxiv": true, "osf": true},
		ids:   []string{"arxiv", "openalex", "osf", "psyarxiv", "socarxiv"},
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{
		BaseURL:      server.URL,
		TroveBaseURL: server.URL + "/trove",
	}, newTestRegistry(), nil)
}

const preprintListBody = `{
  "data": [
    {
      "id": "2stpg",
      "type": "preprints",
      "attributes": {
        "title": "A Study of Things",
        "description": "We looked at things.",
        "date_published": "2023-05-01T00:00:00",
        "date_modified": "2023-06-01T00:00:00",
        "doi": "10.31234/osf.io/2stpg",
        "tags": ["things", "studies"],
        "subjects": [[{"id": "s1", "text": "Social Sciences"}, {"id": "s2", "text": "Psychology"}]],
        "is_published": true
      },
      "links": {"html": "https://osf.io/2stpg/"}
    }
  ],
  "meta": {"total": 1, "per_page": 10, "version": "2.0"},
  "links": {"next": ""}
}`

func TestSearchBuildsFilterParams(t *testing.T) {
	var gotQuery map[string][]string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/preprints/", r.URL.Path)
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(preprintListBody))
	}))

	result, err := client.Search(context.Background(), domain.SearchFilter{
		Provider:         "psyarxiv",
		Subjects:         "psychology",
		DatePublishedGTE: "2023-01-01",
	})
	require.NoError(t, err)

	assert.Equal(t, "psyarxiv", gotQuery["filter[provider]"][0])
	assert.Equal(t, "psychology", gotQuery["filter[subjects]"][0])
	assert.Equal(t, "2023-01-01", gotQuery["filter[date_published][gte]"][0])

	require.Len(t, result.Data, 1)
	paper := result.Data[0]
	assert.Equal(t, "2stpg", paper.ID)
	assert.Equal(t, "A Study of Things", paper.Title)
	assert.Equal(t, []string{"Social Sciences", "Psychology"}, paper.Categories)
	assert.Equal(t, []string{"things", "studies"}, paper.Tags)
	assert.True(t, paper.IsPublished)
	assert.Equal(t, 1, result.Meta.TotalResults)
	assert.Empty(t, result.Meta.SearchNote)
}

func TestSearchInvalidProvider(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream must not be called for an invalid provider")
	}))

	_, err := client.Search(context.Background(), domain.SearchFilter{Provider: "not-a-real-provider"})
	require.ErrorIs(t, err, domain.ErrInvalidProvider)

	var invalidErr *domain.InvalidProviderError
	require.True(t, errors.As(err, &invalidErr))
	assert.Contains(t, invalidErr.ValidIDs, "psyarxiv")
}

func TestSearchBadRequestFallback(t *testing.T) {
	var calls []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.RawQuery)
		if r.URL.Query().Has("filter[subjects]") {
			http.Error(w, `{"errors":[{"detail":"bad filter"}]}`, http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(preprintListBody))
	}))

	result, err := client.Search(context.Background(), domain.SearchFilter{
		Provider: "psyarxiv",
		Subjects: "psychology",
	})
	require.NoError(t, err)

	require.Len(t, calls, 2, "a 400 with multiple filters retries once with provider only")
	assert.NotEmpty(t, result.Meta.SearchNote)
	assert.Contains(t, result.Meta.SearchNote, "psyarxiv")
	require.Len(t, result.Data, 1)
}

func TestSearchBadRequestSingleFilterNoRetry(t *testing.T) {
	var calls int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))

	_, err := client.Search(context.Background(), domain.SearchFilter{Provider: "psyarxiv"})
	require.ErrorIs(t, err, domain.ErrUpstreamRequest)
	assert.Equal(t, 1, calls)
}

const troveBody = `{
  "data": [
    {
      "@id": "https://osf.io/2stpg",
      "title": [{"@value": "Trove Result"}],
      "description": [{"@value": "Found via full-text search."}],
      "dateAccepted": [{"@value": "2023-05-01"}],
      "dateModified": [{"@value": "2023-06-01"}],
      "identifier": [{"@value": "https://osf.io/2stpg"}, {"@value": "https://doi.org/10.31234/osf.io/2stpg"}],
      "keyword": [{"@value": "cognition"}],
      "subject": [{"prefLabel": [{"@value": "Psychology"}]}],
      "publisher": [{"@id": "https://osf.io/preprints/psyarxiv"}],
      "creator": [{"name": [{"@value": "Alice Smith"}]}]
    },
    {
      "@id": "https://osf.io/zzzzz",
      "title": [{"@value": "Other Provider Result"}],
      "publisher": [{"@id": "https://osf.io/preprints/socarxiv"}]
    }
  ],
  "meta": {"total": 2},
  "links": {"next": ""}
}`

func TestSearchQueryUsesTrove(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/trove/index-card-search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Preprint", q.Get("cardSearchFilter[resourceType]"))
		assert.Equal(t, "memory consolidation", q.Get("cardSearchText[*,creator.name,isContainedBy.creator.name]"))
		_, _ = w.Write([]byte(troveBody))
	}))

	result, err := client.Search(context.Background(), domain.SearchFilter{Query: "memory consolidation"})
	require.NoError(t, err)

	require.Len(t, result.Data, 2)
	paper := result.Data[0]
	assert.Equal(t, "2stpg", paper.ID)
	assert.Equal(t, "Trove Result", paper.Title)
	assert.Equal(t, "https://doi.org/10.31234/osf.io/2stpg", paper.DOI)
	assert.Equal(t, []string{"cognition"}, paper.Tags)
	assert.Equal(t, []string{"Psychology"}, paper.Categories)
	assert.Equal(t, []string{"Alice Smith"}, paper.Authors)
	assert.NotEmpty(t, result.Meta.SearchNote)
}

func TestSearchTroveProviderPostFilter(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(troveBody))
	}))

	result, err := client.Search(context.Background(), domain.SearchFilter{
		Query:    "memory",
		Provider: "psyarxiv",
	})
	require.NoError(t, err)

	require.Len(t, result.Data, 1, "cards from other publishers are dropped, not errored")
	assert.Equal(t, "2stpg", result.Data[0].ID)
}

const preprintDetailBody = `{
  "data": {
    "id": "2stpg",
    "type": "preprints",
    "attributes": {
      "title": "A Study of Things",
      "description": "We looked at things.",
      "date_published": "2023-05-01T00:00:00",
      "is_published": true
    },
    "relationships": {
      "primary_file": {"links": {"related": {"href": "BASE/files/abc123/"}}}
    },
    "links": {"html": "https://osf.io/2stpg/"}
  }
}`

const fileDetailBody = `{
  "data": {
    "id": "abc123",
    "links": {"download": "https://osf.io/download/abc123/"}
  }
}`

func TestGetByID(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/preprints/2stpg/", func(w http.ResponseWriter, r *http.Request) {
		body := preprintDetailBody
		_, _ = w.Write([]byte(replaceBase(body, server.URL)))
	})
	mux.HandleFunc("/files/abc123/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fileDetailBody))
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := New(Config{BaseURL: server.URL}, newTestRegistry(), nil)

	paper, err := client.GetByID(context.Background(), "2stpg")
	require.NoError(t, err)

	assert.Equal(t, "2stpg", paper.ID)
	assert.Equal(t, "A Study of Things", paper.Title)
	assert.Equal(t, "https://osf.io/download/abc123/", paper.DownloadURL)
}

func TestGetByIDNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := client.GetByID(context.Background(), "nope1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetByIDMissingDownloadLink(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/preprints/2stpg/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(replaceBase(preprintDetailBody, server.URL)))
	})
	mux.HandleFunc("/files/abc123/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"id": "abc123", "links": {}}}`))
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := New(Config{BaseURL: server.URL}, newTestRegistry(), nil)

	_, err := client.GetByID(context.Background(), "2stpg")
	require.ErrorIs(t, err, domain.ErrMissingDownloadLink)

	var missingErr *domain.MissingDownloadLinkError
	require.True(t, errors.As(err, &missingErr))
	require.NotNil(t, missingErr.Metadata, "partial metadata must survive the failure")
	assert.Equal(t, "A Study of Things", missingErr.Metadata.Title)
}

func replaceBase(body, base string) string {
	return strings.ReplaceAll(body, "BASE", base)
}
