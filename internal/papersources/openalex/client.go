// Package openalex implements the OpenAlex source adapter. OpenAlex exposes
// the richest filter vocabulary of the three sources, and ships abstracts as
// an inverted index that has to be reconstructed into plain text.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/openscholar/paper-gateway/internal/domain"
	"github.com/openscholar/paper-gateway/internal/papersources"
	"github.com/openscholar/paper-gateway/internal/sanitize"
)

const (
	// DefaultBaseURL is the OpenAlex REST API root.
	DefaultBaseURL = "https://api.openalex.org"

	// IDPrefix is stripped from work ids so callers see bare W-ids.
	IDPrefix = "https://openalex.org/"

	// MaxPerPage is the upstream per_page limit.
	MaxPerPage = 200

	sourceID   = "openalex"
	sourceName = "OpenAlex"

	defaultPerPage = 20

	maxQueryLen    = 500
	maxTitleLen    = 500
	maxAuthorLen   = 200
	maxPubLen      = 200
	maxInstLen     = 200
	maxConceptsLen = 200
)

// Config holds the OpenAlex adapter settings.
type Config struct {
	BaseURL string
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
}

// Client talks to the OpenAlex works API.
type Client struct {
	cfg        Config
	httpClient *papersources.HTTPClient
}

var _ papersources.Source = (*Client)(nil)

// New creates an OpenAlex client. A nil httpClient gets the default 30s
// client.
func New(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()
	if httpClient == nil {
		httpClient = papersources.NewHTTPClient(papersources.HTTPClientConfig{})
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// SourceID returns the stable adapter identifier.
func (c *Client) SourceID() string { return sourceID }

// Name returns the human-readable source name.
func (c *Client) Name() string { return sourceName }

// BuildFilterParam assembles the comma-joined filter= value from the
// field-specific search sub-keys. Returns "" when no filterable field is set.
func BuildFilterParam(filter domain.SearchFilter) string {
	var parts []string
	if filter.Author != "" {
		parts = append(parts, "authors.author_name.search:"+sanitize.CleanMax(filter.Author, maxAuthorLen))
	}
	if filter.Title != "" {
		parts = append(parts, "title.search:"+sanitize.CleanMax(filter.Title, maxTitleLen))
	}
	if filter.Publisher != "" {
		parts = append(parts, "publisher.search:"+sanitize.CleanMax(filter.Publisher, maxPubLen))
	}
	if filter.Institution != "" {
		parts = append(parts, "institutions.institution_name.search:"+sanitize.CleanMax(filter.Institution, maxInstLen))
	}
	if filter.Concepts != "" {
		parts = append(parts, "concepts.display_name.search:"+sanitize.CleanMax(filter.Concepts, maxConceptsLen))
	}
	if filter.Subjects != "" && filter.Concepts == "" {
		// The shared subjects field lands on concepts for this source.
		parts = append(parts, "concepts.display_name.search:"+sanitize.CleanMax(filter.Subjects, maxConceptsLen))
	}
	if filter.DatePublishedGTE != "" {
		parts = append(parts, "publication_date:>"+filter.DatePublishedGTE)
	}
	return strings.Join(parts, ",")
}

// Search queries the works endpoint. Free text goes to search=, every other
// field to the filter= parameter. per_page is clamped to the upstream limit.
func (c *Client) Search(ctx context.Context, filter domain.SearchFilter) (*domain.SearchResult, error) {
	params := url.Values{}
	if filter.Query != "" {
		params.Set("search", sanitize.CleanMax(filter.Query, maxQueryLen))
	}
	if filterParam := BuildFilterParam(filter); filterParam != "" {
		params.Set("filter", filterParam)
	}

	perPage := filter.MaxResults
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	params.Set("per_page", fmt.Sprintf("%d", perPage))
	params.Set("page", fmt.Sprintf("%d", page))

	endpoint := c.cfg.BaseURL + "/works?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.NewUpstreamError(sourceName, 0, err.Error(), err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError(sourceName, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewUpstreamError(sourceName, resp.StatusCode, string(body), nil)
	}

	var works worksResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&works); err != nil {
		return nil, domain.NewParseError(sourceName, err)
	}

	papers := make([]domain.Paper, 0, len(works.Results))
	for _, w := range works.Results {
		papers = append(papers, workToPaper(w))
	}
	return &domain.SearchResult{
		Data: papers,
		Meta: domain.SearchMeta{
			TotalResults: works.Meta.Count,
			Page:         page,
			PerPage:      perPage,
			SearchQuery:  filter.Query,
			NextPage:     works.Meta.NextPage,
		},
	}, nil
}

// GetByID fetches a single work by its W-id.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	endpoint := c.cfg.BaseURL + "/works/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.NewUpstreamError(sourceName, 0, err.Error(), err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError(sourceName, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.NewNotFoundError("work", id)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewUpstreamError(sourceName, resp.StatusCode, string(body), nil)
	}

	var w work
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&w); err != nil {
		return nil, domain.NewParseError(sourceName, err)
	}
	if w.ID == "" {
		return nil, domain.NewNotFoundError("work", id)
	}

	paper := workToPaper(w)
	return &paper, nil
}

func workToPaper(w work) domain.Paper {
	paper := domain.Paper{
		ID:               strings.TrimPrefix(w.ID, IDPrefix),
		DOI:              w.DOI,
		Title:            w.Title,
		Summary:          ReconstructAbstract(w.AbstractInvertedIndex),
		Published:        w.PublicationDate,
		PublicationYear:  w.PublicationYear,
		CitedByCount:     w.CitedByCount,
		OpenAccessStatus: w.OpenAccess.OAStatus,
		Type:             w.Type,
		RelevanceScore:   w.RelevanceScore,
	}
	if paper.Title == "" {
		paper.Title = w.DisplayName
	}
	if paper.OpenAccessStatus == "" {
		paper.OpenAccessStatus = "closed"
	}

	for _, authorship := range w.Authorships {
		if authorship.Author.DisplayName != "" {
			paper.Authors = append(paper.Authors, authorship.Author.DisplayName)
		}
	}
	for _, concept := range w.Concepts {
		if concept.DisplayName != "" {
			paper.Categories = append(paper.Categories, concept.DisplayName)
		}
	}

	if loc := w.PrimaryLocation; loc != nil {
		paper.LandingPageURL = loc.LandingPageURL
		paper.IsOpenAccess = loc.IsOA
		paper.PDFURL = loc.PDFURL
		if loc.Source != nil {
			paper.PrimarySource = loc.Source.DisplayName
		}
	}
	if paper.PDFURL == "" {
		for _, loc := range w.Locations {
			if loc.PDFURL != "" {
				paper.PDFURL = loc.PDFURL
				break
			}
		}
	}
	return paper
}

// ReconstructAbstract rebuilds plain abstract text from OpenAlex's inverted
// index: each word maps to the positions it occupies. Words are emitted in
// ascending position order, joined by single spaces. Reconstruction is best
// effort and fails closed: malformed position values yield an empty string
// because a missing abstract is not an error.
func ReconstructAbstract(index map[string]json.RawMessage) string {
	if len(index) == 0 {
		return ""
	}

	type wordPos struct {
		pos  int
		word string
	}
	var entries []wordPos
	for word, raw := range index {
		var positions []int
		if err := json.Unmarshal(raw, &positions); err != nil {
			return ""
		}
		for _, pos := range positions {
			entries = append(entries, wordPos{pos: pos, word: word})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].pos < entries[j].pos })

	words := make([]string, len(entries))
	for i, entry := range entries {
		words[i] = entry.word
	}
	return strings.Join(words, " ")
}
