package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/openscholar/paper-gateway/internal/domain"
	"github.com/openscholar/paper-gateway/internal/papersources"
	"github.com/openscholar/paper-gateway/internal/sanitize"
)

const (
	// DefaultBaseURL is the arXiv query API base URL.
	DefaultBaseURL = "http://export.arxiv.org/api"

	// DefaultPDFBaseURL is where paper PDFs are served from.
	DefaultPDFBaseURL = "https://arxiv.org/pdf"

	// MaxSearchResults is the upstream per-request limit; caller requests
	// are clamped to it.
	MaxSearchResults = 20

	// sourceID is the provider id this adapter serves.
	sourceID = "arxiv"

	// sourceName is the human-readable name for this source.
	sourceName = "arXiv"
)

// Per-field sanitizer length limits for query construction.
const (
	maxQueryLen    = 200
	maxCategoryLen = 50
	maxAuthorLen   = 100
	maxTitleLen    = 200
)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv query API base URL.
	BaseURL string

	// PDFBaseURL is the base URL for direct PDF downloads and existence
	// checks.
	PDFBaseURL string
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.PDFBaseURL == "" {
		c.PDFBaseURL = DefaultPDFBaseURL
	}
}

// Client implements the papersources.Source interface for arXiv.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Ensure Client implements the Source interface.
var _ papersources.Source = (*Client)(nil)

// New creates a new arXiv client with the given configuration.
func New(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()
	if httpClient == nil {
		httpClient = papersources.NewHTTPClient(papersources.HTTPClientConfig{})
	}
	return &Client{config: cfg, httpClient: httpClient}
}

// Search queries arXiv for papers matching the filter. Only the query,
// subjects (mapped onto cat:), author, title, max_results, and start_index
// fields are consumed.
func (c *Client) Search(ctx context.Context, filter domain.SearchFilter) (*domain.SearchResult, error) {
	searchQuery := BuildSearchQuery(filter)

	maxResults := filter.MaxResults
	if maxResults <= 0 {
		maxResults = MaxSearchResults
	}
	clamped := maxResults
	if clamped > MaxSearchResults {
		clamped = MaxSearchResults
	}

	query := url.Values{}
	query.Set("search_query", searchQuery)
	query.Set("start", strconv.Itoa(filter.StartIndex))
	query.Set("max_results", strconv.Itoa(clamped))

	feed, err := c.fetchFeed(ctx, query)
	if err != nil {
		return nil, err
	}

	papers := make([]domain.Paper, 0, len(feed.Entries))
	for i := range feed.Entries {
		papers = append(papers, entryToPaper(&feed.Entries[i]))
	}

	return &domain.SearchResult{
		Data: papers,
		Meta: domain.SearchMeta{
			TotalResults: len(papers),
			StartIndex:   filter.StartIndex,
			MaxResults:   maxResults,
			SearchQuery:  searchQuery,
		},
	}, nil
}

// GetByID retrieves a single paper by its arXiv id. The paper's existence is
// probed with a HEAD request against its direct PDF URL before any metadata
// call; a non-200 probe is a not-found.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	pdfURL := strings.TrimRight(c.config.PDFBaseURL, "/") + "/" + id

	if err := c.checkExists(ctx, pdfURL, id); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("id_list", id)

	feed, err := c.fetchFeed(ctx, query)
	if err != nil {
		return nil, err
	}

	if len(feed.Entries) == 0 || feed.Entries[0].ID == "" {
		return nil, domain.NewNotFoundError("arXiv paper", id)
	}

	paper := entryToPaper(&feed.Entries[0])
	paper.DownloadURL = pdfURL
	return &paper, nil
}

// SourceID returns the provider id this adapter serves.
func (c *Client) SourceID() string {
	return sourceID
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// BuildSearchQuery assembles the boolean search expression from the filter's
// optional fields. Each value is sanitized with its field-specific length
// limit; with no fields set the query matches everything.
func BuildSearchQuery(filter domain.SearchFilter) string {
	var parts []string

	if filter.Query != "" {
		parts = append(parts, "all:"+sanitize.CleanMax(filter.Query, maxQueryLen))
	}
	if filter.Subjects != "" {
		parts = append(parts, "cat:"+sanitize.CleanMax(filter.Subjects, maxCategoryLen))
	}
	if filter.Author != "" {
		parts = append(parts, "au:"+sanitize.CleanMax(filter.Author, maxAuthorLen))
	}
	if filter.Title != "" {
		parts = append(parts, "ti:"+sanitize.CleanMax(filter.Title, maxTitleLen))
	}

	if len(parts) == 0 {
		return "all:*"
	}
	return strings.Join(parts, " AND ")
}

// checkExists issues the bounded HEAD existence probe.
func (c *Client) checkExists(ctx context.Context, pdfURL, id string) error {
	probeCtx, cancel := context.WithTimeout(ctx, papersources.ExistenceCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, pdfURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewUpstreamError(sourceName, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewNotFoundError("arXiv paper", id)
	}
	return nil
}

// fetchFeed calls the query endpoint and decodes the Atom feed.
func (c *Client) fetchFeed(ctx context.Context, query url.Values) (*Feed, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"
	baseURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError(sourceName, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewUpstreamError(sourceName, resp.StatusCode, string(body), nil)
	}

	var feed Feed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&feed); err != nil {
		return nil, domain.NewParseError(sourceName, err)
	}
	return &feed, nil
}

// entryToPaper converts an arXiv Atom entry to a domain Paper.
func entryToPaper(entry *Entry) domain.Paper {
	// The entry id is a URL like http://arxiv.org/abs/2301.12345v1; the
	// paper id is its last path segment.
	id := entry.ID
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		id = id[idx+1:]
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	categories := make([]string, 0, len(entry.Categories))
	for _, cat := range entry.Categories {
		if cat.Term != "" {
			categories = append(categories, cat.Term)
		}
	}

	var pdfURL, abstractURL string
	for _, link := range entry.Links {
		switch {
		case link.Type == "application/pdf":
			pdfURL = link.Href
		case link.Rel == "alternate":
			abstractURL = link.Href
		}
	}

	return domain.Paper{
		ID:          id,
		Title:       strings.TrimSpace(entry.Title),
		Summary:     strings.TrimSpace(entry.Summary),
		Authors:     authors,
		Categories:  categories,
		Published:   entry.Published,
		Updated:     entry.Updated,
		DOI:         entry.DOI,
		PDFURL:      pdfURL,
		AbstractURL: abstractURL,
	}
}
