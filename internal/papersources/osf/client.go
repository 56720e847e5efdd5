// Package osf implements the OSF preprints source adapter. Filtered searches
// go through the JSON:API preprints endpoint; free-text queries are rerouted
// to the trove index-card search, whose JSON-LD results are normalized into
// the common paper shape.
package osf

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/openscholar/paper-gateway/internal/domain"
	"github.com/openscholar/paper-gateway/internal/papersources"
	"github.com/openscholar/paper-gateway/internal/sanitize"
)

const (
	// DefaultBaseURL is the OSF JSON:API root.
	DefaultBaseURL = "https://api.osf.io/v2"

	// DefaultTroveBaseURL is the root of OSF's full-text search subsystem.
	DefaultTroveBaseURL = "https://share.osf.io/trove"

	sourceID   = "osf"
	sourceName = "OSF Preprints"

	maxProviderLen = 50
	maxSubjectsLen = 100
	maxQueryLen    = 200

	trovePageSize = 20
)

// ProviderValidator validates a provider id against the combined registry.
type ProviderValidator interface {
	Validate(ctx context.Context, id string) (bool, []string, error)
}

// Config holds the OSF adapter settings.
type Config struct {
	BaseURL      string
	TroveBaseURL string
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.TroveBaseURL == "" {
		c.TroveBaseURL = DefaultTroveBaseURL
	}
}

// Client talks to the OSF preprints API.
type Client struct {
	cfg        Config
	registry   ProviderValidator
	httpClient *papersources.HTTPClient
}

var _ papersources.Source = (*Client)(nil)

// New creates an OSF client. A nil httpClient gets the default 30s client.
func New(cfg Config, registry ProviderValidator, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()
	if httpClient == nil {
		httpClient = papersources.NewHTTPClient(papersources.HTTPClientConfig{})
	}
	return &Client{cfg: cfg, registry: registry, httpClient: httpClient}
}

// SourceID returns the stable adapter identifier.
func (c *Client) SourceID() string { return sourceID }

// Name returns the human-readable source name.
func (c *Client) Name() string { return sourceName }

// Search fetches preprints matching the filter. A non-empty Query reroutes
// the call to trove; otherwise the JSON:API filter parameters are used. The
// OSF API only supports provider, subjects, and date_published filters.
func (c *Client) Search(ctx context.Context, filter domain.SearchFilter) (*domain.SearchResult, error) {
	if filter.Provider != "" && c.registry != nil {
		ok, validIDs, err := c.registry.Validate(ctx, filter.Provider)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.NewInvalidProviderError(filter.Provider, validIDs)
		}
	}

	if filter.Query != "" {
		return c.searchTrove(ctx, filter)
	}

	params := url.Values{}
	if filter.Provider != "" {
		params.Set("filter[provider]", sanitize.CleanMax(filter.Provider, maxProviderLen))
	}
	if filter.Subjects != "" {
		params.Set("filter[subjects]", sanitize.CleanMax(filter.Subjects, maxSubjectsLen))
	}
	if filter.DatePublishedGTE != "" {
		// Dates are assumed ISO already and passed through untouched.
		params.Set("filter[date_published][gte]", filter.DatePublishedGTE)
	}

	list, status, err := c.fetchPreprintList(ctx, params)
	if err == nil {
		return c.listToResult(list, ""), nil
	}

	// The OSF API rejects some filter combinations with a 400. Retry once
	// with the provider filter alone so the caller at least gets something,
	// and record the simplification in meta.
	if status == http.StatusBadRequest && len(params) > 1 && filter.Provider != "" {
		retry := url.Values{}
		retry.Set("filter[provider]", sanitize.CleanMax(filter.Provider, maxProviderLen))
		if list, _, retryErr := c.fetchPreprintList(ctx, retry); retryErr == nil {
			note := fmt.Sprintf(
				"Original search failed (400 error), showing all results for provider %q. You may need to filter results manually.",
				filter.Provider)
			return c.listToResult(list, note), nil
		}
	}
	return nil, err
}

// fetchPreprintList issues one GET against /preprints/ and decodes the
// JSON:API list envelope. The HTTP status is returned alongside the error so
// Search can recognize a 400.
func (c *Client) fetchPreprintList(ctx context.Context, params url.Values) (*preprintListResponse, int, error) {
	endpoint := c.cfg.BaseURL + "/preprints/"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, domain.NewUpstreamError(sourceName, 0, err.Error(), err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, domain.NewUpstreamError(sourceName, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, resp.StatusCode, domain.NewUpstreamError(sourceName, resp.StatusCode, string(body), nil)
	}

	var list preprintListResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&list); err != nil {
		return nil, resp.StatusCode, domain.NewParseError(sourceName, err)
	}
	return &list, resp.StatusCode, nil
}

func (c *Client) listToResult(list *preprintListResponse, note string) *domain.SearchResult {
	papers := make([]domain.Paper, 0, len(list.Data))
	for _, res := range list.Data {
		papers = append(papers, resourceToPaper(res))
	}
	total := list.Meta.Total
	if total == 0 {
		total = len(papers)
	}
	return &domain.SearchResult{
		Data: papers,
		Meta: domain.SearchMeta{
			TotalResults: total,
			PerPage:      list.Meta.PerPage,
			SearchNote:   note,
			NextPage:     list.Links.Next,
		},
	}
}

func resourceToPaper(res preprintResource) domain.Paper {
	attrs := res.Attributes
	return domain.Paper{
		ID:          res.ID,
		Title:       attrs.Title,
		Summary:     attrs.Description,
		Categories:  flattenSubjects(attrs.Subjects),
		Published:   attrs.DatePublished,
		Updated:     attrs.DateModified,
		DOI:         attrs.DOI,
		Tags:        attrs.Tags,
		IsPublished: attrs.IsPublished,
		AbstractURL: res.Links.HTML,
	}
}

// flattenSubjects collapses taxonomy paths to a deduplicated list of subject
// names, preserving first-seen order.
func flattenSubjects(paths [][]subjectEntry) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, path := range paths {
		for _, entry := range path {
			if entry.Text == "" {
				continue
			}
			if _, ok := seen[entry.Text]; ok {
				continue
			}
			seen[entry.Text] = struct{}{}
			out = append(out, entry.Text)
		}
	}
	return out
}

// searchTrove runs a full-text search over preprints and normalizes the
// JSON-LD cards into the standard envelope. When a provider is set, results
// are post-filtered client-side: trove cannot filter by provider, but each
// card's publisher URL embeds the provider id.
func (c *Client) searchTrove(ctx context.Context, filter domain.SearchFilter) (*domain.SearchResult, error) {
	params := url.Values{}
	params.Set("cardSearchFilter[resourceType]", "Preprint")
	params.Set("cardSearchText[*,creator.name,isContainedBy.creator.name]",
		sanitize.CleanMax(filter.Query, maxQueryLen))
	params.Set("page[size]", fmt.Sprintf("%d", trovePageSize))
	params.Set("sort", "-relevance")

	endpoint := c.cfg.TroveBaseURL + "/index-card-search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.NewUpstreamError(sourceName, 0, err.Error(), err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError(sourceName, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewUpstreamError(sourceName, resp.StatusCode, string(body), nil)
	}

	var trove troveResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&trove); err != nil {
		return nil, domain.NewParseError(sourceName, err)
	}

	papers := make([]domain.Paper, 0, len(trove.Data))
	for _, card := range trove.Data {
		if filter.Provider != "" && !cardMatchesProvider(card, filter.Provider) {
			continue
		}
		papers = append(papers, cardToPaper(card))
	}

	total := trove.Meta.Total
	if total == 0 {
		total = len(papers)
	}
	return &domain.SearchResult{
		Data: papers,
		Meta: domain.SearchMeta{
			TotalResults: total,
			PerPage:      trovePageSize,
			SearchNote:   fmt.Sprintf("Results from trove search for query: %q", filter.Query),
			NextPage:     trove.Links.Next,
		},
	}, nil
}

// cardMatchesProvider reports whether a trove card belongs to the provider.
// The publisher @id is a URL such as https://osf.io/preprints/psyarxiv, so a
// substring check is enough. Cards with no publisher are dropped.
func cardMatchesProvider(card troveCard, providerID string) bool {
	if len(card.Publisher) == 0 {
		return false
	}
	return strings.Contains(card.Publisher[0].ID, providerID)
}

func cardToPaper(card troveCard) domain.Paper {
	paper := domain.Paper{
		ID:          osfIDFromIRI(card.ID),
		Title:       firstValue(card.Title),
		Summary:     firstValue(card.Description),
		Published:   firstValue(card.DateAccepted),
		Updated:     firstValue(card.DateModified),
		DOI:         doiFromIdentifiers(card.Identifier),
		AbstractURL: card.ID,
	}
	for _, kw := range card.Keyword {
		if kw.Value != "" {
			paper.Tags = append(paper.Tags, kw.Value)
		}
	}
	for _, subj := range card.Subject {
		if label := firstValue(subj.PrefLabel); label != "" {
			paper.Categories = append(paper.Categories, label)
		}
	}
	for _, creator := range card.Creator {
		if name := firstValue(creator.Name); name != "" {
			paper.Authors = append(paper.Authors, name)
		}
	}
	return paper
}

// osfIDFromIRI extracts the short guid from an osf.io IRI. Cards whose @id is
// not an osf.io URL yield an empty id.
func osfIDFromIRI(iri string) string {
	if !strings.Contains(iri, "osf.io/") {
		return ""
	}
	trimmed := strings.TrimSuffix(iri, "/")
	return trimmed[strings.LastIndex(trimmed, "/")+1:]
}

func firstValue(values []troveValue) string {
	if len(values) == 0 {
		return ""
	}
	return values[0].Value
}

// doiFromIdentifiers scans an identifier list for the first value that looks
// like a DOI, either a doi.org URL or a bare 10.-prefixed string.
func doiFromIdentifiers(identifiers []troveValue) string {
	for _, id := range identifiers {
		if strings.Contains(id.Value, "doi.org") || strings.HasPrefix(id.Value, "10.") {
			return id.Value
		}
	}
	return ""
}

// GetByID fetches one preprint's metadata plus its primary file's download
// link. The download link takes a second HTTP call, following the primary_file
// relationship to the file resource. A missing download link is reported via
// MissingDownloadLinkError, which carries the metadata gathered so far.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	endpoint := c.cfg.BaseURL + "/preprints/" + url.PathEscape(id) + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.NewUpstreamError(sourceName, 0, err.Error(), err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError(sourceName, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, domain.NewNotFoundError("preprint", id)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewUpstreamError(sourceName, resp.StatusCode, string(body), nil)
	}

	var preprint preprintResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&preprint); err != nil {
		return nil, domain.NewParseError(sourceName, err)
	}

	paper := resourceToPaper(preprint.Data)
	paper.ID = id

	fileHref := preprint.Data.Relationships.PrimaryFile.Links.Related.Href
	if fileHref == "" {
		return nil, &domain.MissingDownloadLinkError{Metadata: &paper}
	}

	downloadURL, err := c.fetchDownloadURL(ctx, fileHref)
	if err != nil {
		return nil, err
	}
	if downloadURL == "" {
		return nil, &domain.MissingDownloadLinkError{Metadata: &paper}
	}
	paper.DownloadURL = downloadURL
	return &paper, nil
}

func (c *Client) fetchDownloadURL(ctx context.Context, fileHref string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileHref, nil)
	if err != nil {
		return "", domain.NewUpstreamError(sourceName, 0, err.Error(), err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.NewUpstreamError(sourceName, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return "", domain.NewUpstreamError(sourceName, resp.StatusCode, string(body), nil)
	}

	var file fileResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&file); err != nil {
		return "", domain.NewParseError(sourceName, err)
	}
	return file.Data.Links.Download, nil
}
