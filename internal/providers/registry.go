// Package providers knows the full set of paper providers the gateway can
// route to: the fixed compiled-in standalone providers plus the OSF preprint
// providers, which are fetched live on every query so remote additions and
// removals are reflected immediately. There is no caching; each validation
// costs one network round trip.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/openscholar/paper-gateway/internal/domain"
	"github.com/openscholar/paper-gateway/internal/papersources"
)

// DefaultOSFBaseURL is the OSF JSON:API base URL.
const DefaultOSFBaseURL = "https://api.osf.io/v2"

const sourceName = "OSF"

// Registry resolves and validates provider ids.
type Registry struct {
	baseURL    string
	httpClient *papersources.HTTPClient
}

// New creates a Registry. An empty baseURL selects the public OSF API.
func New(baseURL string, httpClient *papersources.HTTPClient) *Registry {
	if baseURL == "" {
		baseURL = DefaultOSFBaseURL
	}
	return &Registry{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// providerListResponse mirrors the OSF preprint_providers listing shape.
type providerListResponse struct {
	Data []providerEntry `json:"data"`
}

type providerEntry struct {
	ID         string `json:"id"`
	Attributes struct {
		Description string `json:"description"`
	} `json:"attributes"`
	Relationships struct {
		Taxonomies relationshipLink `json:"taxonomies"`
		Preprints  relationshipLink `json:"preprints"`
	} `json:"relationships"`
}

type relationshipLink struct {
	Links struct {
		Related struct {
			Href string `json:"href"`
		} `json:"related"`
	} `json:"links"`
}

// FetchOSFProviders fetches the current OSF preprint provider list, sorted
// ascending by id (case-sensitive).
func (r *Registry) FetchOSFProviders(ctx context.Context) ([]domain.Provider, error) {
	url := r.baseURL + "/preprint_providers/"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError(sourceName, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewUpstreamError(sourceName, resp.StatusCode, string(body), nil)
	}

	var listing providerListResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&listing); err != nil {
		return nil, domain.NewParseError(sourceName, err)
	}

	providers := make([]domain.Provider, 0, len(listing.Data))
	for _, entry := range listing.Data {
		providers = append(providers, domain.Provider{
			ID:          entry.ID,
			Type:        domain.ProviderTypeOSF,
			Description: entry.Attributes.Description,
			Taxonomies:  entry.Relationships.Taxonomies.Links.Related.Href,
			Preprints:   entry.Relationships.Preprints.Links.Related.Href,
		})
	}

	sort.Slice(providers, func(i, j int) bool {
		return providers[i].ID < providers[j].ID
	})

	return providers, nil
}

// ExternalProviders returns the fixed compiled-in non-OSF providers.
func (r *Registry) ExternalProviders() []domain.Provider {
	return []domain.Provider{
		{
			ID:          "arxiv",
			Type:        domain.ProviderTypeStandalone,
			Description: "arXiv is a free distribution service and an open-access archive for scholarly articles in physics, mathematics, computer science, quantitative biology, quantitative finance, statistics, electrical engineering and systems science, and economics.",
		},
		{
			ID:          "openalex",
			Type:        domain.ProviderTypeStandalone,
			Description: "OpenAlex is a comprehensive index of scholarly works across all disciplines.",
		},
	}
}

// AllProviders returns the combined OSF and standalone provider list,
// re-sorted ascending by lowercased id.
func (r *Registry) AllProviders(ctx context.Context) ([]domain.Provider, error) {
	osfProviders, err := r.FetchOSFProviders(ctx)
	if err != nil {
		return nil, err
	}

	all := append(osfProviders, r.ExternalProviders()...)
	sort.Slice(all, func(i, j int) bool {
		return strings.ToLower(all[i].ID) < strings.ToLower(all[j].ID)
	})

	return all, nil
}

// Validate reports whether id names a known provider. Unknown ids yield
// false, never an error; the returned id list lets callers build a
// correctable error message. The error is non-nil only when the live OSF
// listing could not be fetched.
func (r *Registry) Validate(ctx context.Context, id string) (bool, []string, error) {
	all, err := r.AllProviders(ctx)
	if err != nil {
		return false, nil, err
	}

	validIDs := make([]string, len(all))
	for i, p := range all {
		validIDs[i] = p.ID
	}

	for _, validID := range validIDs {
		if validID == id {
			return true, validIDs, nil
		}
	}
	return false, validIDs, nil
}
