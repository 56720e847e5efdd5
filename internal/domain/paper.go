// Package domain defines the source-agnostic paper model shared by all
// adapters, the provider descriptors, and the error taxonomy.
package domain

// Paper is the normalized representation of one scholarly work. Fields are
// left empty when a source does not supply them; ID is unique only within the
// namespace of the source that produced it, never globally.
type Paper struct {
	// ID is the source-local identifier (arXiv id, OSF guid, OpenAlex W-id).
	ID string `json:"id"`

	// Title of the work.
	Title string `json:"title"`

	// Summary is the abstract or description text.
	Summary string `json:"summary,omitempty"`

	// Authors holds display names in document order.
	Authors []string `json:"authors,omitempty"`

	// Categories holds subject/category terms (arXiv categories, OSF
	// subjects, OpenAlex concepts all land here in normalized form).
	Categories []string `json:"categories,omitempty"`

	// Published is the publication date as reported by the source
	// (RFC 3339 for arXiv/OSF, YYYY-MM-DD for OpenAlex).
	Published string `json:"published,omitempty"`

	// Updated is the last-modified date as reported by the source.
	Updated string `json:"updated,omitempty"`

	// DOI of the work, when the source reports one.
	DOI string `json:"doi,omitempty"`

	// PDFURL is the direct PDF location, when known.
	PDFURL string `json:"pdf_url,omitempty"`

	// AbstractURL is the landing/abstract page for the work.
	AbstractURL string `json:"abstract_url,omitempty"`

	// DownloadURL is the URL the content pipeline fetches the PDF from.
	// arXiv and OSF report it separately from PDFURL.
	DownloadURL string `json:"download_url,omitempty"`

	// Tags holds free-form keywords (OSF).
	Tags []string `json:"tags,omitempty"`

	// Source-specific extras. Zero values mean "not reported".
	PublicationYear  int     `json:"publication_year,omitempty"`
	CitedByCount     int     `json:"cited_by_count,omitempty"`
	OpenAccessStatus string  `json:"open_access_status,omitempty"`
	IsOpenAccess     bool    `json:"is_open_access,omitempty"`
	IsPublished      bool    `json:"is_published,omitempty"`
	PrimarySource    string  `json:"primary_source,omitempty"`
	LandingPageURL   string  `json:"primary_location_url,omitempty"`
	Type             string  `json:"type,omitempty"`
	RelevanceScore   float64 `json:"relevance_score,omitempty"`
}

// Provider types.
const (
	// ProviderTypeOSF marks providers fetched live from the OSF listing.
	ProviderTypeOSF = "osf"
	// ProviderTypeStandalone marks the compiled-in non-OSF providers.
	ProviderTypeStandalone = "standalone"
)

// Provider describes one paper provider the gateway can search.
type Provider struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	// Taxonomies and Preprints are OSF relationship links; empty for
	// standalone providers.
	Taxonomies string `json:"taxonomies,omitempty"`
	Preprints  string `json:"preprints,omitempty"`
}

// SearchFilter carries the structured search fields. Each adapter consumes
// only the subset its upstream API supports and silently ignores the rest.
type SearchFilter struct {
	// Query is free-text search over title/author/content.
	Query string `json:"query,omitempty"`

	// Provider restricts the search to one provider id.
	Provider string `json:"provider,omitempty"`

	// Subjects filters by subject/category. Adapters map it onto their own
	// vocabulary (arXiv category, OSF subject, OpenAlex concept).
	Subjects string `json:"subjects,omitempty"`

	// Author, Title, Publisher, Institution, Concepts are field-specific
	// search terms; only adapters whose API has a matching field use them.
	Author      string `json:"author,omitempty"`
	Title       string `json:"title,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	Institution string `json:"institution,omitempty"`
	Concepts    string `json:"concepts,omitempty"`

	// DatePublishedGTE filters works published on or after this ISO date
	// (YYYY-MM-DD). Passed through to upstreams unsanitized.
	DatePublishedGTE string `json:"date_published_gte,omitempty" validate:"omitempty,datetime=2006-01-02"`

	// MaxResults limits results per page; adapters clamp to their upstream
	// limit. Zero uses the adapter default.
	MaxResults int `json:"max_results,omitempty" validate:"omitempty,gte=1,lte=200"`

	// Page is the 1-indexed page for page-based upstreams (OpenAlex).
	Page int `json:"page,omitempty" validate:"omitempty,gte=1"`

	// StartIndex is the offset for offset-based upstreams (arXiv).
	StartIndex int `json:"start_index,omitempty" validate:"omitempty,gte=0"`
}

// SearchMeta describes one result page.
type SearchMeta struct {
	TotalResults int    `json:"total_results"`
	Page         int    `json:"page,omitempty"`
	PerPage      int    `json:"per_page,omitempty"`
	StartIndex   int    `json:"start_index,omitempty"`
	MaxResults   int    `json:"max_results,omitempty"`
	SearchQuery  string `json:"search_query,omitempty"`
	// SearchNote carries a human-readable annotation when the adapter had
	// to simplify the search (OSF 400 fallback) or reroute it (trove).
	SearchNote string `json:"search_note,omitempty"`
	NextPage   string `json:"next_page,omitempty"`
}

// SearchResult is the common envelope every adapter search returns.
type SearchResult struct {
	Data []Paper    `json:"data"`
	Meta SearchMeta `json:"meta"`
}

// Result status values for ContentResult.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ContentResult is the tagged value returned by the paper-content operations.
// On error the Metadata field still carries whatever partial metadata had been
// gathered before the failure.
type ContentResult struct {
	Status   string `json:"status"`
	Metadata *Paper `json:"metadata,omitempty"`
	Content  string `json:"content,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
	PDFURL   string `json:"pdf_url,omitempty"`
	Message  string `json:"message"`
}

// SourceResult holds the outcome of one source in a fan-out search. Exactly
// one of Result and Error is set.
type SourceResult struct {
	Source string        `json:"source"`
	Result *SearchResult `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// FanOutResult aggregates per-source outcomes when no provider was requested.
type FanOutResult struct {
	Results           []SourceResult `json:"papers"`
	ProvidersSearched []string       `json:"providers_searched"`
}

// ProviderList is the response shape of the list-providers operation.
type ProviderList struct {
	Providers  []Provider `json:"providers"`
	TotalCount int        `json:"total_count"`
}
