package openalex

import "encoding/json"

type worksResponse struct {
	Meta    worksMeta `json:"meta"`
	Results []work    `json:"results"`
}

type worksMeta struct {
	Count    int    `json:"count"`
	Page     int    `json:"page"`
	PerPage  int    `json:"per_page"`
	NextPage string `json:"next_page"`
}

type work struct {
	ID              string       `json:"id"`
	DOI             string       `json:"doi"`
	Title           string       `json:"title"`
	DisplayName     string       `json:"display_name"`
	PublicationDate string       `json:"publication_date"`
	PublicationYear int          `json:"publication_year"`
	CitedByCount    int          `json:"cited_by_count"`
	Type            string       `json:"type"`
	RelevanceScore  float64      `json:"relevance_score"`
	Authorships     []authorship `json:"authorships"`
	Concepts        []concept    `json:"concepts"`
	PrimaryLocation *location    `json:"primary_location"`
	Locations       []location   `json:"locations"`
	OpenAccess      openAccess   `json:"open_access"`

	// AbstractInvertedIndex maps each word to its positions in the abstract.
	// Values stay raw because upstream occasionally delivers shapes other
	// than integer lists; reconstruction tolerates those instead of failing
	// the whole decode.
	AbstractInvertedIndex map[string]json.RawMessage `json:"abstract_inverted_index"`
}

type authorship struct {
	Author authorRef `json:"author"`
}

type authorRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type concept struct {
	DisplayName string `json:"display_name"`
}

type location struct {
	PDFURL         string     `json:"pdf_url"`
	LandingPageURL string     `json:"landing_page_url"`
	IsOA           bool       `json:"is_oa"`
	Source         *sourceRef `json:"source"`
}

type sourceRef struct {
	DisplayName string `json:"display_name"`
}

type openAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
}
