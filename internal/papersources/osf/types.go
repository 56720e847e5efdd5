package osf

// JSON:API shapes for the OSF v2 preprints endpoints. Only the fields this
// adapter reads are declared.

type preprintListResponse struct {
	Data  []preprintResource `json:"data"`
	Meta  listMeta           `json:"meta"`
	Links listLinks          `json:"links"`
}

type preprintResponse struct {
	Data preprintResource `json:"data"`
}

type preprintResource struct {
	ID            string                `json:"id"`
	Type          string                `json:"type"`
	Attributes    preprintAttributes    `json:"attributes"`
	Relationships preprintRelationships `json:"relationships"`
	Links         preprintLinks         `json:"links"`
}

type preprintAttributes struct {
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	DateCreated   string           `json:"date_created"`
	DatePublished string           `json:"date_published"`
	DateModified  string           `json:"date_modified"`
	DOI           string           `json:"doi"`
	Tags          []string         `json:"tags"`
	Subjects      [][]subjectEntry `json:"subjects"`
	IsPublished   bool             `json:"is_published"`
}

// Subjects come back as taxonomy paths, each path a list of entries from the
// root subject down to the leaf.
type subjectEntry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type preprintRelationships struct {
	PrimaryFile relationship `json:"primary_file"`
	Provider    relationship `json:"provider"`
}

type relationship struct {
	Links relationshipLinks `json:"links"`
	Data  relationshipData  `json:"data"`
}

type relationshipLinks struct {
	Related relatedLink `json:"related"`
}

type relatedLink struct {
	Href string `json:"href"`
}

type relationshipData struct {
	ID string `json:"id"`
}

type preprintLinks struct {
	Self        string `json:"self"`
	HTML        string `json:"html"`
	PreprintDOI string `json:"preprint_doi"`
}

type listMeta struct {
	Total   int    `json:"total"`
	PerPage int    `json:"per_page"`
	Version string `json:"version"`
}

type listLinks struct {
	First string `json:"first"`
	Next  string `json:"next"`
	Prev  string `json:"prev"`
	Last  string `json:"last"`
}

type fileResponse struct {
	Data fileResource `json:"data"`
}

type fileResource struct {
	ID    string    `json:"id"`
	Links fileLinks `json:"links"`
}

type fileLinks struct {
	Download string `json:"download"`
}

// Trove index-card-search shapes. The endpoint speaks a JSON-LD dialect
// where scalar fields arrive as arrays of {"@value": ...} objects.

type troveResponse struct {
	Data  []troveCard `json:"data"`
	Meta  troveMeta   `json:"meta"`
	Links listLinks   `json:"links"`
}

type troveMeta struct {
	Total int `json:"total"`
}

type troveCard struct {
	ID           string         `json:"@id"`
	Title        []troveValue   `json:"title"`
	Description  []troveValue   `json:"description"`
	DateCreated  []troveValue   `json:"dateCreated"`
	DateAccepted []troveValue   `json:"dateAccepted"`
	DateModified []troveValue   `json:"dateModified"`
	Identifier   []troveValue   `json:"identifier"`
	Keyword      []troveValue   `json:"keyword"`
	Subject      []troveSubject `json:"subject"`
	Publisher    []troveRef     `json:"publisher"`
	Creator      []troveAgent   `json:"creator"`
}

type troveValue struct {
	Value string `json:"@value"`
}

type troveSubject struct {
	PrefLabel []troveValue `json:"prefLabel"`
}

type troveRef struct {
	ID string `json:"@id"`
}

type troveAgent struct {
	Name []troveValue `json:"name"`
}
