package dispatch

import (
	"regexp"
	"strings"
)

// Source ids the classifier can return.
const (
	SourceArxiv    = "arxiv"
	SourceOpenAlex = "openalex"
	SourceOSF      = "osf"
)

var openAlexIDPattern = regexp.MustCompile(`^W\d+$`)

// ClassifyIdentifier guesses which source a bare paper id belongs to.
// OpenAlex ids are a W followed by digits. arXiv ids contain a dot and either
// a version marker or a 4-character YYMM segment before the first dot.
// Everything else is treated as an OSF guid. The heuristic is inherently
// ambiguous for short alphanumeric ids, so it lives here as one pure function
// rather than being re-derived at each call site.
func ClassifyIdentifier(id string) string {
	if openAlexIDPattern.MatchString(id) {
		return SourceOpenAlex
	}
	if dot := strings.Index(id, "."); dot >= 0 {
		if strings.Contains(id, "v") || dot == 4 {
			return SourceArxiv
		}
	}
	return SourceOSF
}
