// Package papersources defines the adapter contract every paper source
// implements and the shared HTTP plumbing the adapters build on.
//
// Each upstream API (arXiv, OSF, OpenAlex) gets one adapter in its own
// subpackage. An adapter translates the common SearchFilter vocabulary into
// the upstream's request format and parses the upstream's response shape back
// into domain.Paper records, so callers never see a provider-specific shape.
//
// Example usage:
//
//	src := arxiv.New(arxiv.Config{}, httpClient)
//	result, err := src.Search(ctx, domain.SearchFilter{Subjects: "cs.AI"})
package papersources

import (
	"context"

	"github.com/openscholar/paper-gateway/internal/domain"
)

// Source is the interface every paper source adapter implements.
type Source interface {
	// Search queries the source for papers matching the filter. Adapters
	// use only the filter fields their upstream supports and silently
	// ignore the rest.
	Search(ctx context.Context, filter domain.SearchFilter) (*domain.SearchResult, error)

	// GetByID retrieves one paper by its source-local identifier.
	// Returns an error wrapping domain.ErrNotFound when the paper does
	// not exist upstream.
	GetByID(ctx context.Context, id string) (*domain.Paper, error)

	// SourceID returns the provider id this adapter serves ("arxiv",
	// "openalex", "osf").
	SourceID() string

	// Name returns a human-readable name for logging and error messages.
	Name() string
}
