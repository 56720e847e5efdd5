// Package dispatch routes search and fetch requests to the right source
// adapter, fans out provider-less searches across all of them, and assembles
// the tagged content envelopes the transport layer returns. Expected failures
// are converted to error values here; callers never see a raw adapter error
// from the content operations.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/openscholar/paper-gateway/internal/domain"
	"github.com/openscholar/paper-gateway/internal/observability"
	"github.com/openscholar/paper-gateway/internal/papersources"
	"github.com/openscholar/paper-gateway/internal/pdf"
	"github.com/openscholar/paper-gateway/internal/pdfmd"
	"github.com/openscholar/paper-gateway/internal/providers"
)

// Dispatcher coordinates the source adapters behind the public operations.
type Dispatcher struct {
	sources    map[string]papersources.Source
	registry   *providers.Registry
	downloader *pdf.Downloader
	converter  *pdfmd.Converter
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// New creates a Dispatcher over the given adapters.
func New(
	registry *providers.Registry,
	downloader *pdf.Downloader,
	converter *pdfmd.Converter,
	logger zerolog.Logger,
	metrics *observability.Metrics,
	sources ...papersources.Source,
) *Dispatcher {
	m := make(map[string]papersources.Source, len(sources))
	for _, s := range sources {
		m[s.SourceID()] = s
	}
	return &Dispatcher{
		sources:    m,
		registry:   registry,
		downloader: downloader,
		converter:  converter,
		logger:     logger,
		metrics:    metrics,
	}
}

// ListProviders returns the combined provider registry.
func (d *Dispatcher) ListProviders(ctx context.Context) (*domain.ProviderList, error) {
	all, err := d.registry.AllProviders(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.ProviderList{Providers: all, TotalCount: len(all)}, nil
}

// Search routes a provider-qualified search to one adapter. The arxiv and
// openalex ids route directly; anything else goes to the OSF adapter, which
// validates the id against the registry and rejects unknown providers.
func (d *Dispatcher) Search(ctx context.Context, filter domain.SearchFilter) (*domain.SearchResult, error) {
	source := d.sourceFor(filter.Provider)
	if filter.Provider == SourceArxiv || filter.Provider == SourceOpenAlex {
		// The provider hint picked the adapter; it is not an OSF filter.
		filter.Provider = ""
	}
	start := time.Now()
	result, err := source.Search(ctx, filter)
	papers := 0
	if result != nil {
		papers = len(result.Data)
	}
	d.metrics.RecordSearch(source.SourceID(), time.Since(start).Seconds(), papers, err)
	return result, err
}

// SearchAll fans a search out to every adapter concurrently. Failures are
// isolated per source: one adapter failing does not abort the others, and
// each outcome is reported in its slot of the result.
func (d *Dispatcher) SearchAll(ctx context.Context, filter domain.SearchFilter) *domain.FanOutResult {
	filter.Provider = ""
	d.metrics.FanOutSearches.Inc()

	type outcome struct {
		source string
		result *domain.SearchResult
		err    error
	}

	resultChan := make(chan outcome, len(d.sources))
	var wg sync.WaitGroup
	for id, source := range d.sources {
		wg.Add(1)
		go func(id string, s papersources.Source) {
			defer wg.Done()
			start := time.Now()
			result, err := s.Search(ctx, filter)
			papers := 0
			if result != nil {
				papers = len(result.Data)
			}
			d.metrics.RecordSearch(id, time.Since(start).Seconds(), papers, err)
			resultChan <- outcome{source: id, result: result, err: err}
		}(id, source)
	}
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	fanOut := &domain.FanOutResult{}
	for out := range resultChan {
		sr := domain.SourceResult{Source: out.source, Result: out.result}
		if out.err != nil {
			d.logger.Warn().Err(out.err).Str("source", out.source).Msg("source search failed")
			sr.Result = nil
			sr.Error = out.err.Error()
		}
		fanOut.Results = append(fanOut.Results, sr)
		fanOut.ProvidersSearched = append(fanOut.ProvidersSearched, out.source)
	}

	// Channel arrival order is nondeterministic.
	sort.Slice(fanOut.Results, func(i, j int) bool {
		return fanOut.Results[i].Source < fanOut.Results[j].Source
	})
	sort.Strings(fanOut.ProvidersSearched)
	return fanOut
}

// GetPaperMetadata classifies the id, then fetches metadata from the matched
// adapter without downloading content.
func (d *Dispatcher) GetPaperMetadata(ctx context.Context, id string) (*domain.Paper, error) {
	sourceID := ClassifyIdentifier(id)
	d.logger.Debug().Str("paper_id", id).Str("source", sourceID).Msg("classified identifier")
	paper, err := d.sourceFor(sourceID).GetByID(ctx, id)
	d.metrics.RecordMetadataFetch(sourceID, err)
	return paper, err
}

// GetPaperContent fetches metadata, downloads the PDF, and converts it to
// markdown. It always returns a value: any failure is degraded to an error
// envelope carrying whatever metadata had been gathered, so the caller
// retains context.
func (d *Dispatcher) GetPaperContent(ctx context.Context, id string) *domain.ContentResult {
	sourceID := ClassifyIdentifier(id)
	d.logger.Debug().Str("paper_id", id).Str("source", sourceID).Msg("classified identifier")

	paper, err := d.sourceFor(sourceID).GetByID(ctx, id)
	if err != nil {
		var missing *domain.MissingDownloadLinkError
		if errors.As(err, &missing) {
			return &domain.ContentResult{
				Status:   domain.StatusError,
				Metadata: missing.Metadata,
				Message:  missing.Error(),
			}
		}
		return &domain.ContentResult{Status: domain.StatusError, Message: err.Error()}
	}

	pdfURL := paper.DownloadURL
	if pdfURL == "" {
		pdfURL = paper.PDFURL
	}
	if pdfURL == "" {
		return &domain.ContentResult{
			Status:   domain.StatusError,
			Metadata: paper,
			Message:  domain.ErrMissingDownloadLink.Error(),
		}
	}

	return d.fetchAndConvert(ctx, pdfURL, id+".pdf", paper)
}

// GetContentByURL downloads and converts a PDF at a caller-supplied URL,
// skipping metadata lookup entirely.
func (d *Dispatcher) GetContentByURL(ctx context.Context, url, filename string) *domain.ContentResult {
	if filename == "" {
		filename = filenameFromURL(url)
	}
	return d.fetchAndConvert(ctx, url, filename, nil)
}

// filenameFromURL derives a conversion filename from the URL's last path
// segment.
func filenameFromURL(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 && idx < len(trimmed)-1 {
		return trimmed[idx+1:]
	}
	return "paper.pdf"
}

func (d *Dispatcher) fetchAndConvert(ctx context.Context, url, filename string, metadata *domain.Paper) *domain.ContentResult {
	downloaded, err := d.downloader.Download(ctx, url)
	if err != nil {
		d.metrics.RecordDownload(0, err)
		d.logger.Warn().Err(err).Str("url", url).Msg("pdf download failed")
		return &domain.ContentResult{
			Status:   domain.StatusError,
			Metadata: metadata,
			PDFURL:   url,
			Message:  fmt.Sprintf("Failed to download PDF: %s", err),
		}
	}
	d.metrics.RecordDownload(downloaded.SizeBytes, nil)

	start := time.Now()
	content, err := d.converter.FromBytes(downloaded.Content, filename, pdfmd.Options{})
	d.metrics.RecordConversion(time.Since(start).Seconds(), err)
	if err != nil {
		d.logger.Warn().Err(err).Str("url", url).Msg("pdf conversion failed")
		return &domain.ContentResult{
			Status:   domain.StatusError,
			Metadata: metadata,
			PDFURL:   url,
			Message:  fmt.Sprintf("Error parsing PDF: %s", err),
		}
	}

	return &domain.ContentResult{
		Status:   domain.StatusSuccess,
		Metadata: metadata,
		Content:  content,
		FileSize: downloaded.SizeBytes,
		PDFURL:   url,
		Message:  fmt.Sprintf("Successfully parsed PDF content (%d bytes)", downloaded.SizeBytes),
	}
}

func (d *Dispatcher) sourceFor(provider string) papersources.Source {
	switch provider {
	case SourceArxiv, SourceOpenAlex:
		return d.sources[provider]
	default:
		return d.sources[SourceOSF]
	}
}
