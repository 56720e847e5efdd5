// Package pdf downloads paper PDFs from upstream-provided URLs.
package pdf

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/openscholar/paper-gateway/internal/domain"
	"github.com/openscholar/paper-gateway/internal/papersources"
)

// Sentinel errors for PDF download operations.
var (
	// ErrNotPDF is returned when the response body does not look like a PDF.
	ErrNotPDF = errors.New("pdf: response is not a PDF")
	// ErrTooLarge is returned when the file exceeds the maximum allowed size.
	ErrTooLarge = errors.New("pdf: file exceeds maximum size")
	// ErrSSRF is returned when the URL resolves to a private/internal network address.
	ErrSSRF = errors.New("pdf: request to private network denied")
)

var pdfMagic = []byte("%PDF-")

// Result holds a downloaded PDF.
type Result struct {
	// Content is the PDF bytes.
	Content []byte
	// ContentHash is the SHA-256 hex digest of the content.
	ContentHash string
	// SizeBytes is the size of the content in bytes.
	SizeBytes int64
	// ContentType is the Content-Type header from the response. Informational
	// only; OSF download links redirect through storage backends that report
	// application/octet-stream, so the body magic bytes are what decides.
	ContentType string
}

// Config holds downloader configuration.
type Config struct {
	// MaxSize is the maximum file size in bytes. Default: 100MB.
	MaxSize int64
	// AllowPrivateNetworks disables the private-address checks. For tests
	// against local httptest servers only.
	AllowPrivateNetworks bool
}

// Downloader fetches PDFs over HTTP with the long download timeout. URLs are
// checked against private address ranges because the content-by-URL operation
// accepts caller-supplied URLs.
type Downloader struct {
	httpClient           *papersources.HTTPClient
	maxSize              int64
	allowPrivateNetworks bool
}

// NewDownloader creates a Downloader. A nil httpClient gets a dedicated
// client with the 60s download timeout.
func NewDownloader(cfg Config, httpClient *papersources.HTTPClient) *Downloader {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 100 << 20
	}
	if httpClient == nil {
		httpClient = papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Timeout: papersources.DownloadTimeout,
		})
	}
	return &Downloader{
		httpClient:           httpClient,
		maxSize:              cfg.MaxSize,
		allowPrivateNetworks: cfg.AllowPrivateNetworks,
	}
}

// Download fetches the PDF at rawURL.
// Returns ErrSSRF if the URL resolves to a private network address,
// ErrTooLarge past the size cap, ErrNotPDF when the body lacks the PDF magic
// bytes, and the standard upstream errors for HTTP failures.
func (d *Downloader) Download(ctx context.Context, rawURL string) (*Result, error) {
	if !d.allowPrivateNetworks {
		if err := validateURLNotPrivate(rawURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, domain.NewUpstreamError("pdf download", 0, err.Error(), err)
	}
	req.Header.Set("Accept", "application/pdf, */*;q=0.8")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError("pdf download", 0, err.Error(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, domain.NewNotFoundError("pdf", rawURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.NewUpstreamError("pdf download", resp.StatusCode, http.StatusText(resp.StatusCode), nil)
	}

	// Read one extra byte to detect oversized files.
	content, err := io.ReadAll(io.LimitReader(resp.Body, d.maxSize+1))
	if err != nil {
		return nil, domain.NewUpstreamError("pdf download", 0, err.Error(), err)
	}
	if int64(len(content)) > d.maxSize {
		return nil, fmt.Errorf("%w: exceeded %d bytes", ErrTooLarge, d.maxSize)
	}
	if !bytes.HasPrefix(content, pdfMagic) {
		return nil, fmt.Errorf("%w: Content-Type %q", ErrNotPDF, resp.Header.Get("Content-Type"))
	}

	hash := sha256.Sum256(content)
	return &Result{
		Content:     content,
		ContentHash: hex.EncodeToString(hash[:]),
		SizeBytes:   int64(len(content)),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// validateURLNotPrivate rejects non-HTTP schemes and hostnames that resolve
// to loopback, link-local, or RFC 1918 / ULA addresses.
func validateURLNotPrivate(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSSRF, err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: scheme %q is not allowed", ErrSSRF, parsed.Scheme)
	}

	host := parsed.Hostname()
	ips, err := net.LookupHost(host)
	if err != nil {
		return domain.NewUpstreamError("pdf download", 0, fmt.Sprintf("DNS lookup failed for %s: %v", host, err), err)
	}
	for _, ipStr := range ips {
		ip := net.ParseIP(ipStr)
		if ip == nil {
			continue
		}
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return fmt.Errorf("%w: %s resolves to %s", ErrSSRF, host, ipStr)
		}
	}
	return nil
}
