package pdf

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openscholar/paper-gateway/internal/domain"
)

const fakePDF = "%PDF-1.4\n1 0 obj\n<< >>\nendobj\ntrailer\n%%EOF"

func newTestDownloader(t *testing.T, handler http.Handler, maxSize int64) (*Downloader, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	d := NewDownloader(Config{MaxSize: maxSize, AllowPrivateNetworks: true}, nil)
	return d, server
}

func TestDownload(t *testing.T) {
	d, server := newTestDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte(fakePDF))
	}), 0)

	result, err := d.Download(context.Background(), server.URL+"/paper.pdf")
	require.NoError(t, err)

	assert.Equal(t, []byte(fakePDF), result.Content)
	assert.Equal(t, int64(len(fakePDF)), result.SizeBytes)
	assert.Len(t, result.ContentHash, 64)
}

func TestDownloadOctetStreamStillAccepted(t *testing.T) {
	d, server := newTestDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte(fakePDF))
	}), 0)

	_, err := d.Download(context.Background(), server.URL)
	assert.NoError(t, err, "magic bytes decide, not the content type")
}

func TestDownloadNotPDF(t *testing.T) {
	d, server := newTestDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>not a pdf</html>"))
	}), 0)

	_, err := d.Download(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestDownloadTooLarge(t *testing.T) {
	d, server := newTestDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-" + strings.Repeat("a", 1024)))
	}), 64)

	_, err := d.Download(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDownloadNotFound(t *testing.T) {
	d, server := newTestDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}), 0)

	_, err := d.Download(context.Background(), server.URL)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDownloadUpstreamError(t *testing.T) {
	d, server := newTestDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}), 0)

	_, err := d.Download(context.Background(), server.URL)
	assert.ErrorIs(t, err, domain.ErrUpstreamRequest)
}

func TestDownloadBlocksPrivateAddresses(t *testing.T) {
	d := NewDownloader(Config{}, nil)

	_, err := d.Download(context.Background(), "http://127.0.0.1:9999/paper.pdf")
	assert.ErrorIs(t, err, ErrSSRF)

	_, err = d.Download(context.Background(), "file:///etc/passwd")
	assert.ErrorIs(t, err, ErrSSRF)
}
