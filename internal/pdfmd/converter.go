// Package pdfmd extracts markdown text from PDF documents.
package pdfmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/openscholar/paper-gateway/internal/domain"
)

// Options controls a conversion.
type Options struct {
	// WriteImages requests extraction of embedded images alongside the text.
	// The current extractor is text-only and ignores it.
	WriteImages bool
}

// Converter turns PDF bytes or files into markdown text.
type Converter struct {
	tempDir string
}

// New creates a Converter. An empty tempDir uses the system temp directory.
func New(tempDir string) *Converter {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Converter{tempDir: tempDir}
}

// FromBytes writes data to a uniquely named temp file, converts it, and
// removes the file. Temp names carry a per-call uuid so concurrent requests
// for the same paper never collide on a shared path.
func (c *Converter) FromBytes(data []byte, filename string, opts Options) (string, error) {
	name := uuid.NewString() + "-" + safeFilename(filename)
	path := filepath.Join(c.tempDir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("%w: writing temp file: %v", domain.ErrExtraction, err)
	}
	defer func() { _ = os.Remove(path) }()

	return c.FromPath(path, opts)
}

// FromPath converts the PDF at path into markdown text. Pages that fail text
// extraction are skipped; a document with no extractable text at all is an
// extraction failure.
func (c *Converter) FromPath(path string, _ Options) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	defer func() { _ = f.Close() }()

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("%w: no extractable text", domain.ErrExtraction)
	}
	return b.String(), nil
}

// safeFilename strips path separators and other hostile characters from a
// caller-supplied filename so it can be joined into the temp directory.
func safeFilename(name string) string {
	name = filepath.Base(name)
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		cleaned = "document.pdf"
	}
	return cleaned
}
