package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested paper does not exist upstream.
	ErrNotFound = errors.New("not found")

	// ErrInvalidProvider indicates an unknown provider id.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrUpstreamRequest indicates a network-level failure calling an
	// external API.
	ErrUpstreamRequest = errors.New("upstream request failed")

	// ErrUpstreamParse indicates a malformed response from an upstream.
	ErrUpstreamParse = errors.New("upstream response parse failed")

	// ErrMissingDownloadLink indicates metadata was fetched but no PDF URL
	// could be located.
	ErrMissingDownloadLink = errors.New("download URL not available")

	// ErrExtraction indicates the PDF-to-markdown conversion failed.
	ErrExtraction = errors.New("extraction failed")
)

// NotFoundError provides details about a missing upstream resource.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// InvalidProviderError is returned when a provider id fails registry
// validation. It always carries the valid-id list so callers can surface a
// correctable message.
type InvalidProviderError struct {
	Provider string
	ValidIDs []string
}

// Error implements the error interface.
func (e *InvalidProviderError) Error() string {
	return fmt.Sprintf("invalid provider: %s. Valid providers: [%s]",
		e.Provider, strings.Join(e.ValidIDs, ", "))
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *InvalidProviderError) Unwrap() error {
	return ErrInvalidProvider
}

// UpstreamError provides details about a failed external API call. A zero
// StatusCode means the request never produced a response (transport error).
type UpstreamError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Source, e.Message)
}

// Unwrap returns the underlying cause when set, else the request sentinel.
func (e *UpstreamError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrUpstreamRequest
}

// ParseError provides details about a malformed upstream response.
type ParseError struct {
	Source string
	Cause  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s response: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ParseError) Unwrap() error {
	return ErrUpstreamParse
}

// MissingDownloadLinkError is returned as a value, not raised through the
// dispatcher, because the partial metadata it carries is still useful.
type MissingDownloadLinkError struct {
	Metadata *Paper
}

// Error implements the error interface.
func (e *MissingDownloadLinkError) Error() string {
	return ErrMissingDownloadLink.Error()
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *MissingDownloadLinkError) Unwrap() error {
	return ErrMissingDownloadLink
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// NewInvalidProviderError creates a new InvalidProviderError.
func NewInvalidProviderError(provider string, validIDs []string) *InvalidProviderError {
	return &InvalidProviderError{Provider: provider, ValidIDs: validIDs}
}

// NewUpstreamError creates a new UpstreamError.
func NewUpstreamError(source string, statusCode int, message string, cause error) *UpstreamError {
	return &UpstreamError{Source: source, StatusCode: statusCode, Message: message, Cause: cause}
}

// NewParseError creates a new ParseError.
func NewParseError(source string, cause error) *ParseError {
	return &ParseError{Source: source, Cause: cause}
}
