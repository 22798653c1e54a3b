package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/paradise-app/bootstrapper/internal/logger"
)

// ErrDownloadIncomplete is returned when the stream ends before the
// advertised length is reached or errors mid-transfer.
var ErrDownloadIncomplete = errors.New("download incomplete")

// IncompleteError carries transfer progress so an orchestrator can decide
// whether to retry or resume. It wraps ErrDownloadIncomplete.
type IncompleteError struct {
	// BytesReceived is how much was written before the failure.
	BytesReceived int64
	// ExpectedLength is the server-advertised Content-Length, or -1.
	ExpectedLength int64
	// Err is the underlying transfer error, if any.
	Err error
}

// Error implements the error interface.
func (e *IncompleteError) Error() string {
	return fmt.Sprintf("download incomplete: received %d of %d bytes: %v",
		e.BytesReceived, e.ExpectedLength, e.Err)
}

// Unwrap lets errors.Is match ErrDownloadIncomplete.
func (e *IncompleteError) Unwrap() error {
	return ErrDownloadIncomplete
}

// Artifact is a fully received payload sitting in a temporary location.
// It is owned by its creator until handed to the hash verifier; it must
// never reach the installer before verification succeeds.
type Artifact struct {
	// Path is the temporary file holding the payload bytes.
	Path string
	// Size is the number of bytes received.
	Size int64
}

// Remove deletes the artifact's backing file.
func (a *Artifact) Remove() error {
	if a == nil || a.Path == "" {
		return nil
	}

	return os.Remove(a.Path)
}

// Fetcher streams release payloads to temporary files.
// It performs no retries; a failed attempt is terminal for that attempt.
type Fetcher struct {
	httpClient *http.Client
}

// New creates a fetcher over the provided HTTP client.
// A nil httpClient falls back to http.DefaultClient.
func New(httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Fetcher{httpClient: httpClient}
}

// Download streams the payload at url into a fresh temporary file.
// The payload is never held fully in memory. On any failure the partial
// temporary file is deleted before the error is returned, so later stages
// can never observe an incomplete artifact.
func (f *Fetcher) Download(ctx context.Context, url string) (*Artifact, error) {
	logger.InfoKV(ctx, "Downloading release payload", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}

	response, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request payload: %w", err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request payload: %s returned %s", url, response.Status)
	}

	tempFile, err := os.CreateTemp("", "bootstrapper-download-*.zip")
	if err != nil {
		return nil, fmt.Errorf("create temporary file: %w", err)
	}

	received, copyErr := io.Copy(tempFile, response.Body)
	closeErr := tempFile.Close()

	expected := response.ContentLength

	switch {
	case copyErr != nil:
		_ = os.Remove(tempFile.Name())

		return nil, &IncompleteError{BytesReceived: received, ExpectedLength: expected, Err: copyErr}
	case closeErr != nil:
		_ = os.Remove(tempFile.Name())

		return nil, fmt.Errorf("close temporary file: %w", closeErr)
	case expected >= 0 && received != expected:
		_ = os.Remove(tempFile.Name())

		return nil, &IncompleteError{BytesReceived: received, ExpectedLength: expected}
	}

	logger.InfoKV(ctx, "Download complete", "bytes", received, "path", tempFile.Name())

	return &Artifact{Path: tempFile.Name(), Size: received}, nil
}
