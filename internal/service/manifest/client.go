package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/paradise-app/bootstrapper/internal/domain/release"
	"github.com/paradise-app/bootstrapper/internal/logger"
)

// maxManifestSize bounds how much of the response body is read.
// Release manifests are a few hundred bytes; anything near this limit is junk.
const maxManifestSize = 1 << 20

var (
	// ErrUnreachable is returned on network or transport failure.
	ErrUnreachable = errors.New("manifest is unreachable")

	// ErrMalformed is returned on parse or schema failure. It aliases the
	// domain-level classification so callers can match either.
	ErrMalformed = release.ErrMalformed
)

// Client fetches and validates release manifests.
// It performs no retries; retry policy belongs to the caller.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a manifest client over the provided HTTP client.
// A nil httpClient falls back to http.DefaultClient.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{httpClient: httpClient}
}

// Fetch retrieves the manifest JSON from url, parses it and validates
// structural well-formedness. The only side effect is the network read.
func (c *Client) Fetch(ctx context.Context, url string) (*release.Manifest, error) {
	logger.InfoKV(ctx, "Fetching release manifest", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", ErrUnreachable, url, response.Status)
	}

	data, err := io.ReadAll(io.LimitReader(response.Body, maxManifestSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUnreachable, err)
	}

	var m release.Manifest
	if err = json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decode JSON: %w", ErrMalformed, err)
	}

	if err = m.Validate(); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Manifest validated", "version", m.Version, "files", len(m.Files))

	return &m, nil
}
