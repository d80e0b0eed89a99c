package ncbi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cognoma/genes/pkg/domain"
)

// DefaultBaseURL is the public NCBI host serving the gene reference files.
const DefaultBaseURL = "https://ftp.ncbi.nih.gov"

// Paths of the two source files under the NCBI gene data area.
const (
	GeneHistoryPath = "gene/DATA/gene_history.gz"
	GeneInfoPath    = "gene/DATA/GENE_INFO/Mammalia/Homo_sapiens.gene_info.gz"
)

// DefaultPaths lists the files one pipeline run retrieves, in the order
// their versions are recorded.
func DefaultPaths() []string {
	return []string{GeneHistoryPath, GeneInfoPath}
}

// Client retrieves source files over HTTPS and records their source-side
// modification timestamps. Downloaded bytes are not validated; the
// transforms treat locally present files as a precondition.
type Client struct {
	httpClient *http.Client
	baseURL    string
	attempts   int
	now        func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client at an alternate host, e.g. a test server
// or a mirror.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) { c.baseURL = base }
}

// WithAttempts sets how many times each file request is tried.
func WithAttempts(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithNow overrides the clock used for the retrieval timestamp.
func WithNow(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// NewClient constructs a retriever for the NCBI gene data area.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    DefaultBaseURL,
		attempts:   3,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Download fetches each path into dir (flat, named by the path's base) and
// returns version metadata: the retrieval time plus each file's
// Last-Modified timestamp as reported by the host.
func (c *Client) Download(ctx context.Context, paths []string, dir string) (domain.Versions, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.Versions{}, fmt.Errorf("create download dir: %w", err)
	}
	versions := domain.Versions{Retrieved: c.now().UTC()}
	for _, p := range paths {
		modified, err := c.fetch(ctx, p, filepath.Join(dir, path.Base(p)))
		if err != nil {
			return domain.Versions{}, fmt.Errorf("download %s: %w", p, err)
		}
		versions.Files = append(versions.Files, domain.FileVersion{Path: p, Modified: modified})
	}
	return versions, nil
}

func (c *Client) fetch(ctx context.Context, remotePath, dest string) (time.Time, error) {
	u, err := url.JoinPath(c.baseURL, remotePath)
	if err != nil {
		return time.Time{}, err
	}
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return time.Time{}, ctx.Err()
			case <-time.After(time.Duration(attempt-1) * 500 * time.Millisecond):
			}
		}
		modified, err := c.fetchOnce(ctx, u, dest)
		if err == nil {
			return modified, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("after %d attempts: %w", c.attempts, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url, dest string) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return time.Time{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return time.Time{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	// Stream to a temp file and rename so a failed transfer never leaves a
	// truncated file at the destination.
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return time.Time{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return time.Time{}, err
	}
	if err := tmp.Close(); err != nil {
		return time.Time{}, err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return time.Time{}, err
	}

	modified := c.now().UTC()
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if ts, err := http.ParseTime(lm); err == nil {
			modified = ts.UTC()
		}
	}
	return modified, nil
}
