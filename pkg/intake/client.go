// Package intake locates the latest uploaded GTFS archive for an agency on
// the schedule intake service.
package intake

import (
	"archive/zip"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"transithours/pkg/gtfs"
)

type Client struct {
	baseURL    string
	downloader *gtfs.Downloader
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		downloader: gtfs.NewDownloader(timeout, logger),
	}
}

// FeedURL builds the archive location for an agency key. Keys are
// path-escaped so caller input cannot change the URL structure.
func (c *Client) FeedURL(agencyKey string) string {
	return fmt.Sprintf("%s/%s/latest.zip", c.baseURL, url.PathEscape(agencyKey))
}

// Fetch downloads the latest archive for the agency, returning the open zip
// reader alongside the raw bytes for fingerprinting.
func (c *Client) Fetch(ctx context.Context, agencyKey string) (*zip.Reader, []byte, error) {
	reader, data, err := c.downloader.Download(ctx, c.FeedURL(agencyKey))
	if err != nil {
		return nil, nil, fmt.Errorf("fetch feed for %q: %w", agencyKey, err)
	}
	return reader, data, nil
}
