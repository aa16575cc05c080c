package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

// ErrTooLarge is returned when a download exceeds maxDownloadBytes.
var ErrTooLarge = errors.New("download too large")

// maxDownloadBytes caps a single downloaded workbook.
var maxDownloadBytes int64 = 64 << 20

// URLLoader downloads a workbook from a direct download link, such as a
// shared-drive export URL.
type URLLoader struct {
	URL    string
	Client *http.Client
}

// NewURLLoader creates a URL loader with optional proxy support.
func NewURLLoader(rawURL, proxyURL string) *URLLoader {
	return &URLLoader{
		URL:    rawURL,
		Client: newHTTPClient(proxyURL),
	}
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

func (l *URLLoader) Name() string { return "url" }

func (l *URLLoader) Load(ctx context.Context) (*Table, error) {
	data, err := download(ctx, l.Client, l.URL, "")
	if err != nil {
		return nil, err
	}
	name := "download"
	if u, err := url.Parse(l.URL); err == nil && path.Ext(u.Path) != "" {
		name = path.Base(u.Path)
	}
	return ParseSource(name, data)
}

// download fetches a URL, sending a bearer token when one is given.
func download(ctx context.Context, client *http.Client, rawURL, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "RentScope/1.0")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download: status %d, body: %s", resp.StatusCode, truncate(body, 200))
	}
	if int64(len(body)) > maxDownloadBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, rawURL, maxDownloadBytes)
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
