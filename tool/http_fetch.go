package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPFetchOptions configures the http_fetch tool.
type HTTPFetchOptions struct {
	Client       *http.Client
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

// NewHTTPFetch returns a tool that fetches the body of an HTTP or HTTPS URL.
//
// The response body is capped at MaxBodyBytes (256 KiB by default) so that a
// large page cannot blow up the model context.
func NewHTTPFetch(optFns ...func(o *HTTPFetchOptions)) *FunctionTool {
	opts := HTTPFetchOptions{
		Timeout:      15 * time.Second,
		MaxBodyBytes: 256 * 1024,
		UserAgent:    "agentpilot/1.0",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}

	return NewFunctionTool(
		"http_fetch",
		"Fetch the contents of an HTTP or HTTPS URL. Input is the URL to fetch.",
		func(ctx context.Context, input string) (string, error) {
			return fetchURL(ctx, opts, input)
		},
	)
}

func fetchURL(ctx context.Context, opts HTTPFetchOptions, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", opts.UserAgent)

	resp, err := opts.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch failed: %s returned status %d", u.Host, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, opts.MaxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}
