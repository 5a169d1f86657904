package musiclink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const (
	commonUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	commonAcceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	// maxPageSize caps how much HTML is read; the <title> sits near the top.
	maxPageSize      = 100 * 1024
	maxHTTPRedirects = 3
	splitParts       = 2
)

var (
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrNoResolver       = errors.New("no resolver found for link")

	titleTagRegex = regexp.MustCompile(`(?is)<title[^>]*>([^<]+)</title>`)
)

// limitRedirects returns a copy of client that gives up after a few redirects.
func limitRedirects(client *http.Client) *http.Client {
	if client == nil {
		client = http.DefaultClient
	}
	limited := *client
	limited.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		if len(via) >= maxHTTPRedirects {
			return ErrTooManyRedirects
		}
		return nil
	}
	return &limited
}

func hostnameOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func fetchJSON(ctx context.Context, client *http.Client, reqURL, service string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", service, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", service, err)
	}
	return nil
}

func fetchHTML(ctx context.Context, client *http.Client, pageURL, service string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", commonUserAgent)
	req.Header.Set("Accept", commonAcceptHeader)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned status %d", service, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", fmt.Errorf("failed to read %s page: %w", service, err)
	}
	return string(body), nil
}

// splitTitleTag reads "<title>Track<sep>Artist<suffix></title>". Without a
// separator the whole text is the title.
func splitTitleTag(page, suffix string, separators ...string) (title, artist string) {
	matches := titleTagRegex.FindStringSubmatch(page)
	if len(matches) < splitParts {
		return "", ""
	}

	text := strings.TrimSpace(html.UnescapeString(matches[1]))
	if suffix != "" {
		text = strings.TrimSpace(strings.TrimSuffix(text, suffix))
	}

	for _, separator := range separators {
		if parts := strings.SplitN(text, separator, splitParts); len(parts) == splitParts {
			return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		}
	}
	return text, ""
}
