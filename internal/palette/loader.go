package palette

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"net/http"

	_ "golang.org/x/image/webp" // register WebP decoder
)

// maxImageBytes caps the artwork download.
const maxImageBytes = 8 << 20

// HTTPImageLoader fetches and decodes artwork over HTTP.
type HTTPImageLoader struct {
	httpClient *http.Client
}

func NewHTTPImageLoader(client *http.Client) *HTTPImageLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPImageLoader{httpClient: client}
}

func (l *HTTPImageLoader) Load(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status fetching artwork: %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork: %w", err)
	}
	return img, nil
}
