package musiclink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// PageTitleResolver scrapes the <title> of track pages for services without
// a metadata API.
type PageTitleResolver struct {
	client     *http.Client
	service    string
	hosts      []string
	pathMarker string
	suffix     string
	separators []string
}

// NewTidalResolver reads "Track – Artist | TIDAL" titles.
func NewTidalResolver(client *http.Client) *PageTitleResolver {
	return &PageTitleResolver{
		client:     limitRedirects(client),
		service:    "Tidal",
		hosts:      []string{"tidal.com", "www.tidal.com", "listen.tidal.com"},
		pathMarker: "/track/",
		suffix:     "| TIDAL",
		separators: []string{" – ", " - ", " by "},
	}
}

// NewBandcampResolver reads "Track | Artist" titles.
func NewBandcampResolver(client *http.Client) *PageTitleResolver {
	return &PageTitleResolver{
		client:     limitRedirects(client),
		service:    "Bandcamp",
		hosts:      []string{".bandcamp.com"},
		pathMarker: "/track/",
		separators: []string{" | "},
	}
}

func (r *PageTitleResolver) CanResolve(link string) bool {
	host := hostnameOf(link)
	if host == "" || !strings.Contains(link, r.pathMarker) {
		return false
	}
	for _, candidate := range r.hosts {
		if host == candidate || (strings.HasPrefix(candidate, ".") && strings.HasSuffix(host, candidate)) {
			return true
		}
	}
	return false
}

func (r *PageTitleResolver) Resolve(ctx context.Context, link string) (*TrackInfo, error) {
	page, err := fetchHTML(ctx, r.client, link, r.service)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s page: %w", r.service, err)
	}

	title, artist := r.extract(page)
	if title == "" {
		return nil, errors.New("no track title on " + r.service + " page")
	}
	return &TrackInfo{Title: title, Artist: artist}, nil
}

func (r *PageTitleResolver) extract(page string) (title, artist string) {
	return splitTitleTag(page, r.suffix, r.separators...)
}
