// Package musiclink turns links from other music services into something the
// catalog can search for.
package musiclink

import (
	"context"
	"strings"
)

// TrackInfo is what a provider says about the linked track.
type TrackInfo struct {
	Title  string
	Artist string
}

// Query joins artist and title into a catalog search query.
func (i *TrackInfo) Query() string {
	title := strings.TrimSpace(i.Title)
	artist := strings.TrimSpace(i.Artist)
	if artist == "" || strings.Contains(strings.ToLower(title), strings.ToLower(artist)) {
		return title
	}
	return artist + " " + title
}

// Resolver resolves links of one provider.
type Resolver interface {
	Resolve(ctx context.Context, link string) (*TrackInfo, error)
	CanResolve(link string) bool
}
