package musiclink

import (
	"context"
	"net/http"
)

// Manager dispatches a link to the first resolver that accepts it.
type Manager struct {
	resolvers []Resolver
}

// NewManager builds the default resolvers on top of client.
func NewManager(client *http.Client) *Manager {
	return NewManagerWith(
		NewYouTubeResolver(client, YouTubeOEmbedURL),
		NewSoundCloudResolver(client, SoundCloudOEmbedURL),
		NewAppleMusicResolver(client, ITunesLookupURL),
		NewTidalResolver(client),
		NewBandcampResolver(client),
	)
}

func NewManagerWith(resolvers ...Resolver) *Manager {
	return &Manager{resolvers: resolvers}
}

func (m *Manager) Resolve(ctx context.Context, link string) (*TrackInfo, error) {
	for _, resolver := range m.resolvers {
		if resolver.CanResolve(link) {
			return resolver.Resolve(ctx, link)
		}
	}
	return nil, ErrNoResolver
}

func (m *Manager) CanResolve(link string) bool {
	for _, resolver := range m.resolvers {
		if resolver.CanResolve(link) {
			return true
		}
	}
	return false
}
