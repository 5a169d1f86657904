// Package spotify searches the Spotify Web API catalog with app credentials.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"tunedrop/internal/core"
	"tunedrop/pkg/fuzzy"
	"tunedrop/pkg/text"
)

const (
	// MaxTrackSearchResults limits how many tracks one search asks Spotify for.
	MaxTrackSearchResults = 10
	trackURIPrefix        = "spotify:track:"
)

// Catalog implements core.Catalog on top of the Spotify search and track endpoints.
type Catalog struct {
	client     *spotify.Client
	market     string
	limiter    *rate.Limiter
	normalizer *fuzzy.Normalizer
	parser     *text.Parser
	logger     *zap.Logger
}

// NewCatalog authenticates with the client credentials flow. The returned
// catalog refreshes its token on its own.
func NewCatalog(ctx context.Context, config *core.SpotifyConfig, ratePerSecond float64,
	logger *zap.Logger) (*Catalog, error) {
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("spotify client id and secret: %w", core.ErrNotConfigured)
	}

	credentials := &clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	if _, err := credentials.Token(ctx); err != nil {
		return nil, fmt.Errorf("failed to obtain spotify token: %w", err)
	}

	httpClient := credentials.Client(context.WithoutCancel(ctx))
	catalog := newCatalog(spotify.New(httpClient), config.Market, ratePerSecond, logger)
	catalog.logger.Info("Spotify catalog ready", zap.String("market", config.Market))
	return catalog, nil
}

func newCatalog(client *spotify.Client, market string, ratePerSecond float64, logger *zap.Logger) *Catalog {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}

	return &Catalog{
		client:     client,
		market:     market,
		limiter:    rate.NewLimiter(limit, 1),
		normalizer: fuzzy.NewNormalizer(),
		parser:     text.NewParser(),
		logger:     logger.Named("spotify"),
	}
}

// SearchCatalog resolves track links directly and runs a ranked text search
// for everything else. Links to other services only search their surrounding text.
func (c *Catalog) SearchCatalog(ctx context.Context, query string) ([]core.Track, error) {
	parsed := c.parser.ParseQuery(query)

	if parsed.Kind == text.QuerySpotifyTrack {
		return c.lookupTrack(ctx, parsed.TrackID)
	}
	if parsed.Kind == text.QueryOtherLink {
		c.logger.Debug("Ignoring link to another service", zap.String("url", parsed.URL))
	}

	normalized := c.normalizer.NormalizeQuery(parsed.Text)
	if normalized == "" {
		return []core.Track{}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	opts := []spotify.RequestOption{spotify.Limit(MaxTrackSearchResults)}
	if c.market != "" {
		opts = append(opts, spotify.Market(c.market))
	}

	results, err := c.client.Search(ctx, normalized, spotify.SearchTypeTrack, opts...)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if results.Tracks == nil {
		return []core.Track{}, nil
	}

	tracks := make([]core.Track, 0, len(results.Tracks.Tracks))
	for i := range results.Tracks.Tracks {
		if len(tracks) >= MaxTrackSearchResults {
			break
		}
		tracks = append(tracks, convertTrack(&results.Tracks.Tracks[i]))
	}

	c.logger.Debug("Search completed",
		zap.String("query", normalized),
		zap.Int("results", len(tracks)))

	return c.rankTracks(parsed.Text, tracks), nil
}

func (c *Catalog) lookupTrack(ctx context.Context, trackID string) ([]core.Track, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var opts []spotify.RequestOption
	if c.market != "" {
		opts = append(opts, spotify.Market(c.market))
	}

	track, err := c.client.GetTrack(ctx, spotify.ID(trackID), opts...)
	if err != nil {
		var apiErr spotify.Error
		if errors.As(err, &apiErr) &&
			(apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusBadRequest) {
			c.logger.Debug("Linked track not found", zap.String("track_id", trackID))
			return []core.Track{}, nil
		}
		return nil, fmt.Errorf("failed to get track %s: %w", trackID, err)
	}

	return []core.Track{convertTrack(track)}, nil
}

func (c *Catalog) rankTracks(query string, tracks []core.Track) []core.Track {
	candidates := make([]fuzzy.Candidate, len(tracks))
	for i := range tracks {
		candidates[i] = fuzzy.Candidate{
			Title:    tracks[i].Name,
			Artists:  tracks[i].ArtistNames(),
			Duration: tracks[i].Duration(),
		}
	}

	ranked := make([]core.Track, 0, len(tracks))
	for _, i := range c.normalizer.Rank(query, candidates) {
		ranked = append(ranked, tracks[i])
	}
	return ranked
}

func convertTrack(track *spotify.FullTrack) core.Track {
	artists := make([]core.Artist, 0, len(track.Artists))
	for _, artist := range track.Artists {
		artists = append(artists, core.Artist{Name: artist.Name})
	}

	images := make([]core.Image, 0, len(track.Album.Images))
	for _, image := range track.Album.Images {
		images = append(images, core.Image{
			URL:    image.URL,
			Width:  int(image.Width),
			Height: int(image.Height),
		})
	}

	uri := string(track.URI)
	if uri == "" && track.ID != "" {
		uri = trackURIPrefix + string(track.ID)
	}

	return core.Track{
		ID:      string(track.ID),
		Name:    track.Name,
		Artists: artists,
		Album: core.Album{
			Name:        track.Album.Name,
			Images:      images,
			ReleaseDate: track.Album.ReleaseDate,
		},
		DurationMs: int(track.Duration),
		URI:        uri,
	}
}
