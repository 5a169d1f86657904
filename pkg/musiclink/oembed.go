package musiclink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const (
	YouTubeOEmbedURL    = "https://www.youtube.com/oembed"
	SoundCloudOEmbedURL = "https://soundcloud.com/oembed"
)

var (
	videoNoiseRegex = regexp.MustCompile(`(?i)\s*[\(\[](?:official\s+(?:music\s+)?(?:video|audio)|lyric\s+video|lyrics|visualizer|hd|4k)[\)\]]`)
	camelCaseRegex  = regexp.MustCompile(`([a-z])([A-Z])`)
)

type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

// YouTubeResolver reads video metadata from the YouTube oEmbed endpoint.
type YouTubeResolver struct {
	client   *http.Client
	endpoint string
}

func NewYouTubeResolver(client *http.Client, endpoint string) *YouTubeResolver {
	return &YouTubeResolver{client: limitRedirects(client), endpoint: endpoint}
}

func (r *YouTubeResolver) CanResolve(link string) bool {
	switch hostnameOf(link) {
	case "youtube.com", "www.youtube.com", "m.youtube.com", "music.youtube.com", "youtu.be":
		return true
	}
	return false
}

func (r *YouTubeResolver) Resolve(ctx context.Context, link string) (*TrackInfo, error) {
	videoID, err := r.extractVideoID(link)
	if err != nil {
		return nil, fmt.Errorf("failed to extract video ID: %w", err)
	}

	videoURL := "https://www.youtube.com/watch?v=" + videoID
	reqURL := fmt.Sprintf("%s?url=%s&format=json", r.endpoint, url.QueryEscape(videoURL))

	var resp oembedResponse
	if err := fetchJSON(ctx, r.client, reqURL, "YouTube oEmbed", &resp); err != nil {
		return nil, err
	}

	return r.parseTrackInfo(&resp), nil
}

func (r *YouTubeResolver) extractVideoID(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", err
	}

	if strings.ToLower(u.Hostname()) == "youtu.be" {
		if id := strings.Trim(u.Path, "/"); id != "" {
			return id, nil
		}
		return "", errors.New("no video ID in youtu.be link")
	}

	if id := u.Query().Get("v"); id != "" {
		return id, nil
	}
	return "", errors.New("no video ID in YouTube link")
}

// parseTrackInfo prefers "Artist - Title" video names, then official artist
// channels, then the uploader.
func (r *YouTubeResolver) parseTrackInfo(resp *oembedResponse) *TrackInfo {
	title := strings.TrimSpace(videoNoiseRegex.ReplaceAllString(resp.Title, ""))

	if parts := strings.SplitN(title, " - ", splitParts); len(parts) == splitParts {
		return &TrackInfo{Title: strings.TrimSpace(parts[1]), Artist: strings.TrimSpace(parts[0])}
	}

	author := strings.TrimSpace(resp.AuthorName)
	switch {
	case strings.HasSuffix(author, "VEVO"):
		author = camelCaseRegex.ReplaceAllString(strings.TrimSuffix(author, "VEVO"), "$1 $2")
	case strings.HasSuffix(author, " - Topic"):
		author = strings.TrimSuffix(author, " - Topic")
	}

	return &TrackInfo{Title: title, Artist: author}
}

// SoundCloudResolver reads track metadata from the SoundCloud oEmbed endpoint.
type SoundCloudResolver struct {
	client   *http.Client
	endpoint string
}

func NewSoundCloudResolver(client *http.Client, endpoint string) *SoundCloudResolver {
	return &SoundCloudResolver{client: limitRedirects(client), endpoint: endpoint}
}

func (r *SoundCloudResolver) CanResolve(link string) bool {
	switch hostnameOf(link) {
	case "soundcloud.com", "www.soundcloud.com", "m.soundcloud.com", "on.soundcloud.com":
		return true
	}
	return false
}

func (r *SoundCloudResolver) Resolve(ctx context.Context, link string) (*TrackInfo, error) {
	reqURL := fmt.Sprintf("%s?url=%s&format=json", r.endpoint, url.QueryEscape(link))

	var resp oembedResponse
	if err := fetchJSON(ctx, r.client, reqURL, "SoundCloud oEmbed", &resp); err != nil {
		return nil, err
	}

	return r.parseTrackInfo(&resp), nil
}

// SoundCloud titles read "Track by Artist".
func (r *SoundCloudResolver) parseTrackInfo(resp *oembedResponse) *TrackInfo {
	if parts := strings.SplitN(resp.Title, " by ", splitParts); len(parts) == splitParts {
		return &TrackInfo{Title: strings.TrimSpace(parts[0]), Artist: strings.TrimSpace(parts[1])}
	}
	return &TrackInfo{Title: strings.TrimSpace(resp.Title), Artist: strings.TrimSpace(resp.AuthorName)}
}
