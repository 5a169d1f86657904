package musiclink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const ITunesLookupURL = "https://itunes.apple.com/lookup"

type iTunesLookupResponse struct {
	ResultCount int `json:"resultCount"`
	Results     []struct {
		WrapperType string `json:"wrapperType"`
		TrackName   string `json:"trackName"`
		ArtistName  string `json:"artistName"`
	} `json:"results"`
}

// AppleMusicResolver looks songs up by ID in the public iTunes API.
type AppleMusicResolver struct {
	client   *http.Client
	endpoint string
}

func NewAppleMusicResolver(client *http.Client, endpoint string) *AppleMusicResolver {
	return &AppleMusicResolver{client: limitRedirects(client), endpoint: endpoint}
}

func (r *AppleMusicResolver) CanResolve(link string) bool {
	host := hostnameOf(link)
	return host == "music.apple.com" || host == "itunes.apple.com"
}

func (r *AppleMusicResolver) Resolve(ctx context.Context, link string) (*TrackInfo, error) {
	trackID, err := r.extractTrackID(link)
	if err != nil {
		return nil, fmt.Errorf("failed to extract track ID: %w", err)
	}

	reqURL := fmt.Sprintf("%s?id=%s&entity=song", r.endpoint, url.QueryEscape(trackID))

	var resp iTunesLookupResponse
	if err := fetchJSON(ctx, r.client, reqURL, "iTunes API", &resp); err != nil {
		return nil, err
	}

	for _, result := range resp.Results {
		if result.TrackName != "" {
			return &TrackInfo{Title: result.TrackName, Artist: result.ArtistName}, nil
		}
	}
	return nil, errors.New("no track in iTunes API response")
}

// extractTrackID reads album links with ?i=<id> and /song/<name>/<id> links.
func (r *AppleMusicResolver) extractTrackID(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", err
	}

	if id := u.Query().Get("i"); id != "" {
		return id, nil
	}

	if strings.Contains(u.Path, "/song/") {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if id := parts[len(parts)-1]; id != "" && id != "song" {
			return id, nil
		}
	}

	return "", errors.New("no track ID in Apple Music link")
}
