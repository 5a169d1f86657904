// Package text classifies what a user typed into the search box.
package text

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type QueryKind int

const (
	// QueryFreeText is anything that is not a recognized link.
	QueryFreeText QueryKind = iota
	// QuerySpotifyTrack is a Spotify track URI or open.spotify.com track link.
	QuerySpotifyTrack
	// QueryOtherLink is a link to a music service the catalog cannot resolve.
	QueryOtherLink
)

func (k QueryKind) String() string {
	switch k {
	case QuerySpotifyTrack:
		return "spotify_track"
	case QueryOtherLink:
		return "other_link"
	default:
		return "free_text"
	}
}

var (
	urlRegex        = regexp.MustCompile(`https?://\S+`)
	spotifyURIRegex = regexp.MustCompile(`spotify:track:([A-Za-z0-9]+)`)
	trackIDRegex    = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	whitespaceRegex = regexp.MustCompile(`\s+`)

	spotifyDomains = map[string]bool{
		"open.spotify.com": true,
		"play.spotify.com": true,
		"spotify.com":      true,
	}

	otherMusicDomains = map[string]bool{
		"youtube.com":       true,
		"music.youtube.com": true,
		"youtu.be":          true,
		"music.apple.com":   true,
		"itunes.apple.com":  true,
		"soundcloud.com":    true,
		"on.soundcloud.com": true,
		"tidal.com":         true,
		"listen.tidal.com":  true,
		"bandcamp.com":      true,
		"tiktok.com":        true,
	}
)

// Query is a classified search input.
type Query struct {
	Kind QueryKind
	// Text is the input with links removed and whitespace collapsed.
	Text    string
	URL     string
	TrackID string
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) ParseQuery(raw string) Query {
	raw = norm.NFKC.String(strings.TrimSpace(raw))

	if match := spotifyURIRegex.FindStringSubmatch(raw); match != nil {
		return Query{
			Kind:    QuerySpotifyTrack,
			Text:    p.collapse(strings.Replace(raw, match[0], " ", 1)),
			URL:     match[0],
			TrackID: match[1],
		}
	}

	query := Query{Kind: QueryFreeText}
	for _, match := range urlRegex.FindAllString(raw, -1) {
		raw = strings.Replace(raw, match, " ", 1)

		link := p.cleanURL(match)
		if link == "" || query.Kind != QueryFreeText {
			continue
		}
		if id, ok := p.spotifyTrackID(link); ok {
			query.Kind = QuerySpotifyTrack
			query.URL = link
			query.TrackID = id
		} else if p.isOtherMusicURL(link) {
			query.Kind = QueryOtherLink
			query.URL = link
		}
	}
	query.Text = p.collapse(raw)

	return query
}

func (p *Parser) collapse(text string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

// cleanURL strips trailing punctuation and tracking parameters. It returns ""
// for anything that does not parse as an absolute http(s) URL.
func (p *Parser) cleanURL(rawURL string) string {
	rawURL = strings.TrimRight(rawURL, ".,!?;)")

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}

	q := u.Query()
	for _, param := range []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "si"} {
		q.Del(param)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// spotifyTrackID accepts both /track/<id> and localized /intl-xx/track/<id> paths.
func (p *Parser) spotifyTrackID(link string) (string, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	if !spotifyDomains[strings.ToLower(u.Hostname())] {
		return "", false
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "track" && trackIDRegex.MatchString(segments[i+1]) {
			return segments[i+1], true
		}
	}
	return "", false
}

func (p *Parser) isOtherMusicURL(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}

	hostname := strings.ToLower(u.Hostname())
	hostname = strings.TrimPrefix(hostname, "www.")
	hostname = strings.TrimPrefix(hostname, "m.")
	hostname = strings.TrimPrefix(hostname, "vm.")

	return otherMusicDomains[hostname] || strings.HasSuffix(hostname, ".bandcamp.com")
}
