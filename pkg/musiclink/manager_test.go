package musiclink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestManager_CanResolve(t *testing.T) {
	manager := NewManager(nil)

	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{"YouTube standard URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"YouTube short URL", "https://youtu.be/dQw4w9WgXcQ", true},
		{"YouTube Music URL", "https://music.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"SoundCloud URL", "https://soundcloud.com/artist/track-name", true},
		{"Apple Music URL", "https://music.apple.com/us/album/test/123?i=456", true},
		{"Tidal track URL", "https://tidal.com/browse/track/12345678", true},
		{"Tidal album URL", "https://tidal.com/browse/album/12345678", false},
		{"Bandcamp track URL", "https://artist.bandcamp.com/track/song", true},
		{"Spotify URL", "https://open.spotify.com/track/123", false},
		{"Unknown URL", "https://example.com/music", false},
		{"Malformed URL", "not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := manager.CanResolve(tt.url); got != tt.expected {
				t.Errorf("CanResolve(%q) = %v, want %v", tt.url, got, tt.expected)
			}
		})
	}
}

func TestManager_Resolve_NoResolverFound(t *testing.T) {
	manager := NewManager(nil)

	_, err := manager.Resolve(context.Background(), "https://example.com/song")
	if !errors.Is(err, ErrNoResolver) {
		t.Errorf("Resolve() error = %v, want ErrNoResolver", err)
	}
}

func TestYouTubeResolver_Resolve(t *testing.T) {
	var gotURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.Query().Get("url")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"title":"Rick Astley - Never Gonna Give You Up (Official Music Video)","author_name":"Rick Astley"}`)
	}))
	defer server.Close()

	resolver := NewYouTubeResolver(server.Client(), server.URL)
	info, err := resolver.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if gotURL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("oEmbed url = %q", gotURL)
	}
	if info.Title != "Never Gonna Give You Up" || info.Artist != "Rick Astley" {
		t.Errorf("info = %+v", info)
	}
}

func TestYouTubeResolver_extractVideoID(t *testing.T) {
	resolver := NewYouTubeResolver(nil, YouTubeOEmbedURL)

	tests := []struct {
		name     string
		url      string
		expected string
		wantErr  bool
	}{
		{"Watch URL", "https://www.youtube.com/watch?v=abc123&t=42", "abc123", false},
		{"Short URL", "https://youtu.be/abc123", "abc123", false},
		{"Short URL without ID", "https://youtu.be/", "", true},
		{"Channel URL", "https://www.youtube.com/@artist", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.extractVideoID(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("extractVideoID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("extractVideoID() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestYouTubeResolver_parseTrackInfo(t *testing.T) {
	resolver := NewYouTubeResolver(nil, YouTubeOEmbedURL)

	tests := []struct {
		name   string
		resp   oembedResponse
		title  string
		artist string
	}{
		{
			name:   "Artist dash title",
			resp:   oembedResponse{Title: "Daft Punk - One More Time [Official Video]", AuthorName: "Daft Punk"},
			title:  "One More Time",
			artist: "Daft Punk",
		},
		{
			name:   "VEVO channel",
			resp:   oembedResponse{Title: "Never Gonna Give You Up (Lyrics)", AuthorName: "RickAstleyVEVO"},
			title:  "Never Gonna Give You Up",
			artist: "Rick Astley",
		},
		{
			name:   "Topic channel",
			resp:   oembedResponse{Title: "Digital Love", AuthorName: "Daft Punk - Topic"},
			title:  "Digital Love",
			artist: "Daft Punk",
		},
		{
			name:   "Plain uploader",
			resp:   oembedResponse{Title: "Live set (HD)", AuthorName: "Some DJ"},
			title:  "Live set",
			artist: "Some DJ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := resolver.parseTrackInfo(&tt.resp)
			if info.Title != tt.title || info.Artist != tt.artist {
				t.Errorf("parseTrackInfo() = %+v, want %q by %q", info, tt.title, tt.artist)
			}
		})
	}
}

func TestSoundCloudResolver_Resolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"title":"Midnight City by M83","author_name":"M83"}`)
	}))
	defer server.Close()

	resolver := NewSoundCloudResolver(server.Client(), server.URL)
	info, err := resolver.Resolve(context.Background(), "https://soundcloud.com/m83/midnight-city")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if info.Title != "Midnight City" || info.Artist != "M83" {
		t.Errorf("info = %+v", info)
	}
}

func TestSoundCloudResolver_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	resolver := NewSoundCloudResolver(server.Client(), server.URL)
	if _, err := resolver.Resolve(context.Background(), "https://soundcloud.com/x/y"); err == nil {
		t.Error("expected an error for a 404 response")
	}
}

func TestAppleMusicResolver_Resolve(t *testing.T) {
	var gotID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.URL.Query().Get("id")
		fmt.Fprint(w, `{"resultCount":2,"results":[
			{"wrapperType":"collection","collectionName":"Discovery"},
			{"wrapperType":"track","trackName":"One More Time","artistName":"Daft Punk"}]}`)
	}))
	defer server.Close()

	resolver := NewAppleMusicResolver(server.Client(), server.URL)
	info, err := resolver.Resolve(context.Background(), "https://music.apple.com/us/album/discovery/697194953?i=697195462")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if gotID != "697195462" {
		t.Errorf("lookup id = %q", gotID)
	}
	if info.Title != "One More Time" || info.Artist != "Daft Punk" {
		t.Errorf("info = %+v", info)
	}
}

func TestAppleMusicResolver_extractTrackID(t *testing.T) {
	resolver := NewAppleMusicResolver(nil, ITunesLookupURL)

	tests := []struct {
		name     string
		url      string
		expected string
		wantErr  bool
	}{
		{"Album link with track", "https://music.apple.com/us/album/x/1?i=42", "42", false},
		{"Song link", "https://music.apple.com/us/song/one-more-time/697195462", "697195462", false},
		{"Album link without track", "https://music.apple.com/us/album/x/1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.extractTrackID(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("extractTrackID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("extractTrackID() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPageTitleResolver_extract(t *testing.T) {
	tidal := NewTidalResolver(nil)
	bandcamp := NewBandcampResolver(nil)

	tests := []struct {
		name     string
		resolver *PageTitleResolver
		page     string
		title    string
		artist   string
	}{
		{"Tidal en dash", tidal, `<title>Never Gonna Give You Up – Rick Astley | TIDAL</title>`, "Never Gonna Give You Up", "Rick Astley"},
		{"Tidal hyphen", tidal, `<title>Track Title - Artist Name | TIDAL</title>`, "Track Title", "Artist Name"},
		{"Tidal title only", tidal, `<title>Just Track Title | TIDAL</title>`, "Just Track Title", ""},
		{"Bandcamp", bandcamp, `<html><head><title>Song &amp; Dance | The Band</title></head></html>`, "Song & Dance", "The Band"},
		{"No title tag", tidal, `<html><body>nothing</body></html>`, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, artist := tt.resolver.extract(tt.page)
			if title != tt.title || artist != tt.artist {
				t.Errorf("extract() = %q, %q, want %q, %q", title, artist, tt.title, tt.artist)
			}
		})
	}
}

func TestTrackInfo_Query(t *testing.T) {
	tests := []struct {
		info     TrackInfo
		expected string
	}{
		{TrackInfo{Title: "One More Time", Artist: "Daft Punk"}, "Daft Punk One More Time"},
		{TrackInfo{Title: "One More Time"}, "One More Time"},
		{TrackInfo{Title: "Daft Punk - One More Time", Artist: "Daft Punk"}, "Daft Punk - One More Time"},
	}

	for _, tt := range tests {
		if got := tt.info.Query(); got != tt.expected {
			t.Errorf("Query() = %q, want %q", got, tt.expected)
		}
	}
}
