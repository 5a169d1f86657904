package core

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestTrack_CoverURL(t *testing.T) {
	tests := []struct {
		name     string
		track    Track
		expected string
	}{
		{
			name:     "No images",
			track:    Track{},
			expected: "",
		},
		{
			name: "First image wins",
			track: Track{Album: Album{Images: []Image{
				{URL: "https://i.scdn.co/image/large"},
				{URL: "https://i.scdn.co/image/small"},
			}}},
			expected: "https://i.scdn.co/image/large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.track.CoverURL(); got != tt.expected {
				t.Errorf("CoverURL() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestTrack_ArtistNames(t *testing.T) {
	track := Track{Artists: []Artist{{Name: "Daft Punk"}, {Name: "  "}, {Name: "Pharrell Williams"}}}

	got := track.ArtistNames()
	expected := []string{"Daft Punk", "Pharrell Williams"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("ArtistNames() = %v, expected %v", got, expected)
	}
}

func TestTrack_Duration(t *testing.T) {
	track := Track{DurationMs: 65000}
	if track.Duration() != 65*time.Second {
		t.Errorf("Duration() = %v, expected 65s", track.Duration())
	}

	negative := Track{DurationMs: -1}
	if negative.Duration() != 0 {
		t.Errorf("Duration() for negative ms = %v, expected 0", negative.Duration())
	}
}

func TestPlaylistEntry_Nickname(t *testing.T) {
	tests := []struct {
		name      string
		nicknames []string
		expected  string
	}{
		{name: "No nicknames", nicknames: nil, expected: ""},
		{name: "Single nickname", nicknames: []string{"ayush"}, expected: "ayush"},
		{name: "Skips empty", nicknames: []string{"", "dj"}, expected: "dj"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := PlaylistEntry{Nicknames: tt.nicknames}
			if got := entry.Nickname(); got != tt.expected {
				t.Errorf("Nickname() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestIdempotencyKey(t *testing.T) {
	if got := IdempotencyKey(context.Background()); got != "" {
		t.Errorf("IdempotencyKey() on bare context = %q, expected empty", got)
	}

	ctx := WithIdempotencyKey(context.Background(), "local-123")
	if got := IdempotencyKey(ctx); got != "local-123" {
		t.Errorf("IdempotencyKey() = %q, expected local-123", got)
	}
}
