package core

import (
	"context"
	"image"
	"strings"
	"time"
)

type Artist struct {
	Name string `json:"name"`
}

type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type Album struct {
	Name        string  `json:"name,omitempty"`
	Images      []Image `json:"images"`
	ReleaseDate string  `json:"release_date,omitempty"`
}

// Track is a catalog track. It is never mutated after it has been fetched.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	DurationMs int      `json:"duration_ms"`
	URI        string   `json:"uri"`
}

// CoverURL returns the first album image, or "" when the album has none.
func (t *Track) CoverURL() string {
	if len(t.Album.Images) == 0 {
		return ""
	}
	return t.Album.Images[0].URL
}

// ArtistNames returns the artist names in catalog order, skipping blanks.
func (t *Track) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, artist := range t.Artists {
		if name := strings.TrimSpace(artist.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (t *Track) Duration() time.Duration {
	if t.DurationMs < 0 {
		return 0
	}
	return time.Duration(t.DurationMs) * time.Millisecond
}

// PlaylistEntry is one accepted suggestion in the shared playlist.
type PlaylistEntry struct {
	ID        string
	Track     Track
	Nicknames []string
	Timestamp time.Time
	// Unconfirmed marks an entry that only exists locally: it was inserted
	// optimistically and has not been replaced by a server snapshot yet.
	Unconfirmed bool
}

// Nickname returns the contributor nickname, or "" when none was given.
func (e *PlaylistEntry) Nickname() string {
	for _, nickname := range e.Nicknames {
		if nickname != "" {
			return nickname
		}
	}
	return ""
}

type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationInfo    NotificationKind = "info"
	NotificationError   NotificationKind = "error"
)

// Notification is the single transient message slot shown to the user.
type Notification struct {
	Message   string
	Kind      NotificationKind
	Visible   bool
	CreatedAt time.Time
}

// Palette is the background/foreground pair derived from track artwork.
type Palette struct {
	Background string // hex, e.g. "#1db954"
	Foreground string
	Dark       bool
}

type Catalog interface {
	SearchCatalog(ctx context.Context, query string) ([]Track, error)
}

type PlaylistStore interface {
	FetchPlaylist(ctx context.Context) ([]PlaylistEntry, error)
	AddTrack(ctx context.Context, track Track, nickname string) error
}

type ProfanityChecker interface {
	IsProfane(text string) bool
}

type ImageLoader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// Notifier shows user-facing outcome messages.
type Notifier interface {
	Show(kind NotificationKind, message string)
}

// SubmissionThrottle limits submissions per contributor.
type SubmissionThrottle interface {
	Allow(nickname string) bool
}

type DedupStore interface {
	Has(trackID string) bool
	Add(trackID string)
	LoadEntries(entries []PlaylistEntry)
	Size() int
}

// Recorder receives operational counters from the controllers.
type Recorder interface {
	RecordSearch(status string)
	RecordSearchDiscarded()
	RecordAdd(outcome string)
	RecordNotification(kind string)
	RecordColorExtraction(status string)
	SetPlaylistSize(size int)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) RecordSearch(string)          {}
func (NopRecorder) RecordSearchDiscarded()       {}
func (NopRecorder) RecordAdd(string)             {}
func (NopRecorder) RecordNotification(string)    {}
func (NopRecorder) RecordColorExtraction(string) {}
func (NopRecorder) SetPlaylistSize(int)          {}

type idempotencyKeyCtx struct{}

// WithIdempotencyKey tags an add request so a store can recognize retries of
// the same submission.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKeyCtx{}, key)
}

// IdempotencyKey returns the key set by WithIdempotencyKey, or "".
func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKeyCtx{}).(string)
	return key
}
