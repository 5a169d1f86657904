package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"tunedrop/internal/core"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", server.Client(), zap.NewNop())
}

func TestClient_SearchCatalog(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/search" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "daft punk & co" {
			t.Errorf("q = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"id":"t1","name":"One More Time","artists":[{"name":"Daft Punk"}],
			 "album":{"name":"Discovery","images":[{"url":"https://img/1","width":640,"height":640}]},
			 "duration_ms":320357,"uri":"spotify:track:t1","popularity":80}
		]`)
	})

	tracks, err := client.SearchCatalog(context.Background(), "daft punk & co")
	if err != nil {
		t.Fatalf("SearchCatalog() error = %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("len(tracks) = %d, expected 1", len(tracks))
	}

	track := tracks[0]
	if track.ID != "t1" || track.Name != "One More Time" || track.DurationMs != 320357 ||
		track.URI != "spotify:track:t1" || track.CoverURL() != "https://img/1" {
		t.Errorf("decoded track = %+v", track)
	}
}

func TestClient_FetchPlaylist(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/added-songs" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `[
			{"id":"a1","song":{"id":"t1","name":"One"},"nicknames":["alice","bob"],"timestamp":"2024-05-01T10:00:00Z"},
			{"id":42,"song":{"id":"t2","name":"Two"},"nickname":"carol","timestamp":1714557600000},
			{"song":{"id":"t3","name":"Three"},"timestamp":"1714557600000"},
			{"song":{"id":"t4","name":"Four"},"timestamp":null}
		]`)
	})

	entries, err := client.FetchPlaylist(context.Background())
	if err != nil {
		t.Fatalf("FetchPlaylist() error = %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("len(entries) = %d, expected 4", len(entries))
	}

	tests := []struct {
		id        string
		trackID   string
		nickname  string
		timestamp time.Time
	}{
		{"a1", "t1", "alice", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"42", "t2", "carol", time.UnixMilli(1714557600000)},
		{"t3#2", "t3", "", time.UnixMilli(1714557600000)},
		{"t4#3", "t4", "", time.Time{}},
	}

	for i, tt := range tests {
		entry := entries[i]
		if entry.ID != tt.id || entry.Track.ID != tt.trackID || entry.Nickname() != tt.nickname {
			t.Errorf("entry %d = %+v", i, entry)
		}
		if !entry.Timestamp.Equal(tt.timestamp) {
			t.Errorf("entry %d timestamp = %v, expected %v", i, entry.Timestamp, tt.timestamp)
		}
		if entry.Unconfirmed {
			t.Errorf("entry %d from the server must be confirmed", i)
		}
	}
	if len(entries[0].Nicknames) != 2 {
		t.Errorf("nicknames = %v", entries[0].Nicknames)
	}
}

func TestClient_AddTrack(t *testing.T) {
	var received addSongRequest
	var key, contentType string

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/add-song" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		key = r.Header.Get("Idempotency-Key")
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})

	track := core.Track{ID: "t1", Name: "One", Artists: []core.Artist{{Name: "A"}}}
	ctx := core.WithIdempotencyKey(context.Background(), "local-abc")
	if err := client.AddTrack(ctx, track, "alice"); err != nil {
		t.Fatalf("AddTrack() error = %v", err)
	}

	if received.Song.ID != "t1" || received.Nickname != "alice" || len(received.Song.Artists) != 1 {
		t.Errorf("received = %+v", received)
	}
	if key != "local-abc" {
		t.Errorf("Idempotency-Key = %q", key)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		duplicate bool
	}{
		{"server error", http.StatusInternalServerError, "boom", false},
		{"conflict", http.StatusConflict, "already added", true},
		{"not found", http.StatusNotFound, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			err := client.AddTrack(context.Background(), core.Track{ID: "t1"}, "")
			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("AddTrack() error = %v, expected *StatusError", err)
			}
			if statusErr.StatusCode != tt.status || statusErr.Body != tt.body {
				t.Errorf("StatusError = %+v", statusErr)
			}
			if got := errors.Is(err, core.ErrDuplicateTrack); got != tt.duplicate {
				t.Errorf("errors.Is(ErrDuplicateTrack) = %v, expected %v", got, tt.duplicate)
			}
		})
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"not":"a list"}`)
	})

	if _, err := client.SearchCatalog(context.Background(), "x"); err == nil {
		t.Error("expected decode error")
	}
	if _, err := client.FetchPlaylist(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SearchCatalog(ctx, "x")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, expected context.Canceled", err)
	}
}

func TestFlexTime_Invalid(t *testing.T) {
	var ts flexTime
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
	if err := json.Unmarshal([]byte(`true`), &ts); err == nil {
		t.Error("expected error for boolean timestamp")
	}
}
