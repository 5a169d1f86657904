package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"tunedrop/internal/core"
)

const playlistSchema = `
CREATE TABLE IF NOT EXISTS playlist_entries (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	track_id    TEXT    NOT NULL UNIQUE,
	name        TEXT    NOT NULL,
	artists     TEXT    NOT NULL,
	album       TEXT    NOT NULL,
	duration_ms INTEGER NOT NULL,
	uri         TEXT    NOT NULL,
	nickname    TEXT    NOT NULL,
	added_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_playlist_entries_added_at ON playlist_entries(added_at);
`

// SQLitePlaylist is a standalone playlist store backed by a local SQLite file.
// The UNIQUE track_id constraint arbitrates duplicate submissions.
type SQLitePlaylist struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// OpenSQLitePlaylist opens (or creates) the playlist database at path.
// The path can be ":memory:" for an in-memory database.
func OpenSQLitePlaylist(ctx context.Context, path string, logger *zap.Logger) (*SQLitePlaylist, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, playlistSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate playlist schema: %w", err)
	}

	return &SQLitePlaylist{
		db:     db,
		logger: logger.Named("sqlite"),
		now:    time.Now,
	}, nil
}

func (s *SQLitePlaylist) FetchPlaylist(ctx context.Context) ([]core.PlaylistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, track_id, name, artists, album, duration_ms, uri, nickname, added_at
		FROM playlist_entries
		ORDER BY added_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist: %w", err)
	}
	defer rows.Close()

	var entries []core.PlaylistEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read playlist rows: %w", err)
	}

	return entries, nil
}

func (s *SQLitePlaylist) AddTrack(ctx context.Context, track core.Track, nickname string) error {
	if track.ID == "" {
		return fmt.Errorf("track has no id")
	}

	artists, err := json.Marshal(track.Artists)
	if err != nil {
		return fmt.Errorf("failed to encode artists: %w", err)
	}
	album, err := json.Marshal(track.Album)
	if err != nil {
		return fmt.Errorf("failed to encode album: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO playlist_entries (track_id, name, artists, album, duration_ms, uri, nickname, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		track.ID, track.Name, string(artists), string(album), track.DurationMs, track.URI,
		nickname, s.now().UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("track %s: %w", track.ID, core.ErrDuplicateTrack)
		}
		return fmt.Errorf("failed to insert playlist entry: %w", err)
	}

	s.logger.Debug("Stored playlist entry",
		zap.String("trackID", track.ID),
		zap.String("nickname", nickname))
	return nil
}

func (s *SQLitePlaylist) Close() error {
	return s.db.Close()
}

func scanEntry(rows *sql.Rows) (core.PlaylistEntry, error) {
	var (
		id       int64
		track    core.Track
		artists  string
		album    string
		nickname string
		addedAt  int64
	)

	if err := rows.Scan(&id, &track.ID, &track.Name, &artists, &album,
		&track.DurationMs, &track.URI, &nickname, &addedAt); err != nil {
		return core.PlaylistEntry{}, fmt.Errorf("failed to scan playlist row: %w", err)
	}
	if err := json.Unmarshal([]byte(artists), &track.Artists); err != nil {
		return core.PlaylistEntry{}, fmt.Errorf("failed to decode artists of %s: %w", track.ID, err)
	}
	if err := json.Unmarshal([]byte(album), &track.Album); err != nil {
		return core.PlaylistEntry{}, fmt.Errorf("failed to decode album of %s: %w", track.ID, err)
	}

	entry := core.PlaylistEntry{
		ID:        strconv.FormatInt(id, 10),
		Track:     track,
		Timestamp: time.UnixMilli(addedAt),
	}
	if nickname != "" {
		entry.Nicknames = []string{nickname}
	}
	return entry, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
