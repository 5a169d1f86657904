package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tunedrop/internal/core"
)

type addSongRequest struct {
	Song     core.Track `json:"song"`
	Nickname string     `json:"nickname"`
}

// entryPayload is one row of /added-songs. Older servers send a single
// nickname, newer ones a list; ids and timestamps come as strings or numbers.
type entryPayload struct {
	ID        flexString `json:"id"`
	Song      core.Track `json:"song"`
	Nickname  string     `json:"nickname"`
	Nicknames []string   `json:"nicknames"`
	Timestamp flexTime   `json:"timestamp"`
}

func (p *entryPayload) toEntry(position int) core.PlaylistEntry {
	nicknames := p.Nicknames
	if len(nicknames) == 0 && p.Nickname != "" {
		nicknames = []string{p.Nickname}
	}

	id := string(p.ID)
	if id == "" {
		// Rows without an id are keyed by track and position.
		id = fmt.Sprintf("%s#%d", p.Song.ID, position)
	}

	return core.PlaylistEntry{
		ID:        id,
		Track:     p.Song,
		Nicknames: nicknames,
		Timestamp: time.Time(p.Timestamp),
	}
}

type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*s = flexString(num.String())
	return nil
}

// flexTime accepts RFC 3339 strings, numeric strings and numbers. Numbers are
// epoch milliseconds.
type flexTime time.Time

func (t *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = flexTime(time.Time{})
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*t = flexTime(time.Time{})
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			*t = flexTime(parsed)
			return nil
		}
	}

	millis, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("unsupported timestamp %q", raw)
	}
	*t = flexTime(time.UnixMilli(int64(millis)))
	return nil
}
