// Package messages holds the user-facing texts.
package messages

import (
	"fmt"
)

// Message keys.
const (
	AddSuccess     = "add.success"
	AddDuplicate   = "add.duplicate"
	AddFailed      = "add.failed"
	AddThrottled   = "add.throttled"
	LoadFailed     = "playlist.load_failed"
	SearchNoResult = "search.no_results"
	SearchPrompt   = "search.prompt"
	SearchHint     = "search.hint"
	NicknamePrompt = "nickname.prompt"
	PlaylistTitle  = "playlist.title"
	PlaylistEmpty  = "playlist.empty"
	PlaylistLoad   = "playlist.loading"
	Unconfirmed    = "playlist.unconfirmed"
	Anonymous      = "playlist.anonymous"
	UnknownArtist  = "track.unknown_artist"
	Title          = "app.title"
)

// Catalog looks up texts by key.
type Catalog struct {
	messages map[string]string
}

func NewCatalog() *Catalog {
	return &Catalog{messages: englishMessages}
}

// T returns the text for key, formatted with args when given. Unknown keys
// are returned as-is.
func (c *Catalog) T(key string, args ...interface{}) string {
	message, exists := c.messages[key]
	if !exists {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(message, args...)
	}
	return message
}

// Keys returns every known message key.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.messages))
	for key := range c.messages {
		keys = append(keys, key)
	}
	return keys
}
