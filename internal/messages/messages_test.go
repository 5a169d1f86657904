package messages

import (
	"strings"
	"testing"
)

func TestCatalog_T(t *testing.T) {
	catalog := NewCatalog()

	tests := []struct {
		name string
		key  string
		args []interface{}
		want string
	}{
		{"plain", AddDuplicate, nil, "great minds think alike! this song is already added. thank you!"},
		{"formatted", AddThrottled, []interface{}{"alice"}, "easy there, alice! give the others a turn and try again in a minute."},
		{"unknown key", "does.not.exist", nil, "does.not.exist"},
		{"fallback texts", UnknownArtist, nil, "Unknown Artist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := catalog.T(tt.key, tt.args...); got != tt.want {
				t.Errorf("T(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

// TestCatalog_Completeness verifies every declared key has a text and that
// format verbs match how the keys are used.
func TestCatalog_Completeness(t *testing.T) {
	catalog := NewCatalog()

	declared := []string{
		AddSuccess, AddDuplicate, AddFailed, AddThrottled, LoadFailed,
		SearchNoResult, SearchPrompt, SearchHint, NicknamePrompt,
		PlaylistTitle, PlaylistEmpty, PlaylistLoad, Unconfirmed, Anonymous,
		UnknownArtist, Title,
	}

	if len(catalog.Keys()) != len(declared) {
		t.Errorf("catalog has %d keys, %d declared", len(catalog.Keys()), len(declared))
	}

	formatted := map[string]bool{AddFailed: true, AddThrottled: true}
	for _, key := range declared {
		text := catalog.T(key)
		if text == key || text == "" {
			t.Errorf("missing text for %q", key)
		}
		if hasVerb := strings.Contains(text, "%s"); hasVerb != formatted[key] {
			t.Errorf("key %q: format verb present = %v, want %v", key, hasVerb, formatted[key])
		}
	}
}
