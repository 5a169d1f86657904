// Package profanity decides whether a nickname is acceptable to show on the
// shared playlist.
package profanity

import (
	"strings"

	goaway "github.com/TwiN/go-away"
)

// Filter implements core.ProfanityChecker.
type Filter struct {
	detector *goaway.ProfanityDetector
}

// NewFilter uses the default English dictionary plus extraWords.
func NewFilter(extraWords ...string) *Filter {
	profanities := append([]string{}, goaway.DefaultProfanities...)
	for _, word := range extraWords {
		if word = strings.ToLower(strings.TrimSpace(word)); word != "" {
			profanities = append(profanities, word)
		}
	}

	detector := goaway.NewProfanityDetector().
		WithSanitizeLeetSpeak(true).
		WithSanitizeSpecialCharacters(true).
		WithSanitizeAccents(true).
		WithCustomDictionary(profanities, goaway.DefaultFalsePositives, goaway.DefaultFalseNegatives)

	return &Filter{detector: detector}
}

func (f *Filter) IsProfane(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	return f.detector.IsProfane(text)
}
