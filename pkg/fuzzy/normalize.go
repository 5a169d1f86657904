// Package fuzzy normalizes track metadata and scores search candidates
// against a free-text query.
package fuzzy

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	featRegex       = regexp.MustCompile(`(?i)\s*[\(\[]?\s*\b(?:feat\.?|ft\.?|featuring)\s+[^\)\]]*[\)\]]?\s*`)
	versionRegex    = regexp.MustCompile(`(?i)\s*[\(\[-]\s*(?:remaster(?:ed)?|deluxe|extended|radio edit|clean|explicit|live)[^\)\]]*[\)\]]?\s*$`)
	punctRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s&]+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

const (
	titleWeight    = 0.7
	combinedWeight = 0.3
	// plausibleBonus rewards regular-length songs over snippets and mixes.
	plausibleBonus = 0.05
	minPlausible   = 30 * time.Second
	maxPlausible   = 10 * time.Minute
)

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Candidate is the metadata a search hit is scored on.
type Candidate struct {
	Title    string
	Artists  []string
	Duration time.Duration
}

func (n *Normalizer) NormalizeArtist(artist string) string {
	artist = n.basicNormalize(artist)

	artist = strings.ReplaceAll(artist, " and ", " & ")
	artist = strings.ReplaceAll(artist, " feat ", " & ")
	artist = strings.ReplaceAll(artist, " ft ", " & ")

	return artist
}

// NormalizeTitle drops featuring credits and version suffixes so that
// "Song (feat. X) - Remastered 2011" compares equal to "song".
func (n *Normalizer) NormalizeTitle(title string) string {
	title = featRegex.ReplaceAllString(title, " ")
	title = versionRegex.ReplaceAllString(title, "")
	return n.basicNormalize(title)
}

// NormalizeQuery prepares free text typed by a user for a catalog search.
func (n *Normalizer) NormalizeQuery(query string) string {
	return n.basicNormalize(query)
}

func (n *Normalizer) basicNormalize(text string) string {
	text = norm.NFKD.String(text)

	var result strings.Builder
	result.Grow(len(text))
	for _, r := range text {
		if !unicode.Is(unicode.Mn, r) {
			result.WriteRune(r)
		}
	}
	text = result.String()

	text = punctRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")

	return strings.TrimSpace(strings.ToLower(text))
}

// CalculateSimilarity is the rune-level longest common subsequence length
// relative to the longer input, in [0,1].
func (n *Normalizer) CalculateSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 || len(r2) == 0 {
		return 0.0
	}

	return float64(longestCommonSubsequence(r1, r2)) / float64(max(len(r1), len(r2)))
}

// Score rates how well candidate matches query. Higher is better.
func (n *Normalizer) Score(query string, candidate Candidate) float64 {
	normalizedQuery := n.NormalizeQuery(query)
	normalizedTitle := n.NormalizeTitle(candidate.Title)

	artists := make([]string, 0, len(candidate.Artists))
	for _, artist := range candidate.Artists {
		if normalized := n.NormalizeArtist(artist); normalized != "" {
			artists = append(artists, normalized)
		}
	}
	combined := strings.TrimSpace(strings.Join(artists, " ") + " " + normalizedTitle)

	score := titleWeight*n.CalculateSimilarity(normalizedTitle, normalizedQuery) +
		combinedWeight*n.CalculateSimilarity(combined, normalizedQuery)

	if candidate.Duration > minPlausible && candidate.Duration < maxPlausible {
		score += plausibleBonus
	}

	return score
}

// Rank returns the indexes of candidates ordered by descending Score. Ties
// keep catalog order.
func (n *Normalizer) Rank(query string, candidates []Candidate) []int {
	scores := make([]float64, len(candidates))
	order := make([]int, len(candidates))
	for i := range candidates {
		scores[i] = n.Score(query, candidates[i])
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order
}

func longestCommonSubsequence(s1, s2 []rune) int {
	// Two rows are enough: each cell only looks at the previous row.
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			if s1[i-1] == s2[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}
