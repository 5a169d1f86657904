package playlist

import (
	"fmt"
	"sort"
	"strings"

	"tunedrop/internal/core"
)

const (
	// PlaceholderCover is shown for tracks without artwork.
	PlaceholderCover = "https://via.placeholder.com/150"
	// InertLink is the play link of tracks without a URI.
	InertLink = "#"

	unknownArtist   = "Unknown Artist"
	anonymousAuthor = "anonymous"

	spotifyTrackURIPrefix = "spotify:track:"
	spotifyTrackURLPrefix = "https://open.spotify.com/track/"
)

// Row is one rendered playlist line.
type Row struct {
	Index       int
	EntryID     string
	CoverURL    string
	Title       string
	Artists     string
	Duration    string
	AddedBy     string
	PlayLink    string
	Unconfirmed bool
}

// Page is a window of rows plus the paging metadata.
type Page struct {
	Rows      []Row
	Page      int
	Size      int
	Total     int
	PageCount int
}

// BuildPage sorts entries newest first and renders the window
// [page*size, page*size+size). The input slice is not modified.
func BuildPage(entries []core.PlaylistEntry, page, size int) Page {
	if size <= 0 {
		size = core.DefaultPageSize
	}
	if page < 0 {
		page = 0
	}

	sorted := make([]core.PlaylistEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	result := Page{
		Page:      page,
		Size:      size,
		Total:     len(sorted),
		PageCount: pageCount(len(sorted), size),
	}

	start := page * size
	if start >= len(sorted) {
		return result
	}
	end := min(start+size, len(sorted))

	result.Rows = make([]Row, 0, end-start)
	for i := start; i < end; i++ {
		result.Rows = append(result.Rows, buildRow(&sorted[i], i+1))
	}
	return result
}

func buildRow(entry *core.PlaylistEntry, index int) Row {
	track := &entry.Track

	cover := track.CoverURL()
	if cover == "" {
		cover = PlaceholderCover
	}

	artists := strings.Join(track.ArtistNames(), ", ")
	if artists == "" {
		artists = unknownArtist
	}

	addedBy := entry.Nickname()
	if addedBy == "" {
		addedBy = anonymousAuthor
	}

	return Row{
		Index:       index,
		EntryID:     entry.ID,
		CoverURL:    cover,
		Title:       track.Name,
		Artists:     artists,
		Duration:    FormatDuration(track.DurationMs),
		AddedBy:     addedBy,
		PlayLink:    PlayLink(track.URI),
		Unconfirmed: entry.Unconfirmed,
	}
}

// FormatDuration renders milliseconds as m:ss.
func FormatDuration(ms int) string {
	if ms < 0 {
		ms = 0
	}
	totalSeconds := ms / 1000
	return fmt.Sprintf("%d:%02d", totalSeconds/60, totalSeconds%60)
}

// PlayLink turns a track URI into something a browser or the desktop client
// can open. Spotify track URIs become open.spotify.com links.
func PlayLink(uri string) string {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return InertLink
	}
	if id, ok := strings.CutPrefix(uri, spotifyTrackURIPrefix); ok && id != "" {
		return spotifyTrackURLPrefix + id
	}
	return uri
}

func pageCount(total, size int) int {
	if total == 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Pager tracks the page index and page size of the playlist table.
type Pager struct {
	Page int
	Size int
}

func NewPager() Pager {
	return Pager{Size: core.DefaultPageSize}
}

// SetSize changes the page size and returns to the first page. Sizes outside
// core.PageSizeOptions are ignored.
func (p *Pager) SetSize(size int) bool {
	for _, option := range core.PageSizeOptions {
		if option == size {
			p.Size = size
			p.Page = 0
			return true
		}
	}
	return false
}

// CycleSize moves to the next page size option.
func (p *Pager) CycleSize() {
	for i, option := range core.PageSizeOptions {
		if option == p.Size {
			p.SetSize(core.PageSizeOptions[(i+1)%len(core.PageSizeOptions)])
			return
		}
	}
	p.SetSize(core.DefaultPageSize)
}

func (p *Pager) Next(total int) {
	if last := pageCount(total, p.size()) - 1; p.Page < last {
		p.Page++
	}
}

func (p *Pager) Prev() {
	if p.Page > 0 {
		p.Page--
	}
}

// Clamp pulls the page index back into range after the playlist shrank.
func (p *Pager) Clamp(total int) {
	last := max(pageCount(total, p.size())-1, 0)
	if p.Page > last {
		p.Page = last
	}
}

// Build renders the current page of entries.
func (p *Pager) Build(entries []core.PlaylistEntry) Page {
	p.Clamp(len(entries))
	return BuildPage(entries, p.Page, p.size())
}

func (p *Pager) size() int {
	if p.Size <= 0 {
		return core.DefaultPageSize
	}
	return p.Size
}
