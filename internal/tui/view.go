package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"tunedrop/internal/core"
	"tunedrop/internal/messages"
	"tunedrop/internal/playlist"
)

var playlistColumns = []table.Column{
	{Title: "#", Width: 4},
	{Title: "Title", Width: 28},
	{Title: "Artists", Width: 24},
	{Title: "Time", Width: 6},
	{Title: "Added by", Width: 16},
	{Title: "Link", Width: 40},
}

func (m *Model) View() string {
	sections := []string{
		styles.title.Render(m.text.T(messages.Title)),
	}

	if notification := m.deps.Notify.Current(); notification.Visible {
		sections = append(sections, notificationStyle(notification.Kind).Render(notification.Message))
	}

	sections = append(sections, m.renderSearch())

	if form := m.deps.Playlist.Form(); form.Open && form.Track != nil {
		sections = append(sections, m.renderForm(form))
	} else {
		sections = append(sections, m.renderResults())
	}

	sections = append(sections,
		m.renderPlaylist(),
		m.help.ShortHelpView(m.keys.bindings(m.focus)),
	)

	return strings.Join(sections, "\n\n")
}

func (m *Model) renderSearch() string {
	line := m.search.View()
	if m.Busy() {
		line += " " + m.spinner.View()
	}
	return line
}

func (m *Model) renderResults() string {
	results := m.deps.Search.Results()
	if results.NoMatches() {
		return styles.muted.Render(m.text.T(messages.SearchNoResult))
	}
	if len(results.Tracks) == 0 {
		return ""
	}

	lines := make([]string, 0, len(results.Tracks)+1)
	for i := range results.Tracks {
		line := describeTrack(&results.Tracks[i], m.text)
		if i == m.cursor && m.focus == FocusSearch {
			lines = append(lines, styles.cursor.Render("▸ "+line))
			continue
		}
		lines = append(lines, "  "+line)
	}
	lines = append(lines, styles.muted.Render(m.text.T(messages.SearchHint)))

	return strings.Join(lines, "\n")
}

func (m *Model) renderForm(form playlist.Form) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render(form.Track.Name),
		artistLine(form.Track, m.text),
		"",
		m.nickname.View(),
	)
	return formStyle(m.deps.Palette.Current()).Render(body)
}

func (m *Model) renderPlaylist() string {
	header := styles.accent.Bold(true).Render(m.text.T(messages.PlaylistTitle))

	entries := m.deps.Playlist.Entries()
	if len(entries) == 0 {
		if !m.loadedOnce || m.deps.Playlist.Loading() {
			return header + "\n" + styles.muted.Render(m.text.T(messages.PlaylistLoad))
		}
		return header + "\n" + styles.muted.Render(m.text.T(messages.PlaylistEmpty))
	}

	page := m.pager.Build(entries)

	rows := make([]table.Row, 0, len(page.Rows))
	for _, row := range page.Rows {
		addedBy := row.AddedBy
		if row.Unconfirmed {
			addedBy += " · " + m.text.T(messages.Unconfirmed)
		}
		rows = append(rows, table.Row{
			strconv.Itoa(row.Index),
			row.Title,
			row.Artists,
			row.Duration,
			addedBy,
			row.PlayLink,
		})
	}

	tableStyles := table.DefaultStyles()
	tableStyles.Selected = lipgloss.NewStyle()
	view := table.New(
		table.WithColumns(playlistColumns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
		table.WithFocused(false),
		table.WithStyles(tableStyles),
	)

	m.pages.PerPage = page.Size
	m.pages.SetTotalPages(page.Total)
	m.pages.Page = page.Page
	footer := styles.muted.Render(fmt.Sprintf("page %s · %d per page · %d tracks",
		m.pages.View(), page.Size, page.Total))

	return lipgloss.JoinVertical(lipgloss.Left, header, view.View(), footer)
}

func describeTrack(track *core.Track, text *messages.Catalog) string {
	return fmt.Sprintf("%s · %s · %s",
		track.Name, artistLine(track, text), playlist.FormatDuration(track.DurationMs))
}

func artistLine(track *core.Track, text *messages.Catalog) string {
	names := track.ArtistNames()
	if len(names) == 0 {
		return text.T(messages.UnknownArtist)
	}
	return strings.Join(names, ", ")
}
