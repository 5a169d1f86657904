package tui

import (
	"github.com/charmbracelet/lipgloss"

	"tunedrop/internal/core"
)

var styles = newStylesheet("#1DB954", "#04B575", "#5FAFFF", "#FF5F5F", "#626262")

// stylesheet holds the fixed [lipgloss.Style]s. Colors taken from cover art
// are applied per render in formStyle.
type stylesheet struct {
	title   lipgloss.Style
	accent  lipgloss.Style
	success lipgloss.Style
	info    lipgloss.Style
	err     lipgloss.Style
	muted   lipgloss.Style
	cursor  lipgloss.Style
}

func newStylesheet(accent, success, info, failure, muted string) stylesheet {
	return stylesheet{
		title:   newBold(accent).MarginBottom(1),
		accent:  newStyle(accent),
		success: newBold(success),
		info:    newBold(info),
		err:     newBold(failure),
		muted:   newStyle(muted).Italic(true),
		cursor:  newBold(accent),
	}
}

func newStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func newBold(fg string) lipgloss.Style {
	return newStyle(fg).Bold(true)
}

func notificationStyle(kind core.NotificationKind) lipgloss.Style {
	switch kind {
	case core.NotificationSuccess:
		return styles.success
	case core.NotificationError:
		return styles.err
	default:
		return styles.info
	}
}

// formStyle paints the nickname form with the palette extracted from the cover.
func formStyle(palette core.Palette) lipgloss.Style {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(palette.Background)).
		Foreground(lipgloss.Color(palette.Foreground)).
		Padding(1, 2).
		MarginTop(1)
}
