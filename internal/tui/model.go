// Package tui is the terminal front end: a search box with debounced
// results, a nickname form tinted with the cover colors and the shared
// playlist table.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"tunedrop/internal/core"
	"tunedrop/internal/messages"
	"tunedrop/internal/notify"
	"tunedrop/internal/palette"
	"tunedrop/internal/playlist"
	"tunedrop/internal/search"
)

// Focus is the widget receiving key presses.
type Focus int

const (
	FocusSearch Focus = iota
	FocusNickname
	FocusPlaylist
)

// Deps are the controllers the model drives. The model registers itself as
// their observer.
type Deps struct {
	Search   *search.Pipeline
	Palette  *palette.Extractor
	Notify   *notify.Manager
	Playlist *playlist.Controller
	PageSize int
	Logger   *zap.Logger
}

// Model is the bubbletea model. Controller state is never copied into it:
// every render reads fresh snapshots, and observers only wake the program up.
type Model struct {
	ctx    context.Context
	deps   Deps
	logger *zap.Logger
	text   *messages.Catalog

	focus    Focus
	search   textinput.Model
	nickname textinput.Model
	spinner  spinner.Model
	pages    paginator.Model
	help     help.Model
	keys     keyMap

	pager      playlist.Pager
	cursor     int
	resultsFor string
	submitting bool
	loadedOnce bool
	width      int
	height     int

	// changed carries one pending wake-up; further signals coalesce.
	changed chan struct{}
}

// changedMsg tells Update that a controller changed state.
type changedMsg struct{}

type playlistLoadedMsg struct {
	err error
}

type submitDoneMsg struct {
	outcome playlist.Outcome
	err     error
}

func NewModel(ctx context.Context, deps Deps) *Model {
	text := messages.NewCatalog()

	searchInput := textinput.New()
	searchInput.Placeholder = text.T(messages.SearchPrompt)
	searchInput.Prompt = "> "
	searchInput.Focus()

	nicknameInput := textinput.New()
	nicknameInput.Placeholder = text.T(messages.NicknamePrompt)
	nicknameInput.Prompt = "@ "

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.accent

	pages := paginator.New()
	pages.Type = paginator.Arabic

	pager := playlist.NewPager()
	if deps.PageSize > 0 {
		pager.SetSize(deps.PageSize)
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Model{
		ctx:      ctx,
		deps:     deps,
		logger:   logger.Named("tui"),
		text:     text,
		focus:    FocusSearch,
		search:   searchInput,
		nickname: nicknameInput,
		spinner:  spin,
		pages:    pages,
		help:     help.New(),
		keys:     newKeyMap(),
		pager:    pager,
		changed:  make(chan struct{}, 1),
	}

	deps.Search.SetResultsHandler(func(search.Results) { m.wake() })
	deps.Palette.SetPaletteHandler(func(core.Palette) { m.wake() })
	deps.Notify.SetHandler(func(core.Notification) { m.wake() })
	deps.Playlist.SetPlaylistHandler(func([]core.PlaylistEntry) { m.wake() })
	deps.Playlist.SetFormHandler(func(playlist.Form) { m.wake() })

	return m
}

// wake never blocks: observers may run on the Update goroutine itself.
func (m *Model) wake() {
	select {
	case m.changed <- struct{}{}:
	default:
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.loadPlaylist(), m.waitForChange())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.search.Width = max(msg.Width-6, 10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case changedMsg:
		m.syncResults()
		return m, m.waitForChange()

	case playlistLoadedMsg:
		m.loadedOnce = true
		if msg.err != nil {
			m.logger.Warn("Playlist load failed", zap.Error(msg.err))
		}
		return m, nil

	case submitDoneMsg:
		return m.handleSubmitDone(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.focus {
	case FocusNickname:
		return m.handleNicknameKeys(msg)
	case FocusPlaylist:
		return m.handlePlaylistKeys(msg)
	default:
		return m.handleSearchKeys(msg)
	}
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(m.deps.Search.Results().Tracks)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		return m.selectResult()
	case "esc":
		m.search.SetValue("")
		m.deps.Search.Clear()
		return m, nil
	case "tab":
		m.setFocus(FocusPlaylist)
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if value := m.search.Value(); value != before {
		m.deps.Search.Input(value)
	}
	return m, cmd
}

func (m *Model) handleNicknameKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.submitting {
			return m, nil
		}
		m.deps.Playlist.CloseForm()
		m.deps.Palette.Show("")
		m.nickname.SetValue("")
		m.setFocus(FocusSearch)
		return m, nil
	case "enter":
		if m.submitting {
			return m, nil
		}
		m.submitting = true
		return m, m.submit()
	}

	if m.submitting {
		return m, nil
	}

	before := m.nickname.Value()
	var cmd tea.Cmd
	m.nickname, cmd = m.nickname.Update(msg)
	if value := m.nickname.Value(); value != before {
		if !m.deps.Playlist.SetNickname(value) {
			// Rejected input leaves the stored nickname in place.
			m.nickname.SetValue(before)
		}
	}
	return m, cmd
}

func (m *Model) handlePlaylistKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	total := len(m.deps.Playlist.Entries())

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "esc":
		m.setFocus(FocusSearch)
	case "right", "l":
		m.pager.Next(total)
	case "left", "h":
		m.pager.Prev()
	case "s":
		m.pager.CycleSize()
	case "r":
		return m, m.loadPlaylist()
	}
	return m, nil
}

func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case FocusSearch:
		m.search, cmd = m.search.Update(msg)
	case FocusNickname:
		m.nickname, cmd = m.nickname.Update(msg)
	}
	return m, cmd
}

func (m *Model) selectResult() (tea.Model, tea.Cmd) {
	tracks := m.deps.Search.Results().Tracks
	if m.cursor < 0 || m.cursor >= len(tracks) {
		return m, nil
	}

	track := tracks[m.cursor]
	m.deps.Playlist.Select(track)
	if !m.deps.Playlist.Form().Open {
		return m, nil
	}

	m.deps.Palette.Show(track.CoverURL())
	m.nickname.SetValue("")
	m.setFocus(FocusNickname)
	return m, textinput.Blink
}

func (m *Model) handleSubmitDone(msg submitDoneMsg) (tea.Model, tea.Cmd) {
	m.submitting = false
	if msg.err != nil && !errors.Is(msg.err, core.ErrSubmissionInProgress) {
		m.logger.Warn("Submit rejected", zap.Error(msg.err))
	}
	m.logger.Debug("Submit finished", zap.Stringer("outcome", msg.outcome))

	m.nickname.SetValue("")
	m.search.SetValue("")
	m.deps.Search.Clear()
	m.deps.Palette.Show("")
	m.cursor = 0
	m.setFocus(FocusSearch)
	return m, nil
}

func (m *Model) setFocus(focus Focus) {
	m.focus = focus
	m.search.Blur()
	m.nickname.Blur()

	switch focus {
	case FocusSearch:
		m.search.Focus()
	case FocusNickname:
		m.nickname.Focus()
	}
}

// syncResults moves the cursor back to the top when a new result list arrived.
func (m *Model) syncResults() {
	results := m.deps.Search.Results()
	if results.Query != m.resultsFor {
		m.resultsFor = results.Query
		m.cursor = 0
	}
	if m.cursor >= len(results.Tracks) {
		m.cursor = max(len(results.Tracks)-1, 0)
	}
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changed:
			return changedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) loadPlaylist() tea.Cmd {
	return func() tea.Msg {
		return playlistLoadedMsg{err: m.deps.Playlist.Load(m.ctx)}
	}
}

func (m *Model) submit() tea.Cmd {
	return func() tea.Msg {
		outcome, err := m.deps.Playlist.Submit(m.ctx)
		return submitDoneMsg{outcome: outcome, err: err}
	}
}

// Busy reports whether any spinner-worthy work is running.
func (m *Model) Busy() bool {
	return m.submitting || m.deps.Search.Searching() || m.deps.Playlist.Loading()
}
