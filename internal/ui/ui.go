package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotshuffle/internal/session"
	"github.com/desertthunder/spotshuffle/internal/shared"
	"github.com/desertthunder/spotshuffle/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	InputView ViewState = iota
	LoginView
	ProgressView
	ResultView
)

// LoginFunc runs an interactive login that leaves a token in store. It calls show with the
// authorize URL once known, and with the error if no browser could be opened for it.
type LoginFunc func(ctx context.Context, store session.Store, show func(authURL string, openErr error)) error

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	engine     tasks.Engine
	store      session.Store
	login      LoginFunc
	logger     *log.Logger
	width      int
	height     int
	input      textinput.Model
	bar        progress.Model
	trackList  list.Model
	playlistID string

	progressChan chan tasks.ProgressUpdate
	doneChan     chan Msg
	progress     tasks.ProgressUpdate
	result       *tasks.ShuffleResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine tasks.Engine, store session.Store, login LoginFunc) *Model {
	input := textinput.New()
	input.Placeholder = "playlist ID, spotify:playlist: URI or link"
	input.CharLimit = 256
	input.Width = 60
	input.Focus()

	return &Model{
		ctx:    ctx,
		view:   InputView,
		engine: engine,
		store:  store,
		login:  login,
		logger: shared.NewLogger(io.Discard),
		input:  input,
		bar:    progress.New(progress.WithDefaultGradient()),
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// WithLogger sets the logger used for failures. Use a file logger, the terminal belongs to the TUI.
func (m *Model) WithLogger(logger *log.Logger) *Model {
	m.logger = logger
	return m
}

// WithPlaylist pre-fills the playlist input.
func (m *Model) WithPlaylist(input string) *Model {
	m.input.SetValue(input)
	return m
}

// Init starts the cursor blink of the playlist input.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(10, msg.Width-4)
		if m.view == ResultView {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case InputView:
			return m.handleInputKeys(msg)
		case LoginView, ProgressView:
			if key.Matches(msg, m.keys.cancel) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateComponents(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgAuthorized:
		m.progressChan = nil
		m.doneChan = nil
		if err, _ := msg.data.(error); err != nil {
			m.fail(err)
			return m, nil
		}
		return m, m.startShuffle()

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgShuffleComplete:
		out := msg.data.(shuffleOutcome)
		m.progressChan = nil
		m.doneChan = nil
		if out.err != nil {
			m.fail(out.err)
			return m, nil
		}

		m.result = out.result
		m.trackList = list.New(trackItems(out.result.Tracks), list.NewDefaultDelegate(), max(0, m.width-4), max(0, m.height-8))
		m.trackList.Title = fmt.Sprintf("Shuffled '%s'", out.result.PlaylistID)
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// fail returns to the input with err shown. An expired or missing token forces a new login on the next attempt.
func (m *Model) fail(err error) {
	m.logger.Error("shuffle failed", "playlist", m.playlistID, "error", err)
	if errors.Is(err, shared.ErrNotAuthenticated) {
		_ = m.store.Clear()
	}
	m.err = err
	m.view = InputView
	m.input.Focus()
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case InputView:
		return m.renderInput()
	case LoginView:
		return m.renderLogin()
	case ProgressView:
		return m.renderProgress()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		id, err := tasks.ParsePlaylistID(m.input.Value())
		if err != nil {
			m.err = err
			return m, nil
		}
		m.playlistID = id
		m.err = nil
		m.input.Blur()

		if _, err := m.store.Token(); err != nil {
			if m.login == nil {
				m.fail(err)
				return m, nil
			}
			return m, m.authorize()
		}
		return m, m.startShuffle()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = InputView
		m.result = nil
		m.err = nil
		m.progress = tasks.ProgressUpdate{}
		m.input.Reset()
		m.input.Focus()
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case InputView:
		m.input, cmd = m.input.Update(msg)
	case ResultView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

// authorize runs the login in the background. Authorize updates share progressChan with the
// shuffle so the URL reaches the login view while the callback is awaited.
func (m *Model) authorize() tea.Cmd {
	m.view = LoginView
	m.progress = tasks.ProgressUpdate{Phase: tasks.Authorize, Message: "Starting login..."}
	m.progressChan = make(chan tasks.ProgressUpdate, 4)
	m.doneChan = make(chan Msg, 1)

	ctx, login, store := m.ctx, m.login, m.store
	progressChan, doneChan := m.progressChan, m.doneChan
	show := func(authURL string, openErr error) {
		select {
		case progressChan <- tasks.AuthorizeUpdate(authURL, openErr):
		default:
		}
	}
	go func() {
		doneChan <- authorizedMsg(login(ctx, store, show))
	}()

	return m.waitForProgress()
}

// startShuffle runs the engine in the background. The outcome arrives on doneChan so the model is
// only ever mutated from Update.
func (m *Model) startShuffle() tea.Cmd {
	m.view = ProgressView
	m.progress = tasks.ProgressUpdate{Phase: tasks.FetchTracks, Message: "Fetching tracks..."}
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.doneChan = make(chan Msg, 1)

	ctx, engine, store, id := m.ctx, m.engine, m.store, m.playlistID
	progressChan, doneChan := m.progressChan, m.doneChan
	go func() {
		result, err := engine.Shuffle(ctx, store, id, progressChan)
		doneChan <- shuffleCompleteMsg(result, err)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan, doneChan := m.progressChan, m.doneChan
	return func() tea.Msg {
		select {
		case update := <-progressChan:
			return progressUpdateMsg(update)
		case msg := <-doneChan:
			return msg
		}
	}
}

func (m *Model) renderInput() string {
	title := styles.title.Render("Shuffle a Spotify playlist")

	var errLine string
	if m.err != nil {
		errLine = "\n\n" + styles.err.Render(shared.UserMessage(m.err))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.cancel})
	return fmt.Sprintf("%s\n%s%s\n\n%s", title, m.input.View(), errLine, helpView)
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("Log in with Spotify")
	info := styles.warn.Render(m.progress.Message)
	if authURL, _ := m.progress.Data.(string); authURL != "" {
		info += "\n\n" + authURL
	}
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, m.help.ShortHelpView([]key.Binding{m.keys.cancel}))
}

func (m *Model) renderProgress() string {
	title := styles.title.Render(fmt.Sprintf("Shuffling %s", m.playlistID))

	var phase string
	switch m.progress.Phase {
	case tasks.FetchTracks:
		phase = fmt.Sprintf("Fetching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.ShuffleTracks:
		phase = "Shuffling..."
	case tasks.Complete:
		phase = "Done"
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s\n%s", title, phase, m.bar.ViewAs(float64(m.progress.Percent)/100), styles.help.Render(m.progress.Message))
}

func (m *Model) renderResult() string {
	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	title := styles.ok.Render(fmt.Sprintf("✓ Shuffled %d tracks from %d pages", m.result.Total, m.result.Pages))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.restart, m.keys.quit})
	return strings.Join([]string{title, m.trackList.View(), helpView}, "\n\n")
}
