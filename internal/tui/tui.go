// Package tui provides a Bubble Tea terminal user interface for podcast-downloader.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/handiism/podcast-downloader/internal/config"
	"github.com/handiism/podcast-downloader/internal/download"
	ioutils "github.com/handiism/podcast-downloader/internal/io"
	"github.com/handiism/podcast-downloader/internal/logging"
)

const maxLogLines = 10

// errCancelled is shown when the user aborts a run.
var errCancelled = errors.New("cancelled by user")

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	episodeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateDownloading
	StateComplete
	StateError
)

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      *logBuffer
	lines     []LogEntry
	err       error

	ctx    context.Context
	cancel context.CancelFunc

	manager *download.Manager
	status  download.Progress
	stats   download.Stats

	// Options
	verbose  bool
	strict   bool
	playlist bool

	width  int
	height int
}

// NewModel creates a new TUI model. settings provides everything except
// the feed URL and the toggles shown on screen; it is never modified.
func NewModel(settings *config.Settings) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	ti := textinput.New()
	ti.Placeholder = "https://example.com/podcast/feed.xml"
	ti.SetValue(settings.FeedURL)
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logs:      newLogBuffer(maxLogLines),
		ctx:       ctx,
		cancel:    cancel,
		verbose:   settings.Verbose,
		strict:    settings.StrictDedup,
		playlist:  settings.PlaylistFormat != "",
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// DownloadDoneMsg is sent when the run finishes.
	DownloadDoneMsg struct {
		Stats download.Stats
		Err   error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading {
				m.cancel()
			}
			return m, nil

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
				return m.start()
			}

		case "alt+v":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}
			return m, nil

		case "alt+s":
			if m.state == StateInput {
				m.strict = !m.strict
			}
			return m, nil

		case "alt+p":
			if m.state == StateInput {
				m.playlist = !m.playlist
			}
			return m, nil

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				return m.reset(), textinput.Blink
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case DownloadDoneMsg:
		m.stats = msg.Stats
		m.lines = m.logs.snapshot()
		if m.manager != nil {
			m.status = m.manager.Progress()
		}
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = errCancelled
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}

	case TickMsg:
		if m.manager != nil && m.state == StateDownloading {
			m.status = m.manager.Progress()
			m.lines = m.logs.snapshot()

			var percent float64
			if m.status.Total > 0 {
				percent = float64(m.status.Processed) / float64(m.status.Total)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// runSettings copies the base settings and applies the on-screen options.
func (m Model) runSettings() (*config.Settings, error) {
	s := *m.settings
	s.FeedURL = strings.TrimSpace(m.textInput.Value())
	s.Verbose = m.verbose
	s.StrictDedup = m.strict
	switch {
	case !m.playlist:
		s.PlaylistFormat = ""
	case s.PlaylistFormat == "":
		s.PlaylistFormat = "m3u"
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m Model) start() (tea.Model, tea.Cmd) {
	settings, err := m.runSettings()
	if err == nil {
		err = ioutils.EnsureDir(settings.Dir())
	}
	if err != nil {
		m.state = StateError
		m.err = err
		return m, nil
	}

	level, _ := logging.ParseLevel(settings.LogLevel)
	logger := slog.New(newLogHandler(m.logs, level))

	m.manager = download.NewManager(settings, logger)
	m.state = StateDownloading
	return m, tea.Batch(m.startDownload(m.manager), m.tickProgress(), m.spinner.Tick)
}

func (m Model) reset() Model {
	m.cancel()
	m.state = StateInput
	m.logs = newLogBuffer(maxLogLines)
	m.lines = nil
	m.err = nil
	m.manager = nil
	m.status = download.Progress{}
	m.stats = download.Stats{}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.textInput.SetValue("")
	m.textInput.Focus()
	return m
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// startDownload runs the manager in the background.
func (m Model) startDownload(manager *download.Manager) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		stats, err := manager.Run(ctx)
		return DownloadDoneMsg{Stats: stats, Err: err}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Podcast Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download every episode of an RSS feed"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter RSS feed URL:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Report existing episodes (alt+v)\n", checkbox(m.verbose)))
	b.WriteString(fmt.Sprintf("  %s Keep colliding episodes apart (alt+s)\n", checkbox(m.strict)))
	b.WriteString(fmt.Sprintf("  %s Create playlist (alt+p)\n", checkbox(m.playlist)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Download directory: %s", m.settings.Dir())))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if m.status.Total == 0 {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Fetching feed..."))
		b.WriteString("\n\n")
		b.WriteString(m.renderLogs())
		return b.String()
	}

	if m.status.Current != "" {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(episodeStyle.Render(m.status.Current))
		if m.status.CurrentReceived > 0 {
			b.WriteString(dimStyle.Render(" " + humanize.Bytes(uint64(m.status.CurrentReceived))))
		}
		b.WriteString("\n\n")
	}

	var percent float64
	if m.status.Total > 0 {
		percent = float64(m.status.Processed) / float64(m.status.Total)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Episodes: %d/%d | New: %d | Existing: %d | Failed: %d | %s",
		m.status.Processed,
		m.status.Total,
		m.status.Downloaded,
		m.status.Skipped,
		m.status.Failed,
		humanize.Bytes(uint64(m.status.Bytes)),
	)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	box := boxStyle.Render(fmt.Sprintf(
		"Download Complete!\n\n"+
			"Downloaded: %d\n"+
			"Already present: %d\n"+
			"Failed: %d\n"+
			"Size: %s",
		m.stats.Downloaded,
		m.stats.Skipped,
		m.stats.Failed,
		humanize.Bytes(uint64(m.stats.Bytes)),
	))
	return box + "\n\n" + m.renderLogs()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
		b.WriteString("\n\n")
	}
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.lines {
		var style lipgloss.Style
		prefix := "•"
		switch {
		case log.Level >= slog.LevelError:
			style = errorStyle
			prefix = "x"
		case log.Level >= slog.LevelWarn:
			style = warningStyle
			prefix = "!"
		case strings.HasPrefix(log.Message, "Download completed"):
			style = successStyle
			prefix = "✓"
		case log.Level >= slog.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • alt+v: verbose • alt+s: strict • alt+p: playlist • esc: quit"
	case StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
