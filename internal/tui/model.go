// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     tui
// Description: Terminal status view for dictation sessions
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/cicero/internal/models"
	"github.com/msto63/cicero/internal/session"
)

// Callbacks connect key presses to the session
type Callbacks struct {
	OnToggle func() // start or stop a dictation
	OnCancel func()
	OnQuit   func()
}

// Model is the terminal status view. It mirrors session state pushed
// through the state channel and model preparation progress through the
// tracker channel.
type Model struct {
	states    <-chan session.State
	downloads <-chan models.Update
	callbacks Callbacks

	width  int
	height int

	state    session.State
	download models.Update
	loading  bool

	spinner  spinner.Model
	progress progress.Model
}

// NewModel creates the status view. downloads may be nil when no model
// preparation is expected.
func NewModel(states <-chan session.State, downloads <-chan models.Update, callbacks Callbacks) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	pr := progress.New(progress.WithDefaultGradient())
	pr.Width = 40

	return Model{
		states:    states,
		downloads: downloads,
		callbacks: callbacks,
		state:     session.State{Phase: session.PhaseIdle, Message: "Bereit"},
		spinner:   sp,
		progress:  pr,
	}
}

type stateMsg session.State

type downloadMsg models.Update

func (m Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		st, ok := <-m.states
		if !ok {
			return tea.Quit()
		}
		return stateMsg(st)
	}
}

func (m Model) waitForDownload() tea.Cmd {
	if m.downloads == nil {
		return nil
	}
	return func() tea.Msg {
		up, ok := <-m.downloads
		if !ok {
			return nil
		}
		return downloadMsg(up)
	}
}

// Init starts the listeners
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForState(), m.waitForDownload())
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.callbacks.OnQuit != nil {
				m.callbacks.OnQuit()
			}
			return m, tea.Quit

		case " ", "enter":
			if m.callbacks.OnToggle != nil {
				m.callbacks.OnToggle()
			}
			return m, nil

		case "c":
			if m.callbacks.OnCancel != nil {
				m.callbacks.OnCancel()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(msg.Width-10, 60)

	case stateMsg:
		m.state = session.State(msg)
		m.loading = m.state.Phase.IsBusy() || m.state.Phase == session.PhaseDownloading
		cmds = append(cmds, m.waitForState())

	case downloadMsg:
		m.download = models.Update(msg)
		cmds = append(cmds, m.waitForDownload())

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the UI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Cicero"))
	s.WriteString("\n")

	s.WriteString(m.renderPhase())
	s.WriteString("\n\n")

	if m.state.Phase == session.PhaseRecording {
		s.WriteString(m.renderMeter())
		s.WriteString("\n\n")
	}

	if m.download.Status.Kind == models.StatusDownloading ||
		m.download.Status.Kind == models.StatusCompiling ||
		m.download.Status.Kind == models.StatusLoading {
		s.WriteString(m.renderDownload())
		s.WriteString("\n\n")
	}

	if m.state.RawTranscription != "" {
		s.WriteString(MutedStyle.Render("Transkript: "))
		s.WriteString(TranscriptStyle.Render(m.state.RawTranscription))
		s.WriteString("\n")
	}
	if m.state.LastInserted != "" {
		s.WriteString(MutedStyle.Render("Eingefügt:  "))
		s.WriteString(TranscriptStyle.Render(m.state.LastInserted))
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("Leertaste: Diktat starten/stoppen • c: Abbrechen • q: Beenden"))

	return BoxStyle.Render(s.String())
}

func (m Model) renderPhase() string {
	var line string
	switch m.state.Phase {
	case session.PhaseIdle, session.PhaseDone:
		line = PhaseIdleStyle.Render(m.state.Message)
	case session.PhaseError:
		line = PhaseErrorStyle.Render("Fehler: " + m.state.Err)
	default:
		line = m.spinner.View() + " " + PhaseActiveStyle.Render(m.state.Message)
	}
	return line
}

// renderMeter draws the microphone level as a block bar
func (m Model) renderMeter() string {
	const width = 30
	filled := int(m.state.AudioLevel * width)
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return MutedStyle.Render("Pegel ") + MeterStyle.Render(bar)
}

func (m Model) renderDownload() string {
	var s strings.Builder

	label := "Modell wird vorbereitet"
	switch m.download.Status.Kind {
	case models.StatusDownloading:
		label = "Modell wird geladen"
		if m.download.TotalBytes > 0 {
			label += fmt.Sprintf(" (%s / %s, %s/s)",
				models.FormatBytes(m.download.CompletedBytes),
				models.FormatBytes(m.download.TotalBytes),
				models.FormatBytes(int64(m.download.SpeedBytesPerSec)))
		}
	case models.StatusCompiling:
		label = "Modell wird geprüft"
	case models.StatusLoading:
		label = "Modell wird initialisiert"
	}

	s.WriteString(MutedStyle.Render(label))
	s.WriteString("\n")
	s.WriteString(m.progress.ViewAs(m.download.Fraction))
	return s.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
