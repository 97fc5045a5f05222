// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     tui
// Description: Styles for the terminal status view
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#10B981")
	colorAccent    = lipgloss.Color("#F59E0B")
	colorError     = lipgloss.Color("#EF4444")
	colorMuted     = lipgloss.Color("#6B7280")
	colorFg        = lipgloss.Color("#F9FAFB")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginBottom(1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(1, 2)

	PhaseIdleStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	PhaseActiveStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true)

	PhaseErrorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	TranscriptStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	MutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	MeterStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	HelpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)

	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(colorFg).
			Padding(0, 1)
)
