// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/halcyonlabs/parley/internal/trust"
)

// =============================================================================
// THEME
// =============================================================================

// Theme holds the styled components for the chat view.
type Theme struct {
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	ToolLabel      lipgloss.Style
	ToolError      lipgloss.Style
	Status         lipgloss.Style
	Notice         lipgloss.Style
	InputPrompt    lipgloss.Style
	WebviewFrame   lipgloss.Style
	ElicitFrame    lipgloss.Style
}

// NewTheme creates the default theme.
func NewTheme() *Theme {
	return &Theme{
		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5FAFFF")),
		AssistantLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#AFFFAF")),
		ToolLabel: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#808080")),
		ToolError: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")),
		Status: lipgloss.NewStyle().
			Faint(true),
		Notice: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#FFAF5F")),
		InputPrompt: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5FAFFF")),
		WebviewFrame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1),
		ElicitFrame: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#FFAF5F")).
			Padding(0, 1),
	}
}

// TrustBadge renders the badge for a trust level.
func (t *Theme) TrustBadge(level trust.Level) string {
	return level.BadgeStyle().Render(level.String())
}
