// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package trust

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// TRUST LEVELS
// =============================================================================

// Level classifies a content source.
type Level int

const (
	// LevelUnverified is the default for any provider not on the allow-list.
	LevelUnverified Level = iota

	// LevelTrusted is an explicitly allow-listed provider.
	LevelTrusted

	// LevelVerified is model-authored content.
	LevelVerified
)

// Badge text constants for UI display.
const (
	BadgeUnverified = "UNVERIFIED"
	BadgeTrusted    = "TRUSTED"
	BadgeVerified   = "VERIFIED"
)

// Color constants for trust badges.
const (
	ColorUnverified = lipgloss.Color("#FF0000") // Red
	ColorTrusted    = lipgloss.Color("#FFA500") // Orange
	ColorVerified   = lipgloss.Color("#00FF00") // Green
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelVerified:
		return BadgeVerified
	case LevelTrusted:
		return BadgeTrusted
	default:
		return BadgeUnverified
	}
}

// Color returns the appropriate lipgloss color for the level.
func (l Level) Color() lipgloss.Color {
	switch l {
	case LevelVerified:
		return ColorVerified
	case LevelTrusted:
		return ColorTrusted
	default:
		return ColorUnverified
	}
}

// BadgeStyle returns the lipgloss style for rendering a trust badge.
func (l Level) BadgeStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(l.Color()).
		Padding(0, 1)
}

// =============================================================================
// CAPABILITY MATRIX
// =============================================================================

// Capabilities describes what a trust level's content may do when rendered.
// The matrix is monotonic: a level's capabilities are fixed at classification
// time and never escalated later.
type Capabilities struct {
	// HTML indicates whether markup is rendered at all.
	HTML bool

	// Scripts indicates whether script execution is granted. Scripts run
	// only inside the isolated renderer, never via raw DOM injection into
	// the host.
	Scripts bool

	// Forms indicates whether form submission is permitted.
	Forms bool

	// StrippedHTML indicates markup is heavily stripped before rendering.
	StrippedHTML bool
}

// CapabilitiesFor returns the capability set for a trust level.
func CapabilitiesFor(level Level) Capabilities {
	switch level {
	case LevelVerified:
		return Capabilities{HTML: true, Scripts: false, Forms: true}
	case LevelTrusted:
		return Capabilities{HTML: true, Scripts: true, Forms: true}
	default:
		return Capabilities{HTML: true, Scripts: false, Forms: false, StrippedHTML: true}
	}
}

// AllowsScripts reports whether sandboxed script execution is granted.
func (l Level) AllowsScripts() bool {
	return CapabilitiesFor(l).Scripts
}

// AllowsForms reports whether form submission is permitted.
func (l Level) AllowsForms() bool {
	return CapabilitiesFor(l).Forms
}
