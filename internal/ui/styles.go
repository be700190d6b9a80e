// Package ui provides terminal styling for roadmap CLI output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/steveyegge/roadmap/internal/types"
)

// Ayu theme color palette
// Dark: https://terminalcolors.com/themes/ayu/dark/
// Light: https://terminalcolors.com/themes/ayu/light/
var (
	ColorPass = lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)

	// CategoryStyle for section headers
	CategoryStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	// IDStyle for issue and project identifiers
	IDStyle = lipgloss.NewStyle().Bold(true)
)

// Status icons
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconSkip = "-"
	IconInfo = "ℹ"
)

// Tree characters for hierarchical display
const (
	TreeChild  = "⎿ "
	TreeLast   = "└─ "
	TreeIndent = "  "
)

// SeparatorLight is the rule printed between sections.
const SeparatorLight = "──────────────────────────────────────────"

func RenderPass(s string) string   { return PassStyle.Render(s) }
func RenderWarn(s string) string   { return WarnStyle.Render(s) }
func RenderFail(s string) string   { return FailStyle.Render(s) }
func RenderMuted(s string) string  { return MutedStyle.Render(s) }
func RenderAccent(s string) string { return AccentStyle.Render(s) }
func RenderID(s string) string     { return IDStyle.Render(s) }

// RenderCategory renders a section header in uppercase with accent color
func RenderCategory(s string) string {
	return CategoryStyle.Render(strings.ToUpper(s))
}

// RenderSeparator renders the light separator line in muted color
func RenderSeparator() string {
	return MutedStyle.Render(SeparatorLight)
}

func RenderPassIcon() string { return PassStyle.Render(IconPass) }
func RenderWarnIcon() string { return WarnStyle.Render(IconWarn) }
func RenderFailIcon() string { return FailStyle.Render(IconFail) }
func RenderInfoIcon() string { return AccentStyle.Render(IconInfo) }

// StatusStyle picks the style for an issue status.
func StatusStyle(s types.Status) lipgloss.Style {
	switch s {
	case types.StatusClosed:
		return PassStyle
	case types.StatusInProgress:
		return AccentStyle
	case types.StatusBlocked:
		return FailStyle
	default:
		return MutedStyle
	}
}

// RenderStatus renders an issue status in its color.
func RenderStatus(s types.Status) string {
	return StatusStyle(s).Render(string(s))
}

// RenderEffective renders the effective status, noting the declared one when they differ.
func RenderEffective(declared, effective types.Status) string {
	if declared == effective {
		return RenderStatus(effective)
	}
	return RenderStatus(effective) + RenderMuted(fmt.Sprintf(" (declared %s)", declared))
}

// RenderPriority colors high and critical priorities.
func RenderPriority(p types.Priority) string {
	switch p {
	case types.PriorityCritical:
		return FailStyle.Bold(true).Render(string(p))
	case types.PriorityHigh:
		return WarnStyle.Render(string(p))
	case types.PriorityLow:
		return MutedStyle.Render(string(p))
	default:
		return string(p)
	}
}

// RenderRisk renders a schedule risk level.
func RenderRisk(r types.RiskLevel) string {
	switch r {
	case types.RiskHigh:
		return FailStyle.Render(string(r))
	case types.RiskMedium:
		return WarnStyle.Render(string(r))
	default:
		return PassStyle.Render(string(r))
	}
}
