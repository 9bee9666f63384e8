package output

import (
	"github.com/charmbracelet/lipgloss"

	"maturity/internal/product"
	"maturity/internal/stage"
)

// palette maps the stage colour names to terminal colours.
var palette = map[string]lipgloss.Color{
	"amber":  lipgloss.Color("#F59E0B"),
	"blue":   lipgloss.Color("#3B82F6"),
	"purple": lipgloss.Color("#8B5CF6"),
	"cyan":   lipgloss.Color("#06B6D4"),
	"green":  lipgloss.Color("#10B981"),
	"gray":   lipgloss.Color("#6B7280"),
}

var (
	colorRed    = lipgloss.Color("#EF4444")
	colorMuted  = lipgloss.Color("#888888")
	colorBorder = lipgloss.Color("#444444")
)

type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	column  lipgloss.Style
	card    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true),
		label:   r.NewStyle().Foreground(colorMuted),
		muted:   r.NewStyle().Foreground(colorMuted),
		success: r.NewStyle().Foreground(palette["green"]),
		warning: r.NewStyle().Foreground(palette["amber"]),
		err:     r.NewStyle().Foreground(colorRed).Bold(true),
		column:  r.NewStyle().Width(columnWidth).PaddingRight(1),
		card: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Width(columnWidth-2).
			Padding(0, 1),
	}
}

func (p *Printer) stageStyle(s stage.Stage) lipgloss.Style {
	return p.renderer.NewStyle().Bold(true).Foreground(palette[s.Color()])
}

func (p *Printer) statusStyle(s product.Status) lipgloss.Style {
	switch s {
	case product.StatusReady:
		return p.styles.success
	case product.StatusBlocked:
		return p.renderer.NewStyle().Foreground(colorRed)
	default:
		return p.styles.warning
	}
}
