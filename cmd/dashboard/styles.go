package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-sync/internal/types"
	"github.com/shopspring/decimal"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	// WarningStyle for non-fatal notices.
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	// PlaceholderStyle for fields that show a placeholder instead of a value.
	PlaceholderStyle = lipgloss.NewStyle().Italic(true).Faint(true)

	// BlockingStyle frames the unauthorized message.
	BlockingStyle = lipgloss.NewStyle().
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 2)

	connectionColors = map[types.ConnectionState]lipgloss.Color{
		types.ConnectionDisconnected: lipgloss.Color("245"),
		types.ConnectionConnecting:   lipgloss.Color("214"),
		types.ConnectionConnected:    lipgloss.Color("42"),
		types.ConnectionReconnecting: lipgloss.Color("214"),
		types.ConnectionFailed:       lipgloss.Color("196"),
	}
)

// ConnectionBadge renders the push channel state.
func ConnectionBadge(state types.ConnectionState) string {
	color, ok := connectionColors[state]
	if !ok {
		color = lipgloss.Color("245")
	}

	return lipgloss.NewStyle().Foreground(color).Render("● " + string(state))
}

// RenderDisplay renders a display value, dimming placeholders.
func RenderDisplay(d types.DisplayValue) string {
	if !d.Placeholder {
		return d.Text
	}

	if d.Is(types.PlaceholderError) || d.Is(types.PlaceholderConnectionLost) {
		return ErrorStyle.Render(d.Text)
	}

	return PlaceholderStyle.Render(d.Text)
}

// FormatPriceWithDirection formats a price with an indicator based on comparison with the previous price.
func FormatPriceWithDirection(current decimal.Decimal, previous decimal.Decimal) string {
	priceStr := current.StringFixed(2)

	if previous.IsZero() {
		return priceStr
	}

	switch current.Cmp(previous) {
	case 1:
		return priceStr + " ▲"
	case -1:
		return priceStr + " ▼"
	}

	return priceStr
}
