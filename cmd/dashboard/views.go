package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-sync/internal/types"
	"github.com/shopspring/decimal"
)

const riskDisclosure = "Trading involves risk. Values shown are delayed snapshots from the backend."

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(6),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// NewOrdersTable creates a table for deployment orders.
func NewOrdersTable() table.Model {
	return newTable([]table.Column{
		{Title: "ID", Width: 10},
		{Title: "Symbol", Width: 16},
		{Title: "Side", Width: 6},
		{Title: "Qty", Width: 10},
		{Title: "Price", Width: 12},
		{Title: "Status", Width: 10},
		{Title: "Time", Width: 10},
	})
}

// NewPositionsTable creates a table for deployment positions.
func NewPositionsTable() table.Model {
	return newTable([]table.Column{
		{Title: "Symbol", Width: 16},
		{Title: "Qty", Width: 10},
		{Title: "Avg", Width: 12},
		{Title: "Last", Width: 12},
		{Title: "PnL", Width: 12},
	})
}

// UpdateOrderRows replaces the rows of the orders table.
func UpdateOrderRows(t table.Model, orders []types.DeploymentOrder) table.Model {
	rows := make([]table.Row, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, table.Row{
			o.ID,
			o.Symbol,
			strings.ToUpper(o.Side),
			o.Quantity.String(),
			o.Price.StringFixed(2),
			o.Status,
			o.Timestamp.Format("15:04:05"),
		})
	}

	t.SetRows(rows)

	return t
}

// UpdatePositionRows replaces the rows of the positions table.
func UpdatePositionRows(t table.Model, positions []types.DeploymentPosition) table.Model {
	rows := make([]table.Row, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, table.Row{
			p.Symbol,
			p.Quantity.String(),
			p.AvgPrice.StringFixed(2),
			p.LastPrice.StringFixed(2),
			p.Pnl.StringFixed(2),
		})
	}

	t.SetRows(rows)

	return t
}

// tickerLine renders one instrument row.
func tickerLine(v types.TickerView, previous decimal.Decimal, spinner string) string {
	value := RenderDisplay(v.Display)

	if snap, err := v.Snapshot.Take(); err == nil && !v.Display.Placeholder {
		value = FormatPriceWithDirection(snap.LastPrice, previous)
	}

	if v.State == types.ResourceLoading {
		value = spinner + " " + value
	}

	line := fmt.Sprintf("%-12s %-22s", v.InstrumentKey, value)

	if !v.UpdatedAt.IsZero() {
		line += HelpStyle.Render(fmt.Sprintf(" %s via %s", v.UpdatedAt.Local().Format("15:04:05"), v.Source))
	}

	if v.State == types.ResourceDegraded {
		line += " " + WarningStyle.Render("(stale)")
	}

	return line
}

// deploymentLine renders the deployment summary.
func deploymentLine(v types.DeploymentView, spinner string) string {
	value := RenderDisplay(v.Display)

	if status, err := v.Status.Take(); err == nil && !v.Display.Placeholder {
		value = fmt.Sprintf("%s  PnL %s", status.Summary(), status.Pnl.StringFixed(2))
	}

	if v.State == types.ResourceLoading {
		value = spinner + " " + value
	}

	line := "Deployment   " + value

	if v.State == types.ResourceDegraded {
		line += " " + WarningStyle.Render("(stale)")
	}

	return line
}
