package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-sync/internal/types"
	"github.com/shopspring/decimal"
)

const maxNotices = 5

// Model is the main Bubble Tea model for the live dashboard.
type Model struct {
	view           types.ViewState
	prevPrices     map[string]decimal.Decimal
	spinner        spinner.Model
	ordersTable    table.Model
	positionsTable table.Model
	notices        []types.Notification
	user           types.UserData
	unauthorized   string
	disclosure     bool
	width          int
	height         int

	// refresh asks the sync client to re-fetch both resources.
	refresh func()
}

// NewModel creates a new Model with the view the sync client reports before its first update.
func NewModel(initial types.ViewState, user types.UserData) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		view:           initial,
		prevPrices:     make(map[string]decimal.Decimal),
		spinner:        s,
		ordersTable:    NewOrdersTable(),
		positionsTable: NewPositionsTable(),
		notices:        nil,
		user:           user,
		unauthorized:   "",
		disclosure:     false,
		width:          0,
		height:         0,
		refresh:        nil,
	}
}

// WithRefresh sets the function called when the user asks for a refresh.
func (m Model) WithRefresh(fn func()) Model {
	m.refresh = fn

	return m
}

// WithDisclosure shows the one-time risk disclosure.
func (m Model) WithDisclosure(show bool) Model {
	m.disclosure = show

	return m
}

// WithNotices seeds the notice list, e.g. with session gate findings.
func (m Model) WithNotices(notices []types.Notification) Model {
	for _, n := range notices {
		m = m.addNotice(n)
	}

	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			if m.refresh != nil && m.unauthorized == "" {
				m.refresh()
			}

			return m, nil
		case "d":
			m.disclosure = false

			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ordersTable.SetWidth(msg.Width)
		m.positionsTable.SetWidth(msg.Width)

		return m, nil

	case ViewMsg:
		// Store previous prices for the direction indicator
		for _, t := range m.view.Tickers {
			if snap, err := t.Snapshot.Take(); err == nil {
				if next, ok := msg.View.Ticker(t.InstrumentKey); ok {
					if nextSnap, err := next.Snapshot.Take(); err == nil && !nextSnap.LastPrice.Equal(snap.LastPrice) {
						m.prevPrices[t.InstrumentKey] = snap.LastPrice
					}
				}
			}
		}

		m.view = msg.View

		return m, nil

	case DeploymentChangedMsg:
		m.ordersTable = UpdateOrderRows(m.ordersTable, msg.Status.Orders)
		m.positionsTable = UpdatePositionRows(m.positionsTable, msg.Status.Positions)

		return m, nil

	case NotificationMsg:
		m = m.addNotice(msg.Notification)

		return m, nil

	case UnauthorizedMsg:
		m.unauthorized = msg.Reason

		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m Model) addNotice(n types.Notification) Model {
	// The blocking notice is rendered separately
	if n.Level == types.NotificationBlocking {
		return m
	}

	m.notices = append(m.notices, n)
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}

	return m
}

// Unauthorized returns the rejection reason, empty while the session is valid.
func (m Model) Unauthorized() string {
	return m.unauthorized
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	if m.unauthorized != "" {
		s.WriteString(BlockingStyle.Render(fmt.Sprintf("Session expired: %s\nPlease log in again.", m.unauthorized)))
		s.WriteString("\n")

		return s.String()
	}

	title := "Argo Sync - Live Dashboard"
	if m.user.Name != "" {
		title += " - " + m.user.Name
	}

	s.WriteString(TitleStyle.Render(title))
	s.WriteString("  ")
	s.WriteString(ConnectionBadge(m.view.Connection))
	s.WriteString("\n\n")

	if m.disclosure {
		s.WriteString(WarningStyle.Render(riskDisclosure))
		s.WriteString("\n\n")
	}

	if m.view.Degraded {
		s.WriteString(WarningStyle.Render("Feed may be degraded: no recent updates"))
		s.WriteString("\n\n")
	}

	for _, t := range m.view.Tickers {
		s.WriteString(tickerLine(t, m.prevPrices[t.InstrumentKey], m.spinner.View()))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(deploymentLine(m.view.Deployment, m.spinner.View()))
	s.WriteString("\n\n")

	if len(m.ordersTable.Rows()) > 0 {
		s.WriteString(TitleStyle.Render("Orders"))
		s.WriteString("\n")
		s.WriteString(m.ordersTable.View())
		s.WriteString("\n\n")
	}

	if len(m.positionsTable.Rows()) > 0 {
		s.WriteString(TitleStyle.Render("Positions"))
		s.WriteString("\n")
		s.WriteString(m.positionsTable.View())
		s.WriteString("\n\n")
	}

	for _, n := range m.notices {
		s.WriteString(WarningStyle.Render("! " + n.Message))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("q: quit | r: refresh | d: dismiss disclosure"))

	return s.String()
}
