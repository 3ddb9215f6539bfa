package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// TickerView is the rendered state of one tracked instrument.
type TickerView struct {
	InstrumentKey string
	State         ResourceState
	Snapshot      optional.Option[TickerSnapshot]
	Display       DisplayValue
	UpdatedAt     time.Time
	Source        UpdateSource
}

// DeploymentView is the rendered state of the live deployment.
type DeploymentView struct {
	State     ResourceState
	Status    optional.Option[DeploymentStatus]
	Display   DisplayValue
	UpdatedAt time.Time
	Source    UpdateSource
}

// ViewState is an immutable snapshot of everything the dashboard renders.
// Each delivery is a fresh copy; holding on to one never observes later changes.
type ViewState struct {
	Connection ConnectionState
	Tickers    []TickerView
	Deployment DeploymentView
	// Degraded is true while the staleness watchdog considers the feed degraded.
	Degraded bool
}

// Ticker returns the view of the given instrument.
func (v ViewState) Ticker(instrumentKey string) (TickerView, bool) {
	for _, t := range v.Tickers {
		if t.InstrumentKey == instrumentKey {
			return t, true
		}
	}

	return TickerView{}, false //nolint:exhaustruct // zero value signals absence
}
