package types

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type TypesTestSuite struct {
	suite.Suite
}

func TestTypesSuite(t *testing.T) {
	suite.Run(t, new(TypesTestSuite))
}

func (s *TypesTestSuite) TestPlaceholdersAreDistinct() {
	placeholders := []Placeholder{
		PlaceholderLoading,
		PlaceholderNotConnected,
		PlaceholderConnectionLost,
		PlaceholderError,
	}

	seen := make(map[Placeholder]bool)
	for _, p := range placeholders {
		s.False(seen[p], "duplicate placeholder %q", p)
		seen[p] = true
	}

	s.Equal(Placeholder("Loading…"), PlaceholderLoading)
	s.Equal(Placeholder("Not Connected"), PlaceholderNotConnected)
	s.Equal(Placeholder("Connection Lost"), PlaceholderConnectionLost)
	s.Equal(Placeholder("Error"), PlaceholderError)
}

func (s *TypesTestSuite) TestDisplayValue() {
	loading := ShowPlaceholder(PlaceholderLoading)
	s.True(loading.Placeholder)
	s.True(loading.Is(PlaceholderLoading))
	s.False(loading.Is(PlaceholderError))

	// A real value that happens to equal a placeholder string is not a placeholder.
	value := Value("Error")
	s.False(value.Is(PlaceholderError))
	s.Equal("Error", value.String())
}

func (s *TypesTestSuite) TestConnectionStateTerminal() {
	for _, state := range AllConnectionStates {
		s.Equal(state == ConnectionFailed, state.IsTerminal())
	}
}

func (s *TypesTestSuite) TestTickerFormatPrice() {
	snap := TickerSnapshot{
		InstrumentKey: "NIFTY 50",
		LastPrice:     decimal.RequireFromString("22104.5"),
		AsOf:          time.Now(),
	}
	s.Equal("22104.50", snap.FormatPrice())
}

func (s *TypesTestSuite) TestDeploymentSummary() {
	d := DeploymentStatus{Status: DeploymentActive, Phase: "monitoring"}
	s.Equal("active (monitoring)", d.Summary())

	d.Phase = ""
	s.Equal("active", d.Summary())
}

func (s *TypesTestSuite) TestViewStateTicker() {
	view := ViewState{
		Connection: ConnectionConnected,
		Tickers: []TickerView{
			{InstrumentKey: "NIFTY 50", State: ResourceLive, Snapshot: optional.None[TickerSnapshot]()},
			{InstrumentKey: "NIFTY BANK", State: ResourceLoading, Snapshot: optional.None[TickerSnapshot]()},
		},
	}

	t, ok := view.Ticker("NIFTY BANK")
	s.True(ok)
	s.Equal(ResourceLoading, t.State)

	_, ok = view.Ticker("SENSEX")
	s.False(ok)
}
