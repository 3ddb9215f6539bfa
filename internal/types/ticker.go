package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// TickerSnapshot is the last-known-good value of one tracked instrument.
// It is always replaced as a whole, never merged field by field.
type TickerSnapshot struct {
	InstrumentKey string          `json:"instrument_key" yaml:"instrument_key"`
	LastPrice     decimal.Decimal `json:"last_price" yaml:"last_price"`
	AsOf          time.Time       `json:"as_of" yaml:"as_of"`
}

// FormatPrice renders the price with two decimal places.
func (t TickerSnapshot) FormatPrice() string {
	return t.LastPrice.StringFixed(2)
}
