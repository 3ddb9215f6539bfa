package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-sync/internal/types"
	"github.com/shopspring/decimal"
)

// DataGenerator generates realistic index ticks for tests and the mock backend.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // test data only
	}
}

// GeneratorConfig configures how ticks are generated.
type GeneratorConfig struct {
	// InstrumentKey is the index name (e.g., "NIFTY 50")
	InstrumentKey string
	// StartTime is the observation time of the first tick
	StartTime time.Time
	// Interval is the duration between ticks
	Interval time.Duration
	// Count is the number of ticks to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.001 = 0.1% typical move per tick)
	Volatility float64
	// Trend is the drift factor across the whole series
	Trend float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		InstrumentKey: "NIFTY 50",
		StartTime:     time.Date(2024, 5, 2, 9, 15, 0, 0, time.UTC),
		Interval:      time.Second,
		Count:         1000,
		InitialPrice:  22000,
		Volatility:    0.0005,
		Trend:         0.0,
	}
}

// Generate creates a series of ticks following a geometric Brownian motion.
// Ticks are in chronological order.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.TickerSnapshot {
	ticks := make([]types.TickerSnapshot, config.Count)
	price := config.InitialPrice
	at := config.StartTime

	for i := 0; i < config.Count; i++ {
		ticks[i] = types.TickerSnapshot{
			InstrumentKey: config.InstrumentKey,
			LastPrice:     decimal.NewFromFloat(price).Round(2),
			AsOf:          at,
		}

		price = g.Next(price, config.Volatility, config.Trend/float64(config.Count))
		at = at.Add(config.Interval)
	}

	return ticks
}

// Next returns the price following price after one step.
func (g *DataGenerator) Next(price, volatility, drift float64) float64 {
	// Box-Muller transform for a normal sample
	u1 := g.rng.Float64()
	u2 := g.rng.Float64()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

	next := price * (1 + volatility*z + drift)
	if next <= 0 {
		next = price * 0.99
	}

	return next
}

// GenerateMultiInstrument generates one series per instrument, concatenated.
func (g *DataGenerator) GenerateMultiInstrument(instruments []string, baseConfig GeneratorConfig) []types.TickerSnapshot {
	var all []types.TickerSnapshot

	for _, key := range instruments {
		config := baseConfig
		config.InstrumentKey = key
		// Vary initial price and volatility slightly per instrument
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		all = append(all, g.Generate(config)...)
	}

	return all
}
