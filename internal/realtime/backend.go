package realtime

import (
	"context"

	"github.com/rxtech-lab/argo-sync/internal/payload"
	"github.com/rxtech-lab/argo-sync/internal/push"
	"github.com/rxtech-lab/argo-sync/internal/types"
)

// Backend is the request/response side of the backend API. It is implemented
// by *api.Client.
type Backend interface {
	// MarketSnapshot returns the current quote of every tracked instrument.
	MarketSnapshot(ctx context.Context) ([]types.TickerSnapshot, error)

	// LiveTradeStatus returns the full current state of the live deployment.
	LiveTradeStatus(ctx context.Context) (types.DeploymentStatus, error)

	// StartTicker asks the backend to begin streaming ticks.
	StartTicker(ctx context.Context, instruments []string) (payload.TickerStartResult, error)
}

// PushChannel is the push side of the backend API. It is implemented by *push.Client.
// Run blocks until ctx is cancelled or the channel gives up.
type PushChannel interface {
	Run(ctx context.Context, callbacks push.Callbacks) error
}
