package push

import (
	"github.com/rxtech-lab/argo-sync/internal/payload"
	"github.com/rxtech-lab/argo-sync/internal/types"
)

// OnEventCallback is called for every valid inbound envelope.
type OnEventCallback func(event payload.Envelope)

// OnStateChangeCallback is called on every connection state transition.
// cause is the error that triggered the transition, if any.
type OnStateChangeCallback func(state types.ConnectionState, cause error)

// Callbacks receives push channel activity. Callbacks run on the goroutine
// that called Run and must not block.
type Callbacks struct {
	OnEvent       *OnEventCallback
	OnStateChange *OnStateChangeCallback
}
