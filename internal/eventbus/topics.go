package eventbus

import (
	"time"

	"github.com/rxtech-lab/argo-sync/internal/types"
)

// RefreshRequest asks the sync client to re-fetch both resources now,
// e.g. after a strategy mutation completed elsewhere.
type RefreshRequest struct {
	Reason      string
	RequestedAt time.Time
}

// Topics groups the buses shared between the sync client and the views.
type Topics struct {
	// RefreshRequested is published by views; the sync client subscribes.
	RefreshRequested *Bus[RefreshRequest]
	// DeploymentChanged is published by the sync client whenever a new
	// deployment snapshot is applied; dependent tables subscribe.
	DeploymentChanged *Bus[types.DeploymentStatus]
}

// NewTopics creates a fresh set of buses.
func NewTopics() *Topics {
	return &Topics{
		RefreshRequested:  New[RefreshRequest](),
		DeploymentChanged: New[types.DeploymentStatus](),
	}
}
