package main

import "github.com/rxtech-lab/argo-sync/internal/types"

// ViewMsg carries a fresh view snapshot from the sync client.
type ViewMsg struct {
	View types.ViewState
}

// NotificationMsg carries a user-facing notification.
type NotificationMsg struct {
	Notification types.Notification
}

// UnauthorizedMsg signals that the backend rejected the session.
type UnauthorizedMsg struct {
	Reason string
}

// DeploymentChangedMsg signals that a new deployment snapshot was applied.
type DeploymentChangedMsg struct {
	Status types.DeploymentStatus
}
