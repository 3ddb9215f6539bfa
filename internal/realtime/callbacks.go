package realtime

import "github.com/rxtech-lab/argo-sync/internal/types"

// OnViewUpdateCallback receives a fresh view snapshot after every change.
type OnViewUpdateCallback func(view types.ViewState)

// OnNotificationCallback receives user-facing notifications.
type OnNotificationCallback func(notification types.Notification)

// OnUnauthorizedCallback is called exactly once when the session is rejected.
// The consumer is expected to navigate to the login flow.
type OnUnauthorizedCallback func(reason string)

// OnConnectionChangeCallback receives push channel connection state changes.
type OnConnectionChangeCallback func(state types.ConnectionState)

// Callbacks receives sync client output. Every callback runs on the client's
// event loop: it must return quickly and must not call Close.
type Callbacks struct {
	OnViewUpdate       *OnViewUpdateCallback
	OnNotification     *OnNotificationCallback
	OnUnauthorized     *OnUnauthorizedCallback
	OnConnectionChange *OnConnectionChangeCallback
}
