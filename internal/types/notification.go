package types

import "time"

// NotificationLevel describes how intrusive a notification is.
type NotificationLevel string

const (
	// NotificationWarning is non-fatal and must not block the view.
	NotificationWarning NotificationLevel = "warning"

	// NotificationBlocking interrupts the view (authorization failure).
	NotificationBlocking NotificationLevel = "blocking"
)

// NotificationCode classifies a notification.
type NotificationCode string

const (
	NotifyFeedDegraded  NotificationCode = "feed_degraded"
	NotifyServerWarning NotificationCode = "server_warning"
	NotifyUnauthorized  NotificationCode = "unauthorized"
	NotifyVersionSkew   NotificationCode = "version_skew"
)

// Notification is a user-facing message emitted by the sync client.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Code    NotificationCode  `json:"code"`
	Message string            `json:"message"`
	Time    time.Time         `json:"time"`
}
