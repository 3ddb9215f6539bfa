// Package session gatekeeps authenticated views and keeps ephemeral
// per-process session markers.
package session

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-sync/internal/logger"
	"github.com/rxtech-lab/argo-sync/internal/types"
	"github.com/rxtech-lab/argo-sync/internal/version"
	"github.com/rxtech-lab/argo-sync/pkg/errors"
	"go.uber.org/zap"
)

// UserDataSource fetches the session and profile snapshot. It is implemented by *api.Client.
type UserDataSource interface {
	UserData(ctx context.Context) (types.UserData, error)
}

// Session is an authenticated session.
type Session struct {
	User types.UserData
	// Notices are non-fatal findings of the check, such as version skew.
	Notices []types.Notification
}

// Gate checks that the stored credentials still grant access before an
// authenticated view is mounted.
type Gate struct {
	source UserDataSource
	logger *logger.Logger
}

// NewGate creates a gate backed by source.
func NewGate(source UserDataSource, log *logger.Logger) *Gate {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Gate{source: source, logger: log.Named("session")}
}

// Check fetches the user data. A rejected session is returned as
// ErrCodeUnauthorized; the caller must send the user to the login flow.
func (g *Gate) Check(ctx context.Context) (*Session, error) {
	user, err := g.source.UserData(ctx)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeUnauthorized) {
			g.logger.Warn("session rejected", zap.Error(err))

			return nil, err
		}

		return nil, errors.Wrap(errors.ErrCodeFetchFailed, "failed to load user data", err)
	}

	g.logger.Info("session accepted", zap.String("user", user.ID), zap.String("plan", user.Plan))

	session := &Session{User: user, Notices: nil}

	if user.APIVersion != "" {
		if err := version.CheckVersionCompatibility(version.GetVersion(), user.APIVersion); err != nil {
			g.logger.Warn("backend API version skew",
				zap.String("client_version", version.GetVersion()),
				zap.String("server_version", user.APIVersion),
				zap.Error(err),
			)

			session.Notices = append(session.Notices, types.Notification{
				Level:   types.NotificationWarning,
				Code:    types.NotifyVersionSkew,
				Message: err.Error(),
				Time:    time.Now(),
			})
		}
	}

	return session, nil
}
