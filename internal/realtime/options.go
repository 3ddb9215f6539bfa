package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/argo-sync/internal/eventbus"
	"github.com/rxtech-lab/argo-sync/internal/logger"
)

// Option customizes a SyncClient.
type Option func(*SyncClient)

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *SyncClient) {
		if log != nil {
			c.logger = log.Named("realtime")
		}
	}
}

// WithRegisterer registers the client metrics on reg instead of a private registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *SyncClient) {
		c.registerer = reg
	}
}

// WithTopics shares the given buses with other components.
func WithTopics(topics *eventbus.Topics) Option {
	return func(c *SyncClient) {
		if topics != nil {
			c.topics = topics
		}
	}
}
