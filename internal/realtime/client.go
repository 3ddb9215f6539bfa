// Package realtime keeps a live, eventually consistent view of the market
// tickers and the live deployment by combining an initial fetch, the push
// channel, a fallback poll and a staleness watchdog.
//
// All view state is owned by a single event loop goroutine. Network work runs
// on separate goroutines that post their results back to the loop, so updates
// from different channels never race on the view. Updates are reconciled
// last-write-wins on the server observation time.
package realtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/argo-sync/internal/config"
	"github.com/rxtech-lab/argo-sync/internal/eventbus"
	"github.com/rxtech-lab/argo-sync/internal/logger"
	"github.com/rxtech-lab/argo-sync/internal/payload"
	"github.com/rxtech-lab/argo-sync/internal/push"
	"github.com/rxtech-lab/argo-sync/internal/types"
	"github.com/rxtech-lab/argo-sync/internal/version"
	"github.com/rxtech-lab/argo-sync/pkg/errors"
	"go.uber.org/zap"
)

const taskBuffer = 64

// resource is the kind-independent side of a tracker.
type resource interface {
	stale(now time.Time, loadingAfter, liveAfter time.Duration) (stale, changed bool)
	deadline(loadingAfter, liveAfter time.Duration) time.Time
	fetchFailed() bool
	serverError() bool
	connectionLost() bool
}

// SyncClient is the realtime sync client. Create it with NewSyncClient, mount
// it with Start and unmount it with Close.
type SyncClient struct {
	cfg        *config.Config
	backend    Backend
	channel    PushChannel
	callbacks  Callbacks
	logger     *logger.Logger
	topics     *eventbus.Topics
	registerer prometheus.Registerer
	metrics    *metrics
	now        func() time.Time

	mu      sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// alive is cleared by Close before anything is torn down. It is checked
	// before every task and every callback.
	alive       atomic.Bool
	lastView    atomic.Pointer[types.ViewState]
	tasks       chan func()
	unsubscribe func()

	// Owned by the event loop.
	workCtx            context.Context //nolint:containedctx // worker scope, cancelled on halt
	haltWorkers        context.CancelFunc
	tickers            []*tracker[types.TickerSnapshot]
	deployment         *tracker[types.DeploymentStatus]
	connection         types.ConnectionState
	feedDegraded       bool
	degradedWarned     bool
	halted             bool
	marketInFlight     bool
	deploymentInFlight bool
	watchdog           *time.Timer
}

// NewSyncClient creates a sync client for the instruments in cfg.
func NewSyncClient(cfg *config.Config, backend Backend, channel PushChannel, callbacks Callbacks, opts ...Option) (*SyncClient, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "config is required")
	}

	if backend == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "backend is required")
	}

	if channel == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "push channel is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	//nolint:exhaustruct // loop-owned state is initialized below and in Start
	c := &SyncClient{
		cfg:        cfg,
		backend:    backend,
		channel:    channel,
		callbacks:  callbacks,
		logger:     logger.NewNopLogger(),
		topics:     eventbus.NewTopics(),
		registerer: prometheus.NewRegistry(),
		now:        time.Now,
		tasks:      make(chan func(), taskBuffer),
		connection: types.ConnectionDisconnected,
	}

	for _, opt := range opts {
		opt(c)
	}

	m, err := newMetrics(c.registerer)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to register metrics", err)
	}

	c.metrics = m

	c.tickers = make([]*tracker[types.TickerSnapshot], 0, len(cfg.Instruments))
	for _, key := range cfg.Instruments {
		c.tickers = append(c.tickers, newTracker[types.TickerSnapshot](types.ResourceTicker, key))
	}

	c.deployment = newTracker[types.DeploymentStatus](types.ResourceDeployment, "")

	initial := c.buildView()
	c.lastView.Store(&initial)

	return c, nil
}

// Topics returns the buses the client publishes on and listens to.
func (c *SyncClient) Topics() *eventbus.Topics {
	return c.topics
}

// View returns the most recently emitted view.
func (c *SyncClient) View() types.ViewState {
	return *c.lastView.Load()
}

// Start mounts the client: it fetches both resources immediately, opens the
// push channel, asks the backend to start streaming and arms the poll and the
// watchdog. A client can be started once.
func (c *SyncClient) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New(errors.ErrCodeClosed, "sync client is closed")
	}

	if c.started {
		return errors.New(errors.ErrCodeAlreadyStarted, "sync client is already started")
	}

	c.started = true

	runCtx, cancel := context.WithCancel(ctx)
	workCtx, haltWorkers := context.WithCancel(runCtx)
	c.cancel = cancel
	c.workCtx = workCtx
	c.haltWorkers = haltWorkers

	now := c.now()
	for _, t := range c.tickers {
		t.mount(now)
	}

	c.deployment.mount(now)

	c.alive.Store(true)
	c.unsubscribe = c.topics.RefreshRequested.Subscribe(func(req eventbus.RefreshRequest) {
		c.post(runCtx, func() { c.refresh(req) })
	})

	c.logger.Info("sync client started",
		zap.Strings("instruments", c.cfg.Instruments),
		zap.Duration("poll_interval", c.cfg.PollInterval),
		zap.Duration("stale_after", c.cfg.StaleAfter),
	)

	c.wg.Add(2)
	go c.loop(runCtx)
	go c.runPush(runCtx, workCtx)

	return nil
}

// Close unmounts the client. It cancels every timer, request and the push
// subscription and waits for all of them to finish. No callback is invoked
// after Close returns. Close is idempotent.
func (c *SyncClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()

		return nil
	}

	c.closed = true
	c.alive.Store(false)
	started := c.started
	cancel := c.cancel
	unsubscribe := c.unsubscribe
	c.mu.Unlock()

	if !started {
		return nil
	}

	unsubscribe()
	cancel()
	c.wg.Wait()

	c.logger.Info("sync client closed")

	return nil
}

// post queues fn on the event loop. It gives up once the client is unmounted.
func (c *SyncClient) post(ctx context.Context, fn func()) {
	select {
	case c.tasks <- fn:
	case <-ctx.Done():
	}
}

func (c *SyncClient) loop(ctx context.Context) {
	defer c.wg.Done()

	poll := time.NewTicker(c.cfg.PollInterval)
	defer poll.Stop()

	c.watchdog = time.NewTimer(c.nextStaleCheck(c.now()))
	defer c.watchdog.Stop()

	c.emitView()
	c.fetchMarket(types.SourceInitial)
	c.fetchDeployment(types.SourceInitial)
	c.startTicker()

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-c.tasks:
			if !c.alive.Load() {
				return
			}

			task()
		case <-poll.C:
			if !c.alive.Load() {
				return
			}

			if c.halted {
				continue
			}

			c.fetchMarket(types.SourcePoll)
			c.fetchDeployment(types.SourcePoll)
		case <-c.watchdog.C:
			if !c.alive.Load() {
				return
			}

			if c.halted {
				continue
			}

			c.checkStaleness()
			c.watchdog.Reset(c.nextStaleCheck(c.now()))
		}
	}
}

func (c *SyncClient) runPush(runCtx, workCtx context.Context) {
	defer c.wg.Done()

	onEvent := push.OnEventCallback(func(env payload.Envelope) {
		c.post(runCtx, func() { c.handleEnvelope(env) })
	})
	onState := push.OnStateChangeCallback(func(state types.ConnectionState, cause error) {
		c.post(runCtx, func() { c.handleConnection(state, cause) })
	})

	err := c.channel.Run(workCtx, push.Callbacks{
		OnEvent:       &onEvent,
		OnStateChange: &onState,
	})

	c.post(runCtx, func() { c.handlePushExit(err) })
}

func (c *SyncClient) resources() []resource {
	all := make([]resource, 0, len(c.tickers)+1)
	for _, t := range c.tickers {
		all = append(all, t)
	}

	return append(all, c.deployment)
}

func (c *SyncClient) tickerTracker(key string) *tracker[types.TickerSnapshot] {
	for _, t := range c.tickers {
		if t.key == key {
			return t
		}
	}

	return nil
}

func (c *SyncClient) fetchMarket(source types.UpdateSource) {
	if c.marketInFlight {
		c.logger.Debug("market snapshot fetch still in flight, skipping", zap.String("source", string(source)))

		return
	}

	c.marketInFlight = true
	ctx := c.workCtx

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		snapshots, err := c.backend.MarketSnapshot(ctx)
		c.post(ctx, func() {
			c.marketInFlight = false
			c.applyMarket(snapshots, err, source)
		})
	}()
}

func (c *SyncClient) fetchDeployment(source types.UpdateSource) {
	if c.deploymentInFlight {
		c.logger.Debug("deployment status fetch still in flight, skipping", zap.String("source", string(source)))

		return
	}

	c.deploymentInFlight = true
	ctx := c.workCtx

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		status, err := c.backend.LiveTradeStatus(ctx)
		c.post(ctx, func() {
			c.deploymentInFlight = false
			c.applyDeployment(status, err, source)
		})
	}()
}

// startTicker asks the backend to start streaming. The request is fire and
// forget: only a rejected session or a domain error changes the view.
func (c *SyncClient) startTicker() {
	ctx := c.workCtx
	instruments := append([]string(nil), c.cfg.Instruments...)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		_, err := c.backend.StartTicker(ctx, instruments)
		if err == nil {
			return
		}

		c.post(ctx, func() {
			switch {
			case errors.HasCode(err, errors.ErrCodeUnauthorized):
				c.handleUnauthorized(err.Error())
			case errors.HasCode(err, errors.ErrCodeServerReported):
				c.logger.Warn("backend failed to start the ticker feed", zap.Error(err))

				changed := false
				for _, t := range c.tickers {
					changed = t.serverError() || changed
				}

				if changed {
					c.emitView()
				}
			default:
				c.logger.Warn("ticker start request failed", zap.Error(err))
			}
		})
	}()
}

func (c *SyncClient) refresh(req eventbus.RefreshRequest) {
	if c.halted {
		return
	}

	c.logger.Debug("refresh requested", zap.String("reason", req.Reason))
	c.fetchMarket(types.SourcePoll)
	c.fetchDeployment(types.SourcePoll)
}

func (c *SyncClient) applyMarket(snapshots []types.TickerSnapshot, err error, source types.UpdateSource) {
	if c.halted {
		return
	}

	if err != nil {
		trackers := make([]resource, 0, len(c.tickers))
		for _, t := range c.tickers {
			trackers = append(trackers, t)
		}

		c.handleFetchError(types.ResourceTicker, err, trackers)

		return
	}

	now := c.now()
	changed := false

	for _, snap := range snapshots {
		t := c.tickerTracker(snap.InstrumentKey)
		if t == nil {
			c.metrics.update(types.ResourceTicker, source, resultIgnored)

			continue
		}

		if !t.accept(snap, snap.AsOf, now, source, snap.FormatPrice()) {
			c.metrics.update(types.ResourceTicker, source, resultStale)
			c.logger.Debug("dropping stale ticker update",
				zap.String("instrument", snap.InstrumentKey),
				zap.Time("as_of", snap.AsOf),
				zap.Time("held", t.observedAt),
			)

			continue
		}

		c.metrics.update(types.ResourceTicker, source, resultApplied)
		changed = true
	}

	if changed {
		c.clearDegraded(now)
		c.emitView()
	}
}

func (c *SyncClient) applyDeployment(status types.DeploymentStatus, err error, source types.UpdateSource) {
	if c.halted {
		return
	}

	if err != nil {
		c.handleFetchError(types.ResourceDeployment, err, []resource{c.deployment})

		return
	}

	now := c.now()
	if !c.deployment.accept(status, status.LastCheckTimestamp, now, source, status.Summary()) {
		c.metrics.update(types.ResourceDeployment, source, resultStale)
		c.logger.Debug("dropping stale deployment update",
			zap.String("deployment", status.ID),
			zap.Time("last_check", status.LastCheckTimestamp),
		)

		return
	}

	c.metrics.update(types.ResourceDeployment, source, resultApplied)
	c.clearDegraded(now)
	c.emitView()

	if c.alive.Load() {
		c.topics.DeploymentChanged.Publish(status)
	}
}

// handleFetchError keeps the previous value in place. Only trackers that never
// held a value switch to "Not Connected".
func (c *SyncClient) handleFetchError(kind types.ResourceKind, err error, trackers []resource) {
	if c.workCtx.Err() != nil {
		return
	}

	if errors.HasCode(err, errors.ErrCodeUnauthorized) {
		c.handleUnauthorized(err.Error())

		return
	}

	c.metrics.fetchFailed(kind)
	c.logger.Warn("fetch failed", zap.String("resource", string(kind)), zap.Error(err))

	changed := false
	for _, t := range trackers {
		changed = t.fetchFailed() || changed
	}

	if changed {
		c.emitView()
	}
}

func (c *SyncClient) handleEnvelope(env payload.Envelope) {
	if c.halted {
		return
	}

	switch env.Event {
	case payload.EventMarketData:
		snapshots, err := payload.DecodeMarketSnapshot(env.Data)
		if err != nil {
			c.metrics.update(types.ResourceTicker, types.SourcePush, resultInvalid)
			c.logger.Warn("dropping invalid market data event", zap.Error(err))

			return
		}

		c.applyMarket(snapshots, nil, types.SourcePush)
	case payload.EventDeploymentStatus:
		status, err := payload.DecodeDeploymentStatus(env.Data)
		if err != nil {
			c.metrics.update(types.ResourceDeployment, types.SourcePush, resultInvalid)
			c.logger.Warn("dropping invalid deployment status event", zap.Error(err))

			return
		}

		c.applyDeployment(status, nil, types.SourcePush)
	case payload.EventUnauthorized:
		c.handleUnauthorized(payload.DecodeUnauthorized(env.Data))
	case payload.EventError:
		serverErr, err := payload.DecodeServerError(env.Data)
		if err != nil {
			c.logger.Warn("dropping invalid error event", zap.Error(err))

			return
		}

		c.applyServerError(serverErr)
	case payload.EventWarning:
		message, err := payload.DecodeWarning(env.Data)
		if err != nil {
			c.logger.Warn("dropping invalid warning event", zap.Error(err))

			return
		}

		c.notify(types.NotificationWarning, types.NotifyServerWarning, message)
	case payload.EventHello:
		serverVersion, err := payload.DecodeHello(env.Data)
		if err != nil || serverVersion == "" {
			return
		}

		if err := version.CheckVersionCompatibility(version.GetVersion(), serverVersion); err != nil {
			c.logger.Warn("backend version skew", zap.String("server_version", serverVersion), zap.Error(err))
			c.notify(types.NotificationWarning, types.NotifyVersionSkew, err.Error())
		}
	default:
		c.logger.Debug("ignoring unknown push event", zap.String("event", env.Event))
	}
}

// applyServerError shows "Error" on the resources the error names. An error
// without a resource applies to every resource.
func (c *SyncClient) applyServerError(serverErr payload.ServerError) {
	c.logger.Warn("backend reported an error",
		zap.String("resource", string(serverErr.Resource)),
		zap.String("instrument", serverErr.InstrumentKey),
		zap.String("message", serverErr.Message),
	)

	var targets []resource

	switch serverErr.Resource {
	case types.ResourceTicker:
		if t := c.tickerTracker(serverErr.InstrumentKey); t != nil {
			targets = []resource{t}
		} else {
			for _, t := range c.tickers {
				targets = append(targets, t)
			}
		}
	case types.ResourceDeployment:
		targets = []resource{c.deployment}
	default:
		targets = c.resources()
	}

	changed := false
	for _, t := range targets {
		changed = t.serverError() || changed
	}

	if changed {
		c.emitView()
	}
}

func (c *SyncClient) handleConnection(state types.ConnectionState, cause error) {
	prev := c.connection
	if state == prev {
		return
	}

	c.connection = state
	c.metrics.setConnectionState(state)

	if state == types.ConnectionReconnecting || (state == types.ConnectionConnecting && prev != types.ConnectionDisconnected) {
		c.metrics.reconnects.Inc()
	}

	fields := []zap.Field{zap.String("from", string(prev)), zap.String("to", string(state))}
	if cause != nil {
		fields = append(fields, zap.Error(cause))
	}

	c.logger.Info("push channel state changed", fields...)

	if state == types.ConnectionFailed {
		for _, t := range c.resources() {
			t.connectionLost()
		}
	}

	if c.alive.Load() && c.callbacks.OnConnectionChange != nil {
		(*c.callbacks.OnConnectionChange)(state)
	}

	c.emitView()
}

func (c *SyncClient) handlePushExit(err error) {
	if err == nil || c.halted {
		return
	}

	switch {
	case errors.HasCode(err, errors.ErrCodeUnauthorized):
		c.handleUnauthorized(err.Error())
	case errors.HasCode(err, errors.ErrCodeConnectionLost):
		if c.connection != types.ConnectionFailed {
			c.handleConnection(types.ConnectionFailed, err)
		}
	default:
		c.logger.Error("push channel stopped", zap.Error(err))
	}
}

// handleUnauthorized surfaces the rejection once and halts every worker.
// Later rejections, from any channel, are ignored.
func (c *SyncClient) handleUnauthorized(reason string) {
	if c.halted {
		return
	}

	c.halted = true
	c.haltWorkers()

	c.logger.Warn("session rejected by backend, halting sync", zap.String("reason", reason))
	c.notify(types.NotificationBlocking, types.NotifyUnauthorized, reason)

	if c.alive.Load() && c.callbacks.OnUnauthorized != nil {
		(*c.callbacks.OnUnauthorized)(reason)
	}
}

// checkStaleness runs the watchdog over every resource. A resource that still
// waits for its first value gives up after stale_after. One that holds a value
// is allowed the longer of stale_after and a full poll round trip, so a feed
// served by the poll alone stays live. The feed level warning is emitted once
// per mount; later degraded episodes only update the view.
func (c *SyncClient) checkStaleness() {
	now := c.now()
	liveAfter := c.cfg.LiveStaleAfter()
	anyStale := false
	changed := false

	for _, t := range c.resources() {
		stale, ch := t.stale(now, c.cfg.StaleAfter, liveAfter)
		anyStale = anyStale || stale
		changed = changed || ch
	}

	if anyStale && !c.feedDegraded {
		c.feedDegraded = true
		changed = true

		c.metrics.watchdogFires.Inc()
		c.logger.Warn("no updates received within the staleness timeout",
			zap.Duration("stale_after", c.cfg.StaleAfter),
			zap.Duration("live_stale_after", liveAfter),
		)

		if !c.degradedWarned {
			c.degradedWarned = true
			c.notify(types.NotificationWarning, types.NotifyFeedDegraded,
				fmt.Sprintf("No updates received for %s. The feed may be degraded.", c.cfg.StaleAfter))
		}
	}

	if changed {
		c.emitView()
	}
}

// clearDegraded ends the degraded episode once every resource is fresh again.
func (c *SyncClient) clearDegraded(now time.Time) {
	if !c.feedDegraded {
		return
	}

	liveAfter := c.cfg.LiveStaleAfter()
	for _, t := range c.resources() {
		if !now.Before(t.deadline(c.cfg.StaleAfter, liveAfter)) {
			return
		}
	}

	c.feedDegraded = false
	c.logger.Info("feed recovered")
}

// nextStaleCheck returns the delay until the earliest resource could turn stale.
func (c *SyncClient) nextStaleCheck(now time.Time) time.Duration {
	liveAfter := c.cfg.LiveStaleAfter()
	next := c.cfg.StaleAfter

	for _, t := range c.resources() {
		remaining := t.deadline(c.cfg.StaleAfter, liveAfter).Sub(now)
		if remaining > 0 && remaining < next {
			next = remaining
		}
	}

	return next
}

func (c *SyncClient) notify(level types.NotificationLevel, code types.NotificationCode, message string) {
	if !c.alive.Load() || c.callbacks.OnNotification == nil {
		return
	}

	(*c.callbacks.OnNotification)(types.Notification{
		Level:   level,
		Code:    code,
		Message: message,
		Time:    c.now(),
	})
}

func (c *SyncClient) emitView() {
	if !c.alive.Load() {
		return
	}

	view := c.buildView()
	c.lastView.Store(&view)

	if c.callbacks.OnViewUpdate != nil {
		(*c.callbacks.OnViewUpdate)(view)
	}
}

func (c *SyncClient) buildView() types.ViewState {
	tickers := make([]types.TickerView, 0, len(c.tickers))
	for _, t := range c.tickers {
		tickers = append(tickers, types.TickerView{
			InstrumentKey: t.key,
			State:         t.state,
			Snapshot:      t.value,
			Display:       t.display,
			UpdatedAt:     t.observedAt,
			Source:        t.source,
		})
	}

	return types.ViewState{
		Connection: c.connection,
		Tickers:    tickers,
		Deployment: types.DeploymentView{
			State:     c.deployment.state,
			Status:    c.deployment.value,
			Display:   c.deployment.display,
			UpdatedAt: c.deployment.observedAt,
			Source:    c.deployment.source,
		},
		Degraded: c.feedDegraded,
	}
}
