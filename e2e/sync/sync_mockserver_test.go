package sync_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/argo-sync/e2e/sync/mockserver"
	"github.com/rxtech-lab/argo-sync/internal/api"
	"github.com/rxtech-lab/argo-sync/internal/config"
	"github.com/rxtech-lab/argo-sync/internal/logger"
	"github.com/rxtech-lab/argo-sync/internal/push"
	"github.com/rxtech-lab/argo-sync/internal/realtime"
	"github.com/rxtech-lab/argo-sync/internal/session"
	"github.com/rxtech-lab/argo-sync/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const (
	nifty     = "NIFTY 50"
	niftyBank = "NIFTY BANK"
	waitFor   = 3 * time.Second
	tick      = 10 * time.Millisecond
)

// observer collects everything the sync client reports and flags any
// callback that runs after Close returned.
type observer struct {
	t      *testing.T
	mu     sync.Mutex
	closed bool

	view          types.ViewState
	connections   []types.ConnectionState
	notifications []types.Notification
	unauthorized  int
}

func (o *observer) check(name string) {
	if o.closed {
		o.t.Errorf("%s invoked after Close returned", name)
	}
}

func (o *observer) callbacks() realtime.Callbacks {
	onView := realtime.OnViewUpdateCallback(func(view types.ViewState) {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.check("OnViewUpdate")
		o.view = view
	})
	onNotification := realtime.OnNotificationCallback(func(n types.Notification) {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.check("OnNotification")
		o.notifications = append(o.notifications, n)
	})
	onUnauthorized := realtime.OnUnauthorizedCallback(func(string) {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.check("OnUnauthorized")
		o.unauthorized++
	})
	onConnection := realtime.OnConnectionChangeCallback(func(state types.ConnectionState) {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.check("OnConnectionChange")
		o.connections = append(o.connections, state)
	})

	return realtime.Callbacks{
		OnViewUpdate:       &onView,
		OnNotification:     &onNotification,
		OnUnauthorized:     &onUnauthorized,
		OnConnectionChange: &onConnection,
	}
}

func (o *observer) markClosed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}

func (o *observer) ticker(key string) types.TickerView {
	o.mu.Lock()
	defer o.mu.Unlock()

	view, _ := o.view.Ticker(key)

	return view
}

func (o *observer) unauthorizedCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.unauthorized
}

func (o *observer) countNotifications(code types.NotificationCode) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	n := 0
	for _, notification := range o.notifications {
		if notification.Code == code {
			n++
		}
	}

	return n
}

func (o *observer) countConnection(state types.ConnectionState) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	n := 0
	for _, s := range o.connections {
		if s == state {
			n++
		}
	}

	return n
}

// SyncMockServerTestSuite runs the real HTTP and push clients against the mock backend.
type SyncMockServerTestSuite struct {
	suite.Suite
	server   *mockserver.MockBackendServer
	cfg      config.Config
	observer *observer
	client   *realtime.SyncClient
}

func TestSyncMockServerSuite(t *testing.T) {
	suite.Run(t, new(SyncMockServerTestSuite))
}

func (suite *SyncMockServerTestSuite) SetupTest() {
	suite.startServer(mockserver.DefaultServerConfig())

	suite.observer = &observer{t: suite.T()} //nolint:exhaustruct
	suite.client = nil
}

func (suite *SyncMockServerTestSuite) TearDownTest() {
	if suite.client != nil {
		suite.Require().NoError(suite.client.Close())
		suite.observer.markClosed()
	}

	if suite.server != nil {
		suite.server.Stop()
	}
}

func (suite *SyncMockServerTestSuite) startServer(cfg mockserver.ServerConfig) {
	if suite.server != nil {
		suite.server.Stop()
	}

	suite.server = mockserver.NewMockBackendServer(cfg)
	suite.Require().NoError(suite.server.Start(":0"))

	suite.cfg = config.Default(suite.server.BaseURL())
	suite.cfg.AuthToken = cfg.Token
}

// startClient wires the real api and push clients into a sync client.
func (suite *SyncMockServerTestSuite) startClient() {
	log := logger.NewNopLogger()

	pushCfg, err := push.ConfigFromSync(&suite.cfg)
	suite.Require().NoError(err)

	client, err := realtime.NewSyncClient(&suite.cfg,
		api.NewClient(&suite.cfg, log),
		push.NewClient(pushCfg, log),
		suite.observer.callbacks(),
		realtime.WithLogger(log),
		realtime.WithRegisterer(prometheus.NewRegistry()),
	)
	suite.Require().NoError(err)

	suite.client = client
	suite.Require().NoError(client.Start(context.Background()))
}

func (suite *SyncMockServerTestSuite) fastTimings() {
	suite.cfg.PollInterval = time.Hour
	suite.cfg.StaleAfter = time.Hour
	suite.cfg.RequestTimeout = time.Second
	suite.cfg.Reconnect.MinDelay = 20 * time.Millisecond
	suite.cfg.Reconnect.MaxDelay = 50 * time.Millisecond
	suite.cfg.Reconnect.MaxAttempts = 1000
	suite.cfg.Reconnect.MinUptime = 5 * time.Millisecond

	jitter := false
	suite.cfg.Reconnect.Jitter = &jitter
}

func (suite *SyncMockServerTestSuite) eventuallyTicker(key string, cond func(types.TickerView) bool, msg string) {
	suite.Eventually(func() bool { return cond(suite.observer.ticker(key)) }, waitFor, tick, msg)
}

func (suite *SyncMockServerTestSuite) waitConnected() {
	suite.Eventually(func() bool {
		return suite.server.Connections() == 1 &&
			suite.observer.countConnection(types.ConnectionConnected) > 0
	}, waitFor, tick, "push channel never connected")
}

func isPrice(price string) func(types.TickerView) bool {
	return func(v types.TickerView) bool {
		return v.State == types.ResourceLive && v.Display.Text == price
	}
}

func (suite *SyncMockServerTestSuite) TestInitialFetchThenPushTicks() {
	suite.fastTimings()
	suite.server.SetPrice(nifty, decimal.RequireFromString("22001.5"), time.Now())
	suite.startClient()

	suite.eventuallyTicker(nifty, isPrice("22001.50"), "initial fetch should show the snapshot price")
	suite.waitConnected()

	suite.Eventually(func() bool {
		return len(suite.server.Subscribed()) == 2
	}, waitFor, tick, "subscribe message should name both instruments")
	suite.Eventually(func() bool {
		return suite.server.RequestCount(mockserver.PathTickerStart) == 1
	}, waitFor, tick, "ticker start should be requested once")

	suite.Require().NoError(suite.server.PushTick(niftyBank, decimal.NewFromInt(48100), time.Now()))
	suite.eventuallyTicker(niftyBank, func(v types.TickerView) bool {
		return isPrice("48100.00")(v) && v.Source == types.SourcePush
	}, "push tick should replace the value")
}

func (suite *SyncMockServerTestSuite) TestPollAloneReachesLive() {
	suite.fastTimings()
	suite.cfg.PollInterval = 100 * time.Millisecond
	suite.server.RejectSockets(http.StatusServiceUnavailable)
	suite.server.FailPath(mockserver.PathMarketSnapshot, http.StatusInternalServerError)
	suite.startClient()

	suite.eventuallyTicker(nifty, func(v types.TickerView) bool {
		return v.Display.Is(types.PlaceholderNotConnected)
	}, "failed first fetch should show Not Connected")

	suite.server.FailPath(mockserver.PathMarketSnapshot, 0)

	suite.eventuallyTicker(nifty, func(v types.TickerView) bool {
		return v.State == types.ResourceLive && v.Source == types.SourcePoll
	}, "poll should reach live without the push channel")
	suite.Equal(0, suite.server.Connections())
}

// A silent push channel with the default poll to stale ratio is not a degraded feed.
func (suite *SyncMockServerTestSuite) TestPollOnlyFeedDoesNotWarn() {
	suite.fastTimings()
	suite.cfg.PollInterval = 150 * time.Millisecond
	suite.cfg.StaleAfter = 100 * time.Millisecond
	suite.cfg.RequestTimeout = 100 * time.Millisecond
	suite.server.RejectSockets(http.StatusServiceUnavailable)
	suite.startClient()

	suite.eventuallyTicker(nifty, func(v types.TickerView) bool { return v.State == types.ResourceLive }, "poll should go live")
	time.Sleep(1500 * time.Millisecond)

	suite.GreaterOrEqual(suite.server.RequestCount(mockserver.PathMarketSnapshot), 5)
	suite.Equal(0, suite.observer.countNotifications(types.NotifyFeedDegraded))
	suite.Equal(types.ResourceLive, suite.observer.ticker(nifty).State)
	suite.Equal(types.ResourceLive, suite.observer.ticker(niftyBank).State)
}

func (suite *SyncMockServerTestSuite) TestFailedFetchThenPushHeals() {
	suite.fastTimings()
	suite.server.FailPath(mockserver.PathMarketSnapshot, http.StatusInternalServerError)
	suite.startClient()

	suite.eventuallyTicker(nifty, func(v types.TickerView) bool {
		return v.Display.Is(types.PlaceholderNotConnected)
	}, "failed first fetch should show Not Connected")
	suite.waitConnected()

	suite.Require().NoError(suite.server.PushTick(nifty, decimal.RequireFromString("22222.22"), time.Now()))
	suite.eventuallyTicker(nifty, isPrice("22222.22"), "push should heal the placeholder")
}

func (suite *SyncMockServerTestSuite) TestTickerStartErrorShowsError() {
	suite.fastTimings()
	suite.server.SetTickerStartError("feed failed to start")
	suite.server.FailPath(mockserver.PathMarketSnapshot, http.StatusInternalServerError)
	suite.startClient()

	suite.eventuallyTicker(nifty, func(v types.TickerView) bool {
		return v.Display.Is(types.PlaceholderError)
	}, "ticker start domain error should show Error")
	suite.waitConnected()

	suite.Require().NoError(suite.server.PushTick(nifty, decimal.NewFromInt(22100), time.Now()))
	suite.eventuallyTicker(nifty, isPrice("22100.00"), "next update should self-heal")
}

func (suite *SyncMockServerTestSuite) TestUnauthorizedEventHandledOnce() {
	suite.fastTimings()
	suite.cfg.PollInterval = 50 * time.Millisecond
	suite.startClient()
	suite.waitConnected()

	for i := 0; i < 3; i++ {
		suite.Require().NoError(suite.server.PushUnauthorized("token revoked"))
	}

	suite.Eventually(func() bool { return suite.observer.unauthorizedCount() == 1 }, waitFor, tick)

	// Polling is halted once the session is rejected.
	polls := suite.server.RequestCount(mockserver.PathMarketSnapshot)
	time.Sleep(250 * time.Millisecond)
	suite.LessOrEqual(suite.server.RequestCount(mockserver.PathMarketSnapshot), polls+1)
	suite.Equal(1, suite.observer.unauthorizedCount())
}

func (suite *SyncMockServerTestSuite) TestRejectedTokenHandledOnce() {
	cfg := mockserver.DefaultServerConfig()
	cfg.Token = "valid"
	suite.startServer(cfg)
	suite.fastTimings()
	suite.cfg.AuthToken = "expired"
	suite.startClient()

	// REST and push both answer 401; the user is sent to login once.
	suite.Eventually(func() bool { return suite.observer.unauthorizedCount() == 1 }, waitFor, tick)
	time.Sleep(100 * time.Millisecond)
	suite.Equal(1, suite.observer.unauthorizedCount())
}

func (suite *SyncMockServerTestSuite) TestServerDisconnectReconnects() {
	suite.fastTimings()
	suite.startClient()
	suite.waitConnected()

	// Stay connected past MinUptime so the closure is routine.
	time.Sleep(30 * time.Millisecond)
	suite.server.Disconnect(websocket.CloseNormalClosure, "rebalancing")

	suite.Eventually(func() bool {
		return suite.observer.countConnection(types.ConnectionConnected) >= 2 && suite.server.Connections() == 1
	}, waitFor, tick, "server-initiated disconnect should reconnect")
	suite.Equal(0, suite.observer.countConnection(types.ConnectionReconnecting))
}

func (suite *SyncMockServerTestSuite) TestDropBacksOffAndReconnects() {
	suite.fastTimings()
	suite.startClient()
	suite.waitConnected()

	suite.server.Drop()

	suite.Eventually(func() bool {
		return suite.observer.countConnection(types.ConnectionReconnecting) >= 1 &&
			suite.observer.countConnection(types.ConnectionConnected) >= 2
	}, waitFor, tick, "abnormal drop should back off then reconnect")
}

func (suite *SyncMockServerTestSuite) TestRetryBudgetExhaustedShowsConnectionLost() {
	suite.fastTimings()
	suite.cfg.Reconnect.MaxAttempts = 2
	suite.startClient()
	suite.eventuallyTicker(nifty, func(v types.TickerView) bool { return v.State == types.ResourceLive }, "initial fetch")
	suite.waitConnected()

	suite.server.RejectSockets(http.StatusServiceUnavailable)
	suite.server.Drop()

	suite.eventuallyTicker(nifty, func(v types.TickerView) bool {
		return v.Display.Is(types.PlaceholderConnectionLost)
	}, "exhausted retries should show Connection Lost")
	suite.Equal(types.ConnectionFailed, suite.client.View().Connection)
}

func (suite *SyncMockServerTestSuite) TestCloseTearsDown() {
	suite.fastTimings()
	suite.cfg.PollInterval = 20 * time.Millisecond
	suite.server.StartStreaming()
	suite.startClient()
	suite.waitConnected()

	suite.Require().NoError(suite.client.Close())
	suite.observer.markClosed()

	suite.Eventually(func() bool { return suite.server.Connections() == 0 }, waitFor, tick)

	// Nothing reaches the observer after Close; it fails the test otherwise.
	polls := suite.server.RequestCount(mockserver.PathMarketSnapshot)
	time.Sleep(150 * time.Millisecond)
	suite.Equal(polls, suite.server.RequestCount(mockserver.PathMarketSnapshot))
}

func (suite *SyncMockServerTestSuite) TestSessionGate() {
	cfg := mockserver.DefaultServerConfig()
	cfg.ServerVersion = "99.0.0"
	suite.startServer(cfg)

	gate := session.NewGate(api.NewClient(&suite.cfg, logger.NewNopLogger()), logger.NewNopLogger())

	sess, err := gate.Check(context.Background())
	suite.Require().NoError(err)
	suite.Equal("user-1", sess.User.ID)
}
