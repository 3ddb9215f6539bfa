// Package push implements the client side of the backend push channel: a
// websocket carrying JSON envelopes, kept alive with pings and reconnected with
// exponential backoff.
package push

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
	"github.com/rxtech-lab/argo-sync/internal/config"
	"github.com/rxtech-lab/argo-sync/internal/logger"
	"github.com/rxtech-lab/argo-sync/internal/payload"
	"github.com/rxtech-lab/argo-sync/internal/types"
	"github.com/rxtech-lab/argo-sync/internal/version"
	"github.com/rxtech-lab/argo-sync/pkg/errors"
	"go.uber.org/zap"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024 * 1024
	sendBuffer     = 16
)

// Config configures a push channel client.
type Config struct {
	URL         string
	AuthToken   string
	Instruments []string
	Reconnect   config.ReconnectConfig
	// HandshakeTimeout bounds the websocket opening handshake.
	HandshakeTimeout time.Duration
}

// ConfigFromSync derives the push configuration from the sync client configuration.
func ConfigFromSync(cfg *config.Config) (Config, error) {
	pushURL, err := cfg.ResolvePushURL()
	if err != nil {
		return Config{}, err //nolint:exhaustruct // zero value on error
	}

	return Config{
		URL:              pushURL,
		AuthToken:        cfg.AuthToken,
		Instruments:      append([]string(nil), cfg.Instruments...),
		Reconnect:        cfg.Reconnect,
		HandshakeTimeout: cfg.RequestTimeout,
	}, nil
}

// Option customizes a Client.
type Option func(*Client)

// WithKeepalive overrides the pong wait and ping period.
func WithKeepalive(pong, ping time.Duration) Option {
	return func(c *Client) {
		c.pongWait = pong
		c.pingPeriod = ping
	}
}

// Client is a reconnecting push channel client. One Client serves one Run at a time.
type Client struct {
	cfg        Config
	dialer     *websocket.Dialer
	logger     *logger.Logger
	pongWait   time.Duration
	pingPeriod time.Duration

	mu       sync.Mutex
	state    types.ConnectionState
	outbound chan []byte
	running  bool
}

// NewClient creates a push channel client.
func NewClient(cfg Config, log *logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	handshake := cfg.HandshakeTimeout
	if handshake <= 0 {
		handshake = config.DefaultRequestTimeout
	}

	c := &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{ //nolint:exhaustruct // defaults are fine
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshake,
		},
		logger:     log.Named("push"),
		pongWait:   pongWait,
		pingPeriod: pingPeriod,
		mu:         sync.Mutex{},
		state:      types.ConnectionDisconnected,
		outbound:   nil,
		running:    false,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// State returns the current connection state.
func (c *Client) State() types.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Send queues an outbound event. It fails when no connection is open.
func (c *Client) Send(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPayload, "failed to encode outbound data", err)
	}

	frame, err := json.Marshal(payload.Envelope{Event: event, Data: raw})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPayload, "failed to encode outbound envelope", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != types.ConnectionConnected || c.outbound == nil {
		return errors.New(errors.ErrCodeNotConnected, "push channel is not connected")
	}

	select {
	case c.outbound <- frame:
		return nil
	default:
		return errors.New(errors.ErrCodeTransport, "push channel send buffer is full")
	}
}

// Run connects and keeps the channel open until ctx is cancelled, the server
// rejects the session, or the retry budget is exhausted.
//
// A normal closure initiated by the server reconnects immediately, provided the
// connection stayed up for MinUptime. Any other drop, including a server
// closure that arrives sooner, waits for the backoff delay and counts as a
// failed attempt. A connection that outlives MinUptime resets the count.
// MaxAttempts consecutive failures end the run in the failed state with
// ErrCodeConnectionLost. Cancelling ctx closes the socket and returns nil.
func (c *Client) Run(ctx context.Context, callbacks Callbacks) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()

		return errors.New(errors.ErrCodeAlreadyStarted, "push channel is already running")
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	b := &backoff.Backoff{
		Min:    c.cfg.Reconnect.MinDelay,
		Max:    c.cfg.Reconnect.MaxDelay,
		Factor: c.cfg.Reconnect.Factor,
		Jitter: c.cfg.Reconnect.JitterEnabled(),
	}

	maxAttempts := c.cfg.Reconnect.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = config.DefaultMaxAttempts
	}

	failures := 0
	c.setState(callbacks, types.ConnectionConnecting, nil)

	for {
		if ctx.Err() != nil {
			c.setState(callbacks, types.ConnectionDisconnected, nil)

			return nil
		}

		dialedAt := time.Now()
		connected, err := c.connectAndServe(ctx, callbacks)

		stable := connected && time.Since(dialedAt) >= c.cfg.Reconnect.MinUptime
		if stable {
			b.Reset()
			failures = 0
		}

		if ctx.Err() != nil {
			c.setState(callbacks, types.ConnectionDisconnected, nil)

			return nil
		}

		if errors.HasCode(err, errors.ErrCodeUnauthorized) {
			c.setState(callbacks, types.ConnectionDisconnected, err)

			return err
		}

		if stable && errors.IsServerDisconnect(err) {
			c.logger.Info("server closed the push channel, reconnecting", zap.Error(err))
			c.setState(callbacks, types.ConnectionConnecting, err)

			continue
		}

		failures++
		if failures >= maxAttempts {
			lost := errors.Wrapf(errors.ErrCodeConnectionLost, err, "push channel lost after %d attempts", failures)
			c.logger.Error("push channel retry budget exhausted", zap.Int("attempts", failures), zap.Error(err))
			c.setState(callbacks, types.ConnectionFailed, lost)

			return lost
		}

		delay := b.Duration()
		c.logger.Warn("push channel dropped, backing off",
			zap.Int("attempt", failures),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		c.setState(callbacks, types.ConnectionReconnecting, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
}

// connectAndServe dials once and serves the connection until it drops.
// connected reports whether the handshake succeeded.
func (c *Client) connectAndServe(ctx context.Context, callbacks Callbacks) (connected bool, err error) {
	header := http.Header{}
	header.Set("User-Agent", version.UserAgent())
	if c.cfg.AuthToken != "" {
		header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return false, errors.Newf(errors.ErrCodeUnauthorized, "push handshake rejected (status %d)", resp.StatusCode)
		}

		return false, errors.Wrap(errors.ErrCodeTransport, "failed to dial push channel", err)
	}

	return true, c.serve(ctx, conn, callbacks)
}

func (c *Client) serve(ctx context.Context, conn *websocket.Conn, callbacks Callbacks) error {
	defer conn.Close()

	if err := c.writeEnvelope(conn, payload.EventSubscribe, payload.SubscribeWire{Instruments: c.cfg.Instruments}); err != nil {
		return errors.Wrap(errors.ErrCodeTransport, "failed to subscribe", err)
	}

	outbound := make(chan []byte, sendBuffer)
	c.mu.Lock()
	c.outbound = outbound
	c.mu.Unlock()

	c.setState(callbacks, types.ConnectionConnected, nil)

	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump(ctx, conn, outbound, done)
	}()

	err := c.readPump(conn, callbacks)
	close(done)

	c.mu.Lock()
	c.outbound = nil
	c.mu.Unlock()

	wg.Wait()

	return err
}

// readPump reads frames until the connection fails and classifies the failure.
func (c *Client) readPump(conn *websocket.Conn, callbacks Callbacks) error {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(c.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return classifyReadError(err)
		}

		_ = conn.SetReadDeadline(time.Now().Add(c.pongWait))

		env, err := payload.DecodeEnvelope(message)
		if err != nil {
			c.logger.Warn("dropping invalid push frame", zap.Error(err))

			continue
		}

		if callbacks.OnEvent != nil {
			(*callbacks.OnEvent)(env)
		}
	}
}

// writePump owns every data write on conn: queued outbound frames and pings.
// On ctx cancellation it sends a normal closure and closes the socket, which
// unblocks readPump.
func (c *Client) writePump(ctx context.Context, conn *websocket.Conn, outbound <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(c.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closing"),
				time.Now().Add(writeWait),
			)
			_ = conn.Close()

			return
		case frame := <-outbound:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Warn("push write failed", zap.Error(err))
				_ = conn.Close()

				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()

				return
			}
		}
	}
}

func (c *Client) writeEnvelope(conn *websocket.Conn, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

	return conn.WriteJSON(payload.Envelope{Event: event, Data: raw})
}

func (c *Client) setState(callbacks Callbacks, state types.ConnectionState, cause error) {
	c.mu.Lock()
	changed := c.state != state
	c.state = state
	c.mu.Unlock()

	if !changed {
		return
	}

	c.logger.Debug("push channel state changed", zap.String("state", string(state)))

	if callbacks.OnStateChange != nil {
		(*callbacks.OnStateChange)(state, cause)
	}
}

// classifyReadError maps a read failure onto a DisconnectError. Only a normal
// closure frame sent by the server counts as server-initiated.
func classifyReadError(err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		serverInitiated := closeErr.Code == websocket.CloseNormalClosure

		return errors.Wrap(errors.ErrCodeTransport, "push channel closed",
			errors.NewDisconnectError(closeErr.Code, serverInitiated, closeErr.Text))
	}

	return errors.Wrap(errors.ErrCodeTransport, "push channel read failed",
		errors.NewDisconnectError(websocket.CloseAbnormalClosure, false, err.Error()))
}
