// Package mockserver provides a mock backend for testing the sync client.
// It implements the REST endpoints and the push channel of the backend API,
// with knobs for failure injection.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-sync/internal/payload"
	"github.com/rxtech-lab/argo-sync/internal/types"
	"github.com/rxtech-lab/argo-sync/mocks"
	"github.com/shopspring/decimal"
)

// Backend paths served by the mock.
const (
	PathUserData        = "/api/user-data"
	PathMarketSnapshot  = "/api/market_snapshot"
	PathLiveTradeStatus = "/api/live_trade/status"
	PathTickerStart     = "/api/ticker/start"
	PathSocket          = "/socket"
)

// ServerConfig holds configuration for the mock server.
type ServerConfig struct {
	// Instruments are the index names quoted by the server
	Instruments []string
	// InitialPrice is the starting price of every instrument
	InitialPrice float64
	// Token, when set, is the only bearer token accepted
	Token string
	// ServerVersion is announced in the hello event
	ServerVersion string
	// StreamInterval is the interval between streamed ticks once streaming started
	StreamInterval time.Duration
	// Seed seeds the tick generator
	Seed int64
}

// DefaultServerConfig returns a configuration quoting the two default indices.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Instruments:    []string{"NIFTY 50", "NIFTY BANK"},
		InitialPrice:   22000,
		Token:          "",
		ServerVersion:  "",
		StreamInterval: 100 * time.Millisecond,
		Seed:           42,
	}
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))

	return c.conn.WriteJSON(v)
}

// MockBackendServer provides a mock backend for testing.
type MockBackendServer struct {
	mu sync.RWMutex

	// HTTP server
	httpServer *http.Server
	listener   net.Listener

	// WebSocket upgrader
	upgrader websocket.Upgrader

	config ServerConfig

	// State management
	prices      map[string]types.TickerSnapshot
	deployment  types.DeploymentStatus
	user        types.UserData
	failures    map[string]int
	requests    map[string]int
	startError  string
	subscribed  []string
	socketError int

	// WebSocket connections
	wsConnections map[*wsClient]bool
	wsMu          sync.RWMutex

	// Streaming
	generator     *mocks.DataGenerator
	streaming     bool
	stopStreaming chan struct{}
	streamWG      sync.WaitGroup
}

// NewMockBackendServer creates a new mock backend server.
func NewMockBackendServer(config ServerConfig) *MockBackendServer {
	if len(config.Instruments) == 0 {
		config.Instruments = DefaultServerConfig().Instruments
	}

	if config.InitialPrice == 0 {
		config.InitialPrice = DefaultServerConfig().InitialPrice
	}

	if config.StreamInterval == 0 {
		config.StreamInterval = DefaultServerConfig().StreamInterval
	}

	now := time.Now().UTC()

	server := &MockBackendServer{
		mu: sync.RWMutex{},
		upgrader: websocket.Upgrader{ //nolint:exhaustruct
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		config: config,
		prices: make(map[string]types.TickerSnapshot),
		deployment: types.DeploymentStatus{
			ID:                 "deployment-1",
			Status:             types.DeploymentActive,
			Phase:              "monitoring",
			LastCheckTimestamp: now,
			Orders:             []types.DeploymentOrder{},
			Positions:          []types.DeploymentPosition{},
			Pnl:                decimal.Zero,
		},
		user: types.UserData{
			ID:         "user-1",
			Email:      "trader@example.com",
			Name:       "Test Trader",
			Plan:       "pro",
			APIVersion: config.ServerVersion,
		},
		failures:      make(map[string]int),
		requests:      make(map[string]int),
		startError:    "",
		subscribed:    nil,
		socketError:   0,
		wsConnections: make(map[*wsClient]bool),
		wsMu:          sync.RWMutex{},
		generator:     mocks.NewDataGenerator(config.Seed),
		streaming:     false,
		stopStreaming: make(chan struct{}),
		streamWG:      sync.WaitGroup{},
		httpServer:    nil,
		listener:      nil,
	}

	for _, key := range config.Instruments {
		server.prices[key] = types.TickerSnapshot{
			InstrumentKey: key,
			LastPrice:     decimal.NewFromFloat(config.InitialPrice),
			AsOf:          now,
		}
	}

	return server
}

// Start starts the mock server on the given address.
// If address is empty or ":0", a random available port is used.
func (s *MockBackendServer) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	router := mux.NewRouter()
	router.Use(s.recordAndFail)

	// REST API endpoints
	router.HandleFunc(PathUserData, s.handleUserData).Methods("GET")
	router.HandleFunc(PathMarketSnapshot, s.handleMarketSnapshot).Methods("GET")
	router.HandleFunc(PathLiveTradeStatus, s.handleLiveTradeStatus).Methods("GET")
	router.HandleFunc(PathTickerStart, s.handleTickerStart).Methods("POST")

	// WebSocket endpoint
	router.HandleFunc(PathSocket, s.handleWebSocket)

	s.httpServer = &http.Server{ //nolint:exhaustruct
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	return nil
}

// Stop stops the mock server.
func (s *MockBackendServer) Stop() error {
	s.StopStreaming()

	// Close all WebSocket connections
	s.wsMu.Lock()
	for client := range s.wsConnections {
		client.conn.Close()
	}
	s.wsConnections = make(map[*wsClient]bool)
	s.wsMu.Unlock()

	// Shutdown HTTP server
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Address returns the address the server is listening on.
func (s *MockBackendServer) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// BaseURL returns the base URL for the server.
func (s *MockBackendServer) BaseURL() string {
	return "http://" + s.Address()
}

// WebSocketURL returns the push channel URL for the server.
func (s *MockBackendServer) WebSocketURL() string {
	return "ws://" + s.Address() + PathSocket
}

// SetPrice sets the current quote of an instrument.
func (s *MockBackendServer) SetPrice(key string, price decimal.Decimal, asOf time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prices[key] = types.TickerSnapshot{InstrumentKey: key, LastPrice: price, AsOf: asOf.UTC()}
}

// GetPrice returns the current quote of an instrument.
func (s *MockBackendServer) GetPrice(key string) (types.TickerSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.prices[key]

	return snap, ok
}

// SetDeployment replaces the deployment status.
func (s *MockBackendServer) SetDeployment(status types.DeploymentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deployment = status
}

// SetUser replaces the user data.
func (s *MockBackendServer) SetUser(user types.UserData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = user
}

// FailPath makes every request to path answer with status. A status of 0 clears it.
func (s *MockBackendServer) FailPath(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status == 0 {
		delete(s.failures, path)

		return
	}

	s.failures[path] = status
}

// ClearFailures removes every injected failure.
func (s *MockBackendServer) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures = make(map[string]int)
	s.socketError = 0
	s.startError = ""
}

// RejectSockets makes push channel handshakes answer with status. A status of 0 clears it.
func (s *MockBackendServer) RejectSockets(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.socketError = status
}

// SetTickerStartError makes POST /api/ticker/start report a domain error.
func (s *MockBackendServer) SetTickerStartError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.startError = message
}

// RequestCount returns how many requests reached path.
func (s *MockBackendServer) RequestCount(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.requests[path]
}

// Subscribed returns the instruments of the last subscribe message.
func (s *MockBackendServer) Subscribed() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.subscribed...)
}

// Connections returns the number of open push connections.
func (s *MockBackendServer) Connections() int {
	s.wsMu.RLock()
	defer s.wsMu.RUnlock()

	return len(s.wsConnections)
}

// Push sends an event to every open push connection.
func (s *MockBackendServer) Push(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	env := payload.Envelope{Event: event, Data: raw}

	s.wsMu.RLock()
	clients := make([]*wsClient, 0, len(s.wsConnections))
	for client := range s.wsConnections {
		clients = append(clients, client)
	}
	s.wsMu.RUnlock()

	for _, client := range clients {
		if err := client.writeJSON(env); err != nil {
			return err
		}
	}

	return nil
}

// PushTick sets the price of an instrument and sends it as a market_data event.
func (s *MockBackendServer) PushTick(key string, price decimal.Decimal, asOf time.Time) error {
	s.SetPrice(key, price, asOf)

	snap, _ := s.GetPrice(key)

	return s.Push(payload.EventMarketData, tickerWire(snap))
}

// PushDeployment sets the deployment status and sends it as a deployment_status event.
func (s *MockBackendServer) PushDeployment(status types.DeploymentStatus) error {
	s.SetDeployment(status)

	return s.Push(payload.EventDeploymentStatus, deploymentWire(status))
}

// PushUnauthorized sends an unauthorized event.
func (s *MockBackendServer) PushUnauthorized(reason string) error {
	return s.Push(payload.EventUnauthorized, payload.UnauthorizedWire{Reason: reason})
}

// Disconnect closes every push connection with a close frame carrying code.
// A code of websocket.CloseNormalClosure is a server-initiated disconnect.
func (s *MockBackendServer) Disconnect(code int, text string) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	for client := range s.wsConnections {
		_ = client.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
		client.conn.Close()
	}

	s.wsConnections = make(map[*wsClient]bool)
}

// Drop closes every push connection without a close frame.
func (s *MockBackendServer) Drop() {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	for client := range s.wsConnections {
		_ = client.conn.UnderlyingConn().Close()
	}

	s.wsConnections = make(map[*wsClient]bool)
}

// StartStreaming streams generated ticks for every instrument every StreamInterval.
func (s *MockBackendServer) StartStreaming() {
	s.mu.Lock()
	if s.streaming {
		s.mu.Unlock()

		return
	}

	s.streaming = true
	s.stopStreaming = make(chan struct{})
	stop := s.stopStreaming
	s.mu.Unlock()

	s.streamWG.Add(1)
	go func() {
		defer s.streamWG.Done()
		s.stream(stop)
	}()
}

// StopStreaming stops tick streaming.
func (s *MockBackendServer) StopStreaming() {
	s.mu.Lock()
	if !s.streaming {
		s.mu.Unlock()

		return
	}

	s.streaming = false
	close(s.stopStreaming)
	s.mu.Unlock()

	s.streamWG.Wait()
}

// IsStreaming reports whether ticks are being streamed.
func (s *MockBackendServer) IsStreaming() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.streaming
}

func (s *MockBackendServer) stream(stop <-chan struct{}) {
	ticker := time.NewTicker(s.config.StreamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, key := range s.config.Instruments {
				snap, _ := s.GetPrice(key)
				current, _ := snap.LastPrice.Float64()

				s.mu.Lock()
				next := s.generator.Next(current, 0.0005, 0)
				s.mu.Unlock()

				_ = s.PushTick(key, decimal.NewFromFloat(next).Round(2), time.Now())
			}
		}
	}
}

// recordAndFail counts requests and applies injected failures and auth.
func (s *MockBackendServer) recordAndFail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path]++
		status := s.failures[r.URL.Path]
		if r.URL.Path == PathSocket && s.socketError != 0 {
			status = s.socketError
		}
		token := s.config.Token
		s.mu.Unlock()

		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})

			return
		}

		if status != 0 {
			writeJSON(w, status, map[string]string{"error": http.StatusText(status)})

			return
		}

		next.ServeHTTP(w, r)
	})
}

// REST API Handlers

// handleUserData handles GET /api/user-data
func (s *MockBackendServer) handleUserData(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	user := payload.UserDataWire(s.user)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, user)
}

// handleMarketSnapshot handles GET /api/market_snapshot
func (s *MockBackendServer) handleMarketSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	body := payload.MarketSnapshotWire{Tickers: make([]payload.TickerWire, 0, len(s.config.Instruments))}
	for _, key := range s.config.Instruments {
		body.Tickers = append(body.Tickers, tickerWire(s.prices[key]))
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, body)
}

// handleLiveTradeStatus handles GET /api/live_trade/status
func (s *MockBackendServer) handleLiveTradeStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	body := deploymentWire(s.deployment)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, body)
}

// handleTickerStart handles POST /api/ticker/start
func (s *MockBackendServer) handleTickerStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Instruments []string `json:"instruments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, payload.TickerStartWire{Status: "error", Message: "invalid request body"})

		return
	}

	s.mu.RLock()
	startError := s.startError
	s.mu.RUnlock()

	if startError != "" {
		writeJSON(w, http.StatusOK, payload.TickerStartWire{Status: "error", Message: startError})

		return
	}

	writeJSON(w, http.StatusOK, payload.TickerStartWire{Status: "started", Message: strings.Join(req.Instruments, ",")})
}

// WebSocket Handler

// handleWebSocket handles push channel connections.
func (s *MockBackendServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &wsClient{conn: conn, mu: sync.Mutex{}}

	s.wsMu.Lock()
	s.wsConnections[client] = true
	s.wsMu.Unlock()

	defer func() {
		s.wsMu.Lock()
		delete(s.wsConnections, client)
		s.wsMu.Unlock()
		conn.Close()
	}()

	if s.config.ServerVersion != "" {
		_ = client.writeJSON(envelope(payload.EventHello, payload.HelloWire{ServerVersion: s.config.ServerVersion}))
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		env, err := payload.DecodeEnvelope(message)
		if err != nil || env.Event != payload.EventSubscribe {
			continue
		}

		var sub payload.SubscribeWire
		if err := json.Unmarshal(env.Data, &sub); err != nil {
			continue
		}

		s.mu.Lock()
		s.subscribed = sub.Instruments
		s.mu.Unlock()
	}
}

func envelope(event string, data any) payload.Envelope {
	raw, _ := json.Marshal(data)

	return payload.Envelope{Event: event, Data: raw}
}

func tickerWire(snap types.TickerSnapshot) payload.TickerWire {
	price := snap.LastPrice

	return payload.TickerWire{
		InstrumentKey: snap.InstrumentKey,
		LastPrice:     &price,
		AsOf:          &payload.Timestamp{Time: snap.AsOf},
	}
}

func deploymentWire(status types.DeploymentStatus) payload.DeploymentWire {
	orders := make([]payload.OrderWire, 0, len(status.Orders))
	for _, o := range status.Orders {
		quantity, price := o.Quantity, o.Price
		orders = append(orders, payload.OrderWire{
			ID:        o.ID,
			Symbol:    o.Symbol,
			Side:      o.Side,
			Quantity:  &quantity,
			Price:     &price,
			Status:    o.Status,
			Timestamp: &payload.Timestamp{Time: o.Timestamp},
		})
	}

	positions := make([]payload.PositionWire, 0, len(status.Positions))
	for _, p := range status.Positions {
		quantity, avg, last, pnl := p.Quantity, p.AvgPrice, p.LastPrice, p.Pnl
		positions = append(positions, payload.PositionWire{
			Symbol:    p.Symbol,
			Quantity:  &quantity,
			AvgPrice:  &avg,
			LastPrice: &last,
			Pnl:       &pnl,
		})
	}

	pnl := status.Pnl

	return payload.DeploymentWire{
		ID:                 status.ID,
		Status:             string(status.Status),
		Phase:              status.Phase,
		LastCheckTimestamp: &payload.Timestamp{Time: status.LastCheckTimestamp},
		Orders:             orders,
		Positions:          positions,
		Pnl:                &pnl,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
