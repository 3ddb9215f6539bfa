package mockserver

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-sync/internal/payload"
	"github.com/rxtech-lab/argo-sync/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type MockServerTestSuite struct {
	suite.Suite
	server *MockBackendServer
}

func TestMockServerSuite(t *testing.T) {
	suite.Run(t, new(MockServerTestSuite))
}

func (suite *MockServerTestSuite) SetupTest() {
	config := DefaultServerConfig()
	config.StreamInterval = 20 * time.Millisecond
	config.ServerVersion = "1.2.0"

	suite.server = NewMockBackendServer(config)
	err := suite.server.Start(":0")
	suite.Require().NoError(err)
}

func (suite *MockServerTestSuite) TearDownTest() {
	if suite.server != nil {
		suite.server.Stop()
	}
}

func (suite *MockServerTestSuite) get(path string) (int, []byte) {
	resp, err := http.Get(suite.server.BaseURL() + path)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)

	return resp.StatusCode, body
}

func (suite *MockServerTestSuite) dial() *websocket.Conn {
	conn, resp, err := websocket.DefaultDialer.Dial(suite.server.WebSocketURL(), nil)
	suite.Require().NoError(err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	suite.Eventually(func() bool { return suite.server.Connections() == 1 }, time.Second, 5*time.Millisecond)

	return conn
}

func (suite *MockServerTestSuite) readEnvelope(conn *websocket.Conn) payload.Envelope {
	suite.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))

	_, data, err := conn.ReadMessage()
	suite.Require().NoError(err)

	env, err := payload.DecodeEnvelope(data)
	suite.Require().NoError(err)

	return env
}

// Test Server Lifecycle

func (suite *MockServerTestSuite) TestServerStartAndStop() {
	suite.NotEmpty(suite.server.Address())
	suite.Contains(suite.server.BaseURL(), "http://")
	suite.Contains(suite.server.WebSocketURL(), "ws://")
	suite.True(strings.HasSuffix(suite.server.WebSocketURL(), PathSocket))
}

// Test REST endpoints

func (suite *MockServerTestSuite) TestMarketSnapshotDecodes() {
	asOf := time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)
	suite.server.SetPrice("NIFTY 50", decimal.RequireFromString("22123.45"), asOf)

	status, body := suite.get(PathMarketSnapshot)
	suite.Equal(http.StatusOK, status)

	tickers, err := payload.DecodeMarketSnapshot(body)
	suite.Require().NoError(err)
	suite.Len(tickers, 2)
	suite.Equal("NIFTY 50", tickers[0].InstrumentKey)
	suite.True(tickers[0].LastPrice.Equal(decimal.RequireFromString("22123.45")))
	suite.True(tickers[0].AsOf.Equal(asOf))
}

func (suite *MockServerTestSuite) TestLiveTradeStatusDecodes() {
	now := time.Now().UTC().Truncate(time.Millisecond)
	suite.server.SetDeployment(types.DeploymentStatus{
		ID:                 "dep-9",
		Status:             types.DeploymentPaused,
		Phase:              "cooldown",
		LastCheckTimestamp: now,
		Orders: []types.DeploymentOrder{{
			ID: "o-1", Symbol: "NIFTY24MARFUT", Side: "buy",
			Quantity: decimal.NewFromInt(50), Price: decimal.NewFromInt(22000),
			Status: "filled", Timestamp: now,
		}},
		Positions: []types.DeploymentPosition{{
			Symbol: "NIFTY24MARFUT", Quantity: decimal.NewFromInt(50),
			AvgPrice: decimal.NewFromInt(22000), LastPrice: decimal.NewFromInt(22010), Pnl: decimal.NewFromInt(500),
		}},
		Pnl: decimal.NewFromInt(500),
	})

	status, body := suite.get(PathLiveTradeStatus)
	suite.Equal(http.StatusOK, status)

	dep, err := payload.DecodeDeploymentStatus(body)
	suite.Require().NoError(err)
	suite.Equal("dep-9", dep.ID)
	suite.Equal(types.DeploymentPaused, dep.Status)
	suite.Len(dep.Orders, 1)
	suite.Len(dep.Positions, 1)
	suite.True(dep.Pnl.Equal(decimal.NewFromInt(500)))
}

func (suite *MockServerTestSuite) TestUserDataDecodes() {
	status, body := suite.get(PathUserData)
	suite.Equal(http.StatusOK, status)

	user, err := payload.DecodeUserData(body)
	suite.Require().NoError(err)
	suite.Equal("user-1", user.ID)
	suite.Equal("1.2.0", user.APIVersion)
}

func (suite *MockServerTestSuite) TestTickerStart() {
	post := func() []byte {
		resp, err := http.Post(suite.server.BaseURL()+PathTickerStart, "application/json",
			strings.NewReader(`{"instruments":["NIFTY 50"]}`))
		suite.Require().NoError(err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		suite.Require().NoError(err)

		return body
	}

	result, err := payload.DecodeTickerStart(post())
	suite.Require().NoError(err)
	suite.True(result.Started)

	suite.server.SetTickerStartError("feed failed to start")
	_, err = payload.DecodeTickerStart(post())
	suite.Error(err)
	suite.Contains(err.Error(), "feed failed to start")
}

func (suite *MockServerTestSuite) TestFailPathAndCounts() {
	suite.server.FailPath(PathMarketSnapshot, http.StatusInternalServerError)

	status, _ := suite.get(PathMarketSnapshot)
	suite.Equal(http.StatusInternalServerError, status)

	suite.server.FailPath(PathMarketSnapshot, 0)
	status, _ = suite.get(PathMarketSnapshot)
	suite.Equal(http.StatusOK, status)

	suite.Equal(2, suite.server.RequestCount(PathMarketSnapshot))
	suite.Equal(0, suite.server.RequestCount(PathLiveTradeStatus))
}

func (suite *MockServerTestSuite) TestTokenRequired() {
	suite.server.Stop()

	config := DefaultServerConfig()
	config.Token = "secret"
	suite.server = NewMockBackendServer(config)
	suite.Require().NoError(suite.server.Start(":0"))

	status, _ := suite.get(PathUserData)
	suite.Equal(http.StatusUnauthorized, status)

	req, err := http.NewRequest(http.MethodGet, suite.server.BaseURL()+PathUserData, nil)
	suite.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer secret")

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusOK, resp.StatusCode)
}

// Test WebSocket

func (suite *MockServerTestSuite) TestWebSocketHelloAndSubscribe() {
	conn := suite.dial()
	defer conn.Close()

	hello := suite.readEnvelope(conn)
	suite.Equal(payload.EventHello, hello.Event)

	version, err := payload.DecodeHello(hello.Data)
	suite.Require().NoError(err)
	suite.Equal("1.2.0", version)

	sub, _ := json.Marshal(payload.SubscribeWire{Instruments: []string{"NIFTY 50"}})
	suite.Require().NoError(conn.WriteJSON(payload.Envelope{Event: payload.EventSubscribe, Data: sub}))

	suite.Eventually(func() bool {
		return len(suite.server.Subscribed()) == 1
	}, time.Second, 5*time.Millisecond)
	suite.Equal([]string{"NIFTY 50"}, suite.server.Subscribed())
}

func (suite *MockServerTestSuite) TestPushTick() {
	conn := suite.dial()
	defer conn.Close()
	_ = suite.readEnvelope(conn) // hello

	asOf := time.Now().UTC()
	suite.Require().NoError(suite.server.PushTick("NIFTY BANK", decimal.NewFromInt(48000), asOf))

	env := suite.readEnvelope(conn)
	suite.Equal(payload.EventMarketData, env.Event)

	tickers, err := payload.DecodeMarketSnapshot(env.Data)
	suite.Require().NoError(err)
	suite.Require().Len(tickers, 1)
	suite.Equal("NIFTY BANK", tickers[0].InstrumentKey)
	suite.True(tickers[0].LastPrice.Equal(decimal.NewFromInt(48000)))
}

func (suite *MockServerTestSuite) TestPushUnauthorized() {
	conn := suite.dial()
	defer conn.Close()
	_ = suite.readEnvelope(conn)

	suite.Require().NoError(suite.server.PushUnauthorized("token expired"))

	env := suite.readEnvelope(conn)
	suite.Equal(payload.EventUnauthorized, env.Event)
	suite.Equal("token expired", payload.DecodeUnauthorized(env.Data))
}

func (suite *MockServerTestSuite) TestDisconnectSendsCloseFrame() {
	conn := suite.dial()
	defer conn.Close()
	_ = suite.readEnvelope(conn)

	suite.server.Disconnect(websocket.CloseNormalClosure, "maintenance")

	_, _, err := conn.ReadMessage()
	suite.True(websocket.IsCloseError(err, websocket.CloseNormalClosure))
	suite.Equal(0, suite.server.Connections())
}

func (suite *MockServerTestSuite) TestDropIsAbnormal() {
	conn := suite.dial()
	defer conn.Close()
	_ = suite.readEnvelope(conn)

	suite.server.Drop()

	_, _, err := conn.ReadMessage()
	suite.Error(err)
	suite.False(websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func (suite *MockServerTestSuite) TestRejectSockets() {
	suite.server.RejectSockets(http.StatusForbidden)

	_, resp, err := websocket.DefaultDialer.Dial(suite.server.WebSocketURL(), nil)
	suite.Error(err)
	suite.Require().NotNil(resp)
	suite.Equal(http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

// Test Streaming

func (suite *MockServerTestSuite) TestStreaming() {
	conn := suite.dial()
	defer conn.Close()
	_ = suite.readEnvelope(conn)

	suite.server.StartStreaming()
	suite.True(suite.server.IsStreaming())

	env := suite.readEnvelope(conn)
	suite.Equal(payload.EventMarketData, env.Event)

	suite.server.StopStreaming()
	suite.False(suite.server.IsStreaming())
}
