package payload

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Event names carried on the push channel.
const (
	EventMarketData       = "market_data"
	EventDeploymentStatus = "deployment_status"
	EventUnauthorized     = "unauthorized"
	EventError            = "error"
	EventWarning          = "warning"
	EventHello            = "hello"
	EventSubscribe        = "subscribe"
)

// Envelope is the frame every push message is wrapped in.
type Envelope struct {
	Event string          `json:"event" jsonschema:"title=Event,description=Event name" validate:"required"`
	Data  json.RawMessage `json:"data,omitempty" jsonschema:"title=Data,description=Event payload"`
}

// TickerWire is one instrument quote as sent by the backend.
type TickerWire struct {
	InstrumentKey string           `json:"instrument_key" jsonschema:"title=Instrument Key,required" validate:"required"`
	LastPrice     *decimal.Decimal `json:"last_price" jsonschema:"title=Last Price,required" validate:"required"`
	AsOf          *Timestamp       `json:"as_of" jsonschema:"title=As Of,required" validate:"required"`
}

// MarketSnapshotWire is the body of GET /api/market_snapshot and of market_data events.
type MarketSnapshotWire struct {
	Tickers []TickerWire `json:"tickers" jsonschema:"title=Tickers,required" validate:"required,min=1,dive"`
}

// OrderWire is one order inside a deployment status payload.
type OrderWire struct {
	ID        string           `json:"id" validate:"required"`
	Symbol    string           `json:"symbol" validate:"required"`
	Side      string           `json:"side" validate:"required,oneof=buy sell BUY SELL"`
	Quantity  *decimal.Decimal `json:"quantity" validate:"required"`
	Price     *decimal.Decimal `json:"price"`
	Status    string           `json:"status"`
	Timestamp *Timestamp       `json:"timestamp"`
}

// PositionWire is one position inside a deployment status payload.
type PositionWire struct {
	Symbol    string           `json:"symbol" validate:"required"`
	Quantity  *decimal.Decimal `json:"quantity" validate:"required"`
	AvgPrice  *decimal.Decimal `json:"avg_price"`
	LastPrice *decimal.Decimal `json:"last_price"`
	Pnl       *decimal.Decimal `json:"pnl"`
}

// DeploymentWire is the body of GET /api/live_trade/status and of deployment_status events.
type DeploymentWire struct {
	ID                 string           `json:"id" jsonschema:"title=ID,required" validate:"required"`
	Status             string           `json:"status" jsonschema:"title=Status,required,enum=scheduled,enum=active,enum=paused,enum=stopped,enum=error" validate:"required,oneof=scheduled active paused stopped error"`
	Phase              string           `json:"phase" jsonschema:"title=Phase"`
	LastCheckTimestamp *Timestamp       `json:"last_check_timestamp" jsonschema:"title=Last Check Timestamp,required" validate:"required"`
	Orders             []OrderWire      `json:"orders" validate:"dive"`
	Positions          []PositionWire   `json:"positions" validate:"dive"`
	Pnl                *decimal.Decimal `json:"pnl"`
}

// UserDataWire is the body of GET /api/user-data.
type UserDataWire struct {
	ID         string `json:"id" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	Name       string `json:"name"`
	Plan       string `json:"plan"`
	APIVersion string `json:"api_version"`
}

// TickerStartWire is the body returned by POST /api/ticker/start.
type TickerStartWire struct {
	Status  string `json:"status" validate:"required,oneof=ok started already_running error"`
	Message string `json:"message"`
}

// ServerErrorWire is the payload of an error event.
type ServerErrorWire struct {
	Resource      string `json:"resource" validate:"omitempty,oneof=ticker deployment"`
	InstrumentKey string `json:"instrument_key"`
	Message       string `json:"message" validate:"required"`
}

// WarningWire is the payload of a warning event.
type WarningWire struct {
	Message string `json:"message" validate:"required"`
}

// UnauthorizedWire is the payload of an unauthorized event.
type UnauthorizedWire struct {
	Reason string `json:"reason"`
}

// HelloWire is the payload of the hello event sent after connecting.
type HelloWire struct {
	ServerVersion string `json:"server_version"`
}

// SubscribeWire is sent by the client right after connecting.
type SubscribeWire struct {
	Instruments []string `json:"instruments"`
}
