// Package payload validates loosely shaped backend JSON at the boundary and
// converts it into the typed entities of internal/types. Nothing outside this
// package sees raw backend payloads.
package payload

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-sync/internal/types"
	"github.com/rxtech-lab/argo-sync/pkg/errors"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// TickerStartResult is the outcome of a ticker start request.
type TickerStartResult struct {
	Started bool
	Message string
}

// ServerError is a domain error reported by the backend over the push channel.
type ServerError struct {
	Resource      types.ResourceKind
	InstrumentKey string
	Message       string
}

// decodeInto unmarshals and validates a payload into v.
func decodeInto(name string, data []byte, v any) error {
	if len(data) == 0 {
		return errors.Newf(errors.ErrCodeInvalidPayload, "empty %s payload", name)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidPayload, err, "malformed %s payload", name)
	}

	if err := validate.Struct(v); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidPayload, err, "invalid %s payload", name)
	}

	return nil
}

// DecodeEnvelope decodes a raw push frame.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := decodeInto("envelope", data, &env); err != nil {
		return Envelope{}, err //nolint:exhaustruct // zero value on error
	}

	return env, nil
}

// DecodeMarketSnapshot decodes the market snapshot endpoint body or a market_data event.
// A market_data event may also carry a single tick instead of a snapshot list.
func DecodeMarketSnapshot(data []byte) ([]types.TickerSnapshot, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, "malformed market snapshot payload", err)
	}

	var wire MarketSnapshotWire
	if _, ok := probe["tickers"]; ok {
		if err := decodeInto("market snapshot", data, &wire); err != nil {
			return nil, err
		}
	} else {
		var tick TickerWire
		if err := decodeInto("market tick", data, &tick); err != nil {
			return nil, err
		}

		wire.Tickers = []TickerWire{tick}
	}

	snapshots := make([]types.TickerSnapshot, 0, len(wire.Tickers))
	for _, t := range wire.Tickers {
		snapshots = append(snapshots, types.TickerSnapshot{
			InstrumentKey: strings.TrimSpace(t.InstrumentKey),
			LastPrice:     *t.LastPrice,
			AsOf:          t.AsOf.Time,
		})
	}

	return snapshots, nil
}

// DecodeDeploymentStatus decodes the live trade status endpoint body or a deployment_status event.
func DecodeDeploymentStatus(data []byte) (types.DeploymentStatus, error) {
	var wire DeploymentWire
	if err := decodeInto("deployment status", data, &wire); err != nil {
		return types.DeploymentStatus{}, err //nolint:exhaustruct // zero value on error
	}

	orders := make([]types.DeploymentOrder, 0, len(wire.Orders))
	for _, o := range wire.Orders {
		order := types.DeploymentOrder{
			ID:        o.ID,
			Symbol:    o.Symbol,
			Side:      strings.ToLower(o.Side),
			Quantity:  *o.Quantity,
			Price:     decimalOrZero(o.Price),
			Status:    o.Status,
			Timestamp: wire.LastCheckTimestamp.Time,
		}
		if o.Timestamp != nil {
			order.Timestamp = o.Timestamp.Time
		}

		orders = append(orders, order)
	}

	positions := make([]types.DeploymentPosition, 0, len(wire.Positions))
	for _, p := range wire.Positions {
		positions = append(positions, types.DeploymentPosition{
			Symbol:    p.Symbol,
			Quantity:  *p.Quantity,
			AvgPrice:  decimalOrZero(p.AvgPrice),
			LastPrice: decimalOrZero(p.LastPrice),
			Pnl:       decimalOrZero(p.Pnl),
		})
	}

	return types.DeploymentStatus{
		ID:                 wire.ID,
		Status:             types.DeploymentState(wire.Status),
		Phase:              wire.Phase,
		LastCheckTimestamp: wire.LastCheckTimestamp.Time,
		Orders:             orders,
		Positions:          positions,
		Pnl:                decimalOrZero(wire.Pnl),
	}, nil
}

// DecodeUserData decodes the user data endpoint body.
func DecodeUserData(data []byte) (types.UserData, error) {
	var wire UserDataWire
	if err := decodeInto("user data", data, &wire); err != nil {
		return types.UserData{}, err //nolint:exhaustruct // zero value on error
	}

	return types.UserData(wire), nil
}

// DecodeTickerStart decodes the ticker start response. A status of "error" is
// returned as an ErrCodeServerReported error carrying the server message.
func DecodeTickerStart(data []byte) (TickerStartResult, error) {
	var wire TickerStartWire
	if err := decodeInto("ticker start", data, &wire); err != nil {
		return TickerStartResult{}, err //nolint:exhaustruct // zero value on error
	}

	if wire.Status == "error" {
		msg := wire.Message
		if msg == "" {
			msg = "feed failed to start"
		}

		return TickerStartResult{Started: false, Message: msg}, errors.New(errors.ErrCodeServerReported, msg)
	}

	return TickerStartResult{Started: true, Message: wire.Message}, nil
}

// DecodeServerError decodes the payload of an error event.
func DecodeServerError(data []byte) (ServerError, error) {
	var wire ServerErrorWire
	if err := decodeInto("error event", data, &wire); err != nil {
		return ServerError{}, err //nolint:exhaustruct // zero value on error
	}

	return ServerError{
		Resource:      types.ResourceKind(wire.Resource),
		InstrumentKey: strings.TrimSpace(wire.InstrumentKey),
		Message:       wire.Message,
	}, nil
}

// DecodeWarning decodes the payload of a warning event and returns its message.
func DecodeWarning(data []byte) (string, error) {
	var wire WarningWire
	if err := decodeInto("warning event", data, &wire); err != nil {
		return "", err
	}

	return wire.Message, nil
}

// DecodeUnauthorized decodes the payload of an unauthorized event. The payload is optional.
func DecodeUnauthorized(data []byte) string {
	var wire UnauthorizedWire
	if len(data) == 0 || json.Unmarshal(data, &wire) != nil || wire.Reason == "" {
		return "session is no longer authorized"
	}

	return wire.Reason
}

// DecodeHello decodes the payload of the hello event and returns the server version.
func DecodeHello(data []byte) (string, error) {
	var wire HelloWire
	if err := decodeInto("hello event", data, &wire); err != nil {
		return "", err
	}

	return wire.ServerVersion, nil
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}

	return *d
}
