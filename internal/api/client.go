// Package api is the HTTP client of the backend API consumed by the sync client
// and the session gate.
package api

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-sync/internal/config"
	"github.com/rxtech-lab/argo-sync/internal/logger"
	"github.com/rxtech-lab/argo-sync/internal/payload"
	"github.com/rxtech-lab/argo-sync/internal/types"
	"github.com/rxtech-lab/argo-sync/internal/version"
	"github.com/rxtech-lab/argo-sync/pkg/errors"
	"go.uber.org/zap"
)

// Backend API paths.
const (
	PathUserData        = "/api/user-data"
	PathMarketSnapshot  = "/api/market_snapshot"
	PathLiveTradeStatus = "/api/live_trade/status"
	PathTickerStart     = "/api/ticker/start"
)

// HeaderRequestID carries a per-request correlation ID.
const HeaderRequestID = "X-Request-ID"

// TickerStartRequest is the body of POST /api/ticker/start.
type TickerStartRequest struct {
	Instruments []string `json:"instruments"`
}

// Client talks to the backend API over HTTP.
type Client struct {
	http   *resty.Client
	logger *logger.Logger
}

// NewClient creates a client for the backend configured in cfg.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("User-Agent", version.UserAgent()).
		SetHeader("Accept", "application/json")

	if cfg.AuthToken != "" {
		httpClient.SetAuthToken(cfg.AuthToken)
	}

	return &Client{
		http:   httpClient,
		logger: log.Named("api"),
	}
}

// UserData fetches the session and profile snapshot.
func (c *Client) UserData(ctx context.Context) (types.UserData, error) {
	body, err := c.do(ctx, http.MethodGet, PathUserData, nil)
	if err != nil {
		return types.UserData{}, err //nolint:exhaustruct // zero value on error
	}

	return payload.DecodeUserData(body)
}

// MarketSnapshot fetches the current quote of every tracked instrument.
func (c *Client) MarketSnapshot(ctx context.Context) ([]types.TickerSnapshot, error) {
	body, err := c.do(ctx, http.MethodGet, PathMarketSnapshot, nil)
	if err != nil {
		return nil, err
	}

	return payload.DecodeMarketSnapshot(body)
}

// LiveTradeStatus fetches the full current state of the live deployment.
func (c *Client) LiveTradeStatus(ctx context.Context) (types.DeploymentStatus, error) {
	body, err := c.do(ctx, http.MethodGet, PathLiveTradeStatus, nil)
	if err != nil {
		return types.DeploymentStatus{}, err //nolint:exhaustruct // zero value on error
	}

	return payload.DecodeDeploymentStatus(body)
}

// StartTicker asks the backend to begin streaming ticks for the instruments.
// A response with status "error" is returned as ErrCodeServerReported.
func (c *Client) StartTicker(ctx context.Context, instruments []string) (payload.TickerStartResult, error) {
	body, err := c.do(ctx, http.MethodPost, PathTickerStart, TickerStartRequest{Instruments: instruments})
	if err != nil {
		return payload.TickerStartResult{}, err //nolint:exhaustruct // zero value on error
	}

	return payload.DecodeTickerStart(body)
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	requestID := uuid.NewString()

	req := c.http.R().
		SetContext(ctx).
		SetHeader(HeaderRequestID, requestID)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)

		return nil, errors.Wrapf(errors.ErrCodeTransport, err, "%s %s failed", method, path)
	}

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", resp.Time()),
	)

	return resp.Body(), classifyStatus(method, path, resp.StatusCode())
}

func classifyStatus(method, path string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.Newf(errors.ErrCodeUnauthorized, "%s %s: unauthorized (status %d)", method, path, status)
	default:
		return errors.Newf(errors.ErrCodeFetchFailed, "%s %s: unexpected status %d", method, path, status)
	}
}
