package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeploymentState is the lifecycle status of a live strategy deployment.
type DeploymentState string

const (
	DeploymentScheduled DeploymentState = "scheduled"
	DeploymentActive    DeploymentState = "active"
	DeploymentPaused    DeploymentState = "paused"
	DeploymentStopped   DeploymentState = "stopped"
	DeploymentError     DeploymentState = "error"
)

// DeploymentOrder is an order reported by the backend for a live deployment.
type DeploymentOrder struct {
	ID        string          `json:"id" yaml:"id"`
	Symbol    string          `json:"symbol" yaml:"symbol"`
	Side      string          `json:"side" yaml:"side"`
	Quantity  decimal.Decimal `json:"quantity" yaml:"quantity"`
	Price     decimal.Decimal `json:"price" yaml:"price"`
	Status    string          `json:"status" yaml:"status"`
	Timestamp time.Time       `json:"timestamp" yaml:"timestamp"`
}

// DeploymentPosition is an open position reported by the backend for a live deployment.
type DeploymentPosition struct {
	Symbol    string          `json:"symbol" yaml:"symbol"`
	Quantity  decimal.Decimal `json:"quantity" yaml:"quantity"`
	AvgPrice  decimal.Decimal `json:"avg_price" yaml:"avg_price"`
	LastPrice decimal.Decimal `json:"last_price" yaml:"last_price"`
	Pnl       decimal.Decimal `json:"pnl" yaml:"pnl"`
}

// DeploymentStatus is the full current state of a live deployment.
// The server is the sole source of truth: it is replaced wholesale on every
// accepted update and the client never derives deltas from it.
type DeploymentStatus struct {
	ID                 string               `json:"id" yaml:"id"`
	Status             DeploymentState      `json:"status" yaml:"status"`
	Phase              string               `json:"phase" yaml:"phase"`
	LastCheckTimestamp time.Time            `json:"last_check_timestamp" yaml:"last_check_timestamp"`
	Orders             []DeploymentOrder    `json:"orders" yaml:"orders"`
	Positions          []DeploymentPosition `json:"positions" yaml:"positions"`
	Pnl                decimal.Decimal      `json:"pnl" yaml:"pnl"`
}

// Summary renders a one-line display text for the deployment.
func (d DeploymentStatus) Summary() string {
	if d.Phase == "" {
		return string(d.Status)
	}

	return string(d.Status) + " (" + d.Phase + ")"
}
