package app

import (
	"time"

	"desathor/internal/core"
	"desathor/internal/desadv"

	"github.com/shopspring/decimal"
)

// UserSession is returned by AuthenticateUser and Session.
type UserSession struct {
	SessionID string    `json:"session_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	WebAccess bool      `json:"web_access"`
	StartedAt time.Time `json:"started_at"`
}

// OrderView is one order's reconciled table with its headline figures.
type OrderView struct {
	Summary core.OrderSummary    `json:"summary"`
	Rows    []core.ReconciledRow `json:"rows"`
}

// RunResult is returned by RunComparison, LatestRun and GetRun.
type RunResult struct {
	ID            string                   `json:"id"`
	CreatedAt     time.Time                `json:"created_at"`
	HideUnmatched bool                     `json:"hide_unmatched"`
	OrderFiles    []string                 `json:"order_files"`
	DeliveryFiles []string                 `json:"delivery_files"`
	Orders        []OrderView              `json:"orders"`
	HiddenOrders  []string                 `json:"hidden_orders"`
	Total         core.OrderSummary        `json:"total"`
	Unmatched     []core.UnmatchedDelivery `json:"unmatched_deliveries"`
	Warnings      []core.Warning           `json:"warnings"`
	Files         []core.FileStats         `json:"files"`
}

// RunSummary is one history entry.
type RunSummary struct {
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	OrderFiles    []string        `json:"order_files"`
	DeliveryFiles []string        `json:"delivery_files"`
	Orders        int             `json:"orders"`
	ServiceRate   decimal.Decimal `json:"service_rate"`
	Warnings      int             `json:"warnings"`
}

// HistoryResult is returned by History.
type HistoryResult struct {
	Runs   []RunSummary   `json:"runs"`
	DESADV *desadv.Report `json:"desadv,omitempty"`
}
