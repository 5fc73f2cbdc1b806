package desadv

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultThreshold is the minimum warehouse total that makes a DESADV worth sending.
var DefaultThreshold = decimal.NewFromInt(850)

// Outcome is the per-portal verdict of a check.
type Outcome string

const (
	OutcomeDue         Outcome = "DUE"
	OutcomeNothingDue  Outcome = "NOTHING_DUE"
	OutcomeFetchFailed Outcome = "FETCH_FAILED"
)

// WarehouseGroup totals one warehouse's orders for the day.
type WarehouseGroup struct {
	Warehouse string          `json:"entrepot"`
	Total     decimal.Decimal `json:"montant_total"`
	Orders    []string        `json:"commandes"`
}

// PortalResult is what one portal contributed to a check.
type PortalResult struct {
	Code    string           `json:"code"`
	Name    string           `json:"name"`
	Outcome Outcome          `json:"outcome"`
	Groups  []WarehouseGroup `json:"groups"`
	Error   string           `json:"error,omitempty"`
}

// Report is the result of one DESADV check.
type Report struct {
	Day       time.Time       `json:"day"`
	CheckedAt time.Time       `json:"checked_at"`
	Threshold decimal.Decimal `json:"threshold"`
	Portals   []PortalResult  `json:"portals"`
}

// Checker queries every registered portal concurrently.
type Checker struct {
	registry  *Registry
	threshold decimal.Decimal
	logger    *logrus.Logger
	now       func() time.Time
}

// NewChecker builds a checker. A non-positive threshold falls back to DefaultThreshold.
func NewChecker(registry *Registry, threshold decimal.Decimal, logger *logrus.Logger) *Checker {
	if !threshold.IsPositive() {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Checker{registry: registry, threshold: threshold, logger: logger, now: time.Now}
}

// Check fetches all portals for day (tomorrow when zero). A failing portal is
// reported as FETCH_FAILED and never hides the others' results.
func (c *Checker) Check(ctx context.Context, day time.Time) *Report {
	now := c.now()
	if day.IsZero() {
		day = Tomorrow(now)
	}
	fetchers := c.registry.List()
	results := make([]PortalResult, len(fetchers))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range fetchers {
		i, f := i, f
		g.Go(func() error {
			results[i] = c.checkOne(gctx, f, day)
			return nil
		})
	}
	_ = g.Wait()

	return &Report{Day: day, CheckedAt: now, Threshold: c.threshold, Portals: results}
}

func (c *Checker) checkOne(ctx context.Context, f Fetcher, day time.Time) PortalResult {
	res := PortalResult{Code: f.Code(), Name: f.Name()}
	orders, err := f.FetchOrders(ctx, day)
	if err != nil {
		c.logger.WithFields(logrus.Fields{"module": "desadv", "portal": f.Code()}).WithError(err).Warn("portal fetch failed")
		res.Outcome = OutcomeFetchFailed
		res.Error = err.Error()
		return res
	}
	res.Groups = GroupByWarehouse(orders, day, c.threshold)
	if len(res.Groups) == 0 {
		res.Outcome = OutcomeNothingDue
	} else {
		res.Outcome = OutcomeDue
	}
	return res
}

// GroupByWarehouse keeps orders delivering on day, sums them per warehouse and
// returns the groups reaching threshold, largest first.
func GroupByWarehouse(orders []PortalOrder, day time.Time, threshold decimal.Decimal) []WarehouseGroup {
	byName := make(map[string]*WarehouseGroup)
	var order []string
	for _, o := range orders {
		if !SameDay(day, o.DeliveryDate) {
			continue
		}
		g, ok := byName[o.Warehouse]
		if !ok {
			g = &WarehouseGroup{Warehouse: o.Warehouse, Total: decimal.Zero}
			byName[o.Warehouse] = g
			order = append(order, o.Warehouse)
		}
		g.Total = g.Total.Add(o.Amount)
		g.Orders = append(g.Orders, o.Number)
	}

	out := make([]WarehouseGroup, 0, len(order))
	for _, name := range order {
		if g := byName[name]; g.Total.GreaterThanOrEqual(threshold) {
			out = append(out, *g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total.GreaterThan(out[j].Total) })
	return out
}
