// Package desadv checks the retailer EDI portals for orders whose dispatch advice
// (DESADV) must be sent before tomorrow's delivery.
package desadv

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PortalOrder is one order row listed by a portal.
type PortalOrder struct {
	Number       string          `json:"numero"`
	Warehouse    string          `json:"entrepot"`
	DeliveryDate time.Time       `json:"date_livraison"`
	Amount       decimal.Decimal `json:"montant"`
}

// Fetcher lists the orders of one portal.
type Fetcher interface {
	// Code returns the unique portal code (e.g. "auchan", "edi1").
	Code() string

	// Name returns the human-readable portal name.
	Name() string

	// FetchOrders returns the portal's orders relevant to day. Implementations
	// may return orders for other days; callers filter on DeliveryDate.
	FetchOrders(ctx context.Context, day time.Time) ([]PortalOrder, error)
}

// Portal describes one EDI portal and which of its rows matter.
type Portal struct {
	Code    string
	Name    string
	BaseURL string
	// Accept filters parsed rows; nil keeps everything.
	Accept func(PortalOrder) bool
}

func (p Portal) accepts(o PortalOrder) bool {
	return p.Accept == nil || p.Accept(o)
}

// Edi1Clients are the only EDI1 warehouses we deliver to.
var Edi1Clients = []string{
	"ENTREPOT CSD produits frais",
	"ETABLISSEMENT DOLE",
	"ITM LUXEMONT-ET-VILLOTTE",
}

// AuchanPortal returns the Auchan portal definition rooted at baseURL.
func AuchanPortal(baseURL string) Portal {
	return Portal{
		Code:    "auchan",
		Name:    "Auchan",
		BaseURL: baseURL,
		Accept:  func(o PortalOrder) bool { return !o.Amount.IsNegative() },
	}
}

// Edi1Portal returns the EDI1 portal definition rooted at baseURL.
func Edi1Portal(baseURL string) Portal {
	allowed := make(map[string]bool, len(Edi1Clients))
	for _, c := range Edi1Clients {
		allowed[c] = true
	}
	return Portal{
		Code:    "edi1",
		Name:    "EDI1",
		BaseURL: baseURL,
		Accept:  func(o PortalOrder) bool { return allowed[o.Warehouse] },
	}
}

// Registry holds the fetchers of all configured portals.
type Registry struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[string]Fetcher)}
}

// Register adds a fetcher. Codes must be unique.
func (r *Registry) Register(f Fetcher) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := f.Code()
	if code == "" {
		return fmt.Errorf("fetcher code cannot be empty")
	}
	if _, exists := r.fetchers[code]; exists {
		return fmt.Errorf("fetcher %s is already registered", code)
	}
	r.fetchers[code] = f
	return nil
}

// Get returns a fetcher by code.
func (r *Registry) Get(code string) (Fetcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.fetchers[code]
	if !ok {
		return nil, fmt.Errorf("fetcher %s not found", code)
	}
	return f, nil
}

// List returns all fetchers sorted by code.
func (r *Registry) List() []Fetcher {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Fetcher, 0, len(r.fetchers))
	for _, f := range r.fetchers {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code() < out[j].Code() })
	return out
}

// Mode selects how portals are queried.
type Mode string

const (
	ModeLive      Mode = "live"
	ModeSimulated Mode = "simulated"
)

// Config is what NewDefaultRegistry needs to build the portal fetchers.
type Config struct {
	Mode      Mode
	Username  string
	Password  string
	Timeout   time.Duration
	AuchanURL string
	Edi1URL   string
}

// NewDefaultRegistry registers the Auchan and EDI1 portals in the configured mode.
// Live mode never degrades to simulated data.
func NewDefaultRegistry(cfg Config) (*Registry, error) {
	portals := []Portal{AuchanPortal(cfg.AuchanURL), Edi1Portal(cfg.Edi1URL)}
	reg := NewRegistry()
	for _, p := range portals {
		var f Fetcher
		switch cfg.Mode {
		case ModeLive:
			lf, err := NewLiveFetcher(p, cfg.Username, cfg.Password, cfg.Timeout)
			if err != nil {
				return nil, err
			}
			f = lf
		case ModeSimulated, "":
			f = NewSimulatedFetcher(p)
		default:
			return nil, fmt.Errorf("unknown DESADV mode %q", cfg.Mode)
		}
		if err := reg.Register(f); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// SameDay reports whether a and b fall on the same calendar date in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Tomorrow returns midnight of the day after now, in now's location.
func Tomorrow(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

// DateLayout is the dd/mm/yyyy day format used by the portals and by operators.
const DateLayout = "02/01/2006"

// ParseDay reads a dd/mm/yyyy day at local midnight.
func ParseDay(s string) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("day %q must be dd/mm/yyyy: %w", s, err)
	}
	return day, nil
}
