package desadv

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type demoOrder struct {
	number, warehouse, amount string
}

var demoOrders = map[string][]demoOrder{
	"auchan": {
		{"03385063", "PFI VENDENHEIM", "5432.70"},
		{"03311038", "APPRO PFI LE COUDRAY", "3406.81"},
		{"03201385", "APPRO PFI IDF CHILLY", "893.07"},
	},
	"edi1": {
		{"100001", "ENTREPOT CSD produits frais", "700.00"},
		{"100002", "ENTREPOT CSD produits frais", "500.00"},
		{"100010", "ETABLISSEMENT DOLE", "900.00"},
		{"100020", "ITM LUXEMONT-ET-VILLOTTE", "860.00"},
	},
}

// SimulatedFetcher serves a fixed demo order list dated on the requested day.
type SimulatedFetcher struct {
	portal Portal
}

// NewSimulatedFetcher returns the demo fetcher for portal.
func NewSimulatedFetcher(portal Portal) *SimulatedFetcher {
	return &SimulatedFetcher{portal: portal}
}

func (f *SimulatedFetcher) Code() string { return f.portal.Code }
func (f *SimulatedFetcher) Name() string { return f.portal.Name + " (démo)" }

func (f *SimulatedFetcher) FetchOrders(ctx context.Context, day time.Time) ([]PortalOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []PortalOrder
	for _, d := range demoOrders[f.portal.Code] {
		o := PortalOrder{
			Number:       d.number,
			Warehouse:    d.warehouse,
			DeliveryDate: day,
			Amount:       decimal.RequireFromString(d.amount),
		}
		if f.portal.accepts(o) {
			out = append(out, o)
		}
	}
	return out, nil
}
