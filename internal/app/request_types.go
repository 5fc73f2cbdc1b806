package app

import "desathor/internal/core"

// CompareRequest is the input for a comparison run.
type CompareRequest struct {
	Orders     []core.Document
	Deliveries []core.Document
	// HideUnmatched leaves out orders that received nothing, in views and exports.
	HideUnmatched bool
}
