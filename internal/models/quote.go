package models

import (
	"strings"
	"time"

	"github.com/aman-zulfiqar/enso-go/pkg/enso"
)

// QuoteKind names the endpoint a quote was produced by.
type QuoteKind string

const (
	QuoteKindRoute        QuoteKind = "route"
	QuoteKindNonTokenized QuoteKind = "nontokenized"
	QuoteKindBundle       QuoteKind = "bundle"
)

// QuoteRecord is the gateway's summary of one successful route or bundle
// response. It is published on the quote feed and appended to the journal.
type QuoteRecord struct {
	Kind        QuoteKind `json:"kind"`
	ChainID     uint64    `json:"chain_id"`
	FromAddress string    `json:"from_address"`
	ActionCount int       `json:"action_count"`
	Gas         string    `json:"gas"`
	AmountOut   string    `json:"amount_out"`
	CreatedAt   int64     `json:"created_at"` // block number reported by the API
	RequestedAt time.Time `json:"requested_at"`
}

func NewRouteQuote(kind QuoteKind, chainID uint64, from string, route *enso.RouteData, at time.Time) *QuoteRecord {
	return &QuoteRecord{
		Kind:        kind,
		ChainID:     chainID,
		FromAddress: strings.ToLower(from),
		ActionCount: len(route.Route),
		Gas:         string(route.Gas),
		AmountOut:   string(route.AmountOut),
		CreatedAt:   route.CreatedAt,
		RequestedAt: at.UTC(),
	}
}

// NewBundleQuote summarises a bundle. AmountOut is left empty when the bundle
// produced several outputs.
func NewBundleQuote(chainID uint64, from string, actions int, bundle *enso.BundleData, at time.Time) *QuoteRecord {
	rec := &QuoteRecord{
		Kind:        QuoteKindBundle,
		ChainID:     chainID,
		FromAddress: strings.ToLower(from),
		ActionCount: actions,
		Gas:         string(bundle.Gas),
		CreatedAt:   bundle.CreatedAt,
		RequestedAt: at.UTC(),
	}
	if len(bundle.AmountsOut) == 1 {
		for _, v := range bundle.AmountsOut {
			rec.AmountOut = string(v)
		}
	}
	return rec
}
