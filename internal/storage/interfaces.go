package storage

import (
	"context"
	"errors"
	"io"

	"github.com/aman-zulfiqar/enso-go/internal/models"
	"github.com/aman-zulfiqar/enso-go/pkg/enso"
	"github.com/ethereum/go-ethereum/common"
)

// ErrCacheMiss is returned by PriceCache.GetPrice when no fresh entry exists.
var ErrCacheMiss = errors.New("cache miss")

// PriceCache holds recently fetched token prices
type PriceCache interface {
	// GetPrice returns the cached price or ErrCacheMiss
	GetPrice(ctx context.Context, chainID uint64, address common.Address) (*enso.PriceData, error)

	// SetPrice stores a price under its chain and address
	SetPrice(ctx context.Context, chainID uint64, price *enso.PriceData) error

	Ping(ctx context.Context) error
	io.Closer
}

// QuotePublisher fans quote records out to subscribers
type QuotePublisher interface {
	PublishQuote(ctx context.Context, quote *models.QuoteRecord) error
}

// QuoteStore persists quote records
type QuoteStore interface {
	// InsertQuote appends a quote record to the journal
	InsertQuote(ctx context.Context, quote *models.QuoteRecord) error

	Ping(ctx context.Context) error
	io.Closer
}

// QuoteHandler processes quote records received from the feed
type QuoteHandler func(*models.QuoteRecord)
