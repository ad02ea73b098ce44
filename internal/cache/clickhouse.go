package cache

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/aman-zulfiqar/enso-go/internal/models"
	"github.com/aman-zulfiqar/enso-go/internal/storage"
	"github.com/sirupsen/logrus"
)

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// QuoteJournal appends gateway quotes to the enso_quotes table.
type QuoteJournal struct {
	conn driver.Conn
}

var _ storage.QuoteStore = (*QuoteJournal)(nil)

const createQuotesTable = `
	CREATE TABLE IF NOT EXISTS enso_quotes (
		kind         LowCardinality(String),
		chain_id     UInt64,
		from_address String,
		action_count UInt32,
		gas          String,
		amount_out   String,
		created_at   Int64,
		requested_at DateTime64(3, 'UTC')
	) ENGINE = MergeTree
	ORDER BY (chain_id, requested_at)
`

func NewQuoteJournal(ctx context.Context, cfg ClickHouseConfig, logger *logrus.Logger) (*QuoteJournal, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	if err := conn.Exec(ctx, createQuotesTable); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create enso_quotes: %w", err)
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{"addr": cfg.Addr, "database": cfg.Database}).Info("connected to ClickHouse")
	}

	return &QuoteJournal{conn: conn}, nil
}

func (q *QuoteJournal) InsertQuote(ctx context.Context, quote *models.QuoteRecord) error {
	query := `
		INSERT INTO enso_quotes (
			kind, chain_id, from_address, action_count,
			gas, amount_out, created_at, requested_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := q.conn.Exec(ctx, query,
		string(quote.Kind),
		quote.ChainID,
		quote.FromAddress,
		uint32(quote.ActionCount),
		quote.Gas,
		quote.AmountOut,
		quote.CreatedAt,
		quote.RequestedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}

	return nil
}

func (q *QuoteJournal) Ping(ctx context.Context) error {
	return q.conn.Ping(ctx)
}

func (q *QuoteJournal) Close() error {
	return q.conn.Close()
}
