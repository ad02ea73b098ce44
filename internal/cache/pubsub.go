package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aman-zulfiqar/enso-go/internal/models"
	"github.com/aman-zulfiqar/enso-go/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	ChannelAllQuotes   = "enso:quotes:all"
	chainChannelPrefix = "enso:quotes:chain:"
)

// ChainChannel is the channel carrying quotes for a single chain.
func ChainChannel(chainID uint64) string {
	return fmt.Sprintf("%s%d", chainChannelPrefix, chainID)
}

// ChainChannelPattern matches every per-chain channel.
const ChainChannelPattern = chainChannelPrefix + "*"

// QuoteFeed publishes gateway quotes over Redis Pub/Sub.
type QuoteFeed struct {
	client *redis.Client
	logger *logrus.Logger
}

var _ storage.QuotePublisher = (*QuoteFeed)(nil)

func NewQuoteFeed(addr string, logger *logrus.Logger) *QuoteFeed {
	return NewQuoteFeedFromClient(redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	}), logger)
}

func NewQuoteFeedFromClient(client *redis.Client, logger *logrus.Logger) *QuoteFeed {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &QuoteFeed{client: client, logger: logger}
}

// PublishQuote sends the quote to the global and the per-chain channel.
func (p *QuoteFeed) PublishQuote(ctx context.Context, quote *models.QuoteRecord) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return err
	}

	pipe := p.client.Pipeline()
	pipe.Publish(ctx, ChannelAllQuotes, data)
	pipe.Publish(ctx, ChainChannel(quote.ChainID), data)

	_, err = pipe.Exec(ctx)
	return err
}

// Subscribe delivers quotes from channel until ctx is cancelled.
func (p *QuoteFeed) Subscribe(ctx context.Context, channel string, handler storage.QuoteHandler) error {
	sub := p.client.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	p.logger.WithField("channel", channel).Info("subscribed")

	return p.consume(ctx, sub, handler)
}

// PSubscribe is Subscribe for a channel pattern such as ChainChannelPattern.
func (p *QuoteFeed) PSubscribe(ctx context.Context, pattern string, handler storage.QuoteHandler) error {
	sub := p.client.PSubscribe(ctx, pattern)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("psubscribe %s: %w", pattern, err)
	}
	p.logger.WithField("pattern", pattern).Info("subscribed")

	return p.consume(ctx, sub, handler)
}

func (p *QuoteFeed) consume(ctx context.Context, sub *redis.PubSub, handler storage.QuoteHandler) error {
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var quote models.QuoteRecord
			if err := json.Unmarshal([]byte(msg.Payload), &quote); err != nil {
				p.logger.WithError(err).WithField("channel", msg.Channel).Warn("skipping malformed quote")
				continue
			}
			handler(&quote)
		}
	}
}

func (p *QuoteFeed) Close() error {
	return p.client.Close()
}
