// cmd/subscriber prints the quotes the gateway publishes on Redis.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/enso-go/internal/cache"
	"github.com/aman-zulfiqar/enso-go/internal/models"
)

func main() {
	chainID := flag.Uint64("chain", 0, "only print quotes for this chain (0 = all chains)")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	_ = godotenv.Load()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	feed := cache.NewQuoteFeed(addr, logger)
	defer func() { _ = feed.Close() }()

	printQuote := func(q *models.QuoteRecord) {
		logger.WithFields(logrus.Fields{
			"kind":       q.Kind,
			"chain_id":   q.ChainID,
			"from":       q.FromAddress,
			"actions":    q.ActionCount,
			"gas":        q.Gas,
			"amount_out": q.AmountOut,
			"block":      q.CreatedAt,
		}).Info("quote")
	}

	var wg sync.WaitGroup
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				logger.WithError(err).WithField("sub", name).Error("subscription ended")
				cancel()
			}
		}()
	}

	if *chainID != 0 {
		channel := cache.ChainChannel(*chainID)
		run(channel, func() error { return feed.Subscribe(ctx, channel, printQuote) })
	} else {
		run(cache.ChannelAllQuotes, func() error { return feed.Subscribe(ctx, cache.ChannelAllQuotes, printQuote) })
		// per-chain counters from the pattern subscription
		counts := map[uint64]int{}
		var mu sync.Mutex
		run(cache.ChainChannelPattern, func() error {
			return feed.PSubscribe(ctx, cache.ChainChannelPattern, func(q *models.QuoteRecord) {
				mu.Lock()
				counts[q.ChainID]++
				n := counts[q.ChainID]
				mu.Unlock()
				logger.WithFields(logrus.Fields{"chain_id": q.ChainID, "seen": n}).Debug("chain quote")
			})
		})
	}

	logger.WithField("redis", addr).Info("subscriber running, press Ctrl+C to stop")
	<-ctx.Done()
	wg.Wait()
	logger.Info("subscriber stopped")
}
