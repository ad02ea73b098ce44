package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/enso-go/internal/cache"
	"github.com/aman-zulfiqar/enso-go/internal/config"
	"github.com/aman-zulfiqar/enso-go/internal/flags"
	"github.com/aman-zulfiqar/enso-go/internal/server"
	"github.com/aman-zulfiqar/enso-go/pkg/enso"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main starts the Enso gateway: an HTTP front for the Enso API with optional
// Redis price caching, endpoint switches, a quote feed and a ClickHouse journal.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.WithField("level", cfg.LogLevel).Warn("unknown log level, keeping info")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	client, err := enso.NewClient(cfg.EnsoAPIKey, append(cfg.ClientOptions(), enso.WithLogger(logger))...)
	if err != nil {
		logger.WithError(err).Fatal("failed to create enso client")
	}

	h := &server.Handlers{
		Enso:    client,
		DevMode: cfg.DevMode,
		Logger:  logger,
	}

	// Redis backs the price cache, the quote feed and the endpoint switches
	if cfg.RedisAddr != "" {
		rclient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   0,
		})
		if err := rclient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Fatal("failed to connect to Redis")
		}
		defer func() { _ = rclient.Close() }()

		flagStore, err := flags.NewStore(rclient)
		if err != nil {
			logger.WithError(err).Fatal("failed to create flags store")
		}
		h.Flags = flagStore
		h.Prices = cache.NewRedisCacheFromClient(rclient, cfg.PriceCacheTTL, logger)
		h.Quotes = cache.NewQuoteFeedFromClient(rclient, logger)
		logger.WithField("addr", cfg.RedisAddr).Info("redis enabled")
	} else {
		logger.Info("REDIS_ADDR not set, running without cache, feed and switches")
	}

	if cfg.ClickHouseAddr != "" {
		journal, err := cache.NewQuoteJournal(ctx, cache.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		}, logger)
		if err != nil {
			// the journal is an audit trail, not a dependency of the gateway
			logger.WithError(err).Warn("failed to open quote journal")
		} else {
			h.Journal = journal
			defer func() { _ = journal.Close() }()
		}
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithFields(logrus.Fields{
		"addr":     cfg.APIAddr,
		"upstream": client.BaseURL(),
	}).Info("gateway starting")
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("gateway failed")
	}

	if err := srv.WaitClosed(context.Background()); err != nil {
		logger.WithError(err).Warn("shutdown incomplete")
	}
}
