package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aman-zulfiqar/enso-go/internal/flags"
	"github.com/aman-zulfiqar/enso-go/internal/models"
	"github.com/aman-zulfiqar/enso-go/internal/storage"
	"github.com/aman-zulfiqar/enso-go/pkg/enso"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// EnsoAPI is the part of *enso.Client the gateway serves.
type EnsoAPI interface {
	BaseURL() string
	GetRouteData(ctx context.Context, p enso.RouteParams) (*enso.RouteData, error)
	GetApprovalData(ctx context.Context, p enso.ApproveParams) (*enso.ApproveData, error)
	GetBundleData(ctx context.Context, p enso.BundleParams, actions []enso.Action) (*enso.BundleData, error)
	GetBalances(ctx context.Context, p enso.BalanceParams) ([]enso.WalletBalance, error)
	GetTokenData(ctx context.Context, p enso.TokenParams) (*enso.PaginatedTokenData, error)
	GetPriceData(ctx context.Context, p enso.PriceParams) (*enso.PriceData, error)
	GetMultiplePriceData(ctx context.Context, p enso.MultiPriceParams) ([]enso.PriceData, error)
	GetProtocolData(ctx context.Context, p *enso.ProtocolParams) ([]enso.ProtocolData, error)
	GetNetworks(ctx context.Context, p *enso.NetworkParams) ([]enso.ConnectedNetwork, error)
	GetAggregators(ctx context.Context, chainID uint64) ([]string, error)
}

// FlagStore is implemented by *flags.Store.
type FlagStore interface {
	Set(ctx context.Context, key string, enabled bool, reason string) (*flags.Flag, error)
	Get(ctx context.Context, key string) (*flags.Flag, error)
	Enabled(ctx context.Context, key string) (bool, error)
	List(ctx context.Context) ([]*flags.Flag, error)
	Delete(ctx context.Context, key string) error
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Enso    EnsoAPI                // Enso API client
	Prices  storage.PriceCache     // Redis price cache (optional)
	Quotes  storage.QuotePublisher // Redis quote feed (optional)
	Journal storage.QuoteStore     // ClickHouse quote journal (optional)
	Flags   FlagStore              // Redis endpoint switches (optional)
	DevMode bool                   // Enable detailed error responses in development
	Logger  *logrus.Logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// badParam answers 400 for a paramError and 500 for anything else.
func (h *Handlers) badParam(c echo.Context, err error) error {
	var pe *paramError
	if errors.As(err, &pe) {
		resp := ErrorResponse{
			Error:   "invalid " + pe.Field,
			Code:    http.StatusBadRequest,
			Details: map[string]any{pe.Field: pe.Reason},
		}
		return c.JSON(http.StatusBadRequest, resp)
	}
	return h.err(c, http.StatusInternalServerError, "internal server error", map[string]any{"err": err.Error()})
}

func (h *Handlers) upstream(c echo.Context, msg string, err error) error {
	code := upstreamStatus(err)
	h.log().WithError(err).WithFields(logrus.Fields{
		"path":   c.Path(),
		"status": code,
	}).Warn(msg)
	return h.err(c, code, msg, upstreamDetails(err))
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handlers) log() *logrus.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return logrus.StandardLogger()
}

// recordQuote publishes and journals a quote. Failures are logged only; the
// caller has already got its answer from Enso.
func (h *Handlers) recordQuote(ctx context.Context, q *models.QuoteRecord) {
	entry := h.log().WithFields(logrus.Fields{"kind": q.Kind, "chain_id": q.ChainID})
	if h.Quotes != nil {
		if err := h.Quotes.PublishQuote(ctx, q); err != nil {
			entry.WithError(err).Warn("failed to publish quote")
		}
	}
	if h.Journal != nil {
		if err := h.Journal.InsertQuote(ctx, q); err != nil {
			entry.WithError(err).Warn("failed to journal quote")
		}
	}
}

// Health reports the gateway and its optional backends
func (h *Handlers) Health(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{OK: true, Upstream: h.Enso.BaseURL()}
	if h.Prices != nil {
		resp.Cache = pingStatus(ctx, h.Prices.Ping)
	}
	if h.Journal != nil {
		resp.Journal = pingStatus(ctx, h.Journal.Ping)
	}
	return c.JSON(http.StatusOK, resp)
}

func pingStatus(ctx context.Context, ping func(context.Context) error) string {
	if err := ping(ctx); err != nil {
		return "down"
	}
	return "ok"
}

// RequireEnabled rejects requests with 503 while the endpoint's switch is
// stored as disabled. Lookup failures let the request through.
func (h *Handlers) RequireEnabled(endpoint string) echo.MiddlewareFunc {
	key := flags.EndpointKey(endpoint)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if h.Flags == nil {
				return next(c)
			}

			ctx, cancel := h.withTimeout(c.Request().Context(), 2*time.Second)
			on, err := h.Flags.Enabled(ctx, key)
			cancel()
			if err != nil {
				h.log().WithError(err).WithField("switch", key).Warn("switch lookup failed")
				return next(c)
			}
			if !on {
				return h.err(c, http.StatusServiceUnavailable, "endpoint disabled", map[string]any{"switch": key})
			}
			return next(c)
		}
	}
}

// FlagsSet creates or replaces an endpoint switch
func (h *Handlers) FlagsSet(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusBadRequest, "flags are not configured", nil)
	}
	var req FlagSetRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := flags.ValidateKey(req.Key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Set(ctx, req.Key, req.Enabled, strings.TrimSpace(req.Reason))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to set flag", nil)
	}
	h.log().WithFields(logrus.Fields{"switch": out.Key, "enabled": out.Enabled}).Info("switch updated")
	return c.JSON(http.StatusOK, out)
}

// FlagsUpdate updates the switch named in the path
func (h *Handlers) FlagsUpdate(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusBadRequest, "flags are not configured", nil)
	}
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}
	var req FlagUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Set(ctx, key, req.Enabled, strings.TrimSpace(req.Reason))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to update flag", nil)
	}
	h.log().WithFields(logrus.Fields{"switch": out.Key, "enabled": out.Enabled}).Info("switch updated")
	return c.JSON(http.StatusOK, out)
}

// FlagsGet retrieves a switch by its key
func (h *Handlers) FlagsGet(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusBadRequest, "flags are not configured", nil)
	}
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Get(ctx, key)
	if err != nil {
		if errors.Is(err, flags.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "flag not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handlers) FlagsList(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusBadRequest, "flags are not configured", nil)
	}
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Flags.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list flags", nil)
	}
	return c.JSON(http.StatusOK, ItemsResponse{Items: items})
}

// FlagsDelete removes a switch, re-enabling its endpoint
func (h *Handlers) FlagsDelete(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusBadRequest, "flags are not configured", nil)
	}
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Flags.Delete(ctx, key); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete flag", nil)
	}
	return c.NoContent(http.StatusNoContent)
}
