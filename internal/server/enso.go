package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aman-zulfiqar/enso-go/internal/models"
	"github.com/aman-zulfiqar/enso-go/internal/storage"
	"github.com/aman-zulfiqar/enso-go/pkg/enso"
	"github.com/labstack/echo/v4"
)

// upstreamTimeout covers the client's full retry budget (1s+2s+4s) plus the
// requests themselves.
const upstreamTimeout = 60 * time.Second

// Route proxies GET /shortcuts/route.
func (h *Handlers) Route(c echo.Context) error {
	var (
		p   enso.RouteParams
		err error
	)
	if p.ChainID, err = queryChainID(c, "chainId", true); err != nil {
		return h.badParam(c, err)
	}
	if p.DestinationChainID, err = queryChainID(c, "destinationChainId", false); err != nil {
		return h.badParam(c, err)
	}
	if p.FromAddress, err = queryAddress(c, "fromAddress", true); err != nil {
		return h.badParam(c, err)
	}
	if p.Receiver, err = queryAddress(c, "receiver", false); err != nil {
		return h.badParam(c, err)
	}
	if p.Spender, err = queryAddress(c, "spender", false); err != nil {
		return h.badParam(c, err)
	}
	if p.TokenIn, err = queryAddresses(c, "tokenIn", true); err != nil {
		return h.badParam(c, err)
	}
	if p.TokenOut, err = queryAddresses(c, "tokenOut", true); err != nil {
		return h.badParam(c, err)
	}
	if p.AmountIn, err = queryAmounts(c, "amountIn", true); err != nil {
		return h.badParam(c, err)
	}
	if len(p.AmountIn) != len(p.TokenIn) {
		return h.badParam(c, invalid("amountIn", "must have one entry per tokenIn"))
	}
	if p.MinAmountOut, err = queryAmounts(c, "minAmountOut", false); err != nil {
		return h.badParam(c, err)
	}
	if p.Slippage, err = queryBps(c, "slippage"); err != nil {
		return h.badParam(c, err)
	}
	if p.Slippage != "" && len(p.MinAmountOut) > 0 {
		return h.badParam(c, invalid("slippage", "cannot be combined with minAmountOut"))
	}
	if p.RoutingStrategy, err = queryStrategy(c); err != nil {
		return h.badParam(c, err)
	}
	if p.FeeReceiver, err = queryAddress(c, "feeReceiver", false); err != nil {
		return h.badParam(c, err)
	}
	p.Fee = splitCSVQuery(c.QueryParams()["fee"])
	p.IgnoreAggregators = splitCSVQuery(c.QueryParams()["ignoreAggregators"])
	p.IgnoreStandards = splitCSVQuery(c.QueryParams()["ignoreStandards"])
	p.ReferralCode = strings.TrimSpace(c.QueryParam("referralCode"))

	ctx, cancel := h.withTimeout(c.Request().Context(), upstreamTimeout)
	defer cancel()

	out, err := h.Enso.GetRouteData(ctx, p)
	if err != nil {
		return h.upstream(c, "enso route failed", err)
	}
	h.recordQuote(ctx, models.NewRouteQuote(models.QuoteKindRoute, p.ChainID, p.FromAddress.Hex(), out, time.Now()))
	return c.JSON(http.StatusOK, out)
}

// Approve proxies GET /wallet/approve.
func (h *Handlers) Approve(c echo.Context) error {
	var (
		p   enso.ApproveParams
		err error
	)
	if p.ChainID, err = queryChainID(c, "chainId", true); err != nil {
		return h.badParam(c, err)
	}
	if p.FromAddress, err = queryAddress(c, "fromAddress", true); err != nil {
		return h.badParam(c, err)
	}
	if p.TokenAddress, err = queryAddress(c, "tokenAddress", true); err != nil {
		return h.badParam(c, err)
	}
	amounts, err := queryAmounts(c, "amount", true)
	if err != nil {
		return h.badParam(c, err)
	}
	if len(amounts) != 1 {
		return h.badParam(c, invalid("amount", "exactly one amount expected"))
	}
	p.Amount = amounts[0]
	if p.RoutingStrategy, err = queryStrategy(c); err != nil {
		return h.badParam(c, err)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), upstreamTimeout)
	defer cancel()

	out, err := h.Enso.GetApprovalData(ctx, p)
	if err != nil {
		return h.upstream(c, "enso approve failed", err)
	}
	return c.JSON(http.StatusOK, out)
}

// Bundle proxies POST /shortcuts/bundle. The body is the JSON action array.
func (h *Handlers) Bundle(c echo.Context) error {
	var (
		p   enso.BundleParams
		err error
	)
	if p.ChainID, err = queryChainID(c, "chainId", true); err != nil {
		return h.badParam(c, err)
	}
	if p.FromAddress, err = queryAddress(c, "fromAddress", true); err != nil {
		return h.badParam(c, err)
	}
	if p.Receiver, err = queryAddress(c, "receiver", false); err != nil {
		return h.badParam(c, err)
	}
	if p.Spender, err = queryAddress(c, "spender", false); err != nil {
		return h.badParam(c, err)
	}
	if p.RoutingStrategy, err = queryStrategy(c); err != nil {
		return h.badParam(c, err)
	}
	p.ReferralCode = strings.TrimSpace(c.QueryParam("referralCode"))

	var actions []enso.Action
	if err := json.NewDecoder(c.Request().Body).Decode(&actions); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", map[string]any{"err": err.Error()})
	}
	if err := enso.ValidateBundle(actions); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid bundle", map[string]any{"err": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), upstreamTimeout)
	defer cancel()

	out, err := h.Enso.GetBundleData(ctx, p, actions)
	if err != nil {
		return h.upstream(c, "enso bundle failed", err)
	}
	h.recordQuote(ctx, models.NewBundleQuote(p.ChainID, p.FromAddress.Hex(), len(actions), out, time.Now()))
	return c.JSON(http.StatusOK, out)
}

// Balances proxies GET /wallet/balances.
func (h *Handlers) Balances(c echo.Context) error {
	var (
		p   enso.BalanceParams
		err error
	)
	if p.ChainID, err = queryChainID(c, "chainId", true); err != nil {
		return h.badParam(c, err)
	}
	if p.EoaAddress, err = queryAddress(c, "eoaAddress", true); err != nil {
		return h.badParam(c, err)
	}
	if p.UseEoa, err = queryBool(c, "useEoa"); err != nil {
		return h.badParam(c, err)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), upstreamTimeout)
	defer cancel()

	out, err := h.Enso.GetBalances(ctx, p)
	if err != nil {
		return h.upstream(c, "enso balances failed", err)
	}
	return c.JSON(http.StatusOK, out)
}

// Tokens proxies GET /tokens.
func (h *Handlers) Tokens(c echo.Context) error {
	var (
		p   enso.TokenParams
		err error
	)
	if p.ChainID, err = queryChainID(c, "chainId", false); err != nil {
		return h.badParam(c, err)
	}
	p.Project = strings.TrimSpace(c.QueryParam("project"))
	p.ProtocolSlug = strings.TrimSpace(c.QueryParam("protocolSlug"))
	switch t := enso.TokenType(strings.TrimSpace(c.QueryParam("type"))); t {
	case "", enso.TokenTypeDefi, enso.TokenTypeBase:
		p.Type = t
	default:
		return h.badParam(c, invalid("type", "must be defi or base"))
	}
	if p.Address, err = queryAddresses(c, "address", false); err != nil {
		return h.badParam(c, err)
	}
	if p.UnderlyingTokens, err = queryAddresses(c, "underlyingTokens", false); err != nil {
		return h.badParam(c, err)
	}
	if p.UnderlyingTokensExact, err = queryAddresses(c, "underlyingTokensExact", false); err != nil {
		return h.badParam(c, err)
	}
	if p.PrimaryAddress, err = queryAddresses(c, "primaryAddress", false); err != nil {
		return h.badParam(c, err)
	}
	page, err := queryInt(c, "page")
	if err != nil {
		return h.badParam(c, err)
	}
	if page != nil {
		p.Page = *page
	}
	if p.Cursor, err = queryInt(c, "cursor"); err != nil {
		return h.badParam(c, err)
	}
	if p.IncludeMetadata, err = queryBool(c, "includeMetadata"); err != nil {
		return h.badParam(c, err)
	}
	for field, dst := range map[string]**float64{
		"apyFrom": &p.ApyFrom, "apyTo": &p.ApyTo, "tvlFrom": &p.TvlFrom, "tvlTo": &p.TvlTo,
	} {
		if *dst, err = queryFloat(c, field); err != nil {
			return h.badParam(c, err)
		}
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), upstreamTimeout)
	defer cancel()

	out, err := h.Enso.GetTokenData(ctx, p)
	if err != nil {
		return h.upstream(c, "enso tokens failed", err)
	}
	return c.JSON(http.StatusOK, out)
}

// Price returns one token price, reading through the Redis cache when configured.
func (h *Handlers) Price(c echo.Context) error {
	chainID, err := parseChainID("chainId", c.Param("chainId"), true)
	if err != nil {
		return h.badParam(c, err)
	}
	address, err := parseAddress("address", c.Param("address"), true)
	if err != nil {
		return h.badParam(c, err)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), upstreamTimeout)
	defer cancel()

	if h.Prices != nil {
		cached, err := h.Prices.GetPrice(ctx, chainID, address)
		if err == nil {
			c.Response().Header().Set("X-Cache", "HIT")
			return c.JSON(http.StatusOK, cached)
		}
		if !errors.Is(err, storage.ErrCacheMiss) {
			h.log().WithError(err).Warn("price cache read failed")
		}
	}

	out, err := h.Enso.GetPriceData(ctx, enso.PriceParams{ChainID: chainID, Address: address})
	if err != nil {
		return h.upstream(c, "enso price failed", err)
	}
	if h.Prices != nil {
		if err := h.Prices.SetPrice(ctx, chainID, out); err != nil {
			h.log().WithError(err).Warn("price cache write failed")
		}
		c.Response().Header().Set("X-Cache", "MISS")
	}
	return c.JSON(http.StatusOK, out)
}

// MultiPrices returns prices for the comma separated addresses query parameter.
func (h *Handlers) MultiPrices(c echo.Context) error {
	chainID, err := parseChainID("chainId", c.Param("chainId"), true)
	if err != nil {
		return h.badParam(c, err)
	}
	addresses, err := queryAddresses(c, "addresses", true)
	if err != nil {
		return h.badParam(c, err)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), upstreamTimeout)
	defer cancel()

	out, err := h.Enso.GetMultiplePriceData(ctx, enso.MultiPriceParams{ChainID: chainID, Addresses: addresses})
	if err != nil {
		return h.upstream(c, "enso prices failed", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handlers) Protocols(c echo.Context) error {
	chainID, err := queryChainID(c, "chainId", false)
	if err != nil {
		return h.badParam(c, err)
	}
	slug := strings.TrimSpace(c.QueryParam("slug"))

	var p *enso.ProtocolParams
	if chainID != 0 || slug != "" {
		p = &enso.ProtocolParams{ChainID: chainID, Slug: slug}
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), upstreamTimeout)
	defer cancel()

	out, err := h.Enso.GetProtocolData(ctx, p)
	if err != nil {
		return h.upstream(c, "enso protocols failed", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handlers) Networks(c echo.Context) error {
	chainID, err := queryChainID(c, "chainId", false)
	if err != nil {
		return h.badParam(c, err)
	}
	name := strings.TrimSpace(c.QueryParam("name"))

	var p *enso.NetworkParams
	if chainID != 0 || name != "" {
		p = &enso.NetworkParams{ChainID: chainID, Name: name}
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), upstreamTimeout)
	defer cancel()

	out, err := h.Enso.GetNetworks(ctx, p)
	if err != nil {
		return h.upstream(c, "enso networks failed", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handlers) Aggregators(c echo.Context) error {
	chainID, err := queryChainID(c, "chainId", false)
	if err != nil {
		return h.badParam(c, err)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), upstreamTimeout)
	defer cancel()

	out, err := h.Enso.GetAggregators(ctx, chainID)
	if err != nil {
		return h.upstream(c, "enso aggregators failed", err)
	}
	return c.JSON(http.StatusOK, out)
}
