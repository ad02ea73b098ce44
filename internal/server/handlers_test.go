package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/enso-go/internal/flags"
	"github.com/aman-zulfiqar/enso-go/internal/models"
	"github.com/aman-zulfiqar/enso-go/internal/storage"
	"github.com/aman-zulfiqar/enso-go/pkg/enso"
)

var (
	usdc   = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	weth   = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	wallet = common.HexToAddress("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045")
)

type fakeEnso struct {
	mu sync.Mutex

	route      *enso.RouteParams
	bundle     []enso.Action
	priceCalls int
	err        error
}

func (f *fakeEnso) BaseURL() string { return "https://api.enso.finance/api/v1" }

func (f *fakeEnso) GetRouteData(_ context.Context, p enso.RouteParams) (*enso.RouteData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.route = &p
	if f.err != nil {
		return nil, f.err
	}
	return &enso.RouteData{Gas: "210000", AmountOut: "1000", CreatedAt: 19000000, Tx: enso.Transaction{To: wallet, From: wallet, Value: "0"}}, nil
}

func (f *fakeEnso) GetApprovalData(_ context.Context, p enso.ApproveParams) (*enso.ApproveData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &enso.ApproveData{Amount: enso.Quantity(p.Amount), Token: p.TokenAddress, Gas: "50000"}, nil
}

func (f *fakeEnso) GetBundleData(_ context.Context, _ enso.BundleParams, actions []enso.Action) (*enso.BundleData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bundle = actions
	if f.err != nil {
		return nil, f.err
	}
	return &enso.BundleData{Bundle: actions, Gas: "300000", AmountsOut: map[string]enso.Quantity{strings.ToLower(weth.Hex()): "42"}}, nil
}

func (f *fakeEnso) GetBalances(context.Context, enso.BalanceParams) ([]enso.WalletBalance, error) {
	return []enso.WalletBalance{{Token: usdc, Amount: "5", Decimals: 6}}, f.err
}

func (f *fakeEnso) GetTokenData(_ context.Context, p enso.TokenParams) (*enso.PaginatedTokenData, error) {
	return &enso.PaginatedTokenData{Meta: enso.PaginationMeta{CurrentPage: p.Page}}, f.err
}

func (f *fakeEnso) GetPriceData(_ context.Context, p enso.PriceParams) (*enso.PriceData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &enso.PriceData{Address: p.Address, ChainID: p.ChainID, Price: "1.0001", Decimals: 6, Symbol: "USDC"}, nil
}

func (f *fakeEnso) GetMultiplePriceData(_ context.Context, p enso.MultiPriceParams) ([]enso.PriceData, error) {
	out := make([]enso.PriceData, 0, len(p.Addresses))
	for _, a := range p.Addresses {
		out = append(out, enso.PriceData{Address: a, ChainID: p.ChainID})
	}
	return out, f.err
}

func (f *fakeEnso) GetProtocolData(context.Context, *enso.ProtocolParams) ([]enso.ProtocolData, error) {
	return []enso.ProtocolData{{Slug: "aave-v3"}}, f.err
}

func (f *fakeEnso) GetNetworks(context.Context, *enso.NetworkParams) ([]enso.ConnectedNetwork, error) {
	return []enso.ConnectedNetwork{{ID: 1, Name: "mainnet", IsConnected: true}}, f.err
}

func (f *fakeEnso) GetAggregators(context.Context, uint64) ([]string, error) {
	return []string{"1inch", "0x"}, f.err
}

type memFlags struct {
	mu    sync.Mutex
	items map[string]*flags.Flag
}

func newMemFlags() *memFlags { return &memFlags{items: map[string]*flags.Flag{}} }

func (m *memFlags) Set(_ context.Context, key string, enabled bool, reason string) (*flags.Flag, error) {
	if err := flags.ValidateKey(key); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f := &flags.Flag{Key: key, Enabled: enabled, Reason: reason, UpdatedAt: time.Now().UTC()}
	m.items[key] = f
	return f, nil
}

func (m *memFlags) Get(_ context.Context, key string) (*flags.Flag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.items[key]
	if !ok {
		return nil, flags.ErrNotFound
	}
	return f, nil
}

func (m *memFlags) Enabled(ctx context.Context, key string) (bool, error) {
	f, err := m.Get(ctx, key)
	if errors.Is(err, flags.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return f.Enabled, nil
}

func (m *memFlags) List(context.Context) ([]*flags.Flag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*flags.Flag, 0, len(m.items))
	for _, f := range m.items {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memFlags) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

type memPrices struct {
	mu    sync.Mutex
	items map[string]*enso.PriceData
}

func (m *memPrices) key(chainID uint64, a common.Address) string {
	return fmt.Sprintf("%d:%s", chainID, strings.ToLower(a.Hex()))
}

func (m *memPrices) GetPrice(_ context.Context, chainID uint64, a common.Address) (*enso.PriceData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[m.key(chainID, a)]
	if !ok {
		return nil, storage.ErrCacheMiss
	}
	return p, nil
}

func (m *memPrices) SetPrice(_ context.Context, chainID uint64, p *enso.PriceData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = map[string]*enso.PriceData{}
	}
	m.items[m.key(chainID, p.Address)] = p
	return nil
}

func (m *memPrices) Ping(context.Context) error { return nil }
func (m *memPrices) Close() error               { return nil }

type recordingFeed struct {
	mu     sync.Mutex
	quotes []*models.QuoteRecord
}

func (r *recordingFeed) PublishQuote(_ context.Context, q *models.QuoteRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotes = append(r.quotes, q)
	return nil
}

type testEnv struct {
	srv    *Server
	enso   *fakeEnso
	flags  *memFlags
	prices *memPrices
	feed   *recordingFeed
}

func newTestEnv(t *testing.T, cfg ServerConfig) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env := &testEnv{
		enso:   &fakeEnso{},
		flags:  newMemFlags(),
		prices: &memPrices{},
		feed:   &recordingFeed{},
	}
	h := &Handlers{
		Enso:    env.enso,
		Prices:  env.prices,
		Quotes:  env.feed,
		Flags:   env.flags,
		DevMode: true,
		Logger:  logger,
	}
	srv, err := NewServer(ServerDeps{Handlers: h, Config: cfg})
	require.NoError(t, err)
	env.srv = srv
	return env
}

func (e *testEnv) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.srv.Echo().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	rec := env.do(http.MethodGet, "/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "https://api.enso.finance/api/v1", resp.Upstream)
	assert.Equal(t, "ok", resp.Cache)
	assert.Empty(t, resp.Journal)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestRoute_ParsesQueryAndRecordsQuote(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	target := "/v1/route?chainId=1&fromAddress=" + wallet.Hex() +
		"&tokenIn=" + usdc.Hex() + "&tokenOut=" + weth.Hex() +
		"&amountIn=1000000&slippage=50&routingStrategy=delegate&ignoreAggregators=1inch,0x"
	rec := env.do(http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	p := env.enso.route
	require.NotNil(t, p)
	assert.Equal(t, uint64(1), p.ChainID)
	assert.Equal(t, wallet, p.FromAddress)
	assert.Equal(t, []common.Address{usdc}, p.TokenIn)
	assert.Equal(t, []common.Address{weth}, p.TokenOut)
	assert.Equal(t, []string{"1000000"}, p.AmountIn)
	assert.Equal(t, "50", p.Slippage)
	assert.Equal(t, enso.RoutingDelegate, p.RoutingStrategy)
	assert.Equal(t, []string{"1inch", "0x"}, p.IgnoreAggregators)

	require.Len(t, env.feed.quotes, 1)
	q := env.feed.quotes[0]
	assert.Equal(t, models.QuoteKindRoute, q.Kind)
	assert.Equal(t, "1000", q.AmountOut)
	assert.Equal(t, strings.ToLower(wallet.Hex()), q.FromAddress)
}

func TestRoute_InvalidParams(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	base := "/v1/route?chainId=1&fromAddress=" + wallet.Hex() + "&tokenIn=" + usdc.Hex() + "&tokenOut=" + weth.Hex()

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"missing chain", "/v1/route?fromAddress=" + wallet.Hex(), "chainId"},
		{"zero chain", "/v1/route?chainId=0", "chainId"},
		{"bad address", "/v1/route?chainId=1&fromAddress=0x123", "fromAddress"},
		{"missing amount", base, "amountIn"},
		{"decimal amount", base + "&amountIn=1.5", "amountIn"},
		{"amount count", base + "&amountIn=1,2", "amountIn"},
		{"slippage range", base + "&amountIn=1&slippage=10001", "slippage"},
		{"slippage with min", base + "&amountIn=1&slippage=50&minAmountOut=9", "slippage"},
		{"strategy", base + "&amountIn=1&routingStrategy=teleport", "routingStrategy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, tt.query, "")
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			resp := decodeError(t, rec)
			assert.Equal(t, "invalid "+tt.field, resp.Error)
		})
	}
	assert.Nil(t, env.enso.route, "invalid requests never reach upstream")
}

func TestUpstreamErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"client error passes through", &enso.APIError{StatusCode: http.StatusBadRequest, Message: "bad token"}, http.StatusBadRequest},
		{"rate limited passes through", &enso.APIError{StatusCode: http.StatusTooManyRequests}, http.StatusTooManyRequests},
		{"server error is bad gateway", &enso.APIError{StatusCode: http.StatusInternalServerError}, http.StatusBadGateway},
		{"retries exhausted", enso.ErrMaxRetriesExceeded, http.StatusBadGateway},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, ServerConfig{})
			env.enso.err = tt.err
			rec := env.do(http.MethodGet, "/v1/networks", "")
			assert.Equal(t, tt.code, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, "enso networks failed", resp.Error)
		})
	}

	env := newTestEnv(t, ServerConfig{})
	env.enso.err = &enso.APIError{StatusCode: http.StatusBadRequest, Message: "bad token"}
	rec := env.do(http.MethodGet, "/v1/aggregators", "")
	details := decodeError(t, rec).Details.(map[string]any)
	assert.Equal(t, "bad token", details["upstream_message"])
	assert.EqualValues(t, http.StatusBadRequest, details["upstream_status"])
}

func TestPrice_ReadThroughCache(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	target := "/v1/prices/1/" + usdc.Hex()

	rec := env.do(http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	rec = env.do(http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, 1, env.enso.priceCalls)

	var price enso.PriceData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &price))
	assert.Equal(t, usdc, price.Address)
	assert.Equal(t, enso.Quantity("1.0001"), price.Price)

	rec = env.do(http.MethodGet, "/v1/prices/1/not-an-address", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPrices_Multiple(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	rec := env.do(http.MethodGet, "/v1/prices/1?addresses="+usdc.Hex()+","+weth.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp []enso.PriceData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, weth, resp[1].Address)

	rec = env.do(http.MethodGet, "/v1/prices/1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokens_DefaultsAndValidation(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	rec := env.do(http.MethodGet, "/v1/tokens?chainId=1&type=defi&page=3&apyFrom=1.5", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp enso.PaginatedTokenData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Meta.CurrentPage)

	rec = env.do(http.MethodGet, "/v1/tokens?type=nft", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(http.MethodGet, "/v1/tokens?apyTo=high", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApproveAndBalances(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	rec := env.do(http.MethodGet, "/v1/approve?chainId=1&fromAddress="+wallet.Hex()+"&tokenAddress="+usdc.Hex()+"&amount=1000", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var approve enso.ApproveData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &approve))
	assert.Equal(t, enso.Quantity("1000"), approve.Amount)

	rec = env.do(http.MethodGet, "/v1/approve?chainId=1&fromAddress="+wallet.Hex()+"&tokenAddress="+usdc.Hex()+"&amount=1,2", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/v1/balances?chainId=1&eoaAddress="+wallet.Hex()+"&useEoa=false", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = env.do(http.MethodGet, "/v1/balances?chainId=1&eoaAddress="+wallet.Hex()+"&useEoa=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBundle(t *testing.T) {
	env := newTestEnv(t, ServerConfig{BundleRPS: 100, BundleBurst: 100})
	query := "/v1/bundle?chainId=1&fromAddress=" + wallet.Hex()
	body := `[
		{"protocol":"enso","action":"balance","args":{"token":"` + usdc.Hex() + `"}},
		{"protocol":"enso","action":"route","args":{"tokenIn":"` + usdc.Hex() + `","tokenOut":"` + weth.Hex() + `","amountIn":{"useOutputOfCallAt":0},"receiver":"` + wallet.Hex() + `"}}
	]`

	rec := env.do(http.MethodPost, query, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, env.enso.bundle, 2)
	route, ok := env.enso.bundle[1].Args.(*enso.RouteArgs)
	require.True(t, ok)
	ref, ok := route.AmountIn.Ref()
	require.True(t, ok)
	assert.Equal(t, 0, ref.UseOutputOfCallAt)

	require.Len(t, env.feed.quotes, 1)
	assert.Equal(t, models.QuoteKindBundle, env.feed.quotes[0].Kind)
	assert.Equal(t, 2, env.feed.quotes[0].ActionCount)
	assert.Equal(t, "42", env.feed.quotes[0].AmountOut)
}

func TestBundle_Rejected(t *testing.T) {
	env := newTestEnv(t, ServerConfig{BundleRPS: 100, BundleBurst: 100})
	query := "/v1/bundle?chainId=1&fromAddress=" + wallet.Hex()

	rec := env.do(http.MethodPost, query, `{"not":"an array"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	forward := `[{"protocol":"enso","action":"route","args":{"tokenIn":"` + usdc.Hex() + `","tokenOut":"` + weth.Hex() + `","amountIn":{"useOutputOfCallAt":0},"receiver":"` + wallet.Hex() + `"}}]`
	rec = env.do(http.MethodPost, query, forward)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid bundle", decodeError(t, rec).Error)

	rec = env.do(http.MethodPost, "/v1/bundle?chainId=1", `[]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Nil(t, env.enso.bundle)
}

func TestBundle_RateLimited(t *testing.T) {
	env := newTestEnv(t, ServerConfig{BundleRPS: 0.001, BundleBurst: 1})
	query := "/v1/bundle?chainId=1&fromAddress=" + wallet.Hex()
	body := `[{"protocol":"enso","action":"balance","args":{"token":"` + usdc.Hex() + `"}}]`

	rec := env.do(http.MethodPost, query, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = env.do(http.MethodPost, query, body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestEndpointSwitches(t *testing.T) {
	env := newTestEnv(t, ServerConfig{APIKey: "s3cret"})
	key := []string{"X-API-Key", "s3cret"}

	rec := env.do(http.MethodPost, "/v1/flags", `{"key":"gateway.networks","enabled":false,"reason":"maintenance"}`, key...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, "/v1/networks", "", key...)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = env.do(http.MethodGet, "/v1/aggregators", "", key...)
	assert.Equal(t, http.StatusOK, rec.Code, "other endpoints unaffected")

	rec = env.do(http.MethodGet, "/v1/flags/gateway.networks", "", key...)
	require.Equal(t, http.StatusOK, rec.Code)
	var flag flags.Flag
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flag))
	assert.Equal(t, "maintenance", flag.Reason)

	rec = env.do(http.MethodPut, "/v1/flags/gateway.networks", `{"enabled":true}`, key...)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(http.MethodGet, "/v1/networks", "", key...)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/v1/flags", "", key...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gateway.networks")

	rec = env.do(http.MethodDelete, "/v1/flags/gateway.networks", "", key...)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(http.MethodGet, "/v1/flags/gateway.networks", "", key...)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPost, "/v1/flags", `{"key":"bad key","enabled":false}`, key...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFlagWritesNeedAPIKey(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})

	rec := env.do(http.MethodPost, "/v1/flags", `{"key":"gateway.bundle","enabled":false}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(http.MethodPut, "/v1/flags/gateway.bundle", `{"enabled":false}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(http.MethodDelete, "/v1/flags/gateway.bundle", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, env.flags.items, "nothing was written")

	rec = env.do(http.MethodGet, "/v1/flags", "")
	assert.Equal(t, http.StatusOK, rec.Code, "reads stay open")
}

func TestAPIKey(t *testing.T) {
	env := newTestEnv(t, ServerConfig{APIKey: "s3cret"})

	rec := env.do(http.MethodGet, "/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code, "health is not behind the key")

	rec = env.do(http.MethodGet, "/v1/networks", "", "X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, decodeError(t, rec).Code)

	rec = env.do(http.MethodGet, "/v1/networks", "", "X-API-Key", "s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	rec := env.do(http.MethodGet, "/v1/nonexistent", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decodeError(t, rec).Error)
}
