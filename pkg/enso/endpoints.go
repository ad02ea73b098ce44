package enso

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// GetApprovalData returns an ERC-20 approve transaction for the Enso router
// or delegate. RoutingStrategy defaults to router.
func (c *Client) GetApprovalData(ctx context.Context, p ApproveParams) (*ApproveData, error) {
	q := newQuery()
	q.address("fromAddress", p.FromAddress)
	q.address("tokenAddress", p.TokenAddress)
	q.uint("chainId", p.ChainID)
	q.str("amount", p.Amount)
	q.str("routingStrategy", string(strategyOr(p.RoutingStrategy, RoutingRouter)))

	var out ApproveData
	if err := c.do(ctx, request{method: http.MethodGet, path: "/wallet/approve", query: q.v}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRouteData asks the API for the best route between tokenIn and tokenOut
// and the transaction executing it.
func (c *Client) GetRouteData(ctx context.Context, p RouteParams) (*RouteData, error) {
	q := newQuery()
	q.address("fromAddress", p.FromAddress)
	q.optAddress("receiver", p.Receiver)
	q.optAddress("spender", p.Spender)
	q.uint("chainId", p.ChainID)
	q.optUint("destinationChainId", p.DestinationChainID)
	q.strs("amountIn", p.AmountIn)
	q.addresses("tokenIn", p.TokenIn)
	q.addresses("tokenOut", p.TokenOut)
	q.str("slippage", p.Slippage)
	q.strs("minAmountOut", p.MinAmountOut)
	q.str("routingStrategy", string(strategyOr(p.RoutingStrategy, RoutingRouter)))
	q.strs("fee", p.Fee)
	q.optAddress("feeReceiver", p.FeeReceiver)
	q.strs("ignoreAggregators", p.IgnoreAggregators)
	q.strs("ignoreStandards", p.IgnoreStandards)
	q.str("referralCode", p.ReferralCode)

	var out RouteData
	if err := c.do(ctx, request{method: http.MethodGet, path: "/shortcuts/route", query: q.v}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRouteNonTokenized routes into a non-tokenized position. RoutingStrategy
// defaults to delegate.
func (c *Client) GetRouteNonTokenized(ctx context.Context, p RouteNonTokenizedParams) (*RouteData, error) {
	q := newQuery()
	q.uint("chainId", p.ChainID)
	q.address("fromAddress", p.FromAddress)
	q.str("routingStrategy", string(strategyOr(p.RoutingStrategy, RoutingDelegate)))
	q.addresses("tokenIn", p.TokenIn)
	q.address("positionOut", p.PositionOut)
	q.strs("amountIn", p.AmountIn)
	q.str("slippage", p.Slippage)
	q.strs("fee", p.Fee)
	q.optAddress("feeReceiver", p.FeeReceiver)
	q.optAddress("receiver", p.Receiver)
	q.optAddress("spender", p.Spender)
	q.str("referralCode", p.ReferralCode)

	var out RouteData
	if err := c.do(ctx, request{method: http.MethodGet, path: "/shortcuts/route/nontokenized", query: q.v}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBundleData submits actions as one bundle and returns the resulting
// transaction. The bundle is validated locally before anything is sent.
func (c *Client) GetBundleData(ctx context.Context, p BundleParams, actions []Action) (*BundleData, error) {
	if err := ValidateBundle(actions); err != nil {
		return nil, err
	}

	q := newQuery()
	q.uint("chainId", p.ChainID)
	q.address("fromAddress", p.FromAddress)
	q.str("routingStrategy", string(strategyOr(p.RoutingStrategy, RoutingRouter)))
	q.optAddress("receiver", p.Receiver)
	q.optAddress("spender", p.Spender)
	q.str("referralCode", p.ReferralCode)

	var out BundleData
	req := request{method: http.MethodPost, path: "/shortcuts/bundle", query: q.v, body: actions}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetIporShortcut builds the static IPOR shortcut transaction.
func (c *Client) GetIporShortcut(ctx context.Context, p IporShortcutParams, in IporShortcutInput) (*IporShortcutData, error) {
	q := newQuery()
	q.optUint("chainId", p.ChainID)
	q.address("fromAddress", p.FromAddress)

	var out IporShortcutData
	req := request{method: http.MethodPost, path: "/shortcuts/static/ipor", query: q.v, body: in}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBalances lists the token balances of a wallet. UseEoa defaults to true.
func (c *Client) GetBalances(ctx context.Context, p BalanceParams) ([]WalletBalance, error) {
	useEoa := true
	if p.UseEoa != nil {
		useEoa = *p.UseEoa
	}

	q := newQuery()
	q.uint("chainId", p.ChainID)
	q.address("eoaAddress", p.EoaAddress)
	q.v.Set("useEoa", strconv.FormatBool(useEoa))

	var out []WalletBalance
	if err := c.do(ctx, request{method: http.MethodGet, path: "/wallet/balances", query: q.v}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTokenData queries token metadata. Page defaults to 1.
func (c *Client) GetTokenData(ctx context.Context, p TokenParams) (*PaginatedTokenData, error) {
	page := p.Page
	if page <= 0 {
		page = 1
	}

	q := newQuery()
	q.str("project", p.Project)
	q.str("protocolSlug", p.ProtocolSlug)
	q.addresses("underlyingTokens", p.UnderlyingTokens)
	q.addresses("underlyingTokensExact", p.UnderlyingTokensExact)
	q.addresses("primaryAddress", p.PrimaryAddress)
	q.addresses("address", p.Address)
	q.optUint("chainId", p.ChainID)
	q.str("type", string(p.Type))
	q.float("apyFrom", p.ApyFrom)
	q.float("apyTo", p.ApyTo)
	q.float("tvlFrom", p.TvlFrom)
	q.float("tvlTo", p.TvlTo)
	q.v.Set("page", strconv.Itoa(page))
	q.intPtr("cursor", p.Cursor)
	q.boolPtr("includeMetadata", p.IncludeMetadata)

	var out PaginatedTokenData
	if err := c.do(ctx, request{method: http.MethodGet, path: "/tokens", query: q.v}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPriceData(ctx context.Context, p PriceParams) (*PriceData, error) {
	path := fmt.Sprintf("/prices/%d/%s", p.ChainID, url.PathEscape(p.Address.Hex()))

	var out PriceData
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetMultiplePriceData(ctx context.Context, p MultiPriceParams) ([]PriceData, error) {
	q := newQuery()
	q.addresses("addresses", p.Addresses)

	var out []PriceData
	path := fmt.Sprintf("/prices/%d", p.ChainID)
	if err := c.do(ctx, request{method: http.MethodGet, path: path, query: q.v}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProtocolData lists supported protocols. A nil p sends no filters.
func (c *Client) GetProtocolData(ctx context.Context, p *ProtocolParams) ([]ProtocolData, error) {
	q := newQuery()
	if p != nil {
		q.optUint("chainId", p.ChainID)
		q.str("slug", p.Slug)
	}

	var out []ProtocolData
	if err := c.do(ctx, request{method: http.MethodGet, path: "/protocols", query: q.v}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetStandards(ctx context.Context) ([]StandardData, error) {
	var out []StandardData
	if err := c.do(ctx, request{method: http.MethodGet, path: "/standards"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetStandardBySlug(ctx context.Context, slug string) ([]StandardData, error) {
	seg, err := pathSegment("slug", slug)
	if err != nil {
		return nil, err
	}

	var out []StandardData
	if err := c.do(ctx, request{method: http.MethodGet, path: "/standards/" + seg}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetActions lists the action kinds accepted by GetBundleData.
func (c *Client) GetActions(ctx context.Context) ([]ActionData, error) {
	var out []ActionData
	if err := c.do(ctx, request{method: http.MethodGet, path: "/actions"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetActionsBySlug lists the actions a protocol supports and their inputs.
func (c *Client) GetActionsBySlug(ctx context.Context, slug string) ([]ActionData, error) {
	seg, err := pathSegment("slug", slug)
	if err != nil {
		return nil, err
	}

	var out []ActionData
	if err := c.do(ctx, request{method: http.MethodGet, path: "/actions/" + seg}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetNonTokenizedPositions(ctx context.Context, p *NonTokenizedParams) (*PaginatedNonTokenizedPositionData, error) {
	q := newQuery()
	if p != nil {
		q.str("project", p.Project)
		q.str("protocolSlug", p.ProtocolSlug)
		q.optUint("chainId", p.ChainID)
		q.addresses("address", p.Address)
		q.addresses("primaryAddress", p.PrimaryAddress)
		if p.Page > 0 {
			q.v.Set("page", strconv.Itoa(p.Page))
		}
		q.intPtr("cursor", p.Cursor)
	}

	var out PaginatedNonTokenizedPositionData
	if err := c.do(ctx, request{method: http.MethodGet, path: "/nontokenized", query: q.v}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProjects(ctx context.Context) ([]Project, error) {
	var out []Project
	if err := c.do(ctx, request{method: http.MethodGet, path: "/projects"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProtocolsByProject(ctx context.Context, project string) ([]ProtocolData, error) {
	seg, err := pathSegment("project", project)
	if err != nil {
		return nil, err
	}

	var out []ProtocolData
	if err := c.do(ctx, request{method: http.MethodGet, path: "/projects/" + seg + "/protocols"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetNetworks(ctx context.Context, p *NetworkParams) ([]ConnectedNetwork, error) {
	q := newQuery()
	if p != nil {
		q.str("name", p.Name)
		q.optUint("chainId", p.ChainID)
	}

	var out []ConnectedNetwork
	if err := c.do(ctx, request{method: http.MethodGet, path: "/networks", query: q.v}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAggregators lists the aggregators the router can use. A zero chainID
// omits the filter.
func (c *Client) GetAggregators(ctx context.Context, chainID uint64) ([]string, error) {
	q := newQuery()
	q.optUint("chainId", chainID)

	var out []string
	if err := c.do(ctx, request{method: http.MethodGet, path: "/aggregators", query: q.v}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetVolume(ctx context.Context, chainID uint64) (VolumeData, error) {
	var out json.RawMessage
	path := fmt.Sprintf("/volume/%d", chainID)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAccountID returns the account id bound to the API key. The endpoint
// answers with either a JSON string or plain text.
func (c *Client) GetAccountID(ctx context.Context) (string, error) {
	var raw rawBody
	if err := c.do(ctx, request{method: http.MethodGet, path: "/account/accountId"}, &raw); err != nil {
		return "", err
	}
	b := bytes.TrimSpace(raw)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", fmt.Errorf("enso: decode account id: %w", err)
		}
		return s, nil
	}
	return string(b), nil
}

// rawBody receives a response body undecoded, JSON or not.
type rawBody []byte

func strategyOr(s, def RoutingStrategy) RoutingStrategy {
	if s == "" {
		return def
	}
	return s
}

func pathSegment(name, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("enso: %s is required", name)
	}
	return url.PathEscape(v), nil
}

// query builds url.Values, skipping unset optional values.
type query struct {
	v url.Values
}

func newQuery() *query { return &query{v: url.Values{}} }

func (q *query) str(k, v string) {
	if v != "" {
		q.v.Set(k, v)
	}
}

func (q *query) strs(k string, vs []string) {
	for _, v := range vs {
		q.v.Add(k, v)
	}
}

func (q *query) address(k string, a common.Address) {
	q.v.Set(k, a.Hex())
}

func (q *query) optAddress(k string, a common.Address) {
	if a != (common.Address{}) {
		q.v.Set(k, a.Hex())
	}
}

func (q *query) addresses(k string, as []common.Address) {
	for _, a := range as {
		q.v.Add(k, a.Hex())
	}
}

func (q *query) uint(k string, n uint64) {
	q.v.Set(k, strconv.FormatUint(n, 10))
}

func (q *query) optUint(k string, n uint64) {
	if n != 0 {
		q.uint(k, n)
	}
}

func (q *query) float(k string, f *float64) {
	if f != nil {
		q.v.Set(k, strconv.FormatFloat(*f, 'f', -1, 64))
	}
}

func (q *query) intPtr(k string, n *int) {
	if n != nil {
		q.v.Set(k, strconv.Itoa(*n))
	}
}

func (q *query) boolPtr(k string, b *bool) {
	if b != nil {
		q.v.Set(k, strconv.FormatBool(*b))
	}
}
