package enso

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RoutingStrategy selects how the server builds the final transaction.
type RoutingStrategy string

const (
	RoutingRouter         RoutingStrategy = "router"
	RoutingDelegate       RoutingStrategy = "delegate"
	RoutingRouterLegacy   RoutingStrategy = "router-legacy"
	RoutingDelegateLegacy RoutingStrategy = "delegate-legacy"
	RoutingEnsoWallet     RoutingStrategy = "ensowallet"
)

// NativeToken is the placeholder address the API uses for the chain's native asset.
var NativeToken = common.HexToAddress("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")

// Transaction is an unsigned EVM transaction produced by the API.
type Transaction struct {
	Data  hexutil.Bytes  `json:"data"`
	To    common.Address `json:"to"`
	From  common.Address `json:"from"`
	Value Quantity       `json:"value"`
}

// ValueWei parses Value; an empty value is zero.
func (t Transaction) ValueWei() (*big.Int, error) {
	if t.Value == "" {
		return new(big.Int), nil
	}
	if has0xPrefix(string(t.Value)) {
		return hexutil.DecodeBig(string(t.Value))
	}
	v, ok := new(big.Int).SetString(string(t.Value), 10)
	if !ok {
		return nil, fmt.Errorf("invalid tx value %q", t.Value)
	}
	return v, nil
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// CallMsg converts the transaction for eth_call / eth_estimateGas.
func (t Transaction) CallMsg() (ethereum.CallMsg, error) {
	value, err := t.ValueWei()
	if err != nil {
		return ethereum.CallMsg{}, err
	}
	to := t.To
	return ethereum.CallMsg{
		From:  t.From,
		To:    &to,
		Value: value,
		Data:  []byte(t.Data),
	}, nil
}

type ApproveParams struct {
	FromAddress     common.Address
	TokenAddress    common.Address
	ChainID         uint64
	Amount          string
	RoutingStrategy RoutingStrategy
}

type ApproveData struct {
	Amount  Quantity       `json:"amount"`
	Gas     Quantity       `json:"gas"`
	Spender common.Address `json:"spender"`
	Token   common.Address `json:"token"`
	Tx      Transaction    `json:"tx"`
}

type RouteParams struct {
	FromAddress        common.Address
	Receiver           common.Address
	Spender            common.Address
	ChainID            uint64
	DestinationChainID uint64
	AmountIn           []string
	TokenIn            []common.Address
	TokenOut           []common.Address
	Slippage           string // basis points; exclusive with MinAmountOut
	MinAmountOut       []string
	RoutingStrategy    RoutingStrategy
	Fee                []string // basis points per AmountIn, 0-100
	FeeReceiver        common.Address
	IgnoreAggregators  []string
	IgnoreStandards    []string
	ReferralCode       string
}

type RouteNonTokenizedParams struct {
	ChainID         uint64
	FromAddress     common.Address
	RoutingStrategy RoutingStrategy
	TokenIn         []common.Address
	PositionOut     common.Address
	AmountIn        []string
	Slippage        string
	Fee             []string
	FeeReceiver     common.Address
	Receiver        common.Address
	Spender         common.Address
	ReferralCode    string
}

type RouteSegment struct {
	Action         string           `json:"action"`
	Protocol       string           `json:"protocol"`
	Primary        *common.Address  `json:"primary,omitempty"`
	TokenIn        []common.Address `json:"tokenIn"`
	TokenOut       []common.Address `json:"tokenOut"`
	PositionInID   []string         `json:"positionInId,omitempty"`
	PositionOutID  []string         `json:"positionOutId,omitempty"`
	ChainID        uint64           `json:"chainId,omitempty"`
	InternalRoutes [][]RouteSegment `json:"internalRoutes,omitempty"`
}

type RouteData struct {
	Route       []RouteSegment `json:"route"`
	Gas         Quantity       `json:"gas"`
	AmountOut   Quantity       `json:"amountOut"`
	PriceImpact *Quantity      `json:"priceImpact"`
	CreatedAt   int64          `json:"createdAt"`
	Tx          Transaction    `json:"tx"`
	FeeAmount   []Quantity     `json:"feeAmount,omitempty"`
}

type BundleParams struct {
	ChainID         uint64
	FromAddress     common.Address
	RoutingStrategy RoutingStrategy
	Receiver        common.Address
	Spender         common.Address
	ReferralCode    string
}

type BundleData struct {
	Bundle     []Action            `json:"bundle"`
	Gas        Quantity            `json:"gas"`
	CreatedAt  int64               `json:"createdAt"`
	Tx         Transaction         `json:"tx"`
	AmountsOut map[string]Quantity `json:"amountsOut,omitempty"`
}

type BalanceParams struct {
	ChainID    uint64
	EoaAddress common.Address
	UseEoa     *bool // nil means true
}

type WalletBalance struct {
	Amount   Quantity       `json:"amount"`
	Decimals int            `json:"decimals"`
	Token    common.Address `json:"token"`
	Price    Quantity       `json:"price"`
	Name     string         `json:"name,omitempty"`
	Symbol   string         `json:"symbol,omitempty"`
	LogoURI  string         `json:"logoUri,omitempty"`
}

type TokenType string

const (
	TokenTypeDefi TokenType = "defi"
	TokenTypeBase TokenType = "base"
)

type TokenParams struct {
	Project               string
	ProtocolSlug          string
	UnderlyingTokens      []common.Address
	UnderlyingTokensExact []common.Address
	PrimaryAddress        []common.Address
	Address               []common.Address
	ChainID               uint64
	Type                  TokenType
	ApyFrom               *float64
	ApyTo                 *float64
	TvlFrom               *float64
	TvlTo                 *float64
	Page                  int // defaults to 1
	Cursor                *int
	IncludeMetadata       *bool
}

type UnderlyingToken struct {
	Address  common.Address `json:"address"`
	ChainID  uint64         `json:"chainId"`
	Type     TokenType      `json:"type"`
	Decimals int            `json:"decimals"`
	Symbol   string         `json:"symbol,omitempty"`
	Name     string         `json:"name,omitempty"`
	LogosURI []string       `json:"logosUri,omitempty"`
}

type TokenData struct {
	Address          common.Address    `json:"address"`
	ChainID          uint64            `json:"chainId"`
	Type             TokenType         `json:"type"`
	Decimals         int               `json:"decimals"`
	Symbol           string            `json:"symbol,omitempty"`
	Name             string            `json:"name,omitempty"`
	LogosURI         []string          `json:"logosUri,omitempty"`
	UnderlyingTokens []UnderlyingToken `json:"underlyingTokens,omitempty"`
	Project          string            `json:"project,omitempty"`
	ProtocolSlug     string            `json:"protocolSlug,omitempty"`
	Apy              *float64          `json:"apy,omitempty"`
	ApyBase          *float64          `json:"apyBase,omitempty"`
	ApyReward        *float64          `json:"apyReward,omitempty"`
	Tvl              *float64          `json:"tvl,omitempty"`
	PrimaryAddress   *common.Address   `json:"primaryAddress,omitempty"`
}

type PaginationMeta struct {
	Total       int  `json:"total"`
	LastPage    int  `json:"lastPage"`
	CurrentPage int  `json:"currentPage"`
	PerPage     int  `json:"perPage"`
	Prev        *int `json:"prev"`
	Next        *int `json:"next"`
	Cursor      *int `json:"cursor,omitempty"`
}

type PaginatedTokenData struct {
	Data []TokenData    `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

type PriceParams struct {
	ChainID uint64
	Address common.Address
}

type MultiPriceParams struct {
	ChainID   uint64
	Addresses []common.Address
}

type PriceData struct {
	Address    common.Address `json:"address"`
	Price      Quantity       `json:"price"`
	Decimals   int            `json:"decimals"`
	Symbol     string         `json:"symbol"`
	Timestamp  int64          `json:"timestamp"`
	Confidence float64        `json:"confidence"`
	ChainID    uint64         `json:"chainId"`
}

type ProtocolParams struct {
	ChainID uint64
	Slug    string
}

type Chain struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type ProtocolData struct {
	Chains      []Chain  `json:"chains"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Slug        string   `json:"slug"`
	URL         string   `json:"url"`
	LogosURI    []string `json:"logosUri"`
}

type StandardProtocol struct {
	Slug string `json:"slug"`
	URL  string `json:"url"`
}

type StandardAction struct {
	Action          string   `json:"action"`
	Name            string   `json:"name"`
	FunctionNames   []string `json:"functionNames"`
	SupportedChains []Chain  `json:"supportedChains"`
	Inputs          []string `json:"inputs"`
}

type StandardData struct {
	Protocol StandardProtocol   `json:"protocol"`
	Forks    []StandardProtocol `json:"forks"`
	Actions  []StandardAction   `json:"actions"`
}

// ActionData describes a bundle action kind and its inputs.
type ActionData struct {
	Action ActionType        `json:"action"`
	Inputs map[string]string `json:"inputs"`
}

type NonTokenizedParams struct {
	Project        string
	ProtocolSlug   string
	ChainID        uint64
	Address        []common.Address
	PrimaryAddress []common.Address
	Page           int
	Cursor         *int
}

type NonTokenizedPositionData struct {
	ChainID          uint64          `json:"chainId"`
	Protocol         string          `json:"protocol"`
	Address          common.Address  `json:"address"`
	PrimaryAddress   common.Address  `json:"primaryAddress"`
	UnderlyingTokens []TokenData     `json:"underlyingTokens"`
	Project          string          `json:"project,omitempty"`
	Extra            json.RawMessage `json:"extra,omitempty"`
}

type PaginatedNonTokenizedPositionData struct {
	Data []NonTokenizedPositionData `json:"data"`
	Meta PaginationMeta             `json:"meta"`
}

type Project struct {
	ID        string   `json:"id"`
	Chains    []uint64 `json:"chains,omitempty"`
	Protocols []string `json:"protocols,omitempty"`
}

type NetworkParams struct {
	Name    string
	ChainID uint64
}

type ConnectedNetwork struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	IsConnected bool   `json:"isConnected"`
}

type IporShortcutParams struct {
	ChainID     uint64
	FromAddress common.Address
}

type IporShortcutInput struct {
	IsRouter            *bool  `json:"isRouter,omitempty"`
	AmountIn            string `json:"amountIn"`
	TokenIn             string `json:"tokenIn"`
	TokenBToBuy         string `json:"tokenBToBuy"`
	PercentageForTokenB string `json:"percentageForTokenB"`
	Slippage            string `json:"slippage,omitempty"`
	Simulate            *bool  `json:"simulate,omitempty"`
}

type IporShortcutData struct {
	CreatedAt     int64       `json:"createdAt"`
	Tx            Transaction `json:"tx"`
	Logs          []string    `json:"logs"`
	SimulationURL string      `json:"simulationURL"`
}

// VolumeData is returned verbatim; the API does not document its shape.
type VolumeData = json.RawMessage
