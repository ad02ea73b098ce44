package enso

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// RouteArgs routes tokenIn to tokenOut through Enso's routing engine. Without
// a receiver the output stays with the executing account for later actions.
type RouteArgs struct {
	TokenIn        common.Address  `json:"tokenIn"`
	TokenOut       common.Address  `json:"tokenOut"`
	AmountIn       Amount          `json:"amountIn"`
	PrimaryAddress *common.Address `json:"primaryAddress,omitempty"`
	Receiver       *common.Address `json:"receiver,omitempty"`
	Slippage       Num             `json:"slippage,omitzero"`
	PoolFee        Num             `json:"poolFee,omitzero"`
}

func (a *RouteArgs) Kind() ActionType { return ActionRoute }
func (a *RouteArgs) validate() error {
	return firstErr(
		requireAddress("tokenIn", a.TokenIn),
		requireAddress("tokenOut", a.TokenOut),
		requireAmount("amountIn", a.AmountIn),
	)
}
func (a *RouteArgs) amounts() []Amount { return []Amount{a.AmountIn} }

// SwapArgs swaps through a specific protocol.
type SwapArgs struct {
	TokenIn        common.Address  `json:"tokenIn"`
	TokenOut       common.Address  `json:"tokenOut"`
	AmountIn       Amount          `json:"amountIn"`
	PrimaryAddress *common.Address `json:"primaryAddress,omitempty"`
	Receiver       common.Address  `json:"receiver"`
	Slippage       Num             `json:"slippage,omitzero"`
	PoolFee        Num             `json:"poolFee,omitzero"`
}

func (a *SwapArgs) Kind() ActionType { return ActionSwap }
func (a *SwapArgs) validate() error {
	return firstErr(
		requireAddress("tokenIn", a.TokenIn),
		requireAddress("tokenOut", a.TokenOut),
		requireAmount("amountIn", a.AmountIn),
		requireAddress("receiver", a.Receiver),
	)
}
func (a *SwapArgs) amounts() []Amount { return []Amount{a.AmountIn} }

// BalanceArgs reads the executor's balance of token. Protocol must be "enso".
type BalanceArgs struct {
	Token common.Address `json:"token"`
}

func (a *BalanceArgs) Kind() ActionType  { return ActionBalance }
func (a *BalanceArgs) validate() error   { return requireAddress("token", a.Token) }
func (a *BalanceArgs) amounts() []Amount { return nil }

type ApproveArgs struct {
	Token   common.Address `json:"token"`
	Spender common.Address `json:"spender"`
	Amount  Amount         `json:"amount"`
}

func (a *ApproveArgs) Kind() ActionType { return ActionApprove }
func (a *ApproveArgs) validate() error {
	return firstErr(
		requireAddress("token", a.Token),
		requireAddress("spender", a.Spender),
		requireAmount("amount", a.Amount),
	)
}
func (a *ApproveArgs) amounts() []Amount { return []Amount{a.Amount} }

type BorrowArgs struct {
	Collateral     OneOrMany[common.Address] `json:"collateral"`
	TokenOut       common.Address            `json:"tokenOut"`
	AmountOut      Amount                    `json:"amountOut"`
	PrimaryAddress common.Address            `json:"primaryAddress"`
}

func (a *BorrowArgs) Kind() ActionType { return ActionBorrow }
func (a *BorrowArgs) validate() error {
	return firstErr(
		requireAddresses("collateral", a.Collateral.Items()),
		requireAddress("tokenOut", a.TokenOut),
		requireAmount("amountOut", a.AmountOut),
		requireAddress("primaryAddress", a.PrimaryAddress),
	)
}
func (a *BorrowArgs) amounts() []Amount { return []Amount{a.AmountOut} }

type HarvestArgs struct {
	Token          common.Address `json:"token"`
	PrimaryAddress common.Address `json:"primaryAddress"`
}

func (a *HarvestArgs) Kind() ActionType { return ActionHarvest }
func (a *HarvestArgs) validate() error {
	return firstErr(
		requireAddress("token", a.Token),
		requireAddress("primaryAddress", a.PrimaryAddress),
	)
}
func (a *HarvestArgs) amounts() []Amount { return nil }

type RepayArgs struct {
	TokenIn        common.Address `json:"tokenIn"`
	AmountIn       Amount         `json:"amountIn"`
	PrimaryAddress common.Address `json:"primaryAddress"`
}

func (a *RepayArgs) Kind() ActionType { return ActionRepay }
func (a *RepayArgs) validate() error {
	return firstErr(
		requireAddress("tokenIn", a.TokenIn),
		requireAmount("amountIn", a.AmountIn),
		requireAddress("primaryAddress", a.PrimaryAddress),
	)
}
func (a *RepayArgs) amounts() []Amount { return []Amount{a.AmountIn} }

// CallArgs calls an arbitrary contract method. Args are passed through as-is;
// an element shaped like {"useOutputOfCallAt": n} decodes to an Amount.
type CallArgs struct {
	Address common.Address `json:"address"`
	Method  string         `json:"method"`
	Abi     string         `json:"abi"`
	Args    []any          `json:"args"`
	Value   *Amount        `json:"value,omitempty"`
}

func (a *CallArgs) Kind() ActionType { return ActionCall }
func (a *CallArgs) validate() error {
	if err := requireAddress("address", a.Address); err != nil {
		return err
	}
	if a.Method == "" {
		return fmt.Errorf("method is required")
	}
	if a.Abi == "" {
		return fmt.Errorf("abi is required")
	}
	return nil
}
func (a *CallArgs) amounts() []Amount {
	var out []Amount
	for _, v := range a.Args {
		out = appendCallAmounts(out, v)
	}
	if a.Value != nil {
		out = append(out, *a.Value)
	}
	return out
}

func (a *CallArgs) UnmarshalJSON(data []byte) error {
	type plain CallArgs
	var raw struct {
		plain
		Args []json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = CallArgs(raw.plain)
	if raw.Args == nil {
		return nil
	}
	a.Args = make([]any, 0, len(raw.Args))
	for i, el := range raw.Args {
		v, err := decodeCallArg(el)
		if err != nil {
			return fmt.Errorf("args[%d]: %w", i, err)
		}
		a.Args = append(a.Args, v)
	}
	return nil
}

// decodeCallArg keeps numbers as json.Number so large integers survive a
// round trip, and turns reference objects into Amounts. Tuples recurse.
func decodeCallArg(data json.RawMessage) (any, error) {
	data = bytes.TrimSpace(data)
	if ref, ok := outputRefOf(data); ok {
		return Amount{ref: ref}, nil
	}
	if len(data) > 0 && data[0] == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(data, &elems); err != nil {
			return nil, err
		}
		out := make([]any, 0, len(elems))
		for _, el := range elems {
			v, err := decodeCallArg(el)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// outputRefOf matches objects holding useOutputOfCallAt and optionally index,
// nothing else.
func outputRefOf(data []byte) (*OutputRef, bool) {
	if len(data) == 0 || data[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false
	}
	if _, ok := fields["useOutputOfCallAt"]; !ok {
		return nil, false
	}
	for k := range fields {
		if k != "useOutputOfCallAt" && k != "index" {
			return nil, false
		}
	}
	var ref OutputRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return nil, false
	}
	return &ref, true
}

func appendCallAmounts(out []Amount, v any) []Amount {
	switch x := v.(type) {
	case Amount:
		return append(out, x)
	case *Amount:
		if x != nil {
			return append(out, *x)
		}
	case OutputRef:
		return append(out, Amount{ref: &x})
	case *OutputRef:
		if x != nil {
			return append(out, Amount{ref: x})
		}
	case map[string]any:
		if ref, ok := refFromMap(x); ok {
			return append(out, Amount{ref: ref})
		}
	case []any:
		for _, el := range x {
			out = appendCallAmounts(out, el)
		}
	}
	return out
}

// refFromMap reads a reference built by hand as a map. A non-numeric
// useOutputOfCallAt yields an out-of-range index so validation rejects it.
func refFromMap(m map[string]any) (*OutputRef, bool) {
	raw, ok := m["useOutputOfCallAt"]
	if !ok {
		return nil, false
	}
	ref := &OutputRef{UseOutputOfCallAt: -1}
	if n, ok := mapInt(raw); ok {
		ref.UseOutputOfCallAt = n
	}
	if raw, ok := m["index"]; ok {
		n, ok := mapInt(raw)
		if !ok {
			n = -1
		}
		ref.Index = &n
	}
	return ref, true
}

func mapInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
}

type DepositArgs struct {
	TokenIn        OneOrMany[common.Address] `json:"tokenIn"`
	TokenOut       *common.Address           `json:"tokenOut,omitempty"`
	AmountIn       OneOrMany[Amount]         `json:"amountIn"`
	PrimaryAddress common.Address            `json:"primaryAddress"`
	Receiver       *common.Address           `json:"receiver,omitempty"`
}

func (a *DepositArgs) Kind() ActionType { return ActionDeposit }
func (a *DepositArgs) validate() error {
	if err := firstErr(
		requireAddresses("tokenIn", a.TokenIn.Items()),
		requireAmounts("amountIn", a.AmountIn.Items()),
		requireAddress("primaryAddress", a.PrimaryAddress),
	); err != nil {
		return err
	}
	if a.TokenIn.Len() != a.AmountIn.Len() {
		return fmt.Errorf("tokenIn and amountIn lengths differ (%d != %d)", a.TokenIn.Len(), a.AmountIn.Len())
	}
	return nil
}
func (a *DepositArgs) amounts() []Amount { return a.AmountIn.Items() }

type RedeemArgs struct {
	TokenIn        *common.Address           `json:"tokenIn,omitempty"`
	TokenOut       OneOrMany[common.Address] `json:"tokenOut"`
	AmountIn       Amount                    `json:"amountIn"`
	PrimaryAddress common.Address            `json:"primaryAddress"`
	Receiver       *common.Address           `json:"receiver,omitempty"`
}

func (a *RedeemArgs) Kind() ActionType { return ActionRedeem }
func (a *RedeemArgs) validate() error {
	return firstErr(
		requireAddresses("tokenOut", a.TokenOut.Items()),
		requireAmount("amountIn", a.AmountIn),
		requireAddress("primaryAddress", a.PrimaryAddress),
	)
}
func (a *RedeemArgs) amounts() []Amount { return []Amount{a.AmountIn} }

// BridgeArgs moves tokens to another chain. Callback actions run on the
// destination chain and form a bundle of their own.
type BridgeArgs struct {
	AmountIn           Amount         `json:"amountIn"`
	TokenIn            common.Address `json:"tokenIn"`
	PrimaryAddress     common.Address `json:"primaryAddress"`
	DestinationChainID uint64         `json:"destinationChainId"`
	Receiver           common.Address `json:"receiver"`
	CallbackData       string         `json:"callbackData,omitempty"`
	CallbackGasLimit   string         `json:"callbackGasLimit,omitempty"`
	BridgeFee          Num            `json:"bridgeFee,omitzero"`
	Callback           []Action       `json:"callback,omitempty"`
}

func (a *BridgeArgs) Kind() ActionType { return ActionBridge }
func (a *BridgeArgs) validate() error {
	if err := firstErr(
		requireAmount("amountIn", a.AmountIn),
		requireAddress("tokenIn", a.TokenIn),
		requireAddress("primaryAddress", a.PrimaryAddress),
		requireAddress("receiver", a.Receiver),
	); err != nil {
		return err
	}
	if a.DestinationChainID == 0 {
		return fmt.Errorf("destinationChainId is required")
	}
	return nil
}
func (a *BridgeArgs) amounts() []Amount { return []Amount{a.AmountIn} }

// DepositCLMMArgs opens a concentrated liquidity position from a token pair.
type DepositCLMMArgs struct {
	TokenIn  []common.Address `json:"tokenIn"`
	TokenOut common.Address   `json:"tokenOut"`
	AmountIn []Amount         `json:"amountIn"`
	Ticks    []Num            `json:"ticks"`
	PoolFee  Num              `json:"poolFee,omitzero"`
	Receiver *common.Address  `json:"receiver,omitempty"`
}

func (a *DepositCLMMArgs) Kind() ActionType { return ActionDepositCLMM }
func (a *DepositCLMMArgs) validate() error {
	if err := firstErr(
		requireAddresses("tokenIn", a.TokenIn),
		requireAddress("tokenOut", a.TokenOut),
		requireAmounts("amountIn", a.AmountIn),
	); err != nil {
		return err
	}
	if len(a.TokenIn) != 2 || len(a.AmountIn) != 2 {
		return fmt.Errorf("tokenIn and amountIn must hold exactly two entries")
	}
	if len(a.Ticks) != 2 {
		return fmt.Errorf("ticks must hold a lower and an upper tick")
	}
	return nil
}
func (a *DepositCLMMArgs) amounts() []Amount { return a.AmountIn }

type RedeemCLMMArgs struct {
	TokenIn   common.Address   `json:"tokenIn"`
	TokenOut  []common.Address `json:"tokenOut"`
	Liquidity Amount           `json:"liquidity"`
	TokenID   string           `json:"tokenId"`
	Receiver  *common.Address  `json:"receiver,omitempty"`
}

func (a *RedeemCLMMArgs) Kind() ActionType { return ActionRedeemCLMM }
func (a *RedeemCLMMArgs) validate() error {
	if err := firstErr(
		requireAddress("tokenIn", a.TokenIn),
		requireAddresses("tokenOut", a.TokenOut),
		requireAmount("liquidity", a.Liquidity),
	); err != nil {
		return err
	}
	if a.TokenID == "" {
		return fmt.Errorf("tokenId is required")
	}
	return nil
}
func (a *RedeemCLMMArgs) amounts() []Amount { return []Amount{a.Liquidity} }

// SingleDepositArgs is the deprecated single-token form of deposit.
type SingleDepositArgs struct {
	TokenIn        common.Address  `json:"tokenIn"`
	TokenOut       *common.Address `json:"tokenOut,omitempty"`
	AmountIn       Amount          `json:"amountIn"`
	PrimaryAddress common.Address  `json:"primaryAddress"`
	Receiver       *common.Address `json:"receiver,omitempty"`
}

func (a *SingleDepositArgs) Kind() ActionType { return ActionSingleDeposit }
func (a *SingleDepositArgs) validate() error {
	return firstErr(
		requireAddress("tokenIn", a.TokenIn),
		requireAmount("amountIn", a.AmountIn),
		requireAddress("primaryAddress", a.PrimaryAddress),
	)
}
func (a *SingleDepositArgs) amounts() []Amount { return []Amount{a.AmountIn} }

// MultiDepositArgs is the deprecated multi-token form of deposit.
type MultiDepositArgs struct {
	TokenIn        []common.Address `json:"tokenIn"`
	TokenOut       *common.Address  `json:"tokenOut,omitempty"`
	AmountIn       []Amount         `json:"amountIn"`
	PrimaryAddress common.Address   `json:"primaryAddress"`
	Receiver       *common.Address  `json:"receiver,omitempty"`
}

func (a *MultiDepositArgs) Kind() ActionType { return ActionMultiDeposit }
func (a *MultiDepositArgs) validate() error {
	if err := firstErr(
		requireAddresses("tokenIn", a.TokenIn),
		requireAmounts("amountIn", a.AmountIn),
		requireAddress("primaryAddress", a.PrimaryAddress),
	); err != nil {
		return err
	}
	if len(a.TokenIn) != len(a.AmountIn) {
		return fmt.Errorf("tokenIn and amountIn lengths differ (%d != %d)", len(a.TokenIn), len(a.AmountIn))
	}
	return nil
}
func (a *MultiDepositArgs) amounts() []Amount { return a.AmountIn }

// SingleRedeemArgs is the deprecated single-output form of redeem.
type SingleRedeemArgs struct {
	TokenIn        *common.Address `json:"tokenIn,omitempty"`
	TokenOut       common.Address  `json:"tokenOut"`
	AmountIn       Amount          `json:"amountIn"`
	PrimaryAddress common.Address  `json:"primaryAddress"`
	Receiver       *common.Address `json:"receiver,omitempty"`
}

func (a *SingleRedeemArgs) Kind() ActionType { return ActionSingleRedeem }
func (a *SingleRedeemArgs) validate() error {
	return firstErr(
		requireAddress("tokenOut", a.TokenOut),
		requireAmount("amountIn", a.AmountIn),
		requireAddress("primaryAddress", a.PrimaryAddress),
	)
}
func (a *SingleRedeemArgs) amounts() []Amount { return []Amount{a.AmountIn} }

// MultiRedeemArgs is the deprecated multi-output form of redeem.
type MultiRedeemArgs struct {
	TokenIn        *common.Address  `json:"tokenIn,omitempty"`
	TokenOut       []common.Address `json:"tokenOut"`
	AmountIn       Amount           `json:"amountIn"`
	PrimaryAddress common.Address   `json:"primaryAddress"`
	Receiver       *common.Address  `json:"receiver,omitempty"`
}

func (a *MultiRedeemArgs) Kind() ActionType { return ActionMultiRedeem }
func (a *MultiRedeemArgs) validate() error {
	return firstErr(
		requireAddresses("tokenOut", a.TokenOut),
		requireAmount("amountIn", a.AmountIn),
		requireAddress("primaryAddress", a.PrimaryAddress),
	)
}
func (a *MultiRedeemArgs) amounts() []Amount { return []Amount{a.AmountIn} }

// The tokenized variants share the deprecated shapes but require tokenOut.

type TokenizedSingleDepositArgs struct {
	SingleDepositArgs
}

func (a *TokenizedSingleDepositArgs) Kind() ActionType { return ActionTokenizedSingleDeposit }
func (a *TokenizedSingleDepositArgs) validate() error {
	if a.TokenOut == nil {
		return fmt.Errorf("tokenOut is required")
	}
	return a.SingleDepositArgs.validate()
}

type TokenizedMultiDepositArgs struct {
	MultiDepositArgs
}

func (a *TokenizedMultiDepositArgs) Kind() ActionType { return ActionTokenizedMultiDeposit }
func (a *TokenizedMultiDepositArgs) validate() error {
	if a.TokenOut == nil {
		return fmt.Errorf("tokenOut is required")
	}
	return a.MultiDepositArgs.validate()
}

type TokenizedSingleRedeemArgs struct {
	SingleRedeemArgs
}

func (a *TokenizedSingleRedeemArgs) Kind() ActionType { return ActionTokenizedSingleRedeem }

type TokenizedMultiRedeemArgs struct {
	MultiRedeemArgs
}

func (a *TokenizedMultiRedeemArgs) Kind() ActionType { return ActionTokenizedMultiRedeem }

// MultiOutSingleDepositArgs deposits one token into a position yielding several.
type MultiOutSingleDepositArgs struct {
	TokenIn        common.Address   `json:"tokenIn"`
	TokenOut       []common.Address `json:"tokenOut"`
	AmountIn       Amount           `json:"amountIn"`
	PrimaryAddress common.Address   `json:"primaryAddress"`
	Receiver       *common.Address  `json:"receiver,omitempty"`
}

func (a *MultiOutSingleDepositArgs) Kind() ActionType { return ActionMultiOutSingleDeposit }
func (a *MultiOutSingleDepositArgs) validate() error {
	return firstErr(
		requireAddress("tokenIn", a.TokenIn),
		requireAddresses("tokenOut", a.TokenOut),
		requireAmount("amountIn", a.AmountIn),
		requireAddress("primaryAddress", a.PrimaryAddress),
	)
}
func (a *MultiOutSingleDepositArgs) amounts() []Amount { return []Amount{a.AmountIn} }

type TransferArgs struct {
	Token    common.Address `json:"token"`
	Amount   Amount         `json:"amount"`
	Receiver common.Address `json:"receiver"`
	ID       string         `json:"id,omitempty"` // ERC721/ERC1155 token id
}

func (a *TransferArgs) Kind() ActionType { return ActionTransfer }
func (a *TransferArgs) validate() error {
	return firstErr(
		requireAddress("token", a.Token),
		requireAmount("amount", a.Amount),
		requireAddress("receiver", a.Receiver),
	)
}
func (a *TransferArgs) amounts() []Amount { return []Amount{a.Amount} }

type TransferFromArgs struct {
	Token    common.Address `json:"token"`
	Sender   common.Address `json:"sender"`
	Receiver common.Address `json:"receiver"`
	Amount   Amount         `json:"amount"`
	ID       string         `json:"id,omitempty"`
}

func (a *TransferFromArgs) Kind() ActionType { return ActionTransferFrom }
func (a *TransferFromArgs) validate() error {
	return firstErr(
		requireAddress("token", a.Token),
		requireAddress("sender", a.Sender),
		requireAddress("receiver", a.Receiver),
		requireAmount("amount", a.Amount),
	)
}
func (a *TransferFromArgs) amounts() []Amount { return []Amount{a.Amount} }

// PermitTransferFromArgs pulls tokens using a Permit2 signature.
type PermitTransferFromArgs struct {
	Token     OneOrMany[common.Address] `json:"token"`
	Amount    OneOrMany[Num]            `json:"amount"`
	Sender    common.Address            `json:"sender"`
	Receiver  common.Address            `json:"receiver"`
	Nonce     string                    `json:"nonce"`
	Deadline  string                    `json:"deadline"`
	Signature string                    `json:"signature"`
}

func (a *PermitTransferFromArgs) Kind() ActionType { return ActionPermitTransferFrom }
func (a *PermitTransferFromArgs) validate() error {
	if err := firstErr(
		requireAddresses("token", a.Token.Items()),
		requireAddress("sender", a.Sender),
		requireAddress("receiver", a.Receiver),
	); err != nil {
		return err
	}
	if a.Token.Len() != a.Amount.Len() {
		return fmt.Errorf("token and amount lengths differ (%d != %d)", a.Token.Len(), a.Amount.Len())
	}
	if a.Nonce == "" || a.Deadline == "" || a.Signature == "" {
		return fmt.Errorf("nonce, deadline and signature are required")
	}
	return nil
}
func (a *PermitTransferFromArgs) amounts() []Amount { return nil }

// SplitArgs splits an amount of tokenIn across several output tokens.
type SplitArgs struct {
	TokenIn  common.Address   `json:"tokenIn"`
	TokenOut []common.Address `json:"tokenOut"`
	AmountIn Amount           `json:"amountIn"`
	Receiver *common.Address  `json:"receiver,omitempty"`
}

func (a *SplitArgs) Kind() ActionType { return ActionSplit }
func (a *SplitArgs) validate() error {
	return firstErr(
		requireAddress("tokenIn", a.TokenIn),
		requireAddresses("tokenOut", a.TokenOut),
		requireAmount("amountIn", a.AmountIn),
	)
}
func (a *SplitArgs) amounts() []Amount { return []Amount{a.AmountIn} }

// MergeArgs merges several input tokens into tokenOut.
type MergeArgs struct {
	TokenIn  []common.Address `json:"tokenIn"`
	TokenOut common.Address   `json:"tokenOut"`
	AmountIn []Amount         `json:"amountIn"`
	Receiver *common.Address  `json:"receiver,omitempty"`
}

func (a *MergeArgs) Kind() ActionType { return ActionMerge }
func (a *MergeArgs) validate() error {
	if err := firstErr(
		requireAddresses("tokenIn", a.TokenIn),
		requireAddress("tokenOut", a.TokenOut),
		requireAmounts("amountIn", a.AmountIn),
	); err != nil {
		return err
	}
	if len(a.TokenIn) != len(a.AmountIn) {
		return fmt.Errorf("tokenIn and amountIn lengths differ (%d != %d)", len(a.TokenIn), len(a.AmountIn))
	}
	return nil
}
func (a *MergeArgs) amounts() []Amount { return a.AmountIn }

// MinAmountOutArgs reverts the bundle when amountOut is below minAmountOut.
type MinAmountOutArgs struct {
	AmountOut    Amount `json:"amountOut"`
	MinAmountOut Amount `json:"minAmountOut"`
}

func (a *MinAmountOutArgs) Kind() ActionType { return ActionMinAmountOut }
func (a *MinAmountOutArgs) validate() error {
	return firstErr(
		requireAmount("amountOut", a.AmountOut),
		requireAmount("minAmountOut", a.MinAmountOut),
	)
}
func (a *MinAmountOutArgs) amounts() []Amount { return []Amount{a.AmountOut, a.MinAmountOut} }

// SlippageArgs reverts the bundle when amountOut slipped more than bps.
type SlippageArgs struct {
	Bps       Num    `json:"bps"`
	AmountOut Amount `json:"amountOut"`
}

func (a *SlippageArgs) Kind() ActionType { return ActionSlippage }
func (a *SlippageArgs) validate() error {
	if a.Bps.IsZero() {
		return fmt.Errorf("bps is required")
	}
	return requireAmount("amountOut", a.AmountOut)
}
func (a *SlippageArgs) amounts() []Amount { return []Amount{a.AmountOut} }

// FeeArgs takes bps of amount of token and sends it to receiver.
type FeeArgs struct {
	Token    common.Address `json:"token"`
	Amount   Amount         `json:"amount"`
	Bps      Num            `json:"bps"`
	Receiver common.Address `json:"receiver"`
}

func (a *FeeArgs) Kind() ActionType { return ActionFee }
func (a *FeeArgs) validate() error {
	if a.Bps.IsZero() {
		return fmt.Errorf("bps is required")
	}
	return firstErr(
		requireAddress("token", a.Token),
		requireAmount("amount", a.Amount),
		requireAddress("receiver", a.Receiver),
	)
}
func (a *FeeArgs) amounts() []Amount { return []Amount{a.Amount} }

// EnsoFeeArgs takes the Enso protocol fee.
type EnsoFeeArgs struct {
	Token  common.Address `json:"token"`
	Amount Amount         `json:"amount"`
	Bps    Num            `json:"bps"`
}

func (a *EnsoFeeArgs) Kind() ActionType { return ActionEnsoFee }
func (a *EnsoFeeArgs) validate() error {
	if a.Bps.IsZero() {
		return fmt.Errorf("bps is required")
	}
	return firstErr(
		requireAddress("token", a.Token),
		requireAmount("amount", a.Amount),
	)
}
func (a *EnsoFeeArgs) amounts() []Amount { return []Amount{a.Amount} }
