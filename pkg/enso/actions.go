package enso

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ActionType is the tag of a bundle action.
type ActionType string

const (
	ActionRoute                  ActionType = "route"
	ActionSwap                   ActionType = "swap"
	ActionBalance                ActionType = "balance"
	ActionApprove                ActionType = "approve"
	ActionBorrow                 ActionType = "borrow"
	ActionHarvest                ActionType = "harvest"
	ActionRepay                  ActionType = "repay"
	ActionCall                   ActionType = "call"
	ActionDeposit                ActionType = "deposit"
	ActionRedeem                 ActionType = "redeem"
	ActionBridge                 ActionType = "bridge"
	ActionDepositCLMM            ActionType = "depositclmm"
	ActionRedeemCLMM             ActionType = "redeemclmm"
	ActionTokenizedSingleDeposit ActionType = "tokenizedsingledeposit"
	ActionTokenizedMultiDeposit  ActionType = "tokenizedmultideposit"
	ActionTokenizedSingleRedeem  ActionType = "tokenizedsingleredeem"
	ActionTokenizedMultiRedeem   ActionType = "tokenizedmultiredeem"
	ActionSingleDeposit          ActionType = "singledeposit"
	ActionMultiDeposit           ActionType = "multideposit"
	ActionSingleRedeem           ActionType = "singleredeem"
	ActionMultiRedeem            ActionType = "multiredeem"
	ActionMultiOutSingleDeposit  ActionType = "multioutsingledeposit"
	ActionTransfer               ActionType = "transfer"
	ActionTransferFrom           ActionType = "transferfrom"
	ActionPermitTransferFrom     ActionType = "permittransferfrom"
	ActionSplit                  ActionType = "split"
	ActionMerge                  ActionType = "merge"
	ActionMinAmountOut           ActionType = "minamountout"
	ActionSlippage               ActionType = "slippage"
	ActionFee                    ActionType = "fee"
	ActionEnsoFee                ActionType = "ensofee"
)

// ProtocolEnso is the protocol slug of Enso's own utility actions.
const ProtocolEnso = "enso"

var ErrInvalidAction = errors.New("invalid bundle action")

// ActionArgs is implemented by the argument struct of every action kind.
// The set is closed; RawArgs carries kinds this package does not model.
type ActionArgs interface {
	Kind() ActionType
	validate() error
	amounts() []Amount
}

var argsRegistry = map[ActionType]func() ActionArgs{
	ActionRoute:                  func() ActionArgs { return new(RouteArgs) },
	ActionSwap:                   func() ActionArgs { return new(SwapArgs) },
	ActionBalance:                func() ActionArgs { return new(BalanceArgs) },
	ActionApprove:                func() ActionArgs { return new(ApproveArgs) },
	ActionBorrow:                 func() ActionArgs { return new(BorrowArgs) },
	ActionHarvest:                func() ActionArgs { return new(HarvestArgs) },
	ActionRepay:                  func() ActionArgs { return new(RepayArgs) },
	ActionCall:                   func() ActionArgs { return new(CallArgs) },
	ActionDeposit:                func() ActionArgs { return new(DepositArgs) },
	ActionRedeem:                 func() ActionArgs { return new(RedeemArgs) },
	ActionBridge:                 func() ActionArgs { return new(BridgeArgs) },
	ActionDepositCLMM:            func() ActionArgs { return new(DepositCLMMArgs) },
	ActionRedeemCLMM:             func() ActionArgs { return new(RedeemCLMMArgs) },
	ActionTokenizedSingleDeposit: func() ActionArgs { return new(TokenizedSingleDepositArgs) },
	ActionTokenizedMultiDeposit:  func() ActionArgs { return new(TokenizedMultiDepositArgs) },
	ActionTokenizedSingleRedeem:  func() ActionArgs { return new(TokenizedSingleRedeemArgs) },
	ActionTokenizedMultiRedeem:   func() ActionArgs { return new(TokenizedMultiRedeemArgs) },
	ActionSingleDeposit:          func() ActionArgs { return new(SingleDepositArgs) },
	ActionMultiDeposit:           func() ActionArgs { return new(MultiDepositArgs) },
	ActionSingleRedeem:           func() ActionArgs { return new(SingleRedeemArgs) },
	ActionMultiRedeem:            func() ActionArgs { return new(MultiRedeemArgs) },
	ActionMultiOutSingleDeposit:  func() ActionArgs { return new(MultiOutSingleDepositArgs) },
	ActionTransfer:               func() ActionArgs { return new(TransferArgs) },
	ActionTransferFrom:           func() ActionArgs { return new(TransferFromArgs) },
	ActionPermitTransferFrom:     func() ActionArgs { return new(PermitTransferFromArgs) },
	ActionSplit:                  func() ActionArgs { return new(SplitArgs) },
	ActionMerge:                  func() ActionArgs { return new(MergeArgs) },
	ActionMinAmountOut:           func() ActionArgs { return new(MinAmountOutArgs) },
	ActionSlippage:               func() ActionArgs { return new(SlippageArgs) },
	ActionFee:                    func() ActionArgs { return new(FeeArgs) },
	ActionEnsoFee:                func() ActionArgs { return new(EnsoFeeArgs) },
}

// KnownActionTypes lists every modelled action kind.
func KnownActionTypes() []ActionType {
	out := make([]ActionType, 0, len(argsRegistry))
	for k := range argsRegistry {
		out = append(out, k)
	}
	return out
}

// Action is one step of a bundle.
type Action struct {
	Protocol string     `json:"protocol"`
	Action   ActionType `json:"action"`
	Args     ActionArgs `json:"args"`
}

// NewAction builds an action whose tag is taken from args.
func NewAction(protocol string, args ActionArgs) Action {
	a := Action{Protocol: protocol, Args: args}
	if args != nil {
		a.Action = args.Kind()
	}
	return a
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var env struct {
		Protocol string          `json:"protocol"`
		Action   ActionType      `json:"action"`
		Args     json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	a.Protocol = env.Protocol
	a.Action = env.Action
	a.Args = nil

	args := bytes.TrimSpace(env.Args)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		return nil
	}

	factory, ok := argsRegistry[ActionType(strings.ToLower(string(env.Action)))]
	if !ok {
		raw := make(RawArgs, len(args))
		copy(raw, args)
		a.Args = raw
		return nil
	}

	target := factory()
	if err := json.Unmarshal(args, target); err != nil {
		return fmt.Errorf("decode %s args: %w", env.Action, err)
	}
	a.Args = target
	return nil
}

// Validate checks the shape of a single action. Output references are
// checked by ValidateBundle, which knows the action's position.
func (a Action) Validate() error {
	if strings.TrimSpace(a.Protocol) == "" {
		return fmt.Errorf("%w: protocol is required", ErrInvalidAction)
	}
	if a.Action == "" {
		return fmt.Errorf("%w: action is required", ErrInvalidAction)
	}
	if a.Args == nil {
		return fmt.Errorf("%w: %s: args are required", ErrInvalidAction, a.Action)
	}

	kind := ActionType(strings.ToLower(string(a.Action)))
	if _, raw := a.Args.(RawArgs); raw {
		if _, known := argsRegistry[kind]; known {
			return fmt.Errorf("%w: %s: raw args used for a modelled action", ErrInvalidAction, a.Action)
		}
		return nil
	}
	if a.Args.Kind() != kind {
		return fmt.Errorf("%w: action %q carries %s args", ErrInvalidAction, a.Action, a.Args.Kind())
	}
	if kind == ActionBalance && a.Protocol != ProtocolEnso {
		return fmt.Errorf("%w: balance actions must use protocol %q", ErrInvalidAction, ProtocolEnso)
	}
	if err := a.Args.validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidAction, a.Action, err)
	}
	return nil
}

// ValidateBundle validates every action and checks that each output
// reference points at an earlier action. Bridge callbacks are validated as
// bundles of their own.
func ValidateBundle(actions []Action) error {
	if len(actions) == 0 {
		return fmt.Errorf("%w: bundle is empty", ErrInvalidAction)
	}
	for i, a := range actions {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
		if a.Args == nil {
			continue
		}
		for _, amt := range a.Args.amounts() {
			ref, ok := amt.Ref()
			if !ok {
				continue
			}
			if ref.UseOutputOfCallAt < 0 || ref.UseOutputOfCallAt >= i {
				return fmt.Errorf("action %d: %w: output reference %d must point at an earlier action", i, ErrInvalidAction, ref.UseOutputOfCallAt)
			}
			if ref.Index != nil && *ref.Index < 0 {
				return fmt.Errorf("action %d: %w: negative output index", i, ErrInvalidAction)
			}
		}
		if b, ok := a.Args.(*BridgeArgs); ok && len(b.Callback) > 0 {
			if err := ValidateBundle(b.Callback); err != nil {
				return fmt.Errorf("action %d callback: %w", i, err)
			}
		}
	}
	return nil
}

// RawArgs holds the undecoded args of an action kind this package does not model.
type RawArgs json.RawMessage

func (r RawArgs) Kind() ActionType  { return "" }
func (r RawArgs) validate() error   { return nil }
func (r RawArgs) amounts() []Amount { return nil }

func (r RawArgs) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return json.RawMessage(r).MarshalJSON()
}

func requireAddress(name string, a common.Address) error {
	if a == (common.Address{}) {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}

func requireAmount(name string, a Amount) error {
	if v, ok := a.Value(); ok && strings.TrimSpace(v) == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}

func requireAddresses(name string, xs []common.Address) error {
	if len(xs) == 0 {
		return fmt.Errorf("%s is required", name)
	}
	for i, a := range xs {
		if err := requireAddress(fmt.Sprintf("%s[%d]", name, i), a); err != nil {
			return err
		}
	}
	return nil
}

func requireAmounts(name string, xs []Amount) error {
	if len(xs) == 0 {
		return fmt.Errorf("%s is required", name)
	}
	for i, a := range xs {
		if err := requireAmount(fmt.Sprintf("%s[%d]", name, i), a); err != nil {
			return err
		}
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
