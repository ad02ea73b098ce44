package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/enso-go/pkg/enso"
)

func (a *cli) routeCmd() *cobra.Command {
	var (
		from, receiver, spender string
		tokenIn, tokenOut       []string
		amountIn, minAmountOut  []string
		slippage                string
		destChain               uint64
		ignoreAggregators       []string
	)
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Build the best route from tokenIn to tokenOut",
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := a.routing()
			if err != nil {
				return err
			}
			p := enso.RouteParams{
				ChainID:            a.chainID,
				DestinationChainID: destChain,
				AmountIn:           amountIn,
				MinAmountOut:       minAmountOut,
				Slippage:           slippage,
				RoutingStrategy:    strategy,
				IgnoreAggregators:  ignoreAggregators,
			}
			if p.FromAddress, err = parseAddress("from", from); err != nil {
				return err
			}
			if p.Receiver, err = parseOptionalAddress("receiver", receiver); err != nil {
				return err
			}
			if p.Spender, err = parseOptionalAddress("spender", spender); err != nil {
				return err
			}
			if p.TokenIn, err = parseAddresses("token-in", tokenIn); err != nil {
				return err
			}
			if p.TokenOut, err = parseAddresses("token-out", tokenOut); err != nil {
				return err
			}
			if len(p.AmountIn) != len(p.TokenIn) {
				return fmt.Errorf("--amount-in needs one value per --token-in")
			}
			return a.run(cmd, "Building route...", func(ctx context.Context) (any, error) {
				return a.client.GetRouteData(ctx, p)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Sender address")
	cmd.Flags().StringVar(&receiver, "receiver", "", "Receiver address (defaults to sender)")
	cmd.Flags().StringVar(&spender, "spender", "", "Spender address (defaults to sender)")
	cmd.Flags().StringSliceVar(&tokenIn, "token-in", nil, "Input token addresses")
	cmd.Flags().StringSliceVar(&tokenOut, "token-out", nil, "Output token addresses")
	cmd.Flags().StringSliceVar(&amountIn, "amount-in", nil, "Input amounts in base units")
	cmd.Flags().StringSliceVar(&minAmountOut, "min-amount-out", nil, "Minimum output amounts (exclusive with --slippage)")
	cmd.Flags().StringVar(&slippage, "slippage", "", "Slippage in basis points")
	cmd.Flags().Uint64Var(&destChain, "destination-chain", 0, "Destination chain for cross-chain routes")
	cmd.Flags().StringSliceVar(&ignoreAggregators, "ignore-aggregators", nil, "Aggregators to exclude")
	cmd.MarkFlagsMutuallyExclusive("slippage", "min-amount-out")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("token-in")
	_ = cmd.MarkFlagRequired("token-out")
	_ = cmd.MarkFlagRequired("amount-in")
	return cmd
}

func (a *cli) approveCmd() *cobra.Command {
	var from, token, amount string
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Build an ERC20 approval for the Enso router",
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := a.routing()
			if err != nil {
				return err
			}
			p := enso.ApproveParams{ChainID: a.chainID, Amount: amount, RoutingStrategy: strategy}
			if p.FromAddress, err = parseAddress("from", from); err != nil {
				return err
			}
			if p.TokenAddress, err = parseAddress("token", token); err != nil {
				return err
			}
			return a.run(cmd, "Building approval...", func(ctx context.Context) (any, error) {
				return a.client.GetApprovalData(ctx, p)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Owner address")
	cmd.Flags().StringVar(&token, "token", "", "Token to approve")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount in base units")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (a *cli) bundleCmd() *cobra.Command {
	var from, receiver, file string
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Build one transaction from a JSON array of actions",
		Long: `Build one transaction from a JSON array of actions. Each element has the
form {"protocol": "...", "action": "...", "args": {...}}; amounts may be
{"useOutputOfCallAt": N} to consume the output of an earlier action.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := a.routing()
			if err != nil {
				return err
			}
			p := enso.BundleParams{ChainID: a.chainID, RoutingStrategy: strategy}
			if p.FromAddress, err = parseAddress("from", from); err != nil {
				return err
			}
			if p.Receiver, err = parseOptionalAddress("receiver", receiver); err != nil {
				return err
			}
			actions, err := readActions(file)
			if err != nil {
				return err
			}
			return a.run(cmd, "Building bundle...", func(ctx context.Context) (any, error) {
				return a.client.GetBundleData(ctx, p, actions)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Sender address")
	cmd.Flags().StringVar(&receiver, "receiver", "", "Receiver address")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the actions JSON file (- for stdin)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readActions(path string) ([]enso.Action, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = readAllStdin()
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read actions: %w", err)
	}
	var actions []enso.Action
	if err := json.Unmarshal(data, &actions); err != nil {
		return nil, fmt.Errorf("parse actions: %w", err)
	}
	if err := enso.ValidateBundle(actions); err != nil {
		return nil, err
	}
	return actions, nil
}

func readAllStdin() ([]byte, error) {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Mode()&os.ModeCharDevice != 0 {
		return nil, fmt.Errorf("no actions piped on stdin")
	}
	return io.ReadAll(os.Stdin)
}
