package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/enso-go/internal/config"
	"github.com/aman-zulfiqar/enso-go/pkg/enso"
)

// cli carries the state shared by every subcommand.
type cli struct {
	chainID  uint64
	strategy string
	verbose  bool
	timeout  time.Duration

	client *enso.Client
}

func newRootCmd() *cobra.Command {
	app := &cli{}

	root := &cobra.Command{
		Use:   "enso",
		Short: "Query the Enso DeFi API from the command line",
		Long: `enso is a small command-line front for the Enso API. It builds routes,
approvals and bundles, and reads balances, prices, tokens and protocol metadata.

The API key is read from ENSO_API_KEY (a .env file in the working directory is
loaded when present). ENSO_BASE_URL overrides the API host.

Examples:
  enso route --from 0xd8dA... --token-in 0xA0b8... --token-out 0xC02a... --amount-in 1000000
  enso price 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48
  enso bundle --from 0xd8dA... --file actions.json`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.connect()
		},
	}

	root.PersistentFlags().Uint64Var(&app.chainID, "chain", 1, "Chain ID")
	root.PersistentFlags().StringVar(&app.strategy, "strategy", "", "Routing strategy (router, delegate, ensowallet, ...)")
	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Log retries and requests to stderr")
	root.PersistentFlags().DurationVar(&app.timeout, "timeout", 2*time.Minute, "Overall deadline per command")

	root.AddCommand(
		app.routeCmd(),
		app.approveCmd(),
		app.bundleCmd(),
		app.balancesCmd(),
		app.accountCmd(),
		app.priceCmd(),
		app.tokensCmd(),
		app.protocolsCmd(),
		app.standardsCmd(),
		app.actionsCmd(),
		app.projectsCmd(),
		app.networksCmd(),
		app.aggregatorsCmd(),
		app.volumeCmd(),
	)
	return root
}

func (a *cli) connect() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if a.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	client, err := enso.NewClient(cfg.EnsoAPIKey, append(cfg.ClientOptions(), enso.WithLogger(logger))...)
	if err != nil {
		return err
	}
	a.client = client
	return nil
}

func (a *cli) routing() (enso.RoutingStrategy, error) {
	switch s := enso.RoutingStrategy(strings.TrimSpace(a.strategy)); s {
	case "", enso.RoutingRouter, enso.RoutingDelegate, enso.RoutingRouterLegacy,
		enso.RoutingDelegateLegacy, enso.RoutingEnsoWallet:
		return s, nil
	default:
		return "", fmt.Errorf("unknown routing strategy %q", a.strategy)
	}
}

// run calls fn under the command deadline with a spinner on stderr and prints
// the result as indented JSON.
func (a *cli) run(cmd *cobra.Command, label string, fn func(ctx context.Context) (any, error)) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
	defer cancel()

	s := newSpinner(label)
	s.Start()
	out, err := fn(ctx)
	s.Stop()
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

// newSpinner draws on stderr and checks stderr, not stdout, for a terminal,
// so redirected stderr gets no frames.
func newSpinner(label string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriterFile(os.Stderr))
	s.Suffix = " " + label
	return s
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printError(w io.Writer, err error) {
	color.New(color.FgRed).Fprintf(w, "Error: %v\n", err)
}

func parseAddress(name, raw string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("--%s: %q is not a hex address", name, raw)
	}
	return common.HexToAddress(raw), nil
}

func parseOptionalAddress(name, raw string) (common.Address, error) {
	if strings.TrimSpace(raw) == "" {
		return common.Address{}, nil
	}
	return parseAddress(name, raw)
}

func parseAddresses(name string, raws []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(raws))
	for _, r := range raws {
		addr, err := parseAddress(name, r)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

func optionalInt(cmd *cobra.Command, name string, v int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func optionalBool(cmd *cobra.Command, name string, v bool) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}
