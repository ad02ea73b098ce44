package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/enso-go/pkg/enso"
)

func (a *cli) balancesCmd() *cobra.Command {
	var (
		address string
		useEoa  bool
	)
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "List token balances of a wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddress("address", address)
			if err != nil {
				return err
			}
			p := enso.BalanceParams{ChainID: a.chainID, EoaAddress: addr, UseEoa: optionalBool(cmd, "use-eoa", useEoa)}
			return a.run(cmd, "Fetching balances...", func(ctx context.Context) (any, error) {
				return a.client.GetBalances(ctx, p)
			})
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Wallet address")
	cmd.Flags().BoolVar(&useEoa, "use-eoa", true, "Read the EOA itself instead of its Enso smart wallet")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func (a *cli) accountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "account",
		Short: "Print the account id bound to the API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, "Fetching account...", func(ctx context.Context) (any, error) {
				return a.client.GetAccountID(ctx)
			})
		},
	}
}

func (a *cli) priceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "price <address> [address...]",
		Short: "Print USD prices for one or more tokens",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addrs, err := parseAddresses("address", args)
			if err != nil {
				return err
			}
			if len(addrs) == 1 {
				return a.run(cmd, "Fetching price...", func(ctx context.Context) (any, error) {
					return a.client.GetPriceData(ctx, enso.PriceParams{ChainID: a.chainID, Address: addrs[0]})
				})
			}
			return a.run(cmd, "Fetching prices...", func(ctx context.Context) (any, error) {
				return a.client.GetMultiplePriceData(ctx, enso.MultiPriceParams{ChainID: a.chainID, Addresses: addrs})
			})
		},
	}
}

func (a *cli) tokensCmd() *cobra.Command {
	var (
		project, protocol, tokenType string
		addresses, underlying        []string
		page, cursor                 int
		metadata                     bool
	)
	cmd := &cobra.Command{
		Use:     "tokens",
		Aliases: []string{"ls"},
		Short:   "List tokens known to Enso",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := enso.TokenParams{
				ChainID:         a.chainID,
				Project:         project,
				ProtocolSlug:    protocol,
				Type:            enso.TokenType(tokenType),
				Page:            page,
				Cursor:          optionalInt(cmd, "cursor", cursor),
				IncludeMetadata: optionalBool(cmd, "metadata", metadata),
			}
			var err error
			if p.Address, err = parseAddresses("address", addresses); err != nil {
				return err
			}
			if p.UnderlyingTokens, err = parseAddresses("underlying", underlying); err != nil {
				return err
			}
			return a.run(cmd, "Fetching tokens...", func(ctx context.Context) (any, error) {
				return a.client.GetTokenData(ctx, p)
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "Filter by project")
	cmd.Flags().StringVar(&protocol, "protocol", "", "Filter by protocol slug")
	cmd.Flags().StringVar(&tokenType, "type", "", "defi or base")
	cmd.Flags().StringSliceVar(&addresses, "address", nil, "Filter by token addresses")
	cmd.Flags().StringSliceVar(&underlying, "underlying", nil, "Filter by underlying tokens")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&cursor, "cursor", 0, "Pagination cursor")
	cmd.Flags().BoolVar(&metadata, "metadata", false, "Include token metadata")
	return cmd
}

func (a *cli) protocolsCmd() *cobra.Command {
	var slug, project string
	cmd := &cobra.Command{
		Use:   "protocols",
		Short: "List supported protocols",
		RunE: func(cmd *cobra.Command, args []string) error {
			if project != "" {
				return a.run(cmd, "Fetching protocols...", func(ctx context.Context) (any, error) {
					return a.client.GetProtocolsByProject(ctx, project)
				})
			}
			var p *enso.ProtocolParams
			if cmd.Flags().Changed("chain") || slug != "" {
				p = &enso.ProtocolParams{ChainID: a.chainID, Slug: slug}
			}
			return a.run(cmd, "Fetching protocols...", func(ctx context.Context) (any, error) {
				return a.client.GetProtocolData(ctx, p)
			})
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "Protocol slug")
	cmd.Flags().StringVar(&project, "project", "", "List the protocols of one project")
	return cmd
}

func (a *cli) standardsCmd() *cobra.Command {
	var slug string
	cmd := &cobra.Command{
		Use:   "standards",
		Short: "List protocol standards and the actions they support",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, "Fetching standards...", func(ctx context.Context) (any, error) {
				if slug != "" {
					return a.client.GetStandardBySlug(ctx, slug)
				}
				return a.client.GetStandards(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "Protocol slug")
	return cmd
}

func (a *cli) actionsCmd() *cobra.Command {
	var slug string
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List bundle action kinds and their inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, "Fetching actions...", func(ctx context.Context) (any, error) {
				if slug != "" {
					return a.client.GetActionsBySlug(ctx, slug)
				}
				return a.client.GetActions(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "Protocol slug")
	return cmd
}

func (a *cli) projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, "Fetching projects...", func(ctx context.Context) (any, error) {
				return a.client.GetProjects(ctx)
			})
		},
	}
}

func (a *cli) networksCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List connected networks",
		RunE: func(cmd *cobra.Command, args []string) error {
			var p *enso.NetworkParams
			if cmd.Flags().Changed("chain") || name != "" {
				p = &enso.NetworkParams{ChainID: a.chainID, Name: name}
			}
			return a.run(cmd, "Fetching networks...", func(ctx context.Context) (any, error) {
				return a.client.GetNetworks(ctx, p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Network name")
	return cmd
}

func (a *cli) aggregatorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "aggregators",
		Short: "List DEX aggregators Enso routes through",
		RunE: func(cmd *cobra.Command, args []string) error {
			var chainID uint64
			if cmd.Flags().Changed("chain") {
				chainID = a.chainID
			}
			return a.run(cmd, "Fetching aggregators...", func(ctx context.Context) (any, error) {
				return a.client.GetAggregators(ctx, chainID)
			})
		},
	}
}

func (a *cli) volumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "volume",
		Short: "Print Enso volume statistics for the chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, "Fetching volume...", func(ctx context.Context) (any, error) {
				return a.client.GetVolume(ctx, a.chainID)
			})
		},
	}
}
