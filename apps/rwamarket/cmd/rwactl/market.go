package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"rwamarket/apps/rwamarket/internal/gateway"
	"rwamarket/apps/rwamarket/internal/ledger"
)

var listingsJSON bool

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "List active marketplace listings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(cmd, func(ctx context.Context, g *gateway.Gateway) error {
			listings, err := g.FetchMarketplaceListings(ctx)
			if err != nil {
				return err
			}
			if listingsJSON {
				return printJSON(cmd, listings)
			}

			currency := g.Currency()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TOKEN\tNAME\tKIND\tAVAILABLE\tPRICE/UNIT\tSELLER")
			for _, l := range listings {
				kind := "ft"
				if l.IsNFT {
					kind = "nft"
				}
				ppu, err := currency.FormatBaseUnits(l.PricePerToken)
				if err != nil {
					ppu = l.PricePerToken
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s %s\t%s\n",
					l.TokenID, l.Name, kind, l.AvailableTokens, l.TotalSupply, ppu, currency.Symbol, l.Seller)
			}
			return w.Flush()
		})
	},
}

var assetsCmd = &cobra.Command{
	Use:   "assets <address>",
	Short: "List assets owned by an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(cmd, func(ctx context.Context, g *gateway.Gateway) error {
			owned, err := g.FetchUserAssets(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, owned)
		})
	},
}

var issuersCmd = &cobra.Command{
	Use:   "issuers",
	Short: "Show the authorized issuer registry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(cmd, func(ctx context.Context, g *gateway.Gateway) error {
			registry, err := g.GetAuthorizedIssuers(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, registry)
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show marketplace status and platform metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(cmd, func(ctx context.Context, g *gateway.Gateway) error {
			metrics, err := g.GetPlatformMetrics(ctx)
			if err != nil {
				return err
			}
			state := "active"
			if !metrics.MarketplaceActive {
				state = "paused"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "marketplace: %s\n", g.Contracts().MarketplaceObject)
			fmt.Fprintf(out, "state:       %s\n", state)
			fmt.Fprintf(out, "issuers:     %d\n", metrics.TotalIssuers)
			fmt.Fprintf(out, "listings:    %d\n", metrics.TotalListings)
			return nil
		})
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Show an address's payment coin balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ledger.IsValidID(args[0]) {
			return fmt.Errorf("invalid address %q", args[0])
		}
		return withGateway(cmd, func(ctx context.Context, g *gateway.Gateway) error {
			wallet, err := g.WalletBalances(ctx, args[0])
			if err != nil {
				return err
			}
			currency := g.Currency()
			amount, err := currency.FormatBaseUnits(wallet.PaymentBalance)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", amount, currency.Symbol)
			return nil
		})
	},
}

func init() {
	listingsCmd.Flags().BoolVar(&listingsJSON, "json", false, "print listings as JSON")
}
