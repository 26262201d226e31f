package main

import (
	"context"

	"github.com/spf13/cobra"
	"rwamarket/apps/rwamarket/internal/gateway"
)

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the marketplace (admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(cmd, func(ctx context.Context, g *gateway.Gateway) error {
			return printResult(cmd, g.PauseMarketplace(ctx))
		})
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused marketplace (admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(cmd, func(ctx context.Context, g *gateway.Gateway) error {
			return printResult(cmd, g.ResumeMarketplace(ctx))
		})
	},
}
