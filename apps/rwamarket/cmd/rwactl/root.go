package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/config"
	"rwamarket/apps/rwamarket/internal/gateway"
	"rwamarket/apps/rwamarket/internal/ledger"
	"rwamarket/apps/rwamarket/internal/logging"
	"rwamarket/apps/rwamarket/internal/metadata"
	"rwamarket/apps/rwamarket/internal/wallet"
)

// GlobalFlags are shared by every command
type GlobalFlags struct {
	RpcURL    string
	SignerURL string
	Timeout   time.Duration
	Verbose   bool
}

var (
	globalFlags GlobalFlags
	cfg         *config.Config
	logger      *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rwactl",
	Short: "RWA marketplace operator CLI",
	Long: `rwactl inspects and administers an RWA marketplace deployment.

Reads need only RPC_URL. pause and resume also need SIGNER_URL pointing
at a signing service holding the admin account.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.NewConfig()
		if globalFlags.RpcURL != "" {
			cfg.RpcURL = globalFlags.RpcURL
		}
		if globalFlags.SignerURL != "" {
			cfg.SignerURL = globalFlags.SignerURL
		}

		if !globalFlags.Verbose {
			logger = zap.NewNop()
			return nil
		}
		var err error
		logger, err = logging.NewLogger(logging.Options{Level: "debug"})
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.RpcURL, "rpc-url", "", "ledger RPC endpoint (default: $RPC_URL)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.SignerURL, "signer-url", "", "signing service (default: $SIGNER_URL)")
	rootCmd.PersistentFlags().DurationVar(&globalFlags.Timeout, "timeout", 2*time.Minute, "overall command timeout")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "log to stdout")

	rootCmd.AddCommand(listingsCmd)
	rootCmd.AddCommand(assetsCmd)
	rootCmd.AddCommand(issuersCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
}

// withGateway dials the ledger and runs fn against a gateway. A signer is
// attached only when one is configured.
func withGateway(cmd *cobra.Command, fn func(ctx context.Context, g *gateway.Gateway) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), globalFlags.Timeout)
	defer cancel()

	client, err := ledger.Dial(ctx, cfg.RpcURL, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	opts := gateway.Options{
		Ledger:      client,
		Resolver:    metadata.NewResolver(cfg.IPFSGateway, logger),
		Contracts:   cfg.Contracts,
		Concurrency: cfg.ReconstructionConcurrency,
		Logger:      logger,
	}
	if cfg.SignerURL != "" {
		signer, err := wallet.NewRemoteSigner(cfg.SignerURL, logger)
		if err != nil {
			return err
		}
		opts.Session = signer
	}

	g, err := gateway.New(opts)
	if err != nil {
		return err
	}
	return fn(ctx, g)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(cmd *cobra.Command, result gateway.Result) error {
	if !result.Success {
		return errors.New(result.Message)
	}
	return printJSON(cmd, result)
}
