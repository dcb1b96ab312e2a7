// Package cli implements ledgerctl, the operator command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"orusledger/internal/config"
	"orusledger/internal/repositories"
	"orusledger/internal/services/referral"
	"orusledger/internal/services/wallet"

	"github.com/spf13/cobra"
)

// ErrDrift is returned by reconcile when any account disagrees with its
// ledger.
var ErrDrift = errors.New("balance drift detected")

// openStore is swapped by tests.
var openStore = repositories.Open

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Operate the wallet ledger",
	Long: `ledgerctl migrates the ledger store, inspects balances and reconciles
balance snapshots against the ledger. Connection settings come from the
same environment variables as the server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("store", "", "Store driver override (postgres, sqlite, mongo, memory)")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "Timeout for the whole command")
}

// Execute runs the command line with args.
func Execute(args []string, out io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	return rootCmd.Execute()
}

// services bundles what the subcommands need.
type services struct {
	store    *repositories.Store
	wallet   wallet.Service
	referral referral.Service
}

func (s *services) Close() error {
	return s.store.Close()
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return context.WithTimeout(cmd.Context(), timeout)
}

func loadServices(ctx context.Context, cmd *cobra.Command) (*services, error) {
	config.LoadEnv()
	cfg := config.Load()
	if driver, _ := cmd.Flags().GetString("store"); driver != "" {
		cfg.StoreDriver = driver
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	walletSvc := wallet.NewService(store.Ledger, nil, wallet.WalletConfig{Logger: logger}, nil)
	return &services{
		store:  store,
		wallet: walletSvc,
		referral: referral.NewService(store.Ledger, walletSvc, referral.Config{
			BonusCoins: cfg.ReferralBonusCoins,
			Logger:     logger,
		}, nil),
	}, nil
}
