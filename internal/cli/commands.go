package cli

import (
	"fmt"

	"orusledger/internal/models"
	"orusledger/internal/utils"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(openAccountCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(reconcileCmd)
}

// ─── migrate ────────────────────────────────────────────────────────────────

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update ledger tables and indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		svc, err := loadServices(ctx, cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "%s store migrated\n", svc.store.Driver)
		return nil
	},
}

// ─── open-account ───────────────────────────────────────────────────────────

var openAccountCmd = &cobra.Command{
	Use:   "open-account ACCOUNT_ID",
	Short: "Open a ledger account with a fresh referral code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		svc, err := loadServices(ctx, cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		account, err := svc.referral.OpenAccount(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", account.ID, account.ReferralCode)
		return nil
	},
}

// ─── balance ────────────────────────────────────────────────────────────────

var balanceCmd = &cobra.Command{
	Use:   "balance ACCOUNT_ID",
	Short: "Print both balances of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		svc, err := loadServices(ctx, cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		balance, err := svc.wallet.GetBalance(ctx, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "money\t%s\n", utils.FormatAmount(models.CurrencyMoney, balance.Money))
		fmt.Fprintf(out, "coins\t%s\n", utils.FormatAmount(models.CurrencyCoins, balance.Coins))
		return nil
	},
}

// ─── reconcile ──────────────────────────────────────────────────────────────

var reconcileCmd = &cobra.Command{
	Use:   "reconcile ACCOUNT_ID...",
	Short: "Compare balance snapshots with the ledger",
	Long: `Recomputes each balance as the sum of credits minus debits and reports
any drift. Nothing is rewritten. Exits non-zero when drift is found.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		svc, err := loadServices(ctx, cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		out := cmd.OutOrStdout()
		drifted := 0
		for _, id := range args {
			report, err := svc.wallet.Reconcile(ctx, id)
			if err != nil {
				return fmt.Errorf("reconcile %s: %w", id, err)
			}
			state := "ok"
			if !report.Consistent() {
				state = "DRIFT"
				drifted++
			}
			fmt.Fprintf(out, "%s\t%s\tmoney %d/%d (%+d)\tcoins %d/%d (%+d)\n",
				id, state,
				report.Money.Snapshot, report.Money.Ledger, report.Money.Drift,
				report.Coins.Snapshot, report.Coins.Ledger, report.Coins.Drift,
			)
		}
		if drifted > 0 {
			return fmt.Errorf("%w in %d of %d accounts", ErrDrift, drifted, len(args))
		}
		return nil
	},
}
