/*
Package wallet owns every balance change of a ledger account.

Each credit or debit updates exactly one balance snapshot and appends
exactly one ledger entry. Both steps run inside the store's unit of work
when it offers one; when the store reports
repositories.ErrTransactionUnsupported they run one after the other,
balance first, so a rejected debit never leaves an entry behind.

Usage:

	svc := wallet.NewService(repo, cache, wallet.WalletConfig{}, metrics)

	res, err := svc.Credit(ctx, wallet.MutationRequest{
	    AccountID: "u-1",
	    Amount:    500,
	    Currency:  models.CurrencyMoney,
	    Source:    "topup",
	})

	// Inside a caller-owned unit of work
	err = repo.ExecuteInTransaction(ctx, func(ctx context.Context, tx repositories.LedgerRepository) error {
	    _, err := svc.CreditTx(ctx, tx, req)
	    return err
	})
	svc.InvalidateBalances(ctx, req.AccountID)

Error Handling:

The service returns domain errors from internal/errors:
- ErrInvalidAmount: amount is zero or negative
- ErrInvalidCurrency: currency is neither money nor coins
- ErrAccountNotFound: no such account
- ErrInsufficientFunds: debit exceeds the current snapshot

Cache Management:

Balances are cached read-through and invalidated after every committed
mutation. Cache failures are logged and never returned.
*/
package wallet
