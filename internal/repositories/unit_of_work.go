package repositories

import (
	"context"
	"errors"
)

// ExecuteWithFallback runs fn inside repo's unit of work. When the store
// reports ErrTransactionUnsupported, fn runs again directly against repo,
// step by step, and fellBack is true. Every other error is returned as is.
func ExecuteWithFallback(ctx context.Context, repo LedgerRepository, fn func(ctx context.Context, tx LedgerRepository) error) (fellBack bool, err error) {
	err = repo.ExecuteInTransaction(ctx, fn)
	if !errors.Is(err, ErrTransactionUnsupported) {
		return false, err
	}
	return true, fn(ctx, repo)
}
