package wallet

// Default configuration values
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Operation names used for metrics and logs.
const (
	OpCredit       = "credit"
	OpDebit        = "debit"
	OpGetBalance   = "get_balance"
	OpTransactions = "get_transactions"
	OpReconcile    = "reconcile"
)
