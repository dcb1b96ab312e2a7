package errors

var (
	ErrInsufficientFunds = &DomainError{
		Code:    "INSUFFICIENT_FUNDS",
		Message: "insufficient balance",
	}
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "amount must be positive",
	}
	ErrInvalidCurrency = &DomainError{
		Code:    "INVALID_CURRENCY",
		Message: "currency must be money or coins",
	}
	ErrAccountNotFound = &DomainError{
		Code:    "ACCOUNT_NOT_FOUND",
		Message: "account not found",
	}
	ErrAccountExists = &DomainError{
		Code:    "ACCOUNT_EXISTS",
		Message: "account already exists",
	}
	ErrInvalidAccountID = &DomainError{
		Code:    "INVALID_ACCOUNT_ID",
		Message: "account id is required",
	}
	ErrInvalidDirection = &DomainError{
		Code:    "INVALID_DIRECTION",
		Message: "type must be credit or debit",
	}
)
