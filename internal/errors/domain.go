// Package errors holds the typed failures the ledger surfaces to callers.
package errors

import stderrors "errors"

// DomainError is a precondition failure with a stable machine code.
// Values are compared by identity, so errors.Is works on wrapped chains.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// As returns the DomainError in err's tree, if any.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}
