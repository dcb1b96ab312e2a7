package validation

import (
	"strings"

	"orusledger/internal/models"
)

// MutationInput is the body of an internal credit or debit call.
type MutationInput struct {
	AccountID string                 `json:"account_id"`
	Amount    int64                  `json:"amount"`
	Currency  models.Currency        `json:"currency"`
	Source    string                 `json:"source"`
	Metadata  map[string]interface{} `json:"meta"`
}

func (v *Validator) AccountID(field, id string) {
	v.Check(id != "", field, "is required")
	v.Check(len(id) <= MaxAccountIDLength, field, "is too long")
	v.Check(id == "" || accountIDRegex.MatchString(id), field, "may only contain letters, digits, '-' and '_'")
}

func (v *Validator) ReferralCode(field, code string) {
	code = strings.TrimSpace(code)
	v.Check(code != "", field, "is required")
	v.Check(code == "" || len(code) >= MinReferralCodeLength && len(code) <= MaxReferralCodeLength, field, "has an invalid length")
	v.Check(code == "" || referralCodeRegex.MatchString(code), field, "may only contain letters and digits")
}

// ValidateMutation checks the shape of a mutation request. Amount and
// currency rules stay with the wallet service so both surfaces share
// one set of domain errors.
func ValidateMutation(in MutationInput) error {
	v := New()
	v.AccountID("account_id", in.AccountID)
	v.Check(strings.TrimSpace(in.Source) != "", "source", "is required")
	v.Check(len(in.Source) <= MaxSourceLength, "source", "is too long")
	v.Check(len(in.Metadata) <= MaxMetadataKeys, "meta", "has too many keys")
	return v.Err()
}

func ValidateOpenAccount(accountID, referralCode string) error {
	v := New()
	v.AccountID("account_id", accountID)
	if referralCode != "" {
		v.ReferralCode("referral_code", referralCode)
	}
	return v.Err()
}
