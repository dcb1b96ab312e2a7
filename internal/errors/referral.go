package errors

var (
	ErrInvalidReferralCode = &DomainError{
		Code:    "INVALID_REFERRAL_CODE",
		Message: "invalid referral code",
	}
	ErrSelfReferral = &DomainError{
		Code:    "SELF_REFERRAL_FORBIDDEN",
		Message: "cannot use your own referral code",
	}
	ErrAlreadyReferred = &DomainError{
		Code:    "ALREADY_REFERRED",
		Message: "user has already used a referral code",
	}
)
