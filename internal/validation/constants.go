package validation

const (
	MaxAccountIDLength    = 64
	MaxSourceLength       = 64
	MinReferralCodeLength = 4
	MaxReferralCodeLength = 16
	MaxMetadataKeys       = 32
)
