package models

import "time"

// Referral proves that a referee redeemed a referrer's code. One per
// referee, ever.
type Referral struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ReferrerID  string    `gorm:"type:varchar(64);not null;index" json:"referrer_id"`
	RefereeID   string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"referee_id"`
	Code        string    `gorm:"type:varchar(16);not null" json:"code"`
	BonusAmount int64     `gorm:"not null" json:"bonus_amount"`
	CreatedAt   time.Time `json:"created_at"`
}
