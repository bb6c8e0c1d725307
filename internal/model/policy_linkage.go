package model

// EasypayPolicy maps an Easypay payment reference to an internal policy number.
// Owned by policy administration; read-only for reconciliation.
type EasypayPolicy struct {
	EasypayNumber string `gorm:"type:varchar(60);primaryKey"`
	PolicyNumber  string `gorm:"type:varchar(60);not null"`
}

// LinkedPolicy aliases a policy number to the policy that actually carries
// the payments. Followed at most once.
type LinkedPolicy struct {
	PolicyNumber       string `gorm:"type:varchar(60);primaryKey"`
	LinkedPolicyNumber string `gorm:"type:varchar(60);not null"`
}
