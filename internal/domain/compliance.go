package domain

import "time"

// ComplianceRecord is an investor's KYC/AML attestation. It is only ever replaced wholesale.
type ComplianceRecord struct {
	Identity           string    `gorm:"column:identity;primaryKey" json:"identity"`
	Verified           bool      `gorm:"column:verified;not null" json:"verified"`
	VerificationDate   int64     `gorm:"column:verification_date;not null" json:"verification_date"`
	Country            string    `gorm:"column:country;type:char(2);not null" json:"country"`
	AccreditedInvestor bool      `gorm:"column:accredited_investor;not null" json:"accredited_investor"`
	AmlCleared         bool      `gorm:"column:aml_cleared;not null" json:"aml_cleared"`
	Expires            int64     `gorm:"column:expires;not null" json:"expires"`
	CreatedAt          time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (ComplianceRecord) TableName() string {
	return "compliance_records"
}

// VerifiedAt is the is-kyc-verified predicate evaluated at logical time now.
func (r ComplianceRecord) VerifiedAt(now int64) bool {
	return r.Verified && now < r.Expires
}

// Call carries the execution context of a ledger operation: who invoked it and at which logical time.
type Call struct {
	Caller string
	Now    int64
}
