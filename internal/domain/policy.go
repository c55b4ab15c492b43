package domain

import "github.com/shopspring/decimal"

// Policy holds the ledger's eligibility and fee parameters.
type Policy struct {
	MinInvestment    decimal.Decimal
	MaxShareholders  int64
	LockupPeriod     int64 // logical time units
	KycValidity      int64 // logical time units
	ManagementFeeBps int64
	MinTotalShares   int64
}

const (
	secondsPerDay = 24 * 60 * 60

	DefaultMaxShareholders  = 500
	DefaultLockupPeriod     = 30 * secondsPerDay
	DefaultKycValidity      = 365 * secondsPerDay
	DefaultManagementFeeBps = 200
	DefaultMinTotalShares   = 1000
	BasisPoints             = 10000
)

// DefaultPolicy returns the policy used when nothing is configured. Logical time is in seconds.
func DefaultPolicy() Policy {
	return Policy{
		MinInvestment:    decimal.NewFromInt(1_000_000),
		MaxShareholders:  DefaultMaxShareholders,
		LockupPeriod:     DefaultLockupPeriod,
		KycValidity:      DefaultKycValidity,
		ManagementFeeBps: DefaultManagementFeeBps,
		MinTotalShares:   DefaultMinTotalShares,
	}
}
