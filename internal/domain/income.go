package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// IncomePeriod is the income statement recorded for one property and period.
type IncomePeriod struct {
	PropertyID        uint64          `gorm:"column:property_id;primaryKey;autoIncrement:false" json:"property_id"`
	Period            uint64          `gorm:"column:period;primaryKey;autoIncrement:false" json:"period"`
	RentalIncome      decimal.Decimal `gorm:"column:rental_income;type:numeric(38,0);not null" json:"rental_income"`
	OtherIncome       decimal.Decimal `gorm:"column:other_income;type:numeric(38,0);not null" json:"other_income"`
	OperatingExpenses decimal.Decimal `gorm:"column:operating_expenses;type:numeric(38,0);not null" json:"operating_expenses"`
	ManagementFees    decimal.Decimal `gorm:"column:management_fees;type:numeric(38,0);not null" json:"management_fees"`
	NetIncome         decimal.Decimal `gorm:"column:net_income;type:numeric(38,0);not null" json:"net_income"`
	// Claimed is the running total paid out for the period; it never exceeds NetIncome.
	Claimed decimal.Decimal `gorm:"column:claimed;type:numeric(38,0);not null" json:"claimed"`
	// Distributed is never set by any operation; per-holder claims live in DividendClaim.
	Distributed bool      `gorm:"column:distributed;not null" json:"distributed"`
	RecordedAt  int64     `gorm:"column:recorded_at;not null" json:"recorded_at"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (IncomePeriod) TableName() string {
	return "income_periods"
}

// GrossIncome is rental plus other income.
func (i IncomePeriod) GrossIncome() decimal.Decimal {
	return i.RentalIncome.Add(i.OtherIncome)
}

// Remaining is the part of NetIncome not yet claimed.
func (i IncomePeriod) Remaining() decimal.Decimal {
	return i.NetIncome.Sub(i.Claimed)
}

// DividendClaim is a holder's entitlement to one property period. It is written for
// every holder when the period is distributed, from the shares they held at that
// moment, and marked Claimed once paid.
type DividendClaim struct {
	PropertyID uint64          `gorm:"column:property_id;primaryKey;autoIncrement:false" json:"property_id"`
	Period     uint64          `gorm:"column:period;primaryKey;autoIncrement:false" json:"period"`
	Holder     string          `gorm:"column:holder;primaryKey" json:"holder"`
	Shares     int64           `gorm:"column:shares;not null" json:"shares"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(38,0);not null" json:"amount"`
	Claimed    bool            `gorm:"column:claimed;not null" json:"claimed"`
	ClaimedAt  int64           `gorm:"column:claimed_at;not null" json:"claimed_at"`
	CreatedAt  time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (DividendClaim) TableName() string {
	return "dividend_claims"
}
