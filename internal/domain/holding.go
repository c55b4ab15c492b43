package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShareholderPosition is one holder's stake in one property.
// Positions are created on first acquisition and never deleted, even at zero shares.
type ShareholderPosition struct {
	PropertyID       uint64          `gorm:"column:property_id;primaryKey;autoIncrement:false" json:"property_id"`
	Holder           string          `gorm:"column:holder;primaryKey" json:"holder"`
	SharesOwned      int64           `gorm:"column:shares_owned;not null" json:"shares_owned"`
	InvestmentAmount decimal.Decimal `gorm:"column:investment_amount;type:numeric(38,0);not null" json:"investment_amount"`
	PurchaseDate     int64           `gorm:"column:purchase_date;not null" json:"purchase_date"`
	LockedUntil      int64           `gorm:"column:locked_until;not null" json:"locked_until"`
	DividendsEarned  decimal.Decimal `gorm:"column:dividends_earned;type:numeric(38,0);not null" json:"dividends_earned"`
	VotingPower      int64           `gorm:"column:voting_power;not null" json:"voting_power"`
	IsAccredited     bool            `gorm:"column:is_accredited;not null" json:"is_accredited"`
	CreatedAt        time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (ShareholderPosition) TableName() string {
	return "shareholder_positions"
}

// Transferable reports whether the lockup has strictly elapsed at now.
func (p ShareholderPosition) Transferable(now int64) bool {
	return now > p.LockedUntil
}

// Balance is an account's holding of the settlement asset.
type Balance struct {
	Account   string          `gorm:"column:account;primaryKey" json:"account"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(38,0);not null" json:"amount"`
	UpdatedAt time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Balance) TableName() string {
	return "balances"
}

// CustodyAccount is the ledger-controlled pool that receives share payments and pays dividends.
const CustodyAccount = "custody"
