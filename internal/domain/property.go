package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PropertyTypeCommercial restricts share purchases and inbound transfers to accredited investors.
const PropertyTypeCommercial = "commercial"

// Property is a listed real-world asset split into fungible shares.
// Address, type, valuation, total shares, share price, manager and compliance hash never change after listing.
type Property struct {
	ID                uint64          `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Address           string          `gorm:"column:address;not null" json:"address"`
	PropertyType      string          `gorm:"column:property_type;type:varchar(32);not null" json:"property_type"`
	Valuation         decimal.Decimal `gorm:"column:valuation;type:numeric(38,0);not null" json:"valuation"`
	TotalShares       int64           `gorm:"column:total_shares;not null" json:"total_shares"`
	AvailableShares   int64           `gorm:"column:available_shares;not null" json:"available_shares"`
	SharePrice        decimal.Decimal `gorm:"column:share_price;type:numeric(38,0);not null" json:"share_price"`
	RentalIncome      decimal.Decimal `gorm:"column:rental_income;type:numeric(38,0);not null" json:"rental_income"`
	Expenses          decimal.Decimal `gorm:"column:expenses;type:numeric(38,0);not null" json:"expenses"`
	ManagementCompany string          `gorm:"column:management_company;not null;index" json:"management_company"`
	ListingDate       int64           `gorm:"column:listing_date;not null" json:"listing_date"`
	IsActive          bool            `gorm:"column:is_active;not null" json:"is_active"`
	ComplianceHash    string          `gorm:"column:compliance_hash;type:char(64);not null" json:"compliance_hash"`
	CreatedAt         time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Property) TableName() string {
	return "properties"
}

// IsCommercial reports whether holders of this property must be accredited.
// The type is matched exactly; "Commercial" is not commercial.
func (p Property) IsCommercial() bool {
	return p.PropertyType == PropertyTypeCommercial
}

// Certificate is the single ownership marker minted to the manager when a property is listed.
type Certificate struct {
	PropertyID uint64    `gorm:"column:property_id;primaryKey;autoIncrement:false" json:"property_id"`
	Owner      string    `gorm:"column:owner;not null" json:"owner"`
	MintedAt   int64     `gorm:"column:minted_at;not null" json:"minted_at"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Certificate) TableName() string {
	return "certificates"
}

// Counters holds the ledger-wide running totals. There is exactly one row.
type Counters struct {
	ID                   uint            `gorm:"column:id;primaryKey" json:"-"`
	TotalProperties      uint64          `gorm:"column:total_properties;not null" json:"total_properties"`
	TotalValueTokenized  decimal.Decimal `gorm:"column:total_value_tokenized;type:numeric(38,0);not null" json:"total_value_tokenized"`
	DividendsDistributed decimal.Decimal `gorm:"column:dividends_distributed;type:numeric(38,0);not null" json:"dividends_distributed"`
	UpdatedAt            time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Counters) TableName() string {
	return "ledger_counters"
}

// CountersRowID is the primary key of the single Counters row.
const CountersRowID = 1
