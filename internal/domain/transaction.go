package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ledger event types, one per accepted transition.
const (
	EventKycRegistered     = "KYC_REGISTERED"
	EventPropertyListed    = "PROPERTY_LISTED"
	EventSharesBought      = "SHARES_BOUGHT"
	EventSharesTransferred = "SHARES_TRANSFERRED"
	EventIncomeDistributed = "INCOME_DISTRIBUTED"
	EventDividendClaimed   = "DIVIDEND_CLAIMED"
	EventDeposit           = "DEPOSIT"
)

// LedgerEvent is an append-only journal row written in the same transaction as the change it describes.
type LedgerEvent struct {
	EventID      uuid.UUID       `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	Type         string          `gorm:"column:type;type:varchar(32);not null;index" json:"type"`
	PropertyID   uint64          `gorm:"column:property_id;index" json:"property_id,omitempty"`
	Actor        string          `gorm:"column:actor;not null;index" json:"actor"`
	Counterparty string          `gorm:"column:counterparty;index" json:"counterparty,omitempty"`
	Shares       int64           `gorm:"column:shares" json:"shares,omitempty"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(38,0)" json:"amount"`
	Data         datatypes.JSON  `gorm:"column:data" json:"data,omitempty"`
	At           int64           `gorm:"column:at;not null" json:"at"`
	CreatedAt    time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (LedgerEvent) TableName() string {
	return "ledger_events"
}

// BeforeCreate assigns an event id when the caller did not.
func (e *LedgerEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}

// EventFilter narrows an event listing. Zero fields match everything.
type EventFilter struct {
	PropertyID uint64
	Identity   string
	Limit      int
}

// Models lists every persisted ledger model, for migrations.
func Models() []interface{} {
	return []interface{}{
		&Property{}, &Certificate{}, &Counters{}, &ShareholderPosition{}, &Balance{},
		&ComplianceRecord{}, &IncomePeriod{}, &DividendClaim{}, &LedgerEvent{},
	}
}
