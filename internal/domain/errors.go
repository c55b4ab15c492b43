package domain

import "errors"

// Category groups ledger errors by what the caller has to change before retrying.
type Category string

const (
	CategoryAuthorization Category = "authorization"
	CategoryValidation    Category = "validation"
	CategoryCapacity      Category = "capacity"
	CategoryState         Category = "state"
)

// LedgerError is a value-level rejection of a ledger operation. A rejected operation has no side effects.
type LedgerError struct {
	Kind     string
	Category Category
	Message  string
}

func (e *LedgerError) Error() string {
	return e.Message
}

func newLedgerError(kind string, category Category, message string) *LedgerError {
	return &LedgerError{Kind: kind, Category: category, Message: message}
}

var (
	ErrKycRequired   = newLedgerError("KycRequired", CategoryAuthorization, "KYC verification required")
	ErrNotVerified   = newLedgerError("NotVerified", CategoryAuthorization, "Caller is not KYC verified")
	ErrUnauthorized  = newLedgerError("Unauthorized", CategoryAuthorization, "Caller is not the management company")
	ErrNotAccredited = newLedgerError("NotAccredited", CategoryAuthorization, "Accredited investor status required")

	ErrInvalidProperty        = newLedgerError("InvalidProperty", CategoryValidation, "Property not found or inactive")
	ErrInvalidValuation       = newLedgerError("InvalidValuation", CategoryValidation, "Valuation must be greater than zero")
	ErrInsufficientShareCount = newLedgerError("InsufficientShareCount", CategoryValidation, "Total shares below minimum")
	ErrInvalidIncome          = newLedgerError("InvalidIncome", CategoryValidation, "Expenses and fees exceed gross income")

	ErrInsufficientShares = newLedgerError("InsufficientShares", CategoryCapacity, "Insufficient shares")
	ErrTransferRestricted = newLedgerError("TransferRestricted", CategoryCapacity, "Transfer restricted")
	ErrInsufficientFunds  = newLedgerError("InsufficientFunds", CategoryCapacity, "Insufficient settlement balance")

	ErrNoDistribution           = newLedgerError("NoDistribution", CategoryState, "No income distribution for period")
	ErrAlreadyClaimed           = newLedgerError("AlreadyClaimed", CategoryState, "Dividends already claimed for period")
	ErrPeriodAlreadyDistributed = newLedgerError("PeriodAlreadyDistributed", CategoryState, "Income already distributed for period")
	ErrCertificateExists        = newLedgerError("CertificateExists", CategoryState, "Ownership certificate already minted")
)

// AsLedgerError unwraps err to a *LedgerError if it is one.
func AsLedgerError(err error) (*LedgerError, bool) {
	var le *LedgerError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// CategoryOf returns the category of a ledger error, or "" for anything else.
func CategoryOf(err error) Category {
	if le, ok := AsLedgerError(err); ok {
		return le.Category
	}
	return ""
}
