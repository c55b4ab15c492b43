package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"estate-ledger/internal/domain"
	"estate-ledger/internal/ledger"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// Service is the compliance registry.
type Service struct {
	Store  ledger.Store
	Policy domain.Policy
}

// RegisterKyc overwrites the caller's compliance record with a fresh verified attestation.
func (s *Service) RegisterKyc(ctx context.Context, call domain.Call, country string, accredited bool) (domain.ComplianceRecord, error) {
	rec := domain.ComplianceRecord{
		Identity:           call.Caller,
		Verified:           true,
		VerificationDate:   call.Now,
		Country:            strings.ToUpper(country),
		AccreditedInvestor: accredited,
		AmlCleared:         true,
		Expires:            call.Now + s.Policy.KycValidity,
	}
	err := s.Store.Atomic(ctx, func(tx ledger.Tx) error {
		if err := tx.PutCompliance(rec); err != nil {
			return fmt.Errorf("save compliance record: %w", err)
		}
		data, _ := json.Marshal(map[string]interface{}{
			"country":    rec.Country,
			"accredited": rec.AccreditedInvestor,
			"expires":    rec.Expires,
		})
		return tx.AppendEvent(domain.LedgerEvent{
			Type:  domain.EventKycRegistered,
			Actor: call.Caller,
			Data:  datatypes.JSON(data),
			At:    call.Now,
		})
	})
	if err != nil {
		return domain.ComplianceRecord{}, err
	}
	log.Info().Str("identity", rec.Identity).Str("country", rec.Country).Bool("accredited", accredited).Msg("KYC registered")
	return rec, nil
}

// IsKycVerified reports whether identity holds an unexpired verified record at now.
func (s *Service) IsKycVerified(ctx context.Context, identity string, now int64) (bool, error) {
	var ok bool
	err := s.Store.Atomic(ctx, func(tx ledger.Tx) error {
		var err error
		_, ok, err = Verified(tx, identity, now)
		return err
	})
	return ok, err
}

// Verified loads identity's record and evaluates the is-kyc-verified predicate inside a transaction.
// A missing record is reported as not verified.
func Verified(tx ledger.Tx, identity string, now int64) (domain.ComplianceRecord, bool, error) {
	rec, err := tx.Compliance(identity)
	if errors.Is(err, ledger.ErrNotFound) {
		return domain.ComplianceRecord{}, false, nil
	}
	if err != nil {
		return domain.ComplianceRecord{}, false, fmt.Errorf("load compliance record: %w", err)
	}
	return rec, rec.VerifiedAt(now), nil
}
