// Package ledger holds the pure rules of the securities ledger: structural validation of
// candidate transactions and the fold that derives holdings from an ordered log.
// Nothing in this package keeps state between calls.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/SscSPs/securities_registry/internal/apperrors"
	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DefaultLookback is how far in the past a transaction date may lie.
const DefaultLookback = 10

// slot describes whether a member slot must, may or must not be populated.
type slot int

const (
	slotAny slot = iota
	slotRequired
	slotForbidden
)

type roleRule struct {
	from slot
	to   slot
}

// roleRules is the per-type member selection table.
var roleRules = map[domain.TransactionType]roleRule{
	domain.Issue:           {from: slotForbidden, to: slotRequired},
	domain.Transfer:        {from: slotRequired, to: slotRequired},
	domain.Redemption:      {from: slotRequired, to: slotForbidden},
	domain.Cancellation:    {from: slotRequired, to: slotForbidden},
	domain.ReturnOfCapital: {from: slotRequired, to: slotForbidden},
	domain.CapitalCall:     {from: slotRequired, to: slotForbidden},
	domain.Split:           {from: slotAny, to: slotAny},
	domain.Consolidation:   {from: slotAny, to: slotAny},
}

// Validator checks candidate transactions before they can be appended to a ledger.
type Validator struct {
	now           func() time.Time
	lookbackYears int
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithClock overrides the clock used for the date rule.
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) { v.now = now }
}

// WithLookbackYears overrides how many years back a transaction may be dated.
func WithLookbackYears(years int) ValidatorOption {
	return func(v *Validator) {
		if years > 0 {
			v.lookbackYears = years
		}
	}
}

// NewValidator creates a Validator using the wall clock and a ten year lookback.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{now: time.Now, lookbackYears: DefaultLookback}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns the normalised transaction or a *apperrors.ValidationError listing every
// failed rule. Normalisation upper-cases the currency code and clears empty member slots.
func (v *Validator) Validate(tx domain.Transaction) (domain.Transaction, error) {
	tx = normalise(tx)
	verr := &apperrors.ValidationError{}

	if tx.EntityID == "" {
		verr.Add("entityId", apperrors.CodeMissingField, "entity is required")
	}
	if tx.SecurityClassID == "" {
		verr.Add("securityClassId", apperrors.CodeMissingField, "security class is required")
	}

	rule, known := roleRules[tx.Type]
	if !known {
		verr.Add("type", apperrors.CodeUnknownType, fmt.Sprintf("unknown transaction type %q", tx.Type))
	} else {
		checkMembers(verr, tx, rule)
	}

	if !tx.Quantity.IsPositive() {
		verr.Add("quantity", apperrors.CodeInvalidQuantity, "quantity must be greater than zero")
	}
	checkAmounts(verr, tx)
	checkCurrency(verr, tx.CurrencyCode)
	v.checkDate(verr, tx)
	checkCertificate(verr, tx)

	if verr.HasViolations() {
		return tx, verr
	}
	return tx, nil
}

func normalise(tx domain.Transaction) domain.Transaction {
	tx.CurrencyCode = strings.ToUpper(strings.TrimSpace(tx.CurrencyCode))
	tx.Type = domain.TransactionType(strings.ToUpper(strings.TrimSpace(string(tx.Type))))
	if tx.FromMemberID != nil && strings.TrimSpace(*tx.FromMemberID) == "" {
		tx.FromMemberID = nil
	}
	if tx.ToMemberID != nil && strings.TrimSpace(*tx.ToMemberID) == "" {
		tx.ToMemberID = nil
	}
	if tx.CertificateNumber != nil && strings.TrimSpace(*tx.CertificateNumber) == "" {
		tx.CertificateNumber = nil
	}
	if tx.Status == "" {
		tx.Status = domain.StatusPosted
	}
	return tx
}

func checkMembers(verr *apperrors.ValidationError, tx domain.Transaction, rule roleRule) {
	checkSlot(verr, "fromMemberId", tx.Type, tx.FromMemberID != nil, rule.from)
	checkSlot(verr, "toMemberId", tx.Type, tx.ToMemberID != nil, rule.to)
	if tx.Type == domain.Transfer && tx.FromMemberID != nil && tx.ToMemberID != nil && *tx.FromMemberID == *tx.ToMemberID {
		verr.Add("toMemberId", apperrors.CodeInvalidMemberSelection, "a transfer must be between two different members")
	}
}

func checkSlot(verr *apperrors.ValidationError, field string, typ domain.TransactionType, present bool, want slot) {
	switch {
	case want == slotRequired && !present:
		verr.Add(field, apperrors.CodeInvalidMemberSelection, fmt.Sprintf("%s requires %s", typ, field))
	case want == slotForbidden && present:
		verr.Add(field, apperrors.CodeInvalidMemberSelection, fmt.Sprintf("%s must not set %s", typ, field))
	}
}

func checkAmounts(verr *apperrors.ValidationError, tx domain.Transaction) {
	if tx.AmountPaidPerSecurity != nil && tx.AmountPaidPerSecurity.IsNegative() {
		verr.Add("amountPaidPerSecurity", apperrors.CodeInvalidAmount, "amount paid per security must not be negative")
	}
	if tx.AmountUnpaidPerSecurity != nil && tx.AmountUnpaidPerSecurity.IsNegative() {
		verr.Add("amountUnpaidPerSecurity", apperrors.CodeInvalidAmount, "amount unpaid per security must not be negative")
	}
	// Capital movements only make sense with an amount to move.
	if tx.Type == domain.ReturnOfCapital || tx.Type == domain.CapitalCall {
		if isZeroOrNil(tx.AmountPaidPerSecurity) && isZeroOrNil(tx.AmountUnpaidPerSecurity) {
			verr.Add("amountPaidPerSecurity", apperrors.CodeInvalidAmount,
				fmt.Sprintf("%s requires a paid or unpaid amount per security", tx.Type))
		}
	}
}

func isZeroOrNil(d *decimal.Decimal) bool {
	return d == nil || d.IsZero()
}

func checkCurrency(verr *apperrors.ValidationError, code string) {
	if len(code) != 3 {
		verr.Add("currencyCode", apperrors.CodeInvalidCurrency, "currency code must be 3 letters")
		return
	}
	if money.GetCurrency(code) == nil {
		verr.Add("currencyCode", apperrors.CodeInvalidCurrency, fmt.Sprintf("unknown currency code %q", code))
	}
}

func (v *Validator) checkDate(verr *apperrors.ValidationError, tx domain.Transaction) {
	field := "settlementDate"
	if tx.SettlementDate == nil {
		field = "postedDate"
	}
	date := tx.EffectiveDate()
	if date.IsZero() {
		verr.Add(field, apperrors.CodeMissingField, "a settlement or posted date is required")
		return
	}
	now := v.now()
	earliest := now.AddDate(-v.lookbackYears, 0, 0)
	if date.After(now) {
		verr.Add(field, apperrors.CodeDateOutOfRange, "date must not be in the future")
	} else if date.Before(earliest) {
		verr.Add(field, apperrors.CodeDateOutOfRange,
			fmt.Sprintf("date must not be more than %d years in the past", v.lookbackYears))
	}
}

func checkCertificate(verr *apperrors.ValidationError, tx domain.Transaction) {
	hasNumber := tx.CertificateNumber != nil
	hasDate := tx.CertificateIssueDate != nil
	if hasNumber != hasDate {
		verr.Add("certificateNumber", apperrors.CodeInvalidCertificate,
			"certificate number and certificate issue date must be set together")
	}
}
