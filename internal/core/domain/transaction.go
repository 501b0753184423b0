package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of ledger event. The effect of a transaction on holdings is
// derived from its type and which member slot is populated, never from a signed quantity.
type TransactionType string

const (
	Issue           TransactionType = "ISSUE"
	Transfer        TransactionType = "TRANSFER"
	Redemption      TransactionType = "REDEMPTION"
	Cancellation    TransactionType = "CANCELLATION"
	ReturnOfCapital TransactionType = "RETURN_OF_CAPITAL"
	CapitalCall     TransactionType = "CAPITAL_CALL"
	Split           TransactionType = "SPLIT"
	Consolidation   TransactionType = "CONSOLIDATION"
)

// TransactionTypes lists every known type in declaration order.
var TransactionTypes = []TransactionType{
	Issue, Transfer, Redemption, Cancellation, ReturnOfCapital, CapitalCall, Split, Consolidation,
}

// IsKnown reports whether t is one of the declared transaction types.
func (t TransactionType) IsKnown() bool {
	for _, known := range TransactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// AffectsQuantity reports whether the type moves units between holdings.
func (t TransactionType) AffectsQuantity() bool {
	switch t {
	case Issue, Transfer, Redemption, Cancellation:
		return true
	default:
		return false
	}
}

// TransactionStatus is the lifecycle state of a ledger record.
type TransactionStatus string

const (
	StatusPosted   TransactionStatus = "POSTED"
	StatusReversal TransactionStatus = "REVERSAL" // compensating entry created by a reversal
)

// Transaction is one immutable entry of an entity's ledger.
type Transaction struct {
	ID                      string            `json:"id"`
	EntityID                string            `json:"entityId"`
	SecurityClassID         string            `json:"securityClassId"`
	Type                    TransactionType   `json:"type"`
	ReasonCode              string            `json:"reasonCode,omitempty"`
	Quantity                decimal.Decimal   `json:"quantity"`                          // Always positive
	AmountPaidPerSecurity   *decimal.Decimal  `json:"amountPaidPerSecurity,omitempty"`   // Non-negative
	AmountUnpaidPerSecurity *decimal.Decimal  `json:"amountUnpaidPerSecurity,omitempty"` // Non-negative
	CurrencyCode            string            `json:"currencyCode"`
	FromMemberID            *string           `json:"fromMemberId,omitempty"`
	ToMemberID              *string           `json:"toMemberId,omitempty"`
	PostedDate              *time.Time        `json:"postedDate,omitempty"`
	SettlementDate          *time.Time        `json:"settlementDate,omitempty"`
	Reference               string            `json:"reference,omitempty"`
	Description             string            `json:"description,omitempty"`
	CertificateNumber       *string           `json:"certificateNumber,omitempty"`
	CertificateIssueDate    *time.Time        `json:"certificateIssueDate,omitempty"`
	Status                  TransactionStatus `json:"status"`
	ReversesID              *string           `json:"reversesId,omitempty"` // Set on compensating entries
	AuditFields
}

// EffectiveDate is the date the transaction takes effect: settlement date, else posted date.
// The zero time is returned when neither is set.
func (t Transaction) EffectiveDate() time.Time {
	if t.SettlementDate != nil {
		return *t.SettlementDate
	}
	if t.PostedDate != nil {
		return *t.PostedDate
	}
	return time.Time{}
}

// HasCertificate reports whether a certificate number has been assigned.
func (t Transaction) HasCertificate() bool {
	return t.CertificateNumber != nil && *t.CertificateNumber != ""
}

// From returns the source member ID or "" when the slot is empty.
func (t Transaction) From() string {
	if t.FromMemberID == nil {
		return ""
	}
	return *t.FromMemberID
}

// To returns the destination member ID or "" when the slot is empty.
func (t Transaction) To() string {
	if t.ToMemberID == nil {
		return ""
	}
	return *t.ToMemberID
}
