package dto

import (
	"strings"
	"time"

	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest proposes a new ledger entry. Structural rules are enforced by the
// ledger validator, so binding only checks presence.
type CreateTransactionRequest struct {
	SecurityClassID         string           `json:"securityClassId" binding:"required"`
	Type                    string           `json:"type" binding:"required"`
	ReasonCode              string           `json:"reasonCode"`
	Quantity                decimal.Decimal  `json:"quantity"`
	AmountPaidPerSecurity   *decimal.Decimal `json:"amountPaidPerSecurity"`
	AmountUnpaidPerSecurity *decimal.Decimal `json:"amountUnpaidPerSecurity"`
	CurrencyCode            string           `json:"currencyCode" binding:"required"`
	FromMemberID            *string          `json:"fromMemberId"`
	ToMemberID              *string          `json:"toMemberId"`
	PostedDate              *time.Time       `json:"postedDate"`
	SettlementDate          *time.Time       `json:"settlementDate"`
	Reference               string           `json:"reference" binding:"max=200"`
	Description             string           `json:"description" binding:"max=1000"`
}

// ToDomain builds the candidate transaction for an entity. ID and audit fields are left to the service.
func (r CreateTransactionRequest) ToDomain(entityID string) domain.Transaction {
	return domain.Transaction{
		EntityID:                entityID,
		SecurityClassID:         strings.TrimSpace(r.SecurityClassID),
		Type:                    domain.TransactionType(r.Type),
		ReasonCode:              r.ReasonCode,
		Quantity:                r.Quantity,
		AmountPaidPerSecurity:   r.AmountPaidPerSecurity,
		AmountUnpaidPerSecurity: r.AmountUnpaidPerSecurity,
		CurrencyCode:            r.CurrencyCode,
		FromMemberID:            r.FromMemberID,
		ToMemberID:              r.ToMemberID,
		PostedDate:              r.PostedDate,
		SettlementDate:          r.SettlementDate,
		Reference:               r.Reference,
		Description:             r.Description,
	}
}

// ReverseTransactionRequest asks for a compensating entry.
type ReverseTransactionRequest struct {
	Reason         string     `json:"reason" binding:"required,max=500"`
	SettlementDate *time.Time `json:"settlementDate"` // Defaults to now
}

// ListTransactionsParams holds the paging parameters of a ledger listing.
type ListTransactionsParams struct {
	Limit     int     `form:"limit" binding:"omitempty,min=1,max=500"`
	NextToken *string `form:"nextToken"`
}

// TransactionResponse defines the data returned for a ledger entry.
type TransactionResponse struct {
	domain.Transaction
}

// ListTransactionsResponse is one page of the ledger.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(tx *domain.Transaction) TransactionResponse {
	return TransactionResponse{Transaction: *tx}
}

// ToTransactionResponses converts a slice of domain.Transaction to []TransactionResponse.
func ToTransactionResponses(txs []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txs))
	for i := range txs {
		responses[i] = ToTransactionResponse(&txs[i])
	}
	return responses
}
