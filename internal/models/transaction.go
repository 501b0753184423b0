package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a row of the transactions table. Empty member slots are NULL.
type Transaction struct {
	TransactionID           string           `json:"transactionID"`   // Primary Key
	EntityID                string           `json:"entityID"`        // FK -> entities.entity_id
	SecurityClassID         string           `json:"securityClassID"` // FK -> security_classes.security_class_id
	TransactionType         string           `json:"transactionType"`
	ReasonCode              *string          `json:"reasonCode"`
	Quantity                decimal.Decimal  `json:"quantity"` // numeric(30,10)
	AmountPaidPerSecurity   *decimal.Decimal `json:"amountPaidPerSecurity"`
	AmountUnpaidPerSecurity *decimal.Decimal `json:"amountUnpaidPerSecurity"`
	CurrencyCode            string           `json:"currencyCode"`
	FromMemberID            *string          `json:"fromMemberID"`
	ToMemberID              *string          `json:"toMemberID"`
	PostedDate              *time.Time       `json:"postedDate"`
	SettlementDate          *time.Time       `json:"settlementDate"`
	Reference               *string          `json:"reference"`
	Description             *string          `json:"description"`
	CertificateNumber       *string          `json:"certificateNumber"` // Unique per entity
	CertificateIssueDate    *time.Time       `json:"certificateIssueDate"`
	Status                  string           `json:"status"`
	ReversesID              *string          `json:"reversesID"` // Unique; one reversal per transaction
	AuditFields
}
