package mapping

import (
	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/SscSPs/securities_registry/internal/models"
)

// ToModelTransaction converts a domain Transaction to a model Transaction
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID:           d.ID,
		EntityID:                d.EntityID,
		SecurityClassID:         d.SecurityClassID,
		TransactionType:         string(d.Type),
		ReasonCode:              nullable(d.ReasonCode),
		Quantity:                d.Quantity,
		AmountPaidPerSecurity:   d.AmountPaidPerSecurity,
		AmountUnpaidPerSecurity: d.AmountUnpaidPerSecurity,
		CurrencyCode:            d.CurrencyCode,
		FromMemberID:            nullable(d.From()),
		ToMemberID:              nullable(d.To()),
		PostedDate:              d.PostedDate,
		SettlementDate:          d.SettlementDate,
		Reference:               nullable(d.Reference),
		Description:             nullable(d.Description),
		CertificateNumber:       d.CertificateNumber,
		CertificateIssueDate:    d.CertificateIssueDate,
		Status:                  string(d.Status),
		ReversesID:              d.ReversesID,
		AuditFields:             ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransaction converts a model Transaction to a domain Transaction
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		ID:                      m.TransactionID,
		EntityID:                m.EntityID,
		SecurityClassID:         m.SecurityClassID,
		Type:                    domain.TransactionType(m.TransactionType),
		ReasonCode:              deref(m.ReasonCode),
		Quantity:                m.Quantity,
		AmountPaidPerSecurity:   m.AmountPaidPerSecurity,
		AmountUnpaidPerSecurity: m.AmountUnpaidPerSecurity,
		CurrencyCode:            m.CurrencyCode,
		FromMemberID:            m.FromMemberID,
		ToMemberID:              m.ToMemberID,
		PostedDate:              m.PostedDate,
		SettlementDate:          m.SettlementDate,
		Reference:               deref(m.Reference),
		Description:             deref(m.Description),
		CertificateNumber:       m.CertificateNumber,
		CertificateIssueDate:    m.CertificateIssueDate,
		Status:                  domain.TransactionStatus(m.Status),
		ReversesID:              m.ReversesID,
		AuditFields:             ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainTransactions converts a slice of model Transactions to domain Transactions
func ToDomainTransactions(ms []models.Transaction) []domain.Transaction {
	ds := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransaction(m)
	}
	return ds
}
