package templates

import (
	"fmt"

	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Subject groups the reference records a certificate is printed for.
type Subject struct {
	Entity domain.Entity
	Member domain.Member
	Class  domain.SecurityClass
}

// FromTransaction assembles the data bag for a certificate evidencing tx.
// Optional fields left empty here are filled from fallbacks at render time.
func FromTransaction(tx domain.Transaction, s Subject) CertificateData {
	d := CertificateData{
		EntityName:         s.Entity.Name,
		EntityType:         s.Entity.Type,
		EntityAddress:      s.Entity.Address,
		RegistrationNumber: s.Entity.RegistrationNumber,
		MemberName:         s.Member.Name,
		MemberType:         string(s.Member.Type),
		MemberAddress:      s.Member.Address,
		TransactionID:      tx.ID,
		TransactionType:    string(tx.Type),
		SecurityName:       s.Class.Name,
		SecuritySymbol:     s.Class.Symbol,
		Quantity:           tx.Quantity.String(),
		Currency:           tx.CurrencyCode,
		Reference:          tx.Reference,
	}
	if date := tx.EffectiveDate(); !date.IsZero() {
		d.TransactionDate = date.UTC().Format(dateLayout)
	}

	paid := decimal.Zero
	if tx.AmountPaidPerSecurity != nil {
		paid = *tx.AmountPaidPerSecurity
		d.AmountPaidPerSecurity = paid.StringFixed(2)
	}
	if tx.AmountUnpaidPerSecurity != nil {
		d.AmountUnpaidPerSecurity = tx.AmountUnpaidPerSecurity.StringFixed(2)
	}
	if tx.CurrencyCode != "" {
		d.TransactionAmount = fmt.Sprintf("%s %s", tx.CurrencyCode, tx.Quantity.Mul(paid).StringFixed(2))
	}

	if tx.CertificateNumber != nil {
		d.CertificateNumber = *tx.CertificateNumber
	}
	if tx.CertificateIssueDate != nil {
		d.IssueDate = tx.CertificateIssueDate.UTC().Format(dateLayout)
	}
	return d
}
