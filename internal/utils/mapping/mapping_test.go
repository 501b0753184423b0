package mapping

import (
	"testing"
	"time"

	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionMapping_EmptyOptionalsAreNull(t *testing.T) {
	to := "M1"
	settled := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tx := domain.Transaction{
		ID:              "TX-1",
		EntityID:        "ENT-1",
		SecurityClassID: "ORD",
		Type:            domain.Issue,
		Quantity:        decimal.NewFromInt(100),
		CurrencyCode:    "AUD",
		ToMemberID:      &to,
		SettlementDate:  &settled,
		Status:          domain.StatusPosted,
		AuditFields:     domain.AuditFields{CreatedAt: settled, CreatedBy: "user-1"},
	}

	row := ToModelTransaction(tx)
	assert.Nil(t, row.FromMemberID)
	assert.Nil(t, row.ReasonCode)
	assert.Nil(t, row.Reference)
	assert.Equal(t, "M1", *row.ToMemberID)
	assert.Equal(t, "ISSUE", row.TransactionType)

	assert.Equal(t, tx, ToDomainTransaction(row))
}

func TestTransactionMapping_EmptyMemberPointerIsNull(t *testing.T) {
	empty := ""
	row := ToModelTransaction(domain.Transaction{FromMemberID: &empty})
	assert.Nil(t, row.FromMemberID)
}

func TestTemplateMapping_SharedTemplates(t *testing.T) {
	shared := ToModelTemplate(domain.CertificateTemplate{ID: "TPL", Body: "x", Version: 3})
	assert.Nil(t, shared.EntityID)

	legacy := ToDomainTemplate(shared)
	assert.Equal(t, 3, legacy.Version)
	shared.Version = 0
	assert.Equal(t, 1, ToDomainTemplate(shared).Version)
}
