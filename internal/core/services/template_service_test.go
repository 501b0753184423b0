package services_test

import (
	"context"
	"testing"

	"github.com/SscSPs/securities_registry/internal/apperrors"
	"github.com/SscSPs/securities_registry/internal/core/domain"
	portssvc "github.com/SscSPs/securities_registry/internal/core/ports/services"
	"github.com/SscSPs/securities_registry/internal/core/services"
	"github.com/SscSPs/securities_registry/internal/core/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTemplateService() (portssvc.TemplateSvc, context.Context) {
	store := seededStore()
	appendRaw(store, rawTx("TX-ISSUE", "ENT-1", "ORD", domain.Issue, "", "M1", 2500, 1))
	return services.NewTemplateService(store, store, templates.NewEngine(templates.WithClock(clock))), context.Background()
}

func TestTemplateService_ValidateTemplateBody(t *testing.T) {
	svc, ctx := newTemplateService()

	check := svc.ValidateTemplateBody(ctx, certificateBody)
	assert.True(t, check.IsValid)
	assert.Empty(t, check.Warnings)

	check = svc.ValidateTemplateBody(ctx, "<p>{{memberName}} {{signatory}}</p>")
	assert.False(t, check.IsValid)
	assert.Contains(t, check.Errors, "required placeholder {{entityName}} is missing")
	assert.Contains(t, check.Warnings, "unknown placeholder {{signatory}}")
}

func TestTemplateService_ValidateData(t *testing.T) {
	svc, ctx := newTemplateService()

	res := svc.ValidateData(ctx, templates.CertificateData{
		EntityName:        "Acme Holdings Pty Ltd",
		MemberName:        "Jane Citizen",
		TransactionID:     "tx-lower",
		TransactionDate:   "2025-01-01",
		SecurityName:      "Ordinary Shares",
		Quantity:          "100",
		TransactionAmount: "AUD 100.00",
	})
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"currency"}, res.MissingVariables)
	assert.Equal(t, []string{"transactionId"}, res.InvalidFormats)
	assert.Equal(t, "PENDING", res.FallbackValues["certificateNumber"])
	assert.Equal(t, "2025-06-30", res.FallbackValues["issueDate"])
}

func TestTemplateService_PreviewBeforeCertification(t *testing.T) {
	svc, ctx := newTemplateService()

	res, err := svc.PreviewTemplate(ctx, "ENT-1", "TPL", "TX-ISSUE")
	require.NoError(t, err)
	assert.Contains(t, res.Body, "Jane Citizen holds 2,500 Ordinary Shares")
	assert.Contains(t, res.Body, "Certificate PENDING issued 2025-06-30")
	assert.Empty(t, res.Unresolved)

	_, err = svc.PreviewTemplate(ctx, "ENT-1", "TPL", "TX-404")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = svc.PreviewTemplate(ctx, "ENT-2", "TPL", "TX-ISSUE")
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "templates are scoped to their entity")
}
