package services

import (
	"context"

	"github.com/SscSPs/securities_registry/internal/core/templates"
)

// TemplateSvc validates certificate templates and the data rendered into them.
type TemplateSvc interface {
	// ValidateTemplateBody checks the placeholders of a template body.
	ValidateTemplateBody(ctx context.Context, body string) templates.TemplateCheck

	// ValidateData checks a certificate data bag against the field rules.
	ValidateData(ctx context.Context, data templates.CertificateData) templates.ValidationResult

	// PreviewTemplate substitutes a transaction's data into a stored template.
	PreviewTemplate(ctx context.Context, entityID, templateID, transactionID string) (*templates.RenderResult, error)
}
