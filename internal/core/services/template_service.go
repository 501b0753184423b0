package services

import (
	"context"

	portsrepo "github.com/SscSPs/securities_registry/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/securities_registry/internal/core/ports/services"
	"github.com/SscSPs/securities_registry/internal/core/templates"
)

type templateService struct {
	BaseService
	txRepo   portsrepo.TransactionReader
	registry portsrepo.RegistryReader
	engine   *templates.Engine
}

// NewTemplateService creates the template checking and preview service.
func NewTemplateService(txRepo portsrepo.TransactionReader, registry portsrepo.RegistryReader, engine *templates.Engine) portssvc.TemplateSvc {
	return &templateService{txRepo: txRepo, registry: registry, engine: engine}
}

var _ portssvc.TemplateSvc = (*templateService)(nil)

func (s *templateService) ValidateTemplateBody(ctx context.Context, body string) templates.TemplateCheck {
	check := s.engine.ValidateTemplate(body)
	if !check.IsValid {
		s.LogDebug(ctx, "Template body rejected", "errors", check.Errors)
	}
	return check
}

func (s *templateService) ValidateData(_ context.Context, data templates.CertificateData) templates.ValidationResult {
	return s.engine.Validate(data)
}

// PreviewTemplate substitutes a transaction's data into a stored template. Unlike document
// generation it works before a certificate number exists; missing values show their fallbacks.
func (s *templateService) PreviewTemplate(ctx context.Context, entityID, templateID, transactionID string) (*templates.RenderResult, error) {
	tpl, err := s.registry.FindTemplateByID(ctx, entityID, templateID)
	if err != nil {
		return nil, err
	}
	tx, err := s.txRepo.FindTransactionByID(ctx, entityID, transactionID)
	if err != nil {
		return nil, err
	}
	subject, err := loadSubject(ctx, s.registry, *tx)
	if err != nil {
		return nil, err
	}
	res := s.engine.Render(tpl.Body, templates.FromTransaction(*tx, subject))
	return &res, nil
}
