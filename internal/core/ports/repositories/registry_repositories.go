package repositories

import (
	"context"

	"github.com/SscSPs/securities_registry/internal/core/domain"
)

// RegistryReader provides the reference records transactions point at.
// Each Find method returns apperrors.ErrNotFound when the record is absent
// or belongs to another entity.
type RegistryReader interface {
	FindEntityByID(ctx context.Context, entityID string) (*domain.Entity, error)
	ListEntities(ctx context.Context) ([]domain.Entity, error)
	FindMemberByID(ctx context.Context, entityID, memberID string) (*domain.Member, error)
	FindSecurityClassByID(ctx context.Context, entityID, securityClassID string) (*domain.SecurityClass, error)
	FindTemplateByID(ctx context.Context, entityID, templateID string) (*domain.CertificateTemplate, error)
}
