package repositories

import (
	"context"

	"github.com/SscSPs/securities_registry/internal/core/domain"
)

// CertificateWriter records generated certificate documents.
type CertificateWriter interface {
	SaveCertificateMetadata(ctx context.Context, meta domain.CertificateMetadata) error
}

// CertificateReader lists documents generated for a transaction, newest first.
type CertificateReader interface {
	ListCertificateMetadata(ctx context.Context, entityID, transactionID string) ([]domain.CertificateMetadata, error)
}

// CertificateRepositoryFacade combines the certificate metadata interfaces.
type CertificateRepositoryFacade interface {
	CertificateReader
	CertificateWriter
}
