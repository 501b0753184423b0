package services

import (
	"context"

	"github.com/SscSPs/securities_registry/internal/dto"
)

// CertificateNumberingSvc allocates certificate numbers.
type CertificateNumberingSvc interface {
	// PreviewNextNumber computes the number the next issuance would receive without allocating it.
	PreviewNextNumber(ctx context.Context, entityID string, params dto.NextNumberParams) (*dto.NextNumberResponse, error)

	// IssueCertificate allocates the next number to a transaction, serialised per entity and year.
	IssueCertificate(ctx context.Context, entityID, transactionID string, req dto.IssueCertificateRequest, userID string) (*dto.IssueCertificateResponse, error)
}

// CertificateDocumentSvc renders certificate documents.
type CertificateDocumentSvc interface {
	// GenerateDocument renders the certificate of a transaction with a template.
	GenerateDocument(ctx context.Context, entityID, transactionID, templateID string) (*dto.CertificateDocument, error)
}

// CertificateSvcFacade combines the certificate service interfaces.
type CertificateSvcFacade interface {
	CertificateNumberingSvc
	CertificateDocumentSvc
}
