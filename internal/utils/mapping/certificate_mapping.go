package mapping

import (
	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/SscSPs/securities_registry/internal/models"
)

// ToModelCertificateDocument converts domain certificate metadata to its row form
func ToModelCertificateDocument(d domain.CertificateMetadata) models.CertificateDocument {
	return models.CertificateDocument{
		CertificateID:     d.CertificateID,
		EntityID:          d.EntityID,
		TransactionID:     d.TransactionID,
		CertificateNumber: d.CertificateNumber,
		IssueDate:         d.IssueDate,
		TemplateID:        d.TemplateID,
		Format:            string(d.Format),
		GeneratedAt:       d.GeneratedAt,
		FileSize:          d.FileSize,
		Checksum:          d.Checksum,
	}
}

// ToDomainCertificateMetadata converts a certificate_documents row to domain metadata
func ToDomainCertificateMetadata(m models.CertificateDocument) domain.CertificateMetadata {
	return domain.CertificateMetadata{
		CertificateID:     m.CertificateID,
		EntityID:          m.EntityID,
		TransactionID:     m.TransactionID,
		CertificateNumber: m.CertificateNumber,
		IssueDate:         m.IssueDate,
		TemplateID:        m.TemplateID,
		Format:            domain.DocumentFormat(m.Format),
		GeneratedAt:       m.GeneratedAt,
		FileSize:          m.FileSize,
		Checksum:          m.Checksum,
	}
}
