package dto

import (
	"time"

	"github.com/SscSPs/securities_registry/internal/core/domain"
)

// NumberFormat overrides the configured certificate number format. Zero values keep the defaults.
type NumberFormat struct {
	Prefix      *string `json:"prefix" form:"prefix" binding:"omitempty,max=20"`
	Suffix      *string `json:"suffix" form:"suffix" binding:"omitempty,max=20"`
	StartNumber *int    `json:"startNumber" form:"startNumber" binding:"omitempty,min=1,max=999999"`
}

// NextNumberParams previews the next certificate number of a year.
type NextNumberParams struct {
	NumberFormat
	Year int `form:"year" binding:"omitempty,min=1900,max=9999"` // Defaults to the current year
}

// NextNumberResponse carries a previewed number. Nothing is allocated.
type NextNumberResponse struct {
	EntityID          string `json:"entityId"`
	Year              int    `json:"year"`
	CertificateNumber string `json:"certificateNumber"`
}

// IssueCertificateRequest allocates a certificate number to a transaction and optionally
// generates its document.
type IssueCertificateRequest struct {
	NumberFormat
	IssueDate  *time.Time `json:"issueDate"`  // Defaults to now
	TemplateID string     `json:"templateId"` // When set, the document is generated straight away
}

// IssueCertificateResponse is the certificated transaction and, if generated, its document metadata.
// The number stays allocated when generation fails; DocumentError then says why.
type IssueCertificateResponse struct {
	Transaction   TransactionResponse         `json:"transaction"`
	Certificate   *domain.CertificateMetadata `json:"certificate,omitempty"`
	DocumentError string                      `json:"documentError,omitempty"`
}

// GenerateDocumentParams selects the template used to render a certificate.
type GenerateDocumentParams struct {
	TemplateID string `form:"templateId" binding:"required"`
}

// CertificateDocument is a generated document and its metadata.
type CertificateDocument struct {
	Metadata domain.CertificateMetadata
	Content  []byte
	Cached   bool
}
