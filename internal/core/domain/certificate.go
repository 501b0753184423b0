package domain

import "time"

// CertificateSequenceState is the highest sequence number allocated for an entity in a year.
// It is derived by scanning the ledger, never stored independently.
type CertificateSequenceState struct {
	EntityID string `json:"entityId"`
	Year     int    `json:"year"`
	Highest  int    `json:"highest"` // 0 when nothing has been allocated yet
}

// DocumentFormat is the output format requested from the renderer.
type DocumentFormat string

const (
	FormatPDF  DocumentFormat = "pdf"
	FormatHTML DocumentFormat = "html"
)

// CertificateMetadata describes a generated certificate document.
type CertificateMetadata struct {
	CertificateID     string         `json:"certificateId"`
	EntityID          string         `json:"entityId"`
	TransactionID     string         `json:"transactionId"`
	CertificateNumber string         `json:"certificateNumber"`
	IssueDate         time.Time      `json:"issueDate"`
	TemplateID        string         `json:"templateId"`
	Format            DocumentFormat `json:"format"`
	GeneratedAt       time.Time      `json:"generatedAt"`
	FileSize          int            `json:"fileSize"`
	Checksum          string         `json:"checksum"` // hex SHA-256 of the document bytes
}
