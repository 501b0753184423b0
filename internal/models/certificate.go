package models

import "time"

// CertificateDocument is a row of certificate_documents, one per generated document.
type CertificateDocument struct {
	CertificateID     string    `json:"certificateID"` // Primary Key
	EntityID          string    `json:"entityID"`
	TransactionID     string    `json:"transactionID"` // FK -> transactions.transaction_id
	CertificateNumber string    `json:"certificateNumber"`
	IssueDate         time.Time `json:"issueDate"`
	TemplateID        string    `json:"templateID"`
	Format            string    `json:"format"`
	GeneratedAt       time.Time `json:"generatedAt"`
	FileSize          int       `json:"fileSize"`
	Checksum          string    `json:"checksum"`
}
