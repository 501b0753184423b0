package dto

// ValidateTemplateRequest carries a template body to check for placeholders.
type ValidateTemplateRequest struct {
	Body string `json:"body" binding:"required"`
}

// PreviewTemplateRequest renders a stored template against a transaction.
type PreviewTemplateRequest struct {
	TransactionID string `json:"transactionId" binding:"required"`
}
