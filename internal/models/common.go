package models

import "time"

// AuditFields are the audit columns carried by every ledger row.
type AuditFields struct {
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}
