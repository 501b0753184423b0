package domain

import "time"

// AuditFields holds audit information for ledger records.
// Ledger records are append-only, so there is no last-updated pair.
type AuditFields struct {
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"` // UserID Reference
}

// Role is the permission level supplied by the authentication layer.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// rank orders roles so a higher role satisfies a lower requirement.
func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleEditor:
		return 2
	case RoleViewer:
		return 1
	default:
		return 0
	}
}

// Satisfies reports whether r grants at least the required role.
func (r Role) Satisfies(required Role) bool {
	return r.rank() >= required.rank() && r.rank() > 0
}
