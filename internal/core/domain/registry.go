package domain

import "time"

// Entity is the company or fund whose securities are registered.
type Entity struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Type               string `json:"type"` // e.g. "Company", "Trust"; free text
	RegistrationNumber string `json:"registrationNumber"`
	Address            string `json:"address"`
}

// MemberType distinguishes natural persons from organisations on the register.
type MemberType string

const (
	MemberIndividual MemberType = "Individual"
	MemberEntity     MemberType = "Entity"
)

// MemberStatus indicates whether a member may take part in new transactions.
type MemberStatus string

const (
	MemberActive   MemberStatus = "Active"
	MemberInactive MemberStatus = "Inactive"
)

// Member is a holder (or prospective holder) of securities of an entity.
type Member struct {
	ID       string       `json:"id"`
	EntityID string       `json:"entityId"`
	Type     MemberType   `json:"type"`
	Status   MemberStatus `json:"status"`
	Name     string       `json:"name"`
	Address  string       `json:"address"`
}

// SecurityClass is a class of securities issued by an entity (e.g. ordinary shares).
// Referenced, never owned, by transactions.
type SecurityClass struct {
	ID             string `json:"id"`
	EntityID       string `json:"entityId"`
	Name           string `json:"name"`
	Symbol         string `json:"symbol"`
	VotingRights   bool   `json:"votingRights"`
	DividendRights bool   `json:"dividendRights"`
	IsActive       bool   `json:"isActive"`
	IsArchived     bool   `json:"isArchived"`
}

// AcceptsTransactions reports whether new ledger entries may reference the class.
func (s SecurityClass) AcceptsTransactions() bool {
	return s.IsActive && !s.IsArchived
}

// CertificateTemplate is an HTML document with {{placeholder}} fields.
type CertificateTemplate struct {
	ID        string    `json:"id"`
	EntityID  string    `json:"entityId"`
	Name      string    `json:"name"`
	Body      string    `json:"body"`
	Version   int       `json:"version"` // Bumped on every edit; part of the render cache key
	UpdatedAt time.Time `json:"updatedAt"`
}
