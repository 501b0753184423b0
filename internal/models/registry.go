package models

import "time"

type Entity struct {
	EntityID           string  `json:"entityID"`
	Name               string  `json:"name"`
	EntityType         string  `json:"entityType"`
	RegistrationNumber *string `json:"registrationNumber"`
	Address            *string `json:"address"`
}

type Member struct {
	MemberID   string  `json:"memberID"`
	EntityID   string  `json:"entityID"`
	MemberType string  `json:"memberType"`
	Status     string  `json:"status"`
	Name       string  `json:"name"`
	Address    *string `json:"address"`
}

type SecurityClass struct {
	SecurityClassID string  `json:"securityClassID"`
	EntityID        string  `json:"entityID"`
	Name            string  `json:"name"`
	Symbol          *string `json:"symbol"`
	VotingRights    bool    `json:"votingRights"`
	DividendRights  bool    `json:"dividendRights"`
	IsActive        bool    `json:"isActive"`
	IsArchived      bool    `json:"isArchived"`
}

// CertificateTemplate is a row of certificate_templates. A NULL entity makes the template
// available to every entity.
type CertificateTemplate struct {
	TemplateID string    `json:"templateID"`
	EntityID   *string   `json:"entityID"`
	Name       string    `json:"name"`
	Body       string    `json:"body"`
	Version    int       `json:"version"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
