package mapping

import (
	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/SscSPs/securities_registry/internal/models"
)

func ToModelEntity(d domain.Entity) models.Entity {
	return models.Entity{
		EntityID:           d.ID,
		Name:               d.Name,
		EntityType:         d.Type,
		RegistrationNumber: nullable(d.RegistrationNumber),
		Address:            nullable(d.Address),
	}
}

func ToDomainEntity(m models.Entity) domain.Entity {
	return domain.Entity{
		ID:                 m.EntityID,
		Name:               m.Name,
		Type:               m.EntityType,
		RegistrationNumber: deref(m.RegistrationNumber),
		Address:            deref(m.Address),
	}
}

func ToModelMember(d domain.Member) models.Member {
	return models.Member{
		MemberID:   d.ID,
		EntityID:   d.EntityID,
		MemberType: string(d.Type),
		Status:     string(d.Status),
		Name:       d.Name,
		Address:    nullable(d.Address),
	}
}

func ToDomainMember(m models.Member) domain.Member {
	return domain.Member{
		ID:       m.MemberID,
		EntityID: m.EntityID,
		Type:     domain.MemberType(m.MemberType),
		Status:   domain.MemberStatus(m.Status),
		Name:     m.Name,
		Address:  deref(m.Address),
	}
}

func ToModelSecurityClass(d domain.SecurityClass) models.SecurityClass {
	return models.SecurityClass{
		SecurityClassID: d.ID,
		EntityID:        d.EntityID,
		Name:            d.Name,
		Symbol:          nullable(d.Symbol),
		VotingRights:    d.VotingRights,
		DividendRights:  d.DividendRights,
		IsActive:        d.IsActive,
		IsArchived:      d.IsArchived,
	}
}

func ToDomainSecurityClass(m models.SecurityClass) domain.SecurityClass {
	return domain.SecurityClass{
		ID:             m.SecurityClassID,
		EntityID:       m.EntityID,
		Name:           m.Name,
		Symbol:         deref(m.Symbol),
		VotingRights:   m.VotingRights,
		DividendRights: m.DividendRights,
		IsActive:       m.IsActive,
		IsArchived:     m.IsArchived,
	}
}

// ToDomainTemplate converts a template row. Rows predating versioning read as version 1.
func ToDomainTemplate(m models.CertificateTemplate) domain.CertificateTemplate {
	version := m.Version
	if version < 1 {
		version = 1
	}
	return domain.CertificateTemplate{
		ID:        m.TemplateID,
		EntityID:  deref(m.EntityID),
		Name:      m.Name,
		Body:      m.Body,
		Version:   version,
		UpdatedAt: m.UpdatedAt,
	}
}

func ToModelTemplate(d domain.CertificateTemplate) models.CertificateTemplate {
	return models.CertificateTemplate{
		TemplateID: d.ID,
		EntityID:   nullable(d.EntityID),
		Name:       d.Name,
		Body:       d.Body,
		Version:    d.Version,
		UpdatedAt:  d.UpdatedAt,
	}
}
