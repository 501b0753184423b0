package services

import (
	"context"
	"fmt"

	"github.com/SscSPs/securities_registry/internal/apperrors"
	"github.com/SscSPs/securities_registry/internal/core/domain"
	portsrepo "github.com/SscSPs/securities_registry/internal/core/ports/repositories"
	"github.com/SscSPs/securities_registry/internal/core/templates"
)

// loadSubject fetches the records a certificate for tx is printed about. The member is the
// receiving one, or the source member for entries without a receiver.
func loadSubject(ctx context.Context, registry portsrepo.RegistryReader, tx domain.Transaction) (templates.Subject, error) {
	entity, err := registry.FindEntityByID(ctx, tx.EntityID)
	if err != nil {
		return templates.Subject{}, err
	}
	class, err := registry.FindSecurityClassByID(ctx, tx.EntityID, tx.SecurityClassID)
	if err != nil {
		return templates.Subject{}, err
	}

	memberID := tx.To()
	if memberID == "" {
		memberID = tx.From()
	}
	if memberID == "" {
		return templates.Subject{}, fmt.Errorf("%w: transaction %s names no member", apperrors.ErrValidation, tx.ID)
	}
	member, err := registry.FindMemberByID(ctx, tx.EntityID, memberID)
	if err != nil {
		return templates.Subject{}, err
	}
	return templates.Subject{Entity: *entity, Member: *member, Class: *class}, nil
}

// dataError turns a failed data validation into a structured validation error.
func dataError(res templates.ValidationResult) *apperrors.ValidationError {
	verr := &apperrors.ValidationError{}
	for _, name := range res.MissingVariables {
		verr.Add(name, apperrors.CodeMissingField, name+" is required")
	}
	required := make(map[string]bool)
	for _, name := range templates.RequiredFields() {
		required[name] = true
	}
	// Malformed optional fields are only warnings.
	for _, name := range res.InvalidFormats {
		if required[name] {
			verr.Add(name, apperrors.CodeInvalidCertificate, name+" has an invalid format")
		}
	}
	if !verr.HasViolations() {
		for _, msg := range res.Errors {
			verr.Add("certificateData", apperrors.CodeInvalidCertificate, msg)
		}
	}
	return verr
}
