package services

import (
	"context"

	"github.com/SscSPs/securities_registry/internal/core/ledger"
	"github.com/SscSPs/securities_registry/internal/dto"
)

// HoldingsSvc derives registers from the ledger.
type HoldingsSvc interface {
	// GetHoldings folds an entity's ledger into per-member, per-class balances.
	GetHoldings(ctx context.Context, entityID string, params dto.HoldingsParams) (*ledger.Snapshot, error)

	// GetRegisterHoldings derives the registers of several entities concurrently.
	// An empty list means every entity.
	GetRegisterHoldings(ctx context.Context, entityIDs []string) ([]dto.HoldingsResponse, error)
}
