package services

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/SscSPs/securities_registry/internal/core/ledger"
	portsrepo "github.com/SscSPs/securities_registry/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/securities_registry/internal/core/ports/services"
	"github.com/SscSPs/securities_registry/internal/dto"
)

// holdingsService derives registers by folding ledgers on demand. Nothing is cached.
type holdingsService struct {
	BaseService
	txRepo      portsrepo.TransactionReader
	registry    portsrepo.RegistryReader
	concurrency int
}

// NewHoldingsService creates a holdings service that folds at most concurrency ledgers at once
// when several entities are requested.
func NewHoldingsService(txRepo portsrepo.TransactionReader, registry portsrepo.RegistryReader, concurrency int) portssvc.HoldingsSvc {
	if concurrency < 1 {
		concurrency = 1
	}
	return &holdingsService{txRepo: txRepo, registry: registry, concurrency: concurrency}
}

var _ portssvc.HoldingsSvc = (*holdingsService)(nil)

func (s *holdingsService) GetHoldings(ctx context.Context, entityID string, params dto.HoldingsParams) (*ledger.Snapshot, error) {
	if _, err := s.registry.FindEntityByID(ctx, entityID); err != nil {
		return nil, err
	}
	return s.fold(ctx, entityID, ledger.Filter{MemberID: params.MemberID, SecurityClassID: params.SecurityClassID})
}

func (s *holdingsService) GetRegisterHoldings(ctx context.Context, entityIDs []string) ([]dto.HoldingsResponse, error) {
	if len(entityIDs) == 0 {
		entities, err := s.registry.ListEntities(ctx)
		if err != nil {
			s.LogError(ctx, err, "Failed to list entities")
			return nil, err
		}
		for _, e := range entities {
			entityIDs = append(entityIDs, e.ID)
		}
	}

	results := make([]dto.HoldingsResponse, len(entityIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, entityID := range entityIDs {
		i, entityID := i, entityID
		g.Go(func() error {
			if _, err := s.registry.FindEntityByID(gctx, entityID); err != nil {
				return err
			}
			snap, err := s.fold(gctx, entityID, ledger.Filter{})
			if err != nil {
				return err
			}
			results[i] = dto.ToHoldingsResponse(entityID, snap)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *holdingsService) fold(ctx context.Context, entityID string, filter ledger.Filter) (*ledger.Snapshot, error) {
	log, err := s.txRepo.ListTransactionsByEntity(ctx, entityID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load ledger", slog.String("entity_id", entityID))
		return nil, err
	}
	snap, err := ledger.ComputeHoldings(log, filter)
	if err != nil {
		if !s.LogConsistency(ctx, err) {
			// A stored ledger that goes negative was accepted by a broken check.
			s.LogError(ctx, err, "Stored ledger does not fold", slog.String("entity_id", entityID))
		}
		return nil, err
	}
	if len(snap.Unapplied) > 0 {
		s.LogDebug(ctx, "Rescaling events not reflected in holdings",
			slog.String("entity_id", entityID), slog.Int("count", len(snap.Unapplied)))
	}
	return snap, nil
}
