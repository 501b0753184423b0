package dto

import (
	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/SscSPs/securities_registry/internal/core/ledger"
)

// HoldingsParams filters a holdings query. Empty fields match everything.
type HoldingsParams struct {
	MemberID        string `form:"memberId"`
	SecurityClassID string `form:"securityClassId"`
}

// RegisterHoldingsParams selects the entities of a cross-entity holdings query.
type RegisterHoldingsParams struct {
	EntityIDs []string `form:"entityId"` // Empty means every entity
}

// HoldingsResponse is the derived register of one entity.
type HoldingsResponse struct {
	EntityID  string           `json:"entityId"`
	Holdings  []domain.Holding `json:"holdings"`
	Applied   int              `json:"applied"`
	Unapplied []string         `json:"unapplied,omitempty"` // IDs of rescaling events not reflected in balances
}

// ToHoldingsResponse converts a ledger snapshot to its response form.
func ToHoldingsResponse(entityID string, snap *ledger.Snapshot) HoldingsResponse {
	resp := HoldingsResponse{
		EntityID: entityID,
		Holdings: snap.Holdings.List(),
		Applied:  snap.Applied,
	}
	for _, tx := range snap.Unapplied {
		resp.Unapplied = append(resp.Unapplied, tx.ID)
	}
	return resp
}
