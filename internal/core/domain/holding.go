package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// HoldingKey identifies a holding: one member's position in one security class.
type HoldingKey struct {
	MemberID        string `json:"memberId"`
	SecurityClassID string `json:"securityClassId"`
}

// Holding is a derived balance. It is recomputed from the ledger and never stored.
type Holding struct {
	HoldingKey
	Balance decimal.Decimal `json:"balance"`
}

// Holdings maps each key to its running balance.
type Holdings map[HoldingKey]decimal.Decimal

// Balance returns the balance for a member and class, zero if the pair never appeared.
func (h Holdings) Balance(memberID, securityClassID string) decimal.Decimal {
	return h[HoldingKey{MemberID: memberID, SecurityClassID: securityClassID}]
}

// List returns the holdings sorted by member then security class.
func (h Holdings) List() []Holding {
	out := make([]Holding, 0, len(h))
	for k, v := range h {
		out = append(out, Holding{HoldingKey: k, Balance: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MemberID != out[j].MemberID {
			return out[i].MemberID < out[j].MemberID
		}
		return out[i].SecurityClassID < out[j].SecurityClassID
	})
	return out
}

// ClassTotal sums every member's balance in a security class.
func (h Holdings) ClassTotal(securityClassID string) decimal.Decimal {
	total := decimal.Zero
	for k, v := range h {
		if k.SecurityClassID == securityClassID {
			total = total.Add(v)
		}
	}
	return total
}
