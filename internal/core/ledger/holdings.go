package ledger

import (
	"fmt"
	"sort"

	"github.com/SscSPs/securities_registry/internal/apperrors"
	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Filter narrows the holdings returned by ComputeHoldings. Empty fields match everything.
type Filter struct {
	MemberID        string
	SecurityClassID string
}

func (f Filter) matches(k domain.HoldingKey) bool {
	if f.MemberID != "" && f.MemberID != k.MemberID {
		return false
	}
	if f.SecurityClassID != "" && f.SecurityClassID != k.SecurityClassID {
		return false
	}
	return true
}

// Snapshot is the result of folding a ledger.
type Snapshot struct {
	Holdings domain.Holdings
	// Unapplied lists SPLIT and CONSOLIDATION transactions. Their rescaling effect is not
	// defined yet, so they are surfaced here instead of touching any balance.
	Unapplied []domain.Transaction
	// Applied is the number of transactions folded, in order.
	Applied int
}

// SortTransactions returns a copy of txs ordered by effective date, then ID.
// Two transactions sharing a timestamp always fold in the same order.
func SortTransactions(txs []domain.Transaction) []domain.Transaction {
	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := sorted[i].EffectiveDate(), sorted[j].EffectiveDate()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// ComputeHoldings folds the transactions into per-member, per-class balances.
//
// The input order is irrelevant: transactions are sorted by (effective date, ID) first.
// Balances are checked after every step; a negative balance yields an
// *apperrors.InsufficientBalanceError. A record that the validator should have rejected
// yields an *apperrors.InternalConsistencyError.
func ComputeHoldings(txs []domain.Transaction, filter Filter) (*Snapshot, error) {
	b := newBook()
	for _, tx := range SortTransactions(txs) {
		if filter.SecurityClassID != "" && tx.SecurityClassID != filter.SecurityClassID {
			continue
		}
		if err := b.apply(tx); err != nil {
			return nil, err
		}
	}

	snap := &Snapshot{Holdings: make(domain.Holdings), Unapplied: b.unapplied, Applied: b.applied}
	for k, v := range b.balances {
		if filter.matches(k) {
			snap.Holdings[k] = v
		}
	}
	return snap, nil
}

// CheckAppend reports whether candidate can join the ledger without driving any holding
// negative at any point in time. Back-dated candidates are checked against every later
// transaction, not just the final balance.
func CheckAppend(log []domain.Transaction, candidate domain.Transaction) error {
	if !candidate.Type.AffectsQuantity() {
		return nil
	}
	// Only the candidate's class can be affected.
	scoped := make([]domain.Transaction, 0, len(log)+1)
	for _, tx := range log {
		if tx.SecurityClassID == candidate.SecurityClassID {
			scoped = append(scoped, tx)
		}
	}
	scoped = append(scoped, candidate)
	_, err := ComputeHoldings(scoped, Filter{})
	return err
}

// book accumulates balances during a fold.
type book struct {
	balances  map[domain.HoldingKey]decimal.Decimal
	unapplied []domain.Transaction
	applied   int
}

func newBook() *book {
	return &book{balances: make(map[domain.HoldingKey]decimal.Decimal)}
}

func (b *book) apply(tx domain.Transaction) error {
	if !tx.Quantity.IsPositive() {
		return inconsistent(tx, fmt.Sprintf("non-positive quantity %s", tx.Quantity))
	}
	switch tx.Type {
	case domain.Issue:
		if tx.To() == "" {
			return inconsistent(tx, "issue without a receiving member")
		}
		b.credit(tx, tx.To())
	case domain.Transfer:
		if tx.From() == "" || tx.To() == "" {
			return inconsistent(tx, "transfer without both members")
		}
		if tx.From() == tx.To() {
			return inconsistent(tx, "transfer to the same member")
		}
		if err := b.debit(tx, tx.From()); err != nil {
			return err
		}
		b.credit(tx, tx.To())
	case domain.Redemption, domain.Cancellation:
		if tx.From() == "" {
			return inconsistent(tx, fmt.Sprintf("%s without a source member", tx.Type))
		}
		if err := b.debit(tx, tx.From()); err != nil {
			return err
		}
	case domain.ReturnOfCapital, domain.CapitalCall:
		// Amount-only events; units do not move.
	case domain.Split, domain.Consolidation:
		b.unapplied = append(b.unapplied, tx)
	default:
		return inconsistent(tx, "unknown transaction type")
	}
	b.applied++
	return nil
}

func (b *book) credit(tx domain.Transaction, memberID string) {
	key := domain.HoldingKey{MemberID: memberID, SecurityClassID: tx.SecurityClassID}
	b.balances[key] = b.balances[key].Add(tx.Quantity)
}

func (b *book) debit(tx domain.Transaction, memberID string) error {
	key := domain.HoldingKey{MemberID: memberID, SecurityClassID: tx.SecurityClassID}
	next := b.balances[key].Sub(tx.Quantity)
	if next.IsNegative() {
		return &apperrors.InsufficientBalanceError{
			TransactionID:   tx.ID,
			MemberID:        memberID,
			SecurityClassID: tx.SecurityClassID,
			Balance:         next.String(),
		}
	}
	b.balances[key] = next
	return nil
}

func inconsistent(tx domain.Transaction, reason string) error {
	return &apperrors.InternalConsistencyError{
		TransactionID: tx.ID,
		EntityID:      tx.EntityID,
		Type:          string(tx.Type),
		Reason:        reason,
	}
}
