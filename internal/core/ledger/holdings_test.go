package ledger_test

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/SscSPs/securities_registry/internal/apperrors"
	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/SscSPs/securities_registry/internal/core/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func event(id string, typ domain.TransactionType, from, to string, qty int64, settled *time.Time) domain.Transaction {
	tx := baseTx(typ, from, to)
	tx.ID = id
	tx.Quantity = decimal.NewFromInt(qty)
	tx.SettlementDate = settled
	return tx
}

// scenario is the register history used by the worked examples:
// issue 1000 ORD to M1, transfer 400 to M2, redeem M1's remaining 600.
func scenario() []domain.Transaction {
	return []domain.Transaction{
		event("T1", domain.Issue, "", "M1", 1000, day(2025, 1, 1)),
		event("T2", domain.Transfer, "M1", "M2", 400, day(2025, 2, 1)),
		event("T3", domain.Redemption, "M1", "", 600, day(2025, 3, 1)),
	}
}

func TestComputeHoldings_Scenarios(t *testing.T) {
	log := scenario()

	snap, err := ledger.ComputeHoldings(log[:1], ledger.Filter{})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(snap.Holdings.Balance("M1", "ORD")), "scenario A")

	snap, err = ledger.ComputeHoldings(log[:2], ledger.Filter{})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(600).Equal(snap.Holdings.Balance("M1", "ORD")), "scenario B, M1")
	assert.True(t, decimal.NewFromInt(400).Equal(snap.Holdings.Balance("M2", "ORD")), "scenario B, M2")

	snap, err = ledger.ComputeHoldings(log, ledger.Filter{})
	require.NoError(t, err)
	assert.True(t, snap.Holdings.Balance("M1", "ORD").IsZero(), "scenario C")
	assert.True(t, decimal.NewFromInt(400).Equal(snap.Holdings.Balance("M2", "ORD")))
	assert.Equal(t, 3, snap.Applied)
}

func TestComputeHoldings_Deterministic(t *testing.T) {
	log := scenario()
	// Same-day events must fold by ID regardless of input order.
	log = append(log,
		event("T5", domain.Transfer, "M2", "M3", 100, day(2025, 4, 1)),
		event("T4", domain.Issue, "", "M2", 50, day(2025, 4, 1)),
		event("T6", domain.Transfer, "M2", "M3", 350, day(2025, 4, 1)),
	)

	first, err := ledger.ComputeHoldings(log, ledger.Filter{})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]domain.Transaction(nil), log...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		again, err := ledger.ComputeHoldings(shuffled, ledger.Filter{})
		require.NoError(t, err)
		assert.Equal(t, first.Holdings.List(), again.Holdings.List(), "iteration %d", i)
	}
}

func TestComputeHoldings_TransferConservesClassTotal(t *testing.T) {
	log := scenario()[:1]
	before, err := ledger.ComputeHoldings(log, ledger.Filter{})
	require.NoError(t, err)

	log = append(log, event("T2", domain.Transfer, "M1", "M2", 400, day(2025, 2, 1)))
	after, err := ledger.ComputeHoldings(log, ledger.Filter{})
	require.NoError(t, err)

	sumBefore := before.Holdings.Balance("M1", "ORD").Add(before.Holdings.Balance("M2", "ORD"))
	sumAfter := after.Holdings.Balance("M1", "ORD").Add(after.Holdings.Balance("M2", "ORD"))
	assert.True(t, sumBefore.Equal(sumAfter))
	assert.True(t, before.Holdings.ClassTotal("ORD").Equal(after.Holdings.ClassTotal("ORD")))
}

func TestComputeHoldings_Filter(t *testing.T) {
	log := scenario()
	other := event("P1", domain.Issue, "", "M1", 10, day(2025, 1, 5))
	other.SecurityClassID = "PREF"
	log = append(log, other)

	snap, err := ledger.ComputeHoldings(log, ledger.Filter{MemberID: "M2"})
	require.NoError(t, err)
	assert.Len(t, snap.Holdings, 1)
	assert.True(t, decimal.NewFromInt(400).Equal(snap.Holdings.Balance("M2", "ORD")))

	snap, err = ledger.ComputeHoldings(log, ledger.Filter{SecurityClassID: "PREF"})
	require.NoError(t, err)
	list := snap.Holdings.List()
	require.Len(t, list, 1)
	assert.Equal(t, domain.HoldingKey{MemberID: "M1", SecurityClassID: "PREF"}, list[0].HoldingKey)
	assert.True(t, decimal.NewFromInt(10).Equal(list[0].Balance))
}

func TestComputeHoldings_AmountOnlyAndRescalingEvents(t *testing.T) {
	log := scenario()[:2]
	paid := decimal.RequireFromString("0.10")
	roc := event("R1", domain.ReturnOfCapital, "M1", "", 600, day(2025, 2, 10))
	roc.AmountPaidPerSecurity = &paid
	split := event("S1", domain.Split, "", "", 2, day(2025, 2, 11))
	log = append(log, roc, split)

	snap, err := ledger.ComputeHoldings(log, ledger.Filter{})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(600).Equal(snap.Holdings.Balance("M1", "ORD")))
	assert.True(t, decimal.NewFromInt(400).Equal(snap.Holdings.Balance("M2", "ORD")))
	require.Len(t, snap.Unapplied, 1)
	assert.Equal(t, "S1", snap.Unapplied[0].ID)
}

func TestComputeHoldings_InsufficientBalance(t *testing.T) {
	log := append(scenario()[:1], event("T2", domain.Transfer, "M1", "M2", 1001, day(2025, 2, 1)))

	_, err := ledger.ComputeHoldings(log, ledger.Filter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	var ib *apperrors.InsufficientBalanceError
	require.True(t, errors.As(err, &ib))
	assert.Equal(t, "T2", ib.TransactionID)
	assert.Equal(t, "M1", ib.MemberID)
	assert.Equal(t, "-1", ib.Balance)
}

func TestComputeHoldings_InternalConsistency(t *testing.T) {
	tests := []domain.Transaction{
		event("X1", domain.Issue, "", "", 10, day(2025, 1, 1)),
		event("X2", domain.Transfer, "M1", "", 10, day(2025, 1, 1)),
		event("X3", domain.Redemption, "", "", 10, day(2025, 1, 1)),
		event("X4", "GIFT", "", "M1", 10, day(2025, 1, 1)),
		event("X5", domain.Issue, "", "M1", 0, day(2025, 1, 1)),
	}
	for _, tx := range tests {
		t.Run(fmt.Sprintf("%s %s", tx.ID, tx.Type), func(t *testing.T) {
			_, err := ledger.ComputeHoldings([]domain.Transaction{tx}, ledger.Filter{})
			var ic *apperrors.InternalConsistencyError
			require.True(t, errors.As(err, &ic), "got %v", err)
			assert.Equal(t, tx.ID, ic.TransactionID)
			assert.ErrorIs(t, err, apperrors.ErrInternalConsistency)
		})
	}
}

func TestCheckAppend(t *testing.T) {
	log := scenario()[:2] // M1 has 600, M2 has 400

	ok := event("T3", domain.Redemption, "M1", "", 600, day(2025, 3, 1))
	assert.NoError(t, ledger.CheckAppend(log, ok))

	tooMuch := event("T3", domain.Redemption, "M2", "", 401, day(2025, 3, 1))
	assert.ErrorIs(t, ledger.CheckAppend(log, tooMuch), apperrors.ErrInsufficientBalance)

	// Back-dated before the issue: M1 held nothing on that date.
	backdated := event("T0", domain.Transfer, "M1", "M3", 1, day(2024, 12, 31))
	assert.ErrorIs(t, ledger.CheckAppend(log, backdated), apperrors.ErrInsufficientBalance)

	// Holdings are per class: M1 never held PREF. Rescaling events are not checked.
	otherClass := event("P1", domain.Redemption, "M1", "", 5, day(2025, 3, 1))
	otherClass.SecurityClassID = "PREF"
	assert.ErrorIs(t, ledger.CheckAppend(log, otherClass), apperrors.ErrInsufficientBalance)
	split := event("S1", domain.Split, "", "", 2, day(2025, 3, 1))
	assert.NoError(t, ledger.CheckAppend(log, split))
}
