package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/securities_registry/internal/apperrors"
	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/SscSPs/securities_registry/internal/core/ledger"
	portsrepo "github.com/SscSPs/securities_registry/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/securities_registry/internal/core/ports/services"
	"github.com/SscSPs/securities_registry/internal/dto"
	"github.com/SscSPs/securities_registry/internal/platform/lock"
)

// ReversalReasonCode marks compensating entries created by ReverseTransaction.
const ReversalReasonCode = "REVERSAL"

// newTransactionID returns an upper-case UUID, the form certificate templates accept.
func newTransactionID() string {
	return strings.ToUpper(uuid.NewString())
}

// transactionService validates proposed ledger entries and appends them.
type transactionService struct {
	BaseService
	txRepo    portsrepo.TransactionRepositoryFacade
	registry  portsrepo.RegistryReader
	validator *ledger.Validator
	locker    lock.Locker
	lockWait  time.Duration
	now       func() time.Time
	newID     func() string
}

// TransactionServiceOption is a function that configures a transactionService
type TransactionServiceOption func(*transactionService)

// WithTransactionClock overrides the clock used for posted dates and audit fields.
func WithTransactionClock(now func() time.Time) TransactionServiceOption {
	return func(s *transactionService) { s.now = now }
}

// WithTransactionIDs overrides the transaction ID generator.
func WithTransactionIDs(newID func() string) TransactionServiceOption {
	return func(s *transactionService) { s.newID = newID }
}

// WithLedgerLockWait bounds how long an append waits for the ledger lock.
func WithLedgerLockWait(wait time.Duration) TransactionServiceOption {
	return func(s *transactionService) { s.lockWait = wait }
}

// NewTransactionService creates a new ledger service.
func NewTransactionService(
	txRepo portsrepo.TransactionRepositoryFacade,
	registry portsrepo.RegistryReader,
	validator *ledger.Validator,
	locker lock.Locker,
	opts ...TransactionServiceOption,
) portssvc.TransactionSvcFacade {
	s := &transactionService{
		txRepo:    txRepo,
		registry:  registry,
		validator: validator,
		locker:    locker,
		now:       time.Now,
		newID:     newTransactionID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.TransactionSvcFacade = (*transactionService)(nil)

func (s *transactionService) GetTransaction(ctx context.Context, entityID, transactionID string) (*domain.Transaction, error) {
	tx, err := s.txRepo.FindTransactionByID(ctx, entityID, transactionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to get transaction", slog.String("transaction_id", transactionID))
		}
		return nil, err
	}
	return tx, nil
}

func (s *transactionService) ListTransactions(ctx context.Context, entityID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	if _, err := s.registry.FindEntityByID(ctx, entityID); err != nil {
		return nil, err
	}
	txs, next, err := s.txRepo.ListTransactionsPage(ctx, entityID, params.Limit, params.NextToken)
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidation) {
			s.LogError(ctx, err, "Failed to list transactions", slog.String("entity_id", entityID))
		}
		return nil, err
	}
	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txs),
		NextToken:    next,
	}, nil
}

// ValidateTransaction runs the structural, reference and balance checks of CreateTransaction.
func (s *transactionService) ValidateTransaction(ctx context.Context, entityID string, req dto.CreateTransactionRequest) (*domain.Transaction, error) {
	tx, err := s.prepare(ctx, entityID, req, "")
	if err != nil {
		return nil, err
	}
	if err := s.checkBalances(ctx, tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *transactionService) CreateTransaction(ctx context.Context, entityID string, req dto.CreateTransactionRequest, userID string) (*domain.Transaction, error) {
	tx, err := s.prepare(ctx, entityID, req, userID)
	if err != nil {
		return nil, err
	}
	if err := s.append(ctx, tx); err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Transaction appended",
		slog.String("entity_id", entityID),
		slog.String("transaction_id", tx.ID),
		slog.String("type", string(tx.Type)))
	return &tx, nil
}

// ReverseTransaction appends the compensating entry of a transaction. A transaction can be
// reversed once, and a compensating entry cannot itself be reversed.
func (s *transactionService) ReverseTransaction(ctx context.Context, entityID, transactionID string, req dto.ReverseTransactionRequest, userID string) (*domain.Transaction, error) {
	original, err := s.txRepo.FindTransactionByID(ctx, entityID, transactionID)
	if err != nil {
		return nil, err
	}
	if original.Status == domain.StatusReversal {
		return nil, fmt.Errorf("%w: transaction %s is a reversal and cannot be reversed", apperrors.ErrConflict, transactionID)
	}
	if _, err := s.txRepo.FindReversalOf(ctx, entityID, transactionID); err == nil {
		return nil, fmt.Errorf("%w: transaction %s is already reversed", apperrors.ErrConflict, transactionID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	reversal, err := compensate(*original)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	settled := now
	if req.SettlementDate != nil {
		settled = *req.SettlementDate
	}
	reversal.ID = s.newID()
	reversal.SettlementDate = &settled
	reversal.PostedDate = &now
	reversal.Description = req.Reason
	reversal.AuditFields = domain.AuditFields{CreatedAt: now, CreatedBy: userID}

	reversal, err = s.validator.Validate(reversal)
	if err != nil {
		return nil, err
	}
	if err := s.append(ctx, reversal); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: transaction %s is already reversed", apperrors.ErrConflict, transactionID)
		}
		return nil, err
	}
	s.LogInfo(ctx, "Transaction reversed",
		slog.String("entity_id", entityID),
		slog.String("transaction_id", transactionID),
		slog.String("reversal_id", reversal.ID))
	return &reversal, nil
}

// compensate builds the entry that undoes original's effect on holdings.
func compensate(original domain.Transaction) (domain.Transaction, error) {
	rev := domain.Transaction{
		EntityID:                original.EntityID,
		SecurityClassID:         original.SecurityClassID,
		ReasonCode:              ReversalReasonCode,
		Quantity:                original.Quantity,
		AmountPaidPerSecurity:   original.AmountPaidPerSecurity,
		AmountUnpaidPerSecurity: original.AmountUnpaidPerSecurity,
		CurrencyCode:            original.CurrencyCode,
		Reference:               original.ID,
		Status:                  domain.StatusReversal,
		ReversesID:              &original.ID,
	}
	switch original.Type {
	case domain.Issue:
		rev.Type = domain.Cancellation
		rev.FromMemberID = original.ToMemberID
	case domain.Transfer:
		rev.Type = domain.Transfer
		rev.FromMemberID, rev.ToMemberID = original.ToMemberID, original.FromMemberID
	case domain.Redemption, domain.Cancellation:
		rev.Type = domain.Issue
		rev.ToMemberID = original.FromMemberID
	case domain.ReturnOfCapital:
		rev.Type = domain.CapitalCall
		rev.FromMemberID = original.FromMemberID
	case domain.CapitalCall:
		rev.Type = domain.ReturnOfCapital
		rev.FromMemberID = original.FromMemberID
	default:
		return domain.Transaction{}, apperrors.NewValidationError("type", apperrors.CodeUnknownType,
			fmt.Sprintf("%s transactions cannot be reversed", original.Type))
	}
	return rev, nil
}

// prepare builds the candidate from a request and runs the structural and reference checks.
func (s *transactionService) prepare(ctx context.Context, entityID string, req dto.CreateTransactionRequest, userID string) (domain.Transaction, error) {
	if _, err := s.registry.FindEntityByID(ctx, entityID); err != nil {
		return domain.Transaction{}, err
	}

	now := s.now().UTC()
	candidate := req.ToDomain(entityID)
	candidate.ID = s.newID()
	if candidate.PostedDate == nil {
		candidate.PostedDate = &now
	}
	candidate.Status = domain.StatusPosted
	candidate.AuditFields = domain.AuditFields{CreatedAt: now, CreatedBy: userID}

	tx, err := s.validator.Validate(candidate)
	if err != nil {
		return domain.Transaction{}, err
	}
	if err := s.checkReferences(ctx, tx); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

// checkReferences verifies the security class and members exist for the entity. New holdings
// may only be credited to active members of an active class.
func (s *transactionService) checkReferences(ctx context.Context, tx domain.Transaction) error {
	verr := &apperrors.ValidationError{}

	class, err := s.registry.FindSecurityClassByID(ctx, tx.EntityID, tx.SecurityClassID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		verr.Add("securityClassId", apperrors.CodeUnknownReference, fmt.Sprintf("security class %s does not exist", tx.SecurityClassID))
	case err != nil:
		return err
	case !class.AcceptsTransactions():
		verr.Add("securityClassId", apperrors.CodeInactiveReference, fmt.Sprintf("security class %s is not active", tx.SecurityClassID))
	}

	if id := tx.From(); id != "" {
		if _, err := s.registry.FindMemberByID(ctx, tx.EntityID, id); errors.Is(err, apperrors.ErrNotFound) {
			verr.Add("fromMemberId", apperrors.CodeUnknownReference, fmt.Sprintf("member %s does not exist", id))
		} else if err != nil {
			return err
		}
	}
	if id := tx.To(); id != "" {
		member, err := s.registry.FindMemberByID(ctx, tx.EntityID, id)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			verr.Add("toMemberId", apperrors.CodeUnknownReference, fmt.Sprintf("member %s does not exist", id))
		case err != nil:
			return err
		case member.Status != domain.MemberActive:
			verr.Add("toMemberId", apperrors.CodeInactiveReference, fmt.Sprintf("member %s is not active", id))
		}
	}

	if verr.HasViolations() {
		return verr
	}
	return nil
}

// checkBalances folds the ledger with tx added and fails if any holding would go negative.
func (s *transactionService) checkBalances(ctx context.Context, tx domain.Transaction) error {
	log, err := s.txRepo.ListTransactionsByEntity(ctx, tx.EntityID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load ledger", slog.String("entity_id", tx.EntityID))
		return err
	}
	if err := ledger.CheckAppend(log, tx); err != nil {
		s.LogConsistency(ctx, err)
		return err
	}
	return nil
}

// append checks balances and persists tx while holding the ledger lock of its class.
func (s *transactionService) append(ctx context.Context, tx domain.Transaction) error {
	key := lock.LedgerKey(tx.EntityID, tx.SecurityClassID)
	unlock, err := s.acquire(ctx, s.locker, key, s.lockWait)
	if err != nil {
		return err
	}
	defer s.release(ctx, key, unlock)

	if err := s.checkBalances(ctx, tx); err != nil {
		return err
	}
	if err := s.txRepo.AppendTransaction(ctx, tx); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to append transaction", slog.String("transaction_id", tx.ID))
		}
		return err
	}
	return nil
}
