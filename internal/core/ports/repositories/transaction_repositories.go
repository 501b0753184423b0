package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/securities_registry/internal/core/domain"
)

// TransactionReader defines read operations over an entity's ledger.
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction of an entity. Returns apperrors.ErrNotFound if absent.
	FindTransactionByID(ctx context.Context, entityID, transactionID string) (*domain.Transaction, error)

	// ListTransactionsByEntity returns the entity's whole ledger in (effective date, ID) order.
	ListTransactionsByEntity(ctx context.Context, entityID string) ([]domain.Transaction, error)

	// ListTransactionsPage retrieves a page of the ledger using token-based pagination.
	// It returns the transactions, a token for the next page, and an error.
	ListTransactionsPage(ctx context.Context, entityID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)

	// ListCertificatedByYear returns the transactions of an entity carrying a certificate issued in year.
	ListCertificatedByYear(ctx context.Context, entityID string, year int) ([]domain.Transaction, error)

	// FindReversalOf returns the compensating entry of a transaction, or apperrors.ErrNotFound.
	FindReversalOf(ctx context.Context, entityID, transactionID string) (*domain.Transaction, error)
}

// TransactionWriter defines the only mutations the ledger accepts: appends and one-time
// certificate assignment. There is no update or delete.
type TransactionWriter interface {
	// AppendTransaction persists a new record. Returns apperrors.ErrDuplicate when the ID is
	// taken or the reversed transaction already has a reversal.
	AppendTransaction(ctx context.Context, tx domain.Transaction) error

	// AssignCertificate sets the certificate number and issue date of a transaction.
	// Returns apperrors.ErrDuplicate when the number is already used by the entity and
	// apperrors.ErrConflict when the transaction already carries a certificate.
	AssignCertificate(ctx context.Context, entityID, transactionID, number string, issueDate time.Time) error
}

// TransactionRepositoryFacade combines all ledger repository interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}
