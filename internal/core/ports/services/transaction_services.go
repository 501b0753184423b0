package services

import (
	"context"

	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/SscSPs/securities_registry/internal/dto"
)

// TransactionReaderSvc defines read operations over an entity's ledger.
type TransactionReaderSvc interface {
	// GetTransaction retrieves a single ledger entry.
	GetTransaction(ctx context.Context, entityID, transactionID string) (*domain.Transaction, error)

	// ListTransactions retrieves a page of the ledger.
	ListTransactions(ctx context.Context, entityID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// TransactionWriterSvc defines the ledger mutations. Records are never edited or deleted;
// corrections are compensating entries.
type TransactionWriterSvc interface {
	// ValidateTransaction runs every check CreateTransaction runs without persisting anything.
	ValidateTransaction(ctx context.Context, entityID string, req dto.CreateTransactionRequest) (*domain.Transaction, error)

	// CreateTransaction validates a proposed entry and appends it to the ledger.
	CreateTransaction(ctx context.Context, entityID string, req dto.CreateTransactionRequest, userID string) (*domain.Transaction, error)

	// ReverseTransaction appends the compensating entry of an existing transaction.
	ReverseTransaction(ctx context.Context, entityID, transactionID string, req dto.ReverseTransactionRequest, userID string) (*domain.Transaction, error)
}

// TransactionSvcFacade combines all ledger service interfaces.
type TransactionSvcFacade interface {
	TransactionReaderSvc
	TransactionWriterSvc
}
