package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/securities_registry/internal/apperrors"
	"github.com/SscSPs/securities_registry/internal/core/certificates"
	"github.com/SscSPs/securities_registry/internal/core/domain"
	portsrepo "github.com/SscSPs/securities_registry/internal/core/ports/repositories"
	"github.com/SscSPs/securities_registry/internal/models"
	"github.com/SscSPs/securities_registry/internal/utils/mapping"
	"github.com/SscSPs/securities_registry/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const maxPageSize = 500

const (
	transactionsTable = "transactions"

	selectTransactionFields = `
		transaction_id, entity_id, security_class_id, transaction_type, reason_code,
		quantity, amount_paid_per_security, amount_unpaid_per_security, currency_code,
		from_member_id, to_member_id, posted_date, settlement_date, reference, description,
		certificate_number, certificate_issue_date, status, reverses_id,
		created_at, created_by
	`

	// The ledger order: effective date, then ID compared bytewise.
	ledgerOrder = ` ORDER BY effective_date, transaction_id COLLATE "C"`

	insertTransactionQuery = `
		INSERT INTO ` + transactionsTable + ` (` + selectTransactionFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	findTransactionByIDQuery = `
		SELECT ` + selectTransactionFields + `
		FROM ` + transactionsTable + `
		WHERE entity_id = $1 AND transaction_id = $2
	`

	listTransactionsByEntityQuery = `
		SELECT ` + selectTransactionFields + `
		FROM ` + transactionsTable + `
		WHERE entity_id = $1` + ledgerOrder

	listTransactionsFirstPageQuery = `
		SELECT ` + selectTransactionFields + `
		FROM ` + transactionsTable + `
		WHERE entity_id = $1` + ledgerOrder + `
		LIMIT $2
	`

	listTransactionsNextPageQuery = `
		SELECT ` + selectTransactionFields + `
		FROM ` + transactionsTable + `
		WHERE entity_id = $1
		  AND (effective_date > $2 OR (effective_date = $2 AND transaction_id COLLATE "C" > $3))` + ledgerOrder + `
		LIMIT $4
	`

	listCertificatedByYearQuery = `
		SELECT ` + selectTransactionFields + `
		FROM ` + transactionsTable + `
		WHERE entity_id = $1
		  AND certificate_number IS NOT NULL
		  AND certificate_issue_date BETWEEN $2 AND $3
	`

	findReversalOfQuery = `
		SELECT ` + selectTransactionFields + `
		FROM ` + transactionsTable + `
		WHERE entity_id = $1 AND reverses_id = $2
	`

	assignCertificateQuery = `
		UPDATE ` + transactionsTable + `
		SET certificate_number = $3, certificate_issue_date = $4
		WHERE entity_id = $1 AND transaction_id = $2 AND certificate_number IS NULL
	`
)

// PgxTransactionRepository stores the append-only ledger.
type PgxTransactionRepository struct {
	BaseRepository
}

func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepositoryFacade {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.EntityID,
		&m.SecurityClassID,
		&m.TransactionType,
		&m.ReasonCode,
		&m.Quantity,
		&m.AmountPaidPerSecurity,
		&m.AmountUnpaidPerSecurity,
		&m.CurrencyCode,
		&m.FromMemberID,
		&m.ToMemberID,
		&m.PostedDate,
		&m.SettlementDate,
		&m.Reference,
		&m.Description,
		&m.CertificateNumber,
		&m.CertificateIssueDate,
		&m.Status,
		&m.ReversesID,
		&m.CreatedAt,
		&m.CreatedBy,
	)
	return m, err
}

func (r *PgxTransactionRepository) queryTransactions(ctx context.Context, what, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, what)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", what, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, what)
	}
	return mapping.ToDomainTransactions(out), nil
}

func (r *PgxTransactionRepository) findOne(ctx context.Context, what, query string, args ...any) (*domain.Transaction, error) {
	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translate(err, what)
	}
	tx := mapping.ToDomainTransaction(m)
	return &tx, nil
}

func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, entityID, transactionID string) (*domain.Transaction, error) {
	return r.findOne(ctx, "transaction "+transactionID, findTransactionByIDQuery, entityID, transactionID)
}

func (r *PgxTransactionRepository) ListTransactionsByEntity(ctx context.Context, entityID string) ([]domain.Transaction, error) {
	return r.queryTransactions(ctx, "ledger of "+entityID, listTransactionsByEntityQuery, entityID)
}

func (r *PgxTransactionRepository) ListTransactionsPage(ctx context.Context, entityID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	limit = pagination.NormalizeLimit(limit, maxPageSize)
	what := "ledger page of " + entityID

	// One extra row tells whether another page follows.
	var (
		txs []domain.Transaction
		err error
	)
	if nextToken != nil && *nextToken != "" {
		cursor, derr := pagination.DecodeToken(*nextToken)
		if derr != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, derr)
		}
		txs, err = r.queryTransactions(ctx, what, listTransactionsNextPageQuery, entityID, cursor.EffectiveDate, cursor.TransactionID, limit+1)
	} else {
		txs, err = r.queryTransactions(ctx, what, listTransactionsFirstPageQuery, entityID, limit+1)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(txs) <= limit {
		return txs, nil, nil
	}
	page := txs[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(pagination.Cursor{EffectiveDate: last.EffectiveDate(), TransactionID: last.ID})
	return page, &token, nil
}

func (r *PgxTransactionRepository) ListCertificatedByYear(ctx context.Context, entityID string, year int) ([]domain.Transaction, error) {
	from, to := certificates.YearBounds(year)
	return r.queryTransactions(ctx, fmt.Sprintf("certificates of %s in %d", entityID, year), listCertificatedByYearQuery, entityID, from, to)
}

func (r *PgxTransactionRepository) FindReversalOf(ctx context.Context, entityID, transactionID string) (*domain.Transaction, error) {
	return r.findOne(ctx, "reversal of "+transactionID, findReversalOfQuery, entityID, transactionID)
}

func (r *PgxTransactionRepository) AppendTransaction(ctx context.Context, tx domain.Transaction) error {
	m := mapping.ToModelTransaction(tx)
	_, err := r.Pool.Exec(ctx, insertTransactionQuery,
		m.TransactionID,
		m.EntityID,
		m.SecurityClassID,
		m.TransactionType,
		m.ReasonCode,
		m.Quantity,
		m.AmountPaidPerSecurity,
		m.AmountUnpaidPerSecurity,
		m.CurrencyCode,
		m.FromMemberID,
		m.ToMemberID,
		m.PostedDate,
		m.SettlementDate,
		m.Reference,
		m.Description,
		m.CertificateNumber,
		m.CertificateIssueDate,
		m.Status,
		m.ReversesID,
		m.CreatedAt,
		m.CreatedBy,
	)
	return translate(err, "append transaction "+tx.ID)
}

// AssignCertificate sets the certificate columns of a transaction that has none. The unique
// (entity_id, certificate_number) index rejects a number another writer got to first.
func (r *PgxTransactionRepository) AssignCertificate(ctx context.Context, entityID, transactionID, number string, issueDate time.Time) error {
	tag, err := r.Pool.Exec(ctx, assignCertificateQuery, entityID, transactionID, number, issueDate)
	if err != nil {
		return translate(err, "certificate number "+number)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	current, err := r.FindTransactionByID(ctx, entityID, transactionID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: transaction %s already has certificate %s", apperrors.ErrConflict, transactionID, *current.CertificateNumber)
}
