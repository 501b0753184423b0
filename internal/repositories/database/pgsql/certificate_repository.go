package pgsql

import (
	"context"

	"github.com/SscSPs/securities_registry/internal/core/domain"
	portsrepo "github.com/SscSPs/securities_registry/internal/core/ports/repositories"
	"github.com/SscSPs/securities_registry/internal/models"
	"github.com/SscSPs/securities_registry/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	insertCertificateDocumentQuery = `
		INSERT INTO certificate_documents (
			certificate_id, entity_id, transaction_id, certificate_number, issue_date,
			template_id, format, generated_at, file_size, checksum
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	listCertificateDocumentsQuery = `
		SELECT certificate_id, entity_id, transaction_id, certificate_number, issue_date,
		       template_id, format, generated_at, file_size, checksum
		FROM certificate_documents
		WHERE entity_id = $1 AND transaction_id = $2
		ORDER BY generated_at DESC
	`
)

// PgxCertificateRepository records generated certificate documents.
type PgxCertificateRepository struct {
	BaseRepository
}

func newPgxCertificateRepository(pool *pgxpool.Pool) portsrepo.CertificateRepositoryFacade {
	return &PgxCertificateRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.CertificateRepositoryFacade = (*PgxCertificateRepository)(nil)

func (r *PgxCertificateRepository) SaveCertificateMetadata(ctx context.Context, meta domain.CertificateMetadata) error {
	m := mapping.ToModelCertificateDocument(meta)
	_, err := r.Pool.Exec(ctx, insertCertificateDocumentQuery,
		m.CertificateID,
		m.EntityID,
		m.TransactionID,
		m.CertificateNumber,
		m.IssueDate,
		m.TemplateID,
		m.Format,
		m.GeneratedAt,
		m.FileSize,
		m.Checksum,
	)
	return translate(err, "save certificate "+meta.CertificateID)
}

func (r *PgxCertificateRepository) ListCertificateMetadata(ctx context.Context, entityID, transactionID string) ([]domain.CertificateMetadata, error) {
	rows, err := r.Pool.Query(ctx, listCertificateDocumentsQuery, entityID, transactionID)
	if err != nil {
		return nil, translate(err, "list certificates of "+transactionID)
	}
	defer rows.Close()

	var out []domain.CertificateMetadata
	for rows.Next() {
		var m models.CertificateDocument
		if err := rows.Scan(
			&m.CertificateID, &m.EntityID, &m.TransactionID, &m.CertificateNumber, &m.IssueDate,
			&m.TemplateID, &m.Format, &m.GeneratedAt, &m.FileSize, &m.Checksum,
		); err != nil {
			return nil, translate(err, "scan certificate")
		}
		out = append(out, mapping.ToDomainCertificateMetadata(m))
	}
	return out, translate(rows.Err(), "list certificates of "+transactionID)
}
