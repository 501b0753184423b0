package pgsql

import (
	"context"

	"github.com/SscSPs/securities_registry/internal/core/domain"
	portsrepo "github.com/SscSPs/securities_registry/internal/core/ports/repositories"
	"github.com/SscSPs/securities_registry/internal/models"
	"github.com/SscSPs/securities_registry/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	findEntityQuery = `
		SELECT entity_id, name, entity_type, registration_number, address
		FROM entities
		WHERE entity_id = $1
	`

	listEntitiesQuery = `
		SELECT entity_id, name, entity_type, registration_number, address
		FROM entities
		ORDER BY entity_id COLLATE "C"
	`

	findMemberQuery = `
		SELECT member_id, entity_id, member_type, status, name, address
		FROM members
		WHERE entity_id = $1 AND member_id = $2
	`

	findSecurityClassQuery = `
		SELECT security_class_id, entity_id, name, symbol, voting_rights, dividend_rights, is_active, is_archived
		FROM security_classes
		WHERE entity_id = $1 AND security_class_id = $2
	`

	// Templates without an entity are shared by all entities.
	findTemplateQuery = `
		SELECT template_id, entity_id, name, body, version, updated_at
		FROM certificate_templates
		WHERE template_id = $2 AND (entity_id = $1 OR entity_id IS NULL)
	`

	upsertEntityQuery = `
		INSERT INTO entities (entity_id, name, entity_type, registration_number, address)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (entity_id) DO UPDATE
		SET name = EXCLUDED.name, entity_type = EXCLUDED.entity_type,
		    registration_number = EXCLUDED.registration_number, address = EXCLUDED.address
	`

	upsertMemberQuery = `
		INSERT INTO members (member_id, entity_id, member_type, status, name, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (member_id) DO UPDATE
		SET member_type = EXCLUDED.member_type, status = EXCLUDED.status,
		    name = EXCLUDED.name, address = EXCLUDED.address
	`

	upsertSecurityClassQuery = `
		INSERT INTO security_classes (security_class_id, entity_id, name, symbol, voting_rights, dividend_rights, is_active, is_archived)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (security_class_id) DO UPDATE
		SET name = EXCLUDED.name, symbol = EXCLUDED.symbol, voting_rights = EXCLUDED.voting_rights,
		    dividend_rights = EXCLUDED.dividend_rights, is_active = EXCLUDED.is_active, is_archived = EXCLUDED.is_archived
	`

	// A changed body bumps the version so cached documents of the old body are never served.
	upsertTemplateQuery = `
		INSERT INTO certificate_templates (template_id, entity_id, name, body, version, updated_at)
		VALUES ($1, $2, $3, $4, 1, NOW())
		ON CONFLICT (template_id) DO UPDATE
		SET name = EXCLUDED.name, body = EXCLUDED.body, updated_at = NOW(),
		    version = certificate_templates.version + CASE WHEN certificate_templates.body = EXCLUDED.body THEN 0 ELSE 1 END
	`
)

// PgxRegistryRepository reads the reference records that ledger entries point at.
type PgxRegistryRepository struct {
	BaseRepository
}

func newPgxRegistryRepository(pool *pgxpool.Pool) *PgxRegistryRepository {
	return &PgxRegistryRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RegistryReader = (*PgxRegistryRepository)(nil)

func scanEntity(row pgx.Row) (models.Entity, error) {
	var m models.Entity
	err := row.Scan(&m.EntityID, &m.Name, &m.EntityType, &m.RegistrationNumber, &m.Address)
	return m, err
}

func (r *PgxRegistryRepository) FindEntityByID(ctx context.Context, entityID string) (*domain.Entity, error) {
	m, err := scanEntity(r.Pool.QueryRow(ctx, findEntityQuery, entityID))
	if err != nil {
		return nil, translate(err, "entity "+entityID)
	}
	e := mapping.ToDomainEntity(m)
	return &e, nil
}

func (r *PgxRegistryRepository) ListEntities(ctx context.Context) ([]domain.Entity, error) {
	rows, err := r.Pool.Query(ctx, listEntitiesQuery)
	if err != nil {
		return nil, translate(err, "list entities")
	}
	defer rows.Close()

	var out []domain.Entity
	for rows.Next() {
		m, err := scanEntity(rows)
		if err != nil {
			return nil, translate(err, "scan entity")
		}
		out = append(out, mapping.ToDomainEntity(m))
	}
	return out, translate(rows.Err(), "list entities")
}

func (r *PgxRegistryRepository) FindMemberByID(ctx context.Context, entityID, memberID string) (*domain.Member, error) {
	var m models.Member
	err := r.Pool.QueryRow(ctx, findMemberQuery, entityID, memberID).Scan(
		&m.MemberID, &m.EntityID, &m.MemberType, &m.Status, &m.Name, &m.Address,
	)
	if err != nil {
		return nil, translate(err, "member "+memberID)
	}
	member := mapping.ToDomainMember(m)
	return &member, nil
}

func (r *PgxRegistryRepository) FindSecurityClassByID(ctx context.Context, entityID, securityClassID string) (*domain.SecurityClass, error) {
	var m models.SecurityClass
	err := r.Pool.QueryRow(ctx, findSecurityClassQuery, entityID, securityClassID).Scan(
		&m.SecurityClassID, &m.EntityID, &m.Name, &m.Symbol, &m.VotingRights, &m.DividendRights, &m.IsActive, &m.IsArchived,
	)
	if err != nil {
		return nil, translate(err, "security class "+securityClassID)
	}
	class := mapping.ToDomainSecurityClass(m)
	return &class, nil
}

func (r *PgxRegistryRepository) FindTemplateByID(ctx context.Context, entityID, templateID string) (*domain.CertificateTemplate, error) {
	var m models.CertificateTemplate
	err := r.Pool.QueryRow(ctx, findTemplateQuery, entityID, templateID).Scan(
		&m.TemplateID, &m.EntityID, &m.Name, &m.Body, &m.Version, &m.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err, "template "+templateID)
	}
	tpl := mapping.ToDomainTemplate(m)
	return &tpl, nil
}

// UpsertReferenceData writes reference records in one database transaction, inserting new
// rows and updating existing ones.
func (r *PgxRegistryRepository) UpsertReferenceData(
	ctx context.Context,
	entities []domain.Entity,
	members []domain.Member,
	classes []domain.SecurityClass,
	tpls []domain.CertificateTemplate,
) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) // no-op after commit

	batch := &pgx.Batch{}
	for _, d := range entities {
		m := mapping.ToModelEntity(d)
		batch.Queue(upsertEntityQuery, m.EntityID, m.Name, m.EntityType, m.RegistrationNumber, m.Address)
	}
	for _, d := range classes {
		m := mapping.ToModelSecurityClass(d)
		batch.Queue(upsertSecurityClassQuery, m.SecurityClassID, m.EntityID, m.Name, m.Symbol, m.VotingRights, m.DividendRights, m.IsActive, m.IsArchived)
	}
	for _, d := range members {
		m := mapping.ToModelMember(d)
		batch.Queue(upsertMemberQuery, m.MemberID, m.EntityID, m.MemberType, m.Status, m.Name, m.Address)
	}
	for _, d := range tpls {
		m := mapping.ToModelTemplate(d)
		batch.Queue(upsertTemplateQuery, m.TemplateID, m.EntityID, m.Name, m.Body)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return translate(err, "upsert reference data")
	}
	return r.Commit(ctx, tx)
}
