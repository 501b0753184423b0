package pgsql

import (
	portsrepo "github.com/SscSPs/securities_registry/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TransactionRepo: newPgxTransactionRepository(dbPool),
		RegistryRepo:    newPgxRegistryRepository(dbPool),
		CertificateRepo: newPgxCertificateRepository(dbPool),
	}
}

// NewRegistryRepository returns the registry repository, which also loads reference data.
func NewRegistryRepository(dbPool *pgxpool.Pool) *PgxRegistryRepository {
	return newPgxRegistryRepository(dbPool)
}
