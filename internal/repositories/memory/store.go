// Package memory is an in-process implementation of the repository ports. It backs tests and
// single-node deployments started with STORE_BACKEND=memory.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/securities_registry/internal/apperrors"
	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/SscSPs/securities_registry/internal/core/ledger"
	portsrepo "github.com/SscSPs/securities_registry/internal/core/ports/repositories"
	"github.com/SscSPs/securities_registry/internal/utils/pagination"
)

const maxPageSize = 500

type certKey struct {
	entityID string
	number   string
}

// Store keeps reference data, the ledger and certificate metadata in maps guarded by one lock.
type Store struct {
	mu sync.RWMutex

	entities  map[string]domain.Entity
	members   map[string]domain.Member
	classes   map[string]domain.SecurityClass
	templates map[string]domain.CertificateTemplate

	transactions map[string][]domain.Transaction // by entity, in append order
	txIndex      map[string]int                  // transaction ID -> position in its entity's slice
	certNumbers  map[certKey]string              // -> transaction ID
	reversals    map[string]string               // reversed transaction ID -> reversal ID
	certificates map[string][]domain.CertificateMetadata
}

var (
	_ portsrepo.TransactionRepositoryFacade = (*Store)(nil)
	_ portsrepo.RegistryReader              = (*Store)(nil)
	_ portsrepo.CertificateRepositoryFacade = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		entities:     make(map[string]domain.Entity),
		members:      make(map[string]domain.Member),
		classes:      make(map[string]domain.SecurityClass),
		templates:    make(map[string]domain.CertificateTemplate),
		transactions: make(map[string][]domain.Transaction),
		txIndex:      make(map[string]int),
		certNumbers:  make(map[certKey]string),
		reversals:    make(map[string]string),
		certificates: make(map[string][]domain.CertificateMetadata),
	}
}

// NewRepositoryProvider exposes one store through every repository port.
func NewRepositoryProvider(s *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TransactionRepo: s,
		RegistryRepo:    s,
		CertificateRepo: s,
	}
}

// Seed is the reference data a store can be loaded with.
type Seed struct {
	Entities        []domain.Entity              `json:"entities"`
	Members         []domain.Member              `json:"members"`
	SecurityClasses []domain.SecurityClass       `json:"securityClasses"`
	Templates       []domain.CertificateTemplate `json:"templates"`
}

// ReadSeed decodes a JSON Seed document.
func ReadSeed(r io.Reader) (Seed, error) {
	var seed Seed
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return Seed{}, fmt.Errorf("decoding seed: %w", err)
	}
	return seed, nil
}

// LoadSeed reads a JSON Seed document into the store.
func (s *Store) LoadSeed(r io.Reader) error {
	seed, err := ReadSeed(r)
	if err != nil {
		return err
	}
	s.Put(seed)
	return nil
}

// Put adds or replaces reference records.
func (s *Store) Put(seed Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range seed.Entities {
		s.entities[e.ID] = e
	}
	for _, m := range seed.Members {
		s.members[m.ID] = m
	}
	for _, c := range seed.SecurityClasses {
		s.classes[c.ID] = c
	}
	for _, t := range seed.Templates {
		if t.Version == 0 {
			t.Version = 1
		}
		s.templates[t.ID] = t
	}
}

// --- RegistryReader ---

func (s *Store) FindEntityByID(_ context.Context, entityID string) (*domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[entityID]
	if !ok {
		return nil, fmt.Errorf("%w: entity %s", apperrors.ErrNotFound, entityID)
	}
	return &e, nil
}

func (s *Store) ListEntities(_ context.Context) ([]domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) FindMemberByID(_ context.Context, entityID, memberID string) (*domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[memberID]
	if !ok || m.EntityID != entityID {
		return nil, fmt.Errorf("%w: member %s", apperrors.ErrNotFound, memberID)
	}
	return &m, nil
}

func (s *Store) FindSecurityClassByID(_ context.Context, entityID, securityClassID string) (*domain.SecurityClass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.classes[securityClassID]
	if !ok || c.EntityID != entityID {
		return nil, fmt.Errorf("%w: security class %s", apperrors.ErrNotFound, securityClassID)
	}
	return &c, nil
}

func (s *Store) FindTemplateByID(_ context.Context, entityID, templateID string) (*domain.CertificateTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[templateID]
	if !ok || (t.EntityID != "" && t.EntityID != entityID) {
		return nil, fmt.Errorf("%w: template %s", apperrors.ErrNotFound, templateID)
	}
	return &t, nil
}

// --- TransactionReader ---

func (s *Store) FindTransactionByID(_ context.Context, entityID, transactionID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.find(entityID, transactionID)
}

func (s *Store) find(entityID, transactionID string) (*domain.Transaction, error) {
	i, ok := s.txIndex[transactionID]
	log := s.transactions[entityID]
	if !ok || i >= len(log) || log[i].ID != transactionID {
		return nil, fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
	}
	tx := log[i]
	return &tx, nil
}

func (s *Store) ListTransactionsByEntity(_ context.Context, entityID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ledger.SortTransactions(s.transactions[entityID]), nil
}

func (s *Store) ListTransactionsPage(_ context.Context, entityID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	limit = pagination.NormalizeLimit(limit, maxPageSize)
	var cursor *pagination.Cursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursor = &c
	}

	s.mu.RLock()
	sorted := ledger.SortTransactions(s.transactions[entityID])
	s.mu.RUnlock()

	page := make([]domain.Transaction, 0, limit)
	for _, tx := range sorted {
		if cursor != nil && !cursor.After(tx.EffectiveDate(), tx.ID) {
			continue
		}
		if len(page) == limit {
			last := page[len(page)-1]
			token := pagination.EncodeToken(pagination.Cursor{EffectiveDate: last.EffectiveDate(), TransactionID: last.ID})
			return page, &token, nil
		}
		page = append(page, tx)
	}
	return page, nil, nil
}

func (s *Store) ListCertificatedByYear(_ context.Context, entityID string, year int) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Transaction
	for _, tx := range s.transactions[entityID] {
		if tx.HasCertificate() && tx.CertificateIssueDate != nil && tx.CertificateIssueDate.UTC().Year() == year {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Store) FindReversalOf(_ context.Context, entityID, transactionID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.reversals[transactionID]
	if !ok {
		return nil, fmt.Errorf("%w: reversal of %s", apperrors.ErrNotFound, transactionID)
	}
	return s.find(entityID, id)
}

// --- TransactionWriter ---

func (s *Store) AppendTransaction(_ context.Context, tx domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.txIndex[tx.ID]; exists {
		return fmt.Errorf("%w: transaction %s", apperrors.ErrDuplicate, tx.ID)
	}
	if tx.ReversesID != nil {
		if _, exists := s.reversals[*tx.ReversesID]; exists {
			return fmt.Errorf("%w: transaction %s is already reversed", apperrors.ErrDuplicate, *tx.ReversesID)
		}
	}
	if tx.HasCertificate() {
		key := certKey{entityID: tx.EntityID, number: *tx.CertificateNumber}
		if _, taken := s.certNumbers[key]; taken {
			return fmt.Errorf("%w: certificate number %s", apperrors.ErrDuplicate, key.number)
		}
		s.certNumbers[key] = tx.ID
	}
	if tx.ReversesID != nil {
		s.reversals[*tx.ReversesID] = tx.ID
	}
	s.txIndex[tx.ID] = len(s.transactions[tx.EntityID])
	s.transactions[tx.EntityID] = append(s.transactions[tx.EntityID], tx)
	return nil
}

func (s *Store) AssignCertificate(_ context.Context, entityID, transactionID, number string, issueDate time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.find(entityID, transactionID)
	if err != nil {
		return err
	}
	if current.HasCertificate() {
		return fmt.Errorf("%w: transaction %s already has certificate %s", apperrors.ErrConflict, transactionID, *current.CertificateNumber)
	}
	key := certKey{entityID: entityID, number: number}
	if _, taken := s.certNumbers[key]; taken {
		return fmt.Errorf("%w: certificate number %s", apperrors.ErrDuplicate, number)
	}
	s.certNumbers[key] = transactionID

	i := s.txIndex[transactionID]
	issued := issueDate
	s.transactions[entityID][i].CertificateNumber = &number
	s.transactions[entityID][i].CertificateIssueDate = &issued
	return nil
}

// --- Certificate metadata ---

func (s *Store) SaveCertificateMetadata(_ context.Context, meta domain.CertificateMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.certificates[meta.TransactionID] = append(s.certificates[meta.TransactionID], meta)
	return nil
}

func (s *Store) ListCertificateMetadata(_ context.Context, entityID, transactionID string) ([]domain.CertificateMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.CertificateMetadata
	for _, m := range s.certificates[transactionID] {
		if m.EntityID == entityID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}
