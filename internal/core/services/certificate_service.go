package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/securities_registry/internal/apperrors"
	"github.com/SscSPs/securities_registry/internal/core/certificates"
	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/SscSPs/securities_registry/internal/core/ports"
	portsrepo "github.com/SscSPs/securities_registry/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/securities_registry/internal/core/ports/services"
	"github.com/SscSPs/securities_registry/internal/core/templates"
	"github.com/SscSPs/securities_registry/internal/dto"
	"github.com/SscSPs/securities_registry/internal/platform/lock"
	"github.com/SscSPs/securities_registry/internal/utils"
)

// CertificateConfig holds the numbering and rendering settings of the certificate service.
type CertificateConfig struct {
	Format      certificates.Format
	Retries     int           // allocation attempts when a number turns out to be taken
	LockWait    time.Duration // how long an allocation waits for the (entity, year) lock
	PageOptions ports.PageOptions
}

// certificateService allocates certificate numbers and renders certificate documents.
type certificateService struct {
	BaseService
	txRepo   portsrepo.TransactionRepositoryFacade
	registry portsrepo.RegistryReader
	certRepo portsrepo.CertificateRepositoryFacade
	locker   lock.Locker
	engine   *templates.Engine
	renderer ports.DocumentRenderer
	cache    ports.DocumentCache
	cfg      CertificateConfig
	now      func() time.Time
	newID    func() string
}

// CertificateServiceOption is a function that configures a certificateService
type CertificateServiceOption func(*certificateService)

// WithCertificateClock overrides the clock used for default years and issue dates.
func WithCertificateClock(now func() time.Time) CertificateServiceOption {
	return func(s *certificateService) { s.now = now }
}

// WithDocumentCache sets the cache of rendered documents. Without one every request renders.
func WithDocumentCache(cache ports.DocumentCache) CertificateServiceOption {
	return func(s *certificateService) { s.cache = cache }
}

// NewCertificateService creates the certificate numbering and document service.
func NewCertificateService(
	repos portsrepo.RepositoryProvider,
	locker lock.Locker,
	engine *templates.Engine,
	renderer ports.DocumentRenderer,
	cfg CertificateConfig,
	opts ...CertificateServiceOption,
) portssvc.CertificateSvcFacade {
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	if cfg.PageOptions.Format == "" {
		cfg.PageOptions = ports.DefaultPageOptions()
	}
	s := &certificateService{
		txRepo:   repos.TransactionRepo,
		registry: repos.RegistryRepo,
		certRepo: repos.CertificateRepo,
		locker:   locker,
		engine:   engine,
		renderer: renderer,
		cfg:      cfg,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.CertificateSvcFacade = (*certificateService)(nil)

// format applies request overrides to the configured number format.
func (s *certificateService) format(o dto.NumberFormat) certificates.Format {
	f := s.cfg.Format
	if o.Prefix != nil {
		f.Prefix = *o.Prefix
	}
	if o.Suffix != nil {
		f.Suffix = *o.Suffix
	}
	if o.StartNumber != nil {
		f.StartNumber = *o.StartNumber
	}
	return f
}

func (s *certificateService) PreviewNextNumber(ctx context.Context, entityID string, params dto.NextNumberParams) (*dto.NextNumberResponse, error) {
	if _, err := s.registry.FindEntityByID(ctx, entityID); err != nil {
		return nil, err
	}
	year := params.Year
	if year == 0 {
		year = s.now().UTC().Year()
	}
	number, err := s.next(ctx, entityID, year, s.format(params.NumberFormat))
	if err != nil {
		return nil, err
	}
	return &dto.NextNumberResponse{EntityID: entityID, Year: year, CertificateNumber: number}, nil
}

func (s *certificateService) next(ctx context.Context, entityID string, year int, f certificates.Format) (string, error) {
	issued, err := s.txRepo.ListCertificatedByYear(ctx, entityID, year)
	if err != nil {
		s.LogError(ctx, err, "Failed to list certificated transactions", slog.String("entity_id", entityID), slog.Int("year", year))
		return "", err
	}
	number, err := certificates.NextNumber(issued, entityID, year, f)
	if err != nil {
		switch {
		case errors.Is(err, certificates.ErrSequenceExhausted):
			return "", fmt.Errorf("%w: %v", apperrors.ErrConflict, err)
		case errors.Is(err, certificates.ErrYearOutOfRange):
			return "", apperrors.NewValidationError("year", apperrors.CodeDateOutOfRange, err.Error())
		}
		return "", err
	}
	return number, nil
}

// IssueCertificate allocates the next number of the issue year to a transaction. Allocation
// holds the (entity, year) lock, and a number lost to a writer outside the lock is retried.
func (s *certificateService) IssueCertificate(ctx context.Context, entityID, transactionID string, req dto.IssueCertificateRequest, userID string) (*dto.IssueCertificateResponse, error) {
	tx, err := s.txRepo.FindTransactionByID(ctx, entityID, transactionID)
	if err != nil {
		return nil, err
	}
	if err := s.certifiable(ctx, *tx); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	issueDate := now
	if req.IssueDate != nil {
		issueDate = req.IssueDate.UTC()
		if err := checkIssueDate(*tx, issueDate, now); err != nil {
			return nil, err
		}
	}
	year := issueDate.Year()
	f := s.format(req.NumberFormat)

	key := lock.CertificateKey(entityID, year)
	unlock, err := s.acquire(ctx, s.locker, key, s.cfg.LockWait)
	if err != nil {
		return nil, err
	}
	number, err := s.allocate(ctx, entityID, transactionID, year, f, issueDate)
	s.release(ctx, key, unlock)
	if err != nil {
		return nil, err
	}

	tx.CertificateNumber = &number
	tx.CertificateIssueDate = &issueDate
	s.LogInfo(ctx, "Certificate number allocated",
		slog.String("entity_id", entityID),
		slog.String("transaction_id", transactionID),
		slog.String("certificate_number", number),
		slog.String("user_id", userID))

	resp := &dto.IssueCertificateResponse{Transaction: dto.ToTransactionResponse(tx)}
	if req.TemplateID != "" {
		doc, err := s.GenerateDocument(ctx, entityID, transactionID, req.TemplateID)
		if err != nil {
			s.LogWarn(ctx, "Certificate document not generated", slog.String("transaction_id", transactionID), slog.String("error", err.Error()))
			resp.DocumentError = err.Error()
		} else {
			resp.Certificate = &doc.Metadata
		}
	}
	return resp, nil
}

func (s *certificateService) allocate(ctx context.Context, entityID, transactionID string, year int, f certificates.Format, issueDate time.Time) (string, error) {
	for attempt := 1; attempt <= s.cfg.Retries; attempt++ {
		number, err := s.next(ctx, entityID, year, f)
		if err != nil {
			return "", err
		}
		err = s.txRepo.AssignCertificate(ctx, entityID, transactionID, number, issueDate)
		if err == nil {
			return number, nil
		}
		if !errors.Is(err, apperrors.ErrDuplicate) {
			return "", err
		}
		s.LogWarn(ctx, "Certificate number already taken, retrying",
			slog.String("certificate_number", number), slog.Int("attempt", attempt))
	}
	return "", fmt.Errorf("%w: no free certificate number for entity %s in %d after %d attempts",
		apperrors.ErrConflict, entityID, year, s.cfg.Retries)
}

// checkIssueDate bounds a requested issue date: its year must fit the number layout, and it
// lies between the day the transaction took effect and now.
func checkIssueDate(tx domain.Transaction, issueDate, now time.Time) error {
	if y := issueDate.Year(); y < certificates.MinYear || y > certificates.MaxYear {
		return apperrors.NewValidationError("issueDate", apperrors.CodeDateOutOfRange,
			fmt.Sprintf("issue year must be between %d and %d", certificates.MinYear, certificates.MaxYear))
	}
	if issueDate.After(now) {
		return apperrors.NewValidationError("issueDate", apperrors.CodeDateOutOfRange, "issue date must not be in the future")
	}
	if effective := tx.EffectiveDate(); !effective.IsZero() {
		day := effective.UTC().Truncate(24 * time.Hour)
		if issueDate.Before(day) {
			return apperrors.NewValidationError("issueDate", apperrors.CodeDateOutOfRange,
				fmt.Sprintf("issue date must not precede the transaction date %s", day.Format(time.DateOnly)))
		}
	}
	return nil
}

// certifiable checks tx may receive a certificate: it credits a member, has none yet and
// has not been reversed.
func (s *certificateService) certifiable(ctx context.Context, tx domain.Transaction) error {
	if tx.HasCertificate() {
		return fmt.Errorf("%w: transaction %s already has certificate %s", apperrors.ErrConflict, tx.ID, *tx.CertificateNumber)
	}
	if tx.To() == "" {
		return apperrors.NewValidationError("transactionId", apperrors.CodeInvalidCertificate,
			fmt.Sprintf("%s transactions do not credit a member and cannot be certificated", tx.Type))
	}
	_, err := s.txRepo.FindReversalOf(ctx, tx.EntityID, tx.ID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: transaction %s has been reversed", apperrors.ErrConflict, tx.ID)
	case errors.Is(err, apperrors.ErrNotFound):
		return nil
	default:
		return err
	}
}

// GenerateDocument renders the certificate of a certificated transaction. Documents are cached
// by transaction, template version, page options and a fingerprint of the substituted markup.
func (s *certificateService) GenerateDocument(ctx context.Context, entityID, transactionID, templateID string) (*dto.CertificateDocument, error) {
	tx, err := s.txRepo.FindTransactionByID(ctx, entityID, transactionID)
	if err != nil {
		return nil, err
	}
	if !tx.HasCertificate() || tx.CertificateIssueDate == nil {
		return nil, apperrors.NewValidationError("transactionId", apperrors.CodeInvalidCertificate,
			fmt.Sprintf("transaction %s has no certificate number", transactionID))
	}
	tpl, err := s.registry.FindTemplateByID(ctx, entityID, templateID)
	if err != nil {
		return nil, err
	}
	subject, err := loadSubject(ctx, s.registry, *tx)
	if err != nil {
		return nil, err
	}

	data := templates.FromTransaction(*tx, subject)
	if res := s.engine.Validate(data); !res.IsValid {
		return nil, dataError(res)
	}
	rendered := s.engine.Render(tpl.Body, data)
	if len(rendered.Warnings) > 0 {
		s.LogDebug(ctx, "Template rendered with warnings",
			slog.String("template_id", tpl.ID), slog.Any("warnings", rendered.Warnings))
	}

	key := ports.DocumentKey{
		TransactionID:   tx.ID,
		TemplateID:      tpl.ID,
		TemplateVersion: tpl.Version,
		Options:         s.cfg.PageOptions,
		DataFingerprint: utils.Checksum([]byte(rendered.Body)),
	}.String()

	content, cached := s.cached(key)
	if !cached {
		content, err = s.renderer.Render(ctx, rendered.Body, s.cfg.PageOptions)
		if err != nil {
			s.LogError(ctx, err, "Failed to render certificate",
				slog.String("transaction_id", tx.ID), slog.String("template_id", tpl.ID))
			return nil, err
		}
		if s.cache != nil {
			s.cache.Add(key, content)
		}
	}

	meta := domain.CertificateMetadata{
		CertificateID:     s.newID(),
		EntityID:          entityID,
		TransactionID:     tx.ID,
		CertificateNumber: *tx.CertificateNumber,
		IssueDate:         *tx.CertificateIssueDate,
		TemplateID:        tpl.ID,
		Format:            domain.FormatPDF,
		GeneratedAt:       s.now().UTC(),
		FileSize:          len(content),
		Checksum:          utils.Checksum(content),
	}
	if err := s.certRepo.SaveCertificateMetadata(ctx, meta); err != nil {
		s.LogError(ctx, err, "Failed to save certificate metadata", slog.String("transaction_id", tx.ID))
		return nil, err
	}
	return &dto.CertificateDocument{Metadata: meta, Content: content, Cached: cached}, nil
}

func (s *certificateService) cached(key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(key)
}
