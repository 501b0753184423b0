package services

import (
	"fmt"
	"time"

	"golang.org/x/text/language"

	"github.com/SscSPs/securities_registry/internal/core/certificates"
	"github.com/SscSPs/securities_registry/internal/core/ledger"
	"github.com/SscSPs/securities_registry/internal/core/ports"
	portsrepo "github.com/SscSPs/securities_registry/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/securities_registry/internal/core/ports/services"
	"github.com/SscSPs/securities_registry/internal/core/templates"
	"github.com/SscSPs/securities_registry/internal/platform/config"
	"github.com/SscSPs/securities_registry/internal/platform/lock"
)

// Dependencies are the adapters the services need besides repositories.
type Dependencies struct {
	Locker   lock.Locker
	Renderer ports.DocumentRenderer
	Cache    ports.DocumentCache // optional
	Now      func() time.Time    // optional, defaults to time.Now
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, deps Dependencies) (*portssvc.ServiceContainer, error) {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	engine, err := NewTemplateEngine(cfg, now)
	if err != nil {
		return nil, err
	}
	validator := ledger.NewValidator(ledger.WithClock(now), ledger.WithLookbackYears(cfg.LookbackYears))

	container := &portssvc.ServiceContainer{}
	container.Transaction = NewTransactionService(
		repos.TransactionRepo,
		repos.RegistryRepo,
		validator,
		deps.Locker,
		WithTransactionClock(now),
		WithLedgerLockWait(cfg.LockWait),
	)
	container.Holdings = NewHoldingsService(repos.TransactionRepo, repos.RegistryRepo, cfg.HoldingsConcurrency)

	certOpts := []CertificateServiceOption{WithCertificateClock(now)}
	if deps.Cache != nil {
		certOpts = append(certOpts, WithDocumentCache(deps.Cache))
	}
	container.Certificate = NewCertificateService(repos, deps.Locker, engine, deps.Renderer, CertificateConfig{
		Format: certificates.Format{
			Prefix:      cfg.CertificatePrefix,
			Suffix:      cfg.CertificateSuffix,
			StartNumber: cfg.CertificateStart,
		},
		Retries:  cfg.NumberingRetries,
		LockWait: cfg.LockWait,
		PageOptions: ports.PageOptions{
			Format:          cfg.PageFormat,
			MarginTop:       cfg.PageMargin,
			MarginRight:     cfg.PageMargin,
			MarginBottom:    cfg.PageMargin,
			MarginLeft:      cfg.PageMargin,
			PrintBackground: cfg.PrintBackground,
		},
	}, certOpts...)
	container.Template = NewTemplateService(repos.TransactionRepo, repos.RegistryRepo, engine)

	return container, nil
}

// NewTemplateEngine builds the engine for the configured locale and permitted custom fields.
func NewTemplateEngine(cfg *config.Config, now func() time.Time) (*templates.Engine, error) {
	tag := language.English
	if cfg.Locale != "" {
		parsed, err := language.Parse(cfg.Locale)
		if err != nil {
			return nil, fmt.Errorf("invalid LOCALE %q: %w", cfg.Locale, err)
		}
		tag = parsed
	}
	specs := make([]templates.CustomFieldSpec, 0, len(cfg.PermittedFields))
	for _, decl := range cfg.PermittedFields {
		spec, err := templates.ParseCustomFieldSpec(decl)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return templates.NewEngine(
		templates.WithLocale(tag),
		templates.WithClock(now),
		templates.WithCustomFields(specs...),
	), nil
}
