package services_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/securities_registry/internal/adapters/rendering"
	"github.com/SscSPs/securities_registry/internal/apperrors"
	"github.com/SscSPs/securities_registry/internal/core/certificates"
	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/SscSPs/securities_registry/internal/core/ports"
	portsrepo "github.com/SscSPs/securities_registry/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/securities_registry/internal/core/ports/services"
	"github.com/SscSPs/securities_registry/internal/core/services"
	"github.com/SscSPs/securities_registry/internal/core/templates"
	"github.com/SscSPs/securities_registry/internal/dto"
	"github.com/SscSPs/securities_registry/internal/platform/lock"
	"github.com/SscSPs/securities_registry/internal/repositories/memory"
	"github.com/SscSPs/securities_registry/internal/utils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockRenderer is a mock type for the DocumentRenderer interface
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, html string, opts ports.PageOptions) ([]byte, error) {
	args := m.Called(ctx, html, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// racingRepo makes the first AssignCertificate lose to a writer that bypasses the lock.
type racingRepo struct {
	portsrepo.TransactionRepositoryFacade
	once sync.Once
}

func (r *racingRepo) AssignCertificate(ctx context.Context, entityID, transactionID, number string, issueDate time.Time) error {
	raced := false
	r.once.Do(func() { raced = true })
	if raced {
		if err := r.TransactionRepositoryFacade.AssignCertificate(ctx, entityID, "RIVAL", number, issueDate); err != nil {
			return err
		}
	}
	return r.TransactionRepositoryFacade.AssignCertificate(ctx, entityID, transactionID, number, issueDate)
}

type CertificateServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	renderer *MockRenderer
	cache    *rendering.Cache
	service  portssvc.CertificateSvcFacade
}

func (suite *CertificateServiceTestSuite) newService(repos portsrepo.RepositoryProvider, retries int) portssvc.CertificateSvcFacade {
	return services.NewCertificateService(
		repos,
		lock.NewKeyedMutex(),
		templates.NewEngine(templates.WithClock(clock)),
		suite.renderer,
		services.CertificateConfig{
			Format:  certificates.Format{Prefix: "CERT", StartNumber: 1},
			Retries: retries,
		},
		services.WithCertificateClock(clock),
		services.WithDocumentCache(suite.cache),
	)
}

func (suite *CertificateServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = seededStore()
	suite.renderer = new(MockRenderer)
	suite.cache = rendering.NewCache(16, time.Hour)
	suite.service = suite.newService(memory.NewRepositoryProvider(suite.store), 3)

	appendRaw(suite.store, rawTx("TX-ISSUE", "ENT-1", "ORD", domain.Issue, "", "M1", 1000, 1))
	appendRaw(suite.store, rawTx("TX-MOVE", "ENT-1", "ORD", domain.Transfer, "M1", "M2", 400, 2))
	appendRaw(suite.store, rawTx("TX-REDEEM", "ENT-1", "ORD", domain.Redemption, "M2", "", 100, 3))
	appendRaw(suite.store, rawTx("RIVAL", "ENT-1", "ORD", domain.Issue, "", "M2", 1, 4))
}

func (suite *CertificateServiceTestSuite) issue(txID string) *dto.IssueCertificateResponse {
	resp, err := suite.service.IssueCertificate(suite.ctx, "ENT-1", txID, dto.IssueCertificateRequest{}, "user-1")
	suite.Require().NoError(err)
	return resp
}

func (suite *CertificateServiceTestSuite) TestPreviewNextNumber() {
	preview, err := suite.service.PreviewNextNumber(suite.ctx, "ENT-1", dto.NextNumberParams{})
	suite.Require().NoError(err)
	suite.Equal(2025, preview.Year)
	suite.Equal("CERT2025000001", preview.CertificateNumber)

	again, err := suite.service.PreviewNextNumber(suite.ctx, "ENT-1", dto.NextNumberParams{})
	suite.Require().NoError(err)
	suite.Equal(preview.CertificateNumber, again.CertificateNumber, "previews allocate nothing")

	prefix, start := "SH-", 500
	custom, err := suite.service.PreviewNextNumber(suite.ctx, "ENT-1", dto.NextNumberParams{
		NumberFormat: dto.NumberFormat{Prefix: &prefix, StartNumber: &start},
		Year:         2024,
	})
	suite.Require().NoError(err)
	suite.Equal("SH-2024000500", custom.CertificateNumber)

	_, err = suite.service.PreviewNextNumber(suite.ctx, "ENT-404", dto.NextNumberParams{})
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *CertificateServiceTestSuite) TestIssueCertificate_Sequential() {
	first := suite.issue("TX-ISSUE")
	suite.Require().NotNil(first.Transaction.CertificateNumber)
	suite.Equal("CERT2025000001", *first.Transaction.CertificateNumber)
	suite.Equal(fixedNow, *first.Transaction.CertificateIssueDate)
	suite.Nil(first.Certificate)

	second := suite.issue("TX-MOVE")
	suite.Equal("CERT2025000002", *second.Transaction.CertificateNumber)

	stored, err := suite.store.FindTransactionByID(suite.ctx, "ENT-1", "TX-MOVE")
	suite.Require().NoError(err)
	suite.Equal("CERT2025000002", *stored.CertificateNumber)

	preview, err := suite.service.PreviewNextNumber(suite.ctx, "ENT-1", dto.NextNumberParams{})
	suite.Require().NoError(err)
	suite.Equal("CERT2025000003", preview.CertificateNumber)
}

func (suite *CertificateServiceTestSuite) TestIssueCertificate_Rejections() {
	suite.issue("TX-ISSUE")

	_, err := suite.service.IssueCertificate(suite.ctx, "ENT-1", "TX-ISSUE", dto.IssueCertificateRequest{}, "user-1")
	suite.ErrorIs(err, apperrors.ErrConflict, "a transaction is certificated once")

	_, err = suite.service.IssueCertificate(suite.ctx, "ENT-1", "TX-REDEEM", dto.IssueCertificateRequest{}, "user-1")
	suite.ErrorIs(err, apperrors.ErrValidation, "redemptions credit nobody")

	reversal := rawTx("TX-UNDO", "ENT-1", "ORD", domain.Transfer, "M2", "M1", 400, 5)
	reversal.Status = domain.StatusReversal
	reversal.ReversesID = ptr("TX-MOVE")
	appendRaw(suite.store, reversal)
	_, err = suite.service.IssueCertificate(suite.ctx, "ENT-1", "TX-MOVE", dto.IssueCertificateRequest{}, "user-1")
	suite.ErrorIs(err, apperrors.ErrConflict, "reversed transactions are not certificated")

	_, err = suite.service.IssueCertificate(suite.ctx, "ENT-1", "TX-404", dto.IssueCertificateRequest{}, "user-1")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *CertificateServiceTestSuite) TestIssueCertificate_IssueDateBounds() {
	tests := []struct {
		name      string
		issueDate *time.Time
	}{
		{name: "future", issueDate: date(2025, 7, 1)},
		{name: "before the transaction took effect", issueDate: date(2024, 12, 31)},
		{name: "year without four digits", issueDate: date(10000, 1, 1)},
		{name: "year before numbering", issueDate: date(1899, 12, 31)},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.service.IssueCertificate(suite.ctx, "ENT-1", "TX-ISSUE", dto.IssueCertificateRequest{IssueDate: tt.issueDate}, "user-1")
			suite.ErrorIs(err, apperrors.ErrValidation)

			stored, err := suite.store.FindTransactionByID(suite.ctx, "ENT-1", "TX-ISSUE")
			suite.Require().NoError(err)
			suite.Nil(stored.CertificateNumber, "nothing is allocated")
		})
	}
}

func (suite *CertificateServiceTestSuite) TestIssueCertificate_BackdatedIssue() {
	onSettlement := time.Date(2025, 1, 1, 15, 30, 0, 0, time.UTC)
	resp, err := suite.service.IssueCertificate(suite.ctx, "ENT-1", "TX-ISSUE", dto.IssueCertificateRequest{IssueDate: &onSettlement}, "user-1")
	suite.Require().NoError(err)
	suite.Equal("CERT2025000001", *resp.Transaction.CertificateNumber)
	suite.Equal(onSettlement, *resp.Transaction.CertificateIssueDate)

	lastYear := *date(2024, 12, 31)
	_, err = suite.service.IssueCertificate(suite.ctx, "ENT-1", "TX-MOVE", dto.IssueCertificateRequest{IssueDate: &lastYear}, "user-1")
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *CertificateServiceTestSuite) TestIssueCertificate_RetriesWhenNumberTaken() {
	repo := &racingRepo{TransactionRepositoryFacade: suite.store}
	svc := suite.newService(portsrepo.RepositoryProvider{
		TransactionRepo: repo,
		RegistryRepo:    suite.store,
		CertificateRepo: suite.store,
	}, 3)

	resp, err := svc.IssueCertificate(suite.ctx, "ENT-1", "TX-ISSUE", dto.IssueCertificateRequest{}, "user-1")
	suite.Require().NoError(err)
	suite.Equal("CERT2025000002", *resp.Transaction.CertificateNumber)

	rival, err := suite.store.FindTransactionByID(suite.ctx, "ENT-1", "RIVAL")
	suite.Require().NoError(err)
	suite.Equal("CERT2025000001", *rival.CertificateNumber)
}

func (suite *CertificateServiceTestSuite) TestIssueCertificate_GivesUpAfterRetries() {
	repo := &racingRepo{TransactionRepositoryFacade: suite.store}
	svc := suite.newService(portsrepo.RepositoryProvider{
		TransactionRepo: repo,
		RegistryRepo:    suite.store,
		CertificateRepo: suite.store,
	}, 1)

	_, err := svc.IssueCertificate(suite.ctx, "ENT-1", "TX-ISSUE", dto.IssueCertificateRequest{}, "user-1")
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *CertificateServiceTestSuite) TestIssueCertificate_ConcurrentIssuanceIsMonotonic() {
	const n = 20
	ids := make([]string, n)
	for i := range ids {
		ids[i] = "TX-BULK-" + string(rune('A'+i))
		appendRaw(suite.store, rawTx(ids[i], "ENT-1", "ORD", domain.Issue, "", "M1", 1, 6))
	}

	var wg sync.WaitGroup
	numbers := make([]string, n)
	errs := make([]error, n)
	for i := range ids {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := suite.service.IssueCertificate(suite.ctx, "ENT-1", ids[i], dto.IssueCertificateRequest{}, "user-1")
			errs[i] = err
			if err == nil {
				numbers[i] = *resp.Transaction.CertificateNumber
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		suite.Require().NoError(err)
	}
	sort.Strings(numbers)
	for i, number := range numbers {
		seq, ok := certificates.ParseSequence(number, "")
		suite.Require().True(ok)
		suite.Equal(i+1, seq, "numbers are dense and unique")
	}
}

func (suite *CertificateServiceTestSuite) TestIssueCertificate_WithDocument() {
	suite.renderer.On("Render", mock.Anything, mock.AnythingOfType("string"), ports.DefaultPageOptions()).
		Return([]byte("%PDF-1.7 certificate"), nil).Once()

	resp, err := suite.service.IssueCertificate(suite.ctx, "ENT-1", "TX-ISSUE", dto.IssueCertificateRequest{TemplateID: "TPL"}, "user-1")
	suite.Require().NoError(err)
	suite.Require().NotNil(resp.Certificate)
	suite.Equal("CERT2025000001", resp.Certificate.CertificateNumber)
	suite.Empty(resp.DocumentError)
	suite.renderer.AssertExpectations(suite.T())
}

func (suite *CertificateServiceTestSuite) TestIssueCertificate_DocumentFailureKeepsNumber() {
	suite.renderer.On("Render", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &apperrors.RenderingError{Retryable: true, Cause: context.DeadlineExceeded}).Once()

	resp, err := suite.service.IssueCertificate(suite.ctx, "ENT-1", "TX-ISSUE", dto.IssueCertificateRequest{TemplateID: "TPL"}, "user-1")
	suite.Require().NoError(err)
	suite.Nil(resp.Certificate)
	suite.Contains(resp.DocumentError, "rendering error")
	suite.Equal("CERT2025000001", *resp.Transaction.CertificateNumber)
}

func (suite *CertificateServiceTestSuite) TestGenerateDocument_RendersAndCaches() {
	suite.issue("TX-ISSUE")
	pdf := []byte("%PDF-1.7 certificate")
	var html string
	suite.renderer.On("Render", mock.Anything, mock.AnythingOfType("string"), ports.DefaultPageOptions()).
		Run(func(args mock.Arguments) { html = args.String(1) }).
		Return(pdf, nil).Once()

	doc, err := suite.service.GenerateDocument(suite.ctx, "ENT-1", "TX-ISSUE", "TPL")
	suite.Require().NoError(err)
	suite.False(doc.Cached)
	suite.Equal(pdf, doc.Content)
	suite.Contains(html, "<h1>Acme Holdings Pty Ltd</h1>")
	suite.Contains(html, "Jane Citizen holds 1,000 Ordinary Shares")
	suite.Contains(html, "Certificate CERT2025000001 issued 2025-06-30")

	meta := doc.Metadata
	suite.Equal("ENT-1", meta.EntityID)
	suite.Equal("TX-ISSUE", meta.TransactionID)
	suite.Equal("TPL", meta.TemplateID)
	suite.Equal(domain.FormatPDF, meta.Format)
	suite.Equal(len(pdf), meta.FileSize)
	suite.Equal(utils.Checksum(pdf), meta.Checksum)
	suite.Equal(fixedNow, meta.GeneratedAt)

	again, err := suite.service.GenerateDocument(suite.ctx, "ENT-1", "TX-ISSUE", "TPL")
	suite.Require().NoError(err)
	suite.True(again.Cached)
	suite.Equal(pdf, again.Content)
	suite.NotEqual(meta.CertificateID, again.Metadata.CertificateID)
	suite.renderer.AssertNumberOfCalls(suite.T(), "Render", 1)

	saved, err := suite.store.ListCertificateMetadata(suite.ctx, "ENT-1", "TX-ISSUE")
	suite.Require().NoError(err)
	suite.Len(saved, 2)
}

func (suite *CertificateServiceTestSuite) TestGenerateDocument_Rejections() {
	_, err := suite.service.GenerateDocument(suite.ctx, "ENT-1", "TX-ISSUE", "TPL")
	suite.ErrorIs(err, apperrors.ErrValidation, "no certificate number yet")

	suite.issue("TX-ISSUE")
	_, err = suite.service.GenerateDocument(suite.ctx, "ENT-1", "TX-ISSUE", "TPL-404")
	suite.ErrorIs(err, apperrors.ErrNotFound)

	suite.renderer.On("Render", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &apperrors.RenderingError{Cause: errors.New("status 500")}).Once()
	_, err = suite.service.GenerateDocument(suite.ctx, "ENT-1", "TX-ISSUE", "TPL")
	suite.ErrorIs(err, apperrors.ErrRendering)
	suite.Zero(suite.cache.Len(), "failed renders are not cached")
}

func (suite *CertificateServiceTestSuite) TestGenerateDocument_IncompleteData() {
	// A member without a name cannot appear on a certificate.
	suite.store.Put(memory.Seed{Members: []domain.Member{
		{ID: "M1", EntityID: "ENT-1", Type: domain.MemberIndividual, Status: domain.MemberActive},
	}})
	suite.issue("TX-ISSUE")

	_, err := suite.service.GenerateDocument(suite.ctx, "ENT-1", "TX-ISSUE", "TPL")
	var verr *apperrors.ValidationError
	suite.Require().ErrorAs(err, &verr)
	suite.Equal("memberName", verr.Violations[0].Field)
	suite.Equal(apperrors.CodeMissingField, verr.Violations[0].Code)
	suite.renderer.AssertNotCalled(suite.T(), "Render", mock.Anything, mock.Anything, mock.Anything)
}

func TestCertificateServiceSuite(t *testing.T) {
	suite.Run(t, new(CertificateServiceTestSuite))
}
