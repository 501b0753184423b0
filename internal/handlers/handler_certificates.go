package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SscSPs/securities_registry/internal/core/domain"
	portssvc "github.com/SscSPs/securities_registry/internal/core/ports/services"
	"github.com/SscSPs/securities_registry/internal/dto"
	"github.com/SscSPs/securities_registry/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

type certificateHandler struct {
	certificateService portssvc.CertificateSvcFacade
}

func newCertificateHandler(cs portssvc.CertificateSvcFacade) *certificateHandler {
	return &certificateHandler{certificateService: cs}
}

func registerCertificateRoutes(rg *gin.RouterGroup, certificateService portssvc.CertificateSvcFacade, documentLimiter *limiter.Limiter) {
	h := newCertificateHandler(certificateService)

	rg.GET("/certificates/next-number", h.previewNextNumber)
	rg.POST("/transactions/:transactionID/certificate", middleware.RequireRole(domain.RoleEditor), h.issueCertificate)

	document := []gin.HandlerFunc{h.getDocument}
	if documentLimiter != nil {
		document = append([]gin.HandlerFunc{middleware.GinMiddlewarize(documentLimiter)}, document...)
	}
	rg.GET("/transactions/:transactionID/certificate/document", document...)
}

// previewNextNumber godoc
// @Summary Preview the next certificate number
// @Description Computes the number the next issuance in a year would receive. Nothing is allocated.
// @Tags certificates
// @Produce json
// @Param entityID path string true "Entity ID"
// @Param year query int false "Issue year, defaults to the current year"
// @Param prefix query string false "Number prefix override"
// @Param suffix query string false "Number suffix override"
// @Param startNumber query int false "First sequence of a year without certificates"
// @Success 200 {object} dto.Envelope{data=dto.NextNumberResponse}
// @Failure 404 {object} dto.Envelope "Entity not found"
// @Failure 409 {object} dto.Envelope "Sequence exhausted"
// @Security BearerAuth
// @Router /entities/{entityID}/certificates/next-number [get]
func (h *certificateHandler) previewNextNumber(c *gin.Context) {
	var params dto.NextNumberParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.certificateService.PreviewNextNumber(c.Request.Context(), c.Param("entityID"), params)
	if err != nil {
		respondError(c, err, "Preview certificate number")
		return
	}
	c.JSON(http.StatusOK, dto.OK(resp))
}

// issueCertificate godoc
// @Summary Issue a certificate for a transaction
// @Description Allocates the next certificate number of the issue year. With a templateId the document is generated too; a failed generation keeps the number and reports documentError.
// @Tags certificates
// @Accept json
// @Produce json
// @Param entityID path string true "Entity ID"
// @Param transactionID path string true "Transaction ID"
// @Param certificate body dto.IssueCertificateRequest false "Issue options"
// @Success 201 {object} dto.Envelope{data=dto.IssueCertificateResponse}
// @Failure 404 {object} dto.Envelope "Transaction not found"
// @Failure 409 {object} dto.Envelope "Already certificated, reversed or numbering contended"
// @Failure 422 {object} dto.Envelope "Transaction cannot be certificated"
// @Security BearerAuth
// @Router /entities/{entityID}/transactions/{transactionID}/certificate [post]
func (h *certificateHandler) issueCertificate(c *gin.Context) {
	var req dto.IssueCertificateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}
	resp, err := h.certificateService.IssueCertificate(c.Request.Context(), c.Param("entityID"), c.Param("transactionID"), req, userID)
	if err != nil {
		respondError(c, err, "Issue certificate")
		return
	}
	c.JSON(http.StatusCreated, dto.OK(resp))
}

// getDocument godoc
// @Summary Download a certificate document
// @Description Renders the certificate of a certificated transaction as PDF. Identical requests are served from cache.
// @Tags certificates
// @Produce application/pdf
// @Param entityID path string true "Entity ID"
// @Param transactionID path string true "Transaction ID"
// @Param templateId query string true "Template ID"
// @Success 200 {file} binary
// @Failure 404 {object} dto.Envelope "Transaction or template not found"
// @Failure 422 {object} dto.Envelope "No certificate number or incomplete data"
// @Failure 502 {object} dto.Envelope "Renderer failed"
// @Failure 504 {object} dto.Envelope "Renderer timed out"
// @Security BearerAuth
// @Router /entities/{entityID}/transactions/{transactionID}/certificate/document [get]
func (h *certificateHandler) getDocument(c *gin.Context) {
	var params dto.GenerateDocumentParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, err)
		return
	}
	doc, err := h.certificateService.GenerateDocument(c.Request.Context(), c.Param("entityID"), c.Param("transactionID"), params.TemplateID)
	if err != nil {
		respondError(c, err, "Generate certificate document")
		return
	}

	cache := "MISS"
	if doc.Cached {
		cache = "HIT"
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Certificate document served",
		slog.String("certificate_number", doc.Metadata.CertificateNumber),
		slog.Bool("cached", doc.Cached),
		slog.Int("size", doc.Metadata.FileSize))

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, doc.Metadata.CertificateNumber))
	c.Header("X-Certificate-Id", doc.Metadata.CertificateID)
	c.Header("X-Certificate-Number", doc.Metadata.CertificateNumber)
	c.Header("X-Checksum-Sha256", doc.Metadata.Checksum)
	c.Header("X-Cache", cache)
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}
