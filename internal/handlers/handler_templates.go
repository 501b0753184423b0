package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/securities_registry/internal/core/ports/services"
	"github.com/SscSPs/securities_registry/internal/core/templates"
	"github.com/SscSPs/securities_registry/internal/dto"
	"github.com/gin-gonic/gin"
)

type templateHandler struct {
	templateService portssvc.TemplateSvc
}

func newTemplateHandler(ts portssvc.TemplateSvc) *templateHandler {
	return &templateHandler{templateService: ts}
}

func registerTemplateRoutes(rg *gin.RouterGroup, templateService portssvc.TemplateSvc) {
	h := newTemplateHandler(templateService)

	tpl := rg.Group("/templates")
	{
		tpl.POST("/validate", h.validateTemplate)
		tpl.POST("/data/validate", h.validateData)
		tpl.POST("/:templateID/preview", h.previewTemplate)
	}
}

// validateTemplate godoc
// @Summary Check a certificate template body
// @Description Lists the placeholders of a body, rejects bodies missing a required placeholder and warns about unknown ones
// @Tags templates
// @Accept json
// @Produce json
// @Param entityID path string true "Entity ID"
// @Param template body dto.ValidateTemplateRequest true "Template body"
// @Success 200 {object} dto.Envelope{data=templates.TemplateCheck}
// @Security BearerAuth
// @Router /entities/{entityID}/templates/validate [post]
func (h *templateHandler) validateTemplate(c *gin.Context) {
	var req dto.ValidateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(h.templateService.ValidateTemplateBody(c.Request.Context(), req.Body)))
}

// validateData godoc
// @Summary Validate a certificate data bag
// @Description Reports missing and malformed fields, fallbacks and a completeness score. Invalid data is not an HTTP error.
// @Tags templates
// @Accept json
// @Produce json
// @Param entityID path string true "Entity ID"
// @Param data body templates.CertificateData true "Certificate data"
// @Success 200 {object} dto.Envelope{data=templates.ValidationResult}
// @Security BearerAuth
// @Router /entities/{entityID}/templates/data/validate [post]
func (h *templateHandler) validateData(c *gin.Context) {
	var data templates.CertificateData
	if err := c.ShouldBindJSON(&data); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(h.templateService.ValidateData(c.Request.Context(), data)))
}

// previewTemplate godoc
// @Summary Preview a template with a transaction's data
// @Description Substitutes a transaction's data into a stored template. Works before a certificate number is allocated.
// @Tags templates
// @Accept json
// @Produce json
// @Param entityID path string true "Entity ID"
// @Param templateID path string true "Template ID"
// @Param preview body dto.PreviewTemplateRequest true "Transaction to preview"
// @Success 200 {object} dto.Envelope{data=templates.RenderResult}
// @Failure 404 {object} dto.Envelope "Template or transaction not found"
// @Security BearerAuth
// @Router /entities/{entityID}/templates/{templateID}/preview [post]
func (h *templateHandler) previewTemplate(c *gin.Context) {
	var req dto.PreviewTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.templateService.PreviewTemplate(c.Request.Context(), c.Param("entityID"), c.Param("templateID"), req.TransactionID)
	if err != nil {
		respondError(c, err, "Preview template")
		return
	}
	c.JSON(http.StatusOK, dto.OK(res))
}
