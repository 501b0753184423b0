package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/securities_registry/internal/core/ports/services"
	"github.com/SscSPs/securities_registry/internal/dto"
	"github.com/gin-gonic/gin"
)

type holdingsHandler struct {
	holdingsService portssvc.HoldingsSvc
}

func newHoldingsHandler(hs portssvc.HoldingsSvc) *holdingsHandler {
	return &holdingsHandler{holdingsService: hs}
}

func registerHoldingsRoutes(rg *gin.RouterGroup, holdingsService portssvc.HoldingsSvc) {
	h := newHoldingsHandler(holdingsService)
	rg.GET("/holdings", h.getHoldings)
}

// registerRegisterRoutes registers the cross-entity routes.
func registerRegisterRoutes(rg *gin.RouterGroup, holdingsService portssvc.HoldingsSvc) {
	h := newHoldingsHandler(holdingsService)
	rg.GET("/holdings", h.getRegisterHoldings)
}

// getHoldings godoc
// @Summary Derive the holdings of an entity
// @Description Folds the ledger into per-member, per-class balances. Splits and consolidations are listed as unapplied.
// @Tags holdings
// @Produce json
// @Param entityID path string true "Entity ID"
// @Param memberId query string false "Only this member"
// @Param securityClassId query string false "Only this security class"
// @Success 200 {object} dto.Envelope{data=dto.HoldingsResponse}
// @Failure 404 {object} dto.Envelope "Entity not found"
// @Failure 500 {object} dto.Envelope "Stored ledger is inconsistent"
// @Security BearerAuth
// @Router /entities/{entityID}/holdings [get]
func (h *holdingsHandler) getHoldings(c *gin.Context) {
	var params dto.HoldingsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, err)
		return
	}
	entityID := c.Param("entityID")
	snap, err := h.holdingsService.GetHoldings(c.Request.Context(), entityID, params)
	if err != nil {
		respondError(c, err, "Get holdings")
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.ToHoldingsResponse(entityID, snap)))
}

// getRegisterHoldings godoc
// @Summary Derive the holdings of several entities
// @Tags holdings
// @Produce json
// @Param entityId query []string false "Entities to include; all when omitted" collectionFormat(multi)
// @Success 200 {object} dto.Envelope{data=[]dto.HoldingsResponse}
// @Failure 403 {object} dto.Envelope "Admin role required"
// @Security BearerAuth
// @Router /holdings [get]
func (h *holdingsHandler) getRegisterHoldings(c *gin.Context) {
	var params dto.RegisterHoldingsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, err)
		return
	}
	registers, err := h.holdingsService.GetRegisterHoldings(c.Request.Context(), params.EntityIDs)
	if err != nil {
		respondError(c, err, "Get register holdings")
		return
	}
	c.JSON(http.StatusOK, dto.OK(registers))
}
