package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/securities_registry/internal/core/domain"
	portssvc "github.com/SscSPs/securities_registry/internal/core/ports/services"
	"github.com/SscSPs/securities_registry/internal/dto"
	"github.com/SscSPs/securities_registry/internal/middleware"
	"github.com/gin-gonic/gin"
)

// transactionHandler handles HTTP requests related to the ledger.
type transactionHandler struct {
	transactionService portssvc.TransactionSvcFacade
}

func newTransactionHandler(ts portssvc.TransactionSvcFacade) *transactionHandler {
	return &transactionHandler{transactionService: ts}
}

// registerTransactionRoutes registers the ledger routes of an entity.
func registerTransactionRoutes(rg *gin.RouterGroup, transactionService portssvc.TransactionSvcFacade) {
	h := newTransactionHandler(transactionService)

	txs := rg.Group("/transactions")
	{
		txs.GET("", h.listTransactions)
		txs.GET("/:transactionID", h.getTransaction)
		txs.POST("/validate", h.validateTransaction)
		txs.POST("", middleware.RequireRole(domain.RoleEditor), h.createTransaction)
		txs.POST("/:transactionID/reversal", middleware.RequireRole(domain.RoleEditor), h.reverseTransaction)
	}
}

// createTransaction godoc
// @Summary Append a transaction to the ledger
// @Description Validates a proposed transaction against structural rules, references and running balances, then appends it
// @Tags transactions
// @Accept json
// @Produce json
// @Param entityID path string true "Entity ID"
// @Param transaction body dto.CreateTransactionRequest true "Proposed transaction"
// @Success 201 {object} dto.Envelope{data=dto.TransactionResponse}
// @Failure 400 {object} dto.Envelope "Malformed request"
// @Failure 404 {object} dto.Envelope "Entity not found"
// @Failure 409 {object} dto.Envelope "Ledger busy"
// @Failure 422 {object} dto.Envelope "Validation violations"
// @Security BearerAuth
// @Router /entities/{entityID}/transactions [post]
func (h *transactionHandler) createTransaction(c *gin.Context) {
	entityID := c.Param("entityID")
	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	tx, err := h.transactionService.CreateTransaction(c.Request.Context(), entityID, req, userID)
	if err != nil {
		respondError(c, err, "Create transaction")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Transaction created", slog.String("transaction_id", tx.ID))
	c.JSON(http.StatusCreated, dto.OK(dto.ToTransactionResponse(tx)))
}

// validateTransaction godoc
// @Summary Validate a transaction without appending it
// @Tags transactions
// @Accept json
// @Produce json
// @Param entityID path string true "Entity ID"
// @Param transaction body dto.CreateTransactionRequest true "Proposed transaction"
// @Success 200 {object} dto.Envelope{data=dto.TransactionResponse} "The normalised candidate"
// @Failure 422 {object} dto.Envelope "Validation violations"
// @Security BearerAuth
// @Router /entities/{entityID}/transactions/validate [post]
func (h *transactionHandler) validateTransaction(c *gin.Context) {
	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	tx, err := h.transactionService.ValidateTransaction(c.Request.Context(), c.Param("entityID"), req)
	if err != nil {
		respondError(c, err, "Validate transaction")
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.ToTransactionResponse(tx)))
}

// getTransaction godoc
// @Summary Get a ledger entry
// @Tags transactions
// @Produce json
// @Param entityID path string true "Entity ID"
// @Param transactionID path string true "Transaction ID"
// @Success 200 {object} dto.Envelope{data=dto.TransactionResponse}
// @Failure 404 {object} dto.Envelope "Transaction not found"
// @Security BearerAuth
// @Router /entities/{entityID}/transactions/{transactionID} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	tx, err := h.transactionService.GetTransaction(c.Request.Context(), c.Param("entityID"), c.Param("transactionID"))
	if err != nil {
		respondError(c, err, "Get transaction")
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.ToTransactionResponse(tx)))
}

// listTransactions godoc
// @Summary List the ledger of an entity
// @Description Returns ledger entries in effective-date order, paged with an opaque token
// @Tags transactions
// @Produce json
// @Param entityID path string true "Entity ID"
// @Param limit query int false "Page size (1-500)"
// @Param nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.Envelope{data=dto.ListTransactionsResponse}
// @Failure 400 {object} dto.Envelope "Bad paging parameters"
// @Security BearerAuth
// @Router /entities/{entityID}/transactions [get]
func (h *transactionHandler) listTransactions(c *gin.Context) {
	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.transactionService.ListTransactions(c.Request.Context(), c.Param("entityID"), params)
	if err != nil {
		respondError(c, err, "List transactions")
		return
	}
	c.JSON(http.StatusOK, dto.OK(resp))
}

// reverseTransaction godoc
// @Summary Reverse a transaction
// @Description Appends the compensating entry of a transaction. Each transaction can be reversed once.
// @Tags transactions
// @Accept json
// @Produce json
// @Param entityID path string true "Entity ID"
// @Param transactionID path string true "Transaction ID"
// @Param reversal body dto.ReverseTransactionRequest true "Reversal reason"
// @Success 201 {object} dto.Envelope{data=dto.TransactionResponse}
// @Failure 404 {object} dto.Envelope "Transaction not found"
// @Failure 409 {object} dto.Envelope "Already reversed"
// @Failure 422 {object} dto.Envelope "Reversal would break the ledger"
// @Security BearerAuth
// @Router /entities/{entityID}/transactions/{transactionID}/reversal [post]
func (h *transactionHandler) reverseTransaction(c *gin.Context) {
	var req dto.ReverseTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}
	rev, err := h.transactionService.ReverseTransaction(c.Request.Context(), c.Param("entityID"), c.Param("transactionID"), req, userID)
	if err != nil {
		respondError(c, err, "Reverse transaction")
		return
	}
	c.JSON(http.StatusCreated, dto.OK(dto.ToTransactionResponse(rev)))
}
