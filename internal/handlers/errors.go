package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/securities_registry/internal/apperrors"
	"github.com/SscSPs/securities_registry/internal/dto"
	"github.com/SscSPs/securities_registry/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respondError maps a service error onto a status code and error envelope. Client mistakes are
// logged at warn; everything else at error.
func respondError(c *gin.Context, err error, action string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var (
		verr   *apperrors.ValidationError
		balErr *apperrors.InsufficientBalanceError
		ice    *apperrors.InternalConsistencyError
		rerr   *apperrors.RenderingError
	)
	switch {
	case errors.As(err, &balErr):
		logger.Warn(action+" rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, dto.Fail("insufficient_balance", err.Error(), []apperrors.Violation{{
			Field:   "quantity",
			Code:    apperrors.CodeInsufficientBalance,
			Message: balErr.Error(),
		}}))
	case errors.As(err, &verr):
		logger.Warn(action+" rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, dto.Fail("validation_failed", "request failed validation", verr.Violations))
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn(action+" rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.Fail("invalid_request", err.Error(), nil))
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn(action+": not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, dto.Fail("not_found", err.Error(), nil))
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn(action+": conflict", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, dto.Fail("conflict", err.Error(), nil))
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.Fail("forbidden", err.Error(), nil))
	case errors.As(err, &ice):
		logger.Error(action+": ledger inconsistent", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.Fail("internal_consistency", "the stored ledger is inconsistent", gin.H{
			"transactionId": ice.TransactionID,
		}))
	case errors.As(err, &rerr):
		logger.Error(action+": renderer failed", slog.String("error", err.Error()), slog.Bool("retryable", rerr.Retryable))
		if rerr.Retryable {
			c.JSON(http.StatusGatewayTimeout, dto.Fail("rendering_unavailable", "the document renderer did not respond, retry later", nil))
			return
		}
		c.JSON(http.StatusBadGateway, dto.Fail("rendering_failed", "the document renderer failed", nil))
	default:
		logger.Error(action+" failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.Fail("internal_error", action+" failed", nil))
	}
}

// badRequest reports a request that could not be bound.
func badRequest(c *gin.Context, err error) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, dto.Fail("invalid_request", "Invalid request format: "+err.Error(), nil))
}

// callerID returns the authenticated user, answering 401 when there is none.
func callerID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, dto.Fail("unauthorized", "Unauthorized", nil))
	}
	return userID, ok
}
