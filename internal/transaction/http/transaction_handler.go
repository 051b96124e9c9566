// Package http provides HTTP handlers for transaction coordination and
// control message routing.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/domainbus/internal/httputil"
	"github.com/allisson/domainbus/internal/transaction/http/dto"
	transactionUseCase "github.com/allisson/domainbus/internal/transaction/usecase"
	customValidation "github.com/allisson/domainbus/internal/validation"
)

// TransactionHandler handles HTTP requests for transaction coordination.
type TransactionHandler struct {
	coordinator transactionUseCase.CoordinatorUseCase
	logger      *slog.Logger
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(coordinator transactionUseCase.CoordinatorUseCase, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		coordinator: coordinator,
		logger:      logger,
	}
}

// CoordinateHandler accepts a new transaction and starts executing its steps.
// POST /v1/transactions
// Returns 202 Accepted with the pending transaction: steps run asynchronously.
func (h *TransactionHandler) CoordinateHandler(c *gin.Context) {
	var req dto.CoordinateTransactionRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := transactionUseCase.CoordinateInput{
		Type:          req.Type,
		CorrelationID: req.CorrelationID,
	}
	for _, step := range req.Steps {
		input.Steps = append(input.Steps, transactionUseCase.StepInput{
			Domain:    step.Domain,
			Operation: step.Operation,
			Payload:   step.Payload,
		})
	}

	transaction, err := h.coordinator.Coordinate(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, dto.MapTransactionToResponse(transaction))
}

// GetHandler returns one transaction by id.
// GET /v1/transactions/:id
func (h *TransactionHandler) GetHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(
			c,
			fmt.Errorf("invalid transaction id: must be a UUID"),
			h.logger,
		)
		return
	}

	transaction, err := h.coordinator.GetTransaction(id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTransactionToResponse(transaction))
}

// ListHandler returns transactions, oldest first.
// GET /v1/transactions?active=true limits the result to in-flight ones.
func (h *TransactionHandler) ListHandler(c *gin.Context) {
	var transactions = h.coordinator.List()
	if c.Query("active") == "true" {
		transactions = h.coordinator.ListActive()
	}

	c.JSON(http.StatusOK, dto.MapTransactionsToListResponse(transactions))
}
