package dto

import (
	"encoding/json"
	"time"

	transactionDomain "github.com/allisson/domainbus/internal/transaction/domain"
)

// StepResponse represents a transaction step in API responses.
type StepResponse struct {
	Domain      string          `json:"domain"`
	Operation   string          `json:"operation"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Status      string          `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Status        string         `json:"status"`
	Steps         []StepResponse `json:"steps"`
	TotalSteps    int            `json:"total_steps"`
	FailedStep    int            `json:"failed_step"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// MapTransactionToResponse converts a domain transaction to an API response.
func MapTransactionToResponse(transaction *transactionDomain.Transaction) TransactionResponse {
	response := TransactionResponse{
		ID:            transaction.ID.String(),
		Type:          transaction.Type,
		CorrelationID: transaction.CorrelationID,
		Status:        string(transaction.Status),
		Steps:         make([]StepResponse, 0, len(transaction.Steps)),
		TotalSteps:    transaction.TotalSteps,
		FailedStep:    transaction.FailedStep,
		CreatedAt:     transaction.CreatedAt,
		UpdatedAt:     transaction.UpdatedAt,
	}
	for _, step := range transaction.Steps {
		response.Steps = append(response.Steps, StepResponse{
			Domain:      step.Domain,
			Operation:   step.Operation,
			Payload:     step.Payload,
			Status:      string(step.Status),
			Result:      step.Result,
			Error:       step.Error,
			StartedAt:   step.StartedAt,
			CompletedAt: step.CompletedAt,
		})
	}
	return response
}

// ListTransactionsResponse represents a list of transactions in API responses.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

// MapTransactionsToListResponse converts domain transactions to an API list response.
func MapTransactionsToListResponse(transactions []*transactionDomain.Transaction) ListTransactionsResponse {
	response := ListTransactionsResponse{
		Transactions: make([]TransactionResponse, 0, len(transactions)),
	}
	for _, transaction := range transactions {
		response.Transactions = append(response.Transactions, MapTransactionToResponse(transaction))
	}
	return response
}
