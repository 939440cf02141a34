package http

import (
	"encoding/json"
	"net/http"

	"salesdash/internal/core"
	"salesdash/internal/log"
	"salesdash/internal/services"
)

const noTransactionsMessage = "No transactions found"

// TransactionsResponse is the body of GET /transactions.
type TransactionsResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Page         int                `json:"page"`
	PerPage      int                `json:"perPage"`
	TotalPages   int                `json:"totalPages"`
	Message      string             `json:"message,omitempty"`
}

func newTransactionsResponse(p services.Page) TransactionsResponse {
	resp := TransactionsResponse{
		Transactions: p.Transactions,
		Page:         p.Page,
		PerPage:      p.PerPage,
		TotalPages:   p.TotalPages,
	}
	if len(p.Transactions) == 0 {
		resp.Message = noTransactionsMessage
	}
	return resp
}

// MessageResponse is the body of every error answer.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to encode response", log.FieldError, err)
	}
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, MessageResponse{Message: msg})
}
