package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/subtrack/backend/src/database"
	"github.com/username/subtrack/backend/src/logger"
	"github.com/username/subtrack/backend/src/models"
	"github.com/username/subtrack/backend/src/utils"
)

type TransactionHandler struct {
}

func NewTransactionHandler() *TransactionHandler {
	return &TransactionHandler{}
}

func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	transactions, err := models.ListTransactionsByUser(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list transactions", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error querying transactions", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, transactions)
}

func (h *TransactionHandler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var transaction models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&transaction); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if transaction.Description == "" {
		utils.SendJSONError(w, "Transaction description is required", http.StatusBadRequest)
		return
	}
	if transaction.Date == "" {
		utils.SendJSONError(w, "Transaction date is required", http.StatusBadRequest)
		return
	}

	transaction.UserID = userID
	if err := transaction.Create(database.DB); err != nil {
		logger.L.Error("Failed to create transaction", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to create transaction", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusCreated, transaction)
}

func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid transaction id", http.StatusBadRequest)
		return
	}

	if err := models.DeleteTransaction(database.DB, userID, id); err != nil {
		logger.L.Error("Failed to delete transaction", "userID", userID, "transactionID", id, "error", err)
		utils.SendJSONError(w, "Failed to delete transaction", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
