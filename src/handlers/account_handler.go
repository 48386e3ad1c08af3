package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/subtrack/backend/src/database"
	"github.com/username/subtrack/backend/src/logger"
	"github.com/username/subtrack/backend/src/models"
	"github.com/username/subtrack/backend/src/utils"
)

type AccountHandler struct {
}

func NewAccountHandler() *AccountHandler {
	return &AccountHandler{}
}

func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	accounts, err := models.ListAccountsByUser(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list accounts", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error querying accounts", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var account models.Account
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if account.Name == "" {
		utils.SendJSONError(w, "Account name is required", http.StatusBadRequest)
		return
	}

	account.UserID = userID
	if err := account.Create(database.DB); err != nil {
		logger.L.Error("Failed to create account", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to create account", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) HandleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	account, err := models.UpdateAccountFields(database.DB, userID, id, updates)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrEmptyUpdate):
			utils.SendJSONError(w, "No updatable fields provided", http.StatusBadRequest)
		case errors.Is(err, sql.ErrNoRows):
			utils.SendJSONError(w, "Account not found", http.StatusNotFound)
		case errors.Is(err, database.ErrUnknownField):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.L.Error("Failed to update account", "userID", userID, "accountID", id, "error", err)
			utils.SendJSONError(w, "Failed to update account", http.StatusInternalServerError)
		}
		return
	}
	utils.SendJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	if err := models.DeleteAccount(database.DB, userID, id); err != nil {
		logger.L.Error("Failed to delete account", "userID", userID, "accountID", id, "error", err)
		utils.SendJSONError(w, "Failed to delete account", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
