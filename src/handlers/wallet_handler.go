package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/username/subtrack/backend/src/database"
	"github.com/username/subtrack/backend/src/logger"
	"github.com/username/subtrack/backend/src/models"
	"github.com/username/subtrack/backend/src/utils"
)

type WalletHandler struct {
}

func NewWalletHandler() *WalletHandler {
	return &WalletHandler{}
}

func (h *WalletHandler) HandleListWallets(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	wallets, err := models.ListWalletsByUser(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list wallets", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error querying wallets", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, wallets)
}

func (h *WalletHandler) HandleCreateWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var wallet models.Wallet
	if err := json.NewDecoder(r.Body).Decode(&wallet); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if wallet.Name == "" {
		utils.SendJSONError(w, "Wallet name is required", http.StatusBadRequest)
		return
	}

	wallet.UserID = userID
	if err := wallet.Create(database.DB); err != nil {
		logger.L.Error("Failed to create wallet", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to create wallet", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusCreated, wallet)
}

func (h *WalletHandler) HandleUpdateWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid wallet id", http.StatusBadRequest)
		return
	}

	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	wallet, err := models.UpdateWalletFields(database.DB, userID, id, updates)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrEmptyUpdate):
			utils.SendJSONError(w, "No updatable fields provided", http.StatusBadRequest)
		case errors.Is(err, sql.ErrNoRows):
			utils.SendJSONError(w, "Wallet not found", http.StatusNotFound)
		case errors.Is(err, database.ErrUnknownField):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.L.Error("Failed to update wallet", "userID", userID, "walletID", id, "error", err)
			utils.SendJSONError(w, "Failed to update wallet", http.StatusInternalServerError)
		}
		return
	}
	utils.SendJSON(w, http.StatusOK, wallet)
}

func (h *WalletHandler) HandleDeleteWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid wallet id", http.StatusBadRequest)
		return
	}

	if err := models.DeleteWallet(database.DB, userID, id); err != nil {
		logger.L.Error("Failed to delete wallet", "userID", userID, "walletID", id, "error", err)
		utils.SendJSONError(w, "Failed to delete wallet", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}
