package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/username/subtrack/backend/src/database"
	"github.com/username/subtrack/backend/src/logger"
	"github.com/username/subtrack/backend/src/models"
	"github.com/username/subtrack/backend/src/utils"
)

// DashboardData is the aggregate payload behind GET /api/data. Everything the
// dashboard renders is fetched in one round trip.
type DashboardData struct {
	Wallets       []models.Wallet       `json:"wallets"`
	Departments   []models.Department   `json:"departments"`
	Accounts      []models.Account      `json:"accounts"`
	Subscriptions []models.Subscription `json:"subscriptions"`
	Transactions  []models.Transaction  `json:"transactions"`
}

type DataHandler struct {
}

func NewDataHandler() *DataHandler {
	return &DataHandler{}
}

func (h *DataHandler) HandleGetDashboardData(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var data DashboardData
	g, _ := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		data.Wallets, err = models.ListWalletsByUser(database.DB, userID)
		return err
	})
	g.Go(func() (err error) {
		data.Departments, err = models.ListDepartmentsByUser(database.DB, userID)
		return err
	})
	g.Go(func() (err error) {
		data.Accounts, err = models.ListAccountsByUser(database.DB, userID)
		return err
	})
	g.Go(func() (err error) {
		data.Subscriptions, err = models.ListSubscriptionsByUser(database.DB, userID)
		return err
	})
	g.Go(func() (err error) {
		data.Transactions, err = models.ListTransactionsByUser(database.DB, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.L.Error("Failed to load dashboard data", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error loading dashboard data", http.StatusInternalServerError)
		return
	}

	if data.Wallets == nil {
		data.Wallets = []models.Wallet{}
	}
	if data.Departments == nil {
		data.Departments = []models.Department{}
	}
	if data.Accounts == nil {
		data.Accounts = []models.Account{}
	}
	if data.Subscriptions == nil {
		data.Subscriptions = []models.Subscription{}
	}
	if data.Transactions == nil {
		data.Transactions = []models.Transaction{}
	}

	currentETag, etagErr := utils.GenerateETag(data)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag for dashboard data", "userID", userID, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, clientETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(clientETag) == quotedETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.L.Error("Error generating JSON response for dashboard data", "userID", userID, "error", err)
	}
}
