package handlers

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/username/subtrack/backend/src/database"
	"github.com/username/subtrack/backend/src/logger"
	"github.com/username/subtrack/backend/src/models"
	"github.com/username/subtrack/backend/src/services"
	"github.com/username/subtrack/backend/src/utils"
)

type InsightsHandler struct {
	insightsService services.InsightsService
}

func NewInsightsHandler(service services.InsightsService) *InsightsHandler {
	return &InsightsHandler{
		insightsService: service,
	}
}

// HandleAnalyzeSpending gathers the user's current data and asks the AI for a
// markdown spending summary. The analysis itself never errors; data loading
// can.
func (h *InsightsHandler) HandleAnalyzeSpending(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var (
		subscriptions []models.Subscription
		departments   []models.Department
		wallets       []models.Wallet
	)
	g, _ := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		subscriptions, err = models.ListSubscriptionsByUser(database.DB, userID)
		return err
	})
	g.Go(func() (err error) {
		departments, err = models.ListDepartmentsByUser(database.DB, userID)
		return err
	})
	g.Go(func() (err error) {
		wallets, err = models.ListWalletsByUser(database.DB, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.L.Error("Failed to load data for spending analysis", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error loading data for analysis", http.StatusInternalServerError)
		return
	}

	analysis := h.insightsService.AnalyzeSpending(r.Context(), subscriptions, departments, wallets)
	utils.SendJSON(w, http.StatusOK, map[string]string{
		"analysis": analysis,
	})
}
