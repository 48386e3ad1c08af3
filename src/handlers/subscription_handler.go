package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/username/subtrack/backend/src/database"
	"github.com/username/subtrack/backend/src/logger"
	"github.com/username/subtrack/backend/src/models"
	"github.com/username/subtrack/backend/src/services"
	"github.com/username/subtrack/backend/src/utils"
)

type SubscriptionHandler struct {
}

func NewSubscriptionHandler() *SubscriptionHandler {
	return &SubscriptionHandler{}
}

func (h *SubscriptionHandler) HandleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	subscriptions, err := models.ListSubscriptionsByUser(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list subscriptions", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error querying subscriptions", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, subscriptions)
}

func (h *SubscriptionHandler) HandleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var subscription models.Subscription
	if err := json.NewDecoder(r.Body).Decode(&subscription); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if subscription.Name == "" {
		utils.SendJSONError(w, "Subscription name is required", http.StatusBadRequest)
		return
	}
	if err := validateAllocation(subscription.AllocationType, subscription.Departments); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	subscription.UserID = userID
	if err := subscription.Create(database.DB); err != nil {
		logger.L.Error("Failed to create subscription", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to create subscription", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusCreated, subscription)
}

func (h *SubscriptionHandler) HandleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid subscription id", http.StatusBadRequest)
		return
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// departments is carried alongside the scalar fields: absent means keep
	// the current shares, present (even empty) means replace them.
	var departments []models.DepartmentShare
	if raw, ok := body["departments"]; ok {
		if err := json.Unmarshal(raw, &departments); err != nil {
			utils.SendJSONError(w, "Invalid departments payload", http.StatusBadRequest)
			return
		}
		if departments == nil {
			departments = []models.DepartmentShare{}
		}
		delete(body, "departments")
	}

	updates := make(map[string]any, len(body))
	for field, raw := range body {
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		updates[field] = value
	}

	err = models.UpdateSubscriptionFields(database.DB, userID, id, updates, departments)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrEmptyUpdate):
			utils.SendJSONError(w, "No updatable fields provided", http.StatusBadRequest)
		case errors.Is(err, database.ErrUnknownField):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.L.Error("Failed to update subscription", "userID", userID, "subscriptionID", id, "error", err)
			utils.SendJSONError(w, "Failed to update subscription", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SubscriptionHandler) HandleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid subscription id", http.StatusBadRequest)
		return
	}

	if err := models.DeleteSubscription(database.DB, userID, id); err != nil {
		logger.L.Error("Failed to delete subscription", "userID", userID, "subscriptionID", id, "error", err)
		utils.SendJSONError(w, "Failed to delete subscription", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetDepartmentSpend returns the effective monthly spend per department
// across the user's active subscriptions.
func (h *SubscriptionHandler) HandleGetDepartmentSpend(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	subscriptions, err := models.ListSubscriptionsByUser(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list subscriptions for spend summary", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error querying subscriptions", http.StatusInternalServerError)
		return
	}

	summary := services.ComputeSpendSummary(subscriptions)
	departments := make(map[string]string, len(summary.Departments))
	for id, amount := range summary.Departments {
		departments[fmt.Sprintf("%d", id)] = amount.StringFixed(2)
	}
	utils.SendJSON(w, http.StatusOK, map[string]any{
		"departments":  departments,
		"unattributed": summary.Unattributed.StringFixed(2),
		"monthlyTotal": summary.MonthlyTotal.StringFixed(2),
	})
}

func validateAllocation(allocationType string, departments []models.DepartmentShare) error {
	switch allocationType {
	case "", models.AllocationSingle, models.AllocationEqual:
		return nil
	case models.AllocationPercent:
		if len(departments) == 0 {
			return nil
		}
		var sum float64
		for _, share := range departments {
			if share.Percentage < 0 {
				return errors.New("department percentage cannot be negative")
			}
			sum += share.Percentage
		}
		if math.Abs(sum-100) > 0.01 {
			return fmt.Errorf("department percentages must sum to 100, got %.2f", sum)
		}
		return nil
	default:
		return fmt.Errorf("unknown allocation type %q", allocationType)
	}
}
