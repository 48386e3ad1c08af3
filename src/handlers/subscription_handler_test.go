package handlers

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/subtrack/backend/src/models"
)

func subscriptionRoutes(userHandler *UserHandler) http.Handler {
	subscriptionHandler := NewSubscriptionHandler()
	departmentHandler := NewDepartmentHandler()
	withAuth := func(h http.HandlerFunc) http.Handler { return userHandler.AuthMiddleware(h) }

	mux := http.NewServeMux()
	mux.Handle("GET /api/subscriptions", withAuth(subscriptionHandler.HandleListSubscriptions))
	mux.Handle("POST /api/subscriptions", withAuth(subscriptionHandler.HandleCreateSubscription))
	mux.Handle("PUT /api/subscriptions/{id}", withAuth(subscriptionHandler.HandleUpdateSubscription))
	mux.Handle("DELETE /api/subscriptions/{id}", withAuth(subscriptionHandler.HandleDeleteSubscription))
	mux.Handle("GET /api/spend/departments", withAuth(subscriptionHandler.HandleGetDepartmentSpend))
	mux.Handle("POST /api/departments", withAuth(departmentHandler.HandleCreateDepartment))
	return mux
}

func createDepartment(t *testing.T, mux http.Handler, token, name string) models.Department {
	t.Helper()
	resp := doJSON(t, mux, http.MethodPost, "/api/departments", token, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var department models.Department
	decodeJSON(t, resp, &department)
	return department
}

func TestSubscriptionLifecycleWithShares(t *testing.T) {
	userHandler := setupTestEnv(t)
	mux := subscriptionRoutes(userHandler)
	token := registerAndLogin(t, userHandler, "subs@example.com")

	engineering := createDepartment(t, mux, token, "Engineering")
	marketing := createDepartment(t, mux, token, "Marketing")

	resp := doJSON(t, mux, http.MethodPost, "/api/subscriptions", token, map[string]any{
		"name":           "Figma",
		"baseAmount":     90.0,
		"billingCycle":   "MONTHLY",
		"allocationType": "PERCENT",
		"departments": []map[string]any{
			{"departmentId": engineering.ID, "percentage": 60},
			{"departmentId": marketing.ID, "percentage": 40},
		},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var created models.Subscription
	decodeJSON(t, resp, &created)
	require.NotZero(t, created.ID)

	resp = doJSON(t, mux, http.MethodGet, "/api/subscriptions", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var subscriptions []models.Subscription
	decodeJSON(t, resp, &subscriptions)
	require.Len(t, subscriptions, 1)
	assert.Len(t, subscriptions[0].Departments, 2)

	// scalar update plus wholesale share replacement in one call
	resp = doJSON(t, mux, http.MethodPut, subscriptionPath(created.ID), token, map[string]any{
		"baseAmount":     120.0,
		"allocationType": "SINGLE",
		"departments": []map[string]any{
			{"departmentId": engineering.ID, "percentage": 100},
		},
	})
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	resp = doJSON(t, mux, http.MethodGet, "/api/subscriptions", token, nil)
	decodeJSON(t, resp, &subscriptions)
	require.Len(t, subscriptions, 1)
	assert.Equal(t, 120.0, subscriptions[0].BaseAmount)
	assert.Equal(t, models.AllocationSingle, subscriptions[0].AllocationType)
	require.Len(t, subscriptions[0].Departments, 1)

	// absent departments key leaves shares alone
	resp = doJSON(t, mux, http.MethodPut, subscriptionPath(created.ID), token, map[string]any{
		"status": "CANCELLED",
	})
	require.Equal(t, http.StatusNoContent, resp.Code)
	resp = doJSON(t, mux, http.MethodGet, "/api/subscriptions", token, nil)
	decodeJSON(t, resp, &subscriptions)
	assert.Len(t, subscriptions[0].Departments, 1)

	resp = doJSON(t, mux, http.MethodDelete, subscriptionPath(created.ID), token, nil)
	require.Equal(t, http.StatusNoContent, resp.Code)
	resp = doJSON(t, mux, http.MethodGet, "/api/subscriptions", token, nil)
	decodeJSON(t, resp, &subscriptions)
	assert.Empty(t, subscriptions)
}

func TestSubscriptionCreateValidatesPercentages(t *testing.T) {
	userHandler := setupTestEnv(t)
	mux := subscriptionRoutes(userHandler)
	token := registerAndLogin(t, userHandler, "percent@example.com")
	department := createDepartment(t, mux, token, "Ops")

	resp := doJSON(t, mux, http.MethodPost, "/api/subscriptions", token, map[string]any{
		"name":           "Slack",
		"baseAmount":     50.0,
		"allocationType": "PERCENT",
		"departments": []map[string]any{
			{"departmentId": department.ID, "percentage": 70},
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	resp = doJSON(t, mux, http.MethodPost, "/api/subscriptions", token, map[string]any{
		"name":           "Slack",
		"allocationType": "WEIRD",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDepartmentSpendEndpoint(t *testing.T) {
	userHandler := setupTestEnv(t)
	mux := subscriptionRoutes(userHandler)
	token := registerAndLogin(t, userHandler, "spend@example.com")

	engineering := createDepartment(t, mux, token, "Engineering")

	resp := doJSON(t, mux, http.MethodPost, "/api/subscriptions", token, map[string]any{
		"name":           "Datadog",
		"baseAmount":     1200.0,
		"billingCycle":   "YEARLY",
		"allocationType": "SINGLE",
		"departments": []map[string]any{
			{"departmentId": engineering.ID, "percentage": 100},
		},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = doJSON(t, mux, http.MethodPost, "/api/subscriptions", token, map[string]any{
		"name":       "Mystery Tool",
		"baseAmount": 25.0,
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = doJSON(t, mux, http.MethodGet, "/api/spend/departments", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var summary struct {
		Departments  map[string]string `json:"departments"`
		Unattributed string            `json:"unattributed"`
		MonthlyTotal string            `json:"monthlyTotal"`
	}
	decodeJSON(t, resp, &summary)
	assert.Equal(t, "100.00", summary.Departments[strconv.FormatInt(engineering.ID, 10)])
	assert.Equal(t, "25.00", summary.Unattributed)
	assert.Equal(t, "125.00", summary.MonthlyTotal)
}

func subscriptionPath(id int64) string {
	return "/api/subscriptions/" + strconv.FormatInt(id, 10)
}
