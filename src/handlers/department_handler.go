package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/subtrack/backend/src/database"
	"github.com/username/subtrack/backend/src/logger"
	"github.com/username/subtrack/backend/src/models"
	"github.com/username/subtrack/backend/src/utils"
)

type DepartmentHandler struct {
}

func NewDepartmentHandler() *DepartmentHandler {
	return &DepartmentHandler{}
}

func (h *DepartmentHandler) HandleListDepartments(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	departments, err := models.ListDepartmentsByUser(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list departments", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error querying departments", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, departments)
}

func (h *DepartmentHandler) HandleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var department models.Department
	if err := json.NewDecoder(r.Body).Decode(&department); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if department.Name == "" {
		utils.SendJSONError(w, "Department name is required", http.StatusBadRequest)
		return
	}

	department.UserID = userID
	if err := department.Create(database.DB); err != nil {
		logger.L.Error("Failed to create department", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to create department", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusCreated, department)
}

func (h *DepartmentHandler) HandleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid department id", http.StatusBadRequest)
		return
	}

	if err := models.DeleteDepartment(database.DB, userID, id); err != nil {
		logger.L.Error("Failed to delete department", "userID", userID, "departmentID", id, "error", err)
		utils.SendJSONError(w, "Failed to delete department", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
