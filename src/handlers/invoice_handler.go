package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/username/subtrack/backend/src/config"
	"github.com/username/subtrack/backend/src/invoice"
	"github.com/username/subtrack/backend/src/logger"
	"github.com/username/subtrack/backend/src/security/validation"
	"github.com/username/subtrack/backend/src/services"
	"github.com/username/subtrack/backend/src/utils"
)

type InvoiceHandler struct {
	invoiceService services.InvoiceService
}

func NewInvoiceHandler(service services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: service,
	}
}

func (h *InvoiceHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "userID", userID, "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file too large", "userID", userID, "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		logger.L.Warn("Invalid client-declared file type", "userID", userID, "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		logger.L.Warn("File content validation failed", "userID", userID, "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, config.Cfg.MaxUploadSizeBytes))
	if err != nil {
		logger.L.Error("Failed to read uploaded file", "userID", userID, "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, "Failed to read uploaded file", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Processing invoice upload", "userID", userID, "filename", fileHeader.Filename, "detectedType", detectedContentType)
	inv, err := h.invoiceService.ProcessUpload(r.Context(), userID, fileHeader.Filename, data, detectedContentType)
	if err != nil {
		logger.L.Error("Invoice upload processing failed", "userID", userID, "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, "Failed to process uploaded invoice", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) HandleListInvoices(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}
	utils.SendJSON(w, http.StatusOK, h.invoiceService.ListInvoices(userID))
}

func (h *InvoiceHandler) HandleGetInvoice(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	inv, err := h.invoiceService.GetInvoice(userID, r.PathValue("id"))
	if err != nil {
		h.sendInvoiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) HandleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	h.invoiceService.DeleteInvoice(userID, r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *InvoiceHandler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	inv, err := h.invoiceService.AddItem(userID, r.PathValue("id"))
	if err != nil {
		h.sendInvoiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var patch invoice.LineItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	inv, err := h.invoiceService.UpdateItem(userID, r.PathValue("id"), r.PathValue("itemID"), patch)
	if err != nil {
		h.sendInvoiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	inv, err := h.invoiceService.RemoveItem(userID, r.PathValue("id"), r.PathValue("itemID"))
	if err != nil {
		h.sendInvoiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) HandleToggleAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var body struct {
		AccountID string `json:"accountId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.AccountID == "" {
		utils.SendJSONError(w, "accountId is required", http.StatusBadRequest)
		return
	}

	inv, err := h.invoiceService.ToggleAccount(userID, r.PathValue("id"), r.PathValue("itemID"), body.AccountID)
	if err != nil {
		h.sendInvoiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) HandleSetVAT(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var body struct {
		VATAmount *float64 `json:"vatAmount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.VATAmount == nil {
		utils.SendJSONError(w, "vatAmount is required", http.StatusBadRequest)
		return
	}

	inv, err := h.invoiceService.SetVAT(userID, r.PathValue("id"), *body.VATAmount)
	if err != nil {
		h.sendInvoiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) HandleSaveInvoice(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	inv, err := h.invoiceService.SaveInvoice(userID, r.PathValue("id"))
	if err != nil {
		h.sendInvoiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) HandleGetAllocations(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	result, err := h.invoiceService.Allocations(userID, r.PathValue("id"))
	if err != nil {
		h.sendInvoiceError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, result)
}

func (h *InvoiceHandler) sendInvoiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvoiceNotFound):
		utils.SendJSONError(w, "Invoice not found or session expired", http.StatusNotFound)
	case errors.Is(err, services.ErrLineItemNotFound):
		utils.SendJSONError(w, "Line item not found", http.StatusNotFound)
	default:
		logger.L.Error("Invoice operation failed", "error", err)
		utils.SendJSONError(w, "Invoice operation failed", http.StatusInternalServerError)
	}
}
