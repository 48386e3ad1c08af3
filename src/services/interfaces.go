package services

import (
	"context"

	"github.com/username/subtrack/backend/src/invoice"
)

// DocumentExtractor turns raw document bytes into a best-effort structured
// guess of invoice fields. A nil result with a nil error means the service
// could not extract anything; callers fall back to an empty invoice shell.
type DocumentExtractor interface {
	ExtractInvoice(ctx context.Context, data []byte, mimeType string) (*invoice.ExtractedInvoice, error)
}

// InvoiceService owns the per-user in-memory invoice working set and applies
// the allocation engine operations to it. Invoices are never persisted; they
// expire with the session store TTL.
type InvoiceService interface {
	ProcessUpload(ctx context.Context, userID int64, fileName string, data []byte, mimeType string) (invoice.Invoice, error)
	ListInvoices(userID int64) []invoice.Invoice
	GetInvoice(userID int64, invoiceID string) (invoice.Invoice, error)
	DeleteInvoice(userID int64, invoiceID string)

	AddItem(userID int64, invoiceID string) (invoice.Invoice, error)
	UpdateItem(userID int64, invoiceID, itemID string, patch invoice.LineItemPatch) (invoice.Invoice, error)
	RemoveItem(userID int64, invoiceID, itemID string) (invoice.Invoice, error)
	ToggleAccount(userID int64, invoiceID, itemID, accountID string) (invoice.Invoice, error)
	SetVAT(userID int64, invoiceID string, vatAmount float64) (invoice.Invoice, error)

	SaveInvoice(userID int64, invoiceID string) (invoice.Invoice, error)
	Allocations(userID int64, invoiceID string) (invoice.AllocationResult, error)
}
