package invoice

import (
	"time"

	"github.com/google/uuid"
)

// LineItem is one itemized charge within an invoice. It can be allocated to
// zero or more chart-of-accounts entries; with several accounts selected the
// amount is split equally between them.
type LineItem struct {
	ID                 string            `json:"id"`
	Description        string            `json:"description"`
	Amount             float64           `json:"amount"`
	SelectedAccountIDs []string          `json:"selectedAccountIds"`
	CustomFields       map[string]string `json:"customFields"`
}

// Invoice is a session-scoped working document built from an uploaded file.
// Invoices are never persisted; they live in the per-user session store until
// saved or discarded. BaseAmount/TotalAmount are only guaranteed consistent
// with Items after Save (RecomputeTotals) has run.
type Invoice struct {
	ID            string     `json:"id"`
	FileName      string     `json:"fileName"`
	Date          string     `json:"date"` // YYYY-MM-DD
	VendorName    string     `json:"vendorName"`
	BaseAmount    float64    `json:"baseAmount"`
	VATAmount     float64    `json:"vatAmount"`
	TotalAmount   float64    `json:"totalAmount"`
	Items         []LineItem `json:"items"`
	CustomColumns []string   `json:"customColumns"`
}

// AllocationResult maps account ids to the amounts accumulated against them,
// plus the portion of the line items not attributed to any account. It is
// derived on demand and never stored.
type AllocationResult struct {
	AllocationMap    map[string]float64 `json:"allocationMap"`
	UnallocatedTotal float64            `json:"unallocatedTotal"`
}

// LineItemPatch carries a partial update for a line item. Nil fields are left
// untouched on the target item.
type LineItemPatch struct {
	Description        *string   `json:"description"`
	Amount             *float64  `json:"amount"`
	SelectedAccountIDs *[]string `json:"selectedAccountIds"`
}

// ExtractedInvoice is the best-effort output of the document extraction
// service. Every field may be absent; consumers apply defaults.
type ExtractedInvoice struct {
	Date        *string         `json:"date"`
	VendorName  *string         `json:"vendorName"`
	BaseAmount  *float64        `json:"baseAmount"`
	VATAmount   *float64        `json:"vatAmount"`
	TotalAmount *float64        `json:"totalAmount"`
	Items       []ExtractedItem `json:"items"`
}

// ExtractedItem is a single line item guessed by the extraction service.
type ExtractedItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// NewLineItem returns an empty line item with a fresh id, ready for manual
// editing.
func NewLineItem() LineItem {
	return LineItem{
		ID:                 uuid.NewString(),
		Description:        "New Item",
		Amount:             0,
		SelectedAccountIDs: []string{},
		CustomFields:       map[string]string{},
	}
}

// NewFromExtraction builds an invoice shell from an extraction result,
// applying defaults for anything the extractor could not determine: the date
// falls back to now, the vendor to a placeholder, and an empty item list with
// a known base or total amount becomes a single synthetic line covering the
// whole invoice. A nil extraction yields an empty editable shell, so an AI
// failure never blocks the upload flow.
func NewFromExtraction(fileName string, ext *ExtractedInvoice, now time.Time) Invoice {
	inv := Invoice{
		ID:            uuid.NewString(),
		FileName:      fileName,
		Date:          now.Format("2006-01-02"),
		VendorName:    "Unknown Vendor",
		Items:         []LineItem{},
		CustomColumns: []string{},
	}
	if ext == nil {
		return inv
	}

	if ext.Date != nil && *ext.Date != "" {
		inv.Date = *ext.Date
	}
	if ext.VendorName != nil && *ext.VendorName != "" {
		inv.VendorName = *ext.VendorName
	}
	if ext.BaseAmount != nil {
		inv.BaseAmount = *ext.BaseAmount
	}
	if ext.VATAmount != nil {
		inv.VATAmount = *ext.VATAmount
	}
	if ext.TotalAmount != nil {
		inv.TotalAmount = *ext.TotalAmount
	}

	for _, it := range ext.Items {
		desc := it.Description
		if desc == "" {
			desc = "Item"
		}
		inv.Items = append(inv.Items, LineItem{
			ID:                 uuid.NewString(),
			Description:        desc,
			Amount:             it.Amount,
			SelectedAccountIDs: []string{},
			CustomFields:       map[string]string{},
		})
	}

	if len(inv.Items) == 0 && (inv.BaseAmount != 0 || inv.TotalAmount != 0) {
		amount := inv.BaseAmount
		if amount == 0 {
			amount = inv.TotalAmount
		}
		inv.Items = append(inv.Items, LineItem{
			ID:                 uuid.NewString(),
			Description:        "Total Invoice Amount",
			Amount:             amount,
			SelectedAccountIDs: []string{},
			CustomFields:       map[string]string{},
		})
	}
	return inv
}
