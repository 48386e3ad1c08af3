package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/subtrack/backend/src/invoice"
)

type stubExtractor struct {
	invoice *invoice.ExtractedInvoice
	err     error
}

func (s *stubExtractor) ExtractInvoice(context.Context, []byte, string) (*invoice.ExtractedInvoice, error) {
	return s.invoice, s.err
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func TestProcessUploadWithExtraction(t *testing.T) {
	ext := &stubExtractor{invoice: &invoice.ExtractedInvoice{
		Date:       strPtr("2026-03-01"),
		VendorName: strPtr("Acme\x00 Corp"),
		BaseAmount:  floatPtr(100),
		VATAmount:   floatPtr(23),
		TotalAmount: floatPtr(123),
		Items: []invoice.ExtractedItem{
			{Description: "Hosting", Amount: 60},
			{Description: "Support", Amount: 40},
		},
	}}
	svc := NewInvoiceService(ext, time.Minute)

	inv, err := svc.ProcessUpload(context.Background(), 1, "march.pdf", []byte("%PDF-"), "application/pdf")
	require.NoError(t, err)

	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, "march.pdf", inv.FileName)
	assert.Equal(t, "2026-03-01", inv.Date)
	assert.Equal(t, "Acme Corp", inv.VendorName, "unprintable bytes stripped")
	assert.Len(t, inv.Items, 2)
	assert.Equal(t, 100.0, inv.BaseAmount)
	assert.Equal(t, 123.0, inv.TotalAmount)

	listed := svc.ListInvoices(1)
	require.Len(t, listed, 1)
	assert.Equal(t, inv.ID, listed[0].ID)
}

func TestProcessUploadExtractionFailureDegrades(t *testing.T) {
	svc := NewInvoiceService(&stubExtractor{err: errors.New("model unavailable")}, time.Minute)

	inv, err := svc.ProcessUpload(context.Background(), 1, "scan.png", []byte{0x89}, "image/png")
	require.NoError(t, err, "extraction failure must not fail the upload")

	assert.Equal(t, "Unknown Vendor", inv.VendorName)
	assert.Empty(t, inv.Items, "an empty editable shell, not an error")
}

func TestInvoicesAreScopedByUser(t *testing.T) {
	svc := NewInvoiceService(&stubExtractor{}, time.Minute)

	inv, err := svc.ProcessUpload(context.Background(), 1, "a.pdf", nil, "application/pdf")
	require.NoError(t, err)

	_, err = svc.GetInvoice(2, inv.ID)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
	assert.Empty(t, svc.ListInvoices(2))
}

func TestItemLifecycle(t *testing.T) {
	svc := NewInvoiceService(&stubExtractor{}, time.Minute)
	inv, err := svc.ProcessUpload(context.Background(), 7, "a.pdf", nil, "application/pdf")
	require.NoError(t, err)

	inv, err = svc.AddItem(7, inv.ID)
	require.NoError(t, err)
	require.Len(t, inv.Items, 2)
	added := inv.Items[1]
	assert.Equal(t, "New Item", added.Description)

	inv, err = svc.UpdateItem(7, inv.ID, added.ID, invoice.LineItemPatch{
		Description: strPtr("Consulting"),
		Amount:      floatPtr(250),
	})
	require.NoError(t, err)
	assert.Equal(t, "Consulting", inv.Items[1].Description)
	assert.Equal(t, 250.0, inv.Items[1].Amount)

	_, err = svc.UpdateItem(7, inv.ID, "missing", invoice.LineItemPatch{})
	assert.ErrorIs(t, err, ErrLineItemNotFound)

	inv, err = svc.ToggleAccount(7, inv.ID, added.ID, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"acct-1"}, inv.Items[1].SelectedAccountIDs)

	alloc, err := svc.Allocations(7, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 250.0, alloc.AllocationMap["acct-1"])

	inv, err = svc.RemoveItem(7, inv.ID, added.ID)
	require.NoError(t, err)
	assert.Len(t, inv.Items, 1)

	// removing again is a no-op
	inv, err = svc.RemoveItem(7, inv.ID, added.ID)
	require.NoError(t, err)
	assert.Len(t, inv.Items, 1)
}

func TestSetVATAndSaveRecomputeTotals(t *testing.T) {
	ext := &stubExtractor{invoice: &invoice.ExtractedInvoice{
		BaseAmount: floatPtr(80),
		Items:      []invoice.ExtractedItem{{Description: "SaaS", Amount: 80}},
	}}
	svc := NewInvoiceService(ext, time.Minute)
	inv, err := svc.ProcessUpload(context.Background(), 3, "b.pdf", nil, "application/pdf")
	require.NoError(t, err)

	inv, err = svc.SetVAT(3, inv.ID, 18.4)
	require.NoError(t, err)
	assert.Equal(t, 18.4, inv.VATAmount)

	inv, err = svc.SaveInvoice(3, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 80.0, inv.BaseAmount)
	assert.InDelta(t, 98.4, inv.TotalAmount, 1e-9)
}

func TestDeleteInvoiceRemovesFromIndex(t *testing.T) {
	svc := NewInvoiceService(&stubExtractor{}, time.Minute)
	inv, err := svc.ProcessUpload(context.Background(), 5, "c.pdf", nil, "application/pdf")
	require.NoError(t, err)

	svc.DeleteInvoice(5, inv.ID)
	assert.Empty(t, svc.ListInvoices(5))
	_, err = svc.GetInvoice(5, inv.ID)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}
