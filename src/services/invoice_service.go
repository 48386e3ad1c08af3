package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/subtrack/backend/src/invoice"
	"github.com/username/subtrack/backend/src/logger"
	"github.com/username/subtrack/backend/src/security/validation"
)

var (
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrLineItemNotFound = errors.New("line item not found")
)

// invoiceService keeps each user's uploaded invoices in a TTL cache. Every
// operation loads a copy, applies a pure engine function, and stores the
// result back, so the engine's value semantics are preserved end to end.
type invoiceService struct {
	extractor DocumentExtractor
	store     *cache.Cache
	ttl       time.Duration
	mu        sync.Mutex
}

func NewInvoiceService(extractor DocumentExtractor, ttl time.Duration) InvoiceService {
	return &invoiceService{
		extractor: extractor,
		store:     cache.New(ttl, 2*ttl),
		ttl:       ttl,
	}
}

func invoiceKey(userID int64, invoiceID string) string {
	return fmt.Sprintf("inv:%d:%s", userID, invoiceID)
}

func indexKey(userID int64) string {
	return fmt.Sprintf("idx:%d", userID)
}

// ProcessUpload runs the extraction pipeline for one file and stores the
// resulting invoice shell. Extraction failures are logged and degraded to an
// empty shell; the upload itself never fails because of the AI service.
func (s *invoiceService) ProcessUpload(ctx context.Context, userID int64, fileName string, data []byte, mimeType string) (invoice.Invoice, error) {
	ext, err := s.extractor.ExtractInvoice(ctx, data, mimeType)
	if err != nil {
		if logger.L != nil {
			logger.L.Warn("Document extraction failed, continuing with empty invoice", "userID", userID, "fileName", fileName, "error", err)
		}
		ext = nil
	}
	sanitizeExtraction(ext)

	inv := invoice.NewFromExtraction(fileName, ext, time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(userID, inv)
	return inv, nil
}

func sanitizeExtraction(ext *invoice.ExtractedInvoice) {
	if ext == nil {
		return
	}
	if ext.VendorName != nil {
		clean := validation.StripUnprintable(*ext.VendorName)
		ext.VendorName = &clean
	}
	for i := range ext.Items {
		ext.Items[i].Description = validation.StripUnprintable(ext.Items[i].Description)
	}
}

func (s *invoiceService) ListInvoices(userID int64) []invoice.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.indexLocked(userID)
	invoices := []invoice.Invoice{}
	live := ids[:0]
	for _, id := range ids {
		if v, ok := s.store.Get(invoiceKey(userID, id)); ok {
			invoices = append(invoices, v.(invoice.Invoice))
			live = append(live, id)
		}
	}
	// drop index entries whose invoices expired
	if len(live) != len(ids) {
		s.store.Set(indexKey(userID), append([]string{}, live...), s.ttl)
	}
	return invoices
}

func (s *invoiceService) GetInvoice(userID int64, invoiceID string) (invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(userID, invoiceID)
}

func (s *invoiceService) DeleteInvoice(userID int64, invoiceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Delete(invoiceKey(userID, invoiceID))
	ids := s.indexLocked(userID)
	remaining := ids[:0]
	for _, id := range ids {
		if id != invoiceID {
			remaining = append(remaining, id)
		}
	}
	s.store.Set(indexKey(userID), append([]string{}, remaining...), s.ttl)
}

func (s *invoiceService) AddItem(userID int64, invoiceID string) (invoice.Invoice, error) {
	return s.mutate(userID, invoiceID, func(inv invoice.Invoice) (invoice.Invoice, error) {
		return invoice.AddLineItem(inv, invoice.NewLineItem()), nil
	})
}

func (s *invoiceService) UpdateItem(userID int64, invoiceID, itemID string, patch invoice.LineItemPatch) (invoice.Invoice, error) {
	return s.mutate(userID, invoiceID, func(inv invoice.Invoice) (invoice.Invoice, error) {
		if !hasItem(inv, itemID) {
			return inv, ErrLineItemNotFound
		}
		return invoice.UpdateLineItem(inv, itemID, patch), nil
	})
}

// RemoveItem is idempotent: removing an unknown item id succeeds and leaves
// the invoice unchanged.
func (s *invoiceService) RemoveItem(userID int64, invoiceID, itemID string) (invoice.Invoice, error) {
	return s.mutate(userID, invoiceID, func(inv invoice.Invoice) (invoice.Invoice, error) {
		return invoice.RemoveLineItem(inv, itemID), nil
	})
}

func (s *invoiceService) ToggleAccount(userID int64, invoiceID, itemID, accountID string) (invoice.Invoice, error) {
	return s.mutate(userID, invoiceID, func(inv invoice.Invoice) (invoice.Invoice, error) {
		if !hasItem(inv, itemID) {
			return inv, ErrLineItemNotFound
		}
		return invoice.ToggleAccount(inv, itemID, accountID), nil
	})
}

func (s *invoiceService) SetVAT(userID int64, invoiceID string, vatAmount float64) (invoice.Invoice, error) {
	return s.mutate(userID, invoiceID, func(inv invoice.Invoice) (invoice.Invoice, error) {
		inv.VATAmount = vatAmount
		return inv, nil
	})
}

// SaveInvoice recomputes base and total amounts from the current items. This
// is the only point where the invoice's totals are forced consistent.
func (s *invoiceService) SaveInvoice(userID int64, invoiceID string) (invoice.Invoice, error) {
	return s.mutate(userID, invoiceID, func(inv invoice.Invoice) (invoice.Invoice, error) {
		return invoice.RecomputeTotals(inv), nil
	})
}

func (s *invoiceService) Allocations(userID int64, invoiceID string) (invoice.AllocationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.getLocked(userID, invoiceID)
	if err != nil {
		return invoice.AllocationResult{}, err
	}
	return invoice.ComputeAllocations(inv.Items), nil
}

func (s *invoiceService) mutate(userID int64, invoiceID string, fn func(invoice.Invoice) (invoice.Invoice, error)) (invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.getLocked(userID, invoiceID)
	if err != nil {
		return invoice.Invoice{}, err
	}
	out, err := fn(inv)
	if err != nil {
		return invoice.Invoice{}, err
	}
	s.store.Set(invoiceKey(userID, invoiceID), out, s.ttl)
	return out, nil
}

func (s *invoiceService) getLocked(userID int64, invoiceID string) (invoice.Invoice, error) {
	v, ok := s.store.Get(invoiceKey(userID, invoiceID))
	if !ok {
		return invoice.Invoice{}, ErrInvoiceNotFound
	}
	return v.(invoice.Invoice), nil
}

func (s *invoiceService) putLocked(userID int64, inv invoice.Invoice) {
	s.store.Set(invoiceKey(userID, inv.ID), inv, s.ttl)
	ids := s.indexLocked(userID)
	s.store.Set(indexKey(userID), append(append([]string{}, ids...), inv.ID), s.ttl)
}

func (s *invoiceService) indexLocked(userID int64) []string {
	if v, ok := s.store.Get(indexKey(userID)); ok {
		return v.([]string)
	}
	return []string{}
}

func hasItem(inv invoice.Invoice, itemID string) bool {
	for _, item := range inv.Items {
		if item.ID == itemID {
			return true
		}
	}
	return false
}
