package invoice

// The allocation engine is a set of pure functions over caller-owned Invoice
// values. Inputs are never mutated; every operation returns a fresh value, so
// callers must not rely on aliasing. The engine has no error conditions:
// malformed amounts (negative, zero with accounts selected) are computed
// through literally rather than rejected.

// ComputeAllocations derives the per-account allocated totals for a line-item
// sequence. An item with no selected accounts contributes its full amount to
// UnallocatedTotal; otherwise the amount is split equally across the selected
// account ids and accumulated into the map. No rounding is applied, so the
// map total plus the unallocated total always equals the sum of item amounts
// up to floating-point error, regardless of item order.
func ComputeAllocations(items []LineItem) AllocationResult {
	result := AllocationResult{AllocationMap: map[string]float64{}}
	for _, item := range items {
		if len(item.SelectedAccountIDs) == 0 {
			result.UnallocatedTotal += item.Amount
			continue
		}
		split := item.Amount / float64(len(item.SelectedAccountIDs))
		for _, accountID := range item.SelectedAccountIDs {
			result.AllocationMap[accountID] += split
		}
	}
	return result
}

// RecomputeTotals returns the invoice with BaseAmount set to the sum of its
// item amounts and TotalAmount to BaseAmount plus the manually supplied VAT.
// VAT is never derived from items or reconciled against extracted data.
// Idempotent: applying it twice without intervening edits changes nothing.
func RecomputeTotals(inv Invoice) Invoice {
	out := cloneInvoice(inv)
	base := 0.0
	for _, item := range out.Items {
		base += item.Amount
	}
	out.BaseAmount = base
	out.TotalAmount = base + out.VATAmount
	return out
}

// AddLineItem appends the item to the invoice's item sequence.
func AddLineItem(inv Invoice, item LineItem) Invoice {
	out := cloneInvoice(inv)
	out.Items = append(out.Items, cloneItem(item))
	return out
}

// UpdateLineItem merges the non-nil patch fields into the item with the given
// id. Items other than the target keep their identity and position; an
// unknown id leaves the invoice unchanged.
func UpdateLineItem(inv Invoice, itemID string, patch LineItemPatch) Invoice {
	out := cloneInvoice(inv)
	for i := range out.Items {
		if out.Items[i].ID != itemID {
			continue
		}
		if patch.Description != nil {
			out.Items[i].Description = *patch.Description
		}
		if patch.Amount != nil {
			out.Items[i].Amount = *patch.Amount
		}
		if patch.SelectedAccountIDs != nil {
			out.Items[i].SelectedAccountIDs = append([]string{}, (*patch.SelectedAccountIDs)...)
		}
		break
	}
	return out
}

// RemoveLineItem deletes the item with the given id, preserving the order of
// the remaining items. Removing an unknown id is a no-op.
func RemoveLineItem(inv Invoice, itemID string) Invoice {
	out := cloneInvoice(inv)
	items := out.Items[:0:0]
	for _, item := range out.Items {
		if item.ID != itemID {
			items = append(items, item)
		}
	}
	if items == nil {
		items = []LineItem{}
	}
	out.Items = items
	return out
}

// ToggleAccountForLine adds the account id to the item's selection if absent
// and removes it if present. The selection behaves as a set even though it is
// stored as an ordered slice: toggling twice restores the original selection
// and duplicates are never created.
func ToggleAccountForLine(item LineItem, accountID string) LineItem {
	out := cloneItem(item)
	for i, id := range out.SelectedAccountIDs {
		if id == accountID {
			out.SelectedAccountIDs = append(out.SelectedAccountIDs[:i:i], out.SelectedAccountIDs[i+1:]...)
			return out
		}
	}
	out.SelectedAccountIDs = append(out.SelectedAccountIDs, accountID)
	return out
}

// ToggleAccount applies ToggleAccountForLine to the identified item inside an
// invoice. An unknown item id leaves the invoice unchanged.
func ToggleAccount(inv Invoice, itemID, accountID string) Invoice {
	out := cloneInvoice(inv)
	for i := range out.Items {
		if out.Items[i].ID == itemID {
			out.Items[i] = ToggleAccountForLine(out.Items[i], accountID)
			break
		}
	}
	return out
}

func cloneInvoice(inv Invoice) Invoice {
	out := inv
	out.Items = make([]LineItem, len(inv.Items))
	for i, item := range inv.Items {
		out.Items[i] = cloneItem(item)
	}
	out.CustomColumns = append([]string{}, inv.CustomColumns...)
	return out
}

func cloneItem(item LineItem) LineItem {
	out := item
	out.SelectedAccountIDs = append([]string{}, item.SelectedAccountIDs...)
	if item.CustomFields != nil {
		out.CustomFields = make(map[string]string, len(item.CustomFields))
		for k, v := range item.CustomFields {
			out.CustomFields[k] = v
		}
	}
	return out
}
