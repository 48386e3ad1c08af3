package database

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEmptyUpdate is returned when a partial update carries no fields. This is
// a caller error, not a transient failure, and maps to a 400 at the handler.
var ErrEmptyUpdate = errors.New("no updates provided")

// ErrUnknownField is returned when an update names a field outside the
// allow-list. Also a caller error.
var ErrUnknownField = errors.New("field is not updatable")

// UpdateClause is a prepared SET clause fragment plus its parameter values, in
// matching order.
type UpdateClause struct {
	SetClause string
	Values    []any
}

// BuildUpdateClause translates a caller-supplied field subset into a SET
// clause against an explicit allow-list. allowed maps the JSON field name to
// its storage column (covering alias translation such as holderName ->
// holder_name); field names outside the allow-list are rejected rather than
// interpolated into SQL. Values pass through untyped; the store enforces
// types. Columns are emitted in sorted order so statements are deterministic.
func BuildUpdateClause(allowed map[string]string, updates map[string]any) (*UpdateClause, error) {
	if len(updates) == 0 {
		return nil, ErrEmptyUpdate
	}

	columns := make([]string, 0, len(updates))
	valueByColumn := make(map[string]any, len(updates))
	for field, value := range updates {
		column, ok := allowed[field]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		columns = append(columns, column)
		valueByColumn[column] = value
	}
	sort.Strings(columns)

	parts := make([]string, 0, len(columns))
	values := make([]any, 0, len(columns))
	for _, column := range columns {
		parts = append(parts, column+" = ?")
		values = append(values, valueByColumn[column])
	}

	return &UpdateClause{
		SetClause: strings.Join(parts, ", "),
		Values:    values,
	}, nil
}
