// Package mapping infers how an external table's columns line up with the
// fields of a target entity. Inference is a pure function of the column list
// and the synonym tables, so callers can unit-test it against literal names
// and operators can override it with a hand-written JSON mapping.
package mapping

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind selects the target entity of an import run.
type Kind string

const (
	KindCustomer      Kind = "customer"
	KindCylinder      Kind = "cylinder"
	KindTransaction   Kind = "transaction"
	KindRentalHistory Kind = "rental_history"
)

func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindCustomer:
		return KindCustomer, nil
	case KindCylinder:
		return KindCylinder, nil
	case KindTransaction:
		return KindTransaction, nil
	case KindRentalHistory:
		return KindRentalHistory, nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", raw)
	}
}

// Mapping is target field name to source column name. Unmapped target fields
// are simply absent.
type Mapping map[string]string

// Options tunes inference behavior.
type Options struct {
	// ExclusiveColumns claims each source column for at most one target
	// field, first claim wins. The source system applied this inconsistently
	// across importer variants, so it is policy here rather than hardcoded.
	ExclusiveColumns bool
}

type fieldSynonyms struct {
	field    string
	synonyms []string
}

// Synonym lists are ordered by priority; the first synonym that matches any
// source column claims the field.
var synonymTable = map[Kind][]fieldSynonyms{
	KindCustomer: {
		{"customer_no", []string{"customer_no", "customer number", "cust_no", "custno", "customer id", "account_no", "account"}},
		{"name", []string{"customer name", "name", "party", "firm"}},
		{"address", []string{"address", "addr", "street"}},
		{"city", []string{"city", "town", "district"}},
		{"state", []string{"state", "province", "region"}},
		{"phone", []string{"phone", "mobile", "contact", "telephone", "cell"}},
		{"tax_id", []string{"tax_id", "tin", "gstin", "gst", "vat"}},
		{"tax_reg_no", []string{"tax_reg_no", "pan", "registration"}},
	},
	KindCylinder: {
		{"custom_id", []string{"custom_id", "cylinder_no", "cylinder number", "cyl_no", "cylinder id", "tag"}},
		{"serial_number", []string{"serial_number", "serial no", "serial", "mfg_no"}},
		{"type", []string{"gas type", "cylinder type", "type", "gas"}},
		{"size", []string{"size", "capacity", "volume"}},
		{"status", []string{"status", "state", "condition"}},
		{"location", []string{"location", "site", "store", "godown", "warehouse"}},
	},
	KindTransaction: {
		{"customer_no", []string{"customer_no", "customer number", "cust_no", "custno", "customer", "account"}},
		{"cylinder_no", []string{"cylinder_no", "cylinder number", "cyl_no", "cylinder", "serial"}},
		{"dispatch_date", []string{"dispatch_date", "dispatch", "issue_date", "issued", "date_borrowed", "rent_date", "out_date"}},
		{"return_date", []string{"return_date", "return", "received_date", "date_returned", "in_date"}},
	},
	KindRentalHistory: {
		{"customer_no", []string{"customer_no", "customer number", "cust_no", "custno", "customer", "account"}},
		{"cylinder_no", []string{"cylinder_no", "cylinder number", "cyl_no", "cylinder", "serial"}},
		{"dispatch_date", []string{"dispatch_date", "dispatch", "issue_date", "issued", "date_borrowed", "rent_date", "out_date"}},
		{"return_date", []string{"return_date", "return", "received_date", "date_returned", "in_date"}},
	},
}

// TargetFields returns the target field names for a kind, in priority order.
func TargetFields(kind Kind) []string {
	entries := synonymTable[kind]
	fields := make([]string, 0, len(entries))
	for _, entry := range entries {
		fields = append(fields, entry.field)
	}
	return fields
}

// RequiredFields returns the fields that must be mapped and non-empty for a
// row of the kind to be importable.
func RequiredFields(kind Kind) []string {
	switch kind {
	case KindCustomer:
		return []string{"customer_no", "name", "address", "city", "state", "phone"}
	case KindCylinder:
		return []string{"custom_id"}
	case KindTransaction, KindRentalHistory:
		return []string{"customer_no", "cylinder_no"}
	default:
		return nil
	}
}

// Suggest proposes a mapping from target fields to source columns using the
// synonym tables. For each target field the synonyms are tried in priority
// order, first with a normalized exact match over all columns, then with a
// substring match. Unmatched fields are left out of the mapping.
func Suggest(kind Kind, columns []string, opts Options) Mapping {
	normalized := make([]string, len(columns))
	for i, col := range columns {
		normalized[i] = normalize(col)
	}

	claimed := make(map[int]bool, len(columns))
	result := make(Mapping)

	for _, entry := range synonymTable[kind] {
		if idx := match(entry.synonyms, normalized, claimed, opts.ExclusiveColumns); idx >= 0 {
			result[entry.field] = columns[idx]
			if opts.ExclusiveColumns {
				claimed[idx] = true
			}
		}
	}
	return result
}

func match(synonyms, normalized []string, claimed map[int]bool, exclusive bool) int {
	for _, syn := range synonyms {
		want := normalize(syn)
		for i, col := range normalized {
			if exclusive && claimed[i] {
				continue
			}
			if col == want {
				return i
			}
		}
	}
	for _, syn := range synonyms {
		want := normalize(syn)
		for i, col := range normalized {
			if exclusive && claimed[i] {
				continue
			}
			if strings.Contains(col, want) {
				return i
			}
		}
	}
	return -1
}

// normalize lowercases and strips separators so "Customer No." and
// "customer_no" compare equal.
func normalize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Parse decodes a manual JSON mapping (flat object of target field to source
// column), which bypasses inference entirely.
func Parse(raw string) (Mapping, error) {
	var m Mapping
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("decode field mapping: %w", err)
	}
	return m, nil
}
