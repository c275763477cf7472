package entity

import "strings"

// FieldKind identifies one extractable document field.
type FieldKind string

const (
	FieldDocumentID       FieldKind = "document_id"
	FieldDate             FieldKind = "date"
	FieldCounterpartyName FieldKind = "counterparty_name"
	FieldAmountExclTax    FieldKind = "amount_excl_tax"
	FieldTaxAmount        FieldKind = "tax_amount"
	FieldVATRate          FieldKind = "vat_rate"
	FieldTaxID            FieldKind = "tax_id"
	FieldRegistrationID   FieldKind = "registration_id"
)

// AllFieldKinds lists every known kind in extraction order.
var AllFieldKinds = []FieldKind{
	FieldDocumentID,
	FieldDate,
	FieldCounterpartyName,
	FieldAmountExclTax,
	FieldTaxAmount,
	FieldVATRate,
	FieldTaxID,
	FieldRegistrationID,
}

// MonetaryFields are summed (not first-wins) when merging multi-page results.
var MonetaryFields = map[FieldKind]bool{
	FieldAmountExclTax: true,
	FieldTaxAmount:     true,
}

// ParsedFieldSet maps field kinds to extracted string values. An absent or
// blank entry means the field was not found; that is not an error condition.
type ParsedFieldSet map[FieldKind]string

func NewParsedFieldSet() ParsedFieldSet {
	return make(ParsedFieldSet)
}

// Get returns the value for kind, or "" when absent.
func (s ParsedFieldSet) Get(kind FieldKind) string {
	return s[kind]
}

// Has reports whether kind carries a non-blank value.
func (s ParsedFieldSet) Has(kind FieldKind) bool {
	return strings.TrimSpace(s[kind]) != ""
}

// Set stores a value unconditionally. Blank values are dropped.
func (s ParsedFieldSet) Set(kind FieldKind, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	s[kind] = value
}

// SetIfAbsent stores a value only when kind is still unset. The first
// non-blank match wins; later keyword hits never overwrite it.
func (s ParsedFieldSet) SetIfAbsent(kind FieldKind, value string) {
	if s.Has(kind) {
		return
	}
	s.Set(kind, value)
}

// Clone returns an independent copy.
func (s ParsedFieldSet) Clone() ParsedFieldSet {
	out := make(ParsedFieldSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
