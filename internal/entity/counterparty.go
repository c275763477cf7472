package entity

// CounterpartyCandidate is the recognizer's best guess at who issued the
// document. Any of the identifying fields may be blank; Confidence grows
// with the number of identifiers found.
type CounterpartyCandidate struct {
	RegistrationID string  `json:"registration_id,omitempty"`
	TaxID          string  `json:"tax_id,omitempty"`
	Name           string  `json:"name,omitempty"`
	Confidence     float64 `json:"confidence"`
}

// Empty reports whether nothing at all was recognized.
func (c CounterpartyCandidate) Empty() bool {
	return c.RegistrationID == "" && c.TaxID == "" && c.Name == ""
}

// Keys returns the normalized template lookup keys in preference order:
// registration id first, then tax id, then name. Blank identifiers are
// skipped.
func (c CounterpartyCandidate) Keys() []string {
	var keys []string
	for _, raw := range []string{c.RegistrationID, c.TaxID, c.Name} {
		if k := NormalizeKey(raw); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// OwnerIdentity carries the document owner's own identifiers so the
// recognizer can exclude self-matches.
type OwnerIdentity struct {
	RegistrationID string `json:"registration_id,omitempty"`
	TaxID          string `json:"tax_id,omitempty"`
}
