package extract

import (
	"log/slog"
	"regexp"
	"strings"

	"docparse/internal/entity"
)

var (
	// country prefix + 8-12 alphanumerics, e.g. LT300581697
	reTaxIDCand = regexp.MustCompile(`\b[A-Z]{2}[0-9A-Z]{8,12}\b|\b[0-9]{8,12}\b`)
	reRegIDCand = regexp.MustCompile(`\b[0-9]{7,14}\b`)
	reNameNoise = regexp.MustCompile(`[^\p{L}\p{N}\s".,&-]`)
)

// Recognizer heuristically identifies the counterparty's identifiers and
// name within OCR text, excluding identifiers that belong to the document
// owner itself.
type Recognizer struct {
	logger *slog.Logger
}

func NewRecognizer(logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{logger: logger}
}

// Recognize scans the lines for a company-type marker next to a name-like
// token, a tax-id pattern and a registration-id pattern. Confidence grows
// with the number of identifiers found. Identifiers equal to the owner's own
// are cleared from the candidate rather than discarding the whole candidate,
// unless nothing else was found.
func (r *Recognizer) Recognize(lines []string, owner entity.OwnerIdentity) entity.CounterpartyCandidate {
	var cand entity.CounterpartyCandidate

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if cand.Name == "" {
			if name := companyName(line); name != "" {
				cand.Name = name
			}
		}
		if cand.TaxID == "" {
			if m := reTaxIDCand.FindString(strings.ToUpper(line)); m != "" && looksLikeTaxID(line, m) {
				cand.TaxID = m
			}
		}
		if cand.RegistrationID == "" {
			if m := reRegIDCand.FindString(line); m != "" {
				cand.RegistrationID = m
			}
		}
	}

	r.excludeOwner(&cand, owner)

	found := 0
	for _, v := range []string{cand.Name, cand.TaxID, cand.RegistrationID} {
		if v != "" {
			found++
		}
	}
	cand.Confidence = float64(found) / 3.0
	return cand
}

// excludeOwner clears candidate identifiers matching the owner's, keeping
// whatever else was found.
func (r *Recognizer) excludeOwner(cand *entity.CounterpartyCandidate, owner entity.OwnerIdentity) {
	ownTax := entity.NormalizeKey(owner.TaxID)
	ownReg := entity.NormalizeKey(owner.RegistrationID)

	if ownTax != "" && entity.NormalizeKey(cand.TaxID) == ownTax {
		r.logger.Debug("recognize.exclude_owner", "field", "tax_id", "value", cand.TaxID)
		cand.TaxID = ""
	}
	if ownReg != "" && entity.NormalizeKey(cand.RegistrationID) == ownReg {
		r.logger.Debug("recognize.exclude_owner", "field", "registration_id", "value", cand.RegistrationID)
		cand.RegistrationID = ""
	}
}

// companyName returns a cleaned line when it contains a legal-entity marker
// co-located with at least one name-like token. Two-letter markers ("AB",
// "AS") must be written in caps; lowercase they are ordinary words.
func companyName(line string) string {
	cleaned := strings.TrimSpace(reNameNoise.ReplaceAllString(line, " "))
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	tokens := strings.Fields(cleaned)
	if len(tokens) < 2 {
		return ""
	}
	for _, raw := range tokens {
		raw = strings.Trim(raw, ".,\"")
		tok := strings.ToLower(raw)
		for _, marker := range companyMarkers {
			if tok != marker {
				continue
			}
			if len([]rune(marker)) <= 2 && raw != strings.ToUpper(raw) {
				continue
			}
			return cleaned
		}
	}
	return ""
}

// looksLikeTaxID filters lookalikes out of tax-id matches: every tax id
// carries at least one digit, so long uppercase words never qualify, and a
// pure digit run must be announced by a VAT-ish label on the same line or
// carry the country prefix.
func looksLikeTaxID(line, match string) bool {
	if !strings.ContainsAny(match, "0123456789") {
		return false
	}
	if match[0] >= 'A' && match[0] <= 'Z' {
		return true
	}
	lower := strings.ToLower(line)
	for _, kw := range fieldKeywords[entity.FieldTaxID] {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
