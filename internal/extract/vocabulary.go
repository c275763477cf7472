package extract

import "docparse/internal/entity"

// fieldKeywords maps each field kind to the label vocabulary that announces
// it on a document line. Lithuanian labels sit alongside English ones; lines
// are lower-cased before comparison, so the entries are all lower case and
// listed with accented and plain-ASCII spellings.
var fieldKeywords = map[entity.FieldKind][]string{
	entity.FieldDocumentID: {
		"invoice no", "invoice number", "invoice #", "document no",
		"bill no", "serija", "sąskaitos nr", "saskaitos nr",
		"sąskaita nr", "saskaita nr", "dok. nr",
	},
	entity.FieldDate: {
		"invoice date", "issue date", "date:",
		"išrašymo data", "israsymo data", "data:",
	},
	entity.FieldAmountExclTax: {
		"amount excl", "net amount", "subtotal", "total excl",
		"suma be pvm", "be pvm", "suma (be pvm)",
	},
	// no bare "vat"/"pvm": "suma be pvm" lines would match it too
	entity.FieldTaxAmount: {
		"vat amount", "tax amount",
		"pvm suma", "pvm (",
	},
	entity.FieldTaxID: {
		"vat code", "vat no", "vat reg",
		"pvm kodas", "pvm mokėtojo kodas", "pvm moketojo kodas",
	},
	entity.FieldRegistrationID: {
		"company code", "reg. no", "registration no",
		"įmonės kodas", "imones kodas", "į.k.", "i.k.",
	},
	entity.FieldCounterpartyName: {
		"seller", "supplier", "vendor",
		"pardavėjas", "pardavejas", "tiekėjas", "tiekejas",
	},
}

// keywordOrder fixes the scan order so document id and date labels are tried
// before the looser amount labels on the same line.
var keywordOrder = []entity.FieldKind{
	entity.FieldDocumentID,
	entity.FieldDate,
	entity.FieldTaxID,
	entity.FieldRegistrationID,
	entity.FieldAmountExclTax,
	entity.FieldTaxAmount,
	entity.FieldCounterpartyName,
}

// companyMarkers are legal-entity suffixes/prefixes that flag a company name
// token on a line.
var companyMarkers = []string{
	"uab", "ab", "mb", "iį", "ii", "vši", "vsi", "tūb", "kūb",
	"ltd", "llc", "inc", "gmbh", "oy", "sia", "oü", "as", "sp. z o.o.",
}
