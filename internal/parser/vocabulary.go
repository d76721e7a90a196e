package parser

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ClientIndicators are phrases that, when printed shortly before a tax ID,
// mark it as the customer's rather than the supplier's. Stored folded
// (lowercase, no accents).
var ClientIndicators = []string{
	"facturado a",
	"cliente",
	"destinatario",
	"datos de fact",
	"receptor",
	"direccion de fact",
	"poblacion",
	"vencimiento",
}

// NoiseWords are status or document-type words that invoice templates print
// in front of the supplier's name.
var NoiseWords = []string{
	"PAGADA",
	"VENCIDA",
	"COBRADA",
	"EMITIDA",
	"FACTURA",
	"FRA",
	"RECIBO",
}

// TechnicalTerms mark a line as a product description (typically a software
// licence line item) rather than a company name.
var TechnicalTerms = []string{
	"Windows",
	"Remote",
	"Desktop",
	"License",
	"Server",
	"Cloud",
	"API",
	"SDK",
	"ALNG",
	"MVL",
	"SPLA",
	"RDS",
	"VPS",
}

// LineLabels start lines that carry a label rather than a company name.
// Stored folded.
var LineLabels = []string{
	"fecha",
	"date",
	"invoice",
	"numero",
	"pagina",
	"pag",
	"page",
	"cliente",
	"nif",
	"cif",
	"vat",
	"tax",
	"dni",
	"tel",
	"tlf",
	"telefono",
	"fax",
	"email",
	"e-mail",
	"correo",
	"total",
	"subtotal",
	"base",
	"iva",
	"importe",
	"cuota",
	"vencimiento",
	"forma de pago",
	"direccion",
	"domicilio",
}

// CanonicalVATRates are the Spanish IVA rates accepted by ExtractVATRate.
var CanonicalVATRates = []int64{21, 10, 4, 0}

// DefaultVATRate is assumed when IVA is mentioned without a usable rate, and
// by the reconciler when no rate hint is given.
const DefaultVATRate = 21

const (
	minUsefulLength   = 50
	minUsefulSignals  = 2
	clientWindow      = 150
	supplierScanLimit = 500
	minSupplierLength = 4
	maxSupplierLength = 80
	minInvoiceNumLen  = 3
	maxInvoiceNumLen  = 30
	maxAcronyms       = 3
)

// fold lowercases s and strips diacritics so "Emisión" matches "emision".
// Chained transformers carry state, so one is built per call.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// containsAny reports whether folded s contains any of the folded phrases.
func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
