package cfdi

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cargamex/logistica-api/internal/application/ingestion"
	"github.com/cargamex/logistica-api/internal/domain"
	domaincfdi "github.com/cargamex/logistica-api/internal/domain/cfdi"
	"github.com/cargamex/logistica-api/pkg/normalize"
)

// TextExtractor extractor de respaldo: aplica reglas regex sobre el texto
// plano del adjunto (la capa de texto de PDFs generados digitalmente, layout
// tipo Facturama). No hace OCR: un documento escaneado sin capa de texto no
// alcanza el umbral de frases y se descarta como no-factura.
//
// Cada regla es una función pura texto -> campo opcional; las constantes de
// confianza y las frases marcadoras están fijadas por fixtures en los tests.
type TextExtractor struct{}

var _ ingestion.Extractor = (*TextExtractor)(nil)

// NewTextExtractor construye el extractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Frases marcadoras de un CFDI renderizado; se contabilizan sobre el texto
// normalizado (minúsculas, sin acentos). Menos de minMarkers presentes
// significa que el texto no es una factura Facturama/CFDI.
var markerPhrases = []string{
	"folio fiscal",
	"rfc",
	"regimen fiscal",
	"uso cfdi",
	"forma de pago",
	"metodo de pago",
	"sello digital",
}

const minMarkers = 4

// Puntaje de confianza de la ruta de texto.
const (
	confidenceBase      = 70
	confidenceRFCBonus  = 15
	confidenceFieldStep = 5
	confidenceCap       = 100
)

var (
	// Bloques receptor/emisor: captura acotada entre el ancla y el siguiente
	// encabezado de sección conocido.
	reReceptorBlock = regexp.MustCompile(`(?is)receptor:?\s*(.*?)(?:conceptos|productos|forma de pago|m[eé]todo de pago|moneda|subtotal|$)`)
	reEmisorBlock   = regexp.MustCompile(`(?is)emisor:?\s*(.*?)(?:receptor|$)`)

	// Reglas de campo independientes, aplicadas sobre el texto completo.
	reAddress    = regexp.MustCompile(`(?im)^\s*(?:direcci[oó]n|domicilio)[:\s]+(.{5,120})\s*$`)
	reCity       = regexp.MustCompile(`(?im)^\s*(?:ciudad|municipio)[:\s]+([^\n,]{2,60})`)
	reState      = regexp.MustCompile(`(?im)^\s*estado[:\s]+([^\n,]{2,60})`)
	rePostalCode = regexp.MustCompile(`(?i)(?:c[oó]digo postal|c\.?p\.?)[:\s]*([0-9]{5})`)
	reRegime     = regexp.MustCompile(`(?i)r[eé]gimen fiscal[:\s]*([0-9]{3})`)
	reCFDIUsage  = regexp.MustCompile(`(?i)uso\s*(?:de\s*)?cfdi[:\s]*([A-Z][0-9]{2})`)

	reUUID     = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	reFolio    = regexp.MustCompile(`(?i)folio(?:\s+interno)?[:\s#]*([A-Z]*[0-9][A-Z0-9-]*)`)
	reDate     = regexp.MustCompile(`([0-9]{4}-[0-9]{2}-[0-9]{2})`)
	reCurrency = regexp.MustCompile(`\b(MXN|USD|EUR)\b`)

	reSubtotal = regexp.MustCompile(`(?i)subtotal[:\s$]*([0-9][0-9,]*\.[0-9]{2})`)
	reTotal    = regexp.MustCompile(`(?im)^\s*total[:\s$]*([0-9][0-9,]*\.[0-9]{2})`)
	reTax      = regexp.MustCompile(`(?im)(?:impuestos trasladados|total impuestos|iva)[^0-9\n]*\$?\s*([0-9][0-9,]*\.[0-9]{2})\s*$`)

	rePaymentForm   = regexp.MustCompile(`(?i)forma de pago[:\s]*([0-9]{2})`)
	rePaymentMethod = regexp.MustCompile(`(?i)m[eé]todo de pago[:\s]*(PUE|PPD)`)

	// Ventana de conceptos y línea compuesta:
	// ClaveProdServ (8 dígitos), cantidad, clave de unidad, descripción y dos montos.
	reProductsWindow = regexp.MustCompile(`(?is)(?:conceptos|productos?)(.*?)(?:subtotal|$)`)
	reLineItem       = regexp.MustCompile(`([0-9]{8})\s+([0-9]+(?:\.[0-9]+)?)\s+([A-Z][A-Z0-9]{1,2})\s+(.+?)\s+\$?([0-9][0-9,]*\.[0-9]{2})\s+\$?([0-9][0-9,]*\.[0-9]{2})`)

	// Fragmentos de boilerplate que ensucian las descripciones extraídas.
	descriptionNoise = []*regexp.Regexp{
		regexp.MustCompile(`(?i)unidad de servicio\.?`),
		regexp.MustCompile(`(?i)no\.?\s*(?:de)?\s*identificaci[oó]n[:\s]*\S*`),
		regexp.MustCompile(`(?i)traslado[:\s]*`),
		regexp.MustCompile(`(?i)objeto\s*(?:de)?\s*impuesto[:\s]*[0-9]{2}`),
		regexp.MustCompile(`\b[0-9]{3}\s+IVA\s+[0-9.]+%?`),
	}
)

// Extract decodifica los bytes como texto y aplica las reglas de extracción.
// Devuelve ErrNotAnInvoice cuando el texto no alcanza el umbral de frases CFDI.
func (e *TextExtractor) Extract(data []byte, filename string) (*domaincfdi.Document, error) {
	text := string(data)
	normalized := normalize.Text(text)

	found := 0
	for _, phrase := range markerPhrases {
		if strings.Contains(normalized, phrase) {
			found++
		}
	}
	if found < minMarkers {
		return nil, domain.ErrNotAnInvoice
	}

	doc := &domaincfdi.Document{IsValidInvoice: true}

	doc.Receptor = extractReceptor(text)
	doc.Emisor = extractEmisor(text)

	doc.FiscalUUID = strings.ToUpper(reUUID.FindString(text))
	doc.InvoiceNumber = firstGroup(reFolio, text)
	doc.Currency = reCurrency.FindString(text)
	doc.Subtotal = amountFrom(reSubtotal, text)
	doc.Total = amountFrom(reTotal, text)
	doc.Tax = amountFrom(reTax, text)
	doc.PaymentForm = firstGroup(rePaymentForm, text)
	doc.PaymentMethod = strings.ToUpper(firstGroup(rePaymentMethod, text))

	if fecha := reDate.FindString(text); fecha != "" {
		if t, err := time.Parse("2006-01-02", fecha); err == nil {
			doc.IssueDate = &t
		}
	}

	// Solo la ruta de texto aplica defaults
	doc.VoucherType = domaincfdi.DefaultVoucherType
	doc.ExportStatus = domaincfdi.DefaultExportStatus

	doc.LineItems = extractLineItems(text)

	descriptions := make([]string, 0, len(doc.LineItems))
	for _, li := range doc.LineItems {
		descriptions = append(descriptions, li.Description)
	}
	doc.OperationReference = domaincfdi.FindOperationReference(filename, descriptions...)

	doc.Receptor.Confidence = scoreConfidence(doc.Receptor)
	doc.Receptor.Source = domaincfdi.SourceText
	doc.Confidence = doc.Receptor.Confidence

	return doc, nil
}

// extractReceptor aísla el bloque "Receptor:" y saca RFC y nombre de ahí;
// el resto de los campos se busca sobre el texto completo, porque el layout
// los acomoda fuera del bloque.
func extractReceptor(text string) domaincfdi.Party {
	party := domaincfdi.Party{}

	block := firstGroup(reReceptorBlock, text)
	party.TaxID = domaincfdi.FindRFC(block)
	party.Name = receptorName(block)

	party.Address = strings.TrimSpace(firstGroup(reAddress, text))
	party.City = strings.TrimSpace(firstGroup(reCity, text))
	party.State = strings.TrimSpace(firstGroup(reState, text))
	party.PostalCode = firstGroup(rePostalCode, text)
	party.FiscalRegime = firstGroup(reRegime, text)
	party.CFDIUsage = firstGroup(reCFDIUsage, text)
	return party
}

// receptorName elige como nombre la primera línea del bloque que no sea un
// RFC y cuya longitud esté en [4,99].
func receptorName(block string) string {
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 4 || len(line) > 99 {
			continue
		}
		if domaincfdi.RFCPattern.MatchString(line) {
			continue
		}
		return line
	}
	return ""
}

// extractEmisor aísla el bloque entre "Emisor:" y "Receptor:".
func extractEmisor(text string) *domaincfdi.Issuer {
	block := firstGroup(reEmisorBlock, text)
	if block == "" {
		return nil
	}
	issuer := &domaincfdi.Issuer{
		TaxID: domaincfdi.FindRFC(block),
		Name:  receptorName(block),
	}
	if issuer.TaxID == "" && issuer.Name == "" {
		return nil
	}
	return issuer
}

// extractLineItems parsea la ventana de productos con la regex compuesta y
// limpia el boilerplate de las descripciones.
func extractLineItems(text string) []domaincfdi.LineItem {
	window := firstGroup(reProductsWindow, text)
	if window == "" {
		return nil
	}
	var items []domaincfdi.LineItem
	for _, m := range reLineItem.FindAllStringSubmatch(window, -1) {
		item := domaincfdi.LineItem{
			ProductCode: m[1],
			UnitCode:    m[3],
			Description: cleanDescription(m[4]),
		}
		if q, err := decimal.NewFromString(m[2]); err == nil {
			item.Quantity = q
		}
		if p, err := decimal.NewFromString(strings.ReplaceAll(m[5], ",", "")); err == nil {
			item.UnitPrice = p
		}
		if a, err := decimal.NewFromString(strings.ReplaceAll(m[6], ",", "")); err == nil {
			item.Amount = a
		}
		items = append(items, item)
	}
	return items
}

// cleanDescription quita fragmentos de boilerplate del layout.
func cleanDescription(s string) string {
	for _, re := range descriptionNoise {
		s = re.ReplaceAllString(s, "")
	}
	return strings.Join(strings.Fields(s), " ")
}

// scoreConfidence calcula el puntaje de la ruta de texto: base 70,
// +15 si el RFC pasa validación estricta, +5 por dirección, código postal y
// régimen fiscal presentes, con tope en 100.
func scoreConfidence(p domaincfdi.Party) int {
	score := confidenceBase
	if domaincfdi.IsValidRFC(p.TaxID) {
		score += confidenceRFCBonus
	}
	if p.Address != "" {
		score += confidenceFieldStep
	}
	if p.PostalCode != "" {
		score += confidenceFieldStep
	}
	if p.FiscalRegime != "" {
		score += confidenceFieldStep
	}
	if score > confidenceCap {
		score = confidenceCap
	}
	return score
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func amountFrom(re *regexp.Regexp, text string) *decimal.Decimal {
	raw := firstGroup(re, text)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return nil
	}
	return &d
}
