package cfdi

import (
	"fmt"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/cargamex/logistica-api/internal/application/ingestion"
	"github.com/cargamex/logistica-api/internal/domain"
	domaincfdi "github.com/cargamex/logistica-api/internal/domain/cfdi"
)

// XMLParser parser determinista del árbol de atributos de un CFDI 4.0.
// Trabaja sobre nombres locales (Comprobante, Emisor, Receptor, ...) para
// tolerar cualquier prefijo de namespace (cfdi:, tfd: o ninguno).
//
// A diferencia de la ruta de texto, aquí no se aplica ningún default: un
// atributo opcional ausente queda vacío.
type XMLParser struct{}

var _ ingestion.Extractor = (*XMLParser)(nil)

// NewXMLParser construye el parser.
func NewXMLParser() *XMLParser {
	return &XMLParser{}
}

// Extract parsea el XML y devuelve el documento canónico con confianza 100.
// Devuelve ErrMalformedCFDI si faltan los nodos obligatorios (Version,
// Emisor, Receptor, Total).
func (p *XMLParser) Extract(data []byte, filename string) (*domaincfdi.Document, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedCFDI, err)
	}

	root := locateComprobante(tree.Root())
	if root == nil {
		return nil, domain.ErrMalformedCFDI
	}

	version := attr(root, "Version", "version")
	emisor := childByTag(root, "Emisor")
	receptor := childByTag(root, "Receptor")
	total := attr(root, "Total")
	if version == "" || emisor == nil || receptor == nil || total == "" {
		return nil, domain.ErrMalformedCFDI
	}

	doc := &domaincfdi.Document{
		IsValidInvoice: true,
		Confidence:     100,
	}

	doc.Receptor = domaincfdi.Party{
		Name:         attr(receptor, "Nombre"),
		TaxID:        attr(receptor, "Rfc"),
		PostalCode:   attr(receptor, "DomicilioFiscalReceptor"),
		FiscalRegime: attr(receptor, "RegimenFiscalReceptor"),
		CFDIUsage:    attr(receptor, "UsoCFDI"),
		Confidence:   100,
		Source:       domaincfdi.SourceStructured,
	}
	doc.Emisor = &domaincfdi.Issuer{
		Name:         attr(emisor, "Nombre"),
		TaxID:        attr(emisor, "Rfc"),
		FiscalRegime: attr(emisor, "RegimenFiscal"),
		PlaceOfIssue: attr(root, "LugarExpedicion"),
	}

	doc.Subtotal = parseAmount(attr(root, "SubTotal"))
	doc.Total = parseAmount(total)
	switch {
	case doc.Total != nil && doc.Subtotal != nil:
		tax := doc.Total.Sub(*doc.Subtotal)
		doc.Tax = &tax
	default:
		// Sin ambos montos, el total de impuestos se lee del nodo explícito
		if imp := childByTag(root, "Impuestos"); imp != nil {
			doc.Tax = parseAmount(attr(imp, "TotalImpuestosTrasladados"))
		}
	}

	doc.Currency = attr(root, "Moneda")
	doc.PaymentMethod = attr(root, "MetodoPago")
	doc.PaymentForm = attr(root, "FormaPago")
	doc.VoucherType = attr(root, "TipoDeComprobante")
	doc.ExportStatus = attr(root, "Exportacion")
	doc.InvoiceNumber = attr(root, "Serie") + attr(root, "Folio")

	if fecha := attr(root, "Fecha"); fecha != "" {
		if t, err := time.Parse("2006-01-02T15:04:05", fecha); err == nil {
			doc.IssueDate = &t
		}
	}

	// Folio fiscal: UUID del TimbreFiscalDigital dentro del Complemento
	if timbre := descendantByTag(root, "TimbreFiscalDigital"); timbre != nil {
		doc.FiscalUUID = attr(timbre, "UUID")
	}

	doc.LineItems = parseConceptos(root)

	descriptions := make([]string, 0, len(doc.LineItems))
	for _, li := range doc.LineItems {
		descriptions = append(descriptions, li.Description)
	}
	doc.OperationReference = domaincfdi.FindOperationReference(filename, descriptions...)

	return doc, nil
}

// parseConceptos extrae las líneas de Conceptos/Concepto (uno o varios).
func parseConceptos(root *etree.Element) []domaincfdi.LineItem {
	conceptos := childByTag(root, "Conceptos")
	if conceptos == nil {
		return nil
	}
	var items []domaincfdi.LineItem
	for _, c := range conceptos.ChildElements() {
		if c.Tag != "Concepto" {
			continue
		}
		item := domaincfdi.LineItem{
			ProductCode:    attr(c, "ClaveProdServ"),
			UnitCode:       attr(c, "ClaveUnidad"),
			Description:    attr(c, "Descripcion"),
			TaxObject:      attr(c, "ObjetoImp"),
			Identification: attr(c, "NoIdentificacion"),
		}
		if q := parseAmount(attr(c, "Cantidad")); q != nil {
			item.Quantity = *q
		}
		if p := parseAmount(attr(c, "ValorUnitario")); p != nil {
			item.UnitPrice = *p
		}
		if a := parseAmount(attr(c, "Importe")); a != nil {
			item.Amount = *a
		}
		// Impuesto trasladado de la línea (opcional)
		if traslado := descendantByTag(c, "Traslado"); traslado != nil {
			item.TaxRate = parseAmount(attr(traslado, "TasaOCuota"))
			item.TaxAmount = parseAmount(attr(traslado, "Importe"))
		}
		items = append(items, item)
	}
	return items
}

// locateComprobante devuelve el nodo Comprobante, directo o anidado.
func locateComprobante(root *etree.Element) *etree.Element {
	if root == nil {
		return nil
	}
	if root.Tag == "Comprobante" {
		return root
	}
	return descendantByTag(root, "Comprobante")
}

// childByTag busca un hijo directo por nombre local, ignorando el prefijo.
func childByTag(e *etree.Element, tag string) *etree.Element {
	for _, c := range e.ChildElements() {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// descendantByTag busca en profundidad por nombre local, ignorando el prefijo.
func descendantByTag(e *etree.Element, tag string) *etree.Element {
	for _, c := range e.ChildElements() {
		if c.Tag == tag {
			return c
		}
		if found := descendantByTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// attr devuelve el primer atributo presente de la lista de nombres, o "".
func attr(e *etree.Element, names ...string) string {
	for _, n := range names {
		if v := e.SelectAttrValue(n, ""); v != "" {
			return v
		}
	}
	return ""
}

// parseAmount convierte un atributo numérico a decimal; nil si está ausente o malformado.
func parseAmount(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
