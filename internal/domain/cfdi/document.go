// Package cfdi contiene los tipos y reglas puras del dominio CFDI 4.0
// (Comprobante Fiscal Digital por Internet, SAT México): el documento
// extraído que fluye del parser al reconciliador, la validación del RFC y el
// patrón de referencia de operación.
package cfdi

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source indica la estrategia que produjo el documento extraído.
type Source string

const (
	// SourceStructured parser determinista del XML CFDI; confianza siempre 100.
	SourceStructured Source = "structured"
	// SourceText extractor de respaldo por regex sobre texto plano; confianza calculada.
	SourceText Source = "text"
)

// Claves por defecto que solo aplica la ruta de texto (la ruta XML nunca rellena).
const (
	DefaultVoucherType  = "I"  // Ingreso
	DefaultExportStatus = "01" // No aplica
)

// Party es el receptor (contraparte) extraído de la factura.
type Party struct {
	Name         string
	TaxID        string
	Address      string
	City         string
	State        string
	PostalCode   string
	Country      string
	FiscalRegime string
	CFDIUsage    string
	Confidence   int // 0-100
	Source       Source
}

// Issuer es el emisor de la factura.
type Issuer struct {
	Name         string
	TaxID        string
	FiscalRegime string
	PlaceOfIssue string
}

// LineItem es un concepto de la factura.
type LineItem struct {
	ProductCode    string // ClaveProdServ
	Quantity       decimal.Decimal
	UnitCode       string // ClaveUnidad
	Description    string
	UnitPrice      decimal.Decimal
	Amount         decimal.Decimal
	TaxObject      string
	Identification string
	TaxRate        *decimal.Decimal
	TaxAmount      *decimal.Decimal
}

// Document es el resultado canónico de la extracción, independiente de la
// estrategia. Es transitorio: se crea por adjunto, lo consume el matcher y el
// reconciliador, y se descarta.
//
// Invariantes: con Source=structured la confianza es 100 y FiscalUUID está
// presente siempre que el XML traiga timbre; con Source=text la confianza es
// un entero en [0,100] y FiscalUUID puede faltar.
type Document struct {
	Receptor Party
	Emisor   *Issuer

	FiscalUUID         string // folio fiscal del TimbreFiscalDigital
	InvoiceNumber      string // Serie+Folio
	OperationReference string // referencia de operación detectada (puede estar vacía)
	IssueDate          *time.Time

	Subtotal *decimal.Decimal
	Tax      *decimal.Decimal
	Total    *decimal.Decimal
	Currency string

	PaymentMethod string
	PaymentForm   string
	VoucherType   string
	ExportStatus  string

	LineItems []LineItem

	IsValidInvoice bool
	Confidence     int // 0-100
}
