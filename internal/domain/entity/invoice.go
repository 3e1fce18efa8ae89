package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice representa la cabecera de una factura CFDI recibida.
//
// FiscalUUID (folio fiscal del timbre SAT) identifica a lo más una factura en
// todo el sistema y es la llave de deduplicación del pipeline de ingesta.
// CreatedAutomatically marca las filas que el pipeline creó y puede
// sobreescribir; en false la fila fue capturada a mano y es elegible para una
// única corrección automática.
type Invoice struct {
	ID          string
	OperationID string // operación de carga a la que pertenece (vacío si no se resolvió)
	ClientID    string
	FiscalUUID  string
	Folio       string // Serie+Folio del emisor
	IssueDate   *time.Time
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
	Currency    string

	// Cabecera fiscal
	IssuerName         string
	IssuerTaxID        string
	IssuerFiscalRegime string
	PlaceOfIssue       string // LugarExpedicion (CP)
	FiscalRegime       string // régimen fiscal del receptor
	PaymentMethod      string // MetodoPago (PUE, PPD)
	PaymentForm        string // FormaPago (01, 03, 99, ...)
	VoucherType        string // TipoDeComprobante (I, E, T, ...)
	ExportStatus       string // Exportacion (01, 02, ...)

	CreatedAutomatically bool
	CreatedBy            string // actor del sistema configurado para filas automáticas
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// InvoiceLineItem representa una línea (concepto) de una factura.
type InvoiceLineItem struct {
	ID             string
	InvoiceID      string
	ProductCode    string // ClaveProdServ (catálogo SAT)
	Identification string // NoIdentificacion del emisor
	Quantity       decimal.Decimal
	UnitCode       string // ClaveUnidad (catálogo SAT)
	Description    string
	UnitPrice      decimal.Decimal
	Amount         decimal.Decimal
	TaxObject      string // ObjetoImp
	TaxRate        *decimal.Decimal
	TaxAmount      *decimal.Decimal
}
