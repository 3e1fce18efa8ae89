package cfdi_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargamex/logistica-api/internal/domain"
	domaincfdi "github.com/cargamex/logistica-api/internal/domain/cfdi"
	infracfdi "github.com/cargamex/logistica-api/internal/infrastructure/cfdi"
)

// Capa de texto de un PDF tipo Facturama, con las secciones en el orden
// usual del layout.
const facturaTexto = `FACTURA
Emisor:
TRANSPORTES DEL NORTE SA DE CV
RFC: TLN150922AB1
Receptor:
COMERCIALIZADORA GOMEZ SA DE CV
RFC: GOME900715QX3
Uso CFDI: G03
Conceptos
78101803 1 E48 Flete terrestre CMEX-0012345 Objeto Impuesto: 02 $12,500.00 $12,500.00
Subtotal $12,500.00
IVA 16.00%
Impuestos Trasladados $2,000.00
Total $14,500.00
Moneda: MXN
Forma de Pago: 03
Método de Pago: PUE
Folio Fiscal: a1b2c3d4-e5f6-4a5b-8c7d-112233445566
Folio interno: 4521
Fecha: 2025-03-15
Dirección: Av. Insurgentes Sur 1234, Col. Del Valle
Ciudad: Monterrey
Estado: Nuevo León
Código Postal: 06600
Régimen Fiscal: 612
Sello Digital del CFDI
`

func TestTextExtractor_Extract_FacturaCompleta(t *testing.T) {
	e := infracfdi.NewTextExtractor()

	doc, err := e.Extract([]byte(facturaTexto), "factura_4521.pdf")
	require.NoError(t, err)

	assert.True(t, doc.IsValidInvoice)
	assert.Equal(t, domaincfdi.SourceText, doc.Receptor.Source)

	// Receptor: RFC y nombre salen del bloque, el resto del texto completo
	assert.Equal(t, "GOME900715QX3", doc.Receptor.TaxID)
	assert.Equal(t, "COMERCIALIZADORA GOMEZ SA DE CV", doc.Receptor.Name)
	assert.Equal(t, "Av. Insurgentes Sur 1234, Col. Del Valle", doc.Receptor.Address)
	assert.Equal(t, "Monterrey", doc.Receptor.City)
	assert.Equal(t, "Nuevo León", doc.Receptor.State)
	assert.Equal(t, "06600", doc.Receptor.PostalCode)
	assert.Equal(t, "612", doc.Receptor.FiscalRegime)
	assert.Equal(t, "G03", doc.Receptor.CFDIUsage)

	// Emisor
	require.NotNil(t, doc.Emisor)
	assert.Equal(t, "TLN150922AB1", doc.Emisor.TaxID)
	assert.Equal(t, "TRANSPORTES DEL NORTE SA DE CV", doc.Emisor.Name)

	// Folio fiscal normalizado a mayúsculas; el folio interno no confunde
	// al "Folio Fiscal" porque su captura exige empezar con dígito
	assert.Equal(t, "A1B2C3D4-E5F6-4A5B-8C7D-112233445566", doc.FiscalUUID)
	assert.Equal(t, "4521", doc.InvoiceNumber)

	// Montos: el total se ancla a inicio de línea para no capturar el subtotal,
	// y el impuesto ignora la línea de tasa "IVA 16.00%"
	require.NotNil(t, doc.Subtotal)
	require.NotNil(t, doc.Total)
	require.NotNil(t, doc.Tax)
	assert.True(t, doc.Subtotal.Equal(decimal.RequireFromString("12500.00")))
	assert.True(t, doc.Total.Equal(decimal.RequireFromString("14500.00")))
	assert.True(t, doc.Tax.Equal(decimal.RequireFromString("2000.00")))

	assert.Equal(t, "MXN", doc.Currency)
	assert.Equal(t, "03", doc.PaymentForm)
	assert.Equal(t, "PUE", doc.PaymentMethod)
	require.NotNil(t, doc.IssueDate)
	assert.Equal(t, "2025-03-15", doc.IssueDate.Format("2006-01-02"))

	// Solo la ruta de texto aplica defaults
	assert.Equal(t, domaincfdi.DefaultVoucherType, doc.VoucherType)
	assert.Equal(t, domaincfdi.DefaultExportStatus, doc.ExportStatus)

	// Concepto de la ventana de productos, con descripción limpia
	require.Len(t, doc.LineItems, 1)
	li := doc.LineItems[0]
	assert.Equal(t, "78101803", li.ProductCode)
	assert.Equal(t, "E48", li.UnitCode)
	assert.True(t, li.Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, li.UnitPrice.Equal(decimal.RequireFromString("12500.00")))
	assert.True(t, li.Amount.Equal(decimal.RequireFromString("12500.00")))
	assert.Equal(t, "Flete terrestre CMEX-0012345", li.Description)

	assert.Equal(t, "CMEX-0012345", doc.OperationReference)

	// RFC estricto + dirección + CP + régimen saturan el puntaje
	assert.Equal(t, 100, doc.Confidence)
}

// Sin dirección el puntaje queda en 70 base + 15 del RFC + 5 del CP +
// 5 del régimen.
func TestTextExtractor_Extract_ConfianzaParcial(t *testing.T) {
	texto := `FACTURA
Receptor:
COMERCIALIZADORA GOMEZ SA DE CV
RFC: GOME900715QX3
Forma de Pago: 03
Método de Pago: PUE
Folio Fiscal: a1b2c3d4-e5f6-4a5b-8c7d-112233445566
C.P. 06600
Régimen Fiscal: 612
`
	e := infracfdi.NewTextExtractor()

	doc, err := e.Extract([]byte(texto), "factura.pdf")
	require.NoError(t, err)
	assert.Equal(t, 95, doc.Confidence)
	assert.GreaterOrEqual(t, doc.Confidence, 0)
	assert.LessOrEqual(t, doc.Confidence, 100)
}

// Un texto con menos de cuatro frases marcadoras no es una factura CFDI,
// aunque traiga RFC y totales.
func TestTextExtractor_Extract_NoEsFactura(t *testing.T) {
	texto := `COTIZACIÓN DE SERVICIOS
RFC: GOME900715QX3
Subtotal $1,000.00
Total $1,160.00
`
	e := infracfdi.NewTextExtractor()

	_, err := e.Extract([]byte(texto), "factura.pdf")
	require.ErrorIs(t, err, domain.ErrNotAnInvoice)
}
