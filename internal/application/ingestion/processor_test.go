package ingestion_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargamex/logistica-api/internal/application/ingestion"
	"github.com/cargamex/logistica-api/internal/domain/entity"
	infracfdi "github.com/cargamex/logistica-api/internal/infrastructure/cfdi"
	"github.com/cargamex/logistica-api/pkg/logger"
)

const cfdiXML = `<?xml version="1.0" encoding="UTF-8"?>
<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" Version="4.0"
	Serie="A" Folio="1234" Fecha="2025-03-15T10:30:00"
	SubTotal="1000.00" Total="1160.00" Moneda="MXN"
	MetodoPago="PUE" FormaPago="03" TipoDeComprobante="I"
	Exportacion="01" LugarExpedicion="64000">
	<cfdi:Emisor Rfc="TLN150922AB1" Nombre="TRANSPORTES DEL NORTE SA DE CV" RegimenFiscal="601"/>
	<cfdi:Receptor Rfc="GOME900715QX3" Nombre="COMERCIALIZADORA GOMEZ SA DE CV"
		DomicilioFiscalReceptor="06600" RegimenFiscalReceptor="612" UsoCFDI="G03"/>
	<cfdi:Conceptos>
		<cfdi:Concepto ClaveProdServ="78101803" Cantidad="2" ClaveUnidad="E48"
			Descripcion="Flete terrestre CMEX-0012345" ValorUnitario="500.00" Importe="1000.00"/>
	</cfdi:Conceptos>
	<cfdi:Complemento>
		<tfd:TimbreFiscalDigital xmlns:tfd="http://www.sat.gob.mx/TimbreFiscalDigital"
			UUID="A1B2C3D4-E5F6-4A5B-8C7D-112233445566"/>
	</cfdi:Complemento>
</cfdi:Comprobante>`

// entorno de prueba: procesador con extractores reales y persistencia en memoria.
type procEnv struct {
	blobs     *fakeBlobStore
	clients   *fakeClientRepo
	invoices  *fakeInvoiceRepo
	ops       *fakeOperationRepo
	atts      *fakeAttachmentRepo
	processor *ingestion.AttachmentProcessor
}

func newProcEnv(ops *fakeOperationRepo, atts *fakeAttachmentRepo) *procEnv {
	blobs := newFakeBlobStore()
	clients := newFakeClientRepo()
	invoices := newFakeInvoiceRepo()
	matcher := ingestion.NewClientMatcher(clients, 0.8, emailDomain)
	reconciler := ingestion.NewInvoiceReconciler(invoices, matcher, systemActorID)
	processor := ingestion.NewAttachmentProcessor(
		blobs,
		infracfdi.NewDetector(),
		infracfdi.NewXMLParser(),
		infracfdi.NewTextExtractor(),
		matcher,
		reconciler,
		ops,
		logger.Nop(),
	)
	return &procEnv{blobs: blobs, clients: clients, invoices: invoices, ops: ops, atts: atts, processor: processor}
}

func TestAttachmentProcessor_ProcessInvoice_CreaYAsigna(t *testing.T) {
	op := &entity.Operation{ID: "op-1", Reference: "CMEX-0012345"}
	att := &entity.Attachment{ID: "att-1", OperationID: "op-1", FileName: "factura_a1234.xml", StorageKey: "k1"}
	env := newProcEnv(newFakeOperationRepo(op), newFakeAttachmentRepo(att))
	env.blobs.put("k1", []byte(cfdiXML))

	outcome := env.processor.ProcessInvoice(context.Background(), op, att)

	assert.True(t, outcome.Success)
	assert.Equal(t, ingestion.ActionCreatedAndAssigned, outcome.Action)
	require.NotEmpty(t, outcome.InvoiceID)
	require.NotEmpty(t, outcome.ClientID)

	// Cliente nuevo creado desde el CFDI y asignado a la operación
	opAfter, _ := env.ops.GetByID(context.Background(), "op-1")
	assert.Equal(t, outcome.ClientID, opAfter.ClientID)

	inv, _ := env.invoices.GetByID(context.Background(), outcome.InvoiceID)
	require.NotNil(t, inv)
	assert.Equal(t, "A1B2C3D4-E5F6-4A5B-8C7D-112233445566", inv.FiscalUUID)
	assert.True(t, inv.CreatedAutomatically)
}

// El mismo adjunto dos veces: la segunda corrida no escribe nada y reporta
// la asignación existente.
func TestAttachmentProcessor_ProcessInvoice_Reingreso(t *testing.T) {
	op := &entity.Operation{ID: "op-1"}
	att := &entity.Attachment{ID: "att-1", OperationID: "op-1", FileName: "factura.xml", StorageKey: "k1"}
	env := newProcEnv(newFakeOperationRepo(op), newFakeAttachmentRepo(att))
	env.blobs.put("k1", []byte(cfdiXML))

	primera := env.processor.ProcessInvoice(context.Background(), op, att)
	require.True(t, primera.Success)

	opAfter, _ := env.ops.GetByID(context.Background(), "op-1")
	segunda := env.processor.ProcessInvoice(context.Background(), opAfter, att)

	assert.True(t, segunda.Success)
	assert.Equal(t, ingestion.ActionAssignedExisting, segunda.Action)
	assert.Equal(t, primera.InvoiceID, segunda.InvoiceID)
	assert.Equal(t, 1, env.invoices.creates)
	assert.Equal(t, 0, env.invoices.updates)
}

func TestAttachmentProcessor_Skips(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		data     []byte
	}{
		{
			name:     "nombre de archivo sin tokens de factura",
			fileName: "foto_bodega.jpg",
			data:     []byte(cfdiXML),
		},
		{
			name:     "xml sin nodos obligatorios de CFDI",
			fileName: "factura.xml",
			data:     []byte(`<?xml version="1.0"?><recibo><total>100</total></recibo>`),
		},
		{
			name:     "texto sin frases de CFDI",
			fileName: "factura_escaneada.pdf",
			data:     []byte("contenido binario de un escaneo sin capa de texto"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &entity.Operation{ID: "op-1"}
			att := &entity.Attachment{ID: "att-1", OperationID: "op-1", FileName: tt.fileName, StorageKey: "k1"}
			env := newProcEnv(newFakeOperationRepo(op), newFakeAttachmentRepo(att))
			env.blobs.put("k1", tt.data)

			outcome := env.processor.ProcessInvoice(context.Background(), op, att)

			assert.False(t, outcome.Success)
			assert.Equal(t, ingestion.ActionSkipped, outcome.Action)
			assert.NotEmpty(t, outcome.Reasoning)
			// Un skip jamás escribe nada
			assert.Empty(t, env.invoices.invoices)
			assert.Empty(t, env.clients.clients)
			assert.Equal(t, 0, env.ops.assigns)
		})
	}
}

func TestAttachmentProcessor_FallaDeStorage(t *testing.T) {
	op := &entity.Operation{ID: "op-1"}
	att := &entity.Attachment{ID: "att-1", OperationID: "op-1", FileName: "factura.xml", StorageKey: "k1"}
	env := newProcEnv(newFakeOperationRepo(op), newFakeAttachmentRepo(att))
	env.blobs.fail["k1"] = errors.New("bucket inaccesible")

	outcome := env.processor.ProcessInvoice(context.Background(), op, att)

	assert.False(t, outcome.Success)
	assert.Equal(t, ingestion.ActionError, outcome.Action)
	assert.Empty(t, env.invoices.invoices)
}

func TestAttachmentProcessor_ProcessClientOnly(t *testing.T) {
	op := &entity.Operation{ID: "op-1"}
	att := &entity.Attachment{ID: "att-1", OperationID: "op-1", FileName: "factura.xml", StorageKey: "k1"}
	env := newProcEnv(newFakeOperationRepo(op), newFakeAttachmentRepo(att))
	env.blobs.put("k1", []byte(cfdiXML))

	outcome := env.processor.ProcessClientOnly(context.Background(), op, att)

	assert.True(t, outcome.Success)
	assert.Equal(t, ingestion.ActionCreatedAndAssigned, outcome.Action)
	require.NotEmpty(t, outcome.ClientID)

	opAfter, _ := env.ops.GetByID(context.Background(), "op-1")
	assert.Equal(t, outcome.ClientID, opAfter.ClientID)
	// Esta variante no toca facturas
	assert.Empty(t, env.invoices.invoices)
}

// Una operación que ya tiene cliente no se reasigna.
func TestAttachmentProcessor_NoReasignaCliente(t *testing.T) {
	op := &entity.Operation{ID: "op-1", ClientID: "cli-existente"}
	att := &entity.Attachment{ID: "att-1", OperationID: "op-1", FileName: "factura.xml", StorageKey: "k1"}
	env := newProcEnv(newFakeOperationRepo(op), newFakeAttachmentRepo(att))
	env.blobs.put("k1", []byte(cfdiXML))

	outcome := env.processor.ProcessInvoice(context.Background(), op, att)

	require.True(t, outcome.Success)
	assert.Equal(t, 0, env.ops.assigns)
	opAfter, _ := env.ops.GetByID(context.Background(), "op-1")
	assert.Equal(t, "cli-existente", opAfter.ClientID)
}
