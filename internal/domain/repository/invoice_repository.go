package repository

import (
	"context"

	"github.com/cargamex/logistica-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para Invoice y sus líneas.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	// Update actualiza cabecera fiscal, totales, moneda, vínculo a cliente/operación
	// y la bandera created_automatically.
	Update(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// GetByFiscalUUID devuelve nil (sin error) si no existe factura con ese folio fiscal.
	GetByFiscalUUID(ctx context.Context, fiscalUUID string) (*entity.Invoice, error)
	CreateLineItem(ctx context.Context, item *entity.InvoiceLineItem) error
	ListLineItems(ctx context.Context, invoiceID string) ([]*entity.InvoiceLineItem, error)
}
