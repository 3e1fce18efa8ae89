package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cargamex/logistica-api/internal/domain"
	"github.com/cargamex/logistica-api/internal/domain/entity"
	"github.com/cargamex/logistica-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, operation_id, client_id, fiscal_uuid, folio, issue_date,
		subtotal, tax, total, currency,
		issuer_name, issuer_tax_id, issuer_fiscal_regime, place_of_issue, fiscal_regime,
		payment_method, payment_form, voucher_type, export_status,
		created_automatically, created_by, created_at, updated_at`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador.
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera de una factura.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, nullIfEmpty(inv.OperationID), nullIfEmpty(inv.ClientID), nullIfEmpty(inv.FiscalUUID), inv.Folio, inv.IssueDate,
		inv.Subtotal, inv.Tax, inv.Total, inv.Currency,
		inv.IssuerName, inv.IssuerTaxID, inv.IssuerFiscalRegime, inv.PlaceOfIssue, inv.FiscalRegime,
		inv.PaymentMethod, inv.PaymentForm, inv.VoucherType, inv.ExportStatus,
		inv.CreatedAutomatically, nullIfEmpty(inv.CreatedBy), inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// fiscal_uuid tiene constraint único: dos corridas concurrentes con el
			// mismo folio fiscal se resuelven aquí
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// Update actualiza cabecera fiscal, totales, moneda, vínculos y la bandera
// created_automatically.
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	query := `
		UPDATE invoices SET operation_id = $2, client_id = $3, folio = $4, issue_date = $5,
			subtotal = $6, tax = $7, total = $8, currency = $9,
			issuer_name = $10, issuer_tax_id = $11, issuer_fiscal_regime = $12, place_of_issue = $13,
			fiscal_regime = $14, payment_method = $15, payment_form = $16, voucher_type = $17,
			export_status = $18, created_automatically = $19, updated_at = $20
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		inv.ID, nullIfEmpty(inv.OperationID), nullIfEmpty(inv.ClientID), inv.Folio, inv.IssueDate,
		inv.Subtotal, inv.Tax, inv.Total, inv.Currency,
		inv.IssuerName, inv.IssuerTaxID, inv.IssuerFiscalRegime, inv.PlaceOfIssue,
		inv.FiscalRegime, inv.PaymentMethod, inv.PaymentForm, inv.VoucherType,
		inv.ExportStatus, inv.CreatedAutomatically, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

// GetByID obtiene una factura por ID; nil si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

// GetByFiscalUUID obtiene una factura por folio fiscal; nil si no existe.
func (r *InvoiceRepo) GetByFiscalUUID(ctx context.Context, fiscalUUID string) (*entity.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE fiscal_uuid = $1`, fiscalUUID)
}

// CreateLineItem persiste una línea de factura.
func (r *InvoiceRepo) CreateLineItem(ctx context.Context, li *entity.InvoiceLineItem) error {
	query := `
		INSERT INTO invoice_line_items
			(id, invoice_id, product_code, identification, quantity, unit_code,
			 description, unit_price, amount, tax_object, tax_rate, tax_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		li.ID, li.InvoiceID, li.ProductCode, li.Identification, li.Quantity, li.UnitCode,
		li.Description, li.UnitPrice, li.Amount, li.TaxObject, li.TaxRate, li.TaxAmount,
	)
	if err != nil {
		return fmt.Errorf("insert line item: %w", err)
	}
	return nil
}

// ListLineItems lista las líneas de una factura.
func (r *InvoiceRepo) ListLineItems(ctx context.Context, invoiceID string) ([]*entity.InvoiceLineItem, error) {
	query := `
		SELECT id, invoice_id, product_code, identification, quantity, unit_code,
			description, unit_price, amount, tax_object, tax_rate, tax_amount
		FROM invoice_line_items WHERE invoice_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoiceLineItem
	for rows.Next() {
		var li entity.InvoiceLineItem
		if err := rows.Scan(
			&li.ID, &li.InvoiceID, &li.ProductCode, &li.Identification, &li.Quantity, &li.UnitCode,
			&li.Description, &li.UnitPrice, &li.Amount, &li.TaxObject, &li.TaxRate, &li.TaxAmount,
		); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		list = append(list, &li)
	}
	return list, rows.Err()
}

func (r *InvoiceRepo) getOne(ctx context.Context, query string, arg any) (*entity.Invoice, error) {
	var inv entity.Invoice
	var operationID, clientID, fiscalUUID, createdBy *string
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&inv.ID, &operationID, &clientID, &fiscalUUID, &inv.Folio, &inv.IssueDate,
		&inv.Subtotal, &inv.Tax, &inv.Total, &inv.Currency,
		&inv.IssuerName, &inv.IssuerTaxID, &inv.IssuerFiscalRegime, &inv.PlaceOfIssue, &inv.FiscalRegime,
		&inv.PaymentMethod, &inv.PaymentForm, &inv.VoucherType, &inv.ExportStatus,
		&inv.CreatedAutomatically, &createdBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	inv.OperationID = deref(operationID)
	inv.ClientID = deref(clientID)
	inv.FiscalUUID = deref(fiscalUUID)
	inv.CreatedBy = deref(createdBy)
	return &inv, nil
}

// nullIfEmpty mapea "" a NULL para columnas con FK o constraint único.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
