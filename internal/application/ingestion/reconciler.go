package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cargamex/logistica-api/internal/domain"
	"github.com/cargamex/logistica-api/internal/domain/cfdi"
	"github.com/cargamex/logistica-api/internal/domain/entity"
	"github.com/cargamex/logistica-api/internal/domain/repository"
)

// ReconcileResult resultado del upsert idempotente de una factura.
type ReconcileResult struct {
	InvoiceID string
	ClientID  string
	// Created la factura se creó en esta corrida.
	Created bool
	// Corrected una factura capturada a mano se corrigió con los datos extraídos.
	Corrected bool
	// AlreadyIngested el folio fiscal ya estaba ingresado por el pipeline; no-op.
	AlreadyIngested bool
}

// InvoiceReconciler upsert idempotente de factura + líneas con llave en el
// folio fiscal (UUID del timbre).
//
// Reglas de precedencia: la extracción estructurada verificada gana sobre la
// captura manual en una única corrección; una fila ya creada por el pipeline
// nunca se vuelve a escribir; las líneas nunca se duplican.
type InvoiceReconciler struct {
	invoices repository.InvoiceRepository
	matcher  *ClientMatcher
	// systemActorID actor explícito dueño de las filas automáticas;
	// se configura, no se deduce de ninguna fila de usuarios.
	systemActorID string
}

// NewInvoiceReconciler construye el reconciliador.
func NewInvoiceReconciler(invoices repository.InvoiceRepository, matcher *ClientMatcher, systemActorID string) *InvoiceReconciler {
	return &InvoiceReconciler{invoices: invoices, matcher: matcher, systemActorID: systemActorID}
}

// Reconcile aplica el upsert para el documento extraído contra la operación.
// Sin folio fiscal no hay llave de deduplicación y no se escribe nada
// (ErrMissingFiscalUUID); eso solo puede ocurrir en la ruta de texto.
func (r *InvoiceReconciler) Reconcile(ctx context.Context, doc *cfdi.Document, operationID string) (*ReconcileResult, error) {
	if doc.FiscalUUID == "" {
		return nil, domain.ErrMissingFiscalUUID
	}

	existing, err := r.invoices.GetByFiscalUUID(ctx, doc.FiscalUUID)
	if err != nil {
		return nil, fmt.Errorf("buscar factura por folio fiscal: %w", err)
	}

	if existing == nil {
		return r.create(ctx, doc, operationID)
	}
	if existing.CreatedAutomatically {
		// Este documento ya fue ingresado; reprocesar el mismo adjunto es no-op.
		return &ReconcileResult{InvoiceID: existing.ID, ClientID: existing.ClientID, AlreadyIngested: true}, nil
	}
	return r.correct(ctx, existing, doc, operationID)
}

// create materializa una factura nueva: resuelve/crea el cliente, escribe la
// cabecera con created_automatically=true y todas las líneas una sola vez.
func (r *InvoiceReconciler) create(ctx context.Context, doc *cfdi.Document, operationID string) (*ReconcileResult, error) {
	clientID, _, err := r.matcher.Resolve(ctx, doc.Receptor, doc.Currency)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	inv := &entity.Invoice{
		ID:                   uuid.New().String(),
		OperationID:          operationID,
		ClientID:             clientID,
		FiscalUUID:           doc.FiscalUUID,
		Folio:                doc.InvoiceNumber,
		IssueDate:            doc.IssueDate,
		Currency:             currencyOrDefault(doc.Currency),
		FiscalRegime:         doc.Receptor.FiscalRegime,
		PaymentMethod:        doc.PaymentMethod,
		PaymentForm:          doc.PaymentForm,
		VoucherType:          doc.VoucherType,
		ExportStatus:         doc.ExportStatus,
		CreatedAutomatically: true,
		CreatedBy:            r.systemActorID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	applyTotals(inv, doc)
	if doc.Emisor != nil {
		inv.IssuerName = doc.Emisor.Name
		inv.IssuerTaxID = doc.Emisor.TaxID
		inv.IssuerFiscalRegime = doc.Emisor.FiscalRegime
		inv.PlaceOfIssue = doc.Emisor.PlaceOfIssue
	}

	if err := r.invoices.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("crear factura: %w", err)
	}
	if err := r.writeLineItems(ctx, inv.ID, doc.LineItems); err != nil {
		return nil, err
	}
	return &ReconcileResult{InvoiceID: inv.ID, ClientID: clientID, Created: true}, nil
}

// correct sobreescribe una factura capturada a mano con los datos extraídos:
// campos fiscales, totales, moneda y vínculo a cliente, y voltea la bandera.
// Las líneas solo se escriben si la factura no tiene ninguna.
func (r *InvoiceReconciler) correct(ctx context.Context, inv *entity.Invoice, doc *cfdi.Document, operationID string) (*ReconcileResult, error) {
	clientID, _, err := r.matcher.Resolve(ctx, doc.Receptor, doc.Currency)
	if err != nil {
		return nil, err
	}

	inv.ClientID = clientID
	if inv.OperationID == "" {
		inv.OperationID = operationID
	}
	inv.Folio = doc.InvoiceNumber
	if doc.IssueDate != nil {
		inv.IssueDate = doc.IssueDate
	}
	inv.Currency = currencyOrDefault(doc.Currency)
	inv.FiscalRegime = doc.Receptor.FiscalRegime
	inv.PaymentMethod = doc.PaymentMethod
	inv.PaymentForm = doc.PaymentForm
	inv.VoucherType = doc.VoucherType
	inv.ExportStatus = doc.ExportStatus
	applyTotals(inv, doc)
	if doc.Emisor != nil {
		inv.IssuerName = doc.Emisor.Name
		inv.IssuerTaxID = doc.Emisor.TaxID
		inv.IssuerFiscalRegime = doc.Emisor.FiscalRegime
		inv.PlaceOfIssue = doc.Emisor.PlaceOfIssue
	}
	inv.CreatedAutomatically = true
	inv.UpdatedAt = time.Now()

	if err := r.invoices.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("corregir factura %s: %w", inv.ID, err)
	}

	existing, err := r.invoices.ListLineItems(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("listar líneas de %s: %w", inv.ID, err)
	}
	if len(existing) == 0 {
		if err := r.writeLineItems(ctx, inv.ID, doc.LineItems); err != nil {
			return nil, err
		}
	}
	return &ReconcileResult{InvoiceID: inv.ID, ClientID: clientID, Corrected: true}, nil
}

func (r *InvoiceReconciler) writeLineItems(ctx context.Context, invoiceID string, items []cfdi.LineItem) error {
	for _, li := range items {
		row := &entity.InvoiceLineItem{
			ID:             uuid.New().String(),
			InvoiceID:      invoiceID,
			ProductCode:    li.ProductCode,
			Identification: li.Identification,
			Quantity:       li.Quantity,
			UnitCode:       li.UnitCode,
			Description:    li.Description,
			UnitPrice:      li.UnitPrice,
			Amount:         li.Amount,
			TaxObject:      li.TaxObject,
			TaxRate:        li.TaxRate,
			TaxAmount:      li.TaxAmount,
		}
		if err := r.invoices.CreateLineItem(ctx, row); err != nil {
			return fmt.Errorf("crear línea de factura: %w", err)
		}
	}
	return nil
}

func applyTotals(inv *entity.Invoice, doc *cfdi.Document) {
	if doc.Subtotal != nil {
		inv.Subtotal = *doc.Subtotal
	}
	if doc.Tax != nil {
		inv.Tax = *doc.Tax
	}
	if doc.Total != nil {
		inv.Total = *doc.Total
	}
}

func currencyOrDefault(c string) string {
	if c == "" {
		return "MXN"
	}
	return c
}
