package ingestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/cargamex/logistica-api/internal/domain"
	"github.com/cargamex/logistica-api/internal/domain/cfdi"
	"github.com/cargamex/logistica-api/internal/domain/entity"
	"github.com/cargamex/logistica-api/internal/domain/repository"
	"github.com/cargamex/logistica-api/pkg/logger"
)

// AttachmentProcessor orquesta el pipeline completo para un adjunto:
// fetch de bytes → detección de formato → extracción → match de cliente →
// conciliación de factura. Los casos esperados (no-factura, CFDI inválido,
// duplicado) terminan en outcomes, nunca en error del caller.
type AttachmentProcessor struct {
	blobs      BlobStore
	detector   FormatDetector
	structured Extractor
	text       Extractor
	matcher    *ClientMatcher
	reconciler *InvoiceReconciler
	operations repository.OperationRepository
	log        *logger.Logger
}

// NewAttachmentProcessor construye el orquestador por adjunto.
func NewAttachmentProcessor(
	blobs BlobStore,
	detector FormatDetector,
	structured Extractor,
	text Extractor,
	matcher *ClientMatcher,
	reconciler *InvoiceReconciler,
	operations repository.OperationRepository,
	log *logger.Logger,
) *AttachmentProcessor {
	return &AttachmentProcessor{
		blobs:      blobs,
		detector:   detector,
		structured: structured,
		text:       text,
		matcher:    matcher,
		reconciler: reconciler,
		operations: operations,
		log:        log,
	}
}

// ProcessInvoice corre el pipeline completo: además de asignar cliente a la
// operación, crea o corrige la factura del folio fiscal extraído.
func (p *AttachmentProcessor) ProcessInvoice(ctx context.Context, op *entity.Operation, att *entity.Attachment) Outcome {
	doc, outcome := p.extract(ctx, att)
	if doc == nil {
		return outcome
	}

	res, err := p.reconciler.Reconcile(ctx, doc, op.ID)
	if err != nil {
		if errors.Is(err, domain.ErrMissingFiscalUUID) {
			p.log.Warn().Str("attachment", att.ID).Msg("documento sin folio fiscal, no se escribe nada")
			return failure("el documento extraído no trae folio fiscal; no se puede deduplicar")
		}
		p.log.Error().Err(err).Str("attachment", att.ID).Msg("falla de persistencia conciliando factura")
		return failure(fmt.Sprintf("falla de persistencia: %v", err))
	}

	if err := p.assignClient(ctx, op, res.ClientID); err != nil {
		return failure(fmt.Sprintf("asignar cliente a la operación: %v", err))
	}

	switch {
	case res.AlreadyIngested:
		return Outcome{
			Success: true, Action: ActionAssignedExisting,
			ClientID: res.ClientID, InvoiceID: res.InvoiceID,
			Reasoning: "factura ya ingresada para ese folio fiscal; sin cambios",
		}
	case res.Created:
		return Outcome{
			Success: true, Action: ActionCreatedAndAssigned,
			ClientID: res.ClientID, InvoiceID: res.InvoiceID,
			Reasoning: fmt.Sprintf("factura creada desde extracción %s (confianza %d)", doc.Receptor.Source, doc.Confidence),
		}
	default: // corregida
		return Outcome{
			Success: true, Action: ActionAssignedExisting,
			ClientID: res.ClientID, InvoiceID: res.InvoiceID,
			Reasoning: "factura capturada a mano corregida con los datos extraídos",
		}
	}
}

// ProcessClientOnly variante que se detiene al asignar cliente a la
// operación; no crea ni corrige facturas.
func (p *AttachmentProcessor) ProcessClientOnly(ctx context.Context, op *entity.Operation, att *entity.Attachment) Outcome {
	doc, outcome := p.extract(ctx, att)
	if doc == nil {
		return outcome
	}

	clientID, created, err := p.matcher.Resolve(ctx, doc.Receptor, doc.Currency)
	if err != nil {
		p.log.Error().Err(err).Str("attachment", att.ID).Msg("falla resolviendo cliente")
		return failure(fmt.Sprintf("falla de persistencia: %v", err))
	}
	if err := p.assignClient(ctx, op, clientID); err != nil {
		return failure(fmt.Sprintf("asignar cliente a la operación: %v", err))
	}

	action := ActionAssignedExisting
	reason := "cliente existente asignado a la operación"
	if created {
		action = ActionCreatedAndAssigned
		reason = "cliente creado desde el CFDI y asignado a la operación"
	}
	return Outcome{Success: true, Action: action, ClientID: clientID, Reasoning: reason}
}

// extract cubre la mitad común del pipeline: fetch, detección y extracción.
// Devuelve (nil, outcome) cuando el flujo termina ahí.
func (p *AttachmentProcessor) extract(ctx context.Context, att *entity.Attachment) (*cfdi.Document, Outcome) {
	data, err := p.blobs.Fetch(ctx, att.StorageKey)
	if err != nil {
		p.log.Error().Err(err).Str("attachment", att.ID).Str("key", att.StorageKey).Msg("falla bajando adjunto del storage")
		return nil, failure(fmt.Sprintf("no se pudieron leer los bytes del adjunto: %v", err))
	}

	route, err := p.detector.Detect(att.FileName, att.MediaType, data)
	if err != nil {
		// El prefiltro decidió que esto no es una factura; skip silencioso.
		return nil, skipped("el nombre del archivo no sugiere una factura")
	}

	extractor := p.text
	if route == cfdi.SourceStructured {
		extractor = p.structured
	}

	doc, err := extractor.Extract(data, att.FileName)
	switch {
	case errors.Is(err, domain.ErrNotAnInvoice):
		return nil, skipped("not a Facturama/CFDI invoice")
	case errors.Is(err, domain.ErrMalformedCFDI):
		return nil, skipped("el XML no trae los nodos obligatorios de un CFDI")
	case err != nil:
		p.log.Error().Err(err).Str("attachment", att.ID).Msg("falla inesperada extrayendo documento")
		return nil, failure(fmt.Sprintf("falla de extracción: %v", err))
	}

	p.log.Debug().
		Str("attachment", att.ID).
		Str("source", string(doc.Receptor.Source)).
		Int("confidence", doc.Confidence).
		Str("uuid", doc.FiscalUUID).
		Msg("documento extraído")
	return doc, Outcome{}
}

// assignClient fija el cliente en la operación solo si aún no tiene.
func (p *AttachmentProcessor) assignClient(ctx context.Context, op *entity.Operation, clientID string) error {
	if op.ClientID != "" || clientID == "" {
		return nil
	}
	if err := p.operations.AssignClient(ctx, op.ID, clientID); err != nil {
		return err
	}
	op.ClientID = clientID
	return nil
}
