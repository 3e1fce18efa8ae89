package ingestion

import (
	"context"
	"strings"

	"github.com/cargamex/logistica-api/internal/domain/entity"
	"github.com/cargamex/logistica-api/internal/domain/repository"
	"github.com/cargamex/logistica-api/pkg/logger"
)

// SweepMode modo del barrido batch.
type SweepMode string

const (
	// SweepAssignClients solo asigna clientes a operaciones sin cliente;
	// se detiene en el primer adjunto exitoso de cada operación.
	SweepAssignClients SweepMode = "assign-clients"
	// SweepCreateInvoices procesa todos los adjuntos candidatos de cada
	// operación creando/corrigiendo facturas.
	SweepCreateInvoices SweepMode = "create-invoices"
)

// SweepReport contadores agregados de un barrido.
type SweepReport struct {
	Operations int `json:"operations"`
	Processed  int `json:"processed"`
	Created    int `json:"created"`
	Assigned   int `json:"assigned"`
	Skipped    int `json:"skipped"`
	Errors     int `json:"errors"`
}

// SweepRunner recorre un backlog de operaciones estrictamente en secuencia y
// corre el pipeline por adjunto sobre los candidatos a factura. Las fallas de
// un adjunto se cuentan y el barrido continúa; una falla inesperada dentro de
// una operación corta solo esa operación.
type SweepRunner struct {
	processor   *AttachmentProcessor
	operations  repository.OperationRepository
	attachments repository.AttachmentRepository
	pageSize    int
	log         *logger.Logger
}

// NewSweepRunner construye el runner batch.
func NewSweepRunner(
	processor *AttachmentProcessor,
	operations repository.OperationRepository,
	attachments repository.AttachmentRepository,
	pageSize int,
	log *logger.Logger,
) *SweepRunner {
	return &SweepRunner{
		processor:   processor,
		operations:  operations,
		attachments: attachments,
		pageSize:    pageSize,
		log:         log,
	}
}

// Run ejecuta el barrido. Si operationIDs viene vacío se toma una página
// acotada de operaciones pendientes; si no, se procesan exactamente esas.
func (s *SweepRunner) Run(ctx context.Context, mode SweepMode, operationIDs []string) (*SweepReport, error) {
	ops, err := s.loadOperations(ctx, operationIDs)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{}
	for _, op := range ops {
		report.Operations++
		s.sweepOperation(ctx, mode, op, report)
	}

	s.log.Info().
		Str("mode", string(mode)).
		Int("operations", report.Operations).
		Int("processed", report.Processed).
		Int("created", report.Created).
		Int("assigned", report.Assigned).
		Int("errors", report.Errors).
		Msg("barrido de ingesta terminado")
	return report, nil
}

func (s *SweepRunner) loadOperations(ctx context.Context, ids []string) ([]*entity.Operation, error) {
	if len(ids) == 0 {
		return s.operations.ListPending(ctx, s.pageSize)
	}
	ops := make([]*entity.Operation, 0, len(ids))
	for _, id := range ids {
		op, err := s.operations.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if op != nil {
			ops = append(ops, op)
		}
	}
	return ops, nil
}

// sweepOperation procesa los adjuntos candidatos de una operación. Cualquier
// falla se registra en el reporte sin propagar, para no abortar el barrido.
func (s *SweepRunner) sweepOperation(ctx context.Context, mode SweepMode, op *entity.Operation, report *SweepReport) {
	atts, err := s.attachments.ListByOperation(ctx, op.ID)
	if err != nil {
		s.log.Error().Err(err).Str("operation", op.ID).Msg("no se pudieron listar adjuntos")
		report.Errors++
		return
	}

	for _, att := range atts {
		if !IsInvoiceCandidate(att.FileName, att.MediaType) {
			continue
		}
		report.Processed++

		var outcome Outcome
		if mode == SweepAssignClients {
			outcome = s.processor.ProcessClientOnly(ctx, op, att)
		} else {
			outcome = s.processor.ProcessInvoice(ctx, op, att)
		}

		switch outcome.Action {
		case ActionCreatedAndAssigned:
			report.Created++
			report.Assigned++
		case ActionAssignedExisting:
			report.Assigned++
		case ActionSkipped:
			report.Skipped++
		case ActionError:
			report.Errors++
		}

		// En modo asignación basta el primer éxito por operación
		if mode == SweepAssignClients && outcome.Success {
			break
		}
	}
}

// IsInvoiceCandidate heurística de nombre de archivo para preseleccionar
// adjuntos plausibles antes de bajar bytes del storage.
func IsInvoiceCandidate(filename, mediaType string) bool {
	lower := strings.ToLower(filename)
	for _, tok := range []string{"factura", "invoice", "fact.", "fact ", "inv."} {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return strings.HasSuffix(lower, ".pdf") && strings.Contains(strings.ToLower(mediaType), "pdf")
}
