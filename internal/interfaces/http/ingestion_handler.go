package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cargamex/logistica-api/internal/application/dto"
	"github.com/cargamex/logistica-api/internal/application/ingestion"
	"github.com/cargamex/logistica-api/internal/domain/repository"
)

// IngestionHandler expone el pipeline de ingesta para pruebas manuales y
// disparos puntuales desde el frontend de operaciones.
type IngestionHandler struct {
	processor   *ingestion.AttachmentProcessor
	sweeper     *ingestion.SweepRunner
	operations  repository.OperationRepository
	attachments repository.AttachmentRepository
}

// NewIngestionHandler construye el handler.
func NewIngestionHandler(
	processor *ingestion.AttachmentProcessor,
	sweeper *ingestion.SweepRunner,
	operations repository.OperationRepository,
	attachments repository.AttachmentRepository,
) *IngestionHandler {
	return &IngestionHandler{
		processor:   processor,
		sweeper:     sweeper,
		operations:  operations,
		attachments: attachments,
	}
}

// ProcessAttachment POST /api/ingestion/attachments/:id/process
// Corre el pipeline para un adjunto puntual y devuelve el outcome etiquetado.
func (h *IngestionHandler) ProcessAttachment(c *fiber.Ctx) error {
	att, err := h.attachments.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if att == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "adjunto no encontrado"})
	}
	op, err := h.operations.GetByID(c.Context(), att.OperationID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if op == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "operación no encontrada"})
	}

	var in dto.ProcessAttachmentRequest
	_ = c.BodyParser(&in) // cuerpo opcional

	var outcome ingestion.Outcome
	if in.ClientOnly {
		outcome = h.processor.ProcessClientOnly(c.Context(), op, att)
	} else {
		outcome = h.processor.ProcessInvoice(c.Context(), op, att)
	}
	return c.JSON(outcome)
}

// Sweep POST /api/ingestion/sweep
// Dispara un barrido batch síncrono y devuelve los contadores agregados.
func (h *IngestionHandler) Sweep(c *fiber.Ctx) error {
	var in dto.SweepRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mode := ingestion.SweepMode(in.Mode)
	if mode != ingestion.SweepAssignClients && mode != ingestion.SweepCreateInvoices {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "mode debe ser assign-clients o create-invoices"})
	}
	report, err := h.sweeper.Run(c.Context(), mode, in.OperationIDs)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(report)
}
