package repository

import (
	"context"

	"github.com/cargamex/logistica-api/internal/domain/entity"
)

// OperationRepository define el puerto de persistencia para Operation.
type OperationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Operation, error)
	// ListPending devuelve operaciones recientes sin cliente asignado, hasta limit,
	// de la más antigua a la más nueva (el barrido las procesa en orden).
	ListPending(ctx context.Context, limit int) ([]*entity.Operation, error)
	// AssignClient fija el cliente de la operación.
	AssignClient(ctx context.Context, operationID, clientID string) error
}

// AttachmentRepository define el puerto de persistencia para Attachment.
type AttachmentRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Attachment, error)
	ListByOperation(ctx context.Context, operationID string) ([]*entity.Attachment, error)
}
