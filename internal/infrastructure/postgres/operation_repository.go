package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cargamex/logistica-api/internal/domain/entity"
	"github.com/cargamex/logistica-api/internal/domain/repository"
)

var _ repository.OperationRepository = (*OperationRepo)(nil)
var _ repository.AttachmentRepository = (*AttachmentRepo)(nil)

// OperationRepo implementación de OperationRepository.
type OperationRepo struct {
	q Querier
}

// NewOperationRepository construye el adaptador.
func NewOperationRepository(q Querier) *OperationRepo {
	return &OperationRepo{q: q}
}

// GetByID obtiene una operación por ID; nil si no existe.
func (r *OperationRepo) GetByID(ctx context.Context, id string) (*entity.Operation, error) {
	query := `
		SELECT id, reference, COALESCE(client_id, ''), status, created_at, updated_at
		FROM operations WHERE id = $1`
	var op entity.Operation
	err := r.q.QueryRow(ctx, query, id).Scan(
		&op.ID, &op.Reference, &op.ClientID, &op.Status, &op.CreatedAt, &op.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get operation: %w", err)
	}
	return &op, nil
}

// ListPending lista operaciones sin cliente asignado, de la más antigua a la
// más nueva, hasta limit.
func (r *OperationRepo) ListPending(ctx context.Context, limit int) ([]*entity.Operation, error) {
	query := `
		SELECT id, reference, COALESCE(client_id, ''), status, created_at, updated_at
		FROM operations WHERE client_id IS NULL ORDER BY created_at LIMIT $1`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending operations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Operation
	for rows.Next() {
		var op entity.Operation
		if err := rows.Scan(&op.ID, &op.Reference, &op.ClientID, &op.Status, &op.CreatedAt, &op.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		list = append(list, &op)
	}
	return list, rows.Err()
}

// AssignClient fija el cliente de la operación.
func (r *OperationRepo) AssignClient(ctx context.Context, operationID, clientID string) error {
	_, err := r.q.Exec(ctx,
		`UPDATE operations SET client_id = $2, updated_at = $3 WHERE id = $1`,
		operationID, clientID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("assign client to operation: %w", err)
	}
	return nil
}

// AttachmentRepo implementación de AttachmentRepository.
type AttachmentRepo struct {
	q Querier
}

// NewAttachmentRepository construye el adaptador.
func NewAttachmentRepository(q Querier) *AttachmentRepo {
	return &AttachmentRepo{q: q}
}

// GetByID obtiene un adjunto por ID; nil si no existe.
func (r *AttachmentRepo) GetByID(ctx context.Context, id string) (*entity.Attachment, error) {
	query := `
		SELECT id, operation_id, file_name, COALESCE(media_type, ''), storage_key, created_at
		FROM attachments WHERE id = $1`
	var a entity.Attachment
	err := r.q.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.OperationID, &a.FileName, &a.MediaType, &a.StorageKey, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	return &a, nil
}

// ListByOperation lista los adjuntos de una operación en orden de subida.
func (r *AttachmentRepo) ListByOperation(ctx context.Context, operationID string) ([]*entity.Attachment, error) {
	query := `
		SELECT id, operation_id, file_name, COALESCE(media_type, ''), storage_key, created_at
		FROM attachments WHERE operation_id = $1 ORDER BY created_at`
	rows, err := r.q.Query(ctx, query, operationID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Attachment
	for rows.Next() {
		var a entity.Attachment
		if err := rows.Scan(&a.ID, &a.OperationID, &a.FileName, &a.MediaType, &a.StorageKey, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
