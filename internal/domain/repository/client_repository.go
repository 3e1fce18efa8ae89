package repository

import (
	"context"

	"github.com/cargamex/logistica-api/internal/domain/entity"
)

// ClientRepository define el puerto de persistencia para Client.
// GetByTaxID y SearchByName devuelven nil (sin error) cuando no hay filas;
// el matcher interpreta nil como "sin candidato".
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	Update(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id string) (*entity.Client, error)
	GetByTaxID(ctx context.Context, taxID string) (*entity.Client, error)
	// SearchByName busca clientes cuyo nombre contiene la subcadena (case-insensitive).
	SearchByName(ctx context.Context, fragment string) ([]*entity.Client, error)
}
