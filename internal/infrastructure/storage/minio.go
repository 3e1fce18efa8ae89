// Package storage adapta el object storage (MinIO) al puerto BlobStore del
// pipeline de ingesta.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/cargamex/logistica-api/internal/application/ingestion"
	"github.com/cargamex/logistica-api/pkg/config"
)

var _ ingestion.BlobStore = (*MinioStore)(nil)

// MinioStore cliente de object storage para los adjuntos de operaciones.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore construye el cliente y verifica que el bucket exista.
func NewMinioStore(cfg config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("crear cliente MinIO: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("verificar bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("el bucket %s no existe", cfg.Bucket)
	}
	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

// Fetch devuelve los bytes completos del objeto. El pipeline procesa un
// adjunto a la vez, así que el buffer entero en memoria está acotado.
func (s *MinioStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("obtener objeto %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("leer objeto %s: %w", key, err)
	}
	return data, nil
}
