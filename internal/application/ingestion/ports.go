// Package ingestion implementa el pipeline de ingesta de facturas CFDI:
// detección de formato, extracción, conciliación de cliente y upsert
// idempotente de la factura, más los orquestadores por adjunto y batch.
package ingestion

import (
	"context"

	"github.com/cargamex/logistica-api/internal/domain/cfdi"
)

// BlobStore colaborador de object storage: devuelve los bytes de un adjunto
// dada su llave opaca. Cualquier falla es terminal para ese adjunto; el
// pipeline no reintenta.
type BlobStore interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// FormatDetector clasifica un adjunto hacia una de las dos estrategias de
// extracción. Devuelve domain.ErrNotAnInvoice si el nombre del archivo no
// sugiere una factura.
type FormatDetector interface {
	Detect(filename, mediaType string, data []byte) (cfdi.Source, error)
}

// Extractor es el contrato común de las dos estrategias de extracción
// (XML estructurado y texto de respaldo): bytes y nombre de archivo hacia el
// documento canónico, o un error de dominio cuando el contenido no es una
// factura utilizable.
type Extractor interface {
	Extract(data []byte, filename string) (*cfdi.Document, error)
}
