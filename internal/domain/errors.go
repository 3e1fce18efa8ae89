package domain

import "errors"

// Errores de dominio (sin dependencias externas).
//
// Los tres primeros son resultados esperados del pipeline de ingesta:
// el orquestador los convierte en outcomes "skipped" o "error" sin abortar
// el barrido. El resto son errores genéricos compartidos por la aplicación.
var (
	// ErrNotAnInvoice el adjunto no parece factura (prefiltro de nombre de
	// archivo o umbral de frases CFDI no alcanzado). Skip, no es falla.
	ErrNotAnInvoice = errors.New("el adjunto no es una factura")
	// ErrMalformedCFDI el XML no trae los nodos obligatorios de un CFDI
	// (Version, Emisor, Receptor, Total). Skip, no es falla.
	ErrMalformedCFDI = errors.New("el XML no es un CFDI válido")
	// ErrMissingFiscalUUID el documento extraído no trae folio fiscal; sin la
	// llave de deduplicación no se puede escribir nada.
	ErrMissingFiscalUUID = errors.New("el documento no trae folio fiscal (UUID)")

	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)
