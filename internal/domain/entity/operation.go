package entity

import "time"

// Operation representa una operación de carga (expediente logístico).
// Reference sigue el formato interno de la agencia: 4 letras mayúsculas,
// guión y 7 dígitos (ej. "IMPO-0012345"); los CFDI suelen citarla en el
// nombre del archivo o en la descripción de los conceptos.
type Operation struct {
	ID        string
	Reference string
	ClientID  string // vacío mientras la operación no tenga cliente asignado
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Attachment representa un archivo adjunto a una operación.
// StorageKey es la llave opaca en el object storage; los bytes nunca se
// guardan en la base de datos.
type Attachment struct {
	ID          string
	OperationID string
	FileName    string
	MediaType   string // content type declarado al subir (puede venir vacío o mal)
	StorageKey  string
	CreatedAt   time.Time
}
