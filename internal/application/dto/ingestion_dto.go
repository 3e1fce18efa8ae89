package dto

// SweepRequest petición para disparar un barrido de ingesta.
// Mode: "assign-clients" | "create-invoices". Si OperationIDs viene vacío se
// toma una página de operaciones pendientes.
type SweepRequest struct {
	Mode         string   `json:"mode"`
	OperationIDs []string `json:"operationIds,omitempty"`
}

// ProcessAttachmentRequest petición para procesar un adjunto puntual.
// ClientOnly limita el pipeline a la asignación de cliente.
type ProcessAttachmentRequest struct {
	ClientOnly bool `json:"clientOnly"`
}
