package ingestion

// Action resultado etiquetado del procesamiento de un adjunto.
type Action string

const (
	// ActionAssignedExisting se asignó un cliente/factura ya existente (incluye
	// el caso de factura ya ingresada: folio fiscal duplicado, no-op).
	ActionAssignedExisting Action = "assigned-existing"
	// ActionCreatedAndAssigned se creó cliente y/o factura nuevos.
	ActionCreatedAndAssigned Action = "created-and-assigned"
	// ActionSkipped el adjunto no es una factura utilizable; no se escribió nada.
	ActionSkipped Action = "skipped"
	// ActionError falla de I/O o persistencia; no se completó el procesamiento.
	ActionError Action = "error"
)

// Outcome es el resultado estructurado por adjunto. Los casos esperados
// (skip, duplicado) nunca se reportan como error: el caller siempre recibe
// un Outcome, y Reasoning explica la decisión en una frase.
type Outcome struct {
	Success   bool   `json:"success"`
	Action    Action `json:"action"`
	ClientID  string `json:"clientId,omitempty"`
	InvoiceID string `json:"invoiceId,omitempty"`
	Reasoning string `json:"reasoning"`
}

func skipped(reason string) Outcome {
	return Outcome{Success: false, Action: ActionSkipped, Reasoning: reason}
}

func failure(reason string) Outcome {
	return Outcome{Success: false, Action: ActionError, Reasoning: reason}
}
