package cfdi

import "regexp"

// operationRefPattern referencia interna de operación de carga:
// 4 letras mayúsculas, guión y 7 dígitos (ej. "IMPO-0012345").
var operationRefPattern = regexp.MustCompile(`[A-Z]{4}-[0-9]{7}`)

// FindOperationReference busca la referencia de operación primero en el
// nombre del archivo y después en cada descripción de concepto, en orden.
// Devuelve "" si no aparece.
func FindOperationReference(filename string, descriptions ...string) string {
	if ref := operationRefPattern.FindString(filename); ref != "" {
		return ref
	}
	for _, d := range descriptions {
		if ref := operationRefPattern.FindString(d); ref != "" {
			return ref
		}
	}
	return ""
}
