package cfdi

import "regexp"

// RFCPattern patrón del Registro Federal de Contribuyentes (SAT):
// 3 letras para persona moral o 4 para persona física (se admiten Ñ y &),
// 6 dígitos de fecha y homoclave de 2-3 alfanuméricos.
var RFCPattern = regexp.MustCompile(`[A-ZÑ&]{3,4}[0-9]{6}[A-Z0-9]{2,3}`)

// rfcStrict ancla el patrón completo para validación estricta.
var rfcStrict = regexp.MustCompile(`^[A-ZÑ&]{3,4}[0-9]{6}[A-Z0-9]{3}$`)

// RFC genérico del público en general; válido pero no identifica a nadie.
const GenericRFC = "XAXX010101000"

// IsValidRFC valida estrictamente un RFC: patrón completo con homoclave de 3
// y fecha AAMMDD plausible (mes 01-12, día 01-31).
func IsValidRFC(rfc string) bool {
	if !rfcStrict.MatchString(rfc) {
		return false
	}
	digits := rfc[len(rfc)-9 : len(rfc)-3]
	month := (digits[2]-'0')*10 + (digits[3] - '0')
	day := (digits[4]-'0')*10 + (digits[5] - '0')
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}

// FindRFC devuelve el primer RFC que aparezca en el texto, o "".
func FindRFC(text string) string {
	return RFCPattern.FindString(text)
}
