// Package normalize normaliza texto para comparaciones difusas de nombres
// (razones sociales escritas a mano vs. extraídas de un CFDI).
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents descompone a NFC->NFD, elimina marcas diacríticas y recompone.
// "Logística Peñasco" -> "Logistica Penasco".
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Text devuelve el texto en minúsculas, sin diacríticos latinos y con
// espacios en blanco colapsados a uno solo.
func Text(s string) string {
	out, _, err := transform.String(stripAccents, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	return strings.Join(strings.Fields(out), " ")
}

// WordSet tokeniza el texto normalizado en un conjunto de palabras.
func WordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(Text(s)) {
		set[w] = struct{}{}
	}
	return set
}

// Jaccard similitud |intersección| / |unión| entre dos conjuntos de palabras.
// Devuelve 0 si ambos conjuntos están vacíos.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
