// Package cfdi implementa las dos estrategias de extracción de facturas
// (XML estructurado y texto con regex de respaldo) y el detector de formato
// que decide cuál aplicar.
package cfdi

import (
	"bytes"
	"strings"

	"github.com/cargamex/logistica-api/internal/application/ingestion"
	"github.com/cargamex/logistica-api/internal/domain"
	domaincfdi "github.com/cargamex/logistica-api/internal/domain/cfdi"
)

// invoiceTokens tokens en el nombre del archivo que sugieren una factura.
// Si ninguno aparece, el adjunto se descarta antes de intentar parsear nada.
var invoiceTokens = []string{"factura", "invoice", "cfdi", "xml", "pdf"}

// Detector clasifica un adjunto como XML estructurado o texto plano.
type Detector struct{}

var _ ingestion.FormatDetector = (*Detector)(nil)

// NewDetector construye el detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect decide la ruta de extracción. Orden de decisión: extensión .xml,
// media type declarado que contenga "xml", o primeros ~100 bytes que (tras
// recortar espacios) empiecen con "<?xml". Si el nombre del archivo no trae
// ningún token de factura, devuelve ErrNotAnInvoice sin inspeccionar bytes.
func (d *Detector) Detect(filename, mediaType string, data []byte) (domaincfdi.Source, error) {
	lower := strings.ToLower(filename)
	found := false
	for _, tok := range invoiceTokens {
		if strings.Contains(lower, tok) {
			found = true
			break
		}
	}
	if !found {
		return "", domain.ErrNotAnInvoice
	}

	if strings.HasSuffix(lower, ".xml") {
		return domaincfdi.SourceStructured, nil
	}
	if strings.Contains(strings.ToLower(mediaType), "xml") {
		return domaincfdi.SourceStructured, nil
	}
	head := data
	if len(head) > 100 {
		head = head[:100]
	}
	if bytes.HasPrefix(bytes.TrimSpace(head), []byte("<?xml")) {
		return domaincfdi.SourceStructured, nil
	}
	return domaincfdi.SourceText, nil
}
