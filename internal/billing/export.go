// Serializer for the billing export format: one comma-separated line per
// reading, fixed column positions, empty columns emitted as bare commas.
// No quoting or escaping: the downstream parser reads columns by position
// and the inputs never contain commas or newlines.
package billing

import (
	"strconv"
	"strings"

	"github.com/salsipuedes/water-metering-api/internal/db"
)

// Fixed column values required by the billing system
const (
	codigoObservador = "OBSA0002"
	codigoEmpresa    = "999"
	nombreServicio   = "Servicio de Agua"
	marcaFinal       = "0"
)

// Timestamp column formats. Both columns derive from the row's creation
// timestamp, not the reading's own fecha. The billing system has always
// received it this way.
const (
	formatoFechaExport = "2006-01-02"
	formatoHoraExport  = "15:04:05"
)

// Linea renders one export line. indice is the 1-based position of the
// reading within this export run, not the database id.
func Linea(m db.Medicion, indice int) string {
	campos := []string{
		strconv.Itoa(m.Ruta),
		strconv.Itoa(indice),
		codigoObservador,
		strconv.Itoa(m.Orden),
		"",
		strconv.Itoa(m.NroCuenta),
		"",
		formatearValor(m.Medicion),
		"",
		"",
		"",
		CodigoAnomalia(m.EstadoID),
		"",
		"",
		m.CreatedAt.Format(formatoFechaExport),
		m.CreatedAt.Format(formatoHoraExport),
		codigoEmpresa,
		nombreServicio,
		marcaFinal,
	}

	return strings.Join(campos, ",")
}

// Render serializes all readings into the complete export payload,
// one line per reading in the given order, trailing newline included.
func Render(mediciones []db.Medicion) string {
	var b strings.Builder
	for i, m := range mediciones {
		b.WriteString(Linea(m, i+1))
		b.WriteByte('\n')
	}
	return b.String()
}

// formatearValor renders a reading value with the shortest exact decimal
// representation, never in exponent notation
func formatearValor(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
