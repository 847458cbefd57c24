package validator

import (
	"fmt"
	"time"

	"github.com/salsipuedes/water-metering-api/tools/fechaparser"
)

// EntradaMedicion is a single batch entry as submitted by the client.
// Required fields are pointers so that "absent" and "zero" stay
// distinguishable after JSON decoding; validation runs before any
// domain logic touches the entry.
type EntradaMedicion struct {
	ID          *int64   `json:"id,omitempty"`
	NroCuenta   *int     `json:"nroCuenta"`
	Ruta        *int     `json:"ruta"`
	Orden       *int     `json:"orden"`
	Medicion    *float64 `json:"medicion"`
	Consumo     *float64 `json:"consumo"`
	Fecha       *string  `json:"fecha"`
	FotoMedidor *string  `json:"fotoMedidor"`
	EstadoID    *int64   `json:"estadoId"`
}

// Violaciones accumulates per-field validation messages keyed the way the
// mobile client expects them ("mediciones.0.ruta": [...]).
type Violaciones map[string][]string

// Add appends a message for a field
func (v Violaciones) Add(campo, mensaje string) {
	v[campo] = append(v[campo], mensaje)
}

// Merge folds another violation set into this one
func (v Violaciones) Merge(otras Violaciones) {
	for campo, mensajes := range otras {
		v[campo] = append(v[campo], mensajes...)
	}
}

// Resultado holds the outcome of validating one entry
type Resultado struct {
	Violaciones Violaciones
	// Fecha is the parsed reading date, nil when the entry carries none
	Fecha *time.Time
}

// IsValid reports whether the entry passed every field rule
func (r Resultado) IsValid() bool {
	return len(r.Violaciones) == 0
}

// ValidarEntrada validates a single batch entry. clave is the violation key
// prefix for this entry ("mediciones.0" on the structured path, "0" on the
// multipart path). fechaEstricta selects strict YYYY-MM-DD parsing; the
// multipart path accepts any format the field devices send.
func ValidarEntrada(e EntradaMedicion, clave string, fechaEstricta bool) Resultado {
	res := Resultado{Violaciones: Violaciones{}}

	if e.NroCuenta == nil {
		res.Violaciones.Add(clave+".nroCuenta", "El campo nroCuenta es obligatorio")
	}
	if e.Ruta == nil {
		res.Violaciones.Add(clave+".ruta", "El campo ruta es obligatorio")
	}
	if e.Orden == nil {
		res.Violaciones.Add(clave+".orden", "El campo orden es obligatorio")
	}
	if e.Medicion == nil {
		res.Violaciones.Add(clave+".medicion", "El campo medicion es obligatorio")
	}
	if e.EstadoID == nil {
		res.Violaciones.Add(clave+".estadoId", "El campo estadoId es obligatorio")
	}

	if e.Fecha != nil && *e.Fecha != "" {
		var (
			fecha time.Time
			err   error
		)
		if fechaEstricta {
			fecha, err = fechaparser.ParseStrict(*e.Fecha)
		} else {
			fecha, err = fechaparser.ParseFlexible(*e.Fecha)
		}
		if err != nil {
			res.Violaciones.Add(clave+".fecha",
				fmt.Sprintf("El campo fecha no corresponde al formato %s", fechaparser.FormatoFecha))
		} else {
			res.Fecha = &fecha
		}
	}

	return res
}

// ValidarLote validates every entry of a batch, returning the per-entry
// results in input order plus the union of all violations. prefijo is
// prepended to each entry index when building violation keys; pass ""
// for bare indexes.
func ValidarLote(entradas []EntradaMedicion, prefijo string, fechaEstricta bool) ([]Resultado, Violaciones) {
	resultados := make([]Resultado, 0, len(entradas))
	todas := Violaciones{}

	for i, entrada := range entradas {
		clave := fmt.Sprintf("%d", i)
		if prefijo != "" {
			clave = fmt.Sprintf("%s.%d", prefijo, i)
		}
		res := ValidarEntrada(entrada, clave, fechaEstricta)
		todas.Merge(res.Violaciones)
		resultados = append(resultados, res)
	}

	return resultados, todas
}
