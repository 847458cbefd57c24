package validator

import (
	"testing"
	"time"
)

func ptrInt(v int) *int           { return &v }
func ptrInt64(v int64) *int64     { return &v }
func ptrFloat(v float64) *float64 { return &v }
func ptrStr(v string) *string     { return &v }

func entradaValida() EntradaMedicion {
	return EntradaMedicion{
		NroCuenta: ptrInt(123),
		Ruta:      ptrInt(4),
		Orden:     ptrInt(17),
		Medicion:  ptrFloat(1543.5),
		EstadoID:  ptrInt64(1),
	}
}

func TestValidarEntrada_Valida(t *testing.T) {
	res := ValidarEntrada(entradaValida(), "mediciones.0", true)

	if !res.IsValid() {
		t.Errorf("Expected valid entry, got violations: %v", res.Violaciones)
	}
	if res.Fecha != nil {
		t.Errorf("Expected nil fecha, got %v", res.Fecha)
	}
}

func TestValidarEntrada_CamposObligatorios(t *testing.T) {
	res := ValidarEntrada(EntradaMedicion{}, "mediciones.0", true)

	if res.IsValid() {
		t.Fatal("Expected violations for empty entry")
	}

	for _, campo := range []string{
		"mediciones.0.nroCuenta",
		"mediciones.0.ruta",
		"mediciones.0.orden",
		"mediciones.0.medicion",
		"mediciones.0.estadoId",
	} {
		if len(res.Violaciones[campo]) == 0 {
			t.Errorf("Expected violation for %s", campo)
		}
	}
}

func TestValidarEntrada_FechaEstricta(t *testing.T) {
	e := entradaValida()
	e.Fecha = ptrStr("17/07/2024")

	res := ValidarEntrada(e, "mediciones.0", true)
	if res.IsValid() {
		t.Error("Expected violation for non YYYY-MM-DD fecha on strict path")
	}

	// The multipart path accepts the same value
	res = ValidarEntrada(e, "0", false)
	if !res.IsValid() {
		t.Errorf("Expected flexible path to accept fecha, got %v", res.Violaciones)
	}
	want := time.Date(2024, 7, 17, 0, 0, 0, 0, time.UTC)
	if res.Fecha == nil || !res.Fecha.Equal(want) {
		t.Errorf("Expected fecha %v, got %v", want, res.Fecha)
	}
}

func TestValidarEntrada_FechaValida(t *testing.T) {
	e := entradaValida()
	e.Fecha = ptrStr("2024-07-17")

	res := ValidarEntrada(e, "mediciones.0", true)
	if !res.IsValid() {
		t.Fatalf("Expected valid entry, got %v", res.Violaciones)
	}
	want := time.Date(2024, 7, 17, 0, 0, 0, 0, time.UTC)
	if res.Fecha == nil || !res.Fecha.Equal(want) {
		t.Errorf("Expected fecha %v, got %v", want, res.Fecha)
	}
}

func TestValidarLote_AcumulaViolaciones(t *testing.T) {
	mala := entradaValida()
	mala.Ruta = nil

	resultados, todas := ValidarLote([]EntradaMedicion{entradaValida(), mala}, "mediciones", true)

	if len(resultados) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(resultados))
	}
	if !resultados[0].IsValid() {
		t.Error("Expected first entry to be valid")
	}
	if resultados[1].IsValid() {
		t.Error("Expected second entry to be invalid")
	}
	if len(todas["mediciones.1.ruta"]) == 0 {
		t.Errorf("Expected aggregated violation for mediciones.1.ruta, got %v", todas)
	}
}

func TestValidarLote_PrefijoVacio(t *testing.T) {
	mala := EntradaMedicion{}
	_, todas := ValidarLote([]EntradaMedicion{mala}, "", false)

	if len(todas["0.ruta"]) == 0 {
		t.Errorf("Expected bare-index violation key 0.ruta, got %v", todas)
	}
}
