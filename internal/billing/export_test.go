package billing

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/salsipuedes/water-metering-api/internal/db"
)

func TestCodigoAnomalia_Mapeo(t *testing.T) {
	cases := []struct {
		estadoID int64
		want     string
	}{
		{1, "0000"},
		{2, "0001"},
		{3, "0002"},
		{4, "0003"},
		{5, "0004"},
		{6, "0005"},
		{99, "0000"}, // unmapped falls back to the no-anomaly code
		{0, "0000"},
	}

	for _, c := range cases {
		if got := CodigoAnomalia(c.estadoID); got != c.want {
			t.Errorf("CodigoAnomalia(%d): expected %s, got %s", c.estadoID, c.want, got)
		}
	}
}

func TestLinea_Columnas(t *testing.T) {
	created := time.Date(2024, 8, 2, 9, 15, 30, 0, time.UTC)
	fecha := time.Date(2024, 7, 17, 0, 0, 0, 0, time.UTC)

	m := db.Medicion{
		ID:        42,
		NroCuenta: 123,
		Ruta:      7,
		Orden:     19,
		Medicion:  1543.5,
		Fecha:     &fecha,
		EstadoID:  2,
		CreatedAt: created,
	}

	linea := Linea(m, 1)
	campos := strings.Split(linea, ",")

	if len(campos) != 19 {
		t.Fatalf("Expected 19 columns, got %d: %q", len(campos), linea)
	}

	want := []string{
		"7", "1", "OBSA0002", "19", "", "123", "", "1543.5", "", "", "",
		"0001", "", "",
		"2024-08-02", "09:15:30",
		"999", "Servicio de Agua", "0",
	}
	for i, w := range want {
		if campos[i] != w {
			t.Errorf("Column %d: expected %q, got %q", i, w, campos[i])
		}
	}
}

// The timestamp columns come from created_at even when the reading carries
// its own fecha. Long-standing behavior the billing system depends on.
func TestLinea_UsaCreatedAtNoFecha(t *testing.T) {
	fecha := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	m := db.Medicion{
		NroCuenta: 1,
		Ruta:      1,
		Orden:     1,
		Medicion:  10,
		Fecha:     &fecha,
		EstadoID:  1,
		CreatedAt: time.Date(2024, 8, 2, 23, 59, 59, 0, time.UTC),
	}

	campos := strings.Split(Linea(m, 1), ",")
	if campos[14] != "2024-08-02" {
		t.Errorf("Expected date column from created_at, got %q", campos[14])
	}
	if campos[15] != "23:59:59" {
		t.Errorf("Expected time column from created_at, got %q", campos[15])
	}
}

func TestRender_IndiceSecuencial(t *testing.T) {
	base := db.Medicion{NroCuenta: 1, Ruta: 1, Orden: 1, Medicion: 1, EstadoID: 1,
		CreatedAt: time.Date(2024, 8, 2, 0, 0, 0, 0, time.UTC)}

	out := Render([]db.Medicion{base, base, base})
	lineas := strings.Split(strings.TrimRight(out, "\n"), "\n")

	if len(lineas) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lineas))
	}
	for i, linea := range lineas {
		campos := strings.Split(linea, ",")
		if campos[1] != strconv.Itoa(i+1) {
			t.Errorf("Line %d: expected sequential index %d, got %q", i, i+1, campos[1])
		}
	}
}

func TestRender_AnomaliasPorEstado(t *testing.T) {
	created := time.Date(2024, 8, 2, 0, 0, 0, 0, time.UTC)
	var mediciones []db.Medicion
	for _, id := range []int64{1, 2, 6, 99} {
		mediciones = append(mediciones, db.Medicion{
			NroCuenta: 1, Ruta: 1, Orden: 1, Medicion: 1, EstadoID: id, CreatedAt: created,
		})
	}

	lineas := strings.Split(strings.TrimRight(Render(mediciones), "\n"), "\n")
	want := []string{"0000", "0001", "0005", "0000"}
	for i, w := range want {
		campos := strings.Split(lineas[i], ",")
		if campos[11] != w {
			t.Errorf("Line %d: expected anomaly %s, got %s", i, w, campos[11])
		}
	}
}

func TestRender_Vacio(t *testing.T) {
	if out := Render(nil); out != "" {
		t.Errorf("Expected empty payload for no readings, got %q", out)
	}
}
