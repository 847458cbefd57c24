package service

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/salsipuedes/water-metering-api/internal/db"
)

type fakeLister struct {
	mediciones []db.MedicionConEstado
	err        error
}

func (f *fakeLister) ListMediciones(ctx context.Context) ([]db.MedicionConEstado, error) {
	return f.mediciones, f.err
}

func TestGenerateWritesExportFile(t *testing.T) {
	creada := time.Date(2024, 5, 1, 14, 30, 45, 0, time.UTC)
	lister := &fakeLister{mediciones: []db.MedicionConEstado{
		{
			Medicion: db.Medicion{
				ID:        1,
				NroCuenta: 1001,
				Ruta:      3,
				Orden:     15,
				Medicion:  120.5,
				EstadoID:  2,
				CreatedAt: creada,
			},
			Estado: "Con Aire",
		},
	}}

	svc := NewExportService(lister, t.TempDir(), zap.NewNop())

	path, nombre, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if !strings.HasPrefix(nombre, "Export_mediciones_") || !strings.HasSuffix(nombre, ".txt") {
		t.Errorf("unexpected export filename %s", nombre)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export file: %v", err)
	}

	lineas := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lineas) != 1 {
		t.Fatalf("expected 1 export line, got %d", len(lineas))
	}
	campos := strings.Split(lineas[0], ",")
	if len(campos) != 19 {
		t.Fatalf("expected 19 columns, got %d", len(campos))
	}
	if campos[11] != "0001" {
		t.Errorf("expected anomaly code 0001 for estado 2, got %s", campos[11])
	}
	if campos[14] != "2024-05-01" || campos[15] != "14:30:45" {
		t.Errorf("expected created_at date and time, got %s %s", campos[14], campos[15])
	}
}

func TestGenerateEmptyDataset(t *testing.T) {
	svc := NewExportService(&fakeLister{}, t.TempDir(), zap.NewNop())

	path, _, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export file: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("empty dataset should render an empty file, got %q", data)
	}
}

func TestRemoveDeletesDeliveredFile(t *testing.T) {
	svc := NewExportService(&fakeLister{}, t.TempDir(), zap.NewNop())

	path, _, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	svc.Remove(path)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("export file should be gone after Remove, stat err: %v", err)
	}
}
