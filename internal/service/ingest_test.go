package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/salsipuedes/water-metering-api/internal/db"
	"github.com/salsipuedes/water-metering-api/internal/validator"
)

type fakeStore struct {
	inserted []db.Medicion
	upserted []db.Medicion
	nextID   int64
	failNext error
}

func (f *fakeStore) InsertMedicion(ctx context.Context, m *db.Medicion) (int64, error) {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return 0, err
	}
	f.nextID++
	m.ID = f.nextID
	f.inserted = append(f.inserted, *m)
	return f.nextID, nil
}

func (f *fakeStore) UpsertMedicion(ctx context.Context, m *db.Medicion) (int64, error) {
	f.nextID++
	m.ID = f.nextID
	f.upserted = append(f.upserted, *m)
	return f.nextID, nil
}

func intPtr(v int) *int           { return &v }
func int64Ptr(v int64) *int64     { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func entradaValida(cuenta int) validator.EntradaMedicion {
	return validator.EntradaMedicion{
		NroCuenta: intPtr(cuenta),
		Ruta:      intPtr(3),
		Orden:     intPtr(15),
		Medicion:  floatPtr(120.5),
		Fecha:     strPtr("2024-05-01"),
		EstadoID:  int64Ptr(1),
	}
}

func TestCreateBatchStoresValidEntries(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestService(store, nil, zap.NewNop())

	resultados, err := svc.CreateBatch(context.Background(), []validator.EntradaMedicion{
		entradaValida(1001),
		entradaValida(1002),
	})
	if err != nil {
		t.Fatalf("CreateBatch returned error: %v", err)
	}

	if len(resultados) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resultados))
	}
	for i, res := range resultados {
		if !res.Subida {
			t.Errorf("entry %d: expected subida=true", i)
		}
		if res.ID == nil || *res.ID != int64(i+1) {
			t.Errorf("entry %d: unexpected id %v", i, res.ID)
		}
	}
	if len(store.inserted) != 2 {
		t.Errorf("expected 2 inserts, got %d", len(store.inserted))
	}
	if store.inserted[0].NroCuenta != 1001 {
		t.Errorf("expected nro_cuenta 1001, got %d", store.inserted[0].NroCuenta)
	}
}

func TestCreateBatchSkipsInvalidEntries(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestService(store, nil, zap.NewNop())

	invalida := entradaValida(1001)
	invalida.Ruta = nil

	resultados, err := svc.CreateBatch(context.Background(), []validator.EntradaMedicion{
		invalida,
		entradaValida(1002),
	})
	if err != nil {
		t.Fatalf("CreateBatch returned error: %v", err)
	}

	if resultados[0].ID != nil || resultados[0].Subida {
		t.Errorf("invalid entry should report nil id and subida=false, got %+v", resultados[0])
	}
	if resultados[1].ID == nil || !resultados[1].Subida {
		t.Errorf("valid entry should be stored, got %+v", resultados[1])
	}
	if len(store.inserted) != 1 {
		t.Errorf("expected 1 insert, got %d", len(store.inserted))
	}
}

func TestCreateBatchCapturesStoreFailuresPerEntry(t *testing.T) {
	store := &fakeStore{failNext: errors.New("connection reset")}
	svc := NewIngestService(store, nil, zap.NewNop())

	resultados, err := svc.CreateBatch(context.Background(), []validator.EntradaMedicion{
		entradaValida(1001),
		entradaValida(1002),
	})
	if err != nil {
		t.Fatalf("CreateBatch returned error: %v", err)
	}

	if resultados[0].ID != nil || resultados[0].Subida {
		t.Errorf("failed entry should report nil id and subida=false, got %+v", resultados[0])
	}
	if resultados[1].ID == nil || !resultados[1].Subida {
		t.Errorf("sibling entry should still be stored, got %+v", resultados[1])
	}
}

func TestCreateBatchRejectsFullyInvalidBatch(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestService(store, nil, zap.NewNop())

	invalida := validator.EntradaMedicion{Medicion: floatPtr(1)}

	_, err := svc.CreateBatch(context.Background(), []validator.EntradaMedicion{invalida})

	var ev *ErrorValidacion
	if !errors.As(err, &ev) {
		t.Fatalf("expected ErrorValidacion, got %v", err)
	}
	if _, ok := ev.Violaciones["mediciones.0.ruta"]; !ok {
		t.Errorf("expected violation key mediciones.0.ruta, got %v", ev.Violaciones)
	}
	if len(store.inserted) != 0 {
		t.Errorf("expected no inserts, got %d", len(store.inserted))
	}
}

func TestCreateBatchRejectsNonISODates(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestService(store, nil, zap.NewNop())

	entrada := entradaValida(1001)
	entrada.Fecha = strPtr("01/05/2024")

	_, err := svc.CreateBatch(context.Background(), []validator.EntradaMedicion{entrada})

	var ev *ErrorValidacion
	if !errors.As(err, &ev) {
		t.Fatalf("expected ErrorValidacion, got %v", err)
	}
	if _, ok := ev.Violaciones["mediciones.0.fecha"]; !ok {
		t.Errorf("expected fecha violation, got %v", ev.Violaciones)
	}
}

func TestProcessUploadRejectsAnyViolation(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestService(store, nil, zap.NewNop())

	invalida := entradaValida(1001)
	invalida.Orden = nil

	_, err := svc.ProcessUpload(context.Background(), []validator.EntradaMedicion{
		entradaValida(1000),
		invalida,
	})

	var ev *ErrorValidacion
	if !errors.As(err, &ev) {
		t.Fatalf("expected ErrorValidacion, got %v", err)
	}
	if _, ok := ev.Violaciones["1.orden"]; !ok {
		t.Errorf("expected bare-index violation key 1.orden, got %v", ev.Violaciones)
	}
	if len(store.inserted) != 0 {
		t.Errorf("no row may be written when the batch has violations, got %d inserts", len(store.inserted))
	}
}

func TestProcessUploadAcceptsFlexibleDates(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestService(store, nil, zap.NewNop())

	entrada := entradaValida(1001)
	entrada.Fecha = strPtr("01/05/2024")

	respuestas, err := svc.ProcessUpload(context.Background(), []validator.EntradaMedicion{entrada})
	if err != nil {
		t.Fatalf("ProcessUpload returned error: %v", err)
	}
	if respuestas[0].Status != "created" {
		t.Errorf("expected status created, got %s", respuestas[0].Status)
	}
	if store.inserted[0].Fecha == nil {
		t.Fatal("expected parsed fecha on stored reading")
	}
	if got := store.inserted[0].Fecha.Format("2006-01-02"); got != "2024-05-01" {
		t.Errorf("expected fecha 2024-05-01, got %s", got)
	}
}

func TestProcessUploadReportsPerEntryStoreFailures(t *testing.T) {
	store := &fakeStore{failNext: errors.New("connection reset")}
	svc := NewIngestService(store, nil, zap.NewNop())

	primera := entradaValida(1001)
	primera.ID = int64Ptr(41)
	segunda := entradaValida(1002)
	segunda.ID = int64Ptr(42)

	respuestas, err := svc.ProcessUpload(context.Background(), []validator.EntradaMedicion{primera, segunda})
	if err != nil {
		t.Fatalf("ProcessUpload returned error: %v", err)
	}

	if respuestas[0].Status != "error" || respuestas[0].Subida {
		t.Errorf("first entry should report the store failure, got %+v", respuestas[0])
	}
	if respuestas[0].OriginalID == nil || *respuestas[0].OriginalID != 41 {
		t.Errorf("expected original_id 41, got %v", respuestas[0].OriginalID)
	}
	if respuestas[0].CreatedID != nil {
		t.Errorf("failed entry must not carry a created id, got %v", respuestas[0].CreatedID)
	}

	if respuestas[1].Status != "created" || !respuestas[1].Subida {
		t.Errorf("second entry should be stored, got %+v", respuestas[1])
	}
	if respuestas[1].CreatedID == nil {
		t.Error("stored entry must carry its created id")
	}
}

func TestImportBatchUpserts(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestService(store, nil, zap.NewNop())

	resultados, err := svc.ImportBatch(context.Background(), []validator.EntradaMedicion{entradaValida(1001)})
	if err != nil {
		t.Fatalf("ImportBatch returned error: %v", err)
	}
	if len(store.upserted) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(store.upserted))
	}
	if len(store.inserted) != 0 {
		t.Errorf("import must not use the plain insert path")
	}
	if !resultados[0].Subida {
		t.Errorf("expected subida=true, got %+v", resultados[0])
	}
}
