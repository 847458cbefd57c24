package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/salsipuedes/water-metering-api/internal/db"
	"github.com/salsipuedes/water-metering-api/internal/mq"
	"github.com/salsipuedes/water-metering-api/internal/validator"
)

// Store is the persistence surface the ingest service needs
type Store interface {
	InsertMedicion(ctx context.Context, m *db.Medicion) (int64, error)
	UpsertMedicion(ctx context.Context, m *db.Medicion) (int64, error)
}

// ErrorValidacion carries the field violations of a rejected batch
type ErrorValidacion struct {
	Violaciones validator.Violaciones
}

func (e *ErrorValidacion) Error() string {
	return fmt.Sprintf("batch failed validation with %d violations", len(e.Violaciones))
}

// ResultadoCarga is the per-entry outcome of a structured batch. Entries
// that failed validation report a nil id and subida=false; the batch as a
// whole still succeeds as long as at least one entry was stored.
type ResultadoCarga struct {
	ID     *int64 `json:"id"`
	Subida bool   `json:"subida"`
}

// RespuestaUpload is the per-entry outcome of a multipart upload batch
type RespuestaUpload struct {
	OriginalID *int64 `json:"original_id"`
	CreatedID  *int64 `json:"created_id"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	Subida     bool   `json:"subida"`
}

// IngestService persists reading batches and feeds accepted readings to
// the billing exchange
type IngestService struct {
	store     Store
	publisher *mq.Publisher
	logger    *zap.Logger
}

// NewIngestService creates a new ingest service. publisher may be nil
// when the billing feed is not configured.
func NewIngestService(store Store, publisher *mq.Publisher, logger *zap.Logger) *IngestService {
	return &IngestService{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateBatch stores a structured reading batch. Each entry is validated
// on its own: invalid entries are skipped and reported back as not
// uploaded, valid ones are inserted in input order. An insert failure is
// likewise captured in that entry's result without aborting its
// siblings. The batch is rejected outright only when no entry passes
// validation.
func (s *IngestService) CreateBatch(ctx context.Context, entradas []validator.EntradaMedicion) ([]ResultadoCarga, error) {
	resultados, todas := validator.ValidarLote(entradas, "mediciones", true)

	validas := 0
	for _, res := range resultados {
		if res.IsValid() {
			validas++
		}
	}
	if len(entradas) > 0 && validas == 0 {
		return nil, &ErrorValidacion{Violaciones: todas}
	}

	salida := make([]ResultadoCarga, 0, len(entradas))
	for i, entrada := range entradas {
		if !resultados[i].IsValid() {
			s.logger.Warn("skipping invalid batch entry",
				zap.Int("index", i),
				zap.Int("violations", len(resultados[i].Violaciones)))
			salida = append(salida, ResultadoCarga{ID: nil, Subida: false})
			continue
		}

		m := buildMedicion(entrada, resultados[i].Fecha)
		id, err := s.store.InsertMedicion(ctx, &m)
		if err != nil {
			s.logger.Error("failed to store batch entry",
				zap.Int("index", i),
				zap.Error(err))
			salida = append(salida, ResultadoCarga{ID: nil, Subida: false})
			continue
		}

		s.publicar(ctx, m)
		salida = append(salida, ResultadoCarga{ID: &id, Subida: true})
	}

	return salida, nil
}

// ProcessUpload stores a multipart upload batch. Unlike the structured
// path, any violation rejects the whole batch before a single row is
// written; persistence failures after that are captured per entry so the
// field device learns exactly which readings need a retry.
func (s *IngestService) ProcessUpload(ctx context.Context, entradas []validator.EntradaMedicion) ([]RespuestaUpload, error) {
	resultados, todas := validator.ValidarLote(entradas, "", false)
	if len(todas) > 0 {
		return nil, &ErrorValidacion{Violaciones: todas}
	}

	respuestas := make([]RespuestaUpload, 0, len(entradas))
	for i, entrada := range entradas {
		m := buildMedicion(entrada, resultados[i].Fecha)

		id, err := s.store.InsertMedicion(ctx, &m)
		if err != nil {
			s.logger.Error("failed to store uploaded reading",
				zap.Int("index", i),
				zap.Error(err))
			respuestas = append(respuestas, RespuestaUpload{
				OriginalID: entrada.ID,
				CreatedID:  nil,
				Status:     "error",
				Message:    err.Error(),
				Subida:     false,
			})
			continue
		}

		s.publicar(ctx, m)
		respuestas = append(respuestas, RespuestaUpload{
			OriginalID: entrada.ID,
			CreatedID:  &id,
			Status:     "created",
			Subida:     true,
		})
	}

	return respuestas, nil
}

// ImportBatch stores a batch where each entry overwrites any existing
// reading for its (nro_cuenta, fecha). Validation follows the structured
// path rules.
func (s *IngestService) ImportBatch(ctx context.Context, entradas []validator.EntradaMedicion) ([]ResultadoCarga, error) {
	resultados, todas := validator.ValidarLote(entradas, "mediciones", true)

	validas := 0
	for _, res := range resultados {
		if res.IsValid() {
			validas++
		}
	}
	if len(entradas) > 0 && validas == 0 {
		return nil, &ErrorValidacion{Violaciones: todas}
	}

	salida := make([]ResultadoCarga, 0, len(entradas))
	for i, entrada := range entradas {
		if !resultados[i].IsValid() {
			salida = append(salida, ResultadoCarga{ID: nil, Subida: false})
			continue
		}

		m := buildMedicion(entrada, resultados[i].Fecha)
		id, err := s.store.UpsertMedicion(ctx, &m)
		if err != nil {
			s.logger.Error("failed to import batch entry",
				zap.Int("index", i),
				zap.Error(err))
			salida = append(salida, ResultadoCarga{ID: nil, Subida: false})
			continue
		}

		s.publicar(ctx, m)
		salida = append(salida, ResultadoCarga{ID: &id, Subida: true})
	}

	return salida, nil
}

// publicar emits a billing event for a persisted reading. Publish
// failures are logged and never surface to the client: the reading is
// already committed.
func (s *IngestService) publicar(ctx context.Context, m db.Medicion) {
	evento := mq.EventoMedicion{
		MedicionID: m.ID,
		NroCuenta:  m.NroCuenta,
		Ruta:       m.Ruta,
		Medicion:   m.Medicion,
		Fecha:      m.Fecha,
		EstadoID:   m.EstadoID,
		CreadaEn:   m.CreatedAt,
	}

	if err := s.publisher.PublicarMedicionAceptada(ctx, evento); err != nil {
		s.logger.Warn("failed to publish billing event",
			zap.Int64("medicion_id", m.ID),
			zap.Error(err))
	}
}

// buildMedicion maps a validated entry onto the storage model. The entry
// is assumed valid: required pointers are dereferenced directly.
func buildMedicion(e validator.EntradaMedicion, fecha *time.Time) db.Medicion {
	return db.Medicion{
		NroCuenta:   *e.NroCuenta,
		Ruta:        *e.Ruta,
		Orden:       *e.Orden,
		Medicion:    *e.Medicion,
		Consumo:     e.Consumo,
		Fecha:       fecha,
		FotoMedidor: e.FotoMedidor,
		EstadoID:    *e.EstadoID,
	}
}
