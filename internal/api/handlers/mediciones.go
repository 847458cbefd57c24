package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/salsipuedes/water-metering-api/internal/db"
	"github.com/salsipuedes/water-metering-api/internal/service"
	"github.com/salsipuedes/water-metering-api/internal/validator"
	"github.com/salsipuedes/water-metering-api/tools/fechaparser"
)

// ReadingLister is the read surface the listing endpoint needs
type ReadingLister interface {
	ListMediciones(ctx context.Context) ([]db.MedicionConEstado, error)
}

// MedicionesHandler serves the reading routes
type MedicionesHandler struct {
	repo   ReadingLister
	ingest *service.IngestService
	photos *service.PhotoService
	export *service.ExportService
	logger *zap.Logger
}

// NewMedicionesHandler creates the reading routes handler
func NewMedicionesHandler(
	repo ReadingLister,
	ingest *service.IngestService,
	photos *service.PhotoService,
	export *service.ExportService,
	logger *zap.Logger,
) *MedicionesHandler {
	return &MedicionesHandler{
		repo:   repo,
		ingest: ingest,
		photos: photos,
		export: export,
		logger: logger,
	}
}

// loteMediciones is the wrapper the clients send on the structured paths
type loteMediciones struct {
	Mediciones []validator.EntradaMedicion `json:"mediciones"`
}

type medicionRespuesta struct {
	ID        int64    `json:"id"`
	NroCuenta int      `json:"nro_cuenta"`
	Ruta      int      `json:"ruta"`
	Orden     int      `json:"orden"`
	Medicion  float64  `json:"medicion"`
	Consumo   *float64 `json:"consumo"`
	Fecha     *string  `json:"fecha"`
	Estado    string   `json:"estado"`
	Imagenes  []string `json:"imagenes"`
}

// Listar returns every stored reading with its estado label and photo
// URLs. An empty store is a 404, not an empty array.
func (h *MedicionesHandler) Listar(w http.ResponseWriter, r *http.Request) {
	mediciones, err := h.repo.ListMediciones(r.Context())
	if err != nil {
		h.logger.Error("failed to list readings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgErrorInterno)
		return
	}
	if len(mediciones) == 0 {
		writeError(w, http.StatusNotFound, msgSinMediciones)
		return
	}

	respuesta := make([]medicionRespuesta, 0, len(mediciones))
	for _, m := range mediciones {
		var fecha *string
		if m.Fecha != nil {
			f := m.Fecha.Format(fechaparser.FormatoFecha)
			fecha = &f
		}
		respuesta = append(respuesta, medicionRespuesta{
			ID:        m.ID,
			NroCuenta: m.NroCuenta,
			Ruta:      m.Ruta,
			Orden:     m.Orden,
			Medicion:  m.Medicion.Medicion,
			Consumo:   m.Consumo,
			Fecha:     fecha,
			Estado:    m.Estado,
			Imagenes:  h.photos.ResolveImages(m.NroCuenta, m.Fecha),
		})
	}

	writeJSON(w, http.StatusOK, respuesta)
}

// CrearLote handles the structured batch create
func (h *MedicionesHandler) CrearLote(w http.ResponseWriter, r *http.Request) {
	var lote loteMediciones
	if err := json.NewDecoder(r.Body).Decode(&lote); err != nil {
		writeError(w, http.StatusBadRequest, msgDatosInvalidos)
		return
	}
	if len(lote.Mediciones) == 0 {
		writeViolations(w, validator.Violaciones{
			"mediciones": {"El campo mediciones es obligatorio"},
		})
		return
	}

	resultados, err := h.ingest.CreateBatch(r.Context(), lote.Mediciones)
	if err != nil {
		var ev *service.ErrorValidacion
		if errors.As(err, &ev) {
			writeViolations(w, ev.Violaciones)
			return
		}
		h.logger.Error("structured batch create failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   msgErrorCrear,
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusCreated, resultados)
}

// Upload handles the multipart batch with photos. Structural failures
// (no files, missing or unparseable mediciones field) reject before any
// validation runs.
func (h *MedicionesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, msgDatosInvalidos)
		return
	}

	archivos := r.MultipartForm.File["images"]
	if len(archivos) == 0 {
		writeError(w, http.StatusBadRequest, msgDatosInvalidos)
		return
	}

	campo := r.FormValue("mediciones")
	if campo == "" {
		writeError(w, http.StatusBadRequest, msgDatosInvalidos)
		return
	}

	var entradas []validator.EntradaMedicion
	if err := json.Unmarshal([]byte(campo), &entradas); err != nil {
		writeError(w, http.StatusBadRequest, msgDatosInvalidos)
		return
	}

	respuestas, err := h.ingest.ProcessUpload(r.Context(), entradas)
	if err != nil {
		var ev *service.ErrorValidacion
		if errors.As(err, &ev) {
			writeViolations(w, ev.Violaciones)
			return
		}
		h.logger.Error("upload batch failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   msgErrorCrear,
			"message": err.Error(),
		})
		return
	}

	if err := h.photos.AttachFiles(entradas, archivos); err != nil {
		h.logger.Error("failed to store uploaded photos", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   msgErrorCrear,
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"message":   msgMedicionesListas,
		"responses": respuestas,
	})
}

// Importar handles the bulk load path where entries overwrite existing
// readings for the same account and date
func (h *MedicionesHandler) Importar(w http.ResponseWriter, r *http.Request) {
	var lote loteMediciones
	if err := json.NewDecoder(r.Body).Decode(&lote); err != nil {
		writeError(w, http.StatusBadRequest, msgDatosInvalidos)
		return
	}
	if len(lote.Mediciones) == 0 {
		writeViolations(w, validator.Violaciones{
			"mediciones": {"El campo mediciones es obligatorio"},
		})
		return
	}

	resultados, err := h.ingest.ImportBatch(r.Context(), lote.Mediciones)
	if err != nil {
		var ev *service.ErrorValidacion
		if errors.As(err, &ev) {
			writeViolations(w, ev.Violaciones)
			return
		}
		h.logger.Error("import batch failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   msgErrorCrear,
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, resultados)
}

// Imagenes resolves the stored photo URLs for an account and date
func (h *MedicionesHandler) Imagenes(w http.ResponseWriter, r *http.Request) {
	nroCuenta, err := strconv.Atoi(chi.URLParam(r, "nroCuenta"))
	if err != nil {
		writeError(w, http.StatusBadRequest, msgDatosInvalidos)
		return
	}
	fecha, err := fechaparser.ParseStrict(chi.URLParam(r, "fecha"))
	if err != nil {
		writeError(w, http.StatusBadRequest, msgDatosInvalidos)
		return
	}

	urls, err := h.photos.FindImages(r.Context(), nroCuenta, fecha)
	switch {
	case errors.Is(err, service.ErrMedicionNoEncontrada):
		writeError(w, http.StatusNotFound, msgMedicionNoExiste)
		return
	case errors.Is(err, service.ErrSinImagenes):
		writeError(w, http.StatusNotFound, msgSinImagenes)
		return
	case err != nil:
		h.logger.Error("photo lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgErrorInterno)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"urls": urls})
}

// Export streams the billing export file and removes it once delivered
func (h *MedicionesHandler) Export(w http.ResponseWriter, r *http.Request) {
	path, nombre, err := h.export.Generate(r.Context())
	if err != nil {
		h.logger.Error("export generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgErrorInterno)
		return
	}
	defer h.export.Remove(path)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+nombre+"\"")
	http.ServeFile(w, r, path)
}
