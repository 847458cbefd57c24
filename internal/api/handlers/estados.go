package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/salsipuedes/water-metering-api/internal/db"
)

// EstadoLister is the read surface the estados endpoint needs
type EstadoLister interface {
	ListEstados(ctx context.Context) ([]db.Estado, error)
}

// EstadosHandler serves the meter status lookup table
type EstadosHandler struct {
	repo   EstadoLister
	logger *zap.Logger
}

// NewEstadosHandler creates the estados handler
func NewEstadosHandler(repo EstadoLister, logger *zap.Logger) *EstadosHandler {
	return &EstadosHandler{repo: repo, logger: logger}
}

type estadoRespuesta struct {
	ID   int64  `json:"id"`
	Tipo string `json:"tipo"`
}

// Listar returns the estado lookup values. An empty table is a 404.
func (h *EstadosHandler) Listar(w http.ResponseWriter, r *http.Request) {
	estados, err := h.repo.ListEstados(r.Context())
	if err != nil {
		h.logger.Error("failed to list estados", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgErrorInterno)
		return
	}
	if len(estados) == 0 {
		writeError(w, http.StatusNotFound, msgSinEstados)
		return
	}

	respuesta := make([]estadoRespuesta, 0, len(estados))
	for _, e := range estados {
		respuesta = append(respuesta, estadoRespuesta{ID: e.ID, Tipo: e.Tipo})
	}

	writeJSON(w, http.StatusOK, respuesta)
}
