package handlers

import (
	"encoding/json"
	"net/http"
)

// Client-facing messages. The mobile clients match on these strings, so
// they stay exactly as the field devices expect them.
const (
	msgSinMediciones     = "No se cargaron mediciones"
	msgSinEstados        = "No se cargaron estados"
	msgDatosInvalidos    = "Datos de entrada inválidos"
	msgErrorCrear        = "Error al crear las mediciones"
	msgMedicionesListas  = "Mediciones procesadas"
	msgMedicionNoExiste  = "No existe una medición para esa cuenta y fecha"
	msgSinImagenes       = "No se encontraron imágenes"
	msgLoginExitoso      = "Inicio de sesión exitoso"
	msgCredencialesMalas = "Credenciales inválidas"
	msgSesionCerrada     = "Sesión cerrada correctamente"
	msgErrorInterno      = "Error interno del servidor"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, mensaje string) {
	writeJSON(w, status, map[string]string{"error": mensaje})
}

// writeViolations reports a rejected batch with its per-field messages
func writeViolations(w http.ResponseWriter, violaciones interface{}) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"message": msgDatosInvalidos,
		"errors":  violaciones,
	})
}
