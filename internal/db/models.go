package db

import (
	"time"
)

// Medicion represents a single meter reading row in the mediciones table.
// Consumo, Fecha and FotoMedidor are nullable; everything else is required
// on every persisted row.
type Medicion struct {
	ID          int64
	NroCuenta   int
	Ruta        int
	Orden       int
	Medicion    float64
	Consumo     *float64
	Fecha       *time.Time
	FotoMedidor *string
	EstadoID    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MedicionConEstado is a reading joined with its resolved estado label,
// as returned by the listing query.
type MedicionConEstado struct {
	Medicion
	Estado string
}

// Estado represents a meter condition code (broken, fogged, ...).
// The set is seeded once by migration and read-only at runtime.
type Estado struct {
	ID        int64
	Tipo      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Usuario represents an operator account used by the login endpoint
type Usuario struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
