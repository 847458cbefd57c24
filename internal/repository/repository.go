package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/salsipuedes/water-metering-api/internal/db"
)

// Tx is an alias for pgx.Tx
type Tx = pgx.Tx

// Repository handles database operations
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListMediciones returns every stored reading with its resolved estado
// label, oldest first
func (r *Repository) ListMediciones(ctx context.Context) ([]db.MedicionConEstado, error) {
	query := `
		SELECT m.id, m.nro_cuenta, m.ruta, m.orden, m.medicion, m.consumo,
		       m.fecha, m.foto_medidor, m.estado_id, m.created_at, m.updated_at,
		       e.tipo
		FROM mediciones m
		JOIN estados e ON e.id = m.estado_id
		ORDER BY m.id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query mediciones: %w", err)
	}
	defer rows.Close()

	var mediciones []db.MedicionConEstado
	for rows.Next() {
		var m db.MedicionConEstado
		if err := rows.Scan(
			&m.ID,
			&m.NroCuenta,
			&m.Ruta,
			&m.Orden,
			&m.Medicion.Medicion,
			&m.Consumo,
			&m.Fecha,
			&m.FotoMedidor,
			&m.EstadoID,
			&m.CreatedAt,
			&m.UpdatedAt,
			&m.Estado,
		); err != nil {
			return nil, fmt.Errorf("failed to scan medicion: %w", err)
		}
		mediciones = append(mediciones, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return mediciones, nil
}

// InsertMedicion inserts a reading and returns its generated id
func (r *Repository) InsertMedicion(ctx context.Context, m *db.Medicion) (int64, error) {
	query := `
		INSERT INTO mediciones (nro_cuenta, ruta, orden, medicion, consumo, fecha, foto_medidor, estado_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		m.NroCuenta,
		m.Ruta,
		m.Orden,
		m.Medicion,
		m.Consumo,
		m.Fecha,
		m.FotoMedidor,
		m.EstadoID,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)

	if err != nil {
		return 0, fmt.Errorf("failed to insert medicion: %w", err)
	}

	return m.ID, nil
}

// UpsertMedicion inserts a reading or, when a row for the same
// (nro_cuenta, fecha) already exists, overwrites it. Last write wins.
// There is no unique constraint on the pair, regular batch inserts may
// repeat it, so the update-then-insert runs inside a transaction.
func (r *Repository) UpsertMedicion(ctx context.Context, m *db.Medicion) (int64, error) {
	if m.Fecha == nil {
		// Without a fecha there is nothing to match on
		return r.InsertMedicion(ctx, m)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	updateQuery := `
		UPDATE mediciones
		SET ruta = $1, orden = $2, medicion = $3, consumo = $4,
		    foto_medidor = $5, estado_id = $6, updated_at = now()
		WHERE id = (
			SELECT id FROM mediciones
			WHERE nro_cuenta = $7 AND fecha = $8
			ORDER BY id
			LIMIT 1
		)
		RETURNING id
	`

	var id int64
	err = tx.QueryRow(ctx, updateQuery,
		m.Ruta,
		m.Orden,
		m.Medicion,
		m.Consumo,
		m.FotoMedidor,
		m.EstadoID,
		m.NroCuenta,
		m.Fecha,
	).Scan(&id)

	if err == pgx.ErrNoRows {
		insertQuery := `
			INSERT INTO mediciones (nro_cuenta, ruta, orden, medicion, consumo, fecha, foto_medidor, estado_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`
		err = tx.QueryRow(ctx, insertQuery,
			m.NroCuenta,
			m.Ruta,
			m.Orden,
			m.Medicion,
			m.Consumo,
			m.Fecha,
			m.FotoMedidor,
			m.EstadoID,
		).Scan(&id)
	}

	if err != nil {
		return 0, fmt.Errorf("failed to upsert medicion: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	m.ID = id
	return id, nil
}

// ExisteMedicion reports whether any reading exists for the account and date
func (r *Repository) ExisteMedicion(ctx context.Context, nroCuenta int, fecha time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM mediciones WHERE nro_cuenta = $1 AND fecha = $2
		)
	`

	var existe bool
	if err := r.pool.QueryRow(ctx, query, nroCuenta, fecha).Scan(&existe); err != nil {
		return false, fmt.Errorf("failed to query medicion existence: %w", err)
	}

	return existe, nil
}

// ListEstados returns the full estado lookup table
func (r *Repository) ListEstados(ctx context.Context) ([]db.Estado, error) {
	query := `
		SELECT id, tipo, created_at, updated_at
		FROM estados
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query estados: %w", err)
	}
	defer rows.Close()

	var estados []db.Estado
	for rows.Next() {
		var e db.Estado
		if err := rows.Scan(&e.ID, &e.Tipo, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan estado: %w", err)
		}
		estados = append(estados, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return estados, nil
}
