package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/salsipuedes/water-metering-api/internal/db"
	"golang.org/x/crypto/bcrypt"
)

// ErrCredencialesInvalidas is returned on unknown email or wrong password.
// Both cases collapse into one error so the login endpoint cannot be used
// to probe for registered accounts.
var ErrCredencialesInvalidas = errors.New("credenciales incorrectas")

// ValidarUsuario checks the email/password pair against the usuarios table
func (r *Repository) ValidarUsuario(ctx context.Context, email, password string) (*db.Usuario, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM usuarios
		WHERE email = $1
	`

	var u db.Usuario
	err := r.pool.QueryRow(ctx, query, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCredencialesInvalidas
		}
		return nil, fmt.Errorf("failed to query usuario: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrCredencialesInvalidas
	}

	return &u, nil
}

// EnsureAdminUsuario creates the configured admin account if it does not
// exist yet. Called once at startup; a no-op when email or password is empty.
func (r *Repository) EnsureAdminUsuario(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	query := `
		INSERT INTO usuarios (email, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, email, hash); err != nil {
		return fmt.Errorf("failed to seed admin usuario: %w", err)
	}

	return nil
}
