package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/salsipuedes/water-metering-api/internal/storage/photostore"
	"github.com/salsipuedes/water-metering-api/internal/validator"
	"github.com/salsipuedes/water-metering-api/tools/fechaparser"
)

// Photo lookup errors. The two cases map to different messages so the
// office staff can tell a mistyped account/date from a reading taken
// without photos.
var (
	ErrMedicionNoEncontrada = errors.New("no existe una medición para esa cuenta y fecha")
	ErrSinImagenes          = errors.New("no se encontraron imágenes")
)

// ExistenceChecker answers whether a reading row exists for the account
// and date
type ExistenceChecker interface {
	ExisteMedicion(ctx context.Context, nroCuenta int, fecha time.Time) (bool, error)
}

// PhotoService associates uploaded photo files with batch entries and
// resolves stored photos back to public URLs
type PhotoService struct {
	store  *photostore.PhotoStore
	repo   ExistenceChecker
	logger *zap.Logger
}

// NewPhotoService creates a new photo service
func NewPhotoService(store *photostore.PhotoStore, repo ExistenceChecker, logger *zap.Logger) *PhotoService {
	return &PhotoService{
		store:  store,
		repo:   repo,
		logger: logger,
	}
}

// AttachFiles pairs uploaded files with the batch entries that declared
// them and writes the matches to disk. An entry matches a file when the
// basename of its fotoMedidor equals the uploaded filename; the first
// match in declaration order wins. Files no entry declared are logged
// and dropped, entries whose file never arrived keep their declared
// path untouched.
func (s *PhotoService) AttachFiles(entradas []validator.EntradaMedicion, archivos []*multipart.FileHeader) error {
	for _, archivo := range archivos {
		nombre := filepath.Base(archivo.Filename)

		entrada := s.matchEntrada(entradas, nombre)
		if entrada == nil {
			s.logger.Warn("uploaded photo matches no batch entry, dropping",
				zap.String("filename", nombre))
			continue
		}
		if entrada.NroCuenta == nil {
			// The entry will fail validation anyway; without an account
			// there is no directory to store under
			continue
		}

		f, err := archivo.Open()
		if err != nil {
			return fmt.Errorf("failed to open uploaded photo %s: %w", nombre, err)
		}

		err = s.store.Save(*entrada.NroCuenta, nombre, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to store photo %s: %w", nombre, err)
		}

		s.logger.Info("stored meter photo",
			zap.Int("nro_cuenta", *entrada.NroCuenta),
			zap.String("filename", nombre))
	}

	return nil
}

// matchEntrada finds the first entry in declaration order whose declared
// photo path ends in nombre
func (s *PhotoService) matchEntrada(entradas []validator.EntradaMedicion, nombre string) *validator.EntradaMedicion {
	for i := range entradas {
		if entradas[i].FotoMedidor == nil {
			continue
		}
		if filepath.Base(*entradas[i].FotoMedidor) == nombre {
			return &entradas[i]
		}
	}
	return nil
}

// FindImages returns the public URLs of the photos stored for a reading.
// It fails with ErrMedicionNoEncontrada when no reading row exists for
// the account and date, and with ErrSinImagenes when the reading exists
// but no photo file matches it.
func (s *PhotoService) FindImages(ctx context.Context, nroCuenta int, fecha time.Time) ([]string, error) {
	existe, err := s.repo.ExisteMedicion(ctx, nroCuenta, fecha)
	if err != nil {
		return nil, fmt.Errorf("failed to check reading existence: %w", err)
	}
	if !existe {
		return nil, ErrMedicionNoEncontrada
	}

	nombres, err := s.store.ListByPrefix(nroCuenta, prefijoLectura(nroCuenta, fecha))
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	if len(nombres) == 0 {
		return nil, ErrSinImagenes
	}

	urls := make([]string, 0, len(nombres))
	for _, nombre := range nombres {
		urls = append(urls, s.store.PublicURL(nroCuenta, nombre))
	}
	return urls, nil
}

// ResolveImages is the lookup variant used when listing readings: it
// never fails the caller, returning nil URLs for readings without a
// fecha or without photos.
func (s *PhotoService) ResolveImages(nroCuenta int, fecha *time.Time) []string {
	if fecha == nil {
		return nil
	}

	nombres, err := s.store.ListByPrefix(nroCuenta, prefijoLectura(nroCuenta, *fecha))
	if err != nil {
		s.logger.Warn("failed to list photos for reading",
			zap.Int("nro_cuenta", nroCuenta),
			zap.Error(err))
		return nil
	}

	urls := make([]string, 0, len(nombres))
	for _, nombre := range nombres {
		urls = append(urls, s.store.PublicURL(nroCuenta, nombre))
	}
	return urls
}

// prefijoLectura builds the filename prefix the field devices use when
// naming meter photos
func prefijoLectura(nroCuenta int, fecha time.Time) string {
	return fmt.Sprintf("Lectura_%d_%s", nroCuenta, fecha.Format(fechaparser.FormatoFecha))
}
