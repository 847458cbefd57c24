package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/salsipuedes/water-metering-api/internal/billing"
	"github.com/salsipuedes/water-metering-api/internal/db"
)

const formatoNombreExport = "2006-01-02-15_04"

// Lister is the read surface the export service needs
type Lister interface {
	ListMediciones(ctx context.Context) ([]db.MedicionConEstado, error)
}

// ExportService renders every stored reading into the fixed-position
// text file the billing system imports
type ExportService struct {
	repo      Lister
	exportDir string
	logger    *zap.Logger
}

// NewExportService creates an export service writing files under
// exportDir. The directory is created on first use.
func NewExportService(repo Lister, exportDir string, logger *zap.Logger) *ExportService {
	return &ExportService{
		repo:      repo,
		exportDir: exportDir,
		logger:    logger,
	}
}

// Generate renders the export file to disk and returns its path and
// download filename. The caller owns the file and removes it once
// delivered.
func (s *ExportService) Generate(ctx context.Context) (path, nombre string, err error) {
	conEstado, err := s.repo.ListMediciones(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to load readings for export: %w", err)
	}

	mediciones := make([]db.Medicion, 0, len(conEstado))
	for _, m := range conEstado {
		mediciones = append(mediciones, m.Medicion)
	}

	if err := os.MkdirAll(s.exportDir, 0o750); err != nil {
		return "", "", fmt.Errorf("failed to create export directory: %w", err)
	}

	nombre = fmt.Sprintf("Export_mediciones_%s.txt", time.Now().Format(formatoNombreExport))
	path = filepath.Join(s.exportDir, nombre)

	if err := os.WriteFile(path, []byte(billing.Render(mediciones)), 0o640); err != nil {
		return "", "", fmt.Errorf("failed to write export file: %w", err)
	}

	s.logger.Info("export file generated",
		zap.String("file", nombre),
		zap.Int("readings", len(mediciones)))

	return path, nombre, nil
}

// Remove deletes a delivered export file. Failures are logged only; the
// client already has its download.
func (s *ExportService) Remove(path string) {
	if err := os.Remove(path); err != nil {
		s.logger.Warn("failed to remove delivered export file",
			zap.String("path", path),
			zap.Error(err))
	}
}
