// Disk storage for meter photos. Files live under
// <dataDir>/mediciones/<nro_cuenta>/<filename>; the filesystem namespace
// itself is the source of truth for which photos exist; there is no
// separate index.
package photostore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PhotoStore manages meter photo files on disk
type PhotoStore struct {
	dataDir string
	baseURL string
}

// New creates a PhotoStore rooted at dataDir. The root directory is
// created if missing; baseURL is the public prefix used to build URLs.
func New(dataDir, baseURL string) (*PhotoStore, error) {
	root := filepath.Join(dataDir, "mediciones")
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create photo storage root %s: %w", root, err)
	}

	return &PhotoStore{
		dataDir: dataDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save writes a photo under the account's directory using the original
// filename unmodified. Re-uploading the same filename overwrites the
// previous file. Write goes through a temp file and an atomic rename so
// readers never observe a partial photo.
func (ps *PhotoStore) Save(nroCuenta int, filename string, r io.Reader) error {
	// Keep only the final path segment of whatever the client declared
	filename = filepath.Base(filename)

	dir := ps.accountDir(nroCuenta)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create account directory %s: %w", dir, err)
	}

	fullPath := filepath.Join(dir, filename)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write photo data: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// ListByPrefix returns the filenames in the account's directory whose
// basename starts with prefix, sorted by name. A missing account
// directory means no photos, not an error.
func (ps *PhotoStore) ListByPrefix(nroCuenta int, prefix string) ([]string, error) {
	entries, err := os.ReadDir(ps.accountDir(nroCuenta))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list account directory: %w", err)
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			matches = append(matches, entry.Name())
		}
	}

	return matches, nil
}

// PublicURL builds the client-facing URL for a stored photo
func (ps *PhotoStore) PublicURL(nroCuenta int, filename string) string {
	return ps.baseURL + "/mediciones/" + strconv.Itoa(nroCuenta) + "/" + filename
}

func (ps *PhotoStore) accountDir(nroCuenta int) string {
	return filepath.Join(ps.dataDir, "mediciones", strconv.Itoa(nroCuenta))
}
