package fechaparser

import (
	"fmt"
	"time"
)

// FormatoFecha is the wire format for reading dates (YYYY-MM-DD)
const FormatoFecha = "2006-01-02"

// ParseStrict parses a fecha in the exact YYYY-MM-DD format.
// Used by the structured batch path.
func ParseStrict(fechaStr string) (time.Time, error) {
	t, err := time.Parse(FormatoFecha, fechaStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha '%s' does not match format %s: %w", fechaStr, FormatoFecha, err)
	}
	return t, nil
}

// ParseFlexible attempts to parse a fecha with multiple formats.
// The multipart path accepts whatever the field devices send.
func ParseFlexible(fechaStr string) (time.Time, error) {
	formats := []string{
		FormatoFecha,          // YYYY-MM-DD
		"02/01/2006",          // DD/MM/YYYY
		"2006-01-02 15:04:05", // date with time, time discarded
		time.RFC3339,
	}

	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, fechaStr)
		if err == nil {
			// Keep the calendar date only
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("failed to parse fecha '%s': %w", fechaStr, lastErr)
}
