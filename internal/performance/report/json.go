package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/wesleyorama2/prayerload/internal/performance/engine"
)

// WriteJSON encodes the result as indented JSON.
func WriteJSON(w io.Writer, result *engine.TestResult) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

// GenerateJSON writes the JSON result to a file.
func GenerateJSON(result *engine.TestResult, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}

	if err := WriteJSON(f, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
