package collector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lysyi3m/content-comb/app/content"
)

func DefaultDumpPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("collected_data_%s.json", now.Format("20060102_150405")))
}

// WriteDump writes the batch as an indented JSON debug artifact.
func WriteDump(path string, batch content.IngestionBatch) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create dump directory: %w", err)
	}

	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write dump: %w", err)
	}

	return nil
}
