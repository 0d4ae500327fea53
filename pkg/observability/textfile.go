package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

const textfileDirPerm = 0o750

// WriteTextfile gathers the registry and writes it atomically to path in the
// Prometheus text exposition format.
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	dir := filepath.Dir(path)

	err := os.MkdirAll(dir, textfileDirPerm)
	if err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}

	err = prometheus.WriteToTextfile(path, gatherer)
	if err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	return nil
}
