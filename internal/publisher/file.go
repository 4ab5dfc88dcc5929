package publisher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"hangmantrainer/internal/models"
	"hangmantrainer/internal/report"
)

// FileCollector writes each result's text report into a directory
type FileCollector struct {
	dir string
}

func NewFileCollector(dir string) *FileCollector {
	return &FileCollector{dir: dir}
}

func (c *FileCollector) Name() string {
	return "file"
}

func (c *FileCollector) Collect(ctx context.Context, result models.LevelResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}

	// Same-day results from one player would collide on the report filename alone
	name := strings.TrimSuffix(report.ResultFilename(result), ".txt") + "_" + uuid.NewString()[:8] + ".txt"
	if err := os.WriteFile(filepath.Join(c.dir, name), []byte(report.FormatResult(result)), 0o644); err != nil {
		return fmt.Errorf("write result file: %w", err)
	}
	return nil
}
