package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Converter turns a word-processor file into a PDF and returns the new path.
type Converter interface {
	ToPDF(ctx context.Context, inputPath string) (string, error)
}

// SofficeConverter shells out to a LibreOffice binary in headless mode. The
// binary path comes from configuration, never a hard-coded install location.
type SofficeConverter struct {
	binPath string
}

// NewSofficeConverter builds a converter around the given binary path.
func NewSofficeConverter(binPath string) (*SofficeConverter, error) {
	if strings.TrimSpace(binPath) == "" {
		return nil, fmt.Errorf("converter binary path is required")
	}
	return &SofficeConverter{binPath: binPath}, nil
}

// ToPDF converts inputPath next to itself and returns the .pdf path.
func (c *SofficeConverter) ToPDF(ctx context.Context, inputPath string) (string, error) {
	outDir := filepath.Dir(inputPath)
	cmd := exec.CommandContext(ctx, c.binPath,
		"--headless", "--convert-to", "pdf", "--outdir", outDir, inputPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("convert %s: %w: %s",
			filepath.Base(inputPath), err, bytes.TrimSpace(out))
	}

	pdfPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".pdf"
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("converted pdf missing: %w", err)
	}
	return pdfPath, nil
}
