// Package raster converts PDF bytes into per-page JPEG images using the
// poppler pdftoppm tool, with pdfcpu validating the document up front.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"docstruct/internal/config"
	"docstruct/internal/domain"
)

// PopplerRasterizer shells out to pdftoppm. All intermediate files live in a
// per-call temp directory that is removed on every exit path.
type PopplerRasterizer struct {
	binary   string
	dpi      int
	maxPages int
}

// NewPopplerRasterizer creates a rasterizer from config.
func NewPopplerRasterizer(cfg *config.RasterConfig) *PopplerRasterizer {
	binary := cfg.Binary
	if binary == "" {
		binary = "pdftoppm"
	}
	dpi := cfg.DPI
	if dpi <= 0 {
		dpi = 144
	}
	return &PopplerRasterizer{binary: binary, dpi: dpi, maxPages: cfg.MaxPages}
}

// Rasterize validates the PDF, renders every page to JPEG, and returns the
// pages in document order.
func (p *PopplerRasterizer) Rasterize(ctx context.Context, pdfBytes []byte) ([]domain.PageImage, error) {
	pageCount, err := api.PageCount(bytes.NewReader(pdfBytes), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedFormat, err)
	}
	if pageCount == 0 {
		return nil, domain.ErrEmptyDocument
	}
	if p.maxPages > 0 && pageCount > p.maxPages {
		return nil, fmt.Errorf("%w: %d pages exceeds limit of %d", domain.ErrFileTooLarge, pageCount, p.maxPages)
	}

	workDir, err := os.MkdirTemp("", "docstruct-raster-")
	if err != nil {
		return nil, fmt.Errorf("creating work dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			log.Printf("raster.PopplerRasterizer: cleanup of %s failed: %v", workDir, rmErr)
		}
	}()

	pdfPath := filepath.Join(workDir, "input.pdf")
	if err := os.WriteFile(pdfPath, pdfBytes, 0o600); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}

	prefix := filepath.Join(workDir, "page")
	cmd := exec.CommandContext(ctx, p.binary, "-jpeg", "-r", strconv.Itoa(p.dpi), pdfPath, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s failed: %v: %s", domain.ErrUnsupportedFormat, p.binary, err, strings.TrimSpace(stderr.String()))
	}

	matches, err := filepath.Glob(prefix + "-*.jpg")
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	sort.Slice(matches, func(i, j int) bool {
		return pageNumberFromName(matches[i]) < pageNumberFromName(matches[j])
	})

	pages := make([]domain.PageImage, 0, len(matches))
	for i, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading rendered page: %w", err)
		}
		pages = append(pages, domain.PageImage{
			PageNo:      i + 1,
			Bytes:       data,
			ContentType: domain.AllowedFileTypes[domain.FileTypeJPG],
		})
	}
	if len(pages) != pageCount {
		log.Printf("raster.PopplerRasterizer: rendered %d page(s), pdfcpu counted %d", len(pages), pageCount)
	}
	return pages, nil
}

// pageNumberFromName extracts N from a "page-N.jpg" output name.
func pageNumberFromName(path string) int {
	base := filepath.Base(path)
	idx := strings.LastIndex(base, "-")
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSuffix(base[idx+1:], ".jpg"))
	if err != nil {
		return 0
	}
	return n
}
