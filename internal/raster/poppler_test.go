package raster

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"docstruct/internal/config"
	"docstruct/internal/domain"
)

func TestNewPopplerRasterizer_Defaults(t *testing.T) {
	p := NewPopplerRasterizer(&config.RasterConfig{})
	assert.Equal(t, "pdftoppm", p.binary)
	assert.Equal(t, 144, p.dpi)

	p = NewPopplerRasterizer(&config.RasterConfig{Binary: "pdftoppm-static", DPI: 300, MaxPages: 10})
	assert.Equal(t, "pdftoppm-static", p.binary)
	assert.Equal(t, 300, p.dpi)
	assert.Equal(t, 10, p.maxPages)
}

func TestRasterize_RejectsCorruptPDF(t *testing.T) {
	p := NewPopplerRasterizer(&config.RasterConfig{})

	_, err := p.Rasterize(context.Background(), []byte("%PDF-1.7 but not really a pdf"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestPageNumberFromName(t *testing.T) {
	assert.Equal(t, 1, pageNumberFromName("/tmp/work/page-1.jpg"))
	assert.Equal(t, 12, pageNumberFromName("/tmp/work/page-12.jpg"))
	assert.Equal(t, 0, pageNumberFromName("/tmp/work/noise.jpg"))

	// pdftoppm zero-pads page numbers for multi-digit documents; numeric
	// ordering must hold either way.
	names := []string{"page-10.jpg", "page-2.jpg", "page-1.jpg"}
	sort.Slice(names, func(i, j int) bool {
		return pageNumberFromName(names[i]) < pageNumberFromName(names[j])
	})
	assert.Equal(t, []string{"page-1.jpg", "page-2.jpg", "page-10.jpg"}, names)
}
