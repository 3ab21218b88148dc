package port

import (
	"context"

	"docstruct/internal/domain"
)

// Rasterizer converts a PDF into one raster image per page, in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfBytes []byte) ([]domain.PageImage, error)
}
