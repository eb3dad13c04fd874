package mosaic

import (
	"image"

	"github.com/disintegration/imaging"
)

// A4 page dimensions in pixels at 300 DPI, portrait orientation.
const (
	a4Width  = 2480
	a4Height = 3508
)

// Grid is the cell decomposition of a target image for one tile size.
//
// The target is stretched (not cropped) to the next tile-aligned size, so
// edge cells are never partial. CellColors holds the per-cell mean colors
// in raster order: row-major, row ascending, then column ascending.
type Grid struct {
	Cols       int
	Rows       int
	TileSize   int
	CanvasW    int
	CanvasH    int
	CellColors []RGB
	// Scaled is the tile-aligned resize of the target; the compositor uses
	// it for the Style C ghost overlay.
	Scaled *image.NRGBA
}

// Cell returns the mean color of the cell at (row, col).
func (g *Grid) Cell(row, col int) RGB {
	return g.CellColors[row*g.Cols+col]
}

// SampleCells decomposes the target into tileSize cells.
//
// cols = ceil(W/T) and rows = ceil(H/T); the image is resized with Lanczos
// resampling to exactly (cols*T, rows*T) and each T x T block's mean color
// is accumulated in one pass over the pixel buffer.
func SampleCells(img image.Image, tileSize int) *Grid {
	bounds := img.Bounds()
	cols := (bounds.Dx() + tileSize - 1) / tileSize
	rows := (bounds.Dy() + tileSize - 1) / tileSize
	canvasW := cols * tileSize
	canvasH := rows * tileSize

	scaled := imaging.Resize(img, canvasW, canvasH, imaging.Lanczos)

	sums := make([][3]float64, rows*cols)
	pix := scaled.Pix
	for y := 0; y < canvasH; y++ {
		cellRow := y / tileSize
		rowOffset := y * scaled.Stride
		for x := 0; x < canvasW; x++ {
			cell := &sums[cellRow*cols+x/tileSize]
			i := rowOffset + x*4
			cell[0] += float64(pix[i])
			cell[1] += float64(pix[i+1])
			cell[2] += float64(pix[i+2])
		}
	}

	area := float64(tileSize * tileSize)
	colors := make([]RGB, rows*cols)
	for i, sum := range sums {
		colors[i] = RGB{sum[0] / area, sum[1] / area, sum[2] / area}
	}

	return &Grid{
		Cols:       cols,
		Rows:       rows,
		TileSize:   tileSize,
		CanvasW:    canvasW,
		CanvasH:    canvasH,
		CellColors: colors,
		Scaled:     scaled,
	}
}

// FitToA4 scales and crops the target to A4 page dimensions at 300 DPI.
//
// Strictly landscape sources map to the landscape page (3508x2480);
// portrait and square sources map to the portrait page (2480x3508). The
// image is scaled to cover the page and then center-cropped to the exact
// dimensions, so the page is always fully filled.
func FitToA4(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	targetW, targetH := a4Width, a4Height
	if bounds.Dx() > bounds.Dy() {
		targetW, targetH = a4Height, a4Width
	}
	return imaging.Fill(img, targetW, targetH, imaging.Center, imaging.Lanczos)
}
