package mosaic

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/anthonynsimon/bild/blend"
	"github.com/disintegration/imaging"
)

// Style selects how tiles are blended into the output canvas.
type Style string

const (
	// StyleTiles pastes each selected tile verbatim.
	StyleTiles Style = "A"
	// StyleTinted blends each tile toward its cell's mean color.
	StyleTinted Style = "B"
	// StyleGhost pastes raw tiles, then overlays a translucent copy of the
	// original target across the whole canvas.
	StyleGhost Style = "C"
)

// tintStrength is the fixed Style B blend weight of the cell color:
// output = tile*(1-s) + cellColor*s.
const tintStrength = 0.55

// ParseStyle validates a style string from the request boundary.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case StyleTiles, StyleTinted, StyleGhost:
		return Style(s), nil
	default:
		return "", fmt.Errorf("%w: style must be A, B or C, got %q", ErrInvalidInput, s)
	}
}

// Composite assembles the mosaic canvas from the per-cell selection.
//
// selection holds source indices in raster order; each tile is fetched
// through the cache at the grid's tile size and drawn at its cell position.
// A selection index with no matching source byte buffer falls back to the
// cache's placeholder tile. overlayOpacity is only consulted for StyleGhost.
func Composite(grid *Grid, selection []int, sources [][]byte, cache *TileCache, style Style, overlayOpacity float64) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, grid.CanvasW, grid.CanvasH))

	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			idx := selection[row*grid.Cols+col]
			var raw []byte
			if idx >= 0 && idx < len(sources) {
				raw = sources[idx]
			}
			tile := cache.Tile(idx, grid.TileSize, raw)
			if style == StyleTinted {
				tile = tintTile(tile, grid.Cell(row, col), grid.TileSize)
			}

			x := col * grid.TileSize
			y := row * grid.TileSize
			rect := image.Rect(x, y, x+grid.TileSize, y+grid.TileSize)
			draw.Draw(canvas, rect, tile, tile.Bounds().Min, draw.Src)
		}
	}

	if style == StyleGhost {
		ghost := blend.Opacity(canvas, grid.Scaled, overlayOpacity)
		return imaging.Clone(ghost)
	}
	return canvas
}

// tintTile blends a tile toward the cell's mean color at tintStrength.
func tintTile(tile image.Image, cell RGB, size int) image.Image {
	swatch := imaging.New(size, size, color.NRGBA{
		R: clampChannel(cell[0]),
		G: clampChannel(cell[1]),
		B: clampChannel(cell[2]),
		A: 255,
	})
	return blend.Opacity(tile, swatch, tintStrength)
}

func clampChannel(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

// EncodePNG encodes the canvas as a lossless PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode mosaic: %w", err)
	}
	return buf.Bytes(), nil
}
