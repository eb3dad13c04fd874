package mosaic

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/disintegration/imaging"
)

// ErrInvalidInput marks failures caused by the caller's inputs: an empty
// palette or source list, or option values outside their documented ranges.
// The HTTP layer maps it to a 400 response.
var ErrInvalidInput = errors.New("invalid input")

// Tile size bounds accepted by the engine, in pixels.
const (
	MinTileSize = 5
	MaxTileSize = 200
)

// Options is the configuration bundle for one generate call.
type Options struct {
	// TileSize is the cell edge length in pixels, MinTileSize..MaxTileSize.
	TileSize int
	// Style selects the blend style (A, B or C).
	Style Style
	// AllowRepeats permits reusing a source for multiple cells. When false
	// the unique matcher runs instead.
	AllowRepeats bool
	// OverlayOpacity is the Style C ghost alpha in [0,1].
	OverlayOpacity float64
	// ShuffleSources permutes the palette before matching, varying which
	// entries the unique matcher treats as earlier on exact color ties.
	ShuffleSources bool
	// FitToA4 scales and center-crops the target to A4 @ 300 DPI first.
	FitToA4 bool
	// Rand is the shuffle randomness source. Nil means a time-seeded one;
	// tests inject a fixed seed for determinism.
	Rand *rand.Rand
}

// Validate re-checks option ranges. The HTTP boundary rejects bad values
// first, but the engine does not trust it.
func (o Options) Validate() error {
	if o.TileSize < MinTileSize || o.TileSize > MaxTileSize {
		return fmt.Errorf("%w: tile size %d outside %d-%d", ErrInvalidInput, o.TileSize, MinTileSize, MaxTileSize)
	}
	if _, err := ParseStyle(string(o.Style)); err != nil {
		return err
	}
	if o.OverlayOpacity < 0 || o.OverlayOpacity > 1 {
		return fmt.Errorf("%w: overlay opacity %.2f outside 0-1", ErrInvalidInput, o.OverlayOpacity)
	}
	return nil
}

// PreviewBlock is one cell of the lightweight preview: grid position, the
// cell's mean color, and the mean color of its matched source.
type PreviewBlock struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	CellR int `json:"cellR"`
	CellG int `json:"cellG"`
	CellB int `json:"cellB"`
	SrcR  int `json:"srcR"`
	SrcG  int `json:"srcG"`
	SrcB  int `json:"srcB"`
}

// Preview describes the mosaic as colored blocks for client-side rendering.
type Preview struct {
	Cols   int            `json:"cols"`
	Rows   int            `json:"rows"`
	Blocks []PreviewBlock `json:"blocks"`
}

// GeneratePreview runs cell sampling and repeats-allowed matching only:
// no tile cache, no compositing, color data instead of pixels.
func GeneratePreview(target []byte, palette []PaletteEntry, tileSize int) (*Preview, error) {
	if len(palette) == 0 {
		return nil, fmt.Errorf("%w: empty palette", ErrInvalidInput)
	}
	if tileSize < MinTileSize || tileSize > MaxTileSize {
		return nil, fmt.Errorf("%w: tile size %d outside %d-%d", ErrInvalidInput, tileSize, MinTileSize, MaxTileSize)
	}

	img, err := imaging.Decode(bytes.NewReader(target))
	if err != nil {
		return nil, fmt.Errorf("failed to decode target image: %w", err)
	}

	grid := SampleCells(img, tileSize)
	selection := MatchRepeats(grid.CellColors, paletteColors(palette))

	blocks := make([]PreviewBlock, 0, len(selection))
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			cell := grid.Cell(row, col)
			matched := palette[selection[row*grid.Cols+col]]
			blocks = append(blocks, PreviewBlock{
				X:     col,
				Y:     row,
				CellR: int(cell[0]),
				CellG: int(cell[1]),
				CellB: int(cell[2]),
				SrcR:  int(matched.R),
				SrcG:  int(matched.G),
				SrcB:  int(matched.B),
			})
		}
	}

	return &Preview{Cols: grid.Cols, Rows: grid.Rows, Blocks: blocks}, nil
}

// Generate runs the full pipeline and returns the encoded mosaic PNG.
//
// cache carries resized tiles across calls for the same session; passing
// nil simply disables reuse. The palette must line up with sources: entry
// Index values address the sources slice.
func Generate(target []byte, sources [][]byte, palette []PaletteEntry, opts Options, cache *TileCache) ([]byte, error) {
	if len(palette) == 0 || len(sources) == 0 {
		return nil, fmt.Errorf("%w: no source images / palette provided", ErrInvalidInput)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if cache == nil {
		cache = NewTileCache()
	}

	img, err := imaging.Decode(bytes.NewReader(target))
	if err != nil {
		return nil, fmt.Errorf("failed to decode target image: %w", err)
	}

	prepared := imaging.Clone(img)
	if opts.FitToA4 {
		prepared = FitToA4(prepared)
	}
	grid := SampleCells(prepared, opts.TileSize)

	working := palette
	if opts.ShuffleSources {
		rng := opts.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		working = ShufflePalette(palette, rng)
	}

	colors := paletteColors(working)
	var positions []int
	if opts.AllowRepeats {
		positions = MatchRepeats(grid.CellColors, colors)
	} else {
		positions = MatchUnique(grid.CellColors, colors)
	}

	// Positions address the working (possibly shuffled) palette; map them
	// back to stable source indices before compositing.
	selection := make([]int, len(positions))
	for i, pos := range positions {
		selection[i] = working[pos].Index
	}

	canvas := Composite(grid, selection, sources, cache, opts.Style, opts.OverlayOpacity)
	return EncodePNG(canvas)
}
