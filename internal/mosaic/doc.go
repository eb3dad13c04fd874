// Package mosaic implements the photo-mosaic construction engine.
//
// The engine turns a target photograph into a grid of small source images,
// each chosen so that its average color approximates the region of the
// target it replaces. The pipeline is:
//
//  1. AnalyzeSources decodes every uploaded source image and records its
//     mean color as a PaletteEntry.
//  2. SampleCells stretches the target to the next tile-aligned size and
//     computes each cell's mean color in a single pass.
//  3. MatchRepeats / MatchUnique select a palette entry per cell by nearest
//     neighbor in CIE LAB space.
//  4. Composite assembles the output canvas from resized source tiles,
//     optionally tinting them toward the cell color (Style B) or overlaying
//     a translucent ghost of the original target (Style C).
//
// # Color Matching
//
// All matching happens in CIE L*a*b* (D65), a perceptually uniform color
// space where squared Euclidean distance approximates perceived color
// difference. Conversion goes sRGB -> linear RGB -> XYZ -> LAB and is
// exposed as a batch operation (ToLab) so callers convert whole grids and
// palettes at once.
//
// # State
//
// Every operation is a pure function of its inputs with one exception: the
// TileCache memoizes decoded-and-resized source tiles across generate calls.
// Omitting the cache changes performance, never output. The engine performs
// no locking; callers that share a palette or cache between requests must
// serialize access (see internal/session).
//
// # Error Handling
//
// Per-image decode failures never fail a batch: AnalyzeSources skips the
// image, and the TileCache substitutes a flat mid-gray tile. Structural
// problems (empty palette, out-of-range options) are reported as
// ErrInvalidInput; a malformed target image surfaces as a wrapped decode
// error.
package mosaic
