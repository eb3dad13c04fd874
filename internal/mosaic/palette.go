package mosaic

import (
	"bytes"
	"image"
	"math/rand"

	"github.com/disintegration/imaging"
)

// PaletteEntry is the averaged color of one uploaded source image together
// with its stable index into the session's source list.
//
// Index values within a session are unique and strictly increasing across
// the full history of appended batches: AppendPalette re-bases each new
// batch by the current palette length, so an entry's Index always points
// at the matching byte buffer in the session's source list.
type PaletteEntry struct {
	Index int     `json:"index"`
	R     float64 `json:"r"`
	G     float64 `json:"g"`
	B     float64 `json:"b"`
}

// Color returns the entry's mean color as an RGB triple.
func (p PaletteEntry) Color() RGB {
	return RGB{p.R, p.G, p.B}
}

// AnalyzeSources decodes each raw source image and computes its mean color.
//
// Images that fail to decode are skipped silently: they reserve no palette
// index and their bytes are excluded from the returned source list, so the
// Nth palette entry always corresponds to the Nth returned byte slice.
// Returned indices start at zero; callers merging into an existing palette
// re-base them with AppendPalette.
func AnalyzeSources(raws [][]byte) ([]PaletteEntry, [][]byte) {
	palette := make([]PaletteEntry, 0, len(raws))
	kept := make([][]byte, 0, len(raws))

	for _, raw := range raws {
		img, err := imaging.Decode(bytes.NewReader(raw))
		if err != nil {
			continue
		}
		r, g, b := meanColor(img)
		palette = append(palette, PaletteEntry{Index: len(palette), R: r, G: g, B: b})
		kept = append(kept, raw)
	}

	return palette, kept
}

// AppendPalette merges a freshly analyzed batch into an existing palette,
// re-basing the new entries' indices by the current length. The inputs are
// not mutated.
func AppendPalette(existing, fresh []PaletteEntry) []PaletteEntry {
	merged := make([]PaletteEntry, 0, len(existing)+len(fresh))
	merged = append(merged, existing...)
	base := len(existing)
	for i, entry := range fresh {
		entry.Index = base + i
		merged = append(merged, entry)
	}
	return merged
}

// ShufflePalette returns a uniformly permuted copy of the palette. The
// stored session palette is never mutated; shuffling only changes which
// entries the unique matcher treats as "earlier" in its pool.
func ShufflePalette(entries []PaletteEntry, rng *rand.Rand) []PaletteEntry {
	shuffled := make([]PaletteEntry, len(entries))
	copy(shuffled, entries)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// paletteColors extracts the mean colors of a palette in order.
func paletteColors(entries []PaletteEntry) []RGB {
	colors := make([]RGB, len(entries))
	for i, entry := range entries {
		colors[i] = entry.Color()
	}
	return colors
}

// meanColor computes the arithmetic mean of the R, G and B channels over
// all pixels. Alpha and any other channels are discarded.
func meanColor(img image.Image) (r, g, b float64) {
	// Clone normalizes any decoded color model to NRGBA so the mean is a
	// single pass over a packed pixel slice.
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	total := float64(bounds.Dx() * bounds.Dy())
	if total == 0 {
		return 0, 0, 0
	}

	var sumR, sumG, sumB float64
	pix := nrgba.Pix
	for i := 0; i < len(pix); i += 4 {
		sumR += float64(pix[i])
		sumG += float64(pix[i+1])
		sumB += float64(pix[i+2])
	}
	return sumR / total, sumG / total, sumB / total
}
