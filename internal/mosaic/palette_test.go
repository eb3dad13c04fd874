package mosaic

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"
)

// solidImage creates an in-memory test image of a single color
func solidImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// pngBytes encodes an image as PNG for use as upload bytes in tests
func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestAnalyzeSources_MeanColors(t *testing.T) {
	raws := [][]byte{
		pngBytes(t, solidImage(8, 8, color.NRGBA{255, 0, 0, 255})),
		pngBytes(t, solidImage(8, 8, color.NRGBA{0, 0, 255, 255})),
	}

	palette, kept := AnalyzeSources(raws)
	if len(palette) != 2 || len(kept) != 2 {
		t.Fatalf("got %d entries / %d kept, want 2 / 2", len(palette), len(kept))
	}

	if palette[0].Index != 0 || palette[1].Index != 1 {
		t.Errorf("indices: got [%d, %d], want [0, 1]", palette[0].Index, palette[1].Index)
	}
	if palette[0].R != 255 || palette[0].G != 0 || palette[0].B != 0 {
		t.Errorf("entry 0: got (%.1f, %.1f, %.1f), want (255, 0, 0)",
			palette[0].R, palette[0].G, palette[0].B)
	}
	if palette[1].B != 255 {
		t.Errorf("entry 1 blue: got %.1f, want 255", palette[1].B)
	}
}

func TestAnalyzeSources_SkipsUndecodable(t *testing.T) {
	good := pngBytes(t, solidImage(4, 4, color.NRGBA{0, 255, 0, 255}))
	raws := [][]byte{
		[]byte("not an image"),
		good,
		{},
		pngBytes(t, solidImage(4, 4, color.NRGBA{255, 255, 255, 255})),
	}

	palette, kept := AnalyzeSources(raws)
	if len(palette) != 2 {
		t.Fatalf("got %d entries, want 2", len(palette))
	}

	// Failed images reserve no index: the surviving entries are 0 and 1,
	// and each points at its own bytes in the returned source list.
	if palette[0].Index != 0 || palette[1].Index != 1 {
		t.Errorf("indices: got [%d, %d], want [0, 1]", palette[0].Index, palette[1].Index)
	}
	if len(kept) != 2 || !bytes.Equal(kept[0], good) {
		t.Errorf("kept sources misaligned with palette indices")
	}
}

func TestAnalyzeSources_AlphaDiscarded(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 10})
		}
	}

	palette, _ := AnalyzeSources([][]byte{pngBytes(t, img)})
	if len(palette) != 1 {
		t.Fatalf("got %d entries, want 1", len(palette))
	}
	// Mean comes from the color channels only; near-transparent pixels
	// count the same as opaque ones.
	if palette[0].R != 200 || palette[0].G != 100 || palette[0].B != 50 {
		t.Errorf("mean: got (%.1f, %.1f, %.1f), want (200, 100, 50)",
			palette[0].R, palette[0].G, palette[0].B)
	}
}

func TestAppendPalette_Rebasing(t *testing.T) {
	first := []PaletteEntry{{Index: 0}, {Index: 1}, {Index: 2}}
	second := []PaletteEntry{{Index: 0, R: 10}, {Index: 1, R: 20}}

	merged := AppendPalette(first, second)
	if len(merged) != 5 {
		t.Fatalf("got %d entries, want 5", len(merged))
	}
	for i, entry := range merged {
		if entry.Index != i {
			t.Errorf("entry %d: Index = %d, want %d", i, entry.Index, i)
		}
	}
	if merged[3].R != 10 || merged[4].R != 20 {
		t.Errorf("appended entries lost their colors")
	}

	// The appended batch itself must be untouched.
	if second[0].Index != 0 || second[1].Index != 1 {
		t.Errorf("AppendPalette mutated its input batch: %+v", second)
	}
}

func TestAppendPalette_EmptyExisting(t *testing.T) {
	fresh := []PaletteEntry{{Index: 0}, {Index: 1}}
	merged := AppendPalette(nil, fresh)
	if len(merged) != 2 || merged[0].Index != 0 || merged[1].Index != 1 {
		t.Errorf("append into empty palette: got %+v", merged)
	}
}

func TestShufflePalette_DoesNotMutate(t *testing.T) {
	original := []PaletteEntry{{Index: 0}, {Index: 1}, {Index: 2}, {Index: 3}, {Index: 4}}
	rng := rand.New(rand.NewSource(1))

	shuffled := ShufflePalette(original, rng)
	if len(shuffled) != len(original) {
		t.Fatalf("length changed: %d", len(shuffled))
	}
	for i, entry := range original {
		if entry.Index != i {
			t.Fatalf("original mutated at %d: %+v", i, entry)
		}
	}

	// Same seed, same permutation.
	again := ShufflePalette(original, rand.New(rand.NewSource(1)))
	for i := range shuffled {
		if shuffled[i].Index != again[i].Index {
			t.Errorf("seeded shuffle not deterministic at %d", i)
		}
	}

	// Every entry survives the permutation.
	seen := make(map[int]bool)
	for _, entry := range shuffled {
		seen[entry.Index] = true
	}
	if len(seen) != len(original) {
		t.Errorf("shuffle dropped or duplicated entries: %v", seen)
	}
}
