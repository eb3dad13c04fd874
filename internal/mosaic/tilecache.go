package mosaic

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/disintegration/imaging"
)

// tileKey identifies one cached tile: the same source may be requested at
// different tile sizes across preview/generate calls.
type tileKey struct {
	index int
	size  int
}

// TileCache memoizes decoded-and-resized source tiles across generate calls.
//
// The cache is scoped to one session and unbounded within it; entries are
// dropped only when the owning session is evicted. A cache hit returns the
// stored tile without re-decoding or re-resizing. Callers must not mutate
// returned images.
//
// TileCache is safe for concurrent use, though in practice the session
// layer serializes generate calls for a session anyway.
type TileCache struct {
	mu     sync.RWMutex
	tiles  map[tileKey]image.Image
	decode func(io.Reader) (image.Image, error)
}

// NewTileCache creates an empty tile cache.
func NewTileCache() *TileCache {
	return &TileCache{
		tiles: make(map[tileKey]image.Image),
		decode: func(r io.Reader) (image.Image, error) {
			return imaging.Decode(r)
		},
	}
}

// Tile returns the source at index resized to a size x size square.
//
// On a miss the raw bytes are decoded and resized with Lanczos resampling.
// If decoding fails, a flat mid-gray placeholder of the requested size is
// cached and returned instead: one bad source image must not fail the whole
// mosaic.
func (c *TileCache) Tile(index, size int, raw []byte) image.Image {
	key := tileKey{index: index, size: size}

	c.mu.RLock()
	if tile, ok := c.tiles[key]; ok {
		c.mu.RUnlock()
		return tile
	}
	c.mu.RUnlock()

	var tile image.Image
	img, err := c.decode(bytes.NewReader(raw))
	if err != nil {
		tile = imaging.New(size, size, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	} else {
		tile = imaging.Resize(img, size, size, imaging.Lanczos)
	}

	c.mu.Lock()
	c.tiles[key] = tile
	c.mu.Unlock()

	return tile
}

// Len returns the number of cached tiles.
func (c *TileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tiles)
}
