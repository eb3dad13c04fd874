// Package server exposes the mosaic engine over HTTP.
//
// The API mirrors a three-step client flow:
//
//	POST /api/analyze   multipart "files" + optional "session_id"
//	                    -> {session_id, palette, count}
//	POST /api/preview   "session_id", "main_image", "tile_size"
//	                    -> {cols, rows, blocks: [...]}
//	POST /api/generate  "session_id", "main_image", tile/style options
//	                    -> image/png attachment
//
// plus GET /api/health and DELETE /api/session/:id.
//
// Analyze appends to the session palette, re-basing indices so repeated
// uploads accumulate; preview and generate require an existing session.
// Option values are validated here at the boundary (tile_size 5-200,
// style A|B|C, overlay_opacity 0-1) before the engine re-validates them.
//
// # Concurrency
//
// Handlers hold the session's lock while mutating it: analyze while
// appending to the palette, generate for the whole pipeline run because
// the tile cache fills during compositing. Requests for different
// sessions run concurrently; requests for the same session serialize.
//
// # Errors
//
// Handlers return structured errors from internal/errors; middleware
// converts them to JSON responses (400 validation, 404 unknown session,
// 500 processing/internal).
package server
