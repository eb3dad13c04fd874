package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/tilewright/mosaic/internal/errors"
	"github.com/tilewright/mosaic/internal/mosaic"
	"github.com/tilewright/mosaic/internal/platform/logging"
	"github.com/tilewright/mosaic/internal/session"
)

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(200, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	})
}

// handleAnalyze ingests uploaded source images, computes their mean colors
// and appends them to the session palette. A missing session_id mints a
// fresh session.
func (s *Server) handleAnalyze(c echo.Context) error {
	sessionID := c.FormValue("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.ValidationError("invalid multipart form").WithField("cause", err.Error())
	}
	files := form.File["files"]
	if len(files) == 0 {
		return apperrors.ValidationError("no files uploaded")
	}

	raws, err := readUploads(files)
	if err != nil {
		return apperrors.InternalError("failed to read uploaded files", err)
	}

	batch, kept := mosaic.AnalyzeSources(raws)

	sess := s.sessions.GetOrCreate(sessionID)
	sess.Lock()
	sess.Palette = mosaic.AppendPalette(sess.Palette, batch)
	sess.Sources = append(sess.Sources, kept...)
	palette := sess.Palette
	sess.Unlock()

	slog.Info("Analyzed source images",
		"session_id", sessionID,
		"uploaded", len(files),
		"decoded", len(batch),
		"palette_size", len(palette),
	)

	return c.JSON(200, map[string]any{
		"session_id": sessionID,
		"palette":    palette,
		"count":      len(palette),
	})
}

// handlePreview returns the block-grid description of the mosaic: cell
// colors and matched source colors, no pixels.
func (s *Server) handlePreview(c echo.Context) error {
	sess, err := s.requireSession(c)
	if err != nil {
		return err
	}

	tileSize, err := formInt(c, "tile_size", 40)
	if err != nil {
		return err
	}
	if err := validateTileSize(tileSize); err != nil {
		return err
	}

	target, err := readUploadedFile(c, "main_image")
	if err != nil {
		return err
	}

	sess.Lock()
	palette := sess.Palette
	sess.Unlock()
	if len(palette) == 0 {
		return apperrors.ValidationError("no palette data").WithField("session_id", sess.ID)
	}

	preview, err := mosaic.GeneratePreview(target, palette, tileSize)
	if err != nil {
		return mapEngineError(err, sess.ID)
	}
	return c.JSON(200, preview)
}

// handleGenerate runs the full pipeline and streams back the mosaic PNG.
func (s *Server) handleGenerate(c echo.Context) error {
	sess, err := s.requireSession(c)
	if err != nil {
		return err
	}

	tileSize, err := formInt(c, "tile_size", 40)
	if err != nil {
		return err
	}
	if err := validateTileSize(tileSize); err != nil {
		return err
	}

	style, err := mosaic.ParseStyle(formString(c, "style", "A"))
	if err != nil {
		return apperrors.ValidationError("style must be A, B, or C").
			WithField("style", c.FormValue("style"))
	}

	overlayOpacity, err := formFloat(c, "overlay_opacity", 0.25)
	if err != nil {
		return err
	}
	if overlayOpacity < 0 || overlayOpacity > 1 {
		return apperrors.ValidationError("overlay_opacity must be between 0 and 1").
			WithField("overlay_opacity", overlayOpacity)
	}

	allowRepeats, err := formBool(c, "allow_repeats", true)
	if err != nil {
		return err
	}
	shuffleSources, err := formBool(c, "shuffle_sources", false)
	if err != nil {
		return err
	}
	fitToA4, err := formBool(c, "a4_output", false)
	if err != nil {
		return err
	}

	target, err := readUploadedFile(c, "main_image")
	if err != nil {
		return err
	}

	opts := mosaic.Options{
		TileSize:       tileSize,
		Style:          style,
		AllowRepeats:   allowRepeats,
		OverlayOpacity: overlayOpacity,
		ShuffleSources: shuffleSources,
		FitToA4:        fitToA4,
	}

	// Hold the session lock across generation: the tile cache mutates and
	// a concurrent analyze for the same session must not interleave.
	sess.Lock()
	defer sess.Unlock()

	if len(sess.Palette) == 0 {
		return apperrors.ValidationError("no source images / palette. Upload sources first.").
			WithField("session_id", sess.ID)
	}

	started := time.Now()
	data, err := mosaic.Generate(target, sess.Sources, sess.Palette, opts, sess.Tiles)
	if err != nil {
		return mapEngineError(err, sess.ID)
	}

	logging.WithSession(sess.ID).Info("Generated mosaic",
		"tile_size", tileSize,
		"style", string(style),
		"bytes", len(data),
		"duration", time.Since(started),
	)

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="mosaic.png"`)
	return c.Blob(200, "image/png", data)
}

func (s *Server) handleDeleteSession(c echo.Context) error {
	id := c.Param("id")
	if !s.sessions.Evict(id) {
		return apperrors.NotFoundError("session not found").WithField("session_id", id)
	}
	slog.Info("Evicted session", "session_id", id)
	return c.JSON(200, map[string]string{"status": "ok"})
}

// requireSession resolves the session_id form field to a live session.
func (s *Server) requireSession(c echo.Context) (*session.Session, error) {
	id := c.FormValue("session_id")
	if id == "" {
		return nil, apperrors.ValidationError("session_id is required")
	}
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, apperrors.NotFoundError("session not found. Upload sources first.").
			WithField("session_id", id)
	}
	return sess, nil
}

// mapEngineError converts engine failures into structured errors: bad
// inputs become 400s, anything else is a processing failure.
func mapEngineError(err error, sessionID string) error {
	if errors.Is(err, mosaic.ErrInvalidInput) {
		return apperrors.ValidationError(err.Error()).WithField("session_id", sessionID)
	}
	return apperrors.ProcessingError("mosaic generation failed", err).
		WithField("session_id", sessionID)
}

func validateTileSize(tileSize int) error {
	if tileSize < mosaic.MinTileSize || tileSize > mosaic.MaxTileSize {
		return apperrors.ValidationError(
			fmt.Sprintf("tile_size must be between %d and %d", mosaic.MinTileSize, mosaic.MaxTileSize)).
			WithField("tile_size", tileSize)
	}
	return nil
}

// readUploadedFile reads one named multipart file into memory.
func readUploadedFile(c echo.Context, name string) ([]byte, error) {
	fh, err := c.FormFile(name)
	if err != nil {
		return nil, apperrors.ValidationError(fmt.Sprintf("%s file is required", name))
	}
	data, err := readUpload(fh)
	if err != nil {
		return nil, apperrors.InternalError(fmt.Sprintf("failed to read %s", name), err)
	}
	return data, nil
}

func readUploads(files []*multipart.FileHeader) ([][]byte, error) {
	raws := make([][]byte, 0, len(files))
	for _, fh := range files {
		data, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		raws = append(raws, data)
	}
	return raws, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %q: %w", fh.Filename, err)
	}
	return data, nil
}

func formString(c echo.Context, name, fallback string) string {
	if v := c.FormValue(name); v != "" {
		return v
	}
	return fallback
}

func formInt(c echo.Context, name string, fallback int) (int, error) {
	v := c.FormValue(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.ValidationError(fmt.Sprintf("%s must be an integer", name)).
			WithField(name, v)
	}
	return n, nil
}

func formFloat(c echo.Context, name string, fallback float64) (float64, error) {
	v := c.FormValue(name)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, apperrors.ValidationError(fmt.Sprintf("%s must be a number", name)).
			WithField(name, v)
	}
	return f, nil
}

func formBool(c echo.Context, name string, fallback bool) (bool, error) {
	v := c.FormValue(name)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperrors.ValidationError(fmt.Sprintf("%s must be a boolean", name)).
			WithField(name, v)
	}
	return b, nil
}
