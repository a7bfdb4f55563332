// Package server serves heightfield tiles over HTTP, either rendered on
// demand or read from a pre-generated MBTiles archive.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/MeKo-Tech/heightfield/internal/heightmap"
	"github.com/MeKo-Tech/heightfield/internal/tile"
)

// TilesConfig configures the on-demand tile handler.
type TilesConfig struct {
	TileSize       int
	Scale          float64
	BitDepth       int
	PNGCompression string
	CacheControl   string
	MaxZoom        int // requests beyond this zoom are rejected; 0 means no limit
}

// Tiles renders tiles on request. Tiles are deterministic and cheap, so
// there is no generation queue or disk cache; the Cache-Control header
// delegates caching to clients and proxies.
type Tiles struct {
	cfg    TilesConfig
	logger *slog.Logger
}

// memoryTileSink captures a single rendered tile for the response.
// TileGenerator delivers through the TileWriter interface; one sink is
// created per request, so no locking is needed.
type memoryTileSink struct {
	data []byte
}

func (s *memoryTileSink) WriteTile(z, x, y int, pngData []byte) error {
	s.data = pngData
	return nil
}

// NewTiles creates an on-demand tile handler.
func NewTiles(cfg TilesConfig, logger *slog.Logger) (*Tiles, error) {
	if cfg.TileSize <= 0 {
		return nil, fmt.Errorf("tile size must be positive, got %d", cfg.TileSize)
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "public, max-age=86400"
	}
	return &Tiles{cfg: cfg, logger: logger}, nil
}

// Handler returns the HTTP handler function.
func (h *Tiles) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serveTile(w, r)
	}
}

func (h *Tiles) serveTile(w http.ResponseWriter, r *http.Request) {
	coords, ok := parseTilePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if !coords.Valid() {
		http.Error(w, "Tile outside grid", http.StatusBadRequest)
		return
	}
	if h.cfg.MaxZoom > 0 && int(coords.Z) > h.cfg.MaxZoom {
		http.Error(w, "Zoom level too deep", http.StatusBadRequest)
		return
	}

	sink := &memoryTileSink{}
	gen, err := heightmap.NewTileGenerator("", heightmap.TileOptions{
		TileSize:       h.cfg.TileSize,
		Scale:          h.cfg.Scale,
		BitDepth:       h.cfg.BitDepth,
		PNGCompression: h.cfg.PNGCompression,
		Writer:         sink,
	}, h.logger)
	if err != nil {
		h.log().Error("Failed to create tile generator", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	if _, err := gen.Generate(r.Context(), coords, true); err != nil {
		h.log().Error("Failed to render tile", "coords", coords.String(), "error", err)
		http.Error(w, "Failed to render tile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", h.cfg.CacheControl)
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(sink.data); err != nil {
		h.log().Error("Failed to write response", "error", err)
	}
}

func (h *Tiles) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

// parseTilePath parses a tile path like /tiles/z3_x4_y2.png
// Returns tile coordinates and a success flag.
func parseTilePath(requestPath string) (tile.Coords, bool) {
	if !strings.HasPrefix(requestPath, "/tiles/") {
		return tile.Coords{}, false
	}

	base := path.Base(requestPath)
	if !strings.HasSuffix(base, ".png") {
		return tile.Coords{}, false
	}

	name := strings.TrimSuffix(base, ".png")
	coords, err := tile.ParseCoords(name)
	if err != nil {
		return tile.Coords{}, false
	}

	return coords, true
}
