package heightmap

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/heightfield/internal/raster"
	"github.com/MeKo-Tech/heightfield/internal/tile"
)

// TileWriter receives encoded tiles instead of the filesystem, e.g. an
// MBTiles archive.
type TileWriter interface {
	WriteTile(z, x, y int, pngData []byte) error
}

// TileOptions configures tile pyramid generation.
type TileOptions struct {
	// TileSize is the tile edge length in pixels.
	TileSize int
	// Scale is the noise domain scale; zero means DefaultScale.
	Scale float64
	// BitDepth selects 8-bit RGBA or 16-bit grayscale tiles.
	BitDepth int
	// PNGCompression is one of default, speed, best, none.
	PNGCompression string
	// FolderStructure is "flat" (z{z}_x{x}_y{y}.png) or "nested"
	// ({z}/{x}/{y}.png). Ignored when Writer is set.
	FolderStructure string
	// Writer, when set, receives tiles instead of the output directory.
	Writer TileWriter
}

// TileGenerator renders pyramid tiles of the noise field. Safe for
// concurrent use; each Generate call touches only its own tile.
type TileGenerator struct {
	outputDir string
	opts      TileOptions
	logger    *slog.Logger
}

// NewTileGenerator validates options and prepares a tile generator.
func NewTileGenerator(outputDir string, opts TileOptions, logger *slog.Logger) (*TileGenerator, error) {
	if opts.TileSize <= 0 {
		return nil, fmt.Errorf("tile size must be positive, got %d", opts.TileSize)
	}
	if opts.Scale == 0 {
		opts.Scale = DefaultScale
	}
	if opts.Scale < 0 {
		return nil, fmt.Errorf("scale must be positive, got %v", opts.Scale)
	}
	switch opts.BitDepth {
	case 0:
		opts.BitDepth = 8
	case 8, 16:
	default:
		return nil, fmt.Errorf("bit depth must be 8 or 16, got %d", opts.BitDepth)
	}
	switch opts.FolderStructure {
	case "":
		opts.FolderStructure = "flat"
	case "flat", "nested":
	default:
		return nil, fmt.Errorf("invalid folder structure %q: must be 'flat' or 'nested'", opts.FolderStructure)
	}

	return &TileGenerator{
		outputDir: outputDir,
		opts:      opts,
		logger:    logger,
	}, nil
}

// Generate renders one tile and writes it to the configured sink. Returns
// the tile path for folder output, or the z/x/y string for writer output.
// With force unset, an existing tile file is kept.
func (t *TileGenerator) Generate(ctx context.Context, coords tile.Coords, force bool) (string, error) {
	if !coords.Valid() {
		return "", fmt.Errorf("tile %s outside zoom %d grid", coords.String(), coords.Z)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if t.opts.Writer == nil {
		path := t.tilePath(coords)
		if !force {
			if _, err := os.Stat(path); err == nil {
				t.log().Debug("Tile already exists; skipping", "coords", coords.String(), "path", path)
				return path, nil
			}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("failed to create tile dir: %w", err)
		}

		data, err := t.renderPNG(coords)
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write tile %s: %w", coords.String(), err)
		}
		return path, nil
	}

	data, err := t.renderPNG(coords)
	if err != nil {
		return "", err
	}
	if err := t.opts.Writer.WriteTile(int(coords.Z), int(coords.X), int(coords.Y), data); err != nil {
		return "", fmt.Errorf("failed to store tile %s: %w", coords.String(), err)
	}
	return coords.String(), nil
}

// RenderField evaluates the tile's samples. The tile's pixels are a window
// into the global raster of its zoom level, so the same global pixel gets
// the same value regardless of which tile rendered it.
func (t *TileGenerator) RenderField(coords tile.Coords) (*raster.Field, error) {
	size := t.opts.TileSize
	field, err := raster.NewField(size, size)
	if err != nil {
		return nil, err
	}

	global := size * int(tile.GridSize(coords.Z))
	ox, oy := coords.PixelOrigin(size)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			field.Set(x, y, SampleCell(ox+x, oy+y, global, global, t.opts.Scale))
		}
	}
	return field, nil
}

func (t *TileGenerator) renderPNG(coords tile.Coords) ([]byte, error) {
	field, err := t.RenderField(coords)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if t.opts.BitDepth == 16 {
		err = raster.EncodePNG(&buf, field.Gray16(), t.opts.PNGCompression)
	} else {
		err = raster.EncodePNG(&buf, field.NRGBA(), t.opts.PNGCompression)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode tile %s: %w", coords.String(), err)
	}
	return buf.Bytes(), nil
}

func (t *TileGenerator) tilePath(coords tile.Coords) string {
	if t.opts.FolderStructure == "nested" {
		return filepath.Join(t.outputDir, coords.NestedPath("png"))
	}
	return filepath.Join(t.outputDir, coords.Path("png"))
}

func (t *TileGenerator) log() *slog.Logger {
	if t.logger != nil {
		return t.logger
	}
	return slog.Default()
}
