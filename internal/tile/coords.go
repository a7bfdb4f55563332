// Package tile addresses square tiles of the heightfield pyramid.
//
// Zoom level z covers the domain with a 2^z x 2^z grid of tiles. A tile's
// pixels live in the global pixel space of its zoom level, which is a
// (tileSize << z) square raster; the sampling driver maps that raster onto
// the noise domain, so a pixel has the same value no matter which tile
// rendered it.
package tile

import (
	"fmt"
	"path/filepath"
)

// Coords represents a tile coordinate in the pyramid (z/x/y).
type Coords struct {
	Z uint32 // Zoom level
	X uint32 // X coordinate (column)
	Y uint32 // Y coordinate (row)
}

// NewCoords creates a new Coords from zoom, x, y values.
func NewCoords(z, x, y uint32) Coords {
	return Coords{Z: z, X: x, Y: y}
}

// String returns the tile coordinate as a string in format "z{zoom}_x{x}_y{y}"
func (c Coords) String() string {
	return fmt.Sprintf("z%d_x%d_y%d", c.Z, c.X, c.Y)
}

// Path returns the flat file name for this tile.
func (c Coords) Path(extension string) string {
	return fmt.Sprintf("%s.%s", c.String(), extension)
}

// NestedPath returns the {z}/{x}/{y}.ext file path for this tile.
func (c Coords) NestedPath(extension string) string {
	return filepath.Join(
		fmt.Sprintf("%d", c.Z),
		fmt.Sprintf("%d", c.X),
		fmt.Sprintf("%d.%s", c.Y, extension),
	)
}

// Valid reports whether the tile lies inside its zoom level's grid.
func (c Coords) Valid() bool {
	n := GridSize(c.Z)
	return c.X < n && c.Y < n
}

// PixelOrigin returns the tile's top-left corner in the global pixel space
// of its zoom level.
func (c Coords) PixelOrigin(tileSize int) (int, int) {
	return int(c.X) * tileSize, int(c.Y) * tileSize
}

// GridSize returns the number of tiles along one axis at zoom z.
func GridSize(z uint32) uint32 {
	return 1 << z
}

// ParseCoords parses a tile string like "z3_x4_y2" into Coords.
func ParseCoords(s string) (Coords, error) {
	var c Coords
	_, err := fmt.Sscanf(s, "z%d_x%d_y%d", &c.Z, &c.X, &c.Y)
	if err != nil {
		return c, fmt.Errorf("invalid tile coordinate format: %s", s)
	}
	return c, nil
}

// Range enumerates every tile between zoomMin and zoomMax inclusive, in
// zoom-major row order.
func Range(zoomMin, zoomMax int) []Coords {
	if zoomMin < 0 || zoomMax < zoomMin {
		return nil
	}

	var tiles []Coords
	for z := zoomMin; z <= zoomMax; z++ {
		n := GridSize(uint32(z))
		for y := uint32(0); y < n; y++ {
			for x := uint32(0); x < n; x++ {
				tiles = append(tiles, NewCoords(uint32(z), x, y))
			}
		}
	}
	return tiles
}

// Count returns the total number of tiles between zoomMin and zoomMax
// inclusive without materializing them.
func Count(zoomMin, zoomMax int) int {
	if zoomMin < 0 || zoomMax < zoomMin {
		return 0
	}
	total := 0
	for z := zoomMin; z <= zoomMax; z++ {
		n := int(GridSize(uint32(z)))
		total += n * n
	}
	return total
}
