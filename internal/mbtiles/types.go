// Package mbtiles provides MBTiles format support for reading and writing tile databases.
package mbtiles

import (
	"fmt"
	"strconv"
)

// Metadata contains MBTiles metadata fields. Scale and TileSize are
// heightfield-specific keys: together with the zoom range they fully
// determine every tile's content, so a reader can verify an archive was
// generated with the expected parameters.
type Metadata struct {
	Name        string // Human-readable tileset identifier
	Format      string // Tile data type (png)
	Description string // Human-readable description
	Type        string // "baselayer" or "overlay"
	Version     string // Version string
	MinZoom     int    // Minimum zoom level
	MaxZoom     int    // Maximum zoom level
	Scale       float64
	TileSize    int
}

// ToMap converts Metadata to a map for database insertion.
func (m Metadata) ToMap() map[string]string {
	result := make(map[string]string)

	if m.Name != "" {
		result["name"] = m.Name
	}
	if m.Format != "" {
		result["format"] = m.Format
	}
	if m.MinZoom > 0 {
		result["minzoom"] = fmt.Sprintf("%d", m.MinZoom)
	}
	if m.MaxZoom > 0 {
		result["maxzoom"] = fmt.Sprintf("%d", m.MaxZoom)
	}
	if m.Scale > 0 {
		result["scale"] = strconv.FormatFloat(m.Scale, 'f', -1, 64)
	}
	if m.TileSize > 0 {
		result["tile_size"] = fmt.Sprintf("%d", m.TileSize)
	}
	if m.Description != "" {
		result["description"] = m.Description
	}
	if m.Type != "" {
		result["type"] = m.Type
	}
	if m.Version != "" {
		result["version"] = m.Version
	}

	return result
}
