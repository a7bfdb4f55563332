//go:build js && wasm
// +build js,wasm

package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/MeKo-Tech/heightfield/internal/heightmap"
	"github.com/MeKo-Tech/heightfield/internal/raster"
	"github.com/MeKo-Tech/heightfield/internal/tile"
)

// RenderTileRequest represents a tile render request from JS
type RenderTileRequest struct {
	Zoom     int     `json:"zoom"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	TileSize int     `json:"tileSize"`
	Scale    float64 `json:"scale"`
}

type RenderTileResponse struct {
	Key string `json:"key"`
	// PNG holds the encoded tile as base64 for use in a data URL.
	PNG string `json:"png"`
}

// renderTile is called from JavaScript to render a tile in the browser.
// The noise field is pure Go, so no backend is needed.
func renderTile(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return map[string]string{"error": "missing arguments"}
	}

	reqStr := args[0].String()
	var req RenderTileRequest
	if err := json.Unmarshal([]byte(reqStr), &req); err != nil {
		return map[string]string{"error": fmt.Sprintf("failed to parse request: %v", err)}
	}

	if req.TileSize <= 0 {
		req.TileSize = 256
	}

	coords := tile.NewCoords(uint32(req.Zoom), uint32(req.X), uint32(req.Y))
	if !coords.Valid() {
		return map[string]string{"error": fmt.Sprintf("tile %s outside zoom %d grid", coords.String(), req.Zoom)}
	}

	gen, err := heightmap.NewTileGenerator("", heightmap.TileOptions{
		TileSize: req.TileSize,
		Scale:    req.Scale,
	}, nil)
	if err != nil {
		return map[string]string{"error": err.Error()}
	}

	field, err := gen.RenderField(coords)
	if err != nil {
		return map[string]string{"error": err.Error()}
	}

	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf, field.NRGBA(), "speed"); err != nil {
		return map[string]string{"error": err.Error()}
	}

	out, err := json.Marshal(RenderTileResponse{
		Key: coords.String(),
		PNG: base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
	if err != nil {
		return map[string]string{"error": err.Error()}
	}
	return string(out)
}

func initModule(this js.Value, args []js.Value) interface{} {
	fmt.Println("Heightfield WASM module initialized")
	return map[string]string{"status": "ready"}
}

func main() {
	c := make(chan struct{})

	js.Global().Set("heightfieldRenderTile", js.FuncOf(renderTile))
	js.Global().Set("heightfieldInit", js.FuncOf(initModule))

	fmt.Println("Heightfield WASM module loaded")
	<-c
}
