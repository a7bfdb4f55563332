package server

import (
	"bytes"
	"image"
	"image/png"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/heightfield/internal/mbtiles"
)

func TestParseTilePath(t *testing.T) {
	t.Run("base tile", func(t *testing.T) {
		coords, ok := parseTilePath("/tiles/z3_x4_y2.png")
		if !ok {
			t.Fatalf("expected ok")
		}
		if coords.String() != "z3_x4_y2" {
			t.Fatalf("unexpected coords: %s", coords.String())
		}
	})

	t.Run("reject non-png", func(t *testing.T) {
		_, ok := parseTilePath("/tiles/z5_x1_y2.jpg")
		if ok {
			t.Fatalf("expected not ok")
		}
	})

	t.Run("reject other prefix", func(t *testing.T) {
		_, ok := parseTilePath("/demo/z5_x1_y2.png")
		if ok {
			t.Fatalf("expected not ok")
		}
	})

	t.Run("reject garbage name", func(t *testing.T) {
		_, ok := parseTilePath("/tiles/notatile.png")
		if ok {
			t.Fatalf("expected not ok")
		}
	})
}

func TestTilesServesPNG(t *testing.T) {
	h, err := NewTiles(TilesConfig{TileSize: 16}, nil)
	if err != nil {
		t.Fatalf("NewTiles: %v", err)
	}

	req := httptest.NewRequest("GET", "/tiles/z1_x0_y1.png", nil)
	rec := httptest.NewRecorder()
	h.Handler()(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("unexpected content type %q", got)
	}
	if rec.Header().Get("Cache-Control") == "" {
		t.Fatalf("expected cache-control header")
	}

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 16 {
		t.Fatalf("unexpected tile size %v", img.Bounds())
	}
}

func TestTilesDeterministic(t *testing.T) {
	h, err := NewTiles(TilesConfig{TileSize: 8}, nil)
	if err != nil {
		t.Fatalf("NewTiles: %v", err)
	}

	fetch := func() []byte {
		req := httptest.NewRequest("GET", "/tiles/z2_x3_y1.png", nil)
		rec := httptest.NewRecorder()
		h.Handler()(rec, req)
		if rec.Code != 200 {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		return rec.Body.Bytes()
	}

	if !bytes.Equal(fetch(), fetch()) {
		t.Fatalf("same tile request produced different bytes")
	}
}

func TestTilesRejectsBadRequests(t *testing.T) {
	h, err := NewTiles(TilesConfig{TileSize: 8, MaxZoom: 4}, nil)
	if err != nil {
		t.Fatalf("NewTiles: %v", err)
	}

	cases := []struct {
		path string
		code int
	}{
		{"/tiles/z1_x5_y0.png", 400}, // x outside zoom-1 grid
		{"/tiles/z9_x0_y0.png", 400}, // beyond max zoom
		{"/tiles/bogus.png", 404},
		{"/other/z1_x0_y0.png", 404},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", tc.path, nil)
		rec := httptest.NewRecorder()
		h.Handler()(rec, req)
		if rec.Code != tc.code {
			t.Errorf("%s: expected %d, got %d", tc.path, tc.code, rec.Code)
		}
	}
}

func TestTiles16Bit(t *testing.T) {
	h, err := NewTiles(TilesConfig{TileSize: 8, BitDepth: 16}, nil)
	if err != nil {
		t.Fatalf("NewTiles: %v", err)
	}

	req := httptest.NewRequest("GET", "/tiles/z0_x0_y0.png", nil)
	rec := httptest.NewRecorder()
	h.Handler()(rec, req)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := img.(*image.Gray16); !ok {
		t.Fatalf("expected 16-bit grayscale, got %T", img)
	}
}

func TestMBTilesHandler(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.mbtiles")
	writer, err := mbtiles.New(dbPath, mbtiles.Metadata{Name: "test", Format: "png", MaxZoom: 1})
	if err != nil {
		t.Fatalf("mbtiles.New: %v", err)
	}
	tileData := []byte("fake png bytes")
	if err := writer.WriteTile(1, 0, 1, tileData); err != nil {
		t.Fatalf("WriteTile: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	h, err := NewMBTilesHandler(MBTilesConfig{MBTilesPath: dbPath, CacheControl: "no-cache"}, nil)
	if err != nil {
		t.Fatalf("NewMBTilesHandler: %v", err)
	}
	defer h.Close()

	req := httptest.NewRequest("GET", "/tiles/z1_x0_y1.png", nil)
	rec := httptest.NewRecorder()
	h.Handler()(rec, req)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), tileData) {
		t.Fatalf("unexpected tile body")
	}

	req = httptest.NewRequest("GET", "/tiles/z1_x1_y1.png", nil)
	rec = httptest.NewRecorder()
	h.Handler()(rec, req)
	if rec.Code != 404 {
		t.Fatalf("expected 404 for missing tile, got %d", rec.Code)
	}
}
