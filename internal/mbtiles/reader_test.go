package mbtiles

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestReader_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.mbtiles")

	metadata := Metadata{
		Name:     "Roundtrip",
		Format:   "png",
		MinZoom:  1,
		MaxZoom:  3,
		Scale:    5.0,
		TileSize: 128,
		Type:     "baselayer",
		Version:  "1.0",
	}

	w, err := New(dbPath, metadata)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}

	pngData := []byte("png tile payload")
	if err := w.WriteTile(2, 1, 3, pngData); err != nil {
		t.Fatalf("Failed to write tile: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	r, err := OpenReader(dbPath)
	if err != nil {
		t.Fatalf("Failed to open reader: %v", err)
	}
	defer r.Close()

	got, err := r.ReadTile(2, 1, 3)
	if err != nil {
		t.Fatalf("Failed to read tile: %v", err)
	}
	if !bytes.Equal(got, pngData) {
		t.Errorf("Read tile data differs: got %q, want %q", got, pngData)
	}

	meta, err := r.Metadata()
	if err != nil {
		t.Fatalf("Failed to read metadata: %v", err)
	}
	if meta.Name != metadata.Name {
		t.Errorf("Name = %q, want %q", meta.Name, metadata.Name)
	}
	if meta.MinZoom != 1 || meta.MaxZoom != 3 {
		t.Errorf("Zoom range = %d-%d, want 1-3", meta.MinZoom, meta.MaxZoom)
	}
	if meta.Scale != 5.0 {
		t.Errorf("Scale = %v, want 5.0", meta.Scale)
	}
	if meta.TileSize != 128 {
		t.Errorf("TileSize = %d, want 128", meta.TileSize)
	}
}

func TestReader_TileNotFound(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.mbtiles")

	w, err := New(dbPath, Metadata{Name: "Empty", Format: "png"})
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	r, err := OpenReader(dbPath)
	if err != nil {
		t.Fatalf("Failed to open reader: %v", err)
	}
	defer r.Close()

	if _, err := r.ReadTile(0, 0, 0); err == nil {
		t.Error("Expected error for missing tile")
	}
}

func TestOpenReader_MissingFile(t *testing.T) {
	if _, err := OpenReader(filepath.Join(t.TempDir(), "absent.mbtiles")); err == nil {
		t.Error("Expected error opening nonexistent database")
	}
}
