package mbtiles

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriter_New(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.mbtiles")

	metadata := Metadata{
		Name:        "Test Heightfield",
		Format:      "png",
		MinZoom:     1,
		MaxZoom:     4,
		Scale:       5.0,
		TileSize:    256,
		Description: "Test description",
		Type:        "baselayer",
		Version:     "1.0",
	}

	w, err := New(dbPath, metadata)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer w.Close()

	// Verify database file exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("Database file was not created")
	}

	// Verify schema exists
	var count int
	err = w.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='tiles'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query schema: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected tiles table to exist, got count=%d", count)
	}

	// Verify metadata was inserted
	err = w.db.QueryRow("SELECT COUNT(*) FROM metadata").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query metadata: %v", err)
	}
	if count == 0 {
		t.Error("Expected metadata to be inserted")
	}
}

func TestWriter_WriteTile(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.mbtiles")

	w, err := New(dbPath, Metadata{Name: "Test", Format: "png"})
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer w.Close()

	pngData := []byte("fake png data")

	if err := w.WriteTile(3, 4, 2, pngData); err != nil {
		t.Fatalf("Failed to write tile: %v", err)
	}

	// Tile is buffered, not yet visible
	var count int
	if err := w.db.QueryRow("SELECT COUNT(*) FROM tiles").Scan(&count); err != nil {
		t.Fatalf("Failed to count tiles: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 tiles before flush, got %d", count)
	}

	if err := w.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}

	if err := w.db.QueryRow("SELECT COUNT(*) FROM tiles").Scan(&count); err != nil {
		t.Fatalf("Failed to count tiles: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 tile after flush, got %d", count)
	}

	// Verify TMS row conversion: y=2 at z=3 stores as row 5
	var row int
	if err := w.db.QueryRow("SELECT tile_row FROM tiles WHERE zoom_level=3 AND tile_column=4").Scan(&row); err != nil {
		t.Fatalf("Failed to read tile row: %v", err)
	}
	if row != 5 {
		t.Errorf("Expected TMS row 5, got %d", row)
	}
}

func TestWriter_BatchFlush(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.mbtiles")

	w, err := New(dbPath, Metadata{Name: "Test", Format: "png"})
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer w.Close()

	// Writing a full batch triggers an automatic flush
	for i := 0; i < DefaultBatchSize; i++ {
		if err := w.WriteTile(8, i, 0, []byte("data")); err != nil {
			t.Fatalf("Failed to write tile %d: %v", i, err)
		}
	}

	var count int
	if err := w.db.QueryRow("SELECT COUNT(*) FROM tiles").Scan(&count); err != nil {
		t.Fatalf("Failed to count tiles: %v", err)
	}
	if count != DefaultBatchSize {
		t.Errorf("Expected %d tiles after automatic flush, got %d", DefaultBatchSize, count)
	}
}
