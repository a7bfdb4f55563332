package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/MeKo-Tech/heightfield/internal/heightmap"
	"github.com/MeKo-Tech/heightfield/internal/mbtiles"
	"github.com/MeKo-Tech/heightfield/internal/tile"
	"github.com/MeKo-Tech/heightfield/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "Generate a tile pyramid",
	Long: `Generate heightmap tiles for a range of zoom levels.

Each zoom level z is a 2^z by 2^z grid covering the full noise domain, and
every tile is rendered independently, so the pyramid parallelizes across
workers and can be resumed or extended later.`,
	RunE: runTiles,
}

func init() {
	rootCmd.AddCommand(tilesCmd)

	tilesCmd.Flags().Int("zoom-min", 0, "Minimum zoom level")
	tilesCmd.Flags().Int("zoom-max", 3, "Maximum zoom level")
	tilesCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	tilesCmd.Flags().Bool("progress", true, "Show progress bar during generation")
	tilesCmd.Flags().Bool("allow-failures", false, "Continue generation even if some tiles fail")
	tilesCmd.Flags().Bool("force", false, "Force regeneration even if tile exists")

	tilesCmd.Flags().Int("tile-size", 256, "Tile size in pixels")
	tilesCmd.Flags().Float64("scale", heightmap.DefaultScale, "Noise domain scale")
	tilesCmd.Flags().Int("bit-depth", 8, "Tile bit depth: 8 (RGBA) or 16 (grayscale)")
	tilesCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")

	tilesCmd.Flags().String("format", "folder", "Output format: folder or mbtiles")
	tilesCmd.Flags().String("output-file", "", "Output file path for MBTiles format (e.g., tiles.mbtiles)")
	tilesCmd.Flags().String("folder-structure", "flat", "Folder structure for folder format: flat (z{z}_x{x}_y{y}.png) or nested ({z}/{x}/{y}.png)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"tiles.zoom_min", "zoom-min"},
		{"tiles.zoom_max", "zoom-max"},
		{"tiles.workers", "workers"},
		{"tiles.progress", "progress"},
		{"tiles.allow_failures", "allow-failures"},
		{"tiles.force", "force"},
		{"tiles.tile_size", "tile-size"},
		{"tiles.scale", "scale"},
		{"tiles.bit_depth", "bit-depth"},
		{"tiles.png_compression", "png-compression"},
		{"tiles.format", "format"},
		{"tiles.output_file", "output-file"},
		{"tiles.folder_structure", "folder-structure"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, tilesCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runTiles(cmd *cobra.Command, args []string) error {
	zoomMin := viper.GetInt("tiles.zoom_min")
	zoomMax := viper.GetInt("tiles.zoom_max")
	workers := viper.GetInt("tiles.workers")
	showProgress := viper.GetBool("tiles.progress")
	allowFailures := viper.GetBool("tiles.allow_failures")
	force := viper.GetBool("tiles.force")
	outputDir := viper.GetString("output-dir")
	tileSize := viper.GetInt("tiles.tile_size")
	scale := viper.GetFloat64("tiles.scale")
	bitDepth := viper.GetInt("tiles.bit_depth")
	pngCompression := viper.GetString("tiles.png_compression")
	format := viper.GetString("tiles.format")
	outputFile := viper.GetString("tiles.output_file")
	folderStructure := viper.GetString("tiles.folder_structure")

	if logger == nil {
		initLogging()
	}

	if format != "folder" && format != "mbtiles" {
		return fmt.Errorf("invalid format %q: must be 'folder' or 'mbtiles'", format)
	}
	if format == "mbtiles" && outputFile == "" {
		return fmt.Errorf("--output-file is required when using --format=mbtiles")
	}
	if zoomMin < 0 || zoomMax < 0 {
		return fmt.Errorf("zoom levels must be non-negative")
	}
	if zoomMin > zoomMax {
		return fmt.Errorf("--zoom-min (%d) must be <= --zoom-max (%d)", zoomMin, zoomMax)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	tiles := tile.Range(zoomMin, zoomMax)

	logger.Info("Starting tile generation",
		"zoom_range", fmt.Sprintf("%d-%d", zoomMin, zoomMax),
		"tiles", len(tiles),
		"workers", workers,
		"tile_size", tileSize,
		"output_dir", outputDir,
		"format", format,
	)

	var mbtilesWriter *mbtiles.Writer
	if format == "mbtiles" {
		metadata := mbtiles.Metadata{
			Name:        "Heightfield",
			Format:      "png",
			Description: "Fractal simplex noise heightmap tiles",
			Type:        "baselayer",
			Version:     "1.0",
			MinZoom:     zoomMin,
			MaxZoom:     zoomMax,
			Scale:       scale,
			TileSize:    tileSize,
		}

		var err error
		mbtilesWriter, err = mbtiles.New(outputFile, metadata)
		if err != nil {
			return fmt.Errorf("failed to create MBTiles writer: %w", err)
		}
		defer mbtilesWriter.Close()

		logger.Info("MBTiles writer created", "path", outputFile)
	}

	var tileWriter heightmap.TileWriter
	if mbtilesWriter != nil {
		tileWriter = mbtilesWriter
	}

	gen, err := heightmap.NewTileGenerator(outputDir, heightmap.TileOptions{
		TileSize:        tileSize,
		Scale:           scale,
		BitDepth:        bitDepth,
		PNGCompression:  pngCompression,
		FolderStructure: folderStructure,
		Writer:          tileWriter,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to init tile generator: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received interrupt signal, cancelling...")
		cancel()
	}()

	tasks := make([]worker.Task, 0, len(tiles))
	for _, coords := range tiles {
		tasks = append(tasks, worker.Task{
			Coords: coords,
			Force:  force,
		})
	}

	progress := worker.NewProgress(len(tasks), showProgress)

	pool := worker.New(worker.Config{
		Workers:    workers,
		Generator:  gen,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	var failedCount int
	for _, r := range results {
		if r.Err != nil {
			failedCount++
			logger.Error("Tile generation failed", "coords", r.Task.Coords.String(), "error", r.Err)
		}
	}

	logger.Info(progress.Summary())

	if failedCount > 0 {
		if allowFailures {
			logger.Warn("Some tiles failed to generate, but continuing due to --allow-failures flag", "failed_count", failedCount)
		} else {
			return fmt.Errorf("%d tiles failed to generate", failedCount)
		}
	}

	if mbtilesWriter != nil {
		logger.Info("Flushing MBTiles database...")
		if err := mbtilesWriter.Flush(); err != nil {
			return fmt.Errorf("failed to flush MBTiles: %w", err)
		}
		logger.Info("MBTiles generation complete", "path", outputFile)
	}

	return nil
}
