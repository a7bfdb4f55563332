package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/MeKo-Tech/heightfield/internal/heightmap"
	"github.com/MeKo-Tech/heightfield/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve heightmap tiles over HTTP",
	Long: `Serve tiles at /tiles/z{z}_x{x}_y{y}.png.

By default tiles are rendered on demand; with --mbtiles they are read
from a pre-generated archive instead.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("mbtiles", "", "Serve tiles from this MBTiles archive instead of rendering on demand")
	serveCmd.Flags().String("cache-control", "public, max-age=86400", "Cache-Control header for served tiles")

	serveCmd.Flags().Int("tile-size", 256, "Tile size in pixels for on-demand rendering")
	serveCmd.Flags().Float64("scale", heightmap.DefaultScale, "Noise domain scale for on-demand rendering")
	serveCmd.Flags().Int("bit-depth", 8, "Tile bit depth for on-demand rendering: 8 or 16")
	serveCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	serveCmd.Flags().Int("max-zoom", 16, "Maximum zoom level served on demand (0 disables the limit)")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.mbtiles", "mbtiles")
	mustBind("serve.cache_control", "cache-control")
	mustBind("serve.tile_size", "tile-size")
	mustBind("serve.scale", "scale")
	mustBind("serve.bit_depth", "bit-depth")
	mustBind("serve.png_compression", "png-compression")
	mustBind("serve.max_zoom", "max-zoom")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	mbtilesPath := viper.GetString("serve.mbtiles")
	cacheControl := viper.GetString("serve.cache_control")
	tileSize := viper.GetInt("serve.tile_size")
	scale := viper.GetFloat64("serve.scale")
	bitDepth := viper.GetInt("serve.bit_depth")
	pngCompression := viper.GetString("serve.png_compression")
	maxZoom := viper.GetInt("serve.max_zoom")

	var tileHandler http.HandlerFunc
	if mbtilesPath != "" {
		h, err := server.NewMBTilesHandler(server.MBTilesConfig{
			MBTilesPath:  mbtilesPath,
			CacheControl: cacheControl,
		}, logger)
		if err != nil {
			return err
		}
		defer h.Close()
		tileHandler = h.Handler()
	} else {
		h, err := server.NewTiles(server.TilesConfig{
			TileSize:       tileSize,
			Scale:          scale,
			BitDepth:       bitDepth,
			PNGCompression: pngCompression,
			CacheControl:   cacheControl,
			MaxZoom:        maxZoom,
		}, logger)
		if err != nil {
			return err
		}
		tileHandler = h.Handler()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/tiles/", withCORS(tileHandler))

	logger.Info("tile server listening",
		"addr", addr,
		"mbtiles", mbtilesPath,
		"tile_size", tileSize,
		"scale", scale,
	)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return srv.ListenAndServe()
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
