// Package heightmap maps output rasters onto the noise domain and drives
// the per-cell evaluation, in parallel bands for single images and per tile
// for pyramid generation.
package heightmap

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sync"

	"github.com/disintegration/gift"
	"golang.org/x/image/draw"

	"github.com/MeKo-Tech/heightfield/internal/noise"
	"github.com/MeKo-Tech/heightfield/internal/raster"
)

// DefaultScale is the domain scale of the noise field: the raster's unit
// square covers scale x scale noise-domain units, which sets the feature
// frequency of the terrain.
const DefaultScale = 5.0

// DefaultBandHeight is the number of rows a single parallel render task
// covers.
const DefaultBandHeight = 32

// Options configures a Generator beyond its raster dimensions.
type Options struct {
	// Scale is the noise domain scale; zero means DefaultScale.
	Scale float64
	// Supersample renders at an N-fold resolution and downscales with a
	// Catmull-Rom kernel. Values below 2 disable it.
	Supersample int
	// BlurSigma applies a Gaussian blur to the final image when positive.
	BlurSigma float64
	// BandHeight is the number of rows per parallel render task; zero means
	// DefaultBandHeight.
	BandHeight int
}

// Generator renders the fractal noise field into rasters of a fixed size.
type Generator struct {
	width  int
	height int
	opts   Options
	logger *slog.Logger
}

// New validates dimensions and prepares a generator. The raster dimensions
// must be positive; the core evaluation has no error conditions of its own.
func New(width, height int, opts Options, logger *slog.Logger) (*Generator, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster dimensions must be positive, got %dx%d", width, height)
	}
	if opts.Scale == 0 {
		opts.Scale = DefaultScale
	}
	if opts.Scale < 0 {
		return nil, fmt.Errorf("scale must be positive, got %v", opts.Scale)
	}
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}
	if opts.BlurSigma < 0 {
		return nil, fmt.Errorf("blur sigma must be non-negative, got %v", opts.BlurSigma)
	}
	if opts.BandHeight < 0 {
		return nil, fmt.Errorf("band height must be non-negative, got %d", opts.BandHeight)
	}
	if opts.BandHeight == 0 {
		opts.BandHeight = DefaultBandHeight
	}

	return &Generator{
		width:  width,
		height: height,
		opts:   opts,
		logger: logger,
	}, nil
}

// SampleCell evaluates the height of cell (x, y) on a width x height raster.
// The cell is normalized into the unit square, corrected for the raster's
// aspect ratio so features stay square, scaled into the noise domain, and
// run through the fractal accumulator.
func SampleCell(x, y, width, height int, scale float64) float64 {
	u := float64(x) / float64(width) * (float64(width) / float64(height)) * scale
	v := float64(y) / float64(height) * scale
	return noise.Fractal(u, v)
}

// SampleAt evaluates the height of cell (x, y) on this generator's base
// raster.
func (g *Generator) SampleAt(x, y int) float64 {
	return SampleCell(x, y, g.width, g.height, g.opts.Scale)
}

// Render evaluates every cell of the (possibly supersampled) raster using
// the given number of parallel workers. Every cell is independent, so
// workers split the raster into disjoint horizontal bands and write without
// synchronization; ctx cancellation is checked between bands.
func (g *Generator) Render(ctx context.Context, workers int) (*raster.Field, error) {
	w := g.width * g.opts.Supersample
	h := g.height * g.opts.Supersample

	field, err := raster.NewField(w, h)
	if err != nil {
		return nil, err
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g.log().Debug("rendering raster", "width", w, "height", h, "scale", g.opts.Scale, "workers", workers)

	bands := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y0 := range bands {
				if ctx.Err() != nil {
					continue // drain remaining bands after cancellation
				}
				y1 := y0 + g.opts.BandHeight
				if y1 > h {
					y1 = h
				}
				g.renderBand(field, y0, y1)
			}
		}()
	}

	for y0 := 0; y0 < h; y0 += g.opts.BandHeight {
		bands <- y0
	}
	close(bands)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render cancelled: %w", err)
	}
	return field, nil
}

// renderBand fills rows [y0, y1) of field. The band owns those rows
// exclusively.
func (g *Generator) renderBand(field *raster.Field, y0, y1 int) {
	w := field.Width()
	h := field.Height()
	for y := y0; y < y1; y++ {
		for x := 0; x < w; x++ {
			field.Set(x, y, SampleCell(x, y, w, h, g.opts.Scale))
		}
	}
}

// Image renders the field and produces the final 8-bit image, applying the
// optional supersample downscale and Gaussian blur. With both disabled the
// pixel values are the raw field samples.
func (g *Generator) Image(ctx context.Context, workers int) (image.Image, error) {
	field, err := g.Render(ctx, workers)
	if err != nil {
		return nil, err
	}
	return g.finish(field.NRGBA()), nil
}

// Gray16Image is Image at 16-bit depth, for heightmaps consumed as
// displacement data.
func (g *Generator) Gray16Image(ctx context.Context, workers int) (image.Image, error) {
	field, err := g.Render(ctx, workers)
	if err != nil {
		return nil, err
	}
	return g.finishGray16(field.Gray16()), nil
}

func (g *Generator) finish(img *image.NRGBA) image.Image {
	var out image.Image = img
	if g.opts.Supersample > 1 {
		dst := image.NewNRGBA(image.Rect(0, 0, g.width, g.height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), out, out.Bounds(), draw.Src, nil)
		out = dst
	}
	if g.opts.BlurSigma > 0 {
		f := gift.New(gift.GaussianBlur(float32(g.opts.BlurSigma)))
		dst := image.NewNRGBA(f.Bounds(out.Bounds()))
		f.Draw(dst, out)
		out = dst
	}
	return out
}

func (g *Generator) finishGray16(img *image.Gray16) image.Image {
	var out image.Image = img
	if g.opts.Supersample > 1 {
		dst := image.NewGray16(image.Rect(0, 0, g.width, g.height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), out, out.Bounds(), draw.Src, nil)
		out = dst
	}
	if g.opts.BlurSigma > 0 {
		f := gift.New(gift.GaussianBlur(float32(g.opts.BlurSigma)))
		dst := image.NewGray16(f.Bounds(out.Bounds()))
		f.Draw(dst, out)
		out = dst
	}
	return out
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}
