// obj2pcd - Mesh Surface Sampler
// Turn a triangle mesh into an area-weighted point cloud with interpolated
// normals.
//
// Usage:
//
//	obj2pcd [options] <mesh.obj|mesh.stl|mesh.glb>
//	obj2pcd [options] -primitive sphere
//
// Settings come from defaults, then obj2pcd.yaml (or -config), then flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/DonSiMP/obj2pcd/internal/config"
	"github.com/DonSiMP/obj2pcd/internal/logger"
	"github.com/DonSiMP/obj2pcd/pkg/cloud"
	"github.com/DonSiMP/obj2pcd/pkg/models"
	"github.com/DonSiMP/obj2pcd/pkg/render"
	"github.com/DonSiMP/obj2pcd/pkg/sampler"
)

// progressFPS is the nominal update rate the progress spring is tuned for.
const progressFPS = 30

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "obj2pcd - Mesh Surface Sampler\n\n")
		fmt.Fprintf(os.Stderr, "Usage: obj2pcd [options] <mesh.obj|mesh.stl|mesh.glb>\n")
		fmt.Fprintf(os.Stderr, "       obj2pcd [options] -primitive box|sphere|cylinder\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nOutput formats: pcd, pcd-binary, ply, xyz (default: from -o extension)\n")
	}
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if path := config.WriteConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote config to %s\n", path)
		return
	}

	if flag.NArg() < 1 && cfg.Mesh.Primitive == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, flag.Arg(0))
	stop()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("interrupted")
		} else {
			logger.Error("obj2pcd failed", zap.Error(err))
		}
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func run(ctx context.Context, cfg *config.Config, meshPath string) error {
	format := cloud.Format("")
	if cfg.Output.Format != "" {
		var err error
		if format, err = cloud.ParseFormat(cfg.Output.Format); err != nil {
			return err
		}
	} else if _, err := cloud.FormatFromPath(cfg.Output.Path); err != nil {
		return fmt.Errorf("output %s: %w", cfg.Output.Path, err)
	}

	mesh, err := loadMesh(cfg, meshPath)
	if err != nil {
		return err
	}
	logger.Info("mesh loaded",
		zap.String("name", mesh.Name),
		zap.Int("vertices", mesh.VertexCount()),
		zap.Int("triangles", mesh.TriangleCount()),
		zap.Float64("area", mesh.SurfaceArea()),
	)

	if cfg.Mesh.Export != "" {
		if err := exportMesh(mesh, cfg.Mesh.Export); err != nil {
			return err
		}
		logger.Info("mesh exported", zap.String("path", cfg.Mesh.Export))
	}

	geom, err := mesh.Geometry()
	if err != nil {
		return fmt.Errorf("build geometry: %w", err)
	}
	if deg := geom.Degenerate(); len(deg) > 0 {
		logger.Warn("skipping degenerate triangles",
			zap.Int("count", len(deg)),
			zap.Ints("first", deg[:min(len(deg), 10)]),
		)
	}

	opts := []sampler.Option{
		sampler.WithLogger(logger.Named("sampler")),
		sampler.WithMaxAttempts(cfg.Sampling.MaxAttempts),
	}
	if cfg.Sampling.Seed != 0 {
		opts = append(opts, sampler.WithSeed(cfg.Sampling.Seed))
	}
	if cfg.Logging.Progress {
		bar := NewProgressBar(os.Stderr, progressFPS)
		opts = append(opts, sampler.WithProgress(bar.Update))
	}
	smp := sampler.New(geom, cfg.Sampling.FlipNormals, opts...)

	start := time.Now()
	samples, err := smp.Sample(ctx, cfg.Sampling.Density)
	if err != nil {
		return fmt.Errorf("sample: %w", err)
	}
	fields := []zap.Field{
		zap.Int("samples", len(samples)),
		zap.Float64("density", cfg.Sampling.Density),
		zap.Bool("flip", cfg.Sampling.FlipNormals),
		zap.Duration("elapsed", time.Since(start)),
	}
	if lo, hi, ok := cloud.Bounds(samples); ok {
		fields = append(fields,
			zap.Float64s("min", []float64{lo.X, lo.Y, lo.Z}),
			zap.Float64s("max", []float64{hi.X, hi.Y, hi.Z}),
		)
	}
	logger.Info("surface sampled", fields...)

	if err := cloud.Save(cfg.Output.Path, format, samples); err != nil {
		return err
	}
	logger.Info("point cloud written", zap.String("path", cfg.Output.Path))

	if cfg.Preview.Enabled || cfg.Preview.PNG != "" {
		fb := render.Preview(samples, render.PreviewOptions{
			Width:        cfg.Preview.Width,
			Height:       cfg.Preview.Height,
			NormalColors: cfg.Preview.NormalColors,
			Bounds:       cfg.Preview.Bounds,
		})
		if cfg.Preview.Enabled {
			fmt.Fprintln(os.Stdout, fb.String())
		}
		if cfg.Preview.PNG != "" {
			if err := fb.SavePNG(cfg.Preview.PNG); err != nil {
				return fmt.Errorf("preview: %w", err)
			}
			logger.Info("preview written", zap.String("path", cfg.Preview.PNG))
		}
	}

	return nil
}

// loadMesh reads the input mesh or builds the configured primitive, then
// applies the configured normal and normalization passes.
func loadMesh(cfg *config.Config, path string) (*models.Mesh, error) {
	opts := models.LoadOptions{
		Normalize:      cfg.Mesh.Normalize,
		ComputeNormals: cfg.Mesh.ComputeNormals,
		SmoothNormals:  cfg.Mesh.SmoothNormals,
	}

	if cfg.Mesh.Primitive != "" {
		mesh, err := models.Primitive(cfg.Mesh.Primitive, cfg.Mesh.PrimitiveSize, cfg.Mesh.PrimitiveCells)
		if err != nil {
			return nil, err
		}
		mesh.Apply(opts)
		return mesh, nil
	}

	mesh, err := models.Load(path, opts)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return mesh, nil
}

func exportMesh(mesh *models.Mesh, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export mesh: %w", err)
	}
	if err := mesh.WriteSTL(f); err != nil {
		f.Close()
		return fmt.Errorf("export mesh: %w", err)
	}
	return f.Close()
}
