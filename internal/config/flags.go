package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagDensity     = flag.Float64("density", 0, "Samples per unit surface area")
	flagFlip        = flag.Bool("flip", false, "Flip every emitted normal")
	flagSeed        = flag.Int64("seed", 0, "Random seed (0 seeds from the clock)")
	flagMaxAttempts = flag.Int("max-attempts", 0, "Draws per sample before failing")
	flagOutput      = flag.String("o", "", "Output point cloud path")
	flagFormat      = flag.String("format", "", "Output format: pcd, pcd-binary, ply, xyz")
	flagNormalize   = flag.Bool("normalize", false, "Center the mesh and fit it in the unit cube")
	flagSmooth      = flag.Bool("smooth", false, "Recompute smooth vertex normals")
	flagPrimitive   = flag.String("primitive", "", "Sample a built-in solid: box, sphere, cylinder")
	flagCells       = flag.Int("cells", 0, "Marching cubes resolution for -primitive")
	flagExport      = flag.String("export-mesh", "", "Write the prepared mesh as ASCII STL")
	flagPreview     = flag.Bool("preview", false, "Print a terminal preview of the cloud")
	flagPNG         = flag.String("png", "", "Save a PNG preview of the cloud")
	flagBounds      = flag.Bool("bounds", false, "Draw the bounding box and axes in previews")
	flagProgress    = flag.Bool("progress", false, "Show a progress bar on stderr")
	flagLogFile     = flag.String("log-file", "", "Also write logs to this rotating file")
	flagWriteConfig = flag.String("write-config", "", "Write the resolved config to this path and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via -config flag.
func ConfigPath() string {
	return *flagConfig
}

// WriteConfigPath returns the -write-config destination, if any.
func WriteConfigPath() string {
	return *flagWriteConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagDensity != 0 {
		cfg.Sampling.Density = *flagDensity
	}
	if *flagFlip {
		cfg.Sampling.FlipNormals = true
	}
	if *flagSeed != 0 {
		cfg.Sampling.Seed = *flagSeed
	}
	if *flagMaxAttempts > 0 {
		cfg.Sampling.MaxAttempts = *flagMaxAttempts
	}
	if *flagOutput != "" {
		cfg.Output.Path = *flagOutput
	}
	if *flagFormat != "" {
		cfg.Output.Format = *flagFormat
	}
	if *flagNormalize {
		cfg.Mesh.Normalize = true
	}
	if *flagSmooth {
		cfg.Mesh.ComputeNormals = true
		cfg.Mesh.SmoothNormals = true
	}
	if *flagPrimitive != "" {
		cfg.Mesh.Primitive = *flagPrimitive
	}
	if *flagCells > 0 {
		cfg.Mesh.PrimitiveCells = *flagCells
	}
	if *flagExport != "" {
		cfg.Mesh.Export = *flagExport
	}
	if *flagPreview {
		cfg.Preview.Enabled = true
	}
	if *flagPNG != "" {
		cfg.Preview.PNG = *flagPNG
	}
	if *flagBounds {
		cfg.Preview.Bounds = true
	}
	if *flagProgress {
		cfg.Logging.Progress = true
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
