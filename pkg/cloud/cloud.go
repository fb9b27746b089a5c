// Package cloud writes sampled point clouds with normals to PCD, PLY and XYZ
// files.
package cloud

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/DonSiMP/obj2pcd/pkg/math3d"
	"github.com/DonSiMP/obj2pcd/pkg/sampler"
)

// Format names an output encoding.
type Format string

const (
	FormatPCD       Format = "pcd"        // PCD v0.7, ASCII data
	FormatPCDBinary Format = "pcd-binary" // PCD v0.7, binary data
	FormatPLY       Format = "ply"        // binary little-endian PLY
	FormatXYZ       Format = "xyz"        // whitespace separated text
)

// ErrUnknownFormat is returned for unrecognized format names or extensions.
var ErrUnknownFormat = errors.New("unknown point cloud format")

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatPCD, FormatPCDBinary, FormatPLY, FormatXYZ}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownFormat)
}

// FormatFromPath picks a format from a file extension. .pcd maps to ASCII
// PCD; binary PCD has to be asked for by name.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pcd":
		return FormatPCD, nil
	case ".ply":
		return FormatPLY, nil
	case ".xyz", ".txt":
		return FormatXYZ, nil
	default:
		return "", fmt.Errorf("extension %q: %w", ext, ErrUnknownFormat)
	}
}

// Write encodes samples to w in the given format.
func Write(w io.Writer, format Format, samples []sampler.Sample) error {
	switch format {
	case FormatPCD:
		return WritePCD(w, samples, false)
	case FormatPCDBinary:
		return WritePCD(w, samples, true)
	case FormatPLY:
		return WritePLY(w, samples)
	case FormatXYZ:
		return WriteXYZ(w, samples)
	default:
		return fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
}

// Save writes samples to path. An empty format is derived from the extension.
func Save(path string, format Format, samples []sampler.Sample) error {
	if format == "" {
		var err error
		if format, err = FormatFromPath(path); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := Write(f, format, samples); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Bounds returns the axis-aligned box enclosing every sample position.
// ok is false for an empty slice.
func Bounds(samples []sampler.Sample) (lo, hi math3d.Vec3, ok bool) {
	if len(samples) == 0 {
		return lo, hi, false
	}
	lo, hi = samples[0].Position, samples[0].Position
	for _, s := range samples[1:] {
		lo = lo.Min(s.Position)
		hi = hi.Max(s.Position)
	}
	return lo, hi, true
}
