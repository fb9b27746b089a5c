package cloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/DonSiMP/obj2pcd/pkg/sampler"
)

// pcdFields is the PointNormal layout: position then normal, float32 each.
const pcdFields = "x y z normal_x normal_y normal_z"

// WritePCD writes an unorganized PCD v0.7 cloud (HEIGHT 1). Binary data is
// packed little-endian float32 records of six values.
func WritePCD(w io.Writer, samples []sampler.Sample, binaryData bool) error {
	bw := bufio.NewWriter(w)

	data := "ascii"
	if binaryData {
		data = "binary"
	}

	fmt.Fprintln(bw, "# .PCD v0.7 - Point Cloud Data file format")
	fmt.Fprintln(bw, "VERSION 0.7")
	fmt.Fprintf(bw, "FIELDS %s\n", pcdFields)
	fmt.Fprintln(bw, "SIZE 4 4 4 4 4 4")
	fmt.Fprintln(bw, "TYPE F F F F F F")
	fmt.Fprintln(bw, "COUNT 1 1 1 1 1 1")
	fmt.Fprintf(bw, "WIDTH %d\n", len(samples))
	fmt.Fprintln(bw, "HEIGHT 1")
	fmt.Fprintln(bw, "VIEWPOINT 0 0 0 1 0 0 0")
	fmt.Fprintf(bw, "POINTS %d\n", len(samples))
	fmt.Fprintf(bw, "DATA %s\n", data)

	if binaryData {
		var rec [6 * 4]byte
		for _, s := range samples {
			for i, c := range s.Components() {
				binary.LittleEndian.PutUint32(rec[i*4:], math.Float32bits(float32(c)))
			}
			if _, err := bw.Write(rec[:]); err != nil {
				return err
			}
		}
		return bw.Flush()
	}

	line := make([]byte, 0, 128)
	for _, s := range samples {
		line = line[:0]
		for i, c := range s.Components() {
			if i > 0 {
				line = append(line, ' ')
			}
			line = strconv.AppendFloat(line, c, 'g', -1, 32)
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}
