package cloud

import (
	"bufio"
	"io"
	"strconv"

	"github.com/DonSiMP/obj2pcd/pkg/sampler"
)

// WriteXYZ writes one "x y z nx ny nz" line per sample at full precision.
func WriteXYZ(w io.Writer, samples []sampler.Sample) error {
	bw := bufio.NewWriter(w)
	line := make([]byte, 0, 160)
	for _, s := range samples {
		line = line[:0]
		for i, c := range s.Components() {
			if i > 0 {
				line = append(line, ' ')
			}
			line = strconv.AppendFloat(line, c, 'g', -1, 64)
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}
