// Package dataset decodes labelled image datasets into noether tensors.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/noether/internal/tensor"
)

// CIFAR-10 binary record layout.
//
//	label: 1 byte (0-9)
//	red:   1024 bytes, row-major 32x32
//	green: 1024 bytes
//	blue:  1024 bytes
const (
	CIFARSide     = 32
	CIFARChannels = 3
	CIFARClasses  = 10
	CIFARPlane    = CIFARSide * CIFARSide
	CIFARRecord   = 1 + CIFARChannels*CIFARPlane // 3073 bytes
)

// Errors returned while decoding.
var (
	ErrInvalidLabel = errors.New("label out of range")
	ErrPartialFile  = errors.New("file size is not a whole number of records")
)

// ClassNames are the CIFAR-10 labels in index order.
var ClassNames = [CIFARClasses]string{
	"airplane", "automobile", "bird", "cat", "deer",
	"dog", "frog", "horse", "ship", "truck",
}

// LabelName returns the class name of label, or "?" if it is out of range.
func LabelName(label int64) string {
	if label < 0 || label >= CIFARClasses {
		return "?"
	}
	return ClassNames[label]
}

// Set is a decoded dataset: Images is Float [N,H,W,C] with values in [0,1],
// Labels is Index [N,1].
type Set struct {
	Images *tensor.Tensor
	Labels *tensor.Tensor
}

// Len returns the number of examples.
func (s *Set) Len() int {
	return s.Images.Dims()[0]
}

// DecodeCIFAR10 reads n records from r.
//
// Pixels are scaled to [0,1] and the planar channel layout of the file is
// converted to NHWC.
func DecodeCIFAR10(r io.Reader, n int) (*Set, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid record count %d", n)
	}

	images := tensor.New(tensor.Float, tensor.Shape{n, CIFARSide, CIFARSide, CIFARChannels})
	labels := tensor.New(tensor.Index, tensor.Shape{n, 1})
	pixels := images.AsFloat64()
	classes := labels.AsInt64()

	record := make([]byte, CIFARRecord)
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, record); err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", i, err)
		}

		label := int64(record[0])
		if label >= CIFARClasses {
			return nil, fmt.Errorf("record %d: %w: %d", i, ErrInvalidLabel, label)
		}
		classes[i] = label

		dst := pixels[i*CIFARChannels*CIFARPlane:]
		for c := 0; c < CIFARChannels; c++ {
			plane := record[1+c*CIFARPlane : 1+(c+1)*CIFARPlane]
			for p, v := range plane {
				dst[p*CIFARChannels+c] = float64(v) / 255
			}
		}
	}

	return &Set{Images: images, Labels: labels}, nil
}

// ReadCIFAR10File decodes every record of a CIFAR-10 batch file.
func ReadCIFAR10File(path string) (*Set, error) {
	//nolint:gosec // G304: dataset path is user supplied
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size == 0 || size%CIFARRecord != 0 {
		return nil, fmt.Errorf("%s: %w: %d bytes", path, ErrPartialFile, size)
	}

	set, err := DecodeCIFAR10(file, int(size/CIFARRecord))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// LoadCIFAR10 decodes the batch files concurrently and concatenates them in
// argument order.
func LoadCIFAR10(ctx context.Context, paths ...string) (*Set, error) {
	if len(paths) == 0 {
		return nil, errors.New("no dataset files given")
	}

	sets := make([]*Set, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			set, err := ReadCIFAR10File(path)
			if err != nil {
				return err
			}
			sets[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Concat(sets...), nil
}

// Concat joins sets along the example dimension.
func Concat(sets ...*Set) *Set {
	if len(sets) == 1 {
		return sets[0]
	}

	total := 0
	for _, s := range sets {
		total += s.Len()
	}

	out := &Set{
		Images: tensor.New(tensor.Float, sets[0].Images.Shape().WithOuter(total)),
		Labels: tensor.New(tensor.Index, sets[0].Labels.Shape().WithOuter(total)),
	}
	images, labels := out.Images.AsFloat64(), out.Labels.AsInt64()
	for _, s := range sets {
		images = images[copy(images, s.Images.AsFloat64()):]
		labels = labels[copy(labels, s.Labels.AsInt64()):]
	}
	return out
}
