package dataset

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/noether/internal/tensor"
)

// IDX magic numbers of the MNIST image and label files.
const (
	idxImageMagic = 0x00000803
	idxLabelMagic = 0x00000801
)

// MNISTClasses is the number of digit classes.
const MNISTClasses = 10

// MNIST file names inside a data directory.
const (
	MNISTTrainImages = "train-images-idx3-ubyte"
	MNISTTrainLabels = "train-labels-idx1-ubyte"
	MNISTTestImages  = "t10k-images-idx3-ubyte"
	MNISTTestLabels  = "t10k-labels-idx1-ubyte"
)

// DecodeIDXImages reads an IDX image file into a Float [N,rows,cols,1]
// tensor with pixels scaled to [0,1].
//
// IDX image layout, big endian:
//
//	magic:  0x00000803
//	count:  4 bytes
//	rows:   4 bytes
//	cols:   4 bytes
//	pixels: count*rows*cols unsigned bytes
func DecodeIDXImages(r io.Reader) (*tensor.Tensor, error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if header[0] != idxImageMagic {
		return nil, fmt.Errorf("invalid magic number: got %#x, want %#x", header[0], idxImageMagic)
	}
	n, rows, cols := int(header[1]), int(header[2]), int(header[3])
	if n == 0 || rows == 0 || cols == 0 {
		return nil, fmt.Errorf("empty image file: %d images of %dx%d", n, rows, cols)
	}

	images := tensor.New(tensor.Float, tensor.Shape{n, rows, cols, 1})
	pixels := images.AsFloat64()

	raw := make([]byte, rows*cols)
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("failed to read image %d: %w", i, err)
		}
		dst := pixels[i*len(raw):]
		for p, v := range raw {
			dst[p] = float64(v) / 255
		}
	}
	return images, nil
}

// DecodeIDXLabels reads an IDX label file into an Index [N,1] tensor.
//
// IDX label layout, big endian:
//
//	magic:  0x00000801
//	count:  4 bytes
//	labels: count unsigned bytes (0-9)
func DecodeIDXLabels(r io.Reader) (*tensor.Tensor, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if header[0] != idxLabelMagic {
		return nil, fmt.Errorf("invalid magic number: got %#x, want %#x", header[0], idxLabelMagic)
	}
	n := int(header[1])
	if n == 0 {
		return nil, fmt.Errorf("empty label file")
	}

	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}

	labels := tensor.New(tensor.Index, tensor.Shape{n, 1})
	classes := labels.AsInt64()
	for i, v := range raw {
		if v >= MNISTClasses {
			return nil, fmt.Errorf("label %d: %w: %d", i, ErrInvalidLabel, v)
		}
		classes[i] = int64(v)
	}
	return labels, nil
}

func readIDX(path string, decode func(io.Reader) (*tensor.Tensor, error)) (*tensor.Tensor, error) {
	//nolint:gosec // G304: dataset path is user supplied
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	t, err := decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadMNIST reads the training or test split from dir. The image and label
// files are decoded concurrently.
func LoadMNIST(ctx context.Context, dir string, train bool) (*Set, error) {
	imageFile, labelFile := MNISTTestImages, MNISTTestLabels
	if train {
		imageFile, labelFile = MNISTTrainImages, MNISTTrainLabels
	}

	var set Set
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		images, err := readIDX(filepath.Join(dir, imageFile), DecodeIDXImages)
		set.Images = images
		return err
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		labels, err := readIDX(filepath.Join(dir, labelFile), DecodeIDXLabels)
		set.Labels = labels
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if n, m := set.Len(), set.Labels.Dims()[0]; n != m {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", n, m)
	}
	return &set, nil
}
