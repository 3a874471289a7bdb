package cpu

import "fmt"

// OutputSize computes the spatial output extent of a sliding window.
//
//	out = (in + 2*pad - window) / stride + 1
//
// The division must be exact: a configuration that leaves a fractional or
// negative output extent is rejected instead of being truncated.
func OutputSize(in, window, stride, pad int) (int, error) {
	switch {
	case in <= 0:
		return 0, fmt.Errorf("input extent %d must be positive", in)
	case window <= 0:
		return 0, fmt.Errorf("window %d must be positive", window)
	case stride <= 0:
		return 0, fmt.Errorf("stride %d must be positive", stride)
	case pad < 0:
		return 0, fmt.Errorf("padding %d must not be negative", pad)
	}

	span := in + 2*pad - window
	if span < 0 {
		return 0, fmt.Errorf("window %d exceeds padded input %d (input=%d, pad=%d)", window, in+2*pad, in, pad)
	}
	if span%stride != 0 {
		return 0, fmt.Errorf("(input %d + 2*pad %d - window %d) is not divisible by stride %d", in, pad, window, stride)
	}
	return span/stride + 1, nil
}
