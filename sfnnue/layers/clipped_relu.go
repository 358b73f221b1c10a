// ClippedReLU activation layer.

package layers

// WeightScaleBits is the fixed-point shift applied by the activations.
// Affine outputs carry an extra factor of 2^6 that the clipping removes.
const WeightScaleBits = 6

// ClippedReLUHashValue folds a clipped ReLU into the architecture hash.
func ClippedReLUHashValue(prevHash uint32) uint32 {
	return 0x538D24C7 + prevHash
}

// ClippedReLU computes clamp(x >> WeightScaleBits, 0, 127) per element.
type ClippedReLU struct {
	InputDimensions  int
	OutputDimensions int
}

// NewClippedReLU creates an activation over dims elements.
func NewClippedReLU(dims int) *ClippedReLU {
	return &ClippedReLU{
		InputDimensions:  dims,
		OutputDimensions: dims,
	}
}

// GetHashValue returns the architecture hash after this layer.
func (c *ClippedReLU) GetHashValue(prevHash uint32) uint32 {
	return ClippedReLUHashValue(prevHash)
}

// Propagate applies the activation to the first InputDimensions elements.
func (c *ClippedReLU) Propagate(input []int32, output []uint8) {
	for i := 0; i < c.InputDimensions; i++ {
		v := input[i] >> WeightScaleBits
		if v < 0 {
			v = 0
		} else if v > 127 {
			v = 127
		}
		output[i] = uint8(v)
	}
}
