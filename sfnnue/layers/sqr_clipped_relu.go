// Squared clipped ReLU activation layer.

package layers

// SqrClippedReLUHashValue folds a squared clipped ReLU into the architecture
// hash. It shares the ClippedReLU constant.
func SqrClippedReLUHashValue(prevHash uint32) uint32 {
	return 0x538D24C7 + prevHash
}

// SqrClippedReLU computes min(127, x*x >> 19) per element. Squaring makes
// negative inputs positive, so no lower clamp is needed.
type SqrClippedReLU struct {
	InputDimensions  int
	OutputDimensions int
}

// NewSqrClippedReLU creates an activation over dims elements.
func NewSqrClippedReLU(dims int) *SqrClippedReLU {
	return &SqrClippedReLU{
		InputDimensions:  dims,
		OutputDimensions: dims,
	}
}

// GetHashValue returns the architecture hash after this layer.
func (s *SqrClippedReLU) GetHashValue(prevHash uint32) uint32 {
	return SqrClippedReLUHashValue(prevHash)
}

// Propagate applies the activation to the first InputDimensions elements.
// The square of an int32 needs 64 bits before the shift back down.
func (s *SqrClippedReLU) Propagate(input []int32, output []uint8) {
	const shift = 2*WeightScaleBits + 7

	for i := 0; i < s.InputDimensions; i++ {
		v := int64(input[i]) * int64(input[i]) >> shift
		if v > 127 {
			v = 127
		}
		output[i] = uint8(v)
	}
}
