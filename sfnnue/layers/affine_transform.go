// Dense affine (fully connected) layer.

package layers

import (
	"fmt"
	"io"

	"github.com/hailam/nnueprobe/sfnnue/common"
)

// AffineTransformHashValue folds a layer's output width into the running
// architecture hash.
func AffineTransformHashValue(prevHash uint32, outputDims int) uint32 {
	hashValue := uint32(0xCC03DAE4)
	hashValue += uint32(outputDims)
	hashValue ^= prevHash >> 1
	hashValue ^= prevHash << 31
	return hashValue
}

// AffineTransform computes output = weights*input + biases with int8
// weights, uint8 inputs and int32 accumulation. Weights are kept in the
// file's row-major order, one padded row per output.
type AffineTransform struct {
	InputDimensions       int
	OutputDimensions      int
	PaddedInputDimensions int

	Biases  []int32
	Weights []int8
}

// NewAffineTransform creates a dense layer with zeroed parameters.
func NewAffineTransform(inputDims, outputDims int) *AffineTransform {
	paddedInput := common.CeilToMultiple(inputDims, common.MaxSimdWidth)

	return &AffineTransform{
		InputDimensions:       inputDims,
		OutputDimensions:      outputDims,
		PaddedInputDimensions: paddedInput,
		Biases:                make([]int32, outputDims),
		Weights:               make([]int8, outputDims*paddedInput),
	}
}

// GetHashValue returns the architecture hash after this layer.
func (a *AffineTransform) GetHashValue(prevHash uint32) uint32 {
	return AffineTransformHashValue(prevHash, a.OutputDimensions)
}

// ReadParameters reads the biases and the row-major weight matrix. The file
// stores rows padded to PaddedInputDimensions, which is also how the scalar
// forward pass indexes them, so no reordering happens here.
func (a *AffineTransform) ReadParameters(r io.Reader) error {
	if err := common.ReadLittleEndianSlice(r, a.Biases); err != nil {
		return fmt.Errorf("failed to read biases: %w", err)
	}
	if err := common.ReadLittleEndianSlice(r, a.Weights); err != nil {
		return fmt.Errorf("failed to read weights: %w", err)
	}
	return nil
}

// Propagate performs the forward pass. input must hold at least
// InputDimensions values and output at least OutputDimensions.
func (a *AffineTransform) Propagate(input []uint8, output []int32) {
	for i := 0; i < a.OutputDimensions; i++ {
		row := a.Weights[i*a.PaddedInputDimensions:]
		sum := a.Biases[i]
		for j := 0; j < a.InputDimensions; j++ {
			sum += int32(row[j]) * int32(input[j])
		}
		output[i] = sum
	}
}
