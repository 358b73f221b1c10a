// Affine layer specialized for the sparse transformer output.

package layers

import (
	"fmt"
	"io"

	"github.com/hailam/nnueprobe/sfnnue/common"
)

// Weights are grouped in columns of chunkSize so whole chunks of zero input
// bytes can be skipped. Matches the SSSE3/NEON layout in Stockfish.
const chunkSize = 4

// AffineTransformSparseInput is the first affine layer of a stack. Its input
// is the transformed feature vector, which is mostly zeros, so the forward
// pass only visits non-zero 4-byte chunks.
type AffineTransformSparseInput struct {
	InputDimensions       int
	OutputDimensions      int
	PaddedInputDimensions int

	Biases  []int32
	Weights []int8
}

// NewAffineTransformSparseInput creates a sparse-input layer with zeroed
// parameters.
func NewAffineTransformSparseInput(inputDims, outputDims int) *AffineTransformSparseInput {
	paddedInput := common.CeilToMultiple(inputDims, common.MaxSimdWidth)

	return &AffineTransformSparseInput{
		InputDimensions:       inputDims,
		OutputDimensions:      outputDims,
		PaddedInputDimensions: paddedInput,
		Biases:                make([]int32, outputDims),
		Weights:               make([]int8, outputDims*paddedInput),
	}
}

// GetHashValue returns the architecture hash after this layer. The sparse
// variant hashes identically to the dense one.
func (a *AffineTransformSparseInput) GetHashValue(prevHash uint32) uint32 {
	return AffineTransformHashValue(prevHash, a.OutputDimensions)
}

// ReadParameters reads the biases and weights. The file stores weights
// row-major; they are rearranged into the chunked layout Propagate expects.
func (a *AffineTransformSparseInput) ReadParameters(r io.Reader) error {
	if err := common.ReadLittleEndianSlice(r, a.Biases); err != nil {
		return fmt.Errorf("failed to read biases: %w", err)
	}

	weightData := make([]int8, a.OutputDimensions*a.PaddedInputDimensions)
	if err := common.ReadLittleEndianSlice(r, weightData); err != nil {
		return fmt.Errorf("failed to read weights: %w", err)
	}

	for i, w := range weightData {
		a.Weights[a.weightIndex(i)] = w
	}

	return nil
}

// weightIndex maps a row-major weight position to the chunked layout: all
// output rows' weights for one 4-byte input chunk are stored contiguously.
func (a *AffineTransformSparseInput) weightIndex(i int) int {
	return (i/chunkSize)%(a.PaddedInputDimensions/chunkSize)*a.OutputDimensions*chunkSize +
		i/a.PaddedInputDimensions*chunkSize + i%chunkSize
}

// Propagate performs the forward pass, skipping zero input chunks. input
// must hold exactly InputDimensions values and output at least
// OutputDimensions.
func (a *AffineTransformSparseInput) Propagate(input []uint8, output []int32) {
	copy(output[:a.OutputDimensions], a.Biases)

	numChunks := common.CeilToMultiple(a.InputDimensions, 8) / chunkSize

	// Pack the input bytes four at a time so a whole chunk can be tested
	// against zero at once.
	input32 := make([]int32, (len(input)+chunkSize-1)/chunkSize)
	for i := 0; i < len(input); i++ {
		input32[i/chunkSize] |= int32(input[i]) << (8 * (i % chunkSize))
	}

	for idx := 0; idx < numChunks; idx++ {
		in := input32[idx]
		if in == 0 {
			continue
		}
		b0 := uint8(in)
		b1 := uint8(in >> 8)
		b2 := uint8(in >> 16)
		b3 := uint8(in >> 24)

		colOffset := idx * a.OutputDimensions * chunkSize
		for k := 0; k < a.OutputDimensions; k++ {
			weightOffset := colOffset + k*chunkSize
			output[k] += int32(a.Weights[weightOffset+0]) * int32(b0)
			output[k] += int32(a.Weights[weightOffset+1]) * int32(b1)
			output[k] += int32(a.Weights[weightOffset+2]) * int32(b2)
			output[k] += int32(a.Weights[weightOffset+3]) * int32(b3)
		}
	}
}
