// Feature transformer: the input layer of both networks.
// Ported from Stockfish src/nnue/nnue_feature_transformer.h

package sfnnue

import (
	"fmt"
	"io"

	"github.com/hailam/nnueprobe/sfnnue/features"
)

// FeatureTransformer accumulates feature weights into per-perspective sums
// and squashes them into the transformed feature vector the layer stacks
// consume. The big and small networks differ only in HalfDimensions.
type FeatureTransformer struct {
	HalfDimensions  int
	InputDimensions int

	Biases      []int16
	Weights     []int16 // [InputDimensions][HalfDimensions]
	PSQTWeights []int32 // [InputDimensions][PSQTBuckets]
}

// NewFeatureTransformer creates a zeroed transformer with the given
// accumulator width.
func NewFeatureTransformer(halfDims int) *FeatureTransformer {
	return &FeatureTransformer{
		HalfDimensions:  halfDims,
		InputDimensions: features.Dimensions,
		Biases:          make([]int16, halfDims),
		Weights:         make([]int16, halfDims*features.Dimensions),
		PSQTWeights:     make([]int32, features.Dimensions*PSQTBuckets),
	}
}

// GetHashValue returns the transformer's header hash, which ties the feature
// set to the accumulator width.
func (ft *FeatureTransformer) GetHashValue() uint32 {
	return features.HashValue ^ uint32(ft.HalfDimensions*2)
}

// ReadParameters reads the biases, weights and PSQT weights, each stored as
// a LEB128-compressed block.
func (ft *FeatureTransformer) ReadParameters(r io.Reader) error {
	if err := ReadLEB128(r, ft.Biases); err != nil {
		return fmt.Errorf("failed to read biases: %w", err)
	}
	if err := ReadLEB128(r, ft.Weights); err != nil {
		return fmt.Errorf("failed to read weights: %w", err)
	}
	if err := ReadLEB128(r, ft.PSQTWeights); err != nil {
		return fmt.Errorf("failed to read PSQT weights: %w", err)
	}
	return nil
}

// Transform squashes a computed accumulator into the transformed feature
// vector and returns the PSQT partial score for the given bucket.
//
// perspectives[0] is the side to move. Its half of the accumulator fills
// output[0:half/2], the opponent's fills the rest. Each output byte pairs
// lane j with lane j+half/2 of the same perspective through PairwiseMul.
//
// The PSQT score is halved to average the two perspectives' estimates.
func (ft *FeatureTransformer) Transform(
	accumulation [2][]int16,
	psqtAccumulation [2][]int32,
	perspectives [2]int,
	bucket int,
	output []uint8,
) int32 {
	half := ft.HalfDimensions
	if len(output) != half {
		panic("sfnnue: transform output length mismatch")
	}

	for p := 0; p < 2; p++ {
		acc := accumulation[perspectives[p]]
		if len(acc) != half {
			panic("sfnnue: accumulator length mismatch")
		}
		offset := (half / 2) * p
		for j := 0; j < half/2; j++ {
			output[offset+j] = PairwiseMul(acc[j], acc[j+half/2])
		}
	}

	return (psqtAccumulation[perspectives[0]][bucket] - psqtAccumulation[perspectives[1]][bucket]) / 2
}

// ComputeAccumulator rebuilds one perspective's accumulator from scratch:
// biases plus the weight columns of every active feature.
func (ft *FeatureTransformer) ComputeAccumulator(
	activeIndices []int,
	accumulation []int16,
	psqtAccumulation []int32,
) {
	if len(accumulation) != ft.HalfDimensions || len(psqtAccumulation) != PSQTBuckets {
		panic("sfnnue: accumulator dimensions mismatch")
	}

	copy(accumulation, ft.Biases)
	for i := range psqtAccumulation {
		psqtAccumulation[i] = 0
	}

	for _, idx := range activeIndices {
		if idx < 0 || idx >= ft.InputDimensions {
			panic("sfnnue: feature index out of range")
		}

		offset := idx * ft.HalfDimensions
		for i := 0; i < ft.HalfDimensions; i++ {
			accumulation[i] += ft.Weights[offset+i]
		}

		psqtOffset := idx * PSQTBuckets
		for b := 0; b < PSQTBuckets; b++ {
			psqtAccumulation[b] += ft.PSQTWeights[psqtOffset+b]
		}
	}
}
