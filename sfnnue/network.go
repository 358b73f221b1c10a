// Network loading and evaluation.
// Ported from Stockfish src/nnue/network.h and network.cpp

package sfnnue

import (
	"fmt"
	"io"
	"os"

	"github.com/hailam/nnueprobe/sfnnue/common"
)

// Network is one complete variant: a feature transformer plus eight layer
// stacks selected by piece count. Once loaded it is immutable and safe for
// concurrent evaluation.
type Network struct {
	FeatureTransformer *FeatureTransformer
	LayerStacks        [LayerStacks]*NetworkArchitecture

	CurrentFile    string
	NetDescription string

	// Hash is the expected file hash, fixed by the architecture.
	Hash uint32
}

// NewNetwork builds a zeroed network with the given transformed feature
// width, normally TransformedFeatureDimensionsBig or ...Small.
func NewNetwork(transformedDims int) *Network {
	net := &Network{
		FeatureTransformer: NewFeatureTransformer(transformedDims),
	}
	for i := range net.LayerStacks {
		net.LayerStacks[i] = NewNetworkArchitecture(transformedDims)
	}
	net.Hash = net.FeatureTransformer.GetHashValue() ^ net.LayerStacks[0].GetHashValue()
	return net
}

// NewBigNetwork builds the 3072-wide variant.
func NewBigNetwork() *Network { return NewNetwork(TransformedFeatureDimensionsBig) }

// NewSmallNetwork builds the 128-wide variant.
func NewSmallNetwork() *Network { return NewNetwork(TransformedFeatureDimensionsSmall) }

// Load reads network parameters from a .nnue file.
func (n *Network) Load(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if err := n.LoadFromReader(f); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	n.CurrentFile = filename
	return nil
}

// LoadFromReader reads network parameters from a stream in .nnue layout.
func (n *Network) LoadFromReader(r io.Reader) error {
	hashValue, description, err := n.readHeader(r)
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	if hashValue != n.Hash {
		return fmt.Errorf("hash mismatch: expected %08x, got %08x", n.Hash, hashValue)
	}

	n.NetDescription = description

	if err := n.readParameters(r); err != nil {
		return fmt.Errorf("failed to read parameters: %w", err)
	}

	return nil
}

// readHeader validates the version and returns the file hash and the
// embedded architecture description.
func (n *Network) readHeader(r io.Reader) (uint32, string, error) {
	version, err := common.ReadLittleEndian[uint32](r)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read version: %w", err)
	}
	if version != Version {
		return 0, "", fmt.Errorf("version mismatch: expected %08x, got %08x", Version, version)
	}

	hashValue, err := common.ReadLittleEndian[uint32](r)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read hash: %w", err)
	}

	descSize, err := common.ReadLittleEndian[uint32](r)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read description size: %w", err)
	}

	descBytes := make([]byte, descSize)
	if _, err := io.ReadFull(r, descBytes); err != nil {
		return 0, "", fmt.Errorf("failed to read description: %w", err)
	}

	return hashValue, string(descBytes), nil
}

// readParameters reads the transformer and all eight layer stacks, each
// preceded by its own hash.
func (n *Network) readParameters(r io.Reader) error {
	transformerHash, err := common.ReadLittleEndian[uint32](r)
	if err != nil {
		return fmt.Errorf("failed to read transformer hash: %w", err)
	}
	if expected := n.FeatureTransformer.GetHashValue(); transformerHash != expected {
		return fmt.Errorf("transformer hash mismatch: expected %08x, got %08x",
			expected, transformerHash)
	}

	if err := n.FeatureTransformer.ReadParameters(r); err != nil {
		return fmt.Errorf("failed to read transformer parameters: %w", err)
	}

	for i := 0; i < LayerStacks; i++ {
		stackHash, err := common.ReadLittleEndian[uint32](r)
		if err != nil {
			return fmt.Errorf("failed to read layer stack %d hash: %w", i, err)
		}
		if expected := n.LayerStacks[i].GetHashValue(); stackHash != expected {
			return fmt.Errorf("layer stack %d hash mismatch: expected %08x, got %08x",
				i, expected, stackHash)
		}

		if err := n.LayerStacks[i].ReadParameters(r); err != nil {
			return fmt.Errorf("failed to read layer stack %d: %w", i, err)
		}
	}

	return nil
}

// PieceCountBucket selects the layer stack for a total piece count. Legal
// positions carry 2 to 32 pieces; anything else is a caller bug.
func PieceCountBucket(pieceCount int) int {
	if pieceCount < 2 || pieceCount > 32 {
		panic("sfnnue: piece count out of range")
	}
	return (pieceCount - 1) / 4
}

// Evaluate transforms a computed accumulator and runs the bucket's layer
// stack. Both components are divided by OutputScale; their sum is the raw
// network score from the side to move's point of view.
func (n *Network) Evaluate(acc *Accumulator, sideToMove, pieceCount int) (psqt, positional int32) {
	return n.evaluate(acc, sideToMove, pieceCount, nil)
}

// EvaluateTrace is Evaluate plus capture of the hidden layer activations.
func (n *Network) EvaluateTrace(acc *Accumulator, sideToMove, pieceCount int, trace *LayerTrace) (psqt, positional int32) {
	return n.evaluate(acc, sideToMove, pieceCount, trace)
}

func (n *Network) evaluate(acc *Accumulator, sideToMove, pieceCount int, trace *LayerTrace) (int32, int32) {
	bucket := PieceCountBucket(pieceCount)
	perspectives := [2]int{sideToMove, 1 - sideToMove}

	transformedFeatures := make([]uint8, n.FeatureTransformer.HalfDimensions)
	psqt := n.FeatureTransformer.Transform(
		acc.Accumulation,
		acc.PSQTAccumulation,
		perspectives,
		bucket,
		transformedFeatures,
	)

	var positional int32
	if trace != nil {
		positional = n.LayerStacks[bucket].PropagateTrace(transformedFeatures, trace)
	} else {
		positional = n.LayerStacks[bucket].Propagate(transformedFeatures)
	}

	return psqt / OutputScale, positional / OutputScale
}

// Networks pairs the two variants the evaluator switches between.
type Networks struct {
	Big   *Network
	Small *Network
}

// NewNetworks builds both variants with zeroed parameters.
func NewNetworks() *Networks {
	return &Networks{
		Big:   NewBigNetwork(),
		Small: NewSmallNetwork(),
	}
}

// LoadNetworks loads both variants from their .nnue files.
func LoadNetworks(bigFile, smallFile string) (*Networks, error) {
	nets := NewNetworks()

	if err := nets.Big.Load(bigFile); err != nil {
		return nil, fmt.Errorf("failed to load big network: %w", err)
	}
	if err := nets.Small.Load(smallFile); err != nil {
		return nil, fmt.Errorf("failed to load small network: %w", err)
	}

	return nets, nil
}
