// Layer stack architecture.
// Ported from Stockfish src/nnue/nnue_architecture.h

package sfnnue

import (
	"io"

	"github.com/hailam/nnueprobe/sfnnue/layers"
)

// Architecture constants. The two network variants differ only in the
// transformed feature width; the layer stacks behind them are identical.
const (
	TransformedFeatureDimensionsBig   = 3072
	TransformedFeatureDimensionsSmall = 128

	L2 = 15
	L3 = 32

	PSQTBuckets = 8
	LayerStacks = 8
)

// LayerTrace captures the post-activation vectors of the two hidden layers
// during a forward pass.
type LayerTrace struct {
	// Layer1 is the fc_1 input: the squared-clipped activations of fc_0
	// outputs 0..L2-1 followed by their clipped counterparts, 2*L2 values.
	Layer1 []uint8

	// Layer2 is the clipped output of fc_1, L3 values.
	Layer2 []uint8
}

// NetworkArchitecture is one bucket's layer stack: a sparse affine layer off
// the transformed features, two activations over its output, and two dense
// layers down to a single score.
type NetworkArchitecture struct {
	TransformedFeatureDimensions int

	FC0    *layers.AffineTransformSparseInput // TransformedFeatureDimensions -> L2+1
	AcSqr0 *layers.SqrClippedReLU             // over all L2+1 outputs
	Ac0    *layers.ClippedReLU                // over the first L2 outputs
	FC1    *layers.AffineTransform            // 2*L2 -> L3
	Ac1    *layers.ClippedReLU                // L3
	FC2    *layers.AffineTransform            // L3 -> 1
}

// NewNetworkArchitecture builds a zeroed layer stack for the given
// transformed feature width.
func NewNetworkArchitecture(transformedDims int) *NetworkArchitecture {
	return &NetworkArchitecture{
		TransformedFeatureDimensions: transformedDims,
		FC0:                          layers.NewAffineTransformSparseInput(transformedDims, L2+1),
		AcSqr0:                       layers.NewSqrClippedReLU(L2 + 1),
		Ac0:                          layers.NewClippedReLU(L2),
		FC1:                          layers.NewAffineTransform(2*L2, L3),
		Ac1:                          layers.NewClippedReLU(L3),
		FC2:                          layers.NewAffineTransform(L3, 1),
	}
}

// GetHashValue chains the layer hashes behind the input slice hash. The
// squared activation is deliberately absent: it shares fc_0's output and
// does not change the architecture identity.
func (n *NetworkArchitecture) GetHashValue() uint32 {
	hashValue := uint32(0xEC42E90D)
	hashValue ^= uint32(n.TransformedFeatureDimensions * 2)

	hashValue = n.FC0.GetHashValue(hashValue)
	hashValue = n.Ac0.GetHashValue(hashValue)
	hashValue = n.FC1.GetHashValue(hashValue)
	hashValue = n.Ac1.GetHashValue(hashValue)
	hashValue = n.FC2.GetHashValue(hashValue)

	return hashValue
}

// ReadParameters reads the three affine layers in file order. The
// activations carry no parameters.
func (n *NetworkArchitecture) ReadParameters(r io.Reader) error {
	if err := n.FC0.ReadParameters(r); err != nil {
		return err
	}
	if err := n.FC1.ReadParameters(r); err != nil {
		return err
	}
	return n.FC2.ReadParameters(r)
}

// forwardBuffers holds one forward pass's transient vectors. A fresh value
// lives in each Propagate call frame, so a loaded network can serve
// concurrent callers.
type forwardBuffers struct {
	fc0Out [32]int32 // L2+1 outputs, padded
	sqr    [16]uint8 // squared-clipped activations over all L2+1 outputs
	lin    [16]uint8 // clipped activations over the first L2 outputs
	feed   [32]uint8 // sqr[0:L2] ++ lin[0:L2], zero padded to fc_1's width
	fc1Out [32]int32
	ac1Out [32]uint8
	fc2Out [1]int32
}

// Propagate runs the forward pass and returns the raw positional score,
// still carrying the OutputScale factor.
func (n *NetworkArchitecture) Propagate(transformedFeatures []uint8) int32 {
	var buf forwardBuffers
	return n.propagate(transformedFeatures, &buf, nil)
}

// PropagateTrace is Propagate plus capture of the hidden layer activations
// into trace.
func (n *NetworkArchitecture) PropagateTrace(transformedFeatures []uint8, trace *LayerTrace) int32 {
	var buf forwardBuffers
	return n.propagate(transformedFeatures, &buf, trace)
}

func (n *NetworkArchitecture) propagate(transformedFeatures []uint8, buf *forwardBuffers, trace *LayerTrace) int32 {
	if len(transformedFeatures) != n.TransformedFeatureDimensions {
		panic("sfnnue: transformed feature length mismatch")
	}

	n.FC0.Propagate(transformedFeatures, buf.fc0Out[:])
	n.AcSqr0.Propagate(buf.fc0Out[:], buf.sqr[:])
	n.Ac0.Propagate(buf.fc0Out[:], buf.lin[:])

	// fc_1 consumes the squared activations of fc_0 outputs 0..L2-1
	// followed by the plain clipped ones. Output L2 is the skip connection
	// and never feeds the hidden layers.
	copy(buf.feed[:L2], buf.sqr[:L2])
	copy(buf.feed[L2:2*L2], buf.lin[:L2])

	if trace != nil {
		trace.Layer1 = append(trace.Layer1[:0], buf.feed[:2*L2]...)
	}

	n.FC1.Propagate(buf.feed[:], buf.fc1Out[:])
	n.Ac1.Propagate(buf.fc1Out[:], buf.ac1Out[:])

	if trace != nil {
		trace.Layer2 = append(trace.Layer2[:0], buf.ac1Out[:L3]...)
	}

	n.FC2.Propagate(buf.ac1Out[:], buf.fc2Out[:])

	// Skip connection: fc_0 output L2 reaches the score directly. Unity is
	// 127*2^6 on that wire but 600*OutputScale at the output.
	fwdOut := buf.fc0Out[L2] * (600 * OutputScale) / (127 * (1 << WeightScaleBits))
	return buf.fc2Out[0] + fwdOut
}
