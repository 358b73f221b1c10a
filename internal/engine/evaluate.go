// Package engine wraps the raw networks with the material heuristics and
// score blending applied around NNUE inference: network choice, complexity
// damping, material scaling, fifty-move damping and final clamping.
package engine

import (
	"github.com/hailam/nnueprobe/internal/position"
	"github.com/hailam/nnueprobe/sfnnue"
	"github.com/hailam/nnueprobe/sfnnue/features"
)

// Piece values in internal score units, used for the material-based network
// choice and the material scaling of the blended score.
const (
	PawnValue   = 208
	KnightValue = 781
	BishopValue = 825
	RookValue   = 1276
	QueenValue  = 2538
)

// SmallNetThreshold is the material imbalance beyond which the small
// network is preferred: lopsided positions do not need the big network's
// precision.
const SmallNetThreshold = 962

// Final scores stay strictly inside the tablebase win/loss range.
const (
	valueTBWinInMaxPly  = 31507
	valueTBLossInMaxPly = -valueTBWinInMaxPly
)

var pieceValues = [features.KING + 1]int{
	features.PAWN:   PawnValue,
	features.KNIGHT: KnightValue,
	features.BISHOP: BishopValue,
	features.ROOK:   RookValue,
	features.QUEEN:  QueenValue,
}

// SimpleEval is the pure material difference from the side to move's point
// of view.
func SimpleEval(pos *position.Position) int {
	us := pos.SideToMove()
	them := 1 - us

	v := 0
	for pt := features.PAWN; pt <= features.QUEEN; pt++ {
		v += pieceValues[pt] * (pos.Count(us, pt) - pos.Count(them, pt))
	}
	return v
}

// UseSmallNet reports whether the material imbalance is large enough to
// evaluate with the small network.
func UseSmallNet(pos *position.Position) bool {
	return abs(SimpleEval(pos)) > SmallNetThreshold
}

// nonPawnMaterial sums both sides' piece values, pawns and kings excluded.
func nonPawnMaterial(pos *position.Position) int {
	total := 0
	for color := 0; color < 2; color++ {
		for pt := features.KNIGHT; pt <= features.QUEEN; pt++ {
			total += pieceValues[pt] * pos.Count(color, pt)
		}
	}
	return total
}

// RefreshAccumulator rebuilds both perspectives of acc from scratch for
// pos. acc must match net's transformer width.
func RefreshAccumulator(net *sfnnue.Network, pos *position.Position, acc *sfnnue.Accumulator) {
	for perspective := 0; perspective < 2; perspective++ {
		var active features.IndexList
		features.AppendActiveIndices(perspective, pos, &active)
		net.FeatureTransformer.ComputeAccumulator(
			active.Values[:active.Size],
			acc.Accumulation[perspective],
			acc.PSQTAccumulation[perspective],
		)
		acc.Computed[perspective] = true
	}
}

// Evaluator blends network output into the final score. It holds no mutable
// state of its own, so one Evaluator serves concurrent callers.
type Evaluator struct {
	Networks *sfnnue.Networks
}

// Result is one evaluation with the snapshot state the tensors came from.
type Result struct {
	// Value is the final blended score in internal units, from the side to
	// move's point of view.
	Value int

	// SmallNet records the material-based network choice. Accumulator and
	// Bucket describe that network's state even when the scalar score was
	// recomputed on the big network afterwards.
	SmallNet bool

	Accumulator *sfnnue.Accumulator
	Bucket      int
}

// Evaluate runs the full evaluation for pos.
func (e *Evaluator) Evaluate(pos *position.Position) Result {
	smallNet := UseSmallNet(pos)

	net := e.Networks.Big
	if smallNet {
		net = e.Networks.Small
	}

	acc := sfnnue.NewAccumulator(net.FeatureTransformer.HalfDimensions)
	RefreshAccumulator(net, pos, acc)

	stm := pos.SideToMove()
	pieceCount := pos.PieceCount()

	psqt, positional := net.Evaluate(acc, stm, pieceCount)
	nnue := (125*psqt + 131*positional) / 128

	// A small-net score too close to zero is not trustworthy; redo the
	// work on the big network. The reported snapshot keeps the small net's
	// tensors.
	if smallNet && abs32(nnue) < 236 {
		bigAcc := sfnnue.NewAccumulator(e.Networks.Big.FeatureTransformer.HalfDimensions)
		RefreshAccumulator(e.Networks.Big, pos, bigAcc)
		psqt, positional = e.Networks.Big.Evaluate(bigAcc, stm, pieceCount)
		nnue = (125*psqt + 131*positional) / 128
	}

	// Damp the score when the two network heads disagree.
	complexity := abs32(psqt - positional)
	nnue -= nnue * complexity / 18000

	// Scale by the material still on the board: the same network output
	// means more in a full position than in a bare endgame.
	pawnCount := pos.Count(features.White, features.PAWN) + pos.Count(features.Black, features.PAWN)
	material := 535*pawnCount + nonPawnMaterial(pos)
	v := int(nnue) * (77777 + material) / 77777

	// Shuffling toward the fifty-move draw drags the score to zero.
	v -= v * pos.Rule50() / 212

	if v < valueTBLossInMaxPly+1 {
		v = valueTBLossInMaxPly + 1
	} else if v > valueTBWinInMaxPly-1 {
		v = valueTBWinInMaxPly - 1
	}

	return Result{
		Value:       v,
		SmallNet:    smallNet,
		Accumulator: acc,
		Bucket:      sfnnue.PieceCountBucket(pieceCount),
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
