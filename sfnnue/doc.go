/*
Package sfnnue re-executes the quantized integer inference of Stockfish's
NNUE evaluation and exposes every intermediate tensor.

This code is derived from Stockfish, a UCI chess playing engine.
Copyright (C) 2004-2026 The Stockfish developers (see AUTHORS file)

Stockfish is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Stockfish is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.

Original C++ source: https://github.com/official-stockfish/Stockfish

# Architecture

The feature set is HalfKAv2_hm: every (king square, piece, square) triple
seen from one perspective, with the board mirrored so the king stays on
files e..h. Two network variants share the layout and differ only in
accumulator width, 3072 lanes for the big network and 128 for the small
one. Each variant carries eight layer stacks; the piece count of the
position selects one.

A forward pass accumulates the active feature columns per perspective,
squashes lane pairs into bytes (PairwiseMul), feeds them through a sparse
affine layer, two activations, and two dense layers, and adds a skip
connection taken directly from the first affine layer. All arithmetic is
integer; the inference is bit-exact against Stockfish's scalar path, so a
given network file and position always produce the same tensors.

# Usage

	nets, err := sfnnue.LoadNetworks("nn-1c0000000000.nnue", "nn-37f18f62d772.nnue")
	if err != nil {
		log.Fatal(err)
	}

	acc := sfnnue.NewAccumulator(nets.Big.FeatureTransformer.HalfDimensions)
	// fill acc via FeatureTransformer.ComputeAccumulator, then:
	psqt, positional := nets.Big.Evaluate(acc, sideToMove, pieceCount)
*/
package sfnnue
