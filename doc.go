// Package nnueprobe evaluates chess positions with Stockfish NNUE networks
// and exposes the intermediate tensors of the forward pass: per-perspective
// accumulators, PSQT partial sums, both hidden layer activations and the
// final centipawn score.
//
// The quantized integer inference itself lives in the sfnnue package; this
// package wires it to FEN parsing, network file discovery and caching.
//
// Typical use:
//
//	prober, err := nnueprobe.Default()
//	if err != nil {
//		log.Fatal(err)
//	}
//	res, err := prober.EvaluateWithActivations("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(res.FinalEval, len(res.AccumulatorWhite))
//
// Default searches the standard weight directories; New takes explicit file
// paths instead. The bundled command downloads the weights:
//
//	go run github.com/hailam/nnueprobe/cmd/nnueprobe -fetch
package nnueprobe
