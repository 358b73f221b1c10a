package nnueprobe

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/hailam/nnueprobe/internal/engine"
	"github.com/hailam/nnueprobe/internal/netfile"
	"github.com/hailam/nnueprobe/internal/position"
	"github.com/hailam/nnueprobe/sfnnue"
)

// ErrNotInitialized reports that the default prober could not locate or load
// its network files. The failure is sticky: every later Default call returns
// the same error until the process restarts.
var ErrNotInitialized = errors.New("nnueprobe: networks not initialized")

// Prober evaluates positions against a fixed pair of networks. It holds no
// mutable state and is safe for concurrent use.
type Prober struct {
	evaluator *engine.Evaluator
}

// New loads both network files and builds a prober from them.
func New(bigFile, smallFile string) (*Prober, error) {
	nets, err := sfnnue.LoadNetworks(bigFile, smallFile)
	if err != nil {
		return nil, err
	}
	return NewFromNetworks(nets), nil
}

// NewFromNetworks wraps already loaded networks. The networks must not be
// mutated afterwards.
func NewFromNetworks(nets *sfnnue.Networks) *Prober {
	return &Prober{evaluator: &engine.Evaluator{Networks: nets}}
}

var (
	defaultOnce   sync.Once
	defaultProber *Prober
	defaultErr    error
)

// Default returns the process-wide prober, loading the network files from
// the standard search paths (see the netfile package) on first use.
func Default() (*Prober, error) {
	defaultOnce.Do(func() {
		dir, err := netfile.Locate()
		if err != nil {
			defaultErr = fmt.Errorf("%w: %w", ErrNotInitialized, err)
			return
		}
		prober, err := New(
			filepath.Join(dir, netfile.BigNet.Name),
			filepath.Join(dir, netfile.SmallNet.Name),
		)
		if err != nil {
			defaultErr = fmt.Errorf("%w: %w", ErrNotInitialized, err)
			return
		}
		defaultProber = prober
	})
	return defaultProber, defaultErr
}

// Evaluate parses fen and returns the final evaluation in centipawns from
// the side to move's point of view. It always equals the FinalEval field of
// EvaluateWithActivations for the same position.
func (p *Prober) Evaluate(fen string) (float64, error) {
	pos, err := position.Parse(fen)
	if err != nil {
		return 0, err
	}
	result := p.evaluator.Evaluate(pos)
	return float64(result.Value) / 100.0, nil
}

// EvaluateWithActivations parses fen, runs the full evaluation and captures
// every intermediate tensor alongside the final score.
//
// The tensors describe the variant picked by the material heuristic. When
// that was the small network and the scalar score fell inside the window
// where the evaluator retries on the big network, the score comes from the
// big network while the tensors keep describing the small one.
func (p *Prober) EvaluateWithActivations(fen string) (*EvaluationResult, error) {
	pos, err := position.Parse(fen)
	if err != nil {
		return nil, err
	}

	result := p.evaluator.Evaluate(pos)

	net := p.evaluator.Networks.Big
	if result.SmallNet {
		net = p.evaluator.Networks.Small
	}

	// Rerun the forward pass over the snapshot to capture the hidden layers.
	var trace sfnnue.LayerTrace
	net.EvaluateTrace(result.Accumulator, pos.SideToMove(), pos.PieceCount(), &trace)

	out := &EvaluationResult{
		UseSmallNet:      result.SmallNet,
		Bucket:           result.Bucket,
		AccumulatorWhite: toFloat32(result.Accumulator.Accumulation[0]),
		AccumulatorBlack: toFloat32(result.Accumulator.Accumulation[1]),
		Layer1:           toFloat32(trace.Layer1),
		Layer2:           toFloat32(trace.Layer2),
		FinalEval:        float64(result.Value) / 100.0,
	}
	for color := 0; color < 2; color++ {
		for bucket, v := range result.Accumulator.PSQTAccumulation[color] {
			out.PSQT[color][bucket] = float32(v)
		}
	}
	out.PSQTEval = out.FinalEval

	return out, nil
}

// NetworkInfo reports the fixed architecture dimensions of the supported
// networks, keyed the way the upstream bindings name them.
func NetworkInfo() map[string]int {
	return map[string]int{
		"TransformedFeatureDimensionsBig":   sfnnue.TransformedFeatureDimensionsBig,
		"TransformedFeatureDimensionsSmall": sfnnue.TransformedFeatureDimensionsSmall,
		"PSQTBuckets":                       sfnnue.PSQTBuckets,
		"L2Big":                             sfnnue.L2,
		"L3Big":                             sfnnue.L3,
		"L2Small":                           sfnnue.L2,
		"L3Small":                           sfnnue.L3,
	}
}
