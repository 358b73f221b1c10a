package nnueprobe

// EvaluationResult carries the final score of one evaluation together with
// every intermediate tensor of the forward pass. Tensor values are quantized
// integers widened to float32, so they are exact.
type EvaluationResult struct {
	// UseSmallNet is the material-based variant choice. All tensors below
	// come from that variant, even when the scalar score was recomputed on
	// the big network afterwards (see Prober.EvaluateWithActivations).
	UseSmallNet bool `json:"use_small_net"`

	// Bucket is the layer stack index, (pieceCount-1)/4.
	Bucket int `json:"bucket"`

	// AccumulatorWhite and AccumulatorBlack are the pre-activation first
	// hidden layer of each perspective: 3072 values for the big variant,
	// 128 for the small one.
	AccumulatorWhite []float32 `json:"accumulator_white"`
	AccumulatorBlack []float32 `json:"accumulator_black"`

	// PSQT holds the raw per-bucket PSQT partial sums of both perspectives,
	// still scaled by OutputScale.
	PSQT [2][8]float32 `json:"psqt"`

	// Layer1 is the fc_1 input: 15 squared-clipped fc_0 activations followed
	// by 15 clipped ones. Layer2 is the clipped fc_1 output, 32 values.
	Layer1 []float32 `json:"layer1"`
	Layer2 []float32 `json:"layer2"`

	// PSQTEval mirrors FinalEval: the wrapped evaluator exposes no separate
	// PSQT-only score, matching the upstream tuple layout.
	PSQTEval float64 `json:"psqt_eval_cp"`

	// FinalEval is the blended evaluation in centipawns, from the side to
	// move's point of view.
	FinalEval float64 `json:"final_eval_cp"`
}

func toFloat32[T int16 | uint8 | int32](values []T) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}
