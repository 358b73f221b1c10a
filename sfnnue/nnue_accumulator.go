// Accumulator: the first-layer sums of one position.

package sfnnue

// Accumulator holds the feature transformer sums for one position, one
// slice per perspective (0 = white, 1 = black). It is a plain snapshot; the
// evaluator rebuilds it from scratch for every position.
type Accumulator struct {
	Accumulation     [2][]int16 // [color][HalfDimensions]
	PSQTAccumulation [2][]int32 // [color][PSQTBuckets]
	Computed         [2]bool
}

// NewAccumulator creates an empty accumulator for the given transformer
// width.
func NewAccumulator(halfDims int) *Accumulator {
	return &Accumulator{
		Accumulation: [2][]int16{
			make([]int16, halfDims),
			make([]int16, halfDims),
		},
		PSQTAccumulation: [2][]int32{
			make([]int32, PSQTBuckets),
			make([]int32, PSQTBuckets),
		},
	}
}

// Reset marks both perspectives as not computed. The backing slices are
// reused.
func (a *Accumulator) Reset() {
	a.Computed[0] = false
	a.Computed[1] = false
}
