// Shared constants, quantization primitives and the LEB128 codec for the
// network file format.

package sfnnue

import (
	"fmt"
	"io"

	"github.com/hailam/nnueprobe/sfnnue/common"
)

// Type aliases matching the quantized types in the network file.
type (
	BiasType               = int16
	WeightType             = int16
	PSQTWeightType         = int32
	IndexType              = uint32
	TransformedFeatureType = uint8
)

// Version of the evaluation file format.
const Version uint32 = 0x7AF32F20

// OutputScale divides the final network output; WeightScaleBits is the
// fixed-point shift the activations apply.
const (
	OutputScale     = 16
	WeightScaleBits = 6
)

// Magic string preceding LEB128-compressed parameter blocks.
const Leb128MagicString = "COMPRESSED_LEB128"

// ClampActivation clamps a raw accumulator lane to the quantized activation
// range [0, 127].
func ClampActivation(v int16) int16 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return v
}

// PairwiseMul combines two accumulator lanes into one transformed feature:
// each operand is clamped to [0, 127], multiplied, and scaled back down by
// 128. The result never exceeds 127*127/128 = 126.
func PairwiseMul(a, b int16) uint8 {
	return uint8(int32(ClampActivation(a)) * int32(ClampActivation(b)) / 128)
}

// leb128Bits is the width of the decoded integer type, used for sign
// extension and overflow cutoff.
func leb128Bits[T int16 | int32](v T) uint {
	if _, ok := any(v).(int16); ok {
		return 16
	}
	return 32
}

// ReadLEB128 decodes len(out) signed integers from a compressed parameter
// block. The block starts with the magic string and a byte count, which must
// be consumed exactly.
func ReadLEB128[T int16 | int32](r io.Reader, out []T) error {
	magic := make([]byte, len(Leb128MagicString))
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("failed to read LEB128 magic: %w", err)
	}
	if string(magic) != Leb128MagicString {
		return fmt.Errorf("invalid LEB128 magic: expected %q, got %q", Leb128MagicString, string(magic))
	}

	bytesLeft, err := common.ReadLittleEndian[uint32](r)
	if err != nil {
		return fmt.Errorf("failed to read LEB128 byte count: %w", err)
	}

	const bufSize = 4096
	buf := make([]byte, bufSize)
	bufPos := uint32(bufSize) // start empty to trigger the first refill

	for i := range out {
		var result T
		var shift uint

		for {
			if bufPos == bufSize {
				toRead := min(bytesLeft, bufSize)
				if toRead == 0 {
					return fmt.Errorf("LEB128 block ended after %d of %d values", i, len(out))
				}
				if _, err := io.ReadFull(r, buf[:toRead]); err != nil {
					return fmt.Errorf("failed to read LEB128 data: %w", err)
				}
				bufPos = 0
			}

			b := buf[bufPos]
			bufPos++
			bytesLeft--

			result |= T(b&0x7f) << shift
			shift += 7

			if b&0x80 == 0 {
				if bits := leb128Bits(result); shift < bits && b&0x40 != 0 {
					result |= ^T(0) << shift
				}
				break
			}

			if shift >= leb128Bits(result) {
				break
			}
		}

		out[i] = result
	}

	if bytesLeft != 0 {
		return fmt.Errorf("LEB128 block has %d trailing bytes", bytesLeft)
	}

	return nil
}

// WriteLEB128 encodes values as a compressed parameter block in the same
// layout ReadLEB128 expects.
func WriteLEB128[T int16 | int32](w io.Writer, values []T) error {
	if _, err := w.Write([]byte(Leb128MagicString)); err != nil {
		return fmt.Errorf("failed to write LEB128 magic: %w", err)
	}

	// First pass counts the encoded size, the header needs it up front.
	var byteCount uint32
	for _, value := range values {
		v := value
		for {
			b := byte(v & 0x7f)
			v >>= 7
			byteCount++
			if (b&0x40 == 0 && v == 0) || (b&0x40 != 0 && v == -1) {
				break
			}
		}
	}

	if err := common.WriteLittleEndian(w, byteCount); err != nil {
		return fmt.Errorf("failed to write LEB128 byte count: %w", err)
	}

	const bufSize = 4096
	buf := make([]byte, 0, bufSize)

	flush := func() error {
		if len(buf) > 0 {
			if _, err := w.Write(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
		return nil
	}

	for _, value := range values {
		v := value
		for {
			b := byte(v & 0x7f)
			v >>= 7
			done := (b&0x40 == 0 && v == 0) || (b&0x40 != 0 && v == -1)
			if !done {
				b |= 0x80
			}
			buf = append(buf, b)
			if len(buf) == bufSize {
				if err := flush(); err != nil {
					return err
				}
			}
			if done {
				break
			}
		}
	}

	return flush()
}
