// Package common holds binary I/O helpers shared by the network loader and
// the layer implementations.
package common

import (
	"encoding/binary"
	"io"

	"golang.org/x/exp/constraints"
)

// MaxSimdWidth mirrors the padding Stockfish applies to layer dimensions.
// Weight files store padded rows, so the constant is part of the file format
// even though this implementation is scalar.
const MaxSimdWidth = 32

// CeilToMultiple rounds n up to the next multiple of base.
func CeilToMultiple[T constraints.Integer](n, base T) T {
	return (n + base - 1) / base * base
}

// ReadLittleEndian reads a single fixed-size integer in little-endian byte
// order.
func ReadLittleEndian[T int8 | uint8 | int16 | uint16 | int32 | uint32](r io.Reader) (T, error) {
	var v T
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

// ReadLittleEndianSlice fills out with little-endian integers read from r.
func ReadLittleEndianSlice[T int8 | uint8 | int16 | uint16 | int32 | uint32](r io.Reader, out []T) error {
	return binary.Read(r, binary.LittleEndian, out)
}

// WriteLittleEndian writes a single fixed-size integer in little-endian byte
// order.
func WriteLittleEndian[T int8 | uint8 | int16 | uint16 | int32 | uint32](w io.Writer, v T) error {
	return binary.Write(w, binary.LittleEndian, v)
}

// WriteLittleEndianSlice writes values to w in little-endian byte order.
func WriteLittleEndianSlice[T int8 | uint8 | int16 | uint16 | int32 | uint32](w io.Writer, values []T) error {
	return binary.Write(w, binary.LittleEndian, values)
}
