// Package parity validates and re-inserts the odd parity bit carried on
// every line-21 data byte.
package parity

import "math/bits"

// Check strips the parity bit from a raw 8-bit symbol and reports whether
// the symbol carries valid odd parity. The returned byte is the 7 data
// bits.
func Check(raw byte) (byte, bool) {
	return raw & 0x7F, bits.OnesCount8(raw)%2 == 1
}

// WithParity returns the 7-bit value with its odd parity bit re-inserted,
// as transmitted on the wire and written to SCC files.
func WithParity(b byte) byte {
	b &= 0x7F
	if bits.OnesCount8(b)%2 == 0 {
		return b | 0x80
	}
	return b
}

// Decode validates both symbols of a field's byte pair.
func Decode(raw1, raw2 byte) (b1, b2 byte, valid1, valid2 bool) {
	b1, valid1 = Check(raw1)
	b2, valid2 = Check(raw2)
	return b1, b2, valid1, valid2
}
