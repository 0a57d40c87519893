// Copyright (c) 2019, Cloudflare Inc.
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted, provided that the above
// copyright notice and this permission notice appear in all copies.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
// WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY
// SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
// WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION
// OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN
// CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.

// Package mp implements fixed-width multiprecision arithmetic on
// little-endian slices of 64-bit words.
//
// Every function runs in time that depends only on the slice lengths, never
// on the values stored in them. Slices passed to a single call must have the
// lengths the function documents; anything else is a programming error and
// panics.
package mp

import (
	"math/bits"
)

func checkLen(n int, xs ...[]uint64) {
	for _, x := range xs {
		if len(x) != n {
			panic("mp: operand length mismatch")
		}
	}
}

// checkMask panics unless mask is 0 or all-ones. Both valid masks take the
// same path through the comparison.
func checkMask(mask uint64) {
	if (mask+1)&^1 != 0 {
		panic("mp: selector must be 0 or all-ones")
	}
}

// Mask returns all-ones if the lowest bit of b is set and 0 otherwise.
func Mask(b uint64) uint64 {
	return -(b & 1)
}

// Add sets z = x + y and returns the carry out of the top word.
func Add(z, x, y []uint64) (carry uint64) {
	checkLen(len(z), x, y)
	for i := range z {
		z[i], carry = bits.Add64(x[i], y[i], carry)
	}
	return carry
}

// Sub sets z = x - y and returns the borrow out of the top word.
func Sub(z, x, y []uint64) (borrow uint64) {
	checkLen(len(z), x, y)
	for i := range z {
		z[i], borrow = bits.Sub64(x[i], y[i], borrow)
	}
	return borrow
}

// CondAdd sets z = z + (x & mask) and returns the carry out.
func CondAdd(z, x []uint64, mask uint64) (carry uint64) {
	checkLen(len(z), x)
	checkMask(mask)
	for i := range z {
		z[i], carry = bits.Add64(z[i], x[i]&mask, carry)
	}
	return carry
}

// AddWord adds the single word c to z and returns the carry out.
// The carry is propagated through every word of z.
func AddWord(z []uint64, c uint64) (carry uint64) {
	carry = c
	for i := range z {
		z[i], carry = bits.Add64(z[i], carry, 0)
	}
	return carry
}

// Cmp returns -1, 0 or +1 depending on whether x < y, x == y or x > y.
func Cmp(x, y []uint64) int {
	checkLen(len(x), y)
	var bxy, byx uint64
	for i := range x {
		_, bxy = bits.Sub64(x[i], y[i], bxy)
		_, byx = bits.Sub64(y[i], x[i], byx)
	}
	return int(byx) - int(bxy)
}

// Equal returns 1 if x == y and 0 otherwise.
func Equal(x, y []uint64) int {
	checkLen(len(x), y)
	var acc uint64
	for i := range x {
		acc |= x[i] ^ y[i]
	}
	return int(1 ^ ((acc | -acc) >> 63))
}

// IsZero returns 1 if every word of x is zero and 0 otherwise.
func IsZero(x []uint64) int {
	var acc uint64
	for i := range x {
		acc |= x[i]
	}
	return int(1 ^ ((acc | -acc) >> 63))
}

// CondMove copies src into dst if mask is all-ones and leaves dst untouched
// if mask is 0. Any other mask panics.
func CondMove(dst, src []uint64, mask uint64) {
	checkLen(len(dst), src)
	checkMask(mask)
	for i := range dst {
		dst[i] ^= (dst[i] ^ src[i]) & mask
	}
}

// CondSwap exchanges x and y if mask is all-ones and leaves both untouched
// if mask is 0. Any other mask panics.
func CondSwap(x, y []uint64, mask uint64) {
	checkLen(len(x), y)
	checkMask(mask)
	for i := range x {
		t := (x[i] ^ y[i]) & mask
		x[i] ^= t
		y[i] ^= t
	}
}

// Shl sets z = x << n, discarding bits shifted past the top word.
// The shift amount is public. z may alias x.
func Shl(z, x []uint64, n uint) {
	checkLen(len(z), x)
	ws, bs := int(n/64), n%64
	for i := len(z) - 1; i >= 0; i-- {
		var w uint64
		if j := i - ws; j >= 0 {
			w = x[j] << bs
			if j > 0 {
				w |= x[j-1] >> (64 - bs)
			}
		}
		z[i] = w
	}
}

// Shr sets z = x >> n. The shift amount is public. z may alias x.
func Shr(z, x []uint64, n uint) {
	checkLen(len(z), x)
	ws, bs := int(n/64), n%64
	for i := range z {
		var w uint64
		if j := i + ws; j < len(x) {
			w = x[j] >> bs
			if j+1 < len(x) {
				w |= x[j+1] << (64 - bs)
			}
		}
		z[i] = w
	}
}

// MulWord returns the double-word product of x and y.
func MulWord(x, y uint64) (hi, lo uint64) {
	return bits.Mul64(x, y)
}

// MulAddWord sets z = z + x*d and returns the word carried out of the top.
func MulAddWord(z, x []uint64, d uint64) (carry uint64) {
	checkLen(len(z), x)
	for i := range z {
		hi, lo := MulWord(x[i], d)
		var c uint64
		lo, c = bits.Add64(lo, z[i], 0)
		hi += c
		lo, c = bits.Add64(lo, carry, 0)
		hi += c
		z[i] = lo
		carry = hi
	}
	return carry
}

// Mul sets z = x * y using product scanning. x and y must have the same
// length n and z must have length 2n; z must not alias x or y.
func Mul(z, x, y []uint64) {
	n := len(x)
	checkLen(n, y)
	checkLen(2*n, z)

	// (t:u:v) is the three-word column accumulator.
	var t, u, v uint64
	for i := 0; i < 2*n-1; i++ {
		lo := 0
		if i >= n {
			lo = i - n + 1
		}
		hiIdx := i
		if hiIdx > n-1 {
			hiIdx = n - 1
		}
		for j := lo; j <= hiIdx; j++ {
			h, l := MulWord(x[j], y[i-j])
			var c uint64
			v, c = bits.Add64(v, l, 0)
			u, c = bits.Add64(u, h, c)
			t += c
		}
		z[i] = v
		v, u, t = u, t, 0
	}
	z[2*n-1] = v
}
