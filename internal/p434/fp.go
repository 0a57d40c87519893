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

// Package p434 implements arithmetic in F_p and F_p^2 for the SIDH prime
// p434 = 2^216*3^137 - 1.
//
// Elements are kept in Montgomery form with R = 2^448 and are fully reduced
// into [0, p) on return from every function. All functions are constant
// time and allow the destination to overlap any of the inputs.
package p434

import (
	"boringssl.googlesource.com/sike/internal/mp"
)

// Compute z = x + y (mod p).
func fpAdd(z, x, y *Fp) {
	// x+y < 2p < 2^448, so there is no carry out of the top word.
	mp.Add(z[:], x[:], y[:])
	borrow := mp.Sub(z[:], z[:], p[:])
	mp.CondAdd(z[:], p[:], mp.Mask(borrow))
}

// Compute z = x - y (mod p).
func fpSub(z, x, y *Fp) {
	borrow := mp.Sub(z[:], x[:], y[:])
	mp.CondAdd(z[:], p[:], mp.Mask(borrow))
}

// Compute z = -x (mod p).
func fpNeg(z, x *Fp) {
	var zero Fp
	fpSub(z, &zero, x)
}

// Perform Montgomery reduction: set z = x R^{-1} (mod p). Requires x < pR.
//
// Since p = -1 mod 2^64 the per-word quotient is the word itself, and
// adding m*p = m*(p+1) - m clears that word while touching only the
// non-zero upper words of p+1.
func montReduce(z *Fp, x *FpX2) {
	var t [2*NumWords + 1]uint64
	copy(t[:], x[:])

	for i := 0; i < NumWords; i++ {
		m := t[i]
		c := mp.MulAddWord(t[i+p1Zeros:i+NumWords], p1[p1Zeros:], m)
		mp.AddWord(t[i+NumWords:], c)
	}

	// The quotient is below 2p, so a single subtraction brings it into range.
	copy(z[:], t[NumWords:2*NumWords])
	borrow := mp.Sub(z[:], z[:], p[:])
	mp.CondAdd(z[:], p[:], mp.Mask(borrow))
}

// Compute z = x * y (mod p). Input values must be already in Montgomery
// domain.
func fpMul(z, x, y *Fp) {
	var xy FpX2
	mp.Mul(xy[:], x[:], y[:]) // = x*y*R*R
	montReduce(z, &xy)        // = x*y*R mod p
}

func fpSqr(z, x *Fp) {
	fpMul(z, x, x)
}

// Converts x to Montgomery domain: z = x*R mod p.
func toMont(z, x *Fp) {
	fpMul(z, x, &rSquared)
}

// Converts x from Montgomery domain: z = x*R^{-1} mod p.
func fromMont(z, x *Fp) {
	var wide FpX2
	copy(wide[:], x[:])
	montReduce(z, &wide)
}

// Set z = x^((p-3)/4). If x is square, this is 1/sqrt(x).
//
// Uses a sliding window of size 5 scanning the exponent from the most
// significant bit. See HAC 14.85 for general description.
func p34(z, x *Fp) {
	// lookup[i] = x^(2*i + 1)
	var lookup [16]Fp
	var xx Fp

	fpSqr(&xx, x)
	lookup[0] = *x
	for i := 1; i < len(lookup); i++ {
		fpMul(&lookup[i], &lookup[i-1], &xx)
	}

	*z = lookup[p34Initial]
	for i := range p34Pow {
		for j := uint8(0); j < p34Pow[i]; j++ {
			fpSqr(z, z)
		}
		fpMul(z, z, &lookup[p34Mul[i]])
	}
}

// Compute z = 1/x (mod p) as x^(p-2). The inverse of zero is zero.
func fpInv(z, x *Fp) {
	var t Fp
	fpSqr(&t, x)    // x^2
	p34(&t, &t)     // x^(2(p-3)/4) = x^((p-3)/2)
	fpSqr(&t, &t)   // x^(p-3)
	fpMul(z, &t, x) // x^(p-2)
}

// Compute z = x/2 (mod p).
func fpDiv2(z, x *Fp) {
	*z = *x
	// Make the value even by adding p when it is odd; (x+p)/2 < p.
	carry := mp.CondAdd(z[:], p[:], mp.Mask(x[0]))
	mp.Shr(z[:], z[:], 1)
	z[NumWords-1] |= carry << 63
}

// Sets out[i] = 1/in[i] for every i with a single inversion. If any input
// is zero every output is zero. out and in may be the same slice.
func fpBatchInv(out, in []Fp) {
	n := len(in)
	if len(out) != n {
		panic("p434: batch inversion length mismatch")
	}
	if n == 0 {
		return
	}

	// prefix[i] = in[0]*...*in[i]
	prefix := make([]Fp, n)
	prefix[0] = in[0]
	for i := 1; i < n; i++ {
		fpMul(&prefix[i], &prefix[i-1], &in[i])
	}

	var acc, t Fp
	fpInv(&acc, &prefix[n-1])
	for i := n - 1; i > 0; i-- {
		fpMul(&t, &acc, &prefix[i-1])
		fpMul(&acc, &acc, &in[i])
		out[i] = t
	}
	out[0] = acc
}

// Returns 1 if x == y and 0 otherwise.
func fpEqual(x, y *Fp) int {
	return mp.Equal(x[:], y[:])
}

func fpIsZero(x *Fp) int {
	return mp.IsZero(x[:])
}

// Writes the canonical little-endian encoding of x into out[:ByteLen].
func fpToBytes(out []byte, x *Fp) {
	var a Fp
	fromMont(&a, x)
	for i := 0; i < ByteLen; i++ {
		out[i] = byte(a[i/8] >> (8 * uint(i%8)))
	}
}

// Decodes in[:ByteLen] into z. Returns 1 if the encoded integer is below p
// and 0 otherwise; z is set in both cases.
func fpFromBytes(z *Fp, in []byte) int {
	var a Fp
	for i := 0; i < ByteLen; i++ {
		a[i/8] |= uint64(in[i]) << (8 * uint(i%8))
	}
	var t Fp
	borrow := mp.Sub(t[:], a[:], p[:])
	// a < 2^440, so a*R^2 < pR and the conversion stays within bounds.
	toMont(z, &a)
	return int(borrow)
}
