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

package p434

import (
	"boringssl.googlesource.com/sike/internal/mp"
)

// Fp2ByteLen is the size of an encoded element of Fp^2.
const Fp2ByteLen = 2 * ByteLen

func Add(z, x, y *Fp2) {
	fpAdd(&z.A, &x.A, &y.A)
	fpAdd(&z.B, &x.B, &y.B)
}

func Sub(z, x, y *Fp2) {
	fpSub(&z.A, &x.A, &y.A)
	fpSub(&z.B, &x.B, &y.B)
}

func Neg(z, x *Fp2) {
	fpNeg(&z.A, &x.A)
	fpNeg(&z.B, &x.B)
}

// Conj sets z = a - bi for x = a + bi.
func Conj(z, x *Fp2) {
	z.A = x.A
	fpNeg(&z.B, &x.B)
}

// Div2 sets z = x/2.
func Div2(z, x *Fp2) {
	fpDiv2(&z.A, &x.A)
	fpDiv2(&z.B, &x.B)
}

// Mul sets z = x*y using three base field multiplications.
func Mul(z, x, y *Fp2) {
	// Let (a,b,c,d) = (x.A,x.B,y.A,y.B).
	a := &x.A
	b := &x.B
	c := &y.A
	d := &y.B

	// We want to compute
	//
	// (a + bi)*(c + di) = (a*c - b*d) + (a*d + b*c)i
	//
	// Use Karatsuba's trick: note that
	//
	// (b - a)*(c - d) = (b*c + a*d) - a*c - b*d
	//
	// so (a*d + b*c) = (b-a)*(c-d) + a*c + b*d.
	var ac, bd FpX2
	mp.Mul(ac[:], a[:], c[:]) // = a*c*R*R
	mp.Mul(bd[:], b[:], d[:]) // = b*d*R*R

	var bMinusA, cMinusD Fp
	fpSub(&bMinusA, b, a) // = (b-a)*R
	fpSub(&cMinusD, c, d) // = (c-d)*R

	// Every term is below p^2, so the sum stays below 3p^2 < pR.
	var adPlusBC FpX2
	mp.Mul(adPlusBC[:], bMinusA[:], cMinusD[:]) // = (b-a)*(c-d)*R*R
	mp.Add(adPlusBC[:], adPlusBC[:], ac[:])     // = ((b-a)*(c-d) + a*c)*R*R
	mp.Add(adPlusBC[:], adPlusBC[:], bd[:])     // = ((b-a)*(c-d) + a*c + b*d)*R*R
	montReduce(&z.B, &adPlusBC)                 // = (a*d + b*c)*R mod p

	// If a*c - b*d is negative add p*R, which lands it in [0, pR).
	var acMinusBD FpX2
	borrow := mp.Sub(acMinusBD[:], ac[:], bd[:])
	mp.CondAdd(acMinusBD[NumWords:], p[:], mp.Mask(borrow))
	montReduce(&z.A, &acMinusBD) // = (a*c - b*d)*R mod p
}

// Sqr sets z = x^2 using two base field multiplications.
func Sqr(z, x *Fp2) {
	var a2, aPlusB, aMinusB Fp
	var a2MinB2, ab2 FpX2

	a := &x.A
	b := &x.B

	// (a + bi)*(a + bi) = (a^2 - b^2) + 2abi.
	fpAdd(&a2, a, a)                          // = 2*a*R
	fpAdd(&aPlusB, a, b)                      // = (a+b)*R
	fpSub(&aMinusB, a, b)                     // = (a-b)*R
	mp.Mul(a2MinB2[:], aPlusB[:], aMinusB[:]) // = (a^2 - b^2)*R*R
	mp.Mul(ab2[:], a2[:], b[:])               // = 2*a*b*R*R
	montReduce(&z.A, &a2MinB2)                // = (a^2 - b^2)*R mod p
	montReduce(&z.B, &ab2)                    // = 2*a*b*R mod p
}

// Inv sets z = 1/x. The inverse of zero is zero.
func Inv(z, x *Fp2) {
	// We want to compute
	//
	//    1          1     (a - bi)	    (a - bi)
	// -------- = -------- -------- = -----------
	// (a + bi)   (a + bi) (a - bi)   (a^2 + b^2)
	//
	// Letting c = 1/(a^2 + b^2), this is
	//
	// 1/(a+bi) = a*c - b*ci.
	var n Fp
	norm(&n, x)
	fpInv(&n, &n)
	mulByNormInv(z, x, &n)
}

// Sets n = a^2 + b^2 for x = a + bi.
func norm(n *Fp, x *Fp2) {
	var asq, bsq FpX2
	mp.Mul(asq[:], x.A[:], x.A[:]) // = a*a*R*R
	mp.Mul(bsq[:], x.B[:], x.B[:]) // = b*b*R*R
	mp.Add(asq[:], asq[:], bsq[:]) // = (a^2 + b^2)*R*R
	montReduce(n, &asq)            // = (a^2 + b^2)*R mod p
}

// Sets z = (a - bi)*c for x = a + bi.
func mulByNormInv(z, x *Fp2, c *Fp) {
	var minusB Fp
	fpNeg(&minusB, &x.B)
	fpMul(&z.A, &x.A, c)
	fpMul(&z.B, &minusB, c)
}

// BatchInv sets out[i] = 1/in[i] using a single base field inversion.
// If any input is zero every output is zero. out and in may be the same
// slice.
func BatchInv(out, in []Fp2) {
	if len(out) != len(in) {
		panic("p434: batch inversion length mismatch")
	}
	norms := make([]Fp, len(in))
	for i := range in {
		norm(&norms[i], &in[i])
	}
	fpBatchInv(norms, norms)
	for i := range in {
		mulByNormInv(&out[i], &in[i], &norms[i])
	}
}

// Equal returns 1 if x == y and 0 otherwise.
func Equal(x, y *Fp2) int {
	return fpEqual(&x.A, &y.A) & fpEqual(&x.B, &y.B)
}

// IsZero returns 1 if x == 0 and 0 otherwise.
func IsZero(x *Fp2) int {
	return fpIsZero(&x.A) & fpIsZero(&x.B)
}

// CondSwap exchanges x and y if mask is all-ones and leaves both untouched
// if mask is 0.
func CondSwap(x, y *Fp2, mask uint64) {
	mp.CondSwap(x.A[:], y.A[:], mask)
	mp.CondSwap(x.B[:], y.B[:], mask)
}

// CondMove sets dst = src if mask is all-ones and leaves dst untouched if
// mask is 0.
func CondMove(dst, src *Fp2, mask uint64) {
	mp.CondMove(dst.A[:], src.A[:], mask)
	mp.CondMove(dst.B[:], src.B[:], mask)
}

// FromUint64 returns v as an element of Fp^2.
func FromUint64(v uint64) Fp2 {
	var z Fp2
	z.A[0] = v
	toMont(&z.A, &z.A)
	return z
}

// ToBytes writes the wire encoding of x, a followed by b, each little-endian,
// into out. out must be at least Fp2ByteLen bytes long.
func ToBytes(out []byte, x *Fp2) {
	if len(out) < Fp2ByteLen {
		panic("p434: output byte slice too short")
	}
	fpToBytes(out[:ByteLen], &x.A)
	fpToBytes(out[ByteLen:Fp2ByteLen], &x.B)
}

// FromBytes decodes in[:Fp2ByteLen] into z. It returns 1 if both
// coordinates are canonical, that is below p, and 0 otherwise. z is written
// in both cases so that callers can continue without branching.
func FromBytes(z *Fp2, in []byte) int {
	if len(in) < Fp2ByteLen {
		panic("p434: input byte slice too short")
	}
	okA := fpFromBytes(&z.A, in[:ByteLen])
	okB := fpFromBytes(&z.B, in[ByteLen:Fp2ByteLen])
	return okA & okB
}
