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

// Package isogeny implements x-only arithmetic on Montgomery curves
// By^2 = x^3 + (A/C)x^2 + x over F_p^2 together with the 3- and 4-isogenies
// used by SIDH. Formulas and algorithm numbers follow the SIKE round 3
// submission document.
package isogeny

import (
	fp "boringssl.googlesource.com/sike/internal/p434"
)

// A point on the projective line P^1(F_{p^2}).
//
// This represents a point on the Kummer line of a Montgomery curve. Z = 0
// is the point at infinity.
type Point struct {
	X fp.Fp2
	Z fp.Fp2
}

// Curve holds the projective coefficient (A:C) of the curve
// Cy^2 = x^3 + Ax^2 + x.
type Curve struct {
	A fp.Fp2
	C fp.Fp2
}

// Stores curve projective parameters equivalent to A/C. Meaning of the
// values depends on the context. When working with isogenies over
// subgroup that are powers of:
// * three then  (A:C) ~ (A+2C:A-2C)
// * four then   (A:C) ~ (A+2C:  4C)
type Coefficients struct {
	A fp.Fp2
	C fp.Fp2
}

// Affine returns the point (x:1).
func Affine(x *fp.Fp2) Point {
	return Point{X: *x, Z: fp.One()}
}

// Coeffs3 computes the equivalence (A:C) ~ (A+2C : A-2C).
func Coeffs3(c *Curve) Coefficients {
	var coef Coefficients
	var c2 fp.Fp2

	fp.Add(&c2, &c.C, &c.C)
	// A24p = A+2*C
	fp.Add(&coef.A, &c.A, &c2)
	// A24m = A-2*C
	fp.Sub(&coef.C, &c.A, &c2)
	return coef
}

// Coeffs4 computes the equivalence (A:C) ~ (A+2C : 4C).
func Coeffs4(c *Curve) Coefficients {
	var coef Coefficients

	fp.Add(&coef.C, &c.C, &c.C)
	// A24p = A+2C
	fp.Add(&coef.A, &c.A, &coef.C)
	// C24 = 4*C
	fp.Add(&coef.C, &coef.C, &coef.C)
	return coef
}

// Recover3 recovers (A:C) from the projectively equivalent (A+2C:A-2C).
// The result is (4A:4C).
func Recover3(coef *Coefficients) Curve {
	var c Curve
	fp.Add(&c.A, &coef.A, &coef.C)
	// 2*(A+2C+A-2C) = 4A
	fp.Add(&c.A, &c.A, &c.A)
	// A+2C-(A-2C) = 4C
	fp.Sub(&c.C, &coef.A, &coef.C)
	return c
}

// Recover4 recovers (A:C) from the projectively equivalent (A+2C:4C).
func Recover4(coef *Coefficients) Curve {
	var c Curve
	// C = 4C/2 = 2C
	fp.Div2(&c.C, &coef.C)
	// A = A+2C - 2C
	fp.Sub(&c.A, &coef.A, &c.C)
	// C = 2C/2
	fp.Div2(&c.C, &c.C)
	return c
}

// Returns (A+2C)/4C, the constant used by the Montgomery ladder.
func aPlus2Over4(c *Curve) fp.Fp2 {
	var ret, tmp fp.Fp2

	// 2C
	fp.Add(&tmp, &c.C, &c.C)
	// A+2C
	fp.Add(&ret, &c.A, &tmp)
	// 1/4C
	fp.Add(&tmp, &tmp, &tmp)
	fp.Inv(&tmp, &tmp)
	// A+2C/4C
	fp.Mul(&ret, &ret, &tmp)
	return ret
}

// JInvariant computes the j-invariant of the curve with coefficient (A:C).
// Implementation corresponds to Algorithm 9 from SIKE. A singular curve,
// A^2 = 4C^2, yields zero.
func JInvariant(c *Curve) fp.Fp2 {
	var j, t0, t1 fp.Fp2

	fp.Sqr(&j, &c.A)      // j  = A^2
	fp.Sqr(&t1, &c.C)     // t1 = C^2
	fp.Add(&t0, &t1, &t1) // t0 = t1 + t1
	fp.Sub(&t0, &j, &t0)  // t0 = j - t0
	fp.Sub(&t0, &t0, &t1) // t0 = t0 - t1
	fp.Sub(&j, &t0, &t1)  // j  = t0 - t1
	fp.Sqr(&t1, &t1)      // t1 = t1^2
	fp.Mul(&j, &j, &t1)   // j  = j * t1
	fp.Add(&t0, &t0, &t0) // t0 = t0 + t0
	fp.Add(&t0, &t0, &t0) // t0 = t0 + t0
	fp.Sqr(&t1, &t0)      // t1 = t0^2
	fp.Mul(&t0, &t0, &t1) // t0 = t0 * t1
	fp.Add(&t0, &t0, &t0) // t0 = t0 + t0
	fp.Add(&t0, &t0, &t0) // t0 = t0 + t0
	fp.Inv(&j, &j)        // j  = 1/j
	fp.Mul(&j, &t0, &j)   // j  = t0 * j
	return j
}

// RecoverA returns the affine coefficient A of the curve on which x(P),
// x(Q) and x(Q-P) lie. This is Algorithm 10 from SIKE.
func RecoverA(xp, xq, xr *fp.Fp2) fp.Fp2 {
	var a, t0, t1 fp.Fp2
	one := fp.One()

	fp.Add(&t1, xp, xq)   // t1 = Xp + Xq
	fp.Mul(&t0, xp, xq)   // t0 = Xp * Xq
	fp.Mul(&a, xr, &t1)   // A  = X(q-p) * t1
	fp.Add(&a, &a, &t0)   // A  = A + t0
	fp.Mul(&t0, &t0, xr)  // t0 = t0 * X(q-p)
	fp.Sub(&a, &a, &one)  // A  = A - 1
	fp.Add(&t0, &t0, &t0) // t0 = t0 + t0
	fp.Add(&t1, &t1, xr)  // t1 = t1 + X(q-p)
	fp.Add(&t0, &t0, &t0) // t0 = t0 + t0
	fp.Sqr(&a, &a)        // A  = A^2
	fp.Inv(&t0, &t0)      // t0 = 1/t0
	fp.Mul(&a, &a, &t0)   // A  = A * t0
	fp.Sub(&a, &a, &t1)   // A  = A - t1
	return a
}

// Inv3Way replaces z1, z2 and z3 with their inverses using a single
// inversion.
func Inv3Way(z1, z2, z3 *fp.Fp2) {
	zs := []fp.Fp2{*z1, *z2, *z3}
	fp.BatchInv(zs, zs)
	*z1, *z2, *z3 = zs[0], zs[1], zs[2]
}

// XDbl computes x(2P) on the curve with coefficients (A+2C : 4C).
func XDbl(p *Point, coef *Coefficients) Point {
	var t0, t1 fp.Fp2
	var q Point

	fp.Sub(&t0, &p.X, &p.Z)    // t0  = Xp - Zp
	fp.Add(&t1, &p.X, &p.Z)    // t1  = Xp + Zp
	fp.Sqr(&t0, &t0)           // t0  = t0 ^ 2
	fp.Sqr(&t1, &t1)           // t1  = t1 ^ 2
	fp.Mul(&q.Z, &coef.C, &t0) // Z2p = C24 * t0
	fp.Mul(&q.X, &q.Z, &t1)    // X2p = Z2p * t1
	fp.Sub(&t1, &t1, &t0)      // t1  = t1 - t0
	fp.Mul(&t0, &coef.A, &t1)  // t0  = A24+ * t1
	fp.Add(&q.Z, &q.Z, &t0)    // Z2p = Z2p + t0
	fp.Mul(&q.Z, &q.Z, &t1)    // Z2p = Z2p * t1
	return q
}

// XDble computes x([2^e]P) by e successive doublings.
func XDble(p *Point, coef *Coefficients, e uint32) Point {
	q := *p
	for i := uint32(0); i < e; i++ {
		q = XDbl(&q, coef)
	}
	return q
}

// XTpl computes x(3P) on the curve with coefficients (A+2C : A-2C).
func XTpl(p *Point, coef *Coefficients) Point {
	var t0, t1, t2, t3, t4, t5, t6 fp.Fp2
	var q Point

	fp.Sub(&t0, &p.X, &p.Z)   // t0  = Xp - Zp
	fp.Sqr(&t2, &t0)          // t2  = t0^2
	fp.Add(&t1, &p.X, &p.Z)   // t1  = Xp + Zp
	fp.Sqr(&t3, &t1)          // t3  = t1^2
	fp.Add(&t4, &t1, &t0)     // t4  = t1 + t0
	fp.Sub(&t0, &t1, &t0)     // t0  = t1 - t0
	fp.Sqr(&t1, &t4)          // t1  = t4^2
	fp.Sub(&t1, &t1, &t3)     // t1  = t1 - t3
	fp.Sub(&t1, &t1, &t2)     // t1  = t1 - t2
	fp.Mul(&t5, &t3, &coef.A) // t5  = t3 * A24+
	fp.Mul(&t3, &t3, &t5)     // t3  = t5 * t3
	fp.Mul(&t6, &t2, &coef.C) // t6  = t2 * A24-
	fp.Mul(&t2, &t2, &t6)     // t2  = t2 * t6
	fp.Sub(&t3, &t2, &t3)     // t3  = t2 - t3
	fp.Sub(&t2, &t5, &t6)     // t2  = t5 - t6
	fp.Mul(&t1, &t2, &t1)     // t1  = t2 * t1
	fp.Add(&t2, &t3, &t1)     // t2  = t3 + t1
	fp.Sqr(&t2, &t2)          // t2  = t2^2
	fp.Mul(&q.X, &t2, &t4)    // X3p = t2 * t4
	fp.Sub(&t1, &t3, &t1)     // t1  = t3 - t1
	fp.Sqr(&t1, &t1)          // t1  = t1^2
	fp.Mul(&q.Z, &t1, &t0)    // Z3p = t1 * t0
	return q
}

// XTple computes x([3^e]P) by e successive triplings.
func XTple(p *Point, coef *Coefficients, e uint32) Point {
	q := *p
	for i := uint32(0); i < e; i++ {
		q = XTpl(&q, coef)
	}
	return q
}

// XAdd computes x(P+Q) given x(P), x(Q) and x(P-Q).
func XAdd(p, q, pmq *Point) Point {
	var t0, t1, t2, t3 fp.Fp2
	var r Point

	fp.Add(&t0, &p.X, &p.Z)    // t0 = Xp + Zp
	fp.Sub(&t1, &p.X, &p.Z)    // t1 = Xp - Zp
	fp.Sub(&t2, &q.X, &q.Z)    // t2 = Xq - Zq
	fp.Add(&t3, &q.X, &q.Z)    // t3 = Xq + Zq
	fp.Mul(&t0, &t0, &t2)      // t0 = t0 * t2
	fp.Mul(&t1, &t1, &t3)      // t1 = t1 * t3
	fp.Add(&r.X, &t0, &t1)     // X  = t0 + t1
	fp.Sub(&r.Z, &t0, &t1)     // Z  = t0 - t1
	fp.Sqr(&r.X, &r.X)         // X  = X^2
	fp.Sqr(&r.Z, &r.Z)         // Z  = Z^2
	fp.Mul(&r.X, &pmq.Z, &r.X) // X  = Z(p-q) * X
	fp.Mul(&r.Z, &pmq.X, &r.Z) // Z  = X(p-q) * Z
	return r
}

// XDblAdd is the combined coordinate doubling and differential addition.
// Takes projective points P, Q, Q-P and (A+2C)/4C curve coefficient.
// Returns 2*P and P+Q. Corresponds to Algorithm 5 of SIKE.
func XDblAdd(p, q, qmp *Point, a24 *fp.Fp2) (dblP, pAddQ Point) {
	var t0, t1, t2 fp.Fp2
	xQmP, zQmP := &qmp.X, &qmp.Z
	xPaQ, zPaQ := &pAddQ.X, &pAddQ.Z
	x2P, z2P := &dblP.X, &dblP.Z
	xP, zP := &p.X, &p.Z
	xQ, zQ := &q.X, &q.Z

	fp.Add(&t0, xP, zP)      // t0   = Xp+Zp
	fp.Sub(&t1, xP, zP)      // t1   = Xp-Zp
	fp.Sqr(x2P, &t0)         // 2P.X = t0^2
	fp.Sub(&t2, xQ, zQ)      // t2   = Xq-Zq
	fp.Add(xPaQ, xQ, zQ)     // Xp+q = Xq+Zq
	fp.Mul(&t0, &t0, &t2)    // t0   = t0 * t2
	fp.Mul(z2P, &t1, &t1)    // 2P.Z = t1 * t1
	fp.Mul(&t1, &t1, xPaQ)   // t1   = t1 * Xp+q
	fp.Sub(&t2, x2P, z2P)    // t2   = 2P.X - 2P.Z
	fp.Mul(x2P, x2P, z2P)    // 2P.X = 2P.X * 2P.Z
	fp.Mul(xPaQ, a24, &t2)   // Xp+q = A24 * t2
	fp.Sub(zPaQ, &t0, &t1)   // Zp+q = t0 - t1
	fp.Add(z2P, xPaQ, z2P)   // 2P.Z = Xp+q + 2P.Z
	fp.Add(xPaQ, &t0, &t1)   // Xp+q = t0 + t1
	fp.Mul(z2P, z2P, &t2)    // 2P.Z = 2P.Z * t2
	fp.Sqr(zPaQ, zPaQ)       // Zp+q = Zp+q ^ 2
	fp.Sqr(xPaQ, xPaQ)       // Xp+q = Xp+q ^ 2
	fp.Mul(zPaQ, xQmP, zPaQ) // Zp+q = Xq-p * Zp+q
	fp.Mul(xPaQ, zQmP, xPaQ) // Xp+q = Zq-p * Xp+q
	return
}

// Ladder3Pt is a right-to-left point multiplication that given the
// x-coordinate of P, Q and P-Q calculates the x-coordinate of R=P+[scalar]Q.
// nbits must be at most 8*len(scalar). The sequence of operations depends
// only on nbits.
func Ladder3Pt(c *Curve, p, q, pmq *Point, nbits uint, scalar []byte) Point {
	var r0, r1, r2 Point
	a24 := aPlus2Over4(c)
	r1 = *p
	r2 = *pmq
	r0 = *q

	// Iterate over the bits of the scalar, bottom to top
	var prevBit uint64
	for i := uint(0); i < nbits; i++ {
		bit := uint64(scalar[i>>3]>>(i&7)) & 1
		swap := prevBit ^ bit
		prevBit = bit
		condSwap(&r1, &r2, swap)
		r0, r2 = XDblAdd(&r0, &r2, &r1, &a24)
	}
	condSwap(&r1, &r2, prevBit)
	return r1
}

// Swaps p and q when bit is 1.
func condSwap(p, q *Point, bit uint64) {
	mask := -(bit & 1)
	fp.CondSwap(&p.X, &q.X, mask)
	fp.CondSwap(&p.Z, &q.Z, mask)
}
