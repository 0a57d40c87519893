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

package isogeny

import (
	fp "boringssl.googlesource.com/sike/internal/p434"
)

// Interface for working with isogenies.
type Isogeny interface {
	// Given a torsion point on a curve computes isogenous curve.
	// Returns curve coefficients (A:C), so that E_(A/C) = E_(A/C)/<P>,
	// where P is a provided projective point. Sets also isogeny constants
	// that are needed for isogeny evaluation.
	GenerateCurve(*Point) Coefficients
	// Evaluates isogeny at caller provided point. Requires isogeny curve constants
	// to be earlier computed by GenerateCurve.
	EvaluatePoint(*Point) Point
}

// Isogeny3 stores the constants of a 3-isogeny.
type Isogeny3 struct {
	k1 fp.Fp2
	k2 fp.Fp2
}

// Isogeny4 stores the constants of a 4-isogeny.
type Isogeny4 struct {
	Isogeny3
	k3 fp.Fp2
}

// Given a three-torsion point p = x(PB) on the curve E_(A:C), construct the
// three-isogeny phi : E_(A:C) -> E_(A:C)/<P_3> = E_(A':C').
//
// Input: (XP_3: ZP_3), where P_3 has exact order 3 on E_A/C
// Output: * Curve coordinates (A' + 2C', A' - 2C') corresponding to E_A'/C' = A_E/C/<P3>
//         * isogeny phi with constants in F_p^2
func (phi *Isogeny3) GenerateCurve(p *Point) Coefficients {
	var t0, t1, t2, t3, t4 fp.Fp2
	var coef Coefficients
	var k1, k2 = &phi.k1, &phi.k2

	fp.Sub(k1, &p.X, &p.Z)        // K1 = XP3 - ZP3
	fp.Sqr(&t0, k1)               // t0 = K1^2
	fp.Add(k2, &p.X, &p.Z)        // K2 = XP3 + ZP3
	fp.Sqr(&t1, k2)               // t1 = K2^2
	fp.Add(&t2, &t0, &t1)         // t2 = t0 + t1
	fp.Add(&t3, k1, k2)           // t3 = K1 + K2
	fp.Sqr(&t3, &t3)              // t3 = t3^2
	fp.Sub(&t3, &t3, &t2)         // t3 = t3 - t2
	fp.Add(&t2, &t1, &t3)         // t2 = t1 + t3
	fp.Add(&t3, &t3, &t0)         // t3 = t3 + t0
	fp.Add(&t4, &t3, &t0)         // t4 = t3 + t0
	fp.Add(&t4, &t4, &t4)         // t4 = t4 + t4
	fp.Add(&t4, &t1, &t4)         // t4 = t1 + t4
	fp.Mul(&coef.C, &t2, &t4)     // A24m = t2 * t4
	fp.Add(&t4, &t1, &t2)         // t4 = t1 + t2
	fp.Add(&t4, &t4, &t4)         // t4 = t4 + t4
	fp.Add(&t4, &t0, &t4)         // t4 = t0 + t4
	fp.Mul(&t4, &t3, &t4)         // t4 = t3 * t4
	fp.Sub(&t0, &t4, &coef.C)     // t0 = t4 - A24m
	fp.Add(&coef.A, &coef.C, &t0) // A24p = A24m + t0
	return coef
}

// Given a 3-isogeny phi and a point pB = x(PB), compute x(QB), the x-coordinate
// of the image QB = phi(PB) of PB under phi : E_(A:C) -> E_(A':C').
//
// The output xQ = x(Q) is then a point on the curve E_(A':C'); the curve
// parameters are returned by the GenerateCurve function used to construct phi.
func (phi *Isogeny3) EvaluatePoint(p *Point) Point {
	var t0, t1, t2 fp.Fp2
	var q Point
	var k1, k2 = &phi.k1, &phi.k2

	fp.Add(&t0, &p.X, &p.Z) // t0 = XQ + ZQ
	fp.Sub(&t1, &p.X, &p.Z) // t1 = XQ - ZQ
	fp.Mul(&t0, k1, &t0)    // t2 = K1 * t0
	fp.Mul(&t1, k2, &t1)    // t1 = K2 * t1
	fp.Add(&t2, &t0, &t1)   // t2 = t0 + t1
	fp.Sub(&t0, &t1, &t0)   // t0 = t1 - t0
	fp.Sqr(&t2, &t2)        // t2 = t2 ^ 2
	fp.Sqr(&t0, &t0)        // t0 = t0 ^ 2
	fp.Mul(&q.X, &p.X, &t2) // XQ'= XQ * t2
	fp.Mul(&q.Z, &p.Z, &t0) // ZQ'= ZQ * t0
	return q
}

// Given a four-torsion point p = x(PB) on the curve E_(A:C), construct the
// four-isogeny phi : E_(A:C) -> E_(A:C)/<P_4> = E_(A':C').
//
// Input: (XP_4: ZP_4), where P_4 has exact order 4 on E_A/C
// Output: * Curve coordinates (A' + 2C', 4C') corresponding to E_A'/C' = A_E/C/<P4>
//         * isogeny phi with constants in F_p^2
func (phi *Isogeny4) GenerateCurve(p *Point) Coefficients {
	var coef Coefficients
	var xp4, zp4 = &p.X, &p.Z
	var k1, k2, k3 = &phi.k1, &phi.k2, &phi.k3

	fp.Sub(k2, xp4, zp4)
	fp.Add(k3, xp4, zp4)
	fp.Sqr(k1, zp4)
	fp.Add(k1, k1, k1)
	fp.Sqr(&coef.C, k1)
	fp.Add(k1, k1, k1)
	fp.Sqr(&coef.A, xp4)
	fp.Add(&coef.A, &coef.A, &coef.A)
	fp.Sqr(&coef.A, &coef.A)
	return coef
}

// Given a 4-isogeny phi and a point xP = x(P), compute x(Q), the x-coordinate
// of the image Q = phi(P) of P under phi : E_(A:C) -> E_(A':C').
//
// Input: isogeny returned by GenerateCurve and point q=(Qx,Qz) from E0_A/C
// Output: Corresponding point q from E1_A'/C', where E1 is 4-isogenous to E0
func (phi *Isogeny4) EvaluatePoint(p *Point) Point {
	var t0, t1 fp.Fp2
	var q = *p
	var xq, zq = &q.X, &q.Z
	var k1, k2, k3 = &phi.k1, &phi.k2, &phi.k3

	fp.Add(&t0, xq, zq)
	fp.Sub(&t1, xq, zq)
	fp.Mul(xq, &t0, k2)
	fp.Mul(zq, &t1, k3)
	fp.Mul(&t0, &t0, &t1)
	fp.Mul(&t0, &t0, k1)
	fp.Add(&t1, xq, zq)
	fp.Sub(zq, xq, zq)
	fp.Sqr(&t1, &t1)
	fp.Sqr(zq, zq)
	fp.Add(xq, &t0, &t1)
	fp.Sub(&t0, zq, &t0)
	fp.Mul(xq, xq, &t1)
	fp.Mul(zq, zq, &t0)
	return q
}

// Multiplier sets p to [l^k]P for the prime power l^k that a single step of
// a strategy descends by.
type Multiplier func(p *Point, coef *Coefficients, k uint32)

// Quadruple multiplies by 4^k on a curve with coefficients (A+2C : 4C).
func Quadruple(p *Point, coef *Coefficients, k uint32) {
	*p = XDble(p, coef, 2*k)
}

// Triple multiplies by 3^k on a curve with coefficients (A+2C : A-2C).
func Triple(p *Point, coef *Coefficients, k uint32) {
	*p = XTple(p, coef, k)
}

// Walk computes the isogeny with kernel generated by kernel, following an
// optimal strategy. It starts on the curve with coefficients coef, pushes
// every point in images through each step and returns the coefficients of
// the codomain.
//
// The sequence of operations is fixed by the strategy and never depends on
// the kernel.
func Walk(phi Isogeny, mul Multiplier, strategy []uint32, coef Coefficients, kernel Point, images []Point) Coefficients {
	points := make([]Point, 0, 8)
	indices := make([]int, 0, 8)
	var i, sidx int

	n := len(strategy)
	for j := 1; j <= n; j++ {
		for i <= n-j {
			points = append(points, kernel)
			indices = append(indices, i)

			k := strategy[sidx]
			sidx++
			mul(&kernel, &coef, k)
			i += int(k)
		}

		coef = phi.GenerateCurve(&kernel)
		for k := range points {
			points[k] = phi.EvaluatePoint(&points[k])
		}
		for k := range images {
			images[k] = phi.EvaluatePoint(&images[k])
		}

		// pop kernel from points
		kernel, points = points[len(points)-1], points[:len(points)-1]
		i, indices = indices[len(indices)-1], indices[:len(indices)-1]
	}

	coef = phi.GenerateCurve(&kernel)
	for k := range images {
		images[k] = phi.EvaluatePoint(&images[k])
	}
	return coef
}
