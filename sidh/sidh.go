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

// Package sidh implements ephemeral supersingular isogeny Diffie-Hellman
// key exchange over p434, and the SIKE key encapsulation mechanism built on
// top of it.
//
// Key operations run in time independent of private key values. Each key
// pair must be used for at most one key agreement.
package sidh

import (
	"github.com/pkg/errors"

	"boringssl.googlesource.com/sike/internal/isogeny"
	fp "boringssl.googlesource.com/sike/internal/p434"
)

var (
	// ErrMalformedInput is returned when an encoded key or ciphertext has
	// the wrong length or holds a value outside its range.
	ErrMalformedInput = errors.New("sidh: malformed input")
	// ErrInvalidPublicKey is returned when a public key does not describe
	// a non-singular curve with finite points.
	ErrInvalidPublicKey = errors.New("sidh: invalid public key")
	// ErrRandomSource is returned when the random source fails.
	ErrRandomSource = errors.New("sidh: random source failure")
	// ErrKeyVariant is returned when keys of incompatible variants or
	// parameter sets are combined.
	ErrKeyVariant = errors.New("sidh: incompatible key variant")
)

// -----------------------------------------------------------------------------
// Public key generation
//

// GeneratePublicKey computes the public key matching prv.
//
// Constant time.
func (prv *PrivateKey) GeneratePublicKey() *PublicKey {
	params := prv.params
	if prv.isA() {
		pub := NewPublicKey(params, KeyVariantSidhA)
		publicKeyGen(pub, &params.A, &params.B, new(isogeny.Isogeny4), isogeny.Quadruple, isogeny.Coeffs4, prv.scalar)
		return pub
	}
	pub := NewPublicKey(params, prv.keyVariant)
	publicKeyGen(pub, &params.B, &params.A, new(isogeny.Isogeny3), isogeny.Triple, isogeny.Coeffs3, prv.scalar)
	return pub
}

// publicKeyGen walks from the starting curve along the isogeny with kernel
// <P + [scalar]Q> taken from own, pushing the basis of other through it.
func publicKeyGen(pub *PublicKey, own, other *DomainParams, phi isogeny.Isogeny, mul isogeny.Multiplier, coeffs func(*isogeny.Curve) isogeny.Coefficients, scalar []byte) {
	start := &pub.params.InitCurve

	xP := isogeny.Affine(&own.AffineP)
	xQ := isogeny.Affine(&own.AffineQ)
	xR := isogeny.Affine(&own.AffineR)
	kernel := isogeny.Ladder3Pt(start, &xP, &xQ, &xR, own.SecretBitLen, scalar)

	images := []isogeny.Point{
		isogeny.Affine(&other.AffineP),
		isogeny.Affine(&other.AffineQ),
		isogeny.Affine(&other.AffineR),
	}
	isogeny.Walk(phi, mul, own.IsogenyStrategy, coeffs(start), kernel, images)

	isogeny.Inv3Way(&images[0].Z, &images[1].Z, &images[2].Z)
	for i := range images {
		fp.Mul(&pub.affine3Pt[i], &images[i].X, &images[i].Z)
	}
}

// -----------------------------------------------------------------------------
// Key agreement functions
//

// DeriveSecret computes the shared secret, the j-invariant of the common
// curve, encoded as one element of GF(p^2). prv and pub must belong to
// opposite sides of the exchange.
//
// If pub does not describe a valid curve the function still computes and
// returns a deterministic secret of full length, together with an error
// wrapping ErrInvalidPublicKey. Callers that need uniform behaviour, like
// SIKE decapsulation, may use the value and ignore the error.
//
// It's important to notice that each keypair must not be used more than once
// to calculate shared secret.
func DeriveSecret(prv *PrivateKey, pub *PublicKey) ([]byte, error) {
	if prv == nil || pub == nil {
		return nil, errors.Wrap(ErrKeyVariant, "nil key")
	}
	if prv.isA() == pub.isA() || prv.params.ID != pub.params.ID {
		return nil, errors.Wrapf(ErrKeyVariant, "private key variant %d with public key variant %d", prv.keyVariant, pub.keyVariant)
	}

	ss := make([]byte, prv.params.SharedSecretSize)
	var valid int
	if prv.isA() {
		valid = deriveSecret(ss, prv, pub, &prv.params.A, new(isogeny.Isogeny4), isogeny.Quadruple, isogeny.Coeffs4, isogeny.Recover4)
	} else {
		valid = deriveSecret(ss, prv, pub, &prv.params.B, new(isogeny.Isogeny3), isogeny.Triple, isogeny.Coeffs3, isogeny.Recover3)
	}
	if valid != 1 {
		return ss, errors.Wrap(ErrInvalidPublicKey, "degenerate curve or point")
	}
	return ss, nil
}

// deriveSecret writes the j-invariant of the codomain into ss and returns 1
// if pub was a usable public key. The same work is done in both cases.
func deriveSecret(ss []byte, prv *PrivateKey, pub *PublicKey, own *DomainParams, phi isogeny.Isogeny, mul isogeny.Multiplier,
	coeffs func(*isogeny.Curve) isogeny.Coefficients, recoverCurve func(*isogeny.Coefficients) isogeny.Curve) int {
	pts := &pub.affine3Pt

	// Recover curve coefficients, C=1
	curve := isogeny.Curve{
		A: isogeny.RecoverA(&pts[0], &pts[1], &pts[2]),
		C: fp.One(),
	}

	// Any x-coordinate being zero means one of the points has order 2, and
	// A = +-2 is a singular curve.
	var prod, a2 fp.Fp2
	four := fp.FromUint64(4)
	fp.Mul(&prod, &pts[0], &pts[1])
	fp.Mul(&prod, &prod, &pts[2])
	fp.Sqr(&a2, &curve.A)
	invalid := fp.IsZero(&prod) | fp.Equal(&a2, &four)

	// Find kernel of the morphism
	xP := isogeny.Affine(&pts[0])
	xQ := isogeny.Affine(&pts[1])
	xR := isogeny.Affine(&pts[2])
	kernel := isogeny.Ladder3Pt(&curve, &xP, &xQ, &xR, own.SecretBitLen, prv.scalar)

	// Traverse isogeny tree and calculate j-invariant on isogeneus curve
	coef := isogeny.Walk(phi, mul, own.IsogenyStrategy, coeffs(&curve), kernel, nil)
	codomain := recoverCurve(&coef)
	j := isogeny.JInvariant(&codomain)
	fp.ToBytes(ss, &j)
	return 1 ^ invalid
}
