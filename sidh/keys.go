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

package sidh

import (
	"io"

	"github.com/pkg/errors"

	fp "boringssl.googlesource.com/sike/internal/p434"
)

// KeyVariant identifies the side of the exchange a key belongs to.
type KeyVariant uint

const (
	// First 2 bits identify SIDH variant third bit indicates
	// whether key is a SIKE variant (set) or SIDH (not set)

	// 001 - SIDH: corresponds to 2-torsion group
	KeyVariantSidhA KeyVariant = 1 << 0
	// 010 - SIDH: corresponds to 3-torsion group
	KeyVariantSidhB KeyVariant = 1 << 1
	// 110 - SIKE
	KeyVariantSike KeyVariant = 1<<2 | KeyVariantSidhB
)

// Base type for public and private key. Used mainly to carry domain
// parameters.
type key struct {
	// Domain parameters of the algorithm to be used with a key
	params *Params
	// Flag indicates whether corresponds to 2-, 3-torsion group or SIKE
	keyVariant KeyVariant
}

// Variant returns the role the key was created for.
func (k *key) Variant() KeyVariant {
	return k.keyVariant
}

// Params returns the parameter set the key belongs to.
func (k *key) Params() *Params {
	return k.params
}

func (k *key) isA() bool {
	return k.keyVariant&KeyVariantSidhA == KeyVariantSidhA
}

// domain returns the side of the exchange the key's scalar lives on.
func (k *key) domain() *DomainParams {
	if k.isA() {
		return &k.params.A
	}
	return &k.params.B
}

// PrivateKey is a secret scalar, plus the implicit rejection value S for
// SIKE keys.
type PrivateKey struct {
	key
	// Secret key, little-endian
	scalar []byte
	// Used only by KEM
	s []byte
}

// PublicKey stores the affine x-coordinates of the images of the other
// side's basis: x(P), x(Q) and x(Q-P), in this exact order.
type PublicKey struct {
	key
	affine3Pt [3]fp.Fp2
}

// NewPrivateKey initializes private key.
// Usage of this function guarantees that the object is correctly initialized.
func NewPrivateKey(params *Params, v KeyVariant) *PrivateKey {
	prv := &PrivateKey{key: key{params: params, keyVariant: v}}
	prv.scalar = make([]byte, prv.domain().SecretByteLen)
	if v == KeyVariantSike {
		prv.s = make([]byte, params.MsgLen)
	}
	return prv
}

// NewPublicKey initializes public key.
// Usage of this function guarantees that the object is correctly initialized.
func NewPublicKey(params *Params, v KeyVariant) *PublicKey {
	return &PublicKey{key: key{params: params, keyVariant: v}}
}

// Size returns size of the private key in bytes
func (prv *PrivateKey) Size() int {
	return len(prv.s) + len(prv.scalar)
}

// Export returns the private key encoded as S || scalar. S is empty for
// SIDH keys.
func (prv *PrivateKey) Export() []byte {
	out := make([]byte, prv.Size())
	copy(out, prv.s)
	copy(out[len(prv.s):], prv.scalar)
	return out
}

// Import replaces the key with one decoded from S || scalar. The scalar must
// be below 2^SecretBitLen. On error the key is left unchanged.
func (prv *PrivateKey) Import(input []byte) error {
	if len(input) != prv.Size() {
		return errors.Wrapf(ErrMalformedInput, "private key must be %d bytes, got %d", prv.Size(), len(input))
	}
	scalar := input[len(prv.s):]
	if scalar[len(scalar)-1]&^prv.domain().topMask() != 0 {
		return errors.Wrap(ErrMalformedInput, "private key exceeds the key space")
	}
	copy(prv.s, input[:len(prv.s)])
	copy(prv.scalar, scalar)
	return nil
}

// Generate draws a fresh private key from rand. For SIKE keys S is read
// first, then the scalar. The scalar is uniform in [0, 2^SecretBitLen);
// the bits above the bound are cleared, never resampled.
//
// Returns an error wrapping ErrRandomSource in case rand fails, leaving the
// key unchanged.
func (prv *PrivateKey) Generate(rand io.Reader) error {
	s := make([]byte, len(prv.s))
	scalar := make([]byte, len(prv.scalar))

	if _, err := io.ReadFull(rand, s); err != nil {
		return errors.Wrapf(ErrRandomSource, "reading S: %v", err)
	}
	if _, err := io.ReadFull(rand, scalar); err != nil {
		return errors.Wrapf(ErrRandomSource, "reading scalar: %v", err)
	}
	scalar[len(scalar)-1] &= prv.domain().topMask()

	copy(prv.s, s)
	copy(prv.scalar, scalar)
	return nil
}

// Size returns size of the public key in bytes
func (pub *PublicKey) Size() int {
	return pub.params.PublicKeySize
}

// Export encodes the key as x(P) || x(Q) || x(Q-P).
func (pub *PublicKey) Export() []byte {
	out := make([]byte, pub.Size())
	sz := 2 * pub.params.Bytelen
	for i := range pub.affine3Pt {
		fp.ToBytes(out[i*sz:], &pub.affine3Pt[i])
	}
	return out
}

// Import replaces the key with one decoded from input. Every coordinate
// must be canonically encoded, below p. On error the key is left unchanged.
// Import doesn't check that the points describe a valid curve; DeriveSecret
// does.
func (pub *PublicKey) Import(input []byte) error {
	if len(input) != pub.Size() {
		return errors.Wrapf(ErrMalformedInput, "public key must be %d bytes, got %d", pub.Size(), len(input))
	}
	var pts [3]fp.Fp2
	if decodePoints(&pts, input, pub.params.Bytelen) != 1 {
		return errors.Wrap(ErrMalformedInput, "public key coordinate not below p")
	}
	pub.affine3Pt = pts
	return nil
}

// importLax decodes input of the right length without branching on its
// contents. An out-of-range encoding is replaced by zero coordinates, which
// derive a well-defined but useless shared secret. Returns 1 if input was
// valid.
func (pub *PublicKey) importLax(input []byte) int {
	valid := decodePoints(&pub.affine3Pt, input, pub.params.Bytelen)
	var zero fp.Fp2
	mask := uint64(valid) - 1
	for i := range pub.affine3Pt {
		fp.CondMove(&pub.affine3Pt[i], &zero, mask)
	}
	return valid
}

// decodePoints reads three elements of 2*bytelen bytes each.
func decodePoints(pts *[3]fp.Fp2, input []byte, bytelen int) int {
	valid := 1
	for i := range pts {
		valid &= fp.FromBytes(&pts[i], input[i*2*bytelen:])
	}
	return valid
}
