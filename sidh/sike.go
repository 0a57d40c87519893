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
	"crypto/sha256"
	"crypto/subtle"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// hashFunc writes H(in[0] || in[1] || ...) truncated to len(out) into out.
type hashFunc func(out []byte, in ...[]byte)

func shake256(out []byte, in ...[]byte) {
	h := sha3.NewShake256()
	for _, b := range in {
		h.Write(b)
	}
	h.Read(out)
}

// sha256Trunc supports outputs of up to 32 bytes.
func sha256Trunc(out []byte, in ...[]byte) {
	h := sha256.New()
	for _, b := range in {
		h.Write(b)
	}
	copy(out, h.Sum(nil))
}

// KEM implements SIKE: an IND-CCA2 key encapsulation mechanism built on
// ephemeral SIDH. A KEM holds no key material, only the random source and
// the hash function, so it may be shared between goroutines as long as rng
// is safe for concurrent use.
type KEM struct {
	params *Params
	rng    io.Reader
	hash   hashFunc
}

// Option configures a KEM.
type Option func(*KEM)

// WithSHA256 replaces SHAKE256 with SHA-256 for all of G, H and the key
// derivation, as done by the CECPQ2b experiment. The two variants produce
// different ciphertexts and secrets and do not interoperate.
func WithSHA256() Option {
	return func(k *KEM) {
		k.hash = sha256Trunc
	}
}

// NewKEM returns a SIKE instance for params. The rng must be a
// cryptographically secure PRNG.
func NewKEM(params *Params, rng io.Reader, opts ...Option) *KEM {
	k := &KEM{params: params, rng: rng, hash: shake256}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// CiphertextSize returns the size of a ciphertext in bytes.
func (k *KEM) CiphertextSize() int {
	return k.params.CiphertextSize
}

// SharedSecretSize returns the size of the encapsulated secret in bytes.
func (k *KEM) SharedSecretSize() int {
	return k.params.KemSize
}

// GenerateKeyPair draws a new SIKE key pair. S is read from the random
// source before the scalar.
func (k *KEM) GenerateKeyPair() (*PublicKey, *PrivateKey, error) {
	prv := NewPrivateKey(k.params, KeyVariantSike)
	if err := prv.Generate(k.rng); err != nil {
		return nil, nil, err
	}
	return prv.GeneratePublicKey(), prv, nil
}

// Encapsulate receives the public key and generates SIKE ciphertext and shared secret.
// Error is returned in case PRNG fails or wrongly formatted input was provided.
func (k *KEM) Encapsulate(pub *PublicKey) (ctext []byte, secret []byte, err error) {
	if pub == nil || pub.Variant() != KeyVariantSike || pub.Params().ID != k.params.ID {
		return nil, nil, errors.Wrap(ErrKeyVariant, "encapsulation requires a SIKE public key")
	}

	// Generate ephemeral value
	ptext := make([]byte, k.params.MsgLen)
	if _, err := io.ReadFull(k.rng, ptext); err != nil {
		return nil, nil, errors.Wrapf(ErrRandomSource, "reading message: %v", err)
	}
	return k.encapsulate(pub, ptext)
}

func (k *KEM) encapsulate(pub *PublicKey, ptext []byte) ([]byte, []byte, error) {
	// r = G(ptext||pub)
	skA := k.ephemeralKey(ptext, pub)
	pkA := skA.GeneratePublicKey()

	// (c0 || c1) = Enc(pkA, ptext; r)
	ctext := make([]byte, k.params.CiphertextSize)
	copy(ctext, pkA.Export())
	if err := k.encrypt(ctext[k.params.PublicKeySize:], skA, pub, ptext); err != nil {
		return nil, nil, err
	}

	// K = H(ptext||(c0||c1))
	secret := make([]byte, k.params.KemSize)
	k.hash(secret, ptext, ctext)
	return ctext, secret, nil
}

// ephemeralKey derives the role A private key r = G(m || pk).
func (k *KEM) ephemeralKey(m []byte, pub *PublicKey) *PrivateKey {
	skA := NewPrivateKey(k.params, KeyVariantSidhA)
	k.hash(skA.scalar, m, pub.Export())
	skA.scalar[len(skA.scalar)-1] &= k.params.A.topMask()
	return skA
}

// encrypt sets c1 = H(j) xor ptext, where j is the secret shared between
// skA and pkB.
func (k *KEM) encrypt(c1 []byte, skA *PrivateKey, pkB *PublicKey, ptext []byte) error {
	j, err := DeriveSecret(skA, pkB)
	if err != nil {
		return err
	}
	k.hash(c1, j)
	subtle.XORBytes(c1, c1, ptext)
	return nil
}

// Decapsulate given the keypair and ciphertext as inputs, Decapsulate outputs a shared
// secret if plaintext verifies correctly, otherwise function outputs random value.
// Errors are returned only for keys of the wrong variant or a ciphertext of
// the wrong length; the contents of the ciphertext never cause an error.
// Constant time for properly initialized input.
func (k *KEM) Decapsulate(prv *PrivateKey, pub *PublicKey, ctext []byte) ([]byte, error) {
	if prv == nil || pub == nil ||
		prv.Variant() != KeyVariantSike || pub.Variant() != KeyVariantSike ||
		prv.Params().ID != k.params.ID || pub.Params().ID != k.params.ID {
		return nil, errors.Wrap(ErrKeyVariant, "decapsulation requires a SIKE key pair")
	}
	if len(ctext) != k.params.CiphertextSize {
		return nil, errors.Wrapf(ErrMalformedInput, "ciphertext must be %d bytes, got %d", k.params.CiphertextSize, len(ctext))
	}
	pkLen := k.params.PublicKeySize

	// An invalid c0 still goes through the whole computation and fails the
	// comparison below.
	c0 := NewPublicKey(k.params, KeyVariantSidhA)
	c0.importLax(ctext[:pkLen])
	j, _ := DeriveSecret(prv, c0)

	m := make([]byte, k.params.MsgLen)
	k.hash(m, j)
	subtle.XORBytes(m, m, ctext[pkLen:])

	// r' = G(m'||pub)
	skA := k.ephemeralKey(m, pub)
	pkA := skA.GeneratePublicKey()

	// S is chosen at random when generating a key and is unknown to the other party. It
	// is important that S is unpredictable to other party. Without this check, it is
	// possible to recover a secret, by providing series of invalid ciphertexts.
	//
	// See more details in "On the security of supersingular isogeny cryptosystems"
	// (S. Galbraith, et al., 2016, ePrint #859).
	eq := subtle.ConstantTimeCompare(pkA.Export(), ctext[:pkLen])
	subtle.ConstantTimeCopy(1-eq, m, prv.s)

	secret := make([]byte, k.params.KemSize)
	k.hash(secret, m, ctext)
	return secret, nil
}

// EncodeSecretKey returns the NIST encoding of a SIKE secret key,
// S || scalar || pk.
func EncodeSecretKey(prv *PrivateKey, pub *PublicKey) []byte {
	out := make([]byte, 0, prv.params.SecretKeySize)
	out = append(out, prv.Export()...)
	return append(out, pub.Export()...)
}

// DecodeSecretKey parses the NIST encoding of a SIKE secret key.
func DecodeSecretKey(params *Params, in []byte) (*PrivateKey, *PublicKey, error) {
	if len(in) != params.SecretKeySize {
		return nil, nil, errors.Wrapf(ErrMalformedInput, "secret key must be %d bytes, got %d", params.SecretKeySize, len(in))
	}
	prv := NewPrivateKey(params, KeyVariantSike)
	pub := NewPublicKey(params, KeyVariantSike)
	if err := prv.Import(in[:prv.Size()]); err != nil {
		return nil, nil, err
	}
	if err := pub.Import(in[prv.Size():]); err != nil {
		return nil, nil, err
	}
	return prv, pub, nil
}
