package main

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/pkg/errors"
)

const (
	drbgSeedLen  = 48
	drbgKeyLen   = 32
	drbgBlockLen = aes.BlockSize
)

// ctrDRBG is the AES-256 CTR_DRBG without derivation function that NIST
// uses to produce the randomness of its KAT files. Each call to Read is one
// "randombytes" request, so the split of the reads matters.
type ctrDRBG struct {
	key   [drbgKeyLen]byte
	v     [drbgBlockLen]byte
	block cipher.Block
}

func newCtrDRBG(seed []byte) (*ctrDRBG, error) {
	if len(seed) != drbgSeedLen {
		return nil, errors.Errorf("drbg seed must be %d bytes, got %d", drbgSeedLen, len(seed))
	}
	d := new(ctrDRBG)
	if err := d.update(seed); err != nil {
		return nil, err
	}
	return d, nil
}

// incV increments V as a 128-bit big-endian counter.
func (d *ctrDRBG) incV() {
	for j := drbgBlockLen - 1; j >= 0; j-- {
		d.v[j]++
		if d.v[j] != 0 {
			break
		}
	}
}

func (d *ctrDRBG) update(provided []byte) error {
	block, err := aes.NewCipher(d.key[:])
	if err != nil {
		return errors.Wrap(err, "drbg key schedule")
	}
	var temp [drbgSeedLen]byte
	for i := 0; i < drbgSeedLen/drbgBlockLen; i++ {
		d.incV()
		block.Encrypt(temp[i*drbgBlockLen:], d.v[:])
	}
	for i := range provided {
		temp[i] ^= provided[i]
	}
	copy(d.key[:], temp[:drbgKeyLen])
	copy(d.v[:], temp[drbgKeyLen:])

	d.block, err = aes.NewCipher(d.key[:])
	return errors.Wrap(err, "drbg key schedule")
}

// Read fills p and never returns a short read.
func (d *ctrDRBG) Read(p []byte) (int, error) {
	var out [drbgBlockLen]byte
	for off := 0; off < len(p); off += drbgBlockLen {
		d.incV()
		d.block.Encrypt(out[:], d.v[:])
		copy(p[off:], out[:])
	}
	if err := d.update(nil); err != nil {
		return 0, err
	}
	return len(p), nil
}
