package main

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"boringssl.googlesource.com/sike/sidh"
)

// record is one entry of a NIST KEM response file.
type record struct {
	count int
	seed  []byte
	pk    []byte
	sk    []byte
	ct    []byte
	ss    []byte
}

// hashVariant selects the hash function of the KEM a file was produced with.
type hashVariant string

const (
	hashSHAKE256 hashVariant = "shake256"
	hashSHA256   hashVariant = "sha256"
)

func parseHashVariant(s string) (hashVariant, error) {
	switch v := hashVariant(strings.ToLower(s)); v {
	case hashSHAKE256, hashSHA256:
		return v, nil
	default:
		return "", errors.Errorf("unknown hash %q, want %s or %s", s, hashSHAKE256, hashSHA256)
	}
}

func (h hashVariant) header() string {
	if h == hashSHA256 {
		return "# SIKEp434 (SHA-256)"
	}
	return "# SIKEp434"
}

func (h hashVariant) newKEM(rng io.Reader) *sidh.KEM {
	if h == hashSHA256 {
		return sidh.NewKEM(sidh.P434, rng, sidh.WithSHA256())
	}
	return sidh.NewKEM(sidh.P434, rng)
}

// seeds draws n record seeds from the DRBG seeded with the bytes 0..47, as
// the NIST generator does.
func seeds(n int) ([][]byte, error) {
	entropy := make([]byte, drbgSeedLen)
	for i := range entropy {
		entropy[i] = byte(i)
	}
	master, err := newCtrDRBG(entropy)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, n)
	for i := range out {
		out[i] = make([]byte, drbgSeedLen)
		if _, err := master.Read(out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// compute fills in everything but count and seed, running key generation,
// encapsulation and decapsulation on randomness derived from the seed.
func compute(r *record, h hashVariant) error {
	rng, err := newCtrDRBG(r.seed)
	if err != nil {
		return err
	}
	kem := h.newKEM(rng)

	pk, sk, err := kem.GenerateKeyPair()
	if err != nil {
		return errors.Wrapf(err, "count %d: key generation", r.count)
	}
	ct, ss, err := kem.Encapsulate(pk)
	if err != nil {
		return errors.Wrapf(err, "count %d: encapsulation", r.count)
	}
	ss2, err := kem.Decapsulate(sk, pk, ct)
	if err != nil {
		return errors.Wrapf(err, "count %d: decapsulation", r.count)
	}
	if !bytes.Equal(ss, ss2) {
		return errors.Errorf("count %d: decapsulated secret differs from encapsulated one", r.count)
	}

	r.pk = pk.Export()
	r.sk = sidh.EncodeSecretKey(sk, pk)
	r.ct = ct
	r.ss = ss
	return nil
}

// verify recomputes r from its seed and compares every field, then checks
// that the stored secret key decapsulates the stored ciphertext.
func verify(r *record, h hashVariant) error {
	got := record{count: r.count, seed: r.seed}
	if err := compute(&got, h); err != nil {
		return err
	}
	for _, f := range []struct {
		name      string
		want, got []byte
	}{
		{"pk", r.pk, got.pk},
		{"sk", r.sk, got.sk},
		{"ct", r.ct, got.ct},
		{"ss", r.ss, got.ss},
	} {
		if !bytes.Equal(f.want, f.got) {
			return errors.Errorf("count %d: %s mismatch: got %X, want %X", r.count, f.name, f.got, f.want)
		}
	}

	sk, pk, err := sidh.DecodeSecretKey(sidh.P434, r.sk)
	if err != nil {
		return errors.Wrapf(err, "count %d: decoding sk", r.count)
	}
	ss, err := h.newKEM(nil).Decapsulate(sk, pk, r.ct)
	if err != nil {
		return errors.Wrapf(err, "count %d: decapsulating stored ct", r.count)
	}
	if !bytes.Equal(ss, r.ss) {
		return errors.Errorf("count %d: stored ct decapsulates to %X, want %X", r.count, ss, r.ss)
	}
	return nil
}

func writeRecords(w io.Writer, h hashVariant, records []record) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n\n", h.header())
	for i := range records {
		r := &records[i]
		fmt.Fprintf(bw, "count = %d\n", r.count)
		fmt.Fprintf(bw, "seed = %X\n", r.seed)
		fmt.Fprintf(bw, "pk = %X\n", r.pk)
		fmt.Fprintf(bw, "sk = %X\n", r.sk)
		fmt.Fprintf(bw, "ct = %X\n", r.ct)
		fmt.Fprintf(bw, "ss = %X\n\n", r.ss)
	}
	return errors.Wrap(bw.Flush(), "writing records")
}

// readRecords parses "key = value" lines. Comments and blank lines are
// skipped and every record starts with its count.
func readRecords(rd io.Reader) ([]record, error) {
	var records []record
	scanner := bufio.NewScanner(rd)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, errors.Errorf("line %d: expected \"key = value\", got %q", lineNo, line)
		}
		key, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])

		if key == "count" {
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: bad count", lineNo)
			}
			records = append(records, record{count: n})
			continue
		}
		if len(records) == 0 {
			return nil, errors.Errorf("line %d: %q before the first count", lineNo, key)
		}

		b, err := hex.DecodeString(value)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: bad hex for %s", lineNo, key)
		}
		r := &records[len(records)-1]
		switch key {
		case "seed":
			r.seed = b
		case "pk":
			r.pk = b
		case "sk":
			r.sk = b
		case "ct":
			r.ct = b
		case "ss":
			r.ss = b
		default:
			return nil, errors.Errorf("line %d: unknown key %q", lineNo, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading records")
	}
	return records, nil
}
