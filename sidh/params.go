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
	"boringssl.googlesource.com/sike/internal/isogeny"
	fp "boringssl.googlesource.com/sike/internal/p434"
)

// DomainParams describes one side of the exchange: the torsion basis a
// private key of that side walks from and the shape of the walk.
type DomainParams struct {
	// P, Q and R=P-Q base points
	AffineP, AffineQ, AffineR fp.Fp2
	// Optimal strategy for the walk through the x-torsion group
	IsogenyStrategy []uint32
	// Max size of secret key for x-torsion group
	SecretBitLen uint
	// Bytes needed to hold SecretBitLen bits
	SecretByteLen int
}

// topMask is the mask applied to the most significant byte of a private key.
func (dp *DomainParams) topMask() byte {
	if r := dp.SecretBitLen % 8; r != 0 {
		return byte(1<<r) - 1
	}
	return 0xFF
}

// Params holds everything that is fixed for a parameter set. A Params value
// is never modified after package initialisation.
type Params struct {
	// Identifies the parameter set; keys are compatible only with keys of
	// the same ID.
	ID uint8
	// Bytelen of P
	Bytelen int
	// The public key size, in bytes.
	PublicKeySize int
	// The shared secret size, in bytes.
	SharedSecretSize int
	// Defines A,C constant for starting curve Cy^2 = x^3 + Ax^2 + x
	InitCurve isogeny.Curve
	// 2- and 3-torsion group parameter definitions
	A, B DomainParams
	// Length of SIKE secret message
	MsgLen int
	// Length of SIKE ephemeral KEM key
	KemSize int
	// Size of a ciphertext returned by encapsulation in bytes
	CiphertextSize int
	// Size of the NIST encoding of a SIKE secret key: S || scalar || pk
	SecretKeySize int
}

// Fp434 identifies the parameter set over p434 = 2^216*3^137 - 1.
const Fp434 uint8 = 1

// P434 is the SIDH/SIKE parameter set over p434.
var P434 = &Params{
	ID: Fp434,
	// SIDH public key byte size.
	PublicKeySize: 330,
	// SIDH shared secret byte size.
	SharedSecretSize: 110,
	InitCurve: isogeny.Curve{
		A: fp.FromUint64(6),
		C: fp.One(),
	},
	A: DomainParams{
		// The x-coordinate of PA
		AffineP: fp.Fp2{
			A: fp.Fp{
				0x05ADF455C5C345BF, 0x91935C5CC767AC2B, 0xAFE4E879951F0257, 0x70E792DC89FA27B1,
				0xF797F526BB48C8CD, 0x2181DB6131AF621F, 0x00000A1C08B1ECC4,
			},
			B: fp.Fp{
				0x74840EB87CDA7788, 0x2971AA0ECF9F9D0B, 0xCB5732BDF41715D5, 0x8CD8E51F7AACFFAA,
				0xA7F424730D7E419F, 0xD671EB919A179E8C, 0x0000FFA26C5A924A,
			},
		},
		// The x-coordinate of QA
		AffineQ: fp.Fp2{
			A: fp.Fp{
				0xFEC6E64588B7273B, 0xD2A626D74CBBF1C6, 0xF8F58F07A78098C7, 0xE23941F470841B03,
				0x1B63EDA2045538DD, 0x735CFEB0FFD49215, 0x0001C4CB77542876,
			},
			B: fp.Fp{
				0xADB0F733C17FFDD6, 0x6AFFBD037DA0A050, 0x680EC43DB144E02F, 0x1E2E5D5FF524E374,
				0xE2DDA115260E2995, 0xA6E4B552E2EDE508, 0x00018ECCDDF4B53E,
			},
		},
		// The x-coordinate of RA = PA-QA
		AffineR: fp.Fp2{
			A: fp.Fp{
				0x01BA4DB518CD6C7D, 0x2CB0251FE3CC0611, 0x259B0C6949A9121B, 0x60E17AC16D2F82AD,
				0x3AA41F1CE175D92D, 0x413FBE6A9B9BC4F3, 0x00022A81D8D55643,
			},
			B: fp.Fp{
				0xB8ADBC70FC82E54A, 0xEF9CDDB0D5FADDED, 0x5820C734C80096A0, 0x7799994BAA96E0E4,
				0x044961599E379AF8, 0xDB2B94FBF09F27E2, 0x0000B87FC716C0C6,
			},
		},
		// Max size of secret key for 2-torsion group, corresponds to 2^e2 - 1
		SecretBitLen: 216,
		// SecretBitLen in bytes.
		SecretByteLen: 27,
		// 2-torsion group computation strategy
		IsogenyStrategy: []uint32{
			0x30, 0x1C, 0x10, 0x08, 0x04, 0x02, 0x01, 0x01, 0x02, 0x01,
			0x01, 0x04, 0x02, 0x01, 0x01, 0x02, 0x01, 0x01, 0x08, 0x04,
			0x02, 0x01, 0x01, 0x02, 0x01, 0x01, 0x04, 0x02, 0x01, 0x01,
			0x02, 0x01, 0x01, 0x0D, 0x07, 0x04, 0x02, 0x01, 0x01, 0x02,
			0x01, 0x01, 0x03, 0x02, 0x01, 0x01, 0x01, 0x01, 0x05, 0x04,
			0x02, 0x01, 0x01, 0x02, 0x01, 0x01, 0x02, 0x01, 0x01, 0x01,
			0x15, 0x0C, 0x07, 0x04, 0x02, 0x01, 0x01, 0x02, 0x01, 0x01,
			0x03, 0x02, 0x01, 0x01, 0x01, 0x01, 0x05, 0x03, 0x02, 0x01,
			0x01, 0x01, 0x01, 0x02, 0x01, 0x01, 0x01, 0x09, 0x05, 0x03,
			0x02, 0x01, 0x01, 0x01, 0x01, 0x02, 0x01, 0x01, 0x01, 0x04,
			0x02, 0x01, 0x01, 0x01, 0x02, 0x01, 0x01},
	},
	B: DomainParams{
		// The x-coordinate of PB
		AffineP: fp.Fp2{
			A: fp.Fp{
				0x6E5497556EDD48A3, 0x2A61B501546F1C05, 0xEB919446D049887D, 0x5864A4A69D450C4F,
				0xB883F276A6490D2B, 0x22CC287022D5F5B9, 0x0001BED4772E551F,
			},
			B: fp.Fp{
				0x0000000000000000, 0x0000000000000000, 0x0000000000000000, 0x0000000000000000,
				0x0000000000000000, 0x0000000000000000, 0x0000000000000000,
			},
		},
		// The x-coordinate of QB
		AffineQ: fp.Fp2{
			A: fp.Fp{
				0xFAE2A3F93D8B6B8E, 0x494871F51700FE1C, 0xEF1A94228413C27C, 0x498FF4A4AF60BD62,
				0xB00AD2A708267E8A, 0xF4328294E017837F, 0x000034080181D8AE,
			},
			B: fp.Fp{
				0x0000000000000000, 0x0000000000000000, 0x0000000000000000, 0x0000000000000000,
				0x0000000000000000, 0x0000000000000000, 0x0000000000000000,
			},
		},
		// The x-coordinate of RB = PB - QB
		AffineR: fp.Fp2{
			A: fp.Fp{
				0x283B34FAFEFDC8E4, 0x9208F44977C3E647, 0x7DEAE962816F4E9A, 0x68A2BA8AA262EC9D,
				0x8176F112EA43F45B, 0x02106D022634F504, 0x00007E8A50F02E37,
			},
			B: fp.Fp{
				0xB378B7C1DA22CCB1, 0x6D089C99AD1D9230, 0xEBE15711813E2369, 0x2B35A68239D48A53,
				0x445F6FD138407C93, 0xBEF93B29A3F6B54B, 0x000173FA910377D3,
			},
		},
		// Size of secret key for 3-torsion group, corresponds to log_2(3^e3) - 1.
		SecretBitLen: 217,
		// SecretBitLen in bytes.
		SecretByteLen: 28,
		// 3-torsion group computation strategy
		IsogenyStrategy: []uint32{
			0x42, 0x21, 0x11, 0x09, 0x05, 0x03, 0x02, 0x01, 0x01, 0x01,
			0x01, 0x02, 0x01, 0x01, 0x01, 0x04, 0x02, 0x01, 0x01, 0x01,
			0x02, 0x01, 0x01, 0x08, 0x04, 0x02, 0x01, 0x01, 0x01, 0x02,
			0x01, 0x01, 0x04, 0x02, 0x01, 0x01, 0x02, 0x01, 0x01, 0x10,
			0x08, 0x04, 0x02, 0x01, 0x01, 0x01, 0x02, 0x01, 0x01, 0x04,
			0x02, 0x01, 0x01, 0x02, 0x01, 0x01, 0x08, 0x04, 0x02, 0x01,
			0x01, 0x02, 0x01, 0x01, 0x04, 0x02, 0x01, 0x01, 0x02, 0x01,
			0x01, 0x20, 0x10, 0x08, 0x04, 0x03, 0x01, 0x01, 0x01, 0x01,
			0x02, 0x01, 0x01, 0x04, 0x02, 0x01, 0x01, 0x02, 0x01, 0x01,
			0x08, 0x04, 0x02, 0x01, 0x01, 0x02, 0x01, 0x01, 0x04, 0x02,
			0x01, 0x01, 0x02, 0x01, 0x01, 0x10, 0x08, 0x04, 0x02, 0x01,
			0x01, 0x02, 0x01, 0x01, 0x04, 0x02, 0x01, 0x01, 0x02, 0x01,
			0x01, 0x08, 0x04, 0x02, 0x01, 0x01, 0x02, 0x01, 0x01, 0x04,
			0x02, 0x01, 0x01, 0x02, 0x01, 0x01},
	},
	MsgLen: 16,
	// SIKEp434 provides 128 bit of classical security ([SIKE], 5.1)
	KemSize: 16,
	// ceil(434+7/8)
	Bytelen:        fp.ByteLen,
	CiphertextSize: 16 + 330,
	SecretKeySize:  16 + 28 + 330,
}
