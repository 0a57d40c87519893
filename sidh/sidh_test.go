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
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"testing"
	"testing/iotest"

	csidh "github.com/cloudflare/circl/dh/sidh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fp "boringssl.googlesource.com/sike/internal/p434"
)

var tdata = struct {
	PrBSidh string
	PkBSidh string
	PrASidh string
	PkASidh string
	PkBSike string
	PrBSike string
	SsSidh  string
}{
	PrASidh: "3A727E04EA9B7E2A766A6F846489E7E7B915263BCEED308BB10FC9",
	PkASidh: "9E668D1E6750ED4B91EE052C32839CA9DD2E56D52BC24DECC950AA" +
		"AD24CEED3F9049C77FE80F0B9B01E7F8DAD7833EEC2286544D6380" +
		"009C379CDD3E7517CEF5E20EB01F8231D52FC30DC61D2F63FB357F" +
		"85DC6396E8A95DB9740BD3A972C8DB7901B31F074CD3E45345CA78" +
		"F900817130E688A29A7CF0073B5C00FF2C65FBE776918EF9BD8E75" +
		"B29EF7FAB791969B60B0C5B37A8992EDEF95FA7BAC40A95DAFE02E" +
		"237301FEE9A7A43FD0B73477E8035DD12B73FAFEF18D39904DDE36" +
		"53A754F36BE1888F6607C6A7951349A414352CF31A29F2C40302DB" +
		"406C48018C905EB9DC46AFBF42A9187A9BB9E51B587622A2862DC7" +
		"D5CC598BF38ED6320FB51D8697AD3D7A72ABCC32A393F0133DA8DF" +
		"5E253D9E00B760B2DF342FCE974DCFE946CFE4727783531882800F" +
		"9E5DD594D6D5A6275EEFEF9713ED838F4A06BB34D7B8D46E0B385A" +
		"AEA1C7963601",
	PrBSidh: "E37BFE55B43B32448F375903D8D226EC94ADBFEA1D2B3536EB987001",
	PkBSidh: "C9F73E4497AAA3FDF9EB688135866A8A83934BA10E273B8CC3808C" +
		"F0C1F5FAB3E9BB295885881B73DEBC875670C0F51C4BB40DF5FEDE" +
		"01B8AF32D1BF10508B8C17B2734EB93B2B7F5D84A4A0F2F816E9E2" +
		"C32AC253C0B6025B124D05A87A9E2A8567930F44BAA14219B941B6" +
		"B400B4AED1D796DA12A5A9F0B8F3F5EE9DD43F64CB24A3B1719DF2" +
		"78ADF56B5F3395187829DA2319DEABF6BBD6EDA244DE2B62CC5AC2" +
		"50C1009DD1CD4712B0B37406612AD002B5E51A62B51AC9C0374D14" +
		"3ABBBD58275FAFC4A5E959C54838C2D6D9FB43B7B2609061267B6A" +
		"2E6C6D01D295C4223E0D3D7A4CDCFB28A7818A737935279751A6DD" +
		"8290FD498D1F6AD5F4FFF6BDFA536713F509DCE8047252F1E7D0DD" +
		"9FCC414C0070B5DCCE3665A21A032D7FBE749181032183AFAD240B" +
		"7E671E87FBBEC3A8CA4C11AA7A9A23AC69AE2ACF54B664DECD2775" +
		"3D63508F1B02",
	SsSidh: "E7C38F69BCEEEE72F110AECEF842535AB7B7299E449F0863D33EAB" +
		"633C87E0B1DB028FF8F95638DC22998E6696C57188F6147B200278" +
		"0193F24EEBD16FD38EB37F8D17689A36D4566820573C05A369B7C0" +
		"ADA702B6D2C5DDAFA76F25E4FCFDCF6D2DDFF3144DF107E2DC0CAD" +
		"7A00",
	PrBSike: "4B622DE1350119C45A9F2E2EF3DC5DF56A27FCDFCDDAF58CD69B90" +
		"3752D68C200934E160B234E49EDE247601",
	PkBSike: "1BD0A2E81307B6F96461317DDF535ACC0E59C742627BAE60D27605" +
		"E10FAF722D22A73E184CB572A12E79DCD58C6B54FB01442114CBE9" +
		"010B6CAEC25D04C16C5E42540C1524C545B8C67614ED4183C9FA5B" +
		"D0BE45A7F89FBC770EE8E7E5E391C7EE6F35F74C29E6D9E35B1663" +
		"DA01E48E9DEB2347512D366FDE505161677055E3EF23054D276E81" +
		"7E2C57025DA1C10D2461F68617F2D11256EEE4E2D7DBDF6C8E34F3" +
		"A0FD00C625428CB41857002159DAB94267ABE42D630C6AAA91AF83" +
		"7C7A6740754EA6634C45454C51B0BB4D44C3CCCCE4B32C00901CF6" +
		"9C008D013348379B2F9837F428A01B6173584691F2A6F3A3C4CF48" +
		"7D20D261B36C8CDB1BC158E2A5162A9DA4F7A97AA0879B9897E2B6" +
		"891B672201F9AEFBF799C27B2587120AC586A511360926FB7DA8EB" +
		"F5CB5272F396AE06608422BE9792E2CE9BEF21BF55B7EFF8DC7EC8" +
		"C99910D3F800",
}

/* -------------------------------------------------------------------------
   Helpers
   -------------------------------------------------------------------------*/

func mustHex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// Converts string to private key
func convToPrv(t testing.TB, s string, v KeyVariant) *PrivateKey {
	t.Helper()
	key := NewPrivateKey(P434, v)
	require.NoError(t, key.Import(mustHex(t, s)))
	return key
}

// Converts string to public key
func convToPub(t testing.TB, s string, v KeyVariant) *PublicKey {
	t.Helper()
	key := NewPublicKey(P434, v)
	require.NoError(t, key.Import(mustHex(t, s)))
	return key
}

// Little-endian bytes to big.Int.
func leToBig(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i := range b {
		be[len(b)-1-i] = b[i]
	}
	return new(big.Int).SetBytes(be)
}

/* -------------------------------------------------------------------------
   Unit tests
   -------------------------------------------------------------------------*/

func TestKeygen(t *testing.T) {
	alicePrivate := convToPrv(t, tdata.PrASidh, KeyVariantSidhA)
	bobPrivate := convToPrv(t, tdata.PrBSidh, KeyVariantSidhB)

	pubA := alicePrivate.GeneratePublicKey()
	pubB := bobPrivate.GeneratePublicKey()

	assert.Equal(t, mustHex(t, tdata.PkASidh), pubA.Export(), "unexpected value of public key A")
	assert.Equal(t, mustHex(t, tdata.PkBSidh), pubB.Export(), "unexpected value of public key B")
	assert.Equal(t, KeyVariantSidhA, pubA.Variant())
	assert.Equal(t, KeyVariantSidhB, pubB.Variant())
}

func TestKeygenSIKE(t *testing.T) {
	prv := convToPrv(t, tdata.PrBSike, KeyVariantSike)
	pub := prv.GeneratePublicKey()
	assert.Equal(t, mustHex(t, tdata.PkBSike), pub.Export())
	assert.Equal(t, KeyVariantSike, pub.Variant())
}

func TestImportExport(t *testing.T) {
	a := NewPublicKey(P434, KeyVariantSidhA)
	b := NewPublicKey(P434, KeyVariantSidhB)

	aHex := mustHex(t, tdata.PkASidh)
	bHex := mustHex(t, tdata.PkBSike)
	require.NoError(t, a.Import(aHex))
	require.NoError(t, b.Import(bHex))

	// Export and check if same
	assert.Equal(t, aHex, a.Export())
	assert.Equal(t, bHex, b.Export())
	assert.Len(t, a.Export(), a.Size())
	assert.Len(t, b.Export(), b.Size())

	prv := convToPrv(t, tdata.PrBSike, KeyVariantSike)
	assert.Equal(t, mustHex(t, tdata.PrBSike), prv.Export())
	assert.Equal(t, 44, prv.Size())
}

func TestPublicKeyImportRejectsMalformed(t *testing.T) {
	valid := mustHex(t, tdata.PkASidh)
	pub := NewPublicKey(P434, KeyVariantSidhA)
	require.NoError(t, pub.Import(valid))

	err := pub.Import(valid[:len(valid)-1])
	assert.ErrorIs(t, err, ErrMalformedInput)

	// Each coordinate in turn set to p, the smallest non-canonical value.
	pBytes := leBytesOfP()
	for i := 0; i < 6; i++ {
		bad := append([]byte(nil), valid...)
		copy(bad[i*fp.ByteLen:], pBytes)
		err = pub.Import(bad)
		require.ErrorIs(t, err, ErrMalformedInput, "coordinate %d", i)
		require.Equal(t, valid, pub.Export(), "key modified by failed import")
	}
}

func leBytesOfP() []byte {
	p := new(big.Int).Lsh(big.NewInt(1), 216)
	p.Mul(p, new(big.Int).Exp(big.NewInt(3), big.NewInt(137), nil))
	p.Sub(p, big.NewInt(1))
	be := p.FillBytes(make([]byte, fp.ByteLen))
	le := make([]byte, len(be))
	for i := range be {
		le[len(be)-1-i] = be[i]
	}
	return le
}

func TestPrivateKeyImportRejectsOutOfRange(t *testing.T) {
	prvB := convToPrv(t, tdata.PrBSidh, KeyVariantSidhB)
	orig := prvB.Export()

	bad := append([]byte(nil), orig...)
	bad[len(bad)-1] |= 0x02
	assert.ErrorIs(t, prvB.Import(bad), ErrMalformedInput)
	assert.Equal(t, orig, prvB.Export())

	assert.ErrorIs(t, prvB.Import(orig[:len(orig)-1]), ErrMalformedInput)

	// For A all 216 bits are usable.
	prvA := NewPrivateKey(P434, KeyVariantSidhA)
	all := bytes.Repeat([]byte{0xFF}, P434.A.SecretByteLen)
	assert.NoError(t, prvA.Import(all))
}

func TestPrivateKeyBelowMax(t *testing.T) {
	for _, v := range []KeyVariant{KeyVariantSidhA, KeyVariantSidhB, KeyVariantSike} {
		prv := NewPrivateKey(P434, v)
		dp := prv.domain()

		// Calculate either (2^e2 - 1) or (2^s - 1); where s=ceil(log_2(3^e3)))
		maxSecretVal := new(big.Int).Lsh(big.NewInt(1), dp.SecretBitLen)
		maxSecretVal.Sub(maxSecretVal, big.NewInt(1))

		for i := 0; i < 200; i++ {
			require.NoError(t, prv.Generate(rand.Reader))
			scalar := prv.Export()[len(prv.s):]
			require.Len(t, scalar, dp.SecretByteLen)
			require.True(t, leToBig(scalar).Cmp(maxSecretVal) <= 0, "generated private key is out of range")
		}
	}
}

func TestGenerateReadsSThenScalar(t *testing.T) {
	src := make([]byte, 16+28)
	for i := range src {
		src[i] = byte(0xF0 + i)
	}
	prv := NewPrivateKey(P434, KeyVariantSike)
	require.NoError(t, prv.Generate(bytes.NewReader(src)))

	exp := append([]byte(nil), src...)
	exp[len(exp)-1] &= 0x01
	assert.Equal(t, exp, prv.Export())
}

func TestGenerateRandomFailure(t *testing.T) {
	prv := convToPrv(t, tdata.PrBSike, KeyVariantSike)
	orig := prv.Export()

	err := prv.Generate(iotest.ErrReader(iotest.ErrTimeout))
	assert.ErrorIs(t, err, ErrRandomSource)

	// S is read, the scalar is not.
	err = prv.Generate(bytes.NewReader(make([]byte, 20)))
	assert.ErrorIs(t, err, ErrRandomSource)
	assert.Equal(t, orig, prv.Export())
}

func testKeyAgreement(t *testing.T, pkA, prA, pkB, prB, ss string) {
	// KeyPairs
	alicePublic := convToPub(t, pkA, KeyVariantSidhA)
	bobPublic := convToPub(t, pkB, KeyVariantSidhB)
	alicePrivate := convToPrv(t, prA, KeyVariantSidhA)
	bobPrivate := convToPrv(t, prB, KeyVariantSidhB)

	// Do actual test
	s1, err := DeriveSecret(bobPrivate, alicePublic)
	require.NoError(t, err, "derivation s1")
	s2, err := DeriveSecret(alicePrivate, bobPublic)
	require.NoError(t, err, "derivation s2")
	require.Equal(t, s1, s2, "two shared keys do not match")
	require.Equal(t, mustHex(t, ss), s1, "unexpected value of shared secret")

	// Negative case
	dec := mustHex(t, pkA)
	dec[0] = ^dec[0]
	require.NoError(t, alicePublic.Import(dec))

	s1, err = DeriveSecret(bobPrivate, alicePublic)
	require.NoError(t, err, "derivation of s1 failed")
	s2, err = DeriveSecret(alicePrivate, bobPublic)
	require.NoError(t, err, "derivation of s2 failed")
	require.NotEqual(t, s1, s2, "the two shared keys match")
}

func TestKeyAgreement(t *testing.T) {
	testKeyAgreement(t, tdata.PkASidh, tdata.PrASidh, tdata.PkBSidh, tdata.PrBSidh, tdata.SsSidh)
}

func TestDerivationRoundTrip(t *testing.T) {
	n := 24
	if testing.Short() {
		n = 4
	}
	for i := 0; i < n; i++ {
		prvA := NewPrivateKey(P434, KeyVariantSidhA)
		prvB := NewPrivateKey(P434, KeyVariantSidhB)

		// Generate private keys
		require.NoError(t, prvA.Generate(rand.Reader))
		require.NoError(t, prvB.Generate(rand.Reader))

		// Generate public keys
		pubA := prvA.GeneratePublicKey()
		pubB := prvB.GeneratePublicKey()

		// Derive shared secret
		s1, err := DeriveSecret(prvB, pubA)
		require.NoError(t, err)
		s2, err := DeriveSecret(prvA, pubB)
		require.NoError(t, err)
		require.Equal(t, s1, s2, "two shared keys: \n%X, \n%X do not match", s1, s2)
	}
}

// The smallest and largest scalars of each side must still agree.
func TestDerivationExtremeScalars(t *testing.T) {
	zeroA := make([]byte, P434.A.SecretByteLen)
	maxA := bytes.Repeat([]byte{0xFF}, P434.A.SecretByteLen)
	zeroB := make([]byte, P434.B.SecretByteLen)
	maxB := bytes.Repeat([]byte{0xFF}, P434.B.SecretByteLen)
	maxB[len(maxB)-1] = 0x01

	for _, a := range [][]byte{zeroA, maxA} {
		for _, b := range [][]byte{zeroB, maxB} {
			prvA := NewPrivateKey(P434, KeyVariantSidhA)
			prvB := NewPrivateKey(P434, KeyVariantSidhB)
			require.NoError(t, prvA.Import(a))
			require.NoError(t, prvB.Import(b))

			s1, err := DeriveSecret(prvA, prvB.GeneratePublicKey())
			require.NoError(t, err)
			s2, err := DeriveSecret(prvB, prvA.GeneratePublicKey())
			require.NoError(t, err)
			require.Equal(t, s1, s2)
		}
	}
}

// Keys of either role exchanged with an independent implementation must
// lead to the same shared secret.
func TestInteropCircl(t *testing.T) {
	for i := 0; i < 3; i++ {
		// Role A here, role B in circl.
		prvA := NewPrivateKey(P434, KeyVariantSidhA)
		require.NoError(t, prvA.Generate(rand.Reader))
		cPrvB := csidh.NewPrivateKey(csidh.Fp434, csidh.KeyVariantSidhB)
		require.NoError(t, cPrvB.Generate(rand.Reader))
		cPubB := csidh.NewPublicKey(csidh.Fp434, csidh.KeyVariantSidhB)
		cPrvB.GeneratePublicKey(cPubB)
		pkB := make([]byte, cPubB.Size())
		cPubB.Export(pkB)

		pubB := NewPublicKey(P434, KeyVariantSidhB)
		require.NoError(t, pubB.Import(pkB))
		s1, err := DeriveSecret(prvA, pubB)
		require.NoError(t, err)

		cPubA := csidh.NewPublicKey(csidh.Fp434, csidh.KeyVariantSidhA)
		require.NoError(t, cPubA.Import(prvA.GeneratePublicKey().Export()))
		s2 := make([]byte, cPrvB.SharedSecretSize())
		cPrvB.DeriveSecret(s2, cPubA)
		require.Equal(t, s2, s1, "iteration %d, A here and B in circl", i)

		// Role B here, role A in circl.
		prvB := NewPrivateKey(P434, KeyVariantSidhB)
		require.NoError(t, prvB.Generate(rand.Reader))
		cPrvA := csidh.NewPrivateKey(csidh.Fp434, csidh.KeyVariantSidhA)
		require.NoError(t, cPrvA.Generate(rand.Reader))
		cPubA = csidh.NewPublicKey(csidh.Fp434, csidh.KeyVariantSidhA)
		cPrvA.GeneratePublicKey(cPubA)
		pkA := make([]byte, cPubA.Size())
		cPubA.Export(pkA)

		pubA := NewPublicKey(P434, KeyVariantSidhA)
		require.NoError(t, pubA.Import(pkA))
		s1, err = DeriveSecret(prvB, pubA)
		require.NoError(t, err)

		cPubB = csidh.NewPublicKey(csidh.Fp434, csidh.KeyVariantSidhB)
		require.NoError(t, cPubB.Import(prvB.GeneratePublicKey().Export()))
		s2 = make([]byte, cPrvA.SharedSecretSize())
		cPrvA.DeriveSecret(s2, cPubB)
		require.Equal(t, s2, s1, "iteration %d, B here and A in circl", i)
	}
}

// The fixed key pairs give the same public keys in circl.
func TestInteropCirclKeygen(t *testing.T) {
	prvB := convToPrv(t, tdata.PrBSidh, KeyVariantSidhB)
	cPrvB := csidh.NewPrivateKey(csidh.Fp434, csidh.KeyVariantSidhB)
	require.NoError(t, cPrvB.Import(prvB.Export()))
	cPubB := csidh.NewPublicKey(csidh.Fp434, csidh.KeyVariantSidhB)
	cPrvB.GeneratePublicKey(cPubB)
	pkB := make([]byte, cPubB.Size())
	cPubB.Export(pkB)
	assert.Equal(t, mustHex(t, tdata.PkBSidh), pkB)

	cPubA := csidh.NewPublicKey(csidh.Fp434, csidh.KeyVariantSidhA)
	require.NoError(t, cPubA.Import(mustHex(t, tdata.PkASidh)))
	ss := make([]byte, cPrvB.SharedSecretSize())
	cPrvB.DeriveSecret(ss, cPubA)
	assert.Equal(t, mustHex(t, tdata.SsSidh), ss)
}

func TestDeterministicPublicKey(t *testing.T) {
	prv := convToPrv(t, tdata.PrASidh, KeyVariantSidhA)
	assert.Equal(t, prv.GeneratePublicKey().Export(), prv.GeneratePublicKey().Export())
}

func TestDeriveSecretIncompatibleKeys(t *testing.T) {
	prvA := convToPrv(t, tdata.PrASidh, KeyVariantSidhA)
	pubA := convToPub(t, tdata.PkASidh, KeyVariantSidhA)
	prvSike := convToPrv(t, tdata.PrBSike, KeyVariantSike)
	pubB := convToPub(t, tdata.PkBSidh, KeyVariantSidhB)

	_, err := DeriveSecret(prvA, pubA)
	assert.ErrorIs(t, err, ErrKeyVariant)

	// SIKE keys live on the B side.
	_, err = DeriveSecret(prvSike, pubB)
	assert.ErrorIs(t, err, ErrKeyVariant)

	_, err = DeriveSecret(nil, pubB)
	assert.ErrorIs(t, err, ErrKeyVariant)

	other := *P434
	other.ID = Fp434 + 1
	pubOther := NewPublicKey(&other, KeyVariantSidhB)
	_, err = DeriveSecret(prvA, pubOther)
	assert.ErrorIs(t, err, ErrKeyVariant)
}

func TestDeriveSecretDegeneratePublicKey(t *testing.T) {
	prvB := convToPrv(t, tdata.PrBSidh, KeyVariantSidhB)

	zero := NewPublicKey(P434, KeyVariantSidhA)
	require.NoError(t, zero.Import(make([]byte, zero.Size())))

	ss1, err := DeriveSecret(prvB, zero)
	require.ErrorIs(t, err, ErrInvalidPublicKey)
	require.Len(t, ss1, P434.SharedSecretSize)

	ss2, err := DeriveSecret(prvB, zero)
	require.ErrorIs(t, err, ErrInvalidPublicKey)
	assert.Equal(t, ss1, ss2)

	// A single zero coordinate is enough.
	pk := mustHex(t, tdata.PkASidh)
	copy(pk[2*fp.Fp2ByteLen:], make([]byte, fp.Fp2ByteLen))
	bad := NewPublicKey(P434, KeyVariantSidhA)
	require.NoError(t, bad.Import(pk))
	_, err = DeriveSecret(prvB, bad)
	assert.ErrorIs(t, err, ErrInvalidPublicKey)
}

func TestImportLax(t *testing.T) {
	valid := mustHex(t, tdata.PkASidh)
	pub := NewPublicKey(P434, KeyVariantSidhA)
	assert.Equal(t, 1, pub.importLax(valid))
	assert.Equal(t, valid, pub.Export())

	bad := append([]byte(nil), valid...)
	copy(bad[fp.ByteLen:], bytes.Repeat([]byte{0xFF}, fp.ByteLen))
	assert.Equal(t, 0, pub.importLax(bad))
	assert.Equal(t, make([]byte, pub.Size()), pub.Export())
}

/* -------------------------------------------------------------------------
   Benchmarking
   -------------------------------------------------------------------------*/

func BenchmarkSidhKeyAgreement(b *testing.B) {
	// KeyPairs
	alicePublic := convToPub(b, tdata.PkASidh, KeyVariantSidhA)
	alicePrivate := convToPrv(b, tdata.PrASidh, KeyVariantSidhA)
	bobPublic := convToPub(b, tdata.PkBSidh, KeyVariantSidhB)
	bobPrivate := convToPrv(b, tdata.PrBSidh, KeyVariantSidhB)

	for i := 0; i < b.N; i++ {
		// Derive shared secret
		DeriveSecret(bobPrivate, alicePublic)
		DeriveSecret(alicePrivate, bobPublic)
	}
}

func BenchmarkAliceKeyGenPub(b *testing.B) {
	prv := NewPrivateKey(P434, KeyVariantSidhA)
	prv.Generate(rand.Reader)
	for n := 0; n < b.N; n++ {
		prv.GeneratePublicKey()
	}
}

func BenchmarkBobKeyGenPub(b *testing.B) {
	prv := NewPrivateKey(P434, KeyVariantSidhB)
	prv.Generate(rand.Reader)
	for n := 0; n < b.N; n++ {
		prv.GeneratePublicKey()
	}
}
