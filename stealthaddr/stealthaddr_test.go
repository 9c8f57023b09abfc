// Copyright (c) 2024 The btclib developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stealthaddr

import (
	"encoding/hex"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"

	"github.com/btclib/btclib/chaincfg"
	"github.com/btclib/btclib/wallet"
)

func hexToBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// Serialized compressed public keys for small scalar multiples of the
// secp256k1 base point, so all of them are valid curve points.
const (
	pubKeyHex1 = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	pubKeyHex2 = "02c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5"
	pubKeyHex3 = "02f9308a019258c31049344f85f89d5229b531c845836f99b08601f113bce036f9"
	pubKeyHex4 = "02e493dbf1c10d80f3581e4904930b1404cc6c13900ee0758474fa94abe8c4cd13"
)

// testSpendPubKeys returns serialized spend pubkeys in canonical sorted order.
func testSpendPubKeys(t *testing.T) [][]byte {
	t.Helper()
	return [][]byte{
		hexToBytes(t, pubKeyHex2),
		hexToBytes(t, pubKeyHex4),
		hexToBytes(t, pubKeyHex3),
	}
}

// TestStealthAddressRoundTrip ensures stealth addresses survive a round trip
// through the base58Check encoding with all fields intact.
func TestStealthAddressRoundTrip(t *testing.T) {
	net := &chaincfg.MainNetParams
	scan := hexToBytes(t, pubKeyHex1)
	spend := testSpendPubKeys(t)

	addr, err := NewStealthAddress(scan, spend, 2, false, net)
	require.NoError(t, err)
	require.Equal(t, uint8(2), addr.N)
	require.False(t, addr.ReuseScanForSpend())
	require.Equal(t, spend, addr.AllSpendPubKeys())
	require.True(t, addr.IsForNet(net))

	decoded, err := DecodeStealthAddress(addr.Encode(), net)
	require.NoError(t, err)
	require.Equal(t, addr.OptionFlags, decoded.OptionFlags)
	require.Equal(t, addr.ScanPubKey, decoded.ScanPubKey)
	require.Equal(t, addr.SpendPubKeys, decoded.SpendPubKeys)
	require.Equal(t, addr.N, decoded.N)
	require.Empty(t, decoded.Extra)
	require.Equal(t, addr.Encode(), decoded.Encode())
	require.Equal(t, addr.Encode(), decoded.String())
}

// TestStealthAddressReuseScan exercises the option flag which reuses the scan
// pubkey as a spend pubkey.
func TestStealthAddressReuseScan(t *testing.T) {
	net := &chaincfg.MainNetParams
	scan := hexToBytes(t, pubKeyHex1)
	spend := testSpendPubKeys(t)

	addr, err := NewStealthAddress(scan, spend, 0, true, net)
	require.NoError(t, err)
	require.True(t, addr.ReuseScanForSpend())
	require.Equal(t, byte(ReuseScanForSpendOption), addr.OptionFlags)

	// The zero signature count selects all keys, including the reused
	// scan key.
	require.Equal(t, uint8(4), addr.N)

	all := addr.AllSpendPubKeys()
	require.Len(t, all, 4)
	require.Equal(t, scan, all[0])

	decoded, err := DecodeStealthAddress(addr.Encode(), net)
	require.NoError(t, err)
	require.True(t, decoded.ReuseScanForSpend())
	require.Equal(t, addr.N, decoded.N)
}

// TestStealthAddressDefaultN ensures a zero signature count defaults to all
// spend pubkeys.
func TestStealthAddressDefaultN(t *testing.T) {
	addr, err := NewStealthAddress(hexToBytes(t, pubKeyHex1),
		testSpendPubKeys(t), 0, false, &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.Equal(t, uint8(3), addr.N)
}

// TestStealthAddressExtraData ensures unknown trailing payload bytes are
// preserved through a decode and encode cycle.
func TestStealthAddressExtraData(t *testing.T) {
	net := &chaincfg.MainNetParams
	addr, err := NewStealthAddress(hexToBytes(t, pubKeyHex1),
		testSpendPubKeys(t), 1, false, net)
	require.NoError(t, err)

	// Append extra bytes to the payload by hand and re-encode.
	payload := append(addr.Payload(), 0xde, 0xad, 0xbe, 0xef)
	encoded := wallet.CheckEncode(payload, net.StealthAddrID)

	decoded, err := DecodeStealthAddress(encoded, net)
	require.NoError(t, err)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, decoded.Extra)
	require.Equal(t, encoded, decoded.Encode())
}

// TestNewStealthAddressErrors ensures invalid construction parameters produce
// the expected error kinds.
func TestNewStealthAddressErrors(t *testing.T) {
	scan := hexToBytes(t, pubKeyHex1)
	uncompressed := hexToBytes(t, "0479be667ef9dcbbac55a06295ce870b0702"+
		"9bfcdb2dce28d959f2815b16f81798483ada7726a3c4655da4fbfc0e1108"+
		"a8fd17b448a68554199c47d08ffb10d4b8")
	notAPoint := append([]byte{0x02}, make([]byte, 32)...)

	tests := []struct {
		name  string
		scan  []byte
		spend [][]byte
		n     uint8
		reuse bool
		kind  ErrorKind
	}{
		{
			name:  "uncompressed scan pubkey",
			scan:  uncompressed,
			spend: testSpendPubKeys(t),
			n:     1,
			kind:  ErrUncompressedPubKey,
		},
		{
			name:  "uncompressed spend pubkey",
			scan:  scan,
			spend: [][]byte{uncompressed},
			n:     1,
			kind:  ErrUncompressedPubKey,
		},
		{
			name:  "scan pubkey not on curve",
			scan:  notAPoint,
			spend: testSpendPubKeys(t),
			n:     1,
			kind:  ErrInvalidScanPubKey,
		},
		{
			name:  "spend pubkey not on curve",
			scan:  scan,
			spend: [][]byte{notAPoint},
			n:     1,
			kind:  ErrInvalidSpendPubKey,
		},
		{
			name: "spend pubkeys not sorted",
			scan: scan,
			spend: [][]byte{
				hexToBytes(t, pubKeyHex3),
				hexToBytes(t, pubKeyHex2),
			},
			n:    1,
			kind: ErrUnsortedSpendPubKeys,
		},
		{
			name: "duplicate spend pubkey",
			scan: scan,
			spend: [][]byte{
				hexToBytes(t, pubKeyHex2),
				hexToBytes(t, pubKeyHex2),
			},
			n:    1,
			kind: ErrDuplicateSpendPubKey,
		},
		{
			name:  "scan pubkey duplicated in spend set",
			scan:  scan,
			spend: [][]byte{hexToBytes(t, pubKeyHex1)},
			n:     1,
			reuse: true,
			kind:  ErrDuplicateSpendPubKey,
		},
		{
			name:  "no spend pubkeys",
			scan:  scan,
			spend: nil,
			n:     0,
			kind:  ErrNoSpendPubKeys,
		},
		{
			name:  "sig count exceeds spend pubkeys",
			scan:  scan,
			spend: testSpendPubKeys(t),
			n:     4,
			kind:  ErrInvalidSigCount,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewStealthAddress(test.scan, test.spend,
				test.n, test.reuse, &chaincfg.MainNetParams)
			require.Error(t, err)
			require.True(t, IsErrorKind(err, test.kind),
				"got %v, want kind %v", err, test.kind)
		})
	}
}

// TestStealthAddressTooManyKeys ensures the spend pubkey limit is enforced,
// including the reused scan pubkey.
func TestStealthAddressTooManyKeys(t *testing.T) {
	// Sixteen distinct valid compressed pubkeys in sorted order.
	spendHexes := []string{
		"022f01e5e15cca351daff3843fb70f3c2f0a1bdd05e5af888a67784ef3e10a2a01",
		"022f8bde4d1a07209355b4a7250a5c5128e88b84bddc619ab7cba8d569b240efe4",
		"025cbdf0646e5db4eaa398f365f2ea7a0e3d419b7e0330e39ce92bddedcac4f9bc",
		"02c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5",
		"02d7924d4f7d43ea965a465ae3095ff41131e5946f3c85f79e44adbcf8e27e080e",
		"02e493dbf1c10d80f3581e4904930b1404cc6c13900ee0758474fa94abe8c4cd13",
		"02f9308a019258c31049344f85f89d5229b531c845836f99b08601f113bce036f9",
		"03499fdf9e895e719cfd64e67f07d38e3226aa7b63678949e6e49b241a60e823e4",
		"03774ae7f858a9411e5ef4246b70c65aac5649980be5c17891bbec17895da008cb",
		"03a0434d9e47f3c86235477c7b1ae6ae5d3442d49b1943c2b752a68e2a47e247c7",
		"03acd484e2f0c7f65309ad178a9f559abde09796974c57e714c35f110dfc27ccbe",
		"03d01115d548e7561b15c38f004d734633687cf4419620095bc5b0f47070afe85a",
		"03defdea4cdb677750a420fee807eacf21eb9898ae79b9768766e4faa04a2d4a34",
		"03e60fce93b59e9ec53011aabc21c23e97b2a31369b87a5ae9c44ee89e2a6dec0a",
		"03f28773c2d975288bc7d1d205c3748651b075fbc6610e58cddeeddf8f19405aa8",
		"03fff97bd5755eeea420453a14355235d382f6472f8568a18b2f057a1460297556",
	}
	spend := make([][]byte, 0, len(spendHexes))
	for _, s := range spendHexes {
		spend = append(spend, hexToBytes(t, s))
	}
	scan := hexToBytes(t, pubKeyHex1)

	// Sixteen spend pubkeys exceed the limit outright.
	_, err := NewStealthAddress(scan, spend, 1, false,
		&chaincfg.MainNetParams)
	require.True(t, IsErrorKind(err, ErrTooManySpendPubKeys), "got %v", err)

	// Fifteen is allowed, but not with the scan pubkey reused as a
	// sixteenth spend pubkey.
	_, err = NewStealthAddress(scan, spend[:15], 1, false,
		&chaincfg.MainNetParams)
	require.NoError(t, err)
	_, err = NewStealthAddress(scan, spend[:15], 1, true,
		&chaincfg.MainNetParams)
	require.True(t, IsErrorKind(err, ErrTooManySpendPubKeys), "got %v", err)
}

// TestDecodeStealthAddressErrors ensures malformed encodings are rejected
// with the expected error kinds.
func TestDecodeStealthAddressErrors(t *testing.T) {
	net := &chaincfg.MainNetParams

	// Truncated payloads.
	for _, size := range []int{0, 1, 33, 1 + 33, 1 + 33 + 1} {
		payload := make([]byte, size)
		if size > 1 {
			// Valid scan pubkey prefix so truncation is detected
			// before pubkey validation.
			copy(payload[1:], hexToBytes(t, pubKeyHex1))
		}
		if size > 1+33 {
			payload[1+33] = 1
		}
		encoded := wallet.CheckEncode(payload, net.StealthAddrID)
		_, err := DecodeStealthAddress(encoded, net)
		require.True(t, IsErrorKind(err, ErrTruncatedAddress),
			"size %d: got %v", size, err)
	}

	// Wrong version byte.
	payload := append([]byte{0x00}, hexToBytes(t, pubKeyHex1)...)
	payload = append(payload, 0x00, 0x01)
	encoded := wallet.CheckEncode(payload, 0x2a)
	_, err := DecodeStealthAddress(encoded, net)
	require.True(t, IsErrorKind(err, ErrWrongNetwork), "got %v", err)

	// Corrupted checksum propagates the base58Check error.
	addr, err := NewStealthAddress(hexToBytes(t, pubKeyHex1),
		testSpendPubKeys(t), 1, false, net)
	require.NoError(t, err)
	mangled := addr.Encode()
	last := mangled[len(mangled)-1]
	replace := byte('2')
	if last == replace {
		replace = '3'
	}
	_, err = DecodeStealthAddress(mangled[:len(mangled)-1]+
		string(replace), net)
	require.ErrorIs(t, err, wallet.ErrChecksumMismatch)
}

// TestStealthScanSecret exercises the scan secret export bundle.
func TestStealthScanSecret(t *testing.T) {
	net := &chaincfg.MainNetParams
	scanSecret := secp256k1.PrivKeyFromBytes(hexToBytes(t,
		"0000000000000000000000000000000000000000000000000000000000000001"))
	require.Equal(t, hexToBytes(t, pubKeyHex1),
		scanSecret.PubKey().SerializeCompressed())

	addr, err := NewStealthAddress(
		scanSecret.PubKey().SerializeCompressed(), testSpendPubKeys(t),
		2, false, net)
	require.NoError(t, err)

	secret := NewStealthScanSecret(scanSecret, addr, net)
	decoded, err := DecodeStealthScanSecret(secret.Encode(), net)
	require.NoError(t, err)
	require.Equal(t, scanSecret.Serialize(), decoded.ScanSecret.Serialize())
	require.Equal(t, addr.ScanPubKey, decoded.Addr.ScanPubKey)
	require.Equal(t, addr.SpendPubKeys, decoded.Addr.SpendPubKeys)
	require.Equal(t, addr.N, decoded.Addr.N)
	require.Equal(t, secret.Encode(), decoded.String())

	// Wrong version byte.
	_, err = DecodeStealthScanSecret(addr.Encode(), net)
	require.True(t, IsErrorKind(err, ErrWrongNetwork), "got %v", err)

	// Payload too short to hold the secret key.
	encoded := wallet.CheckEncode(make([]byte, 31), net.StealthScanSecretID)
	_, err = DecodeStealthScanSecret(encoded, net)
	require.True(t, IsErrorKind(err, ErrMalformedSecret), "got %v", err)
}
