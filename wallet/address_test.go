// Copyright (c) 2024 The btclib developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btclib/btclib/chaincfg"
)

func hexToBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// TestCheckEncodeDecode ensures the base58Check encoding round trips and that
// corrupted encodings are rejected.
func TestCheckEncodeDecode(t *testing.T) {
	// An all-zero pubkey hash with a zero version encodes to the well
	// known burn address.
	zeroHash := make([]byte, 20)
	encoded := CheckEncode(zeroHash, 0)
	require.Equal(t, "1111111111111111111114oLvT2", encoded)

	decoded, version, err := CheckDecode(encoded)
	require.NoError(t, err)
	require.Equal(t, byte(0), version)
	require.Equal(t, zeroHash, decoded)

	// Round trip arbitrary payloads and versions.
	for _, test := range []struct {
		payload []byte
		version byte
	}{
		{[]byte{}, 0},
		{[]byte{0x01}, 5},
		{[]byte("some bytes to encode"), 0x6f},
	} {
		encoded := CheckEncode(test.payload, test.version)
		decoded, version, err := CheckDecode(encoded)
		require.NoError(t, err)
		require.Equal(t, test.version, version)
		require.True(t, bytes.Equal(test.payload, decoded))
	}

	// Corrupting the encoding must fail the checksum.
	corrupt := "1111111111111111111114oLvT3"
	_, _, err = CheckDecode(corrupt)
	require.ErrorIs(t, err, ErrChecksumMismatch)

	// Too short to hold a version and checksum.
	_, _, err = CheckDecode("3MNQE1X")
	require.ErrorIs(t, err, ErrMalformedAddress)
}

// TestAddresses tests address decoding, encoding, and conversion to the raw
// script form against known vectors.
func TestAddresses(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		hash    string
		net     *chaincfg.Params
		mkAddr  func(t *testing.T, hash []byte, net *chaincfg.Params) Address
		decoded func(Address) bool
	}{
		{
			name: "mainnet p2pkh",
			addr: "1MirQ9bwyQcGVJPwKUgapu5ouK2E2Ey4gX",
			hash: "e34cce70c86373273efcc54ce7d2a491bb4a0e84",
			net:  &chaincfg.MainNetParams,
			mkAddr: func(t *testing.T, hash []byte, net *chaincfg.Params) Address {
				addr, err := NewAddressPubKeyHash(hash, net)
				require.NoError(t, err)
				return addr
			},
			decoded: func(a Address) bool {
				_, ok := a.(*AddressPubKeyHash)
				return ok
			},
		},
		{
			name: "mainnet p2pkh 2",
			addr: "12MzCDwodF9G1e7jfwLXfR164RNtx4BRVG",
			hash: "0ef030107fd26e0b6bf40512bca2ceb1dd80adaa",
			net:  &chaincfg.MainNetParams,
			mkAddr: func(t *testing.T, hash []byte, net *chaincfg.Params) Address {
				addr, err := NewAddressPubKeyHash(hash, net)
				require.NoError(t, err)
				return addr
			},
			decoded: func(a Address) bool {
				_, ok := a.(*AddressPubKeyHash)
				return ok
			},
		},
		{
			name: "testnet p2pkh",
			addr: "mrX9vMRYLfVy1BnZbc5gZjuyaqH3ZW2ZHz",
			hash: "78b316a08647d5b77283e512d3603f1f1c8de68f",
			net:  &chaincfg.TestNet3Params,
			mkAddr: func(t *testing.T, hash []byte, net *chaincfg.Params) Address {
				addr, err := NewAddressPubKeyHash(hash, net)
				require.NoError(t, err)
				return addr
			},
			decoded: func(a Address) bool {
				_, ok := a.(*AddressPubKeyHash)
				return ok
			},
		},
		{
			name: "mainnet p2sh",
			addr: "3NukJ6fYZJ5Kk8bPjycAnruZkE5Q7UW7i8",
			hash: "e8c300c87986efa84c37c0519929019ef86eb5b4",
			net:  &chaincfg.MainNetParams,
			mkAddr: func(t *testing.T, hash []byte, net *chaincfg.Params) Address {
				addr, err := NewAddressScriptHashFromHash(hash, net)
				require.NoError(t, err)
				return addr
			},
			decoded: func(a Address) bool {
				_, ok := a.(*AddressScriptHash)
				return ok
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			hash := hexToBytes(t, test.hash)

			// Constructing from the raw hash must produce the
			// expected encoding.
			addr := test.mkAddr(t, hash, test.net)
			require.Equal(t, test.addr, addr.EncodeAddress())
			require.Equal(t, test.addr, addr.String())
			require.Equal(t, hash, addr.ScriptAddress())
			require.True(t, addr.IsForNet(test.net))

			// Decoding the string form must produce the same
			// address.
			decoded, err := DecodeAddress(test.addr, test.net)
			require.NoError(t, err)
			require.True(t, test.decoded(decoded))
			require.Equal(t, test.addr, decoded.EncodeAddress())
			require.Equal(t, hash, decoded.ScriptAddress())
		})
	}
}

// TestDecodeAddressErrors ensures invalid address strings produce the
// documented errors.
func TestDecodeAddressErrors(t *testing.T) {
	// Valid checksum but a version byte no network uses.
	encoded := CheckEncode(make([]byte, 20), 0x33)
	_, err := DecodeAddress(encoded, &chaincfg.MainNetParams)
	require.ErrorIs(t, err, ErrUnknownAddressType)

	// Mainnet address on testnet.
	_, err = DecodeAddress("1MirQ9bwyQcGVJPwKUgapu5ouK2E2Ey4gX",
		&chaincfg.TestNet3Params)
	require.ErrorIs(t, err, ErrUnknownAddressType)

	// Corrupted checksum.
	_, err = DecodeAddress("1MirQ9bwyQcGVJPwKUgapu5ouK2E2Ey4gY",
		&chaincfg.MainNetParams)
	require.ErrorIs(t, err, ErrChecksumMismatch)

	// Payload that is not a pubkey or script hash length.
	encoded = CheckEncode(make([]byte, 10), 0)
	_, err = DecodeAddress(encoded, &chaincfg.MainNetParams)
	require.Error(t, err)

	// Wrong hash size for the constructors.
	_, err = NewAddressPubKeyHash(make([]byte, 21), &chaincfg.MainNetParams)
	require.Error(t, err)
	_, err = NewAddressScriptHashFromHash(make([]byte, 19),
		&chaincfg.MainNetParams)
	require.Error(t, err)
}

// TestAddressPubKey exercises pay-to-pubkey addresses in both serialization
// formats.
func TestAddressPubKey(t *testing.T) {
	// Compressed pubkey.
	serialized := hexToBytes(t, "02192d74d0cb94344c9569c2e77901573d8d79"+
		"03c3ebec3a957724895dca52c6b4")
	addr, err := NewAddressPubKey(serialized, &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.Equal(t, PKFCompressed, addr.Format())
	require.Equal(t, serialized, addr.ScriptAddress())
	require.Equal(t, hex.EncodeToString(serialized), addr.String())
	require.Equal(t, "13CG6SJ3yHUXo4Cr2RY4THLLJrNFuG3gUg",
		addr.EncodeAddress())
	require.True(t, addr.IsForNet(&chaincfg.MainNetParams))

	// The derived pubkey hash address must encode the same way.
	pkHashAddr := addr.AddressPubKeyHash()
	require.Equal(t, addr.EncodeAddress(), pkHashAddr.EncodeAddress())

	// Uncompressed pubkey.
	serialized = hexToBytes(t, "0411db93e1dcdb8a016b49840f8c53bc1eb68a38"+
		"2e97b1482ecad7b148a6909a5cb2e0eaddfb84ccf9744464f82e160bfa9b"+
		"8b64f9d4c03f999b8643f656b412a3")
	addr, err = NewAddressPubKey(serialized, &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.Equal(t, PKFUncompressed, addr.Format())
	require.Equal(t, serialized, addr.ScriptAddress())
	require.Equal(t, "12cbQLTFMXRnSzktFkuoG3eHoMeFtpTu3S",
		addr.EncodeAddress())

	// Switching the format changes the serialization and therefore the
	// pubkey hash encoding.
	addr.SetFormat(PKFCompressed)
	require.Equal(t, PKFCompressed, addr.Format())
	require.Len(t, addr.ScriptAddress(), 33)
	require.NotEqual(t, "12cbQLTFMXRnSzktFkuoG3eHoMeFtpTu3S",
		addr.EncodeAddress())

	// A serialized pubkey that is not a valid curve point is rejected.
	_, err = NewAddressPubKey(hexToBytes(t, "02000000000000000000000000"+
		"0000000000000000000000000000000000000000"),
		&chaincfg.MainNetParams)
	require.Error(t, err)
}

// TestHash160 verifies the ripemd160 over sha256 helper against a known
// vector.
func TestHash160(t *testing.T) {
	// Hash160 of a well-known uncompressed pubkey.
	pubKey := hexToBytes(t, "0411db93e1dcdb8a016b49840f8c53bc1eb68a382e"+
		"97b1482ecad7b148a6909a5cb2e0eaddfb84ccf9744464f82e160bfa9b8b"+
		"64f9d4c03f999b8643f656b412a3")
	want := hexToBytes(t, "11b366edfc0a8b66feebae5c2e25a7b6a5d1cf31")
	require.Equal(t, want, Hash160(pubKey))
}
