// Copyright (c) 2024 The btclib developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"

	"github.com/btclib/btclib/chaincfg"
)

// TestEncodeDecodeWIF exercises WIF encoding and decoding against the well
// known reference key.
func TestEncodeDecodeWIF(t *testing.T) {
	privKeyBytes := hexToBytes(t, "0c28fca386c7a227600b2fe50b7cae11ec86"+
		"d3bf1fbe471be89827e19d72aa1d")
	privKey := secp256k1.PrivKeyFromBytes(privKeyBytes)

	tests := []struct {
		name     string
		net      *chaincfg.Params
		compress bool
		encoded  string
	}{
		{
			name:     "mainnet uncompressed",
			net:      &chaincfg.MainNetParams,
			compress: false,
			encoded:  "5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTJ",
		},
		{
			name:     "mainnet compressed",
			net:      &chaincfg.MainNetParams,
			compress: true,
			encoded:  "KwdMAjGmerYanjeui5SHS7JkmpZvVipYvB2LJGU1ZxJwYvP98617",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			wif, err := NewWIF(privKey, test.net, test.compress)
			require.NoError(t, err)
			require.Equal(t, test.encoded, wif.String())
			require.True(t, wif.IsForNet(test.net))
			require.False(t, wif.IsForNet(&chaincfg.TestNet3Params))

			// Decoding the string must reproduce the key and the
			// compression flag.
			decoded, err := DecodeWIF(test.encoded)
			require.NoError(t, err)
			require.Equal(t, test.compress, decoded.CompressPubKey)
			require.Equal(t, privKeyBytes, decoded.PrivKey.Serialize())
			require.Equal(t, test.encoded, decoded.String())
		})
	}
}

// TestDecodeWIFErrors ensures malformed WIF strings are rejected.
func TestDecodeWIFErrors(t *testing.T) {
	// Too short to hold a private key.
	_, err := DecodeWIF("5HueCGU8rMjxEXxiPuD5BDku4MkF")
	require.ErrorIs(t, err, ErrMalformedPrivateKey)

	// Correct length for a compressed key but wrong magic byte.  The
	// decoded form is netID + 32 key bytes + 0x00 + checksum.
	badMagic := make([]byte, secp256k1.PrivKeyBytesLen+1)
	encoded := CheckEncode(badMagic, chaincfg.MainNetParams.PrivateKeyID)
	_, err = DecodeWIF(encoded)
	require.ErrorIs(t, err, ErrMalformedPrivateKey)

	// Corrupted checksum.
	_, err = DecodeWIF("5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTK")
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

// TestWIFSerializePubKey ensures the associated pubkey serializes per the
// compression flag.
func TestWIFSerializePubKey(t *testing.T) {
	privKey := secp256k1.PrivKeyFromBytes(hexToBytes(t, "0c28fca386c7a2"+
		"27600b2fe50b7cae11ec86d3bf1fbe471be89827e19d72aa1d"))

	wif, err := NewWIF(privKey, &chaincfg.MainNetParams, true)
	require.NoError(t, err)
	require.Len(t, wif.SerializePubKey(), 33)

	wif, err = NewWIF(privKey, &chaincfg.MainNetParams, false)
	require.NoError(t, err)
	require.Len(t, wif.SerializePubKey(), 65)
	require.Equal(t, byte(0x04), wif.SerializePubKey()[0])
}
