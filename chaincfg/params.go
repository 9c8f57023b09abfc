// Copyright (c) 2024 The btclib developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines network parameters for the various bitcoin
// networks that are consumed by the address encoding and decoding routines.
package chaincfg

// Params defines a bitcoin network by its parameters.  These parameters may be
// used by applications to differentiate networks as well as addresses and keys
// for one network from those intended for use on another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// PubKeyHashAddrID is the magic byte used in the base58Check encoding
	// of pay-to-pubkey-hash addresses.
	PubKeyHashAddrID byte

	// ScriptHashAddrID is the magic byte used in the base58Check encoding
	// of pay-to-script-hash addresses.
	ScriptHashAddrID byte

	// PrivateKeyID is the magic byte used in the base58Check wallet import
	// format encoding of private keys.
	PrivateKeyID byte

	// StealthAddrID is the magic byte used in the base58Check encoding of
	// stealth payment addresses.
	StealthAddrID byte

	// StealthScanSecretID is the magic byte used in the base58Check
	// encoding of a stealth address bundled with its scan secret.
	StealthScanSecretID byte
}

// MainNetParams defines the network parameters for the main bitcoin network.
var MainNetParams = Params{
	Name:                "mainnet",
	PubKeyHashAddrID:    0x00,
	ScriptHashAddrID:    0x05,
	PrivateKeyID:        0x80,
	StealthAddrID:       0xff,
	StealthScanSecretID: 0xfe,
}

// TestNet3Params defines the network parameters for the test bitcoin network
// (version 3).
var TestNet3Params = Params{
	Name:                "testnet3",
	PubKeyHashAddrID:    0x6f,
	ScriptHashAddrID:    0xc4,
	PrivateKeyID:        0xef,
	StealthAddrID:       0xff,
	StealthScanSecretID: 0xfe,
}

// RegressionNetParams defines the network parameters for the regression test
// bitcoin network.  It shares the address encodings of the test network.
var RegressionNetParams = Params{
	Name:                "regnet",
	PubKeyHashAddrID:    0x6f,
	ScriptHashAddrID:    0xc4,
	PrivateKeyID:        0xef,
	StealthAddrID:       0xff,
	StealthScanSecretID: 0xfe,
}
