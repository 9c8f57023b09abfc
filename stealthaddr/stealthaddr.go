// Copyright (c) 2024 The btclib developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package stealthaddr implements multi-recipient stealth payment addresses.
//
// A stealth address bundles a scan public key with one or more spend public
// keys and a required signature count, so a payer can derive fresh one-time
// payment keys while the recipient scans the chain with a single secret.  The
// payload is encoded with base58Check and consists of a single option flags
// byte, the 33-byte compressed scan public key, a one byte count of spend
// public keys followed by that many 33-byte compressed keys, and a final byte
// holding the number of required signatures.  Additional data at the end of
// the payload is allowed for forwards compatibility with new options.
package stealthaddr

import (
	"bytes"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/btclib/btclib/chaincfg"
	"github.com/btclib/btclib/wallet"
)

const (
	// MaxSpendPubKeys is the maximum number of distinct spend public keys
	// a stealth address may carry, including the scan public key when it
	// is reused for spending.  The limit stems from the 520-byte script
	// element limit on the multisig redeem scripts payments ultimately
	// create.
	MaxSpendPubKeys = 15

	// ReuseScanForSpendOption is the option flag bit indicating the scan
	// public key is also used as a spend public key.
	ReuseScanForSpendOption = 1 << 0

	// compressedPubKeyLen is the length of a serialized compressed
	// secp256k1 public key.
	compressedPubKeyLen = 33
)

// StealthAddress represents a decoded stealth payment address.  Public keys
// are held in their serialized compressed form since the payload encoding,
// sorting rules, and duplicate detection are all defined over the serialized
// bytes.
type StealthAddress struct {
	// OptionFlags holds the raw option flags byte from the payload.
	OptionFlags byte

	// ScanPubKey is the serialized compressed public key payers use to
	// derive payment keys and the recipient uses to scan for payments.
	ScanPubKey []byte

	// SpendPubKeys holds the serialized compressed public keys required
	// to spend payments, in canonical sorted order.
	SpendPubKeys [][]byte

	// N is the number of spend public keys which must sign to spend a
	// payment.
	N uint8

	// Extra holds any additional payload bytes which follow the known
	// fields.  They are preserved so an address round trips through
	// decoding and encoding unchanged.
	Extra []byte

	netID byte
}

// ReuseScanForSpend returns whether or not the scan public key is reused as a
// spend public key.
func (a *StealthAddress) ReuseScanForSpend() bool {
	return a.OptionFlags&ReuseScanForSpendOption != 0
}

// AllSpendPubKeys returns the full set of serialized public keys a payment
// may be spent to, which is the spend public keys plus the scan public key
// when the reuse option is set.
func (a *StealthAddress) AllSpendPubKeys() [][]byte {
	all := make([][]byte, 0, len(a.SpendPubKeys)+1)
	if a.ReuseScanForSpend() {
		all = append(all, a.ScanPubKey)
	}
	all = append(all, a.SpendPubKeys...)
	return all
}

// Payload returns the serialized stealth address payload without the leading
// network version byte or trailing checksum.
func (a *StealthAddress) Payload() []byte {
	payload := make([]byte, 0, 3+len(a.SpendPubKeys)*compressedPubKeyLen+
		compressedPubKeyLen+len(a.Extra))
	payload = append(payload, a.OptionFlags)
	payload = append(payload, a.ScanPubKey...)
	payload = append(payload, byte(len(a.SpendPubKeys)))
	for _, pubKey := range a.SpendPubKeys {
		payload = append(payload, pubKey...)
	}
	payload = append(payload, a.N)
	payload = append(payload, a.Extra...)
	return payload
}

// Encode returns the base58Check string encoding of the stealth address.
func (a *StealthAddress) Encode() string {
	return wallet.CheckEncode(a.Payload(), a.netID)
}

// String returns a human-readable string for the stealth address.  This is
// equivalent to calling Encode, but is provided so the type can be used as a
// fmt.Stringer.
func (a *StealthAddress) String() string {
	return a.Encode()
}

// IsForNet returns whether or not the stealth address is associated with the
// passed network.
func (a *StealthAddress) IsForNet(net *chaincfg.Params) bool {
	return a.netID == net.StealthAddrID
}

// validate enforces the structural rules shared by address construction and
// decoding.
func (a *StealthAddress) validate() error {
	if _, err := secp256k1.ParsePubKey(a.ScanPubKey); err != nil {
		str := fmt.Sprintf("invalid scan pubkey: %v", err)
		return makeError(ErrInvalidScanPubKey, str)
	}

	for _, pubKey := range a.SpendPubKeys {
		if _, err := secp256k1.ParsePubKey(pubKey); err != nil {
			str := fmt.Sprintf("invalid spend pubkey %x: %v",
				pubKey, err)
			return makeError(ErrInvalidSpendPubKey, str)
		}
	}

	// Spend pubkeys must be in sorted order so stealth addresses are not
	// mutable.
	for i := 1; i < len(a.SpendPubKeys); i++ {
		if bytes.Compare(a.SpendPubKeys[i-1], a.SpendPubKeys[i]) > 0 {
			return makeError(ErrUnsortedSpendPubKeys,
				"spend pubkeys not in canonical sorted order")
		}
	}

	// Check for duplicates over the full spend set, which includes the
	// scan pubkey when it is reused for spending.
	seen := make(map[string]struct{}, len(a.SpendPubKeys)+1)
	if a.ReuseScanForSpend() {
		seen[string(a.ScanPubKey)] = struct{}{}
	}
	for _, pubKey := range a.SpendPubKeys {
		if _, ok := seen[string(pubKey)]; ok {
			str := fmt.Sprintf("duplicate spend pubkey %x", pubKey)
			return makeError(ErrDuplicateSpendPubKey, str)
		}
		seen[string(pubKey)] = struct{}{}
	}

	numSpendKeys := len(seen)
	if numSpendKeys == 0 {
		return makeError(ErrNoSpendPubKeys, "no spend pubkeys specified")
	}
	if numSpendKeys > MaxSpendPubKeys {
		str := fmt.Sprintf("too many spend pubkeys: got %d, max "+
			"allowed is %d", numSpendKeys, MaxSpendPubKeys)
		return makeError(ErrTooManySpendPubKeys, str)
	}

	if a.N == 0 || int(a.N) > numSpendKeys {
		str := fmt.Sprintf("required signature count %d is not in "+
			"range 0 < n <= %d spend pubkeys", a.N, numSpendKeys)
		return makeError(ErrInvalidSigCount, str)
	}

	return nil
}

// NewStealthAddress creates a stealth address from the provided serialized
// compressed public keys.  The spend public keys must be in sorted order.
// A required signature count of zero selects the default of all spend public
// keys, including the scan public key when reuseScanForSpend is set.
func NewStealthAddress(scanPubKey []byte, spendPubKeys [][]byte, n uint8,
	reuseScanForSpend bool, net *chaincfg.Params) (*StealthAddress, error) {

	if !isCompressedPubKey(scanPubKey) {
		return nil, makeError(ErrUncompressedPubKey,
			"scan pubkey must be compressed")
	}
	for _, pubKey := range spendPubKeys {
		if !isCompressedPubKey(pubKey) {
			return nil, makeError(ErrUncompressedPubKey,
				"all spend pubkeys must be compressed")
		}
	}

	var optionFlags byte
	if reuseScanForSpend {
		optionFlags |= ReuseScanForSpendOption
	}

	if n == 0 {
		total := len(spendPubKeys)
		if reuseScanForSpend {
			total++
		}
		if total > MaxSpendPubKeys {
			str := fmt.Sprintf("too many spend pubkeys: got %d, "+
				"max allowed is %d", total, MaxSpendPubKeys)
			return nil, makeError(ErrTooManySpendPubKeys, str)
		}
		n = uint8(total)
	}

	addr := &StealthAddress{
		OptionFlags:  optionFlags,
		ScanPubKey:   scanPubKey,
		SpendPubKeys: spendPubKeys,
		N:            n,
		netID:        net.StealthAddrID,
	}
	if err := addr.validate(); err != nil {
		return nil, err
	}
	return addr, nil
}

// isCompressedPubKey returns whether or not the serialized public key is in
// the 33-byte compressed format.
func isCompressedPubKey(pubKey []byte) bool {
	return len(pubKey) == compressedPubKeyLen &&
		(pubKey[0] == 0x02 || pubKey[0] == 0x03)
}

// parsePayload decodes and validates a raw stealth address payload.
func parsePayload(payload []byte, netID byte) (*StealthAddress, error) {
	if len(payload) < 1+compressedPubKeyLen {
		return nil, makeError(ErrTruncatedAddress,
			"stealth address truncated at scan pubkey")
	}

	addr := &StealthAddress{
		OptionFlags: payload[0],
		netID:       netID,
	}

	i := 1
	addr.ScanPubKey = payload[i : i+compressedPubKeyLen]
	i += compressedPubKeyLen

	if i >= len(payload) {
		return nil, makeError(ErrTruncatedAddress,
			"stealth address truncated at spend pubkey count")
	}
	m := int(payload[i])
	i++

	if len(payload) < i+m*compressedPubKeyLen+1 {
		return nil, makeError(ErrTruncatedAddress,
			"stealth address truncated")
	}
	addr.SpendPubKeys = make([][]byte, 0, m)
	for j := 0; j < m; j++ {
		addr.SpendPubKeys = append(addr.SpendPubKeys,
			payload[i:i+compressedPubKeyLen])
		i += compressedPubKeyLen
	}

	addr.N = payload[i]
	i++

	// Additional data at the end of an address is allowed for forwards
	// compatibility with new options.
	addr.Extra = payload[i:]

	if err := addr.validate(); err != nil {
		return nil, err
	}
	return addr, nil
}

// DecodeStealthAddress decodes the base58Check string encoding of a stealth
// address for the provided network.
func DecodeStealthAddress(addr string, net *chaincfg.Params) (*StealthAddress, error) {
	payload, netID, err := wallet.CheckDecode(addr)
	if err != nil {
		return nil, err
	}
	if netID != net.StealthAddrID {
		str := fmt.Sprintf("stealth address version %#x does not "+
			"match expected %#x", netID, net.StealthAddrID)
		return nil, makeError(ErrWrongNetwork, str)
	}
	return parsePayload(payload, netID)
}

// StealthScanSecret bundles a stealth address with the scan secret key used
// to find payments to it, so the pair can be exported to a scanning service
// as a single base58Check string.
type StealthScanSecret struct {
	// ScanSecret is the private key corresponding to the scan public key
	// of the address.
	ScanSecret *secp256k1.PrivateKey

	// Addr is the stealth address the secret scans for.
	Addr *StealthAddress

	netID byte
}

// NewStealthScanSecret bundles the provided scan secret with a stealth
// address.
func NewStealthScanSecret(scanSecret *secp256k1.PrivateKey,
	addr *StealthAddress, net *chaincfg.Params) *StealthScanSecret {

	return &StealthScanSecret{
		ScanSecret: scanSecret,
		Addr:       addr,
		netID:      net.StealthScanSecretID,
	}
}

// Encode returns the base58Check string encoding of the scan secret bundle.
func (s *StealthScanSecret) Encode() string {
	payload := make([]byte, 0, 32+len(s.Addr.Payload()))
	payload = append(payload, s.ScanSecret.Serialize()...)
	payload = append(payload, s.Addr.Payload()...)
	return wallet.CheckEncode(payload, s.netID)
}

// String returns a human-readable string for the scan secret bundle.
func (s *StealthScanSecret) String() string {
	return s.Encode()
}

// DecodeStealthScanSecret decodes the base58Check string encoding of a scan
// secret bundle for the provided network.
func DecodeStealthScanSecret(secret string, net *chaincfg.Params) (*StealthScanSecret, error) {
	payload, netID, err := wallet.CheckDecode(secret)
	if err != nil {
		return nil, err
	}
	if netID != net.StealthScanSecretID {
		str := fmt.Sprintf("scan secret version %#x does not match "+
			"expected %#x", netID, net.StealthScanSecretID)
		return nil, makeError(ErrWrongNetwork, str)
	}
	if len(payload) < 32 {
		return nil, makeError(ErrMalformedSecret,
			"scan secret bundle truncated at secret key")
	}

	addr, err := parsePayload(payload[32:], net.StealthAddrID)
	if err != nil {
		return nil, err
	}

	return &StealthScanSecret{
		ScanSecret: secp256k1.PrivKeyFromBytes(payload[:32]),
		Addr:       addr,
		netID:      netID,
	}, nil
}
