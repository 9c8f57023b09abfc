// Copyright (c) 2024 The btclib developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/btclib/btclib/chainhash"
)

// checkPubKeyEncoding returns whether or not the passed public key adheres to
// the strict encoding requirements.  It is only applied when the engine has
// the ScriptVerifyStrictEncoding flag set.
func (vm *Engine) checkPubKeyEncoding(pubKey []byte) error {
	if !vm.hasFlag(ScriptVerifyStrictEncoding) {
		return nil
	}

	if len(pubKey) == 33 && (pubKey[0] == 0x02 || pubKey[0] == 0x03) {
		// Compressed
		return nil
	}
	if len(pubKey) == 65 && pubKey[0] == 0x04 {
		// Uncompressed
		return nil
	}

	return scriptError(ErrPubKeyFormat, "unsupported public key type")
}

// checkSignatureEncoding returns whether or not the passed signature adheres
// to the strict DER encoding requirements.  It is only applied when the
// engine has the ScriptVerifyStrictEncoding or ScriptVerifyEvenS flags set.
// The signature passed here excludes the trailing hash type byte.
func (vm *Engine) checkSignatureEncoding(sig []byte) error {
	if !vm.hasFlag(ScriptVerifyStrictEncoding) &&
		!vm.hasFlag(ScriptVerifyEvenS) {

		return nil
	}

	// The format of a DER encoded signature is as follows:
	//
	// 0x30 <total length> 0x02 <length of R> <R> 0x02 <length of S> <S>
	//   - 0x30 is the ASN.1 identifier for a sequence
	//   - Total length is 1 byte and specifies length of all remaining data
	//   - 0x02 is the ASN.1 identifier that specifies an integer follows
	//   - Length of R is 1 byte and specifies how many bytes R occupies
	//   - R is the arbitrary length big-endian encoded number which
	//     represents the R value of the signature.
	//   - 0x02 is once again the ASN.1 integer identifier
	//   - Length of S is 1 byte and specifies how many bytes S occupies
	//   - S is the arbitrary length big-endian encoded number which
	//     represents the S value of the signature.
	const (
		asn1SequenceID = 0x30
		asn1IntegerID  = 0x02

		// minSigLen is the minimum length of a DER encoded signature.
		//
		// It is calculated as: 0x30 (1) + <length> (1) + 0x02 (1) +
		// <length of R> (1) + <minimum R> (1) + 0x02 (1) +
		// <length of S> (1) + <minimum S> (1)
		minSigLen = 8
	)
	if len(sig) < minSigLen {
		str := fmt.Sprintf("malformed signature: too short: %d < %d",
			len(sig), minSigLen)
		return scriptError(ErrSigDER, str)
	}
	if sig[0] != asn1SequenceID {
		str := fmt.Sprintf("malformed signature: format has wrong "+
			"type: %#x", sig[0])
		return scriptError(ErrSigDER, str)
	}
	if int(sig[1]) != len(sig)-2 {
		str := fmt.Sprintf("malformed signature: bad length: %d != %d",
			sig[1], len(sig)-2)
		return scriptError(ErrSigDER, str)
	}
	if sig[2] != asn1IntegerID {
		str := fmt.Sprintf("malformed signature: R integer marker: "+
			"%#x != %#x", sig[2], asn1IntegerID)
		return scriptError(ErrSigDER, str)
	}
	rLen := int(sig[3])
	if rLen+7 > len(sig) {
		str := fmt.Sprintf("malformed signature: R length %d is too "+
			"long", rLen)
		return scriptError(ErrSigDER, str)
	}
	sTypeOffset := rLen + 4
	if sig[sTypeOffset] != asn1IntegerID {
		str := fmt.Sprintf("malformed signature: S integer marker: "+
			"%#x != %#x", sig[sTypeOffset], asn1IntegerID)
		return scriptError(ErrSigDER, str)
	}
	sLen := int(sig[sTypeOffset+1])
	if sLen+rLen+6 != len(sig) {
		str := fmt.Sprintf("malformed signature: S length %d is "+
			"invalid", sLen)
		return scriptError(ErrSigDER, str)
	}
	if rLen == 0 || sLen == 0 {
		return scriptError(ErrSigDER,
			"malformed signature: zero length integer")
	}

	if vm.hasFlag(ScriptVerifyEvenS) {
		sBytes := sig[sTypeOffset+2 : sTypeOffset+2+sLen]
		if sBytes[len(sBytes)-1]&0x01 != 0 {
			return scriptError(ErrSigEvenS,
				"signature has odd S value")
		}
	}

	return nil
}

// checkSig checks a signature against a public key using the script starting
// from the most recent OP_CODESEPARATOR.  The final byte of the signature is
// the hash type used to compute the signature hash.
//
// Every failure mode, including an empty or unparseable signature or public
// key, reports as false rather than an error in order to match the consensus
// behavior of the reference implementation.
func (vm *Engine) checkSig(fullSig, pubKeyBytes, script []byte) bool {
	// The signature must be at least one byte so the hash type can be
	// extracted from the end of it.
	if len(fullSig) == 0 {
		return false
	}
	hashType := SigHashType(fullSig[len(fullSig)-1])
	sigBytes := fullSig[:len(fullSig)-1]

	pubKey, err := secp256k1.ParsePubKey(pubKeyBytes)
	if err != nil {
		return false
	}

	signature, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return false
	}

	sigHash := calcSignatureHash(script, hashType, &vm.tx, vm.txIdx)

	useCache := vm.sigCache != nil && !vm.hasFlag(ScriptNoCache)
	var cacheKey chainhash.Hash
	copy(cacheKey[:], sigHash)
	if useCache && vm.sigCache.Exists(cacheKey, signature, pubKey) {
		return true
	}

	valid := signature.Verify(sigHash, pubKey)
	if valid && useCache {
		vm.sigCache.Add(cacheKey, signature, pubKey)
	}
	return valid
}

// sigCheck implements both OP_CHECKSIG and OP_CHECKSIGVERIFY.
//
// The signature and public key are left on the stack when a verify variant
// fails so the error reports the state the script was in when the check
// failed.
func sigCheck(op *opcode, vm *Engine) error {
	pubKey, err := vm.dstack.PeekByteArray(0)
	if err != nil {
		return err
	}
	fullSig, err := vm.dstack.PeekByteArray(1)
	if err != nil {
		return err
	}

	if len(fullSig) > 0 {
		if err := vm.checkSignatureEncoding(fullSig[:len(fullSig)-1]); err != nil {
			return err
		}
		if err := vm.checkPubKeyEncoding(pubKey); err != nil {
			return err
		}
	}

	// The signature is removed from the subscript since there is no way for
	// a signature to sign itself.  In practice this can only matter for
	// unusual scripts since the signature script and public key script are
	// executed separately.
	subScript := findAndDelete(vm.subScript(), fullSig)

	valid := vm.checkSig(fullSig, pubKey, subScript)

	if !valid && op.value == OP_CHECKSIGVERIFY {
		return scriptError(ErrCheckSigVerify, "signature check failed")
	}

	vm.dstack.DropN(2)
	if op.value == OP_CHECKSIG {
		vm.dstack.PushBool(valid)
	}
	return nil
}

// multiSigCheck implements both OP_CHECKMULTISIG and OP_CHECKMULTISIGVERIFY.
//
// The stack is expected to contain, from the top down, the number of public
// keys, that many public keys, the number of signatures, that many
// signatures, and a final dummy item which is consumed but otherwise ignored
// due to a bug in the original implementation.
//
// Signatures must be in the same relative order as the public keys they match
// because verification walks both lists from the top down and each public key
// is only tried once.  As soon as more signatures remain than public keys the
// check fails.
func multiSigCheck(op *opcode, vm *Engine) error {
	numKeys, err := vm.dstack.PeekInt(0)
	if err != nil {
		return err
	}
	numPubKeys := int(numKeys.Int32())
	if numPubKeys < 0 || numPubKeys > MaxPubKeysPerMultiSig {
		str := fmt.Sprintf("number of pubkeys %d is invalid", numPubKeys)
		return scriptError(ErrInvalidPubKeyCount, str)
	}

	// The keys themselves plus the item holding the signature count must
	// already be on the stack.
	if vm.dstack.Depth() < int32(2+numPubKeys) {
		str := fmt.Sprintf("stack of size %d is missing public keys "+
			"for %s", vm.dstack.Depth(), op.name)
		return scriptError(ErrInvalidStackOperation, str)
	}

	numSignatures, err := vm.dstack.PeekInt(int32(1 + numPubKeys))
	if err != nil {
		return err
	}
	numSigs := int(numSignatures.Int32())
	if numSigs < 0 || numSigs > numPubKeys {
		str := fmt.Sprintf("number of signatures %d is invalid", numSigs)
		return scriptError(ErrInvalidSignatureCount, str)
	}

	// Including the dummy item consumed due to the off-by-one bug in the
	// original implementation.
	totalItems := 3 + numPubKeys + numSigs
	if vm.dstack.Depth() < int32(totalItems) {
		str := fmt.Sprintf("stack of size %d is missing signatures "+
			"for %s", vm.dstack.Depth(), op.name)
		return scriptError(ErrInvalidStackOperation, str)
	}

	pubKeys := make([][]byte, 0, numPubKeys)
	for i := 0; i < numPubKeys; i++ {
		pubKey, err := vm.dstack.PeekByteArray(int32(1 + i))
		if err != nil {
			return err
		}
		pubKeys = append(pubKeys, pubKey)
	}

	signatures := make([][]byte, 0, numSigs)
	for i := 0; i < numSigs; i++ {
		sig, err := vm.dstack.PeekByteArray(int32(2 + numPubKeys + i))
		if err != nil {
			return err
		}
		signatures = append(signatures, sig)
	}

	// Drop each signature from the subscript since there is no way for a
	// signature to sign itself.
	script := vm.subScript()
	for _, sig := range signatures {
		script = findAndDelete(script, sig)
	}

	success := true
	sigIdx, keyIdx := 0, 0
	sigsRemaining, keysRemaining := numSigs, numPubKeys
	for success && sigsRemaining > 0 {
		fullSig := signatures[sigIdx]
		pubKey := pubKeys[keyIdx]

		if len(fullSig) > 0 {
			err := vm.checkSignatureEncoding(fullSig[:len(fullSig)-1])
			if err != nil {
				return err
			}
			if err := vm.checkPubKeyEncoding(pubKey); err != nil {
				return err
			}
		}

		if vm.checkSig(fullSig, pubKey, script) {
			sigIdx++
			sigsRemaining--
		}

		keyIdx++
		keysRemaining--

		// When there are more signatures remaining than public keys
		// remaining, there is no way to succeed since too many
		// signatures are invalid, so exit early.
		if sigsRemaining > keysRemaining {
			success = false

			// A verify variant bails out before the stack is
			// modified so the failure reports the state the script
			// was in when the check failed.
			if op.value == OP_CHECKMULTISIGVERIFY {
				return scriptError(ErrCheckMultiSigVerify,
					"not enough valid signatures")
			}
		}
	}

	vm.dstack.DropN(int32(totalItems))
	if op.value == OP_CHECKMULTISIG {
		vm.dstack.PushBool(success)
	}
	return nil
}
