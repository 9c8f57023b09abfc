// Copyright (c) 2024 The btclib developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"encoding/binary"

	"github.com/btclib/btclib/chainhash"
	"github.com/btclib/btclib/wire"
)

// SigHashType represents hash type bits at the end of a signature.
type SigHashType uint32

// Hash type bits from the end of a signature.
const (
	SigHashOld          SigHashType = 0x0
	SigHashAll          SigHashType = 0x1
	SigHashNone         SigHashType = 0x2
	SigHashSingle       SigHashType = 0x3
	SigHashAnyOneCanPay SigHashType = 0x80

	// sigHashMask defines the number of bits of the hash type which are
	// used to identify which outputs are signed.
	sigHashMask = 0x1f
)

// calcSignatureHash computes the hash committed to by a signature over the
// given script and transaction input.
//
// The passed script should already be the subscript starting from the most
// recently executed OP_CODESEPARATOR.  Any remaining OP_CODESEPARATORs are
// removed here before hashing.
//
// Due to a bug in the original Satoshi client implementation, two error
// conditions intentionally do not produce errors.  When the input index is
// out of range for the transaction, or the SigHashSingle hash type is used
// with an input index that does not have a corresponding output, the returned
// hash is the value one as a little endian uint256.  Signatures created or
// verified against that value are worthless, but rejecting them outright
// would change the consensus result, so callers receive the buggy hash
// instead of an error.
func calcSignatureHash(script []byte, hashType SigHashType, tx *wire.MsgTx, idx int) []byte {
	// The described bug causes an out of range input index to hash to one.
	if idx >= len(tx.TxIn) {
		var hash chainhash.Hash
		hash[0] = 0x01
		return hash[:]
	}

	// Remove all instances of OP_CODESEPARATOR still left in the script.
	script = removeOpcodeRaw(script, OP_CODESEPARATOR)

	// Make a deep copy of the transaction, zeroing out the script for all
	// inputs that are not currently being processed.
	txCopy := tx.Copy()
	for i := range txCopy.TxIn {
		if i == idx {
			txCopy.TxIn[idx].SignatureScript = script
		} else {
			txCopy.TxIn[i].SignatureScript = nil
		}
	}

	switch hashType & sigHashMask {
	case SigHashNone:
		txCopy.TxOut = txCopy.TxOut[0:0] // Empty slice.
		for i := range txCopy.TxIn {
			if i != idx {
				txCopy.TxIn[i].Sequence = 0
			}
		}

	case SigHashSingle:
		if idx >= len(txCopy.TxOut) {
			// The described bug causes SigHashSingle with an input
			// index that has no corresponding output to hash to one.
			var hash chainhash.Hash
			hash[0] = 0x01
			return hash[:]
		}

		// Resize output array to up to and including requested index.
		txCopy.TxOut = txCopy.TxOut[:idx+1]

		// All but current output get zeroed out.
		for i := 0; i < idx; i++ {
			txCopy.TxOut[i].Value = -1
			txCopy.TxOut[i].PkScript = nil
		}

		// Sequence on all other inputs is 0, too.
		for i := range txCopy.TxIn {
			if i != idx {
				txCopy.TxIn[i].Sequence = 0
			}
		}

	default:
		// Consensus treats undefined hashtypes like normal SigHashAll
		// for purposes of hash generation.
		fallthrough
	case SigHashOld:
		fallthrough
	case SigHashAll:
		// Nothing special here.
	}
	if hashType&SigHashAnyOneCanPay != 0 {
		txCopy.TxIn = txCopy.TxIn[idx : idx+1]
	}

	// The final hash is the double sha256 of both the serialized modified
	// transaction and the hash type (encoded as a 4-byte little-endian
	// value) appended.
	var wbuf bytes.Buffer
	wbuf.Grow(txCopy.SerializeSize() + 4)
	txCopy.Serialize(&wbuf)
	var ht [4]byte
	binary.LittleEndian.PutUint32(ht[:], uint32(hashType))
	wbuf.Write(ht[:])
	return chainhash.DoubleHashB(wbuf.Bytes())
}
