// Copyright (c) 2024 The btclib developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// These are the constants specified for maximums in individual scripts.
const (
	// MaxOpsPerScript is the maximum number of non-push operations allowed
	// per script.
	MaxOpsPerScript = 201

	// MaxPubKeysPerMultiSig is the maximum number of public keys allowed
	// per OP_CHECKMULTISIG.
	MaxPubKeysPerMultiSig = 20

	// MaxScriptElementSize is the maximum length of an element pushed to
	// the stack.
	MaxScriptElementSize = 520

	// MaxScriptSize is the maximum allowed length in bytes of a raw script.
	MaxScriptSize = 10000

	// MaxStackSize is the maximum combined height of the data and alternate
	// stacks during execution.
	MaxStackSize = 1000
)

// IsSmallInt returns whether or not the opcode is considered a small integer,
// which is an OP_0, or OP_1 through OP_16.
func IsSmallInt(op byte) bool {
	return op == OP_0 || (op >= OP_1 && op <= OP_16)
}

// AsSmallInt returns the passed opcode, which must be true according to
// IsSmallInt, as an integer.
func AsSmallInt(op byte) int {
	if op == OP_0 {
		return 0
	}

	return int(op - (OP_1 - 1))
}

// IsPayToScriptHash returns true if the script is in the standard
// pay-to-script-hash (P2SH) format, false otherwise.
func IsPayToScriptHash(script []byte) bool {
	return isScriptHashScript(script)
}

// isScriptHashScript returns whether or not the passed script is a standard
// pay-to-script-hash script.
func isScriptHashScript(script []byte) bool {
	return len(script) == 23 &&
		script[0] == OP_HASH160 &&
		script[1] == OP_DATA_20 &&
		script[22] == OP_EQUAL
}

// ExtractScriptHash extracts the script hash from the passed script if it is a
// standard pay-to-script-hash script.  It will return nil otherwise.
func ExtractScriptHash(script []byte) []byte {
	if isScriptHashScript(script) {
		return script[2:22]
	}

	return nil
}

// IsPushOnlyScript returns whether or not the passed script only pushes data
// according to the consensus rules.
//
// False will be returned when the script does not parse.
func IsPushOnlyScript(script []byte) bool {
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		// All opcodes up to OP_16 are data push instructions.
		// NOTE: This does consider OP_RESERVED to be a data push
		// instruction, but execution of OP_RESERVED will fail anyway
		// and matches the behavior required by consensus.
		if tokenizer.Opcode() > OP_16 {
			return false
		}
	}
	return tokenizer.Err() == nil
}

// checkScriptParses returns an error if the provided script fails to parse.
func checkScriptParses(script []byte) error {
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		// Nothing to do.
	}
	return tokenizer.Err()
}

// removeOpcodeRaw will return the script after removing any opcodes that match
// `opcode`.  It will return the original script if the opcode does not appear
// in the script.
//
// NOTE: This function is only valid for scripts which parse.  It will
// silently stop removing at the point a parse failure is hit.
func removeOpcodeRaw(script []byte, opcode byte) []byte {
	// Avoid work when possible.
	if bytes.IndexByte(script, opcode) < 0 {
		return script
	}

	result := make([]byte, 0, len(script))
	var prevOffset int32
	tokenizer := MakeScriptTokenizer(script)
	for tokenizer.Next() {
		if tokenizer.Opcode() != opcode {
			result = append(result, script[prevOffset:tokenizer.ByteIndex()]...)
		}
		prevOffset = tokenizer.ByteIndex()
	}
	return result
}

// canonicalPush returns the canonical serialization of a data push as produced
// by the reference implementation when building scripts from data, which is
// what signature matching relies on.  Note this is purely length based and
// does not use the small integer opcodes for single-byte values.
func canonicalPush(data []byte) []byte {
	dataLen := len(data)
	var buf bytes.Buffer
	buf.Grow(5 + dataLen)
	switch {
	case dataLen < OP_PUSHDATA1:
		buf.WriteByte(byte(dataLen))
	case dataLen <= 0xff:
		buf.WriteByte(OP_PUSHDATA1)
		buf.WriteByte(byte(dataLen))
	case dataLen <= 0xffff:
		buf.WriteByte(OP_PUSHDATA2)
		var lenBytes [2]byte
		binary.LittleEndian.PutUint16(lenBytes[:], uint16(dataLen))
		buf.Write(lenBytes[:])
	default:
		buf.WriteByte(OP_PUSHDATA4)
		var lenBytes [4]byte
		binary.LittleEndian.PutUint32(lenBytes[:], uint32(dataLen))
		buf.Write(lenBytes[:])
	}
	buf.Write(data)

	return buf.Bytes()
}

// findAndDelete removes every occurrence of the canonical push of the
// provided data from the script and returns the result.
//
// Since the reference implementation works on a binary level, so must this.
// In particular, only pushes that exactly match the canonical serialization
// are removed, so a push of the same data with a non-standard push opcode is
// left alone, and matching runs of bytes are removed without regard to
// instruction boundaries.
func findAndDelete(script []byte, data []byte) []byte {
	push := canonicalPush(data)
	if !bytes.Contains(script, push) {
		return script
	}
	return bytes.ReplaceAll(script, push, nil)
}

// DisasmString formats a disassembled script for one line printing.  When the
// script fails to parse, the returned string will contain the disassembled
// script up to the point the failure occurred along with the string '[error]'
// appended.  In addition, the reason the script failed to parse is returned
// if the caller wants more information about the failure.
//
// NOTE: This function is only valid for scripts which parse.
func DisasmString(script []byte) (string, error) {
	var disbuf strings.Builder
	tokenizer := MakeScriptTokenizer(script)
	if tokenizer.Next() {
		disasmOpcode(&disbuf, tokenizer.op, tokenizer.Data(), true)
	}
	for tokenizer.Next() {
		disbuf.WriteByte(' ')
		disasmOpcode(&disbuf, tokenizer.op, tokenizer.Data(), true)
	}
	if tokenizer.Err() != nil {
		if tokenizer.ByteIndex() != 0 {
			disbuf.WriteByte(' ')
		}
		disbuf.WriteString("[error]")
	}
	return disbuf.String(), tokenizer.Err()
}

// sigHashString returns a human-readable representation of a signature hash
// type suitable for error messages.
func sigHashString(hashType SigHashType) string {
	var flag string
	if hashType&SigHashAnyOneCanPay == SigHashAnyOneCanPay {
		flag = "|SigHashAnyOneCanPay"
	}
	switch hashType & sigHashMask {
	case SigHashAll:
		return "SigHashAll" + flag
	case SigHashNone:
		return "SigHashNone" + flag
	case SigHashSingle:
		return "SigHashSingle" + flag
	}
	return fmt.Sprintf("0x%x", uint32(hashType))
}
