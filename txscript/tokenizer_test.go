// Copyright (c) 2024 The btclib developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"fmt"
	"testing"
)

// TestScriptTokenizer ensures a wide variety of behavior provided by the script
// tokenizer performs as expected.
func TestScriptTokenizer(t *testing.T) {
	t.Parallel()

	type expectedResult struct {
		op    byte   // expected parsed opcode
		data  []byte // expected parsed data
		index int32  // expected index into raw script after parsing token
	}

	type tokenizerTest struct {
		name     string           // test description
		script   []byte           // the script to tokenize
		expected []expectedResult // the expected info after parsing each token
		finalIdx int32            // the expected final byte index
		valid    bool             // whether the script fully tokenizes
	}

	// Add both positive and negative tests for OP_DATA_1 through OP_DATA_75.
	tests := make([]tokenizerTest, 0, 200)
	for op := byte(OP_DATA_1); op <= OP_DATA_75; op++ {
		data := bytes.Repeat([]byte{0x01}, int(op))

		// The data push with the end of the script right after the data.
		tests = append(tests, tokenizerTest{
			name:     fmt.Sprintf("OP_DATA_%d", op),
			script:   append([]byte{op}, data...),
			expected: []expectedResult{{op, data, 1 + int32(op)}},
			finalIdx: 1 + int32(op),
			valid:    true,
		})

		// A script that is one byte shorter than the data push requires.
		tests = append(tests, tokenizerTest{
			name:     fmt.Sprintf("short OP_DATA_%d", op),
			script:   append([]byte{op}, data[1:]...),
			finalIdx: 0,
			valid:    false,
		})
	}

	// Add both positive and negative tests for OP_PUSHDATA{1,2,4}.
	data := bytes.Repeat([]byte{0x01}, 76)
	tests = append(tests, []tokenizerTest{
		{
			name:     "OP_PUSHDATA1",
			script:   append([]byte{OP_PUSHDATA1, 0x4c}, data...),
			expected: []expectedResult{{OP_PUSHDATA1, data, 2 + 76}},
			finalIdx: 2 + 76,
			valid:    true,
		},
		{
			name:     "OP_PUSHDATA1 no data length",
			script:   []byte{OP_PUSHDATA1},
			finalIdx: 0,
			valid:    false,
		},
		{
			name:     "OP_PUSHDATA1 short data by 1 byte",
			script:   append([]byte{OP_PUSHDATA1, 0x4c}, data[1:]...),
			finalIdx: 0,
			valid:    false,
		},
		{
			name:     "OP_PUSHDATA2",
			script:   append([]byte{OP_PUSHDATA2, 0x4c, 0x00}, data...),
			expected: []expectedResult{{OP_PUSHDATA2, data, 3 + 76}},
			finalIdx: 3 + 76,
			valid:    true,
		},
		{
			name:     "OP_PUSHDATA2 no data length",
			script:   []byte{OP_PUSHDATA2},
			finalIdx: 0,
			valid:    false,
		},
		{
			name:     "OP_PUSHDATA2 short data by 1 byte",
			script:   append([]byte{OP_PUSHDATA2, 0x4c, 0x00}, data[1:]...),
			finalIdx: 0,
			valid:    false,
		},
		{
			name: "OP_PUSHDATA4",
			script: append([]byte{OP_PUSHDATA4, 0x4c, 0x00, 0x00, 0x00},
				data...),
			expected: []expectedResult{{OP_PUSHDATA4, data, 5 + 76}},
			finalIdx: 5 + 76,
			valid:    true,
		},
		{
			name:     "OP_PUSHDATA4 no data length",
			script:   []byte{OP_PUSHDATA4},
			finalIdx: 0,
			valid:    false,
		},
		{
			name: "OP_PUSHDATA4 short data by 1 byte",
			script: append([]byte{OP_PUSHDATA4, 0x4c, 0x00, 0x00, 0x00},
				data[1:]...),
			finalIdx: 0,
			valid:    false,
		},
	}...)

	// Add tests for OP_0 and OP_1 through OP_16 (small integers).  They
	// represent the data themselves, so the tokenizer reports nil data.
	smallInts := []byte{OP_0}
	for op := byte(OP_1); op <= OP_16; op++ {
		smallInts = append(smallInts, op)
	}
	for _, op := range smallInts {
		tests = append(tests, tokenizerTest{
			name:     fmt.Sprintf("small int opcode 0x%02x", op),
			script:   []byte{op},
			expected: []expectedResult{{op, nil, 1}},
			finalIdx: 1,
			valid:    true,
		})
	}

	// Add various positive and negative tests for multi-opcode scripts.
	pkHash := bytes.Repeat([]byte{0x01}, 20)
	p2pkh := append([]byte{OP_DUP, OP_HASH160, OP_DATA_20}, pkHash...)
	p2pkh = append(p2pkh, OP_EQUALVERIFY, OP_CHECKSIG)
	shortP2pkh := append([]byte{OP_DUP, OP_HASH160, OP_DATA_20},
		pkHash[:17]...)
	shortP2pkh = append(shortP2pkh, OP_EQUALVERIFY, OP_CHECKSIG)
	tests = append(tests, []tokenizerTest{
		{
			name:   "pay-to-pubkey-hash",
			script: p2pkh,
			expected: []expectedResult{
				{OP_DUP, nil, 1}, {OP_HASH160, nil, 2},
				{OP_DATA_20, pkHash, 23},
				{OP_EQUALVERIFY, nil, 24}, {OP_CHECKSIG, nil, 25},
			},
			finalIdx: 25,
			valid:    true,
		},
		{
			name:   "almost pay-to-pubkey-hash (short data)",
			script: shortP2pkh,
			expected: []expectedResult{
				{OP_DUP, nil, 1}, {OP_HASH160, nil, 2},
			},
			finalIdx: 2,
			valid:    false,
		},
	}...)

	for _, test := range tests {
		tokenizer := MakeScriptTokenizer(test.script)
		var opcodeNum int
		for tokenizer.Next() {
			if opcodeNum >= len(test.expected) {
				t.Fatalf("%s: too many parsed opcodes - got %v, "+
					"want %v", test.name, opcodeNum+1,
					len(test.expected))
			}
			expected := &test.expected[opcodeNum]

			if tokenizer.Opcode() != expected.op {
				t.Fatalf("%s: unexpected opcode -- got 0x%02x, "+
					"want 0x%02x", test.name, tokenizer.Opcode(),
					expected.op)
			}
			if !bytes.Equal(tokenizer.Data(), expected.data) {
				t.Fatalf("%s: unexpected data -- got %x, want %x",
					test.name, tokenizer.Data(), expected.data)
			}
			if tokenizer.ByteIndex() != expected.index {
				t.Fatalf("%s: unexpected byte index -- got %d, "+
					"want %d", test.name, tokenizer.ByteIndex(),
					expected.index)
			}

			opcodeNum++
		}

		// The tokenizer must claim it is done regardless of whether or not
		// there was a parse error.
		if !tokenizer.Done() {
			t.Fatalf("%s: tokenizer claims it is not done", test.name)
		}

		if test.valid {
			if tokenizer.Err() != nil {
				t.Fatalf("%s: unexpected tokenizer err -- got %v, "+
					"want nil", test.name, tokenizer.Err())
			}
			if opcodeNum != len(test.expected) {
				t.Fatalf("%s: parsed %d opcodes, want %d", test.name,
					opcodeNum, len(test.expected))
			}
		} else if !IsErrorKind(tokenizer.Err(), ErrMalformedPush) {
			t.Fatalf("%s: unexpected tokenizer err -- got %v, want "+
				"%v", test.name, tokenizer.Err(), ErrMalformedPush)
		}

		if tokenizer.ByteIndex() != test.finalIdx {
			t.Fatalf("%s: unexpected final byte index -- got %d, "+
				"want %d", test.name, tokenizer.ByteIndex(),
				test.finalIdx)
		}
	}
}

// TestScriptTokenizerScript ensures the script accessor returns the original
// script unaltered.
func TestScriptTokenizerScript(t *testing.T) {
	script := []byte{OP_1, OP_2, OP_ADD}
	tokenizer := MakeScriptTokenizer(script)
	if !bytes.Equal(tokenizer.Script(), script) {
		t.Fatalf("unexpected tokenizer script -- got %x, want %x",
			tokenizer.Script(), script)
	}
	for tokenizer.Next() {
	}
	if !bytes.Equal(tokenizer.Script(), script) {
		t.Fatalf("script changed during tokenization -- got %x, want %x",
			tokenizer.Script(), script)
	}
}
