// Copyright (c) 2024 The btclib developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bloom

import (
	"encoding/hex"
	"testing"
)

// TestMurmurHash3 ensures the MurmurHash3 function produces the correct hash
// for various seeds and data.
func TestMurmurHash3(t *testing.T) {
	tests := []struct {
		seed uint32
		data string
		out  uint32
	}{
		{0x00000000, "", 0x00000000},
		{0xfba4c795, "", 0x6a396f08},
		{0xffffffff, "", 0x81f16f39},
		{0x00000000, "00", 0x514e28b7},
		{0xfba4c795, "00", 0xea3f0b17},
		{0x00000000, "ff", 0xfd6cf10d},
		{0x00000000, "0011", 0x16c6b7ab},
		{0x00000000, "001122", 0x8eb51c3d},
		{0x00000000, "00112233", 0xb4471bf8},
		{0x00000000, "0011223344", 0xe2301fa8},
		{0x00000000, "001122334455", 0xfc2e4a15},
		{0x00000000, "00112233445566", 0xb074502c},
		{0x00000000, "0011223344556677", 0x8034d2a0},
		{0x00000000, "001122334455667788", 0xb4698def},
	}

	for i, test := range tests {
		data, err := hex.DecodeString(test.data)
		if err != nil {
			t.Fatalf("malformed test data %q: %v", test.data, err)
		}
		result := MurmurHash3(test.seed, data)
		if result != test.out {
			t.Errorf("MurmurHash3 #%d (seed %08x, data %q): got "+
				"0x%08x, want 0x%08x", i, test.seed, test.data,
				result, test.out)
		}
	}
}
