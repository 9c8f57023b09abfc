// Copyright (c) 2024 The btclib developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bloom provides BIP0037 bloom filters for testing set membership of
// transaction data elements with a configurable false positive rate.
package bloom

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"sync"

	"github.com/btclib/btclib/wire"
)

const (
	// MaxFilterSize is the maximum byte size of the filter bit array.
	// The given size is in bytes and allows filters holding 20,000 items
	// with a false positive rate below 0.1%, or 10,000 items below
	// 0.0001%.
	MaxFilterSize = 36000

	// MaxFilterHashFuncs is the maximum number of hash functions to load
	// into the bloom filter.
	MaxFilterHashFuncs = 50
)

// UpdateType specifies how the filter is updated when a match is found.
type UpdateType uint8

const (
	// UpdateNone indicates the filter is not adjusted when a match is
	// found.
	UpdateNone UpdateType = iota

	// UpdateAll indicates if the filter matches any data element in a
	// public key script, the outpoint is serialized and inserted into the
	// filter.
	UpdateAll

	// UpdateP2PubkeyOnly indicates if the filter matches a data element in
	// a public key script and the script is of the standard pay-to-pubkey
	// or multisig, the outpoint is serialized and inserted into the
	// filter.
	UpdateP2PubkeyOnly
)

// ln2Squared is simply the square of the natural log of 2.
const ln2Squared = math.Ln2 * math.Ln2

// minUint32 is a convenience function to return the minimum value of the two
// passed uint32 values.
func minUint32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// Filter defines a bitcoin bloom filter that provides easy manipulation of raw
// filter data.  It is safe for concurrent access.
type Filter struct {
	mtx       sync.Mutex
	filter    []byte
	hashFuncs uint32
	tweak     uint32
	flags     UpdateType
}

// NewFilter creates a new bloom filter instance, mainly to be used by SPV
// clients.  The tweak parameter is a random value added to the seed value.
// The false positive rate is the probability of a false positive where 1.0 is
// "match everything" and zero is unachievable.  Thus, providing any false
// positive rates less than 0 or greater than 1 will be adjusted to the valid
// range.
//
// For more information on what values to use for both elements and fprate,
// see https://en.wikipedia.org/wiki/Bloom_filter.
func NewFilter(elements, tweak uint32, fprate float64, flags UpdateType) *Filter {
	// Massage the false positive rate to sane values.
	if fprate > 1.0 {
		fprate = 1.0
	}
	if fprate < 1e-9 {
		fprate = 1e-9
	}

	// Calculate the size of the filter in bytes for the given number of
	// elements and false positive rate.
	//
	// Equivalent to m = -(n*ln(p) / ln(2)^2), where m is in bits.
	// Then clamp it to the maximum filter size and convert to bytes.
	dataLen := uint32(-1 / ln2Squared * float64(elements) * math.Log(fprate))
	dataLen = minUint32(dataLen, MaxFilterSize*8) / 8

	// Calculate the number of hash functions based on the size of the
	// filter calculated above and the number of elements.
	//
	// Equivalent to k = (m/n) * ln(2)
	// Then clamp it to the maximum allowed hash funcs.
	hashFuncs := uint32(float64(dataLen*8) / float64(elements) * math.Ln2)
	hashFuncs = minUint32(hashFuncs, MaxFilterHashFuncs)

	return &Filter{
		filter:    make([]byte, dataLen),
		hashFuncs: hashFuncs,
		tweak:     tweak,
		flags:     flags,
	}
}

// LoadFilter creates a new Filter instance with the given underlying raw bit
// array, hash function count, tweak, and flags, typically obtained from a
// previously serialized filter.
func LoadFilter(filter []byte, hashFuncs, tweak uint32, flags UpdateType) *Filter {
	return &Filter{
		filter:    filter,
		hashFuncs: hashFuncs,
		tweak:     tweak,
		flags:     flags,
	}
}

// IsWithinSizeConstraints returns true when the filter size and the number of
// hash functions are within the protocol limits.
func (bf *Filter) IsWithinSizeConstraints() bool {
	bf.mtx.Lock()
	ok := len(bf.filter) <= MaxFilterSize &&
		bf.hashFuncs <= MaxFilterHashFuncs
	bf.mtx.Unlock()
	return ok
}

// hash returns the bit offset in the bloom filter which corresponds to the
// passed data for the given independent hash function number.
func (bf *Filter) hash(hashNum uint32, data []byte) uint32 {
	// bitcoind: 0xfba4c795 chosen as it guarantees a reasonable bit
	// difference between hashNum values.
	//
	// Note that << 3 is equivalent to multiplying by 8, but is faster.
	// Thus the returned hash is brought into range of the number of bits
	// the filter has and returned.
	mm := MurmurHash3(hashNum*0xfba4c795+bf.tweak, data)
	return mm % (uint32(len(bf.filter)) << 3)
}

// matches returns true if the bloom filter might contain the passed data and
// false if it definitely does not.
//
// This function MUST be called with the filter lock held.
func (bf *Filter) matches(data []byte) bool {
	// A single byte filter of all ones matches everything.
	if len(bf.filter) == 1 && bf.filter[0] == 0xff {
		return true
	}

	// The bloom filter does not contain the data if any of the bit offsets
	// which result from hashing the data using each independent hash
	// function are not set.  The shifts and masks below are a faster
	// equivalent of:
	//   arrayIndex := idx / 8     (idx >> 3)
	//   bitOffset := idx % 8      (idx & 7)
	//   if filter[arrayIndex] & 1<<bitOffset == 0 { ... }
	for i := uint32(0); i < bf.hashFuncs; i++ {
		idx := bf.hash(i, data)
		if bf.filter[idx>>3]&(1<<(idx&7)) == 0 {
			return false
		}
	}
	return true
}

// Matches returns true if the bloom filter might contain the passed data and
// false if it definitely does not.
//
// This function is safe for concurrent access.
func (bf *Filter) Matches(data []byte) bool {
	bf.mtx.Lock()
	match := bf.matches(data)
	bf.mtx.Unlock()
	return match
}

// matchesOutPoint returns true if the bloom filter might contain the passed
// outpoint and false if it definitely does not.
//
// This function MUST be called with the filter lock held.
func (bf *Filter) matchesOutPoint(outpoint *wire.OutPoint) bool {
	// Serialize
	var buf [chainhashSize + 4]byte
	copy(buf[:], outpoint.Hash[:])
	binary.LittleEndian.PutUint32(buf[chainhashSize:], outpoint.Index)

	return bf.matches(buf[:])
}

// chainhashSize is the size of the hash in an outpoint.
const chainhashSize = 32

// MatchesOutPoint returns true if the bloom filter might contain the passed
// outpoint and false if it definitely does not.
//
// This function is safe for concurrent access.
func (bf *Filter) MatchesOutPoint(outpoint *wire.OutPoint) bool {
	bf.mtx.Lock()
	match := bf.matchesOutPoint(outpoint)
	bf.mtx.Unlock()
	return match
}

// add adds the passed byte slice to the bloom filter.
//
// This function MUST be called with the filter lock held.
func (bf *Filter) add(data []byte) {
	// A single byte filter of all ones matches everything, so there is
	// nothing left to add.
	if len(bf.filter) == 1 && bf.filter[0] == 0xff {
		return
	}

	// Adding data to a bloom filter consists of setting all of the bit
	// offsets which result from hashing the data using each independent
	// hash function.
	for i := uint32(0); i < bf.hashFuncs; i++ {
		idx := bf.hash(i, data)
		bf.filter[idx>>3] |= 1 << (idx & 7)
	}
}

// Add adds the passed byte slice to the bloom filter.
//
// This function is safe for concurrent access.
func (bf *Filter) Add(data []byte) {
	bf.mtx.Lock()
	bf.add(data)
	bf.mtx.Unlock()
}

// AddOutPoint adds the passed transaction outpoint to the bloom filter.
//
// This function is safe for concurrent access.
func (bf *Filter) AddOutPoint(outpoint *wire.OutPoint) {
	var buf [chainhashSize + 4]byte
	copy(buf[:], outpoint.Hash[:])
	binary.LittleEndian.PutUint32(buf[chainhashSize:], outpoint.Index)

	bf.mtx.Lock()
	bf.add(buf[:])
	bf.mtx.Unlock()
}

// Serialize serializes the bloom filter to w using the wire format which
// consists of the filter bit array as a variable length byte slice, the
// number of hash functions, the tweak, and the update flags.
//
// This function is safe for concurrent access.
func (bf *Filter) Serialize(w io.Writer) error {
	bf.mtx.Lock()
	defer bf.mtx.Unlock()

	if err := wire.WriteVarBytes(w, bf.filter); err != nil {
		return err
	}

	var trailer [9]byte
	binary.LittleEndian.PutUint32(trailer[0:4], bf.hashFuncs)
	binary.LittleEndian.PutUint32(trailer[4:8], bf.tweak)
	trailer[8] = byte(bf.flags)
	_, err := w.Write(trailer[:])
	return err
}

// Bytes returns the serialization of the bloom filter.  See Serialize for the
// format.
func (bf *Filter) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := bf.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize decodes a bloom filter from r using the format described by
// Serialize.
//
// This function is safe for concurrent access.
func (bf *Filter) Deserialize(r io.Reader) error {
	filter, err := wire.ReadVarBytes(r, MaxFilterSize,
		"bloom filter bit array")
	if err != nil {
		return err
	}

	var trailer [9]byte
	if _, err := io.ReadFull(r, trailer[:]); err != nil {
		return err
	}

	bf.mtx.Lock()
	bf.filter = filter
	bf.hashFuncs = binary.LittleEndian.Uint32(trailer[0:4])
	bf.tweak = binary.LittleEndian.Uint32(trailer[4:8])
	bf.flags = UpdateType(trailer[8])
	bf.mtx.Unlock()
	return nil
}
