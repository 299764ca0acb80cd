package storage

import (
	"unsafe"

	"github.com/lkyu-ly/rucbase-go/common"
)

// Bitmap is a structured view over an existing byte buffer (typically a slice
// of a page). It owns no memory of its own; mutating it mutates the page.
type Bitmap struct {
	words   []uint64
	numBits int
}

// AsBitmap wraps data as a Bitmap of numBits bits. data must be 8-byte aligned
// in length and large enough to hold numBits rounded up to a whole word.
func AsBitmap(data []byte, numBits int) Bitmap {
	common.Assert(common.AlignedTo8(len(data)), "bitmap byte slice length must be aligned to 8")

	numWords := (numBits + 63) / 64
	common.Assert(len(data) >= numWords*8, "bitmap buffer too small")

	ptr := unsafe.Pointer(&data[0])
	words := unsafe.Slice((*uint64)(ptr), numWords)

	return Bitmap{words: words, numBits: numBits}
}

// BitmapSizeBytes returns the 8-byte-aligned size needed to store numBits bits.
func BitmapSizeBytes(numBits int) int {
	return common.Align8((numBits + 7) / 8)
}

func (b *Bitmap) SetBit(i int, on bool) (originalValue bool) {
	common.Assert(i >= 0 && i < b.numBits, "bitmap index out of bounds")
	wordIdx := i / 64
	bitIdx := uint(i % 64)
	mask := uint64(1) << bitIdx

	ptr := &b.words[wordIdx]
	originalValue = (*ptr & mask) != 0
	if on {
		*ptr |= mask
	} else {
		*ptr &^= mask
	}
	return originalValue
}

func (b *Bitmap) LoadBit(i int) bool {
	common.Assert(i >= 0 && i < b.numBits, "bitmap index out of bounds")
	wordIdx := i / 64
	bitIdx := uint(i % 64)
	return (b.words[wordIdx] & (1 << bitIdx)) != 0
}

// FindFirstZero scans for the first unset bit starting at startHint, wrapping
// around to the beginning of the bitmap if none is found before the end.
// Returns -1 if every bit is set.
func (b *Bitmap) FindFirstZero(startHint int) int {
	if r := b.findFirstInRange(startHint, b.numBits, false); r != -1 {
		return r
	}
	return b.findFirstInRange(0, startHint, false)
}

// FindFirstSet scans for the first set bit strictly after index after, i.e.
// in the half-open range (after, numBits). Returns -1 if no bit is set in
// that range. The heap scan uses this to advance within a page's occupancy
// bitmap; unlike FindFirstZero it does not wrap, since a scan cursor only
// ever moves forward within a page.
func (b *Bitmap) FindFirstSet(after int) int {
	return b.findFirstInRange(after+1, b.numBits, true)
}

func (b *Bitmap) findFirstInRange(start, end int, wantSet bool) int {
	common.Assert(start >= 0 && start <= end && end <= b.numBits, "invalid bitmap range")
	if start == end {
		return -1
	}
	startWord := start / 64
	endWord := (end - 1) / 64

	skipWord := uint64(0)
	if wantSet {
		skipWord = 0 // all-zero word has no set bits, skip it
	} else {
		skipWord = ^uint64(0) // all-one word has no zero bits, skip it
	}

	for i := startWord; i <= endWord; i++ {
		word := b.words[i]
		if word == skipWord {
			continue
		}

		bitStart, bitEnd := 0, 64
		if i == startWord {
			bitStart = start % 64
		}
		if i == endWord {
			if limit := end % 64; limit != 0 {
				bitEnd = limit
			}
		}

		for j := bitStart; j < bitEnd; j++ {
			bitIsSet := (word & (1 << j)) != 0
			if bitIsSet == wantSet {
				return i*64 + j
			}
		}
	}
	return -1
}
