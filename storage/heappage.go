package storage

import (
	"encoding/binary"

	"github.com/lkyu-ly/rucbase-go/common"
)

// Page 0 of every heap file is the file header: record size, how many slots
// fit in a data page, the bitmap's size in bytes, how many pages the file
// currently has, and the head of the free-page list. Every data page (page
// 1 and up) carries its own small header followed by an occupancy bitmap and
// a slot array, laid out as spec's slotted-page design describes.
const (
	fileHeaderOffRecordSize      = 0
	fileHeaderOffRecordsPerPage  = 4
	fileHeaderOffBitmapSizeBytes = 8
	fileHeaderOffNumPages        = 12
	fileHeaderOffFirstFreePage   = 16
	fileHeaderSize               = 20

	dataPageOffNextFreePage = 0
	dataPageOffNumRecords   = 4
	dataPageHeaderSize      = 8
)

// FileHeader is the decoded form of page 0.
type FileHeader struct {
	RecordSize      int32
	RecordsPerPage  int32
	BitmapSizeBytes int32
	NumPages        int32
	FirstFreePageNo int32
}

func readFileHeader(page []byte) FileHeader {
	return FileHeader{
		RecordSize:      int32(binary.LittleEndian.Uint32(page[fileHeaderOffRecordSize:])),
		RecordsPerPage:  int32(binary.LittleEndian.Uint32(page[fileHeaderOffRecordsPerPage:])),
		BitmapSizeBytes: int32(binary.LittleEndian.Uint32(page[fileHeaderOffBitmapSizeBytes:])),
		NumPages:        int32(binary.LittleEndian.Uint32(page[fileHeaderOffNumPages:])),
		FirstFreePageNo: int32(binary.LittleEndian.Uint32(page[fileHeaderOffFirstFreePage:])),
	}
}

func writeFileHeader(page []byte, h FileHeader) {
	binary.LittleEndian.PutUint32(page[fileHeaderOffRecordSize:], uint32(h.RecordSize))
	binary.LittleEndian.PutUint32(page[fileHeaderOffRecordsPerPage:], uint32(h.RecordsPerPage))
	binary.LittleEndian.PutUint32(page[fileHeaderOffBitmapSizeBytes:], uint32(h.BitmapSizeBytes))
	binary.LittleEndian.PutUint32(page[fileHeaderOffNumPages:], uint32(h.NumPages))
	binary.LittleEndian.PutUint32(page[fileHeaderOffFirstFreePage:], uint32(h.FirstFreePageNo))
}

// dataPageHeader is the decoded header of a data page (page 1+).
type dataPageHeader struct {
	NextFreePageNo int32
	NumRecords     int32
}

func readDataPageHeader(page []byte) dataPageHeader {
	return dataPageHeader{
		NextFreePageNo: int32(binary.LittleEndian.Uint32(page[dataPageOffNextFreePage:])),
		NumRecords:     int32(binary.LittleEndian.Uint32(page[dataPageOffNumRecords:])),
	}
}

func writeDataPageHeader(page []byte, h dataPageHeader) {
	binary.LittleEndian.PutUint32(page[dataPageOffNextFreePage:], uint32(h.NextFreePageNo))
	binary.LittleEndian.PutUint32(page[dataPageOffNumRecords:], uint32(h.NumRecords))
}

// dataPageBitmap returns a Bitmap view over the occupancy bitmap of a data
// page holding capacity slots.
func dataPageBitmap(page []byte, capacity int32) Bitmap {
	sizeBytes := BitmapSizeBytes(int(capacity))
	return AsBitmap(page[dataPageHeaderSize:dataPageHeaderSize+sizeBytes], int(capacity))
}

// dataPageSlot returns the byte range of slot i within a data page whose
// bitmap is bitmapSizeBytes long and whose records are recordSize bytes each.
func dataPageSlot(page []byte, bitmapSizeBytes int32, recordSize int32, slot int32) []byte {
	base := dataPageHeaderSize + int(bitmapSizeBytes) + int(slot)*int(recordSize)
	return page[base : base+int(recordSize)]
}

// computeRecordsPerPage picks the largest slot count that fits a data page's
// header, bitmap, and slot array within PageSize, mirroring the teacher's
// NewRawTupleDesc 8-byte-alignment discipline applied to page capacity math
// instead of tuple width.
func computeRecordsPerPage(recordSize int) int32 {
	available := common.PageSize - dataPageHeaderSize
	// Each slot costs recordSize bytes plus a fractional bit of bitmap; solve
	// iteratively from an optimistic upper bound since bitmap bytes are
	// rounded up to a whole 8-byte word.
	capacity := available / recordSize
	for capacity > 0 {
		used := BitmapSizeBytes(capacity) + capacity*recordSize
		if used <= available {
			return int32(capacity)
		}
		capacity--
	}
	return 0
}
