package storage

import "github.com/lkyu-ly/rucbase-go/common"

// HeapScan is a forward-only cursor over every live tuple in a HeapFile, in
// physical (page, slot) order. It is snapshot-bound by the page count at
// construction time: pages appended by concurrent inserts after the scan
// starts are never visited, matching spec's heap-scan contract. Grounded on
// the teacher's storage/heap_page.go iteration pattern, rebuilt against the
// bitmap/free-list layout in heappage.go instead of the teacher's AMP scheme.
type HeapScan struct {
	hf *HeapFile

	recordsPerPage  int32
	bitmapSizeBytes int32
	recordSize      int32
	numPages        int32 // snapshot taken at construction

	curPage  int32
	curSlot  int32
	curFrame *Frame
	ended    bool
}

// NewHeapScan opens a scan positioned at the first live tuple, if any.
func NewHeapScan(hf *HeapFile) (*HeapScan, error) {
	header, _, err := hf.readHeader()
	if err != nil {
		return nil, err
	}
	if err := hf.unpinPage(0, false); err != nil {
		return nil, err
	}

	s := &HeapScan{
		hf:              hf,
		recordsPerPage:  header.RecordsPerPage,
		bitmapSizeBytes: header.BitmapSizeBytes,
		recordSize:      header.RecordSize,
		numPages:        header.NumPages,
		curPage:         1,
		curSlot:         -1,
	}
	if s.numPages < 2 {
		s.ended = true
		return s, nil
	}
	if err := s.loadPage(s.curPage); err != nil {
		return nil, err
	}
	if err := s.advance(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *HeapScan) loadPage(pageNo int32) error {
	frame, err := s.hf.fetchDataPage(pageNo)
	if err != nil {
		return err
	}
	s.curFrame = frame
	s.curSlot = -1
	return nil
}

func (s *HeapScan) unloadPage() error {
	if s.curFrame == nil {
		return nil
	}
	err := s.hf.unpinPage(s.curPage, false)
	s.curFrame = nil
	return err
}

// advance moves the cursor to the next live slot, crossing page boundaries
// (released via unloadPage, since the scan is read-only and never dirties a
// page) as needed until a live tuple is found or the file is exhausted.
func (s *HeapScan) advance() error {
	for {
		if s.curFrame != nil {
			bm := dataPageBitmap(s.curFrame.Bytes[:], s.recordsPerPage)
			if slot := bm.FindFirstSet(int(s.curSlot)); slot != -1 {
				s.curSlot = int32(slot)
				return nil
			}
		}
		if err := s.unloadPage(); err != nil {
			return err
		}
		s.curPage++
		if s.curPage >= s.numPages {
			s.ended = true
			return nil
		}
		if err := s.loadPage(s.curPage); err != nil {
			return err
		}
	}
}

func (s *HeapScan) IsEnd() bool { return s.ended }

// Current returns the RecordID and raw bytes of the tuple the cursor is
// positioned on. Must not be called when IsEnd is true.
func (s *HeapScan) Current() (common.RecordID, RawTuple) {
	common.Assert(!s.ended, "Current called on an exhausted scan")
	rid := common.RecordID{PageNo: s.curPage, Slot: s.curSlot}
	slot := dataPageSlot(s.curFrame.Bytes[:], s.bitmapSizeBytes, s.recordSize, s.curSlot)
	return rid, RawTuple(slot)
}

// Next advances the cursor past the current tuple.
func (s *HeapScan) Next() error {
	common.Assert(!s.ended, "Next called on an exhausted scan")
	return s.advance()
}

// Close releases any page the scan is still holding pinned. Safe to call
// more than once and safe to call after the scan has already ended.
func (s *HeapScan) Close() error {
	return s.unloadPage()
}
