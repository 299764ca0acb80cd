package storage

import (
	"github.com/lkyu-ly/rucbase-go/common"
	"go.uber.org/zap"
)

// HeapFile is an unordered collection of fixed-size records stored across
// slotted pages, with page 0 reserved for the file header and a singly
// linked free-page list threaded through each data page's next_free_page_no
// field.
//
// This deliberately replaces the teacher's global Allocation Map Page scheme
// (execution/table_heap.go, storage/allocation_map_page.go) with the simpler
// per-page free list spec's invariants and worked examples are written
// against — see DESIGN.md. Slot layout technique (bitmap-as-page-view, slot
// byte-range arithmetic) is grounded on the teacher's storage/heap_page.go.
type HeapFile struct {
	bp   *BufferPool
	dm   *DiskManager
	fd   int
	desc *RawTupleDesc
	log  *zap.Logger
}

// CreateHeapFile creates a brand-new, empty heap file at path storing tuples
// of the given layout, and opens it.
func CreateHeapFile(path string, dm *DiskManager, desc *RawTupleDesc, poolSize int, logger *zap.Logger) (*HeapFile, error) {
	if err := dm.Create(path); err != nil {
		return nil, err
	}
	hf, err := OpenHeapFile(path, dm, desc, poolSize, logger)
	if err != nil {
		return nil, err
	}

	pageNo, frame, err := hf.bp.NewPage()
	if err != nil {
		return nil, err
	}
	common.Assert(pageNo == 0, "file header must be page 0")

	writeFileHeader(frame.Bytes[:], FileHeader{
		RecordSize:      int32(desc.BytesPerTuple()),
		RecordsPerPage:  computeRecordsPerPage(desc.BytesPerTuple()),
		BitmapSizeBytes: int32(BitmapSizeBytes(int(computeRecordsPerPage(desc.BytesPerTuple())))),
		NumPages:        1,
		FirstFreePageNo: common.RMNoPage,
	})
	if err := hf.bp.Unpin(0, true); err != nil {
		return nil, err
	}
	return hf, nil
}

// OpenHeapFile opens an existing heap file for reading and writing.
func OpenHeapFile(path string, dm *DiskManager, desc *RawTupleDesc, poolSize int, logger *zap.Logger) (*HeapFile, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fd, err := dm.Open(path)
	if err != nil {
		return nil, err
	}
	return &HeapFile{
		bp:   NewBufferPool(poolSize, dm, fd, logger),
		dm:   dm,
		fd:   fd,
		desc: desc,
		log:  logger,
	}, nil
}

func (hf *HeapFile) Schema() *RawTupleDesc { return hf.desc }

func (hf *HeapFile) Close() error {
	if err := hf.bp.FlushAllPages(); err != nil {
		return err
	}
	return hf.dm.Close(hf.fd)
}

func (hf *HeapFile) readHeader() (FileHeader, *Frame, error) {
	frame, err := hf.bp.Fetch(0)
	if err != nil {
		return FileHeader{}, nil, err
	}
	if frame == nil {
		return FileHeader{}, nil, common.NewError(common.PageNotExist, "buffer pool exhausted fetching file header")
	}
	return readFileHeader(frame.Bytes[:]), frame, nil
}

// FetchPageHandle range-checks pageNo against the file's current page count
// and pins it via the buffer pool, surfacing both causes of failure as
// PageNotExist (out-of-range page number, or an exhausted pool) per spec's
// fetch_page_handle contract. The caller must unpin pageNo exactly once.
func (hf *HeapFile) FetchPageHandle(pageNo int32) (*Frame, error) {
	header, _, err := hf.readHeader()
	if err != nil {
		return nil, err
	}
	if err := hf.bp.Unpin(0, false); err != nil {
		return nil, err
	}
	if pageNo < 0 || pageNo >= header.NumPages {
		return nil, common.NewError(common.PageNotExist, "page %d is out of range (numPages=%d)", pageNo, header.NumPages)
	}
	return hf.fetchDataPage(pageNo)
}

// NumPages returns the number of pages the file currently occupies, including
// the header page.
func (hf *HeapFile) NumPages() (int32, error) {
	h, frame, err := hf.readHeader()
	if err != nil {
		return 0, err
	}
	if err := hf.bp.Unpin(0, false); err != nil {
		return 0, err
	}
	_ = frame
	return h.NumPages, nil
}

// allocateFreePage returns a data page with at least one free slot, creating
// a new page via the buffer pool if the free list is empty. The returned
// page and header frame are both pinned and must be unpinned by the caller.
// The bool return reports whether header's in-memory bytes were mutated, so
// the caller can mark the header frame dirty even if this insert doesn't
// also fill the page.
func (hf *HeapFile) allocateFreePage(header *FileHeader, headerFrame *Frame) (int32, *Frame, bool, error) {
	if header.FirstFreePageNo != common.RMNoPage {
		pageNo := header.FirstFreePageNo
		frame, err := hf.bp.Fetch(pageNo)
		if err != nil {
			return 0, nil, false, err
		}
		return pageNo, frame, false, nil
	}

	pageNo, frame, err := hf.bp.NewPage()
	if err != nil {
		return 0, nil, false, err
	}
	if frame == nil {
		return 0, nil, false, common.NewError(common.PageNotExist, "buffer pool exhausted allocating new heap page")
	}
	writeDataPageHeader(frame.Bytes[:], dataPageHeader{NextFreePageNo: common.RMNoPage, NumRecords: 0})

	header.NumPages++
	header.FirstFreePageNo = pageNo
	writeFileHeader(headerFrame.Bytes[:], *header)
	return pageNo, frame, true, nil
}

// InsertTuple writes record into the first page with a free slot and returns
// its RecordID.
func (hf *HeapFile) InsertTuple(record RawTuple) (common.RecordID, error) {
	common.Assert(len(record) == hf.desc.BytesPerTuple(), "record size mismatch")

	header, headerFrame, err := hf.readHeader()
	if err != nil {
		return common.NilRID, err
	}

	pageNo, frame, headerChanged, err := hf.allocateFreePage(&header, headerFrame)
	if err != nil {
		_ = hf.bp.Unpin(0, headerChanged)
		return common.NilRID, err
	}

	dph := readDataPageHeader(frame.Bytes[:])
	wasFull := dph.NumRecords == header.RecordsPerPage
	common.Assert(!wasFull, "page on the free list must have spare capacity")

	bm := dataPageBitmap(frame.Bytes[:], header.RecordsPerPage)
	slot := bm.FindFirstZero(0)
	common.Assert(slot != -1 && int32(slot) < header.RecordsPerPage, "free-list page has no free slot")

	bm.SetBit(slot, true)
	copy(dataPageSlot(frame.Bytes[:], header.BitmapSizeBytes, header.RecordSize, int32(slot)), record)
	dph.NumRecords++

	headerDirty := headerChanged
	if dph.NumRecords == header.RecordsPerPage {
		// The page just filled up: unlink it from the head of the free list.
		header.FirstFreePageNo = dph.NextFreePageNo
		dph.NextFreePageNo = common.RMNoPage
		writeFileHeader(headerFrame.Bytes[:], header)
		headerDirty = true
	}
	writeDataPageHeader(frame.Bytes[:], dph)

	if err := hf.bp.Unpin(pageNo, true); err != nil {
		return common.NilRID, err
	}
	if err := hf.bp.Unpin(0, headerDirty); err != nil {
		return common.NilRID, err
	}

	return common.RecordID{PageNo: pageNo, Slot: int32(slot)}, nil
}

var ErrTupleDeleted = common.NewError(common.PageNotExist, "tuple has been deleted")

// ReadTuple copies the record at rid into dst.
func (hf *HeapFile) ReadTuple(rid common.RecordID, dst RawTuple) error {
	common.Assert(len(dst) == hf.desc.BytesPerTuple(), "destination size mismatch")

	header, headerFrame, err := hf.readHeader()
	if err != nil {
		return err
	}
	if err := hf.bp.Unpin(0, false); err != nil {
		return err
	}
	_ = headerFrame

	frame, err := hf.bp.Fetch(rid.PageNo)
	if err != nil {
		return err
	}
	if frame == nil {
		return common.NewError(common.PageNotExist, "buffer pool exhausted fetching page %d", rid.PageNo)
	}
	defer hf.bp.Unpin(rid.PageNo, false)

	bm := dataPageBitmap(frame.Bytes[:], header.RecordsPerPage)
	if !bm.LoadBit(int(rid.Slot)) {
		return ErrTupleDeleted
	}
	copy(dst, dataPageSlot(frame.Bytes[:], header.BitmapSizeBytes, header.RecordSize, rid.Slot))
	return nil
}

// UpdateTuple overwrites the record at rid in place. The record must already
// exist; UpdateTuple never changes occupancy, so the free list is untouched.
func (hf *HeapFile) UpdateTuple(rid common.RecordID, record RawTuple) error {
	common.Assert(len(record) == hf.desc.BytesPerTuple(), "record size mismatch")

	header, headerFrame, err := hf.readHeader()
	if err != nil {
		return err
	}
	if err := hf.bp.Unpin(0, false); err != nil {
		return err
	}
	_ = headerFrame

	frame, err := hf.bp.Fetch(rid.PageNo)
	if err != nil {
		return err
	}
	if frame == nil {
		return common.NewError(common.PageNotExist, "buffer pool exhausted fetching page %d", rid.PageNo)
	}

	bm := dataPageBitmap(frame.Bytes[:], header.RecordsPerPage)
	if !bm.LoadBit(int(rid.Slot)) {
		hf.bp.Unpin(rid.PageNo, false)
		return ErrTupleDeleted
	}
	copy(dataPageSlot(frame.Bytes[:], header.BitmapSizeBytes, header.RecordSize, rid.Slot), record)
	return hf.bp.Unpin(rid.PageNo, true)
}

// DeleteTuple clears rid's slot. If the page was completely full before this
// delete, it is relinked onto the head of the free list — a page is on the
// free list exactly when it has spare capacity, so a page that already has
// spare capacity is, by that same invariant, already on the list and is
// never pushed a second time. This sidesteps the free-list fragility spec
// calls out without needing a separate per-page "am I linked" flag.
func (hf *HeapFile) DeleteTuple(rid common.RecordID) error {
	header, headerFrame, err := hf.readHeader()
	if err != nil {
		return err
	}

	frame, err := hf.bp.Fetch(rid.PageNo)
	if err != nil {
		hf.bp.Unpin(0, false)
		return err
	}
	if frame == nil {
		hf.bp.Unpin(0, false)
		return common.NewError(common.PageNotExist, "buffer pool exhausted fetching page %d", rid.PageNo)
	}

	bm := dataPageBitmap(frame.Bytes[:], header.RecordsPerPage)
	if !bm.LoadBit(int(rid.Slot)) {
		hf.bp.Unpin(rid.PageNo, false)
		hf.bp.Unpin(0, false)
		return ErrTupleDeleted
	}
	bm.SetBit(int(rid.Slot), false)

	dph := readDataPageHeader(frame.Bytes[:])
	wasFull := dph.NumRecords == header.RecordsPerPage
	dph.NumRecords--

	headerDirty := false
	if wasFull {
		dph.NextFreePageNo = header.FirstFreePageNo
		header.FirstFreePageNo = rid.PageNo
		writeFileHeader(headerFrame.Bytes[:], header)
		headerDirty = true
	}
	writeDataPageHeader(frame.Bytes[:], dph)

	if err := hf.bp.Unpin(rid.PageNo, true); err != nil {
		return err
	}
	return hf.bp.Unpin(0, headerDirty)
}

// fetchDataPage is used by HeapScan to read a page's bytes without mutating
// occupancy. The returned frame is pinned; the caller must Unpin it.
func (hf *HeapFile) fetchDataPage(pageNo int32) (*Frame, error) {
	frame, err := hf.bp.Fetch(pageNo)
	if err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, common.NewError(common.PageNotExist, "buffer pool exhausted fetching page %d", pageNo)
	}
	return frame, nil
}

func (hf *HeapFile) unpinPage(pageNo int32, dirty bool) error {
	return hf.bp.Unpin(pageNo, dirty)
}
