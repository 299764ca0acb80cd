package storage

import (
	"fmt"
	"sync"

	"github.com/lkyu-ly/rucbase-go/common"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

// Frame is one in-memory slot of the buffer pool: a page's worth of bytes
// plus the bookkeeping the pool needs to decide when it is safe to reuse.
// Grounded on the teacher's PageFrame, stripped of the LSN/WAL fields that
// belonged to the recovery manager this module drops.
type Frame struct {
	Bytes    [common.PageSize]byte
	pageNo   int32
	pinCount int
	dirty    bool
}

func (f *Frame) PageNo() int32 { return f.pageNo }
func (f *Frame) Dirty() bool   { return f.dirty }

// BufferPool caches pages of a single heap file's backing fd in memory. A
// single mutex covers the page table, free list, and replacer together, per
// spec's concurrency model — the teacher instead uses a lock-free page table
// (xsync.MapOf) with per-frame latches and CLOCK eviction; this repository
// keeps xsync.MapOf only for the page-table lookup itself and serializes every
// mutation (pin/unpin/dirty/free-list/replacer) behind one mutex.
type BufferPool struct {
	mu sync.Mutex

	dm  *DiskManager
	fd  int
	log *zap.Logger

	frames    []Frame
	pageTable *xsync.MapOf[int32, int] // pageNo -> frame index
	freeList  []int                    // indices of frames not currently holding a page
	replacer  *Replacer
}

func NewBufferPool(poolSize int, dm *DiskManager, fd int, logger *zap.Logger) *BufferPool {
	if logger == nil {
		logger = zap.NewNop()
	}
	freeList := make([]int, poolSize)
	for i := range freeList {
		freeList[i] = i
	}
	return &BufferPool{
		dm:        dm,
		fd:        fd,
		log:       logger,
		frames:    make([]Frame, poolSize),
		pageTable: xsync.NewMapOf[int32, int](),
		freeList:  freeList,
		replacer:  NewReplacer(),
	}
}

// evictVictim picks a frame to reuse: free list first, replacer second. The
// caller must hold mu. Returns the frame index, or -1 if the pool is fully
// pinned and has no free frames (the "buffer pool exhausted" condition).
func (bp *BufferPool) evictVictim() int {
	if n := len(bp.freeList); n > 0 {
		idx := bp.freeList[n-1]
		bp.freeList = bp.freeList[:n-1]
		return idx
	}
	idx, ok := bp.replacer.Victim()
	if !ok {
		return -1
	}
	victim := &bp.frames[idx]
	if victim.dirty {
		if err := bp.dm.WritePage(bp.fd, victim.pageNo, victim.Bytes[:]); err != nil {
			bp.log.Error("failed to flush victim page during eviction",
				zap.Int32("page", victim.pageNo), zap.Error(err))
		}
	}
	bp.pageTable.Delete(victim.pageNo)
	return idx
}

// Fetch pins and returns the frame holding pageNo, reading it from disk if
// it is not already cached. Returns nil if the pool is exhausted (every
// frame pinned). Every successful Fetch must be paired with exactly one
// Unpin.
func (bp *BufferPool) Fetch(pageNo int32) (*Frame, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if idx, ok := bp.pageTable.Load(pageNo); ok {
		f := &bp.frames[idx]
		if f.pinCount == 0 {
			bp.replacer.Pin(idx)
		}
		f.pinCount++
		return f, nil
	}

	idx := bp.evictVictim()
	if idx == -1 {
		return nil, nil
	}

	f := &bp.frames[idx]
	if err := bp.dm.ReadPage(bp.fd, pageNo, f.Bytes[:]); err != nil {
		bp.freeList = append(bp.freeList, idx)
		return nil, fmt.Errorf("fetch page %d: %w", pageNo, err)
	}
	f.pageNo = pageNo
	f.pinCount = 1
	f.dirty = false
	bp.pageTable.Store(pageNo, idx)
	return f, nil
}

// NewPage allocates a fresh page on disk via the DiskManager and pins it into
// the pool, returning its page number and frame. All page creation in this
// engine funnels through here — the heap file never calls the disk manager's
// AllocatePage directly, resolving the ambiguity spec calls out about page
// creation bypassing the pool.
func (bp *BufferPool) NewPage() (int32, *Frame, error) {
	pageNo, err := bp.dm.AllocatePage(bp.fd)
	if err != nil {
		return 0, nil, err
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()

	idx := bp.evictVictim()
	if idx == -1 {
		return 0, nil, nil
	}

	f := &bp.frames[idx]
	for i := range f.Bytes {
		f.Bytes[i] = 0
	}
	f.pageNo = pageNo
	f.pinCount = 1
	f.dirty = true
	bp.pageTable.Store(pageNo, idx)
	return pageNo, f, nil
}

// Unpin releases one pin on pageNo. isDirty is OR'd into the frame's dirty
// flag — a frame once marked dirty stays dirty until flushed.
func (bp *BufferPool) Unpin(pageNo int32, isDirty bool) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	idx, ok := bp.pageTable.Load(pageNo)
	if !ok {
		return common.NewError(common.PageNotExist, "page %d is not in the buffer pool", pageNo)
	}
	f := &bp.frames[idx]
	if f.pinCount == 0 {
		return common.NewError(common.Internal, "page %d is not pinned", pageNo)
	}
	f.dirty = f.dirty || isDirty
	f.pinCount--
	if f.pinCount == 0 {
		bp.replacer.Unpin(idx)
	}
	return nil
}

// FlushPage writes pageNo's frame to disk if dirty, regardless of pin state.
func (bp *BufferPool) FlushPage(pageNo int32) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	idx, ok := bp.pageTable.Load(pageNo)
	if !ok {
		return common.NewError(common.PageNotExist, "page %d is not in the buffer pool", pageNo)
	}
	f := &bp.frames[idx]
	if !f.dirty {
		return nil
	}
	if err := bp.dm.WritePage(bp.fd, pageNo, f.Bytes[:]); err != nil {
		return err
	}
	f.dirty = false
	return nil
}

// FlushAllPages flushes every dirty, resident page.
func (bp *BufferPool) FlushAllPages() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	var firstErr error
	bp.pageTable.Range(func(pageNo int32, idx int) bool {
		f := &bp.frames[idx]
		if f.dirty {
			if err := bp.dm.WritePage(bp.fd, pageNo, f.Bytes[:]); err != nil && firstErr == nil {
				firstErr = err
				return true
			}
			f.dirty = false
		}
		return true
	})
	return firstErr
}

// DeletePage evicts pageNo from the pool, flushing it first if dirty, and
// returns its frame to the free list. Returns an error if the page is still
// pinned.
func (bp *BufferPool) DeletePage(pageNo int32) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	idx, ok := bp.pageTable.Load(pageNo)
	if !ok {
		return nil
	}
	f := &bp.frames[idx]
	if f.pinCount > 0 {
		return common.NewError(common.Internal, "cannot delete pinned page %d", pageNo)
	}
	if f.dirty {
		if err := bp.dm.WritePage(bp.fd, pageNo, f.Bytes[:]); err != nil {
			return err
		}
	}
	bp.replacer.Pin(idx) // remove from replacer's candidate list, if present
	bp.pageTable.Delete(pageNo)
	f.dirty = false
	bp.freeList = append(bp.freeList, idx)
	return nil
}
