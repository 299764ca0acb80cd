package storage

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/lkyu-ly/rucbase-go/common"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

// DiskManager owns the mapping between file paths and open file descriptors
// and performs every raw read/write of page and log bytes. It is the lowest
// layer of the storage stack; nothing above it touches os.File directly.
//
// Grounded on the teacher's DiskDBFile/DiskDBFileManager, reworked from an
// ObjectID-keyed cache into the explicit path<->fd contract: callers open a
// file once to get a logical fd, then address every subsequent read/write/
// allocate by that fd, and must close it before the path can be reused.
type DiskManager struct {
	logger *zap.Logger

	mu       sync.Mutex
	nextFd   int
	pathToFd map[string]int

	files *xsync.MapOf[int, *openFile]
}

type openFile struct {
	path      string
	handle    *os.File
	allocMu   sync.Mutex
	numPages  int32
	logOffset int64
}

func NewDiskManager(logger *zap.Logger) *DiskManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiskManager{
		logger:   logger,
		pathToFd: make(map[string]int),
		files:    xsync.NewMapOf[int, *openFile](),
	}
}

// Create makes a new, empty backing file at path. Returns FileExists if a
// file already exists there.
func (dm *DiskManager) Create(path string) error {
	if _, err := os.Stat(path); err == nil {
		return common.NewError(common.FileExists, "file %q already exists", path)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	return f.Close()
}

// Destroy removes the backing file at path. Returns FileNotClosed if it is
// currently open, or FileNotFound if it does not exist.
func (dm *DiskManager) Destroy(path string) error {
	dm.mu.Lock()
	_, open := dm.pathToFd[path]
	dm.mu.Unlock()
	if open {
		return common.NewError(common.FileNotClosed, "file %q is still open", path)
	}
	if _, err := os.Stat(path); err != nil {
		return common.NewError(common.FileNotFound, "file %q does not exist", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("destroy %q: %w", path, err)
	}
	return nil
}

// Open opens path and returns a logical fd for subsequent ReadPage/WritePage/
// AllocatePage/Close calls. Returns FileNotFound if the path does not exist,
// or FileNotClosed if it is already open.
func (dm *DiskManager) Open(path string) (int, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if _, ok := dm.pathToFd[path]; ok {
		return -1, common.NewError(common.FileNotClosed, "file %q is already open", path)
	}

	handle, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return -1, common.NewError(common.FileNotFound, "file %q does not exist", path)
		}
		return -1, fmt.Errorf("open %q: %w", path, err)
	}

	info, err := handle.Stat()
	if err != nil {
		handle.Close()
		return -1, fmt.Errorf("stat %q: %w", path, err)
	}

	fd := dm.nextFd
	dm.nextFd++
	dm.pathToFd[path] = fd
	dm.files.Store(fd, &openFile{
		path:      path,
		handle:    handle,
		numPages:  int32(info.Size() / int64(common.PageSize)),
		logOffset: info.Size(),
	})
	dm.logger.Debug("disk manager opened file", zap.String("path", path), zap.Int("fd", fd))
	return fd, nil
}

// Close closes the given fd. Returns FileNotOpen if it is not currently open.
func (dm *DiskManager) Close(fd int) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	f, ok := dm.files.Load(fd)
	if !ok {
		return common.NewError(common.FileNotOpen, "fd %d is not open", fd)
	}
	delete(dm.pathToFd, f.path)
	dm.files.Delete(fd)
	return f.handle.Close()
}

func (dm *DiskManager) lookup(fd int) (*openFile, error) {
	f, ok := dm.files.Load(fd)
	if !ok {
		return nil, common.NewError(common.FileNotOpen, "fd %d is not open", fd)
	}
	return f, nil
}

// ReadPage reads exactly one page's worth of bytes at pageNo into dst.
func (dm *DiskManager) ReadPage(fd int, pageNo int32, dst []byte) error {
	common.Assert(len(dst) >= common.PageSize, "destination buffer smaller than a page")
	f, err := dm.lookup(fd)
	if err != nil {
		return err
	}
	offset := int64(pageNo) * int64(common.PageSize)
	n, err := f.handle.ReadAt(dst[:common.PageSize], offset)
	if err != nil && err != io.EOF {
		return fmt.Errorf("read page %d of %q: %w", pageNo, f.path, err)
	}
	if n < common.PageSize {
		return common.NewError(common.IOShort, "short read of page %d in %q: got %d bytes", pageNo, f.path, n)
	}
	return nil
}

// WritePage writes exactly one page's worth of bytes from src to pageNo.
func (dm *DiskManager) WritePage(fd int, pageNo int32, src []byte) error {
	common.Assert(len(src) >= common.PageSize, "source buffer smaller than a page")
	f, err := dm.lookup(fd)
	if err != nil {
		return err
	}
	offset := int64(pageNo) * int64(common.PageSize)
	n, err := f.handle.WriteAt(src[:common.PageSize], offset)
	if err != nil {
		return fmt.Errorf("write page %d of %q: %w", pageNo, f.path, err)
	}
	if n < common.PageSize {
		return common.NewError(common.IOShort, "short write of page %d in %q: wrote %d bytes", pageNo, f.path, n)
	}
	return nil
}

// AllocatePage reserves the next page number of the file and returns it. The
// file itself only grows when that page is first written; until then its
// bytes are unspecified.
func (dm *DiskManager) AllocatePage(fd int) (int32, error) {
	f, err := dm.lookup(fd)
	if err != nil {
		return 0, err
	}
	f.allocMu.Lock()
	defer f.allocMu.Unlock()
	pageNo := f.numPages
	f.numPages++
	return pageNo, nil
}

// NumPages returns the current extent of the file, in pages.
func (dm *DiskManager) NumPages(fd int) (int32, error) {
	f, err := dm.lookup(fd)
	if err != nil {
		return 0, err
	}
	return f.numPages, nil
}

// WriteLog appends data at the file's log cursor, which Open sets to the
// file's size and each write advances. The log shares the file's byte
// offsets with its pages (there is no separate region), so a log lives in a
// file of its own, such as a database's LOG_FILE. Recovery/WAL replay is out
// of scope, so nothing currently interprets the bytes written here, but the
// hook point exists per spec.
func (dm *DiskManager) WriteLog(fd int, data []byte) error {
	f, err := dm.lookup(fd)
	if err != nil {
		return err
	}
	f.allocMu.Lock()
	defer f.allocMu.Unlock()
	n, err := f.handle.WriteAt(data, f.logOffset)
	if err != nil {
		return fmt.Errorf("write log to %q: %w", f.path, err)
	}
	f.logOffset += int64(n)
	return nil
}

// ReadLog reads len(dst) bytes starting at offset from the log region.
// Returns -1 if offset is at or past the log's current logical end, so a
// caller can distinguish "nothing there yet" from a legitimate zero-byte
// read.
func (dm *DiskManager) ReadLog(fd int, offset int64, dst []byte) (int, error) {
	f, err := dm.lookup(fd)
	if err != nil {
		return 0, err
	}
	f.allocMu.Lock()
	logEnd := f.logOffset
	f.allocMu.Unlock()
	if offset >= logEnd {
		return -1, nil
	}
	n, err := f.handle.ReadAt(dst, offset)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("read log from %q: %w", f.path, err)
	}
	return n, nil
}
