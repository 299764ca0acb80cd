// Package catalog manages database directories: schema persistence, and the
// lifetime of every open heap file and index within one open database.
//
// For simplicity the catalog is serialized as a single JSON blob (DB_META),
// grounded on the teacher's catalog/catalog.go DiskCatalogManager. A real
// DBMS stores its catalog as ordinary tables so catalog reads enjoy the same
// buffer-pool caching and transactional guarantees as user data; that
// recursive bootstrap is explicitly out of scope here.
package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lkyu-ly/rucbase-go/common"
	"github.com/lkyu-ly/rucbase-go/indexing"
	"github.com/lkyu-ly/rucbase-go/storage"
	"go.uber.org/zap"
)

// ColMeta is one column's physical layout within a table's row.
type ColMeta struct {
	Name    string      `json:"name"`
	Type    common.Type `json:"type"`
	Length  int         `json:"length"`
	Offset  int         `json:"offset"`
	Indexed bool        `json:"indexed"`
}

type indexMetaJSON struct {
	Columns []string `json:"columns"`
}

type tabMetaJSON struct {
	Name    string          `json:"name"`
	Cols    []ColMeta       `json:"cols"`
	Indexes []indexMetaJSON `json:"indexes"`
}

type dbMetaJSON struct {
	Tables []tabMetaJSON `json:"tables"`
}

// TabMeta is a table's live, in-memory metadata: its column layout plus the
// open heap file and index handles backing it.
type TabMeta struct {
	Name      string
	Cols      []ColMeta
	IndexCols [][]string

	Desc    *storage.RawTupleDesc
	Heap    *storage.HeapFile
	Indexes map[string]indexing.Index // GetIndexName(table, cols) -> handle
}

func (t *TabMeta) colIndex(name string) int {
	for i, c := range t.Cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// GetIndexName yields a deterministic name — used as both the index's
// filename and the key into Catalog's open-index map — for an index over
// table's cols in declaration order.
func GetIndexName(table string, cols []string) string {
	return table + "_" + strings.Join(cols, "_")
}

const (
	metaFileName = "DB_META"
	logFileName  = "LOG_FILE"
)

// Catalog owns one open database directory: its schema and every table's
// and index's open file handles.
type Catalog struct {
	mu  sync.Mutex
	dir string
	log *zap.Logger
	dm  *storage.DiskManager

	poolSizePerFile int
	logFd           int
	tables          map[string]*TabMeta
}

// CreateDB creates a fresh, empty database directory and opens it.
func CreateDB(dir string, dm *storage.DiskManager, poolSizePerFile int, logger *zap.Logger) (*Catalog, error) {
	if _, err := os.Stat(dir); err == nil {
		return nil, common.NewError(common.DatabaseExists, "database %q already exists", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, common.NewError(common.Internal, "creating database directory: %v", err)
	}
	if err := writeMeta(dir, dbMetaJSON{Tables: []tabMetaJSON{}}); err != nil {
		return nil, err
	}
	if err := dm.Create(filepath.Join(dir, logFileName)); err != nil {
		return nil, err
	}
	return OpenDB(dir, dm, poolSizePerFile, logger)
}

// DropDB removes an entire database directory tree. The database must not
// currently be open.
func DropDB(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return common.NewError(common.DatabaseNotFound, "database %q does not exist", dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return common.NewError(common.Internal, "removing database directory: %v", err)
	}
	return nil
}

// OpenDB loads an existing database's metadata, opening every table's heap
// file and rebuilding every declared index by scanning its table — indexes
// are memory-only, grounded on the teacher's MemBTreeIndex, so they carry no
// persisted structure of their own across a close/open cycle.
func OpenDB(dir string, dm *storage.DiskManager, poolSizePerFile int, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, common.NewError(common.DatabaseNotFound, "database %q does not exist", dir)
	}

	meta, err := readMeta(dir)
	if err != nil {
		return nil, err
	}

	logFd, err := dm.Open(filepath.Join(dir, logFileName))
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		dir:             dir,
		log:             logger,
		dm:              dm,
		poolSizePerFile: poolSizePerFile,
		logFd:           logFd,
		tables:          make(map[string]*TabMeta),
	}

	for _, tm := range meta.Tables {
		desc := descFromCols(tm.Cols)
		heap, err := storage.OpenHeapFile(filepath.Join(dir, tm.Name), dm, desc, poolSizePerFile, logger)
		if err != nil {
			return nil, err
		}
		t := &TabMeta{
			Name:    tm.Name,
			Cols:    tm.Cols,
			Heap:    heap,
			Desc:    desc,
			Indexes: make(map[string]indexing.Index),
		}
		for _, im := range tm.Indexes {
			t.IndexCols = append(t.IndexCols, im.Columns)
			idx, err := c.buildIndex(t, im.Columns)
			if err != nil {
				return nil, err
			}
			t.Indexes[GetIndexName(tm.Name, im.Columns)] = idx
		}
		c.tables[tm.Name] = t
	}

	return c, nil
}

// CloseDB persists the catalog's current metadata, flushes and closes every
// table's heap file and log file, and clears in-memory state. The Catalog
// must not be used afterward.
func (c *Catalog) CloseDB() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.persistLocked(); err != nil {
		return err
	}
	for _, t := range c.tables {
		if err := t.Heap.Close(); err != nil {
			return err
		}
		for _, idx := range t.Indexes {
			if err := idx.Close(); err != nil {
				return err
			}
		}
	}
	if err := c.dm.Close(c.logFd); err != nil {
		return err
	}
	c.tables = nil
	return nil
}

func (c *Catalog) persistLocked() error {
	meta := dbMetaJSON{}
	for _, t := range c.tables {
		tm := tabMetaJSON{Name: t.Name, Cols: t.Cols}
		for _, cols := range t.IndexCols {
			tm.Indexes = append(tm.Indexes, indexMetaJSON{Columns: cols})
		}
		meta.Tables = append(meta.Tables, tm)
	}
	return writeMeta(c.dir, meta)
}

func descFromCols(cols []ColMeta) *storage.RawTupleDesc {
	types := make([]common.Type, len(cols))
	for i, c := range cols {
		types[i] = c.Type
	}
	return storage.NewRawTupleDesc(types)
}

// CreateTable registers a new table, computing each column's physical offset
// from its declared type, and creates its backing heap file.
func (c *Catalog) CreateTable(name string, cols []ColMeta) (*TabMeta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[name]; exists {
		return nil, common.NewError(common.TableExists, "table %q already exists", name)
	}

	desc := descFromCols(cols)
	for i := range cols {
		cols[i].Offset = desc.GetFieldOffset(i)
		cols[i].Length = cols[i].Type.Size()
	}

	heap, err := storage.CreateHeapFile(filepath.Join(c.dir, name), c.dm, desc, c.poolSizePerFile, c.log)
	if err != nil {
		return nil, err
	}

	t := &TabMeta{
		Name:    name,
		Cols:    cols,
		Desc:    desc,
		Heap:    heap,
		Indexes: make(map[string]indexing.Index),
	}
	c.tables[name] = t

	if err := c.persistLocked(); err != nil {
		return nil, err
	}
	return t, nil
}

// DropTable closes and destroys a table's heap file and every index built
// on it, then removes its metadata.
func (c *Catalog) DropTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, exists := c.tables[name]
	if !exists {
		return common.NewError(common.TableNotFound, "table %q does not exist", name)
	}

	for _, cols := range t.IndexCols {
		idxName := GetIndexName(name, cols)
		if idx, ok := t.Indexes[idxName]; ok {
			_ = idx.Close()
		}
		_ = c.dm.Destroy(filepath.Join(c.dir, idxName))
	}
	if err := t.Heap.Close(); err != nil {
		return err
	}
	if err := c.dm.Destroy(filepath.Join(c.dir, name)); err != nil {
		return err
	}

	delete(c.tables, name)
	return c.persistLocked()
}

// GetTableMetadata fetches the live metadata for a table by name.
func (c *Catalog) GetTableMetadata(name string) (*TabMeta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, exists := c.tables[name]
	if !exists {
		return nil, common.NewError(common.TableNotFound, "table %q does not exist", name)
	}
	return t, nil
}

// columnProjection resolves cols to their positions within t's schema, and
// the key schema those columns form.
func (t *TabMeta) columnProjection(cols []string) ([]int, *storage.RawTupleDesc, error) {
	projectionList := make([]int, len(cols))
	keyTypes := make([]common.Type, len(cols))
	for i, colName := range cols {
		ci := t.colIndex(colName)
		if ci == -1 {
			return nil, nil, common.NewError(common.ColumnNotFound, "column %q does not exist in table %q", colName, t.Name)
		}
		projectionList[i] = ci
		keyTypes[i] = t.Cols[ci].Type
	}
	return projectionList, storage.NewRawTupleDesc(keyTypes), nil
}

// buildIndex constructs an in-memory index over table's cols by scanning
// every live row and inserting its (key, rid) pair — grounded on the
// teacher's create_index scan-and-populate loop.
func (c *Catalog) buildIndex(t *TabMeta, cols []string) (indexing.Index, error) {
	projectionList, keySchema, err := t.columnProjection(cols)
	if err != nil {
		return nil, err
	}
	idx := indexing.NewBTreeIndex(keySchema, projectionList)

	scan, err := storage.NewHeapScan(t.Heap)
	if err != nil {
		return nil, err
	}
	defer scan.Close()

	keyBuf := make([]byte, keySchema.BytesPerTuple())
	for !scan.IsEnd() {
		rid, raw := scan.Current()
		row := storage.FromRawTuple(raw, t.Desc, rid)
		for i, ci := range projectionList {
			keySchema.SetValue(keyBuf, i, row.GetValue(ci))
		}
		if err := idx.InsertEntry(idx.Metadata().AsKey(keyBuf), rid, nil); err != nil {
			return nil, err
		}
		if err := scan.Next(); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// CreateIndex builds a new secondary index over table's cols, touching a
// placeholder on-disk file at GetIndexName's path to honor the file-naming
// contract even though the index's live structure is memory-only (see
// buildIndex), and marks each covered column Indexed.
func (c *Catalog) CreateIndex(table string, cols []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, exists := c.tables[table]
	if !exists {
		return common.NewError(common.TableNotFound, "table %q does not exist", table)
	}
	idxName := GetIndexName(table, cols)
	if _, exists := t.Indexes[idxName]; exists {
		return common.NewError(common.IndexExists, "index %q already exists on table %q", idxName, table)
	}

	idx, err := c.buildIndex(t, cols)
	if err != nil {
		return err
	}
	if err := c.dm.Create(filepath.Join(c.dir, idxName)); err != nil {
		return err
	}

	for _, colName := range cols {
		t.Cols[t.colIndex(colName)].Indexed = true
	}
	t.IndexCols = append(t.IndexCols, cols)
	t.Indexes[idxName] = idx

	return c.persistLocked()
}

// DropIndex closes and destroys an existing index, clearing Indexed on any
// column it covered that no other index on the table still covers.
func (c *Catalog) DropIndex(table string, cols []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, exists := c.tables[table]
	if !exists {
		return common.NewError(common.TableNotFound, "table %q does not exist", table)
	}
	idxName := GetIndexName(table, cols)
	idx, exists := t.Indexes[idxName]
	if !exists {
		return common.NewError(common.IndexNotFound, "index %q does not exist on table %q", idxName, table)
	}

	if err := idx.Close(); err != nil {
		return err
	}
	if err := c.dm.Destroy(filepath.Join(c.dir, idxName)); err != nil {
		return err
	}
	delete(t.Indexes, idxName)

	remaining := t.IndexCols[:0]
	for _, existing := range t.IndexCols {
		if GetIndexName(table, existing) != idxName {
			remaining = append(remaining, existing)
		}
	}
	t.IndexCols = remaining

	for _, colName := range cols {
		if !t.columnStillIndexed(colName) {
			t.Cols[t.colIndex(colName)].Indexed = false
		}
	}

	return c.persistLocked()
}

func (t *TabMeta) columnStillIndexed(colName string) bool {
	for _, cols := range t.IndexCols {
		for _, c := range cols {
			if c == colName {
				return true
			}
		}
	}
	return false
}

// WriteLog appends data to the database's log file.
func (c *Catalog) WriteLog(data []byte) error {
	return c.dm.WriteLog(c.logFd, data)
}

// ReadLog reads starting at offset into dst, returning the number of bytes read.
func (c *Catalog) ReadLog(offset int64, dst []byte) (int, error) {
	return c.dm.ReadLog(c.logFd, offset, dst)
}

func writeMeta(dir string, meta dbMetaJSON) error {
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return common.NewError(common.Internal, "marshaling %s: %v", metaFileName, err)
	}
	tmpPath := filepath.Join(dir, metaFileName+".tmp")
	finalPath := filepath.Join(dir, metaFileName)
	if err := os.WriteFile(tmpPath, b, 0o644); err != nil {
		return common.NewError(common.Internal, "writing %s: %v", metaFileName, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return common.NewError(common.Internal, "renaming %s: %v", metaFileName, err)
	}
	return nil
}

func readMeta(dir string) (dbMetaJSON, error) {
	var meta dbMetaJSON
	b, err := os.ReadFile(filepath.Join(dir, metaFileName))
	if err != nil {
		return meta, common.NewError(common.Internal, "reading %s: %v", metaFileName, err)
	}
	if err := json.Unmarshal(b, &meta); err != nil {
		return meta, common.NewError(common.Internal, "parsing %s: %v", metaFileName, err)
	}
	return meta, nil
}
