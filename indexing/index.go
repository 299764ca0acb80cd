package indexing

import (
	"github.com/lkyu-ly/rucbase-go/common"
	"github.com/lkyu-ly/rucbase-go/storage"
	"github.com/lkyu-ly/rucbase-go/transaction"
)

type ScanDirection int

const (
	ScanDirectionForward ScanDirection = iota
	ScanDirectionBackward
)

// IndexMetadata describes an index's key layout and how its columns map
// back onto the table it indexes.
type IndexMetadata struct {
	// KeySchema describes the types and order of fields that make up the key.
	KeySchema *storage.RawTupleDesc
	// ProjectionList maps key field i to the base table's column index.
	ProjectionList []int
}

func (md *IndexMetadata) KeySize() int {
	return md.KeySchema.BytesPerTuple()
}

// AsKey builds a key from a raw tuple already laid out to match the key
// schema (e.g. a buffer produced by materializing the index's columns).
func (md *IndexMetadata) AsKey(rawTuple storage.RawTuple) Key {
	return Key{RawTuple: rawTuple[:md.KeySchema.BytesPerTuple()], schema: md.KeySchema}
}

// Index is the black-box contract executors and the catalog use to keep a
// secondary access path consistent with its table: insert/delete entries
// keyed on column bytes, plus ordered iteration. Implementations (only one,
// BTreeIndex, in this repository) are free to choose their own internal
// structure.
type Index interface {
	Metadata() *IndexMetadata

	InsertEntry(key Key, rid common.RecordID, txn *transaction.TransactionContext) error
	DeleteEntry(key Key, rid common.RecordID, txn *transaction.TransactionContext) error

	// ScanKey performs a point lookup, appending matches to output.
	ScanKey(key Key, output []common.RecordID, txn *transaction.TransactionContext) ([]common.RecordID, error)

	// Scan returns an iterator starting at the first (forward) or last
	// (backward) entry at or before/after startingPoint; NilKey means
	// unbounded in the direction of travel.
	Scan(start Key, direction ScanDirection, txn *transaction.TransactionContext) (ScanIterator, error)

	// Close flushes and releases any resources the index holds open.
	Close() error
}

// ScanIterator follows Init (via Index.Scan) -> Next -> Close.
type ScanIterator interface {
	Next() bool
	Key() Key
	Value() common.RecordID
	Error() error
	Close() error
}
