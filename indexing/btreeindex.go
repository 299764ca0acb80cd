package indexing

import (
	"github.com/lkyu-ly/rucbase-go/common"
	"github.com/lkyu-ly/rucbase-go/storage"
	"github.com/lkyu-ly/rucbase-go/transaction"
	"github.com/tidwall/btree"
)

type btreeItem struct {
	key Key
	rid common.RecordID
}

// BTreeIndex is the one index implementation this repository ships: an
// in-memory B-tree (github.com/tidwall/btree) ordered by key and, as a
// tie-breaker for non-unique keys, by RecordID.
//
// The index structure's internals are explicitly out of scope — only the
// Index/ScanIterator contract matters to the executors that call it — so
// this keeps the teacher's wrapper approach (indexing/mem_btree_index.go)
// nearly as-is, with the rollback/cleanup hooks dropped: there is no
// transaction manager in this repository to drive them.
type BTreeIndex struct {
	tree     *btree.BTreeG[btreeItem]
	metadata *IndexMetadata
}

func NewBTreeIndex(schema *storage.RawTupleDesc, projectionList []int) *BTreeIndex {
	less := func(a, b btreeItem) bool {
		if cmp := a.key.Compare(b.key); cmp != 0 {
			return cmp < 0
		}
		if a.rid.PageNo != b.rid.PageNo {
			return a.rid.PageNo < b.rid.PageNo
		}
		return a.rid.Slot < b.rid.Slot
	}
	return &BTreeIndex{
		tree:     btree.NewBTreeG(less),
		metadata: &IndexMetadata{KeySchema: schema, ProjectionList: projectionList},
	}
}

func (index *BTreeIndex) Metadata() *IndexMetadata {
	return index.metadata
}

func (index *BTreeIndex) InsertEntry(key Key, rid common.RecordID, txn *transaction.TransactionContext) error {
	common.Assert(key.schema == index.metadata.KeySchema, "key schema mismatch")
	index.tree.Set(btreeItem{key: key.DeepCopy(), rid: rid})
	return nil
}

func (index *BTreeIndex) DeleteEntry(key Key, rid common.RecordID, txn *transaction.TransactionContext) error {
	common.Assert(key.schema == index.metadata.KeySchema, "key schema mismatch")
	index.tree.Delete(btreeItem{key: key, rid: rid})
	return nil
}

func (index *BTreeIndex) ScanKey(key Key, output []common.RecordID, txn *transaction.TransactionContext) ([]common.RecordID, error) {
	common.Assert(key.schema == index.metadata.KeySchema, "key schema mismatch")
	pivot := btreeItem{key: key, rid: common.NilRID}
	index.tree.Ascend(pivot, func(item btreeItem) bool {
		if !item.key.Equals(key) {
			return false
		}
		output = append(output, item.rid)
		return true
	})
	return output, nil
}

func (index *BTreeIndex) Scan(start Key, direction ScanDirection, txn *transaction.TransactionContext) (ScanIterator, error) {
	common.Assert(start.IsNil() || start.schema == index.metadata.KeySchema, "key schema mismatch")

	snapshot := index.tree.Copy()
	it := &btreeIndexIterator{iter: snapshot.Iter(), direction: direction, firstCall: true}
	iter := &it.iter

	if direction == ScanDirectionForward {
		if !start.IsNil() {
			it.hasMore = iter.Seek(btreeItem{key: start, rid: common.NilRID})
		} else {
			it.hasMore = iter.First()
		}
		return it, nil
	}

	if start.IsNil() {
		it.hasMore = iter.Last()
		return it, nil
	}
	if found := iter.Seek(btreeItem{key: start, rid: common.NilRID}); !found {
		it.hasMore = iter.Last()
	} else if iter.Item().key.Compare(start) > 0 {
		it.hasMore = iter.Prev()
	} else {
		it.hasMore = true
	}
	return it, nil
}

func (index *BTreeIndex) Close() error {
	return nil
}

type btreeIndexIterator struct {
	iter      btree.IterG[btreeItem]
	direction ScanDirection
	firstCall bool
	hasMore   bool
}

func (it *btreeIndexIterator) Next() bool {
	if it.firstCall {
		it.firstCall = false
		return it.hasMore
	}
	if !it.hasMore {
		return false
	}
	if it.direction == ScanDirectionForward {
		it.hasMore = it.iter.Next()
	} else {
		it.hasMore = it.iter.Prev()
	}
	return it.hasMore
}

func (it *btreeIndexIterator) Key() Key              { return it.iter.Item().key }
func (it *btreeIndexIterator) Value() common.RecordID { return it.iter.Item().rid }
func (it *btreeIndexIterator) Error() error          { return nil }
func (it *btreeIndexIterator) Close() error          { it.iter.Release(); return nil }
