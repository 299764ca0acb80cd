package indexing

import (
	"bytes"

	"github.com/lkyu-ly/rucbase-go/common"
	"github.com/lkyu-ly/rucbase-go/storage"
)

// Key is a search key in an index: a slice of column bytes laid out
// according to some RawTupleDesc, drawn from (but not necessarily equal to)
// a row's full tuple.
type Key struct {
	storage.RawTuple
	schema *storage.RawTupleDesc
}

// NilKey represents an open bound (+/-Infinity) in a range scan.
var NilKey = Key{RawTuple: storage.RawTuple{}, schema: nil}

func (k Key) IsNil() bool {
	return k.schema == nil
}

func (k Key) Hash() uint64 {
	if k.IsNil() {
		return 0
	}
	return common.Hash(k.RawTuple)
}

// Equals holds only for keys sharing the same schema and byte content.
func (k Key) Equals(other Key) bool {
	return k.schema == other.schema && bytes.Equal(k.RawTuple, other.RawTuple)
}

// Compare is type-aware, three-way, and column-by-column; it panics if the
// two keys were built from different schemas.
func (k Key) Compare(other Key) int {
	common.Assert(k.schema == other.schema, "cannot compare keys of different schemas")
	for i := 0; i < k.schema.NumColumns(); i++ {
		v1 := k.schema.GetValue(k.RawTuple, i)
		v2 := other.schema.GetValue(other.RawTuple, i)
		if cmp := v1.Compare(v2); cmp != 0 {
			return cmp
		}
	}
	return 0
}

// DeepCopy detaches the key from whatever buffer it currently points into.
func (k Key) DeepCopy() Key {
	if k.IsNil() {
		return NilKey
	}
	dst := make([]byte, len(k.RawTuple))
	copy(dst, k.RawTuple)
	return Key{RawTuple: dst, schema: k.schema}
}
