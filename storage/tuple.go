package storage

import (
	"fmt"

	"github.com/lkyu-ly/rucbase-go/common"
)

// RawTuple is the physical, on-page view of a row: a fixed-width byte slice
// with no self-describing structure. A RawTupleDesc is required to interpret it.
type RawTuple []byte

// RawTupleDesc describes the physical binary layout shared by every RawTuple
// of a given table or index key: which columns, in what order, at what byte
// offsets, in a fixed row width.
type RawTupleDesc struct {
	fields      []common.Type
	offsets     []int
	bytesPerRow int
}

func (desc *RawTupleDesc) String() string {
	return fmt.Sprintf("%v", desc.fields)
}

func (desc *RawTupleDesc) NumColumns() int {
	return len(desc.fields)
}

func (desc *RawTupleDesc) BytesPerTuple() int {
	return desc.bytesPerRow
}

func (desc *RawTupleDesc) GetFieldType(i int) common.Type {
	return desc.fields[i]
}

func (desc *RawTupleDesc) GetFieldTypes() []common.Type {
	return desc.fields
}

func (desc *RawTupleDesc) GetFieldOffset(i int) int {
	return desc.offsets[i]
}

func (desc *RawTupleDesc) GetValue(t RawTuple, i int) common.Value {
	return common.AsValue(desc.fields[i], t[desc.offsets[i]:])
}

func (desc *RawTupleDesc) SetValue(t RawTuple, i int, val common.Value) {
	common.Assert(val.Type() == desc.fields[i], "type mismatch setting column %d", i)
	val.WriteTo(t[desc.offsets[i]:])
}

// NewRawTupleDesc lays out fields back to back without padding. Every field
// width is a multiple of 8, and the total is asserted to be 8-byte aligned,
// matching the alignment the bitmap and page-header code throughout this
// package assumes everywhere it does a raw byte cast.
func NewRawTupleDesc(fields []common.Type) *RawTupleDesc {
	size := 0
	offsets := make([]int, len(fields))
	for i, f := range fields {
		offsets[i] = size
		switch f {
		case common.IntType:
			size += common.IntSize
		case common.StringType:
			size += common.StringLength
		default:
			common.Assert(false, "unknown field type %v", f)
		}
	}
	common.Assert(common.AlignedTo8(size), "tuple width must be 8-byte aligned")
	common.Assert(size <= common.PageSize-64, "tuple width must leave room for the page header")
	return &RawTupleDesc{fields: fields, offsets: offsets, bytesPerRow: size}
}

// Tuple is the logical row passed between executors. It may be backed by
// physical page bytes (zero-copy, via FromRawTuple) or be purely virtual
// (via FromValues, for rows an operator computes rather than reads) — a
// projection's output, for instance, has no physical backing until something
// downstream materializes it with WriteToBuffer.
type Tuple struct {
	rawTuple    RawTuple
	rawDesc     *RawTupleDesc
	extraValues []common.Value
	rid         common.RecordID
}

func FromRawTuple(rawTuple RawTuple, desc *RawTupleDesc, rid common.RecordID) Tuple {
	return Tuple{rawTuple: rawTuple, rawDesc: desc, rid: rid}
}

func FromValues(values ...common.Value) Tuple {
	return Tuple{extraValues: values}
}

func (t *Tuple) IsNil() bool {
	return t.rawDesc == nil && t.extraValues == nil
}

// WriteToBuffer materializes the tuple's physical and virtual columns into
// buf according to desc, returning a new Tuple backed by buf.
func (t *Tuple) WriteToBuffer(buf []byte, desc *RawTupleDesc) Tuple {
	common.Assert(len(buf) >= desc.BytesPerTuple(), "buffer too small")
	common.Assert(t.NumColumns() == desc.NumColumns(), "tuple descriptor mismatch")

	numPhysical := 0
	if t.rawDesc != nil {
		numPhysical = t.rawDesc.NumColumns()
		copy(buf, t.rawTuple)
	}
	for i := numPhysical; i < desc.NumColumns(); i++ {
		desc.SetValue(buf, i, t.extraValues[i-numPhysical])
	}
	return FromRawTuple(buf, desc, t.rid)
}

// MergeTuples concatenates left's and right's columns directly into buf,
// as described by the combined schema desc (left fields then right fields).
func MergeTuples(buf []byte, desc *RawTupleDesc, left Tuple, right Tuple) Tuple {
	common.Assert(len(buf) >= desc.BytesPerTuple(), "buffer too small")
	common.Assert(left.NumColumns()+right.NumColumns() == desc.NumColumns(), "tuple descriptor mismatch")

	if left.extraValues == nil && right.extraValues == nil {
		copy(buf, left.rawTuple)
		copy(buf[len(left.rawTuple):], right.rawTuple)
	} else {
		leftCols := left.NumColumns()
		for i := 0; i < leftCols; i++ {
			desc.SetValue(buf, i, left.GetValue(i))
		}
		for i := 0; i < right.NumColumns(); i++ {
			desc.SetValue(buf, leftCols+i, right.GetValue(i))
		}
	}
	return FromRawTuple(buf, desc, common.NilRID)
}

func (t *Tuple) RID() common.RecordID {
	return t.rid
}

func (t *Tuple) NumColumns() int {
	if t.rawDesc == nil {
		return len(t.extraValues)
	}
	return len(t.extraValues) + t.rawDesc.NumColumns()
}

func (t *Tuple) GetValue(i int) common.Value {
	physCols := 0
	if t.rawDesc != nil {
		physCols = t.rawDesc.NumColumns()
	}
	if i < physCols {
		return t.rawDesc.GetValue(t.rawTuple, i)
	}
	return t.extraValues[i-physCols]
}

// DeepCopy materializes the tuple into freshly allocated memory, independent
// of whatever buffer it currently points at.
func (t *Tuple) DeepCopy(desc *RawTupleDesc) Tuple {
	common.Assert(t.NumColumns() == desc.NumColumns(), "tuple descriptor mismatch")
	dest := make([]byte, desc.BytesPerTuple())
	t.WriteToBuffer(dest, desc)
	return FromRawTuple(dest, desc, t.rid)
}
