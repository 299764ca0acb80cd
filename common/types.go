package common

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"
)

const (
	// PageSize is the fixed size, in bytes, of every page moved between disk and the buffer pool.
	PageSize int = 4096
	IntSize  int = 8
	// StringLength is the fixed width, in bytes, of a StringType column.
	StringLength int = 32
)

type Type int8

const (
	DefaultType Type = iota
	IntType
	StringType
)

func (t Type) Size() int {
	switch t {
	case IntType:
		return IntSize
	case StringType:
		return StringLength
	default:
		panic("unknown type")
	}
}

func (t Type) String() string {
	switch t {
	case IntType:
		return "int"
	case StringType:
		return "string"
	}
	return "unknown"
}

// RMNoPage is the sentinel page number meaning "no page" — used both for the
// RecordID sentinel and for the tail of the heap file's free-page list.
const RMNoPage int32 = -1

// RecordID identifies a tuple by the page it lives on and its slot within that page.
type RecordID struct {
	PageNo int32
	Slot   int32
}

var NilRID = RecordID{PageNo: RMNoPage, Slot: -1}

func (r RecordID) IsNil() bool {
	return r.PageNo == RMNoPage
}

func (r RecordID) String() string {
	return fmt.Sprintf("rid(%d,%d)", r.PageNo, r.Slot)
}

const RecordIDSize = 8

func (r RecordID) WriteTo(data []byte) {
	binary.LittleEndian.PutUint32(data, uint32(r.PageNo))
	binary.LittleEndian.PutUint32(data[4:], uint32(r.Slot))
}

func RecordIDFrom(data []byte) RecordID {
	return RecordID{
		PageNo: int32(binary.LittleEndian.Uint32(data)),
		Slot:   int32(binary.LittleEndian.Uint32(data[4:])),
	}
}

type TransactionID uint64

const InvalidTransactionID TransactionID = 0

// Value is a deserialized column value. Ints encode NULL as math.MinInt64;
// strings encode NULL as a leading 0xFF byte — the on-disk sentinel convention
// shared by every layer that touches raw tuple bytes.
type Value struct {
	t                Type
	safeString       bool
	null             bool
	underlyingInt    int64
	underlyingString string
}

// AsValue reads a Value out of raw page bytes.
//
// For StringType this is a zero-copy read: the returned Value aliases `source`.
// Call Copy() before the page backing `source` can be evicted or overwritten.
func AsValue(t Type, source []byte) Value {
	val := Value{t: t}
	switch t {
	case IntType:
		val.underlyingInt = int64(binary.LittleEndian.Uint64(source))
		if val.underlyingInt == math.MinInt64 {
			val.null = true
		}
	case StringType:
		if source[0] == 0xFF {
			val.null = true
			val.safeString = true
		} else {
			Assert(len(source) >= StringLength, "string too short")
			realLen := StringLength
			for i := 0; i < StringLength; i++ {
				if source[i] == 0 {
					realLen = i
					break
				}
			}
			if realLen == 0 {
				val.underlyingString = ""
				val.safeString = true
			} else {
				val.underlyingString = unsafe.String(&source[0], realLen)
				val.safeString = false
			}
		}
	}
	return val
}

func (v Value) IsNil() bool {
	return v.t == DefaultType
}

// Copy decouples a zero-copy string Value from its backing buffer.
func (v Value) Copy() Value {
	if v.t == StringType && !v.null && !v.safeString {
		return Value{
			t:                StringType,
			underlyingString: string([]byte(v.underlyingString)),
			safeString:       true,
		}
	}
	return v
}

func NewIntValue(v int64) Value {
	return Value{t: IntType, underlyingInt: v}
}

func NewStringValue(v string) Value {
	if len(v) > StringLength {
		panic("string too long")
	}
	return Value{t: StringType, underlyingString: v, safeString: true}
}

func NewNullInt() Value {
	return Value{t: IntType, null: true}
}

func NewNullString() Value {
	return Value{t: StringType, null: true, safeString: true}
}

func (v Value) Type() Type {
	return v.t
}

func (v Value) IsNull() bool {
	return v.null
}

func (v Value) IntValue() int64 {
	Assert(v.t == IntType, "type mismatch in IntValue")
	Assert(!v.null, "accessing value of NULL int")
	return v.underlyingInt
}

func (v Value) StringValue() string {
	Assert(v.t == StringType, "type mismatch in StringValue")
	Assert(!v.null, "accessing value of NULL string")
	return v.underlyingString
}

func (v Value) SizeInBytes() int {
	return v.t.Size()
}

func (v Value) WriteTo(data []byte) {
	Assert(len(data) >= v.SizeInBytes(), "buffer too small")

	if v.null {
		switch v.t {
		case IntType:
			binary.LittleEndian.PutUint64(data, 0x8000000000000000)
		case StringType:
			data[0] = 0xFF
			for i := 1; i < StringLength; i++ {
				data[i] = 0
			}
		}
		return
	}

	switch v.t {
	case IntType:
		binary.LittleEndian.PutUint64(data, uint64(v.underlyingInt))
	case StringType:
		n := copy(data, v.underlyingString)
		for i := n; i < StringLength; i++ {
			data[i] = 0
		}
	}
}

// Compare returns -1/0/1. NULL sorts below every non-NULL value of the same type.
func (v Value) Compare(other Value) int {
	Assert(v.t == other.t, "type mismatch in comparison")

	if v.null && other.null {
		return 0
	}
	if v.null {
		return -1
	}
	if other.null {
		return 1
	}

	switch v.t {
	case IntType:
		switch {
		case v.underlyingInt < other.underlyingInt:
			return -1
		case v.underlyingInt > other.underlyingInt:
			return 1
		default:
			return 0
		}
	case StringType:
		switch {
		case v.underlyingString < other.underlyingString:
			return -1
		case v.underlyingString > other.underlyingString:
			return 1
		default:
			return 0
		}
	}
	panic("unreachable")
}
