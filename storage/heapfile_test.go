package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/lkyu-ly/rucbase-go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rowFixtures generates n random (id, name) row fixtures for property tests,
// grounded on RichardKnop-minisql's gofakeit-backed DataGen.
func rowFixtures(n int) []struct {
	id   int64
	name string
} {
	faker := gofakeit.New(0)
	rows := make([]struct {
		id   int64
		name string
	}, n)
	for i := range rows {
		rows[i].id = int64(faker.Number(1, 1_000_000))
		rows[i].name = faker.FirstName()
	}
	return rows
}

func newTestHeapFile(t *testing.T, poolSize int) (*HeapFile, *RawTupleDesc) {
	desc := NewRawTupleDesc([]common.Type{common.IntType, common.StringType})
	dm := NewDiskManager(nil)
	path := filepath.Join(t.TempDir(), "heap.tbl")
	hf, err := CreateHeapFile(path, dm, desc, poolSize, nil)
	require.NoError(t, err)
	return hf, desc
}

func encodeRow(desc *RawTupleDesc, id int64, name string) RawTuple {
	buf := make(RawTuple, desc.BytesPerTuple())
	desc.SetValue(buf, 0, common.NewIntValue(id))
	desc.SetValue(buf, 1, common.NewStringValue(name))
	return buf
}

func TestHeapFileInsertAndReadTuple(t *testing.T) {
	hf, desc := newTestHeapFile(t, 8)

	rid, err := hf.InsertTuple(encodeRow(desc, 1, "alice"))
	require.NoError(t, err)

	dst := make(RawTuple, desc.BytesPerTuple())
	require.NoError(t, hf.ReadTuple(rid, dst))
	assert.Equal(t, int64(1), desc.GetValue(dst, 0).IntValue())
	assert.Equal(t, "alice", desc.GetValue(dst, 1).StringValue())
}

func TestHeapFileUpdateTupleInPlace(t *testing.T) {
	hf, desc := newTestHeapFile(t, 8)
	rid, err := hf.InsertTuple(encodeRow(desc, 1, "alice"))
	require.NoError(t, err)

	require.NoError(t, hf.UpdateTuple(rid, encodeRow(desc, 1, "alicia")))

	dst := make(RawTuple, desc.BytesPerTuple())
	require.NoError(t, hf.ReadTuple(rid, dst))
	assert.Equal(t, "alicia", desc.GetValue(dst, 1).StringValue())
}

func TestHeapFileDeleteTupleThenReadFails(t *testing.T) {
	hf, desc := newTestHeapFile(t, 8)
	rid, err := hf.InsertTuple(encodeRow(desc, 1, "alice"))
	require.NoError(t, err)

	require.NoError(t, hf.DeleteTuple(rid))

	dst := make(RawTuple, desc.BytesPerTuple())
	err = hf.ReadTuple(rid, dst)
	assert.True(t, errors.Is(err, ErrTupleDeleted))
}

func TestHeapFileDeletedSlotIsReusedByNextInsert(t *testing.T) {
	hf, desc := newTestHeapFile(t, 8)
	rid1, err := hf.InsertTuple(encodeRow(desc, 1, "alice"))
	require.NoError(t, err)
	require.NoError(t, hf.DeleteTuple(rid1))

	rid2, err := hf.InsertTuple(encodeRow(desc, 2, "bob"))
	require.NoError(t, err)
	assert.Equal(t, rid1, rid2, "freed slot on a non-full page should be reused")
}

// Scenario: fill a page past capacity to exercise the free-list invariant —
// "a page is on the free list iff it has spare capacity" — across an
// allocation that spills onto a second page.
func TestHeapFileFreeListAcrossPageBoundary(t *testing.T) {
	hf, desc := newTestHeapFile(t, 8)

	header, frame, err := hf.readHeader()
	require.NoError(t, err)
	require.NoError(t, hf.bp.Unpin(0, false))
	recordsPerPage := int(header.RecordsPerPage)
	_ = frame

	rids := make([]common.RecordID, recordsPerPage+1)
	for i := range rids {
		rid, err := hf.InsertTuple(encodeRow(desc, int64(i), "row"))
		require.NoError(t, err)
		rids[i] = rid
	}

	// The first recordsPerPage rows filled page 1 exactly; the next row must
	// have spilled onto a freshly allocated page 2.
	assert.Equal(t, int32(1), rids[0].PageNo)
	assert.Equal(t, int32(2), rids[recordsPerPage].PageNo)

	n, err := hf.NumPages()
	require.NoError(t, err)
	assert.Equal(t, int32(3), n) // header + 2 data pages

	// Deleting from the full first page must relink it onto the free list,
	// as the new head, so the next insert lands back on page 1 rather than on
	// page 2.
	require.NoError(t, hf.DeleteTuple(rids[0]))
	newRid, err := hf.InsertTuple(encodeRow(desc, 999, "reused"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), newRid.PageNo)
}

// Scenario: a brand-new page allocated by an insert that doesn't also fill
// it must still leave the header page marked dirty, even if the header
// frame started out clean in memory (e.g. right after a prior Close). A
// header mutation that escapes Unpin's dirty tracking would make the new
// page unreachable on the next open.
func TestHeapFileNewPageSurvivesCloseWhenInsertDoesNotFillIt(t *testing.T) {
	desc := NewRawTupleDesc([]common.Type{common.IntType, common.StringType})
	dm := NewDiskManager(nil)
	path := filepath.Join(t.TempDir(), "heap.tbl")
	hf, err := CreateHeapFile(path, dm, desc, 8, nil)
	require.NoError(t, err)

	header, _, err := hf.readHeader()
	require.NoError(t, err)
	require.NoError(t, hf.bp.Unpin(0, false))
	recordsPerPage := int(header.RecordsPerPage)
	require.GreaterOrEqual(t, recordsPerPage, 2, "test requires a page that can hold more than one record")

	// Fill page 1 exactly, which unlinks it from the free list, then close so
	// the header frame starts the next open clean in memory.
	for i := 0; i < recordsPerPage; i++ {
		_, err := hf.InsertTuple(encodeRow(desc, int64(i), "row"))
		require.NoError(t, err)
	}
	require.NoError(t, hf.Close())

	hf, err = OpenHeapFile(path, dm, desc, 8, nil)
	require.NoError(t, err)

	// The free list is empty, so this forces a brand-new page 2 without
	// filling it.
	rid, err := hf.InsertTuple(encodeRow(desc, 999, "fresh"))
	require.NoError(t, err)
	assert.Equal(t, int32(2), rid.PageNo)
	require.NoError(t, hf.Close())

	hf, err = OpenHeapFile(path, dm, desc, 8, nil)
	require.NoError(t, err)

	n, err := hf.NumPages()
	require.NoError(t, err)
	assert.Equal(t, int32(3), n, "header's NumPages update for the new page must have survived the close/reopen")

	dst := make(RawTuple, desc.BytesPerTuple())
	require.NoError(t, hf.ReadTuple(rid, dst))
	assert.Equal(t, int64(999), desc.GetValue(dst, 0).IntValue())
}

// Scenario: insert a batch of randomized row fixtures and read every one
// back, exercising the insert/read path against data that isn't a
// hand-picked literal.
func TestHeapFileInsertAndReadRandomizedFixtures(t *testing.T) {
	hf, desc := newTestHeapFile(t, 8)

	fixtures := rowFixtures(50)
	rids := make([]common.RecordID, len(fixtures))
	for i, row := range fixtures {
		rid, err := hf.InsertTuple(encodeRow(desc, row.id, row.name))
		require.NoError(t, err)
		rids[i] = rid
	}

	dst := make(RawTuple, desc.BytesPerTuple())
	for i, row := range fixtures {
		require.NoError(t, hf.ReadTuple(rids[i], dst))
		assert.Equal(t, row.id, desc.GetValue(dst, 0).IntValue())
		assert.Equal(t, row.name, desc.GetValue(dst, 1).StringValue())
	}
}

func TestHeapFileFetchPageHandleRangeChecks(t *testing.T) {
	hf, desc := newTestHeapFile(t, 8)
	_, err := hf.InsertTuple(encodeRow(desc, 1, "alice"))
	require.NoError(t, err)

	frame, err := hf.FetchPageHandle(1)
	require.NoError(t, err)
	require.NotNil(t, frame)
	require.NoError(t, hf.unpinPage(1, false))

	_, err = hf.FetchPageHandle(5)
	dbErr, ok := err.(common.DBError)
	require.True(t, ok)
	assert.Equal(t, common.PageNotExist, dbErr.Code)
}
