package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplacerVictimIsOldestUnpinned(t *testing.T) {
	r := NewReplacer()
	r.Unpin(1)
	r.Unpin(2)
	r.Unpin(3)
	assert.Equal(t, 3, r.Size())

	v, ok := r.Victim()
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = r.Victim()
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	assert.Equal(t, 1, r.Size())
}

func TestReplacerPinRemovesCandidacy(t *testing.T) {
	r := NewReplacer()
	r.Unpin(1)
	r.Unpin(2)
	r.Pin(1)

	v, ok := r.Victim()
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = r.Victim()
	assert.False(t, ok)
}

func TestReplacerPinAndUnpinAreIdempotent(t *testing.T) {
	r := NewReplacer()
	r.Unpin(1)
	r.Unpin(1) // already a candidate, no-op
	assert.Equal(t, 1, r.Size())

	r.Pin(1)
	r.Pin(1) // already removed, no-op
	assert.Equal(t, 0, r.Size())
}

func TestReplacerVictimOnEmptyReplacer(t *testing.T) {
	r := NewReplacer()
	_, ok := r.Victim()
	assert.False(t, ok)
}

func TestReplacerReunpinGoesToBack(t *testing.T) {
	r := NewReplacer()
	r.Unpin(1)
	r.Unpin(2)
	r.Pin(1)
	r.Unpin(1) // re-unpinning puts 1 at the back, behind 2 now

	v, _ := r.Victim()
	assert.Equal(t, 2, v)
	v, _ = r.Victim()
	assert.Equal(t, 1, v)
}
