package freelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-segheap/segheap/internal/arena"
	"github.com/go-segheap/segheap/internal/block"
)

// setup reserves an extra leading word so block addresses start at 8, never
// 0: address 0 is reserved for the permanent prologue in every real heap
// and collides with the `none` list-terminator sentinel, so no free block
// a test inserts should ever sit there.
func setup(t *testing.T, size uint32) (block.Navigator, *Lists) {
	t.Helper()
	a := arena.NewNative()
	_, err := a.Extend(block.WordSize + size)
	require.NoError(t, err)
	nav := block.New(a)
	return nav, New(nav)
}

func TestInsertDeleteNormalSingle(t *testing.T) {
	nav, l := setup(t, 64)
	nav.WriteBlock(8, 32, false, true, false)

	l.Insert(8, 32)
	assert.Equal(t, uint32(8), l.Head(1))

	l.Delete(8, 32)
	assert.Equal(t, uint32(none), l.Head(1))
}

func TestInsertNormalOrdersMostRecentFirst(t *testing.T) {
	nav, l := setup(t, 128)
	nav.WriteBlock(8, 32, false, true, false)
	nav.WriteBlock(40, 32, false, true, false)

	l.Insert(8, 32)
	l.Insert(40, 32)

	assert.Equal(t, uint32(40), l.Head(1))
	assert.Equal(t, uint32(8), nav.FreeNext(40))
	assert.Equal(t, uint32(40), nav.FreePrev(8))
}

func TestDeleteMiddleOfNormalList(t *testing.T) {
	nav, l := setup(t, 128)
	nav.WriteBlock(8, 32, false, true, false)
	nav.WriteBlock(40, 32, false, true, false)
	nav.WriteBlock(72, 32, false, true, false)

	l.Insert(8, 32)
	l.Insert(40, 32)
	l.Insert(72, 32)
	// list head->72->40->8

	l.Delete(40, 32)

	assert.Equal(t, uint32(72), l.Head(1))
	assert.Equal(t, uint32(8), nav.FreeNext(72))
	assert.Equal(t, uint32(72), nav.FreePrev(8))
}

func TestMiniInsertDeleteHead(t *testing.T) {
	nav, l := setup(t, 64)
	nav.WriteBlock(8, block.MinSize, false, true, false)

	l.Insert(8, block.MinSize)
	assert.Equal(t, uint32(8), l.Head(0))

	l.Delete(8, block.MinSize)
	assert.Equal(t, uint32(none), l.Head(0))
}

func TestMiniDeleteFromMiddle(t *testing.T) {
	nav, l := setup(t, 64)
	nav.WriteBlock(8, block.MinSize, false, true, false)
	nav.WriteBlock(24, block.MinSize, false, true, true)
	nav.WriteBlock(40, block.MinSize, false, true, true)

	l.Insert(8, block.MinSize)
	l.Insert(24, block.MinSize)
	l.Insert(40, block.MinSize)
	// list head->40->24->8

	l.Delete(24, block.MinSize)

	assert.Equal(t, uint32(40), l.Head(0))
	assert.Equal(t, uint32(8), nav.MiniNext(40))
}

func TestAutoVariantsDeriveSizeFromHeader(t *testing.T) {
	nav, l := setup(t, 64)
	nav.WriteBlock(8, block.MinSize, false, true, false)

	l.InsertAuto(8)
	assert.Equal(t, uint32(8), l.Head(0))

	l.DeleteAuto(8)
	assert.Equal(t, uint32(none), l.Head(0))
}
