package set

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"tlog.app/go/tlog/tlwire"
)

type blockID int

func TestBitmap(t *testing.T) {
	var b Bitmap[blockID]

	assert.False(t, b.IsSet(3))
	assert.Equal(t, 0, b.Size())

	b.Set(3)
	b.Set(200)

	assert.True(t, b.IsSet(3))
	assert.True(t, b.IsSet(200))
	assert.False(t, b.IsSet(4))
	assert.Equal(t, 2, b.Size())

	assert.False(t, b.Add(3))
	assert.True(t, b.Add(64))

	var got []blockID
	b.Range(func(k blockID) bool {
		got = append(got, k)
		return true
	})

	assert.Equal(t, []blockID{3, 64, 200}, got)

	c := b.Copy()
	b.Clear(64)
	b.Clear(1000)

	assert.False(t, b.IsSet(64))
	assert.True(t, c.IsSet(64))

	b.Reset()
	assert.Equal(t, 0, b.Size())
	assert.Equal(t, 3, c.Size())
}

func TestBitmapRangeStop(t *testing.T) {
	b := NewBitmap[int](10)

	for i := 0; i < 10; i++ {
		b.Set(i)
	}

	n := 0
	b.Range(func(k int) bool {
		n++
		return k < 4
	})

	assert.Equal(t, 5, n)
}

func TestBitmapTlog(t *testing.T) {
	b := NewBitmap[int](0)
	b.Set(1)
	b.Set(5)

	buf := b.TlogAppend(nil)
	assert.NotEmpty(t, buf)

	var nilmap *Bitmap[int]
	assert.Equal(t, tlwire.LowEncoder{}.AppendNil(nil), nilmap.TlogAppend(nil))
}
