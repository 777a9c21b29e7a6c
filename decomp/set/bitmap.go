package set

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

type (
	Key interface {
		~int | ~int32 | ~int64
	}

	// Bitmap is a dense set of small non-negative keys.
	// Zero value is an empty set.
	Bitmap[K Key] struct {
		b  []uint64
		b0 [2]uint64
	}
)

func MakeBitmap[K Key](n int) Bitmap[K] {
	var s Bitmap[K]

	s.b = s.b0[:]

	if n = (n + 63) / 64; n > len(s.b) {
		s.b = make([]uint64, n)
	}

	return s
}

func NewBitmap[K Key](n int) *Bitmap[K] {
	s := MakeBitmap[K](n)
	return &s
}

func (s *Bitmap[K]) Set(k K) {
	i, j := ij(k)

	s.grow(i)

	s.b[i] |= 1 << j
}

// Add sets k and reports whether it was not set before.
func (s *Bitmap[K]) Add(k K) bool {
	if s.IsSet(k) {
		return false
	}

	s.Set(k)

	return true
}

func (s *Bitmap[K]) Clear(k K) {
	i, j := ij(k)

	if i >= len(s.b) {
		return
	}

	s.b[i] &^= 1 << j
}

func (s *Bitmap[K]) IsSet(k K) bool {
	i, j := ij(k)

	if i >= len(s.b) {
		return false
	}

	return s.b[i]&(1<<j) != 0
}

func (s *Bitmap[K]) Reset() {
	for i := range s.b {
		s.b[i] = 0
	}
}

func (s *Bitmap[K]) Copy() Bitmap[K] {
	r := MakeBitmap[K](len(s.b) * 64)
	copy(r.b, s.b)

	return r
}

// Size is the number of keys set.
func (s *Bitmap[K]) Size() (n int) {
	if s == nil {
		return 0
	}

	for _, x := range s.b {
		n += bits.OnesCount64(x)
	}

	return n
}

// Range calls f for each key in ascending order until it returns false.
func (s *Bitmap[K]) Range(f func(k K) bool) {
	for i, x := range s.b {
		for x != 0 {
			j := bits.TrailingZeros64(x)
			x &^= 1 << j

			if !f(K(i*64 + j)) {
				return
			}
		}
	}
}

func (s *Bitmap[K]) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	if s == nil {
		return e.AppendNil(b)
	}

	b = e.AppendTag(b, tlwire.Array, -1)

	s.Range(func(k K) bool {
		b = e.AppendInt(b, int(k))
		return true
	})

	return e.AppendBreak(b)
}

func ij[K Key](k K) (i, j int) {
	if k < 0 {
		panic("negative key")
	}

	return int(k) / 64, int(k) % 64
}

func (s *Bitmap[K]) grow(i int) {
	for i >= len(s.b) {
		s.b = append(s.b, 0)
	}
}
