// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cell

import (
	"github.com/tonconfig/confignode/ton"
)

// Builder assembles a cell. The first failing store is remembered and
// reported by EndCell; later stores become no-ops.
type Builder struct {
	data []byte
	bits int
	refs []*Cell
	err  error
}

// BeginCell starts a new builder.
func BeginCell() *Builder {
	return &Builder{}
}

// Err returns the first store error, if any.
func (b *Builder) Err() error { return b.err }

// BitsUsed returns the number of bits stored so far.
func (b *Builder) BitsUsed() int { return b.bits }

// RefsUsed returns the number of references stored so far.
func (b *Builder) RefsUsed() int { return len(b.refs) }

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) appendBit(bit bool) {
	if b.bits%8 == 0 {
		b.data = append(b.data, 0)
	}
	if bit {
		b.data[b.bits/8] |= 0x80 >> (b.bits % 8)
	}
	b.bits++
}

func (b *Builder) reserve(n int) bool {
	if b.err != nil {
		return false
	}
	if n < 0 || b.bits+n > MaxBits {
		b.fail(ErrCellOverflow)
		return false
	}
	return true
}

// StoreBit stores a single bit.
func (b *Builder) StoreBit(bit bool) *Builder {
	if b.reserve(1) {
		b.appendBit(bit)
	}
	return b
}

// StoreUint stores the n lowest bits of v, big-endian. n must be <= 64.
func (b *Builder) StoreUint(v uint64, n int) *Builder {
	if n > 64 {
		return b.fail(ErrCellOverflow)
	}
	if n < 64 && v>>uint(n) != 0 {
		return b.fail(ErrCellOverflow)
	}
	if b.reserve(n) {
		for i := n - 1; i >= 0; i-- {
			b.appendBit(v>>uint(i)&1 == 1)
		}
	}
	return b
}

// StoreInt stores v as an n-bit two's complement integer. n must be <= 64.
func (b *Builder) StoreInt(v int64, n int) *Builder {
	if n <= 0 || n > 64 {
		return b.fail(ErrCellOverflow)
	}
	if n < 64 {
		limit := int64(1) << uint(n-1)
		if v < -limit || v >= limit {
			return b.fail(ErrCellOverflow)
		}
		return b.StoreUint(uint64(v)&(1<<uint(n)-1), n)
	}
	return b.StoreUint(uint64(v), n)
}

// StoreBits stores the first n bits of data.
func (b *Builder) StoreBits(data []byte, n int) *Builder {
	if n > len(data)*8 {
		return b.fail(ErrCellUnderflow)
	}
	if b.reserve(n) {
		for i := 0; i < n; i++ {
			b.appendBit(data[i/8]&(0x80>>(i%8)) != 0)
		}
	}
	return b
}

// StoreBytes stores whole bytes.
func (b *Builder) StoreBytes(data []byte) *Builder {
	return b.StoreBits(data, len(data)*8)
}

// StoreBytes32 stores 256 bits.
func (b *Builder) StoreBytes32(v ton.Bytes32) *Builder {
	return b.StoreBytes(v[:])
}

// StoreRef appends a reference.
func (b *Builder) StoreRef(c *Cell) *Builder {
	if b.err != nil {
		return b
	}
	if c == nil {
		return b.fail(ErrCellUnderflow)
	}
	if len(b.refs) >= MaxRefs {
		return b.fail(ErrCellOverflow)
	}
	b.refs = append(b.refs, c)
	return b
}

// StoreMaybeRef stores a presence bit followed, if c is non-nil, by a reference.
func (b *Builder) StoreMaybeRef(c *Cell) *Builder {
	if c == nil {
		return b.StoreBit(false)
	}
	return b.StoreBit(true).StoreRef(c)
}

// StoreMaybeBytes32 stores a presence bit followed, if v is non-nil, by 256 bits.
func (b *Builder) StoreMaybeBytes32(v *ton.Bytes32) *Builder {
	if v == nil {
		return b.StoreBit(false)
	}
	return b.StoreBit(true).StoreBytes32(*v)
}

// StoreSlice copies the unread bits and references of s.
func (b *Builder) StoreSlice(s *Slice) *Builder {
	n := s.BitsLeft()
	bits, err := s.LoadBits(n)
	if err != nil {
		return b.fail(err)
	}
	b.StoreBits(bits, n)
	for s.RefsLeft() > 0 {
		ref, _ := s.LoadRef()
		b.StoreRef(ref)
	}
	return b
}

// StoreStringTail stores s in snake format: bytes that don't fit continue in a chained reference.
func (b *Builder) StoreStringTail(s string) *Builder {
	if b.err != nil {
		return b
	}
	room := (MaxBits - b.bits) / 8
	if len(s) <= room {
		return b.StoreBytes([]byte(s))
	}
	tail, err := BeginCell().StoreStringTail(s[room:]).EndCell()
	if err != nil {
		return b.fail(err)
	}
	return b.StoreBytes([]byte(s[:room])).StoreRef(tail)
}

// StoreStringRefTail stores s as a snake string in a new reference.
func (b *Builder) StoreStringRefTail(s string) *Builder {
	c, err := BeginCell().StoreStringTail(s).EndCell()
	if err != nil {
		return b.fail(err)
	}
	return b.StoreRef(c)
}

// EndCell finalizes an ordinary cell.
func (b *Builder) EndCell() (*Cell, error) {
	if b.err != nil {
		return nil, b.err
	}
	return newCell(Ordinary, append([]byte(nil), b.data...), b.bits, append([]*Cell(nil), b.refs...))
}

// EndExotic finalizes an exotic cell whose type is taken from the first data byte.
func (b *Builder) EndExotic() (*Cell, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.bits < 8 || b.data[0] == byte(Ordinary) {
		return nil, ErrBadExotic
	}
	return newCell(Type(b.data[0]), append([]byte(nil), b.data...), b.bits, append([]*Cell(nil), b.refs...))
}

// MustEndCell is EndCell that panics on error.
func (b *Builder) MustEndCell() *Cell {
	c, err := b.EndCell()
	if err != nil {
		panic(err)
	}
	return c
}
