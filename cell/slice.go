// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cell

import (
	"github.com/tonconfig/confignode/ton"
)

// Slice reads a cell front to back.
type Slice struct {
	c   *Cell
	pos int
	ref int
}

// BitsLeft returns the number of unread bits.
func (s *Slice) BitsLeft() int { return s.c.bits - s.pos }

// RefsLeft returns the number of unread references.
func (s *Slice) RefsLeft() int { return len(s.c.refs) - s.ref }

// IsEmpty returns whether nothing is left to read.
func (s *Slice) IsEmpty() bool { return s.BitsLeft() == 0 && s.RefsLeft() == 0 }

// EndParse fails if anything is left unread.
func (s *Slice) EndParse() error {
	if !s.IsEmpty() {
		return ErrTrailingContent
	}
	return nil
}

func (s *Slice) bit() bool {
	v := s.c.data[s.pos/8]&(0x80>>(s.pos%8)) != 0
	s.pos++
	return v
}

// LoadBit reads one bit.
func (s *Slice) LoadBit() (bool, error) {
	if s.BitsLeft() < 1 {
		return false, ErrCellUnderflow
	}
	return s.bit(), nil
}

// LoadUint reads an n-bit unsigned integer, n <= 64.
func (s *Slice) LoadUint(n int) (uint64, error) {
	if n < 0 || n > 64 {
		return 0, ErrCellOverflow
	}
	if s.BitsLeft() < n {
		return 0, ErrCellUnderflow
	}
	var v uint64
	for i := 0; i < n; i++ {
		v <<= 1
		if s.bit() {
			v |= 1
		}
	}
	return v, nil
}

// LoadInt reads an n-bit two's complement integer, 0 < n <= 64.
func (s *Slice) LoadInt(n int) (int64, error) {
	if n <= 0 {
		return 0, ErrCellOverflow
	}
	v, err := s.LoadUint(n)
	if err != nil {
		return 0, err
	}
	if n < 64 && v&(1<<uint(n-1)) != 0 {
		v |= ^uint64(0) << uint(n)
	}
	return int64(v), nil
}

// LoadBits reads n bits packed MSB first.
func (s *Slice) LoadBits(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrCellOverflow
	}
	if s.BitsLeft() < n {
		return nil, ErrCellUnderflow
	}
	out := make([]byte, (n+7)/8)
	for i := 0; i < n; i++ {
		if s.bit() {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out, nil
}

// LoadBytes reads n whole bytes.
func (s *Slice) LoadBytes(n int) ([]byte, error) {
	return s.LoadBits(n * 8)
}

// LoadBytes32 reads 256 bits.
func (s *Slice) LoadBytes32() (ton.Bytes32, error) {
	var v ton.Bytes32
	b, err := s.LoadBits(256)
	if err != nil {
		return v, err
	}
	copy(v[:], b)
	return v, nil
}

// LoadMaybeBytes32 reads a presence bit and, if set, 256 bits.
func (s *Slice) LoadMaybeBytes32() (*ton.Bytes32, error) {
	ok, err := s.LoadBit()
	if err != nil || !ok {
		return nil, err
	}
	v, err := s.LoadBytes32()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// LoadRef reads the next reference.
func (s *Slice) LoadRef() (*Cell, error) {
	if s.RefsLeft() < 1 {
		return nil, ErrCellUnderflow
	}
	c := s.c.refs[s.ref]
	s.ref++
	return c, nil
}

// LoadMaybeRef reads a presence bit and, if set, a reference.
func (s *Slice) LoadMaybeRef() (*Cell, error) {
	ok, err := s.LoadBit()
	if err != nil || !ok {
		return nil, err
	}
	return s.LoadRef()
}
