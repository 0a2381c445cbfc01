// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cell

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/minio/sha256-simd"
	"github.com/pkg/errors"

	"github.com/tonconfig/confignode/ton"
)

// Limits of a single cell.
const (
	MaxBits  = 1023
	MaxRefs  = 4
	MaxDepth = 1024
)

// Type of a cell. Everything other than Ordinary is exotic.
type Type uint8

// Cell types. Exotic types are tagged by the first data byte.
const (
	Ordinary     Type = 0
	PrunedBranch Type = 1
	Library      Type = 2
	MerkleProof  Type = 3
	MerkleUpdate Type = 4
)

func (t Type) String() string {
	switch t {
	case Ordinary:
		return "ordinary"
	case PrunedBranch:
		return "pruned-branch"
	case Library:
		return "library"
	case MerkleProof:
		return "merkle-proof"
	case MerkleUpdate:
		return "merkle-update"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Cell is an immutable unit of up to 1023 bits and 4 references.
// Hash and depth are computed once, when the cell is built.
type Cell struct {
	typ   Type
	data  []byte
	bits  int
	refs  []*Cell
	depth uint16
	hash  ton.Bytes32
}

var empty = mustNew(Ordinary, nil, 0, nil)

// Empty returns the empty ordinary cell.
func Empty() *Cell {
	return empty
}

func mustNew(typ Type, data []byte, bits int, refs []*Cell) *Cell {
	c, err := newCell(typ, data, bits, refs)
	if err != nil {
		panic(err)
	}
	return c
}

func newCell(typ Type, data []byte, bits int, refs []*Cell) (*Cell, error) {
	if bits < 0 || bits > MaxBits {
		return nil, ErrCellOverflow
	}
	if len(refs) > MaxRefs {
		return nil, ErrCellOverflow
	}
	if len(data) != (bits+7)/8 {
		return nil, errors.New("data length mismatch")
	}
	if bits%8 != 0 && data[len(data)-1]&(0xff>>(bits%8)) != 0 {
		return nil, errors.New("non-canonical trailing bits")
	}
	c := &Cell{
		typ:  typ,
		data: data,
		bits: bits,
		refs: refs,
	}
	for _, ref := range refs {
		if ref == nil {
			return nil, errors.New("nil reference")
		}
		if ref.depth+1 > c.depth {
			c.depth = ref.depth + 1
		}
	}
	if c.depth > MaxDepth {
		return nil, ErrDepthExceeded
	}
	if typ != Ordinary {
		if err := checkExotic(c); err != nil {
			return nil, err
		}
	}
	c.hash = c.computeHash()
	return c, nil
}

// checkExotic verifies the structural layout of an exotic cell.
func checkExotic(c *Cell) error {
	if c.bits < 8 || Type(c.data[0]) != c.typ {
		return ErrBadExotic
	}
	switch c.typ {
	case Library:
		if c.bits != 8+256 || len(c.refs) != 0 {
			return ErrBadExotic
		}
	case PrunedBranch:
		if c.bits < 8+8+256+16 || len(c.refs) != 0 {
			return ErrBadExotic
		}
	case MerkleProof:
		if c.bits != 8+256+16 || len(c.refs) != 1 {
			return ErrBadExotic
		}
		if !c.provesRef(1, 33, 0) {
			return ErrBadExotic
		}
	case MerkleUpdate:
		if c.bits != 8+2*256+2*16 || len(c.refs) != 2 {
			return ErrBadExotic
		}
		if !c.provesRef(1, 65, 0) || !c.provesRef(33, 67, 1) {
			return ErrBadExotic
		}
	default:
		return ErrBadExotic
	}
	return nil
}

// provesRef reports whether the embedded hash at hashOff and depth at depthOff match ref i.
func (c *Cell) provesRef(hashOff, depthOff, i int) bool {
	ref := c.refs[i]
	return string(c.data[hashOff:hashOff+32]) == string(ref.hash[:]) &&
		binary.BigEndian.Uint16(c.data[depthOff:depthOff+2]) == ref.depth
}

// computeHash returns the level-0 representation hash:
// sha256(d1 d2 data-with-completion-tag depth(refs)... hash(refs)...).
func (c *Cell) computeHash() ton.Bytes32 {
	h := sha256.New()
	d1 := byte(len(c.refs))
	if c.typ != Ordinary {
		d1 |= 8
	}
	d2 := byte(c.bits/8 + (c.bits+7)/8)
	h.Write([]byte{d1, d2})
	if c.bits%8 == 0 {
		h.Write(c.data)
	} else {
		padded := append([]byte(nil), c.data...)
		padded[len(padded)-1] |= 0x80 >> (c.bits % 8)
		h.Write(padded)
	}
	var depth [2]byte
	for _, ref := range c.refs {
		binary.BigEndian.PutUint16(depth[:], ref.depth)
		h.Write(depth[:])
	}
	for _, ref := range c.refs {
		h.Write(ref.hash[:])
	}
	var out ton.Bytes32
	h.Sum(out[:0])
	return out
}

// Type returns the cell type.
func (c *Cell) Type() Type { return c.typ }

// IsExotic returns whether the cell is not ordinary.
func (c *Cell) IsExotic() bool { return c.typ != Ordinary }

// BitLen returns the number of data bits.
func (c *Cell) BitLen() int { return c.bits }

// Data returns a copy of the packed data bits.
func (c *Cell) Data() []byte { return append([]byte(nil), c.data...) }

// RefCount returns the number of references.
func (c *Cell) RefCount() int { return len(c.refs) }

// Ref returns the i-th reference.
func (c *Cell) Ref(i int) *Cell { return c.refs[i] }

// Depth returns the maximum reference depth below the cell.
func (c *Cell) Depth() uint16 { return c.depth }

// Hash returns the representation hash.
func (c *Cell) Hash() ton.Bytes32 { return c.hash }

// Equal compares cells by representation hash.
func (c *Cell) Equal(other *Cell) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.hash == other.hash
}

// BeginParse starts reading the cell.
func (c *Cell) BeginParse() *Slice {
	return &Slice{c: c}
}

// String returns a fift-like dump, e.g. x{48656C6C6F}.
func (c *Cell) String() string {
	var sb strings.Builder
	c.dump(&sb, 0)
	return sb.String()
}

func (c *Cell) dump(sb *strings.Builder, indent int) {
	sb.WriteString(strings.Repeat(" ", indent))
	if c.typ != Ordinary {
		sb.WriteString(c.typ.String())
		sb.WriteByte(' ')
	}
	sb.WriteString("x{")
	sb.WriteString(strings.ToUpper(hex.EncodeToString(c.data)))
	if c.bits%8 != 0 {
		sb.WriteString(fmt.Sprintf("_%d", c.bits))
	}
	sb.WriteString("}")
	for _, ref := range c.refs {
		sb.WriteByte('\n')
		ref.dump(sb, indent+1)
	}
}
