// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cell

import (
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

var (
	_ rlp.Encoder = (*Cell)(nil)
	_ rlp.Decoder = (*Cell)(nil)
)

// rlpCell is the wire form of a cell tree.
type rlpCell struct {
	Type uint8
	Bits uint16
	Data []byte
	Refs []*rlpCell
}

func (c *Cell) toRLP() *rlpCell {
	r := &rlpCell{
		Type: uint8(c.typ),
		Bits: uint16(c.bits),
		Data: c.data,
		Refs: make([]*rlpCell, 0, len(c.refs)),
	}
	for _, ref := range c.refs {
		r.Refs = append(r.Refs, ref.toRLP())
	}
	return r
}

func fromRLP(r *rlpCell, level int) (*Cell, error) {
	if r == nil {
		return nil, errors.New("nil cell")
	}
	if level > MaxDepth {
		return nil, ErrDepthExceeded
	}
	if len(r.Refs) > MaxRefs {
		return nil, ErrCellOverflow
	}
	refs := make([]*Cell, 0, len(r.Refs))
	for _, rr := range r.Refs {
		ref, err := fromRLP(rr, level+1)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if r.Type > uint8(MerkleUpdate) {
		return nil, ErrBadExotic
	}
	return newCell(Type(r.Type), append([]byte(nil), r.Data...), int(r.Bits), refs)
}

// EncodeRLP implements rlp.Encoder.
func (c *Cell) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, c.toRLP())
}

// DecodeRLP implements rlp.Decoder.
func (c *Cell) DecodeRLP(s *rlp.Stream) error {
	var r rlpCell
	if err := s.Decode(&r); err != nil {
		return err
	}
	decoded, err := fromRLP(&r, 0)
	if err != nil {
		return err
	}
	*c = *decoded
	return nil
}

// Encode returns the RLP encoding of c.
func Encode(c *Cell) ([]byte, error) {
	return rlp.EncodeToBytes(c)
}

// Decode parses the RLP encoding of a cell.
func Decode(data []byte) (*Cell, error) {
	var c Cell
	if err := rlp.DecodeBytes(data, &c); err != nil {
		return nil, errors.Wrap(err, "decode cell")
	}
	return &c, nil
}

// Hex returns the 0x-prefixed hex of the RLP encoding.
func (c *Cell) Hex() string {
	data, _ := Encode(c)
	return hexutil.Encode(data)
}

// FromHex parses the output of Hex.
func FromHex(s string) (*Cell, error) {
	data, err := hexutil.Decode(s)
	if err != nil {
		return nil, errors.Wrap(err, "decode hex")
	}
	return Decode(data)
}
