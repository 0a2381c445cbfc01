// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package proposal

import (
	"github.com/pkg/errors"

	"github.com/tonconfig/confignode/cell"
	"github.com/tonconfig/confignode/ton"
)

// Descriptor is the content of a proposal. Its unit hash is the proposal id.
type Descriptor struct {
	ExpireAt uint32
	Critical bool
	ParamID  int32
	Value    *cell.Cell   // nil proposes deleting the param
	CurHash  *ton.Bytes32 // expected hash of the current value; zero hash expects absence
}

// Store appends the descriptor fields to b.
func (d *Descriptor) Store(b *cell.Builder) *cell.Builder {
	return b.
		StoreUint(uint64(d.ExpireAt), 32).
		StoreBit(d.Critical).
		StoreInt(int64(d.ParamID), 32).
		StoreMaybeRef(d.Value).
		StoreMaybeBytes32(d.CurHash)
}

// Unit returns the descriptor unit.
func (d *Descriptor) Unit() (*cell.Cell, error) {
	return d.Store(cell.BeginCell()).EndCell()
}

// ID returns the content derived identity.
func (d *Descriptor) ID() (ton.Bytes32, error) {
	c, err := d.Unit()
	if err != nil {
		return ton.Bytes32{}, err
	}
	return c.Hash(), nil
}

// LoadDescriptor reads descriptor fields from s. Trailing data is an error.
func LoadDescriptor(s *cell.Slice) (*Descriptor, error) {
	var (
		d   Descriptor
		err error
	)
	expireAt, err := s.LoadUint(32)
	if err != nil {
		return nil, errors.Wrap(err, "expire_at")
	}
	d.ExpireAt = uint32(expireAt)
	if d.Critical, err = s.LoadBit(); err != nil {
		return nil, errors.Wrap(err, "critical")
	}
	paramID, err := s.LoadInt(32)
	if err != nil {
		return nil, errors.Wrap(err, "param_id")
	}
	d.ParamID = int32(paramID)
	if d.Value, err = s.LoadMaybeRef(); err != nil {
		return nil, errors.Wrap(err, "value")
	}
	if d.CurHash, err = s.LoadMaybeBytes32(); err != nil {
		return nil, errors.Wrap(err, "cur_hash")
	}
	if err := s.EndParse(); err != nil {
		return nil, err
	}
	return &d, nil
}

// DecodeDescriptor parses a whole descriptor unit.
func DecodeDescriptor(c *cell.Cell) (*Descriptor, error) {
	return LoadDescriptor(c.BeginParse())
}
