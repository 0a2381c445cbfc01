// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package canon decides whether an opaque cell is acceptable as a parameter value.
//
// A value is canonical when it is a tree of ordinary cells that fits the budget
// of the enclosing write. Exotic cells (library references, pruned branches,
// Merkle proofs and updates) carry an alternate interpretation and are refused
// even when they decode structurally.
package canon

import (
	"github.com/pkg/errors"

	"github.com/tonconfig/confignode/cell"
	"github.com/tonconfig/confignode/ton"
)

var (
	ErrNil         = errors.New("nil payload")
	ErrExotic      = errors.New("exotic payload")
	ErrTooManyRefs = errors.New("payload exceeds reference budget")
	ErrTooDeep     = errors.New("payload exceeds depth budget")
	ErrTooLarge    = errors.New("payload exceeds bit budget")
)

// Policy is the budget a payload must fit.
type Policy struct {
	MaxRefs  int // references allowed on the root
	MaxDepth int // depth of the tree below the root
	MaxBits  int // data bits summed over the tree
}

var (
	// SingleUnit accepts one ordinary cell without references.
	SingleUnit = Policy{MaxRefs: 0, MaxDepth: 0, MaxBits: cell.MaxBits}

	// Tree accepts any ordinary tree within the cell limits.
	Tree = Policy{MaxRefs: cell.MaxRefs, MaxDepth: cell.MaxDepth, MaxBits: 1 << 20}
)

// Validate returns nil if payload is canonical under p.
func (p Policy) Validate(payload *cell.Cell) error {
	if payload == nil {
		return ErrNil
	}
	if payload.IsExotic() {
		return errors.Wrapf(ErrExotic, "%v", payload.Type())
	}
	if payload.RefCount() > p.MaxRefs {
		return errors.Wrapf(ErrTooManyRefs, "%d > %d", payload.RefCount(), p.MaxRefs)
	}
	if int(payload.Depth()) > p.MaxDepth {
		return errors.Wrapf(ErrTooDeep, "%d > %d", payload.Depth(), p.MaxDepth)
	}
	bits := 0
	seen := make(map[ton.Bytes32]struct{})
	var walk func(c *cell.Cell) error
	walk = func(c *cell.Cell) error {
		if _, ok := seen[c.Hash()]; ok {
			return nil
		}
		seen[c.Hash()] = struct{}{}
		if c.IsExotic() {
			return errors.Wrapf(ErrExotic, "nested %v", c.Type())
		}
		if bits += c.BitLen(); bits > p.MaxBits {
			return ErrTooLarge
		}
		for i := 0; i < c.RefCount(); i++ {
			if err := walk(c.Ref(i)); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(payload)
}

// Validate checks payload against SingleUnit.
func Validate(payload *cell.Cell) error {
	return SingleUnit.Validate(payload)
}
