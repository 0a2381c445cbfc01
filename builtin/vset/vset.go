// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vset encodes validator sets and rotates them through params 36, 34 and 32.
package vset

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/tonconfig/confignode/builtin/params"
	"github.com/tonconfig/confignode/cell"
	"github.com/tonconfig/confignode/log"
	"github.com/tonconfig/confignode/ton"
)

const setTag = 0x12

var logger = log.WithContext("pkg", "vset")

// Validator is one entry of a set.
type Validator struct {
	PublicKey ton.Bytes32 `yaml:"public-key"`
	Weight    uint64      `yaml:"weight"`
}

// Set is a validator set as stored in params.
type Set struct {
	UtimeSince uint32      `yaml:"utime-since"`
	UtimeUntil uint32      `yaml:"utime-until"`
	Main       uint16      `yaml:"main"`
	Validators []Validator `yaml:"validators"`
}

// TotalWeight sums the weights of all validators.
func (s *Set) TotalWeight() uint64 {
	var total uint64
	for _, v := range s.Validators {
		total += v.Weight
	}
	return total
}

// Threshold returns floor(3*total/4). A round is won by weight strictly above it.
func Threshold(total uint64) *uint256.Int {
	t, _ := new(uint256.Int).MulDivOverflow(uint256.NewInt(total), uint256.NewInt(3), uint256.NewInt(4))
	return t
}

// Encode builds the set unit.
func (s *Set) Encode() (*cell.Cell, error) {
	if len(s.Validators) > 0xffff {
		return nil, errors.New("too many validators")
	}
	var list *cell.Cell
	for i := len(s.Validators) - 1; i >= 0; i-- {
		v := s.Validators[i]
		entry, err := cell.BeginCell().
			StoreBytes32(v.PublicKey).
			StoreUint(v.Weight, 64).
			StoreMaybeRef(list).
			EndCell()
		if err != nil {
			return nil, errors.Wrapf(err, "entry %d", i)
		}
		list = entry
	}
	return cell.BeginCell().
		StoreUint(setTag, 8).
		StoreUint(uint64(s.UtimeSince), 32).
		StoreUint(uint64(s.UtimeUntil), 32).
		StoreUint(uint64(len(s.Validators)), 16).
		StoreUint(uint64(s.Main), 16).
		StoreUint(s.TotalWeight(), 64).
		StoreMaybeRef(list).
		EndCell()
}

// Decode parses and checks a set unit.
func Decode(c *cell.Cell) (*Set, error) {
	if c == nil {
		return nil, errors.New("no validator set")
	}
	s := c.BeginParse()
	var hdr [6]uint64
	for i, w := range [6]int{8, 32, 32, 16, 16, 64} {
		v, err := s.LoadUint(w)
		if err != nil {
			return nil, errors.Wrap(err, "header")
		}
		hdr[i] = v
	}
	if hdr[0] != setTag {
		return nil, errors.Errorf("bad set tag 0x%x", hdr[0])
	}
	set := &Set{
		UtimeSince: uint32(hdr[1]),
		UtimeUntil: uint32(hdr[2]),
		Main:       uint16(hdr[4]),
	}
	next, err := s.LoadMaybeRef()
	if err != nil {
		return nil, err
	}
	if err := s.EndParse(); err != nil {
		return nil, err
	}
	for next != nil {
		es := next.BeginParse()
		pub, err := es.LoadBytes32()
		if err != nil {
			return nil, errors.Wrap(err, "entry key")
		}
		weight, err := es.LoadUint(64)
		if err != nil {
			return nil, errors.Wrap(err, "entry weight")
		}
		if next, err = es.LoadMaybeRef(); err != nil {
			return nil, err
		}
		if err := es.EndParse(); err != nil {
			return nil, err
		}
		set.Validators = append(set.Validators, Validator{pub, weight})
	}

	switch {
	case uint64(len(set.Validators)) != hdr[3]:
		return nil, errors.Errorf("total %d does not match %d entries", hdr[3], len(set.Validators))
	case uint64(set.Main) > hdr[3] || set.Main == 0:
		return nil, errors.Errorf("main %d out of [1, %d]", set.Main, hdr[3])
	case set.TotalWeight() != hdr[5]:
		return nil, errors.Errorf("total weight %d does not match sum %d", hdr[5], set.TotalWeight())
	case hdr[5] == 0:
		return nil, errors.New("zero total weight")
	case set.UtimeSince >= set.UtimeUntil:
		return nil, errors.New("empty validity window")
	}
	return set, nil
}

// Manager binds validator set params.
type Manager struct {
	params *params.Params
}

func New(p *params.Params) *Manager {
	return &Manager{p}
}

// Current returns the active set and its id.
func (m *Manager) Current() (*Set, ton.Bytes32, error) {
	c, err := m.params.Get(ton.ParamCurValidators)
	if err != nil {
		return nil, ton.Bytes32{}, err
	}
	set, err := Decode(c)
	if err != nil {
		return nil, ton.Bytes32{}, errors.WithMessage(err, "current validator set")
	}
	return set, c.Hash(), nil
}

// Propose installs c as the next set. A non-nil error means the set is refused
// and nothing changed.
func (m *Manager) Propose(c *cell.Cell, now uint32) error {
	set, err := Decode(c)
	if err != nil {
		return err
	}
	if set.UtimeSince <= now {
		return errors.Errorf("set starts at %d, not after %d", set.UtimeSince, now)
	}
	pending, err := m.params.Get(ton.ParamNextValidators)
	if err != nil {
		return err
	}
	if pending != nil {
		return errors.New("next validator set already pending")
	}
	return m.params.Set(ton.ParamNextValidators, c)
}

// Promote rotates 34 -> 32 and 36 -> 34 once the next set becomes effective.
// It reports whether a rotation happened.
func (m *Manager) Promote(now uint32) (bool, error) {
	next, err := m.params.Get(ton.ParamNextValidators)
	if err != nil || next == nil {
		return false, err
	}
	set, err := Decode(next)
	if err != nil {
		// should not happen as Propose checked it
		return false, errors.WithMessage(err, "next validator set")
	}
	if set.UtimeSince > now {
		return false, nil
	}
	cur, err := m.params.Get(ton.ParamCurValidators)
	if err != nil {
		return false, err
	}
	if cur != nil {
		if err := m.params.Set(ton.ParamPrevValidators, cur); err != nil {
			return false, err
		}
	}
	if err := m.params.Set(ton.ParamCurValidators, next); err != nil {
		return false, err
	}
	if err := m.params.Set(ton.ParamNextValidators, nil); err != nil {
		return false, err
	}
	logger.Info("validator set promoted", "id", next.Hash().AbbrevString(), "validators", len(set.Validators), "since", set.UtimeSince)
	return true, nil
}
