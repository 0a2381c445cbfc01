// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"github.com/pkg/errors"

	"github.com/tonconfig/confignode/cell"
	"github.com/tonconfig/confignode/state"
	"github.com/tonconfig/confignode/ton"
)

const (
	voteSetupTag  = 0x91
	voteConfigTag = 0x36
	idsPerUnit    = 31
)

// VoteConfig bounds the life of a proposal. MaxRounds and MaxLosses are kept
// in the parameter layout but only MinWins and the store window drive voting.
type VoteConfig struct {
	MaxRounds   uint8  `yaml:"max-rounds"`
	MinWins     uint8  `yaml:"min-wins"`
	MaxLosses   uint8  `yaml:"max-losses"`
	MinStoreSec uint32 `yaml:"min-store-sec"`
	MaxStoreSec uint32 `yaml:"max-store-sec"`
}

var (
	DefaultNormalVoteConfig = VoteConfig{
		MaxRounds:   3,
		MinWins:     2,
		MaxLosses:   2,
		MinStoreSec: 1_000_000,
		MaxStoreSec: 10_000_000,
	}
	DefaultCriticalVoteConfig = VoteConfig{
		MaxRounds:   7,
		MinWins:     3,
		MaxLosses:   2,
		MinStoreSec: 1_000_000,
		MaxStoreSec: 10_000_000,
	}
)

// Validate checks internal consistency.
func (c VoteConfig) Validate() error {
	if c.MinWins == 0 || c.MinWins > c.MaxRounds {
		return errors.Errorf("min wins %d out of [1, %d]", c.MinWins, c.MaxRounds)
	}
	if c.MinStoreSec > c.MaxStoreSec {
		return errors.Errorf("store window [%d, %d] is empty", c.MinStoreSec, c.MaxStoreSec)
	}
	return nil
}

func (c VoteConfig) unit() *cell.Cell {
	return cell.BeginCell().
		StoreUint(voteConfigTag, 8).
		StoreUint(uint64(c.MaxRounds), 8).
		StoreUint(uint64(c.MinWins), 8).
		StoreUint(uint64(c.MaxLosses), 8).
		StoreUint(uint64(c.MinStoreSec), 32).
		StoreUint(uint64(c.MaxStoreSec), 32).
		MustEndCell()
}

func parseVoteConfig(c *cell.Cell) (VoteConfig, error) {
	s := c.BeginParse()
	var (
		cfg    VoteConfig
		fields [6]uint64
		widths = [6]int{8, 8, 8, 8, 32, 32}
	)
	for i, w := range widths {
		v, err := s.LoadUint(w)
		if err != nil {
			return VoteConfig{}, err
		}
		fields[i] = v
	}
	if fields[0] != voteConfigTag {
		return VoteConfig{}, errors.Errorf("bad vote config tag 0x%x", fields[0])
	}
	cfg.MaxRounds = uint8(fields[1])
	cfg.MinWins = uint8(fields[2])
	cfg.MaxLosses = uint8(fields[3])
	cfg.MinStoreSec = uint32(fields[4])
	cfg.MaxStoreSec = uint32(fields[5])
	return cfg, s.EndParse()
}

// EncodeVoteSetup encodes the normal and critical configs as one parameter value.
func EncodeVoteSetup(normal, critical VoteConfig) *cell.Cell {
	return cell.BeginCell().
		StoreUint(voteSetupTag, 8).
		StoreRef(normal.unit()).
		StoreRef(critical.unit()).
		MustEndCell()
}

// DecodeVoteSetup is the inverse of EncodeVoteSetup.
func DecodeVoteSetup(c *cell.Cell) (normal, critical VoteConfig, err error) {
	s := c.BeginParse()
	tag, err := s.LoadUint(8)
	if err != nil {
		return
	}
	if tag != voteSetupTag {
		err = errors.Errorf("bad vote setup tag 0x%x", tag)
		return
	}
	var refs [2]*cell.Cell
	for i := range refs {
		if refs[i], err = s.LoadRef(); err != nil {
			return
		}
	}
	if err = s.EndParse(); err != nil {
		return
	}
	if normal, err = parseVoteConfig(refs[0]); err != nil {
		return
	}
	critical, err = parseVoteConfig(refs[1])
	return
}

// EncodeCriticalParams encodes the critical table as a chain of units.
func EncodeCriticalParams(ids ton.CriticalParams) *cell.Cell {
	var next *cell.Cell
	for end := len(ids); ; {
		start := max(end-idsPerUnit, 0)
		b := cell.BeginCell().StoreUint(uint64(end-start), 8)
		for _, id := range ids[start:end] {
			b.StoreInt(int64(id), 32)
		}
		next = b.StoreMaybeRef(next).MustEndCell()
		if start == 0 {
			return next
		}
		end = start
	}
}

// DecodeCriticalParams is the inverse of EncodeCriticalParams.
func DecodeCriticalParams(c *cell.Cell) (ton.CriticalParams, error) {
	var ids ton.CriticalParams
	for c != nil {
		s := c.BeginParse()
		n, err := s.LoadUint(8)
		if err != nil {
			return nil, err
		}
		for range n {
			id, err := s.LoadInt(32)
			if err != nil {
				return nil, err
			}
			ids = append(ids, int32(id))
		}
		if c, err = s.LoadMaybeRef(); err != nil {
			return nil, err
		}
		if err := s.EndParse(); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// Params binder of the parameter table.
type Params struct {
	state *state.State
}

func New(state *state.State) *Params {
	return &Params{state}
}

// Get native way to get param.
func (p *Params) Get(id int32) (*cell.Cell, error) {
	return p.state.GetParam(id)
}

// Set native way to set param.
func (p *Params) Set(id int32, value *cell.Cell) error {
	return p.state.SetParam(id, value)
}

func (p *Params) address(id int32) (ton.Address, error) {
	c, err := p.Get(id)
	if err != nil {
		return ton.Address{}, err
	}
	if c == nil {
		return ton.Address{}, errors.Errorf("param %d not set", id)
	}
	hash, err := c.BeginParse().LoadBytes32()
	if err != nil {
		return ton.Address{}, errors.Wrapf(err, "param %d", id)
	}
	return ton.NewAddress(ton.MasterchainID, hash), nil
}

// EncodeAddress encodes a masterchain account id as a param value.
func EncodeAddress(a ton.Address) *cell.Cell {
	return cell.BeginCell().StoreBytes32(a.Hash).MustEndCell()
}

// ConfigAddress returns the masterchain address of the config account (param 0).
func (p *Params) ConfigAddress() (ton.Address, error) {
	return p.address(ton.ParamConfigAddress)
}

// Elector returns the masterchain address of the elector (param 1).
func (p *Params) Elector() (ton.Address, error) {
	return p.address(ton.ParamElectorAddress)
}

// CriticalParams returns the critical table (param 10), or the default when unset.
func (p *Params) CriticalParams() (ton.CriticalParams, error) {
	c, err := p.Get(ton.ParamCritical)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return ton.DefaultCriticalParams, nil
	}
	ids, err := DecodeCriticalParams(c)
	return ids, errors.Wrap(err, "critical params")
}

// VoteConfig returns the vote config for the kind of proposal (param 11), or the default when unset.
func (p *Params) VoteConfig(critical bool) (VoteConfig, error) {
	c, err := p.Get(ton.ParamVoteConfig)
	if err != nil {
		return VoteConfig{}, err
	}
	normal, crit := DefaultNormalVoteConfig, DefaultCriticalVoteConfig
	if c != nil {
		if normal, crit, err = DecodeVoteSetup(c); err != nil {
			return VoteConfig{}, errors.Wrap(err, "vote config")
		}
	}
	if critical {
		return crit, nil
	}
	return normal, nil
}
