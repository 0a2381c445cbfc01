// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tonconfig/confignode/builtin/params"
	"github.com/tonconfig/confignode/builtin/vset"
	"github.com/tonconfig/confignode/canon"
	"github.com/tonconfig/confignode/cell"
	"github.com/tonconfig/confignode/state"
	"github.com/tonconfig/confignode/ton"
)

// CustomGenesis is user customized genesis
type CustomGenesis struct {
	Name           string             `yaml:"name"`
	Admin          ton.Address        `yaml:"admin"`
	Elector        ton.Address        `yaml:"elector"`
	ConfigAddress  ton.Address        `yaml:"config-address"`
	Code           string             `yaml:"code,omitempty"`
	Validators     vset.Set           `yaml:"validators"`
	CriticalParams ton.CriticalParams `yaml:"critical-params,omitempty"`
	Vote           *VoteSetup         `yaml:"vote,omitempty"`
	Params         map[int32]string   `yaml:"params,omitempty"`
}

// VoteSetup holds the vote configs of param 11.
type VoteSetup struct {
	Normal   params.VoteConfig `yaml:"normal"`
	Critical params.VoteConfig `yaml:"critical"`
}

// LoadCustomNet reads a YAML network description.
func LoadCustomNet(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	var gen CustomGenesis
	if err := yaml.Unmarshal(data, &gen); err != nil {
		return nil, errors.Wrap(err, "unmarshal genesis file")
	}
	return NewCustomNet(&gen)
}

// NewCustomNet create custom network genesis.
func NewCustomNet(gen *CustomGenesis) (*Genesis, error) {
	if gen.Admin.IsZero() {
		return nil, errors.New("admin must be set")
	}
	if gen.Elector.IsZero() || !gen.Elector.IsMasterchain() {
		return nil, errors.New("elector must be a masterchain address")
	}
	if gen.ConfigAddress.IsZero() || !gen.ConfigAddress.IsMasterchain() {
		return nil, errors.New("config address must be a masterchain address")
	}

	set, err := gen.Validators.Encode()
	if err != nil {
		return nil, errors.WithMessage(err, "validators")
	}
	if _, err := vset.Decode(set); err != nil {
		return nil, errors.WithMessage(err, "validators")
	}

	critical := gen.CriticalParams
	if len(critical) == 0 {
		critical = ton.DefaultCriticalParams
	}
	if err := critical.Validate(); err != nil {
		return nil, err
	}

	normal, crit := params.DefaultNormalVoteConfig, params.DefaultCriticalVoteConfig
	if gen.Vote != nil {
		normal, crit = gen.Vote.Normal, gen.Vote.Critical
	}
	if err := normal.Validate(); err != nil {
		return nil, errors.WithMessage(err, "normal vote config")
	}
	if err := crit.Validate(); err != nil {
		return nil, errors.WithMessage(err, "critical vote config")
	}

	var code *cell.Cell
	if gen.Code != "" {
		if code, err = cell.FromHex(gen.Code); err != nil {
			return nil, errors.WithMessage(err, "code")
		}
		if err := canon.Tree.Validate(code); err != nil {
			return nil, errors.WithMessage(err, "code")
		}
	}

	extra := make([]state.Param, 0, len(gen.Params))
	for id, hex := range gen.Params {
		if ton.IsCodeParam(id) {
			return nil, errors.Errorf("param %d is not a table entry", id)
		}
		value, err := cell.FromHex(hex)
		if err != nil {
			return nil, errors.WithMessagef(err, "param %d", id)
		}
		if err := canon.Tree.Validate(value); err != nil {
			return nil, errors.WithMessagef(err, "param %d", id)
		}
		extra = append(extra, state.Param{ID: id, Value: value})
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].ID < extra[j].ID })

	builder := new(Builder).
		State(func(st *state.State) error {
			st.SetAdmin(gen.Admin)
			if code != nil {
				return st.SetCode(code)
			}
			return nil
		}).
		State(func(st *state.State) error {
			p := params.New(st)
			// extra params first, so the well-known ones below always win
			for _, e := range extra {
				if err := p.Set(e.ID, e.Value); err != nil {
					return err
				}
			}
			for _, e := range []state.Param{
				{ID: ton.ParamConfigAddress, Value: params.EncodeAddress(gen.ConfigAddress)},
				{ID: ton.ParamElectorAddress, Value: params.EncodeAddress(gen.Elector)},
				{ID: ton.ParamCritical, Value: params.EncodeCriticalParams(critical)},
				{ID: ton.ParamVoteConfig, Value: params.EncodeVoteSetup(normal, crit)},
				{ID: ton.ParamCurValidators, Value: set},
			} {
				if err := p.Set(e.ID, e.Value); err != nil {
					return err
				}
			}
			return nil
		})

	id, err := builder.ComputeID()
	if err != nil {
		return nil, err
	}
	name := gen.Name
	if name == "" {
		name = "customnet"
	}
	return &Genesis{builder, id, name}, nil
}
