// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin binds the config account components to a state.
package builtin

import (
	"github.com/tonconfig/confignode/builtin/params"
	"github.com/tonconfig/confignode/builtin/proposal"
	"github.com/tonconfig/confignode/builtin/slots"
	"github.com/tonconfig/confignode/builtin/vote"
	"github.com/tonconfig/confignode/builtin/vset"
	"github.com/tonconfig/confignode/state"
)

// Contracts are the config account components sharing one state.
type Contracts struct {
	Params    *params.Params
	VSets     *vset.Manager
	Slots     *slots.Gate
	Proposals *proposal.Store
	Votes     *vote.Engine
}

// WithState binds every component to state.
func WithState(state *state.State) *Contracts {
	p := params.New(state)
	vsets := vset.New(p)
	proposals := proposal.New(state, p, vsets)
	return &Contracts{
		Params:    p,
		VSets:     vsets,
		Slots:     slots.New(state),
		Proposals: proposals,
		Votes:     vote.New(state, p, vsets, proposals),
	}
}
