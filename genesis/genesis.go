// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/tonconfig/confignode/state"
	"github.com/tonconfig/confignode/ton"
)

// Genesis to build genesis state.
type Genesis struct {
	builder *Builder
	id      ton.Bytes32
	name    string
}

// Build applies the genesis to st. Nothing is committed.
func (g *Genesis) Build(st *state.State) error {
	return g.builder.Build(st)
}

// ID returns genesis id.
func (g *Genesis) ID() ton.Bytes32 {
	return g.id
}

// Name returns network name.
func (g *Genesis) Name() string {
	return g.name
}
