// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"io"

	"github.com/davecgh/go-spew/spew"

	"github.com/tonconfig/confignode/builtin"
	"github.com/tonconfig/confignode/state"
)

type dumpedParam struct {
	ID    int32
	Hash  string
	Value string
}

type dumpedProposal struct {
	ID       string
	ExpireAt uint32
	Critical bool
	ParamID  int32
	Value    string
	Wins     uint8
	Weight   uint64
	Voters   []uint16
}

type dumped struct {
	Admin     string
	Code      string
	Params    []dumpedParam
	Proposals []dumpedProposal
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// dump writes a readable snapshot of st to w.
func dump(_ context.Context, w io.Writer, st *state.State) error {
	var out dumped

	admin, err := st.GetAdmin()
	if err != nil {
		return err
	}
	out.Admin = admin.String()

	code, err := st.GetCode()
	if err != nil {
		return err
	}
	if code != nil {
		out.Code = code.String()
	}

	all, err := st.Params()
	if err != nil {
		return err
	}
	for _, p := range all {
		out.Params = append(out.Params, dumpedParam{p.ID, p.Value.Hash().String(), p.Value.String()})
	}

	proposals, err := builtin.WithState(st).Proposals.All()
	if err != nil {
		return err
	}
	for _, prop := range proposals {
		d := dumpedProposal{
			ID:       prop.ID.String(),
			ExpireAt: prop.ExpireAt,
			Critical: prop.Critical,
			ParamID:  prop.ParamID,
			Wins:     prop.Tally.Wins,
			Weight:   prop.Tally.Weight,
			Voters:   prop.Tally.Voters,
		}
		if prop.Value != nil {
			d.Value = prop.Value.String()
		}
		out.Proposals = append(out.Proposals, d)
	}

	dumpConfig.Fdump(w, out)
	return nil
}
