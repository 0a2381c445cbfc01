// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package proposals

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/tonconfig/confignode/api/utils"
	"github.com/tonconfig/confignode/builtin"
	"github.com/tonconfig/confignode/builtin/proposal"
	"github.com/tonconfig/confignode/state"
	"github.com/tonconfig/confignode/ton"
)

// Reader runs fn against a consistent state.
type Reader interface {
	Read(ctx context.Context, fn func(st *state.State) error) error
}

// Tally is the JSON form of the ballot accumulator.
type Tally struct {
	SetID  ton.Bytes32 `json:"setId"`
	Total  uint64      `json:"total"`
	Weight uint64      `json:"weight"`
	Voters []uint16    `json:"voters"`
	Won    bool        `json:"won"`
	Wins   uint8       `json:"wins"`
}

// Proposal is the JSON form of a live proposal.
type Proposal struct {
	ID       ton.Bytes32  `json:"id"`
	ExpireAt uint32       `json:"expireAt"`
	Critical bool         `json:"critical"`
	ParamID  int32        `json:"paramId"`
	Value    *string      `json:"value"`
	CurHash  *ton.Bytes32 `json:"curHash"`
	Tally    Tally        `json:"tally"`
}

func convertProposal(p *proposal.Proposal) *Proposal {
	out := &Proposal{
		ID:       p.ID,
		ExpireAt: p.ExpireAt,
		Critical: p.Critical,
		ParamID:  p.ParamID,
		CurHash:  p.CurHash,
		Tally: Tally{
			SetID:  p.Tally.SetID,
			Total:  p.Tally.Total,
			Weight: p.Tally.Weight,
			Voters: p.Tally.Voters,
			Won:    p.Tally.Won,
			Wins:   p.Tally.Wins,
		},
	}
	if p.Value != nil {
		hex := p.Value.Hex()
		out.Value = &hex
	}
	if out.Tally.Voters == nil {
		out.Tally.Voters = []uint16{}
	}
	return out
}

type Proposals struct {
	reader Reader
}

func New(reader Reader) *Proposals {
	return &Proposals{reader}
}

func (p *Proposals) handleGetProposals(w http.ResponseWriter, req *http.Request) error {
	var all []*proposal.Proposal
	if err := p.reader.Read(req.Context(), func(st *state.State) (err error) {
		all, err = builtin.WithState(st).Proposals.All()
		return
	}); err != nil {
		return err
	}
	out := make([]*Proposal, 0, len(all))
	for _, prop := range all {
		out = append(out, convertProposal(prop))
	}
	return utils.WriteJSON(w, out)
}

func (p *Proposals) handleGetProposal(w http.ResponseWriter, req *http.Request) error {
	id, err := ton.ParseBytes32(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	var prop *proposal.Proposal
	if err := p.reader.Read(req.Context(), func(st *state.State) (err error) {
		prop, err = builtin.WithState(st).Proposals.Get(id)
		return
	}); err != nil {
		return err
	}
	if prop == nil {
		return utils.NotFound(errors.New("proposal not found"))
	}
	return utils.WriteJSON(w, convertProposal(prop))
}

func (p *Proposals) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("proposals_get_all").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetProposals))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("proposals_get_proposal").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetProposal))
}
