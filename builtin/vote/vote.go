// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vote resolves validator ballots on live proposals.
package vote

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/tonconfig/confignode/builtin/params"
	"github.com/tonconfig/confignode/builtin/proposal"
	"github.com/tonconfig/confignode/builtin/vote/tally"
	"github.com/tonconfig/confignode/builtin/vset"
	"github.com/tonconfig/confignode/cell"
	"github.com/tonconfig/confignode/log"
	"github.com/tonconfig/confignode/metrics"
	"github.com/tonconfig/confignode/state"
	"github.com/tonconfig/confignode/ton"
)

var (
	logger          = log.WithContext("pkg", "vote")
	metricVoteCount = metrics.LazyLoadCounterVec("vote_count", []string{"status"})
)

// Status is the outcome carried by the vote_processed notice, added to its op code.
type Status int32

const (
	BadValidator     Status = -3
	NotFound         Status = -1
	Duplicate        Status = 0
	Registered       Status = 2
	AcceptedNormal   Status = 6
	AcceptedCritical Status = 7
)

func (s Status) String() string {
	switch s {
	case BadValidator:
		return "bad-validator"
	case NotFound:
		return "not-found"
	case Duplicate:
		return "duplicate"
	case Registered:
		return "registered"
	case AcceptedNormal:
		return "accepted-normal"
	case AcceptedCritical:
		return "accepted-critical"
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

// Accepted reports whether the proposal was applied.
func (s Status) Accepted() bool {
	return s == AcceptedNormal || s == AcceptedCritical
}

// Result of one ballot.
type Result struct {
	Status Status
	// CodeReplaced is set when the account code was replaced.
	CodeReplaced bool
	// ElectorUpgrade is the new elector code to be sent to the elector.
	ElectorUpgrade *cell.Cell
}

// Engine counts ballots and applies accepted proposals.
type Engine struct {
	state     *state.State
	params    *params.Params
	vsets     *vset.Manager
	proposals *proposal.Store
}

func New(state *state.State, p *params.Params, vsets *vset.Manager, proposals *proposal.Store) *Engine {
	return &Engine{state, p, vsets, proposals}
}

// Cast counts the ballot of validator idx of the current set on proposal id.
// Errors are infrastructure failures only; every ballot outcome is a Status.
func (e *Engine) Cast(id ton.Bytes32, idx uint16, now uint32) (res Result, err error) {
	defer func() {
		if err == nil {
			metricVoteCount().AddWithLabel(1, map[string]string{"status": res.Status.String()})
		}
	}()

	p, err := e.proposals.Get(id)
	if err != nil {
		return Result{}, err
	}
	if p == nil {
		return Result{Status: NotFound}, nil
	}

	set, setID, err := e.vsets.Current()
	if err != nil {
		return Result{}, err
	}
	cfg, err := e.params.VoteConfig(p.Critical)
	if err != nil {
		return Result{}, err
	}

	if p.Tally.Rollover(setID, set.TotalWeight(), cfg.MinWins) != tally.Accepted {
		if int(idx) >= len(set.Validators) {
			// keep a rollover that may have happened above
			return Result{Status: BadValidator}, e.proposals.Put(p)
		}
		switch p.Tally.Cast(idx, set.Validators[idx].Weight, cfg.MinWins) {
		case tally.Duplicate:
			return Result{Status: Duplicate}, e.proposals.Put(p)
		case tally.Registered, tally.RoundWon:
			return Result{Status: Registered}, e.proposals.Put(p)
		}
	}

	res, err = e.apply(p)
	if err != nil {
		return Result{}, errors.WithMessage(err, "apply proposal")
	}
	if err := e.proposals.Remove(id); err != nil {
		return Result{}, err
	}
	logger.Info("proposal accepted", "id", id.AbbrevString(), "param", p.ParamID, "critical", p.Critical, "wins", p.Tally.Wins, "now", now)
	return res, nil
}

func (e *Engine) apply(p *proposal.Proposal) (Result, error) {
	res := Result{Status: AcceptedNormal}
	if p.Critical {
		res.Status = AcceptedCritical
	}

	switch {
	case ton.IsCustomSlot(p.ParamID):
		// only the admin writes custom slots
		logger.Warn("accepted proposal targets a custom slot, dropped", "id", p.ID.AbbrevString(), "param", p.ParamID)
	case ton.IsCodeParam(p.ParamID):
		if p.Value == nil || p.Value.RefCount() == 0 {
			logger.Warn("accepted code upgrade without code, dropped", "id", p.ID.AbbrevString())
			break
		}
		code := p.Value.Ref(0)
		if p.ParamID == ton.ParamConfigCode {
			if err := e.state.SetCode(code); err != nil {
				return Result{}, err
			}
			res.CodeReplaced = true
		} else {
			res.ElectorUpgrade = code
		}
	default:
		if err := e.params.Set(p.ParamID, p.Value); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}
