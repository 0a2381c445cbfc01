// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime executes inbound messages against the config account state.
package runtime

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/tonconfig/confignode/builtin"
	"github.com/tonconfig/confignode/builtin/params"
	"github.com/tonconfig/confignode/builtin/proposal"
	"github.com/tonconfig/confignode/builtin/reverts"
	"github.com/tonconfig/confignode/builtin/slots"
	"github.com/tonconfig/confignode/builtin/vote"
	"github.com/tonconfig/confignode/builtin/vset"
	"github.com/tonconfig/confignode/cell"
	"github.com/tonconfig/confignode/log"
	"github.com/tonconfig/confignode/metrics"
	"github.com/tonconfig/confignode/state"
	"github.com/tonconfig/confignode/ton"
)

var (
	logger             = log.WithContext("pkg", "runtime")
	metricMessageCount = metrics.LazyLoadCounterVec("message_count", []string{"op", "result"})
)

// Runtime executes messages at a fixed time.
type Runtime struct {
	state     *state.State
	params    *params.Params
	vsets     *vset.Manager
	gate      *slots.Gate
	proposals *proposal.Store
	engine    *vote.Engine
	now       uint32
}

// New create a Runtime object.
func New(state *state.State, now uint32) *Runtime {
	c := builtin.WithState(state)
	return &Runtime{
		state:     state,
		params:    c.Params,
		vsets:     c.VSets,
		gate:      c.Slots,
		proposals: c.Proposals,
		engine:    c.Votes,
		now:       now,
	}
}

func (rt *Runtime) State() *state.State { return rt.state }
func (rt *Runtime) Now() uint32          { return rt.now }

// Execute runs msg inside a state checkpoint. Rejections are answered with
// notices; a malformed body or response address aborts the message, reverts
// its changes and bounces it. A non-nil error is an infrastructure failure
// and leaves the state reverted too.
func (rt *Runtime) Execute(msg *Message) (*Receipt, error) {
	if msg.Bounced {
		rt.count(0, "ignored")
		return &Receipt{Ignored: true}, nil
	}

	checkpoint := rt.state.NewCheckpoint()
	op, receipt, err := rt.dispatch(msg)
	if err != nil {
		rt.state.RevertTo(checkpoint)
		if !reverts.KindOf(err).Aborts() {
			return nil, err
		}
		logger.Debug("message aborted", "src", msg.Src, "op", fmt.Sprintf("0x%08x", op), "err", err)
		rt.count(op, "aborted")
		receipt = &Receipt{Aborted: true}
		if msg.Bounce {
			receipt.Outbound = []Message{{
				Src:     msg.Dest,
				Dest:    msg.Src,
				Bounced: true,
				Body:    bounceBody(msg.Body),
			}}
		}
		return receipt, nil
	}

	switch {
	case receipt.Ignored:
		rt.count(op, "ignored")
	case receipt.CodeReplaced:
		// the new code takes over; actions of this execution are dropped
		receipt.Outbound = nil
		rt.count(op, "code-replaced")
	default:
		rt.count(op, "ok")
	}
	return receipt, nil
}

func (rt *Runtime) count(op uint32, result string) {
	metricMessageCount().AddWithLabel(1, map[string]string{"op": opName(op), "result": result})
}

func opName(op uint32) string {
	switch op {
	case ton.OpSetCustomSlot:
		return "set_custom_slot"
	case ton.OpNewVoting:
		return "new_voting"
	case ton.OpVote:
		return "vote"
	case ton.OpNewValidatorSet:
		return "new_validator_set"
	case 0:
		return "none"
	}
	return "other"
}

func malformed(err error, what string) error {
	return reverts.Wrap(reverts.Malformed, err, what)
}

func (rt *Runtime) dispatch(msg *Message) (uint32, *Receipt, error) {
	body := msg.Body
	if body == nil {
		body = cell.Empty()
	}
	s := body.BeginParse()
	rawOp, opErr := s.LoadUint(32)
	op := uint32(rawOp)

	admin, err := rt.state.GetAdmin()
	if err != nil {
		return op, nil, err
	}
	if opErr == nil && op == ton.OpSetCustomSlot && msg.Src == admin {
		r, err := rt.handle(msg, op, s)
		return op, r, err
	}

	if !msg.Src.IsMasterchain() {
		return op, &Receipt{Ignored: true}, nil
	}
	if opErr != nil {
		if body.BitLen() == 0 && body.RefCount() == 0 {
			return op, &Receipt{}, nil
		}
		return op, nil, malformed(opErr, "op")
	}
	r, err := rt.handle(msg, op, s)
	return op, r, err
}

func (rt *Runtime) handle(msg *Message, op uint32, s *cell.Slice) (*Receipt, error) {
	query, err := s.LoadUint(64)
	if err != nil {
		return nil, malformed(err, "query id")
	}

	r := &Receipt{}
	switch op {
	case ton.OpSetCustomSlot:
		err = rt.setCustomSlot(msg, s, query, r)
	case ton.OpNewVoting:
		err = rt.newVoting(msg, s, query, r)
	case ton.OpVote:
		err = rt.vote(msg, s, query, r)
	case ton.OpNewValidatorSet:
		err = rt.newValidatorSet(msg, s, query, r)
	default:
		err = rt.unknown(msg, op, query, r)
	}
	return r, err
}

// reply queues a notice from the config account.
func (rt *Runtime) reply(msg *Message, r *Receipt, dest ton.Address, body *cell.Builder) error {
	c, err := body.EndCell()
	if err != nil {
		return err
	}
	r.Outbound = append(r.Outbound, Message{Src: msg.Dest, Dest: dest, Body: c})
	return nil
}

func (rt *Runtime) setCustomSlot(msg *Message, s *cell.Slice, query uint64, r *Receipt) error {
	slot, err := s.LoadInt(32)
	if err != nil {
		return malformed(err, "slot")
	}
	response, err := s.LoadAddress()
	if err != nil {
		return reverts.Wrap(reverts.MalformedAddress, err, "response address")
	}
	value, err := s.LoadRef()
	if err != nil {
		return malformed(err, "value")
	}

	err = rt.gate.Set(msg.Src, int32(slot), value)
	if err != nil {
		if reverts.KindOf(err) == 0 {
			return err
		}
		logger.Debug("custom slot rejected", "src", msg.Src, "slot", slot, "err", err)
		return rt.reply(msg, r, response, head(ton.OpCustomSlotRejected, query))
	}
	return rt.reply(msg, r, response, head(ton.OpCustomSlotAccepted, query))
}

func (rt *Runtime) newVoting(msg *Message, s *cell.Slice, query uint64, r *Receipt) error {
	unit, err := s.LoadRef()
	if err != nil {
		return malformed(err, "proposal")
	}
	if unit.IsExotic() {
		return reverts.New(reverts.Malformed, "exotic proposal")
	}
	d, err := proposal.DecodeDescriptor(unit)
	if err != nil {
		return malformed(err, "proposal")
	}

	id, err := rt.proposals.Create(d, rt.now)
	switch reverts.KindOf(err) {
	case 0:
		if err != nil {
			return err
		}
		return rt.reply(msg, r, msg.Src, head(ton.OpNewVotingCreated, query).StoreBytes32(id))
	case reverts.ForbiddenTarget:
		return rt.reply(msg, r, msg.Src, head(ton.OpCustomSlotVotingRejected, query))
	case reverts.Duplicate:
		return rt.reply(msg, r, msg.Src, head(ton.OpNewVotingRejected, query).StoreUint(uint64(ton.RejectAlreadyExists), 32))
	case reverts.InvalidProposal:
		return rt.reply(msg, r, msg.Src, head(ton.OpNewVotingRejected, query).StoreUint(uint64(proposal.Reason(err)), 32))
	}
	return err
}

func (rt *Runtime) vote(msg *Message, s *cell.Slice, query uint64, r *Receipt) error {
	id, err := s.LoadBytes32()
	if err != nil {
		return malformed(err, "proposal id")
	}
	idx, err := s.LoadUint(16)
	if err != nil {
		return malformed(err, "validator index")
	}

	res, err := rt.engine.Cast(id, uint16(idx), rt.now)
	if err != nil {
		return err
	}
	if res.CodeReplaced {
		r.CodeReplaced = true
		return nil
	}
	if res.ElectorUpgrade != nil {
		elector, err := rt.params.Elector()
		if err != nil {
			return err
		}
		if err := rt.reply(msg, r, elector, head(ton.OpUpgradeCode, query).StoreRef(res.ElectorUpgrade)); err != nil {
			return err
		}
	}
	return rt.reply(msg, r, msg.Src, head(ton.OpVoteProcessed+uint32(res.Status), query))
}

func (rt *Runtime) newValidatorSet(msg *Message, s *cell.Slice, query uint64, r *Receipt) error {
	elector, err := rt.params.Elector()
	if err != nil {
		return err
	}
	if msg.Src != elector {
		return rt.unknown(msg, ton.OpNewValidatorSet, query, r)
	}
	set, err := s.LoadRef()
	if err != nil {
		return malformed(err, "validator set")
	}

	if err := rt.vsets.Propose(set, rt.now); err != nil {
		var stErr *state.Error
		if errors.As(err, &stErr) {
			return err
		}
		logger.Info("validator set rejected", "err", err)
		return rt.reply(msg, r, msg.Src, head(ton.OpValidatorSetRejected, query))
	}
	logger.Info("validator set accepted", "id", set.Hash().AbbrevString())
	return rt.reply(msg, r, msg.Src, head(ton.OpValidatorSetAccepted, query))
}

// unknown answers requests it can't serve. Responses are never answered.
func (rt *Runtime) unknown(msg *Message, op uint32, query uint64, r *Receipt) error {
	if op&ton.OpResponseBit != 0 {
		return nil
	}
	return rt.reply(msg, r, msg.Src, head(ton.OpUnknown, query).StoreUint(uint64(op), 32))
}

// TickResult reports the work done by one tick.
type TickResult struct {
	Promoted bool
	Expired  []ton.Bytes32
}

// Tick promotes the next validator set once effective and sweeps expired proposals.
func (rt *Runtime) Tick() (*TickResult, error) {
	checkpoint := rt.state.NewCheckpoint()
	promoted, err := rt.vsets.Promote(rt.now)
	if err != nil {
		rt.state.RevertTo(checkpoint)
		return nil, errors.WithMessage(err, "promote validator set")
	}
	expired, err := rt.proposals.SweepExpired(rt.now)
	if err != nil {
		rt.state.RevertTo(checkpoint)
		return nil, errors.WithMessage(err, "sweep proposals")
	}
	return &TickResult{promoted, expired}, nil
}
