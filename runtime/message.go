// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"github.com/pkg/errors"

	"github.com/tonconfig/confignode/builtin/proposal"
	"github.com/tonconfig/confignode/cell"
	"github.com/tonconfig/confignode/ton"
)

const bounceBodyBits = 256

// Message is an internal message delivered to or emitted by the config account.
type Message struct {
	Src     ton.Address
	Dest    ton.Address
	Bounce  bool
	Bounced bool
	Body    *cell.Cell
}

// Receipt is the outcome of executing one inbound message.
type Receipt struct {
	// Aborted means the execution failed and its state changes were reverted.
	Aborted bool
	// Ignored means the message was dropped without effect.
	Ignored bool
	// CodeReplaced means the account code was replaced; no outbound message is sent then.
	CodeReplaced bool
	Outbound     []Message
}

// Reply is the decoded head of a notice body.
type Reply struct {
	Op    uint32
	Query uint64
	Rest  *cell.Slice
}

// ParseReply decodes op and query id of a notice body.
func ParseReply(body *cell.Cell) (*Reply, error) {
	s := body.BeginParse()
	op, err := s.LoadUint(32)
	if err != nil {
		return nil, errors.Wrap(err, "op")
	}
	query, err := s.LoadUint(64)
	if err != nil {
		return nil, errors.Wrap(err, "query id")
	}
	return &Reply{uint32(op), query, s}, nil
}

func head(op uint32, query uint64) *cell.Builder {
	return cell.BeginCell().StoreUint(uint64(op), 32).StoreUint(query, 64)
}

// SetCustomSlotBody builds a set_custom_slot request.
func SetCustomSlotBody(query uint64, slot int32, value *cell.Cell, response cell.MsgAddress) (*cell.Cell, error) {
	return head(ton.OpSetCustomSlot, query).
		StoreInt(int64(slot), 32).
		StoreMsgAddress(response).
		StoreRef(value).
		EndCell()
}

// NewVotingBody builds a new_voting request. The descriptor travels as the first reference.
func NewVotingBody(query uint64, d *proposal.Descriptor) (*cell.Cell, error) {
	unit, err := d.Unit()
	if err != nil {
		return nil, err
	}
	return head(ton.OpNewVoting, query).StoreRef(unit).EndCell()
}

// VoteBody builds a vote request.
func VoteBody(query uint64, id ton.Bytes32, idx uint16) *cell.Cell {
	return head(ton.OpVote, query).StoreBytes32(id).StoreUint(uint64(idx), 16).MustEndCell()
}

// NewValidatorSetBody builds the elector's new_validator_set request.
func NewValidatorSetBody(query uint64, set *cell.Cell) *cell.Cell {
	return head(ton.OpNewValidatorSet, query).StoreRef(set).MustEndCell()
}

// bounceBody is 0xffffffff followed by the leading bits of the original body.
func bounceBody(body *cell.Cell) *cell.Cell {
	b := cell.BeginCell().StoreUint(uint64(ton.OpUnknown), 32)
	if body != nil {
		n := min(body.BitLen(), bounceBodyBits)
		bits, err := body.BeginParse().LoadBits(n)
		if err == nil {
			b.StoreBits(bits, n)
		}
	}
	return b.MustEndCell()
}
