// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package proposal stores live proposals keyed by their content identity.
package proposal

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/tonconfig/confignode/builtin/params"
	"github.com/tonconfig/confignode/builtin/reverts"
	"github.com/tonconfig/confignode/builtin/vote/tally"
	"github.com/tonconfig/confignode/builtin/vset"
	"github.com/tonconfig/confignode/canon"
	"github.com/tonconfig/confignode/cell"
	"github.com/tonconfig/confignode/log"
	"github.com/tonconfig/confignode/metrics"
	"github.com/tonconfig/confignode/state"
	"github.com/tonconfig/confignode/ton"
)

var (
	logger              = log.WithContext("pkg", "proposal")
	metricProposalCount = metrics.LazyLoadCounterVec("proposal_count", []string{"event"})
)

// Proposal is a live proposal.
type Proposal struct {
	ID ton.Bytes32
	Descriptor
	Tally *tally.Tally
}

// record is the stored form.
type record struct {
	Descriptor []byte
	Tally      *tally.Tally
}

// Reason returns the rejection code carried by an InvalidProposal error.
func Reason(err error) uint32 {
	var r reason
	if errors.As(err, &r) {
		return uint32(r)
	}
	return 0
}

type reason uint32

func (r reason) Error() string {
	switch uint32(r) {
	case ton.RejectExpireRange:
		return "expiry out of range"
	case ton.RejectNotCritical:
		return "critical param needs a critical proposal"
	case ton.RejectHashMismatch:
		return "current value hash mismatch"
	case ton.RejectInvalidValue:
		return "value not canonical"
	}
	return "rejected"
}

func invalid(r uint32, msg string) error {
	return reverts.Wrap(reverts.InvalidProposal, reason(r), msg)
}

// Store is the proposal store of the config account.
type Store struct {
	state  *state.State
	params *params.Params
	vsets  *vset.Manager
}

func New(state *state.State, p *params.Params, vsets *vset.Manager) *Store {
	return &Store{state, p, vsets}
}

// Create stores a new proposal and returns its id.
func (s *Store) Create(d *Descriptor, now uint32) (ton.Bytes32, error) {
	if ton.IsCustomSlot(d.ParamID) {
		metricProposalCount().AddWithLabel(1, map[string]string{"event": "forbidden"})
		return ton.Bytes32{}, reverts.Newf(reverts.ForbiddenTarget, "param %d is a custom slot", d.ParamID)
	}
	id, err := d.ID()
	if err != nil {
		return ton.Bytes32{}, reverts.Wrap(reverts.Malformed, err, "descriptor")
	}
	existing, err := s.Get(id)
	if err != nil {
		return ton.Bytes32{}, err
	}
	if existing != nil {
		return ton.Bytes32{}, reverts.Newf(reverts.Duplicate, "proposal %v is live", id.AbbrevString())
	}

	cfg, err := s.params.VoteConfig(d.Critical)
	if err != nil {
		return ton.Bytes32{}, err
	}
	if uint64(d.ExpireAt) < uint64(now)+uint64(cfg.MinStoreSec) || uint64(d.ExpireAt) > uint64(now)+uint64(cfg.MaxStoreSec) {
		return ton.Bytes32{}, invalid(ton.RejectExpireRange, "expire_at")
	}

	critical, err := s.params.CriticalParams()
	if err != nil {
		return ton.Bytes32{}, err
	}
	if critical.Contains(d.ParamID) && !d.Critical {
		return ton.Bytes32{}, invalid(ton.RejectNotCritical, "critical flag")
	}
	if d.Value != nil {
		if err := canon.Tree.Validate(d.Value); err != nil {
			return ton.Bytes32{}, invalid(ton.RejectInvalidValue, err.Error())
		}
	}
	// code upgrades carry the new code as the first reference of the value
	if ton.IsCodeParam(d.ParamID) && (d.Value == nil || d.Value.RefCount() == 0) {
		return ton.Bytes32{}, invalid(ton.RejectInvalidValue, "code upgrade without code")
	}
	if d.CurHash != nil && !ton.IsCodeParam(d.ParamID) {
		cur, err := s.params.Get(d.ParamID)
		if err != nil {
			return ton.Bytes32{}, err
		}
		var curHash ton.Bytes32
		if cur != nil {
			curHash = cur.Hash()
		}
		if curHash != *d.CurHash {
			return ton.Bytes32{}, invalid(ton.RejectHashMismatch, "cur_hash")
		}
	}

	set, setID, err := s.vsets.Current()
	if err != nil {
		return ton.Bytes32{}, err
	}
	p := &Proposal{
		ID:         id,
		Descriptor: *d,
		Tally:      tally.New(setID, set.TotalWeight()),
	}
	if err := s.Put(p); err != nil {
		return ton.Bytes32{}, err
	}
	metricProposalCount().AddWithLabel(1, map[string]string{"event": "created"})
	logger.Debug("proposal created", "id", id.AbbrevString(), "param", d.ParamID, "critical", d.Critical)
	return id, nil
}

// Get returns the live proposal, or nil if none.
func (s *Store) Get(id ton.Bytes32) (*Proposal, error) {
	var p *Proposal
	err := s.state.DecodeStorage(id, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		var r record
		if err := rlp.DecodeBytes(raw, &r); err != nil {
			return err
		}
		unit, err := cell.Decode(r.Descriptor)
		if err != nil {
			return err
		}
		d, err := DecodeDescriptor(unit)
		if err != nil {
			return err
		}
		p = &Proposal{ID: id, Descriptor: *d, Tally: r.Tally}
		return nil
	})
	if err != nil {
		return nil, errors.WithMessage(err, "get proposal")
	}
	return p, nil
}

// Put stores the proposal under its id, replacing any previous record.
func (s *Store) Put(p *Proposal) error {
	return s.state.EncodeStorage(p.ID, func() ([]byte, error) {
		unit, err := p.Unit()
		if err != nil {
			return nil, err
		}
		desc, err := cell.Encode(unit)
		if err != nil {
			return nil, err
		}
		return rlp.EncodeToBytes(&record{desc, p.Tally})
	})
}

// Remove deletes the proposal.
func (s *Store) Remove(id ton.Bytes32) error {
	return s.state.EncodeStorage(id, func() ([]byte, error) { return nil, nil })
}

// All returns every live proposal ordered by id.
func (s *Store) All() ([]*Proposal, error) {
	ids, err := s.state.StorageKeys()
	if err != nil {
		return nil, err
	}
	all := make([]*Proposal, 0, len(ids))
	for _, id := range ids {
		p, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		if p != nil {
			all = append(all, p)
		}
	}
	return all, nil
}

// SweepExpired removes proposals whose expiry is before now and returns their ids.
func (s *Store) SweepExpired(now uint32) ([]ton.Bytes32, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	var swept []ton.Bytes32
	for _, p := range all {
		if p.ExpireAt >= now {
			continue
		}
		if err := s.Remove(p.ID); err != nil {
			return nil, err
		}
		swept = append(swept, p.ID)
	}
	if len(swept) > 0 {
		metricProposalCount().AddWithLabel(int64(len(swept)), map[string]string{"event": "expired"})
		logger.Debug("expired proposals swept", "count", len(swept))
	}
	return swept, nil
}
