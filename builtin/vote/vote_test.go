// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vote_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonconfig/confignode/builtin/params"
	"github.com/tonconfig/confignode/builtin/proposal"
	"github.com/tonconfig/confignode/builtin/vote"
	"github.com/tonconfig/confignode/builtin/vote/tally"
	"github.com/tonconfig/confignode/builtin/vset"
	"github.com/tonconfig/confignode/cell"
	"github.com/tonconfig/confignode/genesis"
	"github.com/tonconfig/confignode/lvldb"
	"github.com/tonconfig/confignode/state"
	"github.com/tonconfig/confignode/ton"
)

const now = uint32(1_700_000_100)

type fixture struct {
	st        *state.State
	params    *params.Params
	proposals *proposal.Store
	engine    *vote.Engine
	epoch     uint32
}

func newFixture(t *testing.T) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := state.New(db, nil)
	require.NoError(t, genesis.NewDevnet().Build(st))

	p := params.New(st)
	vsets := vset.New(p)
	proposals := proposal.New(st, p, vsets)
	return &fixture{st, p, proposals, vote.New(st, p, vsets, proposals), 0}
}

// rotate installs a fresh current set with the devnet validators.
func (f *fixture) rotate(t *testing.T) {
	f.epoch++
	set := genesis.DevValidators()
	set.UtimeSince += f.epoch
	c, err := set.Encode()
	require.NoError(t, err)
	require.NoError(t, f.params.Set(ton.ParamCurValidators, c))
}

func (f *fixture) create(t *testing.T, d *proposal.Descriptor) ton.Bytes32 {
	if d.ExpireAt == 0 {
		d.ExpireAt = now + 2_000_000
	}
	id, err := f.proposals.Create(d, now)
	require.NoError(t, err)
	return id
}

func (f *fixture) cast(t *testing.T, id ton.Bytes32, idx uint16) vote.Result {
	res, err := f.engine.Cast(id, idx, now)
	require.NoError(t, err)
	return res
}

// winRound casts devnet ballots until three quarters of the weight is reached
// and returns the result of the last one.
func (f *fixture) winRound(t *testing.T, id ton.Bytes32) vote.Result {
	for idx := range uint16(2) {
		assert.Equal(t, vote.Registered, f.cast(t, id, idx).Status)
	}
	return f.cast(t, id, 2)
}

func value(s string) *cell.Cell {
	return cell.BeginCell().StoreStringTail(s).MustEndCell()
}

func TestNotFound(t *testing.T) {
	f := newFixture(t)
	res := f.cast(t, ton.Bytes32{1}, 0)
	assert.Equal(t, vote.NotFound, res.Status)
}

func TestNormalProposalAccepted(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, &proposal.Descriptor{ParamID: 20, Value: value("twenty")})

	// first round won, min wins is 2
	assert.Equal(t, vote.Registered, f.winRound(t, id).Status)
	assert.Equal(t, vote.Duplicate, f.cast(t, id, 0).Status)

	p, err := f.proposals.Get(id)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), p.Tally.Wins)
	assert.True(t, p.Tally.Won)

	// the last validator is still counted but adds no win
	assert.Equal(t, vote.Registered, f.cast(t, id, 3).Status)

	f.rotate(t)
	res := f.winRound(t, id)
	assert.Equal(t, vote.AcceptedNormal, res.Status)
	assert.False(t, res.CodeReplaced)

	got, err := f.params.Get(20)
	require.NoError(t, err)
	assert.True(t, value("twenty").Equal(got))

	p, err = f.proposals.Get(id)
	require.NoError(t, err)
	assert.Nil(t, p, "accepted proposal is removed")
	assert.Equal(t, vote.NotFound, f.cast(t, id, 0).Status)
}

func TestSameRoundWinsOnce(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, &proposal.Descriptor{ParamID: 20, Value: value("v")})
	f.winRound(t, id)

	// no rotation: a second sweep of the same voters can't win again
	assert.Equal(t, vote.Registered, f.cast(t, id, 3).Status)
	for idx := range uint16(4) {
		assert.Equal(t, vote.Duplicate, f.cast(t, id, idx).Status)
	}
	p, err := f.proposals.Get(id)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), p.Tally.Wins)
}

func TestBadValidator(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, &proposal.Descriptor{ParamID: 20})
	assert.Equal(t, vote.BadValidator, f.cast(t, id, 4).Status)
	assert.Equal(t, vote.BadValidator, f.cast(t, id, 0xffff).Status)

	p, err := f.proposals.Get(id)
	require.NoError(t, err)
	assert.Zero(t, p.Tally.Weight)
}

func TestPasses(t *testing.T) {
	tests := []struct {
		name     string
		critical bool
		passes   [][]uint16 // ballots per validator set
		want     vote.Status
	}{
		{"threshold reached exactly in two passes", false, [][]uint16{{0, 1, 2}, {0, 1, 2}}, vote.AcceptedNormal},
		{"half the weight is short", false, [][]uint16{{0, 1}}, vote.Registered},
		{"one win is not enough", false, [][]uint16{{0, 1, 2, 3}}, vote.Registered},
		{"no quorum pass then a win", false, [][]uint16{{0}, {0, 1, 2}}, vote.AcceptedNormal},
		{"two stalled passes", false, [][]uint16{{0}, {3}, {1}}, vote.AcceptedNormal},
		{"critical needs a third win", true, [][]uint16{{0, 1, 2}, {0, 1, 2}}, vote.Registered},
		{"critical with a stalled pass", true, [][]uint16{{0, 1, 2}, {2}, {1, 2, 3}}, vote.AcceptedCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			id := f.create(t, &proposal.Descriptor{Critical: tt.critical, ParamID: 20, Value: value("v")})

			var last vote.Result
			for i, ballots := range tt.passes {
				if i > 0 {
					f.rotate(t)
				}
				for _, idx := range ballots {
					last = f.cast(t, id, idx)
				}
			}
			assert.Equal(t, tt.want, last.Status)

			got, err := f.params.Get(20)
			require.NoError(t, err)
			p, err := f.proposals.Get(id)
			require.NoError(t, err)
			if tt.want.Accepted() {
				assert.True(t, value("v").Equal(got))
				assert.Nil(t, p)
			} else {
				assert.Nil(t, got, "fewer wins never touch the parameter")
				assert.NotNil(t, p)
			}
		})
	}
}

func TestAcceptedOnRollover(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, &proposal.Descriptor{ParamID: 20, Value: value("v")})

	assert.Equal(t, vote.Registered, f.cast(t, id, 0).Status)
	f.rotate(t)
	assert.Equal(t, vote.Registered, f.cast(t, id, 0).Status)
	p, err := f.proposals.Get(id)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), p.Tally.Wins)

	// the second stalled pass completes the wins before the ballot is checked
	f.rotate(t)
	assert.Equal(t, vote.AcceptedNormal, f.cast(t, id, 4).Status)
	p, err = f.proposals.Get(id)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestBadValidatorKeepsRollover(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, &proposal.Descriptor{ParamID: 20})
	f.cast(t, id, 1)
	f.rotate(t)

	assert.Equal(t, vote.BadValidator, f.cast(t, id, 9).Status)
	p, err := f.proposals.Get(id)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), p.Tally.Wins)
	assert.Empty(t, p.Tally.Voters)
}

func TestConfigCodeReplaced(t *testing.T) {
	f := newFixture(t)
	code := value("config account v2")
	id := f.create(t, &proposal.Descriptor{
		Critical: true,
		ParamID:  ton.ParamConfigCode,
		Value:    cell.BeginCell().StoreRef(code).MustEndCell(),
	})

	for range 2 {
		assert.Equal(t, vote.Registered, f.winRound(t, id).Status)
		f.rotate(t)
	}
	res := f.winRound(t, id)
	assert.Equal(t, vote.AcceptedCritical, res.Status)
	assert.True(t, res.CodeReplaced)
	assert.Nil(t, res.ElectorUpgrade)

	got, err := f.st.GetCode()
	require.NoError(t, err)
	assert.True(t, code.Equal(got))

	// the table is untouched
	missing, err := f.params.Get(ton.ParamConfigCode)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestElectorUpgrade(t *testing.T) {
	f := newFixture(t)
	code := value("elector v2")
	id := f.create(t, &proposal.Descriptor{
		Critical: true,
		ParamID:  ton.ParamElectorCode,
		Value:    cell.BeginCell().StoreRef(code).MustEndCell(),
	})
	before, err := f.st.GetCode()
	require.NoError(t, err)

	var res vote.Result
	for range 3 {
		res = f.winRound(t, id)
		f.rotate(t)
	}
	assert.Equal(t, vote.AcceptedCritical, res.Status)
	assert.False(t, res.CodeReplaced)
	require.NotNil(t, res.ElectorUpgrade)
	assert.True(t, code.Equal(res.ElectorUpgrade))

	after, err := f.st.GetCode()
	require.NoError(t, err)
	assert.True(t, before.Equal(after))
}

func TestDeleteParam(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.params.Set(20, value("old")))
	id := f.create(t, &proposal.Descriptor{ParamID: 20})
	f.winRound(t, id)
	f.rotate(t)
	assert.Equal(t, vote.AcceptedNormal, f.winRound(t, id).Status)

	got, err := f.params.Get(20)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAcceptedCustomSlotIsDropped(t *testing.T) {
	f := newFixture(t)
	slotValue := value("admin wrote this")
	require.NoError(t, f.st.SetParam(-1024, slotValue))

	// a stored proposal on a slot can only predate the creation check
	d := proposal.Descriptor{ExpireAt: now + 2_000_000, ParamID: -1024, Value: value("voted")}
	id, err := d.ID()
	require.NoError(t, err)
	_, setID, err := vset.New(f.params).Current()
	require.NoError(t, err)
	require.NoError(t, f.proposals.Put(&proposal.Proposal{
		ID:         id,
		Descriptor: d,
		Tally:      tally.New(setID, 4_000_000),
	}))

	f.winRound(t, id)
	f.rotate(t)
	assert.Equal(t, vote.AcceptedNormal, f.winRound(t, id).Status)

	got, err := f.st.GetParam(-1024)
	require.NoError(t, err)
	assert.True(t, slotValue.Equal(got))
	p, err := f.proposals.Get(id)
	require.NoError(t, err)
	assert.Nil(t, p)
}
