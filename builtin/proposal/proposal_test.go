// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package proposal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonconfig/confignode/builtin/params"
	"github.com/tonconfig/confignode/builtin/proposal"
	"github.com/tonconfig/confignode/builtin/reverts"
	"github.com/tonconfig/confignode/builtin/vset"
	"github.com/tonconfig/confignode/cell"
	"github.com/tonconfig/confignode/genesis"
	"github.com/tonconfig/confignode/lvldb"
	"github.com/tonconfig/confignode/state"
	"github.com/tonconfig/confignode/ton"
)

const now = uint32(1_700_000_100)

func newStore(t *testing.T) (*proposal.Store, *state.State) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := state.New(db, nil)
	require.NoError(t, genesis.NewDevnet().Build(st))
	p := params.New(st)
	return proposal.New(st, p, vset.New(p)), st
}

func value(s string) *cell.Cell {
	return cell.BeginCell().StoreStringTail(s).MustEndCell()
}

func TestDescriptorRoundTrip(t *testing.T) {
	hash := value("x").Hash()
	for _, d := range []*proposal.Descriptor{
		{ExpireAt: 5, ParamID: 7},
		{ExpireAt: 6, Critical: true, ParamID: -1000, Value: value("code")},
		{ExpireAt: 7, ParamID: 20, Value: value("v"), CurHash: &hash},
	} {
		unit, err := d.Unit()
		require.NoError(t, err)
		got, err := proposal.DecodeDescriptor(unit)
		require.NoError(t, err)
		assert.Equal(t, d.ExpireAt, got.ExpireAt)
		assert.Equal(t, d.Critical, got.Critical)
		assert.Equal(t, d.ParamID, got.ParamID)
		assert.Equal(t, d.CurHash, got.CurHash)
		if d.Value == nil {
			assert.Nil(t, got.Value)
		} else {
			assert.True(t, d.Value.Equal(got.Value))
		}
	}

	trailing := cell.BeginCell().StoreUint(5, 32).StoreBit(false).StoreInt(7, 32).
		StoreMaybeRef(nil).StoreMaybeBytes32(nil).StoreUint(1, 1).MustEndCell()
	_, err := proposal.DecodeDescriptor(trailing)
	assert.Error(t, err)
}

func TestCreateGetRemove(t *testing.T) {
	s, _ := newStore(t)
	d := &proposal.Descriptor{ExpireAt: now + 2_000_000, ParamID: 20, Value: value("twenty")}

	id, err := s.Create(d, now)
	require.NoError(t, err)
	want, _ := d.ID()
	assert.Equal(t, want, id)

	p, err := s.Get(id)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int32(20), p.ParamID)
	assert.Equal(t, uint64(4_000_000), p.Tally.Total)
	assert.Zero(t, p.Tally.Wins)
	assert.Empty(t, p.Tally.Voters)

	_, err = s.Create(d, now)
	assert.True(t, reverts.Is(err, reverts.Duplicate))

	all, err := s.All()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.Remove(id))
	p, err = s.Get(id)
	require.NoError(t, err)
	assert.Nil(t, p)

	// recreate after removal is allowed
	_, err = s.Create(d, now)
	assert.NoError(t, err)
}

func TestCreateRejections(t *testing.T) {
	s, st := newStore(t)
	require.NoError(t, st.SetParam(21, value("current")))

	curHash := value("current").Hash()
	wrongHash := value("other").Hash()
	var zero ton.Bytes32
	exotic, err := cell.BeginCell().
		StoreUint(uint64(cell.Library), 8).
		StoreBytes32(value("lib").Hash()).
		EndExotic()
	require.NoError(t, err)

	expire := now + 2_000_000
	tests := []struct {
		name   string
		d      proposal.Descriptor
		kind   reverts.Kind
		reason uint32
	}{
		{"custom slot", proposal.Descriptor{ExpireAt: expire, ParamID: -1024, Value: value("v")}, reverts.ForbiddenTarget, 0},
		{"custom slot bad expiry", proposal.Descriptor{ExpireAt: 0, ParamID: -1025}, reverts.ForbiddenTarget, 0},
		{"expire too soon", proposal.Descriptor{ExpireAt: now + 10, ParamID: 20}, reverts.InvalidProposal, ton.RejectExpireRange},
		{"expire too late", proposal.Descriptor{ExpireAt: now + 20_000_000, ParamID: 20}, reverts.InvalidProposal, ton.RejectExpireRange},
		{"critical flag", proposal.Descriptor{ExpireAt: expire, ParamID: 34}, reverts.InvalidProposal, ton.RejectNotCritical},
		{"exotic value", proposal.Descriptor{ExpireAt: expire, ParamID: 20, Value: exotic}, reverts.InvalidProposal, ton.RejectInvalidValue},
		{"code without ref", proposal.Descriptor{ExpireAt: expire, Critical: true, ParamID: ton.ParamElectorCode, Value: value("flat")}, reverts.InvalidProposal, ton.RejectInvalidValue},
		{"hash mismatch", proposal.Descriptor{ExpireAt: expire, ParamID: 21, CurHash: &wrongHash}, reverts.InvalidProposal, ton.RejectHashMismatch},
		{"zero hash on present", proposal.Descriptor{ExpireAt: expire, ParamID: 21, CurHash: &zero}, reverts.InvalidProposal, ton.RejectHashMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(&tt.d, now)
			require.Error(t, err)
			assert.Equal(t, tt.kind, reverts.KindOf(err))
			assert.Equal(t, tt.reason, proposal.Reason(err))
		})
	}

	all, err := s.All()
	require.NoError(t, err)
	assert.Empty(t, all)

	// matching hashes, absent value and code targets pass
	for _, d := range []proposal.Descriptor{
		{ExpireAt: expire, ParamID: 21, CurHash: &curHash},
		{ExpireAt: expire, ParamID: 22, CurHash: &zero},
		{ExpireAt: expire, Critical: true, ParamID: ton.ParamConfigCode, Value: cell.BeginCell().StoreRef(value("code")).MustEndCell(), CurHash: &wrongHash},
	} {
		_, err := s.Create(&d, now)
		assert.NoError(t, err, d.ParamID)
	}
}

func TestSweepExpired(t *testing.T) {
	s, _ := newStore(t)
	short := &proposal.Descriptor{ExpireAt: now + 1_000_000, ParamID: 20}
	long := &proposal.Descriptor{ExpireAt: now + 5_000_000, ParamID: 20}
	shortID, err := s.Create(short, now)
	require.NoError(t, err)
	longID, err := s.Create(long, now)
	require.NoError(t, err)

	swept, err := s.SweepExpired(short.ExpireAt)
	require.NoError(t, err)
	assert.Empty(t, swept, "expiry is inclusive")

	swept, err = s.SweepExpired(short.ExpireAt + 1)
	require.NoError(t, err)
	assert.Equal(t, []ton.Bytes32{shortID}, swept)

	p, err := s.Get(longID)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestPutPersistsTally(t *testing.T) {
	s, st := newStore(t)
	id, err := s.Create(&proposal.Descriptor{ExpireAt: now + 2_000_000, ParamID: 20}, now)
	require.NoError(t, err)

	p, err := s.Get(id)
	require.NoError(t, err)
	p.Tally.Cast(1, 1_000_000, 2)
	require.NoError(t, s.Put(p))
	_, err = st.Commit()
	require.NoError(t, err)

	p, err = s.Get(id)
	require.NoError(t, err)
	assert.True(t, p.Tally.Voted(1))
	assert.Equal(t, uint64(1_000_000), p.Tally.Weight)
}
