// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vset

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonconfig/confignode/builtin/params"
	"github.com/tonconfig/confignode/cell"
	"github.com/tonconfig/confignode/lvldb"
	"github.com/tonconfig/confignode/state"
	"github.com/tonconfig/confignode/ton"
)

func testSet(since uint32, weights ...uint64) *Set {
	s := &Set{UtimeSince: since, UtimeUntil: since + 65536, Main: uint16(len(weights))}
	for i, w := range weights {
		s.Validators = append(s.Validators, Validator{ton.Bytes32{byte(i + 1)}, w})
	}
	return s
}

func mustEncode(t *testing.T, s *Set) *cell.Cell {
	c, err := s.Encode()
	require.NoError(t, err)
	return c
}

func TestCodec(t *testing.T) {
	s := testSet(100, 10, 20, 30)
	c := mustEncode(t, s)

	got, err := Decode(c)
	require.NoError(t, err)
	assert.Equal(t, s, got)
	assert.Equal(t, uint64(60), got.TotalWeight())

	// the header claims one more validator than listed
	bad := cell.BeginCell().
		StoreUint(setTag, 8).StoreUint(100, 32).StoreUint(200, 32).
		StoreUint(2, 16).StoreUint(1, 16).StoreUint(5, 64).
		StoreMaybeRef(cell.BeginCell().StoreBytes32(ton.Bytes32{1}).StoreUint(5, 64).StoreBit(false).MustEndCell()).
		MustEndCell()
	_, err = Decode(bad)
	assert.Error(t, err)

	_, err = Decode(mustEncode(t, testSet(100, 0)))
	assert.Error(t, err, "zero weight")

	_, err = Decode(cell.BeginCell().StoreUint(0x11, 8).MustEndCell())
	assert.Error(t, err)
}

func TestThreshold(t *testing.T) {
	assert.Equal(t, uint256.NewInt(75), Threshold(100))
	assert.Equal(t, uint256.NewInt(2), Threshold(3))
	assert.Equal(t, uint256.NewInt(0), Threshold(1))

	// no overflow near the top of the range
	top := ^uint64(0)
	want := new(uint256.Int).Div(new(uint256.Int).Mul(uint256.NewInt(top), uint256.NewInt(3)), uint256.NewInt(4))
	assert.Equal(t, want, Threshold(top))
}

func TestProposePromote(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	p := params.New(state.New(db, nil))
	m := New(p)

	first := mustEncode(t, testSet(0, 1, 1, 1))
	require.NoError(t, p.Set(ton.ParamCurValidators, first))

	cur, id, err := m.Current()
	require.NoError(t, err)
	assert.Equal(t, first.Hash(), id)
	assert.Len(t, cur.Validators, 3)

	next := mustEncode(t, testSet(1000, 5, 5))
	assert.Error(t, m.Propose(next, 1000), "must start in the future")
	require.NoError(t, m.Propose(next, 999))
	assert.Error(t, m.Propose(mustEncode(t, testSet(2000, 1)), 999), "already pending")

	promoted, err := m.Promote(999)
	require.NoError(t, err)
	assert.False(t, promoted)

	promoted, err = m.Promote(1000)
	require.NoError(t, err)
	assert.True(t, promoted)

	_, id, err = m.Current()
	require.NoError(t, err)
	assert.Equal(t, next.Hash(), id)

	prev, err := p.Get(ton.ParamPrevValidators)
	require.NoError(t, err)
	assert.True(t, first.Equal(prev))

	pending, err := p.Get(ton.ParamNextValidators)
	require.NoError(t, err)
	assert.Nil(t, pending)

	promoted, err = m.Promote(5000)
	require.NoError(t, err)
	assert.False(t, promoted)
}
