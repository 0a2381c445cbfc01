// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonconfig/confignode/cell"
	"github.com/tonconfig/confignode/kv"
	"github.com/tonconfig/confignode/lvldb"
	"github.com/tonconfig/confignode/ton"
)

func newTestState(t *testing.T) (*State, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, nil), db
}

func value(s string) *cell.Cell {
	return cell.BeginCell().StoreStringTail(s).MustEndCell()
}

func TestParams(t *testing.T) {
	st, db := newTestState(t)

	require.NoError(t, st.SetParam(-1024, value("a")))
	require.NoError(t, st.SetParam(34, value("b")))
	require.NoError(t, st.SetParam(-1, value("c")))
	require.NoError(t, st.SetParam(0, value("d")))

	got, err := st.GetParam(-1024)
	require.NoError(t, err)
	assert.True(t, value("a").Equal(got))

	missing, err := st.GetParam(7)
	require.NoError(t, err)
	assert.Nil(t, missing)

	params, err := st.Params()
	require.NoError(t, err)
	var ids []int32
	for _, p := range params {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int32{-1024, -1, 0, 34}, ids)

	n, err := st.Commit()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// a fresh state over the same store sees committed values
	fresh := New(db, nil)
	got, err = fresh.GetParam(34)
	require.NoError(t, err)
	assert.True(t, value("b").Equal(got))

	// delete merges with committed rows
	require.NoError(t, fresh.SetParam(-1, nil))
	require.NoError(t, fresh.SetParam(5, value("e")))
	params, err = fresh.Params()
	require.NoError(t, err)
	ids = ids[:0]
	for _, p := range params {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int32{-1024, 0, 5, 34}, ids)

	_, err = fresh.Commit()
	require.NoError(t, err)
	_, err = db.Get([]byte(paramKey(-1)))
	assert.True(t, db.IsNotFound(err))
}

func TestCheckpoint(t *testing.T) {
	st, _ := newTestState(t)

	require.NoError(t, st.SetParam(1, value("before")))
	rev := st.NewCheckpoint()
	require.NoError(t, st.SetParam(1, value("after")))
	require.NoError(t, st.SetCode(value("code")))
	st.SetAdmin(ton.NewAddress(0, ton.Bytes32{1}))

	st.RevertTo(rev)

	got, err := st.GetParam(1)
	require.NoError(t, err)
	assert.True(t, value("before").Equal(got))

	code, err := st.GetCode()
	require.NoError(t, err)
	assert.Nil(t, code)

	admin, err := st.GetAdmin()
	require.NoError(t, err)
	assert.True(t, admin.IsZero())

	// reverting everything leaves a usable state
	st.RevertTo(0)
	require.NoError(t, st.SetParam(2, value("x")))
	n, err := st.Commit()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStorage(t *testing.T) {
	st, _ := newTestState(t)
	a, b := ton.Bytes32{0xaa}, ton.Bytes32{0x01}

	require.NoError(t, st.EncodeStorage(a, func() ([]byte, error) { return []byte("pa"), nil }))
	require.NoError(t, st.EncodeStorage(b, func() ([]byte, error) { return []byte("pb"), nil }))
	_, err := st.Commit()
	require.NoError(t, err)

	var raw []byte
	require.NoError(t, st.DecodeStorage(a, func(data []byte) error { raw = data; return nil }))
	assert.Equal(t, []byte("pa"), raw)

	ids, err := st.StorageKeys()
	require.NoError(t, err)
	assert.Equal(t, []ton.Bytes32{b, a}, ids)

	require.NoError(t, st.EncodeStorage(a, func() ([]byte, error) { return nil, nil }))
	ids, err = st.StorageKeys()
	require.NoError(t, err)
	assert.Equal(t, []ton.Bytes32{b}, ids)

	require.NoError(t, st.DecodeStorage(a, func(data []byte) error { raw = data; return nil }))
	assert.Empty(t, raw)
}

func TestAdmin(t *testing.T) {
	st, db := newTestState(t)
	admin := ton.MustParseAddress("EQA_o6NFLu73wozeYNERTsW8lkU5OarbRbIkoNuWdy5SPDA_")

	st.SetAdmin(admin)
	_, err := st.Commit()
	require.NoError(t, err)

	got, err := New(db, nil).GetAdmin()
	require.NoError(t, err)
	assert.Equal(t, admin, got)
	assert.Equal(t, int32(0), got.Workchain)
}

var errDiskFull = errors.New("disk full")

// brokenStore fails every bulk write.
type brokenStore struct{ kv.Store }

func (s brokenStore) Bulk() kv.Bulk { return brokenBulk{s.Store.Bulk()} }

type brokenBulk struct{ kv.Bulk }

func (brokenBulk) Write() error { return errDiskFull }

func TestCommitFailureDropsChanges(t *testing.T) {
	_, db := newTestState(t)
	st := New(brokenStore{db}, nil)

	require.NoError(t, st.SetParam(1, value("lost")))
	st.SetAdmin(ton.NewAddress(0, ton.Bytes32{1}))

	n, err := st.Commit()
	assert.Zero(t, n)
	assert.ErrorIs(t, err, errDiskFull)
	var stateErr *Error
	assert.ErrorAs(t, err, &stateErr)

	// nothing stays staged for later reads or commits
	got, err := st.GetParam(1)
	require.NoError(t, err)
	assert.Nil(t, got)
	admin, err := st.GetAdmin()
	require.NoError(t, err)
	assert.True(t, admin.IsZero())

	n, err = st.Commit()
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err = New(db, nil).GetParam(1)
	require.NoError(t, err)
	assert.Nil(t, got)
}
