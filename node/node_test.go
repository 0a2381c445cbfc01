// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonconfig/confignode/builtin/params"
	"github.com/tonconfig/confignode/builtin/proposal"
	"github.com/tonconfig/confignode/builtin/vset"
	"github.com/tonconfig/confignode/cell"
	"github.com/tonconfig/confignode/genesis"
	"github.com/tonconfig/confignode/kv"
	"github.com/tonconfig/confignode/lvldb"
	"github.com/tonconfig/confignode/runtime"
	"github.com/tonconfig/confignode/state"
	"github.com/tonconfig/confignode/ton"
)

const now = uint32(1_700_000_100)

func startNode(t *testing.T, opts Options) (*Node, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db, nil)
	require.NoError(t, genesis.NewDevnet().Build(st))
	_, err = st.Commit()
	require.NoError(t, err)

	if opts.Clock == nil {
		opts.Clock = func() uint32 { return now }
	}
	n := New(st, opts)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
		db.Close()
	})
	return n, db
}

func TestSubmitCommits(t *testing.T) {
	n, db := startNode(t, Options{})
	ctx := context.Background()

	value := cell.BeginCell().StoreStringTail("slot").MustEndCell()
	body, err := runtime.SetCustomSlotBody(1, -1024, value, cell.StdMsgAddress(genesis.DevAdmin))
	require.NoError(t, err)

	receipt, err := n.Submit(ctx, &runtime.Message{Src: genesis.DevAdmin, Dest: genesis.DevConfigAddress, Body: body}, 0)
	require.NoError(t, err)
	require.Len(t, receipt.Outbound, 1)

	var got *cell.Cell
	require.NoError(t, n.Read(ctx, func(st *state.State) (err error) {
		got, err = st.GetParam(-1024)
		return
	}))
	assert.True(t, value.Equal(got))

	// committed to the store, not only journaled
	fresh := state.New(db, nil)
	got, err = fresh.GetParam(-1024)
	require.NoError(t, err)
	assert.True(t, value.Equal(got))
}

func TestSerializedCreation(t *testing.T) {
	n, _ := startNode(t, Options{QueueSize: 8})
	ctx := context.Background()

	body, err := runtime.NewVotingBody(0, &proposal.Descriptor{ExpireAt: now + 2_000_000, ParamID: 42})
	require.NoError(t, err)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ops []uint32
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := n.Submit(ctx, &runtime.Message{Src: genesis.DevElector, Dest: genesis.DevConfigAddress, Body: body}, 0)
			if !assert.NoError(t, err) {
				return
			}
			reply, err := runtime.ParseReply(r.Outbound[0].Body)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ops = append(ops, reply.Op)
			mu.Unlock()
		}()
	}
	wg.Wait()

	created := 0
	for _, op := range ops {
		if op == ton.OpNewVotingCreated {
			created++
		} else {
			assert.Equal(t, ton.OpNewVotingRejected, op)
		}
	}
	assert.Equal(t, 1, created, "exactly one creation wins")
}

func TestTickLoop(t *testing.T) {
	var (
		mu    sync.Mutex
		clock = now
	)
	n, _ := startNode(t, Options{
		TickInterval: 10 * time.Millisecond,
		Clock: func() uint32 {
			mu.Lock()
			defer mu.Unlock()
			return clock
		},
	})
	ctx := context.Background()

	body, err := runtime.NewVotingBody(0, &proposal.Descriptor{ExpireAt: now + 1_000_000, ParamID: 42})
	require.NoError(t, err)
	_, err = n.Submit(ctx, &runtime.Message{Src: genesis.DevElector, Dest: genesis.DevConfigAddress, Body: body}, 0)
	require.NoError(t, err)
	id := body.Ref(0).Hash()

	mu.Lock()
	clock = now + 1_000_001
	mu.Unlock()

	assert.Eventually(t, func() bool {
		var p *proposal.Proposal
		err := n.Read(ctx, func(st *state.State) error {
			binder := params.New(st)
			var err error
			p, err = proposal.New(st, binder, vset.New(binder)).Get(id)
			return err
		})
		return err == nil && p == nil
	}, time.Second, 10*time.Millisecond)
}

func TestStopped(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	n := New(state.New(db, nil), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, n.Run(ctx))

	_, err = n.Tick(context.Background(), now)
	assert.ErrorIs(t, err, ErrStopped)
}

// flakyStore fails bulk writes while broken is set.
type flakyStore struct {
	kv.Store
	broken *atomic.Bool
}

func (s flakyStore) Bulk() kv.Bulk { return flakyBulk{s.Store.Bulk(), s.broken} }

type flakyBulk struct {
	kv.Bulk
	broken *atomic.Bool
}

func (b flakyBulk) Write() error {
	if b.broken.Load() {
		return errors.New("disk full")
	}
	return b.Bulk.Write()
}

func TestFailedCommitNotStaged(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	var broken atomic.Bool
	st := state.New(flakyStore{db, &broken}, nil)
	require.NoError(t, genesis.NewDevnet().Build(st))
	_, err = st.Commit()
	require.NoError(t, err)

	n := New(st, Options{Clock: func() uint32 { return now }})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
		db.Close()
	})

	setSlot := func(slot int32, s string) error {
		body, err := runtime.SetCustomSlotBody(0, slot, cell.BeginCell().StoreStringTail(s).MustEndCell(), cell.StdMsgAddress(genesis.DevAdmin))
		require.NoError(t, err)
		_, err = n.Submit(context.Background(), &runtime.Message{Src: genesis.DevAdmin, Dest: genesis.DevConfigAddress, Body: body}, 0)
		return err
	}
	slot := func(id int32) (c *cell.Cell) {
		require.NoError(t, n.Read(context.Background(), func(st *state.State) (err error) {
			c, err = st.GetParam(id)
			return
		}))
		return c
	}

	broken.Store(true)
	assert.Error(t, setSlot(-1024, "lost"))
	assert.Nil(t, slot(-1024))

	// the next successful commit carries only its own job
	broken.Store(false)
	require.NoError(t, setSlot(-1025, "kept"))
	assert.Nil(t, slot(-1024))
	assert.NotNil(t, slot(-1025))

	fresh := state.New(db, nil)
	got, err := fresh.GetParam(-1024)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFailedReadReverted(t *testing.T) {
	n, _ := startNode(t, Options{})
	ctx := context.Background()

	err := n.Read(ctx, func(st *state.State) error {
		if err := st.SetParam(20, cell.BeginCell().StoreStringTail("stray").MustEndCell()); err != nil {
			return err
		}
		return errors.New("read failed")
	})
	assert.Error(t, err)

	require.NoError(t, n.Read(ctx, func(st *state.State) error {
		got, err := st.GetParam(20)
		assert.Nil(t, got)
		return err
	}))
}
