// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node serializes all work on the config account state through one goroutine.
package node

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/tonconfig/confignode/co"
	"github.com/tonconfig/confignode/log"
	"github.com/tonconfig/confignode/metrics"
	"github.com/tonconfig/confignode/runtime"
	"github.com/tonconfig/confignode/state"
)

var (
	logger            = log.WithContext("pkg", "node")
	metricJobDuration = metrics.LazyLoadHistogramVec("job_duration_ms", []string{"kind"}, metrics.BucketHTTPReqs)
	metricQueueLength = metrics.LazyLoadGauge("job_queue_length")
)

// ErrStopped is returned for work submitted after the node stopped.
var ErrStopped = errors.New("node stopped")

// Clock returns the current unix time.
type Clock func() uint32

// SystemClock reads the wall clock.
func SystemClock() uint32 {
	return uint32(time.Now().Unix())
}

// Options configures a node.
type Options struct {
	// TickInterval is the period of validator set promotion and expiry sweeps. Zero disables the ticker.
	TickInterval time.Duration
	QueueSize    int
	Clock        Clock
}

type job struct {
	kind string
	run  func(st *state.State, now uint32) (any, error)
	now  uint32
	done chan jobResult
}

type jobResult struct {
	val any
	err error
}

// Node owns the state and applies queued jobs one at a time, committing after each.
type Node struct {
	goes    co.Goes
	state   *state.State
	jobs    chan *job
	stopped chan struct{}
	opts    Options
}

func New(st *state.State, opts Options) *Node {
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	return &Node{
		state:   st,
		jobs:    make(chan *job, opts.QueueSize),
		stopped: make(chan struct{}),
		opts:    opts,
	}
}

// Run drains the queue until ctx is done.
func (n *Node) Run(ctx context.Context) error {
	defer close(n.stopped)
	defer n.goes.Wait()

	if n.opts.TickInterval > 0 {
		n.goes.Go(func() { n.tickLoop(ctx) })
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-n.jobs:
			metricQueueLength().Set(int64(len(n.jobs)))
			n.process(j)
		}
	}
}

func (n *Node) process(j *job) {
	startTime := time.Now()
	defer func() {
		metricJobDuration().ObserveWithLabels(time.Since(startTime).Milliseconds(), map[string]string{"kind": j.kind})
	}()

	now := j.now
	if now == 0 {
		now = n.opts.Clock()
	}
	checkpoint := n.state.NewCheckpoint()
	val, err := j.run(n.state, now)
	if err == nil {
		// a failed commit drops the job's changes
		if _, err = n.state.Commit(); err != nil {
			logger.Error("failed to commit state", "kind", j.kind, "err", err)
		}
	} else {
		n.state.RevertTo(checkpoint)
		logger.Debug("job failed", "kind", j.kind, "err", err)
	}
	j.done <- jobResult{val, err}
}

func (n *Node) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(n.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := n.Tick(ctx, 0)
			if err != nil {
				if ctx.Err() == nil {
					logger.Warn("tick failed", "err", err)
				}
				continue
			}
			if res.Promoted || len(res.Expired) > 0 {
				logger.Info("ticked", "promoted", res.Promoted, "expired", len(res.Expired))
			}
		}
	}
}

func (n *Node) do(ctx context.Context, kind string, now uint32, run func(*state.State, uint32) (any, error)) (any, error) {
	j := &job{kind, run, now, make(chan jobResult, 1)}
	select {
	case n.jobs <- j:
	case <-n.stopped:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-j.done:
		return r.val, r.err
	case <-n.stopped:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Submit executes msg at now, or at the node clock when now is zero.
func (n *Node) Submit(ctx context.Context, msg *runtime.Message, now uint32) (*runtime.Receipt, error) {
	val, err := n.do(ctx, "message", now, func(st *state.State, now uint32) (any, error) {
		return runtime.New(st, now).Execute(msg)
	})
	if err != nil {
		return nil, err
	}
	return val.(*runtime.Receipt), nil
}

// Tick promotes due validator sets and sweeps expired proposals at now, or at
// the node clock when now is zero.
func (n *Node) Tick(ctx context.Context, now uint32) (*runtime.TickResult, error) {
	val, err := n.do(ctx, "tick", now, func(st *state.State, now uint32) (any, error) {
		return runtime.New(st, now).Tick()
	})
	if err != nil {
		return nil, err
	}
	return val.(*runtime.TickResult), nil
}

// Read runs fn against the state between jobs. fn should not write; changes
// made by a failing fn are reverted.
func (n *Node) Read(ctx context.Context, fn func(st *state.State) error) error {
	_, err := n.do(ctx, "read", 0, func(st *state.State, _ uint32) (any, error) {
		return nil, fn(st)
	})
	return err
}
