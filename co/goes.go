// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package co holds small concurrency helpers.
package co

import (
	"sync"
)

// Goes tracks background routines so their owner can wait for them on shutdown.
type Goes struct {
	wg sync.WaitGroup
}

// Go runs f in a tracked routine.
func (g *Goes) Go(f func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		f()
	}()
}

// Wait blocks until every routine started by Go returned.
func (g *Goes) Wait() {
	g.wg.Wait()
}
