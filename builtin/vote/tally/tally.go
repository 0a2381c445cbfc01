// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tally holds the ballot accumulator of one proposal.
//
// A pass lasts as long as one validator set. Weight accumulates over distinct
// voters of the pass; the first time it reaches three quarters of the set's
// total weight the pass is won. Replacing the set ends the pass: a pass that
// saw ballots but ended without quorum still counts as one win, and the tally
// carries over to the new set.
package tally

import (
	"slices"

	"github.com/holiman/uint256"

	"github.com/tonconfig/confignode/ton"
)

// Result of casting one ballot.
type Result uint8

const (
	Duplicate Result = iota // voter already counted in this pass
	Registered
	RoundWon // threshold reached, more wins needed
	Accepted // enough wins
)

func (r Result) String() string {
	switch r {
	case Duplicate:
		return "duplicate"
	case Registered:
		return "registered"
	case RoundWon:
		return "round-won"
	case Accepted:
		return "accepted"
	}
	return "unknown"
}

// Tally is the per proposal accumulator.
type Tally struct {
	SetID  ton.Bytes32
	Total  uint64
	Weight uint64
	Voters []uint16 // sorted
	Won    bool     // the current pass already counted a win
	Wins   uint8
}

// New starts a tally in the pass of the given set.
func New(setID ton.Bytes32, total uint64) *Tally {
	return &Tally{SetID: setID, Total: total}
}

// threshold is floor(3*total/4).
func threshold(total uint64) *uint256.Int {
	t, _ := new(uint256.Int).MulDivOverflow(uint256.NewInt(total), uint256.NewInt(3), uint256.NewInt(4))
	return t
}

// Rollover ends the pass when setID differs from the tally's set and opens a
// new one against total. A pass with ballots but no quorum is counted as a
// win. It returns Accepted when that win completes minWins, Registered
// otherwise.
func (t *Tally) Rollover(setID ton.Bytes32, total uint64, minWins uint8) Result {
	if setID == t.SetID {
		return Registered
	}
	if !t.Won && len(t.Voters) > 0 {
		t.Wins++
	}
	t.SetID, t.Total = setID, total
	t.Weight, t.Voters, t.Won = 0, nil, false
	if t.Wins >= minWins {
		return Accepted
	}
	return Registered
}

// Voted reports whether idx voted in the current pass.
func (t *Tally) Voted(idx uint16) bool {
	_, found := slices.BinarySearch(t.Voters, idx)
	return found
}

// Cast counts the ballot of voter idx with the given weight.
func (t *Tally) Cast(idx uint16, weight uint64, minWins uint8) Result {
	pos, found := slices.BinarySearch(t.Voters, idx)
	if found {
		return Duplicate
	}
	t.Voters = slices.Insert(t.Voters, pos, idx)
	t.Weight += weight

	if t.Won || uint256.NewInt(t.Weight).Cmp(threshold(t.Total)) < 0 {
		return Registered
	}
	t.Won = true
	t.Wins++
	if t.Wins >= minWins {
		return Accepted
	}
	return RoundWon
}
