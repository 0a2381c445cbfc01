// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package slots implements the administrator fast path for the custom slots.
package slots

import (
	"github.com/tonconfig/confignode/builtin/reverts"
	"github.com/tonconfig/confignode/canon"
	"github.com/tonconfig/confignode/cell"
	"github.com/tonconfig/confignode/log"
	"github.com/tonconfig/confignode/metrics"
	"github.com/tonconfig/confignode/state"
	"github.com/tonconfig/confignode/ton"
)

var (
	logger            = log.WithContext("pkg", "slots")
	metricSlotWrites  = metrics.LazyLoadCounterVec("custom_slot_writes_count", []string{"result"})
	slotPayloadPolicy = canon.SingleUnit
)

// Gate guards writes to the custom slots.
type Gate struct {
	state *state.State
}

func New(state *state.State) *Gate {
	return &Gate{state}
}

// Set writes value into the slot on behalf of sender.
// The state is untouched unless nil is returned.
func (g *Gate) Set(sender ton.Address, slot int32, value *cell.Cell) (err error) {
	defer func() {
		result := "accepted"
		if kind := reverts.KindOf(err); kind != 0 {
			result = kind.String()
		} else if err != nil {
			result = "error"
		}
		metricSlotWrites().AddWithLabel(1, map[string]string{"result": result})
	}()

	admin, err := g.state.GetAdmin()
	if err != nil {
		return err
	}
	if admin.IsZero() || sender != admin {
		return reverts.Newf(reverts.Unauthorized, "sender %v is not the slot admin", sender)
	}
	if !ton.IsCustomSlot(slot) {
		return reverts.Newf(reverts.ForbiddenTarget, "param %d is not a custom slot", slot)
	}
	if err := slotPayloadPolicy.Validate(value); err != nil {
		return reverts.Wrap(reverts.InvalidPayload, err, "slot value")
	}
	if err := g.state.SetParam(slot, value); err != nil {
		return err
	}
	logger.Debug("custom slot set", "slot", slot, "hash", value.Hash().AbbrevString())
	return nil
}
