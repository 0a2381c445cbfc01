// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ton

import (
	"slices"

	"github.com/pkg/errors"
)

// Well-known parameter ids.
const (
	ParamConfigAddress  int32 = 0
	ParamElectorAddress int32 = 1
	ParamCritical       int32 = 10
	ParamVoteConfig     int32 = 11
	ParamPrevValidators int32 = 32
	ParamCurValidators  int32 = 34
	ParamNextValidators int32 = 36

	// ParamConfigCode targets the code of the config account itself.
	ParamConfigCode int32 = -1000
	// ParamElectorCode targets the code of the elector account.
	ParamElectorCode int32 = -1001
)

// CustomSlots are the ids writable only by the custom slot admin, never by vote.
var CustomSlots = [...]int32{-1024, -1025}

// IsCustomSlot returns whether id is a reserved custom slot.
func IsCustomSlot(id int32) bool {
	return slices.Contains(CustomSlots[:], id)
}

// IsCodeParam returns whether id designates a code upgrade rather than a table entry.
func IsCodeParam(id int32) bool {
	return id == ParamConfigCode || id == ParamElectorCode
}

// DefaultCriticalParams ids whose proposals must be voted as critical.
var DefaultCriticalParams = CriticalParams{
	0, 1, 9, 10, 12, 14, 15, 16, 17, 32, 34, 36, ParamConfigCode, ParamElectorCode,
}

// CriticalParams a set of critical parameter ids.
type CriticalParams []int32

// Contains returns whether id is critical.
func (c CriticalParams) Contains(id int32) bool {
	return slices.Contains(c, id)
}

// Validate reports an error if the table overlaps the custom slots.
// Critical handling only applies to the voting path, which custom slots never enter.
func (c CriticalParams) Validate() error {
	for _, id := range c {
		if IsCustomSlot(id) {
			return errors.Errorf("custom slot %d cannot be critical", id)
		}
	}
	return nil
}
