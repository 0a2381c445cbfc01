// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"fmt"

	"github.com/minio/sha256-simd"

	"github.com/tonconfig/confignode/builtin/vset"
	"github.com/tonconfig/confignode/cell"
	"github.com/tonconfig/confignode/ton"
)

// Well-known devnet accounts.
var (
	DevAdmin         = ton.MustParseAddress("EQA_o6NFLu73wozeYNERTsW8lkU5OarbRbIkoNuWdy5SPDA_")
	DevElector       = ton.NewAddress(ton.MasterchainID, repeated(0x33))
	DevConfigAddress = ton.NewAddress(ton.MasterchainID, repeated(0x55))
)

const (
	devValidators      = 4
	devValidatorWeight = 1_000_000
	devSetSince        = 1_700_000_000
	devSetUntil        = devSetSince + 365*24*3600
)

func repeated(b byte) ton.Bytes32 {
	var h ton.Bytes32
	for i := range h {
		h[i] = b
	}
	return h
}

// DevValidators returns the validator set of the devnet.
func DevValidators() vset.Set {
	set := vset.Set{
		UtimeSince: devSetSince,
		UtimeUntil: devSetUntil,
		Main:       devValidators,
	}
	for i := range devValidators {
		set.Validators = append(set.Validators, vset.Validator{
			PublicKey: sha256.Sum256(fmt.Appendf(nil, "dev validator %d", i)),
			Weight:    devValidatorWeight,
		})
	}
	return set
}

// DevCode is the placeholder program identity installed on devnet.
func DevCode() *cell.Cell {
	return cell.BeginCell().StoreStringTail("config account v1").MustEndCell()
}

// NewDevnet create genesis for development.
func NewDevnet() *Genesis {
	gen, err := NewCustomNet(&CustomGenesis{
		Name:          "devnet",
		Admin:         DevAdmin,
		Elector:       DevElector,
		ConfigAddress: DevConfigAddress,
		Code:          DevCode().Hex(),
		Validators:    DevValidators(),
	})
	if err != nil {
		panic(err)
	}
	return gen
}
