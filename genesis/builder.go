// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/binary"

	"github.com/minio/sha256-simd"
	"github.com/pkg/errors"

	"github.com/tonconfig/confignode/lvldb"
	"github.com/tonconfig/confignode/state"
	"github.com/tonconfig/confignode/ton"
)

// Builder helper to build genesis state.
type Builder struct {
	stateProcs []func(state *state.State) error
}

// State add a state process
func (b *Builder) State(proc func(state *state.State) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// ComputeID compute genesis ID.
func (b *Builder) ComputeID() (ton.Bytes32, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return ton.Bytes32{}, err
	}
	defer db.Close()

	st := state.New(db, nil)
	if err := b.Build(st); err != nil {
		return ton.Bytes32{}, err
	}
	return Digest(st)
}

// Build applies all state processes. The caller decides when to commit.
func (b *Builder) Build(st *state.State) error {
	for _, proc := range b.stateProcs {
		if err := proc(st); err != nil {
			return errors.Wrap(err, "state process")
		}
	}
	return nil
}

// Digest hashes the parameter table, account code and admin of st.
func Digest(st *state.State) (ton.Bytes32, error) {
	params, err := st.Params()
	if err != nil {
		return ton.Bytes32{}, err
	}
	code, err := st.GetCode()
	if err != nil {
		return ton.Bytes32{}, err
	}
	admin, err := st.GetAdmin()
	if err != nil {
		return ton.Bytes32{}, err
	}

	h := sha256.New()
	var idBuf [4]byte
	for _, p := range params {
		binary.BigEndian.PutUint32(idBuf[:], uint32(p.ID))
		h.Write(idBuf[:])
		hash := p.Value.Hash()
		h.Write(hash[:])
	}
	if code != nil {
		hash := code.Hash()
		h.Write(hash[:])
	}
	binary.BigEndian.PutUint32(idBuf[:], uint32(admin.Workchain))
	h.Write(idBuf[:])
	h.Write(admin.Hash[:])

	var id ton.Bytes32
	h.Sum(id[:0])
	return id, nil
}
