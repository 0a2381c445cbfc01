// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package account

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tonconfig/confignode/api/utils"
	"github.com/tonconfig/confignode/builtin/params"
	"github.com/tonconfig/confignode/state"
	"github.com/tonconfig/confignode/ton"
)

// Reader runs fn against a consistent state.
type Reader interface {
	Read(ctx context.Context, fn func(st *state.State) error) error
}

// Account describes the config account itself.
type Account struct {
	Address  ton.Address  `json:"address"`
	Friendly string       `json:"friendly"`
	CodeHash *ton.Bytes32 `json:"codeHash"`
	Code     *string      `json:"code"`
	Admin    ton.Address  `json:"admin"`
}

type Accounts struct {
	reader Reader
}

func New(reader Reader) *Accounts {
	return &Accounts{reader}
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	acc := &Account{}
	if err := a.reader.Read(req.Context(), func(st *state.State) error {
		addr, err := params.New(st).ConfigAddress()
		if err != nil {
			return err
		}
		acc.Address = addr
		acc.Friendly = addr.Friendly()

		code, err := st.GetCode()
		if err != nil {
			return err
		}
		if code != nil {
			hash, hex := code.Hash(), code.Hex()
			acc.CodeHash, acc.Code = &hash, &hex
		}
		acc.Admin, err = st.GetAdmin()
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, acc)
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("account_get").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
}
