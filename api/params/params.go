// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/tonconfig/confignode/api/utils"
	"github.com/tonconfig/confignode/state"
	"github.com/tonconfig/confignode/ton"
)

// Reader runs fn against a consistent state.
type Reader interface {
	Read(ctx context.Context, fn func(st *state.State) error) error
}

// Param is the JSON form of one table entry. Value is the hex RLP of the unit.
type Param struct {
	ID    int32       `json:"id"`
	Hash  ton.Bytes32 `json:"hash"`
	Value string      `json:"value"`
}

type Params struct {
	reader Reader
}

func New(reader Reader) *Params {
	return &Params{reader}
}

func (p *Params) handleGetParams(w http.ResponseWriter, req *http.Request) error {
	var all []state.Param
	if err := p.reader.Read(req.Context(), func(st *state.State) (err error) {
		all, err = st.Params()
		return
	}); err != nil {
		return err
	}
	out := make([]Param, 0, len(all))
	for _, param := range all {
		out = append(out, Param{param.ID, param.Value.Hash(), param.Value.Hex()})
	}
	return utils.WriteJSON(w, out)
}

func (p *Params) handleGetParam(w http.ResponseWriter, req *http.Request) error {
	id, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 32)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	var param state.Param
	if err := p.reader.Read(req.Context(), func(st *state.State) (err error) {
		param.ID = int32(id)
		param.Value, err = st.GetParam(param.ID)
		return
	}); err != nil {
		return err
	}
	if param.Value == nil {
		return utils.NotFound(errors.Errorf("param %d not set", id))
	}
	return utils.WriteJSON(w, &Param{param.ID, param.Value.Hash(), param.Value.Hex()})
}

func (p *Params) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("params_get_all").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetParams))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("params_get_param").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetParam))
}
