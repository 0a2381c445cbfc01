// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package messages

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/tonconfig/confignode/api/utils"
	"github.com/tonconfig/confignode/builtin/params"
	"github.com/tonconfig/confignode/cell"
	"github.com/tonconfig/confignode/runtime"
	"github.com/tonconfig/confignode/state"
	"github.com/tonconfig/confignode/ton"
)

// Node executes messages and serves reads in its single writer queue.
type Node interface {
	Submit(ctx context.Context, msg *runtime.Message, now uint32) (*runtime.Receipt, error)
	Read(ctx context.Context, fn func(st *state.State) error) error
}

type Messages struct {
	node Node
}

func New(node Node) *Messages {
	return &Messages{node}
}

func (m *Messages) handleSendMessage(w http.ResponseWriter, req *http.Request) error {
	var body Message
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Src.IsZero() {
		return utils.BadRequest(errors.New("src: required"))
	}
	payload, err := cell.FromHex(body.Body)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}

	var dest ton.Address
	if err := m.node.Read(req.Context(), func(st *state.State) (err error) {
		dest, err = params.New(st).ConfigAddress()
		return
	}); err != nil {
		return err
	}

	receipt, err := m.node.Submit(req.Context(), &runtime.Message{
		Src:    body.Src,
		Dest:   dest,
		Bounce: body.Bounce,
		Body:   payload,
	}, body.Now)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertReceipt(receipt))
}

func (m *Messages) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("messages_send").
		HandlerFunc(utils.WrapHandlerFunc(m.handleSendMessage))
}
