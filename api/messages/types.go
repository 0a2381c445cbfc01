// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package messages

import (
	"github.com/tonconfig/confignode/runtime"
	"github.com/tonconfig/confignode/ton"
)

// Message is an inbound internal message addressed to the config account.
type Message struct {
	Src    ton.Address `json:"src"`
	Bounce bool        `json:"bounce"`
	Body   string      `json:"body"`
	// Now is the unix time the message is executed at; zero means the node clock.
	Now uint32 `json:"now,omitempty"`
}

type Outbound struct {
	Src     ton.Address `json:"src"`
	Dest    ton.Address `json:"dest"`
	Bounced bool        `json:"bounced"`
	Body    string      `json:"body"`
}

type Receipt struct {
	Aborted      bool        `json:"aborted"`
	Ignored      bool        `json:"ignored"`
	CodeReplaced bool        `json:"codeReplaced"`
	Outbound     []*Outbound `json:"outbound"`
}

func convertReceipt(r *runtime.Receipt) *Receipt {
	out := &Receipt{
		Aborted:      r.Aborted,
		Ignored:      r.Ignored,
		CodeReplaced: r.CodeReplaced,
		Outbound:     make([]*Outbound, 0, len(r.Outbound)),
	}
	for _, m := range r.Outbound {
		out.Outbound = append(out.Outbound, &Outbound{
			Src:     m.Src,
			Dest:    m.Dest,
			Bounced: m.Bounced,
			Body:    m.Body.Hex(),
		})
	}
	return out
}
