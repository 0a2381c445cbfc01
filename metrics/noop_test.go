// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	metrics = defaultNoopMetrics()

	require.Nil(t, HTTPHandler())

	Counter("count1").Add(1)
	CounterVec("countVec1", []string{"kind"}).AddWithLabel(1, map[string]string{"thisIsNonsense": "butDoesntBreak"})
	Gauge("gauge1").Set(3)
	HistogramVec("hist1", []string{"kind"}, nil).ObserveWithLabels(1, map[string]string{"kind": "x"})
}
