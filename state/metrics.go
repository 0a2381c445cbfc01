// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "github.com/tonconfig/confignode/metrics"

var (
	metricStateAccess  = metrics.LazyLoadCounterVec("state_access_count", []string{"type", "target"})
	metricCommitWrites = metrics.LazyLoadCounter("state_commit_writes_count")
)

func targetOf(key string) string {
	switch key[0] {
	case paramPrefix:
		return "param"
	case proposalPrefix:
		return "proposal"
	case codePrefix:
		return "code"
	default:
		return "meta"
	}
}
