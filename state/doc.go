// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the config account state.
// It follows the flow as bellow:
//
//	         o
//	         |
//	[ revertable state ]
//	         |
//	  [ stacked map ] -> [ journal ] -> [ bulk write ] -> [ kv store ]
//	         |
//	   [ lru cache ]
//	         |
//	    [ kv store ]
//
// Every value is kept as raw bytes under a one-byte prefixed key. An empty
// value stands for absence, so deletions travel through the journal like any
// other write.
package state
