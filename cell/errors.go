// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cell

import "errors"

var (
	ErrCellOverflow    = errors.New("cell overflow")
	ErrCellUnderflow   = errors.New("cell underflow")
	ErrDepthExceeded   = errors.New("cell depth exceeded")
	ErrBadExotic       = errors.New("malformed exotic cell")
	ErrBadAddress      = errors.New("malformed message address")
	ErrTrailingContent = errors.New("unexpected trailing content")
)
