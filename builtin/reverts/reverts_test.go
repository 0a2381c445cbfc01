// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	err := New(Unauthorized, "sender is not admin")
	assert.Equal(t, "unauthorized: sender is not admin", err.Error())
	assert.True(t, Is(err, Unauthorized))
	assert.False(t, Is(err, Duplicate))
	assert.False(t, Unauthorized.Aborts())
	assert.True(t, MalformedAddress.Aborts())
	assert.True(t, Malformed.Aborts())
	assert.Equal(t, "kind(99)", Kind(99).String())
}

func TestWrapped(t *testing.T) {
	err := errors.WithMessage(Wrap(Malformed, io.ErrUnexpectedEOF, "vote body"), "dispatch")
	assert.Equal(t, Malformed, KindOf(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.True(t, IsRevertErr(err))

	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr("string"))
	assert.False(t, IsRevertErr(io.EOF))
	assert.Equal(t, Kind(0), KindOf(io.EOF))
}
