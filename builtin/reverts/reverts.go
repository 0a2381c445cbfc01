// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies a governance rejection.
type Kind uint8

const (
	Unauthorized Kind = iota + 1
	InvalidPayload
	ForbiddenTarget
	Duplicate
	NotFound
	MalformedAddress
	InvalidProposal
	Malformed
)

var kindNames = map[Kind]string{
	Unauthorized:     "unauthorized",
	InvalidPayload:   "invalid payload",
	ForbiddenTarget:  "forbidden target",
	Duplicate:        "duplicate",
	NotFound:         "not found",
	MalformedAddress: "malformed address",
	InvalidProposal:  "invalid proposal",
	Malformed:        "malformed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Aborts reports whether the kind aborts the whole inbound message
// instead of being answered with a notice.
func (k Kind) Aborts() bool {
	return k == MalformedAddress || k == Malformed
}

// ErrRevert is a rejection raised by governance logic.
type ErrRevert struct {
	kind    Kind
	message string
	cause   error
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{kind: kind, message: message}
}

func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap tags cause with kind.
func Wrap(kind Kind, cause error, message string) *ErrRevert {
	return &ErrRevert{kind: kind, message: message, cause: cause}
}

func (e *ErrRevert) Kind() Kind { return e.kind }

func (e *ErrRevert) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%v: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%v: %s", e.kind, e.message)
}

func (e *ErrRevert) Unwrap() error { return e.cause }

// KindOf returns the kind carried by err, or 0 if err is not a revert.
func KindOf(err error) Kind {
	var re *ErrRevert
	if errors.As(err, &re) && re != nil {
		return re.kind
	}
	return 0
}

// Is reports whether err is a revert of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	return KindOf(e) != 0
}
