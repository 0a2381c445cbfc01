// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ton

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Workchain identifiers.
const (
	MasterchainID int32 = -1
	BasechainID   int32 = 0
)

// AddressKind is the constructor of a message address.
type AddressKind uint8

// Message address constructors.
const (
	AddrNone   AddressKind = iota // addr_none$00
	AddrExtern                    // addr_extern$01
	AddrStd                       // addr_std$10
	AddrVar                       // addr_var$11
)

func (k AddressKind) String() string {
	switch k {
	case AddrNone:
		return "none"
	case AddrExtern:
		return "extern"
	case AddrStd:
		return "std"
	case AddrVar:
		return "var"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

const (
	friendlyLen        = 36
	tagBounceable      = 0x11
	tagNonBounceable   = 0x51
	tagTestOnly        = 0x80
	friendlyEncodedLen = 48
)

// Address a standard internal address: workchain plus 256-bit account id.
type Address struct {
	Workchain int32
	Hash      Bytes32
}

var (
	_ json.Marshaler   = (*Address)(nil)
	_ json.Unmarshaler = (*Address)(nil)
)

// NewAddress creates an address.
func NewAddress(workchain int32, hash Bytes32) Address {
	return Address{workchain, hash}
}

// String returns the raw form "wc:hex".
func (a Address) String() string {
	return strconv.Itoa(int(a.Workchain)) + ":" + hex.EncodeToString(a.Hash[:])
}

// Friendly returns the url-safe base64 bounceable form.
func (a Address) Friendly() string {
	var buf [friendlyLen]byte
	buf[0] = tagBounceable
	buf[1] = byte(int8(a.Workchain))
	copy(buf[2:34], a.Hash[:])
	binary.BigEndian.PutUint16(buf[34:], crc16(buf[:34]))
	return base64.URLEncoding.EncodeToString(buf[:])
}

// IsMasterchain returns whether the address lives in the masterchain.
func (a Address) IsMasterchain() bool {
	return a.Workchain == MasterchainID
}

// IsZero returns if the address is the zero value.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalJSON implements json.Marshaler.
func (a *Address) MarshalJSON() ([]byte, error) {
	if a == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(a.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (a Address) MarshalYAML() (any, error) {
	return a.String(), nil
}

// UnmarshalYAML implements the legacy yaml.Unmarshaler interface.
func (a *Address) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses either the raw "wc:hex" form or the 48-char base64 user-friendly form.
func ParseAddress(s string) (Address, error) {
	if i := strings.IndexByte(s, ':'); i > 0 {
		wc, err := strconv.ParseInt(s[:i], 10, 32)
		if err != nil {
			return Address{}, errors.WithMessage(err, "workchain")
		}
		hash, err := ParseBytes32(s[i+1:])
		if err != nil {
			return Address{}, errors.WithMessage(err, "account id")
		}
		return Address{int32(wc), hash}, nil
	}
	if len(s) != friendlyEncodedLen {
		return Address{}, errors.New("invalid address length")
	}

	var (
		raw []byte
		err error
	)
	if strings.ContainsAny(s, "-_") {
		raw, err = base64.URLEncoding.DecodeString(s)
	} else {
		raw, err = base64.StdEncoding.DecodeString(s)
	}
	if err != nil {
		return Address{}, errors.WithMessage(err, "base64")
	}
	if len(raw) != friendlyLen {
		return Address{}, errors.New("invalid address length")
	}
	if tag := raw[0] &^ tagTestOnly; tag != tagBounceable && tag != tagNonBounceable {
		return Address{}, errors.Errorf("invalid address tag 0x%x", raw[0])
	}
	if crc16(raw[:34]) != binary.BigEndian.Uint16(raw[34:]) {
		return Address{}, errors.New("address checksum mismatch")
	}
	var hash Bytes32
	copy(hash[:], raw[2:34])
	return Address{int32(int8(raw[1])), hash}, nil
}

// MustParseAddress parses address, panic on error.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// crc16 is CRC-16/XMODEM, as used by the user-friendly address form.
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for range 8 {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
