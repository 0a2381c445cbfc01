// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cell

import (
	"github.com/tonconfig/confignode/ton"
)

// MsgAddress is any message address form as it appears in a cell.
type MsgAddress struct {
	Kind      ton.AddressKind
	Anycast   bool
	Workchain int32
	Bits      []byte
	BitLen    int
}

// StdMsgAddress wraps a as an addr_std.
func StdMsgAddress(a ton.Address) MsgAddress {
	return MsgAddress{Kind: ton.AddrStd, Workchain: a.Workchain, Bits: a.Hash.Bytes(), BitLen: 256}
}

// Std returns the standard address if m is a plain addr_std.
// Anycast and variable-length forms are not standard.
func (m MsgAddress) Std() (ton.Address, bool) {
	if m.Kind != ton.AddrStd || m.Anycast || m.BitLen != 256 {
		return ton.Address{}, false
	}
	var hash ton.Bytes32
	copy(hash[:], m.Bits)
	return ton.NewAddress(m.Workchain, hash), true
}

// StoreAddress stores a plain addr_std.
func (b *Builder) StoreAddress(a ton.Address) *Builder {
	return b.StoreUint(0b100, 3).StoreInt(int64(a.Workchain), 8).StoreBytes32(a.Hash)
}

// StoreAddressNone stores addr_none.
func (b *Builder) StoreAddressNone() *Builder {
	return b.StoreUint(0, 2)
}

// StoreMsgAddress stores any address form.
func (b *Builder) StoreMsgAddress(m MsgAddress) *Builder {
	switch m.Kind {
	case ton.AddrNone:
		return b.StoreUint(0, 2)
	case ton.AddrExtern:
		return b.StoreUint(0b01, 2).StoreUint(uint64(m.BitLen), 9).StoreBits(m.Bits, m.BitLen)
	case ton.AddrStd:
		return b.StoreUint(0b10, 2).StoreBit(false).StoreInt(int64(m.Workchain), 8).StoreBits(m.Bits, 256)
	case ton.AddrVar:
		return b.StoreUint(0b11, 2).StoreBit(false).StoreUint(uint64(m.BitLen), 9).
			StoreInt(int64(m.Workchain), 32).StoreBits(m.Bits, m.BitLen)
	}
	return b.fail(ErrBadAddress)
}

// LoadMsgAddress reads any address form:
//
//	addr_none$00
//	addr_extern$01 len:(## 9) external_address:(bits len)
//	addr_std$10 anycast:(Maybe Anycast) workchain_id:int8 address:bits256
//	addr_var$11 anycast:(Maybe Anycast) addr_len:(## 9) workchain_id:int32 address:(bits addr_len)
func (s *Slice) LoadMsgAddress() (MsgAddress, error) {
	tag, err := s.LoadUint(2)
	if err != nil {
		return MsgAddress{}, ErrBadAddress
	}
	m := MsgAddress{Kind: ton.AddressKind(tag)}
	switch m.Kind {
	case ton.AddrNone:
		return m, nil
	case ton.AddrExtern:
		n, err := s.LoadUint(9)
		if err != nil {
			return MsgAddress{}, ErrBadAddress
		}
		if m.Bits, err = s.LoadBits(int(n)); err != nil {
			return MsgAddress{}, ErrBadAddress
		}
		m.BitLen = int(n)
		return m, nil
	}

	if m.Anycast, err = s.loadAnycast(); err != nil {
		return MsgAddress{}, ErrBadAddress
	}
	if m.Kind == ton.AddrStd {
		wc, err := s.LoadInt(8)
		if err != nil {
			return MsgAddress{}, ErrBadAddress
		}
		m.Workchain, m.BitLen = int32(wc), 256
	} else {
		n, err := s.LoadUint(9)
		if err != nil {
			return MsgAddress{}, ErrBadAddress
		}
		wc, err := s.LoadInt(32)
		if err != nil {
			return MsgAddress{}, ErrBadAddress
		}
		m.Workchain, m.BitLen = int32(wc), int(n)
	}
	if m.Bits, err = s.LoadBits(m.BitLen); err != nil {
		return MsgAddress{}, ErrBadAddress
	}
	return m, nil
}

// anycast_info$_ depth:(#<= 30) { depth >= 1 } rewrite_pfx:(bits depth)
func (s *Slice) loadAnycast() (bool, error) {
	present, err := s.LoadBit()
	if err != nil || !present {
		return false, err
	}
	depth, err := s.LoadUint(5)
	if err != nil {
		return false, err
	}
	if depth < 1 || depth > 30 {
		return false, ErrBadAddress
	}
	if _, err := s.LoadBits(int(depth)); err != nil {
		return false, err
	}
	return true, nil
}

// LoadAddress reads an address that must be a plain addr_std.
func (s *Slice) LoadAddress() (ton.Address, error) {
	m, err := s.LoadMsgAddress()
	if err != nil {
		return ton.Address{}, err
	}
	addr, ok := m.Std()
	if !ok {
		return ton.Address{}, ErrBadAddress
	}
	return addr, nil
}
