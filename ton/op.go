// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ton

// Inbound operation codes.
const (
	OpSetCustomSlot   uint32 = 0x53657443 // "SetC"
	OpNewVoting       uint32 = 0x6e565052 // "nVPR"
	OpVote            uint32 = 0x566f7445 // "VotE"
	OpNewValidatorSet uint32 = 0x4e565354 // "NVST"
)

// Outbound notices.
const (
	OpCustomSlotAccepted       uint32 = 0xd3657443
	OpCustomSlotRejected       uint32 = 0xf3657443
	OpNewVotingCreated         uint32 = 0xee565052
	OpNewVotingRejected        uint32 = 0xfe565052
	OpCustomSlotVotingRejected uint32 = 0xce565052
	OpVoteProcessed            uint32 = 0xd6745240
	OpValidatorSetAccepted     uint32 = 0xee764f4b
	OpValidatorSetRejected     uint32 = 0xee764f6f
	OpUpgradeCode              uint32 = 0x4e436f64 // "NCod", sent to the elector
	OpUnknown                  uint32 = 0xffffffff
)

// OpResponseBit marks an op code as a response; such messages are never answered.
const OpResponseBit uint32 = 1 << 31

// Reasons carried by OpNewVotingRejected.
const (
	RejectExpireRange   uint32 = 1
	RejectNotCritical   uint32 = 2
	RejectHashMismatch  uint32 = 3
	RejectAlreadyExists uint32 = 4
	RejectInvalidValue  uint32 = 5
)
