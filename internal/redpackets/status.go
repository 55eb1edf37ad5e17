package redpackets

import (
	"time"

	"github.com/chatwave/chat-backend/pkg/db/models"
	"github.com/chatwave/chat-backend/pkg/enums"
)

// Resolve derives the status a viewer sees. Conditions are checked in a fixed
// order and the first match wins.
func Resolve(packet models.RedPacket, viewerID int64, viewerHasClaimed bool, now time.Time) enums.RedPacketStatus {
	switch {
	case viewerHasClaimed:
		return enums.RedPacketStatusAlreadyClaimed
	case packet.FromUser == viewerID && packet.Stock <= 0:
		return enums.RedPacketStatusFullyClaimedByOthers
	case now.After(packet.OverdueAt):
		return enums.RedPacketStatusExpired
	case packet.Type.IsExclusive() && packet.ToUser != 0 && packet.ToUser != viewerID:
		return enums.RedPacketStatusNotClaimable
	case packet.Stock <= 0:
		return enums.RedPacketStatusSoldOut
	default:
		return enums.RedPacketStatusClaimable
	}
}
