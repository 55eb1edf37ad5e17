package enums

// RedPacketStatus is the display status a viewer sees for a red packet.
// The numeric values are part of the client contract.
type RedPacketStatus int

const (
	RedPacketStatusClaimable            RedPacketStatus = 1
	RedPacketStatusFullyClaimedByOthers RedPacketStatus = -1
	RedPacketStatusAlreadyClaimed       RedPacketStatus = -2
	RedPacketStatusExpired              RedPacketStatus = -3
	RedPacketStatusNotClaimable         RedPacketStatus = -4
	RedPacketStatusSoldOut              RedPacketStatus = -5
)

var redPacketStatusNames = map[RedPacketStatus]string{
	RedPacketStatusClaimable:            "claimable",
	RedPacketStatusFullyClaimedByOthers: "fully_claimed",
	RedPacketStatusAlreadyClaimed:       "already_claimed",
	RedPacketStatusExpired:              "expired",
	RedPacketStatusNotClaimable:         "not_claimable",
	RedPacketStatusSoldOut:              "sold_out",
}

func (s RedPacketStatus) String() string {
	if name, ok := redPacketStatusNames[s]; ok {
		return name
	}
	return "unknown"
}
