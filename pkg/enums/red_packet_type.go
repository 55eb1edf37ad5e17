package enums

import "fmt"

// RedPacketType maps to red_packets.type.
type RedPacketType string

const (
	RedPacketTypeNormal RedPacketType = "normal"
	RedPacketTypeLucky  RedPacketType = "lucky"
	RedPacketTypeBelong RedPacketType = "belong"
)

var validRedPacketTypes = []RedPacketType{
	RedPacketTypeNormal,
	RedPacketTypeLucky,
	RedPacketTypeBelong,
}

// IsValid reports whether the value matches a known red packet type.
func (t RedPacketType) IsValid() bool {
	for _, candidate := range validRedPacketTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsExclusive reports whether only a single named recipient may claim the packet.
func (t RedPacketType) IsExclusive() bool {
	return t == RedPacketTypeBelong
}

// ParseRedPacketType converts raw input into RedPacketType.
func ParseRedPacketType(value string) (RedPacketType, error) {
	for _, candidate := range validRedPacketTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid red packet type %q", value)
}
