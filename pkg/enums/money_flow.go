package enums

import "fmt"

// MoneyFlowType is the kind of money movement recorded in money_flow_logs.type.
type MoneyFlowType string

const (
	MoneyFlowTypeRedPacket       MoneyFlowType = "red_packet"
	MoneyFlowTypeRedPacketRefund MoneyFlowType = "red_packet_refund"
	MoneyFlowTypeRecharge        MoneyFlowType = "recharge"
	MoneyFlowTypeTransfer        MoneyFlowType = "transfer"
)

var validMoneyFlowTypes = []MoneyFlowType{
	MoneyFlowTypeRedPacket,
	MoneyFlowTypeRedPacketRefund,
	MoneyFlowTypeRecharge,
	MoneyFlowTypeTransfer,
}

func (t MoneyFlowType) IsValid() bool {
	for _, candidate := range validMoneyFlowTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// MoneyDirection maps to money_flow_logs.change_type.
type MoneyDirection string

const (
	MoneyDirectionIncr MoneyDirection = "incr"
	MoneyDirectionDecr MoneyDirection = "decr"
)

func (d MoneyDirection) IsValid() bool {
	return d == MoneyDirectionIncr || d == MoneyDirectionDecr
}

// ParseMoneyDirection converts raw input into MoneyDirection.
func ParseMoneyDirection(value string) (MoneyDirection, error) {
	d := MoneyDirection(value)
	if !d.IsValid() {
		return "", fmt.Errorf("invalid money direction %q", value)
	}
	return d, nil
}
