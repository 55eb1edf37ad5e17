package models

import (
	"time"

	"github.com/chatwave/chat-backend/pkg/enums"
)

// MoneyFlowLog is an append-only ledger row. A red packet credit for a given
// (packet, user) pair may exist at most once.
type MoneyFlowLog struct {
	ID           int64                `gorm:"primaryKey;autoIncrement"`
	Type         enums.MoneyFlowType  `gorm:"column:type;type:varchar(32);not null;index:idx_money_flow_logs_ref,priority:1;uniqueIndex:uq_money_flow_logs_red_packet_claim,priority:1,where:type = 'red_packet' AND change_type = 'incr'"`
	FromID       int64                `gorm:"column:from_id;not null;default:0;index:idx_money_flow_logs_ref,priority:2;uniqueIndex:uq_money_flow_logs_red_packet_claim,priority:2"`
	UserID       int64                `gorm:"column:user_id;not null;index;uniqueIndex:uq_money_flow_logs_red_packet_claim,priority:3"`
	Amount       int64                `gorm:"column:amount;not null"`
	ChangeType   enums.MoneyDirection `gorm:"column:change_type;type:varchar(8);not null"`
	BalanceAfter int64                `gorm:"column:balance_after;not null"`
	Remark       string               `gorm:"column:remark;type:varchar(255);not null;default:''"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`

	User *User `gorm:"foreignKey:UserID;references:ID"`
}
