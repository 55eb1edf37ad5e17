package models

import (
	"time"

	"github.com/chatwave/chat-backend/pkg/enums"
)

// RedPacket is an issued pool of money split into a fixed number of shares.
type RedPacket struct {
	ID             int64               `gorm:"primaryKey;autoIncrement"`
	FromUser       int64               `gorm:"column:from_user;not null;index"`
	ToUser         int64               `gorm:"column:to_user;not null;default:0"`
	GroupID        int64               `gorm:"column:group_id;not null;default:0"`
	Type           enums.RedPacketType `gorm:"column:type;type:varchar(16);not null"`
	TotalAmount    int64               `gorm:"column:total_amount;not null;check:chk_red_packets_total_positive,total_amount > 0"`
	ShareCount     int                 `gorm:"column:share_count;not null"`
	Stock          int                 `gorm:"column:stock;not null;check:chk_red_packets_stock_non_negative,stock >= 0"`
	Remark         string              `gorm:"column:remark;type:varchar(255);not null"`
	OverdueAt      time.Time           `gorm:"column:overdue_at;not null;index"`
	RefundedAmount int64               `gorm:"column:refunded_amount;not null;default:0"`
	RefundedAt     *time.Time          `gorm:"column:refunded_at"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// IsGroup reports whether the packet was sent into a group conversation.
func (p RedPacket) IsGroup() bool {
	return p.GroupID != 0
}
