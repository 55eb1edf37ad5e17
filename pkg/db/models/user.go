package models

import "time"

// User is the chat account. Only the balance column is written by this service.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Nickname  string    `gorm:"column:nickname;type:varchar(64);not null;default:''"`
	Avatar    string    `gorm:"column:avatar;type:varchar(255);not null;default:''"`
	Balance   int64     `gorm:"column:balance;not null;default:0;check:chk_users_balance_non_negative,balance >= 0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
