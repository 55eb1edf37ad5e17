// Package dbtest opens throwaway sqlite databases carrying the full schema.
package dbtest

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chatwave/chat-backend/pkg/db/models"
)

// Open returns an isolated in-memory database. The pool is pinned to a single
// connection so every query sees the same memory database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return conn
}

// SeedUser inserts a user with the given balance and returns its id.
func SeedUser(t testing.TB, conn *gorm.DB, nickname string, balance int64) int64 {
	t.Helper()
	user := models.User{Nickname: nickname, Avatar: nickname + ".png", Balance: balance}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", nickname, err)
	}
	return user.ID
}

// Befriend stores both directions of a friendship.
func Befriend(t testing.TB, conn *gorm.DB, a, b int64) {
	t.Helper()
	rows := []models.Friend{{OwnerID: a, FriendID: b}, {OwnerID: b, FriendID: a}}
	if err := conn.Create(&rows).Error; err != nil {
		t.Fatalf("befriend %d/%d: %v", a, b, err)
	}
}

// JoinGroup adds users to a group.
func JoinGroup(t testing.TB, conn *gorm.DB, groupID int64, userIDs ...int64) {
	t.Helper()
	for _, id := range userIDs {
		if err := conn.Create(&models.GroupUser{GroupID: groupID, UserID: id}).Error; err != nil {
			t.Fatalf("join group %d: %v", groupID, err)
		}
	}
}

// Balance reads a user's balance.
func Balance(t testing.TB, conn *gorm.DB, userID int64) int64 {
	t.Helper()
	var user models.User
	if err := conn.First(&user, userID).Error; err != nil {
		t.Fatalf("load user %d: %v", userID, err)
	}
	return user.Balance
}
