package models

// Friend is one direction of a friendship; both directions are stored.
type Friend struct {
	OwnerID  int64 `gorm:"column:owner;primaryKey;autoIncrement:false"`
	FriendID int64 `gorm:"column:friend;primaryKey;autoIncrement:false"`
}

// GroupUser records membership of a user in a group chat.
type GroupUser struct {
	GroupID int64 `gorm:"column:group_id;primaryKey;autoIncrement:false"`
	UserID  int64 `gorm:"column:user_id;primaryKey;autoIncrement:false;index"`
}
