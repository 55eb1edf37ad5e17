package memberships

import (
	"context"

	"github.com/chatwave/chat-backend/internal/repo"
	"github.com/chatwave/chat-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads the friend and group tables owned by the chat service.
type Repository struct {
	repo.Base
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// IsFriend reports whether owner lists friend as a contact.
func (r *Repository) IsFriend(ctx context.Context, owner, friend int64) (bool, error) {
	return r.Exists(ctx, &models.Friend{}, "owner = ? AND friend = ?", owner, friend)
}

// IsGroupMember reports whether userID belongs to groupID.
func (r *Repository) IsGroupMember(ctx context.Context, groupID, userID int64) (bool, error) {
	return r.Exists(ctx, &models.GroupUser{}, "group_id = ? AND user_id = ?", groupID, userID)
}

// CountGroupMembers returns the number of members in groupID.
func (r *Repository) CountGroupMembers(ctx context.Context, groupID int64) (int64, error) {
	return r.Count(ctx, &models.GroupUser{}, "group_id = ?", groupID)
}
