package memberships

import (
	"context"

	pkgerrors "github.com/chatwave/chat-backend/pkg/errors"
)

type store interface {
	IsFriend(ctx context.Context, owner, friend int64) (bool, error)
	IsGroupMember(ctx context.Context, groupID, userID int64) (bool, error)
	CountGroupMembers(ctx context.Context, groupID int64) (int64, error)
}

// Checker answers the social predicates red packets depend on.
type Checker struct {
	store      store
	assistants map[int64]struct{}
}

// NewChecker builds a Checker. assistantIDs are the accounts driven by AI assistants.
func NewChecker(repo store, assistantIDs []int64) (*Checker, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "memberships repository required")
	}
	assistants := make(map[int64]struct{}, len(assistantIDs))
	for _, id := range assistantIDs {
		assistants[id] = struct{}{}
	}
	return &Checker{store: repo, assistants: assistants}, nil
}

func (c *Checker) IsFriend(ctx context.Context, a, b int64) (bool, error) {
	ok, err := c.store.IsFriend(ctx, a, b)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check friendship")
	}
	return ok, nil
}

func (c *Checker) IsGroupMember(ctx context.Context, groupID, userID int64) (bool, error) {
	ok, err := c.store.IsGroupMember(ctx, groupID, userID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check group membership")
	}
	return ok, nil
}

func (c *Checker) GroupMemberCount(ctx context.Context, groupID int64) (int64, error) {
	n, err := c.store.CountGroupMembers(ctx, groupID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count group members")
	}
	return n, nil
}

// IsAssistant reports whether userID is one of the AI assistant accounts.
func (c *Checker) IsAssistant(userID int64) bool {
	_, ok := c.assistants[userID]
	return ok
}
