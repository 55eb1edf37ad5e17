package redpackets

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/chatwave/chat-backend/internal/notifications"
	"github.com/chatwave/chat-backend/internal/wallet"
	"github.com/chatwave/chat-backend/pkg/db/models"
	"github.com/chatwave/chat-backend/pkg/enums"
	pkgerrors "github.com/chatwave/chat-backend/pkg/errors"
	"gorm.io/gorm"
)

func invalid(msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg)
}

// normalize applies the private-chat rewrite and checks the request shape.
func (s *service) normalize(issuerID int64, req IssueRequest) (IssueRequest, error) {
	if issuerID <= 0 {
		return req, invalid("issuer is required")
	}
	if req.ToUser != 0 && req.GroupID == 0 {
		req.Type = enums.RedPacketTypeBelong
		req.ShareCount = 1
	}
	switch {
	case !req.Type.IsValid():
		return req, invalid("unknown red packet type")
	case req.Type.IsExclusive() && req.ShareCount != 1:
		return req, invalid("an exclusive red packet has exactly one share")
	case req.Type.IsExclusive() && req.ToUser == 0:
		return req, invalid("an exclusive red packet needs a recipient")
	case req.ToUser != 0 && req.ShareCount != 1:
		return req, invalid("a red packet for one user has exactly one share")
	case req.TotalAmount <= 0:
		return req, invalid("total amount must be positive")
	case req.ShareCount < 1:
		return req, invalid("share count must be at least 1")
	case req.TotalAmount/int64(req.ShareCount) < 1:
		return req, invalid("every share must be at least 0.01")
	}

	req.Remark = strings.TrimSpace(req.Remark)
	if req.Remark == "" {
		req.Remark = s.cfg.DefaultRemark
	}
	if s.cfg.MaxRemarkRunes > 0 && utf8.RuneCountInString(req.Remark) > s.cfg.MaxRemarkRunes {
		return req, invalid("remark is too long")
	}
	return req, nil
}

// checkAudience validates the issuer's relation to the recipient user or group.
// A packet with neither is open to the issuer's friends and needs no check here.
func (s *service) checkAudience(ctx context.Context, issuerID int64, req IssueRequest) error {
	if req.GroupID == 0 && req.ToUser == 0 {
		return nil
	}
	if req.GroupID == 0 {
		if s.members.IsAssistant(req.ToUser) {
			return invalid("cannot send a red packet to an assistant")
		}
		ok, err := s.members.IsFriend(ctx, issuerID, req.ToUser)
		if err != nil {
			return err
		}
		if !ok {
			return invalid("recipient is not a friend")
		}
		return nil
	}

	ok, err := s.members.IsGroupMember(ctx, req.GroupID, issuerID)
	if err != nil {
		return err
	}
	if !ok {
		return invalid("issuer is not a member of the group")
	}
	if req.ToUser != 0 {
		ok, err := s.members.IsGroupMember(ctx, req.GroupID, req.ToUser)
		if err != nil {
			return err
		}
		if !ok {
			return invalid("recipient is not a member of the group")
		}
	}
	members, err := s.members.GroupMemberCount(ctx, req.GroupID)
	if err != nil {
		return err
	}
	if int64(req.ShareCount) > members {
		return invalid("share count exceeds the number of group members")
	}
	return nil
}

func (s *service) Issue(ctx context.Context, issuerID int64, req IssueRequest) (*IssueResult, error) {
	ctx = s.logg.WithUserID(ctx, issuerID)

	req, err := s.normalize(issuerID, req)
	if err != nil {
		return nil, err
	}
	if err := s.checkAudience(ctx, issuerID, req); err != nil {
		return nil, err
	}

	now := s.now()
	packet := &models.RedPacket{
		FromUser:    issuerID,
		ToUser:      req.ToUser,
		GroupID:     req.GroupID,
		Type:        req.Type,
		TotalAmount: req.TotalAmount,
		ShareCount:  req.ShareCount,
		Stock:       req.ShareCount,
		Remark:      req.Remark,
		OverdueAt:   now.Add(s.cfg.Lifetime),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, packet); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create red packet")
		}
		_, err := s.wallet.WithTx(tx).Debit(ctx, wallet.Change{
			UserID: issuerID,
			Amount: req.TotalAmount,
			Kind:   enums.MoneyFlowTypeRedPacket,
			RefID:  packet.ID,
			Remark: remarkIssued,
		})
		return err
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue red packet")
		}
		return nil, err
	}

	ctx = s.logg.WithPacketID(ctx, packet.ID)
	if err := s.seed(ctx, packet); err != nil {
		s.metrics.IncSeedFailure()
		s.logg.Error(s.logg.WithField(ctx, "alert", "red_packet_pool_seed_failed"), "red packet committed without share pool", err)
	}
	s.metrics.IncIssued(string(packet.Type))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"type":        packet.Type,
		"share_count": packet.ShareCount,
		"group_id":    packet.GroupID,
	}), "red packet issued")

	event := notifications.Event{
		Type:     notifications.EventRedPacketIssued,
		PacketID: packet.ID,
		FromUser: issuerID,
		ToUser:   packet.ToUser,
		GroupID:  packet.GroupID,
		Stock:    packet.Stock,
		Remark:   packet.Remark,
	}
	switch {
	case packet.IsGroup():
		s.notifyGroup(ctx, packet.GroupID, event)
	case packet.ToUser != 0:
		s.notifyUser(ctx, packet.ToUser, event)
	}

	return &IssueResult{ID: packet.ID}, nil
}

// seed splits the committed total into shares and loads them into the pool.
func (s *service) seed(ctx context.Context, packet *models.RedPacket) error {
	shares, err := s.allocator.Split(packet.TotalAmount, packet.ShareCount)
	if err != nil {
		return err
	}
	return s.pool.Seed(ctx, packet.ID, shares, packet.OverdueAt)
}
