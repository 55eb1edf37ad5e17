package controllers

import (
	"net/http"
	"time"

	"github.com/chatwave/chat-backend/api/middleware"
	"github.com/chatwave/chat-backend/api/responses"
	"github.com/chatwave/chat-backend/api/validators"
	"github.com/chatwave/chat-backend/internal/redpackets"
	"github.com/chatwave/chat-backend/pkg/enums"
	pkgerrors "github.com/chatwave/chat-backend/pkg/errors"
	"github.com/chatwave/chat-backend/pkg/logger"
	"github.com/chatwave/chat-backend/pkg/pagination"
	"github.com/chatwave/chat-backend/pkg/types"
)

const packetIDParam = "packetId"

type issueRedPacketRequest struct {
	Type        string `json:"type" validate:"required,oneof=normal lucky belong"`
	TotalAmount int64  `json:"total_amount" validate:"gt=0"`
	ShareCount  int    `json:"share_count" validate:"gte=1,lte=1000"`
	Remark      string `json:"remark" validate:"max=64"`
	ToUser      int64  `json:"to_user" validate:"gte=0"`
	GroupID     int64  `json:"group_id" validate:"gte=0"`
}

type redPacketStatusResponse struct {
	ID         int64  `json:"id"`
	Stock      int    `json:"stock"`
	Status     int    `json:"status"`
	StatusName string `json:"status_name"`
}

type claimResponse struct {
	ID            int64  `json:"id"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	ShareCount    int    `json:"share_count"`
	Stock         int    `json:"stock"`
}

type claimRecordResponse struct {
	UserID        int64  `json:"user_id"`
	Nickname      string `json:"nickname"`
	Avatar        string `json:"avatar"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	ClaimedAt     string `json:"claimed_at"`
}

type claimRecordsResponse struct {
	PageInfo pagination.PageInfo   `json:"page_info"`
	Items    []claimRecordResponse `json:"items"`
}

// requireUser resolves the caller or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (int64, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return 0, false
	}
	return userID, true
}

func serviceMissing(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "red packet service unavailable"))
}

// IssueRedPacket debits the caller and creates a packet for a friend or a group.
func IssueRedPacket(svc redpackets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceMissing(w, r, logg)
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var req issueRedPacketRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Issue(r.Context(), userID, redpackets.IssueRequest{
			Type:        enums.RedPacketType(req.Type),
			TotalAmount: req.TotalAmount,
			ShareCount:  req.ShareCount,
			Remark:      req.Remark,
			ToUser:      req.ToUser,
			GroupID:     req.GroupID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// RedPacketStatus reports how the packet looks to the caller.
func RedPacketStatus(svc redpackets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceMissing(w, r, logg)
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		packetID, err := validators.ParsePathID(r, packetIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Status(r.Context(), packetID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, redPacketStatusResponse{
			ID:         result.ID,
			Stock:      result.Stock,
			Status:     int(result.Status),
			StatusName: result.Status.String(),
		})
	}
}

func ClaimRedPacket(svc redpackets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceMissing(w, r, logg)
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		packetID, err := validators.ParsePathID(r, packetIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Claim(r.Context(), packetID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, claimResponse{
			ID:            result.ID,
			Amount:        result.Amount,
			AmountDisplay: types.FormatMinorUnits(result.Amount),
			ShareCount:    result.ShareCount,
			Stock:         result.Stock,
		})
	}
}

// RedPacketRecords lists who claimed the packet, largest share first.
func RedPacketRecords(svc redpackets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceMissing(w, r, logg)
			return
		}
		if _, ok := requireUser(w, r, logg); !ok {
			return
		}
		packetID, err := validators.ParsePathID(r, packetIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListRecords(r.Context(), packetID, page, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]claimRecordResponse, 0, len(result.Items))
		for _, record := range result.Items {
			items = append(items, claimRecordResponse{
				UserID:        record.UserID,
				Nickname:      record.Nickname,
				Avatar:        record.Avatar,
				Amount:        record.Amount,
				AmountDisplay: types.FormatMinorUnits(record.Amount),
				ClaimedAt:     record.ClaimedAt.UTC().Format(time.DateTime),
			})
		}
		responses.WriteSuccess(w, claimRecordsResponse{PageInfo: result.PageInfo, Items: items})
	}
}
