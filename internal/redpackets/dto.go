package redpackets

import (
	"time"

	"github.com/chatwave/chat-backend/pkg/enums"
	"github.com/chatwave/chat-backend/pkg/pagination"
)

// IssueRequest describes a new red packet. ToUser and GroupID are zero when unset.
type IssueRequest struct {
	Type        enums.RedPacketType
	TotalAmount int64
	ShareCount  int
	Remark      string
	ToUser      int64
	GroupID     int64
}

type IssueResult struct {
	ID int64 `json:"id"`
}

type StatusResult struct {
	ID     int64                 `json:"id"`
	Stock  int                   `json:"stock"`
	Status enums.RedPacketStatus `json:"status"`
}

type ClaimResult struct {
	ID         int64 `json:"id"`
	Amount     int64 `json:"amount"`
	ShareCount int   `json:"share_count"`
	Stock      int   `json:"stock"`
}

// Record is one successful claim of a packet.
type Record struct {
	UserID    int64     `json:"user_id"`
	Nickname  string    `json:"nickname"`
	Avatar    string    `json:"avatar"`
	Amount    int64     `json:"amount"`
	ClaimedAt time.Time `json:"claimed_at"`
}

type RecordsResult struct {
	PageInfo pagination.PageInfo `json:"page_info"`
	Items    []Record            `json:"items"`
}

// RefundSummary reports what a refund sweep did.
type RefundSummary struct {
	Scanned  int   `json:"scanned"`
	Refunded int   `json:"refunded"`
	Skipped  int   `json:"skipped"`
	Amount   int64 `json:"amount"`
}
