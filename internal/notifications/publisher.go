package notifications

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chatwave/chat-backend/pkg/logger"
)

// Event types relayed to connected clients by the chat gateway.
const (
	EventRedPacketIssued  = "red_packet.issued"
	EventRedPacketClaimed = "red_packet.claimed"
)

// Event is the JSON payload published for a red packet change.
type Event struct {
	Type       string    `json:"type"`
	PacketID   int64     `json:"red_packet_id"`
	FromUser   int64     `json:"from_user"`
	ToUser     int64     `json:"to_user,omitempty"`
	GroupID    int64     `json:"group_id,omitempty"`
	ClaimantID int64     `json:"claimant_id,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	Stock      int       `json:"stock"`
	Remark     string    `json:"remark,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type publisherStore interface {
	Publish(ctx context.Context, channel string, payload any) error
	UserChannel(userID int64) string
	GroupChannel(groupID int64) string
}

// Publisher pushes events to the gateway's pub/sub channels. Delivery is best effort:
// failures are logged and never returned to the caller.
type Publisher struct {
	store publisherStore
	logg  *logger.Logger
}

func NewPublisher(store publisherStore, logg *logger.Logger) *Publisher {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Publisher{store: store, logg: logg}
}

// NotifyUser publishes event on the user's private channel.
func (p *Publisher) NotifyUser(ctx context.Context, userID int64, event Event) {
	if p == nil || p.store == nil {
		return
	}
	p.publish(ctx, p.store.UserChannel(userID), event)
}

// NotifyGroup publishes event on the group's channel.
func (p *Publisher) NotifyGroup(ctx context.Context, groupID int64, event Event) {
	if p == nil || p.store == nil {
		return
	}
	p.publish(ctx, p.store.GroupChannel(groupID), event)
}

func (p *Publisher) publish(ctx context.Context, channel string, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logg.Error(ctx, "encode notification", err)
		return
	}
	if err := p.store.Publish(ctx, channel, payload); err != nil {
		ctx = p.logg.WithFields(ctx, map[string]any{"channel": channel, "event": event.Type})
		p.logg.Warn(ctx, "notification publish failed: "+err.Error())
	}
}
