package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/transit-rewards/internal/config"
	"github.com/spec-kit/transit-rewards/internal/events"
)

// NotificationService turns domain events into user notifications,
// published on per-user Redis channels for the frontend gateway to
// stream out.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  *redis.Client
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service. publisher may be nil,
// in which case notifications are only logged.
func NewNotificationService(dispatcher events.Dispatcher, publisher *redis.Client, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventReportVerified, n.handleReportVerified)
	n.dispatcher.Subscribe(events.EventReportRejected, n.handleReportRejected)
	n.dispatcher.Subscribe(events.EventLevelUp, n.handleLevelUp)
	n.dispatcher.Subscribe(events.EventTicketActivated, n.handleTicketActivated)
}

// Notification is the payload pushed to a user's channel.
type Notification struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (n *NotificationService) handleReportVerified(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReportVerifiedPayload)
	if !ok {
		return nil
	}
	return n.push(ctx, event.UserID, Notification{
		Type:    "report_verified",
		Title:   "Report Verified",
		Message: fmt.Sprintf("Your delay report was verified. You now have %d verified reports.", payload.TotalVerified),
	})
}

func (n *NotificationService) handleReportRejected(ctx context.Context, event events.Event) error {
	return n.push(ctx, event.UserID, Notification{
		Type:    "report_rejected",
		Title:   "Report Rejected",
		Message: "Your delay report could not be confirmed.",
	})
}

func (n *NotificationService) handleLevelUp(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.LevelUpPayload)
	if !ok {
		return nil
	}
	msg := fmt.Sprintf("You reached level %d", payload.NewLevel)
	if len(payload.Tickets) > 0 {
		msg += fmt.Sprintf(" and earned a %d-day free-ride ticket", payload.Tickets[len(payload.Tickets)-1].Days)
	}
	return n.push(ctx, event.UserID, Notification{
		Type:    "level_up",
		Title:   "Level Up!",
		Message: msg + ".",
	})
}

func (n *NotificationService) handleTicketActivated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketActivatedPayload)
	if !ok {
		return nil
	}
	msg := fmt.Sprintf("Your %d-day ticket is now active", payload.Days)
	if payload.ExpiryDate != nil {
		msg += " until " + payload.ExpiryDate.Format("2006-01-02")
	}
	return n.push(ctx, event.UserID, Notification{
		Type:    "ticket_activated",
		Title:   "Ticket Activated",
		Message: msg + ".",
	})
}

func (n *NotificationService) push(ctx context.Context, userID string, notification Notification) error {
	if userID == "" {
		return nil
	}
	if notification.Timestamp.IsZero() {
		notification.Timestamp = time.Now()
	}

	n.logger.Info("notify",
		zap.String("user_id", userID),
		zap.String("type", notification.Type),
		zap.String("message", notification.Message))

	if n.publisher == nil || strings.TrimSpace(n.cfg.ChannelPrefix) == "" {
		return nil
	}
	raw, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	if err := n.publisher.Publish(ctx, n.cfg.ChannelPrefix+userID, raw).Err(); err != nil {
		n.logger.Warn("notification publish failed", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}
