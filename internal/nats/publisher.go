package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"sudooom.switcher/pkg/proto"
)

// EventPublisher 游戏事件发布器
type EventPublisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewEventPublisher 创建事件发布器
func NewEventPublisher(nc *nats.Conn) *EventPublisher {
	return &EventPublisher{
		nc:     nc,
		logger: slog.Default().With("component", "EventPublisher"),
	}
}

// buildEvent 组装事件，payload 序列化为 JSON
func buildEvent(gameID, eventType string, payload any) (*proto.GameEvent, error) {
	event := &proto.GameEvent{
		Id:        uuid.NewString(),
		Type:      eventType,
		GameId:    gameID,
		Timestamp: time.Now().UnixMilli(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		event.Payload = data
	}
	return event, nil
}

// Publish 发布一条游戏事件到该局的事件 Subject
// ctx 已取消或超时时不再发布
func (p *EventPublisher) Publish(ctx context.Context, gameID, eventType string, payload any) error {
	if err := ctx.Err(); err != nil {
		p.logger.Warn("Skip publishing event", "gameId", gameID, "event", eventType, "error", err)
		return err
	}
	event, err := buildEvent(gameID, eventType, payload)
	if err != nil {
		p.logger.Error("Failed to build event", "gameId", gameID, "event", eventType, "error", err)
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(BuildGameEventsSubject(gameID))
	msg.Header.Set(HeaderMsgID, event.Id)
	msg.Data = data

	if err := p.nc.PublishMsg(msg); err != nil {
		p.logger.Error("Failed to publish event", "gameId", gameID, "event", eventType, "error", err)
		return err
	}

	p.logger.Debug("Published game event", "gameId", gameID, "event", eventType, "eventId", event.Id)
	return nil
}
