package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Hermela440/game/internal/modules/gateway/ws"
	"github.com/Hermela440/game/pkg/logger"
)

// Envelope is the wire format for every pushed event
type Envelope struct {
	Channel   string      `json:"channel"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// GatewayUseCase implements service.GatewayService over the ws manager
type GatewayUseCase struct {
	manager *ws.Manager
}

// NewGatewayUseCase wires the gateway module
func NewGatewayUseCase(manager *ws.Manager) *GatewayUseCase {
	return &GatewayUseCase{manager: manager}
}

// Manager exposes the connection manager to the transport layer
func (uc *GatewayUseCase) Manager() *ws.Manager {
	return uc.manager
}

// Broadcast pushes an event to every subscriber of the channel
func (uc *GatewayUseCase) Broadcast(ctx context.Context, channel string, event interface{}) error {
	message, err := uc.encode(channel, event)
	if err != nil {
		return err
	}
	uc.manager.Broadcast(channel, message)
	logger.Debug(ctx).
		Str("channel", channel).
		Int("bytes", len(message)).
		Msg("event broadcast")
	return nil
}

// SendToUser pushes an event to one connected user
func (uc *GatewayUseCase) SendToUser(ctx context.Context, userID int64, channel string, event interface{}) error {
	message, err := uc.encode(channel, event)
	if err != nil {
		return err
	}
	if !uc.manager.SendToUser(userID, message) {
		logger.Debug(ctx).
			Int64("user_id", userID).
			Str("channel", channel).
			Msg("user not connected, event dropped")
	}
	return nil
}

func (uc *GatewayUseCase) encode(channel string, event interface{}) ([]byte, error) {
	message, err := json.Marshal(Envelope{
		Channel:   channel,
		Timestamp: time.Now().UnixMilli(),
		Payload:   event,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding event for %s: %w", channel, err)
	}
	return message, nil
}
