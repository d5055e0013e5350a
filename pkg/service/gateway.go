package service

import "context"

// GatewayService pushes engine snapshots out to connected clients. The engine
// never talks to sockets directly; it hands each snapshot to the gateway.
type GatewayService interface {
	// Broadcast sends an event to every connected client.
	Broadcast(ctx context.Context, channel string, event interface{}) error

	// SendToUser sends an event to a single connected user, if online.
	SendToUser(ctx context.Context, userID int64, channel string, event interface{}) error
}
