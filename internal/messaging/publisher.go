package messaging

import (
	"context"
	"fmt"

	"github.com/pixil98/go-realm/internal/world"
)

// BroadcastPublisher fans world broadcasts out to per-player NATS subjects.
// Gateways subscribe to the subject of each connected player and forward
// the payloads onto the wire.
type BroadcastPublisher struct {
	server *NatsServer
}

func NewBroadcastPublisher(server *NatsServer) *BroadcastPublisher {
	return &BroadcastPublisher{server: server}
}

func (p *BroadcastPublisher) Publish(ctx context.Context, broadcasts []world.Broadcast) error {
	var firstErr error
	for _, b := range broadcasts {
		for _, guid := range b.Recipients {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := p.server.Publish(PlayerSubject(guid), b.Payload); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// PlayerSubject is the per-player subject gateways subscribe to.
func PlayerSubject(guid uint64) string {
	return fmt.Sprintf("player-%d", guid)
}
