package world

import (
	"encoding/json"
	"fmt"
)

// Broadcast is a payload addressed to a set of players. Handlers and tick
// passes return broadcasts to their caller; delivery is the messaging
// layer's concern.
type Broadcast struct {
	Recipients []uint64
	Payload    []byte
}

func broadcastTo(recipients []uint64, packet any) (Broadcast, error) {
	if len(recipients) == 0 {
		return Broadcast{}, nil
	}
	data, err := json.Marshal(packet)
	if err != nil {
		return Broadcast{}, fmt.Errorf("marshalling packet: %w", err)
	}
	return Broadcast{Recipients: recipients, Payload: data}, nil
}

func appendBroadcast(broadcasts []Broadcast, recipients []uint64, packet any) ([]Broadcast, error) {
	b, err := broadcastTo(recipients, packet)
	if err != nil {
		return broadcasts, err
	}
	if len(b.Recipients) == 0 {
		return broadcasts, nil
	}
	return append(broadcasts, b), nil
}
