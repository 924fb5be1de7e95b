package world

import "strings"

// SayChat delivers a chat line from the speaker to every player in the
// surrounding chunk neighborhood, speaker included. The speaker is
// read-guarded for its display name; recipients are resolved from the
// spatial index without locking them.
func (w *World) SayChat(guid uint64, text string) ([]Broadcast, error) {
	return w.Enforcer().ReadCharacters(func(h *CharacterReadHandle) CharacterLockRequest {
		loc, ok := h.Index1(guid)
		if !ok {
			return CharacterLockRequest{
				CharacterConsumer: func(*CharacterReadHandle, *CharacterGuards, *CharacterGuards, MinigameDataLockEnforcer) ([]Broadcast, error) {
					return nil, ErrPlayerNotFound
				},
			}
		}

		recipients := nearbyPlayers(h, loc.Instance, loc.Chunk, 0)
		return CharacterLockRequest{
			ReadGuids: []uint64{guid},
			CharacterConsumer: func(_ *CharacterReadHandle, reads *CharacterGuards, _ *CharacterGuards, _ MinigameDataLockEnforcer) ([]Broadcast, error) {
				speaker, ok := reads.Get(guid)
				if !ok {
					return nil, ErrPlayerNotFound
				}
				return appendBroadcast(nil, recipients, chatMessage{
					Type: packetChatMessage,
					From: guid,
					Name: speaker.Name,
					Text: text,
				})
			},
		}
	})
}

// FindPlayerByName resolves a player guid through the name index.
func (w *World) FindPlayerByName(name string) (uint64, bool) {
	var guid uint64
	found := false
	_, _ = w.Enforcer().ReadCharacters(func(h *CharacterReadHandle) CharacterLockRequest {
		guids := h.KeysByIndex2(strings.ToLower(name))
		if len(guids) > 0 {
			guid = guids[0]
			found = true
		}
		return CharacterLockRequest{
			CharacterConsumer: func(*CharacterReadHandle, *CharacterGuards, *CharacterGuards, MinigameDataLockEnforcer) ([]Broadcast, error) {
				return nil, nil
			},
		}
	})
	return guid, found
}

// SetSquad moves the player onto a squad, or off every squad when squad is
// zero.
func (w *World) SetSquad(guid, squad uint64) error {
	_, err := w.Enforcer().WriteCharacters(func(h *CharacterWriteHandle, _ MinigameDataLockEnforcer) ([]Broadcast, error) {
		if !h.UpdateIndices(guid, func(c *Character) {
			c.Squad = squad
		}) {
			return nil, ErrPlayerNotFound
		}
		return nil, nil
	})
	return err
}

// SquadMembers lists the squad's members in guid order.
func (w *World) SquadMembers(squad uint64) []uint64 {
	var members []uint64
	_, _ = w.Enforcer().ReadCharacters(func(h *CharacterReadHandle) CharacterLockRequest {
		members = h.KeysByIndex3(squad)
		return CharacterLockRequest{
			CharacterConsumer: func(*CharacterReadHandle, *CharacterGuards, *CharacterGuards, MinigameDataLockEnforcer) ([]Broadcast, error) {
				return nil, nil
			},
		}
	})
	return members
}
