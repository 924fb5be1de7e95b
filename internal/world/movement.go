package world

import "slices"

// MovePlayer updates a player's position. Movement within the current chunk
// only needs the mover's entity lock under the table read lock; crossing a
// chunk boundary changes the spatial index, which requires the table write
// lock.
func (w *World) MovePlayer(guid uint64, pos Pos) ([]Broadcast, error) {
	crossed := false
	broadcasts, err := w.Enforcer().ReadCharacters(func(h *CharacterReadHandle) CharacterLockRequest {
		loc, ok := h.Index1(guid)
		if !ok {
			return CharacterLockRequest{
				CharacterConsumer: func(*CharacterReadHandle, *CharacterGuards, *CharacterGuards, MinigameDataLockEnforcer) ([]Broadcast, error) {
					return nil, ErrPlayerNotFound
				},
			}
		}
		if ChunkAt(pos.X, pos.Z) != loc.Chunk {
			crossed = true
			return CharacterLockRequest{
				CharacterConsumer: func(*CharacterReadHandle, *CharacterGuards, *CharacterGuards, MinigameDataLockEnforcer) ([]Broadcast, error) {
					return nil, nil
				},
			}
		}

		recipients := nearbyPlayers(h, loc.Instance, loc.Chunk, guid)
		return CharacterLockRequest{
			WriteGuids: []uint64{guid},
			CharacterConsumer: func(_ *CharacterReadHandle, _, writes *CharacterGuards, _ MinigameDataLockEnforcer) ([]Broadcast, error) {
				c, ok := writes.Get(guid)
				if !ok {
					return nil, ErrPlayerNotFound
				}
				c.Pos = pos
				return appendBroadcast(nil, recipients, positionUpdate{Type: packetPositionUpdate, Guid: guid, X: pos.X, Y: pos.Y, Z: pos.Z})
			},
		}
	})
	if err != nil || !crossed {
		return broadcasts, err
	}
	return w.moveAcrossChunks(guid, pos)
}

func (w *World) moveAcrossChunks(guid uint64, pos Pos) ([]Broadcast, error) {
	return w.Enforcer().WriteCharacters(func(h *CharacterWriteHandle, _ MinigameDataLockEnforcer) ([]Broadcast, error) {
		oldLoc, ok := h.Index1(guid)
		if !ok {
			return nil, ErrPlayerNotFound
		}

		h.UpdateIndices(guid, func(c *Character) {
			c.Pos = pos
		})
		// Synchronized characters (mounts, pets) follow their partner.
		for _, follower := range h.KeysByIndex5(guid) {
			h.UpdateIndices(follower, func(c *Character) {
				c.Pos = pos
			})
		}

		newChunk := ChunkAt(pos.X, pos.Z)
		recipients := nearbyPlayers(h, oldLoc.Instance, oldLoc.Chunk, guid)
		for _, r := range nearbyPlayers(h, oldLoc.Instance, newChunk, guid) {
			if !slices.Contains(recipients, r) {
				recipients = append(recipients, r)
			}
		}
		return appendBroadcast(nil, recipients, positionUpdate{Type: packetPositionUpdate, Guid: guid, X: pos.X, Y: pos.Y, Z: pos.Z})
	})
}

// Synchronize parents follower onto partner so it follows the partner's
// movement. A zero partner clears the link.
func (w *World) Synchronize(follower, partner uint64) error {
	_, err := w.Enforcer().WriteCharacters(func(h *CharacterWriteHandle, _ MinigameDataLockEnforcer) ([]Broadcast, error) {
		if partner != 0 && !h.Contains(partner) {
			return nil, ErrPlayerNotFound
		}
		if !h.UpdateIndices(follower, func(c *Character) {
			c.SyncedTo = partner
		}) {
			return nil, ErrPlayerNotFound
		}
		return nil, nil
	})
	return err
}
