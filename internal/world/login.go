package world

import (
	"fmt"

	"github.com/google/uuid"
)

// characterLocator is the slice of the query surface the spatial helpers
// need; both read and write handles satisfy it.
type characterLocator interface {
	KeysByIndex1(CharacterLocation) []uint64
}

// nearbyPlayers returns the players in the 3x3 chunk neighborhood around
// center within instance, excluding the given guid.
func nearbyPlayers(h characterLocator, instance uint64, center Chunk, exclude uint64) []uint64 {
	var out []uint64
	for dx := int32(-1); dx <= 1; dx++ {
		for dz := int32(-1); dz <= 1; dz++ {
			loc := CharacterLocation{
				Instance: instance,
				Chunk:    Chunk{X: center.X + dx, Z: center.Z + dz},
				Category: CategoryPlayer,
			}
			for _, guid := range h.KeysByIndex1(loc) {
				if guid != exclude {
					out = append(out, guid)
				}
			}
		}
	}
	return out
}

// AddPlayer spawns a player character in the default zone. The spawn point
// is read through the nested enforcers so zone state is only touched in
// hierarchy order.
func (w *World) AddPlayer(guid uint64, name string) ([]Broadcast, error) {
	return w.Enforcer().WriteCharacters(func(h *CharacterWriteHandle, minigameData MinigameDataLockEnforcer) ([]Broadcast, error) {
		if h.Contains(guid) {
			return nil, ErrPlayerExists
		}

		var spawn Pos
		_, err := minigameData.ReadMinigameData(func(_ *MinigameDataReadHandle) MinigameDataLockRequest {
			return MinigameDataLockRequest{
				MinigameDataConsumer: func(_ *MinigameDataReadHandle, _, _ *MinigameDataGuards, zones ZoneLockEnforcer) ([]Broadcast, error) {
					return zones.ReadZones(func(_ *ZoneReadHandle) ZoneLockRequest {
						return ZoneLockRequest{
							ReadGuids: []uint64{w.defaultZone},
							ZoneConsumer: func(_ *ZoneReadHandle, reads *ZoneGuards, _ *ZoneGuards) ([]Broadcast, error) {
								zone, ok := reads.Get(w.defaultZone)
								if !ok {
									return nil, fmt.Errorf("default zone instance %d is missing", w.defaultZone)
								}
								spawn = zone.Spawn
								return nil, nil
							},
						}
					})
				},
			}
		})
		if err != nil {
			return nil, err
		}

		h.Insert(Character{
			GUID:      guid,
			Name:      name,
			Pos:       spawn,
			Instance:  w.defaultZone,
			Category:  CategoryPlayer,
			Session:   uuid.New(),
			CurrentHP: 100,
			MaxHP:     100,
		})

		recipients := nearbyPlayers(h, w.defaultZone, ChunkAt(spawn.X, spawn.Z), guid)
		return appendBroadcast(nil, recipients, playerJoined{Type: packetPlayerJoined, Guid: guid, Name: name})
	})
}

// RemovePlayer tears the player down: any matchmaking group membership is
// released first, then the character row and its index membership.
func (w *World) RemovePlayer(guid uint64) ([]Broadcast, error) {
	return w.Enforcer().WriteCharacters(func(h *CharacterWriteHandle, minigameData MinigameDataLockEnforcer) ([]Broadcast, error) {
		c, ok := h.Get(guid)
		if !ok {
			return nil, ErrPlayerNotFound
		}
		instance := c.Instance
		chunk := ChunkAt(c.Pos.X, c.Pos.Z)
		group := c.Matchmaking

		var broadcasts []Broadcast
		if group != nil {
			b, err := minigameData.WriteMinigameData(func(mh *MinigameDataWriteHandle, zones ZoneLockEnforcer) ([]Broadcast, error) {
				return w.leaveGroup(h, mh, zones, guid, *group)
			})
			if err != nil {
				return nil, err
			}
			broadcasts = b
		}

		h.Remove(guid)

		recipients := nearbyPlayers(h, instance, chunk, guid)
		return appendBroadcast(broadcasts, recipients, playerLeft{Type: packetPlayerLeft, Guid: guid})
	})
}
