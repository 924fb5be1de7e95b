package world

import "fmt"

// JoinMatchmaking queues the player for a minigame stage, joining the oldest
// open group with capacity or creating a fresh one. A full group starts its
// minigame immediately; otherwise the tick loop will start or disband it
// when the stage's matchmaking timeout elapses.
func (w *World) JoinMatchmaking(guid uint64, stageGroup, stage uint32) ([]Broadcast, error) {
	cfg, ok := w.stage(stageGroup, stage)
	if !ok {
		return nil, ErrUnknownStage
	}

	return w.Enforcer().WriteCharacters(func(h *CharacterWriteHandle, minigameData MinigameDataLockEnforcer) ([]Broadcast, error) {
		c, ok := h.Get(guid)
		if !ok {
			return nil, ErrPlayerNotFound
		}
		if c.Matchmaking != nil {
			return nil, ErrAlreadyMatchmaking
		}

		return minigameData.WriteMinigameData(func(mh *MinigameDataWriteHandle, zones ZoneLockEnforcer) ([]Broadcast, error) {
			now := w.now().UnixMilli()

			var group MatchmakingGroup
			found := false
			lo := MatchmakingKey{Status: MatchmakingOpen, Stage: stage}
			hi := MatchmakingKey{Status: MatchmakingOpen, Stage: stage, CreatedAt: now}
			for _, g := range mh.KeysByIndex2Range(lo, hi) {
				if g.StageGroup != stageGroup {
					continue
				}
				if len(h.KeysByIndex4(g)) < cfg.MaxPlayers {
					group = g
					found = true
					break
				}
			}
			if !found {
				group = MatchmakingGroup{Owner: guid, StageGroup: stageGroup, Stage: stage, CreatedAt: now}
				mh.Insert(SharedMinigameData{Group: group, Status: MatchmakingOpen})
			}

			h.UpdateIndices(guid, func(c *Character) {
				g := group
				c.Matchmaking = &g
			})

			members := h.KeysByIndex4(group)
			if len(members) >= cfg.MaxPlayers {
				return w.startMinigame(h, mh, zones, cfg, group)
			}
			return appendBroadcast(nil, members, matchmakingUpdate{
				Type:    packetMatchmakingUpdate,
				Stage:   stage,
				Members: len(members),
				Needed:  cfg.MinPlayers,
			})
		})
	})
}

// LeaveMatchmaking removes the player from its group, disbanding the group
// when it empties.
func (w *World) LeaveMatchmaking(guid uint64) ([]Broadcast, error) {
	return w.Enforcer().WriteCharacters(func(h *CharacterWriteHandle, minigameData MinigameDataLockEnforcer) ([]Broadcast, error) {
		c, ok := h.Get(guid)
		if !ok {
			return nil, ErrPlayerNotFound
		}
		if c.Matchmaking == nil {
			return nil, ErrNotMatchmaking
		}
		group := *c.Matchmaking

		return minigameData.WriteMinigameData(func(mh *MinigameDataWriteHandle, zones ZoneLockEnforcer) ([]Broadcast, error) {
			return w.leaveGroup(h, mh, zones, guid, group)
		})
	})
}

// leaveGroup clears the member's group link and reconciles the group row:
// an emptied group is removed (tearing down its minigame zone if one was
// stamped), a still-open group notifies the remaining members.
func (w *World) leaveGroup(h *CharacterWriteHandle, mh *MinigameDataWriteHandle, zones ZoneLockEnforcer, guid uint64, group MatchmakingGroup) ([]Broadcast, error) {
	h.UpdateIndices(guid, func(c *Character) {
		c.Matchmaking = nil
	})

	d, ok := mh.Get(group)
	if !ok {
		return nil, nil
	}

	remaining := h.KeysByIndex4(group)
	if len(remaining) == 0 {
		zoneGuid := d.ZoneGuid
		matched := d.Status == MatchmakingMatched
		mh.Remove(group)
		if matched && zoneGuid != 0 {
			_, err := zones.WriteZones(func(zh *ZoneWriteHandle) ([]Broadcast, error) {
				zh.Remove(zoneGuid)
				return nil, nil
			})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	if d.Status != MatchmakingOpen {
		return nil, nil
	}
	needed := 0
	if cfg, ok := w.stage(group.StageGroup, group.Stage); ok {
		needed = cfg.MinPlayers
	}
	return appendBroadcast(nil, remaining, matchmakingUpdate{
		Type:    packetMatchmakingUpdate,
		Stage:   group.Stage,
		Members: len(remaining),
		Needed:  needed,
	})
}

// startMinigame stamps a private zone instance, moves the group's members
// into it, and flips the group to matched and tickable. Requires the
// character and minigame-data write handles; takes the zone write lock
// itself.
func (w *World) startMinigame(h *CharacterWriteHandle, mh *MinigameDataWriteHandle, zones ZoneLockEnforcer, cfg *StageConfig, group MatchmakingGroup) ([]Broadcast, error) {
	return zones.WriteZones(func(zh *ZoneWriteHandle) ([]Broadcast, error) {
		zoneGuid := w.instantiateZone(zh, cfg.ZoneTemplate)
		spawn := w.templates[cfg.ZoneTemplate].Spawn()

		members := h.KeysByIndex4(group)
		for _, m := range members {
			h.UpdateIndices(m, func(c *Character) {
				c.Instance = zoneGuid
				c.Pos = spawn
			})
		}

		now := w.now().UnixMilli()
		if !mh.UpdateIndices(group, func(d *SharedMinigameData) {
			d.Status = MatchmakingMatched
			d.Tickable = true
			d.ZoneGuid = zoneGuid
			d.StartedAt = now
			d.LastTick = now
		}) {
			return nil, fmt.Errorf("starting minigame for a group with no data row: stage %d", group.Stage)
		}

		return appendBroadcast(nil, members, minigameStarted{
			Type:  packetMinigameStarted,
			Stage: group.Stage,
			Zone:  zoneGuid,
		})
	})
}

// endMinigame returns the members to the default zone, removes the group
// row, and tears down the minigame's zone instance.
func (w *World) endMinigame(h *CharacterWriteHandle, mh *MinigameDataWriteHandle, zh *ZoneWriteHandle, group MatchmakingGroup, zoneGuid uint64) ([]Broadcast, error) {
	members := h.KeysByIndex4(group)
	spawn := w.templates[w.defaultTemplate].Spawn()
	for _, m := range members {
		h.UpdateIndices(m, func(c *Character) {
			c.Matchmaking = nil
			c.Instance = w.defaultZone
			c.Pos = spawn
		})
	}
	mh.Remove(group)
	zh.Remove(zoneGuid)
	return appendBroadcast(nil, members, minigameEnded{Type: packetMinigameEnded, Stage: group.Stage})
}

// tickMatchmaking scans, per stage, the open groups whose creation time has
// fallen past the stage's matchmaking timeout. Groups with quorum start
// their minigame; the rest disband. Scanning per stage keeps the range
// bounded by the small constant number of stages rather than the number of
// groups.
func (w *World) tickMatchmaking() ([]Broadcast, error) {
	now := w.now()
	return w.Enforcer().WriteCharacters(func(h *CharacterWriteHandle, minigameData MinigameDataLockEnforcer) ([]Broadcast, error) {
		return minigameData.WriteMinigameData(func(mh *MinigameDataWriteHandle, zones ZoneLockEnforcer) ([]Broadcast, error) {
			var broadcasts []Broadcast
			for _, cfg := range w.stages {
				maxTime := now.Add(-cfg.MatchmakingTimeout)
				if maxTime.Before(w.start) {
					continue
				}

				lo := MatchmakingKey{Status: MatchmakingOpen, Stage: cfg.Stage, CreatedAt: w.start.UnixMilli()}
				hi := MatchmakingKey{Status: MatchmakingOpen, Stage: cfg.Stage, CreatedAt: maxTime.UnixMilli()}
				for _, group := range mh.KeysByIndex2Range(lo, hi) {
					if group.StageGroup != cfg.StageGroup {
						continue
					}

					members := h.KeysByIndex4(group)
					if len(members) >= cfg.MinPlayers {
						b, err := w.startMinigame(h, mh, zones, cfg, group)
						if err != nil {
							return broadcasts, err
						}
						broadcasts = append(broadcasts, b...)
						continue
					}

					for _, m := range members {
						h.UpdateIndices(m, func(c *Character) {
							c.Matchmaking = nil
						})
					}
					mh.Remove(group)
					var err error
					broadcasts, err = appendBroadcast(broadcasts, members, matchmakingTimedOut{
						Type:  packetMatchmakingTimedOut,
						Stage: cfg.Stage,
					})
					if err != nil {
						return broadcasts, err
					}
				}
			}
			return broadcasts, nil
		})
	})
}

// tickMinigames visits every tickable session, expiring the ones whose
// stage session duration has elapsed.
func (w *World) tickMinigames() ([]Broadcast, error) {
	now := w.now().UnixMilli()
	return w.Enforcer().WriteCharacters(func(h *CharacterWriteHandle, minigameData MinigameDataLockEnforcer) ([]Broadcast, error) {
		return minigameData.WriteMinigameData(func(mh *MinigameDataWriteHandle, zones ZoneLockEnforcer) ([]Broadcast, error) {
			var broadcasts []Broadcast
			for _, group := range mh.KeysByIndex1(TickableActive) {
				d, ok := mh.Get(group)
				if !ok {
					continue
				}
				cfg, ok := w.stage(group.StageGroup, group.Stage)
				if ok && cfg.SessionDuration > 0 && now-d.StartedAt >= cfg.SessionDuration.Milliseconds() {
					zoneGuid := d.ZoneGuid
					b, err := zones.WriteZones(func(zh *ZoneWriteHandle) ([]Broadcast, error) {
						return w.endMinigame(h, mh, zh, group, zoneGuid)
					})
					if err != nil {
						return broadcasts, err
					}
					broadcasts = append(broadcasts, b...)
					continue
				}
				// LastTick is not part of the index tuple, so in-place
				// mutation under the table write lock is safe.
				d.LastTick = now
			}
			return broadcasts, nil
		})
	})
}
