package world

import (
	"cmp"

	"github.com/pixil98/go-realm/internal/registry"
)

// MatchmakingGroupStatus tracks whether a group is still collecting players
// or already playing.
type MatchmakingGroupStatus uint8

const (
	MatchmakingOpen MatchmakingGroupStatus = iota
	MatchmakingMatched
)

// MatchmakingGroup identifies one matchmaking party. It is the primary key
// of the minigame-data table and the character table's group index value.
type MatchmakingGroup struct {
	Owner      uint64
	StageGroup uint32
	Stage      uint32
	// CreatedAt is unix milliseconds; part of the identity so a player can
	// own successive groups for the same stage.
	CreatedAt int64
}

func CompareMatchmakingGroup(a, b MatchmakingGroup) int {
	if c := cmp.Compare(a.Owner, b.Owner); c != 0 {
		return c
	}
	if c := cmp.Compare(a.StageGroup, b.StageGroup); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Stage, b.Stage); c != 0 {
		return c
	}
	return cmp.Compare(a.CreatedAt, b.CreatedAt)
}

// TickableIndex buckets minigame sessions by whether the tick loop needs to
// visit them.
type TickableIndex uint8

const (
	TickableIdle TickableIndex = iota
	TickableActive
)

// MatchmakingKey orders groups by (status, stage, creation time) so the tick
// loop can range-scan exactly the open groups of one stage that have waited
// past their timeout.
type MatchmakingKey struct {
	Status    MatchmakingGroupStatus
	Stage     uint32
	CreatedAt int64
}

func CompareMatchmakingKey(a, b MatchmakingKey) int {
	if c := cmp.Compare(a.Status, b.Status); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Stage, b.Stage); c != 0 {
		return c
	}
	return cmp.Compare(a.CreatedAt, b.CreatedAt)
}

// SharedMinigameData is the per-group session state shared by every member
// of a matchmaking group, from queueing through minigame teardown.
type SharedMinigameData struct {
	Group    MatchmakingGroup
	Status   MatchmakingGroupStatus
	Tickable bool

	// ZoneGuid is the minigame's private zone instance once matched.
	ZoneGuid uint64
	// StartedAt and LastTick are unix milliseconds, zero until matched.
	StartedAt int64
	LastTick  int64
}

func (d SharedMinigameData) Guid() MatchmakingGroup {
	return d.Group
}

func (d SharedMinigameData) Index1() TickableIndex {
	if d.Tickable {
		return TickableActive
	}
	return TickableIdle
}

func (d SharedMinigameData) Index2() (MatchmakingKey, bool) {
	return MatchmakingKey{
		Status:    d.Status,
		Stage:     d.Group.Stage,
		CreatedAt: d.Group.CreatedAt,
	}, true
}

func (d SharedMinigameData) Index3() (registry.NoIndex, bool) {
	return registry.NoIndex{}, false
}

func (d SharedMinigameData) Index4() (registry.NoIndex, bool) {
	return registry.NoIndex{}, false
}

func (d SharedMinigameData) Index5() (registry.NoIndex, bool) {
	return registry.NoIndex{}, false
}
