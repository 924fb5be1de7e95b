package world

import (
	"cmp"

	"github.com/pixil98/go-realm/internal/registry"
)

// Concrete table instantiations for the three domains. The aliases keep the
// handler code readable; the underlying machinery lives in the registry
// package.
type (
	CharacterTable       = registry.Table[uint64, CharacterLocation, string, uint64, MatchmakingGroup, uint64, Character]
	CharacterReadHandle  = registry.ReadHandle[uint64, CharacterLocation, string, uint64, MatchmakingGroup, uint64, Character]
	CharacterWriteHandle = registry.WriteHandle[uint64, CharacterLocation, string, uint64, MatchmakingGroup, uint64, Character]
	CharacterGuards      = registry.Guards[uint64, Character]

	ZoneTable       = registry.Table[uint64, uint32, registry.NoIndex, registry.NoIndex, registry.NoIndex, registry.NoIndex, ZoneInstance]
	ZoneReadHandle  = registry.ReadHandle[uint64, uint32, registry.NoIndex, registry.NoIndex, registry.NoIndex, registry.NoIndex, ZoneInstance]
	ZoneWriteHandle = registry.WriteHandle[uint64, uint32, registry.NoIndex, registry.NoIndex, registry.NoIndex, registry.NoIndex, ZoneInstance]
	ZoneGuards      = registry.Guards[uint64, ZoneInstance]

	MinigameDataTable       = registry.Table[MatchmakingGroup, TickableIndex, MatchmakingKey, registry.NoIndex, registry.NoIndex, registry.NoIndex, SharedMinigameData]
	MinigameDataReadHandle  = registry.ReadHandle[MatchmakingGroup, TickableIndex, MatchmakingKey, registry.NoIndex, registry.NoIndex, registry.NoIndex, SharedMinigameData]
	MinigameDataWriteHandle = registry.WriteHandle[MatchmakingGroup, TickableIndex, MatchmakingKey, registry.NoIndex, registry.NoIndex, registry.NoIndex, SharedMinigameData]
	MinigameDataGuards      = registry.Guards[MatchmakingGroup, SharedMinigameData]
)

// outcome carries a continuation's result through the generic enforce step.
type outcome struct {
	broadcasts []Broadcast
	err        error
}

func NewCharacterTable() *CharacterTable {
	return registry.NewTable[uint64, CharacterLocation, string, uint64, MatchmakingGroup, uint64, Character](
		registry.Comparators[uint64, CharacterLocation, string, uint64, MatchmakingGroup, uint64]{
			Key:    cmp.Compare[uint64],
			Index1: CompareCharacterLocation,
			Index2: cmp.Compare[string],
			Index3: cmp.Compare[uint64],
			Index4: CompareMatchmakingGroup,
			Index5: cmp.Compare[uint64],
		})
}

func NewZoneTable() *ZoneTable {
	return registry.NewTable[uint64, uint32, registry.NoIndex, registry.NoIndex, registry.NoIndex, registry.NoIndex, ZoneInstance](
		registry.Comparators[uint64, uint32, registry.NoIndex, registry.NoIndex, registry.NoIndex, registry.NoIndex]{
			Key:    cmp.Compare[uint64],
			Index1: cmp.Compare[uint32],
			Index2: registry.CompareNoIndex,
			Index3: registry.CompareNoIndex,
			Index4: registry.CompareNoIndex,
			Index5: registry.CompareNoIndex,
		})
}

func NewMinigameDataTable() *MinigameDataTable {
	return registry.NewTable[MatchmakingGroup, TickableIndex, MatchmakingKey, registry.NoIndex, registry.NoIndex, registry.NoIndex, SharedMinigameData](
		registry.Comparators[MatchmakingGroup, TickableIndex, MatchmakingKey, registry.NoIndex, registry.NoIndex, registry.NoIndex]{
			Key:    CompareMatchmakingGroup,
			Index1: registry.Ordered[TickableIndex](),
			Index2: CompareMatchmakingKey,
			Index3: registry.CompareNoIndex,
			Index4: registry.CompareNoIndex,
			Index5: registry.CompareNoIndex,
		})
}

// ZoneLockRequest declares the zone guids a continuation needs locked and
// the continuation to run once they are held.
type ZoneLockRequest struct {
	ReadGuids    []uint64
	WriteGuids   []uint64
	ZoneConsumer func(h *ZoneReadHandle, reads *ZoneGuards, writes *ZoneGuards) ([]Broadcast, error)
}

// ZoneLockEnforcer is the terminal level of the lock hierarchy. It is only
// obtainable from a minigame-data continuation (or directly from the
// top-level enforcer when nothing else will be touched), so no code path can
// acquire zones before characters or minigame data.
type ZoneLockEnforcer struct {
	zones *ZoneTable
}

func (e ZoneLockEnforcer) ReadZones(plan func(h *ZoneReadHandle) ZoneLockRequest) ([]Broadcast, error) {
	res := registry.Read(e.zones, func(h *ZoneReadHandle) registry.Request[uint64, uint32, registry.NoIndex, registry.NoIndex, registry.NoIndex, registry.NoIndex, ZoneInstance, outcome] {
		req := plan(h)
		return registry.Request[uint64, uint32, registry.NoIndex, registry.NoIndex, registry.NoIndex, registry.NoIndex, ZoneInstance, outcome]{
			ReadKeys:  req.ReadGuids,
			WriteKeys: req.WriteGuids,
			Run: func(h *ZoneReadHandle, reads *ZoneGuards, writes *ZoneGuards) outcome {
				b, err := req.ZoneConsumer(h, reads, writes)
				return outcome{broadcasts: b, err: err}
			},
		}
	})
	return res.broadcasts, res.err
}

// WriteZones hands the continuation exclusive access to the whole zone
// table. The table write lock makes this thread the sole holder of every
// zone lock, so no per-zone locking is needed.
func (e ZoneLockEnforcer) WriteZones(fn func(h *ZoneWriteHandle) ([]Broadcast, error)) ([]Broadcast, error) {
	res := registry.Write(e.zones, func(h *ZoneWriteHandle) outcome {
		b, err := fn(h)
		return outcome{broadcasts: b, err: err}
	})
	return res.broadcasts, res.err
}

// MinigameDataLockRequest declares the matchmaking groups a continuation
// needs locked. The continuation additionally receives the zone enforcer,
// the only way to reach zones from here.
type MinigameDataLockRequest struct {
	ReadGroups           []MatchmakingGroup
	WriteGroups          []MatchmakingGroup
	MinigameDataConsumer func(h *MinigameDataReadHandle, reads *MinigameDataGuards, writes *MinigameDataGuards, zones ZoneLockEnforcer) ([]Broadcast, error)
}

// MinigameDataLockEnforcer is the middle level of the lock hierarchy, only
// obtainable from a character continuation or the top-level enforcer.
type MinigameDataLockEnforcer struct {
	minigameData *MinigameDataTable
	zones        *ZoneTable
}

func (e MinigameDataLockEnforcer) ReadMinigameData(plan func(h *MinigameDataReadHandle) MinigameDataLockRequest) ([]Broadcast, error) {
	res := registry.Read(e.minigameData, func(h *MinigameDataReadHandle) registry.Request[MatchmakingGroup, TickableIndex, MatchmakingKey, registry.NoIndex, registry.NoIndex, registry.NoIndex, SharedMinigameData, outcome] {
		req := plan(h)
		return registry.Request[MatchmakingGroup, TickableIndex, MatchmakingKey, registry.NoIndex, registry.NoIndex, registry.NoIndex, SharedMinigameData, outcome]{
			ReadKeys:  req.ReadGroups,
			WriteKeys: req.WriteGroups,
			Run: func(h *MinigameDataReadHandle, reads *MinigameDataGuards, writes *MinigameDataGuards) outcome {
				b, err := req.MinigameDataConsumer(h, reads, writes, ZoneLockEnforcer{zones: e.zones})
				return outcome{broadcasts: b, err: err}
			},
		}
	})
	return res.broadcasts, res.err
}

func (e MinigameDataLockEnforcer) WriteMinigameData(fn func(h *MinigameDataWriteHandle, zones ZoneLockEnforcer) ([]Broadcast, error)) ([]Broadcast, error) {
	res := registry.Write(e.minigameData, func(h *MinigameDataWriteHandle) outcome {
		b, err := fn(h, ZoneLockEnforcer{zones: e.zones})
		return outcome{broadcasts: b, err: err}
	})
	return res.broadcasts, res.err
}

// CharacterLockRequest declares the character guids a continuation needs
// locked. The continuation additionally receives the minigame-data
// enforcer, the only way deeper into the hierarchy.
type CharacterLockRequest struct {
	ReadGuids         []uint64
	WriteGuids        []uint64
	CharacterConsumer func(h *CharacterReadHandle, reads *CharacterGuards, writes *CharacterGuards, minigameData MinigameDataLockEnforcer) ([]Broadcast, error)
}

// LockEnforcer is the top of the fixed lock hierarchy: characters, then
// minigame data, then zones. Handlers hold one only for the duration of a
// call; the tables themselves live on the World.
type LockEnforcer struct {
	characters   *CharacterTable
	minigameData *MinigameDataTable
	zones        *ZoneTable
}

func (e LockEnforcer) ReadCharacters(plan func(h *CharacterReadHandle) CharacterLockRequest) ([]Broadcast, error) {
	res := registry.Read(e.characters, func(h *CharacterReadHandle) registry.Request[uint64, CharacterLocation, string, uint64, MatchmakingGroup, uint64, Character, outcome] {
		req := plan(h)
		return registry.Request[uint64, CharacterLocation, string, uint64, MatchmakingGroup, uint64, Character, outcome]{
			ReadKeys:  req.ReadGuids,
			WriteKeys: req.WriteGuids,
			Run: func(h *CharacterReadHandle, reads *CharacterGuards, writes *CharacterGuards) outcome {
				b, err := req.CharacterConsumer(h, reads, writes, e.MinigameDataEnforcer())
				return outcome{broadcasts: b, err: err}
			},
		}
	})
	return res.broadcasts, res.err
}

func (e LockEnforcer) WriteCharacters(fn func(h *CharacterWriteHandle, minigameData MinigameDataLockEnforcer) ([]Broadcast, error)) ([]Broadcast, error) {
	res := registry.Write(e.characters, func(h *CharacterWriteHandle) outcome {
		b, err := fn(h, e.MinigameDataEnforcer())
		return outcome{broadcasts: b, err: err}
	})
	return res.broadcasts, res.err
}

// MinigameDataEnforcer skips the character level for callers that will not
// touch characters at all.
func (e LockEnforcer) MinigameDataEnforcer() MinigameDataLockEnforcer {
	return MinigameDataLockEnforcer{minigameData: e.minigameData, zones: e.zones}
}

// ZoneEnforcer skips straight to zones for callers that will touch nothing
// else.
func (e LockEnforcer) ZoneEnforcer() ZoneLockEnforcer {
	return ZoneLockEnforcer{zones: e.zones}
}

// LockEnforcerSource owns the three domain tables for the lifetime of the
// process and mints enforcers for request handlers.
type LockEnforcerSource struct {
	characters   *CharacterTable
	minigameData *MinigameDataTable
	zones        *ZoneTable
}

func NewLockEnforcerSource() *LockEnforcerSource {
	return &LockEnforcerSource{
		characters:   NewCharacterTable(),
		minigameData: NewMinigameDataTable(),
		zones:        NewZoneTable(),
	}
}

func (s *LockEnforcerSource) LockEnforcer() LockEnforcer {
	return LockEnforcer{
		characters:   s.characters,
		minigameData: s.minigameData,
		zones:        s.zones,
	}
}
