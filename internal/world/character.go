package world

import (
	"cmp"
	"math"
	"strings"

	"github.com/google/uuid"
)

// ChunkSize is the width of one square spatial chunk in world units.
const ChunkSize = 200.0

// Chunk identifies one square cell of a zone instance's spatial grid.
type Chunk struct {
	X int32
	Z int32
}

// ChunkAt returns the chunk containing the given world-space position.
func ChunkAt(x, z float32) Chunk {
	return Chunk{
		X: int32(math.Floor(float64(x) / ChunkSize)),
		Z: int32(math.Floor(float64(z) / ChunkSize)),
	}
}

func compareChunk(a, b Chunk) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	return cmp.Compare(a.Z, b.Z)
}

// CharacterCategory splits the character table's spatial index by how the
// tick loop and interaction handlers treat an entity.
type CharacterCategory uint8

const (
	CategoryPlayer CharacterCategory = iota
	CategoryNpc
	CategoryNpcTickable
)

// CharacterLocation is the character table's primary secondary index:
// zone instance, spatial chunk, and category.
type CharacterLocation struct {
	Instance uint64
	Chunk    Chunk
	Category CharacterCategory
}

func CompareCharacterLocation(a, b CharacterLocation) int {
	if c := cmp.Compare(a.Instance, b.Instance); c != 0 {
		return c
	}
	if c := compareChunk(a.Chunk, b.Chunk); c != 0 {
		return c
	}
	return cmp.Compare(a.Category, b.Category)
}

// Pos is a world-space position.
type Pos struct {
	X float32
	Y float32
	Z float32
}

// Character is a player or NPC entity. The character table owns every
// Character exclusively; all access outside a held guard is a bug.
type Character struct {
	GUID     uint64
	Name     string
	Pos      Pos
	Instance uint64
	Category CharacterCategory
	Squad    uint64
	SyncedTo uint64

	// Matchmaking is non-nil while the character sits in a matchmaking
	// group or an active minigame.
	Matchmaking *MatchmakingGroup

	// Session is assigned when a player logs in.
	Session uuid.UUID

	CurrentHP int32
	MaxHP     int32
}

func (c Character) Guid() uint64 {
	return c.GUID
}

func (c Character) Index1() CharacterLocation {
	return CharacterLocation{
		Instance: c.Instance,
		Chunk:    ChunkAt(c.Pos.X, c.Pos.Z),
		Category: c.Category,
	}
}

// Index2 is the name index, populated for players only.
func (c Character) Index2() (string, bool) {
	if c.Category != CategoryPlayer || c.Name == "" {
		return "", false
	}
	return strings.ToLower(c.Name), true
}

// Index3 is the squad index.
func (c Character) Index3() (uint64, bool) {
	return c.Squad, c.Squad != 0
}

// Index4 is the matchmaking-group index.
func (c Character) Index4() (MatchmakingGroup, bool) {
	if c.Matchmaking == nil {
		return MatchmakingGroup{}, false
	}
	return *c.Matchmaking, true
}

// Index5 is the synchronization-partner index: characters whose tick
// procedures follow another character (mounts, pets) are bucketed under the
// partner's guid.
func (c Character) Index5() (uint64, bool) {
	return c.SyncedTo, c.SyncedTo != 0
}
