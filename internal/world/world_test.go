package world

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingPublisher captures tick broadcasts for assertions.
type recordingPublisher struct {
	mu         sync.Mutex
	broadcasts []Broadcast
}

func (p *recordingPublisher) Publish(_ context.Context, broadcasts []Broadcast) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcasts = append(p.broadcasts, broadcasts...)
	return nil
}

func (p *recordingPublisher) take() []Broadcast {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.broadcasts
	p.broadcasts = nil
	return out
}

const (
	testHubTemplate   = uint32(1)
	testArenaTemplate = uint32(2)

	testStageGroup = uint32(1)
	testDuoStage   = uint32(1) // min 2, max 2: fills immediately
	testTrioStage  = uint32(2) // min 2, max 3: can start on timeout
)

func newTestWorld(t *testing.T, opts ...WorldOpt) (*World, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	opts = append([]WorldOpt{WithNowFunc(clock.Now)}, opts...)

	w, err := NewWorld(
		[]*ZoneTemplate{
			{TemplateId: testHubTemplate, Name: "hub", SpawnX: 50, SpawnY: 0, SpawnZ: 50},
			{TemplateId: testArenaTemplate, Name: "arena", SpawnX: 1050, SpawnY: 0, SpawnZ: 1050},
		},
		[]*StageConfig{
			{
				StageGroup:         testStageGroup,
				Stage:              testDuoStage,
				MinPlayers:         2,
				MaxPlayers:         2,
				MatchmakingTimeout: 30 * time.Second,
				SessionDuration:    time.Minute,
				ZoneTemplate:       testArenaTemplate,
			},
			{
				StageGroup:         testStageGroup,
				Stage:              testTrioStage,
				MinPlayers:         2,
				MaxPlayers:         3,
				MatchmakingTimeout: 30 * time.Second,
				SessionDuration:    time.Minute,
				ZoneTemplate:       testArenaTemplate,
			},
		},
		testHubTemplate,
		opts...,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return w, clock
}

func assertNoError(t *testing.T, name string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", name, err)
	}
}

func assertErrorIs(t *testing.T, name string, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Errorf("%s: got %v, want %v", name, err, want)
	}
}

func getCharacter(t *testing.T, w *World, guid uint64) (Character, bool) {
	t.Helper()
	var c Character
	found := false
	_, err := w.Enforcer().WriteCharacters(func(h *CharacterWriteHandle, _ MinigameDataLockEnforcer) ([]Broadcast, error) {
		if p, ok := h.Get(guid); ok {
			c = *p
			found = true
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c, found
}

func packetType(t *testing.T, b Broadcast) string {
	t.Helper()
	var p struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b.Payload, &p); err != nil {
		t.Fatalf("unmarshaling payload: %v", err)
	}
	return p.Type
}

// countDeliveries counts payloads of the given type addressed to guid.
func countDeliveries(t *testing.T, broadcasts []Broadcast, guid uint64, typ string) int {
	t.Helper()
	n := 0
	for _, b := range broadcasts {
		if packetType(t, b) != typ {
			continue
		}
		for _, r := range b.Recipients {
			if r == guid {
				n++
			}
		}
	}
	return n
}

func TestAddPlayer(t *testing.T) {
	w, _ := newTestWorld(t)

	_, err := w.AddPlayer(1, "Ana")
	assertNoError(t, "first login", err)

	c, ok := getCharacter(t, w, 1)
	testutil.AssertEqual(t, "character stored", ok, true)
	testutil.AssertEqual(t, "name", c.Name, "Ana")
	testutil.AssertEqual(t, "category", c.Category, CategoryPlayer)
	testutil.AssertEqual(t, "spawn x", c.Pos.X, float32(50))
	testutil.AssertEqual(t, "session assigned", c.Session.String() != "00000000-0000-0000-0000-000000000000", true)

	// The second login lands in the same chunk, so Ana hears about it.
	broadcasts, err := w.AddPlayer(2, "Bo")
	assertNoError(t, "second login", err)
	testutil.AssertEqual(t, "joined delivered to neighbor", countDeliveries(t, broadcasts, 1, packetPlayerJoined), 1)
	testutil.AssertEqual(t, "joined not echoed to self", countDeliveries(t, broadcasts, 2, packetPlayerJoined), 0)

	_, err = w.AddPlayer(1, "Ana")
	assertErrorIs(t, "duplicate login", err, ErrPlayerExists)
}

func TestRemovePlayer(t *testing.T) {
	w, _ := newTestWorld(t)

	_, err := w.RemovePlayer(1)
	assertErrorIs(t, "unknown player", err, ErrPlayerNotFound)

	mustAddPlayer(t, w, 1, "Ana")
	mustAddPlayer(t, w, 2, "Bo")

	broadcasts, err := w.RemovePlayer(1)
	assertNoError(t, "logout", err)
	testutil.AssertEqual(t, "left delivered to neighbor", countDeliveries(t, broadcasts, 2, packetPlayerLeft), 1)

	_, ok := getCharacter(t, w, 1)
	testutil.AssertEqual(t, "character removed", ok, false)
}

func mustAddPlayer(t *testing.T, w *World, guid uint64, name string) {
	t.Helper()
	if _, err := w.AddPlayer(guid, name); err != nil {
		t.Fatalf("adding player %d: %v", guid, err)
	}
}

func TestMovePlayerWithinChunk(t *testing.T) {
	w, _ := newTestWorld(t)
	mustAddPlayer(t, w, 1, "Ana")
	mustAddPlayer(t, w, 2, "Bo")

	broadcasts, err := w.MovePlayer(1, Pos{X: 60, Y: 0, Z: 60})
	assertNoError(t, "move", err)
	testutil.AssertEqual(t, "update delivered to neighbor", countDeliveries(t, broadcasts, 2, packetPositionUpdate), 1)
	testutil.AssertEqual(t, "update not echoed to mover", countDeliveries(t, broadcasts, 1, packetPositionUpdate), 0)

	c, _ := getCharacter(t, w, 1)
	testutil.AssertEqual(t, "position", c.Pos, Pos{X: 60, Y: 0, Z: 60})
}

func TestMovePlayerAcrossChunks(t *testing.T) {
	w, _ := newTestWorld(t)
	mustAddPlayer(t, w, 1, "Ana")
	mustAddPlayer(t, w, 2, "Bo")

	// Two chunks east: outside Bo's neighborhood after the move, but Bo
	// still hears the departure because the old neighborhood is included.
	target := Pos{X: 50 + 2*ChunkSize, Y: 0, Z: 50}
	broadcasts, err := w.MovePlayer(1, target)
	assertNoError(t, "move", err)
	testutil.AssertEqual(t, "update delivered to old neighbor", countDeliveries(t, broadcasts, 2, packetPositionUpdate), 1)

	c, _ := getCharacter(t, w, 1)
	testutil.AssertEqual(t, "position", c.Pos, target)

	// The spatial index must have followed the move: a chat from the new
	// chunk no longer reaches Bo.
	chat, err := w.SayChat(1, "anyone here?")
	assertNoError(t, "chat", err)
	testutil.AssertEqual(t, "chat reaches only speaker", countDeliveries(t, chat, 1, packetChatMessage), 1)
	testutil.AssertEqual(t, "chat does not reach old chunk", countDeliveries(t, chat, 2, packetChatMessage), 0)
}

func TestMovePlayerUnknown(t *testing.T) {
	w, _ := newTestWorld(t)
	_, err := w.MovePlayer(9, Pos{X: 1})
	assertErrorIs(t, "unknown player", err, ErrPlayerNotFound)
}

func TestSynchronizedFollowerMovesWithPartner(t *testing.T) {
	w, _ := newTestWorld(t)
	mustAddPlayer(t, w, 1, "Ana")
	mustAddPlayer(t, w, 2, "Mount")

	err := w.Synchronize(2, 1)
	assertNoError(t, "synchronize", err)

	target := Pos{X: 50 + 2*ChunkSize, Y: 0, Z: 50}
	_, err = w.MovePlayer(1, target)
	assertNoError(t, "move", err)

	follower, _ := getCharacter(t, w, 2)
	testutil.AssertEqual(t, "follower position", follower.Pos, target)

	err = w.Synchronize(2, 9)
	assertErrorIs(t, "unknown partner", err, ErrPlayerNotFound)
}

func TestSayChat(t *testing.T) {
	w, _ := newTestWorld(t)
	mustAddPlayer(t, w, 1, "Ana")
	mustAddPlayer(t, w, 2, "Bo")

	broadcasts, err := w.SayChat(1, "hello")
	assertNoError(t, "chat", err)
	testutil.AssertEqual(t, "delivered to speaker", countDeliveries(t, broadcasts, 1, packetChatMessage), 1)
	testutil.AssertEqual(t, "delivered to neighbor", countDeliveries(t, broadcasts, 2, packetChatMessage), 1)

	_, err = w.SayChat(9, "hello")
	assertErrorIs(t, "unknown speaker", err, ErrPlayerNotFound)
}

func TestFindPlayerByName(t *testing.T) {
	w, _ := newTestWorld(t)
	mustAddPlayer(t, w, 1, "Ana")

	guid, found := w.FindPlayerByName("ANA")
	testutil.AssertEqual(t, "case-insensitive lookup", found, true)
	testutil.AssertEqual(t, "guid", guid, uint64(1))

	_, found = w.FindPlayerByName("nobody")
	testutil.AssertEqual(t, "missing name", found, false)
}

func TestSquads(t *testing.T) {
	w, _ := newTestWorld(t)
	mustAddPlayer(t, w, 1, "Ana")
	mustAddPlayer(t, w, 2, "Bo")
	mustAddPlayer(t, w, 3, "Cy")

	assertNoError(t, "set squad 1", w.SetSquad(1, 7))
	assertNoError(t, "set squad 3", w.SetSquad(3, 7))
	assertErrorIs(t, "unknown player", w.SetSquad(9, 7), ErrPlayerNotFound)

	members := w.SquadMembers(7)
	testutil.AssertEqual(t, "member count", len(members), 2)
	testutil.AssertEqual(t, "first member", members[0], uint64(1))
	testutil.AssertEqual(t, "second member", members[1], uint64(3))

	assertNoError(t, "clear squad", w.SetSquad(1, 0))
	testutil.AssertEqual(t, "member count after clear", len(w.SquadMembers(7)), 1)
}
