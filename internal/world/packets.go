package world

// Wire payloads for broadcasts. The real packet codec lives outside this
// module; these JSON shapes stand in at the boundary.

type playerJoined struct {
	Type string `json:"type"`
	Guid uint64 `json:"guid"`
	Name string `json:"name"`
}

type playerLeft struct {
	Type string `json:"type"`
	Guid uint64 `json:"guid"`
}

type positionUpdate struct {
	Type string  `json:"type"`
	Guid uint64  `json:"guid"`
	X    float32 `json:"x"`
	Y    float32 `json:"y"`
	Z    float32 `json:"z"`
}

type chatMessage struct {
	Type string `json:"type"`
	From uint64 `json:"from"`
	Name string `json:"name"`
	Text string `json:"text"`
}

type matchmakingUpdate struct {
	Type    string `json:"type"`
	Stage   uint32 `json:"stage"`
	Members int    `json:"members"`
	Needed  int    `json:"needed"`
}

type matchmakingTimedOut struct {
	Type  string `json:"type"`
	Stage uint32 `json:"stage"`
}

type minigameStarted struct {
	Type  string `json:"type"`
	Stage uint32 `json:"stage"`
	Zone  uint64 `json:"zone"`
}

type minigameEnded struct {
	Type  string `json:"type"`
	Stage uint32 `json:"stage"`
}

const (
	packetPlayerJoined        = "player_joined"
	packetPlayerLeft          = "player_left"
	packetPositionUpdate      = "position_update"
	packetChatMessage         = "chat_message"
	packetMatchmakingUpdate   = "matchmaking_update"
	packetMatchmakingTimedOut = "matchmaking_timed_out"
	packetMinigameStarted     = "minigame_started"
	packetMinigameEnded       = "minigame_ended"
)
