package world

import "errors"

var (
	ErrPlayerExists       = errors.New("player already exists")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrUnknownStage       = errors.New("unknown minigame stage")
	ErrUnknownTemplate    = errors.New("unknown zone template")
	ErrAlreadyMatchmaking = errors.New("player is already matchmaking")
	ErrNotMatchmaking     = errors.New("player is not matchmaking")
)
