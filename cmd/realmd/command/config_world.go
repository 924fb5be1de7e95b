package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-realm/internal/storage"
	"github.com/pixil98/go-realm/internal/world"
)

type WorldConfig struct {
	AssetsPath      string        `json:"asset_path"`
	DefaultTemplate uint32        `json:"default_template"`
	Stages          []StageConfig `json:"stages"`
}

// StageConfig mirrors world.StageConfig with durations as strings so stage
// definitions can live in the same JSON config file as everything else.
type StageConfig struct {
	StageGroup         uint32 `json:"stage_group"`
	Stage              uint32 `json:"stage"`
	MinPlayers         int    `json:"min_players"`
	MaxPlayers         int    `json:"max_players"`
	MatchmakingTimeout string `json:"matchmaking_timeout"`
	SessionDuration    string `json:"session_duration"`
	ZoneTemplate       uint32 `json:"zone_template"`
}

func (wc *WorldConfig) Validate() error {
	el := errors.NewErrorList()

	if wc.AssetsPath == "" {
		el.Add(fmt.Errorf("asset_path is required"))
	}
	if wc.DefaultTemplate == 0 {
		el.Add(fmt.Errorf("default_template is required and must be nonzero"))
	}

	for i, s := range wc.Stages {
		stage, err := s.toWorldStage()
		if err != nil {
			el.Add(fmt.Errorf("stage %d: %w", i, err))
			continue
		}
		if err := stage.Validate(); err != nil {
			el.Add(fmt.Errorf("stage %d: %w", i, err))
		}
	}

	return el.Err()
}

func (s *StageConfig) toWorldStage() (*world.StageConfig, error) {
	stage := &world.StageConfig{
		StageGroup:   s.StageGroup,
		Stage:        s.Stage,
		MinPlayers:   s.MinPlayers,
		MaxPlayers:   s.MaxPlayers,
		ZoneTemplate: s.ZoneTemplate,
	}

	if s.MatchmakingTimeout != "" {
		d, err := time.ParseDuration(s.MatchmakingTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing matchmaking_timeout: %w", err)
		}
		stage.MatchmakingTimeout = d
	}
	if s.SessionDuration != "" {
		d, err := time.ParseDuration(s.SessionDuration)
		if err != nil {
			return nil, fmt.Errorf("parsing session_duration: %w", err)
		}
		stage.SessionDuration = d
	}

	return stage, nil
}

func (wc *WorldConfig) NewWorld(opts ...world.WorldOpt) (*world.World, error) {
	templates, err := wc.loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("loading zone templates: %w", err)
	}

	stages := make([]*world.StageConfig, 0, len(wc.Stages))
	for i, s := range wc.Stages {
		stage, err := s.toWorldStage()
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		stages = append(stages, stage)
	}

	return world.NewWorld(templates, stages, wc.DefaultTemplate, opts...)
}

func (wc *WorldConfig) loadTemplates() ([]*world.ZoneTemplate, error) {
	store, err := storage.NewFileStore[*world.ZoneTemplate](wc.AssetsPath)
	if err != nil {
		return nil, fmt.Errorf("loading assets from %s: %w", wc.AssetsPath, err)
	}

	all := store.GetAll()
	templates := make([]*world.ZoneTemplate, 0, len(all))
	for _, t := range all {
		templates = append(templates, t)
	}
	return templates, nil
}
