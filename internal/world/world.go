package world

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pixil98/go-errors"
)

// Publisher delivers broadcasts produced by tick passes to connected
// players.
type Publisher interface {
	Publish(ctx context.Context, broadcasts []Broadcast) error
}

// StageConfig describes one minigame stage available for matchmaking.
type StageConfig struct {
	StageGroup         uint32        `json:"stage_group"`
	Stage              uint32        `json:"stage"`
	MinPlayers         int           `json:"min_players"`
	MaxPlayers         int           `json:"max_players"`
	MatchmakingTimeout time.Duration `json:"-"`
	SessionDuration    time.Duration `json:"-"`
	ZoneTemplate       uint32        `json:"zone_template"`
}

func (s *StageConfig) Validate() error {
	el := errors.NewErrorList()

	if s.Stage == 0 {
		el.Add(fmt.Errorf("stage is required and must be nonzero"))
	}
	if s.MinPlayers < 1 {
		el.Add(fmt.Errorf("min_players must be at least 1"))
	}
	if s.MaxPlayers < s.MinPlayers {
		el.Add(fmt.Errorf("max_players must be at least min_players"))
	}
	if s.ZoneTemplate == 0 {
		el.Add(fmt.Errorf("zone_template is required and must be nonzero"))
	}

	return el.Err()
}

// World is the process-wide singleton owning the three domain tables. All
// runtime state flows through the lock enforcer hierarchy it mints.
type World struct {
	source    *LockEnforcerSource
	templates map[uint32]*ZoneTemplate
	stages    map[stageKey]*StageConfig

	defaultTemplate uint32
	defaultZone     uint64

	publisher Publisher
	now       func() time.Time
	start     time.Time

	nextZoneGuid atomic.Uint64
}

type stageKey struct {
	stageGroup uint32
	stage      uint32
}

type WorldOpt func(*World)

// WithPublisher wires broadcast delivery for tick passes. Without it, tick
// broadcasts are dropped.
func WithPublisher(p Publisher) WorldOpt {
	return func(w *World) {
		w.publisher = p
	}
}

// WithNowFunc overrides the clock.
func WithNowFunc(now func() time.Time) WorldOpt {
	return func(w *World) {
		w.now = now
	}
}

// NewWorld builds the domain tables and instantiates one persistent zone per
// template. defaultTemplate is where players spawn on login.
func NewWorld(templates []*ZoneTemplate, stages []*StageConfig, defaultTemplate uint32, opts ...WorldOpt) (*World, error) {
	w := &World{
		source:          NewLockEnforcerSource(),
		templates:       make(map[uint32]*ZoneTemplate, len(templates)),
		stages:          make(map[stageKey]*StageConfig, len(stages)),
		defaultTemplate: defaultTemplate,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}
	w.start = w.now()

	for _, t := range templates {
		if _, ok := w.templates[t.TemplateId]; ok {
			return nil, fmt.Errorf("duplicate zone template %d", t.TemplateId)
		}
		w.templates[t.TemplateId] = t
	}
	if _, ok := w.templates[defaultTemplate]; !ok {
		return nil, fmt.Errorf("default template %d: %w", defaultTemplate, ErrUnknownTemplate)
	}

	for _, s := range stages {
		key := stageKey{stageGroup: s.StageGroup, stage: s.Stage}
		if _, ok := w.stages[key]; ok {
			return nil, fmt.Errorf("duplicate stage (%d, %d)", s.StageGroup, s.Stage)
		}
		if _, ok := w.templates[s.ZoneTemplate]; !ok {
			return nil, fmt.Errorf("stage (%d, %d) zone template %d: %w", s.StageGroup, s.Stage, s.ZoneTemplate, ErrUnknownTemplate)
		}
		w.stages[key] = s
	}

	// Stamp the persistent zone instances.
	_, err := w.Enforcer().ZoneEnforcer().WriteZones(func(h *ZoneWriteHandle) ([]Broadcast, error) {
		for _, t := range templates {
			guid := w.instantiateZone(h, t.TemplateId)
			if t.TemplateId == defaultTemplate {
				w.defaultZone = guid
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("instantiating zones: %w", err)
	}

	return w, nil
}

// Enforcer mints a lock enforcer for one handler call.
func (w *World) Enforcer() LockEnforcer {
	return w.source.LockEnforcer()
}

func (w *World) stage(stageGroup, stage uint32) (*StageConfig, bool) {
	s, ok := w.stages[stageKey{stageGroup: stageGroup, stage: stage}]
	return s, ok
}

// instantiateZone stamps a new instance of the template under the held zone
// write handle. The template must exist; NewWorld and the matchmaking path
// validate templates up front.
func (w *World) instantiateZone(h *ZoneWriteHandle, templateId uint32) uint64 {
	t, ok := w.templates[templateId]
	if !ok {
		panic(fmt.Sprintf("world: instantiating unknown zone template %d", templateId))
	}
	guid := w.nextZoneGuid.Add(1)
	h.Insert(ZoneInstance{
		GUID:      guid,
		Template:  t.TemplateId,
		Name:      t.Name,
		Spawn:     t.Spawn(),
		CreatedAt: w.now().UnixMilli(),
	})
	return guid
}

// Tick runs the periodic passes: matchmaking timeouts first, then active
// minigame sessions. Broadcasts from both are published together.
func (w *World) Tick(ctx context.Context) error {
	var broadcasts []Broadcast

	b, err := w.tickMatchmaking()
	if err != nil {
		return fmt.Errorf("ticking matchmaking: %w", err)
	}
	broadcasts = append(broadcasts, b...)

	b, err = w.tickMinigames()
	if err != nil {
		return fmt.Errorf("ticking minigames: %w", err)
	}
	broadcasts = append(broadcasts, b...)

	if w.publisher == nil || len(broadcasts) == 0 {
		return nil
	}
	if err := w.publisher.Publish(ctx, broadcasts); err != nil {
		slog.WarnContext(ctx, "failed to publish tick broadcasts", "count", len(broadcasts), "error", err)
	}
	return nil
}
