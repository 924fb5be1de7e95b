package world

import (
	"fmt"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-realm/internal/registry"
)

// ZoneTemplate is the static definition a zone instance is stamped from,
// loaded from JSON assets at startup.
type ZoneTemplate struct {
	TemplateId uint32  `json:"template_id"`
	Name       string  `json:"name"`
	SpawnX     float32 `json:"spawn_x"`
	SpawnY     float32 `json:"spawn_y"`
	SpawnZ     float32 `json:"spawn_z"`
}

func (z *ZoneTemplate) Validate() error {
	el := errors.NewErrorList()

	if z.TemplateId == 0 {
		el.Add(fmt.Errorf("template_id is required and must be nonzero"))
	}
	if z.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}

	return el.Err()
}

func (z *ZoneTemplate) Spawn() Pos {
	return Pos{X: z.SpawnX, Y: z.SpawnY, Z: z.SpawnZ}
}

// ZoneInstance is one live instantiation of a zone template. Instances are
// created at startup for persistent zones and on demand for minigames.
type ZoneInstance struct {
	GUID     uint64
	Template uint32
	Name     string
	Spawn    Pos
	// CreatedAt is unix milliseconds.
	CreatedAt int64
}

func (z ZoneInstance) Guid() uint64 {
	return z.GUID
}

// Index1 buckets instances by the template they were stamped from. The
// remaining slots are unused.
func (z ZoneInstance) Index1() uint32 {
	return z.Template
}

func (z ZoneInstance) Index2() (registry.NoIndex, bool) {
	return registry.NoIndex{}, false
}

func (z ZoneInstance) Index3() (registry.NoIndex, bool) {
	return registry.NoIndex{}, false
}

func (z ZoneInstance) Index4() (registry.NoIndex, bool) {
	return registry.NoIndex{}, false
}

func (z ZoneInstance) Index5() (registry.NoIndex, bool) {
	return registry.NoIndex{}, false
}
