package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-realm/internal/driver"
	"github.com/pixil98/go-realm/internal/messaging"
	"github.com/pixil98/go-realm/internal/world"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	// Create the embedded nats server
	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	publisher := messaging.NewBroadcastPublisher(natsServer)

	// Create the world
	w, err := cfg.World.NewWorld(world.WithPublisher(publisher))
	if err != nil {
		return nil, fmt.Errorf("creating world: %w", err)
	}

	// Setup the realm driver
	var driverOpts []driver.RealmDriverOpt
	if cfg.TickInterval != "" {
		d, err := time.ParseDuration(cfg.TickInterval)
		if err != nil {
			return nil, fmt.Errorf("parsing tick_interval: %w", err)
		}
		driverOpts = append(driverOpts, driver.WithTickLength(d))
	}
	realmDriver := driver.NewRealmDriver([]driver.Manager{
		w,
	}, driverOpts...)

	// Create a worker list
	return service.WorkerList{
		"nats":   natsServer,
		"driver": realmDriver,
	}, nil
}
