// cmd/invertermqtt/main.go
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/tamzrod/inverter-mqtt/internal/archive"
	"github.com/tamzrod/inverter-mqtt/internal/compute"
	"github.com/tamzrod/inverter-mqtt/internal/config"
	"github.com/tamzrod/inverter-mqtt/internal/obs"
	"github.com/tamzrod/inverter-mqtt/internal/poller"
	"github.com/tamzrod/inverter-mqtt/internal/sink"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: invertermqtt <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Shared outputs
	// --------------------

	if cfg.Metrics.Enabled {
		obs.Init()
		obs.StartServer(cfg.Metrics.Listen)
	}

	names := make([]string, 0, len(cfg.Inverters))
	for _, inv := range cfg.Inverters {
		names = append(names, inv.Name)
	}

	mq := sink.NewMQTT(sink.MQTTConfig{
		Broker:            cfg.MQTT.Broker,
		ClientID:          cfg.MQTT.ClientID,
		Username:          cfg.MQTT.Username,
		Password:          cfg.MQTT.Password,
		Prefix:            cfg.MQTT.Prefix,
		QoS:               cfg.MQTT.QoS,
		SuppressUnchanged: cfg.MQTT.SuppressUnchanged,
	}, names)
	if err := mq.Connect(); err != nil {
		log.Fatalf("mqtt connect failed: %v", err)
	}
	defer mq.Close()

	arc, err := archive.New(archive.Config{
		Driver: cfg.Archive.Driver,
		Path:   cfg.Archive.Path,
		DSN:    cfg.Archive.DSN,
	})
	if err != nil {
		log.Fatalf("archive open failed: %v", err)
	}
	defer arc.Close()

	outputs := sink.Multi{mq}
	if arc.Enabled() {
		outputs = append(outputs, arc)
	}

	// --------------------
	// Build per-inverter pipelines
	// --------------------

	engines := make(map[string]*compute.Engine, len(cfg.Inverters))

	var wg sync.WaitGroup
	for _, inv := range cfg.Inverters {
		s, engine, closer, err := poller.Build(inv, outputs)
		if err != nil {
			log.Fatalf("poller build failed (inverter=%s): %v", inv.Name, err)
		}
		defer closer()
		engines[inv.Name] = engine

		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			err := s.Run(ctx, func(res poller.CycleResult) {
				if res.Outage {
					log.Printf("OUTAGE (inverter=%s): all groups failing since %s: %s",
						name, res.Health.LastCycleAt.Format(time.RFC3339), res.Health.LastError)
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("poller stopped (inverter=%s): %v", name, err)
			}
		}(inv.Name)
	}

	// --------------------
	// Hot reload of computed metrics
	// --------------------

	err = config.Watch(cfgPath, func(next *config.Config) {
		for _, inv := range next.Inverters {
			engine, ok := engines[inv.Name]
			if !ok {
				// new inverters need a restart; transports are not rebuilt live
				log.Printf("config reload: inverter %q added, restart required", inv.Name)
				continue
			}
			if err := engine.Reload(inv.Computed); err != nil {
				log.Printf("config reload (inverter=%s): %v", inv.Name, err)
				continue
			}
			log.Printf("config reload (inverter=%s): computed metrics updated", inv.Name)
		}
	})
	if err != nil {
		log.Printf("config watch disabled: %v", err)
	}

	<-ctx.Done()
	log.Print("shutting down")
	wg.Wait()
}
