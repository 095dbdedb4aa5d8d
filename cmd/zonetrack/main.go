// Command zonetrack polls a four-antenna RFID reader on a serial port and
// streams every new tag detection as a JSON line to the TCP subscribers
// connected to its broadcast port.
//
// Configuration is read from the YAML file given by -config (or
// ZONETRACK_CONFIG) and the RFID_* environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/arloliu/zonetrack/broadcast"
	"github.com/arloliu/zonetrack/config"
	"github.com/arloliu/zonetrack/discovery"
	"github.com/arloliu/zonetrack/logger"
	"github.com/arloliu/zonetrack/metrics"
	"github.com/arloliu/zonetrack/reader"
	"github.com/arloliu/zonetrack/scanner"
	"github.com/arloliu/zonetrack/tracker"
	"github.com/arloliu/zonetrack/zone"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricsShutdownTimeout = 3 * time.Second

var log = logger.GetLogger()

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(config.Path(*configPath)); err != nil {
		log.Error("zonetrack stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.LogLevel())

	names := make([]string, 0, zone.Count)
	for _, z := range zone.All() {
		names = append(names, z.String())
	}
	log.Info("starting zonetrack",
		"host", cfg.Broadcast.Host,
		"port", cfg.Broadcast.Port,
		"device_id", cfg.Broadcast.DeviceID,
		"uart", cfg.Reader.Port,
		"zones", names,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	transport, hub, err := openEndpoints(ctx, cfg, openSerial)
	if err != nil {
		return err
	}

	sc, err := scanner.New(transport, cfg.ScannerOptions(log)...)
	if err != nil {
		return errors.Join(err, hub.Close(), transport.Close())
	}

	tr, err := tracker.New(sc, hub,
		tracker.WithStatusInterval(cfg.Scan.StatusEvery),
		tracker.WithLogger(log),
	)
	if err != nil {
		return errors.Join(err, hub.Close(), transport.Close())
	}

	var running atomic.Bool
	running.Store(true)

	if cfg.Metrics.Addr != "" {
		srv, err := startMetrics(cfg.Metrics.Addr, sc, hub, &running)
		if err != nil {
			return errors.Join(err, tr.Shutdown())
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("metrics server shutdown failed", "error", err)
			}
		}()
	}

	if cfg.MDNS.Enabled {
		adv, err := discovery.Advertise(cfg.DiscoveryInfo(sc.Zones()), log)
		if err != nil {
			// broadcasting works without discovery
			log.Warn("mdns advertising disabled", "error", err)
		} else {
			defer adv.Shutdown()
		}
	}

	err = tr.Run(ctx)
	running.Store(false)
	if ctx.Err() != nil {
		log.Info("exit signal received")
	}

	return err
}

// openFunc opens the reader transport.
type openFunc func(cfg *reader.SerialConfig) (reader.Transport, error)

func openSerial(cfg *reader.SerialConfig) (reader.Transport, error) {
	t, err := reader.OpenSerial(cfg)
	if err != nil {
		return nil, err
	}

	return t, nil
}

// openEndpoints opens the reader and then binds the broadcast listener.
// The reader is closed again when the listener cannot be bound.
func openEndpoints(ctx context.Context, cfg *config.Config, open openFunc) (reader.Transport, *broadcast.Hub, error) {
	serialCfg, err := cfg.SerialConfig(log)
	if err != nil {
		return nil, nil, err
	}

	transport, err := open(serialCfg)
	if err != nil {
		return nil, nil, err
	}

	hub, err := broadcast.Listen(ctx, cfg.ListenAddr(), cfg.BroadcastOptions(log)...)
	if err != nil {
		return nil, nil, errors.Join(err, transport.Close())
	}

	return transport, hub, nil
}

func startMetrics(addr string, sc *scanner.Scanner, hub *broadcast.Hub, running *atomic.Bool) (*metrics.Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := metrics.Register(reg, sc.GetMetrics(), hub.GetMetrics()); err != nil {
		return nil, err
	}

	health := func() error {
		if !running.Load() {
			return errors.New("tracker stopped")
		}
		return nil
	}

	return metrics.Start(addr, metrics.NewRouter(reg, health), log)
}
