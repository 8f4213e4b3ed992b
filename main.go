package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/cepro/powercore/actor"
	"github.com/cepro/powercore/cache"
	"github.com/cepro/powercore/cartesian"
	"github.com/cepro/powercore/config"
	dataplatform "github.com/cepro/powercore/data_platform"
	"github.com/cepro/powercore/dispatch"
	"github.com/cepro/powercore/distribution"
	"github.com/cepro/powercore/graph"
	"github.com/cepro/powercore/powerpack"
	"github.com/cepro/powercore/repository"
	"github.com/cepro/powercore/router"
	"github.com/cepro/powercore/statusprovider"
	"github.com/cepro/powercore/telemetry"
)

func main() {

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	var configFilePath string
	flag.StringVar(&configFilePath, "f", "./config.json", "Specify config file path")
	flag.Parse()

	slog.Info("Starting", "config_file", configFilePath)

	cfg, err := config.Read(configFilePath)
	if err != nil {
		slog.Error("Failed to read config", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	telemetryCache := cache.New()

	pairs := make([]graph.Pair, 0, len(cfg.Pairs))
	fleet := make(dispatch.Fleet, len(cfg.Pairs))
	curves := make(distribution.PriorityCurves, len(cfg.Pairs))

	for _, pairConfig := range cfg.Pairs {
		pairs = append(pairs, graph.Pair{BatteryID: pairConfig.BatteryID, InverterID: pairConfig.InverterID})

		if len(pairConfig.PriorityCurve) > 0 {
			curve := cartesian.Curve{Points: pairConfig.PriorityCurve}
			curves[pairConfig.BatteryID] = &curve
		}

		switch {
		case pairConfig.Inverter != nil:
			slog.Debug("Creating real powerpack", "battery_id", pairConfig.BatteryID, "inverter_id", pairConfig.InverterID)
			pp, err := powerpack.New(
				pairConfig.BatteryID,
				pairConfig.InverterID,
				pairConfig.Inverter.Host,
				pairConfig.NameplateEnergy,
				pairConfig.NameplatePower,
				telemetryCache,
			)
			if err != nil {
				slog.Error("Failed to create power pack", "battery_id", pairConfig.BatteryID, "error", err)
				return
			}
			fleet[pairConfig.BatteryID] = pp
			go pp.Run(ctx, time.Second*time.Duration(pairConfig.Inverter.PollIntervalSecs))

		case pairConfig.InverterMock != nil:
			slog.Debug("Creating mock powerpack", "battery_id", pairConfig.BatteryID, "inverter_id", pairConfig.InverterID)
			fleet[pairConfig.BatteryID] = &dispatch.Mock{}
			mockTelemetry := powerpack.NewMockTelemetry(pairConfig.BatteryID, pairConfig.InverterID, pairConfig.NameplateEnergy, pairConfig.NameplatePower, telemetryCache)
			go mockTelemetry.Run(ctx, time.Second*5)

		default:
			slog.Error("Pair has neither a powerPack nor a mock configured", "battery_id", pairConfig.BatteryID)
			return
		}
	}

	meterComponents := make([]graph.Component, 0, len(cfg.Meters.Acuvim2)+len(cfg.Meters.Mock))
	for _, meterConfig := range cfg.Meters.Acuvim2 {
		meterComponents = append(meterComponents, graph.Component{ID: meterConfig.ComponentID, Category: graph.Meter})
	}
	for _, meterConfig := range cfg.Meters.Mock {
		meterComponents = append(meterComponents, graph.Component{ID: meterConfig.ComponentID, Category: graph.Meter})
	}
	componentGraph := graph.NewStatic(pairs, meterComponents)

	// Battery health is derived from telemetry validity: a battery drops out
	// of the working set while its pair's samples are missing or carry NaNs.
	status := statusprovider.NewPolling(statusprovider.CacheSource{Graph: componentGraph, Cache: telemetryCache})
	go status.Run(ctx, cfg.Actor.StatusPollInterval())

	rtr := router.New()
	a := actor.New(componentGraph, telemetryCache, status, fleet, rtr, curves)
	a.DefaultRequestTimeout = cfg.Actor.DefaultRequestTimeout()

	// The configuration can define a data platform upload target - we buffer dispatch results to sqlite and
	// upload them to Supabase
	var dataPlatform *dataplatform.DataPlatform
	if cfg.DataPlatform.Supabase.Url != "" {

		supabaseAnonKey, ok := os.LookupEnv(cfg.DataPlatform.Supabase.AnonKeyEnvVar)
		if !ok {
			slog.Error("Environment variable not found", "env_var", cfg.DataPlatform.Supabase.AnonKeyEnvVar)
			return
		}
		supabaseUserKey, ok := os.LookupEnv(cfg.DataPlatform.Supabase.UserKeyEnvVar)
		if !ok {
			slog.Error("Environment variable not found", "env_var", cfg.DataPlatform.Supabase.UserKeyEnvVar)
			return
		}

		// use the supabase url to create a unique sqlite buffer filename
		bufferFilename := strings.TrimPrefix(cfg.DataPlatform.Supabase.Url, "https://")
		bufferFilename = strings.TrimPrefix(bufferFilename, "http://")
		bufferFilename = fmt.Sprintf("results_%s.sqlite", bufferFilename)

		dataPlatform, err = dataplatform.New(
			cfg.DataPlatform.Supabase.Url,
			supabaseAnonKey,
			supabaseUserKey,
			cfg.DataPlatform.Supabase.Schema,
			bufferFilename,
		)
		if err != nil {
			slog.Error("Failed to create data platform", "supabase_url", cfg.DataPlatform.Supabase.Url, "error", err)
			return
		}
		go dataPlatform.Run(ctx, time.Second*time.Duration(cfg.DataPlatform.UploadIntervalSecs))
	}

	// The repository persists every emitted result locally, regardless of whether a data platform is configured.
	repo, err := repository.New(cfg.Repository.Path)
	if err != nil {
		slog.Error("Failed to create repository", "error", err)
		return
	}

	// every published result is also persisted locally and (if configured) handed to the data platform for
	// upload - this never gates or delays the result reaching router.Router's receivers
	a.Sink = func(result telemetry.Result) {
		if err := repo.StoreResult(result); err != nil {
			slog.Error("Failed to store dispatch result", "error", err)
		}
		if dataPlatform != nil {
			sendIfNonBlocking(dataPlatform.Results, result, "Dataplatform results")
		}
	}
	go a.Run(ctx)

	// wait for a ctrl-c interrupt before exiting
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)
	<-signalChan

	// cancel any open go-routines and give them up to 100ms to gracefully shutdown
	cancel()
	time.Sleep(time.Millisecond * 100)

	slog.Info("Exiting")
	os.Exit(0)
}

// sendIfNonBlocking attempts to send the given value onto the given channel, but will only do so if the operation
// is non-blocking, otherwise it logs a warning message and returns.
func sendIfNonBlocking[V any](ch chan V, val V, messageTargetLogStr string) {
	select {
	case ch <- val:
	default:
		slog.Warn("Dropped message", "message_target", messageTargetLogStr)
	}
}
