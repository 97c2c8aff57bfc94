package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gnssreceiver/l1ca/gps/navmsg"
	"github.com/gnssreceiver/l1ca/gps/receiver"
	"github.com/gnssreceiver/l1ca/internal/config"
	"github.com/gnssreceiver/l1ca/internal/samplesource"
	"github.com/gnssreceiver/l1ca/internal/telemetry"
)

const (
	exitSuccess       = 0
	exitConfigInvalid = 2
	exitExhausted     = 3
	exitInternal      = 4
)

func main() {
	os.Exit(run())
}

func run() int {
	const configPath = "gpsreceiver.json"

	persisted, err := config.LoadOrCreate(configPath)
	if err != nil {
		log.Printf("load config: %v", err)
		return exitConfigInvalid
	}

	cliCfg, err := config.Parse(os.Args[1:], os.LookupEnv, persisted)
	if err != nil {
		log.Printf("parse config: %v", err)
		return exitConfigInvalid
	}
	cfg, err := config.Validate(cliCfg)
	if err != nil {
		log.Printf("validate config: %v", err)
		return exitConfigInvalid
	}
	if err := config.Save(configPath, cfg); err != nil {
		log.Printf("save config: %v", err)
		return exitConfigInvalid
	}

	source, err := openSource(cfg)
	if err != nil {
		log.Printf("open sample source: %v", err)
		return exitConfigInvalid
	}
	if closer, ok := source.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	var reporters []telemetry.Reporter
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.WebAddr != "" {
		hub := telemetry.NewHub(cfg.HistoryLimit)
		reporters = append(reporters, hub)
		go telemetry.NewWebServer(cfg.WebAddr, hub).Start(ctx)
		log.Printf("web interface: http://localhost%s", cfg.WebAddr)
	} else {
		reporters = append(reporters, telemetry.NewStdoutReporter(nil))
	}
	report := telemetry.MultiReporter(reporters)

	rxCfg := receiverConfig(cfg)
	if cfg.PersistedEphemerisPath != "" {
		seed, err := navmsg.LoadPersistedEphemeris(cfg.PersistedEphemerisPath)
		if err != nil {
			log.Printf("load persisted ephemeris: %v", err)
		} else if len(seed) > 0 {
			rxCfg.SeedEphemeris = make(map[int]navmsg.Ephemeris, len(seed))
			for _, eph := range seed {
				rxCfg.SeedEphemeris[eph.SV] = eph
			}
			log.Printf("loaded %d persisted ephemeris entries from %s", len(seed), cfg.PersistedEphemerisPath)
		}
	}

	rx := receiver.New(rxCfg, source, report)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("starting receiver (Ctrl+C to stop)...")
	runErr := rx.Run(sigCtx)

	if cfg.PersistedEphemerisPath != "" {
		if saveErr := navmsg.SavePersistedEphemeris(cfg.PersistedEphemerisPath, rx.Ephemerides()); saveErr != nil {
			log.Printf("save persisted ephemeris: %v", saveErr)
		}
	}

	if runErr != nil {
		return handleRunError(runErr)
	}
	return exitSuccess
}

func handleRunError(err error) int {
	var rerr *receiver.Error
	if e, ok := err.(*receiver.Error); ok {
		rerr = e
	}
	if rerr == nil {
		log.Printf("receiver: %v", err)
		return exitInternal
	}

	switch rerr.Kind {
	case receiver.SampleSourceExhausted:
		log.Printf("sample source exhausted before a fix: %v", rerr.Err)
		return exitExhausted
	case receiver.ConfigInvalid:
		log.Printf("invalid configuration: %v", rerr.Err)
		return exitConfigInvalid
	default:
		log.Printf("receiver: %v", rerr)
		return exitInternal
	}
}

// openSource builds a Source from the configured format: a file replay if
// sample_file_path is set, otherwise a synthetic composite signal useful for
// demos and smoke tests.
func openSource(cfg config.Config) (samplesource.Source, error) {
	if cfg.SampleFilePath == "" {
		return samplesource.NewSyntheticSource(cfg.SampleRateHz, 0.05, []samplesource.SignalSpec{
			{SV: 3, DopplerHz: 1200, CodePhaseChips: 250},
			{SV: 7, DopplerHz: -2400, CodePhaseChips: 600},
			{SV: 11, DopplerHz: 800, CodePhaseChips: 75},
			{SV: 18, DopplerHz: -400, CodePhaseChips: 900},
		}, 1), nil
	}

	f, err := os.Open(cfg.SampleFilePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.SampleFilePath, err)
	}
	format, err := fileFormat(cfg.SampleFormat)
	if err != nil {
		f.Close()
		return nil, err
	}
	return samplesource.NewFileSource(f, f, format, cfg.SampleRateHz), nil
}

func fileFormat(f config.SampleFormat) (samplesource.Format, error) {
	switch f {
	case config.FormatInt8IQ:
		return samplesource.FormatInt8IQ, nil
	case config.FormatUint8IQ:
		return samplesource.FormatUint8IQ, nil
	case config.FormatFloat32IQ:
		return samplesource.FormatFloat32IQ, nil
	default:
		return 0, fmt.Errorf("unsupported sample_format %q", f)
	}
}

func receiverConfig(cfg config.Config) receiver.Config {
	return receiver.Config{
		SampleRateHz:            cfg.SampleRateHz,
		Acquisition:             acquisitionConfig(cfg),
		Tracking:                trackingConfig(cfg),
		MaxConcurrentTrackedSVs: cfg.MaxConcurrentTrackedSVs,
	}
}
