// Package config loads and validates the receiver's configuration:
// flags override environment variables override a persisted JSON file
// override built-in defaults, following the teacher's cmd/monopulse
// layering.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
)

// SampleFormat names the interleaved IQ encoding of a file sample source.
type SampleFormat string

const (
	FormatInt8IQ    SampleFormat = "int8_iq"
	FormatUint8IQ   SampleFormat = "uint8_iq"
	FormatFloat32IQ SampleFormat = "float32_iq"
)

// Config is the receiver's full runtime configuration, enumerated per the
// external interfaces the CLI exposes.
type Config struct {
	SampleRateHz              float64      `json:"sample_rate_hz"`
	SampleFormat              SampleFormat `json:"sample_format"`
	SampleFilePath            string       `json:"sample_file_path"`
	CenterFrequencyHz         float64      `json:"center_frequency_hz"`
	AcquisitionDopplerRangeHz float64      `json:"acquisition_doppler_range_hz"`
	AcquisitionDopplerStepHz  float64      `json:"acquisition_doppler_step_hz"`
	AcquisitionThresholdRatio float64      `json:"acquisition_threshold_ratio"`
	AcquisitionIntegrationMs  int          `json:"acquisition_integration_blocks"`
	MaxConcurrentTrackedSVs   int          `json:"max_concurrent_tracked_svs"`
	PLLBandwidthHz            float64      `json:"pll_bandwidth_hz"`
	DLLBandwidthHz            float64      `json:"dll_bandwidth_hz"`
	HistoryLimit              int          `json:"history_limit"`
	WebAddr                   string       `json:"web_addr"`
	PersistedEphemerisPath    string       `json:"persisted_ephemeris_path"`
}

// Default returns the built-in default configuration.
func Default() Config {
	return Config{
		SampleRateHz:              4.096e6,
		SampleFormat:              FormatInt8IQ,
		CenterFrequencyHz:         1.57542e9,
		AcquisitionDopplerRangeHz: 5000,
		AcquisitionDopplerStepHz:  200,
		AcquisitionThresholdRatio: 2.5,
		AcquisitionIntegrationMs:  10,
		MaxConcurrentTrackedSVs:   10,
		PLLBandwidthHz:            10,
		DLLBandwidthHz:            1,
		HistoryLimit:              500,
		WebAddr:                   ":8080",
	}
}

// Validate range-checks cfg, defaulting zero-valued fields first, mirroring
// the telemetry hub's validateConfig shape.
func Validate(cfg Config) (Config, error) {
	def := Default()
	if cfg.SampleRateHz == 0 {
		cfg.SampleRateHz = def.SampleRateHz
	}
	if cfg.SampleFormat == "" {
		cfg.SampleFormat = def.SampleFormat
	}
	if cfg.CenterFrequencyHz == 0 {
		cfg.CenterFrequencyHz = def.CenterFrequencyHz
	}
	if cfg.AcquisitionDopplerRangeHz == 0 {
		cfg.AcquisitionDopplerRangeHz = def.AcquisitionDopplerRangeHz
	}
	if cfg.AcquisitionDopplerStepHz == 0 {
		cfg.AcquisitionDopplerStepHz = def.AcquisitionDopplerStepHz
	}
	if cfg.AcquisitionThresholdRatio == 0 {
		cfg.AcquisitionThresholdRatio = def.AcquisitionThresholdRatio
	}
	if cfg.AcquisitionIntegrationMs == 0 {
		cfg.AcquisitionIntegrationMs = def.AcquisitionIntegrationMs
	}
	if cfg.MaxConcurrentTrackedSVs == 0 {
		cfg.MaxConcurrentTrackedSVs = def.MaxConcurrentTrackedSVs
	}
	if cfg.PLLBandwidthHz == 0 {
		cfg.PLLBandwidthHz = def.PLLBandwidthHz
	}
	if cfg.DLLBandwidthHz == 0 {
		cfg.DLLBandwidthHz = def.DLLBandwidthHz
	}
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = def.HistoryLimit
	}

	if cfg.SampleRateHz < 2.046e6 {
		return Config{}, fmt.Errorf("config: sample_rate_hz %v below minimum 2.046e6", cfg.SampleRateHz)
	}
	switch cfg.SampleFormat {
	case FormatInt8IQ, FormatUint8IQ, FormatFloat32IQ:
	default:
		return Config{}, fmt.Errorf("config: unknown sample_format %q", cfg.SampleFormat)
	}
	if cfg.AcquisitionDopplerRangeHz <= 0 {
		return Config{}, fmt.Errorf("config: acquisition_doppler_range_hz must be positive")
	}
	if cfg.AcquisitionDopplerStepHz <= 0 {
		return Config{}, fmt.Errorf("config: acquisition_doppler_step_hz must be positive")
	}
	if cfg.AcquisitionThresholdRatio <= 1 {
		return Config{}, fmt.Errorf("config: acquisition_threshold_ratio must exceed 1")
	}
	if cfg.MaxConcurrentTrackedSVs < 1 || cfg.MaxConcurrentTrackedSVs > 32 {
		return Config{}, fmt.Errorf("config: max_concurrent_tracked_svs %d out of range [1,32]", cfg.MaxConcurrentTrackedSVs)
	}
	if cfg.PLLBandwidthHz <= 0 || cfg.DLLBandwidthHz <= 0 {
		return Config{}, fmt.Errorf("config: loop bandwidths must be positive")
	}
	if cfg.HistoryLimit < 1 {
		return Config{}, fmt.Errorf("config: history_limit must be positive")
	}
	return cfg, nil
}

// LoadOrCreate reads a persisted JSON config from path, creating it with
// built-in defaults if it does not exist yet.
func LoadOrCreate(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if saveErr := Save(path, cfg); saveErr != nil {
				return Config{}, saveErr
			}
			return cfg, nil
		}
		return Config{}, err
	}
	defer f.Close()

	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path as indented JSON.
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Parse layers flags over environment variables over persisted defaults,
// following the teacher's cmd/monopulse parseConfig shape.
func Parse(args []string, lookup func(string) (string, bool), defaults Config) (Config, error) {
	cfg := Config{}
	fs := flag.NewFlagSet("gpsreceiver", flag.ContinueOnError)

	fs.Float64Var(&cfg.SampleRateHz, "sample-rate", envFloat(lookup, "GPSRX_SAMPLE_RATE", defaults.SampleRateHz), "Sample rate in Hz")
	format := fs.String("sample-format", envString(lookup, "GPSRX_SAMPLE_FORMAT", string(defaults.SampleFormat)), "Sample format (int8_iq|uint8_iq|float32_iq)")
	fs.StringVar(&cfg.SampleFilePath, "sample-file", envString(lookup, "GPSRX_SAMPLE_FILE", defaults.SampleFilePath), "Path to an interleaved IQ capture file")
	fs.Float64Var(&cfg.CenterFrequencyHz, "center-frequency", envFloat(lookup, "GPSRX_CENTER_FREQUENCY", defaults.CenterFrequencyHz), "Center frequency in Hz")
	fs.Float64Var(&cfg.AcquisitionDopplerRangeHz, "doppler-range", envFloat(lookup, "GPSRX_DOPPLER_RANGE", defaults.AcquisitionDopplerRangeHz), "Acquisition Doppler search range in Hz")
	fs.Float64Var(&cfg.AcquisitionDopplerStepHz, "doppler-step", envFloat(lookup, "GPSRX_DOPPLER_STEP", defaults.AcquisitionDopplerStepHz), "Acquisition Doppler bin step in Hz")
	fs.Float64Var(&cfg.AcquisitionThresholdRatio, "acquisition-threshold", envFloat(lookup, "GPSRX_ACQ_THRESHOLD", defaults.AcquisitionThresholdRatio), "Acquisition peak-to-second-peak ratio threshold")
	fs.IntVar(&cfg.AcquisitionIntegrationMs, "acquisition-blocks", envInt(lookup, "GPSRX_ACQ_BLOCKS", defaults.AcquisitionIntegrationMs), "Acquisition non-coherent integration blocks")
	fs.IntVar(&cfg.MaxConcurrentTrackedSVs, "max-tracked-svs", envInt(lookup, "GPSRX_MAX_TRACKED", defaults.MaxConcurrentTrackedSVs), "Maximum concurrently tracked SVs")
	fs.Float64Var(&cfg.PLLBandwidthHz, "pll-bandwidth", envFloat(lookup, "GPSRX_PLL_BANDWIDTH", defaults.PLLBandwidthHz), "Carrier PLL natural frequency in Hz")
	fs.Float64Var(&cfg.DLLBandwidthHz, "dll-bandwidth", envFloat(lookup, "GPSRX_DLL_BANDWIDTH", defaults.DLLBandwidthHz), "Code DLL bandwidth in Hz")
	fs.IntVar(&cfg.HistoryLimit, "history-limit", envInt(lookup, "GPSRX_HISTORY_LIMIT", defaults.HistoryLimit), "Telemetry history ring size")
	fs.StringVar(&cfg.WebAddr, "web-addr", envString(lookup, "GPSRX_WEB_ADDR", defaults.WebAddr), "Telemetry web listen address, empty to disable")
	fs.StringVar(&cfg.PersistedEphemerisPath, "ephemeris-file", envString(lookup, "GPSRX_EPHEMERIS_FILE", defaults.PersistedEphemerisPath), "Optional persisted ephemeris snapshot path")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.SampleFormat = SampleFormat(*format)
	return cfg, nil
}

func envFloat(lookup func(string) (string, bool), key string, def float64) float64 {
	if val, ok := lookup(key); ok {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}

func envInt(lookup func(string) (string, bool), key string, def int) int {
	if val, ok := lookup(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func envString(lookup func(string) (string, bool), key, def string) string {
	if val, ok := lookup(key); ok {
		return val
	}
	return def
}
