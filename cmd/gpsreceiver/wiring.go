package main

import (
	"github.com/gnssreceiver/l1ca/gps/acquisition"
	"github.com/gnssreceiver/l1ca/gps/tracking"
	"github.com/gnssreceiver/l1ca/internal/config"
)

// acquisitionConfig derives the acquisition component's config from the
// receiver's flat configuration surface.
func acquisitionConfig(cfg config.Config) acquisition.Config {
	return acquisition.Config{
		SampleRateHz:      cfg.SampleRateHz,
		DopplerRangeHz:    cfg.AcquisitionDopplerRangeHz,
		DopplerStepHz:     cfg.AcquisitionDopplerStepHz,
		IntegrationBlocks: cfg.AcquisitionIntegrationMs,
		ThresholdRatio:    cfg.AcquisitionThresholdRatio,
	}
}

// trackingConfig derives the tracking component's config, taking its loop
// filter defaults from tracking.DefaultConfig and overriding the two
// bandwidths the receiver configuration surface exposes.
func trackingConfig(cfg config.Config) tracking.Config {
	t := tracking.DefaultConfig(cfg.SampleRateHz)
	t.PLLBandwidthHz = cfg.PLLBandwidthHz
	t.DLLBandwidthHz = cfg.DLLBandwidthHz
	return t
}
