// Package config holds the receiver configuration, loadable from a YAML file
// with sensible defaults for every field.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"go-sdr-baseband/internal/bus"
)

// Config holds all the configuration parameters for the application.
type Config struct {
	// SourceSampleRate is the IQ rate delivered by the RF front end.
	SourceSampleRate int `yaml:"source_sample_rate"`
	// BlockSamples is the number of complex samples per hardware buffer.
	BlockSamples int `yaml:"block_samples"`
	// RingSlots is the number of hand-off slots between the sample source
	// and the processing context.
	RingSlots int `yaml:"ring_slots"`

	AudioSampleRate int `yaml:"audio_sample_rate"`

	// QueueDepth bounds each direction of the message bus.
	QueueDepth int `yaml:"queue_depth"`

	// SpectrumIntervalMS is the spectrum update period in milliseconds.
	SpectrumIntervalMS int `yaml:"spectrum_interval_ms"`

	// StatsIntervalBuffers is the statistics epoch length in buffers.
	StatsIntervalBuffers int `yaml:"stats_interval_buffers"`

	RSSI RSSIConfig `yaml:"rssi"`

	// FSK seeds the packet pipeline configuration sent at startup when the
	// receiver comes up in FSK mode.
	FSK bus.FSKConfiguration `yaml:"fsk"`
}

// RSSIConfig shapes the auxiliary signal-strength context.
type RSSIConfig struct {
	BlockSamples   int `yaml:"block_samples"`
	RingSlots      int `yaml:"ring_slots"`
	IntervalBlocks int `yaml:"interval_blocks"`
}

// Default returns the configuration matching the reference hardware: a
// 2.4576 MHz front end delivering 2048-sample buffers.
func Default() *Config {
	return &Config{
		SourceSampleRate:     2_457_600,
		BlockSamples:         2048,
		RingSlots:            4,
		AudioSampleRate:      48_000,
		QueueDepth:           16,
		SpectrumIntervalMS:   100,
		StatsIntervalBuffers: 1200, // ~1s of buffers at the default rates
		RSSI: RSSIConfig{
			BlockSamples:   400,
			RingSlots:      4,
			IntervalBlocks: 100,
		},
		FSK: bus.FSKConfiguration{
			SymbolRate:          9600,
			AccessCode:          0x8E89BED6,
			AccessCodeLength:    32,
			AccessCodeTolerance: 1,
			PacketLength:        64,
		},
	}
}

// Load reads a YAML file over the defaults. A missing path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// SpectrumPeriod returns the spectrum update period as a duration.
func (c *Config) SpectrumPeriod() time.Duration {
	return time.Duration(c.SpectrumIntervalMS) * time.Millisecond
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.SourceSampleRate <= 0 {
		return fmt.Errorf("source_sample_rate must be positive, got %d", c.SourceSampleRate)
	}
	if c.BlockSamples < 16 || c.BlockSamples%16 != 0 {
		return fmt.Errorf("block_samples must be a positive multiple of 16, got %d", c.BlockSamples)
	}
	if c.RingSlots < 2 {
		return fmt.Errorf("ring_slots must be at least 2, got %d", c.RingSlots)
	}
	if c.AudioSampleRate <= 0 {
		return fmt.Errorf("audio_sample_rate must be positive, got %d", c.AudioSampleRate)
	}
	if c.QueueDepth < 1 {
		return fmt.Errorf("queue_depth must be at least 1, got %d", c.QueueDepth)
	}
	if c.SpectrumIntervalMS < 1 {
		return fmt.Errorf("spectrum_interval_ms must be at least 1, got %d", c.SpectrumIntervalMS)
	}
	if c.StatsIntervalBuffers < 1 {
		return fmt.Errorf("stats_interval_buffers must be at least 1, got %d", c.StatsIntervalBuffers)
	}
	if c.RSSI.BlockSamples < 1 || c.RSSI.RingSlots < 2 || c.RSSI.IntervalBlocks < 1 {
		return fmt.Errorf("invalid rssi section: %+v", c.RSSI)
	}
	return nil
}
