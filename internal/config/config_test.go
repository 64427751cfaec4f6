package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source_sample_rate: 1228800
spectrum_interval_ms: 250
fsk:
  symbol_rate: 4800
  packet_length: 128
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1_228_800, cfg.SourceSampleRate)
	assert.Equal(t, 250*time.Millisecond, cfg.SpectrumPeriod())
	assert.Equal(t, 4800, cfg.FSK.SymbolRate)
	assert.Equal(t, 128, cfg.FSK.PacketLength)
	// Untouched fields keep their defaults.
	assert.Equal(t, Default().BlockSamples, cfg.BlockSamples)
	assert.Equal(t, Default().FSK.AccessCode, cfg.FSK.AccessCode)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("block_samples: 17\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
