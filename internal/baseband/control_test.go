package baseband

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-sdr-baseband/internal/bus"
)

func testEnv() (Env, *bus.HandlerMap, *bus.Queue) {
	handlers := bus.NewHandlerMap()
	out := bus.NewQueue(64)
	return Env{
		Audio:    &captureSink{},
		Out:      out,
		Handlers: handlers,
		Log:      log.New(io.Discard),
	}, handlers, out
}

func testParams() Params {
	return Params{SourceRate: 2_457_600, AudioRate: 48_000}
}

// captureSink collects everything written to it.
type captureSink struct {
	samples []float32
}

func (s *captureSink) Write(samples []float32) {
	s.samples = append(s.samples, samples...)
}

func TestControllerModeSwitchReleasesHandlers(t *testing.T) {
	env, handlers, _ := testEnv()
	ctrl := NewController(testParams(), env)

	ctrl.SetMode(bus.ModeFSKPacket)
	require.NotNil(t, ctrl.Active())
	assert.Error(t, handlers.Register(bus.KindFSKConfiguration, func(bus.Message) {}),
		"the packet processor must hold the configuration handler")

	// Switching away must release the registration.
	ctrl.SetMode(bus.ModeNFMAudio)
	require.NotNil(t, ctrl.Active())
	require.NoError(t, handlers.Register(bus.KindFSKConfiguration, func(bus.Message) {}))
	handlers.Unregister(bus.KindFSKConfiguration)

	// And switching back must claim it again without a duplicate error.
	ctrl.SetMode(bus.ModeFSKPacket)
	require.NotNil(t, ctrl.Active())
	assert.Equal(t, bus.ModeFSKPacket, ctrl.Mode())
}

func TestControllerSameModeIsNoOp(t *testing.T) {
	env, _, _ := testEnv()
	ctrl := NewController(testParams(), env)

	ctrl.SetMode(bus.ModeAMAudio)
	first := ctrl.Active()
	ctrl.SetMode(bus.ModeAMAudio)
	assert.Same(t, first, ctrl.Active())
}

func TestControllerModeNoneDisables(t *testing.T) {
	env, _, _ := testEnv()
	ctrl := NewController(testParams(), env)

	ctrl.SetMode(bus.ModeWFMAudio)
	require.NotNil(t, ctrl.Active())
	ctrl.SetMode(bus.ModeNone)
	assert.Nil(t, ctrl.Active())
}

func TestControllerConstructionFailureDisables(t *testing.T) {
	env, _, _ := testEnv()
	// A source rate too low for the audio rate makes every audio variant
	// unbuildable.
	ctrl := NewController(Params{SourceRate: 96_000, AudioRate: 48_000}, env)

	ctrl.SetMode(bus.ModeNFMAudio)
	assert.Nil(t, ctrl.Active())
	assert.Equal(t, bus.ModeNone, ctrl.Mode())
}

func TestControllerAttachRoutesConfiguration(t *testing.T) {
	env, handlers, _ := testEnv()
	ctrl := NewController(testParams(), env)
	require.NoError(t, ctrl.Attach(handlers))

	handlers.Dispatch(bus.BasebandConfiguration{Mode: bus.ModeAMAudio})
	assert.Equal(t, bus.ModeAMAudio, ctrl.Mode())
	assert.NotNil(t, ctrl.Active())
}

func TestControllerCloseTearsDown(t *testing.T) {
	env, handlers, _ := testEnv()
	ctrl := NewController(testParams(), env)

	ctrl.SetMode(bus.ModeFSKPacket)
	require.NoError(t, ctrl.Close())
	assert.Nil(t, ctrl.Active())
	// The packet processor's handler must be released on teardown.
	assert.NoError(t, handlers.Register(bus.KindFSKConfiguration, func(bus.Message) {}))
}
