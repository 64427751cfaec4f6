package bus

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestDispatcherDrainsQueueThenStops(t *testing.T) {
	q := NewQueue(8)
	d := NewDispatcher(q, time.Hour, testLogger())

	var modes []Mode
	require.NoError(t, d.Handlers().Register(KindBasebandConfiguration, func(m Message) {
		modes = append(modes, m.(BasebandConfiguration).Mode)
	}))
	require.NoError(t, d.Handlers().Register(KindShutdownRequest, func(Message) {
		d.RequestStop()
	}))

	q.Push(BasebandConfiguration{Mode: ModeAMAudio})
	q.Push(BasebandConfiguration{Mode: ModeFSKPacket})
	q.Push(ShutdownRequest{})

	done := make(chan struct{})
	go func() {
		d.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not stop on the shutdown message")
	}

	assert.Equal(t, []Mode{ModeAMAudio, ModeFSKPacket}, modes)
}

func TestDispatcherFiresSpectrumTrigger(t *testing.T) {
	q := NewQueue(8)
	d := NewDispatcher(q, 5*time.Millisecond, testLogger())

	fired := make(chan struct{}, 1)
	d.OnSpectrum(func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, d.Handlers().Register(KindShutdownRequest, func(Message) {
		d.RequestStop()
	}))

	done := make(chan struct{})
	go func() {
		d.Run()
		close(done)
	}()

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("spectrum trigger never fired")
	}

	q.Push(ShutdownRequest{})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not stop on the shutdown message")
	}
}

func TestShutdownAcknowledgeFollowsLoopExit(t *testing.T) {
	in := NewQueue(8)
	out := NewQueue(8)
	d := NewDispatcher(in, time.Hour, testLogger())

	require.NoError(t, d.Handlers().Register(KindShutdownRequest, func(Message) {
		d.RequestStop()
	}))

	// The acknowledge is pushed only once Run has returned, so observing it
	// proves the event loop has stopped.
	exited := make(chan struct{})
	go func() {
		d.Run()
		close(exited)
		out.Push(ShutdownAcknowledge{})
	}()

	in.Push(ShutdownRequest{})

	select {
	case <-out.Wake():
	case <-time.After(5 * time.Second):
		t.Fatal("no acknowledge after shutdown")
	}
	msg, ok := out.Pop()
	require.True(t, ok)
	assert.IsType(t, ShutdownAcknowledge{}, msg)

	select {
	case <-exited:
	default:
		t.Fatal("acknowledge observed before the loop exited")
	}
}

func TestDispatcherIgnoresUnregisteredKinds(t *testing.T) {
	q := NewQueue(8)
	d := NewDispatcher(q, time.Hour, testLogger())

	require.NoError(t, d.Handlers().Register(KindShutdownRequest, func(Message) {
		d.RequestStop()
	}))

	// No handler for packets: they are dropped without error.
	q.Push(FSKPacket{BitsReceived: 64})
	q.Push(ShutdownRequest{})

	done := make(chan struct{})
	go func() {
		d.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
