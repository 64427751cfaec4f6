package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerMapDuplicateRegistrationFails(t *testing.T) {
	m := NewHandlerMap()

	require.NoError(t, m.Register(KindFSKConfiguration, func(Message) {}))
	assert.Error(t, m.Register(KindFSKConfiguration, func(Message) {}))

	// After unregistering, the kind is free again.
	m.Unregister(KindFSKConfiguration)
	assert.NoError(t, m.Register(KindFSKConfiguration, func(Message) {}))
}

func TestHandlerMapRejectsNilHandler(t *testing.T) {
	m := NewHandlerMap()
	assert.Error(t, m.Register(KindShutdownRequest, nil))
}

func TestHandlerMapDispatchByKind(t *testing.T) {
	m := NewHandlerMap()

	var got []Kind
	require.NoError(t, m.Register(KindBasebandConfiguration, func(msg Message) {
		got = append(got, msg.Kind())
	}))
	require.NoError(t, m.Register(KindShutdownRequest, func(msg Message) {
		got = append(got, msg.Kind())
	}))

	m.Dispatch(BasebandConfiguration{Mode: ModeAMAudio})
	m.Dispatch(ShutdownRequest{})

	assert.Equal(t, []Kind{KindBasebandConfiguration, KindShutdownRequest}, got)
}

func TestHandlerMapUnregisteredKindIsNoOp(t *testing.T) {
	m := NewHandlerMap()

	assert.NotPanics(t, func() {
		m.Dispatch(FSKPacket{BitsReceived: 64})
		m.Dispatch(ShutdownAcknowledge{})
	})
}
