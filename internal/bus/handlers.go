package bus

import "fmt"

// Handler consumes one dispatched message.
type Handler func(Message)

// HandlerMap routes messages to at most one handler per kind. It is owned by
// the dispatcher context and must only be touched from there; registrations
// never race with dispatch by construction, so there is no locking.
type HandlerMap struct {
	handlers map[Kind]Handler
}

// NewHandlerMap creates an empty handler map.
func NewHandlerMap() *HandlerMap {
	return &HandlerMap{handlers: make(map[Kind]Handler)}
}

// Register installs the handler for a kind. Registering a kind that already
// has a handler is a programming error and fails loudly rather than silently
// overriding the existing registration.
func (m *HandlerMap) Register(kind Kind, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("bus: nil handler for %v", kind)
	}
	if _, exists := m.handlers[kind]; exists {
		return fmt.Errorf("bus: handler already registered for %v", kind)
	}
	m.handlers[kind] = handler
	return nil
}

// Unregister removes the handler for a kind, if any.
func (m *HandlerMap) Unregister(kind Kind) {
	delete(m.handlers, kind)
}

// Dispatch routes one message. Kinds without a registered handler are
// dropped silently; that is not an error.
func (m *HandlerMap) Dispatch(msg Message) {
	if handler, ok := m.handlers[msg.Kind()]; ok {
		handler(msg)
	}
}
