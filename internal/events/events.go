// Package events lets the host application observe bridge lifecycle
// milestones without touching dispatcher internals.
package events

import (
	"sync"

	"github.com/soyeahso/spyglass/internal/logging"
)

// Event names emitted by the bridge.
const (
	BridgeConnected    = "bridge_connected"
	BridgeDisconnected = "bridge_disconnected"
	PluginAdded        = "plugin_added"
	PluginRemoved      = "plugin_removed"
	PluginConnected    = "plugin_connected"
	PluginDisconnected = "plugin_disconnected"
)

// AllEvents lists all known event names.
var AllEvents = []string{
	BridgeConnected,
	BridgeDisconnected,
	PluginAdded,
	PluginRemoved,
	PluginConnected,
	PluginDisconnected,
}

// Payload carries event data to handlers. Plugin is empty for bridge-level
// events.
type Payload struct {
	Event  string `json:"event"`
	Plugin string `json:"plugin,omitempty"`
}

// Handler handles one event. Returning an error logs the failure but does
// not stop delivery to later handlers.
type Handler func(p Payload) error

// Manager manages handler registrations and dispatches events.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	log      *logging.Logger
}

type namedHandler struct {
	name    string
	handler Handler
}

// NewManager creates an event manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("events"),
	}
}

// On registers a handler for the given event. The name identifies the
// handler for logging and for Off.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler})
	m.log.Debug().Str("event", event).Str("handler", name).Msg("handler registered")
}

// Off removes all handlers with the given name from the event.
func (m *Manager) Off(event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	handlers := m.handlers[event]
	filtered := make([]namedHandler, 0, len(handlers))
	for _, h := range handlers {
		if h.name != name {
			filtered = append(filtered, h)
		}
	}
	m.handlers[event] = filtered
}

// Emit dispatches an event to all registered handlers synchronously, in
// registration order. Handler errors are logged and swallowed.
func (m *Manager) Emit(event, plugin string) {
	m.mu.RLock()
	handlers := make([]namedHandler, len(m.handlers[event]))
	copy(handlers, m.handlers[event])
	m.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	p := Payload{Event: event, Plugin: plugin}
	for _, h := range handlers {
		if err := h.handler(p); err != nil {
			m.log.Warn().
				Err(err).
				Str("event", event).
				Str("handler", h.name).
				Msg("event handler error")
		}
	}
}

// Count returns the number of handlers registered for an event.
func (m *Manager) Count(event string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[event])
}
