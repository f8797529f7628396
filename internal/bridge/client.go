package bridge

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/soyeahso/spyglass/internal/events"
	"github.com/soyeahso/spyglass/internal/logging"
	"github.com/soyeahso/spyglass/internal/protocol"
	"github.com/soyeahso/spyglass/internal/state"
)

// Client owns the plugin registry and routes inspector messages. All mutable
// state is guarded by one exclusive lock; every public operation holds it
// for its full duration, so operations are serialized. Dispatch volume is
// human-driven and low, which makes the coarse lock the right trade.
type Client struct {
	mu          sync.Mutex
	plugins     map[string]Plugin
	connections map[string]*Connection
	connected   bool

	sender Sender
	trail  *state.Trail
	// events are emitted while the lock is held; handlers must not call
	// back into the client.
	events *events.Manager
	log    *logging.Logger
}

// New creates a bridge client. The sender is the outbound transport; trail
// and ev receive lifecycle observability and may be shared with the host.
func New(sender Sender, trail *state.Trail, ev *events.Manager, log *logging.Logger) *Client {
	return &Client{
		plugins:     make(map[string]Plugin),
		connections: make(map[string]*Connection),
		sender:      sender,
		trail:       trail,
		events:      ev,
		log:         log.Sub("bridge"),
	}
}

// AddPlugin registers a plugin. Fails with ErrDuplicatePlugin if the
// identifier is taken. While connected, the inspector is told to refresh
// its plugin list and background plugins are activated immediately.
func (c *Client) AddPlugin(p Plugin) error {
	return c.perform("addPlugin", func() error {
		id := p.Identifier()
		c.log.Debug().Str("plugin", id).Msg("addPlugin")
		step := c.trail.Start("Add plugin " + id)
		// Fail after Complete is a no-op, so the deferred call only marks
		// steps abandoned by an error return or a panic.
		defer step.Fail()

		c.mu.Lock()
		defer c.mu.Unlock()

		if _, ok := c.plugins[id]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePlugin, id)
		}
		c.plugins[id] = p
		step.Complete()
		c.events.Emit(events.PluginAdded, id)

		if c.connected {
			c.sender.SendMessage(protocol.NewRefreshPlugins())
			if p.RunInBackground() {
				c.connectLocked(p)
			}
		}
		return nil
	})
}

// RemovePlugin unregisters a plugin, disconnecting it first. Fails with
// ErrPluginNotFound if the identifier is unknown.
func (c *Client) RemovePlugin(p Plugin) error {
	return c.perform("removePlugin", func() error {
		id := p.Identifier()
		c.log.Debug().Str("plugin", id).Msg("removePlugin")

		c.mu.Lock()
		defer c.mu.Unlock()

		if _, ok := c.plugins[id]; !ok {
			return fmt.Errorf("%w: %s", ErrPluginNotFound, id)
		}
		c.disconnectLocked(p)
		delete(c.plugins, id)
		c.events.Emit(events.PluginRemoved, id)

		if c.connected {
			c.sender.SendMessage(protocol.NewRefreshPlugins())
		}
		return nil
	})
}

// GetPlugin returns the plugin registered under id.
func (c *Client) GetPlugin(id string) (Plugin, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.plugins[id]
	return p, ok
}

// HasPlugin reports whether a plugin is registered under id.
func (c *Client) HasPlugin(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.plugins[id]
	return ok
}

// Connected reports the bridge link state.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// OnConnected is invoked by the transport once the inspector link is up. It
// activates every background plugin in identifier order.
func (c *Client) OnConnected() {
	c.perform("onConnected", func() error {
		c.log.Info().Msg("bridge connected")
		step := c.trail.Start("Activate background plugins")
		defer step.Fail()

		c.mu.Lock()
		defer c.mu.Unlock()

		c.connected = true
		c.events.Emit(events.BridgeConnected, "")
		for _, id := range c.identifiersLocked() {
			if p := c.plugins[id]; p.RunInBackground() {
				c.connectLocked(p)
			}
		}
		step.Complete()
		return nil
	})
}

// OnDisconnected is invoked by the transport when the inspector link drops.
// Every active connection is torn down in identifier order.
func (c *Client) OnDisconnected() {
	c.perform("onDisconnected", func() error {
		c.log.Info().Msg("bridge disconnected")
		step := c.trail.Start("Trigger disconnect callbacks")
		defer step.Fail()

		c.mu.Lock()
		defer c.mu.Unlock()

		c.connected = false
		for _, id := range c.identifiersLocked() {
			c.disconnectLocked(c.plugins[id])
		}
		c.events.Emit(events.BridgeDisconnected, "")
		step.Complete()
		return nil
	})
}

// OnMessage is the dispatch entry point for inbound inspector messages.
// Messages are processed one at a time under the client lock.
func (c *Client) OnMessage(raw json.RawMessage) {
	c.perform("onMessage", func() error {
		var msg protocol.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		if msg.Method == "" {
			return fmt.Errorf("%w: missing method", ErrMalformedMessage)
		}

		var responder *Responder
		if msg.ID != nil {
			responder = newResponder(*msg.ID, c.sender, c.log)
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		switch msg.Method {
		case protocol.MethodGetPlugins:
			return c.handleGetPlugins(responder)
		case protocol.MethodInit:
			return c.handleInit(msg.Params)
		case protocol.MethodDeinit:
			return c.handleDeinit(msg.Params)
		case protocol.MethodExecute:
			return c.handleExecute(msg.Params, responder)
		default:
			if responder != nil {
				responder.Error("Received unknown method: " + msg.Method)
				return nil
			}
			return fmt.Errorf("%w: unknown method %s without id", ErrMalformedMessage, msg.Method)
		}
	})
}

// State renders the diagnostics trail for the operator.
func (c *Client) State() string {
	return c.trail.Summary()
}

// StateElements returns a snapshot of the diagnostics trail.
func (c *Client) StateElements() []state.Element {
	return c.trail.Elements()
}

func (c *Client) handleGetPlugins(r *Responder) error {
	if r == nil {
		return fmt.Errorf("%w: getPlugins requires an id", ErrMalformedMessage)
	}
	r.Success(protocol.PluginList{Plugins: c.identifiersLocked()})
	return nil
}

func (c *Client) handleInit(raw json.RawMessage) error {
	p, err := c.resolvePluginLocked(raw, protocol.MethodInit)
	if err != nil {
		return err
	}
	if !p.RunInBackground() {
		c.connectLocked(p)
	}
	return nil
}

func (c *Client) handleDeinit(raw json.RawMessage) error {
	p, err := c.resolvePluginLocked(raw, protocol.MethodDeinit)
	if err != nil {
		return err
	}
	if !p.RunInBackground() {
		c.disconnectLocked(p)
	}
	return nil
}

func (c *Client) handleExecute(raw json.RawMessage, r *Responder) error {
	var params protocol.ExecuteParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return fmt.Errorf("%w: execute params: %v", ErrMalformedMessage, err)
	}
	if params.API == "" || params.Method == "" {
		return fmt.Errorf("%w: execute requires api and method", ErrMalformedMessage)
	}
	conn, ok := c.connections[params.API]
	if !ok {
		return fmt.Errorf("%w: %s for method execute", ErrConnectionNotFound, params.API)
	}
	conn.Call(params.Method, params.Params, r)
	return nil
}

// resolvePluginLocked extracts params.plugin and looks it up in the registry.
func (c *Client) resolvePluginLocked(raw json.RawMessage, method string) (Plugin, error) {
	var params protocol.InitParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("%w: %s params: %v", ErrMalformedMessage, method, err)
	}
	if params.Plugin == "" {
		return nil, fmt.Errorf("%w: %s requires plugin", ErrMalformedMessage, method)
	}
	p, ok := c.plugins[params.Plugin]
	if !ok {
		return nil, fmt.Errorf("%w: %s for method %s", ErrPluginNotFound, params.Plugin, method)
	}
	return p, nil
}

// connectLocked creates a connection for p unless one already exists, then
// fires the plugin's connect callback.
func (c *Client) connectLocked(p Plugin) {
	id := p.Identifier()
	if _, ok := c.connections[id]; ok {
		return
	}
	conn := newConnection(id, p, c.sender, c.log)
	c.connections[id] = conn
	p.DidConnect(conn)
	c.events.Emit(events.PluginConnected, id)
}

// disconnectLocked drops p's connection, if any, and fires the disconnect
// callback.
func (c *Client) disconnectLocked(p Plugin) {
	id := p.Identifier()
	if _, ok := c.connections[id]; !ok {
		return
	}
	delete(c.connections, id)
	p.DidDisconnect()
	c.events.Emit(events.PluginDisconnected, id)
}

// identifiersLocked returns registered plugin ids sorted for deterministic
// iteration.
func (c *Client) identifiersLocked() []string {
	ids := make([]string, 0, len(c.plugins))
	for id := range c.plugins {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// perform runs fn inside the containment boundary: a returned error is
// reported upstream when connected or logged locally when not, and any
// panic is absorbed with a terse notice. fn's error is also returned so
// host-facing callers can inspect it.
func (c *Client) perform(op string, fn func() error) error {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Str("op", op).Msg("unexpected failure suppressed in bridge client")
		}
	}()

	err := fn()
	if err != nil {
		c.report(err)
	}
	return err
}

func (c *Client) report(err error) {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()

	if connected {
		c.sender.SendMessage(protocol.NewErrorReport(err.Error(), "<none>"))
	} else {
		c.log.Error().Err(err).Msg("bridge error")
	}
}
