package bridge

import (
	"encoding/json"

	"github.com/soyeahso/spyglass/internal/logging"
	"github.com/soyeahso/spyglass/internal/protocol"
)

// Connection binds one connected plugin to the transport. The dispatcher
// creates exactly one per connected plugin and drops it on disconnect.
type Connection struct {
	api    string
	plugin Plugin
	sender Sender
	log    *logging.Logger
}

func newConnection(api string, p Plugin, sender Sender, log *logging.Logger) *Connection {
	return &Connection{
		api:    api,
		plugin: p,
		sender: sender,
		log:    log.With("plugin", api),
	}
}

// API returns the identifier the inspector addresses this connection by.
func (c *Connection) API() string { return c.api }

// Call forwards an inspector call to the plugin. Ownership of the responder
// transfers to the plugin, which may reply asynchronously.
func (c *Connection) Call(method string, params json.RawMessage, r *Responder) {
	c.plugin.HandleCall(method, params, r)
}

// Send pushes an unsolicited plugin-initiated message to the inspector.
func (c *Connection) Send(method string, params any) {
	msg, err := protocol.NewExecute(c.api, method, params)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Msg("encoding outbound call")
		return
	}
	c.sender.SendMessage(msg)
}
