// Package bridge implements the client-side endpoint of the spyglass
// debugging bridge: a registry of pluggable feature modules and the
// dispatcher that routes inspector messages to them.
package bridge

import (
	"encoding/json"

	"github.com/soyeahso/spyglass/internal/protocol"
)

// Plugin is a feature module supplied by the host application. Callbacks
// are invoked by the dispatcher while it holds its lock; a plugin that
// blocks inside a callback stalls all dispatch.
type Plugin interface {
	// Identifier returns the unique name the inspector addresses this
	// plugin by.
	Identifier() string

	// RunInBackground reports whether the plugin should be connected as
	// soon as the bridge comes up, without waiting for the inspector to
	// open it.
	RunInBackground() bool

	// DidConnect is called when a connection to the inspector is
	// established for this plugin.
	DidConnect(conn *Connection)

	// DidDisconnect is called when the plugin's connection is torn down.
	DidDisconnect()

	// HandleCall handles an inspector-initiated call. The responder is nil
	// for fire-and-forget calls; when present, the plugin may reply
	// asynchronously, at most once.
	HandleCall(method string, params json.RawMessage, r *Responder)
}

// Sender is the outbound side of the transport. Implementations enqueue for
// asynchronous delivery and never fail synchronously.
type Sender interface {
	SendMessage(msg protocol.Message)
}
