// Package protocol defines the message envelope exchanged with the remote
// inspector over the bridge transport.
package protocol

import "encoding/json"

// Method names the bridge itself understands. Plugin-level methods travel
// inside an "execute" envelope and are opaque to this layer.
const (
	MethodGetPlugins     = "getPlugins"
	MethodInit           = "init"
	MethodDeinit         = "deinit"
	MethodExecute        = "execute"
	MethodRefreshPlugins = "refreshPlugins"
)

// Message is the envelope for all inspector traffic. Requests carry Method
// and optionally ID and Params; replies carry ID plus Success or Error.
// A message with an ID expects exactly one reply addressed to that ID.
type Message struct {
	Method  string          `json:"method,omitempty"`
	ID      *int64          `json:"id,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Success json.RawMessage `json:"success,omitempty"`
	Error   *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody is the error payload of a reply or of an unsolicited error
// report. Stacktrace is only set on unsolicited reports.
type ErrorBody struct {
	Message    string `json:"message"`
	Stacktrace string `json:"stacktrace,omitempty"`
}

// InitParams are the params of "init" and "deinit" requests.
type InitParams struct {
	Plugin string `json:"plugin"`
}

// ExecuteParams are the params of an "execute" request: a call addressed to
// an active plugin connection.
type ExecuteParams struct {
	API    string          `json:"api"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// PluginList is the success payload of "getPlugins".
type PluginList struct {
	Plugins []string `json:"plugins"`
}

// NewSuccess creates a success reply addressed to id.
func NewSuccess(id int64, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{ID: &id, Success: raw}, nil
}

// NewError creates an error reply addressed to id.
func NewError(id int64, message string) Message {
	return Message{ID: &id, Error: &ErrorBody{Message: message}}
}

// NewErrorReport creates an unsolicited error report with no addressee.
func NewErrorReport(message, stacktrace string) Message {
	return Message{Error: &ErrorBody{Message: message, Stacktrace: stacktrace}}
}

// NewRefreshPlugins creates the notification telling the inspector to
// re-fetch the plugin list.
func NewRefreshPlugins() Message {
	return Message{Method: MethodRefreshPlugins}
}

// NewExecute creates an outbound plugin-initiated call envelope.
func NewExecute(api, method string, params any) (Message, error) {
	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return Message{}, err
		}
		raw = b
	}
	inner, err := json.Marshal(ExecuteParams{API: api, Method: method, Params: raw})
	if err != nil {
		return Message{}, err
	}
	return Message{Method: MethodExecute, Params: inner}, nil
}
