package bridge

import (
	"encoding/json"
	"testing"

	"github.com/soyeahso/spyglass/internal/logging"
	"github.com/soyeahso/spyglass/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionCallForwardsToPlugin(t *testing.T) {
	sender := &fakeSender{}
	var gotMethod string
	var gotParams json.RawMessage
	p := &testPlugin{
		id: "logs",
		handle: func(method string, params json.RawMessage, _ *Responder) {
			gotMethod = method
			gotParams = params
		},
	}
	conn := newConnection("logs", p, sender, logging.New(nil, "silent", "json"))

	conn.Call("tail", json.RawMessage(`{"n":10}`), nil)

	assert.Equal(t, "tail", gotMethod)
	assert.JSONEq(t, `{"n":10}`, string(gotParams))
}

func TestConnectionSend(t *testing.T) {
	sender := &fakeSender{}
	conn := newConnection("logs", &testPlugin{id: "logs"}, sender, logging.New(nil, "silent", "json"))

	conn.Send("record", map[string]any{"line": "hello"})

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, protocol.MethodExecute, msgs[0].Method)

	var p protocol.ExecuteParams
	require.NoError(t, json.Unmarshal(msgs[0].Params, &p))
	assert.Equal(t, "logs", p.API)
	assert.Equal(t, "record", p.Method)
	assert.JSONEq(t, `{"line":"hello"}`, string(p.Params))
}

func TestConnectionSendUnencodablePayload(t *testing.T) {
	sender := &fakeSender{}
	conn := newConnection("logs", &testPlugin{id: "logs"}, sender, logging.New(nil, "silent", "json"))

	conn.Send("record", map[string]any{"bad": make(chan int)})

	assert.Empty(t, sender.messages(), "unencodable payload is dropped with a log line")
}
