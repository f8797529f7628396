package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRoundTripRequest(t *testing.T) {
	raw := []byte(`{"method":"execute","id":7,"params":{"api":"inspector","method":"highlight"}}`)

	var m Message
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "execute", m.Method)
	require.NotNil(t, m.ID)
	assert.Equal(t, int64(7), *m.ID)

	var p ExecuteParams
	require.NoError(t, json.Unmarshal(m.Params, &p))
	assert.Equal(t, "inspector", p.API)
	assert.Equal(t, "highlight", p.Method)
}

func TestMessageNoID(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"method":"init","params":{"plugin":"logs"}}`), &m))
	assert.Nil(t, m.ID)
}

func TestNewSuccess(t *testing.T) {
	m, err := NewSuccess(3, PluginList{Plugins: []string{"a", "b"}})
	require.NoError(t, err)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"success":{"plugins":["a","b"]}}`, string(out))
}

func TestNewError(t *testing.T) {
	out, err := json.Marshal(NewError(9, "boom"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":9,"error":{"message":"boom"}}`, string(out))
}

func TestNewErrorReportHasNoID(t *testing.T) {
	out, err := json.Marshal(NewErrorReport("bad", "<none>"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":{"message":"bad","stacktrace":"<none>"}}`, string(out))
}

func TestNewExecute(t *testing.T) {
	m, err := NewExecute("logs", "record", map[string]any{"line": "hello"})
	require.NoError(t, err)
	assert.Equal(t, MethodExecute, m.Method)

	var p ExecuteParams
	require.NoError(t, json.Unmarshal(m.Params, &p))
	assert.Equal(t, "logs", p.API)
	assert.Equal(t, "record", p.Method)
	assert.JSONEq(t, `{"line":"hello"}`, string(p.Params))
}

func TestNewExecuteNilParams(t *testing.T) {
	m, err := NewExecute("logs", "clear", nil)
	require.NoError(t, err)

	var p ExecuteParams
	require.NoError(t, json.Unmarshal(m.Params, &p))
	assert.Nil(t, p.Params)
}

func TestNewRefreshPlugins(t *testing.T) {
	out, err := json.Marshal(NewRefreshPlugins())
	require.NoError(t, err)
	assert.JSONEq(t, `{"method":"refreshPlugins"}`, string(out))
}
