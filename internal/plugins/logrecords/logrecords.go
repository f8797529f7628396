// Package logrecords is a bridge plugin that streams host application log
// records to the inspector and answers tail queries over the buffer.
package logrecords

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/soyeahso/spyglass/internal/bridge"
)

const defaultCapacity = 512

// Record is one captured log line.
type Record struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

type tailParams struct {
	N int `json:"n"`
}

// Plugin buffers recent records and forwards new ones to the inspector
// while connected. Safe for concurrent use by the host.
type Plugin struct {
	mu       sync.Mutex
	records  []Record
	capacity int
	conn     *bridge.Connection
}

// New creates the plugin with the given buffer capacity; zero selects the
// default.
func New(capacity int) *Plugin {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Plugin{capacity: capacity}
}

// Identifier implements bridge.Plugin.
func (p *Plugin) Identifier() string { return "logrecords" }

// RunInBackground implements bridge.Plugin. Records are collected and
// streamed whether or not the inspector has the plugin open.
func (p *Plugin) RunInBackground() bool { return true }

// DidConnect implements bridge.Plugin. Buffered records are replayed so the
// inspector sees history from before the link came up.
func (p *Plugin) DidConnect(conn *bridge.Connection) {
	p.mu.Lock()
	p.conn = conn
	backlog := make([]Record, len(p.records))
	copy(backlog, p.records)
	p.mu.Unlock()

	for _, r := range backlog {
		conn.Send("record", r)
	}
}

// DidDisconnect implements bridge.Plugin.
func (p *Plugin) DidDisconnect() {
	p.mu.Lock()
	p.conn = nil
	p.mu.Unlock()
}

// HandleCall implements bridge.Plugin.
func (p *Plugin) HandleCall(method string, params json.RawMessage, r *bridge.Responder) {
	switch method {
	case "tail":
		if r == nil {
			return
		}
		var tp tailParams
		if params != nil {
			if err := json.Unmarshal(params, &tp); err != nil {
				r.Error("invalid tail params: " + err.Error())
				return
			}
		}
		r.Success(map[string]any{"records": p.tail(tp.N)})
	case "clear":
		p.mu.Lock()
		p.records = nil
		p.mu.Unlock()
		if r != nil {
			r.Success(map[string]any{"cleared": true})
		}
	default:
		if r != nil {
			r.Error("unknown method: " + method)
		}
	}
}

// Record captures a log line, forwarding it immediately when connected.
func (p *Plugin) Record(level, message string) {
	rec := Record{Time: time.Now(), Level: level, Message: message}

	p.mu.Lock()
	p.records = append(p.records, rec)
	if len(p.records) > p.capacity {
		p.records = p.records[len(p.records)-p.capacity:]
	}
	conn := p.conn
	p.mu.Unlock()

	if conn != nil {
		conn.Send("record", rec)
	}
}

func (p *Plugin) tail(n int) []Record {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n <= 0 || n > len(p.records) {
		n = len(p.records)
	}
	out := make([]Record, n)
	copy(out, p.records[len(p.records)-n:])
	return out
}
