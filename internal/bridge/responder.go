package bridge

import (
	"sync"

	"github.com/soyeahso/spyglass/internal/logging"
	"github.com/soyeahso/spyglass/internal/protocol"
)

// Responder is the reply channel for one inspector request. It is handed to
// whichever component answers the request and accepts at most one reply;
// later calls are dropped with a log line. Safe for use from plugin
// goroutines.
type Responder struct {
	id     int64
	sender Sender
	log    *logging.Logger

	mu      sync.Mutex
	replied bool
}

func newResponder(id int64, sender Sender, log *logging.Logger) *Responder {
	return &Responder{id: id, sender: sender, log: log}
}

// ID returns the request id this responder is bound to.
func (r *Responder) ID() int64 { return r.id }

// Success sends a success reply carrying payload.
func (r *Responder) Success(payload any) {
	if !r.claim() {
		return
	}
	msg, err := protocol.NewSuccess(r.id, payload)
	if err != nil {
		r.log.Warn().Err(err).Int64("id", r.id).Msg("encoding success reply")
		r.sender.SendMessage(protocol.NewError(r.id, "failed to encode response: "+err.Error()))
		return
	}
	r.sender.SendMessage(msg)
}

// Error sends an error reply with the given message.
func (r *Responder) Error(message string) {
	if !r.claim() {
		return
	}
	r.sender.SendMessage(protocol.NewError(r.id, message))
}

func (r *Responder) claim() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replied {
		r.log.Warn().Int64("id", r.id).Msg("duplicate reply dropped")
		return false
	}
	r.replied = true
	return true
}
