package engine

import (
	"context"
	"fmt"
	"math"
	"net"

	"github.com/hypebeast/go-osc/osc"

	"go-segue/debug"
)

// TransportHandler receives the engine's event stream. The scheduler
// satisfies this; its methods are serialized internally, so the dispatcher
// may call them straight from the receive goroutine.
type TransportHandler interface {
	HandleTransportState(playing bool)
	HandleBeat(beat int)
	HandlePreRoll()
	HandleTempoEcho(bpm float64)
}

// Server listens for the engine's outbound OSC messages and forwards them
// to a TransportHandler. Malformed payloads are logged and dropped; state
// is never changed by a message that fails to parse.
type Server struct {
	addr   string
	server *osc.Server
}

// NewServer wires the engine's out-messages for the given RNBO instance
func NewServer(host string, port, instance int, h TransportHandler) (*Server, error) {
	d := osc.NewStandardDispatcher()
	base := fmt.Sprintf("/rnbo/inst/%d/messages/out", instance)

	handlers := map[string]osc.HandlerFunc{
		base + "/playing": func(msg *osc.Message) {
			playing, ok := boolArg(msg)
			if !ok {
				debug.Log("osc", "dropped malformed transport-status: %v", msg.Arguments)
				return
			}
			h.HandleTransportState(playing)
		},
		base + "/beat": func(msg *osc.Message) {
			beat, ok := intArg(msg)
			if !ok || beat < 0 {
				debug.Log("osc", "dropped malformed beat-tick: %v", msg.Arguments)
				return
			}
			h.HandleBeat(beat)
		},
		base + "/preroll": func(msg *osc.Message) {
			// Bang: any payload (or none) means "pre-roll fired"
			h.HandlePreRoll()
		},
		base + "/tempo": func(msg *osc.Message) {
			bpm, ok := floatArg(msg)
			if !ok {
				debug.Log("osc", "dropped malformed tempo-echo: %v", msg.Arguments)
				return
			}
			h.HandleTempoEcho(bpm)
		},
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	s := &Server{
		addr: addr,
		server: &osc.Server{
			Addr:       addr,
			Dispatcher: d,
		},
	}
	for route, fn := range handlers {
		if err := d.AddMsgHandler(route, fn); err != nil {
			return nil, fmt.Errorf("register %s: %w", route, err)
		}
	}
	return s, nil
}

// Run listens until ctx is cancelled (blocking - run in goroutine)
func (s *Server) Run(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	debug.Log("osc", "listening on %s", s.addr)
	err = s.server.Serve(conn)
	if ctx.Err() != nil {
		return nil // closed by cancellation
	}
	return err
}

// floatArg extracts the first argument as a float, accepting any numeric
// OSC type.
func floatArg(msg *osc.Message) (float64, bool) {
	if len(msg.Arguments) == 0 {
		return 0, false
	}
	switch v := msg.Arguments[0].(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// intArg extracts the first argument as an int. Floats are accepted only
// when integral: a fractional beat value is malformed, not roundable.
func intArg(msg *osc.Message) (int, bool) {
	if len(msg.Arguments) == 0 {
		return 0, false
	}
	switch v := msg.Arguments[0].(type) {
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float32:
		return intFromFloat(float64(v))
	case float64:
		return intFromFloat(v)
	}
	return 0, false
}

func intFromFloat(f float64) (int, bool) {
	if f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// boolArg extracts the first argument as a flag: OSC booleans directly,
// numerics as zero/non-zero.
func boolArg(msg *osc.Message) (bool, bool) {
	if len(msg.Arguments) == 0 {
		return false, false
	}
	if b, ok := msg.Arguments[0].(bool); ok {
		return b, true
	}
	if f, ok := floatArg(msg); ok {
		return f != 0, true
	}
	return false, false
}
