package engine

import (
	"fmt"
	"testing"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	events []string
}

func (r *recordingHandler) HandleTransportState(playing bool) {
	r.events = append(r.events, fmt.Sprintf("playing=%v", playing))
}
func (r *recordingHandler) HandleBeat(beat int) {
	r.events = append(r.events, fmt.Sprintf("beat=%d", beat))
}
func (r *recordingHandler) HandlePreRoll() {
	r.events = append(r.events, "preroll")
}
func (r *recordingHandler) HandleTempoEcho(bpm float64) {
	r.events = append(r.events, fmt.Sprintf("tempo=%.1f", bpm))
}

func message(addr string, args ...any) *osc.Message {
	msg := osc.NewMessage(addr)
	for _, arg := range args {
		msg.Append(arg)
	}
	return msg
}

func dispatch(t *testing.T, h *recordingHandler, msg *osc.Message) {
	t.Helper()
	srv, err := NewServer("127.0.0.1", 9002, 0, h)
	require.NoError(t, err)
	srv.server.Dispatcher.Dispatch(msg)
}

func TestDispatchRoutesEngineEvents(t *testing.T) {
	h := &recordingHandler{}
	srv, err := NewServer("127.0.0.1", 9002, 0, h)
	require.NoError(t, err)

	srv.server.Dispatcher.Dispatch(message("/rnbo/inst/0/messages/out/playing", int32(1)))
	srv.server.Dispatcher.Dispatch(message("/rnbo/inst/0/messages/out/beat", int32(3)))
	srv.server.Dispatcher.Dispatch(message("/rnbo/inst/0/messages/out/preroll"))
	srv.server.Dispatcher.Dispatch(message("/rnbo/inst/0/messages/out/tempo", float32(128)))

	assert.Equal(t, []string{"playing=true", "beat=3", "preroll", "tempo=128.0"}, h.events)
}

func TestDispatchUsesInstanceIndex(t *testing.T) {
	h := &recordingHandler{}
	srv, err := NewServer("127.0.0.1", 9002, 2, h)
	require.NoError(t, err)

	srv.server.Dispatcher.Dispatch(message("/rnbo/inst/0/messages/out/beat", int32(1)))
	assert.Empty(t, h.events)

	srv.server.Dispatcher.Dispatch(message("/rnbo/inst/2/messages/out/beat", int32(1)))
	assert.Equal(t, []string{"beat=1"}, h.events)
}

func TestMalformedPayloadsDropped(t *testing.T) {
	cases := []*osc.Message{
		message("/rnbo/inst/0/messages/out/playing", "yes"),
		message("/rnbo/inst/0/messages/out/playing"),
		message("/rnbo/inst/0/messages/out/beat", "seven"),
		message("/rnbo/inst/0/messages/out/beat", float32(1.5)),
		message("/rnbo/inst/0/messages/out/beat", int32(-1)),
		message("/rnbo/inst/0/messages/out/tempo", "fast"),
		message("/rnbo/inst/0/messages/out/tempo"),
	}
	for _, msg := range cases {
		h := &recordingHandler{}
		dispatch(t, h, msg)
		assert.Empty(t, h.events, "message %s %v must be dropped", msg.Address, msg.Arguments)
	}
}

func TestFloatArg(t *testing.T) {
	for _, arg := range []any{float32(1.5), float64(1.5)} {
		got, ok := floatArg(message("/x", arg))
		require.True(t, ok)
		assert.Equal(t, 1.5, got)
	}
	got, ok := floatArg(message("/x", int32(7)))
	require.True(t, ok)
	assert.Equal(t, 7.0, got)

	_, ok = floatArg(message("/x", "nope"))
	assert.False(t, ok)
	_, ok = floatArg(message("/x"))
	assert.False(t, ok)
}

func TestIntArgRejectsFractional(t *testing.T) {
	got, ok := intArg(message("/x", int32(5)))
	require.True(t, ok)
	assert.Equal(t, 5, got)

	got, ok = intArg(message("/x", float32(4)))
	require.True(t, ok)
	assert.Equal(t, 4, got)

	_, ok = intArg(message("/x", float32(4.25)))
	assert.False(t, ok)
	_, ok = intArg(message("/x", "4"))
	assert.False(t, ok)
}

func TestBoolArg(t *testing.T) {
	cases := []struct {
		arg  any
		want bool
	}{
		{true, true},
		{false, false},
		{int32(1), true},
		{int32(0), false},
		{float32(1), true},
		{float32(0), false},
	}
	for _, tc := range cases {
		got, ok := boolArg(message("/x", tc.arg))
		require.True(t, ok, "arg %v", tc.arg)
		assert.Equal(t, tc.want, got, "arg %v", tc.arg)
	}

	_, ok := boolArg(message("/x", "true"))
	assert.False(t, ok)
}
