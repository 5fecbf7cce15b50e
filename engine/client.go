// Package engine binds the scheduler's event and parameter vocabulary to
// the audio engine's OSC surface (an RNBO patch). Outbound writes are
// fire-and-forget UDP; inbound events are dispatched into the scheduler's
// serialized entry points.
package engine

import (
	"fmt"

	"github.com/hypebeast/go-osc/osc"

	"go-segue/debug"
)

// RNBO parameter and message names
const (
	paramTempo      = "tempo"
	paramProgram1   = "p_1"
	paramProgram2   = "p_2"
	paramLoopLength = "loop_len"

	msgContinue = "in/continue"
	msgStop     = "in/stop"
	msgPrime    = "in/prime"
)

// Client sends parameter writes to the engine. It implements
// scheduler.ParameterSink. Send failures are logged and dropped: every
// value is re-announced on the next cycle, so there is nothing to retry.
type Client struct {
	osc      *osc.Client
	instance int
}

// NewClient creates a client for the RNBO instance at host:port
func NewClient(host string, port, instance int) *Client {
	return &Client{
		osc:      osc.NewClient(host, port),
		instance: instance,
	}
}

func (c *Client) paramAddr(name string) string {
	return fmt.Sprintf("/rnbo/inst/%d/params/%s", c.instance, name)
}

func (c *Client) messageAddr(name string) string {
	return fmt.Sprintf("/rnbo/inst/%d/messages/%s", c.instance, name)
}

func (c *Client) send(addr string, args ...any) {
	msg := osc.NewMessage(addr)
	for _, arg := range args {
		msg.Append(arg)
	}
	if err := c.osc.Send(msg); err != nil {
		debug.Log("osc", "send %s: %v", addr, err)
	}
}

// SetTempo writes a new tempo in BPM
func (c *Client) SetTempo(bpm float64) {
	c.send(c.paramAddr(paramTempo), float32(bpm))
}

// SetProgram1 pre-announces program select 1
func (c *Client) SetProgram1(value int) {
	c.send(c.paramAddr(paramProgram1), int32(value))
}

// SetProgram2 pre-announces program select 2
func (c *Client) SetProgram2(value int) {
	c.send(c.paramAddr(paramProgram2), int32(value))
}

// SetLoopLength writes the loop length in beats
func (c *Client) SetLoopLength(beats int) {
	c.send(c.paramAddr(paramLoopLength), int32(beats))
}

// TransportContinue resumes the engine transport
func (c *Client) TransportContinue() {
	c.send(c.messageAddr(msgContinue), int32(1))
}

// TransportStop halts the engine transport
func (c *Client) TransportStop() {
	c.send(c.messageAddr(msgStop), int32(1))
}

// TransportPrime re-arms the engine from a stopped state
func (c *Client) TransportPrime() {
	c.send(c.messageAddr(msgPrime), int32(1))
}
