// Package midi manages the physical control surface: a button box (X-Touch
// Mini style) whose CCs map to transport and navigation commands. The
// surface is optional; everything works from the keyboard when it is
// unplugged, and it reconnects automatically when it reappears.
package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-segue/debug"
)

// Surface handles hot-plug detection of the control surface and turns its
// button presses into Commands.
type Surface struct {
	portName string // substring match against port names
	channel  uint8  // MIDI channel for button CCs

	mu         sync.Mutex
	connected  bool
	inPortName string
	send       func(gomidi.Message) error
	stopListen func()

	commands chan Command
	pollRate time.Duration
}

// NewSurface creates a surface manager for ports matching portName
func NewSurface(portName string, channel uint8) *Surface {
	return &Surface{
		portName: portName,
		channel:  channel,
		commands: make(chan Command, 16),
		pollRate: time.Second,
	}
}

// Commands returns the channel of button commands
func (s *Surface) Commands() <-chan Command {
	return s.commands
}

// Connected reports whether the surface is currently attached
func (s *Surface) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Run polls for the device until ctx is cancelled (blocking - run in
// goroutine).
func (s *Surface) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollRate)
	defer ticker.Stop()

	// Initial scan
	s.scan()

	for {
		select {
		case <-ctx.Done():
			s.disconnect("shutdown")
			close(s.commands)
			return
		case <-ticker.C:
			s.scan()
		}
	}
}

func (s *Surface) scan() {
	// Port enumeration can hang on a wedged MIDI service; guard with a
	// timeout and skip the scan rather than stall the poll loop.
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	var inPorts []drivers.In
	var outPorts []drivers.Out
	select {
	case result := <-ch:
		inPorts = result.inPorts
		outPorts = result.outPorts
	case <-time.After(3 * time.Second):
		return
	}

	var inPort drivers.In
	for i, p := range inPorts {
		if s.matches(p.String()) {
			inPort = inPorts[i]
			break
		}
	}

	s.mu.Lock()
	connected := s.connected
	current := s.inPortName
	s.mu.Unlock()

	if connected {
		if inPort == nil || inPort.String() != current {
			s.disconnect("port disappeared")
		}
		return
	}

	if inPort == nil {
		return
	}

	// Find matching output port for LED feedback (optional)
	var outPort drivers.Out
	for i, p := range outPorts {
		if s.matches(p.String()) {
			outPort = outPorts[i]
			break
		}
	}

	s.connect(inPort, outPort)
}

func (s *Surface) matches(name string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(s.portName))
}

func (s *Surface) connect(inPort drivers.In, outPort drivers.Out) {
	stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
		var channel, cc, value uint8
		if !msg.GetControlChange(&channel, &cc, &value) || value == 0 {
			return
		}
		cmd := commandForCC(cc)
		if cmd == CmdNone {
			debug.Log("midi", "unmapped CC %d (value %d)", cc, value)
			return
		}
		select {
		case s.commands <- cmd:
		default:
			// Drop if the consumer is behind; buttons are re-pressable
		}
	})
	if err != nil {
		debug.Log("midi", "open input %q: %v", inPort.String(), err)
		return
	}

	var send func(gomidi.Message) error
	if outPort != nil {
		send, err = gomidi.SendTo(outPort)
		if err != nil {
			debug.Log("midi", "open output %q: %v (LEDs disabled)", outPort.String(), err)
			send = nil
		}
	}

	s.mu.Lock()
	s.connected = true
	s.inPortName = inPort.String()
	s.stopListen = stop
	s.send = send
	s.mu.Unlock()

	debug.Log("midi", "connected to %q", inPort.String())
}

func (s *Surface) disconnect(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return
	}
	if s.stopListen != nil {
		s.stopListen()
	}
	s.connected = false
	s.inPortName = ""
	s.stopListen = nil
	s.send = nil
	debug.Log("midi", "disconnected (%s)", reason)
}

// SetPlayingLED mirrors the engine's play state on the transport button.
// Send failures are logged, never treated as a disconnect.
func (s *Surface) SetPlayingLED(playing bool) {
	s.mu.Lock()
	send := s.send
	channel := s.channel
	s.mu.Unlock()

	if send == nil {
		return
	}
	value := ledOff
	if playing {
		value = ledOn
	}
	if err := send(gomidi.ControlChange(channel, ccPlayLED, value)); err != nil {
		debug.Log("midi", "LED write: %v", err)
	}
}
