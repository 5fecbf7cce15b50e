package midi

// Command is a high-level action from the control surface
type Command int

const (
	CmdNone Command = iota
	CmdContinue
	CmdStop
	CmdPrime
	CmdNextScreen
	CmdPrevScreen
	CmdExit
)

func (c Command) String() string {
	switch c {
	case CmdContinue:
		return "continue"
	case CmdStop:
		return "stop"
	case CmdPrime:
		return "prime"
	case CmdNextScreen:
		return "next-screen"
	case CmdPrevScreen:
		return "prev-screen"
	case CmdExit:
		return "exit"
	}
	return "none"
}

// X-Touch Mini layer B button CC numbers
const (
	ccContinue   uint8 = 84
	ccStop       uint8 = 85
	ccPrime      uint8 = 86
	ccNextScreen uint8 = 82
	ccPrevScreen uint8 = 90
	ccExit       uint8 = 47
)

// LED feedback: the transport button LED mirrors the engine's play state.
// Button LEDs on the X-Touch respond to CC writes on the button's own CC.
const (
	ccPlayLED uint8 = ccContinue

	ledOn  uint8 = 127
	ledOff uint8 = 0
)

// commandForCC maps a button CC to its Command (CmdNone if unmapped)
func commandForCC(cc uint8) Command {
	switch cc {
	case ccContinue:
		return CmdContinue
	case ccStop:
		return CmdStop
	case ccPrime:
		return CmdPrime
	case ccNextScreen:
		return CmdNextScreen
	case ccPrevScreen:
		return CmdPrevScreen
	case ccExit:
		return CmdExit
	}
	return CmdNone
}
