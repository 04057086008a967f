package kiosk

// SpecialKey names the non-rune keys the command grammar cares about.
type SpecialKey uint8

const (
	KeyNone SpecialKey = iota
	KeyLeft
	KeyRight
	KeyF5
	KeyF11
)

// KeyEvent is the display-agnostic form of one keyboard event.
type KeyEvent struct {
	Alt     bool
	Ctrl    bool
	Rune    rune
	Special SpecialKey
}

// Command is one admin control action.
type Command uint8

const (
	CmdNone Command = iota
	CmdNext
	CmdPrev
	CmdPauseResume
	CmdRefresh
	CmdFullscreen
	CmdDiagnostics
	CmdJump
)

// Decision is the outcome of parsing one key event. Suppress marks default
// shortcuts that would interrupt the kiosk (refresh, fullscreen toggle) and
// must be swallowed when issued without the admin modifier.
type Decision struct {
	Cmd       Command
	JumpIndex int
	Suppress  bool
}

// ParseKey interprets the reserved keyboard-command grammar. Alt is the admin
// modifier; everything unrecognized is ignored, never an error.
func ParseKey(ev KeyEvent, slideCount int) Decision {
	if !ev.Alt {
		return suppressDefaults(ev)
	}
	switch ev.Special {
	case KeyRight:
		return Decision{Cmd: CmdNext}
	case KeyLeft:
		return Decision{Cmd: CmdPrev}
	}
	switch ev.Rune {
	case 'n', 'N':
		return Decision{Cmd: CmdNext}
	case 'p', 'P':
		return Decision{Cmd: CmdPrev}
	case ' ':
		return Decision{Cmd: CmdPauseResume}
	case 'r', 'R':
		return Decision{Cmd: CmdRefresh}
	case 'f', 'F':
		return Decision{Cmd: CmdFullscreen}
	case 'd', 'D':
		return Decision{Cmd: CmdDiagnostics}
	}
	if ev.Rune >= '1' && ev.Rune <= '9' {
		index := int(ev.Rune - '1')
		if index < slideCount {
			return Decision{Cmd: CmdJump, JumpIndex: index}
		}
	}
	return Decision{}
}

func suppressDefaults(ev KeyEvent) Decision {
	if ev.Special == KeyF5 || ev.Special == KeyF11 {
		return Decision{Suppress: true}
	}
	if ev.Ctrl && (ev.Rune == 'r' || ev.Rune == 'R' || ev.Rune == 'l' || ev.Rune == 'L') {
		return Decision{Suppress: true}
	}
	return Decision{}
}
