package ui

import (
	"github.com/gdamore/tcell/v2"

	"kioskd/kiosk"
)

// translateKey maps a terminal key event onto the engine's display-agnostic
// form. Returns false for keys the command grammar can never care about, so
// the input capture can pass them through untouched.
func translateKey(event *tcell.EventKey) (kiosk.KeyEvent, bool) {
	if event == nil {
		return kiosk.KeyEvent{}, false
	}
	ev := kiosk.KeyEvent{
		Alt:  event.Modifiers()&tcell.ModAlt != 0,
		Ctrl: event.Modifiers()&tcell.ModCtrl != 0,
	}
	switch event.Key() {
	case tcell.KeyRune:
		ev.Rune = event.Rune()
		return ev, true
	case tcell.KeyLeft:
		ev.Special = kiosk.KeyLeft
		return ev, true
	case tcell.KeyRight:
		ev.Special = kiosk.KeyRight
		return ev, true
	case tcell.KeyF5:
		ev.Special = kiosk.KeyF5
		return ev, true
	case tcell.KeyF11:
		ev.Special = kiosk.KeyF11
		return ev, true
	case tcell.KeyCtrlR:
		ev.Ctrl = true
		ev.Rune = 'r'
		return ev, true
	case tcell.KeyCtrlL:
		ev.Ctrl = true
		ev.Rune = 'l'
		return ev, true
	}
	return kiosk.KeyEvent{}, false
}
