package ui

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"kioskd/kiosk"
)

func TestTranslateKeyRunesAndModifiers(t *testing.T) {
	ev, ok := translateKey(tcell.NewEventKey(tcell.KeyRune, 'n', tcell.ModAlt))
	if !ok {
		t.Fatal("Alt+N not translated")
	}
	if !ev.Alt || ev.Rune != 'n' {
		t.Fatalf("Alt+N translated to %+v", ev)
	}

	ev, ok = translateKey(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModAlt))
	if !ok || ev.Special != kiosk.KeyRight || !ev.Alt {
		t.Fatalf("Alt+Right translated to %+v (ok %v)", ev, ok)
	}
}

func TestTranslateKeySuppressTargets(t *testing.T) {
	ev, ok := translateKey(tcell.NewEventKey(tcell.KeyF5, 0, tcell.ModNone))
	if !ok || ev.Special != kiosk.KeyF5 {
		t.Fatalf("F5 translated to %+v (ok %v)", ev, ok)
	}
	ev, ok = translateKey(tcell.NewEventKey(tcell.KeyCtrlR, 0, tcell.ModCtrl))
	if !ok || !ev.Ctrl || ev.Rune != 'r' {
		t.Fatalf("Ctrl+R translated to %+v (ok %v)", ev, ok)
	}
	ev, ok = translateKey(tcell.NewEventKey(tcell.KeyCtrlL, 0, tcell.ModCtrl))
	if !ok || !ev.Ctrl || ev.Rune != 'l' {
		t.Fatalf("Ctrl+L translated to %+v (ok %v)", ev, ok)
	}
}

func TestTranslateKeyIgnoresUnrelatedKeys(t *testing.T) {
	if _, ok := translateKey(tcell.NewEventKey(tcell.KeyF1, 0, tcell.ModNone)); ok {
		t.Fatal("F1 should pass through untranslated")
	}
	if _, ok := translateKey(nil); ok {
		t.Fatal("nil event should pass through")
	}
}

func TestParsedGrammarEndToEnd(t *testing.T) {
	ev, ok := translateKey(tcell.NewEventKey(tcell.KeyRune, '2', tcell.ModAlt))
	if !ok {
		t.Fatal("Alt+2 not translated")
	}
	decision := kiosk.ParseKey(ev, 4)
	if decision.Cmd != kiosk.CmdJump || decision.JumpIndex != 1 {
		t.Fatalf("Alt+2 decision = %+v", decision)
	}

	ev, _ = translateKey(tcell.NewEventKey(tcell.KeyF5, 0, tcell.ModNone))
	if decision := kiosk.ParseKey(ev, 4); !decision.Suppress {
		t.Fatalf("F5 decision = %+v, want suppressed", decision)
	}
}
