package ui

import (
	"strings"
	"testing"
)

func TestFlattenMarkupBlocksBecomeLines(t *testing.T) {
	got := flattenMarkup(`<h2>Opening hours</h2><ul><li>Mon 8:00</li><li>Tue 9:00</li></ul>`)
	want := "Opening hours\nMon 8:00\nTue 9:00"
	if got != want {
		t.Fatalf("flattenMarkup = %q, want %q", got, want)
	}
}

func TestFlattenMarkupInlineFlowsWithSpaces(t *testing.T) {
	got := flattenMarkup(`<p>Dr. <strong>Weber</strong> is <em>available</em> today</p>`)
	if got != "Dr. Weber is available today" {
		t.Fatalf("flattenMarkup = %q", got)
	}
}

func TestFlattenMarkupBreaksAndWhitespace(t *testing.T) {
	got := flattenMarkup("<p>Room 12<br>first floor</p>\n\n<p>  </p><p>Bring your card</p>")
	want := "Room 12\nfirst floor\n\nBring your card"
	if got != want {
		t.Fatalf("flattenMarkup = %q, want %q", got, want)
	}
}

func TestFlattenMarkupDropsScriptsAndStyles(t *testing.T) {
	got := flattenMarkup(`<div>visible<script>alert(1)</script><style>.x{}</style></div>`)
	if got != "visible" {
		t.Fatalf("flattenMarkup = %q", got)
	}
}

func TestFlattenMarkupEscapesColorTags(t *testing.T) {
	got := flattenMarkup(`<p>queue position [red]3[/red]</p>`)
	if strings.Contains(got, "[red]") {
		t.Fatalf("unescaped style tag in %q", got)
	}
	if !strings.Contains(got, "3") {
		t.Fatalf("content lost while escaping: %q", got)
	}
}

func TestFlattenMarkupPlainTextPassesThrough(t *testing.T) {
	if got := flattenMarkup("closed today"); got != "closed today" {
		t.Fatalf("flattenMarkup = %q", got)
	}
}
