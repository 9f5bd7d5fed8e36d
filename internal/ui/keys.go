package ui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
)

// KeyString names ev the way keymap entries are written: "cmd+left",
// "ctrl+c", "space", "H".
func KeyString(ev *tcell.EventKey) string {
	mods := ev.Modifiers()
	if mods&tcell.ModMeta != 0 {
		if ev.Key() == tcell.KeyRune {
			r := ev.Rune()
			if r == ' ' {
				return "cmd+space"
			}
			return "cmd+" + strings.ToLower(string(r))
		}
		if name := arrowName(ev.Key()); name != "" {
			if mods&tcell.ModShift != 0 {
				return "cmd+shift+" + name
			}
			return "cmd+" + name
		}
	}
	if mods&tcell.ModAlt != 0 {
		if name := arrowName(ev.Key()); name != "" {
			if mods&tcell.ModShift != 0 {
				return "alt+shift+" + name
			}
			return "alt+" + name
		}
	}
	if mods&tcell.ModCtrl != 0 {
		switch ev.Key() {
		case tcell.KeyHome:
			return "ctrl+home"
		case tcell.KeyEnd:
			return "ctrl+end"
		}
	}
	if ev.Key() == tcell.KeyRune {
		r := ev.Rune()
		if r == ' ' {
			return "space"
		}
		return string(r)
	}
	// tab, enter and backspace share codes with ctrl+i, ctrl+m and ctrl+h
	switch ev.Key() {
	case tcell.KeyTab:
		if mods&tcell.ModShift != 0 {
			return "shift+tab"
		}
		return "tab"
	case tcell.KeyBacktab:
		return "shift+tab"
	case tcell.KeyEnter:
		return "enter"
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "backspace"
	}
	if name := ctrlKeyName(ev.Key()); name != "" {
		return name
	}
	if name := arrowName(ev.Key()); name != "" {
		return name
	}
	switch ev.Key() {
	case tcell.KeyPgUp:
		return "pgup"
	case tcell.KeyPgDn:
		return "pgdn"
	case tcell.KeyDelete:
		return "del"
	case tcell.KeyEscape:
		return "esc"
	}
	return ""
}

func arrowName(key tcell.Key) string {
	switch key {
	case tcell.KeyUp:
		return "up"
	case tcell.KeyDown:
		return "down"
	case tcell.KeyLeft:
		return "left"
	case tcell.KeyRight:
		return "right"
	case tcell.KeyHome:
		return "home"
	case tcell.KeyEnd:
		return "end"
	}
	return ""
}

func ctrlKeyName(key tcell.Key) string {
	if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
		return "ctrl+" + string(rune('a'+int(key-tcell.KeyCtrlA)))
	}
	return ""
}
