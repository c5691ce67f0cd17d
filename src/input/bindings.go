package input

import (
	"fmt"
	"strings"
	"unicode"
)

// Choice is a menu selection.
type Choice int

const (
	None Choice = iota
	ActiveWindow
	Region
	Quit
)

func (c Choice) String() string {
	switch c {
	case ActiveWindow:
		return "active-window"
	case Region:
		return "region"
	case Quit:
		return "quit"
	default:
		return "none"
	}
}

type binding struct {
	name     string
	char     rune
	rawcodes []uint16
	choice   Choice
}

// Bindings maps keys to menu choices.
type Bindings struct {
	keys []binding
}

// DefaultBindings is 1 / 2 / q.
func DefaultBindings() Bindings {
	b, _ := NewBindings("1", "2", "q")
	return b
}

// NewBindings builds bindings from key names such as "1", "q" or "f2".
func NewBindings(activeWindow, region, quit string) (Bindings, error) {
	var b Bindings
	seen := map[string]Choice{}
	for _, k := range []struct {
		name   string
		choice Choice
	}{{activeWindow, ActiveWindow}, {region, Region}, {quit, Quit}} {
		name := strings.ToLower(strings.TrimSpace(k.name))
		if name == "" {
			return Bindings{}, fmt.Errorf("empty key for %s", k.choice)
		}
		if prev, dup := seen[name]; dup {
			return Bindings{}, fmt.Errorf("key %q bound to both %s and %s", name, prev, k.choice)
		}
		seen[name] = k.choice

		bd := binding{name: name, char: printableRune(name), choice: k.choice}
		if bd.char == 0 {
			bd.rawcodes = keyNameToRawcodes(name)
			if len(bd.rawcodes) == 0 {
				return Bindings{}, fmt.Errorf("unknown key %q for %s", name, k.choice)
			}
		}
		b.keys = append(b.keys, bd)
	}
	return b, nil
}

// MatchChar resolves a typed character, ignoring case.
func (b Bindings) MatchChar(r rune) Choice {
	r = unicode.ToLower(r)
	for _, k := range b.keys {
		if k.char != 0 && k.char == r {
			return k.choice
		}
	}
	return None
}

// MatchRawcode resolves keys that type no character (function keys, Esc...).
func (b Bindings) MatchRawcode(code uint16) Choice {
	for _, k := range b.keys {
		for _, rc := range k.rawcodes {
			if rc == code {
				return k.choice
			}
		}
	}
	return None
}

// MatchName resolves a key name as typed on a console line.
func (b Bindings) MatchName(name string) Choice {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, k := range b.keys {
		if k.name == name {
			return k.choice
		}
	}
	return None
}

// Hint is the usage line shown at the menu.
func (b Bindings) Hint() string {
	names := map[Choice]string{}
	for _, k := range b.keys {
		names[k.choice] = strings.ToUpper(k.name)
	}
	return fmt.Sprintf("Press %s to capture the active window, %s to select a region, %s to quit.",
		names[ActiveWindow], names[Region], names[Quit])
}
