package tui

import (
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/input"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type keyMap struct {
	Record key.Binding
	Reset  key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Record, k.Reset, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Record: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "record")),
		Reset:  key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "reset")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

var teaKeyNames = map[tea.KeyType]string{
	tea.KeyUp:        "up",
	tea.KeyDown:      "down",
	tea.KeyLeft:      "left",
	tea.KeyRight:     "right",
	tea.KeyEnter:     "enter",
	tea.KeyEsc:       "escape",
	tea.KeyTab:       "tab",
	tea.KeySpace:     "space",
	tea.KeyBackspace: "backspace",
	tea.KeyDelete:    "delete",
	tea.KeyInsert:    "insert",
	tea.KeyHome:      "home",
	tea.KeyEnd:       "end",
	tea.KeyPgUp:      "pageup",
	tea.KeyPgDown:    "pagedown",
	tea.KeyF1:        "f1",
	tea.KeyF2:        "f2",
	tea.KeyF3:        "f3",
	tea.KeyF4:        "f4",
	tea.KeyF5:        "f5",
	tea.KeyF6:        "f6",
	tea.KeyF7:        "f7",
	tea.KeyF8:        "f8",
	tea.KeyF9:        "f9",
	tea.KeyF10:       "f10",
	tea.KeyF11:       "f11",
	tea.KeyF12:       "f12",
}

// keyEvent translates a bubbletea key press into a browser-style event.
func keyEvent(msg tea.KeyMsg) (domain.KeyEvent, bool) {
	if msg.Type == tea.KeyRunes {
		if len(msg.Runes) != 1 {
			return domain.KeyEvent{}, false
		}
		return input.KeyEventForRune(msg.Runes[0]), true
	}
	name, ok := teaKeyNames[msg.Type]
	if !ok {
		return domain.KeyEvent{}, false
	}
	return input.KeyEventForName(name)
}
