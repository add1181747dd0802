package term

import (
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Terminal is the tcell Backend. Calls other than PollEvent are serialized.
type Terminal struct {
	mu     sync.Mutex
	screen tcell.Screen
}

// NewTerminal creates a terminal backend on the process's tty.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Terminal{screen: screen}, nil
}

func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.HideCursor()
	return nil
}

func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Fini()
}

func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.screen.Size()
}

func (t *Terminal) SetCell(x, y int, cell Cell) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.SetContent(x, y, cell.Rune, nil, cell.Style)
}

func (t *Terminal) Cell(x, y int) Cell {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, _, style, _ := t.screen.GetContent(x, y)
	return Cell{Rune: r, Style: style}
}

func (t *Terminal) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Clear()
}

func (t *Terminal) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Show()
}

// PollEvent is not locked: it blocks, and tcell's queue is goroutine safe.
func (t *Terminal) PollEvent() Event {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return Event{Type: EventClosed}
		}
		if out := translate(ev); out.Type != EventNone {
			return out
		}
	}
}

func (t *Terminal) PostEvent(event Event) {
	var ev tcell.Event
	switch event.Type {
	case EventKey:
		ev = tcell.NewEventKey(toTcellKey(event.Key), event.Rune, tcell.ModNone)
	case EventResize:
		ev = tcell.NewEventResize(event.Width, event.Height)
	default:
		return
	}
	_ = t.screen.PostEvent(ev)
}

// translate maps a tcell event onto the host's event set. Anything the
// host does not handle reads as EventNone.
func translate(ev tcell.Event) Event {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return Event{Type: EventKey, Key: fromTcellKey(e.Key()), Rune: e.Rune()}
	case *tcell.EventResize:
		w, h := e.Size()
		return Event{Type: EventResize, Width: w, Height: h}
	}
	return Event{Type: EventNone}
}

// keyMap pairs host keys with tcell keys.
var keyMap = [...]struct {
	key Key
	tc  tcell.Key
}{
	{KeyRune, tcell.KeyRune},
	{KeyEscape, tcell.KeyEscape},
	{KeyEnter, tcell.KeyEnter},
	{KeyHome, tcell.KeyHome},
	{KeyEnd, tcell.KeyEnd},
	{KeyPageUp, tcell.KeyPgUp},
	{KeyPageDown, tcell.KeyPgDn},
	{KeyUp, tcell.KeyUp},
	{KeyDown, tcell.KeyDown},
	{KeyCtrlC, tcell.KeyCtrlC},
}

func fromTcellKey(k tcell.Key) Key {
	for _, m := range keyMap {
		if m.tc == k {
			return m.key
		}
	}
	return KeyNone
}

func toTcellKey(k Key) tcell.Key {
	for _, m := range keyMap {
		if m.key == k {
			return m.tc
		}
	}
	return tcell.KeyNUL
}
