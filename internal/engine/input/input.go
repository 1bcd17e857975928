// Package input turns SDL2 events into per-frame viewer input.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies a translated event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Event is one translated SDL event. Only the fields of its Type are set.
type Event struct {
	Type EventType
	Key  sdl.Scancode
	// Width and Height are the new window size of a resize.
	Width, Height int
	// X and Y are the pointer position in window coordinates.
	X, Y int
	// DX and DY are the motion of a move or the scroll of a wheel event.
	DX, DY float32
	Button uint8
	// Buttons is the button mask held during a move.
	Buttons uint32
}

// Input collects the events of one frame.
type Input struct {
	poll   func() sdl.Event
	events []Event
}

// New creates an input reading the SDL event queue.
func New() *Input {
	return newInput(sdl.PollEvent)
}

func newInput(poll func() sdl.Event) *Input {
	return &Input{poll: poll, events: make([]Event, 0, 16)}
}

// Update drains the event queue. It returns true once a quit was requested;
// events after the quit stay queued.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	for ev := i.poll(); ev != nil; ev = i.poll() {
		e, ok := translate(ev)
		if !ok {
			continue
		}
		i.events = append(i.events, e)
		if e.Type == EventQuit {
			return true
		}
	}
	return false
}

func translate(ev sdl.Event) (Event, bool) {
	switch e := ev.(type) {
	case *sdl.QuitEvent:
		return Event{Type: EventQuit}, true
	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			return Event{Type: EventWindowResize, Width: int(e.Data1), Height: int(e.Data2)}, true
		}
	case *sdl.KeyboardEvent:
		if e.Repeat != 0 {
			return Event{}, false
		}
		t := EventKeyUp
		if e.Type == sdl.KEYDOWN {
			t = EventKeyDown
		}
		return Event{Type: t, Key: e.Keysym.Scancode}, true
	case *sdl.MouseMotionEvent:
		return Event{
			Type: EventMouseMove, X: int(e.X), Y: int(e.Y),
			DX: float32(e.XRel), DY: float32(e.YRel), Buttons: e.State,
		}, true
	case *sdl.MouseWheelEvent:
		dx, dy := float32(e.X), float32(e.Y)
		if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
			dx, dy = -dx, -dy
		}
		return Event{Type: EventMouseWheel, DX: dx, DY: dy}, true
	case *sdl.MouseButtonEvent:
		t := EventMouseUp
		if e.Type == sdl.MOUSEBUTTONDOWN {
			t = EventMouseDown
		}
		return Event{Type: t, X: int(e.X), Y: int(e.Y), Button: e.Button}, true
	}
	return Event{}, false
}

// Events returns the events of the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// KeyPressed reports whether key went down this frame.
func (i *Input) KeyPressed(key sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == key {
			return true
		}
	}
	return false
}

// Resized returns the last window size reported this frame.
func (i *Input) Resized() (w, h int, ok bool) {
	for _, e := range i.events {
		if e.Type == EventWindowResize {
			w, h, ok = e.Width, e.Height, true
		}
	}
	return w, h, ok
}

// Dragged sums the motion made while button was held.
func (i *Input) Dragged(button uint32) (dx, dy float32) {
	mask := sdl.Button(button)
	for _, e := range i.events {
		if e.Type == EventMouseMove && e.Buttons&mask != 0 {
			dx += e.DX
			dy += e.DY
		}
	}
	return dx, dy
}

// Scrolled sums the vertical wheel motion, positive away from the user.
func (i *Input) Scrolled() (d float32) {
	for _, e := range i.events {
		if e.Type == EventMouseWheel {
			d += e.DY
		}
	}
	return d
}

// Clicked returns where button was last pressed this frame.
func (i *Input) Clicked(button uint8) (x, y int, ok bool) {
	for _, e := range i.events {
		if e.Type == EventMouseDown && e.Button == button {
			x, y, ok = e.X, e.Y, true
		}
	}
	return x, y, ok
}
