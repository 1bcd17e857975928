package input

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

// queue returns a poll function yielding evs in order, then nil.
func queue(evs ...sdl.Event) func() sdl.Event {
	return func() sdl.Event {
		if len(evs) == 0 {
			return nil
		}
		ev := evs[0]
		evs = evs[1:]
		return ev
	}
}

func TestUpdateTranslates(t *testing.T) {
	in := newInput(queue(
		&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_B}},
		&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Repeat: 1, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_B}},
		&sdl.KeyboardEvent{Type: sdl.KEYUP, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_B}},
		&sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED, Data1: 800, Data2: 600},
		&sdl.WindowEvent{Event: sdl.WINDOWEVENT_MOVED},
		&sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONDOWN, Button: sdl.BUTTON_LEFT, X: 10, Y: 20},
	))
	if in.Update() {
		t.Fatal("Update reported quit")
	}

	want := []EventType{EventKeyDown, EventKeyUp, EventWindowResize, EventMouseDown}
	got := in.Events()
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(got), len(want), got)
	}
	for i, e := range got {
		if e.Type != want[i] {
			t.Errorf("event %d type = %v, want %v", i, e.Type, want[i])
		}
	}
	if !in.KeyPressed(sdl.SCANCODE_B) || in.KeyPressed(sdl.SCANCODE_ESCAPE) {
		t.Error("KeyPressed mismatch")
	}
	if w, h, ok := in.Resized(); !ok || w != 800 || h != 600 {
		t.Errorf("Resized = %d, %d, %v", w, h, ok)
	}
	if x, y, ok := in.Clicked(sdl.BUTTON_LEFT); !ok || x != 10 || y != 20 {
		t.Errorf("Clicked = %d, %d, %v", x, y, ok)
	}
	if _, _, ok := in.Clicked(sdl.BUTTON_RIGHT); ok {
		t.Error("right button was not clicked")
	}
}

func TestUpdateStopsAtQuit(t *testing.T) {
	poll := queue(
		&sdl.MouseWheelEvent{Y: 1},
		&sdl.QuitEvent{},
		&sdl.MouseWheelEvent{Y: 1},
	)
	in := newInput(poll)
	if !in.Update() {
		t.Fatal("expected quit")
	}
	if n := len(in.Events()); n != 2 {
		t.Errorf("got %d events, want the wheel and the quit", n)
	}
	// The next frame starts empty and picks up what was left queued.
	if in.Update() {
		t.Error("second Update reported quit")
	}
	if d := in.Scrolled(); d != 1 {
		t.Errorf("Scrolled = %v, want 1", d)
	}
}

func TestDragged(t *testing.T) {
	right := sdl.Button(sdl.BUTTON_RIGHT)
	in := newInput(queue(
		&sdl.MouseMotionEvent{XRel: 3, YRel: -1, State: right},
		&sdl.MouseMotionEvent{XRel: 100, YRel: 100},
		&sdl.MouseMotionEvent{XRel: 2, YRel: 4, State: right},
	))
	in.Update()

	if dx, dy := in.Dragged(sdl.BUTTON_RIGHT); dx != 5 || dy != 3 {
		t.Errorf("right drag = %v, %v, want 5, 3", dx, dy)
	}
	if dx, dy := in.Dragged(sdl.BUTTON_LEFT); dx != 0 || dy != 0 {
		t.Errorf("left drag = %v, %v, want none", dx, dy)
	}
}

func TestScrolledFlipped(t *testing.T) {
	in := newInput(queue(
		&sdl.MouseWheelEvent{Y: 2},
		&sdl.MouseWheelEvent{Y: 1, Direction: sdl.MOUSEWHEEL_FLIPPED},
	))
	in.Update()
	if d := in.Scrolled(); d != 1 {
		t.Errorf("Scrolled = %v, want 1", d)
	}
}
