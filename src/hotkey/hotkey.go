package hotkey

import (
	"context"
	"errors"
	"log"
	"sync"

	gohook "github.com/robotn/gohook"

	"screen-translator/src/input"
	"screen-translator/src/screenshot"
)

const (
	leftButton = 1
	queueSize  = 16
)

// Hook turns global keyboard and mouse events into menu choices and pointer
// presses. One goroutine drains the hook; callers block on channels.
type Hook struct {
	bindings input.Bindings

	choices  chan input.Choice
	presses  chan screenshot.Point
	releases chan screenshot.Point
	done     chan struct{}

	end       func()
	closeOnce sync.Once
}

// NewHook starts the global gohook listener.
func NewHook(b input.Bindings) (*Hook, error) {
	log.Printf("Starting gohook event loop...")
	evChan := gohook.Start()
	if evChan == nil {
		return nil, errors.New("gohook.Start() returned nil channel")
	}
	return newHook(b, evChan, gohook.End), nil
}

func newHook(b input.Bindings, events <-chan gohook.Event, end func()) *Hook {
	h := &Hook{
		bindings: b,
		choices:  make(chan input.Choice, queueSize),
		presses:  make(chan screenshot.Point, queueSize),
		releases: make(chan screenshot.Point, queueSize),
		done:     make(chan struct{}),
		end:      end,
	}
	go h.dispatch(events)
	return h
}

func (h *Hook) dispatch(events <-chan gohook.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in input goroutine: %v", r)
		}
	}()
	for {
		select {
		case <-h.done:
			return
		case ev, ok := <-events:
			if !ok {
				log.Printf("Event channel closed")
				return
			}
			h.handle(ev)
		}
	}
}

func (h *Hook) handle(ev gohook.Event) {
	switch ev.Kind {
	case gohook.KeyHold:
		// typed: the only kind that carries a character
		if ev.Keychar == gohook.CharUndefined {
			return
		}
		if c := h.bindings.MatchChar(ev.Keychar); c != input.None {
			log.Printf("Key %q -> %s", ev.Keychar, c)
			offer(h.choices, c)
		}
	case gohook.KeyDown:
		// pressed: no character, so only rawcode bindings match
		if c := h.bindings.MatchRawcode(ev.Rawcode); c != input.None {
			log.Printf("Rawcode %d -> %s", ev.Rawcode, c)
			offer(h.choices, c)
		}
	case gohook.MouseDown:
		if ev.Button == leftButton {
			offer(h.presses, screenshot.Point{X: int(ev.X), Y: int(ev.Y)})
		}
	case gohook.MouseHold:
		// gohook reports a button release as MouseHold
		if ev.Button == leftButton {
			offer(h.releases, screenshot.Point{X: int(ev.X), Y: int(ev.Y)})
		}
	}
}

// offer drops the value when the queue is full.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func drain[T any](ch chan T) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

// NextChoice blocks until a bound key is typed. Keys typed before the call
// (while the previous iteration was running) are discarded.
func (h *Hook) NextChoice(ctx context.Context) (input.Choice, error) {
	drain(h.choices)
	select {
	case c := <-h.choices:
		return c, nil
	case <-h.done:
		return input.None, input.ErrClosed
	case <-ctx.Done():
		return input.None, ctx.Err()
	}
}

// WaitPress blocks until the left button goes down.
func (h *Hook) WaitPress(ctx context.Context) (screenshot.Point, error) {
	drain(h.presses)
	drain(h.releases)
	return wait(ctx, h.presses, h.done)
}

// WaitRelease blocks until the left button comes up.
func (h *Hook) WaitRelease(ctx context.Context) (screenshot.Point, error) {
	return wait(ctx, h.releases, h.done)
}

func wait(ctx context.Context, ch chan screenshot.Point, done chan struct{}) (screenshot.Point, error) {
	select {
	case p := <-ch:
		return p, nil
	case <-done:
		return screenshot.Point{}, input.ErrClosed
	case <-ctx.Done():
		return screenshot.Point{}, ctx.Err()
	}
}

// Close stops the global hook.
func (h *Hook) Close() error {
	h.closeOnce.Do(func() {
		close(h.done)
		if h.end != nil {
			h.end()
		}
	})
	return nil
}
