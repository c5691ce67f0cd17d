package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"screen-translator/src/screenshot"
)

// LineMenu reads choices, one per line, from a console. Region corners are
// entered as "x,y" lines, so it also serves as the pointer.
type LineMenu struct {
	bindings Bindings
	out      io.Writer
	lines    chan string
	done     chan struct{}

	closed    chan struct{}
	closeOnce sync.Once
}

// NewLineMenu starts a reader goroutine over r. Prompts go to out.
func NewLineMenu(b Bindings, r io.Reader, out io.Writer) *LineMenu {
	m := &LineMenu{
		bindings: b,
		out:      out,
		lines:    make(chan string),
		done:     make(chan struct{}),
		closed:   make(chan struct{}),
	}
	go func() {
		defer close(m.done)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case m.lines <- sc.Text():
			case <-m.closed:
				return
			}
		}
	}()
	return m
}

func (m *LineMenu) next(ctx context.Context) (string, error) {
	select {
	case line := <-m.lines:
		return line, nil
	case <-m.done:
		return "", ErrClosed
	case <-m.closed:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// NextChoice returns the next line that names a bound key. EOF quits.
func (m *LineMenu) NextChoice(ctx context.Context) (Choice, error) {
	for {
		line, err := m.next(ctx)
		if errors.Is(err, ErrClosed) {
			return Quit, nil
		}
		if err != nil {
			return None, err
		}
		if c := m.bindings.MatchName(line); c != None {
			return c, nil
		}
	}
}

func (m *LineMenu) WaitPress(ctx context.Context) (screenshot.Point, error) {
	return m.readPoint(ctx, "Enter the first corner as x,y: ")
}

func (m *LineMenu) WaitRelease(ctx context.Context) (screenshot.Point, error) {
	return m.readPoint(ctx, "Enter the opposite corner as x,y: ")
}

func (m *LineMenu) readPoint(ctx context.Context, prompt string) (screenshot.Point, error) {
	for {
		fmt.Fprint(m.out, prompt)
		line, err := m.next(ctx)
		if err != nil {
			return screenshot.Point{}, err
		}
		p, err := ParsePoint(line)
		if err != nil {
			fmt.Fprintln(m.out, err)
			continue
		}
		return p, nil
	}
}

// ParsePoint parses "x,y" or "x y".
func ParsePoint(s string) (screenshot.Point, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) != 2 {
		return screenshot.Point{}, fmt.Errorf("invalid point %q: want x,y", s)
	}
	x, err := strconv.Atoi(fields[0])
	if err != nil {
		return screenshot.Point{}, fmt.Errorf("invalid x in %q: %v", s, err)
	}
	y, err := strconv.Atoi(fields[1])
	if err != nil {
		return screenshot.Point{}, fmt.Errorf("invalid y in %q: %v", s, err)
	}
	return screenshot.Point{X: x, Y: y}, nil
}

// Close stops delivering lines. A reader blocked inside r returns once its
// next line arrives.
func (m *LineMenu) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}
