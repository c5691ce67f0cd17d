package input

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"screen-translator/src/screenshot"
)

func TestLineMenu(t *testing.T) {
	in := strings.NewReader("hello\n2\n10,20\nbad\n110 70\n")
	var out bytes.Buffer
	m := NewLineMenu(DefaultBindings(), in, &out)
	ctx := context.Background()

	c, err := m.NextChoice(ctx)
	if err != nil || c != Region {
		t.Fatalf("NextChoice = %s, %v", c, err)
	}
	p1, err := m.WaitPress(ctx)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := m.WaitRelease(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if p1 != (screenshot.Point{X: 10, Y: 20}) || p2 != (screenshot.Point{X: 110, Y: 70}) {
		t.Errorf("points = %v %v", p1, p2)
	}
	if !strings.Contains(out.String(), "invalid point") {
		t.Errorf("output missing parse error: %q", out.String())
	}

	// EOF quits
	c, err = m.NextChoice(ctx)
	if err != nil || c != Quit {
		t.Errorf("NextChoice at EOF = %s, %v", c, err)
	}
}

func TestLineMenuCloseReleasesReader(t *testing.T) {
	in := strings.NewReader("hello\nworld\n")
	m := NewLineMenu(DefaultBindings(), in, &bytes.Buffer{})

	// nobody reads; the reader is parked sending "hello"
	time.Sleep(10 * time.Millisecond)
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	_ = m.Close()

	select {
	case <-m.done:
	case <-time.After(time.Second):
		t.Fatal("reader goroutine still running after Close")
	}

	c, err := m.NextChoice(context.Background())
	if err != nil || c != Quit {
		t.Errorf("NextChoice after Close = %s, %v", c, err)
	}
}

func TestParsePoint(t *testing.T) {
	tests := []struct {
		in      string
		want    screenshot.Point
		wantErr bool
	}{
		{"1,2", screenshot.Point{X: 1, Y: 2}, false},
		{" 30 40 ", screenshot.Point{X: 30, Y: 40}, false},
		{"-5, 7", screenshot.Point{X: -5, Y: 7}, false},
		{"1", screenshot.Point{}, true},
		{"a,b", screenshot.Point{}, true},
	}
	for _, tt := range tests {
		got, err := ParsePoint(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePoint(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePoint(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
